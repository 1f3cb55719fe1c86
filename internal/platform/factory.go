package platform

import (
	"github.com/aretw0/notepad/pkg/core"
)

// New creates a Service over the repository selected by opts.
//
//	svc, err := notepad.New("./notes", notepad.WithFormat("yaml"))
//
// The URI argument is adapter-specific (a directory for "fs", ignored by "memory").
func New(uri string, opts ...Option) (*core.Service, error) {
	o, err := resolveOptions(uri, opts)
	if err != nil {
		return nil, err
	}

	repo, err := initRepository(uri, o)
	if err != nil {
		return nil, err
	}

	serviceOpts := []core.ServiceOption{core.WithWatch(o.watch)}
	if o.logger != nil {
		serviceOpts = append(serviceOpts, core.WithServiceLogger(o.logger))
	}
	if o.clock != nil {
		serviceOpts = append(serviceOpts, core.WithClock(o.clock))
	}

	return core.NewService(repo, serviceOpts...), nil
}
