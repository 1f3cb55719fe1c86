package core

import (
	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	Subscribers    int    `json:"subscribers"`
	Loaded         bool   `json:"loaded"`
	Revision       uint64 `json:"revision"`
	Notes          int    `json:"notes"`
	Watching       bool   `json:"watching"`
	RepositoryType string `json:"repository_type"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	s.mu.Lock()
	watching := s.watching
	s.mu.Unlock()

	repoType := "unknown"
	if s.repo != nil {
		repoType = "repository"
		// Try to get component type if repository implements introspection.Component
		if comp, ok := s.repo.(introspection.Component); ok {
			repoType = comp.ComponentType()
		}
	}

	current, loaded := s.broker.snapshot()
	return ServiceState{
		Subscribers:    s.broker.size(),
		Loaded:         loaded,
		Revision:       current.Revision(),
		Notes:          current.Len(),
		Watching:       watching,
		RepositoryType: repoType,
	}
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "service"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
