//go:build !unix

package fs

// fileLock is a no-op where flock(2) is unavailable; commits are then
// serialized within the process only.
func fileLock(path string) (func(), error) {
	return func() {}, nil
}
