//go:build windows

package backend

// New returns the Windows clipboard backend.
func New() (Backend, error) {
	return newNativeBackend()
}
