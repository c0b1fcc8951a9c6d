//go:build darwin

package backend

// New returns the macOS pasteboard backend.
func New() (Backend, error) {
	return newNativeBackend()
}
