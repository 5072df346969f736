//go:build !linux

package capture

// Open is only implemented for the PipeWire backend on linux.
func Open(options *Options) (*Session, error) {
	return nil, ErrNotImplemented
}
