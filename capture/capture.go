// Package capture is the host-facing screen capture pipeline: it bridges
// the asynchronous, callback-driven capture source to the host's
// synchronous pull loop, recycling frame memory through a pool and handing
// frames across the thread boundary through a bounded queue.
package capture

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	ErrNotImplemented   = errors.New("screen capture backend is not implemented on this platform")
	ErrPermissionDenied = errors.New("screen capture request was denied or cancelled")
	ErrConnectFailed    = errors.New("could not connect to the capture source")
	ErrUnsupportedMedia = errors.New("capture source format is not video/raw")
	ErrNoStreams        = errors.New("screen capture returned no streams")
	ErrInvalidOptions   = errors.New("invalid screen capture options")
)

const (
	defaultGrabTimeout = 500 * time.Millisecond
	defaultPoolSize    = 3
	defaultQueueSize   = 3

	// How long Open waits for the source to report its first valid
	// video/raw format before giving up.
	defaultFormatTimeout = 8 * time.Second
)

// Options configures a capture session. The zero value is usable: cursor
// hidden, cropping enabled, no framerate preference.
type Options struct {
	// CursorVisible embeds the cursor into the captured frames.
	CursorVisible bool

	// NoCrop disables crop metadata: when capturing a window the empty
	// background is kept instead of being cropped out.
	NoCrop bool

	// FPS is a preferred framerate hint passed to the source. The source
	// may ignore it; the negotiated rate always wins. 0 means no
	// preference.
	FPS int

	// RestoreFile persists the portal restore token between runs so the
	// picker dialog is skipped while the grant is still valid. Empty
	// disables persistence.
	RestoreFile string

	// GrabTimeout bounds how long Grab waits for a frame. It paces the
	// host and doubles as a dead-source detector. Default 500ms.
	GrabTimeout time.Duration

	// PoolSize and QueueSize size the buffer freelist and the
	// producer→consumer queue. Defaults 3 and 3.
	PoolSize  int
	QueueSize int

	// Logger receives pipeline logs. Defaults to the logrus standard
	// logger.
	Logger *logrus.Logger
}

func validateOptions(options *Options) (Options, error) {
	var o Options
	if options != nil {
		o = *options
	}
	if o.FPS < 0 {
		return o, errors.Join(ErrInvalidOptions, errors.New("FPS must be >= 0"))
	}
	if o.GrabTimeout < 0 || o.PoolSize < 0 || o.QueueSize < 0 {
		return o, errors.Join(ErrInvalidOptions, errors.New("timeouts and sizes must be >= 0"))
	}
	if o.GrabTimeout == 0 {
		o.GrabTimeout = defaultGrabTimeout
	}
	if o.PoolSize == 0 {
		o.PoolSize = defaultPoolSize
	}
	if o.QueueSize == 0 {
		o.QueueSize = defaultQueueSize
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	return o, nil
}
