// Package source defines the contract between the capture pipeline and an
// asynchronous capture backend. The backend owns its own producer thread
// and delivers every callback as one Event through a single Handler entry
// point; the pipeline configures the backend through Connect and
// UpdateParams.
package source

// PixelFormat enumerates the raw layouts a backend may deliver. These are
// source-side formats; the pipeline maps them onto host frame formats
// during negotiation.
type PixelFormat int

const (
	FormatUnknown PixelFormat = iota
	FormatBGRA
	FormatBGRx
	FormatRGBA
	FormatRGBx
	FormatRGB
	FormatUYVY
	FormatYUY2
)

func (f PixelFormat) String() string {
	switch f {
	case FormatBGRA:
		return "BGRA"
	case FormatBGRx:
		return "BGRx"
	case FormatRGBA:
		return "RGBA"
	case FormatRGBx:
		return "RGBx"
	case FormatRGB:
		return "RGB"
	case FormatUYVY:
		return "UYVY"
	case FormatYUY2:
		return "YUY2"
	default:
		return "unknown"
	}
}

// Media type and subtype reported with a format event. Only video/raw is
// consumable by the pipeline.
type MediaType int

type MediaSubtype int

const (
	MediaTypeUnknown MediaType = iota
	MediaTypeVideo
	MediaTypeAudio
)

const (
	MediaSubtypeUnknown MediaSubtype = iota
	MediaSubtypeRaw
	MediaSubtypeEncoded
)

// Fraction is a rational framerate as reported by the backend.
type Fraction struct {
	Num int
	Den int
}

// Rect is a width/height pair.
type Rect struct {
	Width  int
	Height int
}

// Region is a crop sub-rectangle within a raw buffer.
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

// FormatEvent is the payload of a ParamsChanged event: the geometry the
// backend has (re)negotiated. It can arrive at any time while streaming.
type FormatEvent struct {
	MediaType    MediaType
	MediaSubtype MediaSubtype
	Format       PixelFormat
	Size         Rect
	Framerate    Fraction
	MaxFramerate Fraction
}

// RawBuffer describes one mapped buffer delivered by a Process event. Data
// is owned by the backend and is valid only until the delivering
// HandleEvent call returns; the pipeline must copy out of it synchronously.
type RawBuffer struct {
	Data []byte

	// Chunk layout as reported by the backend. A stride of 0 means the
	// backend did not report one.
	ChunkOffset int
	ChunkSize   int
	Stride      int

	// Crop is the optional crop metadata attached to this buffer, nil when
	// absent or not requested.
	Crop *Region
}

// StreamState mirrors the backend's stream lifecycle states.
type StreamState int

const (
	StreamError StreamState = iota
	StreamUnconnected
	StreamConnecting
	StreamPaused
	StreamStreaming
)

func (s StreamState) String() string {
	switch s {
	case StreamError:
		return "error"
	case StreamUnconnected:
		return "unconnected"
	case StreamConnecting:
		return "connecting"
	case StreamPaused:
		return "paused"
	case StreamStreaming:
		return "streaming"
	default:
		return "invalid"
	}
}

// Kind discriminates the backend events delivered to the pipeline.
type Kind int

const (
	KindStateChanged Kind = iota
	KindParamsChanged
	KindProcess
	KindBufferAdded
	KindBufferRemoved
	KindDrained
)

func (k Kind) String() string {
	switch k {
	case KindStateChanged:
		return "state_changed"
	case KindParamsChanged:
		return "params_changed"
	case KindProcess:
		return "process"
	case KindBufferAdded:
		return "buffer_added"
	case KindBufferRemoved:
		return "buffer_removed"
	case KindDrained:
		return "drained"
	default:
		return "unknown"
	}
}

// Event is the single event type carried from backend to pipeline. Which
// payload fields are set depends on Kind.
type Event struct {
	Kind Kind

	// StateChanged
	OldState StreamState
	NewState StreamState
	Err      error

	// ParamsChanged
	Format *FormatEvent

	// Process
	Buffers []*RawBuffer
}

// Handler receives backend events on the backend's producer thread.
// HandleEvent must not block on the consumer.
type Handler interface {
	HandleEvent(ev Event)
}

// BufferRange is the [min, default, max] buffer count negotiated with the
// backend.
type BufferRange struct {
	Min     int
	Default int
	Max     int
}

// BufferParams is the pipeline's answer to a format event: how the backend
// should size and annotate its buffers.
type BufferParams struct {
	Buffers      BufferRange
	Blocks       int
	Size         int
	Stride       int
	WantCropMeta bool
}

// ConnectParams constrains the formats offered when connecting a stream.
type ConnectParams struct {
	Formats          []PixelFormat
	SizeDefault      Rect
	SizeMin          Rect
	SizeMax          Rect
	FramerateDefault Fraction
	FramerateMin     Fraction
	FramerateMax     Fraction
}

// Source is an asynchronous capture backend. Connect and Start are called
// once during session bring-up; Stop must return only after the producer
// thread has exited and no further events will be delivered. Close releases
// the backend's OS resources and implies Stop.
type Source interface {
	SetHandler(h Handler)
	Connect(params ConnectParams) error
	UpdateParams(params BufferParams) error
	Start() error
	Stop()
	Close() error
}
