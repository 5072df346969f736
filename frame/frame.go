// Package frame holds the value types and buffer plumbing shared by the
// capture producer and the host consumer: frame descriptors, owned pixel
// buffers, the recycling pool and the bounded handoff queue.
package frame

import "github.com/google/uuid"

// PixelFormat is the host-side pixel layout of a frame buffer.
type PixelFormat int

const (
	FormatUnknown PixelFormat = iota
	FormatRGBA
	FormatRGB
	FormatUYVY
	FormatYUYV
)

func (f PixelFormat) String() string {
	switch f {
	case FormatRGBA:
		return "RGBA"
	case FormatRGB:
		return "RGB"
	case FormatUYVY:
		return "UYVY"
	case FormatYUYV:
		return "YUYV"
	default:
		return "unknown"
	}
}

// BytesPerPixel returns the per-pixel byte width of the format, 0 for
// unknown formats.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case FormatRGBA:
		return 4
	case FormatRGB:
		return 3
	case FormatUYVY, FormatYUYV:
		return 2
	default:
		return 0
	}
}

// Linesize returns the byte length of one row of width pixels in the given
// format.
func Linesize(width int, format PixelFormat) int {
	return width * format.BytesPerPixel()
}

// Descriptor describes the geometry and layout of a frame stream. It is a
// plain value type: two descriptors compare equal with == exactly when no
// reallocation is needed between them.
type Descriptor struct {
	Width      int
	Height     int
	Format     PixelFormat
	FPS        float64
	Interlaced bool
	TileCount  int
}

// Size returns the byte length of one frame described by d.
func (d Descriptor) Size() int {
	return Linesize(d.Width, d.Format) * d.Height
}

// Buffer owns the pixel memory for a single frame tile. Ownership moves
// between the pool, the producer, the queue and the consumer; a buffer is
// never reachable from two of those at once.
type Buffer struct {
	// Desc records the geometry the buffer currently holds. It can lag the
	// session descriptor by one frame while a renegotiation or crop change
	// is being adopted.
	Desc Descriptor

	// Data is the backing pixel memory, Len bytes of it valid.
	Data []byte
	Len  int

	id string
}

// NewBuffer allocates a buffer sized for desc.
func NewBuffer(desc Descriptor) *Buffer {
	return &Buffer{
		Desc: desc,
		Data: make([]byte, desc.Size()),
		id:   uuid.NewString(),
	}
}

// ID is a stable tag assigned at allocation, used in logs and in
// ownership-transfer checks.
func (b *Buffer) ID() string {
	return b.id
}

// Resize adopts a new descriptor, reallocating the backing memory only when
// the current allocation is too small.
func (b *Buffer) Resize(desc Descriptor) {
	size := desc.Size()
	if cap(b.Data) < size {
		b.Data = make([]byte, size)
	}
	b.Data = b.Data[:size]
	b.Desc = desc
	b.Len = 0
}

// Bytes returns the valid payload of the buffer.
func (b *Buffer) Bytes() []byte {
	return b.Data[:b.Len]
}
