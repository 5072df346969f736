package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinesize(t *testing.T) {
	assert.Equal(t, 1920*4, Linesize(1920, FormatRGBA))
	assert.Equal(t, 1920*3, Linesize(1920, FormatRGB))
	assert.Equal(t, 1920*2, Linesize(1920, FormatUYVY))
	assert.Equal(t, 1920*2, Linesize(1920, FormatYUYV))
	assert.Equal(t, 0, Linesize(1920, FormatUnknown))
}

func TestDescriptorEquality(t *testing.T) {
	a := Descriptor{Width: 1280, Height: 720, Format: FormatRGBA, FPS: 30, TileCount: 1}
	b := a
	assert.Equal(t, a, b)

	b.Width = 1281
	assert.NotEqual(t, a, b)

	b = a
	b.FPS = 60
	assert.NotEqual(t, a, b)
}

func TestDescriptorSize(t *testing.T) {
	d := Descriptor{Width: 640, Height: 480, Format: FormatRGBA}
	assert.Equal(t, 640*480*4, d.Size())
}

func TestBufferResize(t *testing.T) {
	small := Descriptor{Width: 320, Height: 240, Format: FormatRGBA, TileCount: 1}
	large := Descriptor{Width: 640, Height: 480, Format: FormatRGBA, TileCount: 1}

	b := NewBuffer(large)
	require.Len(t, b.Data, large.Size())
	id := b.ID()

	// Shrinking keeps the existing allocation.
	before := &b.Data[0]
	b.Resize(small)
	assert.Equal(t, small, b.Desc)
	assert.Len(t, b.Data, small.Size())
	assert.Same(t, before, &b.Data[0])

	// Growing past capacity reallocates.
	b.Resize(large)
	assert.Len(t, b.Data, large.Size())

	// Identity survives resizing.
	assert.Equal(t, id, b.ID())
	assert.Zero(t, b.Len)
}

func TestBufferBytes(t *testing.T) {
	b := NewBuffer(Descriptor{Width: 4, Height: 2, Format: FormatRGBA, TileCount: 1})
	b.Len = 8
	assert.Len(t, b.Bytes(), 8)
}
