package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go2tv.app/pwcapture/frame"
	"go2tv.app/pwcapture/source"
)

func rgbaBuffer(w, h int) *frame.Buffer {
	return frame.NewBuffer(frame.Descriptor{Width: w, Height: h, Format: frame.FormatRGBA, TileCount: 1})
}

// fillPattern writes a deterministic byte pattern with the given row stride.
func fillPattern(w, h, stride, bpp int) []byte {
	data := make([]byte, stride*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w*bpp; x++ {
			data[y*stride+x] = byte((y*31 + x) % 251)
		}
	}
	return data
}

func TestConvertCropIdentity(t *testing.T) {
	const w, h = 8, 6
	linesize := frame.Linesize(w, frame.FormatRGBA)

	// Source rows padded beyond the target linesize.
	for _, stride := range []int{linesize, linesize + 4, linesize + 64} {
		src := &source.RawBuffer{
			Data:      fillPattern(w, h, stride, 4),
			ChunkSize: stride * h,
			Stride:    stride,
		}
		dst := rgbaBuffer(w, h)

		crop := &source.Region{X: 0, Y: 0, Width: w, Height: h}
		err := convertFrame(dst, src, source.FormatRGBA, source.Rect{Width: w, Height: h}, crop)
		require.NoError(t, err)

		for y := 0; y < h; y++ {
			assert.Equal(t,
				src.Data[y*stride:y*stride+linesize],
				dst.Data[y*linesize:(y+1)*linesize],
				"row %d differs at stride %d", y, stride)
		}
		assert.Equal(t, w, dst.Desc.Width)
		assert.Equal(t, h, dst.Desc.Height)
		assert.Equal(t, linesize*h, dst.Len)
	}
}

func TestConvertCropSubregion(t *testing.T) {
	const w, h = 8, 8
	stride := frame.Linesize(w, frame.FormatRGBA)
	src := &source.RawBuffer{
		Data:      fillPattern(w, h, stride, 4),
		ChunkSize: stride * h,
		Stride:    stride,
	}

	crop := &source.Region{X: 2, Y: 1, Width: 4, Height: 3}
	dst := rgbaBuffer(crop.Width, crop.Height)

	err := convertFrame(dst, src, source.FormatRGBA, source.Rect{Width: w, Height: h}, crop)
	require.NoError(t, err)

	cropLinesize := frame.Linesize(crop.Width, frame.FormatRGBA)
	skip := frame.Linesize(crop.X, frame.FormatRGBA)
	for y := 0; y < crop.Height; y++ {
		srcOff := (y + crop.Y) * stride
		assert.Equal(t,
			src.Data[srcOff+skip:srcOff+skip+cropLinesize],
			dst.Data[y*cropLinesize:(y+1)*cropLinesize],
			"cropped row %d differs", y)
	}
	assert.Equal(t, crop.Width, dst.Desc.Width)
	assert.Equal(t, crop.Height, dst.Desc.Height)
}

func TestConvertStrideFallback(t *testing.T) {
	const w, h = 4, 4
	linesize := frame.Linesize(w, frame.FormatRGBA)
	src := &source.RawBuffer{
		Data:      fillPattern(w, h, linesize, 4),
		ChunkSize: linesize * h,
		Stride:    0, // source did not report a stride
	}
	dst := rgbaBuffer(w, h)

	err := convertFrame(dst, src, source.FormatRGBA, source.Rect{Width: w, Height: h}, nil)
	require.NoError(t, err)
	assert.Equal(t, src.Data, dst.Data)
}

// Converting BGRA and converting the result again must reproduce the
// original bytes: the channel permutation is its own inverse.
func TestConvertSwapIsInvolution(t *testing.T) {
	const w, h = 6, 3
	linesize := frame.Linesize(w, frame.FormatRGBA)
	original := fillPattern(w, h, linesize, 4)

	src := &source.RawBuffer{Data: original, ChunkSize: linesize * h, Stride: linesize}
	once := rgbaBuffer(w, h)
	require.NoError(t, convertFrame(once, src, source.FormatBGRA, source.Rect{Width: w, Height: h}, nil))
	assert.NotEqual(t, original, once.Data)

	back := rgbaBuffer(w, h)
	src2 := &source.RawBuffer{Data: once.Data, ChunkSize: linesize * h, Stride: linesize}
	require.NoError(t, convertFrame(back, src2, source.FormatBGRA, source.Rect{Width: w, Height: h}, nil))
	assert.Equal(t, original, back.Data)
}

func TestConvertSwapPermutesChannels(t *testing.T) {
	src := &source.RawBuffer{
		Data:      []byte{1, 2, 3, 4},
		ChunkSize: 4,
		Stride:    4,
	}
	dst := rgbaBuffer(1, 1)
	require.NoError(t, convertFrame(dst, src, source.FormatBGRx, source.Rect{Width: 1, Height: 1}, nil))
	assert.Equal(t, []byte{3, 2, 1, 4}, dst.Data)
}

func TestConvertRejectsMalformedBuffers(t *testing.T) {
	dst := rgbaBuffer(4, 4)

	// Chunk claims more rows than the payload holds.
	src := &source.RawBuffer{
		Data:      make([]byte, 8),
		ChunkSize: 64,
		Stride:    16,
	}
	err := convertFrame(dst, src, source.FormatRGBA, source.Rect{Width: 4, Height: 4}, nil)
	assert.Error(t, err)

	// Degenerate geometry.
	err = convertFrame(dst, src, source.FormatRGBA, source.Rect{Width: 0, Height: 4}, nil)
	assert.Error(t, err)
}
