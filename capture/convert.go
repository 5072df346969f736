package capture

import (
	"fmt"

	"go2tv.app/pwcapture/frame"
	"go2tv.app/pwcapture/source"
)

// convertFrame copies one raw source buffer into dst, honoring an optional
// crop region and the source's row stride. dst must already be sized for
// the effective (cropped) geometry; its recorded width/height/length are
// updated to the cropped size on success.
//
// The source stride and the target linesize need not be equal: the source
// may pad rows, and the target layout may differ in byte width from the
// source layout.
func convertFrame(dst *frame.Buffer, src *source.RawBuffer, srcFormat source.PixelFormat, size source.Rect, crop *source.Region) error {
	width := size.Width
	height := size.Height
	startX := 0
	startY := 0
	if crop != nil {
		width = crop.Width
		height = crop.Height
		startX = crop.X
		startY = crop.Y
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid frame geometry %dx%d", width, height)
	}

	stride := src.Stride
	if stride == 0 {
		if size.Height <= 0 {
			return fmt.Errorf("cannot derive stride: source height %d", size.Height)
		}
		stride = src.ChunkSize / size.Height
	}

	linesize := frame.Linesize(width, dst.Desc.Format)
	skip := frame.Linesize(startX, dst.Desc.Format)

	need := src.ChunkOffset + skip + stride*(height-1+startY) + linesize
	if need > len(src.Data) {
		return fmt.Errorf("source buffer too short: need %d bytes, have %d", need, len(src.Data))
	}
	if linesize*height > len(dst.Data) {
		return fmt.Errorf("target buffer too small: need %d bytes, have %d", linesize*height, len(dst.Data))
	}

	swap := swapsRedBlue(srcFormat)
	for i := 0; i < height; i++ {
		srcOff := src.ChunkOffset + skip + stride*(i+startY)
		srcRow := src.Data[srcOff : srcOff+linesize]
		dstRow := dst.Data[linesize*i : linesize*(i+1)]
		if swap {
			copyRowSwapRB(dstRow, srcRow)
		} else {
			copy(dstRow, srcRow)
		}
	}

	dst.Desc.Width = width
	dst.Desc.Height = height
	dst.Len = linesize * height
	return nil
}

// copyRowSwapRB copies one row of 4-byte pixels exchanging the first and
// third channel. Applying it twice restores the original bytes.
func copyRowSwapRB(dst, src []byte) {
	n := len(src) &^ 3
	for i := 0; i < n; i += 4 {
		dst[i] = src[i+2]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i]
		dst[i+3] = src[i+3]
	}
}
