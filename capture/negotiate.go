package capture

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"go2tv.app/pwcapture/frame"
	"go2tv.app/pwcapture/source"
)

const (
	defaultBuffers = 2
	minBuffers     = 2
	maxBuffers     = 10

	// Framerate offered to the source when the user gave no preference.
	defaultExpectingFPS = 30

	// Framerate assumed when the source reports neither an exact nor a max
	// framerate.
	fallbackFPS = 60.0
)

// hostFormat maps source pixel formats onto the host layouts the converter
// produces. BGRA/BGRx land on RGBA via the per-row channel permutation.
var hostFormat = map[source.PixelFormat]frame.PixelFormat{
	source.FormatBGRA: frame.FormatRGBA,
	source.FormatBGRx: frame.FormatRGBA,
	source.FormatRGBA: frame.FormatRGBA,
	source.FormatRGBx: frame.FormatRGBA,
	source.FormatRGB:  frame.FormatRGB,
	source.FormatUYVY: frame.FormatUYVY,
	source.FormatYUY2: frame.FormatYUYV,
}

// swapsRedBlue reports whether the source layout needs the R↔B channel
// permutation instead of a straight row copy.
func swapsRedBlue(f source.PixelFormat) bool {
	return f == source.FormatBGRA || f == source.FormatBGRx
}

// negotiator turns source format events into the session descriptor and the
// buffer parameters sent back to the source. It runs synchronously on the
// producer thread and does no blocking I/O.
type negotiator struct {
	log      *logrus.Entry
	wantCrop bool
}

// Apply validates a format event and derives the new descriptor. A non-nil
// error means the event must be ignored and the previous descriptor stays
// in effect; it is never fatal once streaming.
func (n *negotiator) Apply(ev *source.FormatEvent) (frame.Descriptor, source.BufferParams, error) {
	var desc frame.Descriptor
	var params source.BufferParams

	if ev.MediaType != source.MediaTypeVideo || ev.MediaSubtype != source.MediaSubtypeRaw {
		return desc, params, ErrUnsupportedMedia
	}

	format, ok := hostFormat[ev.Format]
	if !ok {
		return desc, params, fmt.Errorf("%w: no mapping for pixel format %s", ErrUnsupportedMedia, ev.Format)
	}

	desc.Width = ev.Size.Width
	desc.Height = ev.Size.Height
	desc.Format = format
	desc.Interlaced = false
	desc.TileCount = 1
	desc.FPS = n.resolveFPS(ev)

	linesize := frame.Linesize(desc.Width, desc.Format)
	params = source.BufferParams{
		Buffers:      source.BufferRange{Min: minBuffers, Default: defaultBuffers, Max: maxBuffers},
		Blocks:       1,
		Size:         linesize * desc.Height,
		Stride:       linesize,
		WantCropMeta: n.wantCrop,
	}

	n.log.WithFields(logrus.Fields{
		"format": format,
		"width":  desc.Width,
		"height": desc.Height,
		"fps":    desc.FPS,
	}).Info("negotiated format")

	return desc, params, nil
}

// resolveFPS prefers the exact framerate, then the max framerate of a
// variable-rate source, then a fixed fallback. The source's value always
// wins over the user hint.
func (n *negotiator) resolveFPS(ev *source.FormatEvent) float64 {
	if ev.Framerate.Num != 0 {
		return float64(ev.Framerate.Num) / float64(ev.Framerate.Den)
	}
	if ev.MaxFramerate.Num != 0 {
		n.log.WithFields(logrus.Fields{
			"num": ev.MaxFramerate.Num,
			"den": ev.MaxFramerate.Den,
		}).Debug("variable framerate source, using max framerate")
		return float64(ev.MaxFramerate.Num) / float64(ev.MaxFramerate.Den)
	}
	n.log.Warnf("source reported no usable framerate, assuming %v", fallbackFPS)
	return fallbackFPS
}

// connectParams is the format offer sent when connecting the stream. The
// size and framerate windows are deliberately wide; the source picks the
// actual values and reports them back through a format event.
func connectParams(o Options) source.ConnectParams {
	fps := o.FPS
	if fps <= 0 {
		fps = defaultExpectingFPS
	}
	return source.ConnectParams{
		Formats: []source.PixelFormat{
			source.FormatUYVY,
			source.FormatRGB,
			source.FormatRGBA,
			source.FormatRGBx,
			source.FormatYUY2,
			source.FormatBGRA,
			source.FormatBGRx,
		},
		SizeDefault:      source.Rect{Width: 1920, Height: 1080},
		SizeMin:          source.Rect{Width: 1, Height: 1},
		SizeMax:          source.Rect{Width: 3840, Height: 2160},
		FramerateDefault: source.Fraction{Num: fps, Den: 1},
		FramerateMin:     source.Fraction{Num: 0, Den: 1},
		FramerateMax:     source.Fraction{Num: 600, Den: 1},
	}
}
