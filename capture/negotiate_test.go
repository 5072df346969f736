package capture

import (
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go2tv.app/pwcapture/frame"
	"go2tv.app/pwcapture/source"
)

func newTestNegotiator(t *testing.T, wantCrop bool) (*negotiator, *logtest.Hook) {
	t.Helper()
	log, hook := logtest.NewNullLogger()
	return &negotiator{log: log.WithField("component", "test"), wantCrop: wantCrop}, hook
}

func videoRawEvent(w, h int, f source.PixelFormat) *source.FormatEvent {
	return &source.FormatEvent{
		MediaType:    source.MediaTypeVideo,
		MediaSubtype: source.MediaSubtypeRaw,
		Format:       f,
		Size:         source.Rect{Width: w, Height: h},
		Framerate:    source.Fraction{Num: 30, Den: 1},
	}
}

func TestNegotiatorRejectsNonVideoRaw(t *testing.T) {
	n, _ := newTestNegotiator(t, true)

	ev := videoRawEvent(1920, 1080, source.FormatBGRA)
	ev.MediaType = source.MediaTypeAudio
	_, _, err := n.Apply(ev)
	assert.ErrorIs(t, err, ErrUnsupportedMedia)

	ev = videoRawEvent(1920, 1080, source.FormatBGRA)
	ev.MediaSubtype = source.MediaSubtypeEncoded
	_, _, err = n.Apply(ev)
	assert.ErrorIs(t, err, ErrUnsupportedMedia)
}

func TestNegotiatorRejectsUnknownPixelFormat(t *testing.T) {
	n, _ := newTestNegotiator(t, true)

	ev := videoRawEvent(1920, 1080, source.FormatUnknown)
	_, _, err := n.Apply(ev)
	assert.ErrorIs(t, err, ErrUnsupportedMedia)
}

func TestNegotiatorDescriptor(t *testing.T) {
	n, _ := newTestNegotiator(t, true)

	desc, params, err := n.Apply(videoRawEvent(1280, 720, source.FormatBGRx))
	require.NoError(t, err)

	assert.Equal(t, 1280, desc.Width)
	assert.Equal(t, 720, desc.Height)
	assert.Equal(t, frame.FormatRGBA, desc.Format)
	assert.Equal(t, 30.0, desc.FPS)
	assert.False(t, desc.Interlaced)
	assert.Equal(t, 1, desc.TileCount)

	assert.Equal(t, source.BufferRange{Min: 2, Default: 2, Max: 10}, params.Buffers)
	assert.Equal(t, 1, params.Blocks)
	assert.Equal(t, 1280*4, params.Stride)
	assert.Equal(t, 1280*4*720, params.Size)
	assert.True(t, params.WantCropMeta)
}

func TestNegotiatorCropDisabled(t *testing.T) {
	n, _ := newTestNegotiator(t, false)

	_, params, err := n.Apply(videoRawEvent(640, 480, source.FormatRGBA))
	require.NoError(t, err)
	assert.False(t, params.WantCropMeta)
}

// The source's exact framerate always wins, even when the user hinted
// something else at connect time.
func TestNegotiatorExactFramerateWins(t *testing.T) {
	n, _ := newTestNegotiator(t, true)

	ev := videoRawEvent(640, 480, source.FormatRGBA)
	ev.Framerate = source.Fraction{Num: 30, Den: 1}

	params := connectParams(Options{FPS: 15})
	assert.Equal(t, source.Fraction{Num: 15, Den: 1}, params.FramerateDefault)

	desc, _, err := n.Apply(ev)
	require.NoError(t, err)
	assert.Equal(t, 30.0, desc.FPS)
}

func TestNegotiatorVariableFramerate(t *testing.T) {
	n, _ := newTestNegotiator(t, true)

	ev := videoRawEvent(640, 480, source.FormatRGBA)
	ev.Framerate = source.Fraction{Num: 0, Den: 1}
	ev.MaxFramerate = source.Fraction{Num: 120, Den: 2}

	desc, _, err := n.Apply(ev)
	require.NoError(t, err)
	assert.Equal(t, 60.0, desc.FPS)
}

func TestNegotiatorFramerateFallback(t *testing.T) {
	n, hook := newTestNegotiator(t, true)

	ev := videoRawEvent(640, 480, source.FormatRGBA)
	ev.Framerate = source.Fraction{}
	ev.MaxFramerate = source.Fraction{}

	desc, _, err := n.Apply(ev)
	require.NoError(t, err)
	assert.Equal(t, 60.0, desc.FPS)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned = true
		}
	}
	assert.True(t, warned, "fallback framerate must surface a warning")
}

func TestConnectParamsDefaults(t *testing.T) {
	params := connectParams(Options{})
	assert.Equal(t, source.Fraction{Num: defaultExpectingFPS, Den: 1}, params.FramerateDefault)
	assert.NotEmpty(t, params.Formats)
	assert.Equal(t, source.Rect{Width: 1, Height: 1}, params.SizeMin)
}

func TestFormatMapping(t *testing.T) {
	cases := map[source.PixelFormat]frame.PixelFormat{
		source.FormatBGRA: frame.FormatRGBA,
		source.FormatBGRx: frame.FormatRGBA,
		source.FormatRGBA: frame.FormatRGBA,
		source.FormatRGBx: frame.FormatRGBA,
		source.FormatRGB:  frame.FormatRGB,
		source.FormatUYVY: frame.FormatUYVY,
		source.FormatYUY2: frame.FormatYUYV,
	}
	for src, want := range cases {
		got, ok := hostFormat[src]
		require.True(t, ok, "missing mapping for %s", src)
		assert.Equal(t, want, got)
	}

	assert.True(t, swapsRedBlue(source.FormatBGRA))
	assert.True(t, swapsRedBlue(source.FormatBGRx))
	assert.False(t, swapsRedBlue(source.FormatRGBA))
}
