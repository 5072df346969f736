package capture

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"go2tv.app/pwcapture/frame"
	"go2tv.app/pwcapture/internal/logging"
	"go2tv.app/pwcapture/internal/metrics"
	"go2tv.app/pwcapture/source"
)

// State is the session lifecycle state.
type State int32

const (
	StateCreated State = iota
	StateNegotiating
	StateStreaming
	StateDraining
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateNegotiating:
		return "negotiating"
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return "invalid"
	}
}

// Session owns one capture stream. The source's producer thread delivers
// events into HandleEvent; the host's consumer thread calls Grab. The only
// state both sides touch is the pool (its own lock) and the queue (its own
// channel); everything else is confined to one thread.
type Session struct {
	log  *logrus.Entry
	opts Options

	src   source.Source
	pool  *frame.Pool
	queue *frame.Queue
	neg   *negotiator

	// Producer-thread state. Touched only from HandleEvent.
	negotiated frame.Descriptor // last accepted full-frame geometry
	desc       frame.Descriptor // current target geometry, crop included
	srcFormat  source.PixelFormat
	srcSize    source.Rect

	// Consumer-thread state. Touched only from Grab/Close.
	inFlight *frame.Buffer

	state      atomic.Int32
	sawInvalid atomic.Bool

	formatReady chan struct{}
	formatOnce  sync.Once

	closers   []io.Closer
	closeOnce sync.Once
	closeErr  error

	handlers map[source.Kind]func(*source.Event)
}

func newSession(opts Options, src source.Source) *Session {
	log := logging.Component(opts.Logger, "capture")
	s := &Session{
		log:         log,
		opts:        opts,
		src:         src,
		pool:        frame.NewPool(opts.PoolSize, frame.Descriptor{}),
		queue:       frame.NewQueue(opts.QueueSize),
		neg:         &negotiator{log: log, wantCrop: !opts.NoCrop},
		formatReady: make(chan struct{}),
	}
	s.handlers = map[source.Kind]func(*source.Event){
		source.KindStateChanged:  s.onStateChanged,
		source.KindParamsChanged: s.onParamsChanged,
		source.KindProcess:       s.onProcess,
		source.KindBufferAdded:   s.onBufferAdded,
		source.KindBufferRemoved: s.onBufferRemoved,
		source.KindDrained:       s.onDrained,
	}
	s.state.Store(int32(StateCreated))
	return s
}

// start connects the source and begins event delivery.
func (s *Session) start() error {
	s.src.SetHandler(s)
	s.state.Store(int32(StateNegotiating))
	if err := s.src.Connect(connectParams(s.opts)); err != nil {
		return err
	}
	return s.src.Start()
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// HandleEvent is the single entry point for source events. It runs on the
// source's producer thread.
func (s *Session) HandleEvent(ev source.Event) {
	h, ok := s.handlers[ev.Kind]
	if !ok {
		s.log.WithField("kind", ev.Kind).Debug("unhandled source event")
		return
	}
	h(&ev)
}

func (s *Session) onStateChanged(ev *source.Event) {
	s.log.WithFields(logrus.Fields{
		"old": ev.OldState,
		"new": ev.NewState,
	}).Info("stream state changed")
	if ev.Err != nil {
		s.log.WithError(ev.Err).Error("stream error")
	}
}

// onParamsChanged handles (re)negotiation. A rejected event keeps the
// previous descriptor authoritative; in-flight conversions based on the old
// descriptor are never interrupted, the next pool allocation simply adopts
// the new geometry.
func (s *Session) onParamsChanged(ev *source.Event) {
	if ev.Format == nil {
		return
	}

	desc, params, err := s.neg.Apply(ev.Format)
	if err != nil {
		s.sawInvalid.Store(true)
		metrics.RejectedFormat()
		s.log.WithError(err).Error("ignoring format event")
		return
	}

	s.negotiated = desc
	s.desc = desc
	s.srcFormat = ev.Format.Format
	s.srcSize = ev.Format.Size
	metrics.Renegotiation()

	if err := s.src.UpdateParams(params); err != nil {
		s.log.WithError(err).Error("updating source buffer params")
	}

	if State(s.state.Load()) == StateNegotiating {
		s.state.Store(int32(StateStreaming))
	}
	s.formatOnce.Do(func() { close(s.formatReady) })
}

// onProcess runs the hot path: for each delivered raw buffer, fill a pooled
// buffer and queue it. Starvation on either side drops the frame; loss is
// preferred over backpressure or failure.
func (s *Session) onProcess(ev *source.Event) {
	for _, raw := range ev.Buffers {
		if raw == nil || raw.ChunkSize == 0 || len(raw.Data) == 0 {
			metrics.FrameDropped(metrics.DropEmptyPayload)
			s.log.Debug("dropping empty source frame")
			continue
		}

		buf, ok := s.pool.Acquire()
		if !ok {
			metrics.FrameDropped(metrics.DropPoolEmpty)
			s.log.Debug("dropping frame, no pooled buffers")
			continue
		}

		crop := raw.Crop
		if s.opts.NoCrop {
			crop = nil
		}

		// Fold the crop into the target geometry so steady-state cropping
		// reallocates once, not per frame.
		s.desc = s.negotiated
		if crop != nil {
			s.desc.Width = crop.Width
			s.desc.Height = crop.Height
		}

		if buf.Desc != s.desc {
			s.log.WithField("buffer", buf.ID()).Debug("descriptor changed, resizing buffer")
			buf.Resize(s.desc)
		}

		if err := convertFrame(buf, raw, s.srcFormat, s.srcSize, crop); err != nil {
			s.log.WithError(err).Warn("skipping malformed source buffer")
			s.pool.Release(buf)
			continue
		}

		if s.queue.Push(buf) {
			metrics.FrameConverted()
		} else {
			metrics.FrameDropped(metrics.DropQueueFull)
			s.log.WithField("buffer", buf.ID()).Debug("dropping frame, queue full")
			s.pool.Release(buf)
		}
		metrics.SetQueueDepth(s.queue.Len())
	}
}

func (s *Session) onBufferAdded(*source.Event) {
	s.log.Debug("source added a buffer")
}

func (s *Session) onBufferRemoved(*source.Event) {
	s.log.Debug("source removed a buffer")
}

func (s *Session) onDrained(*source.Event) {
	s.log.Debug("source drained")
}

// Grab returns the oldest queued frame, waiting at most the configured
// timeout. The false return means no data arrived in time; that is pacing,
// not an error. The returned buffer stays valid until the next Grab or
// Close call, whichever comes first.
func (s *Session) Grab() (*frame.Buffer, bool) {
	if s.State() >= StateDraining {
		return nil, false
	}

	if s.inFlight != nil {
		s.pool.Release(s.inFlight)
		s.inFlight = nil
	}

	b, ok := s.queue.PopTimeout(s.opts.GrabTimeout)
	if !ok {
		metrics.GrabTimeout()
		return nil, false
	}
	metrics.Grab()
	s.inFlight = b
	return b, true
}

// waitFormat blocks until the source reports its first valid video/raw
// format, or fails with the enumerated init error after d.
func (s *Session) waitFormat(d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-s.formatReady:
		return nil
	case <-timer.C:
		if s.sawInvalid.Load() {
			return ErrUnsupportedMedia
		}
		return ErrConnectFailed
	}
}

// Close tears the session down. The producer is stopped and its thread
// joined strictly before the queue and pool are drained; that ordering is a
// hard contract, the producer must never touch recycled memory. Close is
// idempotent.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateDraining))
		s.log.Info("draining capture session")

		s.src.Stop()
		s.closeErr = s.src.Close()

		for _, b := range s.queue.Drain() {
			s.pool.Release(b)
		}
		if s.inFlight != nil {
			s.pool.Release(s.inFlight)
			s.inFlight = nil
		}

		for _, c := range s.closers {
			if err := c.Close(); err != nil && s.closeErr == nil {
				s.closeErr = err
			}
		}

		s.state.Store(int32(StateClosed))
		s.log.Info("capture session closed")
	})
	return s.closeErr
}
