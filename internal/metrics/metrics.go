// Package metrics exposes the pipeline's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Drop reasons recorded on framesDroppedTotal.
const (
	DropEmptyPayload = "empty_payload"
	DropPoolEmpty    = "pool_empty"
	DropQueueFull    = "queue_full"
)

var (
	framesConvertedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "capture_frames_converted_total",
		Help: "Frames converted and queued for the consumer",
	})

	framesDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "capture_frames_dropped_total",
		Help: "Raw frames dropped on the producer path",
	}, []string{"reason"})

	grabsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "capture_grabs_total",
		Help: "Consumer grab calls that returned a frame",
	})

	grabTimeoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "capture_grab_timeouts_total",
		Help: "Consumer grab calls that timed out with no data",
	})

	renegotiationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "capture_renegotiations_total",
		Help: "Format events accepted from the capture source",
	})

	rejectedFormatsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "capture_rejected_formats_total",
		Help: "Format events ignored because they were not video/raw",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "capture_queue_depth",
		Help: "Filled frames currently queued for the consumer",
	})
)

func FrameConverted() { framesConvertedTotal.Inc() }

func FrameDropped(reason string) { framesDroppedTotal.WithLabelValues(reason).Inc() }

func Grab() { grabsTotal.Inc() }

func GrabTimeout() { grabTimeoutsTotal.Inc() }

func Renegotiation() { renegotiationsTotal.Inc() }

func RejectedFormat() { rejectedFormatsTotal.Inc() }

func SetQueueDepth(n int) { queueDepth.Set(float64(n)) }
