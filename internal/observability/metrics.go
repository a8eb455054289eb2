package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vpp",
		Name:      "frames_processed_total",
		Help:      "Total number of frames processed",
	}, []string{"stream_id"})

	FacesDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vpp",
		Name:      "zones_detected_total",
		Help:      "Total number of zones detected",
	}, []string{"stream_id"})

	FacesRecognized = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vpp",
		Name:      "zones_recognized_total",
		Help:      "Total number of zones recognized against stored embeddings",
	}, []string{"stream_id"})

	InferenceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vpp",
		Name:      "inference_duration_seconds",
		Help:      "Duration of ML inference stages",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"stage"})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "vpp",
		Name:      "queue_depth",
		Help:      "Number of pending frame tasks in queue",
	})

	ActiveStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "vpp",
		Name:      "active_streams",
		Help:      "Number of currently active video streams",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vpp",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "vpp",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})

	// PipelineState reports a Pipeline's numeric core.State (Idle=0,
	// Running=1, Halted=2, Zombie=3) so a dashboard can graph state
	// transitions over time without scraping logs.
	PipelineState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "vpp",
		Name:      "pipeline_state",
		Help:      "Current core.Pipeline state (0=idle,1=running,2=halted,3=zombie)",
	}, []string{"pipeline"})

	StageLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vpp",
		Name:      "stage_process_duration_seconds",
		Help:      "Duration of a single Stage.Process call",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"stage", "engine"})

	TaskWorkers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "vpp",
		Name:      "task_active_workers",
		Help:      "Number of worker goroutines currently fanning out a Task",
	}, []string{"mode"})

	TrackedZones = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "vpp",
		Name:      "tracker_zones_tracked",
		Help:      "Number of Contexts currently held by a TrackerEngine",
	}, []string{"pipeline"})
)
