package vision

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/your-org/vpp/internal/config"
	"github.com/your-org/vpp/internal/core"
	"github.com/your-org/vpp/internal/models"
	"github.com/your-org/vpp/internal/observability"
	"github.com/your-org/vpp/internal/queue"
	"github.com/your-org/vpp/internal/scene"
	"github.com/your-org/vpp/internal/storage"
	"github.com/your-org/vpp/internal/tracker"
)

// StreamPipeline wires a core.Pipeline's Input/Detect/Embed/Attributes/
// Track/Output stages around one stream's ONNX models, replacing the
// teacher's monolithic Pipeline.ProcessFrame with a Stage-pluggable
// driver (§4.1). Each model is still loaded exactly as the teacher did;
// only the orchestration between them changed shape.
type StreamPipeline struct {
	Core *core.Pipeline

	Input      *InputEngine
	Detect     *DetectEngine
	Cluster    *ClusterEngine
	Embed      *EmbedEngine
	Attributes *AttributeEngine
	Tracker    *tracker.Engine
	Output     *OutputEngine

	detector     *Detector
	pigoDetector *PigoDetector
	embedder     *Embedder
	attributes   *AttributePredictor

	trackMu   sync.Mutex
	trackLast tracker.Event
}

// NewStreamPipeline initialises all ONNX models and wires them into a
// ready-to-Start core.Pipeline.
func NewStreamPipeline(
	cfg config.VisionConfig,
	trackCfg config.TrackingConfig,
	matcherCfg config.MatcherConfig,
	pipelineCfg config.PipelineConfig,
	taskCfg config.TaskConfig,
	db *storage.PostgresStore,
	minio *storage.MinIOStore,
	producer *queue.Producer,
) (*StreamPipeline, error) {
	detPath := filepath.Join(cfg.ModelsDir, "det_10g.onnx")
	embPath := filepath.Join(cfg.ModelsDir, "w600k_r50.onnx")
	attrPath := filepath.Join(cfg.ModelsDir, "genderage.onnx")

	// Build session options to cap ORT thread usage per model session.
	// Each call to newSessionOptions() returns a fresh *ort.SessionOptions
	// that must be destroyed after the session is created.
	newSessionOptions := func() (*ort.SessionOptions, error) {
		opts, err := ort.NewSessionOptions()
		if err != nil {
			return nil, fmt.Errorf("create session options: %w", err)
		}
		return opts, nil
	}

	slog.Info("loading detection model", "path", detPath)
	detOpts, err := newSessionOptions()
	if err != nil {
		return nil, err
	}
	det, err := NewDetector(detPath, float32(cfg.DetectionThreshold), detOpts)
	detOpts.Destroy()
	if err != nil {
		return nil, fmt.Errorf("load detector: %w", err)
	}

	slog.Info("loading embedding model", "path", embPath)
	emb, err := NewEmbedder(embPath)
	if err != nil {
		det.Close()
		return nil, fmt.Errorf("load embedder: %w", err)
	}

	slog.Info("loading attribute model", "path", attrPath)
	attrOpts, err := newSessionOptions()
	if err != nil {
		det.Close()
		emb.Close()
		return nil, err
	}
	attr, err := NewAttributePredictor(attrPath, attrOpts)
	attrOpts.Destroy()
	if err != nil {
		det.Close()
		emb.Close()
		return nil, fmt.Errorf("load attributes: %w", err)
	}

	var pigoDet *PigoDetector
	if cfg.PigoCascade != "" {
		slog.Info("loading pigo cascade", "path", cfg.PigoCascade)
		pigoDet, err = NewPigoDetector(cfg.PigoCascade, float32(cfg.DetectionThreshold))
		if err != nil {
			det.Close()
			emb.Close()
			attr.Close()
			return nil, fmt.Errorf("load pigo cascade: %w", err)
		}
	}

	slog.Info("vision pipeline ready")

	sp := &StreamPipeline{
		Core:         core.NewPipeline(),
		Input:        NewInputEngine(minio),
		Detect:       NewDetectEngine(det),
		Cluster:      NewClusterEngine(),
		Embed:        NewEmbedEngine(emb),
		Attributes:   NewAttributeEngine(attr),
		Tracker:      tracker.NewEngine(),
		Output:       NewOutputEngine(db, minio, producer, cfg.RecognitionThreshold),
		detector:     det,
		pigoDetector: pigoDet,
		embedder:     emb,
		attributes:   attr,
	}
	sp.Tracker.MaxMisses = trackCfg.MaxAge
	if matcherCfg.AppearanceWeight > 0 {
		sp.Tracker.Matcher.Measure = tracker.BlendedMeasure(matcherCfg.AppearanceWeight)
	}
	switch {
	case matcherCfg.Workers > 0:
		sp.Tracker.Matcher.Workers = matcherCfg.Workers
	case taskCfg.Workers > 0:
		sp.Tracker.Matcher.Workers = taskCfg.Workers
	}
	if matcherCfg.Granularity == "global" {
		sp.Tracker.Matcher.Granularity = tracker.GranularityGlobal
	} else if matcherCfg.Granularity == "measure" {
		sp.Tracker.Matcher.Granularity = tracker.GranularityMeasure
	}
	sp.Cluster.Ratio = pipelineCfg.ClusterRatio
	sp.Cluster.Cross = pipelineCfg.ClusterCross
	sp.Output.Link(sp.Input)
	sp.Tracker.Notify.Connect(sp.recordTrackerEvent)

	inputStage := core.NewStage("input", false)
	inputStage.Register("default", sp.Input)
	inputStage.Use("default")

	detectStage := core.NewStage("detect", true)
	detectStage.Register("retinaface", sp.Detect)
	if sp.pigoDetector != nil {
		detectStage.Register("pigo", NewPigoDetectEngine(sp.pigoDetector))
	}
	detectStage.Use("retinaface")

	// Clustering is bypassed by default: most streams want one zone per
	// detection, not merged duplicates from an overlapping detector grid.
	clusterStage := core.NewStage("cluster", true)
	clusterStage.Register("dilate", sp.Cluster)
	clusterStage.Use("dilate")
	clusterStage.Bypass(!pipelineCfg.ClusterEnabled)

	embedStage := core.NewStage("embed", true)
	embedStage.Register("arcface", sp.Embed)
	embedStage.Use("arcface")

	attrStage := core.NewStage("attributes", true)
	attrStage.Register("insightface", sp.Attributes)
	attrStage.Use("insightface")

	trackStage := core.NewStage("track", true)
	trackStage.Register("kalman", sp.Tracker)
	trackStage.Use("kalman")

	outputStage := core.NewStage("output", false)
	outputStage.Register("default", sp.Output)
	outputStage.Use("default")

	for _, st := range []*core.Stage{inputStage, detectStage, clusterStage, embedStage, attrStage, trackStage, outputStage} {
		if status := sp.Core.Add(st); status != core.OK {
			return nil, fmt.Errorf("wire stage %s: %s", st.Name, status)
		}
	}

	return sp, nil
}

// Submit enqueues a frame task for the Input stage to pick up on its next
// Prepare call. It is non-blocking: a full queue returns an error rather
// than stalling the caller (the original worker favoured dropping a frame
// over backing up the NATS consumer).
func (sp *StreamPipeline) Submit(task models.FrameTask) error {
	return sp.Input.submit(task)
}

func (sp *StreamPipeline) recordTrackerEvent(evt tracker.Event, _ int) {
	sp.trackMu.Lock()
	defer sp.trackMu.Unlock()
	sp.trackLast = evt
}

// LastTrackerEvent returns the zones added and removed by the most
// recently completed tracker pass, for a pipeline-control surface's
// tracker snapshot endpoint.
func (sp *StreamPipeline) LastTrackerEvent() tracker.Event {
	sp.trackMu.Lock()
	defer sp.trackMu.Unlock()
	return sp.trackLast
}

// Close releases all ONNX sessions.
func (sp *StreamPipeline) Close() {
	sp.Core.Stop()
	if sp.detector != nil {
		sp.detector.Close()
	}
	if sp.embedder != nil {
		sp.embedder.Close()
	}
	if sp.attributes != nil {
		sp.attributes.Close()
	}
}

// EmbedImage extracts an embedding from a standalone image, independent of
// any running pipeline (used by the AddFace enrollment endpoint).
func (sp *StreamPipeline) EmbedImage(imageData []byte) ([]float32, float32, error) {
	img, err := jpeg.Decode(bytes.NewReader(imageData))
	if err != nil {
		img, _, err = image.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, 0, fmt.Errorf("decode image: %w", err)
		}
	}

	bounds := img.Bounds()
	detW, detH := sp.detector.InputSize()
	detInput := preprocessForDetection(img, detW, detH)
	detections, err := sp.detector.Detect(detInput, bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, 0, fmt.Errorf("detect: %w", err)
	}
	if len(detections) == 0 {
		return nil, 0, fmt.Errorf("no face detected in image")
	}

	best := detections[0]
	for _, d := range detections[1:] {
		if d.Confidence > best.Confidence {
			best = d
		}
	}

	face := cropFace(img, best.BBox)
	if face == nil {
		return nil, 0, fmt.Errorf("failed to crop face")
	}

	embW, embH := sp.embedder.InputSize()
	embedding, err := sp.embedder.Extract(preprocessForEmbedding(face, embW, embH))
	if err != nil {
		return nil, 0, fmt.Errorf("embed: %w", err)
	}
	return embedding, best.Confidence, nil
}

// InputEngine is a core.Engine whose Prepare pulls the next queued
// FrameTask, loads it from object storage, and installs it into the
// Scene's View as a BGR image, replacing the first third of the
// teacher's ProcessFrame.
type InputEngine struct {
	core.BaseEngine

	minio *storage.MinIOStore

	mu      sync.Mutex
	pending chan models.FrameTask
	current models.FrameTask
}

// NewInputEngine returns an InputEngine with a small pending-frame queue;
// a full queue makes Submit report back pressure rather than block.
func NewInputEngine(minio *storage.MinIOStore) *InputEngine {
	return &InputEngine{minio: minio, pending: make(chan models.FrameTask, 4)}
}

func (e *InputEngine) submit(task models.FrameTask) error {
	select {
	case e.pending <- task:
		return nil
	default:
		return fmt.Errorf("vision: input queue full, dropping frame %s", task.FrameID)
	}
}

// Current returns the FrameTask behind the Scene most recently prepared,
// letting downstream engines correlate a pass back to its stream/frame
// identity without threading it through the Scene itself.
func (e *InputEngine) Current() models.FrameTask {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Prepare blocks briefly for the next queued frame, decodes it, and
// registers it as s's BGR source. NotReady when nothing is queued yet,
// so the owning Pipeline suspends rather than spinning.
func (e *InputEngine) Prepare(ctx context.Context, s *scene.Scene) core.Status {
	var task models.FrameTask
	select {
	case task = <-e.pending:
	case <-time.After(50 * time.Millisecond):
		return core.NotReady
	case <-ctx.Done():
		return core.NotReady
	}

	frameData, err := e.minio.GetObject(ctx, task.FrameRef)
	if err != nil {
		slog.Warn("input engine: load frame", "error", err, "ref", task.FrameRef)
		return core.NotReady
	}
	img, err := jpeg.Decode(bytes.NewReader(frameData))
	if err != nil {
		slog.Warn("input engine: decode frame", "error", err, "ref", task.FrameRef)
		return core.NotReady
	}
	if err := s.View.Use(img, scene.BGR); err != nil {
		slog.Warn("input engine: register view", "error", err)
		return core.ErrInvalidValue
	}

	e.mu.Lock()
	e.current = task
	e.mu.Unlock()

	observability.FramesProcessed.WithLabelValues(task.StreamID.String()).Inc()
	return core.OK
}

// Process is a no-op: InputEngine does all its work in Prepare, before
// the detect/embed/attributes/track stages run against the Scene.
func (e *InputEngine) Process(ctx context.Context, s *scene.Scene) core.Status {
	return core.OK
}

// OutputEngine is a core.Engine that matches every embedded zone against
// stored identities, saves a snapshot the first time a tracked identity
// is seen, and publishes a DetectionResult event per zone — the tail end
// of the teacher's ProcessFrame, now driven off the Scene the preceding
// stages (detect/embed/attributes/track) already populated.
type OutputEngine struct {
	core.BaseEngine

	db                   *storage.PostgresStore
	minio                *storage.MinIOStore
	producer             *queue.Producer
	recognitionThreshold float64
	input                *InputEngine

	mu   sync.Mutex
	seen map[uint64]bool
}

// NewOutputEngine builds an OutputEngine; Link must be called once the
// owning StreamPipeline's InputEngine exists, to read back frame/stream
// identity for the event it publishes.
func NewOutputEngine(db *storage.PostgresStore, minio *storage.MinIOStore, producer *queue.Producer, recognitionThreshold float64) *OutputEngine {
	return &OutputEngine{
		db:                   db,
		minio:                minio,
		producer:             producer,
		recognitionThreshold: recognitionThreshold,
		seen:                 make(map[uint64]bool),
	}
}

// Link binds the InputEngine this OutputEngine reads frame metadata from.
func (e *OutputEngine) Link(input *InputEngine) { e.input = input }

func (e *OutputEngine) firstSighting(zoneUUID uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.seen[zoneUUID] {
		return false
	}
	e.seen[zoneUUID] = true
	return true
}

// Process publishes one DetectionResult per valid zone carrying an
// embedding, matching it against stored identities and snapshotting the
// crop on first sighting of that zone's tracked identity.
func (e *OutputEngine) Process(ctx context.Context, s *scene.Scene) core.Status {
	if e.input == nil {
		return core.ErrUndefined
	}
	task := e.input.Current()

	img, err := s.View.BGR()
	if err != nil {
		return core.NotReady
	}
	drawable, err := img.Drawable()
	if err != nil {
		return core.ErrInvalidValue
	}

	for _, z := range s.ZonesWhere(scene.WhenValid) {
		if len(z.Embedding) == 0 {
			continue
		}

		var matchedPersonID *uuid.UUID
		var matchScore float32

		start := time.Now()
		matches, err := e.db.SearchZones(ctx, z.Embedding, task.CollectionID, e.recognitionThreshold, 1)
		observability.InferenceDuration.WithLabelValues("match").Observe(time.Since(start).Seconds())
		if err != nil {
			slog.Warn("output engine: search", "error", err)
		} else if len(matches) > 0 {
			matchedPersonID = &matches[0].PersonID
			matchScore = matches[0].Score
			observability.FacesRecognized.WithLabelValues(task.StreamID.String()).Inc()
		}

		var snapshotKey string
		if e.firstSighting(z.UUID) {
			bbox := [4]float32{
				float32(z.BBox.X), float32(z.BBox.Y),
				float32(z.BBox.X + z.BBox.W), float32(z.BBox.Y + z.BBox.H),
			}
			if crop := cropFace(drawable, bbox); crop != nil {
				snapshotKey = fmt.Sprintf("snapshots/%s/%d_%s.jpg",
					task.StreamID.String(), z.UUID, time.Now().Format("20060102_150405"))
				data := encodeJPEG(upscaleFace(crop, 100), 100)
				if err := e.minio.PutObject(ctx, snapshotKey, data, "image/jpeg"); err != nil {
					slog.Warn("output engine: save snapshot", "error", err)
					snapshotKey = ""
				}
			}
		}

		gender, genderConf := genderFromZone(z)

		result := models.DetectionResult{
			StreamID:         task.StreamID,
			TrackID:          fmt.Sprintf("%d", z.UUID),
			Timestamp:        task.Timestamp,
			BBox:             [4]float32{float32(z.BBox.X), float32(z.BBox.Y), float32(z.BBox.X + z.BBox.W), float32(z.BBox.Y + z.BBox.H)},
			Gender:           gender,
			GenderConfidence: genderConf,
			Confidence:       z.Context.Score,
			Embedding:        z.Embedding,
			MatchedPersonID:  matchedPersonID,
			MatchScore:       matchScore,
			SnapshotKey:      snapshotKey,
			FrameKey:         task.FrameRef,
		}
		if err := e.producer.PublishEvent(ctx, task.StreamID.String(), result); err != nil {
			slog.Error("output engine: publish event", "error", err, "zone", z.UUID)
		}
	}

	return core.OK
}

// upscaleFace scales up a face crop so its shortest side is at least
// minSize pixels, so a thumbnail-sized detection doesn't produce an
// unreadable snapshot.
func upscaleFace(img image.Image, minSize int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	shortest := w
	if h < shortest {
		shortest = h
	}
	if shortest >= minSize || shortest <= 0 {
		return img
	}

	scale := float64(minSize) / float64(shortest)
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	for y := 0; y < newH; y++ {
		srcY := bounds.Min.Y + y*h/newH
		for x := 0; x < newW; x++ {
			srcX := bounds.Min.X + x*w/newW
			dst.Set(x, y, img.At(srcX, srcY))
		}
	}
	return dst
}

// encodeJPEG encodes img as JPEG at the given quality, swallowing the
// (practically impossible, for an in-memory RGBA buffer) encode error.
func encodeJPEG(img image.Image, quality int) []byte {
	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	return buf.Bytes()
}

func genderFromZone(z *scene.Zone) (string, float32) {
	for _, p := range z.Predictions {
		if p.Dataset != DatasetGender {
			continue
		}
		if p.ID == GenderFemale {
			return "female", p.Score
		}
		return "male", p.Score
	}
	return "", 0
}
