package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/somaedu/adapt/pkg/logger"
	"github.com/somaedu/adapt/pkg/metrics"
)

// artifact is the on-disk model format written by the trainer.
type artifact struct {
	TrainedAt   time.Time    `json:"trained_at"`
	Model       string       `json:"model"`
	Predictions []prediction `json:"predictions"`
}

type prediction struct {
	ItemID     int64   `json:"item_id"`
	Difficulty float64 `json:"difficulty"`
}

// snapshot is an immutable loaded model. Readers get the whole snapshot
// atomically so a reload never interleaves with a batch lookup.
type snapshot struct {
	trainedAt   time.Time
	model       string
	predictions map[int64]float64
}

// Registry loads a model artifact lazily and swaps it atomically on
// reload. A missing artifact reports ErrNotTrained until training has
// produced one.
type Registry struct {
	path string
	log  logger.Logger

	current atomic.Pointer[snapshot]
	loadMu  sync.Mutex
}

// NewRegistry creates a registry reading artifacts from path. The
// artifact is not loaded until the first prediction is requested.
func NewRegistry(path string, log logger.Logger) *Registry {
	return &Registry{
		path: path,
		log:  log.Named("oracle"),
	}
}

func (r *Registry) Predict(ctx context.Context, itemID int64) (float64, error) {
	snap, err := r.EnsureLoaded(ctx)
	if err != nil {
		return 0, err
	}
	p, ok := snap.predictions[itemID]
	if !ok {
		return 0, ErrNotTrained
	}
	return p, nil
}

func (r *Registry) PredictBatch(ctx context.Context, itemIDs []int64) (map[int64]float64, error) {
	snap, err := r.EnsureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]float64, len(itemIDs))
	for _, id := range itemIDs {
		if p, ok := snap.predictions[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// EnsureLoaded returns the current snapshot, reading the artifact from
// disk if none is loaded yet.
func (r *Registry) EnsureLoaded(ctx context.Context) (*snapshot, error) {
	if snap := r.current.Load(); snap != nil {
		return snap, nil
	}
	return r.Reload(ctx)
}

// Invalidate drops the loaded snapshot. The next prediction reads the
// artifact again, picking up a freshly trained model.
func (r *Registry) Invalidate() {
	r.current.Store(nil)
	r.log.Info(context.Background(), "model snapshot invalidated")
}

// Reload reads the artifact from disk and swaps it in.
func (r *Registry) Reload(ctx context.Context) (*snapshot, error) {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	raw, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			metrics.RecordModelReloadError()
			return nil, ErrNotTrained
		}
		metrics.RecordModelReloadError()
		return nil, fmt.Errorf("reading model artifact %s: %w", r.path, err)
	}

	var art artifact
	if err := json.Unmarshal(raw, &art); err != nil {
		metrics.RecordModelReloadError()
		return nil, fmt.Errorf("parsing model artifact %s: %w", r.path, err)
	}
	if len(art.Predictions) == 0 {
		metrics.RecordModelReloadError()
		return nil, ErrNotTrained
	}

	snap := &snapshot{
		trainedAt:   art.TrainedAt,
		model:       art.Model,
		predictions: make(map[int64]float64, len(art.Predictions)),
	}
	for _, p := range art.Predictions {
		snap.predictions[p.ItemID] = clamp01(p.Difficulty)
	}

	r.current.Store(snap)
	metrics.RecordModelReload()
	metrics.UpdateModelItems(len(snap.predictions))
	r.log.Info(ctx, "model artifact loaded",
		logger.String("model", snap.model),
		logger.Int("items", len(snap.predictions)),
	)
	return snap, nil
}

// Trained reports whether a snapshot is currently loaded.
func (r *Registry) Trained() bool {
	return r.current.Load() != nil
}
