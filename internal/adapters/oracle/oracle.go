// Package oracle serves per-item difficulty predictions from a trained
// model artifact.
package oracle

import (
	"context"
	"errors"
)

// ErrNotTrained is returned when no model artifact is available for the
// requested items.
var ErrNotTrained = errors.New("difficulty model is not trained")

// Oracle predicts a difficulty in [0, 1] for catalog items.
type Oracle interface {
	// Predict returns the difficulty for a single item.
	Predict(ctx context.Context, itemID int64) (float64, error)

	// PredictBatch returns difficulties keyed by item id. Items without a
	// prediction are absent from the result.
	PredictBatch(ctx context.Context, itemIDs []int64) (map[int64]float64, error)
}

// Static is a fixed-map oracle, mainly for tests and seeded deployments.
type Static struct {
	predictions map[int64]float64
}

// NewStatic creates an oracle backed by the given predictions. A nil map
// yields an untrained oracle.
func NewStatic(predictions map[int64]float64) *Static {
	return &Static{predictions: predictions}
}

func (s *Static) Predict(_ context.Context, itemID int64) (float64, error) {
	if len(s.predictions) == 0 {
		return 0, ErrNotTrained
	}
	p, ok := s.predictions[itemID]
	if !ok {
		return 0, ErrNotTrained
	}
	return clamp01(p), nil
}

func (s *Static) PredictBatch(_ context.Context, itemIDs []int64) (map[int64]float64, error) {
	if len(s.predictions) == 0 {
		return nil, ErrNotTrained
	}
	out := make(map[int64]float64, len(itemIDs))
	for _, id := range itemIDs {
		if p, ok := s.predictions[id]; ok {
			out[id] = clamp01(p)
		}
	}
	return out, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
