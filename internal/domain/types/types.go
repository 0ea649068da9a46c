// Package types contains common types used across the application
package types

// RankedItem is the read shape of an item produced by a ranking pass.
type RankedItem struct {
	ItemID        int64   `json:"item_id"`
	Statement     string  `json:"statement"`
	Difficulty    float64 `json:"difficulty"`
	StandardValue float64 `json:"standard_value"`
	NormValue     float64 `json:"norm_value"`
}

// RankResult pairs the difficulty target used for a ranking pass with the
// selected items. Target is nil when the subject has no items at all.
type RankResult struct {
	Target *float64     `json:"target"`
	Items  []RankedItem `json:"items"`
}

// StartResult is returned when a session is started. Item is nil when the
// subject has no servable items.
type StartResult struct {
	SessionID string      `json:"session_id"`
	Item      *RankedItem `json:"item"`
	Target    *float64    `json:"target"`
}

// StepResult is returned by serve-next and record-answer transitions.
type StepResult struct {
	Item     *RankedItem `json:"item"`
	Finished bool        `json:"finished"`
}
