package simulator

import "fmt"

// Difficulty targets and predictions always live in the remapped band.
const (
	minDifficultyTarget = 0.35
	maxDifficultyTarget = 1.0
)

// verifier checks per-session invariants as items stream in:
// no item repeats, the serve count respects the cap, and every
// difficulty target stays inside the remapped band.
type verifier struct {
	maxItems int
	seen     map[int64]int
	issues   []string
}

func newVerifier(cfg *Config) *verifier {
	return &verifier{
		maxItems: cfg.MaxItems,
		seen:     make(map[int64]int),
	}
}

func (v *verifier) observeItem(itemID int64, difficulty float64) {
	v.seen[itemID]++
	if v.seen[itemID] > 1 {
		v.issues = append(v.issues, fmt.Sprintf("item %d served %d times", itemID, v.seen[itemID]))
	}
	if len(v.seen) > v.maxItems {
		v.issues = append(v.issues, fmt.Sprintf("served %d items with a cap of %d", len(v.seen), v.maxItems))
	}
	if difficulty < 0 || difficulty > 1 {
		v.issues = append(v.issues, fmt.Sprintf("item %d difficulty %f out of [0,1]", itemID, difficulty))
	}
}

func (v *verifier) observeTarget(target float64) {
	if target < minDifficultyTarget || target > maxDifficultyTarget {
		v.issues = append(v.issues, fmt.Sprintf("target %f outside [%v, %v]", target, minDifficultyTarget, maxDifficultyTarget))
	}
}

func (v *verifier) served() int {
	return len(v.seen)
}

func (v *verifier) violations() []string {
	return v.issues
}
