// Package ranking selects the unseen items whose predicted difficulty is
// closest to a target. Selection is a pure computation over an immutable
// candidate snapshot: two calls with identical inputs produce identical
// output, with no randomness anywhere.
package ranking

import (
	"math"
	"sort"

	"github.com/somaedu/adapt/internal/domain/target"
)

// Candidate is one item of the pre-joined (item, predicted difficulty)
// view supplied by the surrounding system.
type Candidate struct {
	ID            int64
	Statement     string
	StandardValue float64
	Difficulty    float64
}

// Ranked is a candidate selected by a ranking pass, with its normalized
// curriculum value within the subject range.
type Ranked struct {
	Candidate
	NormValue float64
}

// Result of a ranking pass. Target is nil when the subject has no
// candidates at all; when only the exclusion filter empties the set the
// computed target is still echoed back.
type Result struct {
	Target *float64
	Items  []Ranked
}

// Rank normalizes rawTarget against the candidates' raw-value range,
// remaps it into the [0.35, 1.0] difficulty band, and returns the k
// unseen candidates closest to it. Returns ErrInvalidK when k < 1.
func Rank(rawTarget float64, candidates []Candidate, exclude map[int64]struct{}, k int) (Result, error) {
	if k < 1 {
		return Result{}, ErrInvalidK
	}
	if len(candidates) == 0 {
		return Result{}, nil
	}

	// The subject range comes from the full candidate set, before
	// exclusion, so the target stays consistent across a session.
	min, max := valueRange(candidates)
	t := target.FromRaw(rawTarget, min, max)

	unseen := make([]Ranked, 0, len(candidates))
	for _, c := range candidates {
		if _, seen := exclude[c.ID]; seen {
			continue
		}
		unseen = append(unseen, Ranked{
			Candidate: c,
			NormValue: target.Normalize(c.StandardValue, min, max),
		})
	}
	if len(unseen) == 0 {
		return Result{Target: &t}, nil
	}

	ordered := Nearest(t, unseen, k)
	return Result{Target: &t, Items: ordered}, nil
}

// Nearest orders candidates by ascending (gap, difficulty, id) relative
// to a difficulty target in [0,1] and returns the first k. Gap ties
// prefer the lower difficulty; remaining ties break on ascending id.
func Nearest(difficultyTarget float64, candidates []Ranked, k int) []Ranked {
	ordered := make([]Ranked, len(candidates))
	copy(ordered, candidates)

	sort.Slice(ordered, func(i, j int) bool {
		gi := math.Abs(ordered[i].Difficulty - difficultyTarget)
		gj := math.Abs(ordered[j].Difficulty - difficultyTarget)
		if gi != gj {
			return gi < gj
		}
		if ordered[i].Difficulty != ordered[j].Difficulty {
			return ordered[i].Difficulty < ordered[j].Difficulty
		}
		return ordered[i].ID < ordered[j].ID
	})

	if k < len(ordered) {
		ordered = ordered[:k]
	}
	return ordered
}

func valueRange(candidates []Candidate) (min, max float64) {
	min, max = candidates[0].StandardValue, candidates[0].StandardValue
	for _, c := range candidates[1:] {
		if c.StandardValue < min {
			min = c.StandardValue
		}
		if c.StandardValue > max {
			max = c.StandardValue
		}
	}
	return min, max
}
