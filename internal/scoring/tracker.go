// Package scoring accumulates per-turn interview scores and derives the
// running statistics and the adaptive difficulty signal.
package scoring

import "math"

const (
	maxAdjustment = 2
	minAdjustment = -2

	raiseThreshold = 8.0
	lowerThreshold = 4.0
)

// Trend labels for the final score sequence.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// Tracker holds the ordered score sequence for one session. Not safe for
// concurrent use; the session store serializes access per session.
type Tracker struct {
	scores     []int
	adjustment int
}

// Stats is the finalized view of a score sequence. Pointer fields are
// nil when no scores were recorded.
type Stats struct {
	Individual []int    `json:"individual"`
	Average    *float64 `json:"average"`
	Min        *int     `json:"min"`
	Max        *int     `json:"max"`
	Trend      string   `json:"trend"`
}

// Record appends a score, re-evaluates the adaptive difficulty policy
// and returns the updated running average.
func (t *Tracker) Record(score int) float64 {
	t.scores = append(t.scores, score)
	avg := t.average()

	if avg >= raiseThreshold && t.adjustment < maxAdjustment {
		t.adjustment++
	} else if avg <= lowerThreshold && t.adjustment > minAdjustment {
		t.adjustment--
	}
	return avg
}

// Average returns the running average rounded to 1 decimal. ok is false
// when no scores have been recorded.
func (t *Tracker) Average() (avg float64, ok bool) {
	if len(t.scores) == 0 {
		return 0, false
	}
	return round1(t.average()), true
}

func (t *Tracker) average() float64 {
	if len(t.scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range t.scores {
		sum += s
	}
	return float64(sum) / float64(len(t.scores))
}

// Count returns how many scores have been recorded.
func (t *Tracker) Count() int { return len(t.scores) }

// Scores returns a copy of the recorded sequence in completion order.
func (t *Tracker) Scores() []int {
	out := make([]int, len(t.scores))
	copy(out, t.scores)
	return out
}

// Adjustment returns the bounded difficulty-adjustment counter.
func (t *Tracker) Adjustment() int { return t.adjustment }

// TrendLabel exposes the adjustment as the advisory label returned on
// every turn. Observability only; it does not feed back into prompts.
func (t *Tracker) TrendLabel() string {
	switch {
	case t.adjustment > 0:
		return "harder"
	case t.adjustment < 0:
		return "easier"
	default:
		return "stable"
	}
}

// Finalize computes the end-of-session statistics. With fewer than two
// scores the trend is "stable"; with none, average/min/max are absent.
func (t *Tracker) Finalize() Stats {
	st := Stats{Individual: t.Scores(), Trend: TrendStable}
	if len(t.scores) == 0 {
		return st
	}

	mn, mx := t.scores[0], t.scores[0]
	for _, s := range t.scores[1:] {
		if s < mn {
			mn = s
		}
		if s > mx {
			mx = s
		}
	}
	avg := round1(t.average())
	st.Average = &avg
	st.Min = &mn
	st.Max = &mx

	if len(t.scores) >= 2 {
		first, last := t.scores[0], t.scores[len(t.scores)-1]
		switch {
		case last > first:
			st.Trend = TrendImproving
		case last < first:
			st.Trend = TrendDeclining
		}
	}
	return st
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
