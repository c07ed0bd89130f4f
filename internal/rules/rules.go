// Package rules holds the dispatching rules used to pick the next job for a
// free machine.
package rules

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

type Rule string

const (
	// FIFO: arrival time ascending.
	FIFO Rule = "FIFO"
	// SPT: processing time ascending, minimizes mean flow time.
	SPT Rule = "SPT"
	// LPT: processing time descending, balances load.
	LPT Rule = "LPT"
	// EDD: due date ascending, minimizes maximum lateness.
	EDD Rule = "EDD"
	// CR: critical ratio (due-now)/remaining ascending.
	CR Rule = "CR"
	// SLACK: due-now-remaining ascending.
	SLACK Rule = "SLACK"
)

// All returns the six rules in reporting order.
func All() []Rule {
	return []Rule{FIFO, SPT, LPT, EDD, CR, SLACK}
}

// Parse accepts rule names case-insensitively. An empty name is FIFO.
func Parse(s string) (Rule, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return FIFO, nil
	}
	for _, r := range All() {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown rule %q (want one of FIFO, SPT, LPT, EDD, CR, SLACK)", s)
}

// Dynamic reports whether the rule depends on the current time and has to be
// re-evaluated at every decision point.
func (r Rule) Dynamic() bool {
	return r == CR || r == SLACK
}

func (r Rule) String() string { return string(r) }

// Candidate is the view of a job a rule ranks on.
type Candidate struct {
	Arrival    float64
	Processing float64
	// Due is +Inf for jobs without a due date.
	Due       float64
	Remaining float64
	Priority  int
	// Index is the input position, the last tie-break.
	Index int
}

// Key returns the ascending sort key of c under rule r at time now.
func Key(r Rule, c Candidate, now float64) float64 {
	switch r {
	case SPT:
		return c.Processing
	case LPT:
		return -c.Processing
	case EDD:
		return c.Due
	case CR:
		return criticalRatio(c, now)
	case SLACK:
		return c.Due - now - c.Remaining
	default:
		return c.Arrival
	}
}

func criticalRatio(c Candidate, now float64) float64 {
	if math.IsInf(c.Due, 1) {
		return math.Inf(1)
	}
	if c.Remaining <= 0 {
		if c.Due >= now {
			return math.Inf(1)
		}
		return math.Inf(-1)
	}
	return (c.Due - now) / c.Remaining
}

// Less orders a before b. Equal keys fall back to higher priority first and
// then to input order.
func Less(r Rule, a, b Candidate, now float64) bool {
	ka, kb := Key(r, a, now), Key(r, b, now)
	if ka != kb {
		return ka < kb
	}
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.Index < b.Index
}

// Sort orders cands in place under r at time now.
func Sort(r Rule, cands []Candidate, now float64) {
	sort.SliceStable(cands, func(i, j int) bool {
		return Less(r, cands[i], cands[j], now)
	})
}

// Best returns the position of the highest ranked candidate, or -1 for an
// empty slice.
func Best(r Rule, cands []Candidate, now float64) int {
	best := -1
	for i := range cands {
		if best < 0 || Less(r, cands[i], cands[best], now) {
			best = i
		}
	}
	return best
}
