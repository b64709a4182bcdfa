// Package emotion aggregates per-frame facial expressions into a
// session-level dominant emotion and maps it to a coping suggestion.
package emotion

import (
	"math"
	"sort"
)

// Label names an expression class reported by the detector.
type Label string

// Expression labels produced by the detection runtime.
const (
	Neutral   Label = "neutral"
	Happy     Label = "happy"
	Sad       Label = "sad"
	Angry     Label = "angry"
	Fearful   Label = "fearful"
	Disgusted Label = "disgusted"
	Surprised Label = "surprised"
)

// Expressions maps each label to its probability in [0,1] for one frame.
type Expressions map[Label]float64

// Order fixes how ties between labels are broken: earlier wins.
type Order []Label

// DefaultOrder is the tie-break ordering used unless configured otherwise.
var DefaultOrder = Order{Happy, Sad, Angry, Fearful, Disgusted, Surprised, Neutral}

// rank returns the position of l in o, or len(o) if absent.
func (o Order) rank(l Label) int {
	for i, x := range o {
		if x == l {
			return i
		}
	}
	return len(o)
}

// before reports whether a should win a tie against b.
// Labels missing from the ordering sort after known ones, alphabetically.
func (o Order) before(a, b Label) bool {
	ra, rb := o.rank(a), o.rank(b)
	if ra != rb {
		return ra < rb
	}
	return a < b
}

// sorted returns a copy of labels in tie-break order.
func (o Order) sorted(labels []Label) []Label {
	out := append([]Label(nil), labels...)
	sort.SliceStable(out, func(i, j int) bool { return o.before(out[i], out[j]) })
	return out
}

// Dominant returns the most probable label in expr.
// Ties go to the label that comes first in order. NaN probabilities are
// ignored; ok is false when no label has a usable probability.
func Dominant(expr Expressions, order Order) (Label, bool) {
	if len(expr) == 0 {
		return "", false
	}

	labels := make([]Label, 0, len(expr))
	for l := range expr {
		labels = append(labels, l)
	}

	var (
		best  Label
		bestP = math.Inf(-1)
		found bool
	)
	for _, l := range order.sorted(labels) {
		p := expr[l]
		if math.IsNaN(p) {
			continue
		}
		if !found || p > bestP {
			best, bestP, found = l, p, true
		}
	}
	return best, found
}
