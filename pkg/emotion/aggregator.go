package emotion

import "sync"

// DefaultBound is the sliding window length used when none is configured.
const DefaultBound = 25

// Config holds aggregator tuning.
type Config struct {
	// Bound caps the history length; 0 keeps every sample since session start.
	Bound int `yaml:"bound" json:"bound"`

	// Order breaks ties between labels. Nil means DefaultOrder.
	Order Order `yaml:"order" json:"order"`
}

// DefaultConfig returns a 25-sample sliding window with the default ordering.
func DefaultConfig() Config {
	return Config{
		Bound: DefaultBound,
		Order: DefaultOrder,
	}
}

// History is a bounded sliding window of per-frame dominant labels.
type History struct {
	bound   int
	samples []Label
}

// NewHistory creates a history; bound <= 0 means unbounded.
func NewHistory(bound int) *History {
	if bound < 0 {
		bound = 0
	}
	return &History{bound: bound}
}

// Append adds a label, dropping the oldest once the bound is exceeded.
func (h *History) Append(l Label) {
	h.samples = append(h.samples, l)
	if h.bound > 0 && len(h.samples) > h.bound {
		// Copy down so the backing array does not grow without limit.
		n := copy(h.samples, h.samples[len(h.samples)-h.bound:])
		h.samples = h.samples[:n]
	}
}

// Len returns the number of stored samples.
func (h *History) Len() int {
	return len(h.samples)
}

// Labels returns a copy of the samples, oldest first.
func (h *History) Labels() []Label {
	return append([]Label(nil), h.samples...)
}

// Clear drops all samples.
func (h *History) Clear() {
	h.samples = h.samples[:0]
}

// Counts returns how many times each label occurs.
func (h *History) Counts() map[Label]int {
	counts := make(map[Label]int, len(h.samples))
	for _, l := range h.samples {
		counts[l]++
	}
	return counts
}

// MostFrequent returns the most common label, ties broken by order.
func (h *History) MostFrequent(order Order) (Label, bool) {
	counts := h.Counts()
	if len(counts) == 0 {
		return "", false
	}

	labels := make([]Label, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}

	var best Label
	bestN := 0
	for _, l := range order.sorted(labels) {
		if n := counts[l]; n > bestN {
			best, bestN = l, n
		}
	}
	return best, true
}

// Summary is the emotional verdict for one work session.
type Summary struct {
	Dominant   Label         `json:"dominant,omitempty"`
	Suggestion *Suggestion   `json:"suggestion,omitempty"`
	Samples    int           `json:"samples"`
	Counts     map[Label]int `json:"counts,omitempty"`
}

// Empty reports whether the summary carries no dominant emotion.
func (s Summary) Empty() bool {
	return s.Dominant == ""
}

// Aggregator collects per-frame dominant emotions for one session.
// It is safe for concurrent use.
type Aggregator struct {
	mu      sync.Mutex
	order   Order
	history *History
	last    Label
}

// NewAggregator creates an aggregator from config.
func NewAggregator(cfg Config) *Aggregator {
	order := cfg.Order
	if len(order) == 0 {
		order = DefaultOrder
	}
	return &Aggregator{
		order:   order,
		history: NewHistory(cfg.Bound),
	}
}

// Observe records the dominant label of one frame.
// An empty or nil map is a no-op and returns ok=false.
func (a *Aggregator) Observe(expr Expressions) (Label, bool) {
	l, ok := Dominant(expr, a.order)
	if !ok {
		return "", false
	}

	a.mu.Lock()
	a.history.Append(l)
	a.last = l
	a.mu.Unlock()
	return l, true
}

// Last returns the most recently observed frame label.
func (a *Aggregator) Last() Label {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// Len returns the current history length.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.history.Len()
}

// Summarize computes the session summary and clears the history.
func (a *Aggregator) Summarize() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	sum := Summary{
		Samples: a.history.Len(),
	}
	if dom, ok := a.history.MostFrequent(a.order); ok {
		sum.Dominant = dom
		sum.Counts = a.history.Counts()
		if s, ok := SuggestionFor(dom); ok {
			sum.Suggestion = &s
		}
	}

	a.history.Clear()
	a.last = ""
	return sum
}

// Reset drops the history without summarizing.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	a.history.Clear()
	a.last = ""
	a.mu.Unlock()
}
