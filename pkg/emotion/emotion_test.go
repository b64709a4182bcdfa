package emotion

import (
	"math"
	"testing"
)

func TestDominant(t *testing.T) {
	tests := []struct {
		name   string
		expr   Expressions
		want   Label
		wantOK bool
	}{
		{name: "nil map", expr: nil, wantOK: false},
		{name: "empty map", expr: Expressions{}, wantOK: false},
		{
			name:   "all NaN",
			expr:   Expressions{Happy: math.NaN(), Sad: math.NaN()},
			wantOK: false,
		},
		{
			name:   "NaN is skipped",
			expr:   Expressions{Happy: math.NaN(), Sad: 0.1},
			want:   Sad,
			wantOK: true,
		},
		{
			name:   "clear winner",
			expr:   Expressions{Happy: 0.1, Sad: 0.7, Neutral: 0.2},
			want:   Sad,
			wantOK: true,
		},
		{
			name:   "tie resolved by ordering",
			expr:   Expressions{Sad: 0.4, Happy: 0.4, Neutral: 0.2},
			want:   Happy,
			wantOK: true,
		},
		{
			name:   "tie between unknown labels is alphabetical",
			expr:   Expressions{"zeal": 0.5, "awe": 0.5},
			want:   "awe",
			wantOK: true,
		},
		{
			name:   "known label beats unknown on tie",
			expr:   Expressions{"awe": 0.5, Neutral: 0.5},
			want:   Neutral,
			wantOK: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Dominant(tc.expr, DefaultOrder)
			if ok != tc.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tc.wantOK)
			}
			if got != tc.want {
				t.Errorf("Dominant: got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestHistory_MostFrequent(t *testing.T) {
	order := Order{Happy, Sad, Angry}

	tests := []struct {
		name    string
		samples []Label
		want    Label
	}{
		{name: "majority", samples: []Label{Sad, Sad, Happy}, want: Sad},
		{name: "all tie", samples: []Label{Sad, Happy}, want: Happy},
		{name: "tie ignores insertion order", samples: []Label{Angry, Sad, Sad, Angry}, want: Sad},
		{name: "angry majority", samples: []Label{Angry, Angry, Sad}, want: Angry},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHistory(0)
			for _, l := range tc.samples {
				h.Append(l)
			}
			got, ok := h.MostFrequent(order)
			if !ok {
				t.Fatal("expected ok")
			}
			if got != tc.want {
				t.Errorf("MostFrequent: got %q, want %q", got, tc.want)
			}
		})
	}

	if _, ok := NewHistory(3).MostFrequent(order); ok {
		t.Error("empty history should not have a dominant label")
	}
}

func TestHistory_Bound(t *testing.T) {
	h := NewHistory(3)
	seq := []Label{Happy, Sad, Angry, Fearful, Neutral, Happy, Sad}

	for i, l := range seq {
		h.Append(l)
		if h.Len() > 3 {
			t.Fatalf("after %d appends: len %d exceeds bound", i+1, h.Len())
		}
	}

	got := h.Labels()
	want := []Label{Neutral, Happy, Sad}
	if len(got) != len(want) {
		t.Fatalf("Labels: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Labels[%d]: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestHistory_Unbounded(t *testing.T) {
	h := NewHistory(0)
	for i := 0; i < 100; i++ {
		h.Append(Neutral)
	}
	if h.Len() != 100 {
		t.Errorf("Len: got %d, want 100", h.Len())
	}
}

func TestAggregator_ObserveEmptyIsNoop(t *testing.T) {
	a := NewAggregator(DefaultConfig())

	if _, ok := a.Observe(nil); ok {
		t.Error("Observe(nil) should return ok=false")
	}
	if _, ok := a.Observe(Expressions{}); ok {
		t.Error("Observe(empty) should return ok=false")
	}
	if _, ok := a.Observe(Expressions{Neutral: math.NaN()}); ok {
		t.Error("Observe(all NaN) should return ok=false")
	}
	if a.Len() != 0 {
		t.Errorf("Len: got %d, want 0", a.Len())
	}
}

func TestAggregator_Summarize(t *testing.T) {
	a := NewAggregator(Config{Bound: 10})

	a.Observe(Expressions{Angry: 0.9, Sad: 0.1})
	a.Observe(Expressions{Angry: 0.6, Neutral: 0.4})
	a.Observe(Expressions{Sad: 0.8, Angry: 0.2})

	if a.Last() != Sad {
		t.Errorf("Last: got %q, want %q", a.Last(), Sad)
	}

	sum := a.Summarize()
	if sum.Dominant != Angry {
		t.Errorf("Dominant: got %q, want %q", sum.Dominant, Angry)
	}
	if sum.Samples != 3 {
		t.Errorf("Samples: got %d, want 3", sum.Samples)
	}
	if sum.Counts[Angry] != 2 || sum.Counts[Sad] != 1 {
		t.Errorf("Counts: got %v", sum.Counts)
	}
	if sum.Suggestion == nil || sum.Suggestion.Kind != KindBreathing {
		t.Errorf("Suggestion: got %+v, want breathing exercise", sum.Suggestion)
	}
	if a.Len() != 0 {
		t.Errorf("history not cleared: len %d", a.Len())
	}
	if a.Last() != "" {
		t.Errorf("Last not cleared: %q", a.Last())
	}
}

func TestAggregator_SummarizeEmpty(t *testing.T) {
	sum := NewAggregator(DefaultConfig()).Summarize()
	if !sum.Empty() {
		t.Errorf("expected empty summary, got %+v", sum)
	}
	if sum.Suggestion != nil {
		t.Errorf("expected no suggestion, got %+v", sum.Suggestion)
	}
}

func TestSuggestionFor(t *testing.T) {
	tests := []struct {
		label  Label
		kind   string
		wantOK bool
	}{
		{Sad, KindCalmingBreak, true},
		{Angry, KindBreathing, true},
		{Fearful, KindStressRelief, true},
		{Disgusted, KindStressRelief, true},
		{Happy, KindReinforcement, true},
		{Neutral, "", false},
		{Surprised, "", false},
		{"bored", "", false},
	}

	for _, tc := range tests {
		t.Run(string(tc.label), func(t *testing.T) {
			s, ok := SuggestionFor(tc.label)
			if ok != tc.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tc.wantOK)
			}
			if s.Kind != tc.kind {
				t.Errorf("Kind: got %q, want %q", s.Kind, tc.kind)
			}
		})
	}
}
