package focus

import (
	"math"
	"testing"

	"github.com/teslashibe/focus-booster/pkg/detection"
	"github.com/teslashibe/focus-booster/pkg/emotion"
	"github.com/teslashibe/focus-booster/pkg/geometry"
)

func TestClassify(t *testing.T) {
	c := NewClassifier(Config{Threshold: 0.2})

	malformed := detection.Face(0.3, nil)
	malformed.RightEye = malformed.RightEye[:5]

	degenerate := detection.Face(0.3, nil)
	degenerate.LeftEye = geometry.EyeContour{
		geometry.Pt(1, 1), geometry.Pt(1, 2), geometry.Pt(1, 2),
		geometry.Pt(1, 1), geometry.Pt(1, 0), geometry.Pt(1, 0),
	}

	noLandmarks := detection.Face(0.3, emotion.Expressions{emotion.Happy: 1})
	noLandmarks.LeftEye, noLandmarks.RightEye = nil, nil

	tests := []struct {
		name       string
		dets       []detection.Result
		wantKind   Kind
		wantReason Reason
	}{
		{"no detections", nil, EvidenceNotFocused, ReasonNoFace},
		{"empty detections", []detection.Result{}, EvidenceNotFocused, ReasonNoFace},
		{"eyes closed", []detection.Result{detection.Face(0.1, nil)}, EvidenceNotFocused, ReasonEyesClosed},
		{"eyes open", []detection.Result{detection.Face(0.3, nil)}, EvidenceFocused, ReasonNone},
		{"exactly threshold", []detection.Result{detection.Face(0.2, nil)}, EvidenceFocused, ReasonNone},
		{"malformed contour", []detection.Result{malformed}, Inconclusive, ReasonNone},
		{"degenerate contour", []detection.Result{degenerate}, Inconclusive, ReasonNone},
		{"no landmarks", []detection.Result{noLandmarks}, Inconclusive, ReasonNone},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := c.Classify(tc.dets)
			if v.Kind != tc.wantKind {
				t.Errorf("Kind: got %v, want %v", v.Kind, tc.wantKind)
			}
			if v.Reason != tc.wantReason {
				t.Errorf("Reason: got %q, want %q", v.Reason, tc.wantReason)
			}
			if v.Alert() != (tc.wantReason != ReasonNone) {
				t.Errorf("Alert: got %v", v.Alert())
			}
		})
	}
}

func TestClassify_AveragesBothEyes(t *testing.T) {
	c := NewClassifier(Config{Threshold: 0.2})

	face := detection.Face(0.1, nil)
	face.RightEye = geometry.SyntheticEye(280, 150, 40, 0.35)

	v := c.Classify([]detection.Result{face})
	if math.Abs(v.EAR-0.225) > 1e-9 {
		t.Errorf("EAR: got %v, want 0.225", v.EAR)
	}
	if v.Kind != EvidenceFocused {
		t.Errorf("Kind: got %v, want EvidenceFocused", v.Kind)
	}
}

func TestClassify_UsesPrimaryFace(t *testing.T) {
	c := NewClassifier(Config{Threshold: 0.2})

	sleepy := detection.Face(0.05, nil)
	sleepy.Confidence = 0.6
	alert := detection.Face(0.3, nil)
	alert.Confidence = 0.9

	v := c.Classify([]detection.Result{sleepy, alert})
	if v.Kind != EvidenceFocused {
		t.Errorf("Kind: got %v, want the higher-confidence face to decide", v.Kind)
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name        string
		current     State
		verdict     Verdict
		wantNext    State
		wantChanged bool
	}{
		{"no face from focused", Focused, Verdict{Kind: EvidenceNotFocused, Reason: ReasonNoFace}, NotFocused, true},
		{"no face from not focused", NotFocused, Verdict{Kind: EvidenceNotFocused, Reason: ReasonNoFace}, NotFocused, false},
		{"open eyes restore focus", NotFocused, Verdict{Kind: EvidenceFocused}, Focused, true},
		{"open eyes keep focus", Focused, Verdict{Kind: EvidenceFocused}, Focused, false},
		{"inconclusive keeps focused", Focused, Verdict{Kind: Inconclusive}, Focused, false},
		{"inconclusive keeps not focused", NotFocused, Verdict{Kind: Inconclusive}, NotFocused, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, changed := Apply(tc.current, tc.verdict)
			if next != tc.wantNext || changed != tc.wantChanged {
				t.Errorf("Apply: got (%v, %v), want (%v, %v)", next, changed, tc.wantNext, tc.wantChanged)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	for _, th := range []float64{0, -0.1, 1, 1.5} {
		if err := (Config{Threshold: th}).Validate(); err == nil {
			t.Errorf("Validate(%v): expected error", th)
		}
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig: %v", err)
	}
}

func TestState_String(t *testing.T) {
	if Focused.String() != "focused" || NotFocused.String() != "not_focused" {
		t.Errorf("String: got %q / %q", Focused, NotFocused)
	}
}
