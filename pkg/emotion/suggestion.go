package emotion

// Suggestion is a coping message shown after a work session.
type Suggestion struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Suggestion kinds.
const (
	KindCalmingBreak  = "calming_break"
	KindBreathing     = "breathing_exercise"
	KindStressRelief  = "stress_relief"
	KindReinforcement = "positive_reinforcement"
)

var suggestions = map[Label]Suggestion{
	Sad: {
		Kind:    KindCalmingBreak,
		Message: "You seemed sad during the session. Take a break and listen to calming music.",
	},
	Angry: {
		Kind:    KindBreathing,
		Message: "You seemed angry during the session. Try some deep breathing exercises.",
	},
	Fearful: {
		Kind:    KindStressRelief,
		Message: "You seemed stressed during the session. Take a short walk or meditate.",
	},
	Disgusted: {
		Kind:    KindStressRelief,
		Message: "You seemed stressed during the session. Take a short walk or meditate.",
	},
	Happy: {
		Kind:    KindReinforcement,
		Message: "You seemed happy during the session! Keep up the good work.",
	},
}

// SuggestionFor returns the coping suggestion for a session's dominant label.
// Labels without an entry (neutral, surprised, unknown) return ok=false.
func SuggestionFor(l Label) (Suggestion, bool) {
	s, ok := suggestions[l]
	return s, ok
}
