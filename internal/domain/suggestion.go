package domain

// Suggestion is one proposed alternative value for a tested field.
type Suggestion struct {
	Label     string
	Value     string
	Rationale string
}
