package theory

// Result is the outcome of an answer check.
type Result string

const (
	Correct   Result = "correct"
	Incorrect Result = "incorrect"
)

// Verdict carries the result of one CheckAnswer call. Expected is the
// normalized expected answer and is set only when the answer was wrong.
type Verdict struct {
	Result   Result `json:"result"`
	Given    string `json:"given"`
	Expected string `json:"expected,omitempty"`
}

// IsCorrect reports whether the verdict passed.
func (v Verdict) IsCorrect() bool {
	return v.Result == Correct
}

// CheckAnswer compares a free-text answer to the expected note by pitch
// class, so enharmonic spellings are accepted. Empty or unrecognized input
// is an ordinary wrong answer.
func CheckAnswer(raw, expected string) Verdict {
	given := Normalize(raw)
	want := Normalize(expected)

	v := Verdict{Result: Incorrect, Given: given, Expected: want}

	if given == "" {
		return v
	}
	gotPC, ok := semitones[given]
	if !ok {
		return v
	}
	wantPC, ok := semitones[want]
	if !ok {
		return v
	}
	if gotPC == wantPC {
		return Verdict{Result: Correct, Given: given}
	}
	return v
}
