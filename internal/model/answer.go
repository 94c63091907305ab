package model

import "scaledrill/internal/theory"

// SubmitAnswerRequest is the body of an answer submission
type SubmitAnswerRequest struct {
	Answer string `json:"answer"`
}

// CheckRequest is the body of the stateless check endpoint
type CheckRequest struct {
	Answer   string `json:"answer"`
	Expected string `json:"expected"`
}

// AnswerResponse is returned after a drill answer is checked
type AnswerResponse struct {
	QuestionKey string         `json:"questionKey"`
	Verdict     theory.Verdict `json:"verdict"`
}
