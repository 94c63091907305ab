package model

import (
	"time"

	"scaledrill/internal/theory"
)

// IssuedQuestion is the question currently posed to a drill session.
// Each new question replaces the previous one.
type IssuedQuestion struct {
	Key      string    `json:"key"` // e.g. "q3"
	Prompt   string    `json:"prompt"`
	Answer   string    `json:"answer"` // never sent to drill clients
	Root     string    `json:"root,omitempty"`
	Mode     string    `json:"mode,omitempty"`
	Degree   int       `json:"degree,omitempty"`
	IssuedAt time.Time `json:"issuedAt"`
}

// NewIssuedQuestion wraps an engine question
func NewIssuedQuestion(key string, q theory.Question, at time.Time) *IssuedQuestion {
	iq := &IssuedQuestion{
		Key:      key,
		Prompt:   q.Prompt,
		Answer:   q.Answer,
		IssuedAt: at,
	}
	if !q.Empty() {
		iq.Root = q.Root
		iq.Mode = q.Mode.String()
		iq.Degree = q.Degree
	}
	return iq
}

// Empty reports whether this is the placeholder for an empty config
func (q *IssuedQuestion) Empty() bool {
	return q.Answer == ""
}

// View hides the answer
func (q *IssuedQuestion) View() *QuestionView {
	return &QuestionView{
		Key:    q.Key,
		Prompt: q.Prompt,
		Empty:  q.Empty(),
	}
}

// QuestionView is what a drill client sees
type QuestionView struct {
	Key    string `json:"key"`
	Prompt string `json:"prompt"`
	Empty  bool   `json:"empty"` // true when the config selects nothing
}

// GeneratedQuestion is returned by the stateless generate endpoint and
// includes the answer
type GeneratedQuestion struct {
	Prompt string `json:"prompt"`
	Answer string `json:"answer"`
}
