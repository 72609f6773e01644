package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AnswerDetail is one entry of the evaluator's positional grading response.
// Details[i] corresponds to Questions[i] of the submitted test.
type AnswerDetail struct {
	Question      string `json:"question,omitempty"`
	CorrectAnswer string `json:"correct_answer,omitempty"`
	UserAnswer    string `json:"user_answer,omitempty"`
	IsCorrect     bool   `json:"is_correct"`
}

// EvaluationResult is the evaluator's grading response for one submission.
type EvaluationResult struct {
	Score   int            `json:"score"`
	Total   int            `json:"total"`
	Details []AnswerDetail `json:"details"`
}

// SubjectStats holds per-subject correctness for the results view. Only
// subjects actually present in the question list are ever reported.
type SubjectStats struct {
	Subject    string  `json:"subject"`
	Total      int     `json:"total"`
	Correct    int     `json:"correct"`
	Percentage float64 `json:"percentage"`
}

// TestReport is the final output of a completed session.
type TestReport struct {
	Score             int            `json:"score"`
	Total             int            `json:"total"`
	OverallPercentage float64        `json:"overall_percentage"`
	SubjectStats      []SubjectStats `json:"subject_stats"`
	Details           []AnswerDetail `json:"details"`
	TimeTakenSeconds  int            `json:"time_taken_seconds"`
}

// TestResult is a persisted row of a user's test history.
type TestResult struct {
	ID               uuid.UUID       `json:"id"`
	UserID           int             `json:"user_id"`
	TestID           string          `json:"test_id"`
	TestType         TestType        `json:"test_type"`
	Score            int             `json:"score"`
	Total            int             `json:"total"`
	Percentage       float64         `json:"percentage"`
	SubjectStats     json.RawMessage `json:"subject_stats"`
	TimeTakenSeconds int             `json:"time_taken_seconds"`
	TakenAt          time.Time       `json:"taken_at"`
}
