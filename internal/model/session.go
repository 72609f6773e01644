package model

// StartSessionRequest carries a full test configuration for a new session.
type StartSessionRequest struct {
	Configuration TestConfiguration `json:"configuration" binding:"required"`
}

// SessionAnswerRequest records one answer against a global question index.
type SessionAnswerRequest struct {
	Index int    `json:"index" binding:"min=0"`
	Label string `json:"label" binding:"required,max=16"`
}

// SessionCursorRequest moves the cursor, optionally switching the subject view.
type SessionCursorRequest struct {
	Subject string `json:"subject" binding:"required,max=64"`
	Index   int    `json:"index" binding:"min=0"`
}
