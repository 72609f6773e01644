package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer   Action = "answer"
	ActionNavigate Action = "navigate"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// AnswerRequest records an option label against a global question index.
type AnswerRequest struct {
	Action Action `json:"action"`
	Index  int    `json:"index"`
	Label  string `json:"label"`
}

// NavigateRequest moves the cursor, optionally switching the subject view.
type NavigateRequest struct {
	Action  Action `json:"action"`
	Subject string `json:"subject"`
	Index   int    `json:"index"`
}

// SubmitRequest asks the server to finish and grade the test.
type SubmitRequest struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventTick       Event = "tick"
	EventThreshold  Event = "threshold"
	EventExpired    Event = "expired"
	EventSubmitting Event = "submitting"
	EventGraded     Event = "graded"
	EventError      Event = "error"
	EventSuccess    Event = "success"
	EventPong       Event = "pong"
)

// TickResponse carries the countdown's remaining whole seconds.
type TickResponse struct {
	Event     Event `json:"event"`
	Remaining int   `json:"remaining"`
}

// ThresholdResponse fires once when the low-time warning is crossed.
type ThresholdResponse struct {
	Event     Event `json:"event"`
	Remaining int   `json:"remaining"`
}

// ExpiredResponse fires once when the countdown reaches zero.
type ExpiredResponse struct {
	Event Event `json:"event"`
}

// SubmittingResponse announces that grading has started and the session is
// frozen.
type SubmittingResponse struct {
	Event Event `json:"event"`
}

// GradedResponse delivers the final score once grading completes.
type GradedResponse struct {
	Event      Event   `json:"event"`
	Score      int     `json:"score"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// AckResponse confirms a client action was applied.
type AckResponse struct {
	Event  Event  `json:"event"`
	Action Action `json:"action"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
