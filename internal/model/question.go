package model

// Question is a single multiple-choice question as supplied by the question
// backend. A question has no ID of its own — its identity is its position in
// the test's question list, because the evaluator grades positionally.
type Question struct {
	Subject   string   `json:"subject"`
	Question  string   `json:"question"`
	Options   []string `json:"options"`
	ImageData string   `json:"image_data,omitempty"`
}

// TestType enumerates the kinds of mock tests a user can configure.
type TestType string

const (
	TestTypeFull   TestType = "full"
	TestTypeCustom TestType = "custom"
)

// TestConfiguration is the output of the configuration step and the read-only
// input of a test session.
type TestConfiguration struct {
	TestID           string     `json:"test_id"`
	TestType         TestType   `json:"test_type"`
	Subjects         []string   `json:"subjects"`
	Questions        []Question `json:"questions"`
	TimeLimitMinutes int        `json:"time_limit_minutes"`
	TotalQuestions   int        `json:"total_questions"`
}

// GenerateTestRequest is the payload for building a new test configuration.
type GenerateTestRequest struct {
	TestType         string   `json:"test_type" binding:"required,oneof=full custom"`
	Subject          string   `json:"subject" binding:"required,min=1,max=64"`
	Topics           []string `json:"topics" binding:"omitempty,dive,min=1,max=128"`
	Count            int      `json:"count" binding:"required,min=1,max=25"`
	TimeLimitMinutes int      `json:"time_limit_minutes" binding:"required,min=1,max=480"`
}
