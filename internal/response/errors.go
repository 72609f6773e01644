package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrEmailTaken         ErrCode = "EMAIL_ALREADY_REGISTERED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound  ErrCode = "NOT_FOUND"
	ErrForbidden ErrCode = "FORBIDDEN"

	// ─── Test sessions ─────────────────────────────────────────────────
	ErrConfigRequired     ErrCode = "CONFIG_REQUIRED"
	ErrSessionNotFound    ErrCode = "SESSION_NOT_FOUND"
	ErrSessionClosed      ErrCode = "SESSION_CLOSED"
	ErrSessionCompleted   ErrCode = "SESSION_COMPLETED"
	ErrSubmitInFlight     ErrCode = "SUBMIT_IN_FLIGHT"
	ErrEvaluatorDown      ErrCode = "EVALUATOR_UNAVAILABLE"
	ErrQuestionOutOfRange ErrCode = "QUESTION_OUT_OF_RANGE"
	ErrReportNotReady     ErrCode = "REPORT_NOT_READY"
	ErrNoQuestions        ErrCode = "NO_QUESTIONS_GENERATED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrInvalidCredentials:
		return "Email or password is incorrect."
	case ErrEmailTaken:
		return "An account with this email already exists."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid or expired."

	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	case ErrNotFound:
		return "Resource not found."
	case ErrForbidden:
		return "You do not have access to this resource."

	case ErrConfigRequired:
		return "No test configuration available. Please configure a test first."
	case ErrSessionNotFound:
		return "Test session not found."
	case ErrSessionClosed:
		return "The test session is no longer in progress."
	case ErrSessionCompleted:
		return "The test session is already completed."
	case ErrSubmitInFlight:
		return "A submission is already being graded."
	case ErrEvaluatorDown:
		return "Could not reach the grading service. Your answers are saved — please try submitting again."
	case ErrQuestionOutOfRange:
		return "Question index is out of range."
	case ErrReportNotReady:
		return "Results are not ready for this session."
	case ErrNoQuestions:
		return "No questions could be generated for this configuration."

	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
