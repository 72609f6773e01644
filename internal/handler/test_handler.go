package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jeeace/backend/internal/evaluator"
	"github.com/jeeace/backend/internal/model"
	"github.com/jeeace/backend/internal/response"
	"github.com/jeeace/backend/internal/validator"
)

// TestHandler handles test configuration endpoints: listing subjects and
// generating a question set before a session starts.
type TestHandler struct {
	evaluator *evaluator.Client
}

// NewTestHandler creates a new TestHandler.
func NewTestHandler(ev *evaluator.Client) *TestHandler {
	return &TestHandler{evaluator: ev}
}

// ListSubjects godoc
// GET /api/v1/subjects
// Returns the subjects the question backend can generate from.
func (h *TestHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.evaluator.Subjects(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusBadGateway, response.ErrEvaluatorDown)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"subjects": subjects})
}

// GenerateTest godoc
// POST /api/v1/tests/generate
// Generates a question set and returns a ready-to-start test configuration.
func (h *TestHandler) GenerateTest(c *gin.Context) {
	var req model.GenerateTestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions, err := h.evaluator.GenerateQuestions(c.Request.Context(), req.Subject, req.Topics, req.Count)
	if err != nil {
		if errors.Is(err, evaluator.ErrUnavailable) {
			response.Fail(c, http.StatusBadGateway, response.ErrEvaluatorDown)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if len(questions) == 0 {
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrNoQuestions)
		return
	}

	cfg := model.TestConfiguration{
		TestID:           uuid.New().String(),
		TestType:         model.TestType(req.TestType),
		Subjects:         subjectsOf(questions),
		Questions:        questions,
		TimeLimitMinutes: req.TimeLimitMinutes,
		TotalQuestions:   len(questions),
	}

	response.Success(c, http.StatusOK, gin.H{"configuration": cfg})
}

// subjectsOf lists the distinct subjects in first-appearance order.
func subjectsOf(questions []model.Question) []string {
	seen := make(map[string]bool)
	var subjects []string
	for _, q := range questions {
		if !seen[q.Subject] {
			seen[q.Subject] = true
			subjects = append(subjects, q.Subject)
		}
	}
	return subjects
}
