package evaluator_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jeeace/backend/internal/config"
	"github.com/jeeace/backend/internal/evaluator"
	"github.com/jeeace/backend/internal/model"
	"github.com/rs/zerolog"
)

func newTestClient(t *testing.T, handler http.Handler) *evaluator.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return evaluator.NewClient(&config.Config{
		EvaluatorBaseURL: srv.URL,
		EvaluatorTimeout: 5 * time.Second,
	}, zerolog.Nop())
}

func TestEvaluate_Success(t *testing.T) {
	var gotBody struct {
		Questions   []model.Question `json:"questions"`
		UserAnswers []string         `json:"userAnswers"`
	}

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/evaluate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatal(err)
		}
		json.NewEncoder(w).Encode(model.EvaluationResult{
			Score:   1,
			Total:   2,
			Details: []model.AnswerDetail{{IsCorrect: true}, {IsCorrect: false}},
		})
	}))

	questions := []model.Question{
		{Subject: "Physics", Question: "q0", Options: []string{"a", "b"}},
		{Subject: "Chemistry", Question: "q1", Options: []string{"a", "b"}},
	}
	result, err := client.Evaluate(context.Background(), questions, []string{"B", ""})
	if err != nil {
		t.Fatal(err)
	}

	if result.Score != 1 || result.Total != 2 {
		t.Errorf("unexpected result %+v", result)
	}
	if len(gotBody.UserAnswers) != 2 || gotBody.UserAnswers[1] != "" {
		t.Errorf("expected positional payload with empty sentinel, got %v", gotBody.UserAnswers)
	}
}

func TestEvaluate_NonSuccessStatusIsUnavailable(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))

	_, err := client.Evaluate(context.Background(), []model.Question{{Subject: "Physics"}}, []string{""})
	if !errors.Is(err, evaluator.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestEvaluate_MisalignedDetailsRejected(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.EvaluationResult{Score: 0, Total: 2, Details: []model.AnswerDetail{{}}})
	}))

	questions := []model.Question{{Subject: "Physics"}, {Subject: "Chemistry"}}
	_, err := client.Evaluate(context.Background(), questions, []string{"", ""})
	if !errors.Is(err, evaluator.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable for misaligned details, got %v", err)
	}
}

func TestGenerateQuestions(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate-questions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"questions": []model.Question{{Subject: "Physics", Question: "q", Options: []string{"a", "b", "c", "d"}}},
			"subject":   "Physics",
			"count":     1,
		})
	}))

	questions, err := client.GenerateQuestions(context.Background(), "Physics", []string{"optics"}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(questions) != 1 || questions[0].Subject != "Physics" {
		t.Errorf("unexpected questions %+v", questions)
	}
}

func TestSubjects(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string][]string{"subjects": {"Physics", "Chemistry"}})
	}))

	subjects, err := client.Subjects(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(subjects) != 2 {
		t.Errorf("expected 2 subjects, got %v", subjects)
	}
}
