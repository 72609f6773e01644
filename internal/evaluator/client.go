// Package evaluator is the HTTP client for the external grading and question
// generation backend. The session engine only depends on its Evaluate method,
// through the session.Evaluator interface.
package evaluator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jeeace/backend/internal/config"
	"github.com/jeeace/backend/internal/model"
	"github.com/rs/zerolog"
)

// ErrUnavailable marks network failures and non-success responses from the
// evaluator. Submissions failing with it are retryable.
var ErrUnavailable = errors.New("evaluator unavailable")

// Client talks to the grading backend over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates a Client from configuration.
func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	return &Client{
		baseURL: cfg.EvaluatorBaseURL,
		http:    &http.Client{Timeout: cfg.EvaluatorTimeout},
		log:     log.With().Str("component", "evaluator_client").Logger(),
	}
}

type evaluateRequest struct {
	Questions   []model.Question `json:"questions"`
	UserAnswers []string         `json:"userAnswers"`
}

// Evaluate grades a positional answer sheet against the question list.
// answersInOrder must be in global, unfiltered question order, with the empty
// string for unanswered questions.
func (c *Client) Evaluate(ctx context.Context, questions []model.Question, answersInOrder []string) (*model.EvaluationResult, error) {
	var result model.EvaluationResult
	err := c.post(ctx, "/api/evaluate", evaluateRequest{
		Questions:   questions,
		UserAnswers: answersInOrder,
	}, &result)
	if err != nil {
		return nil, err
	}
	if len(result.Details) != len(questions) {
		return nil, fmt.Errorf("%w: got %d details for %d questions", ErrUnavailable, len(result.Details), len(questions))
	}
	return &result, nil
}

type generateRequest struct {
	Subject string   `json:"subject"`
	Topics  []string `json:"topics"`
	Count   int      `json:"count"`
}

type generateResponse struct {
	Questions []model.Question `json:"questions"`
	Subject   string           `json:"subject"`
	Count     int              `json:"count"`
}

// GenerateQuestions asks the backend for a question pool. Consumed only by
// the configuration step, before a session starts.
func (c *Client) GenerateQuestions(ctx context.Context, subject string, topics []string, count int) ([]model.Question, error) {
	var resp generateResponse
	err := c.post(ctx, "/api/generate-questions", generateRequest{
		Subject: subject,
		Topics:  topics,
		Count:   count,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Questions, nil
}

type subjectsResponse struct {
	Subjects []string `json:"subjects"`
}

// Subjects lists the subjects the backend can generate questions for.
func (c *Client) Subjects(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/subjects", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	var resp subjectsResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return resp.Subjects, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Warn().
			Int("status", resp.StatusCode).
			Str("path", req.URL.Path).
			Bytes("body", body).
			Msg("Evaluator returned non-success status")
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}
