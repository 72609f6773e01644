// Package report turns an evaluator grading response into the final test
// report shown on the results screen.
package report

import (
	"errors"
	"math"

	"github.com/jeeace/backend/internal/model"
)

// ErrEmptyEvaluation is returned when the evaluator graded zero questions.
var ErrEmptyEvaluation = errors.New("evaluation result covers no questions")

// Aggregate computes the overall percentage and per-subject statistics from
// the evaluator's positional response. Details[i] is aligned with
// questions[i] — the global, unfiltered question order. Subjects are reported
// in first-appearance order, and only subjects actually present in the
// question list ever get an entry, so no zero-size partition can occur.
func Aggregate(questions []model.Question, eval *model.EvaluationResult) (*model.TestReport, error) {
	if eval == nil || eval.Total == 0 {
		return nil, ErrEmptyEvaluation
	}

	totals := make(map[string]int)
	corrects := make(map[string]int)
	var order []string

	for i, q := range questions {
		if totals[q.Subject] == 0 {
			order = append(order, q.Subject)
		}
		totals[q.Subject]++
		if i < len(eval.Details) && eval.Details[i].IsCorrect {
			corrects[q.Subject]++
		}
	}

	stats := make([]model.SubjectStats, 0, len(order))
	for _, subject := range order {
		total := totals[subject]
		correct := corrects[subject]
		stats = append(stats, model.SubjectStats{
			Subject:    subject,
			Total:      total,
			Correct:    correct,
			Percentage: round1(float64(correct) / float64(total) * 100),
		})
	}

	return &model.TestReport{
		Score:             eval.Score,
		Total:             eval.Total,
		OverallPercentage: round1(float64(eval.Score) / float64(eval.Total) * 100),
		SubjectStats:      stats,
		Details:           eval.Details,
	}, nil
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
