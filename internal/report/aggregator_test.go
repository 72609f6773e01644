package report_test

import (
	"errors"
	"testing"

	"github.com/jeeace/backend/internal/model"
	"github.com/jeeace/backend/internal/report"
)

func TestAggregate_OverallPercentage(t *testing.T) {
	questions := make([]model.Question, 25)
	details := make([]model.AnswerDetail, 25)
	for i := range questions {
		questions[i] = model.Question{Subject: "Physics", Question: "q"}
		details[i] = model.AnswerDetail{IsCorrect: i < 18}
	}

	rep, err := report.Aggregate(questions, &model.EvaluationResult{Score: 18, Total: 25, Details: details})
	if err != nil {
		t.Fatal(err)
	}
	if rep.OverallPercentage != 72.0 {
		t.Errorf("expected 72.0, got %v", rep.OverallPercentage)
	}
}

func TestAggregate_OnlyPresentSubjectsReported(t *testing.T) {
	questions := []model.Question{
		{Subject: "Physics"},
		{Subject: "Chemistry"},
	}
	eval := &model.EvaluationResult{
		Score:   1,
		Total:   2,
		Details: []model.AnswerDetail{{IsCorrect: true}, {IsCorrect: false}},
	}

	rep, err := report.Aggregate(questions, eval)
	if err != nil {
		t.Fatal(err)
	}

	for _, s := range rep.SubjectStats {
		if s.Subject == "Mathematics" {
			t.Error("Mathematics must not appear in stats for a Physics/Chemistry test")
		}
		if s.Total == 0 {
			t.Errorf("subject %s has a zero-size partition", s.Subject)
		}
	}
	if len(rep.SubjectStats) != 2 {
		t.Errorf("expected 2 subjects, got %d", len(rep.SubjectStats))
	}
}

func TestAggregate_SubjectsPartitionedByGlobalIndex(t *testing.T) {
	questions := []model.Question{
		{Subject: "Physics"},
		{Subject: "Chemistry"},
		{Subject: "Physics"},
	}
	// Details aligned with the global question order.
	eval := &model.EvaluationResult{
		Score:   2,
		Total:   3,
		Details: []model.AnswerDetail{{IsCorrect: true}, {IsCorrect: false}, {IsCorrect: true}},
	}

	rep, err := report.Aggregate(questions, eval)
	if err != nil {
		t.Fatal(err)
	}

	want := map[string][2]int{
		"Physics":   {2, 2},
		"Chemistry": {1, 0},
	}
	for _, s := range rep.SubjectStats {
		w, ok := want[s.Subject]
		if !ok {
			t.Fatalf("unexpected subject %s", s.Subject)
		}
		if s.Total != w[0] || s.Correct != w[1] {
			t.Errorf("%s: expected %d/%d, got %d/%d", s.Subject, w[1], w[0], s.Correct, s.Total)
		}
	}
}

func TestAggregate_RoundsToOneDecimal(t *testing.T) {
	questions := []model.Question{{Subject: "Physics"}, {Subject: "Physics"}, {Subject: "Physics"}}
	eval := &model.EvaluationResult{
		Score:   1,
		Total:   3,
		Details: []model.AnswerDetail{{IsCorrect: true}, {IsCorrect: false}, {IsCorrect: false}},
	}

	rep, err := report.Aggregate(questions, eval)
	if err != nil {
		t.Fatal(err)
	}
	if rep.OverallPercentage != 33.3 {
		t.Errorf("expected 33.3, got %v", rep.OverallPercentage)
	}
	if rep.SubjectStats[0].Percentage != 33.3 {
		t.Errorf("expected subject 33.3, got %v", rep.SubjectStats[0].Percentage)
	}
}

func TestAggregate_EmptyEvaluationRejected(t *testing.T) {
	_, err := report.Aggregate(nil, &model.EvaluationResult{})
	if !errors.Is(err, report.ErrEmptyEvaluation) {
		t.Errorf("expected ErrEmptyEvaluation, got %v", err)
	}
	_, err = report.Aggregate(nil, nil)
	if !errors.Is(err, report.ErrEmptyEvaluation) {
		t.Errorf("expected ErrEmptyEvaluation for nil, got %v", err)
	}
}
