package session_test

import (
	"reflect"
	"testing"

	"github.com/jeeace/backend/internal/session"
)

func TestLedger_LastWriteWins(t *testing.T) {
	l := session.NewAnswerLedger()

	l.Set(3, "A")
	l.Set(3, "B")

	got, ok := l.Get(3)
	if !ok {
		t.Fatal("expected index 3 to be answered")
	}
	if got != "B" {
		t.Errorf("expected last write to win, got %q", got)
	}
	if l.AnsweredCount() != 1 {
		t.Errorf("expected exactly one answer, got %d", l.AnsweredCount())
	}
}

func TestLedger_UnansweredIsAbsent(t *testing.T) {
	l := session.NewAnswerLedger()
	l.Set(0, "C")

	if _, ok := l.Get(5); ok {
		t.Error("expected index 5 to be unanswered")
	}
	if l.AnsweredCount() != 1 {
		t.Errorf("expected 1 answered, got %d", l.AnsweredCount())
	}
}

func TestLedger_AllAnswersInOrder(t *testing.T) {
	l := session.NewAnswerLedger()
	l.Set(0, "A")
	l.Set(2, "D")

	got := l.AllAnswersInOrder(4)
	want := []string{"A", "", "D", ""}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestLedger_IndicesNeverCompacted(t *testing.T) {
	l := session.NewAnswerLedger()
	l.Set(7, "B")

	got := l.AllAnswersInOrder(10)
	for i, label := range got {
		if i == 7 {
			if label != "B" {
				t.Errorf("expected B at index 7, got %q", label)
			}
			continue
		}
		if label != "" {
			t.Errorf("expected empty sentinel at index %d, got %q", i, label)
		}
	}
}

func TestLedger_Snapshot(t *testing.T) {
	l := session.NewAnswerLedger()
	l.Set(1, "A")

	snap := l.Snapshot()
	snap[1] = "Z"

	if got, _ := l.Get(1); got != "A" {
		t.Errorf("snapshot mutation leaked into ledger: %q", got)
	}
}
