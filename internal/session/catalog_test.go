package session_test

import (
	"testing"

	"github.com/jeeace/backend/internal/model"
	"github.com/jeeace/backend/internal/session"
)

func sampleQuestions() []model.Question {
	return []model.Question{
		{Subject: "Physics", Question: "p0", Options: []string{"a", "b"}},
		{Subject: "Chemistry", Question: "c0", Options: []string{"a", "b"}},
		{Subject: "Physics", Question: "p1", Options: []string{"a", "b"}},
		{Subject: "Mathematics", Question: "m0", Options: []string{"a", "b"}},
		{Subject: "Chemistry", Question: "c1", Options: []string{"a", "b"}},
	}
}

func TestFilterBySubject_PreservesOrder(t *testing.T) {
	qs := sampleQuestions()

	filtered := session.FilterBySubject(qs, "Physics")
	if len(filtered) != 2 {
		t.Fatalf("expected 2 Physics questions, got %d", len(filtered))
	}
	if filtered[0].Question != "p0" || filtered[1].Question != "p1" {
		t.Errorf("expected original relative order, got %q then %q", filtered[0].Question, filtered[1].Question)
	}
}

func TestFilterBySubject_AllReturnsEverything(t *testing.T) {
	qs := sampleQuestions()

	filtered := session.FilterBySubject(qs, session.SubjectAll)
	if len(filtered) != len(qs) {
		t.Errorf("expected full list, got %d of %d", len(filtered), len(qs))
	}
}

func TestFilterBySubject_UnknownSubjectIsEmpty(t *testing.T) {
	filtered := session.FilterBySubject(sampleQuestions(), "Biology")
	if len(filtered) != 0 {
		t.Errorf("expected empty view, got %d", len(filtered))
	}
}

// Every local index in a subject's filtered view must map back to a global
// index whose question carries that subject.
func TestGlobalIndex_SubjectStability(t *testing.T) {
	qs := sampleQuestions()
	for _, subject := range []string{"Physics", "Chemistry", "Mathematics"} {
		view := session.FilterBySubject(qs, subject)
		for j := range view {
			global, ok := session.GlobalIndex(qs, subject, j)
			if !ok {
				t.Fatalf("%s[%d]: expected a global index", subject, j)
			}
			if qs[global].Subject != subject {
				t.Errorf("%s[%d] mapped to global %d with subject %s", subject, j, global, qs[global].Subject)
			}
			if qs[global].Question != view[j].Question {
				t.Errorf("%s[%d] mapped to wrong question %q", subject, j, qs[global].Question)
			}
		}
	}
}

func TestGlobalIndex_AllIsIdentity(t *testing.T) {
	qs := sampleQuestions()
	for i := range qs {
		global, ok := session.GlobalIndex(qs, session.SubjectAll, i)
		if !ok || global != i {
			t.Errorf("expected identity mapping for All, got %d (%v) for %d", global, ok, i)
		}
	}
}

func TestGlobalIndex_OutOfRange(t *testing.T) {
	qs := sampleQuestions()

	if _, ok := session.GlobalIndex(qs, "Physics", 2); ok {
		t.Error("expected no mapping past the end of the filtered view")
	}
	if _, ok := session.GlobalIndex(qs, "Physics", -1); ok {
		t.Error("expected no mapping for a negative index")
	}
	if _, ok := session.GlobalIndex(qs, session.SubjectAll, len(qs)); ok {
		t.Error("expected no mapping past the end of the full list")
	}
}
