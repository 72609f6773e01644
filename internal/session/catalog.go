package session

import "github.com/jeeace/backend/internal/model"

// SubjectAll is the filter value that selects every question.
const SubjectAll = "All"

// FilterBySubject returns the ordered subsequence of questions matching the
// subject, preserving original relative order. SubjectAll returns the full
// list unchanged.
func FilterBySubject(questions []model.Question, subject string) []model.Question {
	if subject == SubjectAll {
		return questions
	}
	var filtered []model.Question
	for _, q := range questions {
		if q.Subject == subject {
			filtered = append(filtered, q)
		}
	}
	return filtered
}

// GlobalIndex resolves a position in the subject-filtered view back to the
// question's position in the unfiltered list. The answer ledger and the
// evaluator are always keyed by the global index, never the filtered one.
// Returns false when filteredIndex is out of range for the filtered view.
func GlobalIndex(questions []model.Question, subject string, filteredIndex int) (int, bool) {
	if filteredIndex < 0 {
		return 0, false
	}
	if subject == SubjectAll {
		if filteredIndex >= len(questions) {
			return 0, false
		}
		return filteredIndex, true
	}
	seen := 0
	for i, q := range questions {
		if q.Subject != subject {
			continue
		}
		if seen == filteredIndex {
			return i, true
		}
		seen++
	}
	return 0, false
}
