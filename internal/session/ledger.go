package session

// AnswerLedger maps a global question index to the user's selected option
// label. At most one answer per question — a later Set overwrites an earlier
// one. Unanswered questions are simply absent, never stored as a sentinel.
//
// The ledger is not safe for concurrent use on its own; the Controller owns
// it and serializes all access.
type AnswerLedger struct {
	answers map[int]string
}

// NewAnswerLedger creates an empty ledger.
func NewAnswerLedger() *AnswerLedger {
	return &AnswerLedger{answers: make(map[int]string)}
}

// Set records the option label for a global question index (upsert).
func (l *AnswerLedger) Set(index int, label string) {
	l.answers[index] = label
}

// Get returns the stored label for the index, and whether it was answered.
func (l *AnswerLedger) Get(index int) (string, bool) {
	label, ok := l.answers[index]
	return label, ok
}

// AnsweredCount returns how many questions have an answer.
func (l *AnswerLedger) AnsweredCount() int {
	return len(l.answers)
}

// AllAnswersInOrder builds the positional payload for the evaluator: a slice
// of length totalQuestions where position i is the stored label, or the empty
// string for unanswered questions. Indices are never compacted or renumbered.
func (l *AnswerLedger) AllAnswersInOrder(totalQuestions int) []string {
	out := make([]string, totalQuestions)
	for i := 0; i < totalQuestions; i++ {
		if label, ok := l.answers[i]; ok {
			out[i] = label
		}
	}
	return out
}

// Snapshot returns a copy of the underlying mapping.
func (l *AnswerLedger) Snapshot() map[int]string {
	out := make(map[int]string, len(l.answers))
	for i, label := range l.answers {
		out[i] = label
	}
	return out
}
