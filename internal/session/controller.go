package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jeeace/backend/internal/model"
	"github.com/jeeace/backend/internal/report"
)

// Phase is the session state machine's current state. Transitions only move
// forward: in_progress → submitting → completed.
type Phase string

const (
	PhaseInProgress Phase = "in_progress"
	PhaseSubmitting Phase = "submitting"
	PhaseCompleted  Phase = "completed"
)

// Common controller errors.
var (
	ErrNoQuestions      = errors.New("test configuration has no questions")
	ErrInvalidDuration  = errors.New("test time limit must be positive")
	ErrSessionClosed    = errors.New("session is no longer in progress")
	ErrSubmitInFlight   = errors.New("a submission is already in flight")
	ErrAlreadyCompleted = errors.New("session is already completed")
	ErrIndexOutOfRange  = errors.New("question index out of range")
)

// Evaluator grades a positional answer sheet against the question list.
// Implemented by the external grading backend client.
type Evaluator interface {
	Evaluate(ctx context.Context, questions []model.Question, answersInOrder []string) (*model.EvaluationResult, error)
}

// EventType tags session events emitted to the sink.
type EventType string

const (
	EventTick         EventType = "tick"
	EventThreshold    EventType = "threshold"
	EventExpired      EventType = "expired"
	EventSubmitting   EventType = "submitting"
	EventCompleted    EventType = "completed"
	EventSubmitFailed EventType = "submit_failed"
)

// Event is a tagged session occurrence, consumed by the live stream.
type Event struct {
	Type      EventType
	Remaining int
	Report    *model.TestReport
	Err       error
}

// Controller orchestrates one test session: the countdown clock, the answer
// ledger and the submission handshake with the evaluator. It is the only
// writer of the ledger; once the phase leaves in_progress the ledger is
// frozen and the clock is stopped.
type Controller struct {
	mu            sync.Mutex
	cfg           model.TestConfiguration
	ledger        *AnswerLedger
	clock         *Clock
	phase         Phase
	cursor        int
	subjectFilter string
	// inFlight makes the first submit trigger (user click or clock expiry,
	// whichever lands first) authoritative; the loser is discarded.
	inFlight bool
	lastErr  error
	report   *model.TestReport

	evaluator Evaluator
	sink      func(Event)
}

// NewController builds a session controller from a test configuration. The
// clock is created but not started; call Start to begin the countdown.
// thresholdSeconds configures the one-shot low-time warning.
func NewController(cfg model.TestConfiguration, ev Evaluator, thresholdSeconds int, sink func(Event)) (*Controller, error) {
	if len(cfg.Questions) == 0 {
		return nil, ErrNoQuestions
	}
	if cfg.TimeLimitMinutes <= 0 {
		return nil, ErrInvalidDuration
	}
	if cfg.TotalQuestions == 0 {
		cfg.TotalQuestions = len(cfg.Questions)
	}

	c := &Controller{
		cfg:           cfg,
		ledger:        NewAnswerLedger(),
		phase:         PhaseInProgress,
		subjectFilter: SubjectAll,
		evaluator:     ev,
		sink:          sink,
	}

	c.clock = NewClock(cfg.TimeLimitMinutes*60, thresholdSeconds, ClockCallbacks{
		OnTick: func(remaining int) {
			c.emit(Event{Type: EventTick, Remaining: remaining})
		},
		OnThreshold: func() {
			c.emit(Event{Type: EventThreshold, Remaining: thresholdSeconds})
		},
		OnExpire: c.onExpire,
	})

	return c, nil
}

// Start begins the countdown. Call once, right after construction.
func (c *Controller) Start() {
	c.clock.Start()
}

// Clock exposes the countdown for deterministic test driving.
func (c *Controller) Clock() *Clock {
	return c.clock
}

// Config returns the immutable test configuration.
func (c *Controller) Config() model.TestConfiguration {
	return c.cfg
}

// Answer records the option label for a global question index. Only permitted
// while the session is in progress.
func (c *Controller) Answer(globalIndex int, label string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseInProgress {
		return ErrSessionClosed
	}
	if globalIndex < 0 || globalIndex >= c.cfg.TotalQuestions {
		return ErrIndexOutOfRange
	}
	c.ledger.Set(globalIndex, label)
	return nil
}

// AnswerAt returns the ledger entry for a global index.
func (c *Controller) AnswerAt(globalIndex int) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.Get(globalIndex)
}

// AnsweredCount returns how many questions have been answered.
func (c *Controller) AnsweredCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.AnsweredCount()
}

// Answers returns a copy of the ledger keyed by global question index.
func (c *Controller) Answers() map[int]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.Snapshot()
}

// SetSubjectFilter switches the catalog view and resets the cursor to the
// first question of the view. A filter with zero matching questions is valid:
// the view is empty and navigation within it is disabled.
func (c *Controller) SetSubjectFilter(subject string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseInProgress {
		return ErrSessionClosed
	}
	c.subjectFilter = subject
	c.cursor = 0
	return nil
}

// Navigate moves the cursor to a position within the current filtered view.
func (c *Controller) Navigate(filteredIndex int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseInProgress {
		return ErrSessionClosed
	}
	if _, ok := GlobalIndex(c.cfg.Questions, c.subjectFilter, filteredIndex); !ok {
		return ErrIndexOutOfRange
	}
	c.cursor = filteredIndex
	return nil
}

// Cursor returns the current position within the filtered view.
func (c *Controller) Cursor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// SubjectFilter returns the active subject filter.
func (c *Controller) SubjectFilter() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subjectFilter
}

// Phase returns the state machine's current state.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Remaining returns the countdown's remaining whole seconds.
func (c *Controller) Remaining() int {
	return c.clock.Remaining()
}

// TimeTakenSeconds is the elapsed test time, derived from the clock.
func (c *Controller) TimeTakenSeconds() int {
	return c.cfg.TimeLimitMinutes*60 - c.clock.Remaining()
}

// Report returns the final report once the session completed.
func (c *Controller) Report() (*model.TestReport, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.report, c.report != nil
}

// LastError returns the most recent submission failure, if any.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Submit freezes the session and sends the full question list plus the
// positional answer sheet (global, unfiltered order) to the evaluator.
// The first trigger wins; concurrent triggers get ErrSubmitInFlight. After an
// evaluator failure the session stays in submitting with the ledger intact,
// and Submit may be called again to retry the same submission.
func (c *Controller) Submit(ctx context.Context) (*model.TestReport, error) {
	c.mu.Lock()
	if c.phase == PhaseCompleted {
		c.mu.Unlock()
		return nil, ErrAlreadyCompleted
	}
	if c.inFlight {
		c.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	first := c.phase == PhaseInProgress
	c.phase = PhaseSubmitting
	c.inFlight = true
	questions := c.cfg.Questions
	answers := c.ledger.AllAnswersInOrder(c.cfg.TotalQuestions)
	c.mu.Unlock()

	if first {
		c.clock.Stop()
		c.emit(Event{Type: EventSubmitting, Remaining: c.clock.Remaining()})
	}

	result, err := c.evaluator.Evaluate(ctx, questions, answers)
	if err != nil {
		return nil, c.failSubmission(fmt.Errorf("evaluate submission: %w", err))
	}

	rep, err := report.Aggregate(questions, result)
	if err != nil {
		return nil, c.failSubmission(fmt.Errorf("aggregate results: %w", err))
	}
	rep.TimeTakenSeconds = c.TimeTakenSeconds()

	c.mu.Lock()
	c.inFlight = false
	c.lastErr = nil
	c.phase = PhaseCompleted
	c.report = rep
	c.mu.Unlock()

	c.emit(Event{Type: EventCompleted, Report: rep})
	return rep, nil
}

// failSubmission records a recoverable submission failure. The phase stays
// submitting and the ledger is preserved so a retry resubmits the same sheet.
func (c *Controller) failSubmission(err error) error {
	c.mu.Lock()
	c.inFlight = false
	c.lastErr = err
	c.mu.Unlock()
	c.emit(Event{Type: EventSubmitFailed, Err: err})
	return err
}

// Close tears the session down, cancelling the countdown schedule.
func (c *Controller) Close() {
	c.clock.Stop()
}

// onExpire auto-submits when the countdown hits zero. If a manual submit is
// already in flight this trigger is discarded by the guard.
func (c *Controller) onExpire() {
	c.emit(Event{Type: EventExpired})
	if _, err := c.Submit(context.Background()); err != nil {
		if errors.Is(err, ErrSubmitInFlight) || errors.Is(err, ErrAlreadyCompleted) {
			return
		}
		// Failure already surfaced through EventSubmitFailed.
	}
}

func (c *Controller) emit(ev Event) {
	if c.sink != nil {
		c.sink(ev)
	}
}
