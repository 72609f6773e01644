package session_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/jeeace/backend/internal/model"
	"github.com/jeeace/backend/internal/session"
)

// fakeEvaluator counts calls and replays a canned grading response.
type fakeEvaluator struct {
	mu          sync.Mutex
	calls       int
	lastAnswers []string
	result      *model.EvaluationResult
	err         error
	entered     chan struct{} // closed on first call, if set
	release     chan struct{} // blocks the call until closed, if set
}

func (f *fakeEvaluator) Evaluate(_ context.Context, _ []model.Question, answers []string) (*model.EvaluationResult, error) {
	f.mu.Lock()
	f.calls++
	f.lastAnswers = append([]string(nil), answers...)
	entered := f.entered
	f.entered = nil
	f.mu.Unlock()

	if entered != nil {
		close(entered)
	}
	if f.release != nil {
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeEvaluator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func twoSubjectConfig() model.TestConfiguration {
	return model.TestConfiguration{
		TestID:   "t-1",
		TestType: model.TestTypeCustom,
		Subjects: []string{"Physics", "Chemistry"},
		Questions: []model.Question{
			{Subject: "Physics", Question: "q0", Options: []string{"x", "y", "z", "w"}},
			{Subject: "Chemistry", Question: "q1", Options: []string{"x", "y", "z", "w"}},
		},
		TimeLimitMinutes: 1,
	}
}

func TestController_RejectsInvalidConfiguration(t *testing.T) {
	_, err := session.NewController(model.TestConfiguration{TimeLimitMinutes: 5}, &fakeEvaluator{}, 300, nil)
	if !errors.Is(err, session.ErrNoQuestions) {
		t.Errorf("expected ErrNoQuestions, got %v", err)
	}

	cfg := twoSubjectConfig()
	cfg.TimeLimitMinutes = 0
	_, err = session.NewController(cfg, &fakeEvaluator{}, 300, nil)
	if !errors.Is(err, session.ErrInvalidDuration) {
		t.Errorf("expected ErrInvalidDuration, got %v", err)
	}
}

// The end-to-end scenario: answer q0 with "B", submit manually before expiry,
// evaluator grades 1/2 — overall 50.0%, Physics 100%, Chemistry 0%.
func TestController_ManualSubmitScenario(t *testing.T) {
	ev := &fakeEvaluator{result: &model.EvaluationResult{
		Score: 1,
		Total: 2,
		Details: []model.AnswerDetail{
			{IsCorrect: true},
			{IsCorrect: false},
		},
	}}

	c, err := session.NewController(twoSubjectConfig(), ev, 300, nil)
	if err != nil {
		t.Fatal(err)
	}

	if c.Phase() != session.PhaseInProgress {
		t.Fatalf("expected in_progress, got %s", c.Phase())
	}
	if err := c.Answer(0, "B"); err != nil {
		t.Fatal(err)
	}

	rep, err := c.Submit(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if c.Phase() != session.PhaseCompleted {
		t.Errorf("expected completed, got %s", c.Phase())
	}
	if rep.OverallPercentage != 50.0 {
		t.Errorf("expected overall 50.0, got %v", rep.OverallPercentage)
	}
	if !reflect.DeepEqual(ev.lastAnswers, []string{"B", ""}) {
		t.Errorf("expected positional payload [B, \"\"], got %v", ev.lastAnswers)
	}

	wantStats := []model.SubjectStats{
		{Subject: "Physics", Total: 1, Correct: 1, Percentage: 100.0},
		{Subject: "Chemistry", Total: 1, Correct: 0, Percentage: 0.0},
	}
	if !reflect.DeepEqual(rep.SubjectStats, wantStats) {
		t.Errorf("expected %+v, got %+v", wantStats, rep.SubjectStats)
	}
}

func TestController_LedgerFrozenOutsideInProgress(t *testing.T) {
	ev := &fakeEvaluator{err: errors.New("connection refused")}
	c, err := session.NewController(twoSubjectConfig(), ev, 300, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Answer(0, "A"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Submit(context.Background()); err == nil {
		t.Fatal("expected evaluator failure")
	}

	if c.Phase() != session.PhaseSubmitting {
		t.Errorf("expected session to stay submitting after failure, got %s", c.Phase())
	}
	if err := c.Answer(1, "C"); !errors.Is(err, session.ErrSessionClosed) {
		t.Errorf("expected frozen ledger, got %v", err)
	}
	if err := c.Navigate(1); !errors.Is(err, session.ErrSessionClosed) {
		t.Errorf("expected navigation disabled, got %v", err)
	}
}

// After an evaluator failure the same answer sheet must be resubmittable.
func TestController_RetryResubmitsSameSheet(t *testing.T) {
	ev := &fakeEvaluator{err: errors.New("evaluator down")}
	c, err := session.NewController(twoSubjectConfig(), ev, 300, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Answer(1, "D"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Submit(context.Background()); err == nil {
		t.Fatal("expected first submit to fail")
	}
	firstSheet := append([]string(nil), ev.lastAnswers...)

	// Evaluator recovers.
	ev.mu.Lock()
	ev.err = nil
	ev.result = &model.EvaluationResult{Score: 1, Total: 2, Details: []model.AnswerDetail{{IsCorrect: false}, {IsCorrect: true}}}
	ev.mu.Unlock()

	rep, err := c.Submit(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ev.lastAnswers, firstSheet) {
		t.Errorf("retry changed the sheet: %v vs %v", ev.lastAnswers, firstSheet)
	}
	if rep.OverallPercentage != 50.0 {
		t.Errorf("expected 50.0, got %v", rep.OverallPercentage)
	}
	if ev.callCount() != 2 {
		t.Errorf("expected 2 evaluator calls, got %d", ev.callCount())
	}
}

// Clock expiry auto-submits; a later manual submit is rejected and no second
// evaluator call is made.
func TestController_ExpiryAutoSubmitsOnce(t *testing.T) {
	ev := &fakeEvaluator{result: &model.EvaluationResult{
		Score:   0,
		Total:   2,
		Details: []model.AnswerDetail{{IsCorrect: false}, {IsCorrect: false}},
	}}
	c, err := session.NewController(twoSubjectConfig(), ev, 300, nil)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 60; i++ {
		c.Clock().Tick()
	}

	if c.Phase() != session.PhaseCompleted {
		t.Fatalf("expected expiry to complete the session, got %s", c.Phase())
	}
	if _, err := c.Submit(context.Background()); !errors.Is(err, session.ErrAlreadyCompleted) {
		t.Errorf("expected ErrAlreadyCompleted, got %v", err)
	}
	if ev.callCount() != 1 {
		t.Errorf("expected exactly one evaluator call, got %d", ev.callCount())
	}
}

// Expiry fires while a manual submit is mid-flight: the expiry trigger is
// discarded by the guard and exactly one evaluator call goes out.
func TestController_ConcurrentSubmitAndExpiry(t *testing.T) {
	ev := &fakeEvaluator{
		result:  &model.EvaluationResult{Score: 2, Total: 2, Details: []model.AnswerDetail{{IsCorrect: true}, {IsCorrect: true}}},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	c, err := session.NewController(twoSubjectConfig(), ev, 300, nil)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()

	select {
	case <-ev.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("evaluator call never started")
	}

	// The countdown would now expire — the auto-submit must be discarded.
	for i := 0; i < 60; i++ {
		c.Clock().Tick()
	}

	close(ev.release)
	if err := <-done; err != nil {
		t.Fatalf("manual submit failed: %v", err)
	}
	if ev.callCount() != 1 {
		t.Errorf("expected exactly one evaluator call, got %d", ev.callCount())
	}
	if c.Phase() != session.PhaseCompleted {
		t.Errorf("expected completed, got %s", c.Phase())
	}
}

func TestController_NavigationAndFiltering(t *testing.T) {
	ev := &fakeEvaluator{}
	c, err := session.NewController(twoSubjectConfig(), ev, 300, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Navigate(1); err != nil {
		t.Fatal(err)
	}
	if c.Cursor() != 1 {
		t.Errorf("expected cursor 1, got %d", c.Cursor())
	}

	// Switching the filter resets the cursor to the view's first question.
	if err := c.SetSubjectFilter("Chemistry"); err != nil {
		t.Fatal(err)
	}
	if c.Cursor() != 0 {
		t.Errorf("expected cursor reset, got %d", c.Cursor())
	}
	if err := c.Navigate(1); !errors.Is(err, session.ErrIndexOutOfRange) {
		t.Errorf("expected out-of-range in 1-question view, got %v", err)
	}

	// Empty view is valid; navigation within it is disabled.
	if err := c.SetSubjectFilter("Mathematics"); err != nil {
		t.Fatal(err)
	}
	if err := c.Navigate(0); !errors.Is(err, session.ErrIndexOutOfRange) {
		t.Errorf("expected navigation disabled in empty view, got %v", err)
	}
}

func TestController_EventsReachSink(t *testing.T) {
	var mu sync.Mutex
	var types []session.EventType
	sink := func(ev session.Event) {
		mu.Lock()
		types = append(types, ev.Type)
		mu.Unlock()
	}

	ev := &fakeEvaluator{result: &model.EvaluationResult{
		Score:   0,
		Total:   2,
		Details: []model.AnswerDetail{{IsCorrect: false}, {IsCorrect: false}},
	}}
	c, err := session.NewController(twoSubjectConfig(), ev, 30, sink)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 60; i++ {
		c.Clock().Tick()
	}

	counts := map[session.EventType]int{}
	mu.Lock()
	for _, ty := range types {
		counts[ty]++
	}
	mu.Unlock()

	if counts[session.EventTick] != 60 {
		t.Errorf("expected 60 ticks, got %d", counts[session.EventTick])
	}
	if counts[session.EventThreshold] != 1 {
		t.Errorf("expected one threshold event, got %d", counts[session.EventThreshold])
	}
	if counts[session.EventExpired] != 1 {
		t.Errorf("expected one expired event, got %d", counts[session.EventExpired])
	}
	if counts[session.EventCompleted] != 1 {
		t.Errorf("expected one completed event, got %d", counts[session.EventCompleted])
	}
}
