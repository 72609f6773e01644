package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jeeace/backend/internal/config"
	"github.com/jeeace/backend/internal/model"
	"github.com/jeeace/backend/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Session access errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotSessionOwner = errors.New("session does not belong to this user")
)

// How long a completed session's state stays queryable before the reaper
// evicts it.
const completedRetention = 30 * time.Minute

// SessionView is the API-facing snapshot of a live session.
type SessionView struct {
	ID               uuid.UUID               `json:"id"`
	TestID           string                  `json:"test_id"`
	TestType         model.TestType          `json:"test_type"`
	Phase            session.Phase           `json:"phase"`
	RemainingSeconds int                     `json:"remaining_seconds"`
	Cursor           int                     `json:"cursor"`
	SubjectFilter    string                  `json:"subject_filter"`
	AnsweredCount    int                     `json:"answered_count"`
	TotalQuestions   int                     `json:"total_questions"`
	Answers          map[int]string          `json:"answers"`
	Configuration    model.TestConfiguration `json:"configuration"`
	LastError        string                  `json:"last_error,omitempty"`
	StartedAt        time.Time               `json:"started_at"`
}

type activeSession struct {
	id        uuid.UUID
	userID    int
	ctrl      *session.Controller
	startedAt time.Time

	subMu       sync.Mutex
	subs        map[chan session.Event]struct{}
	completedAt time.Time
}

// SessionService hosts live test sessions. Each session is an in-memory
// controller; the answer ledger is mirrored to Redis so a crashed server can
// be audited, and completed results are handed to the persistence queue.
type SessionService struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*activeSession
	byUser   map[int]uuid.UUID

	cfg       *config.Config
	evaluator session.Evaluator
	rdb       *redis.Client
	log       zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(cfg *config.Config, ev session.Evaluator, rdb *redis.Client, log zerolog.Logger) *SessionService {
	return &SessionService{
		sessions:  make(map[uuid.UUID]*activeSession),
		byUser:    make(map[int]uuid.UUID),
		cfg:       cfg,
		evaluator: ev,
		rdb:       rdb,
		log:       log.With().Str("component", "session-service").Logger(),
	}
}

// Start creates a session from a test configuration and starts its countdown.
// A user has at most one live session; starting a new one closes the old one.
func (s *SessionService) Start(ctx context.Context, userID int, testCfg model.TestConfiguration) (*SessionView, error) {
	if testCfg.TestID == "" {
		testCfg.TestID = uuid.New().String()
	}

	sess := &activeSession{
		id:        uuid.New(),
		userID:    userID,
		startedAt: time.Now(),
		subs:      make(map[chan session.Event]struct{}),
	}

	ctrl, err := session.NewController(testCfg, s.evaluator, s.cfg.WarningThresholdSeconds, func(ev session.Event) {
		s.onEvent(sess, ev)
	})
	if err != nil {
		return nil, err
	}
	sess.ctrl = ctrl

	s.mu.Lock()
	if oldID, ok := s.byUser[userID]; ok {
		if old, ok := s.sessions[oldID]; ok {
			old.ctrl.Close()
			delete(s.sessions, oldID)
			s.log.Info().
				Str("session_id", oldID.String()).
				Int("user_id", userID).
				Msg("Evicted previous session on new start")
		}
	}
	s.sessions[sess.id] = sess
	s.byUser[userID] = sess.id
	s.mu.Unlock()

	sid := sess.id.String()
	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.UserActiveSessionKey(userID), sid, s.sessionTTL(testCfg))
	pipe.Set(ctx, config.CacheKey.SessionStartKey(sid), sess.startedAt.Unix(), s.sessionTTL(testCfg))
	pipe.Set(ctx, config.CacheKey.SessionPhaseKey(sid), string(session.PhaseInProgress), s.sessionTTL(testCfg))
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Str("session_id", sid).Msg("Failed to mirror session start to cache")
	}

	ctrl.Start()
	s.log.Info().
		Str("session_id", sid).
		Int("user_id", userID).
		Str("test_id", testCfg.TestID).
		Int("total_questions", testCfg.TotalQuestions).
		Int("time_limit_minutes", testCfg.TimeLimitMinutes).
		Msg("Session started")

	return s.view(sess), nil
}

// Get returns a snapshot of the session for its owner.
func (s *SessionService) Get(sessionID uuid.UUID, userID int) (*SessionView, error) {
	sess, err := s.owned(sessionID, userID)
	if err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

// Answer records an answer for a global question index and mirrors it to the
// cache. The mirror is best-effort; the controller's ledger is authoritative.
func (s *SessionService) Answer(ctx context.Context, sessionID uuid.UUID, userID, globalIndex int, label string) (*SessionView, error) {
	sess, err := s.owned(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if err := sess.ctrl.Answer(globalIndex, label); err != nil {
		return nil, err
	}

	key := config.CacheKey.SessionAnswersKey(sessionID.String())
	if err := s.rdb.HSet(ctx, key, strconv.Itoa(globalIndex), label).Err(); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Failed to mirror answer to cache")
	}
	return s.view(sess), nil
}

// Navigate switches the subject filter and moves the cursor within the
// filtered view. Passing the current filter only moves the cursor.
func (s *SessionService) Navigate(sessionID uuid.UUID, userID int, subject string, index int) (*SessionView, error) {
	sess, err := s.owned(sessionID, userID)
	if err != nil {
		return nil, err
	}

	if subject != sess.ctrl.SubjectFilter() {
		if err := sess.ctrl.SetSubjectFilter(subject); err != nil {
			return nil, err
		}
	}
	if index != sess.ctrl.Cursor() {
		if err := sess.ctrl.Navigate(index); err != nil {
			return nil, err
		}
	}
	return s.view(sess), nil
}

// Submit triggers grading for the session. On success the final report is
// returned; on evaluator failure the session stays retryable.
func (s *SessionService) Submit(ctx context.Context, sessionID uuid.UUID, userID int) (*model.TestReport, error) {
	sess, err := s.owned(sessionID, userID)
	if err != nil {
		return nil, err
	}
	return sess.ctrl.Submit(ctx)
}

// Report returns the final report of a completed session.
func (s *SessionService) Report(sessionID uuid.UUID, userID int) (*model.TestReport, error) {
	sess, err := s.owned(sessionID, userID)
	if err != nil {
		return nil, err
	}
	rep, ok := sess.ctrl.Report()
	if !ok {
		return nil, session.ErrSessionClosed
	}
	return rep, nil
}

// Subscribe registers a live event stream for a session. The returned cancel
// function must be called when the consumer goes away.
func (s *SessionService) Subscribe(sessionID uuid.UUID, userID int) (<-chan session.Event, func(), error) {
	sess, err := s.owned(sessionID, userID)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan session.Event, 64)
	sess.subMu.Lock()
	sess.subs[ch] = struct{}{}
	sess.subMu.Unlock()

	cancel := func() {
		sess.subMu.Lock()
		if _, ok := sess.subs[ch]; ok {
			delete(sess.subs, ch)
			close(ch)
		}
		sess.subMu.Unlock()
	}
	return ch, cancel, nil
}

// StartReaper launches the background loop that evicts completed sessions
// after their retention window. Returns a stop function.
func (s *SessionService) StartReaper(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.reap()
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(done)
	}
}

// Shutdown closes every live session's countdown.
func (s *SessionService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		sess.ctrl.Close()
	}
}

func (s *SessionService) reap() {
	cutoff := time.Now().Add(-completedRetention)

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		sess.subMu.Lock()
		done := !sess.completedAt.IsZero() && sess.completedAt.Before(cutoff)
		sess.subMu.Unlock()
		if !done {
			continue
		}
		sess.ctrl.Close()
		delete(s.sessions, id)
		if s.byUser[sess.userID] == id {
			delete(s.byUser, sess.userID)
		}
		s.log.Info().Str("session_id", id.String()).Msg("Reaped completed session")
	}
}

func (s *SessionService) owned(sessionID uuid.UUID, userID int) (*activeSession, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.userID != userID {
		return nil, ErrNotSessionOwner
	}
	return sess, nil
}

func (s *SessionService) view(sess *activeSession) *SessionView {
	ctrl := sess.ctrl
	v := &SessionView{
		ID:               sess.id,
		TestID:           ctrl.Config().TestID,
		TestType:         ctrl.Config().TestType,
		Phase:            ctrl.Phase(),
		RemainingSeconds: ctrl.Remaining(),
		Cursor:           ctrl.Cursor(),
		SubjectFilter:    ctrl.SubjectFilter(),
		AnsweredCount:    ctrl.AnsweredCount(),
		TotalQuestions:   ctrl.Config().TotalQuestions,
		Answers:          ctrl.Answers(),
		Configuration:    ctrl.Config(),
		StartedAt:        sess.startedAt,
	}
	if err := ctrl.LastError(); err != nil {
		v.LastError = err.Error()
	}
	return v
}

// onEvent fans a session event out to live subscribers and performs the
// completion side effects: queueing the result for persistence and cleaning
// the cache mirror.
func (s *SessionService) onEvent(sess *activeSession, ev session.Event) {
	sess.subMu.Lock()
	for ch := range sess.subs {
		select {
		case ch <- ev:
		default:
			// Slow consumer; it resyncs from the session snapshot.
		}
	}
	if ev.Type == session.EventCompleted {
		sess.completedAt = time.Now()
	}
	sess.subMu.Unlock()

	sid := sess.id.String()
	switch ev.Type {
	case session.EventSubmitting:
		s.setPhase(sid, session.PhaseSubmitting)
	case session.EventSubmitFailed:
		s.log.Warn().Err(ev.Err).Str("session_id", sid).Msg("Submission failed, session stays retryable")
	case session.EventCompleted:
		s.setPhase(sid, session.PhaseCompleted)
		s.queueResult(sess, ev.Report)
		ctx := context.Background()
		if err := s.rdb.Del(ctx, config.CacheKey.SessionAnswersKey(sid)).Err(); err != nil {
			s.log.Warn().Err(err).Str("session_id", sid).Msg("Failed to clear answer mirror")
		}
		if err := s.rdb.Del(ctx, config.CacheKey.UserActiveSessionKey(sess.userID)).Err(); err != nil {
			s.log.Warn().Err(err).Str("session_id", sid).Msg("Failed to clear active session key")
		}
		s.log.Info().
			Str("session_id", sid).
			Int("user_id", sess.userID).
			Int("score", ev.Report.Score).
			Int("total", ev.Report.Total).
			Msg("Session completed")
	}
}

func (s *SessionService) setPhase(sessionID string, phase session.Phase) {
	key := config.CacheKey.SessionPhaseKey(sessionID)
	if err := s.rdb.Set(context.Background(), key, string(phase), completedRetention).Err(); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to mirror session phase")
	}
}

// queueResult pushes the completed result onto the persistence queue for the
// result worker to store.
func (s *SessionService) queueResult(sess *activeSession, rep *model.TestReport) {
	stats, err := json.Marshal(rep.SubjectStats)
	if err != nil {
		s.log.Error().Err(err).Str("session_id", sess.id.String()).Msg("Failed to marshal subject stats")
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"user_id":            sess.userID,
		"test_id":            sess.ctrl.Config().TestID,
		"test_type":          sess.ctrl.Config().TestType,
		"score":              rep.Score,
		"total":              rep.Total,
		"percentage":         rep.OverallPercentage,
		"subject_stats":      json.RawMessage(stats),
		"time_taken_seconds": rep.TimeTakenSeconds,
	})
	if err != nil {
		s.log.Error().Err(err).Str("session_id", sess.id.String()).Msg("Failed to marshal result payload")
		return
	}

	if err := s.rdb.RPush(context.Background(), config.WorkerKey.PersistResultsQueue, payload).Err(); err != nil {
		s.log.Error().Err(err).Str("session_id", sess.id.String()).Msg("Failed to enqueue result for persistence")
	}
}

func (s *SessionService) sessionTTL(cfg model.TestConfiguration) time.Duration {
	return time.Duration(cfg.TimeLimitMinutes)*time.Minute + completedRetention
}
