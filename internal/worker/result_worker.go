package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jeeace/backend/internal/config"
	"github.com/jeeace/backend/internal/model"
	"github.com/jeeace/backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ResultWorker consumes persist_results_queue and stores completed test
// results in PostgreSQL. Grading is synchronous; only persistence rides the
// queue, so a database outage never blocks a running session.
type ResultWorker struct {
	resultRepo *repository.ResultRepository
	rdb        *redis.Client
	log        zerolog.Logger
}

// NewResultWorker creates a new ResultWorker.
func NewResultWorker(resultRepo *repository.ResultRepository, rdb *redis.Client, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		resultRepo: resultRepo,
		rdb:        rdb,
		log:        log.With().Str("component", "result_worker").Logger(),
	}
}

type resultPayload struct {
	UserID           int             `json:"user_id"`
	TestID           string          `json:"test_id"`
	TestType         string          `json:"test_type"`
	Score            int             `json:"score"`
	Total            int             `json:"total"`
	Percentage       float64         `json:"percentage"`
	SubjectStats     json.RawMessage `json:"subject_stats"`
	TimeTakenSeconds int             `json:"time_taken_seconds"`
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *ResultWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistResultsQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var payload resultPayload
	if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	if err := w.persistResult(ctx, &payload); err != nil {
		w.log.Error().Err(err).
			Int("user_id", payload.UserID).
			Str("test_id", payload.TestID).
			Msg("Persist error, retrying in 5s")
		// Push back to queue for retry. The UPSERT keeps redelivery safe.
		w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *ResultWorker) persistResult(ctx context.Context, p *resultPayload) error {
	return w.resultRepo.Insert(ctx, &model.TestResult{
		UserID:           p.UserID,
		TestID:           p.TestID,
		TestType:         model.TestType(p.TestType),
		Score:            p.Score,
		Total:            p.Total,
		Percentage:       p.Percentage,
		SubjectStats:     p.SubjectStats,
		TimeTakenSeconds: p.TimeTakenSeconds,
	})
}

// drain processes all remaining items in the queue before shutdown.
func (w *ResultWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.PersistResultsQueue).Result()
		if err != nil {
			break
		}

		var payload resultPayload
		if err := json.Unmarshal([]byte(result), &payload); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.persistResult(ctx, &payload); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
