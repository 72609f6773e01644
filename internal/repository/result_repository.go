package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jeeace/backend/internal/model"
)

// ResultRepository handles persisted test result data access.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Insert stores a completed test result. The (user_id, test_id) pair is
// unique — re-persisting the same test overwrites the earlier row, which
// keeps the queue consumer idempotent under redelivery.
func (r *ResultRepository) Insert(ctx context.Context, res *model.TestResult) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO test_results
		   (user_id, test_id, test_type, score, total, percentage, subject_stats, time_taken_seconds)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id, test_id) DO UPDATE
		 SET score = EXCLUDED.score,
		     total = EXCLUDED.total,
		     percentage = EXCLUDED.percentage,
		     subject_stats = EXCLUDED.subject_stats,
		     time_taken_seconds = EXCLUDED.time_taken_seconds,
		     taken_at = NOW()`,
		res.UserID, res.TestID, res.TestType, res.Score, res.Total,
		res.Percentage, res.SubjectStats, res.TimeTakenSeconds,
	)
	return err
}

// ListByUser retrieves a user's test history, newest first, with pagination.
func (r *ResultRepository) ListByUser(ctx context.Context, userID, page, perPage int) ([]model.TestResult, int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM test_results WHERE user_id = $1`, userID,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, test_id, test_type, score, total, percentage,
		        subject_stats, time_taken_seconds, taken_at
		 FROM test_results
		 WHERE user_id = $1
		 ORDER BY taken_at DESC
		 LIMIT $2 OFFSET $3`, userID, perPage, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []model.TestResult
	for rows.Next() {
		var res model.TestResult
		if err := rows.Scan(
			&res.ID, &res.UserID, &res.TestID, &res.TestType, &res.Score,
			&res.Total, &res.Percentage, &res.SubjectStats,
			&res.TimeTakenSeconds, &res.TakenAt,
		); err != nil {
			return nil, 0, err
		}
		results = append(results, res)
	}
	return results, total, rows.Err()
}
