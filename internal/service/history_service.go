package service

import (
	"context"

	"github.com/jeeace/backend/internal/model"
	"github.com/jeeace/backend/internal/repository"
)

// HistoryService serves a user's persisted test history.
type HistoryService struct {
	resultRepo *repository.ResultRepository
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(resultRepo *repository.ResultRepository) *HistoryService {
	return &HistoryService{resultRepo: resultRepo}
}

// List returns a page of the user's past results, newest first.
func (s *HistoryService) List(ctx context.Context, userID, page, perPage int) ([]model.TestResult, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return s.resultRepo.ListByUser(ctx, userID, page, perPage)
}
