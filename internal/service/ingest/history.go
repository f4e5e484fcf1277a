package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/recipe-stock/internal/domain"
)

// defaultHistoryLimit applies when History is called with limit <= 0.
const defaultHistoryLimit = 20

// History returns the actor's most recent journaled runs, newest first.
// Without a journal it returns an empty list.
func (s *Service) History(ctx context.Context, actorID uuid.UUID, limit int) ([]domain.IngestRun, error) {
	if s.journal == nil {
		return []domain.IngestRun{}, nil
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	runs, err := s.journal.ListByActor(ctx, actorID, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs of %s: %w", actorID, err)
	}
	return runs, nil
}
