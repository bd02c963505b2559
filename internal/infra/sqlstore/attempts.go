package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"quiz-service/internal/domain"
)

// RecordAttempt writes the attempt row and all of its responses in a single
// transaction. Any failure rolls back both.
func (s *Store) RecordAttempt(ctx context.Context, attempt domain.Attempt) error {
	row, responses := newAttemptRows(attempt)
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
			return fmt.Errorf("insert attempt: %w", err)
		}
		if s.afterAttemptInsert != nil {
			if err := s.afterAttemptInsert(ctx, tx); err != nil {
				return err
			}
		}
		if len(responses) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&responses).Exec(ctx); err != nil {
			return fmt.Errorf("insert responses: %w", err)
		}
		return nil
	})
}

// ListAttempts returns attempt summaries for a quiz, newest first.
func (s *Store) ListAttempts(ctx context.Context, quizID string) ([]domain.Attempt, error) {
	if err := quizExists(ctx, s.db, quizID); err != nil {
		return nil, err
	}
	var rows []attemptRow
	if err := s.db.NewSelect().
		Model(&rows).
		Where("quiz_id = ?", quizID).
		Order("submitted_at DESC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	attempts := make([]domain.Attempt, 0, len(rows))
	for _, r := range rows {
		attempts = append(attempts, r.toDomain(nil))
	}
	return attempts, nil
}

// GetAttempt loads one attempt with its responses in submission order.
func (s *Store) GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	var row attemptRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", attemptID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Attempt{}, domain.NotFound("attempt", attemptID)
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("load attempt: %w", err)
	}

	responses := []responseRow{}
	if err := s.db.NewSelect().
		Model(&responses).
		Where("attempt_id = ?", attemptID).
		Order("position ASC").
		Scan(ctx); err != nil {
		return domain.Attempt{}, fmt.Errorf("load responses: %w", err)
	}
	return row.toDomain(responses), nil
}
