package repo

import (
	"context"
	"fmt"

	"clicknail/internal/domain"
	"clicknail/internal/infra"
	"clicknail/internal/sqlinline"
)

// FeedbackRepo persists user feedback. Feedback has no update or delete
// lifecycle, so the repository only grows.
type FeedbackRepo struct {
	sql infra.SQLExecutor
}

func NewFeedbackRepo(sql infra.SQLExecutor) *FeedbackRepo {
	return &FeedbackRepo{sql: sql}
}

func (r *FeedbackRepo) Create(ctx context.Context, userID string, rating int, comment string) (*domain.Feedback, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertFeedback, userID, rating, comment)
	var f domain.Feedback
	if err := row.Scan(&f.ID, &f.UserID, &f.Rating, &f.Comment, &f.CreatedAt); err != nil {
		return nil, fmt.Errorf("create feedback: %w", err)
	}
	return &f, nil
}
