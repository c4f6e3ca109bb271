package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"clicknail/internal/domain"
	"clicknail/internal/infra"
	"clicknail/internal/sqlinline"
)

// ThumbnailRepo persists generation attempts and their artifacts.
type ThumbnailRepo struct {
	sql infra.SQLExecutor
}

func NewThumbnailRepo(sql infra.SQLExecutor) *ThumbnailRepo {
	return &ThumbnailRepo{sql: sql}
}

// Create inserts the row for a generation attempt in generating state. This
// happens before any external call so in-flight items show up in the gallery
// and failed attempts leave an auditable record.
func (r *ThumbnailRepo) Create(ctx context.Context, t *domain.Thumbnail) (*domain.Thumbnail, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertThumbnail,
		t.UserID, t.Title, t.UserPrompt, t.Style, t.ColorScheme, t.AspectRatio, t.TemplatePack)
	created, err := scanThumbnail(row)
	if err != nil {
		return nil, fmt.Errorf("create thumbnail: %w", err)
	}
	return created, nil
}

// Get returns the thumbnail only when it belongs to userID.
func (r *ThumbnailRepo) Get(ctx context.Context, id, userID string) (*domain.Thumbnail, error) {
	return scanThumbnail(r.sql.QueryRow(ctx, sqlinline.QSelectThumbnail, id, userID))
}

// List returns all thumbnails owned by userID in insertion order.
func (r *ThumbnailRepo) List(ctx context.Context, userID string) ([]domain.Thumbnail, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListThumbnails, userID)
	if err != nil {
		return nil, fmt.Errorf("list thumbnails: %w", err)
	}
	defer rows.Close()

	var items []domain.Thumbnail
	for rows.Next() {
		t, err := scanThumbnail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan thumbnail: %w", err)
		}
		items = append(items, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// SetImage records the uploaded artifact URL and clears the generating flag.
func (r *ThumbnailRepo) SetImage(ctx context.Context, id, userID, imageURL string) (*domain.Thumbnail, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSetThumbnailImage, id, userID, imageURL)
	updated, err := scanThumbnail(row)
	if err != nil {
		return nil, fmt.Errorf("set thumbnail image: %w", err)
	}
	return updated, nil
}

// MarkFailed flips the row to a terminal non-generating state with no image.
func (r *ThumbnailRepo) MarkFailed(ctx context.Context, id string) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QMarkThumbnailFailed, id); err != nil {
		return fmt.Errorf("mark thumbnail failed: %w", err)
	}
	return nil
}

// Delete removes the thumbnail in a single owner-scoped find-and-delete. It
// returns the stored image URL so the caller can optionally remove the remote
// artifact as well.
func (r *ThumbnailRepo) Delete(ctx context.Context, id, userID string) (string, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QDeleteThumbnail, id, userID)
	var deletedID, imageURL string
	if err := row.Scan(&deletedID, &imageURL); err != nil {
		if infra.IsNoRows(err) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("delete thumbnail: %w", err)
	}
	return imageURL, nil
}

func scanThumbnail(row pgx.Row) (*domain.Thumbnail, error) {
	var t domain.Thumbnail
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.UserPrompt, &t.Style, &t.ColorScheme,
		&t.AspectRatio, &t.TemplatePack, &t.IsGenerating, &t.ImageURL, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}
