package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/knownet/post-service/internal/model"
)

// AddComment appends to the post's comment list; existing comments are never rewritten.
func (r *postRepo) AddComment(ctx context.Context, id uuid.UUID, comment model.Comment) (*model.Post, error) {
	appended, err := json.Marshal([]model.Comment{comment})
	if err != nil {
		return nil, err
	}

	return scanPost(r.db.QueryRow(
		ctx,
		`UPDATE posts p SET comments = p.comments || $2::jsonb, updated_at = now() WHERE p.id = $1 RETURNING `+postColumns,
		id,
		string(appended),
	))
}
