package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/knownet/post-service/internal/model"
	"github.com/knownet/post-service/internal/repository"
	"go.uber.org/zap"
)

const postColumns = `p.id, p.author_id, p.content, p.image_url, p.tags, p.summary, p.likes, p.saved_by, p.comments, p.created_at, p.updated_at`

type postRepo struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func newPostRepo(db *pgxpool.Pool, logger *zap.Logger) repository.Post {
	return &postRepo{
		db:     db,
		logger: logger,
	}
}

func scanPost(row pgx.Row, extra ...any) (*model.Post, error) {
	var post model.Post
	dest := []any{
		&post.ID,
		&post.AuthorID,
		&post.Content,
		&post.ImageURL,
		&post.Tags,
		&post.Summary,
		&post.Likes,
		&post.SavedBy,
		&post.Comments,
		&post.CreatedAt,
		&post.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &post, nil
}

func collectPosts(rows pgx.Rows) ([]*model.Post, error) {
	defer rows.Close()

	posts := []*model.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

func (r *postRepo) Create(ctx context.Context, post model.Post) (*model.Post, error) {
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now
	post.Tags = []string{}
	post.Likes = []string{}
	post.SavedBy = []string{}
	post.Comments = []model.Comment{}
	post.Summary = nil

	if _, err := r.db.Exec(
		ctx,
		`INSERT INTO posts(id, author_id, content, image_url, created_at, updated_at) VALUES($1, $2, $3, $4, $5, $6)`,
		post.ID,
		post.AuthorID,
		post.Content,
		post.ImageURL,
		post.CreatedAt,
		post.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &post, nil
}

func (r *postRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	return scanPost(r.db.QueryRow(ctx, `SELECT `+postColumns+` FROM posts p WHERE p.id = $1`, id))
}

// FindAll reads the page and the total inside one repeatable-read snapshot so
// both describe the same state of the collection.
func (r *postRepo) FindAll(ctx context.Context, limit int, skip int) (*model.PostsPage, error) {
	repository.ClampLimit(&limit, &skip)

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			r.logger.Sugar().Errorf("failed to rollback posts page tx: %s", err.Error())
		}
	}()

	var page model.PostsPage
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM posts`).Scan(&page.Total); err != nil {
		return nil, err
	}

	rows, err := tx.Query(
		ctx,
		`SELECT `+postColumns+` FROM posts p ORDER BY p.created_at DESC, p.id DESC LIMIT $1 OFFSET $2`,
		limit,
		skip,
	)
	if err != nil {
		return nil, err
	}

	page.Posts, err = collectPosts(rows)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &page, nil
}

func (r *postRepo) FindByAuthor(ctx context.Context, authorID string) ([]*model.Post, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT `+postColumns+` FROM posts p WHERE p.author_id = $1 ORDER BY p.created_at DESC`,
		authorID,
	)
	if err != nil {
		return nil, err
	}

	return collectPosts(rows)
}

func (r *postRepo) FindLikedBy(ctx context.Context, userID string) ([]*model.Post, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT `+postColumns+` FROM posts p WHERE p.likes @> ARRAY[$1::text] ORDER BY p.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}

	return collectPosts(rows)
}

func (r *postRepo) FindSavedBy(ctx context.Context, userID string) ([]*model.Post, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT `+postColumns+` FROM posts p WHERE p.saved_by @> ARRAY[$1::text] ORDER BY p.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}

	return collectPosts(rows)
}

func (r *postRepo) ToggleLike(ctx context.Context, id uuid.UUID, userID string) (*model.ToggleResult, error) {
	return r.toggle(ctx, "likes", id, userID)
}

func (r *postRepo) ToggleSave(ctx context.Context, id uuid.UUID, userID string) (*model.ToggleResult, error) {
	return r.toggle(ctx, "saved_by", id, userID)
}

// toggle flips membership in a single conditional UPDATE. The row lock taken by
// the update serializes concurrent toggles, so a user can never appear twice.
// column is always one of the two constants above.
func (r *postRepo) toggle(ctx context.Context, column string, id uuid.UUID, userID string) (*model.ToggleResult, error) {
	query := fmt.Sprintf(
		`UPDATE posts p SET
			%[1]s = CASE WHEN $2::text = ANY(p.%[1]s) THEN array_remove(p.%[1]s, $2::text) ELSE array_append(p.%[1]s, $2::text) END,
			updated_at = now()
		WHERE p.id = $1
		RETURNING `+postColumns+`, $2::text = ANY(p.%[1]s)`,
		column,
	)

	var res model.ToggleResult
	post, err := scanPost(r.db.QueryRow(ctx, query, id, userID), &res.Added)
	if err != nil {
		return nil, err
	}
	res.Post = post

	return &res, nil
}

func (r *postRepo) SetEnrichment(ctx context.Context, id uuid.UUID, tags []string, summary *string) (*model.Post, error) {
	return scanPost(r.db.QueryRow(
		ctx,
		`UPDATE posts p SET tags = $2, summary = $3, updated_at = now() WHERE p.id = $1 RETURNING `+postColumns,
		id,
		tags,
		summary,
	))
}

func (r *postRepo) SetSummary(ctx context.Context, id uuid.UUID, summary string) (*model.Post, error) {
	return scanPost(r.db.QueryRow(
		ctx,
		`UPDATE posts p SET summary = $2, updated_at = now() WHERE p.id = $1 RETURNING `+postColumns,
		id,
		summary,
	))
}

func (r *postRepo) Delete(ctx context.Context, id uuid.UUID, authorID string) (int64, error) {
	var likes int64
	if err := r.db.QueryRow(
		ctx,
		`DELETE FROM posts WHERE id = $1 AND author_id = $2 RETURNING cardinality(likes)`,
		id,
		authorID,
	).Scan(&likes); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, err
	}

	return likes, nil
}

func (r *postRepo) UniqueTags(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT unnest(tags) AS tag FROM posts ORDER BY tag`)
	if err != nil {
		return nil, err
	}

	tags, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}

	return tags, nil
}

func (r *postRepo) TotalLikesForAuthor(ctx context.Context, authorID string) (int64, error) {
	var total int64
	if err := r.db.QueryRow(
		ctx,
		`SELECT COALESCE(SUM(cardinality(likes)), 0)::bigint FROM posts WHERE author_id = $1`,
		authorID,
	).Scan(&total); err != nil {
		return 0, err
	}

	return total, nil
}

func (r *postRepo) CountByAuthor(ctx context.Context, authorID string) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM posts WHERE author_id = $1`, authorID).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

func (r *postRepo) Search(ctx context.Context, query string, limit int) ([]*model.Post, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT `+postColumns+`
		FROM posts p, websearch_to_tsquery('english', $1) q
		WHERE p.search_doc @@ q
		ORDER BY ts_rank(p.search_doc, q) DESC, p.created_at DESC
		LIMIT $2`,
		query,
		limit,
	)
	if err != nil {
		return nil, err
	}

	return collectPosts(rows)
}
