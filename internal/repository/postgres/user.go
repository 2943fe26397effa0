package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/knownet/post-service/internal/model"
	"github.com/knownet/post-service/internal/repository"
)

const (
	profileColumns = `id, COALESCE(email, ''), COALESCE(name, ''), bio, major, graduation_year, profile_image_url, joined_date`

	uniqueViolationCode = "23505"
)

type userRepo struct {
	db *pgxpool.Pool
}

func newUserRepo(db *pgxpool.Pool) repository.User {
	return &userRepo{
		db: db,
	}
}

// IncrCounters creates the user row on first use, so counters for users this
// service has not seen before still land.
func (r *userRepo) IncrCounters(ctx context.Context, userID string, delta model.CounterDelta) error {
	if delta.IsZero() {
		return nil
	}

	_, err := r.db.Exec(
		ctx,
		`INSERT INTO users(id, posts_count, likes_received, ai_summaries_count) VALUES($1, $2, $3, $4)
		ON CONFLICT(id) DO UPDATE SET
			posts_count = users.posts_count + excluded.posts_count,
			likes_received = users.likes_received + excluded.likes_received,
			ai_summaries_count = users.ai_summaries_count + excluded.ai_summaries_count,
			updated_at = now()`,
		userID,
		delta.Posts,
		delta.LikesReceived,
		delta.AISummaries,
	)
	return err
}

func (r *userRepo) SetCounters(ctx context.Context, userID string, postsCount int64, likesReceived int64) error {
	_, err := r.db.Exec(
		ctx,
		`INSERT INTO users(id, posts_count, likes_received) VALUES($1, $2, $3)
		ON CONFLICT(id) DO UPDATE SET
			posts_count = excluded.posts_count,
			likes_received = excluded.likes_received,
			updated_at = now()`,
		userID,
		postsCount,
		likesReceived,
	)
	return err
}

func (r *userRepo) FindByID(ctx context.Context, userID string) (*model.UserCounters, error) {
	var user model.UserCounters
	if err := r.db.QueryRow(
		ctx,
		"SELECT u.id, u.posts_count, u.likes_received, u.ai_summaries_count, u.updated_at FROM users u WHERE u.id = $1",
		userID,
	).Scan(
		&user.ID,
		&user.PostsCount,
		&user.LikesReceived,
		&user.AISummariesCount,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &user, nil
}

func (r *userRepo) FindAllIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM users UNION SELECT DISTINCT author_id FROM posts WHERE author_id IS NOT NULL`)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func scanProfile(row pgx.Row) (*model.UserProfile, error) {
	var profile model.UserProfile
	if err := row.Scan(
		&profile.ID,
		&profile.Email,
		&profile.Name,
		&profile.Bio,
		&profile.Major,
		&profile.GraduationYear,
		&profile.ProfileImageURL,
		&profile.JoinedDate,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, repository.ErrConflict
		}
		return nil, err
	}

	return &profile, nil
}

func (r *userRepo) EnsureProfile(ctx context.Context, userID string, name string, email string) (*model.UserProfile, error) {
	return scanProfile(r.db.QueryRow(
		ctx,
		`INSERT INTO users(id, name, email) VALUES($1, $2, $3)
		ON CONFLICT(id) DO UPDATE SET
			name = COALESCE(users.name, excluded.name),
			email = COALESCE(users.email, excluded.email)
		RETURNING `+profileColumns,
		userID,
		name,
		email,
	))
}

func (r *userRepo) FindProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	return scanProfile(r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM users WHERE id = $1`, userID))
}

func (r *userRepo) UpdateProfile(ctx context.Context, userID string, update model.ProfileUpdate) (*model.UserProfile, error) {
	return scanProfile(r.db.QueryRow(
		ctx,
		`INSERT INTO users(id, name, email, bio, major, graduation_year, profile_image_url) VALUES($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT(id) DO UPDATE SET
			name = COALESCE(excluded.name, users.name),
			email = COALESCE(excluded.email, users.email),
			bio = COALESCE(excluded.bio, users.bio),
			major = COALESCE(excluded.major, users.major),
			graduation_year = COALESCE(excluded.graduation_year, users.graduation_year),
			profile_image_url = COALESCE(excluded.profile_image_url, users.profile_image_url),
			updated_at = now()
		RETURNING `+profileColumns,
		userID,
		update.Name,
		update.Email,
		update.Bio,
		update.Major,
		update.GraduationYear,
		update.ProfileImageURL,
	))
}
