package model

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID        uuid.UUID `json:"id"`
	AuthorID  *string   `json:"author_id"`
	Content   string    `json:"content"`
	ImageURL  *string   `json:"image_url"`
	Tags      []string  `json:"tags"`
	Summary   *string   `json:"summary"`
	Likes     []string  `json:"likes"`
	SavedBy   []string  `json:"saved_by"`
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAuthoredBy reports whether userID owns the post. Ownerless posts have no author.
func (p *Post) IsAuthoredBy(userID string) bool {
	return p.AuthorID != nil && userID != "" && *p.AuthorID == userID
}

type PostsPage struct {
	Posts []*Post `json:"posts"`
	Total int64   `json:"total"`
}

// ToggleResult is the post after a like/save flip plus the direction of the flip.
type ToggleResult struct {
	Post  *Post
	Added bool
}
