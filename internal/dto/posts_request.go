package dto

import (
	"mime/multipart"

	"github.com/knownet/post-service/internal/ai"
)

type CreatePostRequest struct {
	Content string                `form:"content" binding:"required"`
	Image   *multipart.FileHeader `form:"image"`
}

// CreatePostDto is what the handler hands to the service once identity and the
// uploaded image have been resolved.
type CreatePostDto struct {
	AuthorID *string
	Content  string
	ImageURL *string
	Image    *ai.Image
}

type GetPostsRequest struct {
	Limit int `form:"limit"`
	Skip  int `form:"skip"`
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}
