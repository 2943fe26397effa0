package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/knownet/post-service/internal/dto"
)

func (h *Handler) postsGet(c *gin.Context) {
	var input dto.GetPostsRequest
	if err := c.ShouldBindQuery(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	page, err := h.services.Post.FindAll(c.Request.Context(), input.Limit, input.Skip)
	if err != nil {
		c.JSON(errorStatus(err), dto.NewBasicResponse(false, err.Error()))
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *Handler) postsCreate(c *gin.Context) {
	userID := h.getUserIDFromRequest(c)

	var input dto.CreatePostRequest
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	createDto := dto.CreatePostDto{
		AuthorID: &userID,
		Content:  input.Content,
	}

	if input.Image != nil {
		uploaded, err := h.services.Post.UploadImage(c.Request.Context(), input.Image)
		if err != nil {
			c.JSON(errorStatus(err), dto.NewBasicResponse(false, err.Error()))
			return
		}
		createDto.ImageURL = &uploaded.URL
		createDto.Image = uploaded.Image
	}

	createdPost, err := h.services.Post.Create(c.Request.Context(), createDto)
	if err != nil {
		c.JSON(errorStatus(err), dto.NewBasicResponse(false, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, createdPost)
}

func (h *Handler) postsGetTags(c *gin.Context) {
	tags, err := h.services.Post.GetUniqueTags(c.Request.Context())
	if err != nil {
		c.JSON(errorStatus(err), dto.NewBasicResponse(false, err.Error()))
		return
	}

	c.JSON(http.StatusOK, tags)
}

func (h *Handler) postsSearch(c *gin.Context) {
	posts, err := h.services.Post.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		c.JSON(errorStatus(err), dto.NewBasicResponse(false, err.Error()))
		return
	}

	c.JSON(http.StatusOK, posts)
}

func (h *Handler) postsGetByUser(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	posts, err := h.services.Post.GetPostsByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(errorStatus(err), dto.NewBasicResponse(false, err.Error()))
		return
	}

	c.JSON(http.StatusOK, posts)
}

func (h *Handler) postsGetTotalLikes(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	total, err := h.services.Post.GetTotalLikesForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(errorStatus(err), dto.NewBasicResponse(false, err.Error()))
		return
	}

	c.JSON(http.StatusOK, dto.TotalLikesResponse{TotalLikes: total})
}

func (h *Handler) postsGetLiked(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	posts, err := h.services.Post.GetLikedPosts(c.Request.Context(), userID)
	if err != nil {
		c.JSON(errorStatus(err), dto.NewBasicResponse(false, err.Error()))
		return
	}

	c.JSON(http.StatusOK, posts)
}

func (h *Handler) postsGetSaved(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	posts, err := h.services.Post.GetSavedPosts(c.Request.Context(), userID)
	if err != nil {
		c.JSON(errorStatus(err), dto.NewBasicResponse(false, err.Error()))
		return
	}

	c.JSON(http.StatusOK, posts)
}

func (h *Handler) postsGetByID(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	post, err := h.services.Post.FindByID(c.Request.Context(), postID)
	if err != nil {
		c.JSON(errorStatus(err), dto.NewBasicResponse(false, err.Error()))
		return
	}

	c.JSON(http.StatusOK, post)
}

func (h *Handler) postsDelete(c *gin.Context) {
	userID := h.getUserIDFromRequest(c)

	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	if err := h.services.Post.Delete(c.Request.Context(), postID, userID); err != nil {
		c.JSON(errorStatus(err), dto.NewBasicResponse(false, err.Error()))
		return
	}

	c.JSON(http.StatusOK, dto.NewBasicResponse(true, ""))
}

func (h *Handler) postsLike(c *gin.Context) {
	userID := h.getUserIDFromRequest(c)

	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	post, err := h.services.Post.ToggleLike(c.Request.Context(), postID, userID)
	if err != nil {
		c.JSON(errorStatus(err), dto.NewBasicResponse(false, err.Error()))
		return
	}

	c.JSON(http.StatusOK, post)
}

func (h *Handler) postsSave(c *gin.Context) {
	userID := h.getUserIDFromRequest(c)

	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	post, err := h.services.Post.ToggleSave(c.Request.Context(), postID, userID)
	if err != nil {
		c.JSON(errorStatus(err), dto.NewBasicResponse(false, err.Error()))
		return
	}

	c.JSON(http.StatusOK, post)
}

func (h *Handler) postsSummarize(c *gin.Context) {
	userID := h.getUserIDFromRequest(c)

	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	post, err := h.services.Post.SummarizePost(c.Request.Context(), postID, userID, h.getAccessTokenFromRequest(c))
	if err != nil {
		c.JSON(errorStatus(err), dto.NewBasicResponse(false, err.Error()))
		return
	}

	c.JSON(http.StatusOK, post)
}

func postIDParam(c *gin.Context) (uuid.UUID, bool) {
	postID, err := uuid.Parse(strings.TrimSpace(c.Param("postID")))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidPostID.Error()))
		return uuid.Nil, false
	}

	return postID, true
}

func userIDParam(c *gin.Context) (string, bool) {
	userID := strings.TrimSpace(c.Param("userID"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidUserID.Error()))
		return "", false
	}

	return userID, true
}
