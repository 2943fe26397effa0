package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/knownet/post-service/internal/dto"
)

func (h *Handler) commentsCreate(c *gin.Context) {
	userID := h.getUserIDFromRequest(c)

	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	var input dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	post, err := h.services.Post.AddComment(c.Request.Context(), postID, userID, input.Content)
	if err != nil {
		c.JSON(errorStatus(err), dto.NewBasicResponse(false, err.Error()))
		return
	}

	c.JSON(http.StatusOK, post)
}
