package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/knownet/post-service/internal/dto"
)

func (h *Handler) usersGetStats(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	stats, err := h.services.User.GetStats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(errorStatus(err), dto.NewBasicResponse(false, err.Error()))
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) usersUpdateProfile(c *gin.Context) {
	requesterID := h.getUserIDFromRequest(c)

	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	var input dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	profile, err := h.services.User.UpdateProfile(c.Request.Context(), requesterID, userID, input.ToModel())
	if err != nil {
		c.JSON(errorStatus(err), dto.NewBasicResponse(false, err.Error()))
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *Handler) usersUploadProfileImage(c *gin.Context) {
	requesterID := h.getUserIDFromRequest(c)

	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	var input dto.UploadProfileImageRequest
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	profile, err := h.services.User.UploadProfileImage(c.Request.Context(), requesterID, userID, input.Image)
	if err != nil {
		c.JSON(errorStatus(err), dto.NewBasicResponse(false, err.Error()))
		return
	}

	c.JSON(http.StatusOK, profile)
}
