package handler

import (
	"github.com/gin-gonic/gin"
)

// notRequiredAuthMiddleware attaches the caller when a valid token is sent and
// lets anonymous requests through otherwise.
func (h *Handler) notRequiredAuthMiddleware(c *gin.Context) {
	accessToken := bearerToken(c)
	if accessToken == "" {
		c.Next()
		return
	}

	userID, err := userIDFromAccessToken(accessToken)
	if err != nil {
		c.Next()
		return
	}

	c.Set(userIDCtxKey, userID)
	c.Set(accessTokenCtxKey, accessToken)

	c.Next()
}
