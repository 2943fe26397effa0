package handler

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/knownet/post-service/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
)

const (
	userIDCtxKey      = "user-id"
	accessTokenCtxKey = "access-token"
)

type Handler struct {
	services *service.Service
}

func New(services *service.Service) *Handler {
	return &Handler{
		services: services,
	}
}

func (h *Handler) InitRoutes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{viper.GetString("client.origin")},
		AllowMethods:     []string{"POST", "GET", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		posts := v1.Group("/posts")
		{
			posts.GET("", h.postsGet)
			posts.POST("", h.authMiddleware, h.postsCreate)
			posts.GET("/tags", h.postsGetTags)
			posts.GET("/search", h.postsSearch)
			posts.GET("/user/:userID", h.postsGetByUser)
			posts.GET("/user/:userID/total-likes", h.postsGetTotalLikes)
			posts.GET("/liked/:userID", h.postsGetLiked)
			posts.GET("/saved/:userID", h.postsGetSaved)

			post := posts.Group("/:postID")
			{
				post.GET("", h.postsGetByID)
				post.DELETE("", h.authMiddleware, h.postsDelete)
				post.POST("/like", h.authMiddleware, h.postsLike)
				post.POST("/save", h.authMiddleware, h.postsSave)
				post.POST("/comment", h.authMiddleware, h.commentsCreate)
				post.POST("/summarize", h.notRequiredAuthMiddleware, h.postsSummarize)
			}
		}

		users := v1.Group("/users")
		{
			users.GET("/:userID", h.usersGetStats)
			users.PUT("/:userID", h.authMiddleware, h.usersUpdateProfile)
			users.POST("/:userID/profile-image", h.authMiddleware, h.usersUploadProfileImage)
		}
	}

	return r
}

// getUserIDFromRequest returns the authenticated user id, or "" for anonymous requests.
func (h *Handler) getUserIDFromRequest(c *gin.Context) string {
	return c.GetString(userIDCtxKey)
}

func (h *Handler) getAccessTokenFromRequest(c *gin.Context) string {
	return c.GetString(accessTokenCtxKey)
}
