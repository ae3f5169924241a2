package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/linkcircle/internal/interface/http"
	"github.com/oksasatya/linkcircle/internal/interface/middleware"
)

// UserModule wires profile routes under /users.
// Public: list, search, lookup by email or username, create.
// Owner-only when enforced: profile edits, links, profile image.
type UserModule struct {
	Handler *handlers.UserHandler
	Redis   *redis.Client
	Enforce bool
}

func NewUserModule(h *handlers.UserHandler, rdb *redis.Client, enforce bool) *UserModule {
	return &UserModule{Handler: h, Redis: rdb, Enforce: enforce}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	searchLimiter := middleware.RateLimit(m.Redis, 60, time.Minute, middleware.KeyByIP(), nil)
	createLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByIP(), nil)
	uploadLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByUserID(), nil)

	users := rg.Group("/users")
	users.GET("", m.Handler.List)
	users.GET("/search", searchLimiter, m.Handler.Search)
	users.GET("/email/:email", m.Handler.GetByEmail)
	users.GET("/:id", m.Handler.GetByUsername)
	users.POST("", createLimiter, m.Handler.Create)

	owner := users.Group("/:id")
	owner.Use(middleware.RequireOwner("id", m.Enforce))
	{
		owner.PATCH("", m.Handler.UpdateProfile)
		owner.POST("/links", m.Handler.AddLink)
		owner.DELETE("/links/:linkId", m.Handler.RemoveLink)
		owner.PATCH("/links/save", m.Handler.SaveLinks)
		owner.POST("/profile-image", uploadLimiter, m.Handler.UploadProfileImage)
	}
}
