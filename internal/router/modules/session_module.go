package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/linkcircle/internal/interface/http"
	"github.com/oksasatya/linkcircle/internal/interface/middleware"
	"github.com/oksasatya/linkcircle/pkg/helpers"
)

type SessionModule struct {
	Handler *handlers.SessionHandler
	JWT     *helpers.JWTManager
	Redis   *redis.Client
}

func NewSessionModule(h *handlers.SessionHandler, jwt *helpers.JWTManager, rdb *redis.Client) *SessionModule {
	return &SessionModule{Handler: h, JWT: jwt, Redis: rdb}
}

func (m *SessionModule) Register(rg *gin.RouterGroup) {
	signInLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	refreshLimiter := middleware.RateLimit(m.Redis, 60, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/session", signInLimiter, m.Handler.SignIn)
	rg.POST("/session/refresh", refreshLimiter, m.Handler.Refresh)

	auth := rg.Group("/session")
	auth.Use(middleware.Session(m.JWT, m.Handler.Sessions, true))
	{
		auth.GET("", m.Handler.Current)
		auth.DELETE("", m.Handler.SignOut)
	}
}
