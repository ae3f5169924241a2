package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/linkcircle/internal/interface/http"
	"github.com/oksasatya/linkcircle/internal/interface/middleware"
)

// CircleModule wires the request protocol and circle management routes.
type CircleModule struct {
	Handler *handlers.CircleHandler
	Redis   *redis.Client
	Enforce bool
}

func NewCircleModule(h *handlers.CircleHandler, rdb *redis.Client, enforce bool) *CircleModule {
	return &CircleModule{Handler: h, Redis: rdb, Enforce: enforce}
}

func (m *CircleModule) Register(rg *gin.RouterGroup) {
	requestLimiter := middleware.RateLimit(m.Redis, 30, time.Minute, middleware.KeyByUserID(), nil)

	protocol := rg.Group("/users/circle")
	{
		protocol.POST("/request", requestLimiter, m.Handler.SendRequest)
		protocol.POST("/accept", m.Handler.AcceptRequest)
		protocol.POST("/decline", m.Handler.DeclineRequest)
	}

	owner := rg.Group("/users/:id")
	owner.Use(middleware.RequireOwner("id", m.Enforce))
	{
		owner.DELETE("/connections/:otherId", m.Handler.Disconnect)

		owner.POST("/circles", m.Handler.CreateCircle)
		owner.PATCH("/circles/:circle", m.Handler.UpdateCircle)
		owner.DELETE("/circles/:circle", m.Handler.DeleteCircle)
		owner.PUT("/circles/:circle/position", m.Handler.MoveCircle)
		owner.POST("/circles/:circle/members", m.Handler.AddMember)
		owner.DELETE("/circles/:circle/members/:memberId", m.Handler.RemoveMember)
	}
}
