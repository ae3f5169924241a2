package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/linkcircle/pkg/response"
)

// Module is a feature that mounts its routes under the /api group.
type Module interface {
	Register(rg *gin.RouterGroup)
}

// Registry collects API middleware and modules, then mounts them in one pass
// so every module sees the same middleware chain.
type Registry struct {
	Engine *gin.Engine
	API    *gin.RouterGroup

	chain   []gin.HandlerFunc
	modules []Module
	mounted bool
}

func NewRegistry(engine *gin.Engine) *Registry {
	return &Registry{Engine: engine, API: engine.Group("/api")}
}

// Use appends middleware for the API group. Calls after RegisterAll are ignored.
func (r *Registry) Use(mw ...gin.HandlerFunc) {
	if r.mounted {
		return
	}
	r.chain = append(r.chain, mw...)
}

func (r *Registry) Add(mods ...Module) {
	r.modules = append(r.modules, mods...)
}

// RegisterAll mounts middleware and modules and installs JSON envelopes for
// unknown routes and methods. It is safe to call more than once.
func (r *Registry) RegisterAll() {
	if r.mounted {
		return
	}
	r.mounted = true
	if len(r.chain) > 0 {
		r.API.Use(r.chain...)
	}
	for _, m := range r.modules {
		m.Register(r.API)
	}

	r.Engine.HandleMethodNotAllowed = true
	r.Engine.NoRoute(func(c *gin.Context) {
		response.Error[any](c, http.StatusNotFound, "route not found", response.ErrorBody{Code: "ROUTE_NOT_FOUND", Details: map[string]string{"path": c.Request.URL.Path}})
	})
	r.Engine.NoMethod(func(c *gin.Context) {
		response.Error[any](c, http.StatusMethodNotAllowed, "method not allowed", response.ErrorBody{Code: "METHOD_NOT_ALLOWED", Details: map[string]string{"method": c.Request.Method}})
	})
}
