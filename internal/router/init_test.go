package router

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/linkcircle/config"
	"github.com/oksasatya/linkcircle/internal/container"
	"github.com/oksasatya/linkcircle/internal/infrastructure/memory"
)

func TestInitModulesWithMemoryStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	container.Reset()
	t.Cleanup(container.Reset)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	cfg := &config.Config{
		StoreDriver:         "memory",
		JWTAccessSecret:     "a",
		JWTRefreshSecret:    "r",
		IdentitySecret:      "i",
		AccessTTL:           time.Minute,
		RefreshTTL:          time.Hour,
		UploadsDir:          t.TempDir(),
		DebugMetricsEnabled: true,
	}
	container.SetConfig(cfg)
	container.SetLogger(logger)

	repo, closer, err := OpenStore(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("OpenStore() error: %v", err)
	}
	defer closer()
	if _, ok := repo.(*memory.UserRepository); !ok {
		t.Fatalf("OpenStore() repo = %T, want *memory.UserRepository", repo)
	}

	deps := BuildDeps(repo)
	if deps.Profiles.Images == nil {
		t.Error("disk image store not wired")
	}
	if deps.Profiles.Index != nil {
		t.Error("search index wired without Elasticsearch")
	}

	engine := gin.New()
	reg := NewRegistry(engine)
	InitModules(reg, deps)
	reg.RegisterAll()

	tests := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodPost, "/api/users", `{"email":"alice@example.com","username":"alice"}`, http.StatusCreated},
		{http.MethodGet, "/api/users", "", http.StatusOK},
		{http.MethodGet, "/api/users/alice", "", http.StatusOK},
		{http.MethodGet, "/api/users/search?q=ali", "", http.StatusOK},
		{http.MethodGet, "/api/session", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/debug/vars", "", http.StatusOK},
		{http.MethodGet, "/api/nope", "", http.StatusNotFound},
		{http.MethodPatch, "/api/session", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		var body io.Reader
		if tt.body != "" {
			body = strings.NewReader(tt.body)
		}
		req := httptest.NewRequest(tt.method, tt.path, body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		if w.Code != tt.want {
			t.Errorf("%s %s status = %d, want %d (body %s)", tt.method, tt.path, w.Code, tt.want, w.Body.String())
		}
	}
}

func TestRegistryUnknownRouteEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	reg := NewRegistry(engine)
	reg.RegisterAll()
	reg.RegisterAll()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ROUTE_NOT_FOUND"`) || !strings.Contains(w.Body.String(), "/api/missing") {
		t.Errorf("body = %s, want ROUTE_NOT_FOUND envelope with path", w.Body.String())
	}
}
