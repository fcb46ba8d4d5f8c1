package api

import (
	"net/http"

	"github.com/adaptmath/backend/internal/auth"
	apperrors "github.com/adaptmath/backend/internal/errors"
	"github.com/adaptmath/backend/internal/generator"
	"github.com/adaptmath/backend/internal/health"
	"github.com/adaptmath/backend/internal/knowledge"
	"github.com/adaptmath/backend/internal/metrics"
	"github.com/adaptmath/backend/internal/websocket"
)

type Router struct {
	mux               *http.ServeMux
	authHandlers      *auth.Handlers
	authService       *auth.Service
	knowledgeHandlers *knowledge.Handlers
	generatorHandlers *generator.Handlers
	healthHandler     *health.Handler
	wsHandler         *websocket.Handler
}

type RouterConfig struct {
	AuthHandlers      *auth.Handlers
	AuthService       *auth.Service
	KnowledgeHandlers *knowledge.Handlers
	GeneratorHandlers *generator.Handlers
	HealthHandler     *health.Handler
	WSHandler         *websocket.Handler
}

func NewRouter(cfg *RouterConfig) *Router {
	r := &Router{
		mux:               http.NewServeMux(),
		authHandlers:      cfg.AuthHandlers,
		authService:       cfg.AuthService,
		knowledgeHandlers: cfg.KnowledgeHandlers,
		generatorHandlers: cfg.GeneratorHandlers,
		healthHandler:     cfg.HealthHandler,
		wsHandler:         cfg.WSHandler,
	}
	r.setupRoutes()
	return r
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) setupRoutes() {
	// Operational endpoints
	r.mux.HandleFunc("GET /ping", pingHandler)
	r.mux.HandleFunc("GET /health", r.healthHandler.HealthHandler)
	r.mux.HandleFunc("GET /health/deep", r.healthHandler.ReadinessHandler)
	r.mux.Handle("GET /metrics", metrics.Default().Handler())

	// Auth routes (no auth required)
	r.mux.Handle("POST /api/v1/auth/register", apperrors.HandleFunc(r.authHandlers.Register))
	r.mux.Handle("POST /api/v1/auth/login", apperrors.HandleFunc(r.authHandlers.Login))
	r.mux.Handle("POST /api/v1/auth/refresh", apperrors.HandleFunc(r.authHandlers.Refresh))

	// Progress tracking routes (auth required)
	r.mux.Handle("GET /api/v1/skills",
		r.withAuth(apperrors.HandleFunc(r.knowledgeHandlers.ListCatalog)))
	r.mux.Handle("GET /api/v1/students/{studentID}/skills",
		r.withAuth(apperrors.HandleFunc(r.knowledgeHandlers.ListSkills)))
	r.mux.Handle("PATCH /api/v1/students/{studentID}/skills/{skillID}/performance",
		r.withAuth(apperrors.HandleFunc(r.knowledgeHandlers.UpdatePerformance)))

	// Question generation routes (auth required)
	r.mux.Handle("GET /api/v1/modules",
		r.withAuth(apperrors.HandleFunc(r.generatorHandlers.ListModules)))
	r.mux.Handle("GET /api/v1/questions",
		r.withAuth(apperrors.HandleFunc(r.generatorHandlers.GetQuestion)))

	// Live progress stream; authenticates via ?token=, not the bearer header
	r.mux.HandleFunc("GET /api/v1/ws/progress", r.wsHandler.ServeWS)
}

func (r *Router) withAuth(next http.Handler) http.Handler {
	return auth.Middleware(r.authService)(next)
}

func pingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
