package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/gamelobby/internal/auth"
	"github.com/hitoshi/gamelobby/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     auth.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	HSTS              bool
	TrustProxy        bool

	// 観測
	HTTPRecorder   middleware.HTTPRecorder // nilの場合は記録しない
	MetricsHandler http.Handler            // nilの場合は/metricsを公開しない
	DatabasePinger Pinger
	CachePinger    Pinger // nilの場合は確認しない

	// サービス
	AuthService     AuthServiceInterface
	GameService     GameServiceInterface
	FavoriteService FavoriteServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Logging → Metrics → Recovery → SecurityHeaders → CORS → BodyLimit
//	  /api/v1/auth/register, /login: RateLimit(Auth)
//	  その他の/api/v1: Auth → RateLimit(General)
//
// /health と /metrics は認証・レート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	if deps.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))
	if deps.HTTPRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPRecorder))
	}
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.HSTS))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewBodyLimitMiddleware(middleware.DefaultMaxBodyBytes))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, middleware.ErrorResponseBody{
			Error: middleware.ErrorDetail{Code: "NOT_FOUND", Message: "Route not found"},
		})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, middleware.ErrorResponseBody{
			Error: middleware.ErrorDetail{Code: "METHOD_NOT_ALLOWED", Message: "Method not allowed"},
		})
	})

	authHandler := NewAuthHandler(deps.AuthService)
	gameHandler := NewGameHandler(deps.GameService)
	favHandler := NewFavoriteHandler(deps.FavoriteService)

	// --- 認証不要のルート ---
	r.Method(http.MethodGet, "/health", NewHealthHandler(deps.DatabasePinger, deps.CachePinger))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// 登録・ログイン（IP単位の専用レート制限）
		r.Group(func(r chi.Router) {
			r.Use(deps.RateLimiter.AuthMiddleware())
			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/login", authHandler.Login)
		})

		// --- 認証が必要なルート ---
		// ミドルウェアスタック: Auth → RateLimit(General)
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
			r.Use(deps.RateLimiter.GeneralMiddleware())

			r.Get("/auth/me", authHandler.Me)

			r.Get("/games", gameHandler.ListGames)

			r.Route("/favorites", func(r chi.Router) {
				r.Get("/", favHandler.ListFavorites)

				r.Route("/{gameId}", func(r chi.Router) {
					r.Get("/", favHandler.GetFavoriteStatus)
					r.Post("/", favHandler.AddFavorite)
					r.Delete("/", favHandler.RemoveFavorite)
					r.Post("/toggle", favHandler.ToggleFavorite)
				})
			})
		})
	})

	return r
}
