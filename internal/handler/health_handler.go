package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger は接続確認が可能な依存先を表す。
// *sql.DB が満たす。キャッシュはPingerFuncでラップして渡す。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingerFunc は関数をPingerとして扱うためのアダプタ。
type PingerFunc func(ctx context.Context) error

// PingContext はf(ctx)を呼ぶ。
func (f PingerFunc) PingContext(ctx context.Context) error {
	return f(ctx)
}

const healthCheckTimeout = 2 * time.Second

// healthResponse はヘルスチェックのレスポンス。
type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthHandler は依存先の疎通確認を行うハンドラー。
// databaseは必須、cacheは任意（nilの場合は確認しない）。
// キャッシュのみの障害はdegradedとして200を返す。
type HealthHandler struct {
	database Pinger
	cache    Pinger
}

// NewHealthHandler はHealthHandlerを生成する。
func NewHealthHandler(database, cache Pinger) *HealthHandler {
	return &HealthHandler{database: database, cache: cache}
}

// ServeHTTP はヘルスチェックを実行する。
// GET /health
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := healthResponse{Status: "ok", Checks: map[string]string{}}
	statusCode := http.StatusOK

	if err := h.database.PingContext(ctx); err != nil {
		slog.Error("health check: database unreachable", slog.String("error", err.Error()))
		resp.Status = "unavailable"
		resp.Checks["database"] = "down"
		statusCode = http.StatusServiceUnavailable
	} else {
		resp.Checks["database"] = "up"
	}

	if h.cache != nil {
		if err := h.cache.PingContext(ctx); err != nil {
			slog.Warn("health check: cache unreachable", slog.String("error", err.Error()))
			resp.Checks["cache"] = "down"
			if statusCode == http.StatusOK {
				resp.Status = "degraded"
			}
		} else {
			resp.Checks["cache"] = "up"
		}
	}

	writeJSON(w, statusCode, resp)
}
