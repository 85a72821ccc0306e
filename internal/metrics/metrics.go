// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
	RecordAuthEvent(event, outcome string)
	RecordFavoriteOp(op, outcome string)
	RecordGameCache(hit bool)
}

var _ MetricsCollector = (*Collector)(nil)

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
	authEvents   *prometheus.CounterVec
	favoriteOps  *prometheus.CounterVec
	gameCache    *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gamelobby_http_requests_total",
			Help: "ルート・メソッド・ステータスコード別のHTTPリクエスト数",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gamelobby_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gamelobby_auth_events_total",
			Help: "認証イベント（登録・ログイン）の結果別の件数",
		}, []string{"event", "outcome"}),
		favoriteOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gamelobby_favorite_operations_total",
			Help: "お気に入り操作の結果別の件数",
		}, []string{"op", "outcome"}),
		gameCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gamelobby_game_cache_lookups_total",
			Help: "ゲーム一覧キャッシュの参照結果別の件数",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.authEvents,
		c.favoriteOps,
		c.gameCache,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの件数と処理時間を記録する。
// routeにはパスではなくルートパターンを渡す。
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAuthEvent は認証イベントを記録する。
func (c *Collector) RecordAuthEvent(event, outcome string) {
	c.authEvents.WithLabelValues(event, outcome).Inc()
}

// RecordFavoriteOp はお気に入り操作を記録する。
func (c *Collector) RecordFavoriteOp(op, outcome string) {
	c.favoriteOps.WithLabelValues(op, outcome).Inc()
}

// RecordGameCache はゲーム一覧キャッシュのヒット・ミスを記録する。
func (c *Collector) RecordGameCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.gameCache.WithLabelValues(result).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
