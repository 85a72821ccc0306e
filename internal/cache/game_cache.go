// Package cache はゲーム一覧のRedisキャッシュを提供する。
// ゲームデータはシード後ほぼ変化しないため、TTLの範囲で古い結果を許容する。
// Redisに接続できない場合はキャッシュミスとして振る舞い、リクエストを失敗させない。
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/gamelobby/internal/model"
)

// keyPrefix はキャッシュキーの接頭辞。値の形式を変えた場合はバージョンを上げる。
const keyPrefix = "gamelobby:games:v1:"

// GameListCache はRedisを使用したゲーム一覧キャッシュ。
type GameListCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGameListCache はGameListCacheを生成する。
func NewGameListCache(addr, password string, db int, ttl time.Duration) *GameListCache {
	return &GameListCache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ttl: ttl,
	}
}

// cachedGame はキャッシュに保存するゲーム1件の形式。
type cachedGame struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Provider  string    `json:"provider"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// cachedPage はキャッシュに保存する1ページ分の形式。
type cachedPage struct {
	Items []cachedGame `json:"items"`
	Total int          `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
	Pages int          `json:"pages"`
}

// Get は正規化済みフィルタに対応するキャッシュを返す。
// キャッシュミスまたはRedis障害の場合はnil, falseを返す。
func (c *GameListCache) Get(ctx context.Context, filter model.GameFilter) (*model.GamePage, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, Key(filter)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("game cache get failed", slog.String("error", err.Error()))
		return nil, false
	}

	var cp cachedPage
	if err := json.Unmarshal(raw, &cp); err != nil {
		slog.Warn("game cache entry is corrupt", slog.String("error", err.Error()))
		return nil, false
	}

	page := &model.GamePage{
		Items: make([]model.Game, 0, len(cp.Items)),
		Pagination: model.Pagination{
			Total: cp.Total,
			Page:  cp.Page,
			Limit: cp.Limit,
			Pages: cp.Pages,
		},
	}
	for _, g := range cp.Items {
		page.Items = append(page.Items, model.Game{
			ID:        g.ID,
			Name:      g.Name,
			Provider:  g.Provider,
			Category:  g.Category,
			CreatedAt: g.CreatedAt,
		})
	}
	return page, true
}

// Set はページをTTL付きで保存する。Redis障害は無視する。
func (c *GameListCache) Set(ctx context.Context, filter model.GameFilter, page *model.GamePage) {
	if c == nil || c.client == nil || page == nil {
		return
	}

	cp := cachedPage{
		Items: make([]cachedGame, 0, len(page.Items)),
		Total: page.Pagination.Total,
		Page:  page.Pagination.Page,
		Limit: page.Pagination.Limit,
		Pages: page.Pagination.Pages,
	}
	for _, g := range page.Items {
		cp.Items = append(cp.Items, cachedGame{
			ID:        g.ID,
			Name:      g.Name,
			Provider:  g.Provider,
			Category:  g.Category,
			CreatedAt: g.CreatedAt,
		})
	}

	raw, err := json.Marshal(cp)
	if err != nil {
		slog.Warn("game cache encode failed", slog.String("error", err.Error()))
		return
	}
	if err := c.client.Set(ctx, Key(filter), raw, c.ttl).Err(); err != nil {
		slog.Warn("game cache set failed", slog.String("error", err.Error()))
	}
}

// Ping はRedisへの疎通を確認する。
func (c *GameListCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}

// Close はRedis接続を閉じる。
func (c *GameListCache) Close() error {
	return c.client.Close()
}

// Key は正規化済みフィルタからキャッシュキーを生成する。
// 各値は%qで引用し、区切り文字を含む検索語でもキーが衝突しないようにする。
func Key(filter model.GameFilter) string {
	return fmt.Sprintf("%ss=%q|p=%q|c=%q|page=%d|limit=%d",
		keyPrefix, filter.Search, filter.Provider, filter.Category, filter.Page, filter.Limit)
}
