// Package game はゲーム一覧の検索とページングを提供する。
package game

import (
	"context"
	"fmt"

	"github.com/hitoshi/gamelobby/internal/model"
	"github.com/hitoshi/gamelobby/internal/repository"
	"github.com/hitoshi/gamelobby/internal/security"
)

// PageCache はゲーム一覧ページのキャッシュインターフェース。
// 実装はキャッシュ障害をミスとして扱い、エラーを返さない。
type PageCache interface {
	Get(ctx context.Context, filter model.GameFilter) (*model.GamePage, bool)
	Set(ctx context.Context, filter model.GameFilter, page *model.GamePage)
}

// CacheRecorder はキャッシュのヒット・ミスを記録するインターフェース。
type CacheRecorder interface {
	RecordGameCache(hit bool)
}

// Service はゲーム一覧に関するビジネスロジックを提供する。
type Service struct {
	gameRepo  repository.GameRepository
	sanitizer security.InputSanitizer
	cache     PageCache
	recorder  CacheRecorder
}

// NewService はServiceを生成する。cacheがnilの場合はキャッシュしない。
func NewService(gameRepo repository.GameRepository, sanitizer security.InputSanitizer, cache PageCache) *Service {
	return &Service{
		gameRepo:  gameRepo,
		sanitizer: sanitizer,
		cache:     cache,
	}
}

// ListGames は条件に一致するゲームの1ページ分とページング情報を返す。
// pageは1以上、limitは5〜50に丸める。検索語はタグ除去・前後空白除去してから使う。
// 範囲外のページは空の一覧と正しい総件数を返す。
func (s *Service) ListGames(ctx context.Context, filter model.GameFilter) (*model.GamePage, error) {
	// 1. 正規化
	filter = filter.Normalize()
	filter.Search = s.sanitizer.Text(filter.Search)
	filter.Provider = s.sanitizer.Text(filter.Provider)
	filter.Category = s.sanitizer.Text(filter.Category)

	// 2. キャッシュ参照
	if s.cache != nil {
		page, ok := s.cache.Get(ctx, filter)
		s.recordCache(ok)
		if ok {
			return page, nil
		}
	}

	// 3. 件数とページデータを同一スナップショットで取得
	games, total, err := s.gameRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("ゲーム一覧の取得に失敗しました: %w", err)
	}
	if games == nil {
		games = []model.Game{}
	}

	page := &model.GamePage{
		Items:      games,
		Pagination: model.NewPagination(total, filter.Page, filter.Limit),
	}

	// 4. キャッシュ保存
	if s.cache != nil {
		s.cache.Set(ctx, filter, page)
	}

	return page, nil
}

// WithCacheRecorder はキャッシュ参照結果の記録先を設定する。
func (s *Service) WithCacheRecorder(r CacheRecorder) *Service {
	s.recorder = r
	return s
}

func (s *Service) recordCache(hit bool) {
	if s.recorder != nil {
		s.recorder.RecordGameCache(hit)
	}
}
