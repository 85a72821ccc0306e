// Package favorite はユーザーごとのお気に入りゲームの管理を提供する。
package favorite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/gamelobby/internal/model"
	"github.com/hitoshi/gamelobby/internal/repository"
)

// OpRecorder はお気に入り操作を記録するインターフェース。
// メトリクス収集に使用する。nilの場合は記録しない。
type OpRecorder interface {
	RecordFavoriteOp(op, outcome string)
}

// Service はお気に入りに関するビジネスロジックを提供する。
type Service struct {
	favRepo  repository.FavoriteRepository
	recorder OpRecorder
}

// NewService はServiceを生成する。
func NewService(favRepo repository.FavoriteRepository, recorder OpRecorder) *Service {
	return &Service{
		favRepo:  favRepo,
		recorder: recorder,
	}
}

// ListFavorites はユーザーのお気に入り一覧を登録日時の降順で返す。
// 削除済みのゲームは含まれない。
func (s *Service) ListFavorites(ctx context.Context, userID int64) ([]model.FavoriteGame, error) {
	favorites, err := s.favRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("お気に入り一覧の取得に失敗しました: %w", err)
	}
	if favorites == nil {
		favorites = []model.FavoriteGame{}
	}
	return favorites, nil
}

// IsFavorited はユーザーが指定ゲームをお気に入り登録しているかを返す。
func (s *Service) IsFavorited(ctx context.Context, userID, gameID int64) (bool, error) {
	if err := validateGameID(gameID); err != nil {
		return false, err
	}
	ok, err := s.favRepo.Exists(ctx, userID, gameID)
	if err != nil {
		return false, fmt.Errorf("お気に入り状態の取得に失敗しました: %w", err)
	}
	return ok, nil
}

// AddFavorite はお気に入りを登録する。
// 既に登録済みの場合はエラーにせず、既存のFavoriteとAlreadyFavorited=trueを返す。
// ゲームが存在しない場合はGAME_NOT_FOUND、トークンのユーザーが削除済みの場合はINVALID_TOKENを返す。
func (s *Service) AddFavorite(ctx context.Context, userID, gameID int64) (*model.AddFavoriteResult, error) {
	if err := validateGameID(gameID); err != nil {
		return nil, err
	}

	fav, created, err := s.favRepo.Add(ctx, userID, gameID)
	if err != nil {
		if errors.Is(err, repository.ErrGameNotFound) {
			s.record("add", "game_not_found")
			return nil, model.NewGameNotFoundError(gameID)
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			s.record("add", "user_not_found")
			return nil, model.NewInvalidTokenError()
		}
		return nil, fmt.Errorf("お気に入りの登録に失敗しました: %w", err)
	}

	if created {
		s.record("add", "created")
		slog.Info("favorite added",
			slog.Int64("user_id", userID),
			slog.Int64("game_id", gameID),
		)
	} else {
		s.record("add", "already_favorited")
	}

	return &model.AddFavoriteResult{
		Favorite:         *fav,
		AlreadyFavorited: !created,
	}, nil
}

// RemoveFavorite はお気に入りを削除する。
// 登録されていない場合も成功として扱う（冪等）。
func (s *Service) RemoveFavorite(ctx context.Context, userID, gameID int64) error {
	if err := validateGameID(gameID); err != nil {
		return err
	}

	removed, err := s.favRepo.Remove(ctx, userID, gameID)
	if err != nil {
		return fmt.Errorf("お気に入りの削除に失敗しました: %w", err)
	}

	if removed {
		s.record("remove", "removed")
		slog.Info("favorite removed",
			slog.Int64("user_id", userID),
			slog.Int64("game_id", gameID),
		)
	} else {
		s.record("remove", "not_favorited")
	}
	return nil
}

// ToggleFavorite はお気に入り状態を反転し、反転後の状態を返す。
// 確認と更新は別操作のため、同一ユーザーの同時トグルは最終状態を保証しない。
// それぞれの操作自体は冪等なので、一意制約違反などのエラーにはならない。
func (s *Service) ToggleFavorite(ctx context.Context, userID, gameID int64) (*model.ToggleResult, error) {
	favorited, err := s.IsFavorited(ctx, userID, gameID)
	if err != nil {
		return nil, err
	}

	if favorited {
		if err := s.RemoveFavorite(ctx, userID, gameID); err != nil {
			return nil, err
		}
		return &model.ToggleResult{IsFavorite: false}, nil
	}

	result, err := s.AddFavorite(ctx, userID, gameID)
	if err != nil {
		return nil, err
	}
	return &model.ToggleResult{IsFavorite: true, Favorite: &result.Favorite}, nil
}

// FavoriteCount は指定ゲームのお気に入り登録数を返す。
func (s *Service) FavoriteCount(ctx context.Context, gameID int64) (int, error) {
	if err := validateGameID(gameID); err != nil {
		return 0, err
	}
	count, err := s.favRepo.CountByGame(ctx, gameID)
	if err != nil {
		return 0, fmt.Errorf("お気に入り数の取得に失敗しました: %w", err)
	}
	return count, nil
}

func (s *Service) record(op, outcome string) {
	if s.recorder != nil {
		s.recorder.RecordFavoriteOp(op, outcome)
	}
}

// validateGameID はゲームIDが正の整数であることを確認する。
func validateGameID(gameID int64) error {
	if gameID <= 0 {
		return model.NewInvalidGameIDError(fmt.Sprint(gameID))
	}
	return nil
}
