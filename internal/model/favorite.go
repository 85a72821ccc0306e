package model

import "time"

// Favorite はユーザーとゲームのお気に入り関係を表す。
// (UserID, GameID) は一意。
type Favorite struct {
	ID        int64
	UserID    int64
	GameID    int64
	CreatedAt time.Time
}

// FavoriteGame はお気に入り一覧の1件を表す。
type FavoriteGame struct {
	GameID        int64
	Name          string
	Provider      string
	Category      string
	FavoritedAt   time.Time
	FavoriteCount int
}

// AddFavoriteResult はお気に入り追加の結果を表す。
// 既に登録済みの場合はAlreadyFavoritedがtrueとなり、既存のFavoriteを返す。
type AddFavoriteResult struct {
	Favorite         Favorite
	AlreadyFavorited bool
}

// ToggleResult はお気に入り切り替えの結果を表す。
type ToggleResult struct {
	IsFavorite bool
	Favorite   *Favorite
}
