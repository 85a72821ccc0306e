// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/hitoshi/gamelobby/internal/model"
)

// リポジトリ層が返す判別可能なエラー。
// サービス層でmodel.APIErrorに変換する。
var (
	// ErrEmailTaken はメールアドレスの一意制約違反を表す。
	ErrEmailTaken = errors.New("email already taken")
	// ErrGameNotFound は参照先のゲームが存在しないことを表す。
	ErrGameNotFound = errors.New("game not found")
	// ErrUserNotFound は参照元のユーザーが存在しないことを表す。
	ErrUserNotFound = errors.New("user not found")
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成し、採番されたIDと作成日時を設定する。
	// メールアドレスが既に存在する場合はErrEmailTakenを返す。
	Create(ctx context.Context, user *model.User) error

	// FindByEmail は正規化済みメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// GameRepository はゲームデータの参照インターフェース。
type GameRepository interface {
	// List は検索条件に一致するゲームの1ページ分と総件数を返す。
	// filterは正規化済み（Page >= 1、Limit > 0）であること。
	List(ctx context.Context, filter model.GameFilter) ([]model.Game, int, error)

	// Exists は指定IDのゲームが存在するかを返す。
	Exists(ctx context.Context, id int64) (bool, error)
}

// FavoriteRepository はお気に入りデータの永続化インターフェース。
type FavoriteRepository interface {
	// ListByUser はユーザーのお気に入りをゲーム情報付きで登録日時の降順に返す。
	ListByUser(ctx context.Context, userID int64) ([]model.FavoriteGame, error)

	// Exists はユーザーが指定ゲームをお気に入り登録しているかを返す。
	Exists(ctx context.Context, userID, gameID int64) (bool, error)

	// Add はお気に入りを登録する。
	// 既に登録済みの場合は既存のレコードとcreated=falseを返す。
	// ゲームが存在しない場合はErrGameNotFoundを返す。
	Add(ctx context.Context, userID, gameID int64) (fav *model.Favorite, created bool, err error)

	// Remove はお気に入りを削除し、削除したかどうかを返す。
	// 登録されていない場合もエラーにはしない。
	Remove(ctx context.Context, userID, gameID int64) (bool, error)

	// CountByGame は指定ゲームのお気に入り登録数を返す。
	CountByGame(ctx context.Context, gameID int64) (int, error)
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
