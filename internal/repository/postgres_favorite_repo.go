package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/gamelobby/internal/model"
)

// favoritesの外部キー制約名（PostgreSQLの自動命名）
const (
	favoritesGameFKConstraint = "favorites_game_id_fkey"
	favoritesUserFKConstraint = "favorites_user_id_fkey"
)

// addFavoriteAttempts はON CONFLICT後の既存行取得が同時削除で空振りした場合の再試行回数。
const addFavoriteAttempts = 3

// PostgresFavoriteRepo はPostgreSQLを使用したお気に入りリポジトリ。
type PostgresFavoriteRepo struct {
	db *sql.DB
}

// NewPostgresFavoriteRepo はPostgresFavoriteRepoを生成する。
func NewPostgresFavoriteRepo(db *sql.DB) *PostgresFavoriteRepo {
	return &PostgresFavoriteRepo{db: db}
}

// ListByUser はユーザーのお気に入りをゲーム情報付きで登録日時の降順に返す。
// ゲーム側の登録数も合わせて返す。
func (r *PostgresFavoriteRepo) ListByUser(ctx context.Context, userID int64) ([]model.FavoriteGame, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.provider, g.category, f.created_at,
		        (SELECT COUNT(*) FROM favorites c WHERE c.game_id = g.id) AS favorite_count
		 FROM favorites f
		 INNER JOIN games g ON g.id = f.game_id
		 WHERE f.user_id = $1
		 ORDER BY f.created_at DESC, f.id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("お気に入り一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	results := []model.FavoriteGame{}
	for rows.Next() {
		var fg model.FavoriteGame
		if err := rows.Scan(
			&fg.GameID, &fg.Name, &fg.Provider, &fg.Category, &fg.FavoritedAt,
			&fg.FavoriteCount,
		); err != nil {
			return nil, fmt.Errorf("お気に入り行の読み取りに失敗しました: %w", err)
		}
		results = append(results, fg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("お気に入り一覧の走査に失敗しました: %w", err)
	}
	return results, nil
}

// Exists はユーザーが指定ゲームをお気に入り登録しているかを返す。
func (r *PostgresFavoriteRepo) Exists(ctx context.Context, userID, gameID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = $1 AND game_id = $2)`,
		userID, gameID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("お気に入りの存在確認に失敗しました: %w", err)
	}
	return exists, nil
}

// Add はお気に入りを登録する。
// INSERT ... ON CONFLICT DO NOTHING で一意制約の競合を吸収し、
// 行が返らなかった場合は既存行を取得してcreated=falseを返す。
// 外部キー制約違反は、ゲームが存在しない場合ErrGameNotFound、
// ユーザーが削除済みの場合ErrUserNotFoundに変換する。
func (r *PostgresFavoriteRepo) Add(ctx context.Context, userID, gameID int64) (*model.Favorite, bool, error) {
	for attempt := 0; attempt < addFavoriteAttempts; attempt++ {
		fav := &model.Favorite{}
		err := r.db.QueryRowContext(ctx,
			`INSERT INTO favorites (user_id, game_id)
			 VALUES ($1, $2)
			 ON CONFLICT (user_id, game_id) DO NOTHING
			 RETURNING id, user_id, game_id, created_at`,
			userID, gameID,
		).Scan(&fav.ID, &fav.UserID, &fav.GameID, &fav.CreatedAt)

		switch {
		case err == nil:
			return fav, true, nil
		case isForeignKeyViolation(err, favoritesGameFKConstraint):
			return nil, false, ErrGameNotFound
		case isForeignKeyViolation(err, favoritesUserFKConstraint):
			return nil, false, ErrUserNotFound
		case !errors.Is(err, sql.ErrNoRows):
			return nil, false, fmt.Errorf("お気に入りの登録に失敗しました: %w", err)
		}

		// 競合: 既存行を取得する
		existing, err := r.find(ctx, userID, gameID)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return existing, false, nil
		}
		// 競合後に同時削除された場合は挿入からやり直す
	}

	return nil, false, fmt.Errorf("お気に入りの登録が競合により完了しませんでした: user=%d game=%d", userID, gameID)
}

// Remove はお気に入りを削除し、削除したかどうかを返す。
func (r *PostgresFavoriteRepo) Remove(ctx context.Context, userID, gameID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND game_id = $2`,
		userID, gameID,
	)
	if err != nil {
		return false, fmt.Errorf("お気に入りの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// CountByGame は指定ゲームのお気に入り登録数を返す。
func (r *PostgresFavoriteRepo) CountByGame(ctx context.Context, gameID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM favorites WHERE game_id = $1`,
		gameID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("お気に入り数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// find はユーザーとゲームの組でお気に入りを取得する。見つからない場合はnilを返す。
func (r *PostgresFavoriteRepo) find(ctx context.Context, userID, gameID int64) (*model.Favorite, error) {
	fav := &model.Favorite{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, game_id, created_at FROM favorites WHERE user_id = $1 AND game_id = $2`,
		userID, gameID,
	).Scan(&fav.ID, &fav.UserID, &fav.GameID, &fav.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("お気に入りの取得に失敗しました: %w", err)
	}
	return fav, nil
}

// compile-time interface check
var _ FavoriteRepository = (*PostgresFavoriteRepo)(nil)
