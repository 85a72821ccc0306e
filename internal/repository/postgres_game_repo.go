package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/gamelobby/internal/model"
)

// PostgresGameRepo はPostgreSQLを使用したゲームリポジトリ。
type PostgresGameRepo struct {
	db *sql.DB
}

// NewPostgresGameRepo はPostgresGameRepoを生成する。
func NewPostgresGameRepo(db *sql.DB) *PostgresGameRepo {
	return &PostgresGameRepo{db: db}
}

// List は検索条件に一致するゲームの1ページ分と総件数を返す。
// 件数とデータは読み取り専用のREPEATABLE READトランザクション内で取得し、
// 同一スナップショットを参照する。
func (r *PostgresGameRepo) List(ctx context.Context, filter model.GameFilter) ([]model.Game, int, error) {
	q := buildGameQuery(filter)

	var (
		games []model.Game
		total int
	)

	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	err := withTx(ctx, r.db, opts, func(tx *sql.Tx) error {
		// 1. 総件数
		if err := tx.QueryRowContext(ctx, q.countSQL(), q.args...).Scan(&total); err != nil {
			return fmt.Errorf("ゲーム件数の取得に失敗しました: %w", err)
		}

		// 2. 範囲外のページはデータ取得を省略する
		if pages := (total + filter.Limit - 1) / filter.Limit; filter.Page > pages {
			games = []model.Game{}
			return nil
		}

		// 3. ページデータ
		query, args := q.pageSQL(filter.Limit, filter.Offset())
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("ゲーム一覧の取得に失敗しました: %w", err)
		}
		defer rows.Close()

		games = make([]model.Game, 0, filter.Limit)
		for rows.Next() {
			var g model.Game
			if err := rows.Scan(&g.ID, &g.Name, &g.Provider, &g.Category, &g.CreatedAt); err != nil {
				return fmt.Errorf("ゲーム行の読み取りに失敗しました: %w", err)
			}
			games = append(games, g)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("ゲーム一覧の走査に失敗しました: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return games, total, nil
}

// Exists は指定IDのゲームが存在するかを返す。
func (r *PostgresGameRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM games WHERE id = $1)`,
		id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ゲームの存在確認に失敗しました: %w", err)
	}
	return exists, nil
}

// compile-time interface check
var _ GameRepository = (*PostgresGameRepo)(nil)
