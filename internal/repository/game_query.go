package repository

import (
	"fmt"
	"strings"

	"github.com/hitoshi/gamelobby/internal/model"
)

// gameQuery はゲーム一覧のWHERE句とプレースホルダ引数を保持する。
type gameQuery struct {
	where string
	args  []interface{}
}

// buildGameQuery は検索条件からWHERE句を組み立てる。
// 値は常にプレースホルダで渡し、SQL文字列には埋め込まない。
func buildGameQuery(filter model.GameFilter) gameQuery {
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if filter.Provider != "" {
		args = append(args, "%"+escapeLike(filter.Provider)+"%")
		conditions = append(conditions, fmt.Sprintf("provider ILIKE $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}

	q := gameQuery{args: args}
	if len(conditions) > 0 {
		q.where = " WHERE " + strings.Join(conditions, " AND ")
	}
	return q
}

// countSQL は総件数取得用のSQLを返す。
func (q gameQuery) countSQL() string {
	return "SELECT COUNT(*) FROM games" + q.where
}

// pageSQL は1ページ分の取得SQLと引数を返す。
// 同一created_atの並びを安定させるためidを第2ソートキーにする。
func (q gameQuery) pageSQL(limit, offset int) (string, []interface{}) {
	n := len(q.args)
	query := "SELECT id, name, provider, category, created_at FROM games" + q.where +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", n+1, n+2)

	args := make([]interface{}, 0, n+2)
	args = append(args, q.args...)
	args = append(args, limit, offset)
	return query, args
}

// escapeLike はLIKEパターンのメタ文字をエスケープする。
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
