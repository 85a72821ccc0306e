package model

import (
	"math"
	"time"
)

// Game はカタログに登録されたゲームを表す。
// APIからは参照のみで、登録は外部のシード処理が行う。
type Game struct {
	ID        int64
	Name      string
	Provider  string
	Category  string
	CreatedAt time.Time
}

// ゲーム一覧のページング既定値
const (
	DefaultPage  = 1
	DefaultLimit = 12
	MinLimit     = 5
	MaxLimit     = 50
)

// GameFilter はゲーム一覧の検索条件を表す。
// 空文字のフィールドは条件に含めない。
type GameFilter struct {
	Search   string // 名前の部分一致（大文字小文字を区別しない）
	Provider string // プロバイダの部分一致（大文字小文字を区別しない）
	Category string // カテゴリの完全一致
	Page     int
	Limit    int
}

// Normalize はページ番号と件数を許容範囲に丸めたフィルタを返す。
// page < 1 は 1、limit は [MinLimit, MaxLimit] に収める。limit が 0 の場合は既定値を使う。
// page は Offset が int に収まる範囲で頭打ちにする。
func (f GameFilter) Normalize() GameFilter {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit < MinLimit {
		f.Limit = MinLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if maxPage := math.MaxInt/f.Limit + 1; f.Page > maxPage {
		f.Page = maxPage
	}
	return f
}

// Offset はページ番号と件数から取得開始位置を返す。
// Normalize済みのフィルタでは負にならない。
func (f GameFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Pagination はページング情報を表す。
type Pagination struct {
	Total int
	Page  int
	Limit int
	Pages int
}

// NewPagination は総件数とページ条件からPaginationを生成する。
func NewPagination(total, page, limit int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: pages,
	}
}

// GamePage はゲーム一覧の1ページ分の結果を表す。
type GamePage struct {
	Items      []Game
	Pagination Pagination
}
