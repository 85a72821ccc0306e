package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/hitoshi/gamelobby/internal/game"
	"github.com/hitoshi/gamelobby/internal/model"
)

// GameServiceInterface はゲームハンドラーが必要とするサービスインターフェース。
type GameServiceInterface interface {
	ListGames(ctx context.Context, filter model.GameFilter) (*model.GamePage, error)
}

var _ GameServiceInterface = (*game.Service)(nil)

// GameHandler はゲーム一覧のHTTPハンドラー。
type GameHandler struct {
	service GameServiceInterface
}

// NewGameHandler はGameHandlerを生成する。
func NewGameHandler(service GameServiceInterface) *GameHandler {
	return &GameHandler{service: service}
}

// gameListResponse はゲーム一覧のAPIレスポンス。
type gameListResponse struct {
	Items      []gameResponse     `json:"items"`
	Pagination paginationResponse `json:"pagination"`
}

// ListGames はゲーム一覧を返す。
// GET /api/v1/games?search=&provider=&category=&page=&limit=
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// 1. ページ条件のパース（範囲の丸めはサービス層で行う）
	page, err := parseOptionalInt(q.Get("page"))
	if err != nil {
		writeQueryError(w, "page")
		return
	}
	limit, err := parseOptionalInt(q.Get("limit"))
	if err != nil {
		writeQueryError(w, "limit")
		return
	}

	// 2. 一覧取得
	result, err := h.service.ListGames(r.Context(), model.GameFilter{
		Search:   q.Get("search"),
		Provider: q.Get("provider"),
		Category: q.Get("category"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	// 3. レスポンス変換
	items := make([]gameResponse, len(result.Items))
	for i, g := range result.Items {
		items[i] = toGameResponse(g)
	}

	writeSuccess(w, http.StatusOK, "", gameListResponse{
		Items: items,
		Pagination: paginationResponse{
			Total: result.Pagination.Total,
			Page:  result.Pagination.Page,
			Limit: result.Pagination.Limit,
			Pages: result.Pagination.Pages,
		},
	})
}

// parseOptionalInt はクエリパラメータを整数に変換する。空文字は0とする。
func parseOptionalInt(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func writeQueryError(w http.ResponseWriter, field string) {
	msg := field + " must be an integer"
	writeAPIError(w, model.NewValidationError(msg, model.FieldError{Field: field, Message: msg}))
}
