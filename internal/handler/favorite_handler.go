package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/gamelobby/internal/favorite"
	"github.com/hitoshi/gamelobby/internal/model"
)

// FavoriteServiceInterface はお気に入りハンドラーが必要とするサービスインターフェース。
type FavoriteServiceInterface interface {
	ListFavorites(ctx context.Context, userID int64) ([]model.FavoriteGame, error)
	IsFavorited(ctx context.Context, userID, gameID int64) (bool, error)
	AddFavorite(ctx context.Context, userID, gameID int64) (*model.AddFavoriteResult, error)
	RemoveFavorite(ctx context.Context, userID, gameID int64) error
	ToggleFavorite(ctx context.Context, userID, gameID int64) (*model.ToggleResult, error)
	FavoriteCount(ctx context.Context, gameID int64) (int, error)
}

var _ FavoriteServiceInterface = (*favorite.Service)(nil)

// FavoriteHandler はお気に入り管理のHTTPハンドラー。
type FavoriteHandler struct {
	service FavoriteServiceInterface
}

// NewFavoriteHandler はFavoriteHandlerを生成する。
func NewFavoriteHandler(service FavoriteServiceInterface) *FavoriteHandler {
	return &FavoriteHandler{service: service}
}

// favoriteListResponse はお気に入り一覧のAPIレスポンス。
type favoriteListResponse struct {
	Items []favoriteGameResponse `json:"items"`
}

// addFavoriteResponse はお気に入り登録のAPIレスポンス。
type addFavoriteResponse struct {
	Favorite         favoriteResponse `json:"favorite"`
	AlreadyFavorited bool             `json:"alreadyFavorited"`
}

// favoriteStatusResponse はお気に入り状態のAPIレスポンス。
type favoriteStatusResponse struct {
	GameID        int64 `json:"gameId"`
	IsFavorite    bool  `json:"isFavorite"`
	FavoriteCount int   `json:"favoriteCount"`
}

// toggleFavoriteResponse はお気に入り切り替えのAPIレスポンス。
type toggleFavoriteResponse struct {
	IsFavorite bool              `json:"isFavorite"`
	Favorite   *favoriteResponse `json:"favorite,omitempty"`
}

// ListFavorites はユーザーのお気に入り一覧を返す。
// GET /api/v1/favorites
func (h *FavoriteHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	favs, err := h.service.ListFavorites(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	items := make([]favoriteGameResponse, len(favs))
	for i, f := range favs {
		items[i] = toFavoriteGameResponse(f)
	}
	writeSuccess(w, http.StatusOK, "", favoriteListResponse{Items: items})
}

// GetFavoriteStatus は指定ゲームのお気に入り状態と登録数を返す。
// GET /api/v1/favorites/{gameId}
func (h *FavoriteHandler) GetFavoriteStatus(w http.ResponseWriter, r *http.Request) {
	userID, gameID, ok := h.parseTarget(w, r)
	if !ok {
		return
	}

	favorited, err := h.service.IsFavorited(r.Context(), userID, gameID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	count, err := h.service.FavoriteCount(r.Context(), gameID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", favoriteStatusResponse{
		GameID:        gameID,
		IsFavorite:    favorited,
		FavoriteCount: count,
	})
}

// AddFavorite はお気に入りを登録する。
// 新規登録は201、登録済みは200でalreadyFavorited=trueを返す。
// POST /api/v1/favorites/{gameId}
func (h *FavoriteHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	userID, gameID, ok := h.parseTarget(w, r)
	if !ok {
		return
	}

	result, err := h.service.AddFavorite(r.Context(), userID, gameID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := addFavoriteResponse{
		Favorite:         toFavoriteResponse(result.Favorite),
		AlreadyFavorited: result.AlreadyFavorited,
	}
	if result.AlreadyFavorited {
		writeSuccess(w, http.StatusOK, "Game is already in favorites", resp)
		return
	}
	writeSuccess(w, http.StatusCreated, "Added to favorites", resp)
}

// RemoveFavorite はお気に入りを削除する。未登録でも200を返す。
// DELETE /api/v1/favorites/{gameId}
func (h *FavoriteHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	userID, gameID, ok := h.parseTarget(w, r)
	if !ok {
		return
	}

	if err := h.service.RemoveFavorite(r.Context(), userID, gameID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Removed from favorites", nil)
}

// ToggleFavorite はお気に入り状態を反転する。
// POST /api/v1/favorites/{gameId}/toggle
func (h *FavoriteHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	userID, gameID, ok := h.parseTarget(w, r)
	if !ok {
		return
	}

	result, err := h.service.ToggleFavorite(r.Context(), userID, gameID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := toggleFavoriteResponse{IsFavorite: result.IsFavorite}
	message := "Removed from favorites"
	if result.Favorite != nil {
		fav := toFavoriteResponse(*result.Favorite)
		resp.Favorite = &fav
	}
	if result.IsFavorite {
		message = "Added to favorites"
	}
	writeSuccess(w, http.StatusOK, message, resp)
}

// parseTarget はユーザーIDとパスパラメータのゲームIDを取得する。
// ゲームIDは正の整数であること。
func (h *FavoriteHandler) parseTarget(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return 0, 0, false
	}

	raw := chi.URLParam(r, "gameId")
	gameID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || gameID <= 0 {
		writeAPIError(w, model.NewInvalidGameIDError(raw))
		return 0, 0, false
	}
	return userID, gameID, true
}
