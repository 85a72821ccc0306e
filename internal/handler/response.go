// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/gamelobby/internal/middleware"
	"github.com/hitoshi/gamelobby/internal/model"
)

// successResponse は成功レスポンスの統一フォーマット。
//
//	{"success": true, "message": "...", "data": ...}
type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// writeSuccess は成功レスポンスを書き込む。
func writeSuccess(w http.ResponseWriter, statusCode int, message string, data any) {
	writeJSON(w, statusCode, successResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// writeJSON はvをJSONとして書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if apiErr, ok := model.AsAPIError(err); ok {
		writeAPIError(w, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error",
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
	)
	middleware.WriteInternalServerError(w)
}

// writeAPIError はAPIErrorを統一エラーフォーマットで書き込む。
func writeAPIError(w http.ResponseWriter, apiErr *model.APIError) {
	middleware.WriteAPIError(w, apiErr)
}

// decodeJSON はリクエストボディをdstにデコードする。
// 失敗時はVALIDATION_ERRORを書き込みfalseを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(dst)
	if err == nil {
		return true
	}

	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		writeAPIError(w, model.NewValidationError("Request body too large"))
	case errors.Is(err, io.EOF):
		writeAPIError(w, model.NewValidationError("Request body is required"))
	default:
		writeAPIError(w, model.NewValidationError("Invalid JSON body"))
	}
	return false
}

// requireUserID は認証ミドルウェアが注入したユーザーIDを取得する。
// 取得できない場合はNO_TOKENを書き込みfalseを返す。
func requireUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIError(w, model.NewNoTokenError())
		return 0, false
	}
	return userID, true
}

// --- レスポンス型 ---

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserResponse(u model.PublicUser) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// gameResponse はゲーム情報のAPIレスポンス。
type gameResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Provider  string    `json:"provider"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"createdAt"`
}

func toGameResponse(g model.Game) gameResponse {
	return gameResponse{
		ID:        g.ID,
		Name:      g.Name,
		Provider:  g.Provider,
		Category:  g.Category,
		CreatedAt: g.CreatedAt,
	}
}

// paginationResponse はページング情報のAPIレスポンス。
type paginationResponse struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// favoriteResponse はお気に入り登録のAPIレスポンス。
type favoriteResponse struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	GameID    int64     `json:"gameId"`
	CreatedAt time.Time `json:"createdAt"`
}

func toFavoriteResponse(f model.Favorite) favoriteResponse {
	return favoriteResponse{
		ID:        f.ID,
		UserID:    f.UserID,
		GameID:    f.GameID,
		CreatedAt: f.CreatedAt,
	}
}

// favoriteGameResponse はお気に入り一覧の1件のAPIレスポンス。
type favoriteGameResponse struct {
	GameID        int64     `json:"gameId"`
	Name          string    `json:"name"`
	Provider      string    `json:"provider"`
	Category      string    `json:"category"`
	FavoritedAt   time.Time `json:"favoritedAt"`
	FavoriteCount int       `json:"favoriteCount"`
}

func toFavoriteGameResponse(f model.FavoriteGame) favoriteGameResponse {
	return favoriteGameResponse{
		GameID:        f.GameID,
		Name:          f.Name,
		Provider:      f.Provider,
		Category:      f.Category,
		FavoritedAt:   f.FavoritedAt,
		FavoriteCount: f.FavoriteCount,
	}
}
