package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/gamelobby/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
//
//	{"success": false, "error": {"code": "...", "message": "...", "details": [...]}}
type ErrorResponseBody struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail はエラーコードとメッセージを保持する。
type ErrorDetail struct {
	Code    string             `json:"code"`
	Message string             `json:"message"`
	Details []FieldErrorDetail `json:"details,omitempty"`
}

// FieldErrorDetail はフィールド単位の検証エラー。
type FieldErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// StatusForError はAPIErrorの分類に対応するHTTPステータスコードを返す。
func StatusForError(apiErr *model.APIError) int {
	switch apiErr.Kind {
	case model.KindValidation:
		return http.StatusBadRequest
	case model.KindUnauthorized:
		return http.StatusUnauthorized
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindConflict:
		return http.StatusConflict
	case model.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// すべてのAPIエンドポイントで一貫したエラーレスポンスを提供する。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	body := ErrorResponseBody{
		Success: false,
		Error: ErrorDetail{
			Code:    apiErr.Code,
			Message: apiErr.Message,
		},
	}
	for _, d := range apiErr.Details {
		body.Error.Details = append(body.Error.Details, FieldErrorDetail{
			Field:   d.Field,
			Message: d.Message,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode error response", slog.String("error", err.Error()))
	}
}

// WriteAPIError はAPIErrorの分類からステータスコードを決めて書き込む。
func WriteAPIError(w http.ResponseWriter, apiErr *model.APIError) {
	WriteErrorResponse(w, StatusForError(apiErr), apiErr)
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}
