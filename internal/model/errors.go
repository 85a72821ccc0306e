// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// ErrorKind はエラーの分類を表す。
// HTTP境界でステータスコードへの変換に使用する。
type ErrorKind int

const (
	// KindInternal は想定外の内部エラー。
	KindInternal ErrorKind = iota
	// KindValidation は入力値の検証エラー。
	KindValidation
	// KindConflict は一意制約などの競合エラー。
	KindConflict
	// KindNotFound は対象が存在しないエラー。
	KindNotFound
	// KindUnauthorized は認証エラー。
	KindUnauthorized
	// KindRateLimited はレート制限超過。
	KindRateLimited
)

// String はErrorKindの文字列表現を返す。
func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

// APIError は統一エラーフォーマットを表す。
// サービス層が返し、HTTP境界で {"success":false,"error":{code,message}} に変換される。
type APIError struct {
	Kind    ErrorKind // エラー分類
	Code    string    // エラーコード
	Message string    // エラーメッセージ
	Details []FieldError
}

// FieldError はフィールド単位の検証エラーを表す。
type FieldError struct {
	Field   string
	Message string
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// AsAPIError はerrチェーンから*APIErrorを取り出す。
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// 定義済みエラーコード
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeEmailExists        = "EMAIL_EXISTS"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeNoToken            = "NO_TOKEN"
	ErrCodeTokenExpired       = "TOKEN_EXPIRED"
	ErrCodeInvalidToken       = "INVALID_TOKEN"
	ErrCodeGameNotFound       = "GAME_NOT_FOUND"
	ErrCodeInvalidGameID      = "INVALID_GAME_ID"
	ErrCodeRateLimited        = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(message string, details ...FieldError) *APIError {
	return &APIError{
		Kind:    KindValidation,
		Code:    ErrCodeValidation,
		Message: message,
		Details: details,
	}
}

// NewEmailExistsError はメールアドレス重複エラーを生成する。
func NewEmailExistsError() *APIError {
	return &APIError{
		Kind:    KindConflict,
		Code:    ErrCodeEmailExists,
		Message: "Email already registered",
	}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
// 未登録メールアドレスとパスワード不一致で同一の内容を返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Kind:    KindUnauthorized,
		Code:    ErrCodeInvalidCredentials,
		Message: "Invalid email or password",
	}
}

// NewNoTokenError はトークン未指定エラーを生成する。
func NewNoTokenError() *APIError {
	return &APIError{
		Kind:    KindUnauthorized,
		Code:    ErrCodeNoToken,
		Message: "Authentication required",
	}
}

// NewTokenExpiredError はトークン期限切れエラーを生成する。
func NewTokenExpiredError() *APIError {
	return &APIError{
		Kind:    KindUnauthorized,
		Code:    ErrCodeTokenExpired,
		Message: "Session expired, please log in again",
	}
}

// NewInvalidTokenError は不正トークンエラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Kind:    KindUnauthorized,
		Code:    ErrCodeInvalidToken,
		Message: "Invalid authentication token",
	}
}

// NewGameNotFoundError はゲーム未検出エラーを生成する。
func NewGameNotFoundError(gameID int64) *APIError {
	return &APIError{
		Kind:    KindNotFound,
		Code:    ErrCodeGameNotFound,
		Message: fmt.Sprintf("Game not found: %d", gameID),
	}
}

// NewInvalidGameIDError はゲームIDの形式エラーを生成する。
func NewInvalidGameIDError(raw string) *APIError {
	return &APIError{
		Kind:    KindValidation,
		Code:    ErrCodeInvalidGameID,
		Message: fmt.Sprintf("Invalid game id: %q", raw),
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Kind:    KindRateLimited,
		Code:    ErrCodeRateLimited,
		Message: "Too many requests, please try again later",
	}
}

// NewInternalError は内部エラーを生成する。
// 詳細はログにのみ出力し、クライアントには汎用メッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Kind:    KindInternal,
		Code:    ErrCodeInternal,
		Message: "Something went wrong. Please try again later.",
	}
}
