// Package validation はリクエスト入力の検証を提供する。
// go-playground/validatorのタグで制約を宣言し、違反をmodel.APIErrorに変換する。
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/gamelobby/internal/model"
)

// MaxPasswordBytes はbcryptが扱えるパスワードの最大バイト数。
const MaxPasswordBytes = 72

// Validator は構造体タグに基づく入力検証を行う。
// 内部のvalidator.Validateはキャッシュを持ち、並行利用して安全。
type Validator struct {
	validate *validator.Validate
}

// New はカスタムルールを登録したValidatorを生成する。
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// エラーのフィールド名にはJSONキー名を使う
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// strongpassword: 英小文字・英大文字・数字をそれぞれ1文字以上含む
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})

	// passwordbytes: UTF-8でMaxPasswordBytesバイト以下（maxタグは文字数で数えるため別途検査する）
	_ = v.RegisterValidation("passwordbytes", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= MaxPasswordBytes
	})

	return &Validator{validate: v}
}

// Struct は構造体を検証する。
// 違反がある場合はフィールドごとの詳細を含むVALIDATION_ERRORを返す。
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate input: %w", err)
	}

	details := make([]model.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, model.FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}

	return model.NewValidationError(details[0].Message, details...)
}

// IsStrongPassword はパスワードが英小文字・英大文字・数字をそれぞれ含むかを返す。
// 長さの検証は呼び出し側のタグ（min/max）で行う。
func IsStrongPassword(s string) bool {
	var lower, upper, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}

// fieldMessage は検証エラーを利用者向けのメッセージに変換する。
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Valid email required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "passwordbytes":
		return fmt.Sprintf("%s must be at most %d bytes", fe.Field(), MaxPasswordBytes)
	case "strongpassword":
		return "Password: 8+ chars, 1 upper, 1 lower, 1 number"
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
