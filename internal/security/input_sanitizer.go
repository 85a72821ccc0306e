// Package security はアプリケーションのセキュリティ機能を提供する。
//
// InputSanitizer はユーザー入力のテキストからHTMLマークアップを除去する。
// 表示名や検索条件にタグが混入しても、保存・検索にはプレーンテキストのみを使う。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// InputSanitizer はプレーンテキスト入力のサニタイズ機能のインターフェースを定義する。
type InputSanitizer interface {
	// Text はHTMLタグを除去し、前後の空白を取り除いたプレーンテキストを返す。
	// script, styleタグは中身ごと除去する。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Text(raw string) string
}

// inputSanitizer はInputSanitizerの実装。
// bluemondayのStrictPolicyはスレッドセーフに共有できる。
type inputSanitizer struct {
	policy *bluemonday.Policy
}

// NewInputSanitizer はInputSanitizerの新しいインスタンスを生成する。
func NewInputSanitizer() *inputSanitizer {
	return &inputSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Text はHTMLタグを除去したプレーンテキストを返す。
// StrictPolicyはエンティティをエスケープして返すため、
// アポストロフィ等を元の文字に戻してから返す（SQLにはプレースホルダで渡す）。
func (s *inputSanitizer) Text(raw string) string {
	if raw == "" {
		return ""
	}
	cleaned := html.UnescapeString(s.policy.Sanitize(raw))
	return strings.TrimSpace(cleaned)
}

// compile-time interface check
var _ InputSanitizer = (*inputSanitizer)(nil)
