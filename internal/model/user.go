package model

import (
	"strings"
	"time"
)

// User はサービス利用ユーザーを表す。
// PasswordHash はリポジトリ層とauthパッケージの外に出さないこと。
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// PublicUser はAPIレスポンスに含めてよいユーザー情報を表す。
type PublicUser struct {
	ID        int64
	Name      string
	Email     string
	CreatedAt time.Time
}

// Public はパスワードハッシュを除いたユーザー情報を返す。
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// NormalizeEmail はメールアドレスを前後空白除去・小文字化する。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeName はユーザー名の前後空白を除去する。
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}
