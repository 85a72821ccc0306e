// Package auth はユーザー登録・ログインとセッショントークンの発行を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/gamelobby/internal/model"
	"github.com/hitoshi/gamelobby/internal/repository"
	"github.com/hitoshi/gamelobby/internal/security"
	"github.com/hitoshi/gamelobby/internal/validation"
)

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,passwordbytes,strongpassword"`
}

// LoginInput はログインの入力。
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult はログイン成功時の結果。
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      model.PublicUser
}

// TokenVerifier はセッショントークンを検証するインターフェース。
// 認証ミドルウェアが依存する。
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// tokenIssuer はトークン発行のインターフェース。
type tokenIssuer interface {
	Issue(userID int64) (string, time.Time, error)
}

// AuthEventRecorder は認証イベントを記録するインターフェース。
// メトリクス収集に使用する。nilの場合は記録しない。
type AuthEventRecorder interface {
	RecordAuthEvent(event, outcome string)
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo  repository.UserRepository
	hasher    PasswordHasher
	tokens    tokenIssuer
	validator *validation.Validator
	sanitizer security.InputSanitizer
	recorder  AuthEventRecorder

	// dummyHash は未登録メールアドレスでのログイン時にも照合処理を行い、
	// 応答時間からアカウントの有無を推測されないようにするためのハッシュ。
	dummyHash string
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	tokens tokenIssuer,
	validator *validation.Validator,
	sanitizer security.InputSanitizer,
	recorder AuthEventRecorder,
) (*Service, error) {
	dummyHash, err := hasher.Hash("gamelobby-timing-equalizer")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}

	return &Service{
		userRepo:  userRepo,
		hasher:    hasher,
		tokens:    tokens,
		validator: validator,
		sanitizer: sanitizer,
		recorder:  recorder,
		dummyHash: dummyHash,
	}, nil
}

// Register は新規ユーザーを登録する。
// 名前はタグ除去と前後空白除去、メールアドレスは小文字化してから検証する。
// メールアドレスが登録済みの場合はEMAIL_EXISTSを返す。
// 同時登録の競合はDBの一意制約で検出するため、成功するのは1件のみ。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.PublicUser, error) {
	// 1. 正規化
	in.Name = model.NormalizeName(s.sanitizer.Text(in.Name))
	in.Email = model.NormalizeEmail(in.Email)

	// 2. 入力検証
	if err := s.validator.Struct(in); err != nil {
		s.record("register", "invalid")
		return nil, err
	}

	// 3. パスワードハッシュ化（平文は保存しない）
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("ユーザー登録に失敗しました: %w", err)
	}

	// 4. 作成（一意制約違反はEMAIL_EXISTS）
	user := &model.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			s.record("register", "conflict")
			return nil, model.NewEmailExistsError()
		}
		return nil, fmt.Errorf("ユーザー登録に失敗しました: %w", err)
	}

	s.record("register", "success")
	slog.Info("user registered", slog.Int64("user_id", user.ID))

	public := user.Public()
	return &public, nil
}

// Login はメールアドレスとパスワードで認証し、セッショントークンを発行する。
// 未登録メールアドレスとパスワード不一致はどちらも同一のINVALID_CREDENTIALSを返す。
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	// 1. 正規化と入力検証
	in.Email = model.NormalizeEmail(in.Email)
	if err := s.validator.Struct(in); err != nil {
		s.record("login", "invalid")
		return nil, err
	}

	// 2. ユーザー検索
	user, err := s.userRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("ログインに失敗しました: %w", err)
	}

	// 3. パスワード照合（未登録でも照合処理を行う）
	hash := s.dummyHash
	if user != nil {
		hash = user.PasswordHash
	}
	ok, err := s.hasher.Compare(hash, in.Password)
	if err != nil {
		return nil, fmt.Errorf("ログインに失敗しました: %w", err)
	}
	if user == nil || !ok {
		s.record("login", "invalid_credentials")
		return nil, model.NewInvalidCredentialsError()
	}

	// 4. トークン発行（ペイロードはユーザーIDのみ）
	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("ログインに失敗しました: %w", err)
	}

	s.record("login", "success")
	slog.Info("user logged in", slog.Int64("user_id", user.ID))

	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user.Public(),
	}, nil
}

// Me はトークンから特定したユーザーの公開情報を返す。
// ユーザーが削除済みの場合はINVALID_TOKENを返す。
func (s *Service) Me(ctx context.Context, userID int64) (*model.PublicUser, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザー情報の取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidTokenError()
	}
	public := user.Public()
	return &public, nil
}

func (s *Service) record(event, outcome string) {
	if s.recorder != nil {
		s.recorder.RecordAuthEvent(event, outcome)
	}
}
