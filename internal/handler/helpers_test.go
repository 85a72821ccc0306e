package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/hitoshi/gamelobby/internal/auth"
	"github.com/hitoshi/gamelobby/internal/middleware"
	"github.com/hitoshi/gamelobby/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	registerFn func(ctx context.Context, in auth.RegisterInput) (*model.PublicUser, error)
	loginFn    func(ctx context.Context, in auth.LoginInput) (*auth.LoginResult, error)
	meFn       func(ctx context.Context, userID int64) (*model.PublicUser, error)
}

func (m *mockAuthService) Register(ctx context.Context, in auth.RegisterInput) (*model.PublicUser, error) {
	return m.registerFn(ctx, in)
}

func (m *mockAuthService) Login(ctx context.Context, in auth.LoginInput) (*auth.LoginResult, error) {
	return m.loginFn(ctx, in)
}

func (m *mockAuthService) Me(ctx context.Context, userID int64) (*model.PublicUser, error) {
	return m.meFn(ctx, userID)
}

type mockGameService struct {
	listGamesFn func(ctx context.Context, filter model.GameFilter) (*model.GamePage, error)
}

func (m *mockGameService) ListGames(ctx context.Context, filter model.GameFilter) (*model.GamePage, error) {
	return m.listGamesFn(ctx, filter)
}

type mockFavoriteService struct {
	listFavoritesFn  func(ctx context.Context, userID int64) ([]model.FavoriteGame, error)
	isFavoritedFn    func(ctx context.Context, userID, gameID int64) (bool, error)
	addFavoriteFn    func(ctx context.Context, userID, gameID int64) (*model.AddFavoriteResult, error)
	removeFavoriteFn func(ctx context.Context, userID, gameID int64) error
	toggleFavoriteFn func(ctx context.Context, userID, gameID int64) (*model.ToggleResult, error)
	favoriteCountFn  func(ctx context.Context, gameID int64) (int, error)
}

func (m *mockFavoriteService) ListFavorites(ctx context.Context, userID int64) ([]model.FavoriteGame, error) {
	return m.listFavoritesFn(ctx, userID)
}

func (m *mockFavoriteService) IsFavorited(ctx context.Context, userID, gameID int64) (bool, error) {
	return m.isFavoritedFn(ctx, userID, gameID)
}

func (m *mockFavoriteService) AddFavorite(ctx context.Context, userID, gameID int64) (*model.AddFavoriteResult, error) {
	return m.addFavoriteFn(ctx, userID, gameID)
}

func (m *mockFavoriteService) RemoveFavorite(ctx context.Context, userID, gameID int64) error {
	return m.removeFavoriteFn(ctx, userID, gameID)
}

func (m *mockFavoriteService) ToggleFavorite(ctx context.Context, userID, gameID int64) (*model.ToggleResult, error) {
	return m.toggleFavoriteFn(ctx, userID, gameID)
}

func (m *mockFavoriteService) FavoriteCount(ctx context.Context, gameID int64) (int, error) {
	return m.favoriteCountFn(ctx, gameID)
}

// tokenVerifier は "token-<userID>" 形式のトークンを受け付けるテスト用検証器。
type tokenVerifier struct{}

func (tokenVerifier) Verify(token string) (int64, error) {
	if token == "expired" {
		return 0, auth.ErrTokenExpired
	}
	raw, ok := strings.CutPrefix(token, "token-")
	if !ok {
		return 0, auth.ErrTokenInvalid
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, auth.ErrTokenInvalid
	}
	return id, nil
}

// --- ヘルパー ---

type testDeps struct {
	auth     *mockAuthService
	game     *mockGameService
	favorite *mockFavoriteService
	db       PingerFunc
	cache    Pinger
}

func newTestRouter(t *testing.T, d testDeps) http.Handler {
	t.Helper()

	if d.auth == nil {
		d.auth = &mockAuthService{}
	}
	if d.game == nil {
		d.game = &mockGameService{}
	}
	if d.favorite == nil {
		d.favorite = &mockFavoriteService{}
	}
	if d.db == nil {
		d.db = func(context.Context) error { return nil }
	}

	rl := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(1000, 1000))
	t.Cleanup(rl.Stop)

	return NewRouter(&RouterDeps{
		TokenVerifier:     tokenVerifier{},
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       rl,
		DatabasePinger:    d.db,
		CachePinger:       d.cache,
		AuthService:       d.auth,
		GameService:       d.game,
		FavoriteService:   d.favorite,
	})
}

// envelope はレスポンスの共通部分。
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"details"`
	} `json:"error"`
}

func doRequest(t *testing.T, h http.Handler, method, path, token string, body io.Reader) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("failed to decode response: %v\nbody: %s", err, w.Body.String())
		}
	}
	return w, env
}

func decodeData(t *testing.T, env envelope, dst any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("failed to decode data: %v\ndata: %s", err, env.Data)
	}
}

func assertErrorCode(t *testing.T, w *httptest.ResponseRecorder, env envelope, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Errorf("status = %d, want %d (body: %s)", w.Code, status, w.Body.String())
	}
	if env.Success {
		t.Error("success should be false")
	}
	if env.Error == nil {
		t.Fatalf("expected error object, body: %s", w.Body.String())
	}
	if env.Error.Code != code {
		t.Errorf("error.code = %q, want %q", env.Error.Code, code)
	}
}

var errDatabase = errors.New("pq: connection reset by peer")
