package favorite

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hitoshi/gamelobby/internal/model"
	"github.com/hitoshi/gamelobby/internal/repository"
)

// --- モック定義 ---

type mockFavoriteRepo struct {
	listByUserFn  func(ctx context.Context, userID int64) ([]model.FavoriteGame, error)
	existsFn      func(ctx context.Context, userID, gameID int64) (bool, error)
	addFn         func(ctx context.Context, userID, gameID int64) (*model.Favorite, bool, error)
	removeFn      func(ctx context.Context, userID, gameID int64) (bool, error)
	countByGameFn func(ctx context.Context, gameID int64) (int, error)
}

func (m *mockFavoriteRepo) ListByUser(ctx context.Context, userID int64) ([]model.FavoriteGame, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockFavoriteRepo) Exists(ctx context.Context, userID, gameID int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, userID, gameID)
	}
	return false, nil
}

func (m *mockFavoriteRepo) Add(ctx context.Context, userID, gameID int64) (*model.Favorite, bool, error) {
	if m.addFn != nil {
		return m.addFn(ctx, userID, gameID)
	}
	return &model.Favorite{ID: 1, UserID: userID, GameID: gameID}, true, nil
}

func (m *mockFavoriteRepo) Remove(ctx context.Context, userID, gameID int64) (bool, error) {
	if m.removeFn != nil {
		return m.removeFn(ctx, userID, gameID)
	}
	return false, nil
}

func (m *mockFavoriteRepo) CountByGame(ctx context.Context, gameID int64) (int, error) {
	if m.countByGameFn != nil {
		return m.countByGameFn(ctx, gameID)
	}
	return 0, nil
}

var _ repository.FavoriteRepository = (*mockFavoriteRepo)(nil)

// memoryFavoriteRepo は(user, game)の組を保持するインメモリ実装。
type memoryFavoriteRepo struct {
	mu     sync.Mutex
	nextID int64
	games  map[int64]bool
	favs   map[[2]int64]*model.Favorite
}

func newMemoryFavoriteRepo(gameIDs ...int64) *memoryFavoriteRepo {
	r := &memoryFavoriteRepo{
		games: make(map[int64]bool),
		favs:  make(map[[2]int64]*model.Favorite),
	}
	for _, id := range gameIDs {
		r.games[id] = true
	}
	return r
}

func (r *memoryFavoriteRepo) ListByUser(_ context.Context, userID int64) ([]model.FavoriteGame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.FavoriteGame
	for k, f := range r.favs {
		if k[0] == userID {
			out = append(out, model.FavoriteGame{GameID: f.GameID, FavoritedAt: f.CreatedAt})
		}
	}
	return out, nil
}

func (r *memoryFavoriteRepo) Exists(_ context.Context, userID, gameID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.favs[[2]int64{userID, gameID}]
	return ok, nil
}

func (r *memoryFavoriteRepo) Add(_ context.Context, userID, gameID int64) (*model.Favorite, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.games[gameID] {
		return nil, false, repository.ErrGameNotFound
	}
	key := [2]int64{userID, gameID}
	if f, ok := r.favs[key]; ok {
		copied := *f
		return &copied, false, nil
	}
	r.nextID++
	f := &model.Favorite{ID: r.nextID, UserID: userID, GameID: gameID, CreatedAt: time.Now()}
	r.favs[key] = f
	copied := *f
	return &copied, true, nil
}

func (r *memoryFavoriteRepo) Remove(_ context.Context, userID, gameID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]int64{userID, gameID}
	if _, ok := r.favs[key]; !ok {
		return false, nil
	}
	delete(r.favs, key)
	return true, nil
}

func (r *memoryFavoriteRepo) CountByGame(_ context.Context, gameID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k := range r.favs {
		if k[1] == gameID {
			n++
		}
	}
	return n, nil
}

type mockRecorder struct {
	mu     sync.Mutex
	events []string
}

func (m *mockRecorder) RecordFavoriteOp(op, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, op+":"+outcome)
}

func (m *mockRecorder) recorded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.events...)
}

// --- ListFavorites ---

func TestService_ListFavorites_Empty_ReturnsNonNilSlice(t *testing.T) {
	svc := NewService(&mockFavoriteRepo{}, nil)

	favs, err := svc.ListFavorites(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, favs)
	assert.Empty(t, favs)
}

func TestService_ListFavorites_RepoError_IsWrapped(t *testing.T) {
	dbErr := errors.New("connection refused")
	svc := NewService(&mockFavoriteRepo{
		listByUserFn: func(context.Context, int64) ([]model.FavoriteGame, error) {
			return nil, dbErr
		},
	}, nil)

	_, err := svc.ListFavorites(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
}

// --- IsFavorited ---

func TestService_IsFavorited_InvalidGameID(t *testing.T) {
	svc := NewService(&mockFavoriteRepo{}, nil)

	for _, id := range []int64{0, -3} {
		_, err := svc.IsFavorited(context.Background(), 1, id)
		apiErr, ok := model.AsAPIError(err)
		require.True(t, ok, "expected APIError for gameID %d", id)
		assert.Equal(t, model.ErrCodeInvalidGameID, apiErr.Code)
	}
}

// --- AddFavorite ---

func TestService_AddFavorite_FirstTime_Created(t *testing.T) {
	repo := newMemoryFavoriteRepo(7)
	rec := &mockRecorder{}
	svc := NewService(repo, rec)

	result, err := svc.AddFavorite(context.Background(), 1, 7)
	require.NoError(t, err)
	assert.False(t, result.AlreadyFavorited)
	assert.Equal(t, int64(1), result.Favorite.UserID)
	assert.Equal(t, int64(7), result.Favorite.GameID)
	assert.Equal(t, []string{"add:created"}, rec.recorded())
}

func TestService_AddFavorite_Twice_ReturnsExistingRecord(t *testing.T) {
	repo := newMemoryFavoriteRepo(7)
	svc := NewService(repo, nil)
	ctx := context.Background()

	first, err := svc.AddFavorite(ctx, 1, 7)
	require.NoError(t, err)

	second, err := svc.AddFavorite(ctx, 1, 7)
	require.NoError(t, err)
	assert.True(t, second.AlreadyFavorited)
	assert.Equal(t, first.Favorite.ID, second.Favorite.ID)

	count, err := svc.FavoriteCount(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestService_AddFavorite_UnknownGame_ReturnsGameNotFound(t *testing.T) {
	repo := newMemoryFavoriteRepo()
	rec := &mockRecorder{}
	svc := NewService(repo, rec)

	_, err := svc.AddFavorite(context.Background(), 1, 999)
	apiErr, ok := model.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, model.KindNotFound, apiErr.Kind)
	assert.Equal(t, model.ErrCodeGameNotFound, apiErr.Code)
	assert.Equal(t, []string{"add:game_not_found"}, rec.recorded())
}

func TestService_AddFavorite_DeletedUser_ReturnsInvalidToken(t *testing.T) {
	rec := &mockRecorder{}
	svc := NewService(&mockFavoriteRepo{
		addFn: func(context.Context, int64, int64) (*model.Favorite, bool, error) {
			return nil, false, repository.ErrUserNotFound
		},
	}, rec)

	_, err := svc.AddFavorite(context.Background(), 99, 7)
	apiErr, ok := model.AsAPIError(err)
	require.True(t, ok, "expected APIError, got %v", err)
	assert.Equal(t, model.KindUnauthorized, apiErr.Kind)
	assert.Equal(t, model.ErrCodeInvalidToken, apiErr.Code)
	assert.Equal(t, []string{"add:user_not_found"}, rec.recorded())
}

func TestService_AddFavorite_RepoError_IsWrapped(t *testing.T) {
	dbErr := errors.New("deadlock detected")
	svc := NewService(&mockFavoriteRepo{
		addFn: func(context.Context, int64, int64) (*model.Favorite, bool, error) {
			return nil, false, dbErr
		},
	}, nil)

	_, err := svc.AddFavorite(context.Background(), 1, 7)
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	_, isAPI := model.AsAPIError(err)
	assert.False(t, isAPI)
}

func TestService_AddFavorite_Concurrent_SingleRecord(t *testing.T) {
	repo := newMemoryFavoriteRepo(7)
	svc := NewService(repo, nil)
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.AddFavorite(ctx, 1, 7)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if !result.AlreadyFavorited {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	count, err := svc.FavoriteCount(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

// --- RemoveFavorite ---

func TestService_RemoveFavorite_Idempotent(t *testing.T) {
	repo := newMemoryFavoriteRepo(7)
	rec := &mockRecorder{}
	svc := NewService(repo, rec)
	ctx := context.Background()

	_, err := svc.AddFavorite(ctx, 1, 7)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveFavorite(ctx, 1, 7))
	require.NoError(t, svc.RemoveFavorite(ctx, 1, 7))

	ok, err := svc.IsFavorited(ctx, 1, 7)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"add:created", "remove:removed", "remove:not_favorited"}, rec.recorded())
}

func TestService_RemoveFavorite_NotFavorited_Succeeds(t *testing.T) {
	svc := NewService(newMemoryFavoriteRepo(), nil)

	err := svc.RemoveFavorite(context.Background(), 1, 12345)
	assert.NoError(t, err)
}

// --- ToggleFavorite ---

func TestService_ToggleFavorite_FlipsState(t *testing.T) {
	repo := newMemoryFavoriteRepo(7)
	svc := NewService(repo, nil)
	ctx := context.Background()

	on, err := svc.ToggleFavorite(ctx, 1, 7)
	require.NoError(t, err)
	assert.True(t, on.IsFavorite)
	require.NotNil(t, on.Favorite)
	assert.Equal(t, int64(7), on.Favorite.GameID)

	off, err := svc.ToggleFavorite(ctx, 1, 7)
	require.NoError(t, err)
	assert.False(t, off.IsFavorite)
	assert.Nil(t, off.Favorite)

	ok, err := svc.IsFavorited(ctx, 1, 7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_ToggleFavorite_UnknownGame_ReturnsGameNotFound(t *testing.T) {
	svc := NewService(newMemoryFavoriteRepo(), nil)

	_, err := svc.ToggleFavorite(context.Background(), 1, 42)
	apiErr, ok := model.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, model.ErrCodeGameNotFound, apiErr.Code)
}

func TestService_ToggleFavorite_OtherUserUnaffected(t *testing.T) {
	repo := newMemoryFavoriteRepo(7)
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.AddFavorite(ctx, 2, 7)
	require.NoError(t, err)

	result, err := svc.ToggleFavorite(ctx, 1, 7)
	require.NoError(t, err)
	assert.True(t, result.IsFavorite)

	count, err := svc.FavoriteCount(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
