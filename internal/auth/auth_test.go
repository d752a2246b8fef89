package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/awwal/internal/progress"
	"github.com/abhisek/awwal/internal/remote"
)

type recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *recorder) listen(_ context.Context, s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) all() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

func newManager(t *testing.T, client *remote.MockClient) (*Manager, *progress.MemoryPersistence, *recorder) {
	t.Helper()
	store := progress.NewMemoryPersistence()
	m := NewManager(client, store)
	rec := &recorder{}
	m.Subscribe(rec.listen)
	return m, store, rec
}

func TestRestore_NoToken(t *testing.T) {
	client := remote.NewMockClient(nil)
	m, _, rec := newManager(t, client)

	st := m.Restore(context.Background())
	assert.False(t, st.IsAuthenticated)
	assert.Zero(t, client.CallCount("Me"))
	assert.Empty(t, rec.all())
}

func TestRestore_ValidToken(t *testing.T) {
	name := "Yusuf"
	client := remote.NewMockClient(nil)
	client.MeFunc = func(ctx context.Context, token string) (*remote.AuthResult, error) {
		assert.Equal(t, "stored", token)
		return &remote.AuthResult{
			User:  remote.User{ID: "u1", Email: "y@b.c", Name: &name},
			Stats: &remote.UserStats{StreakDays: 3, TotalLessonsCompleted: 7},
		}, nil
	}
	m, store, rec := newManager(t, client)
	require.NoError(t, store.Set(context.Background(), TokenKey, []byte("stored")))

	st := m.Restore(context.Background())
	assert.Equal(t, State{IsAuthenticated: true, Token: "stored"}, st)
	assert.Equal(t, "u1", m.User().ID)
	assert.Equal(t, 3, m.Stats().StreakDays)
	assert.Equal(t, []State{st}, rec.all())
}

func TestRestore_FailureDropsToken(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"rejected", &remote.ErrRemoteFetch{Endpoint: "/api/auth/me", StatusCode: 401, Err: errors.New("unauthorized")}},
		{"network", &remote.ErrRemoteFetch{Endpoint: "/api/auth/me", Err: errors.New("connection refused")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := remote.NewMockClient(nil)
			client.MeFunc = func(ctx context.Context, token string) (*remote.AuthResult, error) {
				return nil, tt.err
			}
			m, store, rec := newManager(t, client)
			ctx := context.Background()
			require.NoError(t, store.Set(ctx, TokenKey, []byte("stale")))

			st := m.Restore(ctx)
			assert.False(t, st.IsAuthenticated)

			_, ok, err := store.Get(ctx, TokenKey)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Empty(t, rec.all())
		})
	}
}

func TestLogin_Success(t *testing.T) {
	client := remote.NewMockClient(nil)
	client.LoginFunc = func(ctx context.Context, email, password string) (*remote.AuthResult, error) {
		return &remote.AuthResult{
			Token: "T1",
			User:  remote.User{ID: "u1", Email: email},
			Stats: &remote.UserStats{StreakDays: 2},
		}, nil
	}
	m, store, rec := newManager(t, client)
	ctx := context.Background()

	require.NoError(t, m.Login(ctx, "a@b.c", "pw"))

	assert.Equal(t, State{IsAuthenticated: true, Token: "T1"}, m.State())
	assert.Equal(t, 2, m.Stats().StreakDays)
	tok, ok, err := store.Get(ctx, TokenKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "T1", string(tok))
	assert.Equal(t, []State{{IsAuthenticated: true, Token: "T1"}}, rec.all())
}

func TestLogin_FailureKeepsMessage(t *testing.T) {
	client := remote.NewMockClient(nil)
	client.LoginFunc = func(ctx context.Context, email, password string) (*remote.AuthResult, error) {
		return nil, &remote.ErrAuth{Message: "Invalid email or password", StatusCode: 401}
	}
	m, store, rec := newManager(t, client)

	err := m.Login(context.Background(), "a@b.c", "bad")
	var authErr *remote.ErrAuth
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Invalid email or password", m.Err())
	assert.False(t, m.State().IsAuthenticated)
	assert.Empty(t, rec.all())

	_, ok, _ := store.Get(context.Background(), TokenKey)
	assert.False(t, ok)

	m.ClearError()
	assert.Empty(t, m.Err())
}

func TestLogin_NonAuthErrorUsesFallback(t *testing.T) {
	client := remote.NewMockClient(nil)
	client.LoginFunc = func(ctx context.Context, email, password string) (*remote.AuthResult, error) {
		return nil, errors.New("boom")
	}
	m, _, _ := newManager(t, client)

	require.Error(t, m.Login(context.Background(), "a@b.c", "pw"))
	assert.Equal(t, "Login failed", m.Err())
}

func TestLogin_ClearsPreviousError(t *testing.T) {
	client := remote.NewMockClient(nil)
	fail := true
	client.LoginFunc = func(ctx context.Context, email, password string) (*remote.AuthResult, error) {
		if fail {
			return nil, &remote.ErrAuth{Message: "nope"}
		}
		return &remote.AuthResult{Token: "T", User: remote.User{ID: "u"}}, nil
	}
	m, _, _ := newManager(t, client)

	require.Error(t, m.Login(context.Background(), "a@b.c", "pw"))
	fail = false
	require.NoError(t, m.Login(context.Background(), "a@b.c", "pw"))
	assert.Empty(t, m.Err())
}

func TestRegister_StatsStartAtZero(t *testing.T) {
	client := remote.NewMockClient(nil)
	client.RegisterFunc = func(ctx context.Context, email, password, name string) (*remote.AuthResult, error) {
		return &remote.AuthResult{
			Token: "T2",
			User:  remote.User{ID: "u2", Email: email},
			Stats: &remote.UserStats{StreakDays: 9},
		}, nil
	}
	m, _, rec := newManager(t, client)

	require.NoError(t, m.Register(context.Background(), "n@b.c", "pw", "Amina"))
	assert.Equal(t, &remote.UserStats{}, m.Stats())
	assert.Len(t, rec.all(), 1)
}

func TestRegister_Failure(t *testing.T) {
	client := remote.NewMockClient(nil)
	client.RegisterFunc = func(ctx context.Context, email, password, name string) (*remote.AuthResult, error) {
		return nil, &remote.ErrAuth{Message: "Email already registered", StatusCode: 409}
	}
	m, _, _ := newManager(t, client)

	require.Error(t, m.Register(context.Background(), "n@b.c", "pw", ""))
	assert.Equal(t, "Email already registered", m.Err())
}

func TestLogout_ClearsTokenAndProgress(t *testing.T) {
	client := remote.NewMockClient(nil)
	m, store, rec := newManager(t, client)
	ctx := context.Background()

	require.NoError(t, m.Login(ctx, "a@b.c", "pw"))
	p := progress.RecordLessonComplete(progress.Default(), "level-1", "lesson-1", nil, time.Now())
	require.NoError(t, progress.SaveProgress(ctx, store, p))

	require.NoError(t, m.Logout(ctx))

	assert.False(t, m.State().IsAuthenticated)
	assert.Nil(t, m.User())
	assert.Nil(t, m.Stats())
	_, ok, _ := store.Get(ctx, TokenKey)
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, progress.StorageKey)
	assert.False(t, ok)

	states := rec.all()
	require.Len(t, states, 2)
	assert.Equal(t, State{}, states[1])
}

func TestLogout_NotifiesDespiteDeleteFailure(t *testing.T) {
	client := remote.NewMockClient(nil)
	m, store, rec := newManager(t, client)
	ctx := context.Background()

	require.NoError(t, m.Login(ctx, "a@b.c", "pw"))
	store.SetFailures(nil, nil, errors.New("disk gone"))

	err := m.Logout(ctx)
	require.Error(t, err)
	var writeErr *progress.ErrStorageWrite
	assert.ErrorAs(t, err, &writeErr)

	states := rec.all()
	require.Len(t, states, 2)
	assert.False(t, states[1].IsAuthenticated)
}

func TestLogin_TokenPersistFailureStillAuthenticates(t *testing.T) {
	client := remote.NewMockClient(nil)
	m, store, _ := newManager(t, client)
	store.SetFailures(nil, errors.New("read-only"), nil)

	require.NoError(t, m.Login(context.Background(), "a@b.c", "pw"))
	assert.True(t, m.State().IsAuthenticated)
}

func TestReLoginSameTokenDoesNotRenotify(t *testing.T) {
	client := remote.NewMockClient(nil)
	m, _, rec := newManager(t, client)
	ctx := context.Background()

	require.NoError(t, m.Login(ctx, "a@b.c", "pw"))
	require.NoError(t, m.Login(ctx, "a@b.c", "pw"))
	assert.Len(t, rec.all(), 1)
}
