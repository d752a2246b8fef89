package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/awwal/internal/auth"
	"github.com/abhisek/awwal/internal/progress"
	"github.com/abhisek/awwal/internal/store"
)

func TestClip(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"letters/alif", 28, "letters/alif"},
		{"abcdef", 3, "abc"},
		{"حروف/ألف", 6, "حروف/أ"},
		{"", 5, ""},
	}
	for _, tt := range tests {
		got := clip(tt.in, tt.n)
		assert.Equal(t, tt.want, got)
		assert.LessOrEqual(t, len([]rune(got)), tt.n)
	}
}

func TestCompleteRecordsLocallyWhenAccountIsDown(t *testing.T) {
	var meCalls, completeCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/me":
			meCalls.Add(1)
		case "/api/progress/complete":
			completeCalls.Add(1)
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "awwal.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.KV().Set(ctx, auth.TokenKey, []byte("T1")))
	require.NoError(t, st.Close())

	rootCmd.SetArgs([]string{"complete", "letters", "alif", "--db", dbPath, "--api-url", srv.URL})
	require.NoError(t, rootCmd.ExecuteContext(ctx))

	st, err = store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	p, err := progress.LoadProgress(ctx, st.KV())
	require.NoError(t, err)
	assert.True(t, progress.IsLessonCompleted(p, "letters", "alif"))
	assert.Positive(t, meCalls.Load())
	assert.Zero(t, completeCalls.Load())
}
