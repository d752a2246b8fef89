package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncEvents_AppendAndQuery(t *testing.T) {
	repo := openTestStore(t).SyncEventRepo()
	ctx := context.Background()

	base := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.AppendSyncEvent(ctx, SyncEventData{
		EventID: "e1", Kind: "complete", LevelID: "level-1", LessonID: "lesson-1",
		Success: true, Timestamp: base,
	}))
	require.NoError(t, repo.AppendSyncEvent(ctx, SyncEventData{
		EventID: "e2", Kind: "fetch", Success: false, ErrorMessage: "HTTP 503",
		Timestamp: base.Add(time.Minute),
	}))

	events, err := repo.QuerySyncEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Newest first.
	assert.Equal(t, "e2", events[0].EventID)
	assert.Equal(t, int64(2), events[0].Sequence)
	assert.False(t, events[0].Success)
	assert.Equal(t, "HTTP 503", events[0].ErrorMessage)
	assert.True(t, events[0].Timestamp.Equal(base.Add(time.Minute)))

	assert.Equal(t, "e1", events[1].EventID)
	assert.Equal(t, "level-1", events[1].LevelID)
	assert.Equal(t, "lesson-1", events[1].LessonID)
	assert.True(t, events[1].Success)
}

func TestSyncEvents_Filters(t *testing.T) {
	repo := openTestStore(t).SyncEventRepo()
	ctx := context.Background()

	base := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	for i := range 6 {
		require.NoError(t, repo.AppendSyncEvent(ctx, SyncEventData{
			EventID:   fmt.Sprintf("e%d", i+1),
			Kind:      "complete",
			Success:   i%2 == 0,
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	tests := []struct {
		name string
		opts QueryOpts
		want []int64
	}{
		{"limit", QueryOpts{Limit: 2}, []int64{6, 5}},
		{"after", QueryOpts{After: 4}, []int64{6, 5}},
		{"before", QueryOpts{Before: 3}, []int64{2, 1}},
		{"from", QueryOpts{From: base.Add(4 * time.Hour)}, []int64{6, 5}},
		{"to", QueryOpts{To: base.Add(time.Hour)}, []int64{2, 1}},
		{"failed only", QueryOpts{FailedOnly: true}, []int64{6, 4, 2}},
		{"combined", QueryOpts{After: 1, FailedOnly: true, Limit: 2}, []int64{6, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := repo.QuerySyncEvents(ctx, tt.opts)
			require.NoError(t, err)
			var got []int64
			for _, e := range events {
				got = append(got, e.Sequence)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSyncEvents_ZeroTimestampDefaultsToNow(t *testing.T) {
	repo := openTestStore(t).SyncEventRepo()
	ctx := context.Background()

	before := time.Now().Add(-time.Second)
	require.NoError(t, repo.AppendSyncEvent(ctx, SyncEventData{EventID: "e", Kind: "fetch", Success: true}))

	events, err := repo.QuerySyncEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].Timestamp.After(before))
}

func TestSyncEvents_SharedSequenceWithSnapshots(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seq, err := s.seq.Next(ctx)
	require.NoError(t, err)
	require.NoError(t, s.SyncEventRepo().AppendSyncEvent(ctx, SyncEventData{EventID: "e", Kind: "fetch"}))

	events, err := s.SyncEventRepo().QuerySyncEvents(ctx, QueryOpts{After: seq})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, seq+1, events[0].Sequence)
}
