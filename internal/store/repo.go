package store

import (
	"context"
	"time"

	"github.com/abhisek/awwal/internal/progress"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To

	FailedOnly bool
}

// SyncEventData captures one background exchange with the account API.
type SyncEventData struct {
	Sequence     int64
	EventID      string
	Kind         string // "complete", "fetch"
	LevelID      string
	LessonID     string
	Success      bool
	ErrorMessage string
	Timestamp    time.Time
}

// SyncEventRepo provides append and query access to the sync log.
type SyncEventRepo interface {
	// AppendSyncEvent records a sync attempt. Sequence is assigned by the
	// store; a zero Timestamp is replaced with the current time.
	AppendSyncEvent(ctx context.Context, data SyncEventData) error

	// QuerySyncEvents returns events newest first.
	QuerySyncEvents(ctx context.Context, opts QueryOpts) ([]SyncEventData, error)
}

// SnapshotData captures the learner record at a point in time.
type SnapshotData struct {
	Version  int                      `json:"version"`
	Progress progress.LearnerProgress `json:"progress"`
}

// Snapshot represents a point-in-time capture of learner state.
type Snapshot struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	Reason    string
	Data      SnapshotData
}

// SnapshotRepo manages learner state snapshots.
type SnapshotRepo interface {
	// Save stores a new snapshot.
	Save(ctx context.Context, snap *Snapshot) error

	// Latest returns the most recent snapshot, or nil if none exist.
	Latest(ctx context.Context) (*Snapshot, error)

	// Prune deletes all but the N most recent snapshots.
	Prune(ctx context.Context, keep int) error
}
