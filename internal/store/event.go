package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// sequenceCounter manages the global monotonic sequence number shared by
// sync events and snapshots, so a snapshot can tell which sync attempts
// happened after it.
//
// The mutex serializes within the process; the RETURNING clause makes the
// increment atomic at the database level.
type sequenceCounter struct {
	mu  sync.Mutex
	drv *entsql.Driver
}

// newSequenceCounter creates a counter and ensures the tracking table exists.
func newSequenceCounter(drv *entsql.Driver) (*sequenceCounter, error) {
	ctx := context.Background()

	err := drv.Exec(ctx, `CREATE TABLE IF NOT EXISTS global_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next_val INTEGER NOT NULL DEFAULT 1
	)`, []any{}, nil)
	if err != nil {
		return nil, fmt.Errorf("create sequence table: %w", err)
	}

	err = drv.Exec(ctx, `INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`, []any{}, nil)
	if err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}

	return &sequenceCounter{drv: drv}, nil
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var rows entsql.Rows
	err := sc.drv.Query(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
		[]any{}, &rows,
	)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, fmt.Errorf("next sequence: %w", err)
		}
		return 0, fmt.Errorf("next sequence: no row returned")
	}
	var seq int64
	if err := rows.Scan(&seq); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}

const syncEventsTable = "sync_events"

// syncEventRepo implements SyncEventRepo backed by the SQL driver and the
// global sequence counter.
type syncEventRepo struct {
	drv *entsql.Driver
	seq *sequenceCounter
}

func (r *syncEventRepo) AppendSyncEvent(ctx context.Context, data SyncEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	ts := data.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(syncEventsTable).
		Columns("sequence", "event_id", "kind", "level_id", "lesson_id", "success", "error_message", "timestamp").
		Values(seqNum, data.EventID, data.Kind, data.LevelID, data.LessonID, data.Success, data.ErrorMessage, ts.UnixMilli()).
		Query()

	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save sync event: %w", err)
	}
	return nil
}

func (r *syncEventRepo) QuerySyncEvents(ctx context.Context, opts QueryOpts) ([]SyncEventData, error) {
	t := entsql.Table(syncEventsTable)
	sel := entsql.Dialect(dialect.SQLite).
		Select(
			t.C("sequence"), t.C("event_id"), t.C("kind"), t.C("level_id"),
			t.C("lesson_id"), t.C("success"), t.C("error_message"), t.C("timestamp"),
		).
		From(t).
		OrderBy(entsql.Desc(t.C("sequence")))

	if opts.After > 0 {
		sel.Where(entsql.GT(t.C("sequence"), opts.After))
	}
	if opts.Before > 0 {
		sel.Where(entsql.LT(t.C("sequence"), opts.Before))
	}
	if !opts.From.IsZero() {
		sel.Where(entsql.GTE(t.C("timestamp"), opts.From.UnixMilli()))
	}
	if !opts.To.IsZero() {
		sel.Where(entsql.LTE(t.C("timestamp"), opts.To.UnixMilli()))
	}
	if opts.FailedOnly {
		sel.Where(entsql.EQ(t.C("success"), false))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query sync events: %w", err)
	}
	defer rows.Close()

	var events []SyncEventData
	for rows.Next() {
		var (
			e  SyncEventData
			ms int64
		)
		if err := rows.Scan(&e.Sequence, &e.EventID, &e.Kind, &e.LevelID, &e.LessonID, &e.Success, &e.ErrorMessage, &ms); err != nil {
			return nil, fmt.Errorf("scan sync event: %w", err)
		}
		e.Timestamp = time.UnixMilli(ms)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query sync events: %w", err)
	}
	return events, nil
}
