package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// StorageKey is the fixed key the progress record is persisted under.
const StorageKey = "awwal-arabic-hub-progress"

// Persistence is a key-value blob store. Get reports ok=false for a
// missing key; that is not an error.
type Persistence interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// LoadProgress reads the persisted record. The returned record is always
// usable: a missing key yields the default record and a nil error, while
// read, parse and validation failures yield the default record together
// with an *ErrStorageRead describing what went wrong.
func LoadProgress(ctx context.Context, store Persistence) (LearnerProgress, error) {
	raw, ok, err := store.Get(ctx, StorageKey)
	if err != nil {
		return Default(), &ErrStorageRead{Key: StorageKey, Err: err}
	}
	if !ok || len(raw) == 0 {
		return Default(), nil
	}

	p, err := decode(raw)
	if err != nil {
		return Default(), &ErrStorageRead{Key: StorageKey, Err: err}
	}
	return p, nil
}

// SaveProgress writes the full record as a single blob.
func SaveProgress(ctx context.Context, store Persistence, p LearnerProgress) error {
	raw, err := json.Marshal(normalize(p))
	if err != nil {
		return &ErrStorageWrite{Key: StorageKey, Err: fmt.Errorf("marshal: %w", err)}
	}
	if err := store.Set(ctx, StorageKey, raw); err != nil {
		return &ErrStorageWrite{Key: StorageKey, Err: err}
	}
	return nil
}

// ClearProgress removes the persisted record.
func ClearProgress(ctx context.Context, store Persistence) error {
	if err := store.Delete(ctx, StorageKey); err != nil {
		return &ErrStorageWrite{Key: StorageKey, Err: err}
	}
	return nil
}

// decode validates raw against the record schema and unmarshals it.
// Absent fields take their zero value.
func decode(raw []byte) (LearnerProgress, error) {
	if err := validateRecord(raw); err != nil {
		return LearnerProgress{}, err
	}
	var p LearnerProgress
	if err := json.Unmarshal(raw, &p); err != nil {
		return LearnerProgress{}, fmt.Errorf("unmarshal: %w", err)
	}
	return normalize(p), nil
}

// MemoryPersistence is an in-process Persistence. Errors can be injected
// to exercise degraded paths.
type MemoryPersistence struct {
	mu   sync.Mutex
	data map[string][]byte

	GetErr    error
	SetErr    error
	DeleteErr error
}

// NewMemoryPersistence creates an empty MemoryPersistence.
func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{data: make(map[string][]byte)}
}

func (m *MemoryPersistence) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, false, m.GetErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *MemoryPersistence) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	return nil
}

func (m *MemoryPersistence) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.data, key)
	return nil
}

// SetFailures replaces the injected errors under the lock.
func (m *MemoryPersistence) SetFailures(get, set, del error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetErr, m.SetErr, m.DeleteErr = get, set, del
}
