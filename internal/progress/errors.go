package progress

import "fmt"

// ErrStorageRead indicates the persisted record could not be read or
// decoded. LoadProgress returns it alongside the default record.
type ErrStorageRead struct {
	Key string
	Err error
}

func (e *ErrStorageRead) Error() string {
	return fmt.Sprintf("read progress %q: %v", e.Key, e.Err)
}

func (e *ErrStorageRead) Unwrap() error { return e.Err }

// ErrStorageWrite indicates the record could not be persisted. The
// in-memory record stays authoritative until the next successful write.
type ErrStorageWrite struct {
	Key string
	Err error
}

func (e *ErrStorageWrite) Error() string {
	return fmt.Sprintf("write progress %q: %v", e.Key, e.Err)
}

func (e *ErrStorageWrite) Unwrap() error { return e.Err }
