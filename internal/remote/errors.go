package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrRemoteFetch indicates a read from the account API failed: network
// error, timeout, non-2xx status or an undecodable body. StatusCode is 0
// when no response was received.
type ErrRemoteFetch struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *ErrRemoteFetch) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d: %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Endpoint, e.Err)
}

func (e *ErrRemoteFetch) Unwrap() error { return e.Err }

// ErrRemoteSync indicates mirroring a completion to the account failed.
type ErrRemoteSync struct {
	LevelID    string
	LessonID   string
	StatusCode int
	Err        error
}

func (e *ErrRemoteSync) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("sync %s/%s: HTTP %d: %v", e.LevelID, e.LessonID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("sync %s/%s: %v", e.LevelID, e.LessonID, e.Err)
}

func (e *ErrRemoteSync) Unwrap() error { return e.Err }

// ErrAuth indicates the account API rejected a login or registration.
// Message is meant to be shown to the learner verbatim.
type ErrAuth struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *ErrAuth) Error() string {
	return e.Message
}

func (e *ErrAuth) Unwrap() error { return e.Err }

// StatusCode extracts the HTTP status from a remote error, or 0.
func StatusCode(err error) int {
	var fetch *ErrRemoteFetch
	if errors.As(err, &fetch) {
		return fetch.StatusCode
	}
	var sync *ErrRemoteSync
	if errors.As(err, &sync) {
		return sync.StatusCode
	}
	var auth *ErrAuth
	if errors.As(err, &auth) {
		return auth.StatusCode
	}
	return 0
}

// IsUnauthorized reports whether the server rejected the session token.
func IsUnauthorized(err error) bool {
	code := StatusCode(err)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}
