package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Client is the account API the progress core talks to. Implementations
// must be safe for concurrent use.
type Client interface {
	// Login exchanges credentials for a session token.
	// Rejections are returned as *ErrAuth.
	Login(ctx context.Context, email, password string) (*AuthResult, error)

	// Register creates an account and returns its session token.
	// Rejections are returned as *ErrAuth.
	Register(ctx context.Context, email, password, name string) (*AuthResult, error)

	// Me resolves a stored token to its user.
	Me(ctx context.Context, token string) (*AuthResult, error)

	// FetchProgress returns the progress held by the account.
	FetchProgress(ctx context.Context, token string) (*ProgressResponse, error)

	// CompleteLesson mirrors a local completion to the account.
	CompleteLesson(ctx context.Context, token, levelID, lessonID string) error
}

// User is the account owner.
type User struct {
	ID    string  `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

// UserStats are the headline numbers the auth endpoints return.
type UserStats struct {
	StreakDays            int `json:"streakDays"`
	TotalLessonsCompleted int `json:"totalLessonsCompleted"`
}

// AuthResult is the body of a successful login, register or me call.
// Token is empty for me.
type AuthResult struct {
	Token string     `json:"token"`
	User  User       `json:"user"`
	Stats *UserStats `json:"stats"`
}

// ProgressResponse is the body of GET /api/progress.
type ProgressResponse struct {
	Progress []RemoteCompletion `json:"progress"`
	Stats    *ProgressStats     `json:"stats"`
}

// RemoteCompletion is one server-side completion. The server does not
// round-trip scores in this shape.
type RemoteCompletion struct {
	LevelID     string    `json:"levelId"`
	LessonID    string    `json:"lessonId"`
	CompletedAt Timestamp `json:"completedAt"`
}

// ProgressStats are the streak numbers stored with the account.
type ProgressStats struct {
	StreakDays            int       `json:"streakDays"`
	LastActivityDate      Timestamp `json:"lastActivityDate"`
	TotalLessonsCompleted int       `json:"totalLessonsCompleted"`
}

// Timestamp decodes a point in time sent either as an ISO-8601 string or
// as epoch milliseconds. null and "" decode to the zero time.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			t.Time = time.Time{}
			return nil
		}
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				t.Time = parsed
				return nil
			}
		}
		return fmt.Errorf("unrecognized timestamp %q", s)
	}

	ms, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(string(data), 64)
		if ferr != nil {
			return fmt.Errorf("unrecognized timestamp %s", data)
		}
		ms = int64(f)
	}
	t.Time = time.UnixMilli(ms)
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
