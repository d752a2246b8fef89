package remote

import (
	"context"
	"sync"
)

// MockCall records one call made to a MockClient.
type MockCall struct {
	Method   string
	Token    string
	Email    string
	LevelID  string
	LessonID string
}

// MockClient is a deterministic Client for testing. Each method delegates
// to its func field when set; otherwise it succeeds with an empty result
// (or, for FetchProgress, with FetchResponse). All calls are recorded.
type MockClient struct {
	mu    sync.Mutex
	calls []MockCall

	LoginFunc    func(ctx context.Context, email, password string) (*AuthResult, error)
	RegisterFunc func(ctx context.Context, email, password, name string) (*AuthResult, error)
	MeFunc       func(ctx context.Context, token string) (*AuthResult, error)
	FetchFunc    func(ctx context.Context, token string) (*ProgressResponse, error)
	CompleteFunc func(ctx context.Context, token, levelID, lessonID string) error

	FetchResponse *ProgressResponse
}

// NewMockClient creates a MockClient whose FetchProgress returns resp.
func NewMockClient(resp *ProgressResponse) *MockClient {
	return &MockClient{FetchResponse: resp}
}

func (m *MockClient) record(c MockCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
}

func (m *MockClient) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	m.record(MockCall{Method: "Login", Email: email})
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return &AuthResult{Token: "mock-token", User: User{ID: "mock", Email: email}, Stats: &UserStats{}}, nil
}

func (m *MockClient) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	m.record(MockCall{Method: "Register", Email: email})
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, email, password, name)
	}
	return &AuthResult{Token: "mock-token", User: User{ID: "mock", Email: email}, Stats: &UserStats{}}, nil
}

func (m *MockClient) Me(ctx context.Context, token string) (*AuthResult, error) {
	m.record(MockCall{Method: "Me", Token: token})
	if m.MeFunc != nil {
		return m.MeFunc(ctx, token)
	}
	return &AuthResult{User: User{ID: "mock"}, Stats: &UserStats{}}, nil
}

func (m *MockClient) FetchProgress(ctx context.Context, token string) (*ProgressResponse, error) {
	m.record(MockCall{Method: "FetchProgress", Token: token})
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, token)
	}
	if m.FetchResponse != nil {
		return m.FetchResponse, nil
	}
	return &ProgressResponse{}, nil
}

func (m *MockClient) CompleteLesson(ctx context.Context, token, levelID, lessonID string) error {
	m.record(MockCall{Method: "CompleteLesson", Token: token, LevelID: levelID, LessonID: lessonID})
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, token, levelID, lessonID)
	}
	return nil
}

// Calls returns a copy of the recorded calls.
func (m *MockClient) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times method was called.
func (m *MockClient) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}
