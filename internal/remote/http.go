package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	pathLogin    = "/api/auth/login"
	pathRegister = "/api/auth/register"
	pathMe       = "/api/auth/me"
	pathProgress = "/api/progress"
	pathComplete = "/api/progress/complete"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 1 << 20

var errMissingToken = errors.New("missing session token")

// HTTPClient talks to the account API over HTTP.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.client.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client. Its Transport is
// reused for authenticated requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.client = hc }
}

// NewHTTPClient creates a client for the API at baseURL.
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: DefaultConfig().Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig creates a client from cfg, wrapped with retries.
func NewFromConfig(cfg Config) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base := NewHTTPClient(cfg.BaseURL, WithTimeout(cfg.Timeout))
	return WithRetry(base, cfg.Retry), nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type completeRequest struct {
	LevelID  string `json:"levelId"`
	LessonID string `json:"lessonId"`
}

type errorBody struct {
	Message string `json:"message"`
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	return c.authenticate(ctx, pathLogin, credentials{Email: email, Password: password}, "Login failed")
}

func (c *HTTPClient) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	res, err := c.authenticate(ctx, pathRegister, credentials{Email: email, Password: password, Name: name}, "Registration failed")
	if err != nil {
		return nil, err
	}
	if res.Stats == nil {
		res.Stats = &UserStats{}
	}
	return res, nil
}

func (c *HTTPClient) authenticate(ctx context.Context, path string, body credentials, fallback string) (*AuthResult, error) {
	resp, err := c.do(ctx, c.client, http.MethodPost, path, body)
	if err != nil {
		return nil, &ErrAuth{Message: fallback, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &ErrAuth{Message: fallback, StatusCode: resp.StatusCode, Err: err}
	}

	if !isSuccess(resp.StatusCode) {
		msg := fallback
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil && eb.Message != "" {
			msg = eb.Message
		}
		return nil, &ErrAuth{
			Message:    msg,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d for %s", resp.StatusCode, path),
		}
	}

	var res AuthResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, &ErrAuth{Message: fallback, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if res.Token == "" {
		return nil, &ErrAuth{Message: fallback, StatusCode: resp.StatusCode, Err: errMissingToken}
	}
	return &res, nil
}

func (c *HTTPClient) Me(ctx context.Context, token string) (*AuthResult, error) {
	var res AuthResult
	if err := c.fetch(ctx, token, pathMe, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) FetchProgress(ctx context.Context, token string) (*ProgressResponse, error) {
	var res ProgressResponse
	if err := c.fetch(ctx, token, pathProgress, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) fetch(ctx context.Context, token, path string, out any) error {
	if token == "" {
		return &ErrRemoteFetch{Endpoint: path, Err: errMissingToken}
	}

	resp, err := c.do(ctx, c.authed(token), http.MethodGet, path, nil)
	if err != nil {
		return &ErrRemoteFetch{Endpoint: path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if !isSuccess(resp.StatusCode) {
		return &ErrRemoteFetch{
			Endpoint:   path,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return &ErrRemoteFetch{Endpoint: path, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *HTTPClient) CompleteLesson(ctx context.Context, token, levelID, lessonID string) error {
	if token == "" {
		return &ErrRemoteSync{LevelID: levelID, LessonID: lessonID, Err: errMissingToken}
	}

	resp, err := c.do(ctx, c.authed(token), http.MethodPost, pathComplete, completeRequest{LevelID: levelID, LessonID: lessonID})
	if err != nil {
		return &ErrRemoteSync{LevelID: levelID, LessonID: lessonID, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	if !isSuccess(resp.StatusCode) {
		return &ErrRemoteSync{
			LevelID:    levelID,
			LessonID:   lessonID,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}
	return nil
}

// authed returns a client that sends token as a bearer credential over the
// same transport and timeout as the base client.
func (c *HTTPClient) authed(token string) *http.Client {
	return &http.Client{
		Timeout: c.client.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   c.client.Transport,
		},
	}
}

func (c *HTTPClient) do(ctx context.Context, hc *http.Client, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return hc.Do(req)
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
