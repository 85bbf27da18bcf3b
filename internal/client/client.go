package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/lazypower/rhythm/internal/model"
)

const (
	defaultServerURL = "http://127.0.0.1:37778"
	httpTimeout      = 5 * time.Second
)

// Client talks to a running rhythm server. It is what the check-in
// commands use so they never open the database themselves.
type Client struct {
	http      *http.Client
	serverURL string
}

// New creates a client for serverURL. An empty serverURL respects the
// RHYTHM_URL env var, falling back to http://127.0.0.1:37778.
func New(serverURL string) *Client {
	if serverURL == "" {
		serverURL = os.Getenv("RHYTHM_URL")
	}
	if serverURL == "" {
		serverURL = defaultServerURL
	}
	return &Client{
		http:      &http.Client{Timeout: httpTimeout},
		serverURL: serverURL,
	}
}

// StatusError is returned for any 4xx or 5xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, body)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response %s: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		msg := string(bytes.TrimSpace(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: msg}
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return nil
}

func subjectPath(id, rest string) string {
	return "/api/subjects/" + url.PathEscape(id) + rest
}

// Healthy checks if the server is reachable.
func (c *Client) Healthy(ctx context.Context) bool {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil) == nil
}

// CreateSubject registers a subject.
func (c *Client) CreateSubject(ctx context.Context, s model.Subject) (*model.Subject, error) {
	var out model.Subject
	if err := c.do(ctx, http.MethodPost, "/api/subjects", s, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RecordMoment appends a moment for the subject.
func (c *Client) RecordMoment(ctx context.Context, subjectID string, m model.Moment) (*model.Moment, error) {
	var out model.Moment
	if err := c.do(ctx, http.MethodPost, subjectPath(subjectID, "/moments"), m, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RecordState appends a state vector for the subject.
func (c *Client) RecordState(ctx context.Context, subjectID string, v model.StateVector) (*model.StateVector, error) {
	var out model.StateVector
	if err := c.do(ctx, http.MethodPost, subjectPath(subjectID, "/state"), v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Rhythm asks the server to recompute the subject's rhythm profile.
func (c *Client) Rhythm(ctx context.Context, subjectID string) (*model.RhythmProfile, error) {
	var out model.RhythmProfile
	if err := c.do(ctx, http.MethodGet, subjectPath(subjectID, "/rhythm"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Practice fetches one curated practice.
func (c *Client) Practice(ctx context.Context, subjectID string) (*model.Practice, error) {
	var out model.Practice
	if err := c.do(ctx, http.MethodGet, subjectPath(subjectID, "/practice"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Digest fetches the markdown digest for the subject.
func (c *Client) Digest(ctx context.Context, subjectID string) (string, error) {
	var out struct {
		Digest string `json:"digest"`
	}
	if err := c.do(ctx, http.MethodGet, subjectPath(subjectID, "/digest"), nil, &out); err != nil {
		return "", err
	}
	return out.Digest, nil
}
