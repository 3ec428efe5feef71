// Package apiclient talks to the intervu collaborator API (questions, transcription, scoring, results).
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rbright/intervu/internal/interview"
)

const maxErrorBody = 4 << 10

// StatusError is a non-2xx response from the API.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == http.StatusNotFound
}

// envelope is the {success, data, message, error} wrapper used by most endpoints.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client for baseURL. timeout <= 0 leaves requests unbounded.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("api base url cannot be empty")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}, nil
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string { return c.baseURL }

// Questions fetches the latest question set for email.
func (c *Client) Questions(ctx context.Context, email string) (interview.Set, error) {
	if strings.TrimSpace(email) == "" {
		email = interview.DefaultEmail
	}
	var set interview.Set
	path := "/api/userQuestions?" + url.Values{"email": {email}}.Encode()
	if err := c.doEnvelope(ctx, http.MethodGet, path, nil, "", &set); err != nil {
		return interview.Set{}, err
	}
	return set, nil
}

// SaveSet stores a question set for email.
func (c *Client) SaveSet(ctx context.Context, email string, set interview.Set) error {
	body, err := json.Marshal(map[string]any{"email": email, "set": set})
	if err != nil {
		return fmt.Errorf("encode interview set: %w", err)
	}
	return c.doEnvelope(ctx, http.MethodPost, "/api/interviewSets", bytes.NewReader(body), "application/json", nil)
}

// Transcribe uploads one WAV answer and returns the recognized text.
func (c *Client) Transcribe(ctx context.Context, wav []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("audio", "recording.wav")
	if err != nil {
		return "", fmt.Errorf("create multipart audio part: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return "", fmt.Errorf("write multipart audio part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart body: %w", err)
	}

	var out struct {
		Transcription string `json:"transcription"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/transcribe/audio", &body, mw.FormDataContentType(), &out); err != nil {
		return "", err
	}
	return out.Transcription, nil
}

// Score submits the transcript for analysis.
func (c *Client) Score(ctx context.Context, t interview.Transcript) (interview.Scored, error) {
	body, err := json.Marshal(t)
	if err != nil {
		return interview.Scored{}, fmt.Errorf("encode transcript: %w", err)
	}
	var scored interview.Scored
	if err := c.doEnvelope(ctx, http.MethodPost, "/api/analyze", bytes.NewReader(body), "application/json", &scored); err != nil {
		return interview.Scored{}, err
	}
	return scored, nil
}

// Results lists the most recent result summaries for email, newest first.
func (c *Client) Results(ctx context.Context, email string) ([]interview.ResultSummary, error) {
	var rows []interview.ResultSummary
	path := "/api/getAnalyze?" + url.Values{"email": {email}}.Encode()
	if err := c.doEnvelope(ctx, http.MethodGet, path, nil, "", &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Health checks GET /health.
func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", nil, "", &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("health status %q", out.Status)
	}
	return nil
}

func (c *Client) doEnvelope(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	var env envelope
	if err := c.do(ctx, method, path, body, contentType, &env); err != nil {
		return err
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		return fmt.Errorf("%s %s: request unsuccessful: %s", method, trimQuery(path), msg)
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s %s: decode data: %w", method, trimQuery(path), err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, trimQuery(path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(method, trimQuery(path), resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, trimQuery(path), err)
	}
	return nil
}

func statusError(method, path string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	se := &StatusError{Method: method, Path: path, Status: resp.StatusCode}

	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && (env.Error != "" || env.Message != "") {
		se.Message = env.Error
		if se.Message == "" {
			se.Message = env.Message
		}
	} else {
		se.Message = strings.TrimSpace(string(raw))
	}
	return se
}

func trimQuery(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}
