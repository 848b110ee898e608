package watcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/noah-isme/shift-planner-api/internal/dto"
	"github.com/noah-isme/shift-planner-api/internal/models"
	appErrors "github.com/noah-isme/shift-planner-api/pkg/errors"
)

// Client talks to the planner's HTTP surface.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the API mounted at baseURL, e.g. http://localhost:8080/api/v1.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: &http.Client{Timeout: timeout}}
}

type envelope struct {
	Data  json.RawMessage  `json:"data"`
	Error *appErrors.Error `json:"error"`
}

// OpenSession creates a planning session and returns its id.
func (c *Client) OpenSession(ctx context.Context) (string, error) {
	var out dto.SessionResponse
	if err := c.do(ctx, http.MethodPost, "/sessions", nil, &out); err != nil {
		return "", err
	}
	return out.SessionID, nil
}

// CloseSession closes a planning session.
func (c *Client) CloseSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(sessionID), nil, nil)
}

// StartGeneration submits a generation job for yearMonth.
func (c *Client) StartGeneration(ctx context.Context, sessionID, yearMonth string, patternCount int) (models.JobSnapshot, error) {
	var out models.JobSnapshot
	body := dto.StartGenerationRequest{YearMonth: yearMonth, PatternCount: patternCount}
	err := c.do(ctx, http.MethodPost, c.sessionPath(sessionID, "/generations"), body, &out)
	return out, err
}

// Poll runs one status round trip for the session's current job.
func (c *Client) Poll(ctx context.Context, sessionID string) (models.JobSnapshot, error) {
	var out models.JobSnapshot
	err := c.do(ctx, http.MethodPost, c.sessionPath(sessionID, "/generations/current/poll"), nil, &out)
	return out, err
}

// CancelGeneration stops the server-side poll loop of the session.
func (c *Client) CancelGeneration(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, c.sessionPath(sessionID, "/generations/current"), nil, nil)
}

// Patterns lists the patterns of yearMonth.
func (c *Client) Patterns(ctx context.Context, sessionID, yearMonth string) ([]models.ShiftPattern, error) {
	var out dto.PatternListResponse
	path := c.sessionPath(sessionID, "/patterns") + "?yearMonth=" + url.QueryEscape(yearMonth)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Patterns, nil
}

func (c *Client) sessionPath(sessionID, suffix string) string {
	return "/sessions/" + url.PathEscape(sessionID) + suffix
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return appErrors.Transient(err, "planner unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 400 {
			return appErrors.New(appErrors.ErrInternal.Code, resp.StatusCode, resp.Status)
		}
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	if env.Error != nil {
		return env.Error
	}
	if resp.StatusCode >= 400 {
		return appErrors.New(appErrors.ErrInternal.Code, resp.StatusCode, resp.Status)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
