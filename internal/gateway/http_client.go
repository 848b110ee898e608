package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/shift-planner-api/internal/models"
	"github.com/noah-isme/shift-planner-api/pkg/calendar"
	"github.com/noah-isme/shift-planner-api/pkg/config"
	appErrors "github.com/noah-isme/shift-planner-api/pkg/errors"
)

const maxErrorBody = 64 << 10

// knownCodes are backend error codes passed through unchanged.
var knownCodes = map[string]*appErrors.Error{
	appErrors.ErrNotFound.Code:           appErrors.ErrNotFound,
	appErrors.ErrConflict.Code:           appErrors.ErrConflict,
	appErrors.ErrValidation.Code:         appErrors.ErrValidation,
	appErrors.ErrSubmission.Code:         appErrors.ErrSubmission,
	appErrors.ErrGenerationFailed.Code:   appErrors.ErrGenerationFailed,
	appErrors.ErrInvalidConfig.Code:      appErrors.ErrInvalidConfig,
	appErrors.ErrInvalidTransition.Code:  appErrors.ErrInvalidTransition,
	appErrors.ErrInvalidState.Code:       appErrors.ErrInvalidState,
	appErrors.ErrValidationRejected.Code: appErrors.ErrValidationRejected,
}

// apiError is a non-2xx answer from the backend before it is mapped to a
// domain error.
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("backend responded %d %s: %s", e.Status, e.Code, e.Message)
}

// HTTPClient reaches the optimizer backend over its REST API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPClient constructs a client for cfg.BaseURL with a per-request timeout.
func NewHTTPClient(cfg config.GatewayConfig, logger *zap.Logger) *HTTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// SubmitGeneration asks the backend to start producing patternCount patterns.
func (c *HTTPClient) SubmitGeneration(ctx context.Context, yearMonth string, patternCount int) (*models.GenerationJob, error) {
	body := map[string]interface{}{"year_month": yearMonth, "pattern_count": patternCount}
	var resp struct {
		JobID   string           `json:"job_id"`
		Status  models.JobStatus `json:"status"`
		Message string           `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/shifts/generate", nil, body, &resp); err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
			return nil, appErrors.Wrap(apiErr, appErrors.ErrSubmission.Code, appErrors.ErrSubmission.Status, apiErr.Message)
		}
		return nil, mapError(err)
	}
	if resp.JobID == "" {
		return nil, appErrors.Clone(appErrors.ErrSubmission, "backend accepted the request without a job id")
	}
	status := resp.Status
	if !status.Valid() {
		status = models.JobStatusPending
	}
	job := &models.GenerationJob{
		ID:           resp.JobID,
		YearMonth:    yearMonth,
		Status:       status,
		PatternCount: patternCount,
		CreatedAt:    time.Now().UTC(),
	}
	if resp.Message != "" {
		msg := resp.Message
		job.StatusMessage = &msg
	}
	return job, nil
}

// GetJobStatus fetches the current state of a job.
func (c *HTTPClient) GetJobStatus(ctx context.Context, jobID string) (*models.GenerationJob, error) {
	var job models.GenerationJob
	if err := c.do(ctx, http.MethodGet, "/shifts/generate/"+url.PathEscape(jobID), nil, nil, &job); err != nil {
		return nil, mapError(err)
	}
	return &job, nil
}

// ListPatterns returns the patterns of a period with their summaries.
func (c *HTTPClient) ListPatterns(ctx context.Context, yearMonth string) ([]models.ShiftPattern, error) {
	var resp struct {
		Patterns []models.ShiftPattern `json:"patterns"`
	}
	if err := c.do(ctx, http.MethodGet, "/shifts/patterns", url.Values{"year_month": {yearMonth}}, nil, &resp); err != nil {
		return nil, mapError(err)
	}
	if resp.Patterns == nil {
		resp.Patterns = []models.ShiftPattern{}
	}
	for i := range resp.Patterns {
		normalizePattern(&resp.Patterns[i])
	}
	return resp.Patterns, nil
}

// GetPattern returns one pattern including its entries.
func (c *HTTPClient) GetPattern(ctx context.Context, id string) (*models.ShiftPattern, error) {
	var resp struct {
		Pattern *models.ShiftPattern `json:"pattern"`
	}
	if err := c.do(ctx, http.MethodGet, "/shifts/patterns/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return nil, mapError(err)
	}
	if resp.Pattern == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "pattern not found")
	}
	if resp.Pattern.Entries == nil {
		resp.Pattern.Entries = []models.ShiftEntry{}
	}
	normalizePattern(resp.Pattern)
	return resp.Pattern, nil
}

// SelectPattern marks a pattern selected and returns its refreshed state.
func (c *HTTPClient) SelectPattern(ctx context.Context, id string) (*models.ShiftPattern, error) {
	return c.transition(ctx, id, "select")
}

// FinalizePattern marks a pattern finalized and returns its refreshed state.
func (c *HTTPClient) FinalizePattern(ctx context.Context, id string) (*models.ShiftPattern, error) {
	return c.transition(ctx, id, "finalize")
}

// transition applies a status change. The backend only echoes id and status,
// so the full pattern is fetched afterwards.
func (c *HTTPClient) transition(ctx context.Context, id, action string) (*models.ShiftPattern, error) {
	path := "/shifts/patterns/" + url.PathEscape(id) + "/" + action
	if err := c.do(ctx, http.MethodPut, path, nil, nil, nil); err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError && apiErr.Status != http.StatusNotFound {
			return nil, appErrors.Wrap(apiErr, appErrors.ErrInvalidTransition.Code, appErrors.ErrInvalidTransition.Status, apiErr.Message)
		}
		return nil, mapError(err)
	}
	return c.GetPattern(ctx, id)
}

// ValidateAndUpdateEntry submits new times and returns the stored entry with
// the validator verdict.
func (c *HTTPClient) ValidateAndUpdateEntry(ctx context.Context, entryID string, times models.EntryTimes) (*models.EntryUpdate, error) {
	var resp models.EntryUpdate
	if err := c.do(ctx, http.MethodPut, "/shifts/entries/"+url.PathEscape(entryID), nil, times, &resp); err != nil {
		return nil, mapError(err)
	}
	normalizeEntry(&resp.Entry)
	if resp.Validation.Warnings == nil {
		resp.Validation.Warnings = []models.ValidationWarning{}
	}
	return &resp, nil
}

// CreateEntry adds an entry to a pattern.
func (c *HTTPClient) CreateEntry(ctx context.Context, draft models.EntryDraft) (*models.ShiftEntry, error) {
	var entry models.ShiftEntry
	if err := c.do(ctx, http.MethodPost, "/shifts/entries", nil, draft, &entry); err != nil {
		return nil, mapError(err)
	}
	normalizeEntry(&entry)
	return &entry, nil
}

// DeleteEntry removes an entry.
func (c *HTTPClient) DeleteEntry(ctx context.Context, id string) error {
	return mapError(c.do(ctx, http.MethodDelete, "/shifts/entries/"+url.PathEscape(id), nil, nil, nil))
}

// ListConstraints returns constraints matching filter.
func (c *HTTPClient) ListConstraints(ctx context.Context, filter models.ConstraintFilter) ([]models.Constraint, error) {
	query := url.Values{}
	if filter.IsActive != nil {
		query.Set("is_active", strconv.FormatBool(*filter.IsActive))
	}
	if filter.Kind != nil {
		query.Set("type", string(*filter.Kind))
	}
	if filter.Category != nil {
		query.Set("category", string(*filter.Category))
	}
	var resp struct {
		Constraints []models.Constraint `json:"constraints"`
	}
	if err := c.do(ctx, http.MethodGet, "/constraints", query, nil, &resp); err != nil {
		return nil, mapError(err)
	}
	if resp.Constraints == nil {
		resp.Constraints = []models.Constraint{}
	}
	return resp.Constraints, nil
}

// GetConstraint finds one constraint. The backend has no single-item route,
// so it is looked up in the full list.
func (c *HTTPClient) GetConstraint(ctx context.Context, id string) (*models.Constraint, error) {
	list, err := c.ListConstraints(ctx, models.ConstraintFilter{})
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "constraint not found")
}

// CreateConstraint stores a validated constraint.
func (c *HTTPClient) CreateConstraint(ctx context.Context, def models.Constraint) (*models.Constraint, error) {
	body := map[string]interface{}{
		"name":      def.Name,
		"type":      def.Kind,
		"category":  def.Category,
		"config":    def.Config,
		"is_active": def.IsActive,
		"priority":  def.Priority,
	}
	var created models.Constraint
	if err := c.do(ctx, http.MethodPost, "/constraints", nil, body, &created); err != nil {
		return nil, mapError(err)
	}
	return &created, nil
}

// UpdateConstraint sends only the patched fields.
func (c *HTTPClient) UpdateConstraint(ctx context.Context, id string, patch models.ConstraintPatch) (*models.Constraint, error) {
	body := map[string]interface{}{}
	if patch.Name != nil {
		body["name"] = *patch.Name
	}
	if patch.Kind != nil {
		body["type"] = *patch.Kind
	}
	if patch.Category != nil {
		body["category"] = *patch.Category
	}
	if patch.Config != nil {
		body["config"] = patch.Config
	}
	if patch.IsActive != nil {
		body["is_active"] = *patch.IsActive
	}
	if patch.Priority != nil {
		body["priority"] = *patch.Priority
	}
	var updated models.Constraint
	if err := c.do(ctx, http.MethodPut, "/constraints/"+url.PathEscape(id), nil, body, &updated); err != nil {
		return nil, mapError(err)
	}
	return &updated, nil
}

// DeleteConstraint hard-deletes a constraint.
func (c *HTTPClient) DeleteConstraint(ctx context.Context, id string) error {
	return mapError(c.do(ctx, http.MethodDelete, "/constraints/"+url.PathEscape(id), nil, nil, nil))
}

// ListShiftRequests returns the requests of a period, optionally for one staff member.
func (c *HTTPClient) ListShiftRequests(ctx context.Context, yearMonth, staffID string) ([]models.ShiftRequest, error) {
	query := url.Values{"year_month": {yearMonth}}
	if staffID != "" {
		query.Set("staff_id", staffID)
	}
	var resp struct {
		ShiftRequests []models.ShiftRequest `json:"shift_requests"`
	}
	if err := c.do(ctx, http.MethodGet, "/shift-requests", query, nil, &resp); err != nil {
		return nil, mapError(err)
	}
	if resp.ShiftRequests == nil {
		resp.ShiftRequests = []models.ShiftRequest{}
	}
	return resp.ShiftRequests, nil
}

// BatchCreateShiftRequests creates every draft in one call.
func (c *HTTPClient) BatchCreateShiftRequests(ctx context.Context, drafts []models.ShiftRequestDraft) ([]models.ShiftRequest, error) {
	if len(drafts) == 0 {
		return []models.ShiftRequest{}, nil
	}
	var resp struct {
		CreatedCount  int                   `json:"created_count"`
		ShiftRequests []models.ShiftRequest `json:"shift_requests"`
	}
	body := map[string]interface{}{"requests": drafts}
	if err := c.do(ctx, http.MethodPost, "/shift-requests/batch", nil, body, &resp); err != nil {
		return nil, mapError(err)
	}
	if resp.ShiftRequests == nil {
		resp.ShiftRequests = []models.ShiftRequest{}
	}
	return resp.ShiftRequests, nil
}

// ListMonthlySettings returns hour preferences of a period.
func (c *HTTPClient) ListMonthlySettings(ctx context.Context, yearMonth, staffID string) ([]models.StaffMonthlySetting, error) {
	query := url.Values{"year_month": {yearMonth}}
	if staffID != "" {
		query.Set("staff_id", staffID)
	}
	var resp struct {
		Settings []models.StaffMonthlySetting `json:"settings"`
	}
	if err := c.do(ctx, http.MethodGet, "/staff-monthly-settings", query, nil, &resp); err != nil {
		return nil, mapError(err)
	}
	if resp.Settings == nil {
		resp.Settings = []models.StaffMonthlySetting{}
	}
	return resp.Settings, nil
}

// CreateMonthlySetting creates or overwrites the setting of a staff member for a period.
func (c *HTTPClient) CreateMonthlySetting(ctx context.Context, input models.MonthlySettingInput) (*models.StaffMonthlySetting, error) {
	var setting models.StaffMonthlySetting
	if err := c.do(ctx, http.MethodPost, "/staff-monthly-settings", nil, input, &setting); err != nil {
		return nil, mapError(err)
	}
	return &setting, nil
}

// UpdateMonthlySetting changes an existing setting.
func (c *HTTPClient) UpdateMonthlySetting(ctx context.Context, id string, input models.MonthlySettingInput) (*models.StaffMonthlySetting, error) {
	var setting models.StaffMonthlySetting
	if err := c.do(ctx, http.MethodPut, "/staff-monthly-settings/"+url.PathEscape(id), nil, input, &setting); err != nil {
		return nil, mapError(err)
	}
	return &setting, nil
}

// DeleteMonthlySetting removes a setting.
func (c *HTTPClient) DeleteMonthlySetting(ctx context.Context, id string) error {
	return mapError(c.do(ctx, http.MethodDelete, "/staff-monthly-settings/"+url.PathEscape(id), nil, nil, nil))
}

// Ping calls the backend health endpoint at the root of the base URL's host.
func (c *HTTPClient) Ping(ctx context.Context) error {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("parse optimizer base url: %w", err)
	}
	health := url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/health"}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, health.String(), nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return appErrors.Transient(err, "optimizer backend unreachable")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return appErrors.Transient(fmt.Errorf("health returned %d", resp.StatusCode), "optimizer backend unhealthy")
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Sugar().Warnw("optimizer request failed", "method", method, "path", path, "error", err)
		return appErrors.Transient(err, "optimizer backend unreachable")
	}
	defer resp.Body.Close()

	c.logger.Sugar().Debugw("optimizer request", "method", method, "path", path, "status", resp.StatusCode, "latency", time.Since(start))

	if resp.StatusCode >= http.StatusMultipleChoices {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var domainErr *appErrors.Error
		if errors.As(err, &domainErr) {
			return domainErr
		}
		return appErrors.Transient(err, fmt.Sprintf("decode %s %s response", method, path))
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &apiError{Status: resp.StatusCode}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// mapError turns a raw backend failure into a domain error. Server-side
// failures count as transient.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		return err
	}
	if apiErr.Status >= http.StatusInternalServerError {
		return appErrors.Transient(apiErr, "optimizer backend error")
	}
	if sentinel, ok := knownCodes[apiErr.Code]; ok {
		return appErrors.Wrap(apiErr, sentinel.Code, sentinel.Status, apiErr.Message)
	}
	switch apiErr.Status {
	case http.StatusNotFound:
		return appErrors.Wrap(apiErr, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, apiErr.Message)
	case http.StatusConflict:
		return appErrors.Wrap(apiErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, apiErr.Message)
	default:
		return appErrors.Wrap(apiErr, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, apiErr.Message)
	}
}

func normalizePattern(p *models.ShiftPattern) {
	if p.ConstraintViolations == nil {
		p.ConstraintViolations = models.Violations{}
	}
	for i := range p.Entries {
		normalizeEntry(&p.Entries[i])
	}
}

// normalizeEntry trims "HH:MM:SS" times to "HH:MM".
func normalizeEntry(e *models.ShiftEntry) {
	e.StartTime = trimClock(e.StartTime)
	e.EndTime = trimClock(e.EndTime)
}

func trimClock(raw string) string {
	if raw == "" {
		return ""
	}
	minutes, err := calendar.ParseClock(raw)
	if err != nil {
		return raw
	}
	return calendar.FormatClock(minutes)
}
