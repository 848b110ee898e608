package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shift-planner-api/internal/models"
	"github.com/noah-isme/shift-planner-api/pkg/config"
	appErrors "github.com/noah-isme/shift-planner-api/pkg/errors"
)

func newBackend(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(config.GatewayConfig{BaseURL: srv.URL + "/api/v1/", Timeout: 2 * time.Second}, nil)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func backendError(code, message string) map[string]interface{} {
	return map[string]interface{}{"error": map[string]string{"code": code, "message": message}}
}

func TestHTTPClientSubmitGeneration(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/shifts/generate", r.URL.Path)
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2025-01", body["year_month"])
		assert.Equal(t, float64(3), body["pattern_count"])
		writeJSON(w, http.StatusAccepted, map[string]string{"job_id": "job-1", "status": "pending", "message": "started"})
	})

	job, err := client.SubmitGeneration(context.Background(), "2025-01", 3)
	require.NoError(t, err)
	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, models.JobStatusPending, job.Status)
	assert.Equal(t, 3, job.PatternCount)
	require.NotNil(t, job.StatusMessage)
	assert.Equal(t, "started", *job.StatusMessage)
}

func TestHTTPClientSubmitRejected(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, backendError("VALIDATION_ERROR", "no active staff"))
	})

	_, err := client.SubmitGeneration(context.Background(), "2025-01", 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrSubmission))
	assert.Contains(t, err.Error(), "no active staff")
}

func TestHTTPClientServerErrorsAreTransient(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, backendError("INTERNAL_ERROR", "boom"))
	})

	_, err := client.GetJobStatus(context.Background(), "job-1")
	assert.True(t, errors.Is(err, appErrors.ErrTransientFetch))
}

func TestHTTPClientUnreachableBackendIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewHTTPClient(config.GatewayConfig{BaseURL: srv.URL, Timeout: time.Second}, nil)

	_, err := client.GetJobStatus(context.Background(), "job-1")
	assert.True(t, errors.Is(err, appErrors.ErrTransientFetch))
}

func TestHTTPClientNotFound(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, backendError("NOT_FOUND", "job missing"))
	})

	_, err := client.GetJobStatus(context.Background(), "job-404")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestHTTPClientGetPatternNormalizesTimes(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/shifts/patterns/p-1", r.URL.Path)
		io.WriteString(w, `{"pattern":{"id":"p-1","year_month":"2025-01","status":"draft","constraint_violations":null,
"entries":[{"id":"e-1","pattern_id":"p-1","staff_id":"s-1","date":"2025-01-02","start_time":"09:00:00","end_time":"17:30:00","break_minutes":60}]}}`)
	})

	pattern, err := client.GetPattern(context.Background(), "p-1")
	require.NoError(t, err)
	require.Len(t, pattern.Entries, 1)
	assert.Equal(t, "09:00", pattern.Entries[0].StartTime)
	assert.Equal(t, "17:30", pattern.Entries[0].EndTime)
	assert.NotNil(t, pattern.ConstraintViolations)
}

func TestHTTPClientSelectRefetchesPattern(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
	)
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.Method+" "+r.URL.Path)
		mu.Unlock()
		switch r.Method {
		case http.MethodPut:
			writeJSON(w, http.StatusOK, map[string]interface{}{"pattern": map[string]string{"id": "p-1", "status": "selected"}})
		default:
			io.WriteString(w, `{"pattern":{"id":"p-1","year_month":"2025-01","status":"selected","score":88.5,"entries":[]}}`)
		}
	})

	pattern, err := client.SelectPattern(context.Background(), "p-1")
	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"PUT /api/v1/shifts/patterns/p-1/select", "GET /api/v1/shifts/patterns/p-1"}, calls)
	assert.Equal(t, models.PatternStatusSelected, pattern.Status)
	require.NotNil(t, pattern.Score)
	assert.Equal(t, 88.5, *pattern.Score)
}

func TestHTTPClientFinalizeRejectedIsInvalidTransition(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, backendError("CONFLICT", "already finalized"))
	})

	_, err := client.FinalizePattern(context.Background(), "p-1")
	assert.True(t, errors.Is(err, appErrors.ErrInvalidTransition))
}

func TestHTTPClientListConstraintsDecodesConfigs(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("is_active"))
		assert.Equal(t, "rest_hours", r.URL.Query().Get("category"))
		io.WriteString(w, `{"constraints":[{"id":"c-1","name":"Rest","type":"hard","category":"rest_hours","config":{"min_hours":11},"is_active":true,"priority":null}]}`)
	})

	active := true
	category := models.CategoryRestHours
	list, err := client.ListConstraints(context.Background(), models.ConstraintFilter{IsActive: &active, Category: &category})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.RestHoursConfig{MinHours: 11}, list[0].Config)
}

func TestHTTPClientGetConstraintMissing(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"constraints":[]}`)
	})

	_, err := client.GetConstraint(context.Background(), "c-9")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestHTTPClientUpdateConstraintSendsPatchedFieldsOnly(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]interface{}{"is_active": false}, body)
		io.WriteString(w, `{"id":"c-1","name":"Rest","type":"soft","category":"rest_hours","config":{"min_hours":11},"is_active":false,"priority":2}`)
	})

	inactive := false
	updated, err := client.UpdateConstraint(context.Background(), "c-1", models.ConstraintPatch{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	require.NotNil(t, updated.Priority)
	assert.Equal(t, 2, *updated.Priority)
}

func TestHTTPClientUpdateEntryReturnsValidation(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		var times models.EntryTimes
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&times))
		assert.Equal(t, models.EntryTimes{StartTime: "10:00", EndTime: "19:00", BreakMinutes: 60}, times)
		io.WriteString(w, `{"entry":{"id":"e-1","pattern_id":"p-1","staff_id":"s-1","date":"2025-01-02","start_time":"10:00:00","end_time":"19:00:00","break_minutes":60,"is_manual_edit":true},
"validation":{"is_valid":false,"warnings":[{"type":"hard","message":"rest too short"}]}}`)
	})

	update, err := client.ValidateAndUpdateEntry(context.Background(), "e-1", models.EntryTimes{StartTime: "10:00", EndTime: "19:00", BreakMinutes: 60})
	require.NoError(t, err)
	assert.Equal(t, "10:00", update.Entry.StartTime)
	assert.True(t, update.Validation.Rejected())
}

func TestHTTPClientBatchShiftRequests(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/shift-requests/batch", r.URL.Path)
		var body struct {
			Requests []models.ShiftRequestDraft `json:"requests"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body.Requests, 1)
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"created_count":  1,
			"shift_requests": []map[string]string{{"id": "r-1", "staff_id": "s-1", "date": "2025-01-03", "request_type": "available"}},
		})
	})

	created, err := client.BatchCreateShiftRequests(context.Background(), []models.ShiftRequestDraft{
		{StaffID: "s-1", YearMonth: "2025-01", Date: "2025-01-03", RequestType: models.RequestTypeAvailable},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "r-1", created[0].ID)
}

func TestHTTPClientPing(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	require.NoError(t, client.Ping(context.Background()))
}
