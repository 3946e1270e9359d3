package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusys-id/substitution-api/internal/service"
)

func testContext(t *testing.T, method, target string, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestCreateSlotInvalidBody(t *testing.T) {
	handler := NewScheduleHandler(nil, nil)

	c, w := testContext(t, http.MethodPost, "/slots", `{"schedule_id":`)
	handler.CreateSlot(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid slot payload")
}

func TestReportAbsenceInvalidBody(t *testing.T) {
	handler := NewSubstitutionHandler(nil, nil)

	c, w := testContext(t, http.MethodPost, "/substitutions", `not json`)
	handler.ReportAbsence(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid absence payload")
}

func TestWorkloadRequiresWeekStart(t *testing.T) {
	handler := NewTeacherHandler(nil, nil, nil)

	c, w := testContext(t, http.MethodGet, "/teachers/t-1/workload", "")
	handler.Workload(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "week_start is required")
}

func TestWorkloadRejectsMalformedWeekStart(t *testing.T) {
	handler := NewTeacherHandler(nil, nil, nil)

	c, w := testContext(t, http.MethodGet, "/teachers/t-1/workload?week_start=tomorrow", "")
	handler.Workload(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "week_start must be YYYY-MM-DD")
}

func TestParseWeekStart(t *testing.T) {
	week, err := parseWeekStart("2026-02-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC), week)
}

func TestMetricsEndpoints(t *testing.T) {
	handler := NewMetricsHandler(service.NewMetricsService())

	c, w := testContext(t, http.MethodGet, "/health", "")
	handler.Health(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")

	c, w = testContext(t, http.MethodGet, "/ready", "")
	handler.Ready(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ready")

	c, w = testContext(t, http.MethodGet, "/metrics", "")
	handler.Prometheus(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "goroutines_total"))
}

func TestMetricsUnavailableWithoutService(t *testing.T) {
	handler := NewMetricsHandler(nil)

	c, w := testContext(t, http.MethodGet, "/metrics", "")
	handler.Prometheus(c)
	// Flush the deferred status: gin only writes headers set via c.Status
	// when the request completes, which never happens when the handler is
	// invoked directly.
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}
