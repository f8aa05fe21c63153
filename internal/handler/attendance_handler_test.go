package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsetrack/attendance-api/internal/models"
	"github.com/pulsetrack/attendance-api/internal/recordstore"
	"github.com/pulsetrack/attendance-api/internal/repository"
	"github.com/pulsetrack/attendance-api/internal/service"
	"github.com/pulsetrack/attendance-api/pkg/response"
)

func newAttendanceHandler() (*AttendanceHandler, *repository.AttendanceRepository) {
	repo := repository.NewAttendanceRepository(recordstore.NewMemory())
	svc := service.NewAttendanceService(repo, nil, nil, nil)
	return NewAttendanceHandler(svc), repo
}

func postJSON(handler gin.HandlerFunc, body string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	handler(c)
	return rec
}

func TestAttendanceHandlerMark(t *testing.T) {
	handler, repo := newAttendanceHandler()

	rec := postJSON(handler.Mark, `{"session_id":1,"participant_id":2,"status":"late","notes":"bus"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Nil(t, envelope.Error)

	records, err := repo.ListBySession(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.StatusLate, records[0].Status)
}

func TestAttendanceHandlerMarkRejectsBadStatus(t *testing.T) {
	handler, _ := newAttendanceHandler()

	rec := postJSON(handler.Mark, `{"session_id":1,"participant_id":2,"status":"vacationing"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)
}

func TestAttendanceHandlerCycle(t *testing.T) {
	handler, _ := newAttendanceHandler()

	rec := postJSON(handler.Cycle, `{"session_id":1,"participant_id":2}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(handler.Cycle, `{"session_id":1,"participant_id":2}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data models.AttendanceRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, models.StatusAbsent, envelope.Data.Status)
}

func TestAttendanceHandlerBulk(t *testing.T) {
	handler, _ := newAttendanceHandler()

	rec := postJSON(handler.BulkMark, `{"session_id":1,"participant_ids":[1,2,3],"status":"present"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data models.BulkResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, []int{1, 2, 3}, envelope.Data.Succeeded)
	assert.Empty(t, envelope.Data.Failed)
}

func TestAttendanceHandlerDeleteMissing(t *testing.T) {
	handler, _ := newAttendanceHandler()

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ctx.Request = httptest.NewRequest(http.MethodDelete, "/", nil)
	ctx.Params = gin.Params{{Key: "id", Value: "7"}}

	handler.Delete(ctx)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
