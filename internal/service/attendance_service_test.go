package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsetrack/attendance-api/internal/models"
	"github.com/pulsetrack/attendance-api/internal/recordstore"
	"github.com/pulsetrack/attendance-api/internal/repository"
	appErrors "github.com/pulsetrack/attendance-api/pkg/errors"
)

// faultyLedger wraps a real ledger but fails upserts for chosen participants.
type faultyLedger struct {
	*repository.AttendanceRepository
	failFor map[int]error
}

func (f *faultyLedger) Upsert(ctx context.Context, sessionID, participantID int, status models.AttendanceStatus, notes string) (*models.AttendanceRecord, error) {
	if err, ok := f.failFor[participantID]; ok {
		return nil, err
	}
	return f.AttendanceRepository.Upsert(ctx, sessionID, participantID, status, notes)
}

func newAttendanceService() (*AttendanceService, *repository.AttendanceRepository) {
	repo := repository.NewAttendanceRepository(recordstore.NewMemory())
	return NewAttendanceService(repo, nil, nil, nil), repo
}

func TestMarkValidatesStatus(t *testing.T) {
	svc, _ := newAttendanceService()

	_, err := svc.Mark(context.Background(), MarkRequest{SessionID: 1, ParticipantID: 2, Status: "vacationing"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	record, err := svc.Mark(context.Background(), MarkRequest{SessionID: 1, ParticipantID: 2, Status: "late"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusLate, record.Status)
}

func TestCycleUnmarkedStartsAtPresent(t *testing.T) {
	svc, _ := newAttendanceService()

	record, err := svc.Cycle(context.Background(), CycleRequest{SessionID: 1, ParticipantID: 2})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPresent, record.Status)
}

func TestCycleWalksTheFullOrder(t *testing.T) {
	svc, _ := newAttendanceService()
	ctx := context.Background()
	req := CycleRequest{SessionID: 1, ParticipantID: 2}

	want := []models.AttendanceStatus{
		models.StatusPresent,
		models.StatusAbsent,
		models.StatusLate,
		models.StatusExcused,
		models.StatusPresent,
	}
	var firstID int
	for i, expected := range want {
		record, err := svc.Cycle(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, expected, record.Status)
		if i == 0 {
			firstID = record.ID
		} else {
			assert.Equal(t, firstID, record.ID)
		}
	}
}

func TestCyclePreservesNotes(t *testing.T) {
	svc, _ := newAttendanceService()
	ctx := context.Background()

	_, err := svc.Mark(ctx, MarkRequest{SessionID: 1, ParticipantID: 2, Status: "present", Notes: "front row"})
	require.NoError(t, err)

	record, err := svc.Cycle(ctx, CycleRequest{SessionID: 1, ParticipantID: 2})
	require.NoError(t, err)
	assert.Equal(t, models.StatusAbsent, record.Status)
	assert.Equal(t, "front row", record.Notes)
}

func TestBulkMarkPartialFailure(t *testing.T) {
	repo := repository.NewAttendanceRepository(recordstore.NewMemory())
	ledger := &faultyLedger{
		AttendanceRepository: repo,
		failFor:              map[int]error{2: errors.New("upstream write refused")},
	}
	svc := NewAttendanceService(ledger, nil, nil, nil)

	result, err := svc.BulkMark(context.Background(), BulkMarkRequest{
		SessionID:      1,
		ParticipantIDs: []int{1, 2, 3},
		Status:         "present",
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, 2, result.Failed[0].ParticipantID)

	records, err := repo.ListBySession(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestBulkMarkRejectsEmptyList(t *testing.T) {
	svc, _ := newAttendanceService()

	_, err := svc.BulkMark(context.Background(), BulkMarkRequest{SessionID: 1, Status: "present"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDeleteRecordNotFound(t *testing.T) {
	svc, _ := newAttendanceService()

	err := svc.DeleteRecord(context.Background(), 41)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
