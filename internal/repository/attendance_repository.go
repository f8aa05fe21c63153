package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pulsetrack/attendance-api/internal/models"
	"github.com/pulsetrack/attendance-api/internal/normalize"
	"github.com/pulsetrack/attendance-api/internal/recordstore"
	appErrors "github.com/pulsetrack/attendance-api/pkg/errors"
)

// AttendanceRepository is the ledger: it owns the attendance records in the
// record store and guarantees at most one record per (session, participant)
// pair. Upsert is the only mutation path for statuses; both the cycling UI
// action and bulk marking flow through it.
type AttendanceRepository struct {
	store recordstore.Store

	// writeMu serializes upserts so a concurrent find-or-create for the
	// same pair cannot mint two records. Reads do not take this lock.
	writeMu sync.Mutex
}

// NewAttendanceRepository constructs the ledger over a record store.
func NewAttendanceRepository(store recordstore.Store) *AttendanceRepository {
	return &AttendanceRepository{store: store}
}

// ListAll returns every attendance record in canonical form.
func (r *AttendanceRepository) ListAll(ctx context.Context) ([]models.AttendanceRecord, error) {
	raws, err := r.store.List(ctx, recordstore.EntityAttendance)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "list attendance records")
	}
	records := make([]models.AttendanceRecord, 0, len(raws))
	for _, raw := range raws {
		records = append(records, normalize.Attendance(raw))
	}
	return records, nil
}

// ListBySession returns all records for a session. No match is an empty
// slice, never an error.
func (r *AttendanceRepository) ListBySession(ctx context.Context, sessionID int) ([]models.AttendanceRecord, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]models.AttendanceRecord, 0)
	for _, record := range all {
		if record.SessionID == sessionID {
			records = append(records, record)
		}
	}
	return records, nil
}

// ListByParticipant returns all records for a participant. Callers order
// the result themselves (history sorts by session date).
func (r *AttendanceRepository) ListByParticipant(ctx context.Context, participantID int) ([]models.AttendanceRecord, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]models.AttendanceRecord, 0)
	for _, record := range all {
		if record.ParticipantID == participantID {
			records = append(records, record)
		}
	}
	return records, nil
}

// Get returns one record by id or ErrNotFound.
func (r *AttendanceRepository) Get(ctx context.Context, id int) (*models.AttendanceRecord, error) {
	raw, err := r.store.Get(ctx, recordstore.EntityAttendance, id)
	if errors.Is(err, recordstore.ErrNotFound) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("attendance record %d not found", id))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, fmt.Sprintf("get attendance record %d", id))
	}
	record := normalize.Attendance(raw)
	return &record, nil
}

// Upsert writes the status for a (session, participant) pair. An existing
// record keeps its id and has status, timestamp, and notes replaced; a new
// pair gets id max+1 (1 when the store is empty). The timestamp always
// moves to now.
func (r *AttendanceRepository) Upsert(ctx context.Context, sessionID, participantID int, status models.AttendanceStatus, notes string) (*models.AttendanceRecord, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	sessionRecords, err := r.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for _, existing := range sessionRecords {
		if existing.ParticipantID != participantID {
			continue
		}
		payload := recordstore.RawRecord{
			"status_c":    string(status),
			"timestamp_c": now.Format(time.RFC3339),
			"notes_c":     notes,
		}
		if err := r.store.Update(ctx, recordstore.EntityAttendance, existing.ID, payload); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, fmt.Sprintf("update attendance record %d", existing.ID))
		}
		existing.Status = status
		existing.Timestamp = now
		existing.Notes = notes
		return &existing, nil
	}

	maxID, err := r.store.MaxID(ctx, recordstore.EntityAttendance)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "allocate attendance record id")
	}
	id := maxID + 1
	payload := recordstore.RawRecord{
		"Name":             fmt.Sprintf("Attendance-%d-%d", sessionID, participantID),
		"session_id_c":     sessionID,
		"participant_id_c": participantID,
		"status_c":         string(status),
		"timestamp_c":      now.Format(time.RFC3339),
		"notes_c":          notes,
	}
	if err := r.store.Create(ctx, recordstore.EntityAttendance, id, payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, fmt.Sprintf("create attendance record for session %d participant %d", sessionID, participantID))
	}
	return &models.AttendanceRecord{
		ID:            id,
		SessionID:     sessionID,
		ParticipantID: participantID,
		Status:        status,
		Timestamp:     now,
		Notes:         notes,
	}, nil
}

// Delete removes a record by id, reporting whether anything was removed.
func (r *AttendanceRepository) Delete(ctx context.Context, id int) (bool, error) {
	removed, err := r.store.Delete(ctx, recordstore.EntityAttendance, id)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, fmt.Sprintf("delete attendance record %d", id))
	}
	return removed, nil
}
