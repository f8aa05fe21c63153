package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pulsetrack/attendance-api/internal/models"
	appErrors "github.com/pulsetrack/attendance-api/pkg/errors"
)

type attendanceLedger interface {
	ListBySession(ctx context.Context, sessionID int) ([]models.AttendanceRecord, error)
	ListByParticipant(ctx context.Context, participantID int) ([]models.AttendanceRecord, error)
	Get(ctx context.Context, id int) (*models.AttendanceRecord, error)
	Upsert(ctx context.Context, sessionID, participantID int, status models.AttendanceStatus, notes string) (*models.AttendanceRecord, error)
	Delete(ctx context.Context, id int) (bool, error)
}

// AttendanceService carries the two mutation entry points into the ledger:
// the status-cycling action and bulk marking. Both write through Upsert.
type AttendanceService struct {
	ledger    attendanceLedger
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(ledger attendanceLedger, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AttendanceService{ledger: ledger, cache: cache, validator: validate, logger: logger}
	svc.validator.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(fl.Field().String()).Valid()
	})
	return svc
}

// MarkRequest describes a single explicit status write.
type MarkRequest struct {
	SessionID     int    `json:"session_id" validate:"required,gt=0"`
	ParticipantID int    `json:"participant_id" validate:"required,gt=0"`
	Status        string `json:"status" validate:"required,attendance_status"`
	Notes         string `json:"notes"`
}

// CycleRequest advances a pair's status through the fixed cycle.
type CycleRequest struct {
	SessionID     int `json:"session_id" validate:"required,gt=0"`
	ParticipantID int `json:"participant_id" validate:"required,gt=0"`
}

// BulkMarkRequest applies one status to many participants in a session.
type BulkMarkRequest struct {
	SessionID      int    `json:"session_id" validate:"required,gt=0"`
	ParticipantIDs []int  `json:"participant_ids" validate:"required,min=1,dive,gt=0"`
	Status         string `json:"status" validate:"required,attendance_status"`
	Notes          string `json:"notes"`
}

// ListBySession returns all records for a session.
func (s *AttendanceService) ListBySession(ctx context.Context, sessionID int) ([]models.AttendanceRecord, error) {
	return s.ledger.ListBySession(ctx, sessionID)
}

// ListByParticipant returns all records for a participant.
func (s *AttendanceService) ListByParticipant(ctx context.Context, participantID int) ([]models.AttendanceRecord, error) {
	return s.ledger.ListByParticipant(ctx, participantID)
}

// Get returns one record by id.
func (s *AttendanceService) Get(ctx context.Context, id int) (*models.AttendanceRecord, error) {
	return s.ledger.Get(ctx, id)
}

// Mark writes an explicit status for a pair.
func (s *AttendanceService) Mark(ctx context.Context, req MarkRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	record, err := s.ledger.Upsert(ctx, req.SessionID, req.ParticipantID, models.AttendanceStatus(req.Status), req.Notes)
	if err != nil {
		return nil, err
	}
	s.invalidateStats(ctx)
	return record, nil
}

// Cycle advances the pair's status to the next one in the fixed order. An
// unmarked pair starts at present.
func (s *AttendanceService) Cycle(ctx context.Context, req CycleRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	records, err := s.ledger.ListBySession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	var current models.AttendanceStatus
	notes := ""
	for _, record := range records {
		if record.ParticipantID == req.ParticipantID {
			current = record.Status
			notes = record.Notes
			break
		}
	}
	record, err := s.ledger.Upsert(ctx, req.SessionID, req.ParticipantID, models.NextStatus(current), notes)
	if err != nil {
		return nil, err
	}
	s.invalidateStats(ctx)
	return record, nil
}

// BulkMark applies one status to every listed participant. Each upsert is
// attempted independently; per-item outcomes land in the result, and only
// an invalid request up front produces an error.
func (s *AttendanceService) BulkMark(ctx context.Context, req BulkMarkRequest) (*models.BulkResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	status := models.AttendanceStatus(req.Status)
	result := &models.BulkResult{
		Succeeded: make([]int, 0, len(req.ParticipantIDs)),
		Failed:    make([]models.BulkFailure, 0),
	}
	for _, participantID := range req.ParticipantIDs {
		if _, err := s.ledger.Upsert(ctx, req.SessionID, participantID, status, req.Notes); err != nil {
			s.logger.Warn("bulk mark failed for participant",
				zap.Int("session_id", req.SessionID),
				zap.Int("participant_id", participantID),
				zap.Error(err))
			result.Failed = append(result.Failed, models.BulkFailure{ParticipantID: participantID, Error: err.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, participantID)
	}
	if len(result.Succeeded) > 0 {
		s.invalidateStats(ctx)
	}
	return result, nil
}

// DeleteRecord removes a record by id, failing with NOT_FOUND when the id
// is unknown.
func (s *AttendanceService) DeleteRecord(ctx context.Context, id int) error {
	removed, err := s.ledger.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("attendance record %d not found", id))
	}
	s.invalidateStats(ctx)
	return nil
}

func (s *AttendanceService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx, "stats:*")
}
