package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pulsetrack/attendance-api/internal/models"
	appErrors "github.com/pulsetrack/attendance-api/pkg/errors"
)

type sessionStore interface {
	List(ctx context.Context) ([]models.Session, error)
	Get(ctx context.Context, id int) (*models.Session, error)
	Create(ctx context.Context, session models.Session) (*models.Session, error)
	Update(ctx context.Context, id int, session models.Session) (*models.Session, error)
	Delete(ctx context.Context, id int) (bool, error)
}

// SessionService administers the session directory.
type SessionService struct {
	sessions  sessionStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService constructs the session service.
func NewSessionService(sessions sessionStore, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{sessions: sessions, validator: validate, logger: logger}
}

// SessionRequest describes a session create or update payload.
type SessionRequest struct {
	Name           string `json:"name" validate:"required"`
	Date           string `json:"date" validate:"required"`
	Type           string `json:"type"`
	ParticipantIDs []int  `json:"participant_ids" validate:"dive,gt=0"`
}

// List returns all sessions in directory order.
func (s *SessionService) List(ctx context.Context) ([]models.Session, error) {
	return s.sessions.List(ctx)
}

// Get returns one session by id.
func (s *SessionService) Get(ctx context.Context, id int) (*models.Session, error) {
	return s.sessions.Get(ctx, id)
}

// Create adds a new session to the directory.
func (s *SessionService) Create(ctx context.Context, req SessionRequest) (*models.Session, error) {
	session, err := s.buildSession(req)
	if err != nil {
		return nil, err
	}
	created, err := s.sessions.Create(ctx, *session)
	if err != nil {
		return nil, err
	}
	s.logger.Info("session created", zap.Int("id", created.ID), zap.String("name", created.Name))
	return created, nil
}

// Update replaces a session's fields.
func (s *SessionService) Update(ctx context.Context, id int, req SessionRequest) (*models.Session, error) {
	session, err := s.buildSession(req)
	if err != nil {
		return nil, err
	}
	return s.sessions.Update(ctx, id, *session)
}

// Delete removes a session, failing with NOT_FOUND when the id is unknown.
func (s *SessionService) Delete(ctx context.Context, id int) error {
	removed, err := s.sessions.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("session %d not found", id))
	}
	return nil
}

func (s *SessionService) buildSession(req SessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must use YYYY-MM-DD")
	}
	return &models.Session{
		Name:           req.Name,
		Date:           date,
		Type:           req.Type,
		ParticipantIDs: req.ParticipantIDs,
	}, nil
}
