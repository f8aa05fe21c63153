package service

import (
	"context"

	"github.com/pulsetrack/attendance-api/internal/models"
)

type participantStore interface {
	List(ctx context.Context) ([]models.Participant, error)
	Get(ctx context.Context, id int) (*models.Participant, error)
}

// ParticipantService reads the participant directory.
type ParticipantService struct {
	participants participantStore
}

// NewParticipantService constructs the participant service.
func NewParticipantService(participants participantStore) *ParticipantService {
	return &ParticipantService{participants: participants}
}

// List returns all participants in directory order.
func (s *ParticipantService) List(ctx context.Context) ([]models.Participant, error) {
	return s.participants.List(ctx)
}

// Get returns one participant by id.
func (s *ParticipantService) Get(ctx context.Context, id int) (*models.Participant, error) {
	return s.participants.Get(ctx, id)
}
