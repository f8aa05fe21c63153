package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/pulsetrack/attendance-api/internal/models"
	"github.com/pulsetrack/attendance-api/internal/normalize"
	"github.com/pulsetrack/attendance-api/internal/recordstore"
	appErrors "github.com/pulsetrack/attendance-api/pkg/errors"
)

// ParticipantRepository is the participant directory. It is read-only from
// the engine's perspective; participants are administered elsewhere.
type ParticipantRepository struct {
	store recordstore.Store
}

// NewParticipantRepository constructs the participant directory.
func NewParticipantRepository(store recordstore.Store) *ParticipantRepository {
	return &ParticipantRepository{store: store}
}

// List returns all participants in directory order. Rankings rely on this
// order to break rate ties.
func (r *ParticipantRepository) List(ctx context.Context) ([]models.Participant, error) {
	raws, err := r.store.List(ctx, recordstore.EntityParticipant)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "list participants")
	}
	participants := make([]models.Participant, 0, len(raws))
	for _, raw := range raws {
		participants = append(participants, normalize.Participant(raw))
	}
	return participants, nil
}

// Get returns one participant by id or ErrNotFound.
func (r *ParticipantRepository) Get(ctx context.Context, id int) (*models.Participant, error) {
	raw, err := r.store.Get(ctx, recordstore.EntityParticipant, id)
	if errors.Is(err, recordstore.ErrNotFound) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("participant %d not found", id))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, fmt.Sprintf("get participant %d", id))
	}
	participant := normalize.Participant(raw)
	return &participant, nil
}
