package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/pulsetrack/attendance-api/internal/models"
	"github.com/pulsetrack/attendance-api/internal/normalize"
	"github.com/pulsetrack/attendance-api/internal/recordstore"
	appErrors "github.com/pulsetrack/attendance-api/pkg/errors"
)

// SessionRepository is the session directory. The engine reads sessions for
// rosters and dates; directory writes store the roster as a comma-joined
// string, the shape the upstream backend expects.
type SessionRepository struct {
	store recordstore.Store

	// writeMu serializes id allocation so concurrent creates cannot race
	// between MaxID and Create.
	writeMu sync.Mutex
}

// NewSessionRepository constructs the session directory.
func NewSessionRepository(store recordstore.Store) *SessionRepository {
	return &SessionRepository{store: store}
}

// List returns all sessions in directory order.
func (r *SessionRepository) List(ctx context.Context) ([]models.Session, error) {
	raws, err := r.store.List(ctx, recordstore.EntitySession)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "list sessions")
	}
	sessions := make([]models.Session, 0, len(raws))
	for _, raw := range raws {
		sessions = append(sessions, normalize.Session(raw))
	}
	return sessions, nil
}

// Get returns one session by id or ErrNotFound.
func (r *SessionRepository) Get(ctx context.Context, id int) (*models.Session, error) {
	raw, err := r.store.Get(ctx, recordstore.EntitySession, id)
	if errors.Is(err, recordstore.ErrNotFound) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("session %d not found", id))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, fmt.Sprintf("get session %d", id))
	}
	session := normalize.Session(raw)
	return &session, nil
}

// Create stores a new session with id max+1.
func (r *SessionRepository) Create(ctx context.Context, session models.Session) (*models.Session, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	maxID, err := r.store.MaxID(ctx, recordstore.EntitySession)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "allocate session id")
	}
	session.ID = maxID + 1
	if err := r.store.Create(ctx, recordstore.EntitySession, session.ID, sessionPayload(session)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, fmt.Sprintf("create session %q", session.Name))
	}
	return &session, nil
}

// Update replaces a session's fields.
func (r *SessionRepository) Update(ctx context.Context, id int, session models.Session) (*models.Session, error) {
	session.ID = id
	err := r.store.Update(ctx, recordstore.EntitySession, id, sessionPayload(session))
	if errors.Is(err, recordstore.ErrNotFound) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("session %d not found", id))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, fmt.Sprintf("update session %d", id))
	}
	return &session, nil
}

// Delete removes a session, reporting whether anything was removed.
func (r *SessionRepository) Delete(ctx context.Context, id int) (bool, error) {
	removed, err := r.store.Delete(ctx, recordstore.EntitySession, id)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, fmt.Sprintf("delete session %d", id))
	}
	return removed, nil
}

func sessionPayload(session models.Session) recordstore.RawRecord {
	ids := make([]string, len(session.ParticipantIDs))
	for i, id := range session.ParticipantIDs {
		ids[i] = strconv.Itoa(id)
	}
	payload := recordstore.RawRecord{
		"Name":              session.Name,
		"type_c":            session.Type,
		"participant_ids_c": strings.Join(ids, ","),
	}
	if !session.Date.IsZero() {
		payload["date_c"] = session.Date.Format("2006-01-02")
	}
	return payload
}
