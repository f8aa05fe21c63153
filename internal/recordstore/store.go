package recordstore

import (
	"context"
	"errors"
)

// Entity names used by the engine's tables.
const (
	EntityAttendance  = "attendance"
	EntitySession     = "session"
	EntityParticipant = "participant"
)

// ErrNotFound reports a single-record lookup that matched nothing.
var ErrNotFound = errors.New("record not found")

// RawRecord is an untyped record as the backing store returns it. Records
// may arrive in the legacy flat shape or the normalized suffixed shape;
// only the normalize package interprets the field names.
type RawRecord map[string]any

// Store abstracts the record store the ledger and directories read from and
// write to. Implementations own durability and latency; the engine assigns
// ids itself (max+1) so Create receives an explicit id.
type Store interface {
	List(ctx context.Context, entity string) ([]RawRecord, error)
	Get(ctx context.Context, entity string, id int) (RawRecord, error)
	Create(ctx context.Context, entity string, id int, payload RawRecord) error
	Update(ctx context.Context, entity string, id int, payload RawRecord) error
	Delete(ctx context.Context, entity string, id int) (bool, error)
	MaxID(ctx context.Context, entity string) (int, error)
}
