package recordstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Postgres stores raw records in a single jsonb-payload table, preserving
// whatever shape (legacy or normalized) the payload arrived in.
//
// Schema:
//
//	CREATE TABLE records (
//	    entity  TEXT   NOT NULL,
//	    id      BIGINT NOT NULL,
//	    payload JSONB  NOT NULL,
//	    PRIMARY KEY (entity, id)
//	);
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres constructs the Postgres-backed store.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// List returns all records for the entity ordered by id.
func (s *Postgres) List(ctx context.Context, entity string) ([]RawRecord, error) {
	rows, err := s.db.QueryxContext(ctx, `SELECT id, payload FROM records WHERE entity = $1 ORDER BY id`, entity)
	if err != nil {
		return nil, fmt.Errorf("list %s records: %w", entity, err)
	}
	defer rows.Close()

	var records []RawRecord
	for rows.Next() {
		var id int64
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scan %s record: %w", entity, err)
		}
		record, err := decodePayload(id, payload)
		if err != nil {
			return nil, fmt.Errorf("decode %s record %d: %w", entity, id, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s records: %w", entity, err)
	}
	return records, nil
}

// Get returns one record or ErrNotFound.
func (s *Postgres) Get(ctx context.Context, entity string, id int) (RawRecord, error) {
	var payload []byte
	err := s.db.GetContext(ctx, &payload, `SELECT payload FROM records WHERE entity = $1 AND id = $2`, entity, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s record %d: %w", entity, id, err)
	}
	return decodePayload(int64(id), payload)
}

// Create inserts a record under an explicit id.
func (s *Postgres) Create(ctx context.Context, entity string, id int, payload RawRecord) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", entity, err)
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO records (entity, id, payload) VALUES ($1, $2, $3)`, entity, id, encoded); err != nil {
		return fmt.Errorf("create %s record %d: %w", entity, id, err)
	}
	return nil
}

// Update merges the payload into the stored record.
func (s *Postgres) Update(ctx context.Context, entity string, id int, payload RawRecord) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", entity, err)
	}
	result, err := s.db.ExecContext(ctx, `UPDATE records SET payload = payload || $3 WHERE entity = $1 AND id = $2`, entity, id, encoded)
	if err != nil {
		return fmt.Errorf("update %s record %d: %w", entity, id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s record %d: %w", entity, id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a record and reports whether a row was removed.
func (s *Postgres) Delete(ctx context.Context, entity string, id int) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE entity = $1 AND id = $2`, entity, id)
	if err != nil {
		return false, fmt.Errorf("delete %s record %d: %w", entity, id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete %s record %d: %w", entity, id, err)
	}
	return affected > 0, nil
}

// MaxID returns the highest id in use for the entity, 0 when empty.
func (s *Postgres) MaxID(ctx context.Context, entity string) (int, error) {
	var max int
	if err := s.db.GetContext(ctx, &max, `SELECT COALESCE(MAX(id), 0) FROM records WHERE entity = $1`, entity); err != nil {
		return 0, fmt.Errorf("max id for %s: %w", entity, err)
	}
	return max, nil
}

func decodePayload(id int64, payload []byte) (RawRecord, error) {
	record := RawRecord{}
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, err
	}
	record["Id"] = int(id)
	return record, nil
}
