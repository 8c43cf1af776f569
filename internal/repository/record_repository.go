package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
)

// ErrRecordNotFound is returned when a delete targets a missing record.
var ErrRecordNotFound = errors.New("record not found")

// ErrMissingRecordID is returned for payloads without a usable "id".
var ErrMissingRecordID = errors.New("record payload has no id")

// RecordsSchema creates the generic record table. Every resource shares it and
// each row stores the full JSON document.
const RecordsSchema = `CREATE TABLE IF NOT EXISTS records (
    resource   TEXT        NOT NULL,
    id         TEXT        NOT NULL,
    payload    JSONB       NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (resource, id)
)`

const upsertRecordQuery = `INSERT INTO records (resource, id, payload, created_at, updated_at)
VALUES (:resource, :id, :payload, :updated_at, :updated_at)
ON CONFLICT (resource, id)
DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`

type recordRow struct {
	Resource  string         `db:"resource"`
	ID        string         `db:"id"`
	Payload   types.JSONText `db:"payload"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// RecordRepository keeps JSON documents in PostgreSQL, keyed by resource and id.
type RecordRepository struct {
	db *sqlx.DB
}

// NewRecordRepository constructs a RecordRepository.
func NewRecordRepository(db *sqlx.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// EnsureSchema creates the records table when it does not exist yet.
func (r *RecordRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, RecordsSchema); err != nil {
		return fmt.Errorf("ensure records schema: %w", err)
	}
	return nil
}

// FetchAll returns every document of a resource in insertion order.
func (r *RecordRepository) FetchAll(ctx context.Context, resource string) ([]json.RawMessage, error) {
	const query = `SELECT payload FROM records WHERE resource = $1 ORDER BY created_at ASC, id ASC`
	var payloads []types.JSONText
	if err := r.db.SelectContext(ctx, &payloads, query, resource); err != nil {
		return nil, fmt.Errorf("fetch %s records: %w", resource, err)
	}
	out := make([]json.RawMessage, len(payloads))
	for i, p := range payloads {
		out[i] = json.RawMessage(p)
	}
	return out, nil
}

// UpsertOne inserts or replaces a single document.
func (r *RecordRepository) UpsertOne(ctx context.Context, resource string, record json.RawMessage) error {
	row, err := newRecordRow(resource, record, time.Now().UTC())
	if err != nil {
		return err
	}
	if _, err := r.db.NamedExecContext(ctx, upsertRecordQuery, row); err != nil {
		return fmt.Errorf("upsert %s record %s: %w", resource, row.ID, err)
	}
	return nil
}

// UpsertBatch writes all documents in one transaction; either every document
// is stored or none is.
func (r *RecordRepository) UpsertBatch(ctx context.Context, resource string, records []json.RawMessage) error {
	if len(records) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]recordRow, len(records))
	for i, rec := range records {
		row, err := newRecordRow(resource, rec, now)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		rows[i] = row
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s batch tx: %w", resource, err)
	}
	for _, row := range rows {
		if _, err := tx.NamedExecContext(ctx, upsertRecordQuery, row); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("batch upsert %s record %s: %w", resource, row.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s batch tx: %w", resource, err)
	}
	return nil
}

// Delete removes a document.
func (r *RecordRepository) Delete(ctx context.Context, resource, id string) error {
	const query = `DELETE FROM records WHERE resource = $1 AND id = $2`
	res, err := r.db.ExecContext(ctx, query, resource, id)
	if err != nil {
		return fmt.Errorf("delete %s record %s: %w", resource, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s record %s: %w", resource, id, err)
	}
	if affected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func newRecordRow(resource string, record json.RawMessage, now time.Time) (recordRow, error) {
	id, err := RecordID(record)
	if err != nil {
		return recordRow{}, err
	}
	return recordRow{Resource: resource, ID: id, Payload: types.JSONText(record), UpdatedAt: now}, nil
}

// RecordID extracts the "id" of a JSON document. String and numeric ids are
// accepted; numbers keep their literal text.
func RecordID(record json.RawMessage) (string, error) {
	var probe struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(record, &probe); err != nil {
		return "", fmt.Errorf("decode record: %w", err)
	}
	raw := strings.TrimSpace(string(probe.ID))
	if raw == "" || raw == "null" {
		return "", ErrMissingRecordID
	}
	if raw[0] == '"' {
		var id string
		if err := json.Unmarshal(probe.ID, &id); err != nil {
			return "", fmt.Errorf("decode record id: %w", err)
		}
		if strings.TrimSpace(id) == "" {
			return "", ErrMissingRecordID
		}
		return id, nil
	}
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return "", ErrMissingRecordID
	}
	return raw, nil
}
