package record

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gltp/captrack/internal/database"
	"github.com/gltp/captrack/pkg/replay"
)

// Repository is the storage surface the ingestion routing writes through.
type Repository interface {
	SaveCompleted(ctx context.Context, rec *replay.CaptureRecord) error
	SaveIncomplete(ctx context.Context, rec *replay.CaptureRecord) error
	SaveNoPlayers(ctx context.Context, rec *replay.CaptureRecord) error
	SaveParseError(ctx context.Context, key string, message string) error
	Completed(ctx context.Context) ([]replay.CaptureRecord, error)
	Incomplete(ctx context.Context) ([]replay.CaptureRecord, error)
	NoPlayers(ctx context.Context) ([]replay.CaptureRecord, error)
	Known(ctx context.Context, uuids []string) ([]Known, error)
	ErrorUUIDs(ctx context.Context, uuids []string) ([]string, error)
}

type recordRepository struct {
	db database.Database
}

func NewRepository(db database.Database) Repository {
	return &recordRepository{db: db}
}

// SaveCompleted stores a completed record with the payload denormalised into
// the queryable columns.
func (r *recordRepository) SaveCompleted(ctx context.Context, rec *replay.CaptureRecord) error {
	payload, errPayload := json.Marshal(rec)
	if errPayload != nil {
		return errors.Join(errPayload, ErrSaveRecord)
	}

	return database.DBErr(r.db.ExecInsertBuilder(ctx, r.db.
		Builder().
		Insert("record").
		SetMap(map[string]any{
			"uuid":           rec.UUID,
			"payload":        payload,
			"capping_player": rec.CappingPlayer,
			"map_id":         rec.MapID,
			"record_time":    rec.RecordTime,
			"map_name":       rec.MapName,
			"map_author":     rec.MapAuthor,
			"total_jumps":    rec.TotalJumps,
		})))
}

func (r *recordRepository) SaveIncomplete(ctx context.Context, rec *replay.CaptureRecord) error {
	return r.savePayload(ctx, "record_incomplete", rec)
}

func (r *recordRepository) SaveNoPlayers(ctx context.Context, rec *replay.CaptureRecord) error {
	return r.savePayload(ctx, "record_noplayer", rec)
}

func (r *recordRepository) savePayload(ctx context.Context, table string, rec *replay.CaptureRecord) error {
	payload, errPayload := json.Marshal(rec)
	if errPayload != nil {
		return errors.Join(errPayload, ErrSaveRecord)
	}

	return database.DBErr(r.db.ExecInsertBuilder(ctx, r.db.
		Builder().
		Insert(table).
		SetMap(map[string]any{
			"uuid":    rec.UUID,
			"payload": payload,
		})))
}

// SaveParseError logs a failed parse. Repeated failures for the same input
// keep the first message.
func (r *recordRepository) SaveParseError(ctx context.Context, key string, message string) error {
	return database.DBErr(r.db.ExecInsertBuilder(ctx, r.db.
		Builder().
		Insert("parse_error").
		SetMap(map[string]any{
			"uuid":          key,
			"error_message": message,
		}).
		Suffix("ON CONFLICT (uuid) DO NOTHING")))
}

func (r *recordRepository) Completed(ctx context.Context) ([]replay.CaptureRecord, error) {
	return r.listPayloads(ctx, "record")
}

func (r *recordRepository) Incomplete(ctx context.Context) ([]replay.CaptureRecord, error) {
	return r.listPayloads(ctx, "record_incomplete")
}

func (r *recordRepository) NoPlayers(ctx context.Context) ([]replay.CaptureRecord, error) {
	return r.listPayloads(ctx, "record_noplayer")
}

func (r *recordRepository) listPayloads(ctx context.Context, table string) ([]replay.CaptureRecord, error) {
	rows, errQuery := r.db.QueryBuilder(ctx, r.db.
		Builder().
		Select("payload").
		From(table).
		OrderBy("created_on DESC"))
	if errQuery != nil {
		return nil, database.DBErr(errQuery)
	}

	defer rows.Close()

	records := []replay.CaptureRecord{}

	for rows.Next() {
		var payload []byte
		if errScan := rows.Scan(&payload); errScan != nil {
			return nil, database.DBErr(errScan)
		}

		var rec replay.CaptureRecord
		if errDecode := json.Unmarshal(payload, &rec); errDecode != nil {
			return nil, errors.Join(errDecode, ErrListRecords)
		}

		records = append(records, rec)
	}

	return records, nil
}

// Known reports which of the given uuids already exist in any record store.
func (r *recordRepository) Known(ctx context.Context, uuids []string) ([]Known, error) {
	const query = `
		SELECT uuid::text, 'records' AS source FROM record WHERE uuid::text = ANY($1)
		UNION
		SELECT uuid::text, 'incomplete' AS source FROM record_incomplete WHERE uuid::text = ANY($1)
		UNION
		SELECT uuid::text, 'noplayers' AS source FROM record_noplayer WHERE uuid::text = ANY($1)`

	rows, errQuery := r.db.Query(ctx, query, uuids)
	if errQuery != nil {
		return nil, database.DBErr(errQuery)
	}

	defer rows.Close()

	var known []Known

	for rows.Next() {
		var entry Known
		if errScan := rows.Scan(&entry.UUID, &entry.Source); errScan != nil {
			return nil, database.DBErr(errScan)
		}

		known = append(known, entry)
	}

	return known, nil
}

// ErrorUUIDs reports which of the given uuids have a logged parse error.
func (r *recordRepository) ErrorUUIDs(ctx context.Context, uuids []string) ([]string, error) {
	rows, errQuery := r.db.QueryBuilder(ctx, r.db.
		Builder().
		Select("uuid").
		From("parse_error").
		Where("uuid = ANY(?)", uuids))
	if errQuery != nil {
		return nil, database.DBErr(errQuery)
	}

	defer rows.Close()

	var found []string

	for rows.Next() {
		var uuid string
		if errScan := rows.Scan(&uuid); errScan != nil {
			return nil, database.DBErr(errScan)
		}

		found = append(found, uuid)
	}

	return found, nil
}
