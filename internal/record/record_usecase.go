package record

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gltp/captrack/internal/database"
	"github.com/gltp/captrack/internal/maps"
	"github.com/gltp/captrack/internal/tagpro"
	"github.com/gltp/captrack/pkg/log"
	"github.com/gltp/captrack/pkg/replay"
	"github.com/gofrs/uuid/v5"
)

// ReplayFetcher resolves a pasted input to a decoded replay log.
type ReplayFetcher interface {
	Replay(ctx context.Context, input string) ([]replay.Event, error)
}

// ObjectiveSource provides the current map objective lookup snapshot.
type ObjectiveSource interface {
	Snapshot(ctx context.Context) (maps.Lookup, error)
}

type Records struct {
	repository Repository
	fetcher    ReplayFetcher
	objectives ObjectiveSource
}

func NewRecords(repository Repository, fetcher ReplayFetcher, objectives ObjectiveSource) Records {
	return Records{repository: repository, fetcher: fetcher, objectives: objectives}
}

// Process runs the full pipeline for one submission: fetch and decode the
// replay, extract the capture record, then route it into the matching store.
// Parse failures are logged to the error store and reported in the result
// rather than returned; a non-nil error means infrastructure trouble.
func (u Records) Process(ctx context.Context, input string, origin string) (Result, error) {
	events, errFetch := u.fetcher.Replay(ctx, input)
	if errFetch != nil {
		return u.parseFailure(ctx, input, errFetch)
	}

	lookup, errLookup := u.objectives.Snapshot(ctx)
	if errLookup != nil {
		return Result{}, errLookup
	}

	rec, errExtract := replay.Extract(events, lookup)
	if errExtract != nil {
		return u.parseFailure(ctx, input, errExtract)
	}

	rec.Origin = origin
	rec.Uploaded = time.Now().UnixMilli()

	summary := rec.ShortSummary()

	upload, errUpload := u.store(ctx, rec, summary)
	if errUpload != nil {
		if errSave := u.repository.SaveParseError(ctx, rec.UUID, "DB insert error: "+errUpload.Error()); errSave != nil {
			slog.Error("Failed to log insert error", log.ErrAttr(errSave))
		}

		return Result{}, errUpload
	}

	return Result{Ok: true, Summary: summary, Record: rec, Upload: &upload}, nil
}

func (u Records) parseFailure(ctx context.Context, input string, cause error) (Result, error) {
	key := tagpro.ExtractUUID(input)
	if key == "" {
		key = input
	}

	if errSave := u.repository.SaveParseError(ctx, key, cause.Error()); errSave != nil {
		return Result{}, errSave
	}

	slog.Warn("Parse failed", slog.String("input", input), log.ErrAttr(cause))
	parseOutcomes.WithLabelValues("failed").Inc()

	return Result{Ok: false, Summary: "Parse failed", Error: cause.Error()}, nil
}

// store routes the record into the right table and reports the upload
// outcome. A duplicate is not an error, it is a 409 outcome.
func (u Records) store(ctx context.Context, rec *replay.CaptureRecord, summary string) (Upload, error) {
	var (
		status  Status
		errSave error
	)

	switch {
	case rec.Completed():
		status = StatusInserted
		errSave = u.repository.SaveCompleted(ctx, rec)
	case rec.HasPlayers():
		status = StatusIncomplete
		errSave = u.repository.SaveIncomplete(ctx, rec)
	default:
		status = StatusNoPlayers
		errSave = u.repository.SaveNoPlayers(ctx, rec)
	}

	if errSave != nil {
		if errors.Is(errSave, database.ErrDuplicate) {
			parseOutcomes.WithLabelValues(string(StatusDuplicate)).Inc()

			return Upload{
				Status: 409,
				Body:   UploadBody{Ok: false, Status: StatusDuplicate, Summary: summary},
			}, nil
		}

		return Upload{}, errSave
	}

	slog.Info("Stored record",
		slog.String("uuid", rec.UUID),
		slog.String("status", string(status)),
		slog.String("summary", summary))
	parseOutcomes.WithLabelValues(string(status)).Inc()

	return Upload{
		Status: 201,
		Body:   UploadBody{Ok: true, Status: status, Summary: summary},
	}, nil
}

func (u Records) Completed(ctx context.Context) ([]replay.CaptureRecord, error) {
	return u.repository.Completed(ctx)
}

func (u Records) Incomplete(ctx context.Context) ([]replay.CaptureRecord, error) {
	return u.repository.Incomplete(ctx)
}

func (u Records) NoPlayers(ctx context.Context) ([]replay.CaptureRecord, error) {
	return u.repository.NoPlayers(ctx)
}

// CheckKnown reports which of the submitted uuids already exist in any of
// the record stores. Malformed uuids are never sent to the database and
// come back as missing.
func (u Records) CheckKnown(ctx context.Context, uuids []string) (CheckResult, error) {
	if len(uuids) > MaxBatchSize {
		return CheckResult{}, ErrBatchSize
	}

	result := CheckResult{
		TotalReceived:  len(uuids),
		CountsBySource: map[string]int{},
		Existing:       []Known{},
		Missing:        []string{},
	}

	safe := validUUIDs(uuids)
	if len(safe) > 0 {
		known, errKnown := u.repository.Known(ctx, safe)
		if errKnown != nil {
			return CheckResult{}, errKnown
		}

		result.Existing = known
	}

	existingSet := map[string]bool{}
	for _, entry := range result.Existing {
		existingSet[entry.UUID] = true
		result.CountsBySource[entry.Source]++
	}

	for _, candidate := range uuids {
		if !existingSet[candidate] {
			result.Missing = append(result.Missing, candidate)
		}
	}

	result.FoundCount = len(result.Existing)
	result.MissingCount = len(result.Missing)

	return result, nil
}

// CheckErrors reports which of the submitted uuids have a logged parse error.
func (u Records) CheckErrors(ctx context.Context, uuids []string) (ErrorCheckResult, error) {
	if len(uuids) > MaxBatchSize {
		return ErrorCheckResult{}, ErrBatchSize
	}

	result := ErrorCheckResult{
		TotalReceived: len(uuids),
		Existing:      []string{},
		Missing:       []string{},
	}

	safe := validUUIDs(uuids)
	if len(safe) > 0 {
		existing, errExisting := u.repository.ErrorUUIDs(ctx, safe)
		if errExisting != nil {
			return ErrorCheckResult{}, errExisting
		}

		if existing != nil {
			result.Existing = existing
		}
	}

	existingSet := map[string]bool{}
	for _, found := range result.Existing {
		existingSet[found] = true
	}

	for _, candidate := range uuids {
		if !existingSet[candidate] {
			result.Missing = append(result.Missing, candidate)
		}
	}

	result.FoundCount = len(result.Existing)
	result.MissingCount = len(result.Missing)

	return result, nil
}

func validUUIDs(uuids []string) []string {
	var safe []string

	for _, candidate := range uuids {
		if _, errParse := uuid.FromString(candidate); errParse == nil {
			safe = append(safe, candidate)
		}
	}

	return safe
}
