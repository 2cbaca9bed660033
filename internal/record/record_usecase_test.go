package record_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gltp/captrack/internal/database"
	"github.com/gltp/captrack/internal/maps"
	"github.com/gltp/captrack/internal/record"
	"github.com/gltp/captrack/pkg/replay"
	"github.com/stretchr/testify/require"
)

const testUUID = "11111111-2222-4333-8444-555555555555"

type fakeRepository struct {
	completed   []*replay.CaptureRecord
	incomplete  []*replay.CaptureRecord
	noPlayers   []*replay.CaptureRecord
	parseErrors map[string]string
	known       []record.Known
	errorUUIDs  []string
	saveErr     error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{parseErrors: map[string]string{}}
}

func (r *fakeRepository) SaveCompleted(_ context.Context, rec *replay.CaptureRecord) error {
	if r.saveErr != nil {
		return r.saveErr
	}

	r.completed = append(r.completed, rec)

	return nil
}

func (r *fakeRepository) SaveIncomplete(_ context.Context, rec *replay.CaptureRecord) error {
	if r.saveErr != nil {
		return r.saveErr
	}

	r.incomplete = append(r.incomplete, rec)

	return nil
}

func (r *fakeRepository) SaveNoPlayers(_ context.Context, rec *replay.CaptureRecord) error {
	if r.saveErr != nil {
		return r.saveErr
	}

	r.noPlayers = append(r.noPlayers, rec)

	return nil
}

func (r *fakeRepository) SaveParseError(_ context.Context, key string, message string) error {
	r.parseErrors[key] = message

	return nil
}

func (r *fakeRepository) Completed(_ context.Context) ([]replay.CaptureRecord, error) {
	return nil, nil
}

func (r *fakeRepository) Incomplete(_ context.Context) ([]replay.CaptureRecord, error) {
	return nil, nil
}

func (r *fakeRepository) NoPlayers(_ context.Context) ([]replay.CaptureRecord, error) {
	return nil, nil
}

func (r *fakeRepository) Known(_ context.Context, _ []string) ([]record.Known, error) {
	return r.known, nil
}

func (r *fakeRepository) ErrorUUIDs(_ context.Context, _ []string) ([]string, error) {
	return r.errorUUIDs, nil
}

type fakeFetcher struct {
	events []replay.Event
	err    error
}

func (f fakeFetcher) Replay(_ context.Context, _ string) ([]replay.Event, error) {
	return f.events, f.err
}

type staticObjectives struct {
	lookup maps.Lookup
}

func (s staticObjectives) Snapshot(_ context.Context) (maps.Lookup, error) {
	return s.lookup, nil
}

func testObjectives() staticObjectives {
	return staticObjectives{lookup: maps.Lookup{{MapID: "74321", Name: "Gravity Well", CapsToWin: 1}}}
}

func ev(timestamp int64, kind replay.EventKind, payload replay.Payload) replay.Event {
	return replay.Event{Timestamp: timestamp, Kind: kind, Payload: payload}
}

func testEvents(players []replay.RosterEntry, tail ...replay.Event) []replay.Event {
	events := []replay.Event{
		ev(0, replay.Metadata, replay.MetadataPayload{
			UUID:    testUUID,
			Started: 1700000000000,
			Players: players,
		}),
		ev(0, replay.TimeState, replay.TimePayload{State: 0}),
		ev(0, replay.MapInfo, replay.MapInfoPayload{Info: replay.MapDetails{Name: "Gravity Well", Author: "wellmaker"}}),
		ev(0, replay.ClientInfo, replay.ClientInfoPayload{MapFile: "maps/74321"}),
	}

	return append(events, tail...)
}

func testRoster() []replay.RosterEntry {
	return []replay.RosterEntry{{ID: 1, DisplayName: "SomeBall 1", UserID: "u-100", Team: replay.RED}}
}

func captureEvents() []replay.Event {
	return testEvents(testRoster(),
		ev(100, replay.TimeState, replay.TimePayload{State: 1}),
		ev(4990, replay.TeamScore, replay.ScorePayload{Red: 1, Blue: 0}),
		ev(5000, replay.PlayerUpdate, replay.PlayerUpdatePayload{{ID: 1, Captures: 1}}),
	)
}

func TestProcessCompleted(t *testing.T) {
	repo := newFakeRepository()
	records := record.NewRecords(repo, fakeFetcher{events: captureEvents()}, testObjectives())

	result, errProcess := records.Process(context.Background(), testUUID, "web")
	require.NoError(t, errProcess)
	require.True(t, result.Ok)
	require.NotNil(t, result.Record)
	require.NotNil(t, result.Upload)
	require.Equal(t, 201, result.Upload.Status)
	require.Equal(t, record.StatusInserted, result.Upload.Body.Status)
	require.Contains(t, result.Summary, "SomeBall 1 capped on Gravity Well")

	require.Len(t, repo.completed, 1)
	require.Equal(t, "web", repo.completed[0].Origin)
	require.Positive(t, repo.completed[0].Uploaded)
}

func TestProcessIncomplete(t *testing.T) {
	// Players present, but no qualifying capture.
	repo := newFakeRepository()
	events := testEvents(testRoster(), ev(100, replay.TimeState, replay.TimePayload{State: 1}))
	records := record.NewRecords(repo, fakeFetcher{events: events}, testObjectives())

	result, errProcess := records.Process(context.Background(), testUUID, "")
	require.NoError(t, errProcess)
	require.True(t, result.Ok)
	require.Equal(t, record.StatusIncomplete, result.Upload.Body.Status)
	require.Len(t, repo.incomplete, 1)
	require.Empty(t, repo.completed)
}

func TestProcessNoPlayers(t *testing.T) {
	repo := newFakeRepository()
	events := testEvents(nil, ev(100, replay.TimeState, replay.TimePayload{State: 1}))
	records := record.NewRecords(repo, fakeFetcher{events: events}, testObjectives())

	result, errProcess := records.Process(context.Background(), testUUID, "")
	require.NoError(t, errProcess)
	require.True(t, result.Ok)
	require.Equal(t, record.StatusNoPlayers, result.Upload.Body.Status)
	require.Len(t, repo.noPlayers, 1)
}

func TestProcessDuplicate(t *testing.T) {
	repo := newFakeRepository()
	repo.saveErr = database.ErrDuplicate
	records := record.NewRecords(repo, fakeFetcher{events: captureEvents()}, testObjectives())

	result, errProcess := records.Process(context.Background(), testUUID, "")
	require.NoError(t, errProcess)
	require.True(t, result.Ok)
	require.Equal(t, 409, result.Upload.Status)
	require.Equal(t, record.StatusDuplicate, result.Upload.Body.Status)
	require.False(t, result.Upload.Body.Ok)
}

func TestProcessFetchFailure(t *testing.T) {
	repo := newFakeRepository()
	records := record.NewRecords(repo, fakeFetcher{err: errors.New("replay offline")}, testObjectives())

	result, errProcess := records.Process(context.Background(), "link with "+testUUID+" inside", "")
	require.NoError(t, errProcess)
	require.False(t, result.Ok)
	require.Equal(t, "Parse failed", result.Summary)
	require.Contains(t, repo.parseErrors[testUUID], "replay offline")
}

func TestProcessUnresolvedMap(t *testing.T) {
	repo := newFakeRepository()
	records := record.NewRecords(repo, fakeFetcher{events: captureEvents()}, staticObjectives{})

	result, errProcess := records.Process(context.Background(), testUUID, "")
	require.NoError(t, errProcess)
	require.False(t, result.Ok)
	require.Contains(t, repo.parseErrors[testUUID], "map not present in configuration")
}

func TestCheckKnown(t *testing.T) {
	repo := newFakeRepository()
	repo.known = []record.Known{{UUID: testUUID, Source: "records"}}
	records := record.NewRecords(repo, fakeFetcher{}, testObjectives())

	result, errCheck := records.CheckKnown(context.Background(), []string{testUUID, "not-a-uuid"})
	require.NoError(t, errCheck)
	require.Equal(t, 2, result.TotalReceived)
	require.Equal(t, 1, result.FoundCount)
	require.Equal(t, []string{"not-a-uuid"}, result.Missing)
	require.Equal(t, map[string]int{"records": 1}, result.CountsBySource)
}

func TestCheckKnownBatchSize(t *testing.T) {
	records := record.NewRecords(newFakeRepository(), fakeFetcher{}, testObjectives())

	uuids := make([]string, 0, record.MaxBatchSize+1)
	for index := range record.MaxBatchSize + 1 {
		uuids = append(uuids, fmt.Sprintf("%08d-2222-4333-8444-555555555555", index))
	}

	_, errCheck := records.CheckKnown(context.Background(), uuids)
	require.ErrorIs(t, errCheck, record.ErrBatchSize)
}

func TestCheckErrors(t *testing.T) {
	repo := newFakeRepository()
	repo.errorUUIDs = []string{testUUID}
	records := record.NewRecords(repo, fakeFetcher{}, testObjectives())

	result, errCheck := records.CheckErrors(context.Background(), []string{testUUID, "22222222-2222-4333-8444-555555555555"})
	require.NoError(t, errCheck)
	require.Equal(t, 1, result.FoundCount)
	require.Equal(t, []string{"22222222-2222-4333-8444-555555555555"}, result.Missing)
}
