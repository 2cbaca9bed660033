package record_test

import (
	"testing"

	"github.com/gltp/captrack/internal/record"
	"github.com/gltp/captrack/pkg/replay"
	"github.com/stretchr/testify/require"
)

func strPtr(value string) *string { return &value }

func int64Ptr(value int64) *int64 { return &value }

func TestNewResultMessageCompleted(t *testing.T) {
	rec := &replay.CaptureRecord{
		UUID:          testUUID,
		MapName:       "Gravity Well",
		CappingPlayer: strPtr("SomeBall 1"),
		RecordTime:    int64Ptr(65123),
		Started:       1700000000000,
		TotalJumps:    3,
	}

	msg := record.NewResultMessage(record.Result{
		Ok:      true,
		Summary: rec.ShortSummary(),
		Record:  rec,
		Upload:  &record.Upload{Status: 201, Body: record.UploadBody{Ok: true, Status: record.StatusInserted}},
	})

	require.Equal(t, "New Record!", msg.Title)
	require.Contains(t, msg.Description, "SomeBall 1 capped on Gravity Well in 1:05.123")
	require.Len(t, msg.Fields, 4)
	require.Equal(t, "1:05.123", msg.Fields[2].Value)
}

func TestNewResultMessageDuplicate(t *testing.T) {
	rec := &replay.CaptureRecord{UUID: testUUID, MapName: "Gravity Well"}

	msg := record.NewResultMessage(record.Result{
		Ok:      true,
		Summary: rec.ShortSummary(),
		Record:  rec,
		Upload:  &record.Upload{Status: 409, Body: record.UploadBody{Status: record.StatusDuplicate}},
	})

	require.Equal(t, "Already Recorded", msg.Title)
}

func TestNewResultMessageParseFailed(t *testing.T) {
	msg := record.NewResultMessage(record.Result{Ok: false, Summary: "Parse failed", Error: "invalid replay format"})

	require.Equal(t, "Parse Failed", msg.Title)
	require.Equal(t, "invalid replay format", msg.Description)
}

func TestNewResultMessageNoCapture(t *testing.T) {
	rec := &replay.CaptureRecord{
		UUID:    testUUID,
		MapName: "Gravity Well",
		Players: []replay.Player{{Name: "SomeBall 1"}},
	}

	msg := record.NewResultMessage(record.Result{Ok: true, Summary: rec.ShortSummary(), Record: rec})

	require.Equal(t, "No Capture Found", msg.Title)
}
