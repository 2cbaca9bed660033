// Package record ingests parsed capture records, routing them into the
// completed, incomplete or no-player stores and exposing the lookup API
// used by the leaderboard tooling.
package record

import (
	"errors"

	"github.com/gltp/captrack/pkg/replay"
)

var (
	ErrMissingInput = errors.New("missing 'input' in request body")
	ErrBatchSize    = errors.New("too many uuids, max batch size is 100")
	ErrSaveRecord   = errors.New("failed to save record")
	ErrListRecords  = errors.New("failed to load records")
)

// MaxBatchSize caps the uuid lists accepted by the batch check endpoints.
const MaxBatchSize = 100

// Status describes where an ingested record landed.
type Status string

const (
	StatusInserted   Status = "inserted"
	StatusIncomplete Status = "logged_incomplete"
	StatusNoPlayers  Status = "logged_no_players"
	StatusDuplicate  Status = "duplicate"
)

// UploadBody is the per-upload outcome reported back to the submitter.
type UploadBody struct {
	Ok      bool   `json:"ok"`
	Status  Status `json:"status"`
	Summary string `json:"summary"`
}

// Upload pairs the outcome body with the status code the storage routing
// decided on.
type Upload struct {
	Status int        `json:"status"`
	Body   UploadBody `json:"body"`
}

// Result is the full response for one parse submission.
type Result struct {
	Ok      bool                  `json:"ok"`
	Summary string                `json:"summary"`
	Error   string                `json:"error,omitempty"`
	Record  *replay.CaptureRecord `json:"record,omitempty"`
	Upload  *Upload               `json:"upload,omitempty"`
}

// Known is one uuid found by a batch check, with the store it was found in.
type Known struct {
	UUID   string `json:"uuid"`
	Source string `json:"source"`
}

// CheckResult summarises a batch uuid check across the record stores.
type CheckResult struct {
	TotalReceived  int            `json:"totalReceived"`
	FoundCount     int            `json:"foundCount"`
	MissingCount   int            `json:"missingCount"`
	CountsBySource map[string]int `json:"countsBySource"`
	Existing       []Known        `json:"existing"`
	Missing        []string       `json:"missing"`
}

// ErrorCheckResult summarises a batch uuid check against the parse error log.
type ErrorCheckResult struct {
	TotalReceived int      `json:"totalReceived"`
	FoundCount    int      `json:"foundCount"`
	MissingCount  int      `json:"missingCount"`
	Existing      []string `json:"existing"`
	Missing       []string `json:"missing"`
}
