package replay

import "fmt"

// Player is one roster entry as reported in the output record.
type Player struct {
	Name   string `json:"name"`
	UserID string `json:"user_id"`
	IsRed  bool   `json:"is_red"`
}

// CaptureRecord is the canonical result of one extraction. RecordTime and
// CappingPlayer are nil together when the match ran without a qualifying
// capture, which is a valid outcome distinct from a decode or resolution
// error.
type CaptureRecord struct {
	UUID                string   `json:"uuid"`
	MapName             string   `json:"map_name"`
	MapID               string   `json:"map_id"`
	ActualMapID         string   `json:"actual_map_id"`
	MapAuthor           string   `json:"map_author"`
	Players             []Player `json:"players"`
	CappingPlayer       *string  `json:"capping_player"`
	CappingPlayerUserID *string  `json:"capping_player_user_id"`
	RecordTime          *int64   `json:"record_time"`
	IsSolo              bool     `json:"is_solo"`
	Started             int64    `json:"timestamp"`
	CappingPlayerQuote  *string  `json:"capping_player_quote"`
	CapsToWin           int      `json:"caps_to_win"`
	AllowBlueCaps       bool     `json:"allow_blue_caps"`
	TotalJumps          int      `json:"total_jumps"`
	Origin              string   `json:"origin,omitempty"`
	Uploaded            int64    `json:"timestamp_uploaded,omitempty"`
}

// Completed is true when a qualifying capture was detected.
func (record *CaptureRecord) Completed() bool {
	return record.RecordTime != nil && record.CappingPlayer != nil
}

func (record *CaptureRecord) HasPlayers() bool {
	return len(record.Players) > 0
}

// ShortSummary renders the one line human readable form of the record.
func (record *CaptureRecord) ShortSummary() string {
	mapName := record.MapName
	if mapName == "" {
		mapName = "Unknown Map"
	}

	capper := "Unknown Player"
	if record.CappingPlayer != nil {
		capper = *record.CappingPlayer
	}

	elapsed := "N/A"
	if record.RecordTime != nil {
		elapsed = FormatRecordTime(*record.RecordTime)
	}

	return fmt.Sprintf("%s capped on %s in %s with %d jumps", capper, mapName, elapsed, record.TotalJumps)
}

// FormatRecordTime renders elapsed milliseconds as m:ss.mmm.
func FormatRecordTime(milliseconds int64) string {
	minutes := milliseconds / 60000
	seconds := float64(milliseconds%60000) / 1000.0

	return fmt.Sprintf("%d:%06.3f", minutes, seconds)
}
