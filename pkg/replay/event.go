package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidFormat is returned when a replay does not satisfy the recorder
	// header contract or contains a line that cannot be decoded.
	ErrInvalidFormat = errors.New("invalid replay format")
	// ErrUnresolvedMap is returned when the map id embedded in the replay matches
	// neither a canonical nor an equivalent id in the supplied configuration.
	ErrUnresolvedMap = errors.New("map not present in configuration")
)

// EventKind is the string tag identifying a replay event line.
type EventKind string

const (
	Metadata     EventKind = "recorder-metadata"
	MapInfo      EventKind = "map"
	ClientInfo   EventKind = "clientInfo"
	TimeState    EventKind = "time"
	TeamScore    EventKind = "score"
	Chat         EventKind = "chat"
	PlayerUpdate EventKind = "p"
	PlayerSound  EventKind = "replayPlayerMessage"
)

// Team is the in-game team assignment. Red is the primary (objective) team,
// blue the secondary.
type Team int

const (
	UNASSIGNED Team = 0
	RED        Team = 1
	BLU        Team = 2
)

// Payload is the closed set of decoded event payloads. Kinds without a
// modelled payload decode to OpaquePayload so nothing is silently dropped.
type Payload interface {
	kind() EventKind
}

// Event is one replay line: a millisecond timestamp, a kind tag and the
// kind-specific payload. Events are immutable once decoded and ordered by
// their position in the log, with timestamps non-decreasing.
type Event struct {
	Timestamp int64
	Kind      EventKind
	Payload   Payload
}

// RosterEntry is one player slot from the recorder metadata.
type RosterEntry struct {
	ID          int    `json:"id"`
	DisplayName string `json:"displayName"`
	UserID      string `json:"userId"`
	Team        Team   `json:"team"`
	SessionID   string `json:"sessionId"`
}

// MetadataPayload is the first line of every valid replay.
type MetadataPayload struct {
	UUID    string        `json:"uuid"`
	Started int64         `json:"started"`
	Players []RosterEntry `json:"players"`
}

func (MetadataPayload) kind() EventKind { return Metadata }

type MapDetails struct {
	Name   string `json:"name"`
	Author string `json:"author"`
}

type MapInfoPayload struct {
	Info MapDetails `json:"info"`
}

func (MapInfoPayload) kind() EventKind { return MapInfo }

// ClientInfoPayload carries the path of the map actually loaded by the
// client, the ground truth of which map variant was played.
type ClientInfoPayload struct {
	MapFile string `json:"mapfile"`
}

func (ClientInfoPayload) kind() EventKind { return ClientInfo }

// ActualMapID returns the map id segment of the mapfile path, or an empty
// string when the path has no id segment.
func (p ClientInfoPayload) ActualMapID() string {
	parts := strings.Split(p.MapFile, "/")
	if len(parts) < 2 {
		return ""
	}

	return parts[1]
}

// TimePayload signals match timer transitions. State 1 marks the timer
// starting.
type TimePayload struct {
	State int   `json:"state"`
	Time  int64 `json:"time"`
}

func (TimePayload) kind() EventKind { return TimeState }

func (p TimePayload) TimerStarted() bool { return p.State == 1 }

// ScorePayload is the running team score at the time of the event.
type ScorePayload struct {
	Red  int `json:"r"`
	Blue int `json:"b"`
}

func (ScorePayload) kind() EventKind { return TeamScore }

// ChatPayload is a chat line. From is nil for system messages.
type ChatPayload struct {
	From    *int   `json:"from"`
	Message string `json:"message"`
}

func (ChatPayload) kind() EventKind { return Chat }

type SoundData struct {
	Sound string `json:"s"`
}

// SoundPayload is a replayPlayerMessage event.
type SoundPayload struct {
	Type string    `json:"type"`
	Data SoundData `json:"data"`
}

func (SoundPayload) kind() EventKind { return PlayerSound }

func (p SoundPayload) IsJump() bool { return p.Type == "sound" && p.Data.Sound == "jump" }

// PlayerDelta is one per-tick player entry inside a PlayerUpdate event. The
// recorder only includes fields that changed, so Name and Team may be empty
// while the slot id is always present. Captures is the player's cumulative
// capture counter as reported this tick.
type PlayerDelta struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	SessionID string `json:"sessionId"`
	Team      *Team  `json:"team"`
	Captures  int    `json:"s-captures"`
}

type PlayerUpdatePayload []PlayerDelta

func (PlayerUpdatePayload) kind() EventKind { return PlayerUpdate }

// OpaquePayload holds the raw payload of event kinds the engine does not
// interpret. They are carried, not skipped, so ordering and timestamps stay
// intact for the timeline.
type OpaquePayload json.RawMessage

func (OpaquePayload) kind() EventKind { return "" }

// UnmarshalJSON decodes a single replay line of the form
// [timestamp, kind, payload].
func (e *Event) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return errors.Join(err, ErrInvalidFormat)
	}

	if len(tuple) != 3 {
		return fmt.Errorf("%w: expected 3 elements, got %d", ErrInvalidFormat, len(tuple))
	}

	if err := json.Unmarshal(tuple[0], &e.Timestamp); err != nil {
		return errors.Join(err, ErrInvalidFormat)
	}

	if err := json.Unmarshal(tuple[1], &e.Kind); err != nil {
		return errors.Join(err, ErrInvalidFormat)
	}

	payload, errPayload := decodePayload(e.Kind, tuple[2])
	if errPayload != nil {
		return errPayload
	}

	e.Payload = payload

	return nil
}

func decodePayload(kind EventKind, raw json.RawMessage) (Payload, error) {
	switch kind {
	case Metadata:
		return decodeAs[MetadataPayload](raw)
	case MapInfo:
		return decodeAs[MapInfoPayload](raw)
	case ClientInfo:
		return decodeAs[ClientInfoPayload](raw)
	case TimeState:
		return decodeAs[TimePayload](raw)
	case TeamScore:
		return decodeAs[ScorePayload](raw)
	case Chat:
		return decodeAs[ChatPayload](raw)
	case PlayerUpdate:
		return decodeAs[PlayerUpdatePayload](raw)
	case PlayerSound:
		return decodeAs[SoundPayload](raw)
	default:
		return OpaquePayload(raw), nil
	}
}

func decodeAs[T Payload](raw json.RawMessage) (Payload, error) {
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, errors.Join(err, ErrInvalidFormat)
	}

	return value, nil
}
