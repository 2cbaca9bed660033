package replay

// CapsUnlimited is the caps_to_win sentinel for maps whose objective cannot
// be detected automatically. The detector short-circuits to an exhausted,
// capture-less result for these maps.
const CapsUnlimited = -1

// Objective is the resolved capture rule for the map a replay was played on.
type Objective struct {
	// MapID is the canonical map id, which overrides the raw in-log id in
	// the output record.
	MapID         string
	CapsToWin     int
	AllowBlueCaps bool
	TeamCaps      bool
}

// ObjectiveResolver looks up the objective rule for the map id embedded in a
// replay. Implementations must try an exact canonical id match before
// falling back to equivalent id membership, and must be a consistent
// snapshot for the duration of one extraction.
type ObjectiveResolver interface {
	Resolve(actualMapID string) (Objective, bool)
}

type detectorState int

const (
	searching detectorState = iota
	found
	exhausted
)

// capture is the qualifying event: when it happened and who triggered it.
type capture struct {
	timestamp int64
	identity  Identity
}

// captureDetector streams through the event sequence once, tracking
// per-identity capture counter deltas and per-team score corroboration,
// and latches the first qualifying capture under the objective rule.
//
// Capture counters alone have proven noisy across recorder revisions, so a
// counter delta only qualifies when a team score increment has been observed
// at or before it. Counters are expected monotonic per identity; a decrease
// is malformed telemetry and contributes a zero delta.
type captureDetector struct {
	objective    Objective
	identities   *identityResolver
	lastCounters map[string]int
	teamTallies  map[Team]int
	lastScore    ScorePayload
	scoreSeen    map[Team]int64
	state        detectorState
	hit          capture
}

func newCaptureDetector(objective Objective, identities *identityResolver) *captureDetector {
	detector := &captureDetector{
		objective:    objective,
		identities:   identities,
		lastCounters: map[string]int{},
		teamTallies:  map[Team]int{},
		scoreSeen:    map[Team]int64{},
	}

	if objective.CapsToWin == CapsUnlimited {
		detector.state = exhausted
	}

	return detector
}

func (detector *captureDetector) result() (capture, bool) {
	return detector.hit, detector.state == found
}

// observeScore records the timestamp of each strict score increase per team.
// Score events are a validity gate, never themselves a capture signal.
func (detector *captureDetector) observeScore(timestamp int64, score ScorePayload) {
	if score.Red > detector.lastScore.Red {
		detector.scoreSeen[RED] = timestamp
	}

	if score.Blue > detector.lastScore.Blue {
		detector.scoreSeen[BLU] = timestamp
	}

	detector.lastScore = score
}

// observePlayers folds one player update event into the detector. Once a
// qualifying capture is found the remaining entries of the tick are not
// considered.
func (detector *captureDetector) observePlayers(timestamp int64, deltas PlayerUpdatePayload) {
	if detector.state != searching {
		return
	}

	for _, playerDelta := range deltas {
		ident := detector.identities.observe(playerDelta)

		previous := detector.lastCounters[ident.SessionKey]
		detector.lastCounters[ident.SessionKey] = playerDelta.Captures

		delta := playerDelta.Captures - previous
		if delta < 0 {
			delta = 0
		}

		if ident.Team == BLU && !detector.objective.AllowBlueCaps {
			continue
		}

		if delta <= 0 {
			continue
		}

		if detector.objective.TeamCaps {
			detector.teamTallies[ident.Team] += delta

			if detector.teamTallies[ident.Team] >= detector.objective.CapsToWin &&
				detector.corroborated(ident.Team, timestamp) {
				detector.latch(timestamp, ident)

				return
			}
		} else {
			if delta < detector.objective.CapsToWin {
				continue
			}

			if !detector.anyCorroborated(timestamp) {
				continue
			}

			detector.latch(timestamp, ident)

			return
		}
	}
}

func (detector *captureDetector) latch(timestamp int64, ident *Identity) {
	detector.state = found
	detector.hit = capture{timestamp: timestamp, identity: *ident}
}

func (detector *captureDetector) corroborated(team Team, timestamp int64) bool {
	seen, observed := detector.scoreSeen[team]

	return observed && seen <= timestamp
}

func (detector *captureDetector) anyCorroborated(timestamp int64) bool {
	if detector.corroborated(RED, timestamp) {
		return true
	}

	return detector.objective.AllowBlueCaps && detector.corroborated(BLU, timestamp)
}
