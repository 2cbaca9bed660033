package replay

import "fmt"

// Extract runs the capture record extraction over a decoded event sequence.
//
// The returned record is always populated with the map identity and roster.
// When no qualifying capture occurred the capture fields (RecordTime,
// CappingPlayer, CappingPlayerUserID, CappingPlayerQuote) are nil and
// TotalJumps is zero; that outcome is a normal return value, not an error.
// Fatal outcomes are ErrInvalidFormat and ErrUnresolvedMap.
func Extract(events []Event, resolver ObjectiveResolver) (*CaptureRecord, error) {
	meta, mapInfo, clientInfo, errHeader := header(events)
	if errHeader != nil {
		return nil, errHeader
	}

	actualMapID := clientInfo.ActualMapID()

	objective, resolved := resolver.Resolve(actualMapID)
	if !resolved {
		return nil, fmt.Errorf("%w: %q", ErrUnresolvedMap, actualMapID)
	}

	identities := newIdentityResolver(meta)
	detector := newCaptureDetector(objective, identities)

	var (
		jumps    int
		lastChat = map[string]string{}
	)

	for index, event := range events {
		switch payload := event.Payload.(type) {
		case ScorePayload:
			detector.observeScore(event.Timestamp, payload)
		case PlayerUpdatePayload:
			detector.observePlayers(event.Timestamp, payload)
		case SoundPayload:
			if payload.IsJump() {
				jumps++
			}
		case ChatPayload:
			if payload.From != nil {
				lastChat[identities.sessionFor(*payload.From)] = payload.Message
			}
		}

		if hit, qualified := detector.result(); qualified {
			// Finish the jump count over same-timestamp ties and the quote
			// lookup over the rest of the log, then stop detection work.
			scanTail(events[index+1:], hit.timestamp, identities, &jumps, lastChat)

			return assemble(meta, mapInfo, objective, actualMapID, &hit,
				firstTimerStart(events), jumps, lastChat), nil
		}
	}

	return assemble(meta, mapInfo, objective, actualMapID, nil, 0, 0, nil), nil
}

// scanTail continues the single pass past the qualifying event: jump sounds
// still count while their timestamp does not exceed the capture timestamp,
// and chat keeps accumulating because the deciding quote is the capping
// player's final words of the match, not their last words before capping.
func scanTail(events []Event, captureTS int64, identities *identityResolver,
	jumps *int, lastChat map[string]string,
) {
	for _, event := range events {
		switch payload := event.Payload.(type) {
		case SoundPayload:
			if payload.IsJump() && event.Timestamp <= captureTS {
				*jumps++
			}
		case ChatPayload:
			if payload.From != nil {
				lastChat[identities.sessionFor(*payload.From)] = payload.Message
			}
		}
	}
}

// firstTimerStart finds the timestamp of the earliest timer-start event,
// defaulting to 0 when the replay has none.
func firstTimerStart(events []Event) int64 {
	for _, event := range events {
		if payload, isTime := event.Payload.(TimePayload); isTime && payload.TimerStarted() {
			return event.Timestamp
		}
	}

	return 0
}

func assemble(meta MetadataPayload, mapInfo MapInfoPayload, objective Objective,
	actualMapID string, hit *capture, firstTimerTS int64, jumps int, lastChat map[string]string,
) *CaptureRecord {
	record := &CaptureRecord{
		UUID:          meta.UUID,
		MapName:       mapInfo.Info.Name,
		MapID:         objective.MapID,
		ActualMapID:   actualMapID,
		MapAuthor:     mapInfo.Info.Author,
		Players:       rosterPlayers(meta),
		IsSolo:        len(meta.Players) == 1,
		Started:       meta.Started,
		CapsToWin:     objective.CapsToWin,
		AllowBlueCaps: objective.AllowBlueCaps,
	}

	if hit == nil {
		return record
	}

	// Reported as-is, never clamped: a capture detected before the nominal
	// timer start yields a negative elapsed time.
	elapsed := hit.timestamp - firstTimerTS
	record.RecordTime = &elapsed

	name := hit.identity.Name
	userID := hit.identity.UserID
	record.CappingPlayer = &name
	record.CappingPlayerUserID = &userID
	record.TotalJumps = jumps

	if quote, said := lastChat[hit.identity.SessionKey]; said {
		record.CappingPlayerQuote = &quote
	}

	return record
}

func rosterPlayers(meta MetadataPayload) []Player {
	players := make([]Player, 0, len(meta.Players))

	for _, entry := range meta.Players {
		players = append(players, Player{
			Name:   entry.DisplayName,
			UserID: entry.UserID,
			IsRed:  entry.Team == RED,
		})
	}

	return players
}
