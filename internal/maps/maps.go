// Package maps resolves the map played in a replay to its capture objective
// rule. Configuration lives in a community maintained sheet published as
// CSV; lookups are served from an explicit TTL cache so one extraction
// always sees a consistent snapshot.
package maps

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gltp/captrack/pkg/replay"
)

var (
	ErrFetchMaps   = errors.New("failed to fetch map configuration")
	ErrSheetFormat = errors.New("malformed map configuration sheet")
)

// The sheet marks undetectable objectives with this caps_to_win value.
const unlimitedSentinel = "pups"

// Config is one map row from the configuration sheet.
type Config struct {
	Name          string
	Preset        string
	Category      string
	MapID         string
	EquivalentIDs []string
	CapsToWin     int
	AllowBlueCaps bool
	TeamCaps      bool
}

func (config Config) Objective() replay.Objective {
	return replay.Objective{
		MapID:         config.MapID,
		CapsToWin:     config.CapsToWin,
		AllowBlueCaps: config.AllowBlueCaps,
		TeamCaps:      config.TeamCaps,
	}
}

// Lookup is an immutable snapshot of the sheet, implementing
// replay.ObjectiveResolver.
type Lookup []Config

// Resolve finds the objective for an in-log map id. An exact canonical id
// match always takes precedence over equivalent id membership.
func (lookup Lookup) Resolve(actualMapID string) (replay.Objective, bool) {
	if actualMapID == "" {
		return replay.Objective{}, false
	}

	for _, config := range lookup {
		if config.MapID == actualMapID {
			return config.Objective(), true
		}
	}

	for _, config := range lookup {
		for _, equivalent := range config.EquivalentIDs {
			if equivalent == actualMapID {
				return config.Objective(), true
			}
		}
	}

	return replay.Objective{}, false
}

// Source provides the current full map configuration.
type Source interface {
	Fetch(ctx context.Context) (Lookup, error)
}

func parseCaps(raw string) int {
	if raw == unlimitedSentinel {
		return replay.CapsUnlimited
	}

	value, errValue := strconv.Atoi(strings.TrimSpace(raw))
	if errValue != nil || value <= 0 {
		return 1
	}

	return value
}

func parseFlag(raw string) bool {
	trimmed := strings.TrimSpace(raw)

	return strings.EqualFold(trimmed, "true") || trimmed == "1"
}

func splitIDs(raw string) []string {
	var ids []string

	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}

	return ids
}
