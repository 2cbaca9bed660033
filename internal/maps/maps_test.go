package maps_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gltp/captrack/internal/maps"
	"github.com/gltp/captrack/pkg/replay"
	"github.com/stretchr/testify/require"
)

const exampleSheet = "Map / Player,Group Preset,Category,Map ID,\"Pseudo \nMap ID\",\"Num\nof caps\",Allow Blue Caps,\"Team\nCaps\"\n" +
	"Gravity Well,GRP1,Classic,74321,\"74000, 74001\",1,FALSE,FALSE\n" +
	"Twin Peaks,GRP2,Team,81000,,2,TRUE,TRUE\n" +
	"Pup Rush,GRP3,Chaos,90001,,pups,FALSE,FALSE\n" +
	"Scratch Row,,Classic,99999,,1,FALSE,FALSE\n"

func TestParseSheet(t *testing.T) {
	lookup, errParse := maps.ParseSheet(strings.NewReader(exampleSheet))
	require.NoError(t, errParse)
	// The preset-less scratch row is dropped.
	require.Len(t, lookup, 3)

	require.Equal(t, "Gravity Well", lookup[0].Name)
	require.Equal(t, []string{"74000", "74001"}, lookup[0].EquivalentIDs)
	require.Equal(t, 1, lookup[0].CapsToWin)
	require.False(t, lookup[0].AllowBlueCaps)

	require.True(t, lookup[1].TeamCaps)
	require.True(t, lookup[1].AllowBlueCaps)
	require.Equal(t, 2, lookup[1].CapsToWin)

	require.Equal(t, replay.CapsUnlimited, lookup[2].CapsToWin)
}

func TestParseSheetWrappedTeamCapsHeader(t *testing.T) {
	// The published sheet wraps the Team Caps header cell across two lines,
	// exactly like the caps and pseudo id columns.
	sheet := "Map ID,Group Preset,\"Num\nof caps\",\"Team\nCaps\"\n" +
		"81000,GRP1,2,TRUE\n"

	lookup, errParse := maps.ParseSheet(strings.NewReader(sheet))
	require.NoError(t, errParse)
	require.Len(t, lookup, 1)
	require.True(t, lookup[0].TeamCaps)
}

func TestParseSheetNumericFlags(t *testing.T) {
	sheet := "Map ID,Group Preset,\"Num\nof caps\",Allow Blue Caps,\"Team\nCaps\"\n" +
		"81000,GRP1,1,1,1\n" +
		"81001,GRP1,1,0,FALSE\n"

	lookup, errParse := maps.ParseSheet(strings.NewReader(sheet))
	require.NoError(t, errParse)
	require.Len(t, lookup, 2)
	require.True(t, lookup[0].AllowBlueCaps)
	require.True(t, lookup[0].TeamCaps)
	require.False(t, lookup[1].AllowBlueCaps)
	require.False(t, lookup[1].TeamCaps)
}

func TestLookupResolve(t *testing.T) {
	lookup, errParse := maps.ParseSheet(strings.NewReader(exampleSheet))
	require.NoError(t, errParse)

	exact, found := lookup.Resolve("74321")
	require.True(t, found)
	require.Equal(t, "74321", exact.MapID)
	require.Equal(t, 1, exact.CapsToWin)

	equivalent, foundEquivalent := lookup.Resolve("74001")
	require.True(t, foundEquivalent)
	require.Equal(t, "74321", equivalent.MapID)

	_, foundMissing := lookup.Resolve("55555")
	require.False(t, foundMissing)

	_, foundEmpty := lookup.Resolve("")
	require.False(t, foundEmpty)
}

func TestLookupExactPrecedence(t *testing.T) {
	// 81000 is also listed as an equivalent of another map; the canonical
	// row must win.
	lookup := maps.Lookup{
		{MapID: "74321", EquivalentIDs: []string{"81000"}, CapsToWin: 1},
		{MapID: "81000", CapsToWin: 2},
	}

	objective, found := lookup.Resolve("81000")
	require.True(t, found)
	require.Equal(t, "81000", objective.MapID)
	require.Equal(t, 2, objective.CapsToWin)
}

type fakeSource struct {
	lookup maps.Lookup
	err    error
	calls  int
}

func (source *fakeSource) Fetch(_ context.Context) (maps.Lookup, error) {
	source.calls++

	return source.lookup, source.err
}

func TestCacheTTL(t *testing.T) {
	current := time.Unix(1000, 0)
	source := &fakeSource{lookup: maps.Lookup{{MapID: "74321", CapsToWin: 1}}}
	cache := maps.NewCache(source, time.Minute*5, func() time.Time { return current })

	first, errFirst := cache.Snapshot(context.Background())
	require.NoError(t, errFirst)
	require.Len(t, first, 1)
	require.Equal(t, 1, source.calls)

	// Within TTL: served from cache.
	current = current.Add(time.Minute)
	_, errSecond := cache.Snapshot(context.Background())
	require.NoError(t, errSecond)
	require.Equal(t, 1, source.calls)

	// Past TTL: refreshed.
	current = current.Add(time.Minute * 10)
	_, errThird := cache.Snapshot(context.Background())
	require.NoError(t, errThird)
	require.Equal(t, 2, source.calls)
}

func TestCacheStaleOnError(t *testing.T) {
	current := time.Unix(1000, 0)
	source := &fakeSource{lookup: maps.Lookup{{MapID: "74321", CapsToWin: 1}}}
	cache := maps.NewCache(source, time.Minute, func() time.Time { return current })

	_, errWarm := cache.Snapshot(context.Background())
	require.NoError(t, errWarm)

	source.err = errors.New("sheet offline")
	current = current.Add(time.Hour)

	stale, errStale := cache.Snapshot(context.Background())
	require.NoError(t, errStale)
	require.Len(t, stale, 1)
}

func TestCacheErrorWithoutSnapshot(t *testing.T) {
	source := &fakeSource{err: errors.New("sheet offline")}
	cache := maps.NewCache(source, time.Minute, nil)

	_, errSnapshot := cache.Snapshot(context.Background())
	require.Error(t, errSnapshot)
}
