package maps

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Column headers as published. Several carry embedded newlines from the
// sheet's wrapped header cells.
const (
	colName      = "Map / Player"
	colPreset    = "Group Preset"
	colCategory  = "Category"
	colMapID     = "Map ID"
	colPseudoIDs = "Pseudo \nMap ID"
	colCaps      = "Num\nof caps"
	colAllowBlue = "Allow Blue Caps"
	colTeamCaps  = "Team\nCaps"
)

// SheetSource fetches the published map configuration sheet as CSV.
type SheetSource struct {
	url    string
	client *http.Client
}

func NewSheetSource(url string) *SheetSource {
	return &SheetSource{
		url:    url,
		client: &http.Client{Timeout: time.Second * 10},
	}
}

func (source *SheetSource) Fetch(ctx context.Context) (Lookup, error) {
	req, errReq := http.NewRequestWithContext(ctx, http.MethodGet, source.url, nil)
	if errReq != nil {
		return nil, errors.Join(errReq, ErrFetchMaps)
	}

	resp, errResp := source.client.Do(req)
	if errResp != nil {
		return nil, errors.Join(errResp, ErrFetchMaps)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetchMaps, resp.StatusCode)
	}

	return ParseSheet(resp.Body)
}

// ParseSheet decodes the CSV sheet into a Lookup. Rows without a group
// preset are scratch entries and are dropped, matching how the sheet is
// maintained.
func ParseSheet(reader io.Reader) (Lookup, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1

	rows, errRead := csvReader.ReadAll()
	if errRead != nil {
		return nil, errors.Join(errRead, ErrSheetFormat)
	}

	if len(rows) < 1 {
		return nil, fmt.Errorf("%w: empty sheet", ErrSheetFormat)
	}

	columns := map[string]int{}
	for index, headerCell := range rows[0] {
		columns[strings.TrimSpace(headerCell)] = index
	}

	cell := func(row []string, header string) string {
		index, found := columns[strings.TrimSpace(header)]
		if !found || index >= len(row) {
			return ""
		}

		return strings.TrimSpace(row[index])
	}

	var lookup Lookup

	for _, row := range rows[1:] {
		if cell(row, colPreset) == "" {
			continue
		}

		lookup = append(lookup, Config{
			Name:          cell(row, colName),
			Preset:        cell(row, colPreset),
			Category:      cell(row, colCategory),
			MapID:         cell(row, colMapID),
			EquivalentIDs: splitIDs(cell(row, colPseudoIDs)),
			CapsToWin:     parseCaps(cell(row, colCaps)),
			AllowBlueCaps: parseFlag(cell(row, colAllowBlue)),
			TeamCaps:      parseFlag(cell(row, colTeamCaps)),
		})
	}

	return lookup, nil
}
