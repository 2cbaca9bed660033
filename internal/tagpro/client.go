// Package tagpro retrieves replay logs from the game servers, resolving the
// human pasted inputs (UUIDs, replay page links) into the canonical log
// download.
package tagpro

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gltp/captrack/pkg/replay"
)

const DefaultBaseURL = "https://tagpro.koalabeast.com"

var (
	ErrInvalidInput  = errors.New("input is neither a replay uuid nor a replay link")
	ErrFetchMetadata = errors.New("failed to fetch replay metadata")
	ErrFetchReplay   = errors.New("failed to fetch replay data")
	ErrReplayListing = errors.New("unexpected replay metadata format")
)

var rxUUID = regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}`)

// ExtractUUID pulls the first replay UUID out of an arbitrary string, or
// returns an empty string when none is present.
func ExtractUUID(input string) string {
	return rxUUID.FindString(input)
}

type InputKind string

const (
	InputUUID    InputKind = "uuid"
	InputReplay  InputKind = "replay"
	InputInvalid InputKind = "invalid"
)

// ClassifyInput decides whether a pasted input refers to a replay by UUID
// or by share link.
func ClassifyInput(input string) InputKind {
	if strings.HasPrefix(input, DefaultBaseURL+"/") {
		if strings.Contains(input, "replay=") {
			return InputReplay
		}

		if strings.Contains(input, "uuid=") {
			return InputUUID
		}
	}

	if ExtractUUID(input) == input && input != "" {
		return InputUUID
	}

	return InputInvalid
}

// NormalizeReplayURL converts share links of the game?replay= form into the
// direct gameFile download URL. Other URLs pass through untouched.
func NormalizeReplayURL(raw string) string {
	if !strings.Contains(raw, "game?replay=") {
		return raw
	}

	parsed, errParse := url.Parse(raw)
	if errParse != nil {
		return raw
	}

	key := parsed.Query().Get("replay")
	if key == "" {
		return raw
	}

	return DefaultBaseURL + "/replays/gameFile?key=" + url.QueryEscape(key)
}

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient() *Client {
	return NewClientWithBaseURL(DefaultBaseURL)
}

func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: time.Second * 30},
	}
}

// Replay resolves an input to a replay log and decodes it.
func (client *Client) Replay(ctx context.Context, input string) ([]replay.Event, error) {
	switch ClassifyInput(input) {
	case InputReplay:
		return client.fetchFromURL(ctx, NormalizeReplayURL(input))
	case InputUUID:
		return client.FetchByUUID(ctx, ExtractUUID(input))
	default:
		// Tolerate messages that merely contain a UUID somewhere.
		if uuid := ExtractUUID(input); uuid != "" {
			return client.FetchByUUID(ctx, uuid)
		}

		return nil, fmt.Errorf("%w: %q", ErrInvalidInput, input)
	}
}

type replayListing struct {
	Games []struct {
		ID string `json:"id"`
	} `json:"games"`
}

// FetchByUUID resolves a replay UUID to its game file via the replay
// metadata endpoint and downloads the log.
func (client *Client) FetchByUUID(ctx context.Context, uuid string) ([]replay.Event, error) {
	metaURL := client.baseURL + "/replays/data?uuid=" + url.QueryEscape(uuid)

	resp, errResp := client.get(ctx, metaURL)
	if errResp != nil {
		return nil, errors.Join(errResp, ErrFetchMetadata)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetchMetadata, resp.StatusCode)
	}

	var listing replayListing
	if errDecode := json.NewDecoder(resp.Body).Decode(&listing); errDecode != nil {
		return nil, errors.Join(errDecode, ErrFetchMetadata)
	}

	if len(listing.Games) != 1 {
		return nil, fmt.Errorf("%w: %d games", ErrReplayListing, len(listing.Games))
	}

	return client.fetchFromURL(ctx, client.baseURL+"/replays/gameFile?gameId="+url.QueryEscape(listing.Games[0].ID))
}

func (client *Client) fetchFromURL(ctx context.Context, fileURL string) ([]replay.Event, error) {
	resp, errResp := client.get(ctx, fileURL)
	if errResp != nil {
		return nil, errors.Join(errResp, ErrFetchReplay)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetchReplay, resp.StatusCode)
	}

	return replay.Decode(resp.Body)
}

func (client *Client) get(ctx context.Context, requestURL string) (*http.Response, error) {
	req, errReq := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if errReq != nil {
		return nil, errReq
	}

	return client.client.Do(req)
}
