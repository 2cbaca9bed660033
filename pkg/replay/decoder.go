// Package replay implements the capture record extraction engine for
// GLTP replay logs.
//
// A replay is an ordered, newline delimited stream of JSON event tuples
// recorded during a single match. The engine decodes the stream, reconciles
// ephemeral per-tick player ids into stable identities, applies the
// map-specific objective rule and reports whether a qualifying capture
// occurred along with its supporting statistics. Extraction is a pure,
// single pass computation: identical input always yields an identical
// result.
package replay

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Player update lines can grow large on full servers, well past the default
// bufio.Scanner limit.
const maxLineSize = 1024 * 1024 * 4

// Decode reads a newline delimited replay stream into an ordered event
// sequence and validates the recorder header. A line that fails to decode
// fails the whole stream, there is no silent skipping.
func Decode(reader io.Reader) ([]Event, error) {
	var events []Event

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var event Event
		if errLine := json.Unmarshal(line, &event); errLine != nil {
			return nil, fmt.Errorf("%w: line %d", errLine, len(events)+1)
		}

		events = append(events, event)
	}

	if errScan := scanner.Err(); errScan != nil {
		// Covers lines past the scanner limit, which are as unreadable as
		// any other malformed line.
		return nil, errors.Join(errScan, ErrInvalidFormat)
	}

	if errHeader := ValidateHeader(events); errHeader != nil {
		return nil, errHeader
	}

	return events, nil
}

// ValidateHeader enforces the fixed positional recorder header: index 0
// carries recorder-metadata, index 2 the map description and index 3 the
// client info.
func ValidateHeader(events []Event) error {
	if len(events) < 4 {
		return fmt.Errorf("%w: header truncated at %d events", ErrInvalidFormat, len(events))
	}

	for _, expected := range []struct {
		index int
		kind  EventKind
	}{
		{0, Metadata},
		{2, MapInfo},
		{3, ClientInfo},
	} {
		if events[expected.index].Kind != expected.kind {
			return fmt.Errorf("%w: expected %s at index %d, got %s",
				ErrInvalidFormat, expected.kind, expected.index, events[expected.index].Kind)
		}
	}

	return nil
}

// header pulls the typed header payloads out of a validated event sequence.
func header(events []Event) (MetadataPayload, MapInfoPayload, ClientInfoPayload, error) {
	if errValidate := ValidateHeader(events); errValidate != nil {
		return MetadataPayload{}, MapInfoPayload{}, ClientInfoPayload{}, errValidate
	}

	meta, okMeta := events[0].Payload.(MetadataPayload)
	mapInfo, okMap := events[2].Payload.(MapInfoPayload)
	clientInfo, okClient := events[3].Payload.(ClientInfoPayload)

	if !okMeta || !okMap || !okClient {
		return MetadataPayload{}, MapInfoPayload{}, ClientInfoPayload{}, ErrInvalidFormat
	}

	return meta, mapInfo, clientInfo, nil
}
