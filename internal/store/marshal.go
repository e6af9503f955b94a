package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// recordedAtLayout is fixed-width so recorded_at sorts lexically.
const recordedAtLayout = "2006-01-02T15:04:05.000000000Z"

// marshalTranscript converts transcript lines to a JSON array for storage.
// HTML escaping is disabled so markers like "[ok]" and any "<" in guest
// output are stored verbatim.
func marshalTranscript(lines []string) (string, error) {
	if lines == nil {
		lines = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(lines); err != nil {
		return "", fmt.Errorf("marshal transcript: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// unmarshalTranscript parses a stored transcript.
// Returns an empty slice (not nil) for an empty column.
func unmarshalTranscript(data string) ([]string, error) {
	lines := []string{}
	if data == "" {
		return lines, nil
	}
	if err := json.Unmarshal([]byte(data), &lines); err != nil {
		return nil, fmt.Errorf("unmarshal transcript: %w", err)
	}
	return lines, nil
}

// formatRecordedAt formats t in UTC with fixed-width nanoseconds.
func formatRecordedAt(t time.Time) string {
	return t.UTC().Format(recordedAtLayout)
}

// parseRecordedAt parses a recorded_at column written by formatRecordedAt.
func parseRecordedAt(s string) (time.Time, error) {
	t, err := time.Parse(recordedAtLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse recorded_at %q: %w", s, err)
	}
	return t, nil
}
