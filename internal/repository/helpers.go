package repository

import (
	"encoding/json"
	"fmt"
	"time"
)

// boolToInt converts a Go bool to an integer (0 or 1) for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// intToBool converts a SQLite integer (0 or 1) to a Go bool.
func intToBool(i int) bool {
	return i != 0
}

// nowUTC returns the current UTC time formatted as RFC3339.
func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// parseTime parses an RFC3339 column value, returning the zero time for
// empty or malformed input.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// encodeBools stores a positional completion array as a JSON list.
func encodeBools(vals []bool) string {
	if vals == nil {
		vals = []bool{}
	}
	data, _ := json.Marshal(vals)
	return string(data)
}

func decodeBools(s string) ([]bool, error) {
	var vals []bool
	if err := json.Unmarshal([]byte(s), &vals); err != nil {
		return nil, fmt.Errorf("decoding completion array: %w", err)
	}
	if vals == nil {
		vals = []bool{}
	}
	return vals, nil
}
