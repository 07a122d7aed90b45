package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// timeLayout stores timestamps as sortable UTC text.
const timeLayout = time.RFC3339Nano

// marshalInputs converts the run's input list to JSON TEXT for storage.
// A nil list is stored as [] so the column is never NULL.
func marshalInputs(inputs []string) (string, error) {
	if inputs == nil {
		inputs = []string{}
	}
	data, err := json.Marshal(inputs)
	if err != nil {
		return "", fmt.Errorf("marshal inputs: %w", err)
	}
	return string(data), nil
}

// unmarshalInputs parses JSON TEXT from the database.
func unmarshalInputs(data string) ([]string, error) {
	var inputs []string
	if err := json.Unmarshal([]byte(data), &inputs); err != nil {
		return nil, fmt.Errorf("unmarshal inputs: %w", err)
	}
	return inputs, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse started_at: %w", err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
