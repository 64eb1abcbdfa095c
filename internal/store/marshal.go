package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/optharness/internal/invoke"
	"github.com/roach88/optharness/internal/ir"
)

// marshalValue serializes a success value to its canonical envelope.
// Failures store NULL.
func marshalValue(o invoke.Outcome) (sql.NullString, error) {
	succ, ok := o.(invoke.Success)
	if !ok {
		return sql.NullString{}, nil
	}
	value := succ.Value
	if value == nil {
		value = ir.Null{}
	}
	data, err := ir.MarshalValue(value)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal value: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// marshalFrames serializes frames to a canonical JSON array. Successes and
// frameless failures store "[]".
func marshalFrames(o invoke.Outcome) (string, error) {
	f, ok := o.(invoke.Failure)
	if !ok || len(f.Cause.Frames) == 0 {
		return "[]", nil
	}
	data, err := ir.MarshalCanonical(f.Cause.Frames)
	if err != nil {
		return "", fmt.Errorf("marshal frames: %w", err)
	}
	return string(data), nil
}

func unmarshalFrames(data string) ([]string, error) {
	var frames []string
	if err := json.Unmarshal([]byte(data), &frames); err != nil {
		return nil, fmt.Errorf("unmarshal frames: %w", err)
	}
	if frames == nil {
		frames = []string{}
	}
	return frames, nil
}

func causeClass(o invoke.Outcome) string {
	if f, ok := o.(invoke.Failure); ok {
		return f.Cause.CauseClass
	}
	return ""
}
