package models

import (
	"time"

	"github.com/goccy/go-json"
)

// RoleplayEntry is a single timestamped roleplay action. Data keys are stored
// flat next to id and timestamp.
type RoleplayEntry struct {
	ID        string
	Timestamp time.Time
	Data      map[string]any
}

// MarshalJSON flattens Data alongside id and timestamp.
func (e RoleplayEntry) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Data)+2)
	for k, v := range e.Data {
		out[k] = v
	}
	if e.ID != "" {
		out["id"] = e.ID
	}
	out["timestamp"] = e.Timestamp
	return json.Marshal(out)
}

// UnmarshalJSON splits id and timestamp out of the flat object.
func (e *RoleplayEntry) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*e = RoleplayEntry{Data: map[string]any{}}
	for k, v := range raw {
		switch k {
		case "id":
			if s, ok := v.(string); ok {
				e.ID = s
			}
		case "timestamp":
			e.Timestamp = parseTimestamp(v)
		default:
			e.Data[k] = v
		}
	}
	return nil
}

// parseTimestamp accepts RFC 3339 strings and millisecond epochs.
func parseTimestamp(v any) time.Time {
	switch t := v.(type) {
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	case float64:
		return time.UnixMilli(int64(t)).UTC()
	}
	return time.Time{}
}

func (e RoleplayEntry) clone() RoleplayEntry {
	c := e
	if e.Data != nil {
		c.Data = make(map[string]any, len(e.Data))
		for k, v := range e.Data {
			c.Data[k] = v
		}
	}
	return c
}
