package api

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// FlexTime is a time type that can unmarshal from either:
// - RFC3339 string: "2024-01-15T10:30:00Z"
// - Epoch milliseconds (number): 1705314600000
// - Epoch milliseconds (string): "1705314600000"
// - HTML datetime-local value: "2024-01-15T10:30" (read as UTC)
//
// It always marshals to RFC3339 format for consistency.
type FlexTime struct {
	time.Time
}

// datetimeLocal is the layout browsers send from <input type="datetime-local">.
const datetimeLocal = "2006-01-02T15:04"

// UnmarshalJSON handles flexible time parsing from JSON.
func (ft *FlexTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		for _, layout := range []string{time.RFC3339Nano, datetimeLocal} {
			if t, err := time.Parse(layout, s); err == nil {
				ft.Time = t
				return nil
			}
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			ft.Time = time.UnixMilli(ms)
			return nil
		}
		return fmt.Errorf("cannot parse time string: %s", s)
	}

	// Some JSON encoders use float for large numbers.
	var ms float64
	if err := json.Unmarshal(data, &ms); err == nil {
		ft.Time = time.UnixMilli(int64(ms))
		return nil
	}

	return fmt.Errorf("cannot unmarshal %s into FlexTime", string(data))
}

// MarshalJSON outputs time in RFC3339 format.
func (ft FlexTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(ft.Format(time.RFC3339))
}

// Schema accepts both strings and numbers so huma leaves parsing to UnmarshalJSON.
func (FlexTime) Schema(_ huma.Registry) *huma.Schema {
	return &huma.Schema{
		Description: "RFC3339 timestamp or epoch milliseconds",
		OneOf: []*huma.Schema{
			{Type: huma.TypeString},
			{Type: huma.TypeNumber},
		},
	}
}

// Ptr returns the underlying time, or nil for a nil FlexTime.
func (ft *FlexTime) Ptr() *time.Time {
	if ft == nil {
		return nil
	}
	t := ft.Time
	return &t
}
