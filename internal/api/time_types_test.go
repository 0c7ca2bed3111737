package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexTime_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"rfc3339", `"2024-01-15T10:30:00Z"`, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"rfc3339 nano", `"2024-01-15T10:30:00.123456789Z"`, time.Date(2024, 1, 15, 10, 30, 0, 123456789, time.UTC)},
		{"datetime-local", `"2024-01-15T10:30"`, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"epoch ms number", `1705314600000`, time.UnixMilli(1705314600000)},
		{"epoch ms string", `"1705314600000"`, time.UnixMilli(1705314600000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ft FlexTime
			require.NoError(t, json.Unmarshal([]byte(tt.input), &ft))
			assert.True(t, tt.want.Equal(ft.Time), "got %v", ft.Time)
		})
	}
}

func TestFlexTime_UnmarshalJSON_Invalid(t *testing.T) {
	var ft FlexTime
	assert.Error(t, json.Unmarshal([]byte(`"next tuesday"`), &ft))
	assert.Error(t, json.Unmarshal([]byte(`true`), &ft))
}

func TestFlexTime_MarshalJSON(t *testing.T) {
	ft := FlexTime{Time: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)}
	data, err := json.Marshal(ft)
	require.NoError(t, err)

	assert.Equal(t, `"2024-01-15T10:30:00Z"`, string(data))
}

func TestFlexTime_Ptr(t *testing.T) {
	var nilTime *FlexTime
	assert.Nil(t, nilTime.Ptr())

	ft := &FlexTime{Time: time.UnixMilli(1705314600000)}
	require.NotNil(t, ft.Ptr())
	assert.True(t, ft.Time.Equal(*ft.Ptr()))
}
