package utils

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepClock makes now advance by the given steps on each call
func stepClock(t *testing.T, steps ...time.Duration) {
	t.Helper()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	i := 0
	now = func() time.Time {
		if i < len(steps) {
			clock = clock.Add(steps[i])
			i++
		}
		return clock
	}
	t.Cleanup(func() { now = time.Now })
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestOperationTimer(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		level   string
		slow    bool
	}{
		{"fast", time.Second, "debug", false},
		{"slow", 31 * time.Second, "warn", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stepClock(t, 0, tt.elapsed)
			var buf bytes.Buffer
			log := zerolog.New(&buf).Level(zerolog.DebugLevel)

			OperationTimer("liquidity_check", log)()

			entry := lastEntry(t, &buf)
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, "liquidity_check", entry["operation"])
			assert.Equal(t, tt.slow, entry["slow"])
		})
	}
}

func TestMeasureDBQuery(t *testing.T) {
	stepClock(t, 0, 6*time.Second)
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.InfoLevel)

	MeasureDBQuery("replace_history", log)(12)

	entry := lastEntry(t, &buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "replace_history", entry["query"])
	assert.Equal(t, float64(12), entry["rows"])
}

func TestMeasureDBQuery_FastIsDebugOnly(t *testing.T) {
	stepClock(t, 0, time.Millisecond)
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.InfoLevel)

	MeasureDBQuery("replace_holdings", log)(3)

	assert.Empty(t, buf.String())
}
