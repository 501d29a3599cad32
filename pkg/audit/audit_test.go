package audit

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/srediag/plugin-xplm/internal/logging"
)

func TestLoggerWritesFormattedLine(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(logging.New("test", logging.WriterSink(&buf)))
	assert.NoError(t, l.LogEvent("enabled", map[string]interface{}{"from": "started"}))
	assert.Contains(t, buf.String(), "audit enabled from=started")

	buf.Reset()
	l.Quiet["enabled"] = true
	assert.NoError(t, l.LogEvent("enabled", nil))
	if logging.CurrentLevel() > logging.LevelDebug {
		assert.Empty(t, buf.String())
	}
}

func TestRecorderKeepsNewest(t *testing.T) {
	r := NewRecorder(2)
	details := map[string]interface{}{"n": 1}
	assert.NoError(t, r.LogEvent("a", details))
	details["n"] = 2
	assert.NoError(t, r.LogEvent("b", nil))
	assert.NoError(t, r.LogEvent("c", nil))

	assert.Equal(t, []string{"b", "c"}, r.Names())

	r = NewRecorder(0)
	assert.NoError(t, r.LogEvent("a", details))
	details["n"] = 3
	assert.Equal(t, 2, r.Events()[0].Details["n"])
	assert.Equal(t, "a n=2", r.Events()[0].String())

	r.Reset()
	assert.Empty(t, r.Events())
}
