package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepWritesStageAndFields(t *testing.T) {
	var buf bytes.Buffer
	Init(&buf, "info")
	t.Cleanup(func() { Init(ConsoleWriter(&bytes.Buffer{}), DefaultLevel) })

	Step("labels", "Created label", "repo", "demo", "count", 3, "error", errors.New("boom"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "labels", entry["stage"])
	assert.Equal(t, "Created label", entry["msg"])
	assert.Equal(t, "demo", entry["repo"])
	assert.EqualValues(t, 3, entry["count"])
	assert.Equal(t, "boom", entry["error"])
}

func TestDebugSuppressedAtInfo(t *testing.T) {
	var buf bytes.Buffer
	Init(&buf, "info")
	t.Cleanup(func() { Init(ConsoleWriter(&bytes.Buffer{}), DefaultLevel) })

	Debug("hidden")
	assert.Empty(t, buf.String())

	SetLevel("debug")
	Debug("visible", "orphan")
	assert.Contains(t, buf.String(), "visible")
	assert.Contains(t, buf.String(), "orphaned")
}
