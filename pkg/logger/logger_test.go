package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONLogger(buf *bytes.Buffer) *Logger {
	return NewLogger(&Config{Level: DebugLevel, Output: buf, JSON: true})
}

func TestCtx_TagsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := newJSONLogger(&buf)

	ctx := WithRequestID(context.Background(), "req-42")
	log.Ctx(ctx).Warn(errors.New("store down"), "sede changed locally", "sede_id", "s-1")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-42", line["request_id"])
	assert.Equal(t, "s-1", line["sede_id"])
	assert.Equal(t, "store down", line["error"])
}

func TestCtx_WithoutRequestID(t *testing.T) {
	log := Nop()
	assert.Same(t, log, log.Ctx(context.Background()))
	assert.Equal(t, context.Background(), WithRequestID(context.Background(), ""))
	assert.Empty(t, RequestID(context.Background()))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, WarnLevel, ParseLevel("warn"))
	assert.Equal(t, InfoLevel, ParseLevel(""))
	assert.Equal(t, InfoLevel, ParseLevel("loud"))
}
