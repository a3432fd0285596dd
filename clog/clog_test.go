package clog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/nftledger/xerrors"
)

func newBufferLogger(t *testing.T, level string, opts ...Option) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, err := New(&Config{Level: level, Format: "json", Output: "buffer"}, append(opts, withBuffer(&buf))...)
	require.NoError(t, err)
	return logger, &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		entries = append(entries, entry)
	}
	return entries
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{name: "valid config", config: &Config{Level: "info", Format: "console", Output: "stdout"}},
		{name: "nil config", config: nil},
		{name: "defaults", config: &Config{}},
		{name: "invalid level", config: &Config{Level: "verbose"}, wantErr: true},
		{name: "invalid format", config: &Config{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestLoggerLevels(t *testing.T) {
	logger, buf := newBufferLogger(t, "debug")

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 4)
	for i, want := range []string{"DEBUG", "INFO", "WARN", "ERROR"} {
		assert.Equal(t, want, entries[i]["level"])
	}
}

func TestLoggerSetLevel(t *testing.T) {
	logger, buf := newBufferLogger(t, "info")

	logger.Debug("hidden")
	require.NoError(t, logger.SetLevel(DebugLevel))
	logger.Debug("visible")
	require.NoError(t, logger.SetLevel(ErrorLevel))
	logger.Warn("hidden again")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "visible", entries[0]["msg"])

	assert.Error(t, logger.SetLevel(Level(42)))
}

func TestLoggerWithNamespace(t *testing.T) {
	logger, buf := newBufferLogger(t, "info", WithNamespace("nftledger"))

	logger.WithNamespace("ledger").Info("credited")
	logger.Info("root")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "nftledger.ledger", entries[0][NamespaceKey])
	assert.Equal(t, "nftledger", entries[1][NamespaceKey])
}

func TestLoggerWith_DerivedLoggerDoesNotMutateSiblings(t *testing.T) {
	logger, buf := newBufferLogger(t, "info")

	base := logger.With(String("component", "ledger"))
	a := base.With(String("account", "alice"))
	b := base.With(String("account", "bob"))

	a.Info("a")
	b.Info("b")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "alice", entries[0]["account"])
	assert.Equal(t, "bob", entries[1]["account"])
	assert.Equal(t, "ledger", entries[1]["component"])
}

func TestLoggerContextFields(t *testing.T) {
	logger, buf := newBufferLogger(t, "info", WithStandardContext(), WithContextField("kind", "kind"))

	ctx := ContextWithRequest(context.Background(), "req-1")
	ctx = context.WithValue(ctx, "kind", "LAND")
	logger.InfoContext(ctx, "issued")
	logger.InfoContext(ContextWithAccount(ctx, "alice"), "transferred")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "req-1", entries[0]["request_id"])
	assert.Equal(t, "LAND", entries[0]["kind"])
	assert.NotContains(t, entries[0], "account")
	assert.Equal(t, "alice", entries[1]["account"])
	assert.NotContains(t, entries[1], "trace_id")
}

func TestFieldFunctions(t *testing.T) {
	logger, buf := newBufferLogger(t, "info")

	logger.Info("fields",
		String("s", "v"),
		Int("i", 7),
		Uint64("u", 18446744073709551615),
		Bool("b", true),
		Stringer("set", stringerFunc("{[1,3]}")),
	)

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "v", e["s"])
	assert.EqualValues(t, 7, e["i"])
	assert.Equal(t, true, e["b"])
	assert.Equal(t, "{[1,3]}", e["set"])
	assert.Contains(t, buf.String(), `"u":18446744073709551615`)
}

type stringerFunc string

func (s stringerFunc) String() string { return string(s) }

func TestErrorField(t *testing.T) {
	logger, buf := newBufferLogger(t, "info")

	logger.Error("plain", Error(errors.New("boom")))
	logger.Error("coded", Error(xerrors.WithCode(errors.New("short"), "insufficient_balance")))
	logger.Error("nil", Error(nil))

	entries := decodeLines(t, buf)
	require.Len(t, entries, 3)
	assert.Equal(t, "boom", entries[0]["err_msg"])
	assert.NotContains(t, entries[0], "err_code")
	assert.Equal(t, "insufficient_balance", entries[1]["err_code"])
	assert.NotContains(t, entries[2], "err_msg")
}

func TestErrorWithCodeField(t *testing.T) {
	logger, buf := newBufferLogger(t, "info")

	logger.Error("failed", ErrorWithCode(errors.New("bad"), "E1"))

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	group, ok := entries[0]["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "bad", group["msg"])
	assert.Equal(t, "E1", group["code"])
}

func TestErrorWithStackField(t *testing.T) {
	logger, buf := newBufferLogger(t, "info")

	logger.Error("failed", ErrorWithStack(errors.New("bad")))

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	group, ok := entries[0]["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "*errors.errorString", group["type"])
	assert.NotEmpty(t, group["stack"])
}

func TestAddSource(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&Config{Level: "info", Format: "json", Output: "buffer", AddSource: true}, withBuffer(&buf))
	require.NoError(t, err)

	logger.Info("with caller")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	caller, ok := entries[0]["caller"].(string)
	require.True(t, ok)
	assert.Contains(t, caller, "clog_test.go:")
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&Config{Level: "info", Format: "console", Output: "buffer"}, withBuffer(&buf))
	require.NoError(t, err)

	logger.Info("hello", String("k", "v"))

	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "msg=hello")
	assert.Contains(t, out, "k=v")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"Warn", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"fatal", FatalLevel, false},
		{"trace", InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.wantErr, err != nil, tt.in)
	}
	assert.Equal(t, "warn", WarnLevel.String())
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.With(String("k", "v")).WithNamespace("x").Info("nothing")
	assert.NoError(t, logger.SetLevel(DebugLevel))
	logger.Flush()
}
