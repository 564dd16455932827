// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hexKey [2]byte

func (k *hexKey) String() string { return "0xbeef" }

func TestLogfmtHandler(t *testing.T) {
	var (
		buf   bytes.Buffer
		level slog.LevelVar
	)
	level.Set(LevelInfo)
	l := NewLogger(LogfmtHandlerWithLevel(&buf, &level))

	l.Debug("hidden")
	assert.Empty(t, buf.String())

	var nilKey *hexKey
	l.Info("stats", "key", &hexKey{}, "nil", nilKey)
	out := buf.String()
	assert.Contains(t, out, "lvl=info")
	assert.Contains(t, out, "msg=stats")
	assert.Contains(t, out, "key=0xbeef")
	assert.Contains(t, out, "nil=<nil>")
	assert.Contains(t, out, "t=")

	buf.Reset()
	level.Set(LevelTrace)
	l.Trace("visible")
	assert.Contains(t, buf.String(), "lvl=trace")
}

func TestJSONHandler(t *testing.T) {
	var (
		buf   bytes.Buffer
		level slog.LevelVar
	)
	level.Set(LevelDebug)
	l := NewLogger(JSONHandlerWithLevel(&buf, &level))
	l.Warn("careful", "n", 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "warn", rec["lvl"])
	assert.Equal(t, "careful", rec["msg"])
	assert.Equal(t, float64(1), rec["n"])
	assert.Contains(t, rec, "t")
}

func TestDiscardHandler(t *testing.T) {
	h := DiscardHandler()
	assert.False(t, h.Enabled(context.Background(), LevelCrit))
	assert.NoError(t, h.Handle(context.Background(), slog.Record{}))
	assert.NotNil(t, h.WithAttrs(nil))
	assert.NotNil(t, h.WithGroup("g"))
}

func TestWithContextFollowsRoot(t *testing.T) {
	logger := WithContext("pkg", "test")

	old := Root()
	defer SetDefault(old)

	var (
		buf   bytes.Buffer
		level slog.LevelVar
	)
	level.Set(LevelTrace)
	SetDefault(NewLogger(LogfmtHandlerWithLevel(&buf, &level)))

	logger.With("bin", 3).Error("failed", "err", "x")
	out := buf.String()
	assert.Contains(t, out, "pkg=test")
	assert.Contains(t, out, "bin=3")
	assert.Contains(t, out, "lvl=error")
	assert.Contains(t, out, "err=x")
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "trace", levelString(LevelTrace))
	assert.Equal(t, "debug", levelString(LevelDebug))
	assert.Equal(t, "info", levelString(LevelInfo))
	assert.Equal(t, "warn", levelString(LevelWarn))
	assert.Equal(t, "error", levelString(LevelError))
	assert.Equal(t, "crit", levelString(LevelCrit))
}
