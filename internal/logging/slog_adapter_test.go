// Vitrine - Home-Screen Shelf Curation Service
// Copyright 2026 Solstad Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/solstad/vitrine

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newBufferBridge(buf *bytes.Buffer) *slog.Logger {
	return slog.New(&slogBridge{logger: zerolog.New(buf)})
}

func TestSlogBridgeEmitsZerologJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newBufferBridge(&buf)

	logger.Info("shelf warmed", "shelf", "top-picks", "items", int64(10))

	out := buf.String()
	for _, want := range []string{`"level":"info"`, `"message":"shelf warmed"`, `"shelf":"top-picks"`, `"items":10`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestSlogBridgeLevelMapping(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	cases := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, `"level":"debug"`},
		{slog.LevelInfo, `"level":"info"`},
		{slog.LevelWarn, `"level":"warn"`},
		{slog.LevelError, `"level":"error"`},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		logger := newBufferBridge(&buf)
		logger.Log(t.Context(), tc.level, "x")
		if !strings.Contains(buf.String(), tc.want) {
			t.Errorf("level %v: output missing %s: %s", tc.level, tc.want, buf.String())
		}
	}
}

func TestSlogBridgeGroupsFlattenToDottedKeys(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newBufferBridge(&buf).WithGroup("http")

	logger.Info("request done", "status", int64(200), slog.Group("timing", slog.Duration("elapsed", 3*time.Millisecond)))

	out := buf.String()
	if !strings.Contains(out, `"http.status":200`) {
		t.Errorf("group prefix missing: %s", out)
	}
	if !strings.Contains(out, `"http.timing.elapsed":3`) {
		t.Errorf("nested group key missing: %s", out)
	}
}

func TestSlogBridgeWithAttrsPersist(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newBufferBridge(&buf).With("component", "supervisor")

	logger.Warn("service restarted")

	if !strings.Contains(buf.String(), `"component":"supervisor"`) {
		t.Errorf("bound attribute missing: %s", buf.String())
	}
}
