// Vitrine - Home-Screen Shelf Curation Service
// Copyright 2026 Solstad Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/solstad/vitrine

package logging

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// NewSlogLogger returns an *slog.Logger whose records land in the shared
// zerolog stream. The supervision tree depends on sutureslog, which only
// accepts slog; everything it logs still comes out as the same JSON lines
// as the rest of the process.
func NewSlogLogger() *slog.Logger {
	return slog.New(&slogBridge{logger: Logger()})
}

// slogBridge translates slog records into zerolog events. Groups become
// dotted key prefixes, so WithGroup("http").Info("x", "status", 200)
// emits the field http.status.
type slogBridge struct {
	logger zerolog.Logger
	attrs  []slog.Attr
	prefix string
}

func (b *slogBridge) Enabled(_ context.Context, level slog.Level) bool {
	return bridgeLevel(level) >= b.logger.GetLevel()
}

//nolint:gocritic // slog.Record is passed by value per slog.Handler interface
func (b *slogBridge) Handle(_ context.Context, record slog.Record) error {
	event := b.logger.WithLevel(bridgeLevel(record.Level))
	for _, attr := range b.attrs {
		event = appendAttr(event, b.prefix, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		event = appendAttr(event, b.prefix, attr)
		return true
	})
	event.Msg(record.Message)
	return nil
}

func (b *slogBridge) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *b
	next.attrs = append(b.attrs[:len(b.attrs):len(b.attrs)], attrs...)
	return &next
}

func (b *slogBridge) WithGroup(name string) slog.Handler {
	if name == "" {
		return b
	}
	next := *b
	next.prefix = joinKey(b.prefix, name)
	return &next
}

// appendAttr writes one attribute onto the event, flattening group values
// into dotted keys.
func appendAttr(event *zerolog.Event, prefix string, attr slog.Attr) *zerolog.Event {
	if attr.Value.Kind() == slog.KindGroup {
		inner := joinKey(prefix, attr.Key)
		for _, member := range attr.Value.Group() {
			event = appendAttr(event, inner, member)
		}
		return event
	}

	key := joinKey(prefix, attr.Key)
	switch attr.Value.Kind() {
	case slog.KindString:
		return event.Str(key, attr.Value.String())
	case slog.KindInt64:
		return event.Int64(key, attr.Value.Int64())
	case slog.KindUint64:
		return event.Uint64(key, attr.Value.Uint64())
	case slog.KindFloat64:
		return event.Float64(key, attr.Value.Float64())
	case slog.KindBool:
		return event.Bool(key, attr.Value.Bool())
	case slog.KindDuration:
		return event.Dur(key, attr.Value.Duration())
	case slog.KindTime:
		return event.Time(key, attr.Value.Time())
	default:
		return event.Interface(key, attr.Value.Any())
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// bridgeLevel maps the slog level bands onto zerolog levels.
func bridgeLevel(level slog.Level) zerolog.Level {
	switch {
	case level < slog.LevelInfo:
		return zerolog.DebugLevel
	case level < slog.LevelWarn:
		return zerolog.InfoLevel
	case level < slog.LevelError:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
