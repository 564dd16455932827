// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log provides package scoped structured loggers on top of go-ethereum's log package.
package log

import (
	"log/slog"

	ethlog "github.com/ethereum/go-ethereum/log"
)

// Levels in ascending severity.
const (
	LevelTrace = ethlog.LevelTrace
	LevelDebug = ethlog.LevelDebug
	LevelInfo  = ethlog.LevelInfo
	LevelWarn  = ethlog.LevelWarn
	LevelError = ethlog.LevelError
	LevelCrit  = ethlog.LevelCrit
)

// Logger writes key/value pairs to a handler.
type Logger interface {
	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	With(ctx ...any) Logger
}

// Root returns the root logger.
func Root() ethlog.Logger {
	return ethlog.Root()
}

// SetDefault sets the root logger. Loggers created by WithContext pick it up,
// even if they were created earlier.
func SetDefault(l ethlog.Logger) {
	ethlog.SetDefault(l)
}

// NewLogger creates a logger writing to h.
func NewLogger(h slog.Handler) ethlog.Logger {
	return ethlog.NewLogger(h)
}

// WithContext returns a logger carrying ctx on every record.
// It's intended to be assigned to a package level variable:
//
//	var logger = log.WithContext("pkg", "accountsindex")
func WithContext(ctx ...any) Logger {
	return &contextLogger{ctx: ctx}
}

// contextLogger resolves the root logger on every call.
type contextLogger struct {
	ctx []any
}

func (l *contextLogger) root() ethlog.Logger {
	return ethlog.Root().With(l.ctx...)
}

func (l *contextLogger) Trace(msg string, ctx ...any) { l.root().Trace(msg, ctx...) }
func (l *contextLogger) Debug(msg string, ctx ...any) { l.root().Debug(msg, ctx...) }
func (l *contextLogger) Info(msg string, ctx ...any)  { l.root().Info(msg, ctx...) }
func (l *contextLogger) Warn(msg string, ctx ...any)  { l.root().Warn(msg, ctx...) }
func (l *contextLogger) Error(msg string, ctx ...any) { l.root().Error(msg, ctx...) }

func (l *contextLogger) With(ctx ...any) Logger {
	merged := make([]any, 0, len(l.ctx)+len(ctx))
	merged = append(merged, l.ctx...)
	return &contextLogger{ctx: append(merged, ctx...)}
}
