// Package uptime schedules and runs endpoint checks.
package uptime

import (
	"context"
	"time"

	"github.com/amartya2002/uptime-checker-core/model"
)

// LogLevel controls how much of each check the scheduler writes to its zap logger.
// It is separate from an endpoint's own log level, which governs the log store.
type LogLevel int

const (
	LogNone  LogLevel = iota // no logs
	LogError                 // only errors
	LogInfo                  // info + errors
	LogDebug                 // verbose
)

// Result is one check outcome delivered on the Results channel.
type Result struct {
	Endpoint  model.Node `json:"endpoint"`
	Timestamp time.Time  `json:"timestamp"`
	model.CheckResult
}

// ItemStore is the part of the item store the scheduler reads and writes.
type ItemStore interface {
	List(ctx context.Context) ([]model.Node, error)
	SetStatus(ctx context.Context, id string, status model.Status) error
}

// LogSink receives history records. Append stamps the time.
type LogSink interface {
	Append(rec model.LogRecord) error
}

// Refresher recomputes aggregate status after a check.
type Refresher interface {
	Refresh(ctx context.Context)
}
