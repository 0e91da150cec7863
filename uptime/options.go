// Package uptime exposes configuration options for the Scheduler via a
// functional options API.
package uptime

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ===== Options Pattern =====
type Option func(*Scheduler)

// WithWorkers caps how many checks a forced batch runs at once.
func WithWorkers(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.numWorkers = n
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.httpClient.Timeout = d }
}

// WithHTTPClient replaces the client used for checks. Its Timeout is kept as given.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.httpClient = c
		}
	}
}

func WithLogLevel(level LogLevel) Option {
	return func(s *Scheduler) { s.logLevel = level }
}

func WithResultBuffer(size int) Option {
	return func(s *Scheduler) { s.results = make(chan Result, size) }
}

// enable/disable internal logs
func WithInternalLogs(enabled bool) Option {
	return func(s *Scheduler) { s.enableInternalLogs = enabled }
}

// WithLogger allows injecting a custom zap logger (useful in tests).
func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) {
		s.logger = l
		s.loggerExplicit = true
	}
}

// LogConsole turns the stdout sink on or off.
func LogConsole(enabled bool) Option {
	return func(s *Scheduler) { s.logConsoleOpt = &enabled }
}

// LogFile adds a file sink. Repeatable.
func LogFile(path string) Option {
	return func(s *Scheduler) { s.logFilesOpt = append(s.logFilesOpt, path) }
}

func DisableLogs() Option {
	return func(s *Scheduler) { s.logDisableOpt = true }
}

// WithIntervalUnit sets what one unit of an endpoint's interval means. Defaults to a second.
func WithIntervalUnit(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.intervalUnit = d
		}
	}
}

// WithMinInterval sets the smallest effective interval, in interval units.
func WithMinInterval(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.minInterval = n
		}
	}
}

// WithRateLimit throttles outgoing checks across all endpoints. perSecond <= 0 disables it.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Scheduler) {
		if perSecond <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}
