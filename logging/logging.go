// Package logging builds the zap logger shared by the monitor components.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Options struct {
	Console  bool
	Files    []string
	Debug    bool
	Disabled bool
}

// New builds a production zap logger writing to stdout and/or files.
// With no outputs selected it falls back to the console; a build failure yields a no-op logger.
func New(opts Options) *zap.Logger {
	if opts.Disabled {
		return zap.NewNop()
	}

	var paths []string
	seen := map[string]struct{}{}
	if opts.Console {
		paths = append(paths, "stdout")
		seen["stdout"] = struct{}{}
	}
	for _, f := range opts.Files {
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		paths = append(paths, f)
	}
	if len(paths) == 0 {
		paths = []string{"stdout"}
	}

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = paths
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if opts.Debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}
