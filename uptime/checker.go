// Package uptime implements the high-level Scheduler public API.
package uptime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/amartya2002/uptime-checker-core/logging"
	"github.com/amartya2002/uptime-checker-core/model"
)

const (
	DefaultTimeout     = 10 * time.Second
	DefaultMinInterval = 5
)

// Scheduler keeps one timer loop per active endpoint and records every check
// in the item store, the log store and the status aggregator.
type Scheduler struct {
	httpClient   *http.Client
	numWorkers   int
	logLevel     LogLevel
	intervalUnit time.Duration
	minInterval  int
	limiter      *rate.Limiter

	enableInternalLogs bool
	logger             *zap.Logger
	loggerExplicit     bool // set when WithLogger used

	// logging configuration accumulated by options
	logConsoleOpt *bool
	logFilesOpt   []string
	logDisableOpt bool

	items  ItemStore
	logs   LogSink
	status Refresher

	results chan Result
	now     func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc // stops the current generation of timer loops
	wg     sync.WaitGroup
}

// ===== Constructor =====

// New builds a scheduler over items. logs and status may be nil.
func New(items ItemStore, logs LogSink, status Refresher, opts ...Option) *Scheduler {
	s := &Scheduler{
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		numWorkers:   10,
		logLevel:     LogInfo,
		intervalUnit: time.Second,
		minInterval:  DefaultMinInterval,
		items:        items,
		logs:         logs,
		status:       status,
		results:      make(chan Result, 1000),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	// Build logger after options applied unless explicitly provided
	if !s.loggerExplicit || s.logger == nil {
		s.logger = s.buildLoggerFromConfig()
	}
	return s
}

func (s *Scheduler) buildLoggerFromConfig() *zap.Logger {
	// Console defaults to on unless explicitly set to false
	console := true
	if s.logConsoleOpt != nil {
		console = *s.logConsoleOpt
	}
	return logging.New(logging.Options{
		Console:  console,
		Files:    s.logFilesOpt,
		Disabled: s.logDisableOpt,
	})
}

// ===== Public API =====

// StartMonitoring cancels every running timer loop and starts one per non-paused
// endpoint. Each loop checks immediately, then again one interval after each check ends.
// Call it after any change that affects scheduling.
func (s *Scheduler) StartMonitoring(ctx context.Context) error {
	nodes, err := s.items.List(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	loopCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	started := 0
	for _, n := range nodes {
		if !n.IsEndpoint() || n.IsPaused {
			continue
		}
		s.wg.Add(1)
		go s.run(loopCtx, n)
		started++
	}
	s.ilog("Monitoring rebuilt: %d active endpoints", started)
	return nil
}

// StopMonitoring cancels all timer loops and waits for in-flight checks to finish.
// The wait happens under mu so no StartMonitoring can add loops mid-wait;
// loops never take mu, so this cannot deadlock.
func (s *Scheduler) StopMonitoring() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.wg.Wait()
	s.ilog("Monitoring stopped")
}

// CheckItemImmediately runs and records one check outside the timer cadence.
func (s *Scheduler) CheckItemImmediately(ctx context.Context, ep model.Node) Result {
	return s.process(ctx, ep)
}

// ForceCheckMany checks the given endpoints in parallel and returns results in input order.
// Folders in the list are skipped and leave a zero Result.
func (s *Scheduler) ForceCheckMany(ctx context.Context, endpoints []model.Node) []Result {
	results := make([]Result, len(endpoints))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.numWorkers)
	for i, ep := range endpoints {
		if !ep.IsEndpoint() {
			continue
		}
		g.Go(func() error {
			results[i] = s.process(gctx, ep)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// ForceCheckAll checks every non-paused endpoint once, in parallel.
func (s *Scheduler) ForceCheckAll(ctx context.Context) ([]Result, error) {
	nodes, err := s.items.List(ctx)
	if err != nil {
		return nil, err
	}
	var active []model.Node
	for _, n := range nodes {
		if n.IsEndpoint() && !n.IsPaused {
			active = append(active, n)
		}
	}
	return s.ForceCheckMany(ctx, active), nil
}

// Results channel. Sends never block; results are dropped when the buffer is full.
func (s *Scheduler) Results() <-chan Result { return s.results }
