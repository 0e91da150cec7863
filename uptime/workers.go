package uptime

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/amartya2002/uptime-checker-core/model"
)

const drainLimit = 64 << 10

// ===== Timer loops and internals =====

func (s *Scheduler) interval(ep model.Node) time.Duration {
	n := ep.Interval
	if n < s.minInterval {
		n = s.minInterval
	}
	return time.Duration(n) * s.intervalUnit
}

// run checks ep now and then again one interval after every check, until ctx is cancelled.
// A check already in progress when ctx is cancelled still completes and is recorded.
func (s *Scheduler) run(ctx context.Context, ep model.Node) {
	defer s.wg.Done()

	every := s.interval(ep)
	s.ilog("Scheduling site %s (%s) every %v", ep.Name, ep.URL, every)

	if ctx.Err() != nil {
		return
	}
	s.process(ctx, ep)

	timer := time.NewTimer(every)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if ctx.Err() != nil {
			return
		}
		s.process(ctx, ep)
		timer.Reset(every)
	}
}

// process performs one check of ep and writes the outcome everywhere it belongs.
func (s *Scheduler) process(ctx context.Context, ep model.Node) Result {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			s.ilog("Check for %s skipped: %v", ep.Name, err)
			return Result{Endpoint: ep, Timestamp: s.now()}
		}
	}

	started := s.now()
	res := Result{Endpoint: ep, Timestamp: started, CheckResult: s.CheckOnce(ep)}
	s.record(res)
	return res
}

// CheckOnce sends one request for ep and compares the status code.
// Transport failures become a down result carrying the error text; nothing is returned as an error.
func (s *Scheduler) CheckOnce(ep model.Node) model.CheckResult {
	start := time.Now()

	req, err := buildRequest(ep)
	if err != nil {
		return model.CheckResult{
			Status:     model.StatusDown,
			DurationMs: time.Since(start).Milliseconds(),
			Error:      fmt.Sprintf("Error creating request: %v", err),
		}
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return model.CheckResult{
			Status:     model.StatusDown,
			DurationMs: time.Since(start).Milliseconds(),
			Error:      err.Error(),
		}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))
	resp.Body.Close()

	code := resp.StatusCode
	res := model.CheckResult{
		Status:     model.StatusUp,
		StatusCode: &code,
		DurationMs: time.Since(start).Milliseconds(),
	}
	expected := ep.ExpectedStatusCode
	if expected == 0 {
		expected = model.DefaultExpectedStatusCode
	}
	if code != expected {
		res.Status = model.StatusDown
		res.Error = fmt.Sprintf("unexpected status code %d (expected %d)", code, expected)
	}
	return res
}

// record writes status, history and notifications. Failures here are logged and swallowed
// so one endpoint can never stop the others.
func (s *Scheduler) record(res Result) {
	ep := res.Endpoint
	ctx := context.Background()

	if err := s.items.SetStatus(ctx, ep.ID, res.Status); err != nil {
		s.logger.Warn("failed to store check status", zap.String("id", ep.ID), zap.Error(err))
	}

	if s.logs != nil && ep.LogLevel.ShouldLog(res.Status) {
		err := s.logs.Append(model.LogRecord{
			ItemID:     ep.ID,
			ItemName:   ep.Name,
			Status:     res.Status,
			StatusCode: res.StatusCode,
			DurationMs: res.DurationMs,
			Error:      res.Error,
		})
		if err != nil {
			s.logger.Warn("failed to append check log", zap.String("id", ep.ID), zap.Error(err))
		}
	}

	if s.status != nil {
		s.status.Refresh(ctx)
	}

	select {
	case s.results <- res:
	default:
	}
	s.log(res)
}

func (s *Scheduler) log(res Result) {
	code := 0
	if res.StatusCode != nil {
		code = *res.StatusCode
	}
	switch s.logLevel {
	case LogNone:
		return
	case LogError:
		if res.Status == model.StatusDown {
			s.logger.Error("Site DOWN", zap.String("name", res.Endpoint.Name), zap.String("error", res.Error))
		}
	case LogInfo:
		if res.Status == model.StatusUp {
			s.logger.Info("Site UP", zap.String("name", res.Endpoint.Name), zap.Int("status_code", code))
		} else {
			s.logger.Warn("Site DOWN", zap.String("name", res.Endpoint.Name), zap.String("error", res.Error))
		}
	case LogDebug:
		s.logger.Debug("Site check", zap.String("name", res.Endpoint.Name),
			zap.Int("status_code", code), zap.Int64("duration_ms", res.DurationMs), zap.String("error", res.Error))
	}
}

// ===== Internal Logging Helper =====
func (s *Scheduler) ilog(format string, args ...interface{}) {
	if s.enableInternalLogs {
		s.logger.Info(fmt.Sprintf("[INTERNAL] "+format, args...))
	}
}
