package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/bnema/streamguard/internal/domain"
	"github.com/bnema/streamguard/internal/ports"
)

const (
	defaultFetchFanout    = 4
	defaultTerminateRate  = rate.Limit(5)
	defaultTerminateBurst = 10
)

// Enforcer runs one enforcement cycle end to end: poll every server,
// aggregate sessions per user, evaluate the policy, and terminate every
// session of each violating user. All state is cycle-scoped; nothing
// survives into the next RunCycle call.
type Enforcer struct {
	servers []ports.MediaServer
	policy  domain.Policy
	logger  *slog.Logger
	clock   ports.Clock
	fanout  int
	limiter *rate.Limiter
	dryRun  bool
}

// Options tune a cycle's concurrency. Zero values pick the defaults.
type Options struct {
	FetchFanout    int
	TerminateRate  rate.Limit
	TerminateBurst int
	DryRun         bool
}

func NewEnforcer(servers []ports.MediaServer, policy domain.Policy, logger *slog.Logger, clock ports.Clock, opts Options) *Enforcer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if opts.FetchFanout <= 0 {
		opts.FetchFanout = defaultFetchFanout
	}
	if opts.TerminateRate <= 0 {
		opts.TerminateRate = defaultTerminateRate
	}
	if opts.TerminateBurst <= 0 {
		opts.TerminateBurst = defaultTerminateBurst
	}

	return &Enforcer{
		servers: servers,
		policy:  policy,
		logger:  logger,
		clock:   clock,
		fanout:  opts.FetchFanout,
		limiter: rate.NewLimiter(opts.TerminateRate, opts.TerminateBurst),
		dryRun:  opts.DryRun,
	}
}

// RunCycle never fails: source and termination errors are scoped to their
// component, logged, and carried in the report. The next cycle re-detects
// anything a failure left behind.
func (e *Enforcer) RunCycle(ctx context.Context) CycleReport {
	report := CycleReport{
		CycleID:   uuid.NewString(),
		StartedAt: e.clock.Now(),
		DryRun:    e.dryRun,
	}
	logger := e.logger.With("cycle", report.CycleID)

	registry := domain.NewRegistry()
	for _, result := range e.collectSessions(ctx) {
		if result.err != nil {
			logger.Warn("session fetch failed", "server", result.server, "error", result.err)
			report.Sources = append(report.Sources, SourceResult{Server: result.server, Failure: result.err.Error()})
			continue
		}

		registry.Ingest(result.records)
		report.Sources = append(report.Sources, SourceResult{Server: result.server, Sessions: len(result.records)})
	}

	report.Users = registry.Finalize()
	report.Counts = make(map[string]int, len(report.Users))
	for username, user := range report.Users {
		report.Counts[username] = user.Count
	}
	report.Verdicts = e.policy.Evaluate(report.Users)

	for _, username := range report.Violations() {
		user := report.Users[username]
		if e.dryRun {
			logger.Debug("dry run, keeping sessions", "user", username, "sessions", user.Count)
			continue
		}

		logger.Info("user over stream limit", "user", username, "sessions", user.Count, "limit", e.policy.MaxStreams)
		report.Terminations = append(report.Terminations, e.terminateAll(ctx, logger, user)...)
	}

	report.FinishedAt = e.clock.Now()
	logger.Info("cycle complete",
		"users", len(report.Users),
		"violations", len(report.Violations()),
		"terminations", len(report.Terminations),
		"failed_terminations", report.FailedTerminations(),
	)

	return report
}

type fetchResult struct {
	server  string
	records []domain.SessionRecord
	err     error
}

// collectSessions polls every server with bounded fan-out and joins all
// fetches before returning, so finalization never runs on a partial set.
func (e *Enforcer) collectSessions(ctx context.Context) []fetchResult {
	results := make([]fetchResult, len(e.servers))
	sem := make(chan struct{}, e.fanout)
	var wg sync.WaitGroup

	for i, server := range e.servers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			records, err := server.ActiveSessions(ctx)
			results[i] = fetchResult{server: server.ServerName(), records: records, err: err}
		}()
	}
	wg.Wait()

	return results
}

// terminateAll ends every session of one violating user. Attempts are
// independent: one failure never blocks the user's other sessions. There is
// no retry; a still-active session reappears next cycle.
func (e *Enforcer) terminateAll(ctx context.Context, logger *slog.Logger, user domain.UserSessions) []TerminationOutcome {
	reason := fmt.Sprintf("Stream limit reached: %s has more than %d active streams", user.Username, e.policy.MaxStreams)
	outcomes := make([]TerminationOutcome, len(user.Sessions))
	var wg sync.WaitGroup

	for i, session := range user.Sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()

			outcome := TerminationOutcome{
				Server:     session.Origin.ServerName(),
				Username:   session.Username,
				SessionID:  session.SessionID,
				SessionKey: session.SessionKey,
			}

			err := e.limiter.Wait(ctx)
			if err == nil {
				err = session.Origin.Terminate(ctx, session, reason)
			}
			if err != nil {
				outcome.Failure = err.Error()
				logger.Warn("termination failed", "server", outcome.Server, "user", outcome.Username, "session", outcome.SessionID, "error", err)
			} else {
				logger.Info("session terminated", "server", outcome.Server, "user", outcome.Username, "session", outcome.SessionID)
			}

			outcomes[i] = outcome
		}()
	}
	wg.Wait()

	return outcomes
}
