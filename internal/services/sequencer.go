package services

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"shipment-dashboard/internal/platform/logging"
	"shipment-dashboard/internal/platform/metrics"
)

// ErrSuperseded is returned to a caller whose query was overtaken by a newer one.
var ErrSuperseded = errors.New("query superseded by a newer request")

// QueryState is the lifecycle of the latest submitted query.
type QueryState int

const (
	StateIdle QueryState = iota
	StateLoading
	StateReady
	StateFailed
)

func (s QueryState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "idle"
}

// Outcome is how one submission was resolved.
type Outcome int

const (
	// The response was the newest and was applied.
	OutcomeCommitted Outcome = iota
	// The newest query failed; the error state was recorded.
	OutcomeFailed
	// A newer submission superseded this one; its response was ignored.
	OutcomeStale
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCommitted:
		return "committed"
	case OutcomeFailed:
		return "failed"
	}
	return "stale"
}

// Ticket tracks one submission.
type Ticket struct {
	Seq uint64

	done    chan struct{}
	outcome Outcome
	err     error
}

func (t *Ticket) Done() <-chan struct{} { return t.done }

// Wait blocks until the submission resolves or ctx ends.
func (t *Ticket) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-t.done:
		return t.outcome, t.err
	case <-ctx.Done():
		return OutcomeStale, ctx.Err()
	}
}

func (t *Ticket) resolve(o Outcome, err error) {
	t.outcome = o
	t.err = err
	close(t.done)
}

// SequencerHooks connect a Sequencer to the state it guards. Begin, Commit
// and Fail run under the sequencer lock and must not block.
type SequencerHooks[Q, R any] struct {
	Fetch func(ctx context.Context, q Q) (R, error)

	// Begin runs at submission, before the fetch starts.
	Begin func(q Q)
	// Commit applies the newest result. An error turns it into a failure.
	Commit func(q Q, r R) error
	// Fail records the newest query's error.
	Fail func(q Q, err error)
	// AfterCommit runs outside the lock once a result was committed.
	AfterCommit func(ctx context.Context, q Q, r R)
}

// Sequencer dispatches queries and commits exactly one authoritative result
// per submission: every dispatch is tagged with a monotonically increasing
// sequence number and only the highest number seen so far may commit.
type Sequencer[Q, R any] struct {
	name    string
	hooks   SequencerHooks[Q, R]
	abort   bool
	logger  *zap.Logger
	metrics *metrics.Metrics

	base context.Context

	mu      sync.Mutex
	seq     uint64
	state   QueryState
	lastErr error
	cancel  context.CancelFunc
	latest  *Ticket
	closed  bool

	wg sync.WaitGroup
}

type SequencerOptions struct {
	// AbortSuperseded cancels the context of an in-flight fetch when a
	// newer query is submitted. Its result is ignored either way.
	AbortSuperseded bool
	Logger          *zap.Logger
	Metrics         *metrics.Metrics
}

// NewSequencer binds hooks to base, the context every fetch derives from.
func NewSequencer[Q, R any](base context.Context, name string, hooks SequencerHooks[Q, R], opts SequencerOptions) *Sequencer[Q, R] {
	return &Sequencer[Q, R]{
		name:    name,
		hooks:   hooks,
		abort:   opts.AbortSuperseded,
		logger:  logging.OrNop(opts.Logger).With(zap.String("query", name)),
		metrics: opts.Metrics,
		base:    base,
	}
}

// Submit dispatches q and returns immediately.
func (s *Sequencer[Q, R]) Submit(q Q) *Ticket {
	s.mu.Lock()

	s.seq++
	t := &Ticket{Seq: s.seq, done: make(chan struct{})}

	if s.closed {
		s.mu.Unlock()
		t.resolve(OutcomeStale, ErrSuperseded)
		return t
	}

	if s.abort && s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(s.base)
	s.cancel = cancel
	s.latest = t
	s.state = StateLoading
	s.lastErr = nil
	if s.hooks.Begin != nil {
		s.hooks.Begin(q)
	}
	s.wg.Add(1)
	s.mu.Unlock()

	s.metrics.QuerySubmitted(s.name)
	s.logger.Debug("query submitted", zap.Uint64("seq", t.Seq))

	go s.run(ctx, cancel, t, q)
	return t
}

func (s *Sequencer[Q, R]) run(ctx context.Context, cancel context.CancelFunc, t *Ticket, q Q) {
	defer s.wg.Done()
	defer cancel()

	r, err := s.hooks.Fetch(ctx, q)

	s.mu.Lock()
	if t.Seq != s.seq {
		s.mu.Unlock()
		s.metrics.QueryDiscarded(s.name)
		s.logger.Debug("stale response discarded", zap.Uint64("seq", t.Seq), zap.Error(err))
		t.resolve(OutcomeStale, ErrSuperseded)
		return
	}

	if err == nil && s.hooks.Commit != nil {
		err = s.hooks.Commit(q, r)
	}
	if err != nil {
		s.state = StateFailed
		s.lastErr = err
		if s.hooks.Fail != nil {
			s.hooks.Fail(q, err)
		}
		s.mu.Unlock()

		s.metrics.QueryFailed(s.name)
		s.logger.Warn("query failed", zap.Uint64("seq", t.Seq), zap.Error(err))
		t.resolve(OutcomeFailed, err)
		return
	}
	s.state = StateReady
	s.mu.Unlock()

	s.metrics.QueryCommitted(s.name)
	if s.hooks.AfterCommit != nil {
		s.hooks.AfterCommit(context.WithoutCancel(ctx), q, r)
	}
	t.resolve(OutcomeCommitted, nil)
}

// State reports the lifecycle of the latest submission and its error.
func (s *Sequencer[Q, R]) State() (QueryState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state, s.lastErr
}

// Wait blocks until the latest submission resolves, following newer
// submissions made while waiting. It returns immediately when idle.
func (s *Sequencer[Q, R]) Wait(ctx context.Context) (Outcome, error) {
	for {
		s.mu.Lock()
		t := s.latest
		s.mu.Unlock()

		if t == nil {
			return OutcomeCommitted, nil
		}

		outcome, err := t.Wait(ctx)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return OutcomeStale, ctxErr
		}

		s.mu.Lock()
		current := s.latest == t
		s.mu.Unlock()
		if current {
			return outcome, err
		}
	}
}

// Close cancels in-flight fetches and waits for their goroutines.
func (s *Sequencer[Q, R]) Close() {
	s.mu.Lock()
	s.closed = true
	// Bump the sequence so anything still in flight resolves as stale.
	s.seq++
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.wg.Wait()
}
