package poll

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/apexgrid/racedash/log"
)

// FetchFunc is the caller-supplied fetch operation. It must honor ctx
// cancellation; the engine cancels it when the cycle is superseded or the
// source is stopped.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Options tune a Source.
type Options struct {
	// Immediate fires one fetch at start instead of waiting for the
	// first interval tick.
	Immediate bool

	// Timeout bounds each fetch. A timed-out fetch takes the same path
	// as a cancelled one: dropped silently, retried on the next tick.
	Timeout time.Duration

	// IsTransient classifies errors as expected-transient (backend not
	// ready yet). Transient errors are still delivered on Errors() but
	// their diagnostic logging is rate-limited.
	IsTransient func(error) bool

	// TransientLogCooldown is the minimum gap between logged transient
	// errors. Defaults to 30s.
	TransientLogCooldown time.Duration
}

type result[T any] struct {
	cycle uuid.UUID
	value T
	err   error
}

// Source polls a fetch operation on a fixed interval with single-flight
// and cancellation guarantees: at most one fetch is outstanding at any
// time, a superseded fetch's result is dropped silently, and after Stop
// returns no further deliveries occur. Decoded values arrive on Data(),
// failures on Errors(); both channels close when the source stops.
type Source[T any] struct {
	name     string
	interval time.Duration
	fetch    FetchFunc[T]
	opts     Options
	lg       *log.Logger

	data    chan T
	errs    chan error
	refetch chan struct{}
	results chan result[T]

	stopOnce sync.Once
	stopped  chan struct{}
	done     chan struct{}
}

// Start creates a Source and begins its polling loop.
func Start[T any](name string, interval time.Duration, fetch FetchFunc[T], opts Options, lg *log.Logger) *Source[T] {
	if opts.TransientLogCooldown == 0 {
		opts.TransientLogCooldown = 30 * time.Second
	}
	s := &Source[T]{
		name:     name,
		interval: interval,
		fetch:    fetch,
		opts:     opts,
		lg:       lg,
		data:     make(chan T),
		errs:     make(chan error),
		refetch:  make(chan struct{}, 1),
		results:  make(chan result[T]),
		stopped:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

// Data delivers fetched values in issue order. Closed on stop.
func (s *Source[T]) Data() <-chan T { return s.data }

// Errors delivers fetch failures. Cancellations and timeouts never appear
// here. Closed on stop.
func (s *Source[T]) Errors() <-chan error { return s.errs }

// RefetchNow requests an immediate fetch without waiting for the next
// interval tick. Non-blocking; coalesces if one is already pending.
func (s *Source[T]) RefetchNow() {
	select {
	case s.refetch <- struct{}{}:
	default:
	}
}

// Stop cancels any in-flight fetch, halts the schedule, and waits for the
// loop to exit. After Stop returns, no further Data or Errors deliveries
// occur. Idempotent.
func (s *Source[T]) Stop() {
	s.stopOnce.Do(func() { close(s.stopped) })
	<-s.done
}

func (s *Source[T]) run() {
	defer close(s.done)
	defer close(s.errs)
	defer close(s.data)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var (
		current       uuid.UUID
		cancel        context.CancelFunc
		lastTransient time.Time
	)
	defer func() {
		if cancel != nil {
			cancel()
		}
	}()

	// begin supersedes any outstanding cycle before issuing a new one:
	// the old cycle's context is cancelled and its token invalidated, so
	// a late completion can never be applied.
	begin := func() {
		if cancel != nil {
			cancel()
		}
		var ctx context.Context
		if s.opts.Timeout > 0 {
			ctx, cancel = context.WithTimeout(context.Background(), s.opts.Timeout)
		} else {
			ctx, cancel = context.WithCancel(context.Background())
		}
		current = uuid.New()
		cycle := current
		go func() {
			v, err := s.fetch(ctx)
			select {
			case s.results <- result[T]{cycle: cycle, value: v, err: err}:
			case <-s.stopped:
			}
		}()
	}

	if s.opts.Immediate {
		begin()
	}

	for {
		select {
		case <-s.stopped:
			return

		case <-ticker.C:
			begin()

		case <-s.refetch:
			begin()

		case r := <-s.results:
			if r.cycle != current {
				continue // superseded cycle; drop silently
			}
			if r.err != nil {
				if errors.Is(r.err, context.Canceled) || errors.Is(r.err, context.DeadlineExceeded) {
					continue // cancellation is not an error
				}
				transient := s.opts.IsTransient != nil && s.opts.IsTransient(r.err)
				if !transient {
					s.lg.Error("poll fetch failed", "source", s.name, "err", r.err)
				} else if time.Since(lastTransient) >= s.opts.TransientLogCooldown {
					lastTransient = time.Now()
					s.lg.Warn("backend not ready", "source", s.name, "err", r.err)
				}
				select {
				case s.errs <- r.err:
				case <-s.stopped:
					return
				}
				continue
			}
			select {
			case s.data <- r.value:
			case <-s.stopped:
				return
			}
		}
	}
}
