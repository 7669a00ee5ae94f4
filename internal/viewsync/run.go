package viewsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"basegraph.app/leads/common/logger"
	"basegraph.app/leads/internal/changefeed"
	"basegraph.app/leads/internal/model"
)

var errStreamClosed = errors.New("change stream closed")

// state is the part of a view that the run loop drives. seed replaces the
// local state wholesale; apply reports whether the event changed it.
type state interface {
	filter() changefeed.Filter
	seed(ctx context.Context, src Source) error
	apply(event model.ChangeEvent) bool
}

// loop owns the session lifecycle shared by every view.
type loop struct {
	src       Source
	opts      Options
	highlight *indicator

	readyOnce sync.Once
	ready     chan struct{}
}

func newLoop(src Source, opts Options) *loop {
	opts = opts.withDefaults()
	return &loop{
		src:       src,
		opts:      opts,
		highlight: newIndicator(opts.HighlightFor, opts.OnChange),
		ready:     make(chan struct{}),
	}
}

// run keeps st live until ctx is done. A seed that fails with ErrNotFound
// ends the loop; every other failure reconnects with backoff.
func (l *loop) run(ctx context.Context, st state, component string) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: component})
	defer l.highlight.stop()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = l.opts.RetryInterval
	bo.MaxInterval = l.opts.MaxRetryInterval

	for {
		err := l.session(ctx, st, bo)
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, ErrNotFound) {
			return err
		}

		wait := bo.NextBackOff()
		slog.WarnContext(ctx, "view lost its change stream, reconnecting", "error", err, "retry_in", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// session subscribes before seeding so that nothing committed after the
// seed read can be missed. Events buffered during the seed are applied
// afterwards and are guarded by version or id in apply.
func (l *loop) session(ctx context.Context, st state, bo *backoff.ExponentialBackOff) error {
	stream, err := l.src.Subscribe(ctx, st.filter())
	if err != nil {
		return fmt.Errorf("subscribing: %w", err)
	}
	defer stream.Close()

	if err := st.seed(ctx, l.src); err != nil {
		return fmt.Errorf("seeding: %w", err)
	}
	bo.Reset()
	l.readyOnce.Do(func() { close(l.ready) })
	l.opts.notify()
	slog.DebugContext(ctx, "view seeded")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-stream.Events():
			if !ok {
				if err := stream.Err(); err != nil {
					return err
				}
				return errStreamClosed
			}
			if st.apply(event) {
				l.highlight.raise()
				l.opts.notify()
			}
		}
	}
}
