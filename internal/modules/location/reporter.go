// Package location is the driver-side Location Reporter. While the driver is
// online it samples a position source on a fixed period and republishes the
// position together with the online flag.
package location

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"gazflow/internal/types"
)

type Reporter struct {
	source    PositionSource
	publisher PresencePublisher
	interval  time.Duration
	// sampleTimeout bounds one read+publish so a hung call cannot stall the loop.
	sampleTimeout time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewReporter samples every interval. Zero means DefaultInterval; anything
// else is held within [MinInterval, MaxInterval].
func NewReporter(source PositionSource, publisher PresencePublisher, interval time.Duration) *Reporter {
	return newReporter(source, publisher, ClampInterval(interval))
}

func newReporter(source PositionSource, publisher PresencePublisher, interval time.Duration) *Reporter {
	return &Reporter{
		source:        source,
		publisher:     publisher,
		interval:      interval,
		sampleTimeout: interval,
	}
}

// SetOnline is the driver's toggle. Going online starts sampling with an
// immediate first sample. Going offline stops sampling and then clears the
// online flag explicitly.
func (r *Reporter) SetOnline(ctx context.Context, online bool) error {
	if online {
		r.Start(ctx)
		return nil
	}
	r.Stop()
	return r.publisher.PublishPresence(ctx, false, nil)
}

// Start begins sampling until Stop is called or ctx ends. It is a no-op if
// the reporter is already running.
func (r *Reporter) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.run(loopCtx, r.done)
}

// Stop halts sampling and waits for an in-flight sample to finish. It does
// not touch the online flag.
func (r *Reporter) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (r *Reporter) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

func (r *Reporter) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer r.release(done)

	r.sample(ctx)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sample(ctx)
		}
	}
}

// release forgets a run that ended on its own (parent ctx done) so a later
// Start can begin a fresh one. Stop has already cleared the fields otherwise.
func (r *Reporter) release(done chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != done {
		return
	}
	r.cancel()
	r.cancel, r.done = nil, nil
}

// sample reads one position and publishes it with online=true. Failures are
// logged and the next tick proceeds on schedule.
func (r *Reporter) sample(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, r.sampleTimeout)
	defer cancel()

	pos, err := r.source.Position(ctx)
	if err != nil {
		logUnlessStopped(ctx, "read position", err)
		return
	}
	if err := r.publisher.PublishPresence(ctx, true, &types.Point{Lat: pos.Lat, Lng: pos.Lng}); err != nil {
		logUnlessStopped(ctx, "publish presence", err)
	}
}

func logUnlessStopped(ctx context.Context, what string, err error) {
	if errors.Is(ctx.Err(), context.Canceled) {
		return
	}
	log.Printf("location: %s: %v", what, err)
}
