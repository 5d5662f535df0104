// Package relay is the authoritative game relay: a single event-loop
// goroutine that owns every room, applies client events in arrival order,
// runs the periodic sweep, and fans events out to connection queues.
package relay

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dogfight/internal/config"
	"github.com/cory-johannsen/dogfight/internal/game/aircraft"
	"github.com/cory-johannsen/dogfight/internal/game/clock"
	"github.com/cory-johannsen/dogfight/internal/game/combat"
	"github.com/cory-johannsen/dogfight/internal/game/random"
	"github.com/cory-johannsen/dogfight/internal/game/room"
	"github.com/cory-johannsen/dogfight/internal/game/session"
	"github.com/cory-johannsen/dogfight/internal/observability"
)

var (
	// ErrRoomFull is returned when a join would exceed room capacity.
	ErrRoomFull = errors.New("room is full")
	// ErrRoomIDRequired is returned when a join names no room.
	ErrRoomIDRequired = errors.New("room id required")
	// ErrUnknownConnection is returned for a connection id that was never registered.
	ErrUnknownConnection = errors.New("unknown connection")
	// ErrStopped is returned by calls made after the event loop has exited.
	ErrStopped = errors.New("relay stopped")
)

const requestQueueSize = 256

// Deps are the collaborators a Relay is built from.
type Deps struct {
	Store    *room.Store
	Sessions *session.Registry
	Catalog  *aircraft.Catalog
	Clock    clock.Clock
	Random   random.Source
	// Metrics may be nil.
	Metrics *observability.Metrics
	Logger  *zap.Logger
}

// Relay owns all room state. Every exported method is safe for concurrent
// use; each one is executed as a request on the event loop.
type Relay struct {
	cfg      config.RelayConfig
	store    *room.Store
	sessions *session.Registry
	catalog  *aircraft.Catalog
	clock    clock.Clock
	src      random.Source
	respawns *combat.Scheduler
	metrics  *observability.Metrics
	logger   *zap.Logger

	requests chan func()
	done     chan struct{}

	started atomic.Bool
	cancel  context.CancelFunc
	ctx     context.Context

	// sweepTimer is only touched by the loop goroutine.
	sweepTimer clock.Timer
}

// New creates a Relay. Call Run (or Start) before issuing requests.
//
// Precondition: every field of deps except Metrics must be non-nil.
// Postcondition: Returns a Relay whose loop has not started.
func New(cfg config.RelayConfig, deps Deps) *Relay {
	ctx, cancel := context.WithCancel(context.Background())
	return &Relay{
		cfg:      cfg,
		store:    deps.Store,
		sessions: deps.Sessions,
		catalog:  deps.Catalog,
		clock:    deps.Clock,
		src:      deps.Random,
		respawns: combat.NewScheduler(deps.Clock),
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		requests: make(chan func(), requestQueueSize),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Run processes requests until ctx is cancelled or Stop is called. It may
// be called once; later calls return immediately.
//
// Postcondition: on return, pending respawns are cancelled and every
// subsequent request fails with ErrStopped.
func (r *Relay) Run(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return errors.New("relay already started")
	}
	r.loop(ctx)
	return nil
}

func (r *Relay) loop(ctx context.Context) {
	defer close(r.done)
	defer r.respawns.CancelAll()

	r.logger.Info("relay loop started",
		zap.Int("max_players", r.cfg.MaxPlayers),
		zap.Duration("sweep_interval", r.cfg.SweepInterval),
		zap.Duration("stale_timeout", r.cfg.StaleTimeout),
	)
	r.armSweep()
	defer func() {
		if r.sweepTimer != nil {
			r.sweepTimer.Stop()
		}
	}()

	for {
		select {
		case fn := <-r.requests:
			r.safely(fn)
		case <-ctx.Done():
			r.logger.Info("relay loop stopped", zap.Error(ctx.Err()))
			return
		case <-r.ctx.Done():
			r.logger.Info("relay loop stopped")
			return
		}
	}
}

// safely runs fn, logging instead of crashing the loop if it panics.
func (r *Relay) safely(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("relay request panicked", zap.Any("panic", rec), zap.Stack("stack"))
		}
	}()
	fn()
}

// Start runs the loop until Stop is called. It satisfies server.Service.
func (r *Relay) Start() error {
	return r.Run(context.Background())
}

// Stop ends the loop and waits for it to exit if it was running. Idempotent.
func (r *Relay) Stop() {
	r.cancel()
	if r.started.CompareAndSwap(false, true) {
		close(r.done)
		return
	}
	<-r.done
}

// Done is closed once the loop has exited.
func (r *Relay) Done() <-chan struct{} {
	return r.done
}

// do runs fn on the loop and waits for it to finish.
func (r *Relay) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	select {
	case r.requests <- func() { defer close(finished); fn() }:
	case <-r.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-r.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post enqueues fn without waiting. Used by timer callbacks.
func (r *Relay) post(fn func()) {
	select {
	case r.requests <- fn:
	case <-r.done:
	}
}

func (r *Relay) armSweep() {
	r.sweepTimer = r.clock.AfterFunc(r.cfg.SweepInterval, func() {
		r.post(func() {
			r.sweep()
			r.armSweep()
		})
	})
}

// View runs fn on the loop with read access to the store. fn must not
// retain the store or any room beyond its own execution.
func (r *Relay) View(ctx context.Context, fn func(*room.Store)) error {
	return r.do(ctx, func() { fn(r.store) })
}

func (r *Relay) now() time.Time {
	return r.clock.Now()
}
