package timectrl

import (
	"context"
	"sync"
	"time"

	"github.com/astralforge/orrery/core"
)

// SimEngine is the slice of the simulation engine the controller drives.
// Depending on an interface rather than the concrete engine keeps the
// controller testable with a stub.
type SimEngine interface {
	Step(ctx context.Context)
	Now() core.GameTime
	StepSize() uint64
	SetStepSize(uint64)
}

// Mode describes how the TimeController advances simulation time.
type Mode int

const (
	// RealTime paces updates against wall-clock time.
	RealTime Mode = iota
	// Accelerated runs updates back to back as fast as the loop allows.
	Accelerated
)

// Update-rate bounds. The rate only changes how often steps run in real
// time; simulation outcome depends solely on the engine's step size.
const (
	DefaultUpdatesPerSecond = 64.0
	minUpdatesPerSecond     = 1.0
	maxUpdatesPerSecond     = 1024.0
)

// TimeController paces the simulation engine: it owns the update rate,
// the pause state, and the doubling/halving controls for both the rate
// and the engine step size.
type TimeController struct {
	mu      sync.RWMutex
	engine  SimEngine
	mode    Mode
	updates float64
	paused  bool

	listeners []func(core.GameTime)
}

// NewTimeController constructs a controller over the engine. A zero or
// negative updates-per-second falls back to the default rate.
func NewTimeController(engine SimEngine, updatesPerSecond float64, mode Mode) *TimeController {
	if updatesPerSecond <= 0 {
		updatesPerSecond = DefaultUpdatesPerSecond
	}
	return &TimeController{
		engine:  engine,
		mode:    mode,
		updates: clampUpdates(updatesPerSecond),
	}
}

// Now returns the engine's current simulation time.
func (tc *TimeController) Now() core.GameTime { return tc.engine.Now() }

// UpdatesPerSecond returns the current pacing rate.
func (tc *TimeController) UpdatesPerSecond() float64 {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.updates
}

// Paused reports whether the controller is paused.
func (tc *TimeController) Paused() bool {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.paused
}

// TogglePause flips the pause state and returns the new value. Pausing
// stops stepping without tearing down the loop.
func (tc *TimeController) TogglePause() bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.paused = !tc.paused
	return tc.paused
}

// FasterUpdates doubles the update rate, up to the cap. More updates per
// second means smoother pacing, not different physics.
func (tc *TimeController) FasterUpdates() float64 {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.updates = clampUpdates(tc.updates * 2)
	return tc.updates
}

// SlowerUpdates halves the update rate, down to the floor.
func (tc *TimeController) SlowerUpdates() float64 {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.updates = clampUpdates(tc.updates / 2)
	return tc.updates
}

// CoarserStep doubles the engine's simticks-per-step. Unlike the update
// rate this changes integration granularity and therefore outcome.
func (tc *TimeController) CoarserStep() uint64 {
	n := tc.engine.StepSize() * 2
	tc.engine.SetStepSize(n)
	return tc.engine.StepSize()
}

// FinerStep halves the engine's simticks-per-step, never below one.
func (tc *TimeController) FinerStep() uint64 {
	n := tc.engine.StepSize() / 2
	if n == 0 {
		n = 1
	}
	tc.engine.SetStepSize(n)
	return tc.engine.StepSize()
}

// AddListener registers a callback invoked after every executed step
// with the simulation time reached. Listeners must be registered before
// Run starts.
func (tc *TimeController) AddListener(fn func(core.GameTime)) {
	tc.listeners = append(tc.listeners, fn)
}

// Start runs the controller in a separate goroutine until the context is
// cancelled or, when duration is positive, that much simulation game
// time has elapsed. The returned channel is closed when the loop exits.
func (tc *TimeController) Start(ctx context.Context, duration float64) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		tc.Run(ctx, duration)
	}()
	return done
}

// Run drives the engine loop on the calling goroutine. duration is game
// time in days; zero or negative means run until cancelled.
func (tc *TimeController) Run(ctx context.Context, duration float64) {
	startTime := tc.engine.Now().Time()

	var ticker *time.Ticker
	tc.mu.RLock()
	mode, updates := tc.mode, tc.updates
	tc.mu.RUnlock()
	if mode == RealTime {
		ticker = time.NewTicker(intervalFor(updates))
		defer ticker.Stop()
	}

	for {
		if duration > 0 && tc.engine.Now().Time()-startTime >= duration {
			return
		}

		if ticker != nil {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			tc.mu.RLock()
			current := tc.updates
			tc.mu.RUnlock()
			if current != updates {
				updates = current
				ticker.Reset(intervalFor(updates))
			}
		} else if ctx.Err() != nil {
			return
		}

		if tc.Paused() {
			if ticker == nil {
				select {
				case <-ctx.Done():
					return
				case <-time.After(10 * time.Millisecond):
				}
			}
			continue
		}

		tc.engine.Step(ctx)
		now := tc.engine.Now()
		for _, fn := range tc.listeners {
			fn(now)
		}
	}
}

func intervalFor(updatesPerSecond float64) time.Duration {
	return time.Duration(float64(time.Second) / updatesPerSecond)
}

func clampUpdates(u float64) float64 {
	if u < minUpdatesPerSecond {
		return minUpdatesPerSecond
	}
	if u > maxUpdatesPerSecond {
		return maxUpdatesPerSecond
	}
	return u
}
