package timectrl

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/astralforge/orrery/core"
)

// stubEngine counts steps and advances simticks without running physics.
type stubEngine struct {
	mu       sync.Mutex
	simtick  uint64
	stepSize uint64
	steps    int
}

func newStubEngine(stepSize uint64) *stubEngine {
	return &stubEngine{stepSize: stepSize}
}

func (s *stubEngine) Step(context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.simtick += s.stepSize
	s.steps++
}

func (s *stubEngine) Now() core.GameTime {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.GameTime{Simtick: s.simtick}
}

func (s *stubEngine) StepSize() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stepSize
}

func (s *stubEngine) SetStepSize(n uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stepSize = n
}

func TestRun_AcceleratedStopsAfterDuration(t *testing.T) {
	// Each step advances 1000 simticks = 1 game day, so 500 days of game
	// time take exactly 500 steps.
	engine := newStubEngine(1000)
	tc := NewTimeController(engine, DefaultUpdatesPerSecond, Accelerated)

	var notified int
	tc.AddListener(func(core.GameTime) { notified++ })

	tc.Run(context.Background(), 500)

	if engine.steps != 500 {
		t.Fatalf("steps = %d, want 500", engine.steps)
	}
	if notified != 500 {
		t.Fatalf("listener calls = %d, want 500", notified)
	}
}

func TestRun_CancelledContextStopsLoop(t *testing.T) {
	engine := newStubEngine(1)
	tc := NewTimeController(engine, 1024, RealTime)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	select {
	case <-tc.Start(ctx, 0):
	case <-time.After(5 * time.Second):
		t.Fatalf("controller did not stop after context cancellation")
	}
}

func TestUpdateRateControls_Clamp(t *testing.T) {
	tc := NewTimeController(newStubEngine(1), 64, RealTime)

	if got := tc.FasterUpdates(); got != 128 {
		t.Fatalf("FasterUpdates = %v, want 128", got)
	}
	for i := 0; i < 20; i++ {
		tc.FasterUpdates()
	}
	if got := tc.UpdatesPerSecond(); got != 1024 {
		t.Fatalf("update rate cap = %v, want 1024", got)
	}
	for i := 0; i < 30; i++ {
		tc.SlowerUpdates()
	}
	if got := tc.UpdatesPerSecond(); got != 1 {
		t.Fatalf("update rate floor = %v, want 1", got)
	}
}

func TestStepSizeControls_NeverBelowOne(t *testing.T) {
	engine := newStubEngine(2)
	tc := NewTimeController(engine, 64, RealTime)

	if got := tc.CoarserStep(); got != 4 {
		t.Fatalf("CoarserStep = %d, want 4", got)
	}
	for i := 0; i < 10; i++ {
		tc.FinerStep()
	}
	if got := engine.StepSize(); got != 1 {
		t.Fatalf("step size floor = %d, want 1", got)
	}
}

func TestTogglePause(t *testing.T) {
	tc := NewTimeController(newStubEngine(1), 64, Accelerated)

	if tc.Paused() {
		t.Fatalf("controller starts paused")
	}
	if !tc.TogglePause() {
		t.Fatalf("first toggle should pause")
	}
	if tc.TogglePause() {
		t.Fatalf("second toggle should resume")
	}
}

func TestNewTimeController_DefaultsUpdateRate(t *testing.T) {
	tc := NewTimeController(newStubEngine(1), 0, RealTime)
	if got := tc.UpdatesPerSecond(); got != DefaultUpdatesPerSecond {
		t.Fatalf("default update rate = %v, want %v", got, DefaultUpdatesPerSecond)
	}
}
