package core

import (
	"context"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/astralforge/orrery/internal/logging"
	"github.com/astralforge/orrery/internal/observability"
	"github.com/astralforge/orrery/model"
)

// GametimePerSimtick is the game time, in days, that one simtick
// represents (before the step-size multiplier).
const GametimePerSimtick = 1e-3

// SimticksPerTick is the number of simulation ticks per coarse game
// tick, the granularity display layers and maneuver editors work at.
const SimticksPerTick = 10

// GameTime is the elapsed simulation time, stored in simticks.
type GameTime struct {
	Simtick uint64
}

// Time returns the elapsed game time in days.
func (g GameTime) Time() float64 { return float64(g.Simtick) * GametimePerSimtick }

// Tick returns the coarse tick count.
func (g GameTime) Tick() uint64 { return g.Simtick / SimticksPerTick }

// EngineConfig tunes an Engine. Zero values fall back to one simtick per
// step, one worker per CPU, and a no-op logger.
type EngineConfig struct {
	// StepSize is the number of simticks advanced per Step. Changing it
	// changes simulation outcome, unlike the update rate.
	StepSize uint64
	// Workers bounds the fan-out of the parallel phases.
	Workers int

	Logger  logging.Logger
	Metrics *observability.SimCollector
}

// Engine advances the simulation in fixed, lock-step ticks. Each Step
// runs five strictly ordered phases: advance time, solve local orbits,
// propagate the hierarchy, resolve influence, integrate ships. The
// maneuver dispatcher sits between propagation and influence so a thrust
// is always applied before the next acceleration computation.
//
// The engine holds no global state: it is a plain value over an
// explicitly passed KnowledgeBase, equally callable from a live loop or
// a test harness.
type Engine struct {
	kb      *KnowledgeBase
	log     logging.Logger
	metrics *observability.SimCollector
	tracer  trace.Tracer

	mu       sync.RWMutex
	time     GameTime
	stepSize uint64
	workers  int
}

// NewEngine builds an engine over the knowledge base.
func NewEngine(kb *KnowledgeBase, cfg EngineConfig) *Engine {
	if cfg.StepSize == 0 {
		cfg.StepSize = 1
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Noop()
	}
	return &Engine{
		kb:       kb,
		log:      cfg.Logger,
		metrics:  cfg.Metrics,
		tracer:   otel.Tracer("github.com/astralforge/orrery/core"),
		stepSize: cfg.StepSize,
		workers:  cfg.Workers,
	}
}

// KB returns the engine's knowledge base.
func (e *Engine) KB() *KnowledgeBase { return e.kb }

// Now returns the current simulation time.
func (e *Engine) Now() GameTime {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.time
}

// StepSize returns the current simticks-per-step.
func (e *Engine) StepSize() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stepSize
}

// SetStepSize adjusts how many simticks each Step advances. Values
// below one are clamped to one.
func (e *Engine) SetStepSize(n uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n == 0 {
		n = 1
	}
	e.stepSize = n
}

// Step advances the simulation by one update. Phases within the step
// are strictly ordered; a new step never begins before the previous one
// finished, because the acceleration history carries a genuine data
// dependency across ticks.
func (e *Engine) Step(ctx context.Context) {
	wallStart := time.Now()

	e.mu.Lock()
	e.time.Simtick += e.stepSize
	now := e.time
	dt := GametimePerSimtick * float64(e.stepSize)
	e.mu.Unlock()

	ctx, span := e.tracer.Start(ctx, "engine.step")
	defer span.End()

	kb := e.kb
	kb.mu.Lock()
	defer kb.mu.Unlock()

	// Solve local orbital positions. No shared mutable state between
	// bodies, so this fans out freely.
	t := now.Time()
	bodies := make([]*bodyState, 0, len(kb.bodies))
	for _, b := range kb.bodies {
		bodies = append(bodies, b)
	}
	parallelFor(len(bodies), e.workers, func(i int) {
		bodies[i].orbit.UpdatePos(t)
	})
	if e.metrics != nil {
		for _, b := range bodies {
			e.metrics.ObserveKeplerIterations(b.orbit.Iterations)
		}
	}

	// Propagate absolute coordinates parent-before-child.
	propagateAbsolute(kb.bodies, kb.primary)

	// Dispatch due maneuver nodes before any acceleration computation.
	e.dispatchManeuvers(ctx, now)

	// Resolve influence per ship; read-only over body state.
	ships := make([]*shipState, 0, len(kb.ships))
	for _, s := range kb.ships {
		ships = append(ships, s)
	}
	span.SetAttributes(observability.StepAttributes(now.Simtick, len(bodies), len(ships))...)
	parallelFor(len(ships), e.workers, func(i int) {
		s := ships[i]
		s.influence = resolveInfluence(s.pos, kb.primary, kb.bodies)
	})

	// Leapfrog: the three phases must not interleave across ships, so
	// each runs to completion before the next starts.
	parallelFor(len(ships), e.workers, func(i int) {
		s := ships[i]
		s.pos = r3.Add(s.pos, deltaPos(s.vel, s.acc.Current, dt))
	})
	parallelFor(len(ships), e.workers, func(i int) {
		s := ships[i]
		s.acc.Previous = s.acc.Current
		s.acc.Current = gravityAccel(s.pos, gatherSources(s.influence.Influencers, kb.bodies))
	})
	parallelFor(len(ships), e.workers, func(i int) {
		s := ships[i]
		s.vel = r3.Add(s.vel, deltaVel(s.acc.Previous, s.acc.Current, dt))
	})

	if e.metrics != nil {
		e.metrics.ObserveStep(time.Since(wallStart))
		e.metrics.SetEntityCounts(len(bodies), len(ships))
	}
}

// StepN runs n consecutive steps, stopping early if the context is
// cancelled.
func (e *Engine) StepN(ctx context.Context, n int) {
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			return
		}
		e.Step(ctx)
	}
}

// dispatchManeuvers fires at most one due node per ship per step: the
// node under the cursor whose simtick has been reached. The thrust is
// converted from the node's orbital frame using the origin body's state
// at this very moment, applied as a velocity delta, and the cursor
// advances monotonically. A node whose origin body is unknown is
// consumed without effect. Callers hold the knowledge-base write lock.
func (e *Engine) dispatchManeuvers(ctx context.Context, now GameTime) {
	for _, s := range e.kb.ships {
		if s.cursor == nil {
			continue
		}
		n, ok := s.cursor.Peek()
		if !ok || n.Simtick > now.Simtick {
			continue
		}
		if origin, found := e.kb.bodies[n.Node.Origin]; found {
			thrust := OrbitalToGlobal(n.Node.Thrust.R3(), origin.pos, origin.vel, s.pos, s.vel)
			s.vel = r3.Add(s.vel, thrust)
			e.log.Info(ctx, "maneuver node fired",
				logging.String("ship", string(s.info.ID)),
				logging.String("node", n.Node.Name),
				logging.Uint64("simtick", n.Simtick),
			)
		}
		s.cursor.Advance()
		s.firedThrough = n.Simtick
		s.hasFired = true
	}
}

// PredictShip runs the prediction engine from a ship's live state, using
// its current influence set. If nodes is nil the ship's own trajectory
// is used as the candidate node set; pass an explicit trajectory to
// preview uncommitted edits.
func (e *Engine) PredictShip(id model.ShipID, count, stepTicks int, reference model.BodyID, nodes *Trajectory) []PredictedState {
	rec, ok := e.kb.Ship(id)
	if !ok {
		return nil
	}
	now := e.Now()
	if nodes == nil {
		nodes = e.kb.Trajectory(id)
	}
	start := SpaceTimePoint{
		Pos:     rec.Pos,
		Vel:     rec.Vel,
		Acc:     rec.Acc,
		Time:    now.Time(),
		Simtick: now.Simtick,
	}
	out := e.kb.ComputePredictions(start, count, stepTicks, rec.Influencers, reference, nodes)
	if e.metrics != nil {
		e.metrics.AddPredictions(len(out))
	}
	return out
}

// parallelFor spreads n loop iterations over at most workers goroutines
// and waits for completion. Iterations must be independent.
func parallelFor(n, workers int, fn func(int)) {
	if n == 0 {
		return
	}
	if workers <= 1 || n == 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				fn(i)
			}
		}(lo, hi)
	}
	wg.Wait()
}
