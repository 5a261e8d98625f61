package core

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/astralforge/orrery/model"
)

// Planner defaults: 120 points, one every 3 simticks.
const (
	DefaultPredictionCount = 120
	DefaultPredictionStep  = 3
)

// SpaceTimePoint is the starting state of a prediction: a ship's
// position, velocity, and current acceleration at a simulation time.
type SpaceTimePoint struct {
	Pos     r3.Vec
	Vel     r3.Vec
	Acc     r3.Vec
	Time    float64 // days
	Simtick uint64
}

// PredictedState is one future (position, velocity) sample.
type PredictedState struct {
	Pos r3.Vec
	Vel r3.Vec
}

// predictedBody is a private copy of a body's orbit used to fast-forward
// the body analytically without touching live state.
type predictedBody struct {
	orbit EllipticalOrbit
	host  model.BodyID
	mass  float64
}

// bodyEphemeris computes world-frame body states at arbitrary future
// times by re-solving the orbit chain up to the root. Results are
// memoized per time so a body demanded by several descendants within the
// same prediction tick is solved once; the cache is cleared whenever the
// requested time changes.
type bodyEphemeris struct {
	bodies    map[model.BodyID]*predictedBody
	cache     map[model.BodyID]PredictedState
	cacheTime float64
}

func (eph *bodyEphemeris) at(id model.BodyID, time float64) (PredictedState, bool) {
	if eph.cache == nil || eph.cacheTime != time {
		eph.cache = make(map[model.BodyID]PredictedState, len(eph.bodies))
		eph.cacheTime = time
	}
	return eph.resolve(id, time)
}

func (eph *bodyEphemeris) resolve(id model.BodyID, time float64) (PredictedState, bool) {
	if st, ok := eph.cache[id]; ok {
		return st, true
	}
	b, ok := eph.bodies[id]
	if !ok {
		return PredictedState{}, false
	}
	b.orbit.UpdatePos(time)
	var st PredictedState
	if b.host != "" {
		host, ok := eph.resolve(b.host, time)
		if !ok {
			return PredictedState{}, false
		}
		st = host
	}
	st.Pos = r3.Add(st.Pos, b.orbit.LocalPos)
	st.Vel = r3.Add(st.Vel, b.orbit.LocalVel)
	eph.cache[id] = st
	return st, true
}

// ComputePredictions replays the leapfrog math for count future steps of
// stepTicks simticks each, starting from start, under the gravitational
// pull of the given influencers. It never mutates live state: body
// positions are fast-forwarded analytically rather than read from the
// world, so the result can be discarded and recomputed on every input
// change.
//
// If nodes is non-nil, each node whose simtick is crossed applies its
// thrust to the local velocity copy before that step, converted through
// the node origin's predicted frame. This is how a planner previews
// uncommitted maneuvers.
//
// If reference names a body, the returned coordinates are expressed
// relative to the reference's predicted state at each step, rebased by
// the reference's initial state so the first point lines up with the
// ship's live position.
func (kb *KnowledgeBase) ComputePredictions(
	start SpaceTimePoint,
	count, stepTicks int,
	influencers []model.BodyID,
	reference model.BodyID,
	nodes *Trajectory,
) []PredictedState {
	if count <= 0 {
		return nil
	}
	if stepTicks <= 0 {
		stepTicks = DefaultPredictionStep
	}

	kb.mu.RLock()
	eph := &bodyEphemeris{bodies: make(map[model.BodyID]*predictedBody, len(kb.bodies))}
	for id, b := range kb.bodies {
		eph.bodies[id] = &predictedBody{
			orbit: b.orbit,
			host:  b.data.HostBody,
			mass:  b.data.Mass,
		}
	}
	kb.mu.RUnlock()

	dt := GametimePerSimtick * float64(stepTicks)
	pos, vel, acc := start.Pos, start.Vel, start.Acc

	// The rebasing offset is the reference state at the start time, not
	// at the first predicted step: using the wrong tick here shifts the
	// whole prediction line off the ship by one frame.
	var refStart PredictedState
	hasRef := false
	if reference != "" {
		refStart, hasRef = eph.at(reference, start.Time)
	}

	out := make([]PredictedState, 0, count)
	prevTick := start.Simtick
	for i := 1; i <= count; i++ {
		tick := start.Simtick + uint64(i*stepTicks)
		stepStart := start.Time + float64((i-1)*stepTicks)*GametimePerSimtick
		t := start.Time + float64(i*stepTicks)*GametimePerSimtick

		if nodes != nil {
			for _, n := range nodes.nodesWithin(prevTick, tick) {
				origin, ok := eph.at(n.Node.Origin, stepStart)
				if !ok {
					continue
				}
				vel = r3.Add(vel, OrbitalToGlobal(n.Node.Thrust.R3(), origin.Pos, origin.Vel, pos, vel))
			}
		}

		pos = r3.Add(pos, deltaPos(vel, acc, dt))

		sources := make([]gravitySource, 0, len(influencers))
		for _, id := range influencers {
			st, ok := eph.at(id, t)
			if !ok {
				continue
			}
			sources = append(sources, gravitySource{pos: st.Pos, mass: eph.bodies[id].mass})
		}
		prevAcc := acc
		acc = gravityAccel(pos, sources)
		vel = r3.Add(vel, deltaVel(prevAcc, acc, dt))

		sample := PredictedState{Pos: pos, Vel: vel}
		if hasRef {
			if ref, ok := eph.at(reference, t); ok {
				sample.Pos = r3.Add(r3.Sub(pos, ref.Pos), refStart.Pos)
				sample.Vel = r3.Add(r3.Sub(vel, ref.Vel), refStart.Vel)
			}
		}
		out = append(out, sample)
		prevTick = tick
	}
	return out
}
