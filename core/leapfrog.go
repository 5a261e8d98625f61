package core

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Acceleration keeps the current and previous tick's gravitational
// acceleration of a ship. The previous value is what makes the
// half-step-offset velocity update of leapfrog integration possible.
type Acceleration struct {
	Current  r3.Vec
	Previous r3.Vec
}

type gravitySource struct {
	pos  r3.Vec
	mass float64
}

// gravityAccel sums the gravitational pull of the given sources on an
// object at pos: a = -Σ G·m·r/|r|³. An empty source list yields the zero
// vector, so an uninfluenced ship coasts in a straight line.
func gravityAccel(pos r3.Vec, sources []gravitySource) r3.Vec {
	var acc r3.Vec
	for _, s := range sources {
		r := r3.Sub(pos, s.pos)
		dist := r3.Norm(r)
		acc = r3.Sub(acc, r3.Scale(G*s.mass/(dist*dist*dist), r))
	}
	return acc
}

// deltaPos is the leapfrog position increment (v + a·dt/2)·dt.
func deltaPos(vel, acc r3.Vec, dt float64) r3.Vec {
	return r3.Scale(dt, r3.Add(vel, r3.Scale(dt/2, acc)))
}

// deltaVel is the leapfrog velocity increment (a_prev + a_cur)·dt/2.
func deltaVel(prev, cur r3.Vec, dt float64) r3.Vec {
	return r3.Scale(dt/2, r3.Add(prev, cur))
}

// orbitalPeriod returns the period of a circular orbit of the given
// radius around a mass, in days. Handy for tests and demo setups.
func orbitalPeriod(radius, mass float64) float64 {
	return 2 * math.Pi * math.Pow(radius, 1.5) / math.Sqrt(G*mass)
}
