package core

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/astralforge/orrery/model"
)

// eTolerance is the Kepler solver convergence threshold on the eccentric
// anomaly correction, in degrees.
const eTolerance = 1e-6

// keplerMaxIterations caps the Newton-Raphson loop. Hitting the cap is
// not an error: the best-effort anomaly is accepted as is.
const keplerMaxIterations = 10

// EllipticalOrbit holds a body's fixed orbital elements together with the
// solved state for the last requested simulation time. Angles are stored
// in degrees, following the dataset convention; the formulation is the
// one from https://ssd.jpl.nasa.gov/planets/approx_pos.html with the
// eccentricity rescaled to degrees inside Kepler's equation.
type EllipticalOrbit struct {
	Eccentricity       float64
	SemimajorAxis      float64 // km
	Inclination        float64 // degrees
	LongAscNode        float64 // degrees
	ArgPeriapsis       float64 // degrees
	InitialMeanAnomaly float64 // degrees
	RevolutionPeriod   float64 // days; 0 parks the body

	MeanAnomaly      float64 // degrees
	EccentricAnomaly float64 // degrees

	// LocalPos and LocalVel are the solved coordinates in the host
	// body's frame, in km and km/day.
	LocalPos r3.Vec
	LocalVel r3.Vec

	// Iterations is the Newton-Raphson iteration count of the last
	// solve, exposed for the convergence metrics.
	Iterations int
}

// NewOrbit builds an orbit from a body's static record.
func NewOrbit(d *model.BodyData) EllipticalOrbit {
	return EllipticalOrbit{
		Eccentricity:       d.Eccentricity,
		SemimajorAxis:      d.SemimajorAxis,
		Inclination:        d.Inclination,
		LongAscNode:        d.LongAscNode,
		ArgPeriapsis:       d.ArgPeriapsis,
		InitialMeanAnomaly: d.InitialMeanAnomaly,
		RevolutionPeriod:   d.RevolutionPeriod,
	}
}

func (o *EllipticalOrbit) updateMeanAnomaly(time float64) {
	if o.RevolutionPeriod == 0 {
		o.MeanAnomaly = Mod180(o.InitialMeanAnomaly)
		return
	}
	o.MeanAnomaly = Mod180(o.InitialMeanAnomaly + 360.0*time/o.RevolutionPeriod)
}

// solveEccentricAnomaly runs Newton-Raphson on Kepler's equation
// M = E - e_deg·sin(E), seeded at E₀ = M + e_deg·sin(M). The loop stops
// once the correction drops below eTolerance or after the iteration cap,
// whichever comes first.
func (o *EllipticalOrbit) solveEccentricAnomaly(time float64) {
	o.updateMeanAnomaly(time)
	M := o.MeanAnomaly
	e := o.Eccentricity
	ed := Degs(e)
	E := M + ed*math.Sin(Rads(M))
	dM := M - (E - ed*math.Sin(Rads(E)))
	dE := dM / (1 - e*math.Cos(Rads(E)))
	o.Iterations = 0
	for i := 0; i < keplerMaxIterations; i++ {
		if math.Abs(dE) <= eTolerance {
			break
		}
		dM = M - (E - ed*math.Sin(Rads(E)))
		dE = dM / (1 - e*math.Cos(Rads(E)))
		E += dE
		o.Iterations = i + 1
	}
	o.EccentricAnomaly = E
}

// UpdatePos solves the orbit for the given simulation time (days) and
// refreshes LocalPos and LocalVel. It is a pure function of the elements
// and the time, safe to call concurrently on distinct orbits.
func (o *EllipticalOrbit) UpdatePos(time float64) {
	o.solveEccentricAnomaly(time)

	a := o.SemimajorAxis
	e := o.Eccentricity
	E := Rads(o.EccentricAnomaly)
	sinE, cosE := math.Sin(E), math.Cos(E)
	sq := math.Sqrt(1 - e*e)

	x := a * (cosE - e)
	y := a * sq * sinE

	var vx, vy float64
	if o.RevolutionPeriod != 0 {
		// Analytic derivative: Ṁ = 2π/T, Ė = Ṁ/(1 - e·cos E).
		mDot := 2 * math.Pi / o.RevolutionPeriod
		eDot := mDot / (1 - e*cosE)
		vx = -a * sinE * eDot
		vy = a * cosE * eDot * sq
	}

	op := Rads(o.ArgPeriapsis)
	O := Rads(o.LongAscNode)
	I := Rads(o.Inclination)
	o.LocalPos = RotateToWorld(x, y, op, O, I)
	o.LocalVel = RotateToWorld(vx, vy, op, O, I)
}
