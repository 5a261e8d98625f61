package core

import (
	"context"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/astralforge/orrery/model"
)

func TestGravityAccel_PointsAtSource(t *testing.T) {
	sources := []gravitySource{{pos: r3.Vec{}, mass: 5.972e24}}
	acc := gravityAccel(r3.Vec{X: 7000}, sources)

	if acc.X >= 0 || acc.Y != 0 || acc.Z != 0 {
		t.Fatalf("acceleration %v does not point back at the source", acc)
	}
	want := G * 5.972e24 / (7000 * 7000)
	if math.Abs(r3.Norm(acc)-want) > 1e-9*want {
		t.Fatalf("|acc| = %v, want %v", r3.Norm(acc), want)
	}
}

func TestGravityAccel_NoSourcesMeansCoasting(t *testing.T) {
	if acc := gravityAccel(r3.Vec{X: 1, Y: 2, Z: 3}, nil); acc != (r3.Vec{}) {
		t.Fatalf("acceleration without sources = %v, want zero", acc)
	}
}

func TestLeapfrog_CircularOrbitSurvivesOnePeriod(t *testing.T) {
	// One body, one ship on a circular orbit at 1e5 km. After a full
	// period at the default simtick the ship must come back to its spawn
	// point with the orbital radius held throughout.
	earth := []model.BodyData{{
		ID: "earth", Name: "Earth", BodyType: model.Planet,
		Radius: 6371, Mass: 5.972e24,
	}}
	kb, err := NewKnowledgeBase(earth)
	if err != nil {
		t.Fatalf("NewKnowledgeBase: %v", err)
	}

	const radius = 1e5
	pos, vel := CircularOrbitAround(radius, earth[0].Mass, r3.Vec{}, r3.Vec{})
	if err := kb.AddShip(model.ShipInfo{ID: "probe", SpawnPos: pos, SpawnVel: vel}); err != nil {
		t.Fatalf("AddShip: %v", err)
	}

	engine := NewEngine(kb, EngineConfig{Workers: 1})
	period := orbitalPeriod(radius, earth[0].Mass)
	steps := int(period / GametimePerSimtick)

	ctx := context.Background()
	for i := 0; i < steps; i++ {
		engine.Step(ctx)
		ship, _ := kb.Ship("probe")
		r := r3.Norm(ship.Pos)
		if math.Abs(r-radius) > 0.01*radius {
			t.Fatalf("step %d: orbital radius %v km drifted beyond 1%% of %v", i, r, radius)
		}
	}

	ship, _ := kb.Ship("probe")
	if miss := r3.Norm(r3.Sub(ship.Pos, pos)); miss > 2e4 {
		t.Fatalf("ship missed its spawn point by %v km after one period", miss)
	}
}

func TestLeapfrog_DeltaFormulas(t *testing.T) {
	vel := r3.Vec{X: 10}
	acc := r3.Vec{Y: 4}
	const dt = 0.5

	if got, want := deltaPos(vel, acc, dt), (r3.Vec{X: 5, Y: 0.5}); got != want {
		t.Fatalf("deltaPos = %v, want %v", got, want)
	}
	prev := r3.Vec{Y: 2}
	if got, want := deltaVel(prev, acc, dt), (r3.Vec{Y: 1.5}); got != want {
		t.Fatalf("deltaVel = %v, want %v", got, want)
	}
}
