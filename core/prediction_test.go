package core

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/astralforge/orrery/model"
)

func TestComputePredictions_UninfluencedShipCoasts(t *testing.T) {
	kb, err := NewKnowledgeBase(parkedPrimary())
	if err != nil {
		t.Fatalf("NewKnowledgeBase: %v", err)
	}

	start := SpaceTimePoint{
		Pos: r3.Vec{X: 1000},
		Vel: r3.Vec{X: 10, Y: 20, Z: 30},
	}
	got := kb.ComputePredictions(start, 4, 5, nil, "", nil)
	if len(got) != 4 {
		t.Fatalf("got %d predictions, want 4", len(got))
	}

	dt := GametimePerSimtick * 5
	for i, p := range got {
		want := r3.Add(start.Pos, r3.Scale(float64(i+1)*dt, start.Vel))
		if r3.Norm(r3.Sub(p.Pos, want)) > 1e-9 {
			t.Fatalf("prediction %d pos = %v, want %v", i, p.Pos, want)
		}
		if p.Vel != start.Vel {
			t.Fatalf("prediction %d vel = %v, want unchanged %v", i, p.Vel, start.Vel)
		}
	}
}

func TestComputePredictions_DoesNotTouchLiveState(t *testing.T) {
	kb, err := NewKnowledgeBase(sunEarthMoon())
	if err != nil {
		t.Fatalf("NewKnowledgeBase: %v", err)
	}

	moonBefore, _ := kb.Body("moon")
	earthBefore, _ := kb.Body("earth")

	start := SpaceTimePoint{Pos: r3.Vec{X: 1.5e8}, Vel: r3.Vec{Y: 1e5}}
	kb.ComputePredictions(start, 50, 3, []model.BodyID{"sun", "earth", "moon"}, "earth", nil)

	moonAfter, _ := kb.Body("moon")
	earthAfter, _ := kb.Body("earth")
	if moonBefore.Pos != moonAfter.Pos || earthBefore.Pos != earthAfter.Pos {
		t.Fatalf("prediction replay moved live bodies")
	}
}

func TestComputePredictions_ParkedReferenceChangesNothing(t *testing.T) {
	// The sun sits parked at the origin, so rebasing on it must be the
	// identity transform.
	kb, err := NewKnowledgeBase(sunEarthMoon())
	if err != nil {
		t.Fatalf("NewKnowledgeBase: %v", err)
	}

	start := SpaceTimePoint{Pos: r3.Vec{X: 1.5e8}, Vel: r3.Vec{Y: 2.4e6}}
	plain := kb.ComputePredictions(start, 10, 3, []model.BodyID{"sun"}, "", nil)
	rebased := kb.ComputePredictions(start, 10, 3, []model.BodyID{"sun"}, "sun", nil)

	for i := range plain {
		if r3.Norm(r3.Sub(plain[i].Pos, rebased[i].Pos)) > 1e-9 {
			t.Fatalf("prediction %d: plain %v vs sun-rebased %v", i, plain[i].Pos, rebased[i].Pos)
		}
	}
}

func TestComputePredictions_AppliesManeuverNodes(t *testing.T) {
	kb, err := NewKnowledgeBase(parkedPrimary())
	if err != nil {
		t.Fatalf("NewKnowledgeBase: %v", err)
	}

	nodes := &Trajectory{}
	// Tick 3 falls inside the first 5-tick step, so the thrust applies
	// before the first sample. Prograde +5 on a ship moving along +Y.
	if err := nodes.Add(3, model.ManeuverNode{Name: "burn", Thrust: model.Vec3{Y: 5}, Origin: "hub"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	start := SpaceTimePoint{Pos: r3.Vec{X: 1000}, Vel: r3.Vec{Y: 10}}
	got := kb.ComputePredictions(start, 2, 5, nil, "", nodes)

	dt := GametimePerSimtick * 5
	wantVel := r3.Vec{Y: 15}
	for i, p := range got {
		if r3.Norm(r3.Sub(p.Vel, wantVel)) > 1e-9 {
			t.Fatalf("prediction %d vel = %v, want %v", i, p.Vel, wantVel)
		}
		wantPos := r3.Add(start.Pos, r3.Scale(float64(i+1)*dt, wantVel))
		if r3.Norm(r3.Sub(p.Pos, wantPos)) > 1e-9 {
			t.Fatalf("prediction %d pos = %v, want %v", i, p.Pos, wantPos)
		}
	}
}

func TestComputePredictions_FiresEachNodeOnce(t *testing.T) {
	kb, err := NewKnowledgeBase(parkedPrimary())
	if err != nil {
		t.Fatalf("NewKnowledgeBase: %v", err)
	}

	nodes := &Trajectory{}
	if err := nodes.Add(2, model.ManeuverNode{Name: "burn", Thrust: model.Vec3{Y: 1}, Origin: "hub"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	start := SpaceTimePoint{Pos: r3.Vec{X: 1000}, Vel: r3.Vec{Y: 10}}
	got := kb.ComputePredictions(start, 20, 1, nil, "", nodes)

	// One burn of +1: every sample from the firing tick on sees 11.
	last := got[len(got)-1]
	if r3.Norm(r3.Sub(last.Vel, r3.Vec{Y: 11})) > 1e-9 {
		t.Fatalf("final vel = %v, want {0 11 0}", last.Vel)
	}
}
