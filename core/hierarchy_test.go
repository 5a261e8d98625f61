package core

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestPropagateAbsolute_ChainsParentPositions(t *testing.T) {
	kb, err := NewKnowledgeBase(sunEarthMoon())
	if err != nil {
		t.Fatalf("NewKnowledgeBase: %v", err)
	}

	const time = 17.25
	for _, b := range kb.bodies {
		b.orbit.UpdatePos(time)
	}
	propagateAbsolute(kb.bodies, kb.primary)

	sun := kb.bodies["sun"]
	earth := kb.bodies["earth"]
	moon := kb.bodies["moon"]

	wantEarth := r3.Add(sun.orbit.LocalPos, earth.orbit.LocalPos)
	if r3.Norm(r3.Sub(earth.pos, wantEarth)) > 1e-9 {
		t.Fatalf("earth absolute pos = %v, want %v", earth.pos, wantEarth)
	}
	wantMoon := r3.Add(wantEarth, moon.orbit.LocalPos)
	if r3.Norm(r3.Sub(moon.pos, wantMoon)) > 1e-9 {
		t.Fatalf("moon absolute pos = %v, want %v", moon.pos, wantMoon)
	}

	wantMoonVel := r3.Add(r3.Add(sun.orbit.LocalVel, earth.orbit.LocalVel), moon.orbit.LocalVel)
	if r3.Norm(r3.Sub(moon.vel, wantMoonVel)) > 1e-9 {
		t.Fatalf("moon absolute vel = %v, want %v", moon.vel, wantMoonVel)
	}
}

func TestPropagateAbsolute_IsIdempotent(t *testing.T) {
	kb, err := NewKnowledgeBase(sunEarthMoon())
	if err != nil {
		t.Fatalf("NewKnowledgeBase: %v", err)
	}

	propagateAbsolute(kb.bodies, kb.primary)
	first := kb.bodies["moon"].pos
	propagateAbsolute(kb.bodies, kb.primary)

	if kb.bodies["moon"].pos != first {
		t.Fatalf("second propagation moved moon from %v to %v", first, kb.bodies["moon"].pos)
	}
}
