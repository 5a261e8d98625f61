package core

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/astralforge/orrery/model"
)

// Influenced is the set of bodies whose Hill spheres contain a point,
// ordered root to leaf, plus the main influencer: the body with the
// smallest Hill radius among the set, i.e. the deepest locally dominant
// sphere. Main is empty when the set is empty.
type Influenced struct {
	Influencers []model.BodyID
	Main        model.BodyID
}

// setupHillRadii computes each body's Hill radius once after the tree is
// built, walking parent before child so the parent mass is known:
// r_hill = max(radius, a(1-e)·(m/(3(m_parent+m)))^(1/3)). The primary
// body's Hill radius is infinite, so every point in space has at least
// one influencer.
func setupHillRadii(bodies map[model.BodyID]*bodyState, primary model.BodyID) {
	type entry struct {
		id         model.BodyID
		parentMass float64
	}
	queue := []entry{{id: primary}}
	for i := 0; i < len(queue); i++ {
		cur := queue[i]
		b, ok := bodies[cur.id]
		if !ok {
			continue
		}
		d := &b.data
		r := d.SemimajorAxis * (1 - d.Eccentricity) *
			math.Cbrt(d.Mass/(3*(cur.parentMass+d.Mass)))
		b.hillRadius = math.Max(r, d.Radius)
		for _, child := range d.OrbitingBodies {
			queue = append(queue, entry{id: child, parentMass: d.Mass})
		}
	}
	if b, ok := bodies[primary]; ok {
		b.hillRadius = math.Inf(1)
	}
}

// resolveInfluence determines the sphere-of-influence chain for a point
// by recursive descent from the primary body. If a point is not inside a
// body's Hill sphere it cannot be inside any of that body's descendants'
// spheres, so failing the containment test prunes the whole subtree.
func resolveInfluence(point r3.Vec, primary model.BodyID, bodies map[model.BodyID]*bodyState) Influenced {
	type influence struct {
		id         model.BodyID
		hillRadius float64
	}
	var found []influence

	var descend func(id model.BodyID)
	descend = func(id model.BodyID) {
		b, ok := bodies[id]
		if !ok {
			return
		}
		if r3.Norm(r3.Sub(point, b.pos)) >= b.hillRadius {
			return
		}
		found = append(found, influence{id: id, hillRadius: b.hillRadius})
		for _, child := range b.data.OrbitingBodies {
			descend(child)
		}
	}
	descend(primary)

	out := Influenced{Influencers: make([]model.BodyID, len(found))}
	// The first element seeds the minimum: the primary's radius is +Inf,
	// and Inf < Inf never holds, so a plain comparison would leave a
	// root-only ship without a main influencer.
	var minRadius float64
	for i, f := range found {
		out.Influencers[i] = f.id
		if i == 0 || f.hillRadius < minRadius {
			minRadius = f.hillRadius
			out.Main = f.id
		}
	}
	return out
}
