package core

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/astralforge/orrery/model"
)

// propagateAbsolute converts every body's freshly solved local
// coordinates into world-frame coordinates in one breadth-first pass
// from the primary body. A parent is always processed before its
// children, so each absolute position is parent absolute + local.
//
// Missing mapping entries are skipped quietly: a malformed child link
// prunes that subtree instead of crashing the tick.
func propagateAbsolute(bodies map[model.BodyID]*bodyState, primary model.BodyID) {
	type entry struct {
		id        model.BodyID
		parentPos r3.Vec
		parentVel r3.Vec
	}
	queue := []entry{{id: primary}}
	for i := 0; i < len(queue); i++ {
		cur := queue[i]
		b, ok := bodies[cur.id]
		if !ok {
			continue
		}
		b.pos = r3.Add(cur.parentPos, b.orbit.LocalPos)
		b.vel = r3.Add(cur.parentVel, b.orbit.LocalVel)
		for _, child := range b.data.OrbitingBodies {
			queue = append(queue, entry{id: child, parentPos: b.pos, parentVel: b.vel})
		}
	}
}
