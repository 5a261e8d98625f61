package core

import (
	"bytes"
	"errors"
	"testing"

	"github.com/astralforge/orrery/model"
)

func node(name string) model.ManeuverNode {
	return model.ManeuverNode{Name: name, Thrust: model.Vec3{Y: 1}, Origin: "earth"}
}

func TestTrajectory_AddKeepsTickOrder(t *testing.T) {
	tr := &Trajectory{}
	for _, tick := range []uint64{50, 10, 30} {
		if err := tr.Add(tick, node("n")); err != nil {
			t.Fatalf("Add(%d): %v", tick, err)
		}
	}

	got := tr.Nodes()
	want := []uint64{10, 30, 50}
	for i, n := range got {
		if n.Simtick != want[i] {
			t.Fatalf("nodes[%d].Simtick = %d, want %d", i, n.Simtick, want[i])
		}
	}
}

func TestTrajectory_RejectsDuplicateTick(t *testing.T) {
	tr := &Trajectory{}
	if err := tr.Add(10, node("a")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := tr.Add(10, node("b")); !errors.Is(err, ErrMultipleNodesPerTime) {
		t.Fatalf("Add duplicate = %v, want ErrMultipleNodesPerTime", err)
	}
	if tr.Len() != 1 {
		t.Fatalf("rejected insert mutated the trajectory: len = %d", tr.Len())
	}
}

func TestTrajectory_InsertRejectsOutOfOrder(t *testing.T) {
	tr := &Trajectory{}
	if err := tr.Add(10, node("a")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := tr.Add(30, node("b")); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// Tick 20 belongs between the two; inserting it at the tail must fail.
	if err := tr.Insert(2, 20, node("c")); !errors.Is(err, ErrNotSorted) {
		t.Fatalf("Insert out of order = %v, want ErrNotSorted", err)
	}
	if err := tr.Insert(5, 40, node("d")); !errors.Is(err, ErrIndexOutOfBounds) {
		t.Fatalf("Insert bad index = %v, want ErrIndexOutOfBounds", err)
	}
}

func TestTrajectory_RemoveAndNodeAt(t *testing.T) {
	tr := &Trajectory{}
	for _, tick := range []uint64{10, 20, 30} {
		if err := tr.Add(tick, node("n")); err != nil {
			t.Fatalf("Add(%d): %v", tick, err)
		}
	}

	if !tr.Remove(20) {
		t.Fatalf("Remove(20) = false, want true")
	}
	if tr.Remove(20) {
		t.Fatalf("second Remove(20) = true, want false")
	}
	if _, ok := tr.NodeAt(20); ok {
		t.Fatalf("NodeAt(20) found a removed node")
	}
	if _, ok := tr.NodeAt(30); !ok {
		t.Fatalf("NodeAt(30) = not found")
	}
}

func TestCurrentTrajectory_DispatchesEachNodeOnce(t *testing.T) {
	tr := &Trajectory{}
	for _, tick := range []uint64{5, 15} {
		if err := tr.Add(tick, node("n")); err != nil {
			t.Fatalf("Add(%d): %v", tick, err)
		}
	}

	c := NewCurrentTrajectory(tr)
	first, ok := c.Peek()
	if !ok || first.Simtick != 5 {
		t.Fatalf("Peek = %v, %v; want node at tick 5", first, ok)
	}
	c.Advance()
	second, ok := c.Peek()
	if !ok || second.Simtick != 15 {
		t.Fatalf("Peek after advance = %v, %v; want node at tick 15", second, ok)
	}
	c.Advance()
	if _, ok := c.Peek(); ok {
		t.Fatalf("Peek past the end returned a node")
	}
	if c.Remaining() != 0 {
		t.Fatalf("Remaining = %d, want 0", c.Remaining())
	}
}

func TestTrajectory_JSONRoundTrip(t *testing.T) {
	tr := &Trajectory{}
	if err := tr.Add(7, model.ManeuverNode{Name: "burn-1", Thrust: model.Vec3{X: 0.5, Y: 2}, Origin: "earth"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := tr.Add(42, model.ManeuverNode{Name: "burn-2", Thrust: model.Vec3{Z: -1}, Origin: "moon"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	var buf bytes.Buffer
	if err := EncodeTrajectory(&buf, tr); err != nil {
		t.Fatalf("EncodeTrajectory: %v", err)
	}
	decoded, err := DecodeTrajectory(&buf)
	if err != nil {
		t.Fatalf("DecodeTrajectory: %v", err)
	}

	if decoded.Len() != tr.Len() {
		t.Fatalf("decoded %d nodes, want %d", decoded.Len(), tr.Len())
	}
	for i, want := range tr.Nodes() {
		got := decoded.Nodes()[i]
		if got != want {
			t.Fatalf("node %d = %+v, want %+v", i, got, want)
		}
	}
}

func TestDecodeTrajectory_RejectsDuplicateTicks(t *testing.T) {
	payload := `{"nodes":[
		{"simtick":5,"name":"a","thrust":{"x":0,"y":1,"z":0},"origin":"earth"},
		{"simtick":5,"name":"b","thrust":{"x":0,"y":1,"z":0},"origin":"earth"}
	]}`
	if _, err := DecodeTrajectory(bytes.NewBufferString(payload)); !errors.Is(err, ErrMultipleNodesPerTime) {
		t.Fatalf("DecodeTrajectory = %v, want ErrMultipleNodesPerTime", err)
	}
}
