package script

import (
	"github.com/piwi3910/BlockMerchant/internal/engine"
	"github.com/piwi3910/BlockMerchant/internal/model"
)

const defaultMaxDepth = 50

// Placed is one record captured in a snapshot.
type Placed struct {
	Grid   engine.GridID
	Block  model.BlockDef
	Origin model.Cell
	Shape  model.Shape
}

// Snapshot captures the placements of every grid on a board. Blocked masks,
// grid sizes and the spawn panel are not part of it.
type Snapshot struct {
	Placed []Placed
	Label  string // command that changed the board after the snapshot
}

// History keeps bounded undo and redo stacks of board snapshots.
type History struct {
	undo, redo []Snapshot
	maxDepth   int
}

// NewHistory returns a History that remembers the last 50 changes.
func NewHistory() *History {
	return &History{maxDepth: defaultMaxDepth}
}

// Push records s, the state before a change, and forgets anything undone.
func (h *History) Push(s Snapshot) {
	h.undo = append(h.undo, s)
	if over := len(h.undo) - h.maxDepth; over > 0 {
		h.undo = h.undo[over:]
	}
	h.redo = nil
}

// Undo returns the snapshot to restore for the latest change and keeps
// current, under the same label, for Redo. ok is false if there is nothing
// to undo.
func (h *History) Undo(current Snapshot) (s Snapshot, ok bool) {
	return step(&h.undo, &h.redo, current)
}

// Redo is the inverse of Undo.
func (h *History) Redo(current Snapshot) (s Snapshot, ok bool) {
	return step(&h.redo, &h.undo, current)
}

func step(from, to *[]Snapshot, current Snapshot) (Snapshot, bool) {
	n := len(*from)
	if n == 0 {
		return Snapshot{}, false
	}
	s := (*from)[n-1]
	*from = (*from)[:n-1]
	current.Label = s.Label
	*to = append(*to, current)
	return s, true
}

// PeekUndo returns the snapshot Undo would restore without moving it.
func (h *History) PeekUndo() (Snapshot, bool) { return top(h.undo) }

// PeekRedo returns the snapshot Redo would restore without moving it.
func (h *History) PeekRedo() (Snapshot, bool) { return top(h.redo) }

func top(stack []Snapshot) (Snapshot, bool) {
	if len(stack) == 0 {
		return Snapshot{}, false
	}
	return stack[len(stack)-1], true
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }

func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Clear forgets all history.
func (h *History) Clear() {
	h.undo, h.redo = nil, nil
}

// MakeSnapshot captures every record on b, grid by grid in registration order.
func MakeSnapshot(b *engine.Board, label string) Snapshot {
	var placed []Placed
	for _, p := range b.Grids() {
		for _, rec := range p.Records() {
			placed = append(placed, Placed{Grid: p.ID(), Block: rec.Block, Origin: rec.Origin, Shape: rec.Shape})
		}
	}
	return Snapshot{Placed: placed, Label: label}
}

// Restore replaces every record on b with the snapshot's placements. If any
// of them no longer fits, b is left as it was. Restored records are new
// records; handles to the old ones become invalid.
func (s Snapshot) Restore(b *engine.Board) error {
	placements := make([]engine.Placement, len(s.Placed))
	for i, pl := range s.Placed {
		placements[i] = engine.Placement(pl)
	}
	return b.Restore(placements)
}

// samePlacements reports whether both snapshots hold the same blocks at the
// same positions.
func (s Snapshot) samePlacements(o Snapshot) bool {
	if len(s.Placed) != len(o.Placed) {
		return false
	}
	for i, a := range s.Placed {
		b := o.Placed[i]
		if a.Grid != b.Grid || a.Block.ID != b.Block.ID || a.Origin != b.Origin || !a.Shape.Equal(b.Shape) {
			return false
		}
	}
	return true
}
