package engine

import (
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/piwi3910/BlockMerchant/internal/model"
)

// RecordID identifies a placement record. The zero value marks an empty cell.
type RecordID uint64

var lastRecordID atomic.Uint64

// Record describes one committed shape placement. The owning plane references
// it from every occupied cell; Grid is a handle to that plane, not ownership.
type Record struct {
	ID     RecordID
	Label  string
	Origin model.Cell
	Shape  model.Shape // offsets as placed, post-rotation
	Block  model.BlockDef
	Grid   GridID // empty while detached
}

// NewRecord creates a detached record for a block about to be placed with the
// given shape.
func NewRecord(def model.BlockDef, shape model.Shape) *Record {
	return &Record{
		ID:     RecordID(lastRecordID.Add(1)),
		Label:  uuid.New().String()[:8],
		Origin: model.NoCell,
		Shape:  shape,
		Block:  def,
	}
}

// Color returns the display color of the placed block.
func (r *Record) Color() model.Color { return r.Block.Color }

// Cells returns the absolute grid cells covered by the record.
func (r *Record) Cells() []model.Cell {
	out := make([]model.Cell, 0, r.Shape.Len())
	for i := 0; i < r.Shape.Len(); i++ {
		out = append(out, r.Origin.Add(r.Shape.At(i)))
	}
	return out
}

// Attached reports whether the record currently lives on a grid.
func (r *Record) Attached() bool { return r.Grid != "" }

// placement captures where a record sits so a failed move can restore it.
type placement struct {
	grid   GridID
	origin model.Cell
	shape  model.Shape
}

func (r *Record) snapshot() placement {
	return placement{grid: r.Grid, origin: r.Origin, shape: r.Shape}
}
