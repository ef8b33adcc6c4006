package engine

import (
	"github.com/piwi3910/BlockMerchant/internal/model"
)

// Drag is the in-flight state of a block held by the pointer. Rotating or
// previewing never touches grid state; only Drop commits.
type Drag struct {
	board    *Board
	block    model.BlockDef
	record   *Record // nil for a fresh block from the spawn panel
	shape    model.Shape
	rotation model.Rotation
	done     bool
}

// Preview is what a drop at a given cell would do.
type Preview struct {
	Grid   GridID
	Origin model.Cell
	Cells  []model.Cell // target cells inside the grid
	Valid  bool
	Reason Reason
}

// BeginDrag starts dragging a fresh block. The shape is centered on the
// pointer cell so rotation pivots around the middle of the block.
func (b *Board) BeginDrag(def model.BlockDef) *Drag {
	return &Drag{board: b, block: def, shape: def.Shape.Center()}
}

// PickUp starts dragging a record that is already placed. The record stays
// on its grid until the drop succeeds.
func (b *Board) PickUp(rec *Record) *Drag {
	return &Drag{board: b, block: rec.Block, record: rec, shape: rec.Shape}
}

func (d *Drag) Block() model.BlockDef    { return d.block }
func (d *Drag) Record() *Record          { return d.record }
func (d *Drag) Shape() model.Shape       { return d.shape }
func (d *Drag) Rotation() model.Rotation { return d.rotation }
func (d *Drag) Done() bool               { return d.done }
func (d *Drag) IsPickUp() bool           { return d.record != nil }

// Rotate turns the held shape a quarter turn around the pointer cell.
func (d *Drag) Rotate(clockwise bool) {
	if d.done {
		return
	}
	d.shape = d.shape.Rotate(clockwise)
	d.rotation = d.rotation.Turn(clockwise)
}

// Preview reports the target cells and validity of dropping at origin.
// A picked-up record's own cells count as free.
func (d *Drag) Preview(id GridID, origin model.Cell) Preview {
	pv := Preview{Grid: id, Origin: origin}
	if d.done {
		pv.Reason = ReasonNoDrag
		return pv
	}

	d.board.mu.Lock()
	defer d.board.mu.Unlock()
	p, ok := d.board.planes[id]
	if !ok {
		pv.Reason = ReasonUnknownGrid
		return pv
	}
	for i := 0; i < d.shape.Len(); i++ {
		c := origin.Add(d.shape.At(i))
		if p.InBounds(c.X, c.Y) {
			pv.Cells = append(pv.Cells, c)
		}
	}

	if d.record != nil && p.Holds(d.record) {
		p = p.without(d.record)
	}
	pv.Reason = p.Check(origin, d.shape)
	pv.Valid = pv.Reason == ReasonNone
	return pv
}

// Drop commits the drag at origin. A fresh block is placed as a new record;
// a picked-up record is moved, and stays where it was if the move is rejected.
// The drag ends only on success.
func (d *Drag) Drop(id GridID, origin model.Cell) (*Record, Reason) {
	if d.done {
		return nil, ReasonNoDrag
	}
	if d.record == nil {
		rec, reason := d.board.Place(id, origin, d.shape, d.block)
		if reason == ReasonNone {
			d.done = true
		}
		return rec, reason
	}
	reason := d.board.Move(d.record, id, origin, d.shape)
	if reason == ReasonNone {
		d.done = true
		return d.record, ReasonNone
	}
	return nil, reason
}

// Cancel abandons the drag. A picked-up record keeps its position; a fresh
// block is handed back to the caller so it can return to the spawn panel.
func (d *Drag) Cancel() model.BlockDef {
	d.done = true
	return d.block
}
