package engine

import (
	"errors"
	"fmt"
	"sort"

	"github.com/piwi3910/BlockMerchant/internal/model"
)

var (
	ErrNoSolution  = errors.New("blocks do not fit on grid")
	ErrSearchLimit = errors.New("search step limit reached")
)

// FindSlot scans the plane row-major, bottom row first, and returns the first
// origin where one of the shape's normalized orientations fits.
func FindSlot(p *Plane, shape model.Shape) (model.Cell, model.Shape, bool) {
	if shape.IsEmpty() {
		return model.NoCell, model.Shape{}, false
	}
	for _, o := range shape.Orientations() {
		if origin, ok := firstFit(p, o); ok {
			return origin, o, true
		}
	}
	return model.NoCell, model.Shape{}, false
}

// fitsBounds reports whether some orientation of shape is no wider and no
// taller than the plane, ignoring blocked and occupied cells.
func fitsBounds(p *Plane, shape model.Shape) bool {
	for _, o := range shape.Orientations() {
		if w, h := o.Bounds(); w <= p.width && h <= p.height {
			return true
		}
	}
	return false
}

// firstFit expects a normalized shape.
func firstFit(p *Plane, shape model.Shape) (model.Cell, bool) {
	w, h := shape.Bounds()
	for y := 0; y <= p.height-h; y++ {
		for x := 0; x <= p.width-w; x++ {
			origin := model.Cell{X: x, Y: y}
			if p.CanPlace(origin, shape) {
				return origin, true
			}
		}
	}
	return model.NoCell, false
}

// Assignment is one block's position in a solved layout.
type Assignment struct {
	Block  model.BlockDef
	Origin model.Cell
	Shape  model.Shape
}

// Solve searches for positions and orientations that fit every block on the
// plane's free cells. Larger blocks are tried first. The plane itself is not
// modified. maxSteps bounds the number of trial placements; zero or less
// means unbounded. Assignments are returned in the order of blocks.
func Solve(p *Plane, blocks []model.BlockDef, maxSteps int) ([]Assignment, error) {
	need := 0
	for _, b := range blocks {
		if b.Shape.IsEmpty() {
			return nil, fmt.Errorf("failed to solve: block %q has an empty shape", b.Name)
		}
		need += b.Shape.Len()
	}
	if need > p.FreeCount() {
		return nil, fmt.Errorf("failed to solve: %d cells needed, %d free: %w", need, p.FreeCount(), ErrNoSolution)
	}

	s := &solver{
		plane:    p.clone(),
		maxSteps: maxSteps,
		result:   make([]Assignment, len(blocks)),
	}
	s.order = make([]int, len(blocks))
	for i := range blocks {
		s.order[i] = i
	}
	sort.SliceStable(s.order, func(i, j int) bool {
		return blocks[s.order[i]].Shape.Len() > blocks[s.order[j]].Shape.Len()
	})
	s.items = make([]solveItem, len(blocks))
	for i, idx := range s.order {
		b := blocks[idx]
		s.items[i] = solveItem{block: b, key: b.Shape.Key(), orientations: b.Shape.Orientations()}
	}

	ok, err := s.search(0, 0, need)
	if err != nil {
		return nil, fmt.Errorf("failed to solve after %d steps: %w", s.steps, err)
	}
	if !ok {
		return nil, fmt.Errorf("failed to solve: %w", ErrNoSolution)
	}
	return s.result, nil
}

type solveItem struct {
	block        model.BlockDef
	key          string
	orientations []model.Shape
}

type solver struct {
	plane    *Plane
	items    []solveItem
	order    []int
	result   []Assignment
	steps    int
	maxSteps int
}

// search places items[i:]. start is the first candidate index allowed for
// items[i]; identical consecutive blocks only try positions after their
// predecessor so equivalent layouts are not revisited.
func (s *solver) search(i, start, need int) (bool, error) {
	if i == len(s.items) {
		return true, nil
	}
	if need > s.plane.FreeCount() {
		return false, nil
	}
	item := s.items[i]
	area := s.plane.width * s.plane.height
	total := len(item.orientations) * area
	for cand := start; cand < total; cand++ {
		shape := item.orientations[cand/area]
		pos := cand % area
		origin := model.Cell{X: pos % s.plane.width, Y: pos / s.plane.width}
		if !s.plane.CanPlace(origin, shape) {
			continue
		}
		s.steps++
		if s.maxSteps > 0 && s.steps > s.maxSteps {
			return false, ErrSearchLimit
		}

		rec := NewRecord(item.block, shape)
		s.plane.place(origin, shape, rec)

		next := 0
		if i+1 < len(s.items) && s.items[i+1].key == item.key {
			next = cand + 1
		}
		ok, err := s.search(i+1, next, need-shape.Len())
		if err != nil {
			return false, err
		}
		if ok {
			s.result[s.order[i]] = Assignment{Block: item.block, Origin: origin, Shape: shape}
			return true, nil
		}
		s.plane.Remove(rec)
	}
	return false, nil
}
