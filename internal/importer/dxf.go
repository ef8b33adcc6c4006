package importer

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/piwi3910/BlockMerchant/internal/model"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"
)

// joinTolerance is the largest gap, in drawing units, between two LINE
// endpoints that are treated as the same vertex.
const joinTolerance = 0.01

type point struct {
	X, Y float64
}

// polygon is a closed loop of vertices; the last one connects to the first.
type polygon []point

// extent returns the lower-left and upper-right corners of p's bounding box.
func (p polygon) extent() (lo, hi point) {
	lo, hi = p[0], p[0]
	for _, v := range p[1:] {
		lo.X, hi.X = math.Min(lo.X, v.X), math.Max(hi.X, v.X)
		lo.Y, hi.Y = math.Min(lo.Y, v.Y), math.Max(hi.Y, v.Y)
	}
	return lo, hi
}

// anchored moves p so its bounding box starts at (0, 0).
func (p polygon) anchored() polygon {
	lo, _ := p.extent()
	out := make(polygon, len(p))
	for i, v := range p {
		out[i] = point{X: v.X - lo.X, Y: v.Y - lo.Y}
	}
	return out
}

// contains reports whether q lies inside p using ray casting.
func (p polygon) contains(q point) bool {
	inside := false
	j := len(p) - 1
	for i := range p {
		a, b := p[i], p[j]
		if (a.Y > q.Y) != (b.Y > q.Y) && q.X < a.X+(b.X-a.X)*(q.Y-a.Y)/(b.Y-a.Y) {
			inside = !inside
		}
		j = i
	}
	return inside
}

// area is the absolute shoelace area of p.
func (p polygon) area() float64 {
	if len(p) < 3 {
		return 0
	}
	var sum float64
	for i, a := range p {
		b := p[(i+1)%len(p)]
		sum += a.X*b.Y - b.X*a.Y
	}
	return math.Abs(sum) / 2
}

type edge struct {
	a, b point
}

// ImportDXF reads block shapes from a DXF drawing. Every closed LWPOLYLINE
// and every closed loop of LINE entities becomes one block. A block's cells
// are the cellSize x cellSize squares whose centers fall inside the loop.
// A non-positive cellSize means one drawing unit per cell.
//
// Blocks are straight-edged, so bulges on polyline vertices are ignored and
// CIRCLE and ARC entities are skipped with a warning.
func ImportDXF(path string, cellSize float64) ImportResult {
	result := ImportResult{}
	if cellSize <= 0 {
		cellSize = 1
	}

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}

	var loops []polygon
	var edges []edge
	curves := 0
	for _, ent := range drawing.Entities() {
		switch e := ent.(type) {
		case *entity.LwPolyline:
			loop := make(polygon, 0, len(e.Vertices))
			for _, v := range e.Vertices {
				loop = append(loop, point{X: v[0], Y: v[1]})
			}
			if len(loop) < 3 {
				result.Warnings = append(result.Warnings, "Skipped LWPOLYLINE with fewer than 3 vertices")
				continue
			}
			for _, b := range e.Bulges {
				if b != 0 {
					result.Warnings = append(result.Warnings, "LWPOLYLINE bulges ignored, edges read as straight")
					break
				}
			}
			loops = append(loops, loop)
		case *entity.Line:
			edges = append(edges, edge{
				a: point{X: e.Start[0], Y: e.Start[1]},
				b: point{X: e.End[0], Y: e.End[1]},
			})
		case *entity.Circle, *entity.Arc:
			curves++
		}
	}
	if curves > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Skipped %d curved entities", curves))
	}

	joined, open := joinEdges(edges, joinTolerance)
	loops = append(loops, joined...)
	if open > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Skipped %d open LINE chains", open))
	}
	if len(loops) == 0 {
		result.Errors = append(result.Errors, "No closed shapes found in DXF file")
		return result
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for i, loop := range loops {
		shape := rasterize(loop.anchored(), cellSize)
		if shape.IsEmpty() {
			lo, hi := loop.extent()
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Shape %d is smaller than one cell (%.2f x %.2f)", i+1, hi.X-lo.X, hi.Y-lo.Y))
			continue
		}
		name := fmt.Sprintf("%s-%d", base, i+1)
		result.Blocks = append(result.Blocks, model.NewBlockDef(name, model.White, shape))
	}
	return result
}

// rasterize returns the cells of size cellSize whose centers lie inside p.
// p must be anchored at the origin.
func rasterize(p polygon, cellSize float64) model.Shape {
	_, hi := p.extent()
	cols := int(math.Ceil(hi.X/cellSize - 1e-9))
	rows := int(math.Ceil(hi.Y/cellSize - 1e-9))
	var cells []model.Cell
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			c := point{X: (float64(x) + 0.5) * cellSize, Y: (float64(y) + 0.5) * cellSize}
			if p.contains(c) {
				cells = append(cells, model.Cell{X: x, Y: y})
			}
		}
	}
	return model.NewShape(cells...).Normalize()
}

// joinEdges walks loose edges end to end and returns every chain that comes
// back to its starting vertex, largest first, plus the number of chains that
// stayed open.
func joinEdges(edges []edge, tol float64) ([]polygon, int) {
	used := make([]bool, len(edges))
	var loops []polygon
	open := 0
	for start := range edges {
		if used[start] {
			continue
		}
		used[start] = true
		chain := polygon{edges[start].a, edges[start].b}
		for {
			tail := chain[len(chain)-1]
			next := -1
			var v point
			for i, e := range edges {
				if used[i] {
					continue
				}
				if near(tail, e.a, tol) {
					next, v = i, e.b
					break
				}
				if near(tail, e.b, tol) {
					next, v = i, e.a
					break
				}
			}
			if next < 0 {
				break
			}
			used[next] = true
			chain = append(chain, v)
		}
		if len(chain) >= 4 && near(chain[0], chain[len(chain)-1], tol) {
			loops = append(loops, chain[:len(chain)-1])
		} else {
			open++
		}
	}
	sort.SliceStable(loops, func(i, j int) bool { return loops[i].area() > loops[j].area() })
	return loops, open
}

func near(a, b point, tol float64) bool {
	return math.Hypot(a.X-b.X, a.Y-b.Y) <= tol
}
