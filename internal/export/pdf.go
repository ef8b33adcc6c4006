// Package export renders grids and their placed blocks to PDF sheets,
// QR-coded block labels and plain text.
package export

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/BlockMerchant/internal/engine"
	"github.com/piwi3910/BlockMerchant/internal/model"
)

// ErrNoGrids is returned when there is nothing to export.
var ErrNoGrids = errors.New("no grids to export")

type blockColor struct {
	R, G, B int
}

// blockColors is used for blocks that keep the default white color, so
// neighbouring records stay distinguishable on paper.
var blockColors = []blockColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// A4 landscape, mm.
const (
	pageWidth   = 297.0
	pageHeight  = 210.0
	margin      = 15.0
	titleHeight = 12.0
	legendSpace = 20.0
	gridTop     = margin + titleHeight + 8.0
	contentW    = pageWidth - 2*margin
)

// GridStats summarizes the cell usage of one plane.
type GridStats struct {
	Blocks   int
	Occupied int
	Blocked  int
	Free     int
	Total    int
}

// Fill returns occupied cells as a percentage of the usable cells.
func (s GridStats) Fill() float64 {
	usable := s.Total - s.Blocked
	if usable <= 0 {
		return 0
	}
	return float64(s.Occupied) / float64(usable) * 100
}

func (s *GridStats) add(o GridStats) {
	s.Blocks += o.Blocks
	s.Occupied += o.Occupied
	s.Blocked += o.Blocked
	s.Free += o.Free
	s.Total += o.Total
}

// Stats counts blocks and cell states on p.
func Stats(p *engine.Plane) GridStats {
	s := GridStats{Blocks: p.Len(), Total: p.Width() * p.Height(), Free: p.FreeCount()}
	for y := 0; y < p.Height(); y++ {
		for x := 0; x < p.Width(); x++ {
			switch {
			case p.IsOccupied(x, y):
				s.Occupied++
			case p.IsBlocked(x, y):
				s.Blocked++
			}
		}
	}
	return s
}

// ExportPDF writes one page per grid, with blocked cells hatched and every
// placed block filled in its color and outlined, then a summary page.
func ExportPDF(path string, planes []*engine.Plane) error {
	if len(planes) == 0 {
		return ErrNoGrids
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, margin)
	for i, p := range planes {
		pdf.AddPage()
		drawGridPage(pdf, p, i+1)
	}
	pdf.AddPage()
	drawSummaryPage(pdf, planes)

	return pdf.OutputFileAndClose(path)
}

// gridLayout maps grid cells to page coordinates. Row 0 is at the bottom
// of the grid, so it is drawn last.
type gridLayout struct {
	x, y, cell float64
	rows       int
}

func (l gridLayout) corner(c model.Cell) (float64, float64) {
	return l.x + float64(c.X)*l.cell, l.y + float64(l.rows-1-c.Y)*l.cell
}

func drawGridPage(pdf *fpdf.Fpdf, p *engine.Plane, n int) {
	s := Stats(p)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(margin, margin)
	pdf.CellFormat(contentW, titleHeight,
		fmt.Sprintf("Grid %d: %s (%s, %d x %d)", n, p.ID(), p.Kind(), p.Width(), p.Height()),
		"", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(margin, margin+titleHeight)
	pdf.CellFormat(contentW, 5,
		fmt.Sprintf("%d blocks, %d of %d usable cells filled (%.1f%%), %d blocked",
			s.Blocks, s.Occupied, s.Total-s.Blocked, s.Fill(), s.Blocked),
		"", 0, "L", false, 0, "")

	availH := pageHeight - gridTop - margin - legendSpace
	cell := math.Min(contentW/float64(p.Width()), availH/float64(p.Height()))
	l := gridLayout{
		x:    margin + (contentW-cell*float64(p.Width()))/2,
		y:    gridTop,
		cell: cell,
		rows: p.Height(),
	}

	records := p.Records()
	colors := make(map[engine.RecordID]blockColor, len(records))
	for i, rec := range records {
		colors[rec.ID] = fillColor(rec.Color(), i)
	}

	pdf.SetLineWidth(0.2)
	for y := 0; y < p.Height(); y++ {
		for x := 0; x < p.Width(); x++ {
			cx, cy := l.corner(model.Cell{X: x, Y: y})
			rec, occupied := p.RecordAt(x, y)
			switch {
			case occupied:
				c := colors[rec.ID]
				pdf.SetFillColor(c.R, c.G, c.B)
				pdf.SetDrawColor(c.R, c.G, c.B)
			case p.IsBlocked(x, y):
				pdf.SetFillColor(255, 200, 200)
				pdf.SetDrawColor(200, 0, 0)
			default:
				pdf.SetFillColor(245, 240, 230)
				pdf.SetDrawColor(180, 180, 180)
			}
			pdf.Rect(cx, cy, cell, cell, "FD")
			if !occupied && p.IsBlocked(x, y) {
				hatch(pdf, cx, cy, cell)
			}
		}
	}

	for _, rec := range records {
		outlineRecord(pdf, p, rec, l)
	}
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(l.x, l.y, cell*float64(p.Width()), cell*float64(p.Height()), "D")

	if cell > 8 {
		pdf.SetFont("Helvetica", "", labelFontSize(cell))
		pdf.SetTextColor(0, 0, 0)
		for _, rec := range records {
			name := rec.Block.Name
			if pdf.GetStringWidth(name) > cell-2 {
				continue
			}
			cx, cy := l.corner(rec.Cells()[0])
			pdf.SetXY(cx+1, cy+cell/2-2)
			pdf.CellFormat(cell-2, 4, name, "", 0, "C", false, 0, "")
		}
	}

	drawAxes(pdf, p, l)
	drawLegend(pdf, records, colors, l.y+cell*float64(p.Height())+6)
}

// outlineRecord draws a heavy line on every edge of rec that does not face
// another cell of the same record.
func outlineRecord(pdf *fpdf.Fpdf, p *engine.Plane, rec *engine.Record, l gridLayout) {
	pdf.SetDrawColor(30, 30, 30)
	pdf.SetLineWidth(0.6)
	same := func(x, y int) bool {
		other, ok := p.RecordAt(x, y)
		return ok && other.ID == rec.ID
	}
	for _, c := range rec.Cells() {
		x0, y0 := l.corner(c)
		x1, y1 := x0+l.cell, y0+l.cell
		if !same(c.X, c.Y+1) {
			pdf.Line(x0, y0, x1, y0)
		}
		if !same(c.X, c.Y-1) {
			pdf.Line(x0, y1, x1, y1)
		}
		if !same(c.X-1, c.Y) {
			pdf.Line(x0, y0, x0, y1)
		}
		if !same(c.X+1, c.Y) {
			pdf.Line(x1, y0, x1, y1)
		}
	}
}

// fillColor returns the block's own color, or a palette color when the block
// was left at the default white.
func fillColor(c model.Color, i int) blockColor {
	if c == model.White {
		return blockColors[i%len(blockColors)]
	}
	return blockColor{R: int(c.R), G: int(c.G), B: int(c.B)}
}

// hatch strikes a blocked cell with parallel diagonals.
func hatch(pdf *fpdf.Fpdf, x, y, size float64) {
	pdf.SetDrawColor(200, 0, 0)
	pdf.SetLineWidth(0.15)
	step := math.Max(size/4, 1)
	for d := step; d < 2*size; d += step {
		pdf.Line(x+math.Max(0, d-size), y+math.Min(size, d), x+math.Min(size, d), y+math.Max(0, d-size))
	}
	pdf.SetLineWidth(0.2)
}

// drawAxes numbers columns below the grid and rows to its left, using the
// grid's own coordinates.
func drawAxes(pdf *fpdf.Fpdf, p *engine.Plane, l gridLayout) {
	if l.cell < 4 {
		return
	}
	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(80, 80, 80)
	bottom := l.y + l.cell*float64(p.Height())
	for x := 0; x < p.Width(); x++ {
		pdf.SetXY(l.x+float64(x)*l.cell, bottom+0.5)
		pdf.CellFormat(l.cell, 3, strconv.Itoa(x), "", 0, "C", false, 0, "")
	}
	for y := 0; y < p.Height(); y++ {
		_, cy := l.corner(model.Cell{X: 0, Y: y})
		pdf.SetXY(l.x-8, cy+l.cell/2-1.5)
		pdf.CellFormat(7, 3, strconv.Itoa(y), "", 0, "R", false, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
}

// drawLegend lists every placed block with its color swatch, wrapping at the
// right margin.
func drawLegend(pdf *fpdf.Fpdf, records []*engine.Record, colors map[engine.RecordID]blockColor, y float64) {
	if len(records) == 0 {
		return
	}
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetXY(margin, y)
	pdf.CellFormat(30, 4, "Blocks placed:", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	x := margin + 32
	for _, rec := range records {
		text := fmt.Sprintf("%s @ %s", rec.Block.Name, rec.Origin)
		if rec.Block.Request != model.RequestNone {
			text += " " + string(rec.Block.Request)
		}
		w := pdf.GetStringWidth(text) + 6
		if x+w > pageWidth-margin {
			x, y = margin, y+5
		}
		c := colors[rec.ID]
		pdf.SetFillColor(c.R, c.G, c.B)
		pdf.Rect(x, y+0.5, 3, 3, "F")
		pdf.SetXY(x+4, y)
		pdf.CellFormat(w-4, 4, text, "", 0, "L", false, 0, "")
		x += w + 2
	}
}

func drawSummaryPage(pdf *fpdf.Fpdf, planes []*engine.Plane) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(margin, margin)
	pdf.CellFormat(contentW, 10, "Board Summary", "", 0, "L", false, 0, "")
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(margin, margin+12, pageWidth-margin, margin+12)

	var total GridStats
	rows := make([][]string, 0, len(planes)+1)
	for _, p := range planes {
		s := Stats(p)
		total.add(s)
		rows = append(rows, []string{
			string(p.ID()),
			p.Kind().String(),
			fmt.Sprintf("%d x %d", p.Width(), p.Height()),
			strconv.Itoa(s.Blocks),
			strconv.Itoa(s.Occupied),
			strconv.Itoa(s.Blocked),
			strconv.Itoa(s.Free),
			fmt.Sprintf("%.1f%%", s.Fill()),
		})
	}
	rows = append(rows, []string{
		"Total", "", "",
		strconv.Itoa(total.Blocks),
		strconv.Itoa(total.Occupied),
		strconv.Itoa(total.Blocked),
		strconv.Itoa(total.Free),
		fmt.Sprintf("%.1f%%", total.Fill()),
	})

	table(pdf, margin, margin+20,
		[]float64{50, 35, 30, 25, 25, 25, 25, 25},
		[]string{"Grid", "Kind", "Size", "Blocks", "Occupied", "Blocked", "Free", "Fill"},
		rows)

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(margin, pageHeight-margin)
	pdf.CellFormat(contentW, 4, "Generated by BlockMerchant", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// table draws a bordered table with a shaded header and striped rows. The
// last row is set in bold.
func table(pdf *fpdf.Fpdf, x, y float64, widths []float64, header []string, rows [][]string) {
	const rowH = 6
	line := func(cells []string) {
		cx := x
		for i, text := range cells {
			pdf.SetXY(cx, y)
			pdf.CellFormat(widths[i], rowH, text, "1", 0, "C", true, 0, "")
			cx += widths[i]
		}
		y += rowH
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	line(header)

	for i, row := range rows {
		style := ""
		if i == len(rows)-1 {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 9)
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		line(row)
	}
}

// labelFontSize picks a font size that fits inside a cell of the given size.
func labelFontSize(cell float64) float64 {
	switch {
	case cell > 40:
		return 8
	case cell > 20:
		return 7
	default:
		return 6
	}
}
