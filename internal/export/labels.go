package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/BlockMerchant/internal/engine"
	"github.com/piwi3910/BlockMerchant/internal/model"
	qrcode "github.com/skip2/go-qrcode"
)

// ErrNoBlocks is returned when no grid holds a placed block.
var ErrNoBlocks = errors.New("no blocks placed to generate labels for")

// LabelInfo is the payload of a block label's QR code.
type LabelInfo struct {
	Record  string `json:"record"`
	Block   string `json:"block"`
	Request string `json:"request,omitempty"`
	Color   string `json:"color"`
	Grid    string `json:"grid"`
	Kind    string `json:"kind"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Shape   string `json:"shape"`
	Cells   int    `json:"cells"`
}

// Avery 5160 sheet: 3 x 10 labels of 66.7 x 25.4 mm on US Letter.
const (
	sheetTop      = 12.7
	sheetLeft     = 4.8
	labelW        = 66.7
	labelH        = 25.4
	labelCols     = 3
	labelsPerPage = labelCols * 10
	qrSize        = 20.0
	pad           = 2.0
	swatchW       = 3.0
)

// ExportLabels writes a sheet of QR-coded labels, one per placed block, in
// the order given by CollectLabelInfos. Each label shows the block name,
// its grid position, a small drawing of its shape and a QR code holding
// the LabelInfo as JSON.
func ExportLabels(path string, planes []*engine.Plane) error {
	if len(planes) == 0 {
		return ErrNoGrids
	}
	labels := CollectLabelInfos(planes)
	if len(labels) == 0 {
		return ErrNoBlocks
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	for i, info := range labels {
		slot := i % labelsPerPage
		if slot == 0 {
			pdf.AddPage()
		}
		x := sheetLeft + float64(slot%labelCols)*labelW
		y := sheetTop + float64(slot/labelCols)*labelH
		if err := drawLabel(pdf, x, y, info); err != nil {
			return fmt.Errorf("failed to render label for %q: %w", info.Block, err)
		}
	}
	return pdf.OutputFileAndClose(path)
}

func drawLabel(pdf *fpdf.Fpdf, x, y float64, info LabelInfo) error {
	payload, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal label info: %w", err)
	}
	png, err := qrcode.Encode(string(payload), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelW, labelH, "D")

	// Color strip along the left edge.
	if c, err := model.ParseColor(info.Color); err == nil {
		pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
		pdf.Rect(x, y, swatchW, labelH, "F")
	}

	// Record labels are unique, so they double as image names.
	img := "qr_" + info.Record
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(img, opts, bytes.NewReader(png))
	pdf.ImageOptions(img, x+labelW-qrSize-pad, y+(labelH-qrSize)/2, qrSize, qrSize, false, opts, 0, "")

	tx := x + swatchW + pad
	tw := labelW - swatchW - qrSize - 3*pad

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetXY(tx, y+pad)
	pdf.CellFormat(tw, 4.5, fitText(pdf, info.Block, tw), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(tx, y+pad+5)
	detail := fmt.Sprintf("%d cells", info.Cells)
	if info.Request != "" {
		detail += ", " + info.Request
	}
	pdf.CellFormat(tw, 3.5, fitText(pdf, detail, tw), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(tx, y+pad+9)
	where := fmt.Sprintf("%s %s @ (%d,%d)", info.Kind, info.Grid, info.X, info.Y)
	pdf.CellFormat(tw, 3, fitText(pdf, where, tw), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	if shape, err := model.ParseShape(info.Shape); err == nil {
		drawShape(pdf, shape, tx, y+pad+13, tw, labelH-2*pad-13)
	}
	return nil
}

// drawShape sketches shape inside the w x h box at (x, y), top row first.
func drawShape(pdf *fpdf.Fpdf, shape model.Shape, x, y, w, h float64) {
	norm := shape.Normalize()
	cols, rows := norm.Bounds()
	size := min(w/float64(cols), h/float64(rows), 2.5)
	pdf.SetFillColor(60, 60, 60)
	for _, c := range norm.Cells() {
		pdf.Rect(x+float64(c.X)*size, y+float64(rows-1-c.Y)*size, size*0.9, size*0.9, "F")
	}
}

// fitText shortens s with an ellipsis until it fits in width w at the
// current font.
func fitText(pdf *fpdf.Fpdf, s string, w float64) string {
	if pdf.GetStringWidth(s) <= w {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > w {
		s = s[:len(s)-1]
	}
	return s + "..."
}

// CollectLabelInfos extracts one label per placed record, grid by grid in
// the order given and row-major within each grid.
func CollectLabelInfos(planes []*engine.Plane) []LabelInfo {
	var labels []LabelInfo
	for _, p := range planes {
		for _, rec := range p.Records() {
			labels = append(labels, LabelInfo{
				Record:  rec.Label,
				Block:   rec.Block.Name,
				Request: string(rec.Block.Request),
				Color:   rec.Color().Hex(),
				Grid:    string(p.ID()),
				Kind:    p.Kind().String(),
				X:       rec.Origin.X,
				Y:       rec.Origin.Y,
				Shape:   rec.Shape.String(),
				Cells:   rec.Shape.Len(),
			})
		}
	}
	return labels
}
