// Package order evaluates what a guest pays for the blocks placed on a
// serving grid.
package order

import (
	"fmt"
	"math"
	"sort"

	"github.com/piwi3910/BlockMerchant/internal/engine"
	"github.com/piwi3910/BlockMerchant/internal/model"
)

// Per-cell prices.
const (
	PricePreferred = 110
	PriceAvoided   = 50
	PriceNeutral   = 100
)

// CellPrice returns what one cell of a block with request type rt is worth
// to the guest. An uncategorized block never matches a preference.
func CellPrice(g model.Guest, rt model.RequestType) int {
	switch {
	case rt != model.RequestNone && rt == g.Prefers:
		return PricePreferred
	case rt != model.RequestNone && rt == g.Avoids:
		return PriceAvoided
	default:
		return PriceNeutral
	}
}

// Price sums the cell prices of every occupied cell on the plane.
func Price(p *engine.Plane, g model.Guest) int {
	total := 0
	for _, rec := range p.Records() {
		total += CellPrice(g, rec.Block.Request) * rec.Shape.Len()
	}
	return total
}

// PlacedBlocks returns the block definition of every record on the plane,
// one entry per record.
func PlacedBlocks(p *engine.Plane) []model.BlockDef {
	recs := p.Records()
	out := make([]model.BlockDef, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Block)
	}
	return out
}

// Matches reports whether placed and required hold the same block names with
// the same multiplicity.
func Matches(placed, required []model.BlockDef) bool {
	if len(placed) != len(required) {
		return false
	}
	counts := countNames(required)
	for _, b := range placed {
		counts[b.Name]--
		if counts[b.Name] < 0 {
			return false
		}
	}
	return true
}

// Outstanding lists the required block names not yet covered by placed,
// sorted, with repeats for missing duplicates.
func Outstanding(placed, required []model.BlockDef) []string {
	counts := countNames(required)
	for _, b := range placed {
		if counts[b.Name] > 0 {
			counts[b.Name]--
		}
	}
	var out []string
	for name, n := range counts {
		for i := 0; i < n; i++ {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Unwanted lists placed block names the order does not ask for, sorted.
func Unwanted(placed, required []model.BlockDef) []string {
	counts := countNames(required)
	var out []string
	for _, b := range placed {
		if counts[b.Name] > 0 {
			counts[b.Name]--
			continue
		}
		out = append(out, b.Name)
	}
	sort.Strings(out)
	return out
}

func countNames(blocks []model.BlockDef) map[string]int {
	counts := make(map[string]int, len(blocks))
	for _, b := range blocks {
		counts[b.Name]++
	}
	return counts
}

// Points converts the remaining patience into a score:
// floor(payment * remaining / patience). Remaining is clamped to [0, patience].
func Points(g model.Guest, remaining float64) int {
	if g.Patience <= 0 {
		return 0
	}
	remaining = math.Max(0, math.Min(remaining, g.Patience))
	return int(math.Floor(float64(g.Payment) * remaining / g.Patience))
}

// Receipt is the outcome of serving a guest.
type Receipt struct {
	Guest       string
	Served      bool
	Gold        int
	Points      int
	Outstanding []string
	Unwanted    []string
}

// Serve checks the serving grid against the guest's order. When the placed
// blocks match, the grid is cleared and the receipt carries the gold and
// points earned. Otherwise nothing changes and the receipt lists what is
// missing or extra.
func Serve(b *engine.Board, id engine.GridID, g model.Guest, required []model.BlockDef, remaining float64) (Receipt, error) {
	p, ok := b.Grid(id)
	if !ok {
		return Receipt{}, fmt.Errorf("failed to serve guest %q on grid %q: %w", g.ID, id, engine.ErrUnknownGrid)
	}
	placed := PlacedBlocks(p)
	r := Receipt{
		Guest:       g.ID,
		Outstanding: Outstanding(placed, required),
		Unwanted:    Unwanted(placed, required),
	}
	if !Matches(placed, required) {
		b.Logger().Debug("order incomplete", "guest", g.ID, "outstanding", r.Outstanding, "unwanted", r.Unwanted)
		return r, nil
	}

	r.Served = true
	r.Gold = Price(p, g)
	r.Points = Points(g, remaining)
	if err := b.Clear(id); err != nil {
		return Receipt{}, fmt.Errorf("failed to serve guest %q: %w", g.ID, err)
	}
	b.Logger().Info("guest served", "guest", g.ID, "gold", r.Gold, "points", r.Points)
	return r, nil
}
