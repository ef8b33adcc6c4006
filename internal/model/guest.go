package model

import "fmt"

// Guest is an authored customer: how long they wait, what they pay, which
// layout their tray must fill and which blocks they ordered.
type Guest struct {
	ID       string      `json:"id" yaml:"id"`
	Patience float64     `json:"patience" yaml:"patience"` // seconds
	Payment  int         `json:"payment" yaml:"payment"`
	Pattern  string      `json:"pattern,omitempty" yaml:"pattern,omitempty"` // name of a stage pattern
	Order    []string    `json:"order" yaml:"order"`                         // block names, repeats allowed
	Prefers  RequestType `json:"prefers,omitempty" yaml:"prefers,omitempty"`
	Avoids   RequestType `json:"avoids,omitempty" yaml:"avoids,omitempty"`
}

// DefaultPatience and DefaultPayment match the authored defaults of a new guest.
const (
	DefaultPatience = 30.0
	DefaultPayment  = 100
)

// Stage bundles the assets of one playable stage.
type Stage struct {
	Name     string    `json:"name" yaml:"name"`
	Catalog  Catalog   `json:"catalog" yaml:"catalog"`
	Patterns []Pattern `json:"patterns" yaml:"patterns"`
	Guests   []Guest   `json:"guests" yaml:"guests"`
}

// Pattern returns the named pattern.
func (s Stage) Pattern(name string) (Pattern, bool) {
	for _, p := range s.Patterns {
		if p.Name == name {
			return p, true
		}
	}
	return Pattern{}, false
}

// Guest returns the guest with the given ID.
func (s Stage) Guest(id string) (Guest, bool) {
	for _, g := range s.Guests {
		if g.ID == id {
			return g, true
		}
	}
	return Guest{}, false
}

// OrderBlocks resolves a guest's order against the stage catalog.
func (s Stage) OrderBlocks(g Guest) ([]BlockDef, error) {
	blocks := make([]BlockDef, 0, len(g.Order))
	for _, name := range g.Order {
		b, ok := s.Catalog.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("guest %q orders unknown block %q", g.ID, name)
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}
