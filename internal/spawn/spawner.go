// Package spawn implements the block spawn panel: a shuffled queue of catalog
// blocks handed out through a fixed number of slots.
package spawn

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/piwi3910/BlockMerchant/internal/model"
)

var (
	ErrSlotRange  = errors.New("slot index out of range")
	ErrSlotEmpty  = errors.New("slot is empty")
	ErrNoFreeSlot = errors.New("no free slot")
)

// Slot is one position on the spawn panel.
type Slot struct {
	Block  model.BlockDef
	Filled bool
}

// Spawner hands out catalog blocks in shuffled order.
type Spawner struct {
	catalog     model.Catalog
	rng         *rand.Rand
	queue       []model.BlockDef
	slots       []Slot
	onExhausted func()
	logger      *log.Logger
}

// New creates a spawner with the given number of slots. A slot count of zero
// gives one slot per catalog block. The queue is shuffled and the slots are
// filled before New returns.
func New(catalog model.Catalog, slots int, rng *rand.Rand, logger *log.Logger) (*Spawner, error) {
	if slots < 0 {
		return nil, fmt.Errorf("failed to create spawner: negative slot count %d", slots)
	}
	if slots == 0 {
		slots = len(catalog.Blocks)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Spawner{
		catalog: catalog,
		rng:     rng,
		slots:   make([]Slot, slots),
		logger:  logger,
	}
	s.Reset()
	return s, nil
}

// OnExhausted registers a callback run when the last block is taken.
func (s *Spawner) OnExhausted(fn func()) { s.onExhausted = fn }

// Reset reshuffles the catalog into the queue, empties every slot and refills.
func (s *Spawner) Reset() {
	s.queue = s.catalog.Shuffled(s.rng)
	clear(s.slots)
	s.logger.Debug("spawn queue initialized", "catalog", s.catalog.Name, "blocks", len(s.queue))
	s.Fill()
}

// Fill moves queued blocks into empty slots, lowest index first, and returns
// how many were filled.
func (s *Spawner) Fill() int {
	n := 0
	for i := range s.slots {
		if s.slots[i].Filled {
			continue
		}
		if len(s.queue) == 0 {
			break
		}
		s.slots[i] = Slot{Block: s.queue[0], Filled: true}
		s.queue = s.queue[1:]
		n++
	}
	return n
}

// Slots returns a copy of the panel.
func (s *Spawner) Slots() []Slot {
	out := make([]Slot, len(s.slots))
	copy(out, s.slots)
	return out
}

// Slot returns the block in slot i, if any.
func (s *Spawner) Slot(i int) (model.BlockDef, bool) {
	if i < 0 || i >= len(s.slots) || !s.slots[i].Filled {
		return model.BlockDef{}, false
	}
	return s.slots[i].Block, true
}

// Take removes and returns the block in slot i. The slot stays empty until
// the next Fill.
func (s *Spawner) Take(i int) (model.BlockDef, error) {
	if i < 0 || i >= len(s.slots) {
		return model.BlockDef{}, fmt.Errorf("failed to take slot %d: %w", i, ErrSlotRange)
	}
	if !s.slots[i].Filled {
		return model.BlockDef{}, fmt.Errorf("failed to take slot %d: %w", i, ErrSlotEmpty)
	}
	def := s.slots[i].Block
	s.slots[i] = Slot{}
	s.logger.Debug("took block", "slot", i, "block", def.Name)
	if s.Exhausted() {
		s.logger.Info("spawn panel exhausted", "catalog", s.catalog.Name)
		if s.onExhausted != nil {
			s.onExhausted()
		}
	}
	return def, nil
}

// Return puts a block back on the panel in the first empty slot.
func (s *Spawner) Return(def model.BlockDef) (int, error) {
	for i := range s.slots {
		if !s.slots[i].Filled {
			s.slots[i] = Slot{Block: def, Filled: true}
			s.logger.Debug("returned block", "slot", i, "block", def.Name)
			return i, nil
		}
	}
	return -1, fmt.Errorf("failed to return block %q: %w", def.Name, ErrNoFreeSlot)
}

// Requeue puts def at the front of the queue so the next Fill hands it out
// before anything else.
func (s *Spawner) Requeue(def model.BlockDef) {
	s.queue = append([]model.BlockDef{def}, s.queue...)
	s.logger.Debug("requeued block", "block", def.Name, "queued", len(s.queue))
}

// Remaining returns the number of blocks still queued behind the panel.
func (s *Spawner) Remaining() int { return len(s.queue) }

// Exhausted reports whether the queue and every slot are empty.
func (s *Spawner) Exhausted() bool {
	if len(s.queue) > 0 {
		return false
	}
	for _, sl := range s.slots {
		if sl.Filled {
			return false
		}
	}
	return true
}
