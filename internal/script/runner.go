// Package script drives a board from a line-oriented command script. Each
// line is one command; blank lines and lines starting with '#' are skipped.
package script

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/piwi3910/BlockMerchant/internal/engine"
	"github.com/piwi3910/BlockMerchant/internal/export"
	"github.com/piwi3910/BlockMerchant/internal/importer"
	"github.com/piwi3910/BlockMerchant/internal/model"
	"github.com/piwi3910/BlockMerchant/internal/order"
	"github.com/piwi3910/BlockMerchant/internal/spawn"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("wrong arguments")
	ErrNoDrag         = errors.New("nothing is being dragged")
	ErrDragActive     = errors.New("a block is already being dragged")
	ErrNoSpawner      = errors.New("spawn panel not started")
	ErrNoRecord       = errors.New("no block at cell")
	ErrUnknownBlock   = errors.New("unknown block")
	ErrUnknownGuest   = errors.New("unknown guest")
	ErrNothingToUndo  = errors.New("nothing to undo")
	ErrNothingToRedo  = errors.New("nothing to redo")
)

// mutating lists the commands whose board changes are recorded for undo.
var mutating = map[string]bool{
	"drop": true, "place": true, "remove": true, "clear": true, "stow": true, "serve": true,
}

// Options configures a Runner.
type Options struct {
	Slots  int    // spawn panel size, 0 = one per catalog block
	Seed   uint64 // spawn shuffle seed, 0 = random
	Out    io.Writer
	Logger *log.Logger
}

// Runner executes script commands against a board and a stage.
type Runner struct {
	board   *engine.Board
	stage   model.Stage
	spawner *spawn.Spawner
	drag    *engine.Drag
	history *History
	rng     *rand.Rand
	slots   int
	out     io.Writer
	logger  *log.Logger
}

// New creates a runner. The stage supplies the catalog, patterns and guests;
// blocks added with the "block" command extend its catalog.
func New(b *engine.Board, stage model.Stage, opts Options) *Runner {
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = b.Logger()
	}
	return &Runner{
		board:   b,
		stage:   stage,
		history: NewHistory(),
		rng:     rand.New(rand.NewPCG(seed, seed>>1|1)),
		slots:   opts.Slots,
		out:     out,
		logger:  logger,
	}
}

// Board returns the board the runner drives.
func (r *Runner) Board() *engine.Board { return r.board }

// Stage returns the stage, including blocks added by the script.
func (r *Runner) Stage() model.Stage { return r.stage }

// Drag returns the in-flight drag, or nil.
func (r *Runner) Drag() *engine.Drag { return r.drag }

// Run executes every line of src, stopping at the first failing command.
func (r *Runner) Run(src io.Reader) error {
	scanner := bufio.NewScanner(src)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if err := r.Exec(scanner.Text()); err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}
	return nil
}

// Exec runs a single command line.
func (r *Runner) Exec(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	parts := strings.Fields(line)
	cmd, args := parts[0], parts[1:]
	r.logger.Debug("exec", "cmd", cmd, "args", args)

	if !mutating[cmd] {
		return r.dispatch(cmd, args)
	}
	before := MakeSnapshot(r.board, line)
	if err := r.dispatch(cmd, args); err != nil {
		return err
	}
	if !before.samePlacements(MakeSnapshot(r.board, "")) {
		r.history.Push(before)
	}
	return nil
}

func (r *Runner) dispatch(cmd string, args []string) error {
	switch cmd {
	case "grid":
		return r.grid(args)
	case "pattern":
		return r.pattern(args)
	case "block":
		return r.block(args)
	case "spawn":
		return r.spawn(args)
	case "slots":
		return r.printSlots()
	case "take":
		return r.take(args)
	case "pick":
		return r.pick(args)
	case "rotate":
		return r.rotate(args)
	case "preview":
		return r.preview(args)
	case "drop":
		return r.drop(args)
	case "cancel":
		return r.cancel()
	case "place":
		return r.place(args)
	case "remove":
		return r.remove(args)
	case "clear":
		return r.clear(args)
	case "stow":
		return r.stow(args)
	case "show":
		return r.show(args)
	case "serve":
		return r.serve(args)
	case "undo":
		return r.undo()
	case "redo":
		return r.redo()
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
}

// grid <id> <kind> <width> <height>
func (r *Runner) grid(args []string) error {
	if len(args) != 4 {
		return usage("grid <id> <kind> <width> <height>")
	}
	kind, err := engine.ParseKind(args[1])
	if err != nil {
		return err
	}
	w, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid width %q: %w", args[2], err)
	}
	h, err := strconv.Atoi(args[3])
	if err != nil {
		return fmt.Errorf("invalid height %q: %w", args[3], err)
	}
	p, err := r.board.AddGrid(engine.GridID(args[0]), kind, w, h)
	if err != nil {
		return err
	}
	r.printf("grid %s (%s %dx%d)\n", p.ID(), p.Kind(), p.Width(), p.Height())
	return nil
}

// pattern <grid> <name> or pattern <grid> <row> <row>...
// Rows are listed top row first.
func (r *Runner) pattern(args []string) error {
	if len(args) < 2 {
		return usage("pattern <grid> <name | rows...>")
	}
	pat, ok := r.stage.Pattern(args[1])
	if !ok {
		var err error
		pat, err = importer.ParsePattern(args[0], strings.Join(args[1:], "\n"))
		if err != nil {
			return err
		}
	}
	if err := r.board.ApplyPattern(engine.GridID(args[0]), pat); err != nil {
		return err
	}
	r.printf("pattern %s applied to %s (%d usable)\n", pat.Name, args[0], pat.UsableCount())
	return nil
}

// block <name> [color=#rrggbb] [request=<type>] <x,y> <x,y>...
func (r *Runner) block(args []string) error {
	if len(args) < 2 {
		return usage("block <name> [color=..] [request=..] <x,y>...")
	}
	name := args[0]
	if _, ok := r.stage.Catalog.Lookup(name); ok {
		return fmt.Errorf("block %q already defined", name)
	}
	color := model.White
	var request model.RequestType
	var offsets []string
	for _, a := range args[1:] {
		switch {
		case strings.HasPrefix(a, "color="):
			c, err := model.ParseColor(strings.TrimPrefix(a, "color="))
			if err != nil {
				return err
			}
			color = c
		case strings.HasPrefix(a, "request="):
			request = model.RequestType(strings.TrimPrefix(a, "request="))
		default:
			offsets = append(offsets, a)
		}
	}
	shape, err := model.ParseShape(strings.Join(offsets, " "))
	if err != nil {
		return err
	}
	if shape.IsEmpty() {
		return fmt.Errorf("block %q: empty shape", name)
	}
	def := model.NewBlockDef(name, color, shape)
	def.Request = request
	r.stage.Catalog.Blocks = append(r.stage.Catalog.Blocks, def)
	r.printf("block %s [%s]\n", def.Name, def.Shape)
	return nil
}

// spawn [slots]
func (r *Runner) spawn(args []string) error {
	slots := r.slots
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid slot count %q: %w", args[0], err)
		}
		slots = n
	}
	s, err := spawn.New(r.stage.Catalog, slots, r.rng, r.logger)
	if err != nil {
		return err
	}
	s.OnExhausted(func() {
		r.printf("spawn panel exhausted, reshuffling\n")
		s.Reset()
	})
	r.spawner = s
	return r.printSlots()
}

func (r *Runner) printSlots() error {
	if r.spawner == nil {
		return ErrNoSpawner
	}
	for i, sl := range r.spawner.Slots() {
		if sl.Filled {
			r.printf("slot %d: %s\n", i, sl.Block.Name)
		} else {
			r.printf("slot %d: -\n", i)
		}
	}
	r.printf("queued: %d\n", r.spawner.Remaining())
	return nil
}

// take <slot>
func (r *Runner) take(args []string) error {
	if len(args) != 1 {
		return usage("take <slot>")
	}
	if r.spawner == nil {
		return ErrNoSpawner
	}
	if r.drag != nil {
		return ErrDragActive
	}
	i, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid slot %q: %w", args[0], err)
	}
	def, err := r.spawner.Take(i)
	if err != nil {
		return err
	}
	r.drag = r.board.BeginDrag(def)
	r.printf("holding %s\n", def.Name)
	return nil
}

// pick <grid> <x> <y>
func (r *Runner) pick(args []string) error {
	if len(args) != 3 {
		return usage("pick <grid> <x> <y>")
	}
	if r.drag != nil {
		return ErrDragActive
	}
	rec, err := r.recordAt(args)
	if err != nil {
		return err
	}
	r.drag = r.board.PickUp(rec)
	r.printf("holding %s from %s\n", rec.Block.Name, rec.Grid)
	return nil
}

// rotate [cw|ccw]
func (r *Runner) rotate(args []string) error {
	if r.drag == nil {
		return ErrNoDrag
	}
	clockwise := true
	if len(args) > 0 {
		switch args[0] {
		case "cw":
		case "ccw":
			clockwise = false
		default:
			return usage("rotate [cw|ccw]")
		}
	}
	r.drag.Rotate(clockwise)
	r.printf("rotation %d [%s]\n", r.drag.Rotation(), r.drag.Shape())
	return nil
}

// preview <grid> <x> <y>
func (r *Runner) preview(args []string) error {
	if r.drag == nil {
		return ErrNoDrag
	}
	id, origin, err := gridCell(args, "preview <grid> <x> <y>")
	if err != nil {
		return err
	}
	pv := r.drag.Preview(id, origin)
	cells := make([]string, len(pv.Cells))
	for i, c := range pv.Cells {
		cells[i] = c.String()
	}
	status := "ok"
	if !pv.Valid {
		status = pv.Reason.String()
	}
	r.printf("preview %s %s: %s %s\n", id, origin, status, strings.Join(cells, " "))
	return nil
}

// drop <grid> <x> <y>
func (r *Runner) drop(args []string) error {
	if r.drag == nil {
		return ErrNoDrag
	}
	id, origin, err := gridCell(args, "drop <grid> <x> <y>")
	if err != nil {
		return err
	}
	rec, reason := r.drag.Drop(id, origin)
	if reason != engine.ReasonNone {
		r.printf("rejected %s on %s at %s: %s\n", r.drag.Block().Name, id, origin, reason)
		return nil
	}
	r.drag = nil
	r.printf("placed %s on %s at %s\n", rec.Block.Name, id, origin)
	return nil
}

// cancel abandons the drag. A fresh block goes back to the spawn panel.
func (r *Runner) cancel() error {
	if r.drag == nil {
		return ErrNoDrag
	}
	def := r.drag.Block()
	if r.drag.IsPickUp() || r.spawner == nil {
		r.endDrag()
		r.printf("cancelled %s\n", def.Name)
		return nil
	}
	slot, err := r.spawner.Return(def)
	switch {
	case errors.Is(err, spawn.ErrNoFreeSlot):
		// The panel refilled while the block was held.
		r.spawner.Requeue(def)
		r.printf("cancelled %s, back in queue\n", def.Name)
	case err != nil:
		return err
	default:
		r.printf("cancelled %s, back in slot %d\n", def.Name, slot)
	}
	r.endDrag()
	return nil
}

func (r *Runner) endDrag() {
	r.drag.Cancel()
	r.drag = nil
}

// place <grid> <x> <y> <block> places a catalog block in its base shape.
func (r *Runner) place(args []string) error {
	if len(args) != 4 {
		return usage("place <grid> <x> <y> <block>")
	}
	id, origin, err := gridCell(args[:3], "place <grid> <x> <y> <block>")
	if err != nil {
		return err
	}
	def, err := r.lookup(args[3])
	if err != nil {
		return err
	}
	if _, reason := r.board.Place(id, origin, def.Shape, def); reason != engine.ReasonNone {
		r.printf("rejected %s on %s at %s: %s\n", def.Name, id, origin, reason)
		return nil
	}
	r.printf("placed %s on %s at %s\n", def.Name, id, origin)
	return nil
}

// remove <grid> <x> <y>
func (r *Runner) remove(args []string) error {
	if len(args) != 3 {
		return usage("remove <grid> <x> <y>")
	}
	if r.drag != nil {
		return ErrDragActive
	}
	rec, err := r.recordAt(args)
	if err != nil {
		return err
	}
	grid := rec.Grid
	r.board.Remove(rec)
	r.printf("removed %s from %s\n", rec.Block.Name, grid)
	return nil
}

// clear <grid>
func (r *Runner) clear(args []string) error {
	if len(args) != 1 {
		return usage("clear <grid>")
	}
	if r.drag != nil {
		return ErrDragActive
	}
	if err := r.board.Clear(engine.GridID(args[0])); err != nil {
		return err
	}
	r.printf("cleared %s\n", args[0])
	return nil
}

// stow <grid> <block>
func (r *Runner) stow(args []string) error {
	if len(args) != 2 {
		return usage("stow <grid> <block>")
	}
	def, err := r.lookup(args[1])
	if err != nil {
		return err
	}
	rec, reason := r.board.Stow(engine.GridID(args[0]), def)
	if reason != engine.ReasonNone {
		r.printf("no room for %s on %s: %s\n", def.Name, args[0], reason)
		return nil
	}
	r.printf("stowed %s on %s at %s\n", def.Name, args[0], rec.Origin)
	return nil
}

// show [grid]
func (r *Runner) show(args []string) error {
	if len(args) == 0 {
		for _, p := range r.board.Grids() {
			r.printf("%s", export.RenderText(p))
		}
		return nil
	}
	p, ok := r.board.Grid(engine.GridID(args[0]))
	if !ok {
		return fmt.Errorf("grid %q: %w", args[0], engine.ErrUnknownGrid)
	}
	r.printf("%s", export.RenderText(p))
	return nil
}

// serve <grid> <guest> [remaining seconds]
func (r *Runner) serve(args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return usage("serve <grid> <guest> [remaining]")
	}
	g, ok := r.stage.Guest(args[1])
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGuest, args[1])
	}
	remaining := g.Patience
	if len(args) == 3 {
		v, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid remaining time %q: %w", args[2], err)
		}
		remaining = v
	}
	required, err := r.stage.OrderBlocks(g)
	if err != nil {
		return err
	}
	receipt, err := order.Serve(r.board, engine.GridID(args[0]), g, required, remaining)
	if err != nil {
		return err
	}
	if receipt.Served {
		r.printf("served %s: %d gold, %d points\n", g.ID, receipt.Gold, receipt.Points)
		return nil
	}
	r.printf("%s still waiting for: %s\n", g.ID, strings.Join(receipt.Outstanding, ", "))
	if len(receipt.Unwanted) > 0 {
		r.printf("%s did not order: %s\n", g.ID, strings.Join(receipt.Unwanted, ", "))
	}
	return nil
}

// undo restores the placements from before the last board-changing command.
func (r *Runner) undo() error {
	if r.drag != nil {
		return ErrDragActive
	}
	s, ok := r.history.PeekUndo()
	if !ok {
		return ErrNothingToUndo
	}
	current := MakeSnapshot(r.board, "")
	if err := s.Restore(r.board); err != nil {
		return fmt.Errorf("failed to undo %s: %w", s.Label, err)
	}
	r.history.Undo(current)
	r.printf("undid %s\n", s.Label)
	return nil
}

func (r *Runner) redo() error {
	if r.drag != nil {
		return ErrDragActive
	}
	s, ok := r.history.PeekRedo()
	if !ok {
		return ErrNothingToRedo
	}
	current := MakeSnapshot(r.board, "")
	if err := s.Restore(r.board); err != nil {
		return fmt.Errorf("failed to redo %s: %w", s.Label, err)
	}
	r.history.Redo(current)
	r.printf("redid %s\n", s.Label)
	return nil
}

func (r *Runner) lookup(name string) (model.BlockDef, error) {
	def, ok := r.stage.Catalog.Lookup(name)
	if !ok {
		return model.BlockDef{}, fmt.Errorf("%w: %s", ErrUnknownBlock, name)
	}
	return def, nil
}

func (r *Runner) recordAt(args []string) (*engine.Record, error) {
	id, c, err := gridCell(args, "<grid> <x> <y>")
	if err != nil {
		return nil, err
	}
	p, ok := r.board.Grid(id)
	if !ok {
		return nil, fmt.Errorf("grid %q: %w", id, engine.ErrUnknownGrid)
	}
	rec, ok := p.RecordAt(c.X, c.Y)
	if !ok {
		return nil, fmt.Errorf("%w %s on %s", ErrNoRecord, c, id)
	}
	return rec, nil
}

func (r *Runner) printf(format string, a ...any) {
	fmt.Fprintf(r.out, format, a...)
}

func gridCell(args []string, form string) (engine.GridID, model.Cell, error) {
	if len(args) != 3 {
		return "", model.Cell{}, usage(form)
	}
	x, err := strconv.Atoi(args[1])
	if err != nil {
		return "", model.Cell{}, fmt.Errorf("invalid x %q: %w", args[1], err)
	}
	y, err := strconv.Atoi(args[2])
	if err != nil {
		return "", model.Cell{}, fmt.Errorf("invalid y %q: %w", args[2], err)
	}
	return engine.GridID(args[0]), model.Cell{X: x, Y: y}, nil
}

func usage(form string) error {
	return fmt.Errorf("%w, usage: %s", ErrUsage, form)
}
