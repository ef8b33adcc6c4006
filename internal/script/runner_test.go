package script

import (
	"bytes"
	"strings"
	"testing"

	"github.com/piwi3910/BlockMerchant/internal/engine"
	"github.com/piwi3910/BlockMerchant/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(t *testing.T, stage model.Stage) (*Runner, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	r := New(engine.NewBoard(nil), stage, Options{Seed: 42, Out: &out})
	return r, &out
}

func breadStage(t *testing.T) model.Stage {
	t.Helper()
	shape, err := model.ParseShape("0,0 1,0")
	require.NoError(t, err)
	bread := model.NewBlockDef("bread", model.White, shape)
	bread.Request = "savory"
	pair, err := model.ParsePatternRows("pair", []string{"##"})
	require.NoError(t, err)
	return model.Stage{
		Name:     "test",
		Catalog:  model.Catalog{Name: "test", Blocks: []model.BlockDef{bread}},
		Patterns: []model.Pattern{pair},
		Guests: []model.Guest{
			{ID: "ben", Patience: 30, Payment: 100, Pattern: "pair", Order: []string{"bread"}, Prefers: "savory"},
		},
	}
}

func TestRunner_PlaceStowShow(t *testing.T) {
	r, out := newTestRunner(t, model.Stage{})

	script := `
# kitchen setup
grid inv inventory 4 3

block bread request=savory 0,0 1,0
block cookie color=#c08040 request=sweet 0,0
place inv 0 0 bread
place inv 1 0 cookie
stow inv cookie
show inv
`
	require.NoError(t, r.Run(strings.NewReader(script)))

	text := out.String()
	assert.Contains(t, text, "grid inv (inventory 4x3)")
	assert.Contains(t, text, "placed bread on inv at (0,0)")
	assert.Contains(t, text, "rejected cookie on inv at (1,0): occupied")
	assert.Contains(t, text, "stowed cookie on inv at (2,0)")
	assert.Contains(t, text, "....\n....\nAAB.\n")

	cookie, ok := r.Stage().Catalog.Lookup("cookie")
	require.True(t, ok)
	assert.Equal(t, model.RequestType("sweet"), cookie.Request)
	assert.Equal(t, "#c08040", cookie.Color.Hex())
}

func TestRunner_DragFromSpawn(t *testing.T) {
	r, out := newTestRunner(t, breadStage(t))

	script := `
grid inv inventory 4 3
spawn 1
take 0
rotate
preview inv 0 0
drop inv 0 0
`
	require.NoError(t, r.Run(strings.NewReader(script)))

	text := out.String()
	assert.Contains(t, text, "slot 0: bread")
	assert.Contains(t, text, "holding bread")
	assert.Contains(t, text, "spawn panel exhausted, reshuffling")
	assert.Contains(t, text, "rotation 90 [0,0 0,-1]")
	assert.Contains(t, text, "preview inv (0,0): out of bounds (0,0)")
	assert.Contains(t, text, "rejected bread on inv at (0,0): out of bounds")

	// A rejected drop keeps the block in hand.
	require.NotNil(t, r.Drag())
	require.NoError(t, r.Exec("drop inv 0 1"))
	assert.Nil(t, r.Drag())

	inv, _ := r.Board().Grid("inv")
	assert.True(t, inv.IsOccupied(0, 0))
	assert.True(t, inv.IsOccupied(0, 1))
	assert.Equal(t, 1, inv.Len())
}

func TestRunner_CancelReturnsToSpawn(t *testing.T) {
	r, out := newTestRunner(t, breadStage(t))

	require.NoError(t, r.Exec("block roll 0,0"))
	require.NoError(t, r.Exec("spawn 2"))
	require.NoError(t, r.Exec("take 0"))
	held := r.Drag().Block().Name
	require.NoError(t, r.Exec("cancel"))
	assert.Contains(t, out.String(), "cancelled "+held+", back in slot 0")
	assert.Nil(t, r.Drag())

	assert.ErrorIs(t, r.Exec("cancel"), ErrNoDrag)
}

func TestRunner_PickUpAndMove(t *testing.T) {
	r, out := newTestRunner(t, breadStage(t))

	script := `
grid inv inventory 4 3
place inv 0 0 bread
pick inv 1 0
preview inv 1 0
drop inv 2 2
`
	require.NoError(t, r.Run(strings.NewReader(script)))

	text := out.String()
	assert.Contains(t, text, "holding bread from inv")
	assert.Contains(t, text, "preview inv (1,0): ok (1,0) (2,0)")
	assert.Contains(t, text, "placed bread on inv at (2,2)")

	inv, _ := r.Board().Grid("inv")
	assert.False(t, inv.IsOccupied(0, 0))
	rec, ok := inv.RecordAt(3, 2)
	require.True(t, ok)
	assert.Equal(t, model.Cell{X: 2, Y: 2}, rec.Origin)

	// Cancelling a pick-up leaves the record in place.
	require.NoError(t, r.Exec("pick inv 2 2"))
	require.NoError(t, r.Exec("cancel"))
	assert.Contains(t, out.String(), "cancelled bread\n")
	assert.True(t, inv.Holds(rec))
}

func TestRunner_Serve(t *testing.T) {
	r, out := newTestRunner(t, breadStage(t))

	script := `
grid tray serving 1 1
pattern tray pair
serve tray ben
place tray 0 0 bread
serve tray ben 15
show tray
`
	require.NoError(t, r.Run(strings.NewReader(script)))

	text := out.String()
	assert.Contains(t, text, "pattern pair applied to tray (2 usable)")
	assert.Contains(t, text, "ben still waiting for: bread")
	assert.Contains(t, text, "served ben: 220 gold, 50 points")
	assert.Contains(t, text, "tray (serving, 2x1)\n..\n")
}

func TestRunner_InlinePattern(t *testing.T) {
	r, out := newTestRunner(t, model.Stage{})

	require.NoError(t, r.Exec("grid tray serving 1 1"))
	require.NoError(t, r.Exec("pattern tray ##. ### ###"))
	assert.Contains(t, out.String(), "applied to tray (8 usable)")

	tray, _ := r.Board().Grid("tray")
	assert.Equal(t, 3, tray.Width())
	assert.True(t, tray.IsBlocked(2, 2))
}

func TestRunner_Errors(t *testing.T) {
	tests := []struct {
		name string
		line string
		want error
	}{
		{"unknown command", "bogus", ErrUnknownCommand},
		{"usage", "grid a", ErrUsage},
		{"no spawner", "take 0", ErrNoSpawner},
		{"no drag", "rotate", ErrNoDrag},
		{"unknown block", "place inv 0 0 nope", ErrUnknownBlock},
		{"unknown guest", "serve inv nobody", ErrUnknownGuest},
		{"empty cell", "pick inv 0 0", ErrNoRecord},
		{"unknown grid", "clear nowhere", engine.ErrUnknownGrid},
		{"duplicate grid", "grid inv storage 2 2", engine.ErrDuplicateGrid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRunner(t, breadStage(t))
			require.NoError(t, r.Exec("grid inv inventory 3 3"))
			assert.ErrorIs(t, r.Exec(tt.line), tt.want)
		})
	}
}

func TestRunner_RunReportsLine(t *testing.T) {
	r, _ := newTestRunner(t, model.Stage{})

	err := r.Run(strings.NewReader("# comment\n\ngrid inv inventory 2 2\nrotate\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoDrag)
	assert.True(t, strings.HasPrefix(err.Error(), "line 4:"), err.Error())
}

func TestRunner_UndoRedo(t *testing.T) {
	r, out := newTestRunner(t, breadStage(t))

	script := `
grid inv inventory 4 3
place inv 0 0 bread
show inv
stow inv bread
undo
undo
redo
`
	require.NoError(t, r.Run(strings.NewReader(script)))

	text := out.String()
	assert.Contains(t, text, "undid stow inv bread")
	assert.Contains(t, text, "undid place inv 0 0 bread")
	assert.Contains(t, text, "redid place inv 0 0 bread")

	inv, _ := r.Board().Grid("inv")
	assert.Equal(t, 1, inv.Len())
	assert.True(t, inv.IsOccupied(0, 0))

	// Rejected placements and read-only commands leave nothing to undo.
	require.NoError(t, r.Exec("place inv 0 0 bread"))
	require.NoError(t, r.Exec("undo"))
	assert.Equal(t, 0, inv.Len())
	assert.ErrorIs(t, r.Exec("undo"), ErrNothingToUndo)
}

func TestRunner_FailedUndoLeavesBoardAndHistory(t *testing.T) {
	r, out := newTestRunner(t, model.Stage{Name: "empty"})

	script := `
grid a storage 4 4
block mono 0,0
place a 0 0 mono
place a 3 3 mono
clear a
pattern a ## ##
`
	require.NoError(t, r.Run(strings.NewReader(script)))

	// The grid shrank to 2x2, so the record at (3,3) cannot come back.
	err := r.Exec("undo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of bounds")
	assert.NotContains(t, out.String(), "undid")

	a, ok := r.Board().Grid("a")
	require.True(t, ok)
	assert.Equal(t, 0, a.Len())
	assert.False(t, a.IsOccupied(0, 0))
	assert.True(t, r.history.CanUndo())
	assert.False(t, r.history.CanRedo())

	// The same undo succeeds once the grid is large enough again.
	require.NoError(t, r.Exec("pattern a #### #### #### ####"))
	require.NoError(t, r.Exec("undo"))
	assert.Equal(t, 2, a.Len())
	assert.True(t, a.IsOccupied(3, 3))
	assert.True(t, r.history.CanRedo())
}

func TestRunner_CancelAfterReshuffleRequeuesBlock(t *testing.T) {
	r, out := newTestRunner(t, model.Stage{Name: "empty"})

	script := `
block mono 0,0
spawn 1
take 0
`
	require.NoError(t, r.Run(strings.NewReader(script)))
	require.Contains(t, out.String(), "spawn panel exhausted, reshuffling")

	require.NoError(t, r.Exec("cancel"))
	assert.Nil(t, r.drag)
	assert.Contains(t, out.String(), "cancelled mono, back in queue")
	assert.Equal(t, 1, r.spawner.Remaining())

	_, err := r.spawner.Take(0)
	require.NoError(t, err)
	r.spawner.Fill()
	def, ok := r.spawner.Slot(0)
	require.True(t, ok)
	assert.Equal(t, "mono", def.Name)
}

func TestRunner_UndoRefusedWhileDragging(t *testing.T) {
	r, _ := newTestRunner(t, breadStage(t))

	require.NoError(t, r.Exec("grid inv inventory 4 3"))
	require.NoError(t, r.Exec("place inv 0 0 bread"))
	require.NoError(t, r.Exec("pick inv 0 0"))
	assert.ErrorIs(t, r.Exec("undo"), ErrDragActive)
	assert.ErrorIs(t, r.Exec("redo"), ErrDragActive)

	require.NoError(t, r.Exec("cancel"))
	assert.ErrorIs(t, r.Exec("redo"), ErrNothingToRedo)
}
