package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/shoplist/internal/model"
	"github.com/idilsaglam/shoplist/internal/ui"
	"github.com/idilsaglam/shoplist/internal/views"
)

// listRow adapts a shopping list to bubbles/list.Item.
type listRow struct {
	l     model.List
	owned bool
}

func (r listRow) FilterValue() string { return r.l.Name }

// itemRow adapts an item to bubbles/list.Item.
type itemRow struct {
	it model.Item
}

func (r itemRow) FilterValue() string { return r.it.Content }

// rowDelegate renders both row kinds on a single line.
type rowDelegate struct{}

func (d rowDelegate) Height() int                               { return 1 }
func (d rowDelegate) Spacing() int                              { return 0 }
func (d rowDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d rowDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	t := ui.Current()
	var line string
	switch r := item.(type) {
	case listRow:
		sym := t.Pending.Render(t.SymShared)
		if r.owned {
			sym = t.Accent.Render(t.SymOwner)
		}
		done, total := views.Progress(r.l)
		line = fmt.Sprintf("%s %s %s",
			sym,
			ui.Truncate(r.l.Name, 40),
			t.Muted.Render(fmt.Sprintf("%d/%d", done, total)),
		)
	case itemRow:
		box, text := t.Muted.Render(t.BoxUnchecked), r.it.Content
		if r.it.Complete {
			box, text = t.Success.Render(t.BoxChecked), t.Done.Render(r.it.Content)
		}
		line = box + " " + text
	default:
		return
	}

	prefix := "  "
	if index == m.Index() {
		prefix = t.Selected.Render(">") + " "
	}
	fmt.Fprint(w, prefix+line)
}
