package cli

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/shoplist/internal/model"
	"github.com/idilsaglam/shoplist/internal/ui"
	"github.com/idilsaglam/shoplist/internal/views"
)

const nameWidth = 28

// -------------- rendering helpers --------------

func sectionHeader(title string, n int) string {
	t := ui.Current()
	return fmt.Sprintf("%s %s", t.Title.Render(title), t.Muted.Render(fmt.Sprintf("(%d)", n)))
}

// listLine is one row of `ls`.
func listLine(n int, l model.List, uid string) string {
	t := ui.Current()
	sym := t.Pending.Render(t.SymShared)
	if l.OwnedBy(uid) {
		sym = t.Accent.Render(t.SymOwner)
	}
	done, total := views.Progress(l)
	return fmt.Sprintf("%s %s %s %s %s",
		t.Muted.Render(fmt.Sprintf("%2d.", n)),
		sym,
		padRight(ui.Truncate(l.Name, nameWidth), nameWidth),
		t.Muted.Render(ui.ProgressBar(done, total, 10)),
		t.Muted.Render(fmt.Sprintf("%d/%d", done, total)),
	)
}

// listLines is the body of `show`.
func listLines(l model.List, uid string, group bool) []string {
	t := ui.Current()
	title := t.Title.Render(l.Name)
	if l.Archived {
		title += " " + t.Muted.Render("(archived)")
	}
	done, total := views.Progress(l)

	lines := []string{
		title,
		t.Muted.Render(membersLine(l, uid)),
		t.Muted.Render(ui.ProgressBar(done, total, 28)),
		"",
	}
	switch {
	case total == 0:
		lines = append(lines, t.Muted.Render("(no items)"))
	case group:
		lines = append(lines, groupLines(sortedItems(l))...)
	default:
		lines = append(lines, flatLines(sortedItems(l))...)
	}
	lines = append(lines, "")
	lines = append(lines, t.Muted.Render("Tip: add with `shoplist add <list> \"Oat milk\"`"))
	return lines
}

func membersLine(l model.List, uid string) string {
	name := func(id string) string {
		if id == uid {
			return "you"
		}
		return id
	}
	s := "owner: " + name(l.Owner)
	if len(l.InvitedUsers) > 0 {
		shared := make([]string, 0, len(l.InvitedUsers))
		for _, id := range l.InvitedUsers {
			shared = append(shared, name(id))
		}
		s += "  shared with: " + strings.Join(shared, ", ")
	}
	return s
}

// sortedItems orders items by Order; positions in the result are the
// indexes users type.
func sortedItems(l model.List) []model.Item {
	items := slices.Clone(l.Items)
	slices.SortStableFunc(items, func(a, b model.Item) int { return cmp.Compare(a.Order, b.Order) })
	return items
}

func itemLine(n int, it model.Item) string {
	t := ui.Current()
	box, text := t.Muted.Render(t.BoxUnchecked), it.Content
	if it.Complete {
		box, text = t.Success.Render(t.BoxChecked), t.Done.Render(it.Content)
	}
	return fmt.Sprintf("%s %s %s", t.Muted.Render(fmt.Sprintf("%2d.", n)), box, text)
}

func flatLines(items []model.Item) []string {
	out := make([]string, 0, len(items))
	for i, it := range items {
		out = append(out, itemLine(i+1, it))
	}
	return out
}

// groupLines splits pending and done while keeping each item's flat index.
func groupLines(items []model.Item) []string {
	t := ui.Current()
	var pending, done []string
	for i, it := range items {
		if it.Complete {
			done = append(done, itemLine(i+1, it))
		} else {
			pending = append(pending, itemLine(i+1, it))
		}
	}
	out := []string{t.Pending.Render(fmt.Sprintf("%s Pending (%d)", t.SymPending, len(pending)))}
	out = append(out, pending...)
	out = append(out, "", t.Success.Render(fmt.Sprintf("%s Done (%d)", t.SymDone, len(done))))
	return append(out, done...)
}

func padRight(s string, w int) string {
	if n := lipgloss.Width(s); n < w {
		return s + strings.Repeat(" ", w-n)
	}
	return s
}
