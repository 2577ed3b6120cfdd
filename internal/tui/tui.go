// Package tui is the interactive list browser.
package tui

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/shoplist/internal/listsync"
	"github.com/idilsaglam/shoplist/internal/model"
	"github.com/idilsaglam/shoplist/internal/ui"
	"github.com/idilsaglam/shoplist/internal/views"
)

// Tabs on the list screen.
const (
	TabOwned = iota
	TabInvited
	TabArchived
)

var tabNames = []string{"My lists", "Shared with me", "Archived"}

// inputMode is what the text input is collecting.
type inputMode int

const (
	inputNone inputMode = iota
	inputNewList
	inputRename
	inputInvite
	inputAddItem
)

// stateMsg carries a syncer snapshot into the program.
type stateMsg listsync.State

// doneMsg reports the end of a backend operation.
type doneMsg struct {
	status string
	err    error
}

// Model is the Bubble Tea model. Every change goes through the Syncer.
type Model struct {
	ctx  context.Context
	sync *listsync.Syncer

	state listsync.State
	tab   int
	open  string // id of the list shown on the item screen, "" on the list screen

	lists list.Model
	items list.Model

	mode    inputMode
	ti      textinput.Model
	confirm string // list id awaiting a second delete keypress

	status    string
	statusErr bool
	busy      int

	width, height int
}

// New builds the model from the syncer's current state.
func New(ctx context.Context, s *listsync.Syncer) Model {
	m := Model{
		ctx:    ctx,
		sync:   s,
		lists:  newList("list", "lists"),
		items:  newList("item", "items"),
		width:  80,
		height: 24,
	}
	m.ti = textinput.New()
	m.ti.Prompt = "> "
	m.ti.CharLimit = 200
	m.resize()
	return m.refresh(s.State())
}

func newList(singular, plural string) list.Model {
	l := list.New(nil, rowDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.SetStatusBarItemName(singular, plural)
	return l
}

// Run starts the browser and blocks until the user quits.
func Run(ctx context.Context, s *listsync.Syncer) error {
	p := tea.NewProgram(New(ctx, s), tea.WithAltScreen(), tea.WithContext(ctx))
	unsubscribe := s.Subscribe(func(st listsync.State) { p.Send(stateMsg(st)) })
	defer unsubscribe()
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd { return nil }

// Tab is the active tab on the list screen.
func (m Model) Tab() int { return m.tab }

// OpenList is the id of the list on the item screen, "" on the list screen.
func (m Model) OpenList() string { return m.open }

// Status is the last message shown in the status line.
func (m Model) Status() string { return m.status }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil
	case stateMsg:
		return m.refresh(listsync.State(msg)), nil
	case doneMsg:
		m.busy--
		m.status, m.statusErr = msg.status, msg.err != nil
		if msg.err != nil {
			m.status = msg.err.Error()
		}
		return m.refresh(m.sync.State()), nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.mode != inputNone {
			return m.updateInput(msg)
		}
		if m.open != "" {
			return m.updateItems(msg)
		}
		return m.updateLists(msg)
	}
	return m, nil
}

// ---------------------------------------------------
// list screen
// ---------------------------------------------------

func (m Model) updateLists(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	if k != "x" {
		m.confirm = ""
	}
	switch k {
	case "q", "esc":
		return m, tea.Quit
	case "tab", "right":
		m.tab = (m.tab + 1) % len(tabNames)
		m.lists.Select(0)
		return m.refresh(m.state), nil
	case "shift+tab", "left":
		m.tab = (m.tab + len(tabNames) - 1) % len(tabNames)
		m.lists.Select(0)
		return m.refresh(m.state), nil
	case "n":
		return m.startInput(inputNewList, "", "List name...")
	}

	l, ok := m.selectedList()
	if !ok {
		var cmd tea.Cmd
		m.lists, cmd = m.lists.Update(msg)
		return m, cmd
	}
	switch k {
	case "enter":
		m.open = l.ID
		m.items.Select(0)
		return m.refresh(m.state), nil
	case "r":
		return m.startInput(inputRename, l.Name, "New name...")
	case "i":
		return m.startInput(inputInvite, "", "User id to invite...")
	case "a":
		archived := !l.Archived
		verb := "unarchived"
		if archived {
			verb = "archived"
		}
		return m.do(fmt.Sprintf("%s %q", verb, l.Name), func(ctx context.Context) error {
			return m.sync.SetArchived(ctx, l.ID, archived)
		})
	case "L":
		return m.do(fmt.Sprintf("left %q", l.Name), func(ctx context.Context) error {
			return m.sync.RemoveSelf(ctx, l.ID)
		})
	case "x":
		if m.confirm != l.ID {
			m.confirm = l.ID
			m.status, m.statusErr = fmt.Sprintf("press x again to delete %q", l.Name), false
			return m, nil
		}
		m.confirm = ""
		return m.do(fmt.Sprintf("deleted %q", l.Name), func(ctx context.Context) error {
			return m.sync.RemoveList(ctx, l.ID)
		})
	}
	var cmd tea.Cmd
	m.lists, cmd = m.lists.Update(msg)
	return m, cmd
}

// ---------------------------------------------------
// item screen
// ---------------------------------------------------

func (m Model) updateItems(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "backspace":
		m.open = ""
		return m.refresh(m.state), nil
	case "a":
		return m.startInput(inputAddItem, "", "New item...")
	case "i":
		return m.startInput(inputInvite, "", "User id to invite...")
	case " ", "enter":
		it, ok := m.selectedItem()
		if !ok {
			return m, nil
		}
		listID := m.open
		if it.Complete {
			return m.do("unchecked "+it.Content, func(ctx context.Context) error {
				return m.sync.SetItemIncomplete(ctx, listID, it.ID)
			})
		}
		return m.do("checked off "+it.Content, func(ctx context.Context) error {
			return m.sync.SetItemCompleted(ctx, listID, it.ID)
		})
	case "d":
		it, ok := m.selectedItem()
		if !ok {
			return m, nil
		}
		listID := m.open
		return m.do(fmt.Sprintf("removed %q", it.Content), func(ctx context.Context) error {
			return m.sync.RemoveItem(ctx, listID, it.ID)
		})
	}
	var cmd tea.Cmd
	m.items, cmd = m.items.Update(msg)
	return m, cmd
}

// ---------------------------------------------------
// text input
// ---------------------------------------------------

func (m Model) startInput(mode inputMode, value, placeholder string) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.ti.SetValue(value)
	m.ti.CursorEnd()
	m.ti.Placeholder = placeholder
	m.status = ""
	cmd := m.ti.Focus()
	return m, cmd
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m = m.endInput()
		return m, nil
	case "enter":
		v := strings.TrimSpace(m.ti.Value())
		mode := m.mode
		if v == "" && mode != inputNewList {
			m.status, m.statusErr = "value cannot be empty", true
			return m, nil
		}
		m = m.endInput()
		return m.submit(mode, v)
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m Model) endInput() Model {
	m.mode = inputNone
	m.ti.SetValue("")
	m.ti.Blur()
	return m
}

func (m Model) submit(mode inputMode, v string) (tea.Model, tea.Cmd) {
	switch mode {
	case inputNewList:
		return m.do("list created", func(ctx context.Context) error {
			id, err := m.sync.AddList(ctx)
			if err != nil || v == "" {
				return err
			}
			return m.sync.EditList(ctx, id, &v, nil)
		})
	case inputAddItem:
		listID := m.open
		return m.do(fmt.Sprintf("added %q", v), func(ctx context.Context) error {
			return m.sync.AddItem(ctx, listID, v)
		})
	}

	l, ok := m.currentList()
	if !ok {
		return m, nil
	}
	switch mode {
	case inputRename:
		return m.do(fmt.Sprintf("renamed to %q", v), func(ctx context.Context) error {
			return m.sync.EditList(ctx, l.ID, &v, nil)
		})
	case inputInvite:
		return m.do(fmt.Sprintf("shared %q with %s", l.Name, v), func(ctx context.Context) error {
			return m.sync.AddUser(ctx, l.ID, v)
		})
	}
	return m, nil
}

// do runs fn off the UI goroutine and reports back with a doneMsg.
func (m Model) do(status string, fn func(ctx context.Context) error) (tea.Model, tea.Cmd) {
	m.busy++
	ctx := m.ctx
	return m, func() tea.Msg {
		return doneMsg{status: status, err: fn(ctx)}
	}
}

// ---------------------------------------------------
// state
// ---------------------------------------------------

func (m Model) uid() string {
	if s := m.sync.Session(); s != nil {
		return s.UserID
	}
	return ""
}

func (m Model) tabLists(st listsync.State) []model.List {
	p := views.Split(st.Lists, m.uid())
	switch m.tab {
	case TabInvited:
		return p.Invited
	case TabArchived:
		return p.Archived
	}
	return p.Owned
}

// refresh rebuilds both bubbles lists from st.
func (m Model) refresh(st listsync.State) Model {
	m.state = st
	uid := m.uid()

	rows := make([]list.Item, 0, len(st.Lists))
	for _, l := range m.tabLists(st) {
		rows = append(rows, listRow{l: l, owned: l.OwnedBy(uid)})
	}
	m.lists.SetItems(rows)
	clamp(&m.lists)

	if m.open == "" {
		return m
	}
	l, ok := m.find(m.open)
	if !ok {
		m.open = ""
		m.status, m.statusErr = "the list is no longer available", true
		return m
	}
	items := slices.Clone(l.Items)
	slices.SortStableFunc(items, func(a, b model.Item) int { return cmp.Compare(a.Order, b.Order) })
	irows := make([]list.Item, 0, len(items))
	for _, it := range items {
		irows = append(irows, itemRow{it: it})
	}
	m.items.SetItems(irows)
	clamp(&m.items)
	return m
}

// clamp keeps the cursor on an existing row after the rows shrank.
func clamp(l *list.Model) {
	if n := len(l.Items()); n > 0 && l.Index() >= n {
		l.Select(n - 1)
	}
}

func (m Model) find(id string) (model.List, bool) {
	for _, l := range m.state.Lists {
		if l.ID == id {
			return l, true
		}
	}
	return model.List{}, false
}

func (m Model) selectedList() (model.List, bool) {
	r, ok := m.lists.SelectedItem().(listRow)
	return r.l, ok
}

func (m Model) selectedItem() (model.Item, bool) {
	r, ok := m.items.SelectedItem().(itemRow)
	return r.it, ok
}

// currentList is the open list, or the selected one on the list screen.
func (m Model) currentList() (model.List, bool) {
	if m.open != "" {
		return m.find(m.open)
	}
	return m.selectedList()
}

func (m *Model) resize() {
	w := max(m.width-4, 20)
	h := max(m.height-10, 3)
	m.lists.SetSize(w, h)
	m.items.SetSize(w, h)
	m.ti.Width = max(w-4, 10)
}

// ---------------------------------------------------
// view
// ---------------------------------------------------

func (m Model) View() string {
	t := ui.Current()
	var b strings.Builder

	if m.open == "" {
		b.WriteString(m.tabsView())
		b.WriteString("\n\n")
		if len(m.lists.Items()) == 0 {
			b.WriteString(t.Muted.Render("(no lists)"))
		} else {
			b.WriteString(m.lists.View())
		}
	} else {
		l, _ := m.find(m.open)
		done, total := views.Progress(l)
		head := t.Title.Render(l.Name)
		if l.Archived {
			head += " " + t.Muted.Render("(archived)")
		}
		b.WriteString(head + "\n")
		b.WriteString(t.Muted.Render(ui.ProgressBar(done, total, 20)) + "\n\n")
		if total == 0 {
			b.WriteString(t.Muted.Render("(no items)"))
		} else {
			b.WriteString(m.items.View())
		}
	}

	if m.mode != inputNone {
		box := lipgloss.NewStyle().Border(t.Border).BorderForeground(t.BorderColor).Padding(0, 1)
		b.WriteString("\n" + box.Render(inputTitle(m.mode)+"\n"+m.ti.View()))
	}

	b.WriteString("\n")
	switch {
	case m.state.Loading || m.busy > 0:
		b.WriteString(t.Pending.Render("working..."))
	case m.state.Err != nil:
		b.WriteString(t.Error.Render(m.state.Err.Error()))
	case m.statusErr:
		b.WriteString(t.Error.Render(m.status))
	default:
		b.WriteString(t.Success.Render(m.status))
	}
	b.WriteString("\n" + t.Muted.Render(m.helpView()))
	return ui.PanelString(b.String())
}

func (m Model) tabsView() string {
	t := ui.Current()
	p := views.Split(m.state.Lists, m.uid())
	counts := []int{len(p.Owned), len(p.Invited), len(p.Archived)}
	parts := make([]string, len(tabNames))
	for i, name := range tabNames {
		label := fmt.Sprintf(" %s (%d) ", name, counts[i])
		if i == m.tab {
			parts[i] = t.Selected.Render(label)
		} else {
			parts[i] = t.Muted.Render(label)
		}
	}
	return strings.Join(parts, " ")
}

func inputTitle(mode inputMode) string {
	switch mode {
	case inputNewList:
		return "New list"
	case inputRename:
		return "Rename list"
	case inputInvite:
		return "Invite user"
	case inputAddItem:
		return "Add item"
	}
	return ""
}

var (
	listKeys = []key.Binding{
		key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch")),
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename")),
		key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "archive")),
		key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "invite")),
		key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "leave")),
		key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
		key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	}
	itemKeys = []key.Binding{
		key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "invite")),
		key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	}
)

func (m Model) helpView() string {
	keys := listKeys
	if m.open != "" {
		keys = itemKeys
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		h := k.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}
