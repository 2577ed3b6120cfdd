package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/idilsaglam/shoplist/internal/backend"
	"github.com/idilsaglam/shoplist/internal/backend/mock"
	"github.com/idilsaglam/shoplist/internal/listsync"
	"github.com/idilsaglam/shoplist/internal/model"
	"github.com/idilsaglam/shoplist/internal/session"
)

func newModel(t *testing.T) (Model, *listsync.Syncer) {
	t.Helper()
	store, err := mock.NewSeeded(mock.WithHashCost(bcrypt.MinCost))
	if err != nil {
		t.Fatalf("NewSeeded failed: %v", err)
	}
	c := mock.NewClient(store)
	s := listsync.New(session.NewHolder(false), func(bool) backend.Backend { return c }, zap.NewNop())
	t.Cleanup(s.Close)
	if _, err := s.Login(context.Background(), "demo", mock.DemoPassword); err != nil {
		t.Fatalf("login: %v", err)
	}
	s.Wait()
	m := New(context.Background(), s)
	return send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30}), s
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// send feeds msgs to m. Backend operations started by a message are run to
// completion and their result fed back; other commands are dropped.
func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		before := m.busy
		next, cmd := m.Update(msg)
		m = next.(Model)
		if m.busy > before && cmd != nil {
			m = send(t, m, cmd())
		}
	}
	return m
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		m = send(t, m, keyMsg(k))
	}
	return m
}

func find(t *testing.T, s *listsync.Syncer, name string) model.List {
	t.Helper()
	for _, l := range s.State().Lists {
		if l.Name == name {
			return l
		}
	}
	t.Fatalf("list %q not found", name)
	return model.List{}
}

func TestTabsFollowViews(t *testing.T) {
	m, _ := newModel(t)

	want := []int{2, 3, 3}
	for tab, n := range want {
		if m.Tab() != tab {
			t.Fatalf("tab: got %d, want %d", m.Tab(), tab)
		}
		if got := len(m.lists.Items()); got != n {
			t.Errorf("tab %d rows: got %d, want %d", tab, got, n)
		}
		m = press(t, m, "tab")
	}
	if m.Tab() != TabOwned {
		t.Errorf("tab should wrap to owned, got %d", m.Tab())
	}
	m = press(t, m, "shift+tab")
	if m.Tab() != TabArchived {
		t.Errorf("shift+tab: got %d, want %d", m.Tab(), TabArchived)
	}
}

func TestOpenAndToggleItem(t *testing.T) {
	m, s := newModel(t)

	m = press(t, m, "enter")
	groceries := find(t, s, "Weekly groceries")
	if m.OpenList() != groceries.ID {
		t.Fatalf("open list: got %q, want %q", m.OpenList(), groceries.ID)
	}

	m = press(t, m, " ")
	milk, _ := find(t, s, "Weekly groceries").FindItem(groceries.Items[0].ID)
	if !milk.Complete {
		t.Errorf("Milk should be complete")
	}
	if m.Status() != "checked off Milk" {
		t.Errorf("status: got %q", m.Status())
	}

	m = press(t, m, "esc")
	if m.OpenList() != "" {
		t.Errorf("esc should go back to the list screen")
	}
}

func TestAddItem(t *testing.T) {
	m, s := newModel(t)

	m = press(t, m, "enter", "a", "Oat milk", "enter")
	l := find(t, s, "Weekly groceries")
	if len(l.Items) != 5 {
		t.Fatalf("items: got %d, want 5", len(l.Items))
	}
	if got := l.Items[4].Content; got != "Oat milk" {
		t.Errorf("new item: got %q", got)
	}
	if len(m.items.Items()) != 5 {
		t.Errorf("item rows: got %d, want 5", len(m.items.Items()))
	}
}

func TestEmptyInputIsRejected(t *testing.T) {
	m, s := newModel(t)

	m = press(t, m, "enter", "a", "enter")
	if m.mode != inputAddItem {
		t.Errorf("input should stay open")
	}
	if !m.statusErr {
		t.Errorf("expected an error status")
	}
	if got := len(find(t, s, "Weekly groceries").Items); got != 4 {
		t.Errorf("items: got %d, want 4", got)
	}
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	m, s := newModel(t)

	m = press(t, m, "x")
	if !strings.Contains(m.Status(), "press x again") {
		t.Fatalf("status: got %q", m.Status())
	}
	if len(s.State().Lists) != 8 {
		t.Fatalf("list deleted without confirmation")
	}

	m = press(t, m, "x")
	if len(s.State().Lists) != 7 {
		t.Errorf("lists: got %d, want 7", len(s.State().Lists))
	}
	if len(m.lists.Items()) != 1 {
		t.Errorf("owned rows: got %d, want 1", len(m.lists.Items()))
	}
}

func TestNonOwnerRenameShowsError(t *testing.T) {
	m, s := newModel(t)

	m = press(t, m, "tab", "r", "!", "enter")
	if !m.statusErr || !strings.Contains(m.Status(), "not authorized") {
		t.Errorf("status: got %q (err=%v)", m.Status(), m.statusErr)
	}
	find(t, s, "Hardware store")
}

func TestQuit(t *testing.T) {
	m, _ := newModel(t)

	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("q: expected tea.QuitMsg")
	}
}

func TestViewShowsTabsAndHelp(t *testing.T) {
	m, _ := newModel(t)

	v := m.View()
	for _, want := range []string{"My lists (2)", "Shared with me (3)", "Weekly groceries", "q quit"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
