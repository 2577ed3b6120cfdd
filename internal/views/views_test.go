package views_test

import (
	"testing"

	"github.com/idilsaglam/shoplist/internal/model"
	"github.com/idilsaglam/shoplist/internal/views"
)

func sample() []model.List {
	return []model.List{
		{ID: "a", Owner: "me"},
		{ID: "b", Owner: "me", Archived: true},
		{ID: "c", Owner: "other", InvitedUsers: []string{"me"}},
		{ID: "d", Owner: "other", InvitedUsers: []string{"me"}, Archived: true},
		{ID: "e", Owner: "third", InvitedUsers: []string{"x", "me"}},
	}
}

func ids(ls []model.List) []string {
	out := make([]string, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.ID)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSplit(t *testing.T) {
	p := views.Split(sample(), "me")

	if got, want := ids(p.Owned), []string{"a"}; !equal(got, want) {
		t.Errorf("Owned: got %v, want %v", got, want)
	}
	if got, want := ids(p.Invited), []string{"c", "e"}; !equal(got, want) {
		t.Errorf("Invited: got %v, want %v", got, want)
	}
	if got, want := ids(p.Archived), []string{"b", "d"}; !equal(got, want) {
		t.Errorf("Archived: got %v, want %v", got, want)
	}
}

func TestSplit_EveryListExactlyOnce(t *testing.T) {
	lists := sample()
	p := views.Split(lists, "me")

	seen := map[string]int{}
	for _, group := range [][]model.List{p.Owned, p.Invited, p.Archived} {
		for _, l := range group {
			seen[l.ID]++
		}
	}
	for _, l := range lists {
		if seen[l.ID] != 1 {
			t.Errorf("list %s appears %d times", l.ID, seen[l.ID])
		}
	}
}

func TestEmptyInput(t *testing.T) {
	p := views.Split(nil, "me")
	if p.Owned == nil || p.Invited == nil || p.Archived == nil {
		t.Errorf("views should be empty slices, got %+v", p)
	}
}

func TestProgress(t *testing.T) {
	l := model.List{Items: []model.Item{{Complete: true}, {}, {Complete: true}}}
	done, total := views.Progress(l)
	if done != 2 || total != 3 {
		t.Errorf("got %d/%d, want 2/3", done, total)
	}
}
