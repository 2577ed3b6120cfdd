// Package views partitions a user's lists for display.
package views

import "github.com/idilsaglam/shoplist/internal/model"

// Owned are the active lists uid owns.
func Owned(lists []model.List, uid string) []model.List {
	return filter(lists, func(l model.List) bool { return !l.Archived && l.Owner == uid })
}

// Invited are the active lists someone else owns. Every list a user holds is
// owned or shared with them, so "not owned" is "invited".
func Invited(lists []model.List, uid string) []model.List {
	return filter(lists, func(l model.List) bool { return !l.Archived && l.Owner != uid })
}

// Archived are the archived lists, owned or not.
func Archived(lists []model.List) []model.List {
	return filter(lists, func(l model.List) bool { return l.Archived })
}

// Partition is the three views at once.
type Partition struct {
	Owned    []model.List
	Invited  []model.List
	Archived []model.List
}

func Split(lists []model.List, uid string) Partition {
	return Partition{
		Owned:    Owned(lists, uid),
		Invited:  Invited(lists, uid),
		Archived: Archived(lists),
	}
}

// Progress counts completed items.
func Progress(l model.List) (done, total int) {
	for _, it := range l.Items {
		if it.Complete {
			done++
		}
	}
	return done, len(l.Items)
}

func filter(in []model.List, keep func(model.List) bool) []model.List {
	out := []model.List{}
	for _, l := range in {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}
