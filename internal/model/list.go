package model

import "slices"

// DefaultListName is the name given to lists created without one.
const DefaultListName = "New List"

// List is a named, owned, shareable collection of items.
// The owner is never part of InvitedUsers.
type List struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Owner        string   `json:"owner"`
	Archived     bool     `json:"archived"`
	InvitedUsers []string `json:"invited_users"`
	Items        []Item   `json:"items"`
}

// OwnedBy reports whether uid owns the list.
func (l List) OwnedBy(uid string) bool { return uid != "" && l.Owner == uid }

// IsInvited reports whether uid is in the collaborator set.
func (l List) IsInvited(uid string) bool { return slices.Contains(l.InvitedUsers, uid) }

// VisibleTo reports whether uid may see the list at all.
func (l List) VisibleTo(uid string) bool { return l.OwnedBy(uid) || l.IsInvited(uid) }

// FindItem returns the item with the given id.
func (l List) FindItem(id string) (Item, bool) {
	for _, it := range l.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// NextOrder is the order a newly appended item gets.
func (l List) NextOrder() int { return len(l.Items) + 1 }

// Clone returns a deep copy whose slices never alias l's.
// Nil collections come back empty.
func (l List) Clone() List {
	out := l
	out.InvitedUsers = append(make([]string, 0, len(l.InvitedUsers)), l.InvitedUsers...)
	out.Items = append(make([]Item, 0, len(l.Items)), l.Items...)
	return out
}

// CloneLists deep-copies a slice of lists.
func CloneLists(in []List) []List {
	out := make([]List, 0, len(in))
	for _, l := range in {
		out = append(out, l.Clone())
	}
	return out
}
