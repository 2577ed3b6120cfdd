// Package wire holds the JSON shapes of the /api/v1 contract and their
// conversion to and from the local model.
//
// The backend names identifiers "_id" and may omit empty collections;
// Normalize fixes both so the rest of the client never sees either.
package wire

import "github.com/idilsaglam/shoplist/internal/model"

type User struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

type Item struct {
	ID         string `json:"_id"`
	Order      int    `json:"order"`
	Content    string `json:"content"`
	IsComplete bool   `json:"isComplete"`
}

type List struct {
	ID           string   `json:"_id"`
	Name         string   `json:"name"`
	Owner        string   `json:"owner"`
	Archived     bool     `json:"archived"`
	InvitedUsers []string `json:"invitedUsers"`
	Items        []Item   `json:"items"`
}

type ProfileLists struct {
	Owned   []List `json:"owned"`
	Invited []List `json:"invited"`
}

type Profile struct {
	User  User         `json:"user"`
	Lists ProfileLists `json:"lists"`
}

// Request bodies.

type Credentials struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type ProfilePatch struct {
	Name     *string `json:"name,omitempty"`
	Password *string `json:"password,omitempty"`
}

type CreateList struct {
	ListName string `json:"listName"`
}

type CreateItem struct {
	ListID  string `json:"listId"`
	Order   int    `json:"order"`
	Content string `json:"content"`
}

type ItemPatch struct {
	IsComplete bool `json:"isComplete"`
}

type ACL struct {
	ListID string `json:"listId"`
	UserID string `json:"userId"`
}

type Error struct {
	Error string `json:"error"`
}

func (u User) Normalize() model.User { return model.User{ID: u.ID, Name: u.Name} }

func (it Item) Normalize() model.Item {
	return model.Item{ID: it.ID, Order: it.Order, Content: it.Content, Complete: it.IsComplete}
}

func (l List) Normalize() model.List {
	out := model.List{
		ID:           l.ID,
		Name:         l.Name,
		Owner:        l.Owner,
		Archived:     l.Archived,
		InvitedUsers: make([]string, 0, len(l.InvitedUsers)),
		Items:        make([]model.Item, 0, len(l.Items)),
	}
	out.InvitedUsers = append(out.InvitedUsers, l.InvitedUsers...)
	for _, it := range l.Items {
		out.Items = append(out.Items, it.Normalize())
	}
	return out
}

func (p Profile) Normalize() model.Profile {
	return model.Profile{
		User:    p.User.Normalize(),
		Owned:   normalizeLists(p.Lists.Owned),
		Invited: normalizeLists(p.Lists.Invited),
	}
}

func normalizeLists(in []List) []model.List {
	out := make([]model.List, 0, len(in))
	for _, l := range in {
		out = append(out, l.Normalize())
	}
	return out
}

// FromUser, FromItem, FromList and FromProfile encode the model for the wire.

func FromUser(u model.User) User { return User{ID: u.ID, Name: u.Name} }

func FromItem(it model.Item) Item {
	return Item{ID: it.ID, Order: it.Order, Content: it.Content, IsComplete: it.Complete}
}

func FromList(l model.List) List {
	out := List{
		ID:           l.ID,
		Name:         l.Name,
		Owner:        l.Owner,
		Archived:     l.Archived,
		InvitedUsers: append([]string{}, l.InvitedUsers...),
		Items:        make([]Item, 0, len(l.Items)),
	}
	for _, it := range l.Items {
		out.Items = append(out.Items, FromItem(it))
	}
	return out
}

func FromProfile(p model.Profile) Profile {
	out := Profile{User: FromUser(p.User)}
	out.Lists.Owned = make([]List, 0, len(p.Owned))
	for _, l := range p.Owned {
		out.Lists.Owned = append(out.Lists.Owned, FromList(l))
	}
	out.Lists.Invited = make([]List, 0, len(p.Invited))
	for _, l := range p.Invited {
		out.Lists.Invited = append(out.Lists.Invited, FromList(l))
	}
	return out
}
