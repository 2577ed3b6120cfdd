package mock

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/idilsaglam/shoplist/internal/model"
)

// Demo accounts. They all share DemoPassword.
const (
	DemoUserID  = "7c1d4e2a-5b3f-4a61-9e0d-2f8b6c4a1d37"
	AliceUserID = "3a9e6b12-8c4d-4f7a-b215-6d0e9c3f8a44"
	BobUserID   = "e4b27c90-1f6a-4d38-a9c5-0b7d2e6f3c11"
	CarolUserID = "91f0d3c8-6a2e-4b5d-8f47-c3e1a0b9d726"

	DemoPassword = "password"
)

var demoUsers = []struct{ id, name string }{
	{DemoUserID, "demo"},
	{AliceUserID, "alice"},
	{BobUserID, "bob"},
	{CarolUserID, "carol"},
}

// NewSeeded returns a store holding the demo accounts and lists.
//
// The demo user owns four lists (two archived) and is invited to four
// others (one archived), so every owned/invited/archived view is populated.
func NewSeeded(opts ...Option) (*Store, error) {
	s := New(opts...)
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), s.hashCost)
	if err != nil {
		return nil, err
	}
	for _, u := range demoUsers {
		s.users[u.id] = &UserRecord{ID: u.id, Name: u.name, PasswordHash: string(hash)}
		s.byName[strings.ToLower(u.name)] = u.id
	}
	s.lists = seedLists()
	return s, nil
}

type seedItem struct {
	content string
	done    bool
}

func seedList(name, owner string, archived bool, invited []string, items ...seedItem) model.List {
	l := model.List{
		ID:           uuid.NewString(),
		Name:         name,
		Owner:        owner,
		Archived:     archived,
		InvitedUsers: append([]string{}, invited...),
		Items:        make([]model.Item, 0, len(items)),
	}
	for i, it := range items {
		l.Items = append(l.Items, model.Item{
			ID:       uuid.NewString(),
			Order:    i + 1,
			Content:  it.content,
			Complete: it.done,
		})
	}
	return l
}

func seedLists() []model.List {
	return []model.List{
		seedList("Weekly groceries", DemoUserID, false, []string{AliceUserID, BobUserID},
			seedItem{"Milk", false}, seedItem{"Eggs", true}, seedItem{"Bread", false}, seedItem{"Coffee", true}),
		seedList("Hardware store", CarolUserID, false, []string{DemoUserID},
			seedItem{"Screws", false}, seedItem{"Wood glue", false}),
		seedList("Old party list", DemoUserID, true, nil),
		seedList("Camping trip", BobUserID, true, []string{DemoUserID, AliceUserID},
			seedItem{"Tent", true}, seedItem{"Stove", true}, seedItem{"Matches", true},
			seedItem{"Sleeping bags", true}, seedItem{"Lantern", true}),
		seedList("Pharmacy", DemoUserID, false, []string{CarolUserID},
			seedItem{"Sunscreen", false}),
		seedList("Office snacks", AliceUserID, false, []string{DemoUserID, BobUserID, CarolUserID}),
		seedList("Holiday gifts", DemoUserID, true, []string{BobUserID},
			seedItem{"Scarf", false}, seedItem{"Book", true}, seedItem{"Puzzle", false},
			seedItem{"Candles", true}, seedItem{"Tea set", false}, seedItem{"Socks", true}),
		seedList("Bakery", CarolUserID, false, []string{DemoUserID},
			seedItem{"Croissants", true}),
	}
}
