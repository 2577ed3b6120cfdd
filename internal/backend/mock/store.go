// Package mock is the in-memory stand-in for the list backend.
//
// A Store holds one shared data set and enforces the same ownership and
// visibility rules as the HTTP API. A Client is a single logged-in
// conversation with a Store and implements backend.Backend, so the
// synchronizer works unchanged when remote access is disabled.
package mock

import (
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/idilsaglam/shoplist/internal/backend"
	"github.com/idilsaglam/shoplist/internal/model"
)

// UserRecord is an account with its bcrypt password hash.
type UserRecord struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PasswordHash string `json:"password_hash"`
}

// Dataset is the serializable content of a Store.
type Dataset struct {
	Users []UserRecord `json:"users"`
	Lists []model.List `json:"lists"`
}

// Store is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	hashCost int
	users    map[string]*UserRecord // by id
	byName   map[string]string      // lower-cased name -> id
	lists    []model.List           // creation order
}

// Option configures a Store.
type Option func(*Store)

// WithHashCost sets the bcrypt cost used for new passwords.
func WithHashCost(cost int) Option {
	return func(s *Store) { s.hashCost = cost }
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		hashCost: bcrypt.DefaultCost,
		users:    make(map[string]*UserRecord),
		byName:   make(map[string]string),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ---------------------------------------------------
// Accounts
// ---------------------------------------------------

// Register creates an account. Names are unique, case-insensitively.
func (s *Store) Register(name, password string) (model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return model.User{}, backend.ErrBadRequest
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return model.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byName[strings.ToLower(name)]; taken {
		return model.User{}, backend.ErrConflict
	}
	u := &UserRecord{ID: uuid.NewString(), Name: name, PasswordHash: string(hash)}
	s.users[u.ID] = u
	s.byName[strings.ToLower(name)] = u.ID
	return model.User{ID: u.ID, Name: u.Name}, nil
}

// Authenticate checks a name/password pair.
func (s *Store) Authenticate(name, password string) (model.User, error) {
	s.mu.Lock()
	id, ok := s.byName[strings.ToLower(strings.TrimSpace(name))]
	var u UserRecord
	if ok {
		u = *s.users[id]
	}
	s.mu.Unlock()

	if !ok {
		return model.User{}, backend.ErrNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return model.User{}, backend.ErrUnauthorized
	}
	return model.User{ID: u.ID, Name: u.Name}, nil
}

// User looks an account up by id.
func (s *Store) User(id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, backend.ErrNotFound
	}
	return model.User{ID: u.ID, Name: u.Name}, nil
}

// UpdateUser changes the caller's name and/or password. Nil leaves a field alone.
func (s *Store) UpdateUser(caller string, name, password *string) (model.User, error) {
	var hash []byte
	if password != nil {
		if *password == "" {
			return model.User{}, backend.ErrBadRequest
		}
		h, err := bcrypt.GenerateFromPassword([]byte(*password), s.hashCost)
		if err != nil {
			return model.User{}, err
		}
		hash = h
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[caller]
	if !ok {
		return model.User{}, backend.ErrUnauthorized
	}
	if name != nil {
		n := strings.TrimSpace(*name)
		if n == "" {
			return model.User{}, backend.ErrBadRequest
		}
		if other, taken := s.byName[strings.ToLower(n)]; taken && other != caller {
			return model.User{}, backend.ErrConflict
		}
		delete(s.byName, strings.ToLower(u.Name))
		u.Name = n
		s.byName[strings.ToLower(n)] = u.ID
	}
	if hash != nil {
		u.PasswordHash = string(hash)
	}
	return model.User{ID: u.ID, Name: u.Name}, nil
}

// DeleteUser removes the caller, every list they own and every invitation they hold.
func (s *Store) DeleteUser(caller string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[caller]
	if !ok {
		return backend.ErrUnauthorized
	}
	delete(s.users, caller)
	delete(s.byName, strings.ToLower(u.Name))

	kept := s.lists[:0]
	for _, l := range s.lists {
		if l.Owner == caller {
			continue
		}
		l.InvitedUsers = slices.DeleteFunc(l.InvitedUsers, func(id string) bool { return id == caller })
		kept = append(kept, l)
	}
	s.lists = kept
	return nil
}

// Profile is the bulk load: the caller plus every list they own or are invited to.
func (s *Store) Profile(caller string) (model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[caller]
	if !ok {
		return model.Profile{}, backend.ErrUnauthorized
	}
	p := model.Profile{
		User:    model.User{ID: u.ID, Name: u.Name},
		Owned:   []model.List{},
		Invited: []model.List{},
	}
	for _, l := range s.lists {
		switch {
		case l.OwnedBy(caller):
			p.Owned = append(p.Owned, l.Clone())
		case l.IsInvited(caller):
			p.Invited = append(p.Invited, l.Clone())
		}
	}
	return p, nil
}

// ---------------------------------------------------
// Lists
// ---------------------------------------------------

// CreateList adds an empty list owned by the caller.
func (s *Store) CreateList(caller, name string) (model.List, error) {
	if strings.TrimSpace(name) == "" {
		name = model.DefaultListName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[caller]; !ok {
		return model.List{}, backend.ErrUnauthorized
	}
	l := model.List{
		ID:           uuid.NewString(),
		Name:         name,
		Owner:        caller,
		InvitedUsers: []string{},
		Items:        []model.Item{},
	}
	s.lists = append(s.lists, l)
	return l.Clone(), nil
}

// GetList returns a list the caller can see.
func (s *Store) GetList(caller, id string) (model.List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.visible(caller, id)
	if err != nil {
		return model.List{}, err
	}
	return l.Clone(), nil
}

// UpdateList applies the generic patch. Owner only.
//
// Transferring ownership removes the new owner from the collaborator set and
// keeps the previous owner on the list as a collaborator.
func (s *Store) UpdateList(caller, id string, patch backend.ListPatch) (model.List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.owned(caller, id)
	if err != nil {
		return model.List{}, err
	}
	if patch.Owner != "" && patch.Owner != l.Owner {
		if _, ok := s.users[patch.Owner]; !ok {
			return model.List{}, backend.ErrNotFound
		}
		prev := l.Owner
		l.Owner = patch.Owner
		l.InvitedUsers = slices.DeleteFunc(l.InvitedUsers, func(u string) bool { return u == patch.Owner })
		if !slices.Contains(l.InvitedUsers, prev) {
			l.InvitedUsers = append(l.InvitedUsers, prev)
		}
	}
	if strings.TrimSpace(patch.Name) != "" {
		l.Name = patch.Name
	}
	l.Archived = patch.Archived
	return l.Clone(), nil
}

// DeleteList removes a list. Owner only.
func (s *Store) DeleteList(caller, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.owned(caller, id); err != nil {
		return err
	}
	s.lists = slices.DeleteFunc(s.lists, func(l model.List) bool { return l.ID == id })
	return nil
}

// AddCollaborator invites userID. Owner only; inviting someone twice is a no-op.
func (s *Store) AddCollaborator(caller, listID, userID string) (model.List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.owned(caller, listID)
	if err != nil {
		return model.List{}, err
	}
	if userID == caller || userID == "" {
		return model.List{}, backend.ErrBadRequest
	}
	if _, ok := s.users[userID]; !ok {
		return model.List{}, backend.ErrNotFound
	}
	if !slices.Contains(l.InvitedUsers, userID) {
		l.InvitedUsers = append(l.InvitedUsers, userID)
	}
	return l.Clone(), nil
}

// RemoveCollaborator revokes userID's invitation. Owner only, never the caller.
func (s *Store) RemoveCollaborator(caller, listID, userID string) (model.List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.owned(caller, listID)
	if err != nil {
		return model.List{}, err
	}
	if userID == caller {
		return model.List{}, backend.ErrBadRequest
	}
	l.InvitedUsers = slices.DeleteFunc(l.InvitedUsers, func(u string) bool { return u == userID })
	return l.Clone(), nil
}

// Leave removes the caller from a list they were invited to.
func (s *Store) Leave(caller, listID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.visible(caller, listID)
	if err != nil {
		return err
	}
	if l.OwnedBy(caller) {
		return backend.ErrBadRequest
	}
	l.InvitedUsers = slices.DeleteFunc(l.InvitedUsers, func(u string) bool { return u == caller })
	return nil
}

// ---------------------------------------------------
// Items
// ---------------------------------------------------

// CreateItem appends an item and returns the whole list. A non-positive order
// is replaced with the next free position.
func (s *Store) CreateItem(caller, listID string, order int, content string) (model.List, error) {
	if strings.TrimSpace(content) == "" {
		return model.List{}, backend.ErrBadRequest
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.visible(caller, listID)
	if err != nil {
		return model.List{}, err
	}
	if order <= 0 {
		order = l.NextOrder()
	}
	l.Items = append(l.Items, model.Item{ID: uuid.NewString(), Order: order, Content: content})
	return l.Clone(), nil
}

// GetItem returns an item from a list the caller can see.
func (s *Store) GetItem(caller, id string) (model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, idx, err := s.itemList(caller, id)
	if err != nil {
		return model.Item{}, err
	}
	return l.Items[idx], nil
}

// SetItemCompletion flips an item's flag and returns the whole list.
func (s *Store) SetItemCompletion(caller, id string, complete bool) (model.List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, idx, err := s.itemList(caller, id)
	if err != nil {
		return model.List{}, err
	}
	l.Items[idx].Complete = complete
	return l.Clone(), nil
}

// DeleteItem removes an item. Remaining items keep their order.
func (s *Store) DeleteItem(caller, id string) (model.List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, idx, err := s.itemList(caller, id)
	if err != nil {
		return model.List{}, err
	}
	l.Items = slices.Delete(l.Items, idx, idx+1)
	return l.Clone(), nil
}

// ---------------------------------------------------
// Persistence
// ---------------------------------------------------

// Snapshot copies the whole data set.
func (s *Store) Snapshot() Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	ds := Dataset{Users: make([]UserRecord, 0, len(s.users)), Lists: model.CloneLists(s.lists)}
	for _, u := range s.users {
		ds.Users = append(ds.Users, *u)
	}
	slices.SortFunc(ds.Users, func(a, b UserRecord) int { return strings.Compare(a.Name, b.Name) })
	return ds
}

// Restore replaces the data set.
func (s *Store) Restore(ds Dataset) error {
	users := make(map[string]*UserRecord, len(ds.Users))
	byName := make(map[string]string, len(ds.Users))
	for i := range ds.Users {
		u := ds.Users[i]
		if u.ID == "" || u.Name == "" {
			return errors.New("restore: user without id or name")
		}
		users[u.ID] = &u
		byName[strings.ToLower(u.Name)] = u.ID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = users
	s.byName = byName
	s.lists = model.CloneLists(ds.Lists)
	return nil
}

// ---------------------------------------------------
// lookups (caller holds s.mu)
// ---------------------------------------------------

func (s *Store) find(id string) (*model.List, error) {
	for i := range s.lists {
		if s.lists[i].ID == id {
			return &s.lists[i], nil
		}
	}
	return nil, backend.ErrNotFound
}

func (s *Store) visible(caller, id string) (*model.List, error) {
	if _, ok := s.users[caller]; !ok {
		return nil, backend.ErrUnauthorized
	}
	l, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if !l.VisibleTo(caller) {
		return nil, backend.ErrUnauthorized
	}
	return l, nil
}

func (s *Store) owned(caller, id string) (*model.List, error) {
	l, err := s.visible(caller, id)
	if err != nil {
		return nil, err
	}
	if !l.OwnedBy(caller) {
		return nil, backend.ErrUnauthorized
	}
	return l, nil
}

func (s *Store) itemList(caller, itemID string) (*model.List, int, error) {
	if _, ok := s.users[caller]; !ok {
		return nil, 0, backend.ErrUnauthorized
	}
	for i := range s.lists {
		l := &s.lists[i]
		for j := range l.Items {
			if l.Items[j].ID != itemID {
				continue
			}
			if !l.VisibleTo(caller) {
				return nil, 0, backend.ErrUnauthorized
			}
			return l, j, nil
		}
	}
	return nil, 0, backend.ErrNotFound
}
