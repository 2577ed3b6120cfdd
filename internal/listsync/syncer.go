// Package listsync keeps the current user's lists in step with the backend.
//
// A Syncer owns the local collection. It reloads it whenever the session's
// user changes and applies every mutation write-through: the backend is
// called first and, on success, its copy of the list replaces the local one.
// A failed call leaves local state as it was.
//
// Mutations on the same list are not serialized. Two calls issued before
// either returns both start from the same snapshot, and whichever response
// arrives last is what stays in the collection. Reloads behave the same way:
// a superseded reload still writes its result when it finishes.
//
// A mutation result is discarded when the session's user changed while the
// call was in flight, so one user's lists never land in another's collection.
package listsync

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/idilsaglam/shoplist/internal/backend"
	"github.com/idilsaglam/shoplist/internal/model"
	"github.com/idilsaglam/shoplist/internal/session"
)

// Selector returns the backend to use for the given remote switch.
type Selector func(remote bool) backend.Backend

// State is a snapshot of the synchronizer. Lists never aliases internal state.
type State struct {
	Lists   []model.List
	Loading bool
	Err     error
}

// Syncer is safe for concurrent use. Its lock is never held across a backend
// call or while subscribers run.
type Syncer struct {
	holder *session.Holder
	pick   Selector
	log    *zap.Logger

	mu      sync.Mutex
	lists   []model.List
	loading bool
	err     error
	subs    map[int]func(State)
	nextSub int

	reloads sync.WaitGroup
	unwatch func()
}

// New returns a Syncer that follows holder. If a session is already set, a
// first reload starts in the background; use Wait to block on it.
func New(holder *session.Holder, pick Selector, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Syncer{
		holder: holder,
		pick:   pick,
		log:    logger,
		lists:  []model.List{},
		subs:   make(map[int]func(State)),
	}
	s.unwatch = holder.Subscribe(func(prev, next *model.Session) {
		if userID(prev) != userID(next) {
			s.reloadAsync()
		}
	})
	if holder.Get() != nil {
		s.reloadAsync()
	}
	return s
}

// Close stops following the session holder.
func (s *Syncer) Close() { s.unwatch() }

// Wait blocks until every background reload started so far has finished.
func (s *Syncer) Wait() { s.reloads.Wait() }

// State returns a snapshot.
func (s *Syncer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Subscribe registers fn to receive a snapshot after every state change.
func (s *Syncer) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Session is the holder's current session, nil when logged out.
func (s *Syncer) Session() *model.Session { return s.holder.Get() }

// ---------------------------------------------------
// Reload
// ---------------------------------------------------

// Reload replaces the collection with the backend's owned and invited lists.
// Without a session it just empties the collection. A failure is kept in
// State.Err as well as returned.
func (s *Syncer) Reload(ctx context.Context) error {
	if s.holder.Get() == nil {
		s.update(func() {
			s.lists = []model.List{}
			s.loading = false
			s.err = nil
		})
		return nil
	}

	s.update(func() {
		s.loading = true
		s.err = nil
	})

	p, err := s.backend().Profile(ctx)
	if err != nil {
		s.log.Warn("listsync: reload failed", zap.Error(err))
		s.update(func() {
			s.err = err
			s.loading = false
		})
		return err
	}

	lists := make([]model.List, 0, len(p.Owned)+len(p.Invited))
	lists = append(lists, model.CloneLists(p.Owned)...)
	lists = append(lists, model.CloneLists(p.Invited)...)
	s.update(func() {
		s.lists = lists
		s.loading = false
	})
	s.log.Debug("listsync: reloaded", zap.Int("owned", len(p.Owned)), zap.Int("invited", len(p.Invited)))
	return nil
}

func (s *Syncer) reloadAsync() {
	s.reloads.Add(1)
	go func() {
		defer s.reloads.Done()
		_ = s.Reload(context.Background())
	}()
}

// ---------------------------------------------------
// Auth and profile
// ---------------------------------------------------

// Login authenticates and sets the session, which triggers a reload.
func (s *Syncer) Login(ctx context.Context, name, password string) (model.Session, error) {
	sess, err := s.backend().Login(ctx, name, password)
	if err != nil {
		return model.Session{}, err
	}
	s.holder.Set(&sess)
	return sess, nil
}

// Register creates an account and logs into it.
func (s *Syncer) Register(ctx context.Context, name, password string) (model.Session, error) {
	sess, err := s.backend().Register(ctx, name, password)
	if err != nil {
		return model.Session{}, err
	}
	s.holder.Set(&sess)
	return sess, nil
}

// Logout ends the session. A backend that no longer knows the session
// (ErrUnauthorized) still counts as logged out.
func (s *Syncer) Logout(ctx context.Context) error {
	if s.holder.Get() == nil {
		return fmt.Errorf("logout: %w", backend.ErrNotLoggedIn)
	}
	if err := s.backend().Logout(ctx); err != nil && !errors.Is(err, backend.ErrUnauthorized) {
		return err
	}
	s.holder.Set(nil)
	return nil
}

// UpdateProfile changes the user's name and/or password and keeps the
// session's name in step.
func (s *Syncer) UpdateProfile(ctx context.Context, name, password *string) (model.User, error) {
	sess := s.holder.Get()
	if sess == nil {
		return model.User{}, fmt.Errorf("update profile: %w", backend.ErrNotLoggedIn)
	}
	u, err := s.backend().UpdateProfile(ctx, name, password)
	if err != nil {
		return model.User{}, err
	}
	sess.Name = u.Name
	if name != nil {
		sess.Email = u.Name
	}
	s.holder.Set(sess)
	return u, nil
}

// DeleteProfile removes the account and logs out.
func (s *Syncer) DeleteProfile(ctx context.Context) error {
	if s.holder.Get() == nil {
		return fmt.Errorf("delete profile: %w", backend.ErrNotLoggedIn)
	}
	if err := s.backend().DeleteProfile(ctx); err != nil {
		return err
	}
	s.holder.Set(nil)
	return nil
}

// ---------------------------------------------------
// Lists
// ---------------------------------------------------

// AddList creates an empty list named model.DefaultListName and returns its id.
func (s *Syncer) AddList(ctx context.Context) (string, error) {
	sess := s.holder.Get()
	if sess == nil {
		return "", fmt.Errorf("add list: %w", backend.ErrNotLoggedIn)
	}
	l, err := s.backend().CreateList(ctx, model.DefaultListName)
	if err != nil {
		return "", err
	}
	s.put(sess.UserID, l)
	s.log.Debug("listsync: list added", zap.String("list", l.ID))
	return l.ID, nil
}

// RemoveList deletes a list. Ownership is left to the backend to enforce.
func (s *Syncer) RemoveList(ctx context.Context, listID string) error {
	t, err := s.target("remove list", listID)
	if err != nil {
		return err
	}
	if err := t.b.DeleteList(ctx, listID); err != nil {
		return err
	}
	s.drop(t.uid, listID)
	s.log.Debug("listsync: list removed", zap.String("list", listID))
	return nil
}

// UpdateList sends the name, owner and archived flag that fn produces from
// the current list. Items and collaborators have dedicated operations.
func (s *Syncer) UpdateList(ctx context.Context, listID string, fn func(model.List) model.List) error {
	t, err := s.target("update list", listID)
	if err != nil {
		return err
	}
	return s.patch(ctx, t, fn)
}

// EditList renames the list and/or hands it to another owner. Owner only.
func (s *Syncer) EditList(ctx context.Context, listID string, name, owner *string) error {
	t, err := s.ownerTarget("edit list", listID)
	if err != nil {
		return err
	}
	return s.patch(ctx, t, func(l model.List) model.List {
		if name != nil {
			l.Name = *name
		}
		if owner != nil {
			l.Owner = *owner
		}
		return l
	})
}

// SetArchived archives or restores the list. Owner only.
func (s *Syncer) SetArchived(ctx context.Context, listID string, archived bool) error {
	t, err := s.ownerTarget("set archived", listID)
	if err != nil {
		return err
	}
	return s.patch(ctx, t, func(l model.List) model.List {
		l.Archived = archived
		return l
	})
}

// AddUser invites userID. Owner only; ErrAlreadyInvited when already there.
func (s *Syncer) AddUser(ctx context.Context, listID, userID string) error {
	t, err := s.ownerTarget("add user", listID)
	if err != nil {
		return err
	}
	if t.list.IsInvited(userID) {
		return fmt.Errorf("add user: %w", backend.ErrAlreadyInvited)
	}
	l, err := t.b.AddCollaborator(ctx, listID, userID)
	if err != nil {
		return err
	}
	s.put(t.uid, l)
	return nil
}

// RemoveUser revokes userID's invitation. Owner only.
func (s *Syncer) RemoveUser(ctx context.Context, listID, userID string) error {
	t, err := s.ownerTarget("remove user", listID)
	if err != nil {
		return err
	}
	l, err := t.b.RemoveCollaborator(ctx, listID, userID)
	if err != nil {
		return err
	}
	s.put(t.uid, l)
	return nil
}

// RemoveSelf leaves a list the caller was invited to and drops it locally.
func (s *Syncer) RemoveSelf(ctx context.Context, listID string) error {
	t, err := s.target("remove self", listID)
	if err != nil {
		return err
	}
	if t.list.OwnedBy(t.uid) {
		return fmt.Errorf("remove self: owner cannot leave: %w", backend.ErrBadRequest)
	}
	if err := t.b.Leave(ctx, listID); err != nil {
		return err
	}
	s.drop(t.uid, listID)
	return nil
}

// GetList is a cache read; it never touches the backend.
func (s *Syncer) GetList(listID string) (model.List, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(listID)
	if i < 0 {
		return model.List{}, false
	}
	return s.lists[i].Clone(), true
}

// FetchList reads a list from the backend without touching local state.
func (s *Syncer) FetchList(ctx context.Context, listID string) (model.List, error) {
	if s.holder.Get() == nil {
		return model.List{}, fmt.Errorf("fetch list: %w", backend.ErrNotLoggedIn)
	}
	return s.backend().GetList(ctx, listID)
}

// ---------------------------------------------------
// Items
// ---------------------------------------------------

// AddItem appends an item with order = current item count + 1.
func (s *Syncer) AddItem(ctx context.Context, listID, content string) error {
	t, err := s.target("add item", listID)
	if err != nil {
		return err
	}
	l, err := t.b.CreateItem(ctx, listID, t.list.NextOrder(), content)
	if err != nil {
		return err
	}
	s.put(t.uid, l)
	return nil
}

// SetItemCompleted marks an item done.
func (s *Syncer) SetItemCompleted(ctx context.Context, listID, itemID string) error {
	return s.setItem(ctx, listID, itemID, true)
}

// SetItemIncomplete marks an item not done.
func (s *Syncer) SetItemIncomplete(ctx context.Context, listID, itemID string) error {
	return s.setItem(ctx, listID, itemID, false)
}

// RemoveItem deletes an item, then refreshes the list from the backend. When
// the refresh fails the item is filtered out of the local copy instead.
func (s *Syncer) RemoveItem(ctx context.Context, listID, itemID string) error {
	t, err := s.target("remove item", listID)
	if err != nil {
		return err
	}
	if _, ok := t.list.FindItem(itemID); !ok {
		return fmt.Errorf("remove item: %w", backend.ErrNotFound)
	}
	if err := t.b.DeleteItem(ctx, itemID); err != nil {
		return err
	}
	l, err := t.b.GetList(ctx, listID)
	if err != nil {
		s.log.Debug("listsync: refresh after item delete failed", zap.String("list", listID), zap.Error(err))
		s.update(func() {
			if s.stale(t.uid, listID) {
				return
			}
			if i := s.indexOf(listID); i >= 0 {
				s.lists[i].Items = slices.DeleteFunc(s.lists[i].Items, func(it model.Item) bool { return it.ID == itemID })
			}
		})
		return nil
	}
	s.put(t.uid, l)
	return nil
}

// FetchItem reads an item from the backend without touching local state.
func (s *Syncer) FetchItem(ctx context.Context, itemID string) (model.Item, error) {
	if s.holder.Get() == nil {
		return model.Item{}, fmt.Errorf("fetch item: %w", backend.ErrNotLoggedIn)
	}
	return s.backend().GetItem(ctx, itemID)
}

func (s *Syncer) setItem(ctx context.Context, listID, itemID string, complete bool) error {
	t, err := s.target("set item", listID)
	if err != nil {
		return err
	}
	if _, ok := t.list.FindItem(itemID); !ok {
		return fmt.Errorf("set item: %w", backend.ErrNotFound)
	}
	l, err := t.b.SetItemCompletion(ctx, itemID, complete)
	if err != nil {
		return err
	}
	s.put(t.uid, l)
	return nil
}

// ---------------------------------------------------
// internals
// ---------------------------------------------------

// target is a mutation's view of the world at the moment it starts.
type target struct {
	uid  string
	list model.List
	b    backend.Backend
}

func (s *Syncer) target(op, listID string) (target, error) {
	sess := s.holder.Get()
	if sess == nil {
		return target{}, fmt.Errorf("%s: %w", op, backend.ErrNotLoggedIn)
	}
	l, ok := s.GetList(listID)
	if !ok {
		return target{}, fmt.Errorf("%s: %w", op, backend.ErrNotFound)
	}
	return target{uid: sess.UserID, list: l, b: s.backend()}, nil
}

func (s *Syncer) ownerTarget(op, listID string) (target, error) {
	t, err := s.target(op, listID)
	if err != nil {
		return target{}, err
	}
	if !t.list.OwnedBy(t.uid) {
		return target{}, fmt.Errorf("%s: %w", op, backend.ErrNotAuthorized)
	}
	return t, nil
}

func (s *Syncer) patch(ctx context.Context, t target, fn func(model.List) model.List) error {
	next := fn(t.list.Clone())
	l, err := t.b.UpdateList(ctx, t.list.ID, backend.PatchFor(next))
	if err != nil {
		return err
	}
	s.put(t.uid, l)
	s.log.Debug("listsync: list updated", zap.String("list", l.ID))
	return nil
}

func (s *Syncer) backend() backend.Backend {
	return s.pick(s.holder.RemoteEnabled())
}

// put stores the backend's copy of l, or drops it when uid can no longer see it.
func (s *Syncer) put(uid string, l model.List) {
	l = l.Clone()
	s.update(func() {
		if s.stale(uid, l.ID) {
			return
		}
		i := s.indexOf(l.ID)
		switch {
		case !l.VisibleTo(uid):
			if i >= 0 {
				s.lists = slices.Delete(s.lists, i, i+1)
			}
		case i >= 0:
			s.lists[i] = l
		default:
			s.lists = append(s.lists, l)
		}
	})
}

func (s *Syncer) drop(uid, listID string) {
	s.update(func() {
		if s.stale(uid, listID) {
			return
		}
		s.lists = slices.DeleteFunc(s.lists, func(l model.List) bool { return l.ID == listID })
	})
}

// stale reports whether a result obtained for uid arrived after the session
// moved to another user. Caller holds s.mu.
func (s *Syncer) stale(uid, listID string) bool {
	if s.holder.UserID() == uid {
		return false
	}
	s.log.Debug("listsync: result from previous session discarded", zap.String("list", listID))
	return true
}

// update runs fn under the lock, then notifies subscribers outside it.
func (s *Syncer) update(fn func()) {
	s.mu.Lock()
	fn()
	st := s.snapshot()
	subs := make([]func(State), 0, len(s.subs))
	for id := 0; id < s.nextSub; id++ {
		if f, ok := s.subs[id]; ok {
			subs = append(subs, f)
		}
	}
	s.mu.Unlock()

	for _, f := range subs {
		f(st)
	}
}

// snapshot copies the state. Caller holds s.mu.
func (s *Syncer) snapshot() State {
	return State{Lists: model.CloneLists(s.lists), Loading: s.loading, Err: s.err}
}

// indexOf finds a list in s.lists. Caller holds s.mu.
func (s *Syncer) indexOf(listID string) int {
	return slices.IndexFunc(s.lists, func(l model.List) bool { return l.ID == listID })
}

func userID(sess *model.Session) string {
	if sess == nil {
		return ""
	}
	return sess.UserID
}
