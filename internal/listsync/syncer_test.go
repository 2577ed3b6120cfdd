package listsync_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/idilsaglam/shoplist/internal/backend"
	"github.com/idilsaglam/shoplist/internal/backend/mock"
	"github.com/idilsaglam/shoplist/internal/listsync"
	"github.com/idilsaglam/shoplist/internal/model"
	"github.com/idilsaglam/shoplist/internal/session"
	"github.com/idilsaglam/shoplist/internal/views"
)

type fixture struct {
	store *mock.Store
	sync  *listsync.Syncer
}

func newStore(t *testing.T) *mock.Store {
	t.Helper()
	s, err := mock.NewSeeded(mock.WithHashCost(bcrypt.MinCost))
	if err != nil {
		t.Fatalf("NewSeeded failed: %v", err)
	}
	return s
}

// newFixture returns a syncer over its own mock client, logged in as user.
func newFixture(t *testing.T, store *mock.Store, user string) fixture {
	t.Helper()
	return newFixtureWith(t, store, user, mock.NewClient(store))
}

func newFixtureWith(t *testing.T, store *mock.Store, user string, b backend.Backend) fixture {
	t.Helper()
	holder := session.NewHolder(false)
	s := listsync.New(holder, func(bool) backend.Backend { return b }, zap.NewNop())
	t.Cleanup(s.Close)
	if user != "" {
		if _, err := s.Login(context.Background(), user, mock.DemoPassword); err != nil {
			t.Fatalf("login %s: %v", user, err)
		}
		s.Wait()
	}
	return fixture{store: store, sync: s}
}

func listNamed(t *testing.T, s *listsync.Syncer, name string) model.List {
	t.Helper()
	for _, l := range s.State().Lists {
		if l.Name == name {
			return l
		}
	}
	t.Fatalf("list %q not in local state", name)
	return model.List{}
}

func TestReload_OnLogin(t *testing.T) {
	f := newFixture(t, newStore(t), "demo")

	st := f.sync.State()
	if st.Loading || st.Err != nil {
		t.Fatalf("state after reload: loading=%v err=%v", st.Loading, st.Err)
	}
	if len(st.Lists) != 8 {
		t.Fatalf("lists: got %d, want 8", len(st.Lists))
	}
	// owned first, then invited
	for i, l := range st.Lists {
		owned := l.OwnedBy(mock.DemoUserID)
		if i < 4 && !owned || i >= 4 && owned {
			t.Errorf("list %d (%q) out of owned/invited order", i, l.Name)
		}
	}
}

func TestReload_LogoutClears(t *testing.T) {
	f := newFixture(t, newStore(t), "demo")

	if err := f.sync.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	f.sync.Wait()

	st := f.sync.State()
	if len(st.Lists) != 0 || st.Loading {
		t.Errorf("after logout: %d lists, loading=%v", len(st.Lists), st.Loading)
	}
	if f.sync.Session() != nil {
		t.Errorf("session should be cleared")
	}
}

func TestReload_FailureIsKept(t *testing.T) {
	store := newStore(t)
	client := mock.NewClient(store)
	f := newFixtureWith(t, store, "demo", client)

	// the store forgets the user behind the client's back
	if err := store.DeleteUser(mock.DemoUserID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	err := f.sync.Reload(context.Background())
	if !errors.Is(err, backend.ErrUnauthorized) {
		t.Fatalf("got %v, want ErrUnauthorized", err)
	}
	st := f.sync.State()
	if !errors.Is(st.Err, backend.ErrUnauthorized) || st.Loading {
		t.Errorf("state: err=%v loading=%v", st.Err, st.Loading)
	}
}

func TestReload_LogoutClearsFailure(t *testing.T) {
	store := newStore(t)
	f := newFixtureWith(t, store, "demo", mock.NewClient(store))

	if err := store.DeleteUser(mock.DemoUserID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if err := f.sync.Reload(context.Background()); err == nil {
		t.Fatalf("reload should fail for a deleted user")
	}
	if err := f.sync.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	f.sync.Wait()

	st := f.sync.State()
	if st.Err != nil {
		t.Errorf("Err after logout: got %v, want nil", st.Err)
	}
	if len(st.Lists) != 0 || st.Loading {
		t.Errorf("after logout: %d lists, loading=%v", len(st.Lists), st.Loading)
	}
}

func TestReload_NotifiesLoading(t *testing.T) {
	f := newFixture(t, newStore(t), "")

	var mu sync.Mutex
	var seen []bool
	f.sync.Subscribe(func(st listsync.State) {
		mu.Lock()
		seen = append(seen, st.Loading)
		mu.Unlock()
	})
	if _, err := f.sync.Login(context.Background(), "demo", mock.DemoPassword); err != nil {
		t.Fatalf("login: %v", err)
	}
	f.sync.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) < 2 || !seen[0] || seen[len(seen)-1] {
		t.Errorf("loading transitions: got %v, want true ... false", seen)
	}
}

func TestMutations_RequireSession(t *testing.T) {
	f := newFixture(t, newStore(t), "")
	ctx := context.Background()

	if _, err := f.sync.AddList(ctx); !errors.Is(err, backend.ErrNotLoggedIn) {
		t.Errorf("AddList: got %v, want ErrNotLoggedIn", err)
	}
	if err := f.sync.AddItem(ctx, "l1", "milk"); !errors.Is(err, backend.ErrNotLoggedIn) {
		t.Errorf("AddItem: got %v, want ErrNotLoggedIn", err)
	}
	if _, err := f.sync.FetchList(ctx, "l1"); !errors.Is(err, backend.ErrNotLoggedIn) {
		t.Errorf("FetchList: got %v, want ErrNotLoggedIn", err)
	}
}

func TestMutations_UnknownList(t *testing.T) {
	f := newFixture(t, newStore(t), "demo")
	if err := f.sync.SetArchived(context.Background(), "missing", true); !errors.Is(err, backend.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestAddList(t *testing.T) {
	f := newFixture(t, newStore(t), "demo")

	id, err := f.sync.AddList(context.Background())
	if err != nil {
		t.Fatalf("AddList: %v", err)
	}
	l, ok := f.sync.GetList(id)
	if !ok {
		t.Fatalf("new list not in local state")
	}
	if l.Name != model.DefaultListName || l.Owner != mock.DemoUserID || l.Archived {
		t.Errorf("new list: %+v", l)
	}
	if len(l.Items) != 0 || len(l.InvitedUsers) != 0 {
		t.Errorf("new list should be empty: %+v", l)
	}
}

func TestAddItem_OrderAndRemoval(t *testing.T) {
	f := newFixture(t, newStore(t), "demo")
	ctx := context.Background()

	id, _ := f.sync.AddList(ctx)
	for _, c := range []string{"bread", "eggs"} {
		if err := f.sync.AddItem(ctx, id, c); err != nil {
			t.Fatalf("AddItem %s: %v", c, err)
		}
	}
	if err := f.sync.AddItem(ctx, id, "milk"); err != nil {
		t.Fatalf("AddItem milk: %v", err)
	}
	l, _ := f.sync.GetList(id)
	if len(l.Items) != 3 || l.Items[2].Content != "milk" || l.Items[2].Order != 3 {
		t.Fatalf("items: %+v", l.Items)
	}

	if err := f.sync.RemoveItem(ctx, id, l.Items[0].ID); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	l, _ = f.sync.GetList(id)
	if len(l.Items) != 2 || l.Items[0].Order != 2 || l.Items[1].Order != 3 {
		t.Errorf("orders after removal: %+v", l.Items)
	}

	if err := f.sync.RemoveItem(ctx, id, "missing"); !errors.Is(err, backend.ErrNotFound) {
		t.Errorf("missing item: got %v, want ErrNotFound", err)
	}
}

func TestSetItemCompletion(t *testing.T) {
	f := newFixture(t, newStore(t), "demo")
	ctx := context.Background()
	l := listNamed(t, f.sync, "Weekly groceries")
	milk := l.Items[0]

	if err := f.sync.SetItemCompleted(ctx, l.ID, milk.ID); err != nil {
		t.Fatalf("SetItemCompleted: %v", err)
	}
	got, _ := f.sync.GetList(l.ID)
	if it, _ := got.FindItem(milk.ID); !it.Complete {
		t.Errorf("item should be complete")
	}
	if err := f.sync.SetItemIncomplete(ctx, l.ID, milk.ID); err != nil {
		t.Fatalf("SetItemIncomplete: %v", err)
	}
	got, _ = f.sync.GetList(l.ID)
	if it, _ := got.FindItem(milk.ID); it.Complete {
		t.Errorf("item should be incomplete")
	}
	if err := f.sync.SetItemCompleted(ctx, l.ID, "missing"); !errors.Is(err, backend.ErrNotFound) {
		t.Errorf("missing item: got %v, want ErrNotFound", err)
	}
}

func TestAddUser_NoDuplicates(t *testing.T) {
	f := newFixture(t, newStore(t), "demo")
	ctx := context.Background()
	id, _ := f.sync.AddList(ctx)

	if err := f.sync.AddUser(ctx, id, mock.BobUserID); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	before, _ := f.sync.GetList(id)
	if err := f.sync.AddUser(ctx, id, mock.BobUserID); !errors.Is(err, backend.ErrAlreadyInvited) {
		t.Errorf("second invite: got %v, want ErrAlreadyInvited", err)
	}
	after, _ := f.sync.GetList(id)
	n := 0
	for _, u := range after.InvitedUsers {
		if u == mock.BobUserID {
			n++
		}
	}
	if n != 1 || len(after.InvitedUsers) != len(before.InvitedUsers) {
		t.Errorf("InvitedUsers: got %v", after.InvitedUsers)
	}

	if err := f.sync.RemoveUser(ctx, id, mock.BobUserID); err != nil {
		t.Fatalf("RemoveUser: %v", err)
	}
	if l, _ := f.sync.GetList(id); l.IsInvited(mock.BobUserID) {
		t.Errorf("bob still invited")
	}
}

func TestOwnerOnly_NonOwnerChangesNothing(t *testing.T) {
	store := newStore(t)
	f := newFixture(t, store, "bob")
	ctx := context.Background()
	l := listNamed(t, f.sync, "Weekly groceries") // owned by demo, bob invited

	name := "hijacked"
	checks := map[string]error{
		"edit":     f.sync.EditList(ctx, l.ID, &name, nil),
		"archive":  f.sync.SetArchived(ctx, l.ID, true),
		"invite":   f.sync.AddUser(ctx, l.ID, mock.CarolUserID),
		"uninvite": f.sync.RemoveUser(ctx, l.ID, mock.AliceUserID),
	}
	for op, err := range checks {
		if !errors.Is(err, backend.ErrNotAuthorized) {
			t.Errorf("%s: got %v, want ErrNotAuthorized", op, err)
		}
	}
	if err := f.sync.RemoveList(ctx, l.ID); !errors.Is(err, backend.ErrUnauthorized) {
		t.Errorf("delete: got %v, want ErrUnauthorized from the backend", err)
	}

	local, ok := f.sync.GetList(l.ID)
	if !ok || local.Name != l.Name || local.Archived != l.Archived || len(local.InvitedUsers) != len(l.InvitedUsers) {
		t.Errorf("local list changed: %+v", local)
	}
	remote, err := store.GetList(mock.DemoUserID, l.ID)
	if err != nil {
		t.Fatalf("store.GetList: %v", err)
	}
	if remote.Name != l.Name || remote.Archived || len(remote.InvitedUsers) != 2 {
		t.Errorf("stored list changed: %+v", remote)
	}
}

func TestEditList_RenameAndTransfer(t *testing.T) {
	f := newFixture(t, newStore(t), "demo")
	ctx := context.Background()
	id, _ := f.sync.AddList(ctx)

	name := "Dinner party"
	if err := f.sync.EditList(ctx, id, &name, nil); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if l, _ := f.sync.GetList(id); l.Name != name {
		t.Errorf("Name: got %q, want %q", l.Name, name)
	}

	owner := mock.AliceUserID
	if err := f.sync.EditList(ctx, id, nil, &owner); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	l, ok := f.sync.GetList(id)
	if !ok {
		t.Fatalf("list dropped although the previous owner stays a collaborator")
	}
	if l.Owner != mock.AliceUserID || l.IsInvited(mock.AliceUserID) || !l.IsInvited(mock.DemoUserID) {
		t.Errorf("after transfer: %+v", l)
	}
	if err := f.sync.SetArchived(ctx, id, true); !errors.Is(err, backend.ErrNotAuthorized) {
		t.Errorf("former owner archiving: got %v, want ErrNotAuthorized", err)
	}
}

func TestUpdateList_Generic(t *testing.T) {
	f := newFixture(t, newStore(t), "demo")
	ctx := context.Background()
	id, _ := f.sync.AddList(ctx)

	err := f.sync.UpdateList(ctx, id, func(l model.List) model.List {
		l.Name = "Generic"
		l.Archived = true
		l.Items = append(l.Items, model.Item{ID: "ignored", Content: "not sent"})
		return l
	})
	if err != nil {
		t.Fatalf("UpdateList: %v", err)
	}
	l, _ := f.sync.GetList(id)
	if l.Name != "Generic" || !l.Archived {
		t.Errorf("patched: %+v", l)
	}
	if len(l.Items) != 0 {
		t.Errorf("items are not part of the generic patch: %+v", l.Items)
	}
}

func TestRemoveSelf(t *testing.T) {
	store := newStore(t)
	f := newFixture(t, store, "bob")
	ctx := context.Background()
	l := listNamed(t, f.sync, "Weekly groceries")

	if err := f.sync.RemoveSelf(ctx, l.ID); err != nil {
		t.Fatalf("RemoveSelf: %v", err)
	}
	if _, ok := f.sync.GetList(l.ID); ok {
		t.Errorf("list still in local state")
	}
	stored, _ := store.GetList(mock.DemoUserID, l.ID)
	if stored.IsInvited(mock.BobUserID) {
		t.Errorf("bob still in InvitedUsers")
	}

	owned := listNamed(t, f.sync, "Camping trip")
	if err := f.sync.RemoveSelf(ctx, owned.ID); !errors.Is(err, backend.ErrBadRequest) {
		t.Errorf("owner leaving: got %v, want ErrBadRequest", err)
	}
}

func TestRemoveList(t *testing.T) {
	f := newFixture(t, newStore(t), "demo")
	ctx := context.Background()
	id, _ := f.sync.AddList(ctx)

	if err := f.sync.RemoveList(ctx, id); err != nil {
		t.Fatalf("RemoveList: %v", err)
	}
	if _, ok := f.sync.GetList(id); ok {
		t.Errorf("list still present")
	}
	if _, err := f.sync.FetchList(ctx, id); !errors.Is(err, backend.ErrNotFound) {
		t.Errorf("FetchList: got %v, want ErrNotFound", err)
	}
}

func TestFetchItem(t *testing.T) {
	f := newFixture(t, newStore(t), "demo")
	l := listNamed(t, f.sync, "Pharmacy")

	it, err := f.sync.FetchItem(context.Background(), l.Items[0].ID)
	if err != nil {
		t.Fatalf("FetchItem: %v", err)
	}
	if it.Content != "Sunscreen" {
		t.Errorf("Content: got %q", it.Content)
	}
}

func TestFailedMutationLeavesStateAlone(t *testing.T) {
	f := newFixture(t, newStore(t), "demo")
	ctx := context.Background()
	l := listNamed(t, f.sync, "Weekly groceries")
	before := f.sync.State()

	if err := f.sync.AddItem(ctx, l.ID, "   "); !errors.Is(err, backend.ErrBadRequest) {
		t.Fatalf("blank item: got %v, want ErrBadRequest", err)
	}
	after := f.sync.State()
	if len(after.Lists) != len(before.Lists) {
		t.Fatalf("list count changed")
	}
	got, _ := f.sync.GetList(l.ID)
	if len(got.Items) != len(l.Items) {
		t.Errorf("items changed: %+v", got.Items)
	}
}

func TestUpdateProfile_KeepsSessionInStep(t *testing.T) {
	f := newFixture(t, newStore(t), "demo")
	name := "demo2"
	if _, err := f.sync.UpdateProfile(context.Background(), &name, nil); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if s := f.sync.Session(); s == nil || s.Name != "demo2" || s.UserID != mock.DemoUserID {
		t.Errorf("session: %+v", s)
	}
}

func TestViews_PartitionState(t *testing.T) {
	f := newFixture(t, newStore(t), "demo")
	st := f.sync.State()

	v := views.Split(st.Lists, mock.DemoUserID)
	if len(v.Owned) != 2 || len(v.Invited) != 3 || len(v.Archived) != 3 {
		t.Errorf("split: %d owned, %d invited, %d archived", len(v.Owned), len(v.Invited), len(v.Archived))
	}
}

// gated wraps a backend so a test decides when SetItemCompletion returns.
type gated struct {
	backend.Backend
	mu    sync.Mutex
	gates map[string]chan struct{}
	ran   map[string]chan struct{}
}

func (g *gated) SetItemCompletion(ctx context.Context, id string, complete bool) (model.List, error) {
	l, err := g.Backend.SetItemCompletion(ctx, id, complete)
	g.mu.Lock()
	ran, gate := g.ran[id], g.gates[id]
	g.mu.Unlock()
	close(ran)
	<-gate
	return l, err
}

func TestConcurrentItemUpdates_LastResolvedWins(t *testing.T) {
	store := newStore(t)
	g := &gated{
		Backend: mock.NewClient(store),
		gates:   map[string]chan struct{}{},
		ran:     map[string]chan struct{}{},
	}
	f := newFixtureWith(t, store, "demo", g)
	ctx := context.Background()
	l := listNamed(t, f.sync, "Weekly groceries")
	a, b := l.Items[0], l.Items[2] // both incomplete in the seed
	for _, id := range []string{a.ID, b.ID} {
		g.gates[id] = make(chan struct{})
		g.ran[id] = make(chan struct{})
	}

	doneA, doneB := make(chan struct{}), make(chan struct{})
	go func() { defer close(doneA); _ = f.sync.SetItemCompleted(ctx, l.ID, a.ID) }()
	<-g.ran[a.ID]
	go func() { defer close(doneB); _ = f.sync.SetItemCompleted(ctx, l.ID, b.ID) }()
	<-g.ran[b.ID]

	// b's response (both done) lands first, then a's older one (only a done).
	close(g.gates[b.ID])
	<-doneB
	close(g.gates[a.ID])
	<-doneA

	got, _ := f.sync.GetList(l.ID)
	itA, _ := got.FindItem(a.ID)
	itB, _ := got.FindItem(b.ID)
	if !itA.Complete || itB.Complete {
		t.Errorf("local state: a=%v b=%v, want the last response (a=true b=false)", itA.Complete, itB.Complete)
	}
	stored, _ := store.GetList(mock.DemoUserID, l.ID)
	if sa, _ := stored.FindItem(a.ID); !sa.Complete {
		t.Errorf("store should have a complete")
	}
	if sb, _ := stored.FindItem(b.ID); !sb.Complete {
		t.Errorf("store should have b complete")
	}
}

// gatedCreate wraps a backend so a test decides when CreateList returns.
type gatedCreate struct {
	backend.Backend
	ran, gate chan struct{}
}

func (g *gatedCreate) CreateList(ctx context.Context, name string) (model.List, error) {
	l, err := g.Backend.CreateList(ctx, name)
	close(g.ran)
	<-g.gate
	return l, err
}

func TestSessionSwitch_DiscardsInFlightResult(t *testing.T) {
	store := newStore(t)
	g := &gatedCreate{
		Backend: mock.NewClient(store),
		ran:     make(chan struct{}),
		gate:    make(chan struct{}),
	}
	f := newFixtureWith(t, store, "demo", g)
	ctx := context.Background()

	var (
		id     string
		addErr error
	)
	done := make(chan struct{})
	go func() { defer close(done); id, addErr = f.sync.AddList(ctx) }()
	<-g.ran

	if _, err := f.sync.Login(ctx, "carol", mock.DemoPassword); err != nil {
		t.Fatalf("login carol: %v", err)
	}
	f.sync.Wait()
	close(g.gate)
	<-done

	if addErr != nil {
		t.Fatalf("AddList: %v", addErr)
	}
	if _, ok := f.sync.GetList(id); ok {
		t.Errorf("demo's new list %s landed in carol's collection", id)
	}
	for _, l := range f.sync.State().Lists {
		if !l.VisibleTo(mock.CarolUserID) {
			t.Errorf("list %q is not visible to carol", l.Name)
		}
	}
	if _, err := store.GetList(mock.DemoUserID, id); err != nil {
		t.Errorf("list should still exist for demo: %v", err)
	}
}
