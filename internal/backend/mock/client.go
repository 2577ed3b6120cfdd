package mock

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/idilsaglam/shoplist/internal/backend"
	"github.com/idilsaglam/shoplist/internal/model"
)

// Client is one logged-in conversation with a Store, the mock counterpart of
// the remote client's cookie session.
type Client struct {
	store   *Store
	latency time.Duration

	mu  sync.Mutex
	uid string
}

var _ backend.Backend = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLatency delays every call by a random duration in [0, max).
// Zero disables the delay.
func WithLatency(max time.Duration) ClientOption {
	return func(c *Client) { c.latency = max }
}

// NewClient returns a logged-out client over store.
func NewClient(store *Store, opts ...ClientOption) *Client {
	c := &Client{store: store}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Resume continues an earlier session for userID without a password, the way
// a persisted cookie would.
func (c *Client) Resume(userID string) error {
	if _, err := c.store.User(userID); err != nil {
		return fmt.Errorf("resume: %w", backend.ErrUnauthorized)
	}
	c.mu.Lock()
	c.uid = userID
	c.mu.Unlock()
	return nil
}

// UserID is the logged-in user, empty when logged out.
func (c *Client) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uid
}

func (c *Client) wait(ctx context.Context) error {
	if c.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(rand.N(c.latency))
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// begin applies the delay and returns the caller id.
func (c *Client) begin(ctx context.Context, op string) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	uid := c.UserID()
	if uid == "" {
		return "", fmt.Errorf("%s: %w", op, backend.ErrUnauthorized)
	}
	return uid, nil
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (c *Client) Login(ctx context.Context, name, password string) (model.Session, error) {
	if err := c.wait(ctx); err != nil {
		return model.Session{}, wrap("login", err)
	}
	u, err := c.store.Authenticate(name, password)
	if err != nil {
		return model.Session{}, wrap("login", err)
	}
	c.mu.Lock()
	c.uid = u.ID
	c.mu.Unlock()
	return model.SessionFor(u, name), nil
}

func (c *Client) Register(ctx context.Context, name, password string) (model.Session, error) {
	if err := c.wait(ctx); err != nil {
		return model.Session{}, wrap("register", err)
	}
	u, err := c.store.Register(name, password)
	if err != nil {
		return model.Session{}, wrap("register", err)
	}
	c.mu.Lock()
	c.uid = u.ID
	c.mu.Unlock()
	return model.SessionFor(u, name), nil
}

func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.begin(ctx, "logout"); err != nil {
		return err
	}
	c.mu.Lock()
	c.uid = ""
	c.mu.Unlock()
	return nil
}

func (c *Client) Profile(ctx context.Context) (model.Profile, error) {
	uid, err := c.begin(ctx, "get profile")
	if err != nil {
		return model.Profile{}, err
	}
	p, err := c.store.Profile(uid)
	return p, wrap("get profile", err)
}

func (c *Client) UpdateProfile(ctx context.Context, name, password *string) (model.User, error) {
	uid, err := c.begin(ctx, "update profile")
	if err != nil {
		return model.User{}, err
	}
	u, err := c.store.UpdateUser(uid, name, password)
	return u, wrap("update profile", err)
}

func (c *Client) DeleteProfile(ctx context.Context) error {
	uid, err := c.begin(ctx, "delete profile")
	if err != nil {
		return err
	}
	if err := c.store.DeleteUser(uid); err != nil {
		return wrap("delete profile", err)
	}
	c.mu.Lock()
	c.uid = ""
	c.mu.Unlock()
	return nil
}

func (c *Client) CreateList(ctx context.Context, name string) (model.List, error) {
	uid, err := c.begin(ctx, "create list")
	if err != nil {
		return model.List{}, err
	}
	l, err := c.store.CreateList(uid, name)
	return l, wrap("create list", err)
}

func (c *Client) GetList(ctx context.Context, id string) (model.List, error) {
	uid, err := c.begin(ctx, "get list")
	if err != nil {
		return model.List{}, err
	}
	l, err := c.store.GetList(uid, id)
	return l, wrap("get list", err)
}

func (c *Client) UpdateList(ctx context.Context, id string, patch backend.ListPatch) (model.List, error) {
	uid, err := c.begin(ctx, "update list")
	if err != nil {
		return model.List{}, err
	}
	l, err := c.store.UpdateList(uid, id, patch)
	return l, wrap("update list", err)
}

func (c *Client) DeleteList(ctx context.Context, id string) error {
	uid, err := c.begin(ctx, "delete list")
	if err != nil {
		return err
	}
	return wrap("delete list", c.store.DeleteList(uid, id))
}

func (c *Client) CreateItem(ctx context.Context, listID string, order int, content string) (model.List, error) {
	uid, err := c.begin(ctx, "create item")
	if err != nil {
		return model.List{}, err
	}
	l, err := c.store.CreateItem(uid, listID, order, content)
	return l, wrap("create item", err)
}

func (c *Client) GetItem(ctx context.Context, id string) (model.Item, error) {
	uid, err := c.begin(ctx, "get item")
	if err != nil {
		return model.Item{}, err
	}
	it, err := c.store.GetItem(uid, id)
	return it, wrap("get item", err)
}

func (c *Client) SetItemCompletion(ctx context.Context, id string, complete bool) (model.List, error) {
	uid, err := c.begin(ctx, "update item")
	if err != nil {
		return model.List{}, err
	}
	l, err := c.store.SetItemCompletion(uid, id, complete)
	return l, wrap("update item", err)
}

func (c *Client) DeleteItem(ctx context.Context, id string) error {
	uid, err := c.begin(ctx, "delete item")
	if err != nil {
		return err
	}
	_, err = c.store.DeleteItem(uid, id)
	return wrap("delete item", err)
}

func (c *Client) AddCollaborator(ctx context.Context, listID, userID string) (model.List, error) {
	uid, err := c.begin(ctx, "add collaborator")
	if err != nil {
		return model.List{}, err
	}
	l, err := c.store.AddCollaborator(uid, listID, userID)
	return l, wrap("add collaborator", err)
}

func (c *Client) RemoveCollaborator(ctx context.Context, listID, userID string) (model.List, error) {
	uid, err := c.begin(ctx, "remove collaborator")
	if err != nil {
		return model.List{}, err
	}
	l, err := c.store.RemoveCollaborator(uid, listID, userID)
	return l, wrap("remove collaborator", err)
}

func (c *Client) Leave(ctx context.Context, listID string) error {
	uid, err := c.begin(ctx, "leave list")
	if err != nil {
		return err
	}
	return wrap("leave list", c.store.Leave(uid, listID))
}
