// Package remote implements backend.Backend over the /api/v1 HTTP contract.
//
// The backend authenticates by session cookie, so a Client keeps a cookie
// jar and is one user's conversation with the server. Responses are
// normalized through package wire and non-2xx answers come back as
// *backend.StatusError.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/idilsaglam/shoplist/internal/backend"
	"github.com/idilsaglam/shoplist/internal/model"
	"github.com/idilsaglam/shoplist/internal/wire"
)

// DefaultBaseURL is used when Options.BaseURL is empty.
const DefaultBaseURL = "http://localhost:8080/api/v1"

// Options configures a Client.
type Options struct {
	BaseURL string
	// Timeout bounds each call. Zero means no limit beyond the caller's context.
	Timeout time.Duration
	// HTTPClient is copied and given a cookie jar. Nil uses a fresh client.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to the list backend over HTTP.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	log     *zap.Logger
}

var _ backend.Backend = (*Client)(nil)

// New returns a logged-out client.
func New(opts Options) (*Client, error) {
	raw := opts.BaseURL
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", raw)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	hc := &http.Client{}
	if opts.HTTPClient != nil {
		c := *opts.HTTPClient
		hc = &c
	}
	hc.Jar = jar

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{base: base, http: hc, timeout: opts.Timeout, log: log}, nil
}

// BaseURL is the API root the client talks to.
func (c *Client) BaseURL() string { return c.base.String() }

// Cookies returns the session cookies held for the API host.
func (c *Client) Cookies() []*http.Cookie {
	return c.http.Jar.Cookies(c.base)
}

// RestoreCookies puts previously saved session cookies back into the jar.
func (c *Client) RestoreCookies(cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	c.http.Jar.SetCookies(c.base, cookies)
}

// ---------------------------------------------------
// Auth
// ---------------------------------------------------

func (c *Client) Login(ctx context.Context, name, password string) (model.Session, error) {
	var u wire.User
	if err := c.do(ctx, "login", http.MethodPost, "/auth/login", wire.Credentials{Name: name, Password: password}, &u); err != nil {
		return model.Session{}, err
	}
	return model.SessionFor(u.Normalize(), name), nil
}

func (c *Client) Register(ctx context.Context, name, password string) (model.Session, error) {
	var u wire.User
	if err := c.do(ctx, "register", http.MethodPost, "/auth/register", wire.Credentials{Name: name, Password: password}, &u); err != nil {
		return model.Session{}, err
	}
	return model.SessionFor(u.Normalize(), name), nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, "logout", http.MethodPost, "/auth/logout", nil, nil)
}

// ---------------------------------------------------
// Profile
// ---------------------------------------------------

func (c *Client) Profile(ctx context.Context) (model.Profile, error) {
	var p wire.Profile
	if err := c.do(ctx, "get profile", http.MethodGet, "/user/me", nil, &p); err != nil {
		return model.Profile{}, err
	}
	return p.Normalize(), nil
}

func (c *Client) UpdateProfile(ctx context.Context, name, password *string) (model.User, error) {
	var u wire.User
	if err := c.do(ctx, "update profile", http.MethodPatch, "/user/me", wire.ProfilePatch{Name: name, Password: password}, &u); err != nil {
		return model.User{}, err
	}
	return u.Normalize(), nil
}

func (c *Client) DeleteProfile(ctx context.Context) error {
	return c.do(ctx, "delete profile", http.MethodDelete, "/user/me", nil, nil)
}

// ---------------------------------------------------
// Lists
// ---------------------------------------------------

func (c *Client) CreateList(ctx context.Context, name string) (model.List, error) {
	return c.list(ctx, "create list", http.MethodPost, "/list/create", wire.CreateList{ListName: name})
}

func (c *Client) GetList(ctx context.Context, id string) (model.List, error) {
	return c.list(ctx, "get list", http.MethodGet, "/list/"+url.PathEscape(id), nil)
}

func (c *Client) UpdateList(ctx context.Context, id string, patch backend.ListPatch) (model.List, error) {
	return c.list(ctx, "update list", http.MethodPatch, "/list/"+url.PathEscape(id), patch)
}

func (c *Client) DeleteList(ctx context.Context, id string) error {
	return c.do(ctx, "delete list", http.MethodDelete, "/list/"+url.PathEscape(id), nil, nil)
}

func (c *Client) AddCollaborator(ctx context.Context, listID, userID string) (model.List, error) {
	return c.list(ctx, "add collaborator", http.MethodPut, "/list/acl", wire.ACL{ListID: listID, UserID: userID})
}

func (c *Client) RemoveCollaborator(ctx context.Context, listID, userID string) (model.List, error) {
	return c.list(ctx, "remove collaborator", http.MethodDelete, "/list/acl", wire.ACL{ListID: listID, UserID: userID})
}

func (c *Client) Leave(ctx context.Context, listID string) error {
	return c.do(ctx, "leave list", http.MethodPost, "/list/"+url.PathEscape(listID)+"/leave", nil, nil)
}

// ---------------------------------------------------
// Items
// ---------------------------------------------------

func (c *Client) CreateItem(ctx context.Context, listID string, order int, content string) (model.List, error) {
	return c.list(ctx, "create item", http.MethodPost, "/item/create",
		wire.CreateItem{ListID: listID, Order: order, Content: content})
}

func (c *Client) GetItem(ctx context.Context, id string) (model.Item, error) {
	var it wire.Item
	if err := c.do(ctx, "get item", http.MethodGet, "/item/"+url.PathEscape(id), nil, &it); err != nil {
		return model.Item{}, err
	}
	return it.Normalize(), nil
}

func (c *Client) SetItemCompletion(ctx context.Context, id string, complete bool) (model.List, error) {
	return c.list(ctx, "update item", http.MethodPatch, "/item/"+url.PathEscape(id), wire.ItemPatch{IsComplete: complete})
}

func (c *Client) DeleteItem(ctx context.Context, id string) error {
	return c.do(ctx, "delete item", http.MethodDelete, "/item/"+url.PathEscape(id), nil, nil)
}

// ---------------------------------------------------
// transport
// ---------------------------------------------------

func (c *Client) list(ctx context.Context, op, method, path string, in any) (model.List, error) {
	var l wire.List
	if err := c.do(ctx, op, method, path, in, &l); err != nil {
		return model.List{}, err
	}
	return l.Normalize(), nil
}

// do sends in as JSON (when non-nil) and decodes a 2xx body into out (when
// non-nil). Anything else becomes a *backend.StatusError.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && c.timeout > 0 {
			c.log.Warn("remote: request timed out",
				zap.String("op", op), zap.String("path", path), zap.Duration("timeout", c.timeout))
		}
		return fmt.Errorf("%s: %w: %w", op, backend.ErrNetwork, err)
	}
	defer resp.Body.Close()

	c.log.Debug("remote: request",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w: %w", op, backend.ErrUnexpectedResponse, err)
	}
	return nil
}

func statusError(op string, resp *http.Response) error {
	se := &backend.StatusError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Kind:       backend.KindForStatus(resp.StatusCode),
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	var e wire.Error
	if json.Unmarshal(data, &e) == nil && e.Error != "" {
		se.Message = e.Error
	}
	return se
}
