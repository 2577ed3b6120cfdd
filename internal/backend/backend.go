// Package backend defines the contract every list backend satisfies.
//
// Two implementations exist: remote (the HTTP API) and mock (an in-memory
// data set used when remote access is disabled). Call-sites depend only on
// Backend and cannot tell which one is active.
package backend

import (
	"context"

	"github.com/idilsaglam/shoplist/internal/model"
)

// ListPatch is the set of list fields the generic update accepts.
type ListPatch struct {
	Name     string `json:"name"`
	Owner    string `json:"owner"`
	Archived bool   `json:"archived"`
}

// PatchFor extracts the patchable fields of l.
func PatchFor(l model.List) ListPatch {
	return ListPatch{Name: l.Name, Owner: l.Owner, Archived: l.Archived}
}

// Backend is one authenticated conversation with a list store.
// All methods except Login and Register need a prior successful login.
type Backend interface {
	Login(ctx context.Context, name, password string) (model.Session, error)
	Register(ctx context.Context, name, password string) (model.Session, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (model.Profile, error)
	UpdateProfile(ctx context.Context, name, password *string) (model.User, error)
	DeleteProfile(ctx context.Context) error

	CreateList(ctx context.Context, name string) (model.List, error)
	GetList(ctx context.Context, id string) (model.List, error)
	UpdateList(ctx context.Context, id string, patch ListPatch) (model.List, error)
	DeleteList(ctx context.Context, id string) error

	// CreateItem returns the whole updated list, not just the item.
	CreateItem(ctx context.Context, listID string, order int, content string) (model.List, error)
	GetItem(ctx context.Context, id string) (model.Item, error)
	SetItemCompletion(ctx context.Context, id string, complete bool) (model.List, error)
	DeleteItem(ctx context.Context, id string) error

	// AddCollaborator and RemoveCollaborator reject the caller's own id with
	// ErrBadRequest; a collaborator leaves through Leave.
	AddCollaborator(ctx context.Context, listID, userID string) (model.List, error)
	RemoveCollaborator(ctx context.Context, listID, userID string) (model.List, error)
	Leave(ctx context.Context, listID string) error
}
