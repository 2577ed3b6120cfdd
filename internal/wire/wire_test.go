package wire_test

import (
	"encoding/json"
	"testing"

	"github.com/idilsaglam/shoplist/internal/wire"
)

func TestList_NormalizeDefaultsMissingCollections(t *testing.T) {
	var l wire.List
	if err := json.Unmarshal([]byte(`{"_id":"abc","name":"Groceries","owner":"u1","archived":false}`), &l); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got := l.Normalize()
	if got.ID != "abc" {
		t.Errorf("ID: got %q, want %q", got.ID, "abc")
	}
	if got.InvitedUsers == nil || len(got.InvitedUsers) != 0 {
		t.Errorf("InvitedUsers: got %#v, want empty slice", got.InvitedUsers)
	}
	if got.Items == nil || len(got.Items) != 0 {
		t.Errorf("Items: got %#v, want empty slice", got.Items)
	}
}

func TestProfile_NormalizeRenamesItemFields(t *testing.T) {
	raw := `{
		"user": {"_id": "u1", "name": "demo"},
		"lists": {
			"owned": [{"_id": "l1", "name": "A", "owner": "u1", "items": [{"_id": "i1", "order": 2, "content": "milk", "isComplete": true}]}]
		}
	}`
	var p wire.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got := p.Normalize()
	if got.User.ID != "u1" {
		t.Errorf("User.ID: got %q, want u1", got.User.ID)
	}
	if got.Invited == nil {
		t.Errorf("Invited should default to an empty slice")
	}
	if len(got.Owned) != 1 || len(got.Owned[0].Items) != 1 {
		t.Fatalf("unexpected owned lists: %+v", got.Owned)
	}
	it := got.Owned[0].Items[0]
	if it.ID != "i1" || it.Order != 2 || it.Content != "milk" || !it.Complete {
		t.Errorf("item: got %+v", it)
	}
}
