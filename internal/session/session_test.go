package session_test

import (
	"net/http"
	"path/filepath"
	"testing"

	"github.com/idilsaglam/shoplist/internal/model"
	"github.com/idilsaglam/shoplist/internal/session"
)

func TestHolder_SetNotifiesInOrder(t *testing.T) {
	h := session.NewHolder(true)

	var calls []string
	h.Subscribe(func(prev, next *model.Session) {
		if prev != nil {
			t.Errorf("prev: got %+v, want nil", prev)
		}
		calls = append(calls, "first:"+next.UserID)
	})
	h.Subscribe(func(prev, next *model.Session) {
		calls = append(calls, "second:"+next.UserID)
	})

	h.Set(&model.Session{UserID: "u1", Name: "demo"})

	if len(calls) != 2 || calls[0] != "first:u1" || calls[1] != "second:u1" {
		t.Errorf("calls: got %v", calls)
	}
	if got := h.UserID(); got != "u1" {
		t.Errorf("UserID: got %q, want u1", got)
	}
}

func TestHolder_GetReturnsCopy(t *testing.T) {
	h := session.NewHolder(false)
	if h.Get() != nil {
		t.Fatalf("new holder should be logged out")
	}
	h.Set(&model.Session{UserID: "u1", Name: "demo"})

	s := h.Get()
	s.Name = "changed"
	if got := h.Get().Name; got != "demo" {
		t.Errorf("Name: got %q, want demo", got)
	}
}

func TestHolder_Unsubscribe(t *testing.T) {
	h := session.NewHolder(true)
	n := 0
	unsub := h.Subscribe(func(prev, next *model.Session) { n++ })

	h.Set(&model.Session{UserID: "u1"})
	unsub()
	unsub()
	h.Set(nil)

	if n != 1 {
		t.Errorf("notifications: got %d, want 1", n)
	}
}

func TestHolder_RemoteSwitch(t *testing.T) {
	h := session.NewHolder(true)
	if !h.RemoteEnabled() {
		t.Fatalf("RemoteEnabled: got false, want true")
	}
	h.SetRemoteEnabled(false)
	if h.RemoteEnabled() {
		t.Errorf("RemoteEnabled: got true, want false")
	}
}

func TestFile_SaveLoadClear(t *testing.T) {
	t.Setenv(session.PathEnv, "")
	f := session.FileIn(t.TempDir())

	got, err := f.Load()
	if err != nil || got != nil {
		t.Fatalf("empty Load: got %+v, %v", got, err)
	}

	in := session.Saved{
		Session: &model.Session{UserID: "u1", Name: "demo", Email: "demo"},
		Remote:  true,
		Cookies: session.CookiesFrom([]*http.Cookie{{Name: "sid", Value: "abc"}}),
	}
	if err := f.Save(in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err = f.Load()
	if err != nil || got == nil {
		t.Fatalf("Load: got %+v, %v", got, err)
	}
	if got.Session.UserID != "u1" || !got.Remote || got.SavedAt.IsZero() {
		t.Errorf("loaded: %+v", got)
	}
	if c := got.HTTPCookies(); len(c) != 1 || c[0].Name != "sid" || c[0].Value != "abc" {
		t.Errorf("cookies: %+v", c)
	}

	if err := f.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got, _ := f.Load(); got != nil {
		t.Errorf("session still present after Clear")
	}
}

func TestFileIn_EnvOverride(t *testing.T) {
	want := filepath.Join(t.TempDir(), "custom.json")
	t.Setenv(session.PathEnv, want)
	if got := session.FileIn("/ignored").Path; got != want {
		t.Errorf("Path: got %q, want %q", got, want)
	}
}
