package session

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/idilsaglam/shoplist/internal/model"
	"github.com/idilsaglam/shoplist/internal/store/jsonstore"
)

const fileName = "session.json"

// PathEnv overrides the session file location.
const PathEnv = "SHOPLIST_SESSION_FILE"

// Cookie is the persisted part of an HTTP session cookie.
type Cookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Saved is what stays on disk between runs.
type Saved struct {
	Session *model.Session `json:"session"`
	Remote  bool           `json:"remote"`
	APIURL  string         `json:"api_url,omitempty"`
	Cookies []Cookie       `json:"cookies,omitempty"`
	SavedAt time.Time      `json:"saved_at"`
}

// HTTPCookies converts the saved cookies for a cookie jar.
func (s Saved) HTTPCookies() []*http.Cookie {
	out := make([]*http.Cookie, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	return out
}

// CookiesFrom keeps name and value of each cookie.
func CookiesFrom(in []*http.Cookie) []Cookie {
	out := make([]Cookie, 0, len(in))
	for _, c := range in {
		out = append(out, Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}

// File is the on-disk session, <data dir>/session.json unless PathEnv is set.
type File struct {
	Path string
}

// FileIn returns the session file for dataDir, honouring PathEnv.
func FileIn(dataDir string) File {
	if p := strings.TrimSpace(os.Getenv(PathEnv)); p != "" {
		return File{Path: p}
	}
	return File{Path: filepath.Join(dataDir, fileName)}
}

// Load returns nil, nil when no session was saved.
func (f File) Load() (*Saved, error) {
	s, found, err := jsonstore.Load[Saved](f.Path)
	if err != nil || !found {
		return nil, err
	}
	return &s, nil
}

// Save writes s owner-only.
func (f File) Save(s Saved) error {
	if s.SavedAt.IsZero() {
		s.SavedAt = time.Now()
	}
	return jsonstore.Save(f.Path, s, 0o600)
}

// Clear forgets the saved session.
func (f File) Clear() error {
	return jsonstore.Remove(f.Path)
}
