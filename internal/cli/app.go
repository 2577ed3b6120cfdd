package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/idilsaglam/shoplist/internal/backend"
	"github.com/idilsaglam/shoplist/internal/backend/mock"
	"github.com/idilsaglam/shoplist/internal/backend/remote"
	"github.com/idilsaglam/shoplist/internal/config"
	"github.com/idilsaglam/shoplist/internal/listsync"
	"github.com/idilsaglam/shoplist/internal/model"
	"github.com/idilsaglam/shoplist/internal/session"
	"github.com/idilsaglam/shoplist/internal/store/jsonstore"
	"github.com/idilsaglam/shoplist/internal/ui"
)

// datasetFile holds the offline data set inside the data directory.
const datasetFile = "mock.json"

// app is the state of one CLI invocation.
type app struct {
	ctx context.Context
	cfg config.Config
	opt Options
	log *zap.Logger

	file    session.File
	dataset string
	// foreign is set when the saved session belongs to the other backend
	// (or another API URL); it is left on disk untouched unless replaced.
	foreign bool

	holder *session.Holder
	sync   *listsync.Syncer
	remote *remote.Client
	store  *mock.Store
	local  *mock.Client
}

func open(ctx context.Context, cfg config.Config, opt Options, log *zap.Logger) (*app, error) {
	a := &app{
		ctx:     ctx,
		cfg:     cfg,
		opt:     opt,
		log:     log,
		file:    session.FileIn(cfg.DataDir),
		dataset: filepath.Join(cfg.DataDir, datasetFile),
	}

	rc, err := remote.New(remote.Options{
		BaseURL: cfg.APIURL,
		Timeout: cfg.RequestTimeout,
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}
	a.remote = rc

	if !cfg.Remote {
		if err := a.loadDataset(); err != nil {
			return nil, err
		}
		a.local = mock.NewClient(a.store, mock.WithLatency(cfg.MockLatency))
	}

	saved, err := a.file.Load()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	a.holder = session.NewHolder(cfg.Remote)
	if sess := a.resume(saved); sess != nil {
		a.holder.Set(sess)
	}
	a.sync = listsync.New(a.holder, a.backend, log)
	return a, nil
}

// backend is the listsync.Selector. Only the side chosen at startup is built.
func (a *app) backend(remote bool) backend.Backend {
	if !remote && a.local != nil {
		return a.local
	}
	return a.remote
}

func (a *app) loadDataset() error {
	ds, found, err := jsonstore.Load[mock.Dataset](a.dataset)
	if err != nil {
		return fmt.Errorf("load offline data: %w", err)
	}
	if !found {
		a.store, err = mock.NewSeeded()
		if err == nil {
			a.log.Info("seeded offline data", zap.String("path", a.dataset))
		}
		return err
	}
	a.store = mock.New()
	return a.store.Restore(ds)
}

// resume returns the saved session when it belongs to the backend in use and
// that backend still accepts it.
func (a *app) resume(saved *session.Saved) *model.Session {
	if saved == nil || saved.Session == nil {
		return nil
	}
	if saved.Remote != a.cfg.Remote || (a.cfg.Remote && saved.APIURL != a.cfg.APIURL) {
		a.foreign = true
		return nil
	}
	if a.cfg.Remote {
		a.remote.RestoreCookies(saved.HTTPCookies())
		return saved.Session
	}
	if err := a.local.Resume(saved.Session.UserID); err != nil {
		a.log.Info("saved session dropped", zap.String("user", saved.Session.UserID), zap.Error(err))
		return nil
	}
	return saved.Session
}

// ready makes sure a session exists and its lists are loaded.
func (a *app) ready() error {
	if a.holder.Get() == nil {
		return backend.ErrNotLoggedIn
	}
	a.sync.Wait()
	err := a.sync.State().Err
	if err == nil {
		return nil
	}
	if errors.Is(err, backend.ErrUnauthorized) {
		a.holder.Set(nil)
		a.sync.Wait()
		return fmt.Errorf("session expired: %w", backend.ErrNotLoggedIn)
	}
	return fmt.Errorf("load lists: %w", err)
}

// close stops the syncer and writes the session and offline data back.
func (a *app) close() error {
	a.sync.Close()
	var errs []error
	if a.store != nil {
		if err := jsonstore.Save(a.dataset, a.store.Snapshot(), 0o600); err != nil {
			errs = append(errs, fmt.Errorf("offline data: %w", err))
		}
	}
	if err := a.persist(); err != nil {
		errs = append(errs, fmt.Errorf("session: %w", err))
	}
	return errors.Join(errs...)
}

func (a *app) persist() error {
	sess := a.holder.Get()
	if sess == nil {
		if a.foreign {
			return nil
		}
		return a.file.Clear()
	}
	saved := session.Saved{Session: sess, Remote: a.cfg.Remote}
	if a.cfg.Remote {
		saved.APIURL = a.cfg.APIURL
		saved.Cookies = session.CookiesFrom(a.remote.Cookies())
	}
	return a.file.Save(saved)
}

// prompt reads one line from stdin.
func (a *app) prompt(label string) (string, error) {
	ui.Hint(label)
	line, err := bufio.NewReader(a.opt.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *app) userID() string { return a.holder.UserID() }

// mode describes where the data comes from.
func (a *app) mode() string {
	if a.cfg.Remote {
		return a.remote.BaseURL()
	}
	return "offline (" + a.dataset + ")"
}
