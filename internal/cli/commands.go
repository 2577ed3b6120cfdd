package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/idilsaglam/shoplist/internal/backend"
	"github.com/idilsaglam/shoplist/internal/model"
	"github.com/idilsaglam/shoplist/internal/tui"
	"github.com/idilsaglam/shoplist/internal/ui"
	"github.com/idilsaglam/shoplist/internal/views"
)

// -------------- account ----------------

func cmdLogin(a *app, args []string) error {
	return a.authenticate("login", args, a.sync.Login)
}

func cmdRegister(a *app, args []string) error {
	return a.authenticate("register", args, a.sync.Register)
}

func (a *app) authenticate(verb string, args []string, fn func(context.Context, string, string) (model.Session, error)) error {
	if len(args) < 1 || len(args) > 2 {
		return usagef("usage: shoplist %s <name> [password]", verb)
	}
	password := ""
	if len(args) == 2 {
		password = args[1]
	} else {
		p, err := a.prompt("Password:")
		if err != nil {
			return err
		}
		password = p
	}
	sess, err := fn(a.ctx, args[0], password)
	if err != nil {
		return err
	}
	a.sync.Wait()
	st := a.sync.State()
	if st.Err != nil {
		return fmt.Errorf("load lists: %w", st.Err)
	}
	ui.OK(fmt.Sprintf("logged in as %s (%d lists)", sess.Name, len(st.Lists)))
	return nil
}

func cmdLogout(a *app, args []string) error {
	if len(args) != 0 {
		return usagef("usage: shoplist logout")
	}
	if err := a.sync.Logout(a.ctx); err != nil {
		return err
	}
	ui.OK("logged out")
	return nil
}

func cmdWhoAmI(a *app, args []string) error {
	sess := a.holder.Get()
	if sess == nil {
		return backend.ErrNotLoggedIn
	}
	t := ui.Current()
	ui.Panel([]string{
		t.Title.Render(sess.Name),
		t.Muted.Render("id:   ") + sess.UserID,
		t.Muted.Render("data: ") + a.mode(),
	})
	return nil
}

func cmdProfile(a *app, args []string) error {
	if len(args) == 0 {
		return usagef("usage: shoplist profile name|password|delete")
	}
	switch sub, rest := args[0], args[1:]; sub {
	case "name":
		name := joinArgs(rest)
		if name == "" {
			return usagef("usage: shoplist profile name <new name>")
		}
		u, err := a.sync.UpdateProfile(a.ctx, &name, nil)
		if err != nil {
			return err
		}
		ui.OK("renamed to " + u.Name)
	case "password":
		var password string
		switch len(rest) {
		case 0:
			p, err := a.prompt("New password:")
			if err != nil {
				return err
			}
			password = p
		case 1:
			password = rest[0]
		default:
			return usagef("usage: shoplist profile password [new password]")
		}
		if password == "" {
			return usagef("profile: empty password")
		}
		if _, err := a.sync.UpdateProfile(a.ctx, nil, &password); err != nil {
			return err
		}
		ui.OK("password changed")
	case "delete":
		if len(rest) != 1 || rest[0] != "--yes" {
			return usagef("usage: shoplist profile delete --yes")
		}
		if err := a.sync.DeleteProfile(a.ctx); err != nil {
			return err
		}
		ui.OK("account deleted")
	default:
		return usagef("profile: unknown action %q", sub)
	}
	return nil
}

// -------------- lists ----------------

func cmdList(a *app, args []string) error {
	if len(args) != 0 {
		return usagef("usage: shoplist ls")
	}
	uid := a.userID()
	p := views.Split(a.sync.State().Lists, uid)
	n := 0
	for _, sec := range []struct {
		title string
		lists []model.List
	}{
		{"My lists", p.Owned},
		{"Shared with me", p.Invited},
		{"Archived", p.Archived},
	} {
		lines := []string{sectionHeader(sec.title, len(sec.lists))}
		if len(sec.lists) == 0 {
			lines = append(lines, ui.Current().Muted.Render("(none)"))
		}
		for _, l := range sec.lists {
			n++
			lines = append(lines, listLine(n, l, uid))
		}
		ui.Panel(lines)
	}
	return nil
}

func cmdShow(a *app, args []string) error {
	if len(args) != 1 {
		return usagef("usage: shoplist show <list>")
	}
	l, err := a.resolveList(args[0])
	if err != nil {
		return err
	}
	ui.Panel(listLines(l, a.userID(), a.opt.Group))
	return nil
}

func cmdNew(a *app, args []string) error {
	name := joinArgs(args)
	id, err := a.sync.AddList(a.ctx)
	if err != nil {
		return err
	}
	if name == "" {
		name = model.DefaultListName
	} else if err := a.sync.EditList(a.ctx, id, &name, nil); err != nil {
		return err
	}
	ui.OK(fmt.Sprintf("created %q", name))
	return nil
}

func cmdRename(a *app, args []string) error {
	if len(args) < 2 {
		return usagef("usage: shoplist rename <list> <name...>")
	}
	l, err := a.resolveList(args[0])
	if err != nil {
		return err
	}
	name := joinArgs(args[1:])
	if err := a.sync.EditList(a.ctx, l.ID, &name, nil); err != nil {
		return err
	}
	ui.OK(fmt.Sprintf("renamed %q to %q", l.Name, name))
	return nil
}

func cmdTransfer(a *app, args []string) error {
	if len(args) != 2 {
		return usagef("usage: shoplist transfer <list> <user id>")
	}
	l, err := a.resolveList(args[0])
	if err != nil {
		return err
	}
	owner := args[1]
	if err := a.sync.EditList(a.ctx, l.ID, nil, &owner); err != nil {
		return err
	}
	ui.OK(fmt.Sprintf("%q now belongs to %s", l.Name, owner))
	return nil
}

func cmdArchive(archived bool) command {
	verb := "unarchive"
	if archived {
		verb = "archive"
	}
	return func(a *app, args []string) error {
		if len(args) != 1 {
			return usagef("usage: shoplist %s <list>", verb)
		}
		l, err := a.resolveList(args[0])
		if err != nil {
			return err
		}
		if err := a.sync.SetArchived(a.ctx, l.ID, archived); err != nil {
			return err
		}
		ui.OK(fmt.Sprintf("%sd %q", verb, l.Name))
		return nil
	}
}

func cmdRemove(a *app, args []string) error {
	if len(args) != 1 {
		return usagef("usage: shoplist rm <list>")
	}
	l, err := a.resolveList(args[0])
	if err != nil {
		return err
	}
	if err := a.sync.RemoveList(a.ctx, l.ID); err != nil {
		return err
	}
	ui.OK(fmt.Sprintf("deleted %q", l.Name))
	return nil
}

func cmdInvite(a *app, args []string) error {
	if len(args) != 2 {
		return usagef("usage: shoplist invite <list> <user id>")
	}
	l, err := a.resolveList(args[0])
	if err != nil {
		return err
	}
	if err := a.sync.AddUser(a.ctx, l.ID, args[1]); err != nil {
		return err
	}
	ui.OK(fmt.Sprintf("shared %q with %s", l.Name, args[1]))
	return nil
}

func cmdUninvite(a *app, args []string) error {
	if len(args) != 2 {
		return usagef("usage: shoplist uninvite <list> <user id>")
	}
	l, err := a.resolveList(args[0])
	if err != nil {
		return err
	}
	if err := a.sync.RemoveUser(a.ctx, l.ID, args[1]); err != nil {
		return err
	}
	ui.OK(fmt.Sprintf("stopped sharing %q with %s", l.Name, args[1]))
	return nil
}

func cmdLeave(a *app, args []string) error {
	if len(args) != 1 {
		return usagef("usage: shoplist leave <list>")
	}
	l, err := a.resolveList(args[0])
	if err != nil {
		return err
	}
	if err := a.sync.RemoveSelf(a.ctx, l.ID); err != nil {
		return err
	}
	ui.OK(fmt.Sprintf("left %q", l.Name))
	return nil
}

// -------------- items ----------------

func cmdAddItem(a *app, args []string) error {
	if len(args) < 2 {
		return usagef("usage: shoplist add <list> <text...>")
	}
	l, err := a.resolveList(args[0])
	if err != nil {
		return err
	}
	text := joinArgs(args[1:])
	if text == "" {
		return usagef("add: empty item")
	}
	if err := a.sync.AddItem(a.ctx, l.ID, text); err != nil {
		return err
	}
	ui.OK(fmt.Sprintf("added %q to %q", text, l.Name))
	return nil
}

func cmdSetItem(complete bool) command {
	verb := "undo"
	if complete {
		verb = "done"
	}
	return func(a *app, args []string) error {
		if len(args) != 2 {
			return usagef("usage: shoplist %s <list> <item>", verb)
		}
		l, it, err := a.resolveItem(args[0], args[1])
		if err != nil {
			return err
		}
		set := a.sync.SetItemIncomplete
		if complete {
			set = a.sync.SetItemCompleted
		}
		if err := set(a.ctx, l.ID, it.ID); err != nil {
			return err
		}
		if complete {
			ui.OK("checked off " + it.Content)
		} else {
			ui.OK("unchecked " + it.Content)
		}
		return nil
	}
}

func cmdRemoveItem(a *app, args []string) error {
	if len(args) != 2 {
		return usagef("usage: shoplist rm-item <list> <item>")
	}
	l, it, err := a.resolveItem(args[0], args[1])
	if err != nil {
		return err
	}
	if err := a.sync.RemoveItem(a.ctx, l.ID, it.ID); err != nil {
		return err
	}
	ui.OK(fmt.Sprintf("removed %q", it.Content))
	return nil
}

func cmdTUI(a *app, args []string) error {
	if len(args) != 0 {
		return usagef("usage: shoplist tui")
	}
	return tui.Run(a.ctx, a.sync)
}

// -------------- lookups ----------------

// ordered is the numbering used by ls: owned, then invited, then archived.
func (a *app) ordered() []model.List {
	p := views.Split(a.sync.State().Lists, a.userID())
	out := make([]model.List, 0, len(p.Owned)+len(p.Invited)+len(p.Archived))
	out = append(out, p.Owned...)
	out = append(out, p.Invited...)
	return append(out, p.Archived...)
}

// resolveList accepts an ls index, an id, a unique id prefix, or a
// case-insensitive name or name fragment. A bare number is an index when it
// is in range and is otherwise matched like any other text. The prefixes
// "#", "id:" and "name:" restrict the lookup to one kind of reference.
func (a *app) resolveList(ref string) (model.List, error) {
	lists := a.ordered()
	byIndex := func(s string) (model.List, error) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return model.List{}, usagef("not an index: %s", s)
		}
		if n < 1 || n > len(lists) {
			return model.List{}, usagef("index out of range: have %d, got %d", len(lists), n)
		}
		return lists[n-1], nil
	}

	byID := []func(string, model.List) bool{
		func(r string, l model.List) bool { return l.ID == r },
		func(r string, l model.List) bool { return len(r) >= 4 && strings.HasPrefix(l.ID, r) },
	}
	byName := []func(string, model.List) bool{
		func(r string, l model.List) bool { return strings.EqualFold(l.Name, r) },
		func(r string, l model.List) bool { return strings.Contains(strings.ToLower(l.Name), strings.ToLower(r)) },
	}

	switch {
	case strings.HasPrefix(ref, "#"):
		return byIndex(ref[1:])
	case strings.HasPrefix(ref, "id:"):
		return matchList(lists, strings.TrimPrefix(ref, "id:"), byID)
	case strings.HasPrefix(ref, "name:"):
		return matchList(lists, strings.TrimPrefix(ref, "name:"), byName)
	}

	n, numErr := strconv.Atoi(ref)
	if numErr == nil && n >= 1 && n <= len(lists) {
		return lists[n-1], nil
	}
	l, err := matchList(lists, ref, []func(string, model.List) bool{
		byID[0],
		byName[0],
		func(r string, l model.List) bool { return byID[1](r, l) || byName[1](r, l) },
	})
	if err != nil && numErr == nil {
		return byIndex(ref)
	}
	return l, err
}

// matchList tries each matcher in turn and returns the first unique hit.
func matchList(lists []model.List, ref string, matchers []func(string, model.List) bool) (model.List, error) {
	if ref == "" {
		return model.List{}, usagef("empty list reference")
	}
	for _, match := range matchers {
		var hits []model.List
		for _, l := range lists {
			if match(ref, l) {
				hits = append(hits, l)
			}
		}
		switch len(hits) {
		case 0:
			continue
		case 1:
			return hits[0], nil
		default:
			return model.List{}, usagef("%q matches %d lists; use the index from `shoplist ls`", ref, len(hits))
		}
	}
	return model.List{}, usagef("no list matches %q", ref)
}

// resolveItem finds the item at a 1-based position in display order.
func (a *app) resolveItem(listRef, itemRef string) (model.List, model.Item, error) {
	l, err := a.resolveList(listRef)
	if err != nil {
		return model.List{}, model.Item{}, err
	}
	n, err := strconv.Atoi(itemRef)
	if err != nil {
		return model.List{}, model.Item{}, usagef("not a number: %s", itemRef)
	}
	items := sortedItems(l)
	if n < 1 || n > len(items) {
		return model.List{}, model.Item{}, usagef("index out of range: have %d, got %d", len(items), n)
	}
	return l, items[n-1], nil
}
