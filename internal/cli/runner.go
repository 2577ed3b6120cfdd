package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/idilsaglam/shoplist/internal/backend"
	"github.com/idilsaglam/shoplist/internal/config"
	"github.com/idilsaglam/shoplist/internal/ui"
)

// Options tune behavior from root flags.
type Options struct {
	Group   bool // show items grouped by pending/done
	Offline bool // use the local mock data set instead of the API
	APIURL  string
	Stdin   io.Reader
}

// usageError is a mistake on the command line (exit code 2).
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

// ---------------------------------------------------
// CLI router
// ---------------------------------------------------

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, args []string, cfg config.Config, log *zap.Logger, opt Options) int {
	if len(args) == 0 {
		PrintHelp()
		return 2
	}
	cmd, a := args[0], args[1:]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		PrintHelp()
		return 0
	}

	run, needsSession, ok := lookup(cmd)
	if !ok {
		ui.Fail("unknown subcommand: " + cmd)
		fmt.Fprintln(os.Stderr)
		PrintHelp()
		return 2
	}

	if opt.Offline {
		cfg.Remote = false
	}
	if opt.APIURL != "" {
		cfg.APIURL = opt.APIURL
	}
	if opt.Stdin == nil {
		opt.Stdin = os.Stdin
	}

	st, err := open(ctx, cfg, opt, log)
	if err != nil {
		ui.Fail("startup: " + err.Error())
		return 1
	}
	defer func() {
		if err := st.close(); err != nil {
			ui.Fail("save state: " + err.Error())
		}
	}()

	if needsSession {
		if err := st.ready(); err != nil {
			return report(err)
		}
	}
	return report(run(st, a))
}

type command func(a *app, args []string) error

// lookup returns the implementation and whether it needs a session with
// its lists loaded.
func lookup(name string) (command, bool, bool) {
	switch name {
	case "login":
		return cmdLogin, false, true
	case "register":
		return cmdRegister, false, true
	case "logout":
		return cmdLogout, false, true
	case "whoami":
		return cmdWhoAmI, false, true
	case "profile":
		return cmdProfile, true, true
	case "ls":
		return cmdList, true, true
	case "show":
		return cmdShow, true, true
	case "new":
		return cmdNew, true, true
	case "rename":
		return cmdRename, true, true
	case "transfer":
		return cmdTransfer, true, true
	case "archive":
		return cmdArchive(true), true, true
	case "unarchive":
		return cmdArchive(false), true, true
	case "rm":
		return cmdRemove, true, true
	case "add":
		return cmdAddItem, true, true
	case "done":
		return cmdSetItem(true), true, true
	case "undo":
		return cmdSetItem(false), true, true
	case "rm-item":
		return cmdRemoveItem, true, true
	case "invite":
		return cmdInvite, true, true
	case "uninvite":
		return cmdUninvite, true, true
	case "leave":
		return cmdLeave, true, true
	case "tui":
		return cmdTUI, true, true
	}
	return nil, false, false
}

// report prints err and maps it to an exit code.
func report(err error) int {
	if err == nil {
		return 0
	}
	var ue usageError
	switch {
	case errors.As(err, &ue):
		ui.Fail(ue.msg)
		return 2
	case errors.Is(err, backend.ErrNotLoggedIn):
		ui.Fail("not logged in")
		ui.Hint("Run: shoplist login <name>")
		return 2
	case errors.Is(err, backend.ErrNotAuthorized):
		ui.Fail(err.Error())
		ui.Hint("Only the list owner can do that.")
		return 2
	case errors.Is(err, backend.ErrAlreadyInvited):
		ui.Fail(err.Error())
		return 2
	case errors.Is(err, backend.ErrNetwork):
		ui.Fail(err.Error())
		ui.Hint("Is the API reachable? Use --offline to work on the local demo data.")
		return 1
	}
	ui.Fail(err.Error())
	return 1
}

func PrintHelp() {
	fmt.Printf(`shoplist - shared shopping lists

Usage:
  shoplist [flags] <subcommand> [args]

Flags:
  --offline          Use the local demo data set instead of the API
  --api <url>        API base URL (default from SHOPLIST_API_URL)
  --theme <name>     classic | neon | mono
  --color <mode>     auto | always | never
  --group            Group items by pending/done in "show"

Account:
  login <name> [password]      Log in (password is read from stdin if omitted)
  register <name> [password]   Create an account and log in
  logout                       End the session
  whoami                       Show the current user and id
  profile name <new name>      Rename your account
  profile password [new]       Change your password
  profile delete --yes         Delete your account and the lists you own

Lists (<list> is an index from "ls", an id or id prefix, or a name;
       a number is read as an index first, force one kind with
       #<index>, id:<id> or name:<name>):
  ls                           Show owned, shared and archived lists
  show <list>                  Show a list and its items
  new [name...]                Create a list
  rename <list> <name...>      Rename a list (owner only)
  transfer <list> <user id>    Hand a list to another user (owner only)
  archive <list>               Archive a list (owner only)
  unarchive <list>             Restore an archived list (owner only)
  rm <list>                    Delete a list
  invite <list> <user id>      Share a list (owner only)
  uninvite <list> <user id>    Stop sharing with a user (owner only)
  leave <list>                 Leave a list shared with you

Items (<item> is the 1-based position shown by "show"):
  add <list> <text...>         Add an item
  done <list> <item>           Mark an item done
  undo <list> <item>           Mark an item not done
  rm-item <list> <item>        Delete an item

Interactive:
  tui                          Browse and edit lists in the terminal

Examples:
  shoplist --offline login demo password
  shoplist ls
  shoplist add 1 "Oat milk"
  shoplist done groceries 2
`)
}

func joinArgs(a []string) string { return strings.TrimSpace(strings.Join(a, " ")) }
