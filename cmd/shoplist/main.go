package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/idilsaglam/shoplist/internal/cli"
	"github.com/idilsaglam/shoplist/internal/config"
	"github.com/idilsaglam/shoplist/internal/logging"
	"github.com/idilsaglam/shoplist/internal/ui"
)

func main() {
	// Root flags (apply to every subcommand)
	offline := flag.Bool("offline", false, "use the local demo data set instead of the API")
	apiURL := flag.String("api", "", "API base URL")
	theme := flag.String("theme", "classic", "color theme: classic | neon | mono")
	color := flag.String("color", ui.ColorAuto, "color output: auto | always | never")
	groupPending := flag.Bool("group", false, "group items by pending/done")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		cli.PrintHelp()
		os.Exit(2)
	}

	ui.SetColor(*color)
	ui.SetTheme(*theme)

	cfg, err := config.Load()
	if err != nil {
		ui.Fail("config: " + err.Error())
		os.Exit(2)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		ui.Fail("logging: " + err.Error())
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Run(ctx, args, cfg, log, cli.Options{
		Group:   *groupPending,
		Offline: *offline,
		APIURL:  *apiURL,
	})
	stop()
	_ = log.Sync()
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	os.Exit(code)
}
