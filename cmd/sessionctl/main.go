package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/MrEthical07/goSession/cmd/sessionctl/internal/commands"
	"github.com/alecthomas/kong"
)

var (
	version = "dev"
	cli     struct {
		commands.Globals

		Login  commands.LoginCmd  `cmd:"" help:"Sign in with email and password"`
		Logout commands.LogoutCmd `cmd:"" help:"Sign out and purge stored tokens"`
		Status commands.StatusCmd `cmd:"" help:"Restore the stored session and check its validity"`
		Watch  commands.WatchCmd  `cmd:"" help:"Keep the session alive and print state changes"`
		Guard  commands.GuardCmd  `cmd:"" help:"Print the guard decision for a protected path"`

		Version kong.VersionFlag
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := kong.Parse(&cli,
		kong.Name("sessionctl"),
		kong.Description("Inspect and drive a goSession session store."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&cli.Globals)
	cmd.FatalIfErrorf(err)
}
