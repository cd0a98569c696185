package main

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/nkapoor/esshub/cmd/cli/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Login   commands.LoginCmd   `cmd:"" help:"Log in to the portal"`
		Logout  commands.LogoutCmd  `cmd:"" help:"Log out and clear the stored session"`
		Whoami  commands.WhoamiCmd  `cmd:"" help:"Show the stored identity"`
		Profile commands.ProfileCmd `cmd:"" help:"Show your employee profile"`
		Payslip commands.PayslipCmd `cmd:"" help:"Payslip operations"`
		Debug   bool                `help:"Enable debug mode."`
		Version kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
