package main

import (
	"github.com/spf13/pflag"

	"github.com/ironsheep/image-craft/internal/server"
)

func (a *app) mcpCommand() *Command {
	var flags configFlags
	return &Command{
		Name:    "mcp",
		Summary: "Serve the reconstructor as MCP tools over stdin/stdout",
		Usage:   "image-craft mcp [--config file]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("mcp", pflag.ContinueOnError)
			flags.register(fs)
			return fs
		},
		Run: func(args []string) error {
			cfg, err := a.loadConfig(flags)
			if err != nil {
				return err
			}
			a.logger.Debug("starting MCP server", "version", Version, "build_time", BuildTime, "commit", GitCommit)

			srv, err := server.New(cfg, server.Options{Version: Version, Logger: a.logger})
			if err != nil {
				return err
			}
			return srv.Run()
		},
	}
}
