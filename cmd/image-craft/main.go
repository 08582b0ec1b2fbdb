// Command image-craft generates responsive image derivatives and renders
// the markup that references them.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// app carries what every command shares.
type app struct {
	ctx    context.Context
	out    io.Writer
	logger *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{ctx: ctx, out: os.Stdout, logger: newLogger()}
	if err := a.rootCommand().Execute(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func (a *app) rootCommand() *Command {
	return &Command{
		Name:    "image-craft",
		Summary: "Responsive image derivatives and the markup that references them",
		Subcommands: []*Command{
			a.generateCommand(),
			a.watchCommand(),
			a.srcsetCommand(),
			a.cssCommand(),
			a.pictureCommand(),
			a.mcpCommand(),
			a.versionCommand(),
		},
	}
}

func (a *app) versionCommand() *Command {
	return &Command{
		Name:    "version",
		Summary: "Print version information",
		Run: func(args []string) error {
			fmt.Fprintf(a.out, "image-craft %s\n", Version)
			fmt.Fprintf(a.out, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(a.out, "  Git commit: %s\n", GitCommit)
			return nil
		},
	}
}
