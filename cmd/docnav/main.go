package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"
)

// newLogger builds the JSON logger shared by all commands. The server logs
// to stdout; one-shot commands keep stdout for their output.
func newLogger(cmd *cli.Command, w *os.File) *slog.Logger {
	level := slog.LevelInfo
	if cmd.Bool("debug") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            "docnav",
		Usage:           "load, check and serve generated documentation navigation trees",
		HideHelpCommand: true,
		Writer:          os.Stdout,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "enable debug logging"},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serves the navigation tree of a documentation directory over HTTP",
				Action: runServe,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "dir", Usage: "documentation `DIR` (overrides DOCNAV_DOCS_DIR)"},
					&cli.StringFlag{Name: "port", Usage: "listen `PORT` (overrides PORT)"},
				},
			},
			{
				Name:      "validate",
				Usage:     "Loads a navigation source and reports whether it is valid",
				Action:    runValidate,
				ArgsUsage: "SOURCE",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "strict", Usage: "treat missing deferred list files as errors"},
				},
			},
			{
				Name:      "convert",
				Usage:     "Converts a navigation source to another format",
				Action:    runConvert,
				ArgsUsage: "SOURCE [DESTINATION]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "to", Value: "json", Usage: "output `TYPE` (js, json, yaml); js writes a directory"},
					&cli.BoolFlag{Name: "strict", Usage: "treat missing deferred list files as errors"},
					&cli.IntFlag{Name: "chunk", Value: 250, Usage: "pages per locator chunk for imported outlines"},
				},
			},
			{
				Name:      "check",
				Usage:     "Verifies every navigation target against the HTML pages on disk",
				Action:    runCheck,
				ArgsUsage: "DIR",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "workers", Value: 8, Usage: "pages scanned concurrently"},
				},
			},
			{
				Name:      "publish",
				Usage:     "Publishes a navigation source to pathstore",
				Action:    runPublish,
				ArgsUsage: "SOURCE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "prefix", Usage: "key `PREFIX` (overrides PATHSTORE_PREFIX)"},
				},
			},
		},
	}

	var err error
	defer func() {
		stop()
		if err != nil {
			fmt.Fprintf(os.Stderr, "docnav: %v\n", err)
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}
