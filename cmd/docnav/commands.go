package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/dgallion1/docnav/internal/api"
	"github.com/dgallion1/docnav/internal/config"
	"github.com/dgallion1/docnav/internal/export"
	"github.com/dgallion1/docnav/internal/linkcheck"
	"github.com/dgallion1/docnav/internal/loader"
	"github.com/dgallion1/docnav/internal/pathstore"
)

func runServe(ctx context.Context, cmd *cli.Command) error {
	log := newLogger(cmd, os.Stdout)

	cfg := config.Load()
	if dir := cmd.String("dir"); dir != "" {
		cfg.DocsDir = dir
	}
	if port := cmd.String("port"); port != "" {
		cfg.Port = port
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		return err
	}

	res, err := loader.Load(ctx, cfg.DocsDir, loader.Options{Strict: cfg.StrictRefs}, log)
	if err != nil {
		return err
	}

	var publisher api.Publisher
	if cfg.PathstoreURL != "" {
		ps := pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey).WithConcurrency(cfg.MaxConcurrentPublish)
		defer ps.Close()
		publisher = ps
	}

	srv := api.NewServer(res, publisher, log, cfg)
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting docnav", "port", cfg.Port, "dir", cfg.DocsDir)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func runValidate(ctx context.Context, cmd *cli.Command) error {
	log := newLogger(cmd, os.Stderr)
	res, err := loadSource(ctx, cmd.Args().Get(0), sourceOptions{strict: cmd.Bool("strict")}, log)
	if err != nil {
		return err
	}
	t := res.Table
	fmt.Fprintf(cmd.Root().Writer, "ok: %d top-level nodes, %d deferred lists, %d index entries, %d locator chunks\n",
		len(t.Root()), t.Registry().Len(), t.Len(), len(t.PageChunks()))
	for _, name := range t.Unresolved() {
		fmt.Fprintf(cmd.Root().Writer, "unresolved: %s\n", name)
	}
	return nil
}

func runConvert(ctx context.Context, cmd *cli.Command) error {
	log := newLogger(cmd, os.Stderr)
	opts := sourceOptions{strict: cmd.Bool("strict"), chunkSize: int(cmd.Int("chunk"))}
	res, err := loadSource(ctx, cmd.Args().Get(0), opts, log)
	if err != nil {
		return err
	}
	dst := cmd.Args().Get(1)

	switch to := cmd.String("to"); to {
	case "js":
		if dst == "" {
			return errors.New("js output needs a DESTINATION directory")
		}
		if err := loader.Write(dst, res.Table, res.Data); err != nil {
			return err
		}
		log.Info("navigation written", "dir", dst)
		return nil
	case "json", "yaml":
		return writeOutput(cmd.Root().Writer, dst, func(w io.Writer) error {
			if to == "yaml" {
				return export.WriteYAML(w, res.Table)
			}
			return export.WriteJSON(w, res.Table)
		})
	default:
		return fmt.Errorf("unknown output type %q (supported: js, json, yaml)", to)
	}
}

// writeOutput writes to dst, or to stdout when dst is empty.
func writeOutput(stdout io.Writer, dst string, fn func(io.Writer) error) error {
	if dst == "" {
		return fn(stdout)
	}
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("unable to create destination file '%s': %w", dst, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runCheck(ctx context.Context, cmd *cli.Command) error {
	log := newLogger(cmd, os.Stderr)
	dir := cmd.Args().Get(0)
	if dir == "" {
		return errors.New("no documentation directory has been specified")
	}
	res, err := loader.Load(ctx, dir, loader.Options{}, log)
	if err != nil {
		return err
	}
	problems, err := linkcheck.Check(ctx, dir, res.Table, linkcheck.Options{Workers: int(cmd.Int("workers"))}, log)
	if err != nil {
		return err
	}
	for _, p := range problems {
		fmt.Fprintln(cmd.Root().Writer, p)
	}
	if len(problems) > 0 {
		return fmt.Errorf("%d broken navigation targets", len(problems))
	}
	return nil
}

func runPublish(ctx context.Context, cmd *cli.Command) error {
	log := newLogger(cmd, os.Stderr)
	cfg := config.Load()
	if cfg.PathstoreURL == "" || cfg.PathstoreAPIKey == "" {
		return errors.New("PATHSTORE_URL and PATHSTORE_API_KEY are required")
	}
	prefix := cmd.String("prefix")
	if prefix == "" {
		prefix = cfg.PathstorePrefix
	}

	res, err := loadSource(ctx, cmd.Args().Get(0), sourceOptions{strict: cfg.StrictRefs, chunkSize: cfg.IndexChunk}, log)
	if err != nil {
		return err
	}

	ps := pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey).WithConcurrency(cfg.MaxConcurrentPublish)
	defer ps.Close()
	stats, err := ps.Publish(ctx, res.Table, prefix)
	if err != nil {
		return err
	}
	log.Info("published navigation", "prefix", prefix, "nodes", stats.Nodes, "lists", stats.Lists, "links", stats.Links)
	return nil
}
