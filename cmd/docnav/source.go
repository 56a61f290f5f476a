package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docnav/internal/export"
	"github.com/dgallion1/docnav/internal/loader"
	"github.com/dgallion1/docnav/internal/navtree"
	"github.com/dgallion1/docnav/internal/parser"
)

type sourceOptions struct {
	strict    bool
	chunkSize int
}

// loadSource reads a navigation table from a generated documentation
// directory (or its navtreedata.js), a JSON/YAML export, or any document
// the parser package can import.
func loadSource(ctx context.Context, path string, opts sourceOptions, log *slog.Logger) (*loader.Result, error) {
	if path == "" {
		return nil, fmt.Errorf("no source has been specified")
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return loader.Load(ctx, path, loader.Options{Strict: opts.strict}, log)
	}
	if filepath.Base(path) == loader.DataFile {
		return loader.Load(ctx, filepath.Dir(path), loader.Options{Strict: opts.strict}, log)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var tableOpts []navtree.Option
	if opts.strict {
		tableOpts = append(tableOpts, navtree.RequireResolved())
	}

	var table *navtree.Table
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		table, err = export.ReadJSON(f, tableOpts...)
	case ".yaml", ".yml":
		table, err = export.ReadYAML(f, tableOpts...)
	default:
		var p parser.Parser
		if p, err = parser.ForFile(path, opts.chunkSize); err != nil {
			return nil, err
		}
		table, err = p.Parse(f, path)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	log.Debug("source loaded", "path", path, "index_entries", table.Len())
	return &loader.Result{Table: table}, nil
}
