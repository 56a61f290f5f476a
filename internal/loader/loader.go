// Package loader builds a navtree.Table from a generated documentation
// directory.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dgallion1/docnav/internal/navjs"
	"github.com/dgallion1/docnav/internal/navtree"
)

// DataFile is the entry point written by the documentation generator.
const DataFile = "navtreedata.js"

// Options controls Load.
type Options struct {
	Strict bool // fail when a deferred list file is missing
}

// Result is a loaded table plus the pieces needed to write it back.
type Result struct {
	Table *navtree.Table
	Data  *navjs.Data
}

// Load reads dir/navtreedata.js, every deferred list it references
// (recursively) and the page locator chunks, and returns the validated
// table. The table is built once; callers share the returned pointer.
func Load(ctx context.Context, dir string, opts Options, log *slog.Logger) (*Result, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	data, err := readData(filepath.Join(dir, DataFile))
	if err != nil {
		return nil, err
	}

	lists, err := loadLists(ctx, dir, data.Tree, opts, log)
	if err != nil {
		return nil, err
	}

	chunks, err := loadChunks(ctx, dir, len(data.Index), log)
	if err != nil {
		return nil, err
	}

	tableOpts := []navtree.Option{navtree.WithRegistry(navtree.NewRegistry(lists))}
	if chunks != nil {
		tableOpts = append(tableOpts, navtree.WithPageChunks(chunks))
	}
	if opts.Strict {
		tableOpts = append(tableOpts, navtree.RequireResolved())
	}
	table, err := navtree.New(data.Tree, data.Index, tableOpts...)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", dir, err)
	}

	log.Info("navigation loaded",
		"dir", dir,
		"lists", len(lists),
		"index_entries", table.Len(),
		"chunks", len(chunks),
		"unresolved", len(table.Unresolved()),
	)
	return &Result{Table: table, Data: data}, nil
}

// LoadFile reads a single navtreedata.js without companion files.
func LoadFile(path string) (*Result, error) {
	data, err := readData(path)
	if err != nil {
		return nil, err
	}
	table, err := navtree.New(data.Tree, data.Index)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return &Result{Table: table, Data: data}, nil
}

func readData(path string) (*navjs.Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open navigation data: %w", err)
	}
	defer f.Close()

	data, err := navjs.ReadData(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return data, nil
}

// loadLists follows deferred references breadth first. Each list file is
// read at most once.
func loadLists(ctx context.Context, dir string, tree []navtree.Node, opts Options, log *slog.Logger) (map[string][]navtree.Node, error) {
	lists := map[string][]navtree.Node{}
	missing := map[string]bool{}
	queue := refs(tree)

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := queue[0]
		queue = queue[1:]
		if _, done := lists[name]; done || missing[name] {
			continue
		}
		if !navtree.ValidRefName(name) {
			// Reported by validation.
			missing[name] = true
			continue
		}

		nodes, err := readList(filepath.Join(dir, navjs.ListFile(name)), name)
		if errors.Is(err, fs.ErrNotExist) {
			if opts.Strict {
				return nil, fmt.Errorf("deferred list %q: %w", name, err)
			}
			log.Warn("deferred list file missing", "list", name)
			missing[name] = true
			continue
		}
		if err != nil {
			return nil, err
		}
		lists[name] = nodes
		queue = append(queue, refs(nodes)...)
	}
	return lists, nil
}

func readList(path, want string) ([]navtree.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name, nodes, err := navjs.ReadList(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if name != want {
		return nil, fmt.Errorf("parse %s: declares %q, expected %q", path, name, want)
	}
	return nodes, nil
}

// loadChunks reads navtreeindex0.js .. navtreeindex<n-1>.js. A directory
// without any chunk files yields nil; a partial set is an error.
func loadChunks(ctx context.Context, dir string, n int, log *slog.Logger) ([]map[string][]int, error) {
	var chunks []map[string][]int
	for i := range n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, navjs.ChunkFile(i))
		chunk, err := readChunk(path, navjs.ChunkVar(i))
		if errors.Is(err, fs.ErrNotExist) && i == 0 {
			log.Debug("no page locator chunks", "dir", dir)
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

func readChunk(path, want string) (map[string][]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name, chunk, err := navjs.ReadChunk(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if name != want {
		return nil, fmt.Errorf("parse %s: declares %q, expected %q", path, name, want)
	}
	return chunk, nil
}

func refs(nodes []navtree.Node) []string {
	var out []string
	for _, n := range nodes {
		switch n.Children.Kind() {
		case navtree.ChildrenDeferred:
			out = append(out, n.Children.Ref())
		case navtree.ChildrenInline:
			out = append(out, refs(n.Children.Nodes())...)
		}
	}
	return out
}
