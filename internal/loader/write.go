package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dgallion1/docnav/internal/navjs"
	"github.com/dgallion1/docnav/internal/navtree"
)

// Write lays out table in dir the way the generator does: navtreedata.js,
// one file per deferred list, and one file per page locator chunk. data
// supplies the header and extra vars; it may be nil.
func Write(dir string, table *navtree.Table, data *navjs.Data) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	out := &navjs.Data{Tree: table.Root(), Index: table.Index()}
	if data != nil {
		out.Header = data.Header
		out.Extra = data.Extra
	}
	if err := writeFile(filepath.Join(dir, DataFile), func(w io.Writer) error {
		return navjs.WriteData(w, out)
	}); err != nil {
		return err
	}

	reg := table.Registry()
	for _, name := range reg.Names() {
		nodes, err := reg.Lookup(name)
		if err != nil {
			return err
		}
		if err := writeFile(filepath.Join(dir, navjs.ListFile(name)), func(w io.Writer) error {
			return navjs.WriteList(w, name, nodes)
		}); err != nil {
			return err
		}
	}

	for i, chunk := range table.PageChunks() {
		if err := writeFile(filepath.Join(dir, navjs.ChunkFile(i)), func(w io.Writer) error {
			return navjs.WriteChunk(w, navjs.ChunkVar(i), chunk)
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
