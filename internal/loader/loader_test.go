package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dgallion1/docnav/internal/navtree"
)

const navData = `var NAVTREE =
[
  [ "CoreNEURON", "index.html", [
    [ "Files", "files.html", [
      [ "File List", "files.html", "files_dup" ],
      [ "File Members", "globals.html", null ]
    ] ]
  ] ]
];

var NAVTREEINDEX =
[
"abort_8cpp.html",
"index.html"
];
`

const filesDup = `var files_dup =
[
    [ "coreneuron", "dir_a.html", "dir_a" ],
    [ "abort.cpp", "abort_8cpp.html", null ]
];
`

const dirA = `var dir_a =
[
    [ "utils.hpp", "utils_8hpp.html", null ]
];
`

const chunk0 = `var NAVTREEINDEX0 =
{
"abort_8cpp.html":[0,0,1],
"files.html":[0]
};
`

const chunk1 = `var NAVTREEINDEX1 =
{
"index.html":[],
"utils_8hpp.html":[0,0,0,0]
};
`

func writeDocs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func fullDocs(t *testing.T) string {
	return writeDocs(t, map[string]string{
		DataFile:           navData,
		"files_dup.js":     filesDup,
		"dir_a.js":         dirA,
		"navtreeindex0.js": chunk0,
		"navtreeindex1.js": chunk1,
	})
}

func TestLoad_FollowsDeferredLists(t *testing.T) {
	res, err := Load(context.Background(), fullDocs(t), Options{Strict: true}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tbl := res.Table

	if diff := cmp.Diff([]string{"dir_a", "files_dup"}, tbl.Registry().Names()); diff != "" {
		t.Errorf("registry mismatch (-want +got):\n%s", diff)
	}
	if len(tbl.Unresolved()) != 0 {
		t.Errorf("expected no unresolved refs, got %v", tbl.Unresolved())
	}

	var labels []string
	if err := tbl.Walk(func(_ []int, n navtree.Node) error {
		labels = append(labels, n.Label)
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"CoreNEURON", "Files", "File List", "coreneuron", "utils.hpp", "abort.cpp", "File Members"}
	if diff := cmp.Diff(want, labels); diff != "" {
		t.Errorf("walk mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_LocatesPages(t *testing.T) {
	res, err := Load(context.Background(), fullDocs(t), Options{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	path, ok := res.Table.Locate("utils_8hpp.html")
	if !ok {
		t.Fatal("expected utils_8hpp.html to be located")
	}
	n, err := res.Table.NodeAt(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Label != "utils.hpp" {
		t.Errorf("expected node %q, got %q", "utils.hpp", n.Label)
	}
}

func TestLoad_MissingListLenient(t *testing.T) {
	dir := writeDocs(t, map[string]string{DataFile: navData})
	res, err := Load(context.Background(), dir, Options{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"files_dup"}, res.Table.Unresolved()); diff != "" {
		t.Errorf("unresolved mismatch (-want +got):\n%s", diff)
	}
	if len(res.Table.PageChunks()) != 0 {
		t.Errorf("expected no page chunks, got %v", res.Table.PageChunks())
	}
}

func TestLoad_MissingListStrict(t *testing.T) {
	dir := writeDocs(t, map[string]string{DataFile: navData})
	_, err := Load(context.Background(), dir, Options{Strict: true}, nil)
	if err == nil || !strings.Contains(err.Error(), "files_dup") {
		t.Fatalf("expected missing list error, got %v", err)
	}
}

func TestLoad_PartialChunks(t *testing.T) {
	dir := writeDocs(t, map[string]string{
		DataFile:           navData,
		"navtreeindex0.js": chunk0,
	})
	if _, err := Load(context.Background(), dir, Options{}, nil); err == nil {
		t.Fatal("expected error for missing second chunk")
	}
}

func TestLoad_ListNameMismatch(t *testing.T) {
	dir := writeDocs(t, map[string]string{
		DataFile:       navData,
		"files_dup.js": dirA,
	})
	_, err := Load(context.Background(), dir, Options{}, nil)
	if err == nil || !strings.Contains(err.Error(), `declares "dir_a"`) {
		t.Fatalf("expected name mismatch error, got %v", err)
	}
}

func TestLoad_RejectsInvalidTargets(t *testing.T) {
	bad := strings.Replace(navData, `"globals.html"`, `"globals page.html"`, 1)
	dir := writeDocs(t, map[string]string{DataFile: bad})
	_, err := Load(context.Background(), dir, Options{}, nil)
	if !errors.Is(err, navtree.ErrInvalidTable) {
		t.Fatalf("expected ErrInvalidTable, got %v", err)
	}
}

func TestLoad_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, fullDocs(t), Options{}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLoad_MissingDataFile(t *testing.T) {
	if _, err := Load(context.Background(), t.TempDir(), Options{}, nil); err == nil {
		t.Fatal("expected error for empty directory")
	}
}

func TestLoadFile(t *testing.T) {
	dir := writeDocs(t, map[string]string{DataFile: navData})
	res, err := LoadFile(filepath.Join(dir, DataFile))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := res.Table.IndexAt(0); got != "abort_8cpp.html" {
		t.Errorf("expected index[0] %q, got %q", "abort_8cpp.html", got)
	}
}

func TestWrite_RoundTripsDirectory(t *testing.T) {
	src := fullDocs(t)
	res, err := Load(context.Background(), src, Options{Strict: true}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := t.TempDir()
	if err := Write(out, res.Table, res.Data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{DataFile, "files_dup.js", "dir_a.js", "navtreeindex0.js", "navtreeindex1.js"} {
		want, _ := os.ReadFile(filepath.Join(src, name))
		got, err := os.ReadFile(filepath.Join(out, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if diff := cmp.Diff(string(want), string(got)); diff != "" {
			t.Errorf("%s differs (-want +got):\n%s", name, diff)
		}
	}
}
