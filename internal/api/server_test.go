package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dgallion1/docnav/internal/config"
	"github.com/dgallion1/docnav/internal/loader"
	"github.com/dgallion1/docnav/internal/navtree"
	"github.com/dgallion1/docnav/internal/pathstore"
)

type fakePublisher struct {
	prefix string
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, t *navtree.Table, prefix string) (pathstore.PublishStats, error) {
	p.prefix = prefix
	return pathstore.PublishStats{Nodes: t.Len()}, p.err
}

func testTable(t *testing.T) *navtree.Table {
	t.Helper()
	root := []navtree.Node{
		navtree.Branch("CoreNEURON", "index.html",
			navtree.Branch("Files", "files.html",
				navtree.Ref("File List", "files.html", "files_dup"),
			),
		),
	}
	reg := navtree.NewRegistry(map[string][]navtree.Node{
		"files_dup": {navtree.Leaf("abort.cpp", "abort_8cpp.html")},
	})
	pages := []map[string][]int{
		{"abort_8cpp.html": {0, 0, 0}, "files.html": {0}, "index.html": {}},
	}
	tbl, err := navtree.New(root, []string{"abort_8cpp.html"},
		navtree.WithRegistry(reg), navtree.WithPageChunks(pages))
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	return tbl
}

func newTestServer(t *testing.T, pub Publisher, docsDir string) *Server {
	t.Helper()
	cfg := config.Config{DocsDir: docsDir, APIKey: "secret", PathstorePrefix: "docnav", CheckWorkers: 2}
	log := slog.New(slog.DiscardHandler)
	return NewServer(&loader.Result{Table: testTable(t)}, pub, log, cfg)
}

func do(t *testing.T, s *Server, method, target string, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if auth {
		req.Header.Set("Authorization", "Bearer secret")
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v\n%s", err, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil, t.TempDir())
	rec := do(t, s, http.MethodGet, "/health", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != `{"status":"ok"}` {
		t.Errorf("expected ok body, got %q", got)
	}
}

func TestExport(t *testing.T) {
	s := newTestServer(t, nil, t.TempDir())

	rec := do(t, s, http.MethodGet, "/api/navtree", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"children": "files_dup"`) {
		t.Errorf("expected deferred children in json export:\n%s", rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/api/navtree?format=yaml", false)
	if ct := rec.Header().Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("expected yaml content type, got %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "label: CoreNEURON") {
		t.Errorf("expected yaml export:\n%s", rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/api/navtree?format=xml", false)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown format, got %d", rec.Code)
	}
}

func TestIndexRoutes(t *testing.T) {
	s := newTestServer(t, nil, t.TempDir())

	var all struct {
		Index  []string `json:"index"`
		Chunks int      `json:"chunks"`
	}
	decode(t, do(t, s, http.MethodGet, "/api/navtree/index", false), &all)
	if diff := cmp.Diff([]string{"abort_8cpp.html"}, all.Index); diff != "" {
		t.Errorf("index mismatch (-want +got):\n%s", diff)
	}
	if all.Chunks != 1 {
		t.Errorf("expected 1 chunk, got %d", all.Chunks)
	}

	var one struct {
		URL string `json:"url"`
	}
	decode(t, do(t, s, http.MethodGet, "/api/navtree/index/0", false), &one)
	if one.URL != "abort_8cpp.html" {
		t.Errorf("expected abort_8cpp.html, got %q", one.URL)
	}

	if rec := do(t, s, http.MethodGet, "/api/navtree/index/5", false); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/navtree/index/x", false); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestRefs(t *testing.T) {
	s := newTestServer(t, nil, t.TempDir())

	var got struct {
		Name  string `json:"name"`
		Nodes []struct {
			Label  string `json:"label"`
			Target string `json:"target"`
		} `json:"nodes"`
	}
	decode(t, do(t, s, http.MethodGet, "/api/navtree/refs/files_dup", false), &got)
	if len(got.Nodes) != 1 || got.Nodes[0].Target != "abort_8cpp.html" {
		t.Errorf("unexpected list: %+v", got)
	}

	if rec := do(t, s, http.MethodGet, "/api/navtree/refs/nope", false); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestLocate(t *testing.T) {
	s := newTestServer(t, nil, t.TempDir())

	var got struct {
		Path       []int   `json:"path"`
		Breadcrumb []crumb `json:"breadcrumb"`
	}
	decode(t, do(t, s, http.MethodGet, "/api/navtree/locate?url=abort_8cpp.html%23l00012", false), &got)
	if diff := cmp.Diff([]int{0, 0, 0}, got.Path); diff != "" {
		t.Errorf("path mismatch (-want +got):\n%s", diff)
	}
	want := []crumb{
		{Label: "CoreNEURON", Target: "index.html"},
		{Label: "Files", Target: "files.html"},
		{Label: "File List", Target: "files.html"},
		{Label: "abort.cpp", Target: "abort_8cpp.html"},
	}
	if diff := cmp.Diff(want, got.Breadcrumb); diff != "" {
		t.Errorf("breadcrumb mismatch (-want +got):\n%s", diff)
	}

	if rec := do(t, s, http.MethodGet, "/api/navtree/locate?url=zzz.html", false); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/navtree/locate", false); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestNavigationScripts(t *testing.T) {
	s := newTestServer(t, nil, t.TempDir())

	rec := do(t, s, http.MethodGet, "/navtreedata.js", false)
	body := rec.Body.String()
	if !strings.HasPrefix(body, "var NAVTREE =\n[\n") || !strings.Contains(body, `[ "File List", "files.html", "files_dup" ]`) {
		t.Errorf("unexpected navtreedata.js:\n%s", body)
	}

	rec = do(t, s, http.MethodGet, "/js/files_dup.js", false)
	if !strings.HasPrefix(rec.Body.String(), "var files_dup =\n[\n") {
		t.Errorf("unexpected list file:\n%s", rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/js/navtreeindex0.js", false)
	if !strings.Contains(rec.Body.String(), `"abort_8cpp.html":[0,0,0]`) {
		t.Errorf("unexpected chunk file:\n%s", rec.Body.String())
	}

	for _, path := range []string{"/js/navtreeindex3.js", "/js/missing.js", "/js/style.css"} {
		if rec := do(t, s, http.MethodGet, path, false); rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
		}
	}
}

func TestStats(t *testing.T) {
	s := newTestServer(t, nil, t.TempDir())
	var got TreeStats
	decode(t, do(t, s, http.MethodGet, "/api/navtree/stats", false), &got)
	want := TreeStats{Nodes: 4, Links: 4, MaxDepth: 4, Lists: 1, IndexEntries: 1, Chunks: 1, Unresolved: []string{}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t, &fakePublisher{}, t.TempDir())
	for _, path := range []string{"/api/navtree/check", "/api/navtree/publish", "/api/navtree/reload"} {
		if rec := do(t, s, http.MethodPost, path, false); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/navtree/check", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong key, got %d", rec.Code)
	}
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"index.html", "files.html"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("<p>ok</p>"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	s := newTestServer(t, nil, dir)

	var got struct {
		OK       bool `json:"ok"`
		Problems []struct {
			Target string `json:"target"`
		} `json:"problems"`
	}
	decode(t, do(t, s, http.MethodPost, "/api/navtree/check", true), &got)
	if got.OK || len(got.Problems) != 1 || got.Problems[0].Target != "abort_8cpp.html" {
		t.Errorf("expected one missing page, got %+v", got)
	}
}

func TestPublish(t *testing.T) {
	pub := &fakePublisher{}
	s := newTestServer(t, pub, t.TempDir())

	rec := do(t, s, http.MethodPost, "/api/navtree/publish", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if pub.prefix != "docnav" {
		t.Errorf("expected configured prefix, got %q", pub.prefix)
	}

	do(t, s, http.MethodPost, "/api/navtree/publish?prefix=neuron/v2", true)
	if pub.prefix != "neuron/v2" {
		t.Errorf("expected query prefix, got %q", pub.prefix)
	}

	pub.err = errors.New("store down")
	if rec := do(t, s, http.MethodPost, "/api/navtree/publish", true); rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}

	unconfigured := newTestServer(t, nil, t.TempDir())
	if rec := do(t, unconfigured, http.MethodPost, "/api/navtree/publish", true); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestReload(t *testing.T) {
	dir := t.TempDir()
	s := newTestServer(t, nil, dir)

	// Nothing to load yet; the old table stays.
	if rec := do(t, s, http.MethodPost, "/api/navtree/reload", true); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
	if s.Table().Len() != 1 {
		t.Fatal("expected previous table to be kept")
	}

	data := "var NAVTREE =\n[\n  [ \"Docs\", \"index.html\", null ]\n];\n\nvar NAVTREEINDEX =\n[\n\"a.html\",\n\"b.html\"\n];\n"
	if err := os.WriteFile(filepath.Join(dir, loader.DataFile), []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if rec := do(t, s, http.MethodPost, "/api/navtree/reload", true); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := s.Table().Len(); got != 2 {
		t.Errorf("expected 2 index entries after reload, got %d", got)
	}
}
