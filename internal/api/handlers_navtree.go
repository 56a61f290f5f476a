package api

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/docnav/internal/export"
	"github.com/dgallion1/docnav/internal/navjs"
	"github.com/dgallion1/docnav/internal/navtree"
	"github.com/go-chi/chi/v5"
)

// handleExport renders the whole table as JSON, or YAML with ?format=yaml.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	t := s.Table()
	switch r.URL.Query().Get("format") {
	case "", "json":
		w.Header().Set("Content-Type", "application/json")
		if err := export.WriteJSON(w, t); err != nil {
			s.log.Error("export failed", "format", "json", "error", err)
		}
	case "yaml":
		w.Header().Set("Content-Type", "application/yaml")
		if err := export.WriteYAML(w, t); err != nil {
			s.log.Error("export failed", "format", "yaml", "error", err)
		}
	default:
		jsonError(w, "format must be json or yaml", http.StatusBadRequest)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	t := s.Table()
	index := t.Index()
	if index == nil {
		index = []string{}
	}
	writeJSON(w, map[string]any{
		"index":  index,
		"chunks": len(t.PageChunks()),
	})
}

func (s *Server) handleIndexAt(w http.ResponseWriter, r *http.Request) {
	pos, err := strconv.Atoi(chi.URLParam(r, "pos"))
	if err != nil {
		jsonError(w, "position must be an integer", http.StatusBadRequest)
		return
	}
	url, ok := s.Table().IndexAt(pos)
	if !ok {
		jsonError(w, "position out of range", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"position": pos, "url": url})
}

// handleRefs returns one deferred child list.
func (s *Server) handleRefs(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	nodes, err := s.Table().Registry().Lookup(name)
	if errors.Is(err, navtree.ErrUnknownReference) {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"name": name, "nodes": export.Nodes(nodes)})
}

type crumb struct {
	Label  string `json:"label"`
	Target string `json:"target,omitempty"`
}

// handleLocate finds a page's position in the tree and its breadcrumb.
func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		jsonError(w, "url query parameter is required", http.StatusBadRequest)
		return
	}
	t := s.Table()
	path, ok := t.Locate(url)
	if !ok {
		jsonError(w, "page not indexed", http.StatusNotFound)
		return
	}
	trail, err := t.Breadcrumb(path)
	if err != nil {
		// Chunk paths into an unresolved list.
		s.log.Warn("locator path does not resolve", "url", url, "path", path, "error", err)
		jsonError(w, err.Error(), http.StatusConflict)
		return
	}
	crumbs := make([]crumb, 0, len(trail))
	for _, n := range trail {
		crumbs = append(crumbs, crumb{Label: n.Label, Target: n.Target})
	}
	writeJSON(w, map[string]any{"url": url, "path": path, "breadcrumb": crumbs})
}

// handleNavData regenerates navtreedata.js from the served table.
func (s *Server) handleNavData(w http.ResponseWriter, r *http.Request) {
	res := s.current.Load()
	data := &navjs.Data{Tree: res.Table.Root(), Index: res.Table.Index()}
	if res.Data != nil {
		data.Header = res.Data.Header
		data.Extra = res.Data.Extra
	}
	w.Header().Set("Content-Type", "application/javascript")
	if err := navjs.WriteData(w, data); err != nil {
		s.log.Error("write navigation data failed", "error", err)
	}
}

var chunkFile = regexp.MustCompile(`^navtreeindex(\d+)\.js$`)

// handleCompanion serves a deferred list file or a page locator chunk.
func (s *Server) handleCompanion(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	t := s.Table()

	if m := chunkFile.FindStringSubmatch(file); m != nil {
		n, _ := strconv.Atoi(m[1])
		chunks := t.PageChunks()
		if n >= len(chunks) {
			jsonError(w, "no such chunk", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/javascript")
		if err := navjs.WriteChunk(w, navjs.ChunkVar(n), chunks[n]); err != nil {
			s.log.Error("write chunk failed", "chunk", n, "error", err)
		}
		return
	}

	name, ok := strings.CutSuffix(file, ".js")
	if !ok {
		jsonError(w, "not found", http.StatusNotFound)
		return
	}
	nodes, err := t.Registry().Lookup(name)
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/javascript")
	if err := navjs.WriteList(w, name, nodes); err != nil {
		s.log.Error("write list failed", "list", name, "error", err)
	}
}
