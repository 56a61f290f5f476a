package api

import (
	"net/http"

	"github.com/dgallion1/docnav/internal/linkcheck"
	"github.com/dgallion1/docnav/internal/loader"
)

// handleCheck verifies every target against the pages in the docs dir.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	problems, err := linkcheck.Check(r.Context(), s.cfg.DocsDir, s.Table(),
		linkcheck.Options{Workers: s.cfg.CheckWorkers}, s.log)
	if err != nil {
		jsonError(w, "link check failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if problems == nil {
		problems = []linkcheck.Problem{}
	}
	writeJSON(w, map[string]any{
		"ok":       len(problems) == 0,
		"problems": problems,
	})
}

// handlePublish pushes the table to pathstore under ?prefix= or the
// configured prefix.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	if s.publisher == nil {
		jsonError(w, "publishing is not configured", http.StatusServiceUnavailable)
		return
	}
	prefix := r.URL.Query().Get("prefix")
	if prefix == "" {
		prefix = s.cfg.PathstorePrefix
	}
	stats, err := s.publisher.Publish(r.Context(), s.Table(), prefix)
	if err != nil {
		s.log.Error("publish failed", "prefix", prefix, "error", err)
		jsonError(w, "publish failed: "+err.Error(), http.StatusBadGateway)
		return
	}
	s.log.Info("published navigation", "prefix", prefix, "nodes", stats.Nodes, "lists", stats.Lists)
	writeJSON(w, map[string]any{"prefix": prefix, "stats": stats})
}

// handleReload re-reads the docs dir. The old table keeps being served if
// the new one does not load.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	res, err := loader.Load(r.Context(), s.cfg.DocsDir, loader.Options{Strict: s.cfg.StrictRefs}, s.log)
	if err != nil {
		s.log.Error("reload failed", "dir", s.cfg.DocsDir, "error", err)
		jsonError(w, "reload failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	s.current.Store(res)
	writeJSON(w, map[string]any{
		"status":        "reloaded",
		"index_entries": res.Table.Len(),
		"unresolved":    len(res.Table.Unresolved()),
	})
}
