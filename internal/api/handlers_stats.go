package api

import (
	"net/http"

	"github.com/dgallion1/docnav/internal/navtree"
)

// TreeStats summarizes the served table.
type TreeStats struct {
	Nodes        int      `json:"nodes"`
	Links        int      `json:"links"`
	Groups       int      `json:"groups"`
	MaxDepth     int      `json:"max_depth"`
	Lists        int      `json:"lists"`
	IndexEntries int      `json:"index_entries"`
	Chunks       int      `json:"chunks"`
	Unresolved   []string `json:"unresolved"`
}

func treeStats(t *navtree.Table) (TreeStats, error) {
	st := TreeStats{
		Lists:        t.Registry().Len(),
		IndexEntries: t.Len(),
		Chunks:       len(t.PageChunks()),
		Unresolved:   t.Unresolved(),
	}
	if st.Unresolved == nil {
		st.Unresolved = []string{}
	}
	err := t.Walk(func(path []int, n navtree.Node) error {
		st.Nodes++
		if n.HasTarget() {
			st.Links++
		} else {
			st.Groups++
		}
		st.MaxDepth = max(st.MaxDepth, len(path))
		return nil
	})
	return st, err
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := treeStats(s.Table())
	if err != nil {
		jsonError(w, "walk navigation: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, st)
}
