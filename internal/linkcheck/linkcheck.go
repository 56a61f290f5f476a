// Package linkcheck verifies navigation targets against the HTML pages of a
// documentation directory.
package linkcheck

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docnav/internal/navtree"
)

// DefaultWorkers bounds concurrent page scans when Options.Workers is zero.
const DefaultWorkers = 8

// Problem is a target that does not resolve on disk.
type Problem struct {
	Label  string `json:"label"`
	Target string `json:"target"`
	Reason string `json:"reason"`
}

func (p Problem) String() string {
	return fmt.Sprintf("%s (%s): %s", p.Target, p.Label, p.Reason)
}

// ErrOutsideDir is reported for targets whose page lies outside the
// documentation directory.
var ErrOutsideDir = errors.New("page outside docs directory")

type Options struct {
	Workers int
}

// link is one distinct target, remembered with the first label that used it.
type link struct {
	label    string
	target   string
	fragment string
}

// Check walks t and reports every target whose page is missing from dir or
// whose fragment names no id or anchor in that page. Each page is parsed
// once. Problems are sorted by target.
func Check(ctx context.Context, dir string, t *navtree.Table, opts Options, log *slog.Logger) ([]Problem, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	byPage := map[string][]link{}
	seen := map[string]bool{}
	err := t.Walk(func(_ []int, n navtree.Node) error {
		if !n.HasTarget() || seen[n.Target] {
			return nil
		}
		seen[n.Target] = true
		page, fragment, _ := strings.Cut(n.Target, "#")
		page, _, _ = strings.Cut(page, "?")
		byPage[page] = append(byPage[page], link{label: n.Label, target: n.Target, fragment: fragment})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk navigation: %w", err)
	}

	var (
		mu       sync.Mutex
		problems []Problem
	)
	report := func(l link, reason string) {
		mu.Lock()
		problems = append(problems, Problem{Label: l.label, Target: l.target, Reason: reason})
		mu.Unlock()
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for page, links := range byPage {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			ids, err := pageAnchors(dir, page)
			if errors.Is(err, fs.ErrNotExist) {
				for _, l := range links {
					report(l, "page not found")
				}
				return nil
			}
			if err != nil {
				for _, l := range links {
					report(l, err.Error())
				}
				return nil
			}
			for _, l := range links {
				if l.fragment != "" && !ids[l.fragment] {
					report(l, fmt.Sprintf("anchor %q not found", l.fragment))
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(problems, func(a, b Problem) int {
		return cmp.Or(strings.Compare(a.Target, b.Target), strings.Compare(a.Reason, b.Reason))
	})
	log.Info("link check complete", "pages", len(byPage), "targets", len(seen), "problems", len(problems))
	return problems, nil
}

// pageAnchors parses a page and returns the set of its id and <a name>
// values. Pages that escape dir are refused.
func pageAnchors(dir, page string) (map[string]bool, error) {
	rel, err := url.PathUnescape(page)
	if err != nil {
		return nil, fmt.Errorf("bad page path: %w", err)
	}
	rel = filepath.FromSlash(rel)
	if !filepath.IsLocal(rel) {
		return nil, ErrOutsideDir
	}
	f, err := os.Open(filepath.Join(dir, rel))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	ids := map[string]bool{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key == "id" || (a.Key == "name" && n.Data == "a") {
					ids[a.Val] = true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return ids, nil
}
