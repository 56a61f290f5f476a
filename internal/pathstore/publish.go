package pathstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docnav/internal/navtree"
)

// Source tags every node written by Publish.
const Source = "docnav"

// NodeValue is the stored form of one navigation node.
type NodeValue struct {
	Label    string `json:"label"`
	Target   string `json:"target,omitempty"`
	Ref      string `json:"ref,omitempty"`
	Children int    `json:"children"`
}

// ListValue is stored at <prefix>/refs/<name>.
type ListValue struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// IndexValue is stored at <prefix>/index.
type IndexValue struct {
	Entries    []string `json:"entries"`
	Unresolved []string `json:"unresolved,omitempty"`
}

// PublishStats counts what Publish wrote.
type PublishStats struct {
	Nodes int `json:"nodes"`
	Lists int `json:"lists"`
	Links int `json:"links"`
}

type write struct {
	key   string
	value any
}

// Publish replaces everything under prefix with t. Tree nodes go to
// <prefix>/tree/<pos>/<pos>..., deferred lists to <prefix>/refs/<name>/<pos>...,
// and the page index to <prefix>/index. A node with deferred children is
// linked to its list. Writes that fail with a retryable error are retried
// with backoff.
func (c *Client) Publish(ctx context.Context, t *navtree.Table, prefix string) (PublishStats, error) {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return PublishStats{}, fmt.Errorf("publish: empty prefix")
	}
	var stats PublishStats

	err := c.retry(ctx, func() error { return c.DeleteNode(ctx, prefix, true) })
	if err != nil {
		return stats, fmt.Errorf("publish: clear %s: %w", prefix, err)
	}

	reg := t.Registry()
	var (
		writes []write
		links  []LinkRequest
	)
	var collect func(base string, nodes []navtree.Node)
	collect = func(base string, nodes []navtree.Node) {
		for i, n := range nodes {
			key := base + "/" + strconv.Itoa(i)
			v := NodeValue{Label: n.Label, Target: n.Target}
			switch n.Children.Kind() {
			case navtree.ChildrenInline:
				children := n.Children.Nodes()
				v.Children = len(children)
				collect(key, children)
			case navtree.ChildrenDeferred:
				v.Ref = n.Children.Ref()
				if reg.Has(v.Ref) {
					links = append(links, LinkRequest{
						From:    key,
						To:      prefix + "/refs/" + v.Ref,
						Weight:  1,
						Summary: n.Label,
					})
				}
			}
			writes = append(writes, write{key: key, value: v})
		}
	}
	collect(prefix+"/tree", t.Root())
	stats.Nodes = len(writes)

	for _, name := range reg.Names() {
		nodes, err := reg.Lookup(name)
		if err != nil {
			return stats, fmt.Errorf("publish: %w", err)
		}
		base := prefix + "/refs/" + name
		writes = append(writes, write{key: base, value: ListValue{Name: name, Count: len(nodes)}})
		before := len(writes)
		collect(base, nodes)
		stats.Nodes += len(writes) - before
		stats.Lists++
	}

	if err := c.putAll(ctx, writes); err != nil {
		return stats, fmt.Errorf("publish: %w", err)
	}

	// Links need both ends in place.
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(c.concurrency)
	for _, l := range links {
		eg.Go(func() error {
			return c.retry(egCtx, func() error { return c.PutLink(egCtx, l) })
		})
	}
	if err := eg.Wait(); err != nil {
		return stats, fmt.Errorf("publish: %w", err)
	}
	stats.Links = len(links)

	index := IndexValue{Entries: t.Index(), Unresolved: t.Unresolved()}
	if index.Entries == nil {
		index.Entries = []string{}
	}
	err = c.retry(ctx, func() error {
		return c.PutNode(ctx, prefix+"/index", NodeRequest{Value: index, Source: Source})
	})
	if err != nil {
		return stats, fmt.Errorf("publish: %w", err)
	}
	return stats, nil
}

func (c *Client) putAll(ctx context.Context, writes []write) error {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(c.concurrency)
	for _, w := range writes {
		eg.Go(func() error {
			return c.retry(egCtx, func() error {
				return c.PutNode(egCtx, w.key, NodeRequest{Value: w.value, Source: Source})
			})
		})
	}
	return eg.Wait()
}
