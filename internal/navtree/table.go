package navtree

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
)

// Table is the loaded navigation tree and its page index. A Table never
// changes after New returns; every accessor hands out copies.
type Table struct {
	root       []Node
	index      []string
	registry   *Registry
	pages      []map[string][]int
	unresolved []string
}

// Option configures New.
type Option func(*options)

type options struct {
	registry        *Registry
	pages           []map[string][]int
	requireResolved bool
}

// WithRegistry supplies the lists that deferred children resolve against.
func WithRegistry(r *Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithPageChunks supplies the page locator chunks. Chunk i holds the pages
// sorted at or after index entry i and before entry i+1.
func WithPageChunks(chunks []map[string][]int) Option {
	return func(o *options) { o.pages = chunks }
}

// RequireResolved makes unresolved deferred references a validation error.
func RequireResolved() Option {
	return func(o *options) { o.requireResolved = true }
}

// New validates root and index and returns an immutable Table. Any
// violation rejects the whole table.
func New(root []Node, index []string, opts ...Option) (*Table, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = NewRegistry(nil)
	}
	if err := Validate(root, index, o.registry, o.requireResolved); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTable, err)
	}
	if len(o.pages) > 0 && len(o.pages) != len(index) {
		return nil, fmt.Errorf("%w: %d page chunks for %d index entries", ErrInvalidTable, len(o.pages), len(index))
	}

	t := &Table{
		root:     slices.Clone(root),
		index:    slices.Clone(index),
		registry: o.registry,
	}
	for _, chunk := range o.pages {
		c := make(map[string][]int, len(chunk))
		for url, path := range chunk {
			c[url] = slices.Clone(path)
		}
		t.pages = append(t.pages, c)
	}
	t.unresolved = t.collectUnresolved()
	return t, nil
}

// Root returns the top-level nodes.
func (t *Table) Root() []Node { return slices.Clone(t.root) }

// Index returns the flat page index.
func (t *Table) Index() []string { return slices.Clone(t.index) }

// IndexAt returns the index entry at position i.
func (t *Table) IndexAt(i int) (string, bool) {
	if i < 0 || i >= len(t.index) {
		return "", false
	}
	return t.index[i], true
}

// Len returns the number of index entries.
func (t *Table) Len() int { return len(t.index) }

// Registry returns the deferred list registry.
func (t *Table) Registry() *Registry { return t.registry }

// PageChunks returns a copy of the page locator chunks.
func (t *Table) PageChunks() []map[string][]int {
	out := make([]map[string][]int, 0, len(t.pages))
	for _, chunk := range t.pages {
		c := make(map[string][]int, len(chunk))
		for url, path := range chunk {
			c[url] = slices.Clone(path)
		}
		out = append(out, c)
	}
	return out
}

// Unresolved returns deferred names that have no registry entry.
func (t *Table) Unresolved() []string { return slices.Clone(t.unresolved) }

// Children resolves n's children through the registry.
func (t *Table) Children(n Node) ([]Node, error) {
	switch n.Children.Kind() {
	case ChildrenInline:
		return n.Children.Nodes(), nil
	case ChildrenDeferred:
		return t.registry.Lookup(n.Children.Ref())
	default:
		return nil, nil
	}
}

// WalkFunc is called for each node. path holds the positions from the root
// slice down to the node.
type WalkFunc func(path []int, n Node) error

// SkipChildren can be returned by a WalkFunc to skip a node's subtree.
var SkipChildren = errors.New("skip children")

// Walk visits every node depth-first, descending into deferred lists that
// resolve. Unresolved references are treated as leaves.
func (t *Table) Walk(fn WalkFunc) error {
	for i, n := range t.root {
		if err := t.walk([]int{i}, n, fn, nil); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) walk(path []int, n Node, fn WalkFunc, active []string) error {
	err := fn(slices.Clone(path), n)
	if errors.Is(err, SkipChildren) {
		return nil
	}
	if err != nil {
		return err
	}
	if n.Children.Kind() == ChildrenDeferred {
		ref := n.Children.Ref()
		if slices.Contains(active, ref) {
			return fmt.Errorf("reference cycle through %q", ref)
		}
		active = append(active, ref)
	}
	children, err := t.Children(n)
	if errors.Is(err, ErrUnknownReference) {
		return nil
	}
	if err != nil {
		return err
	}
	for i, c := range children {
		if err := t.walk(append(path, i), c, fn, active); err != nil {
			return err
		}
	}
	return nil
}

// NodeAt follows path below the first root node, the convention used by
// page locator chunks. An empty path returns the first root node.
func (t *Table) NodeAt(path []int) (Node, error) {
	trail, err := t.Breadcrumb(path)
	if err != nil {
		return Node{}, err
	}
	return trail[len(trail)-1], nil
}

// Breadcrumb returns the nodes visited while following path, starting with
// the first root node.
func (t *Table) Breadcrumb(path []int) ([]Node, error) {
	if len(t.root) == 0 {
		return nil, errors.New("empty navigation tree")
	}
	n := t.root[0]
	trail := []Node{n}
	for depth, pos := range path {
		children, err := t.Children(n)
		if err != nil {
			return nil, fmt.Errorf("depth %d: %w", depth, err)
		}
		if pos < 0 || pos >= len(children) {
			return nil, fmt.Errorf("depth %d: position %d out of range (%d children)", depth, pos, len(children))
		}
		n = children[pos]
		trail = append(trail, n)
	}
	return trail, nil
}

// Locate returns the tree path of a page. The index is searched for the
// chunk that covers url, then the chunk is consulted. A url with a fragment
// that is not listed falls back to the bare page.
func (t *Table) Locate(url string) ([]int, bool) {
	if path, ok := t.locate(url); ok {
		return path, true
	}
	if page, _, found := strings.Cut(url, "#"); found {
		return t.locate(page)
	}
	return nil, false
}

func (t *Table) locate(url string) ([]int, bool) {
	if len(t.pages) == 0 {
		return nil, false
	}
	// Largest i with index[i] <= url.
	i := sort.Search(len(t.index), func(i int) bool { return t.index[i] > url }) - 1
	if i < 0 {
		return nil, false
	}
	path, ok := t.pages[i][url]
	if !ok {
		return nil, false
	}
	return slices.Clone(path), true
}

func (t *Table) collectUnresolved() []string {
	seen := map[string]bool{}
	var visit func(nodes []Node)
	visit = func(nodes []Node) {
		for _, n := range nodes {
			switch n.Children.Kind() {
			case ChildrenInline:
				visit(n.Children.nodes)
			case ChildrenDeferred:
				if ref := n.Children.Ref(); !t.registry.Has(ref) {
					seen[ref] = true
				}
			}
		}
	}
	visit(t.root)
	for _, name := range t.registry.Names() {
		visit(t.registry.lists[name])
	}
	return slices.Sorted(maps.Keys(seen))
}
