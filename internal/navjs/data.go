package navjs

import (
	"fmt"
	"io"

	"github.com/dgallion1/docnav/internal/navtree"
)

// Variable names used by the generator.
const (
	TreeVar  = "NAVTREE"
	IndexVar = "NAVTREEINDEX"
)

// ChunkVar returns the variable name of page locator chunk n.
func ChunkVar(n int) string {
	return fmt.Sprintf("%s%d", IndexVar, n)
}

// ChunkFile returns the file name of page locator chunk n.
func ChunkFile(n int) string {
	return fmt.Sprintf("navtreeindex%d.js", n)
}

// ListFile returns the file name holding the deferred list name.
func ListFile(name string) string {
	return name + ".js"
}

// Data is the content of navtreedata.js.
type Data struct {
	Header string
	Tree   []navtree.Node
	Index  []string
	Extra  []Var // remaining scalar vars, e.g. the sync button captions
}

// ReadData decodes a navtreedata.js file.
func ReadData(r io.Reader) (*Data, error) {
	f, err := Decode(r)
	if err != nil {
		return nil, err
	}

	d := &Data{Header: f.Header}
	for _, v := range f.Vars {
		switch v.Name {
		case TreeVar:
			if d.Tree, err = TreeFrom(v.Value); err != nil {
				return nil, fmt.Errorf("%s: %w", TreeVar, err)
			}
		case IndexVar:
			if d.Index, err = IndexFrom(v.Value); err != nil {
				return nil, fmt.Errorf("%s: %w", IndexVar, err)
			}
		default:
			switch v.Value.(type) {
			case string, int, float64, bool, nil:
				d.Extra = append(d.Extra, v)
			default:
				return nil, fmt.Errorf("unsupported var %s", v.Name)
			}
		}
	}
	if _, ok := f.Lookup(TreeVar); !ok {
		return nil, fmt.Errorf("missing %s", TreeVar)
	}
	return d, nil
}

// ReadList decodes a deferred child list file and returns the list name
// with its nodes.
func ReadList(r io.Reader) (string, []navtree.Node, error) {
	f, err := Decode(r)
	if err != nil {
		return "", nil, err
	}
	if len(f.Vars) != 1 {
		return "", nil, fmt.Errorf("expected one list var, found %d", len(f.Vars))
	}
	v := f.Vars[0]
	nodes, err := TreeFrom(v.Value)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", v.Name, err)
	}
	return v.Name, nodes, nil
}

// ReadChunk decodes a navtreeindex<N>.js file.
func ReadChunk(r io.Reader) (string, map[string][]int, error) {
	f, err := Decode(r)
	if err != nil {
		return "", nil, err
	}
	if len(f.Vars) != 1 {
		return "", nil, fmt.Errorf("expected one chunk var, found %d", len(f.Vars))
	}
	v := f.Vars[0]
	chunk, err := ChunkFrom(v.Value)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", v.Name, err)
	}
	return v.Name, chunk, nil
}

// TreeFrom converts a decoded array of [label, target, children] entries.
// children is null, a list name, or a nested array.
func TreeFrom(v any) ([]navtree.Node, error) {
	entries, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected array, got %T", v)
	}
	nodes := make([]navtree.Node, 0, len(entries))
	for i, e := range entries {
		n, err := nodeFrom(e)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func nodeFrom(v any) (navtree.Node, error) {
	fields, ok := v.([]any)
	if !ok {
		return navtree.Node{}, fmt.Errorf("expected entry array, got %T", v)
	}
	if len(fields) < 2 || len(fields) > 3 {
		return navtree.Node{}, fmt.Errorf("expected 2 or 3 fields, got %d", len(fields))
	}

	var n navtree.Node
	label, ok := fields[0].(string)
	if !ok {
		return n, fmt.Errorf("label: expected string, got %T", fields[0])
	}
	n.Label = label

	switch t := fields[1].(type) {
	case nil:
	case string:
		if t == "" {
			return n, fmt.Errorf("%q: empty target, use null", label)
		}
		n.Target = t
	default:
		return n, fmt.Errorf("%q: target: expected string or null, got %T", label, t)
	}

	if len(fields) == 3 {
		switch c := fields[2].(type) {
		case nil:
		case string:
			n.Children = navtree.Deferred(c)
		case []any:
			children, err := TreeFrom(c)
			if err != nil {
				return n, fmt.Errorf("%q: %w", label, err)
			}
			n.Children = navtree.Inline(children...)
		default:
			return n, fmt.Errorf("%q: children: unexpected %T", label, c)
		}
	}
	return n, nil
}

// IndexFrom converts a decoded array of page urls.
func IndexFrom(v any) ([]string, error) {
	entries, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected array, got %T", v)
	}
	index := make([]string, 0, len(entries))
	for i, e := range entries {
		s, ok := e.(string)
		if !ok {
			return nil, fmt.Errorf("entry %d: expected string, got %T", i, e)
		}
		index = append(index, s)
	}
	return index, nil
}

// ChunkFrom converts a decoded object of url -> tree position arrays.
func ChunkFrom(v any) (map[string][]int, error) {
	obj, ok := v.(Object)
	if !ok {
		return nil, fmt.Errorf("expected object, got %T", v)
	}
	chunk := make(map[string][]int, len(obj))
	for _, m := range obj {
		raw, ok := m.Value.([]any)
		if !ok {
			return nil, fmt.Errorf("%q: expected array, got %T", m.Key, m.Value)
		}
		path := make([]int, 0, len(raw))
		for _, p := range raw {
			pos, ok := p.(int)
			if !ok || pos < 0 {
				return nil, fmt.Errorf("%q: bad position %v", m.Key, p)
			}
			path = append(path, pos)
		}
		chunk[m.Key] = path
	}
	return chunk, nil
}
