// Package export renders a navigation table as JSON or YAML and reads the
// JSON/YAML form back into a validated table.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/docnav/internal/navtree"
)

// Document is the serialized shape of a navtree.Table.
type Document struct {
	Root     []Node             `json:"root" yaml:"root"`
	Index    []string           `json:"index" yaml:"index"`
	Deferred map[string][]Node  `json:"deferred,omitempty" yaml:"deferred,omitempty"`
	Pages    []map[string][]int `json:"pages,omitempty" yaml:"pages,omitempty"`
}

// Node is one serialized tree entry. An empty Target stands for a node
// without a link.
type Node struct {
	Label    string    `json:"label" yaml:"label"`
	Target   string    `json:"target,omitempty" yaml:"target,omitempty"`
	Children *Children `json:"children,omitempty" yaml:"children,omitempty"`
}

// Children encodes as an array of nodes when inline, or as the list name
// when deferred.
type Children struct {
	Nodes []Node
	Ref   string
}

func (c Children) MarshalJSON() ([]byte, error) {
	if c.Ref != "" {
		return json.Marshal(c.Ref)
	}
	if c.Nodes == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.Nodes)
}

func (c *Children) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var ref string
		if err := json.Unmarshal(data, &ref); err != nil {
			return err
		}
		if ref == "" {
			return errors.New("children: empty list name")
		}
		*c = Children{Ref: ref}
		return nil
	}
	var nodes []Node
	if err := json.Unmarshal(data, &nodes); err != nil {
		return fmt.Errorf("children: %w", err)
	}
	*c = Children{Nodes: nodes}
	return nil
}

func (c Children) MarshalYAML() (any, error) {
	if c.Ref != "" {
		return c.Ref, nil
	}
	if c.Nodes == nil {
		return []Node{}, nil
	}
	return c.Nodes, nil
}

func (c *Children) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Value == "" {
			return errors.New("children: empty list name")
		}
		*c = Children{Ref: value.Value}
		return nil
	case yaml.SequenceNode:
		var nodes []Node
		if err := value.Decode(&nodes); err != nil {
			return fmt.Errorf("children: %w", err)
		}
		*c = Children{Nodes: nodes}
		return nil
	default:
		return fmt.Errorf("children: line %d: expected list or name", value.Line)
	}
}

// FromTable converts t into its serialized form.
func FromTable(t *navtree.Table) Document {
	doc := Document{
		Root:  fromNodes(t.Root()),
		Index: t.Index(),
		Pages: t.PageChunks(),
	}
	if doc.Index == nil {
		doc.Index = []string{}
	}
	if len(doc.Pages) == 0 {
		doc.Pages = nil
	}
	reg := t.Registry()
	if reg.Len() > 0 {
		doc.Deferred = make(map[string][]Node, reg.Len())
		for _, name := range reg.Names() {
			nodes, _ := reg.Lookup(name)
			doc.Deferred[name] = fromNodes(nodes)
		}
	}
	return doc
}

// Table validates the document and returns the table it describes.
func (d Document) Table(opts ...navtree.Option) (*navtree.Table, error) {
	lists := make(map[string][]navtree.Node, len(d.Deferred))
	for name, nodes := range d.Deferred {
		lists[name] = toNodes(nodes)
	}
	opts = append([]navtree.Option{
		navtree.WithRegistry(navtree.NewRegistry(lists)),
		navtree.WithPageChunks(d.Pages),
	}, opts...)
	return navtree.New(toNodes(d.Root), d.Index, opts...)
}

// Nodes converts a node list, such as a deferred list, into its serialized
// form.
func Nodes(nodes []navtree.Node) []Node {
	return fromNodes(nodes)
}

func fromNodes(nodes []navtree.Node) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		e := Node{Label: n.Label, Target: n.Target}
		switch n.Children.Kind() {
		case navtree.ChildrenInline:
			e.Children = &Children{Nodes: fromNodes(n.Children.Nodes())}
		case navtree.ChildrenDeferred:
			e.Children = &Children{Ref: n.Children.Ref()}
		}
		out = append(out, e)
	}
	return out
}

func toNodes(nodes []Node) []navtree.Node {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]navtree.Node, 0, len(nodes))
	for _, e := range nodes {
		n := navtree.Node{Label: e.Label, Target: e.Target}
		if e.Children != nil {
			if e.Children.Ref != "" {
				n.Children = navtree.Deferred(e.Children.Ref)
			} else {
				n.Children = navtree.Inline(toNodes(e.Children.Nodes)...)
			}
		}
		out = append(out, n)
	}
	return out
}

// WriteJSON writes t as indented JSON.
func WriteJSON(w io.Writer, t *navtree.Table) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromTable(t)); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// ReadJSON decodes a JSON document and validates it into a table.
func ReadJSON(r io.Reader, opts ...navtree.Option) (*navtree.Table, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return doc.Table(opts...)
}

// WriteYAML writes t as YAML.
func WriteYAML(w io.Writer, t *navtree.Table) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(FromTable(t)); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return nil
}

// ReadYAML decodes a YAML document and validates it into a table.
func ReadYAML(r io.Reader, opts ...navtree.Option) (*navtree.Table, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return doc.Table(opts...)
}
