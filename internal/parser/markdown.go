package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/docnav/internal/navtree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmparser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser builds a navigation tree from a Markdown document using
// goldmark. Headings nest by level and link to their auto-generated IDs on
// the rendered page. List items containing a link become entries under the
// current heading, so a SUMMARY.md style table of contents imports as-is.
type MarkdownParser struct {
	ChunkSize int
}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*navtree.Table, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithParserOptions(gmparser.WithAutoHeadingID()))
	doc := md.Parser().Parse(text.NewReader(src))

	page := pageName(filename, ".html")
	root := &draft{
		label:  docTitle(filename),
		target: page,
	}
	out := newOutline(root)

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			title := string(node.Text(src))
			if title == "" {
				continue
			}
			var id string
			if v, ok := node.AttributeString("id"); ok {
				if b, ok := v.([]byte); ok {
					id = string(b)
				}
			}
			out.heading(&draft{label: title, target: target(page, id)}, node.Level)

		case *ast.List:
			for _, d := range listDrafts(node, src) {
				out.top().add(d)
			}
		}
	}

	return navtree.NewFromTree(root.build(), p.ChunkSize)
}

// listDrafts converts list items into drafts. An item's label and target
// come from its first link; nested lists become its children.
func listDrafts(list *ast.List, src []byte) []*draft {
	var out []*draft
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		d := &draft{}
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			if sub, ok := c.(*ast.List); ok {
				for _, s := range listDrafts(sub, src) {
					d.add(s)
				}
				continue
			}
			if d.label != "" {
				continue
			}
			if link := firstLink(c); link != nil {
				d.label = strings.TrimSpace(string(link.Text(src)))
				d.target = linkTarget(string(link.Destination))
			} else {
				d.label = inlineText(c, src)
			}
		}
		if d.label == "" {
			continue
		}
		if d.target == "" && len(d.children) == 0 {
			// Plain bullet text is not navigation.
			continue
		}
		out = append(out, d)
	}
	return out
}

func firstLink(n ast.Node) *ast.Link {
	var found *ast.Link
	ast.Walk(n, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if link, ok := n.(*ast.Link); ok {
			found = link
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return found
}

// inlineText gets the text content of a goldmark block's inline children.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		} else {
			buf.WriteString(inlineText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
