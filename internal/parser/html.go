package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docnav/internal/navtree"
	"golang.org/x/net/html"
)

// HTMLParser builds a navigation tree from the headings of an HTML page.
// A heading links to its own id, or to the id/name of an anchor inside it
// or immediately before it (the layout documentation generators emit).
type HTMLParser struct {
	ChunkSize int
}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*navtree.Table, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	page := pageURL(filename)
	root := &draft{label: docTitle(filename), target: page}
	if title := findTitle(doc); title != "" {
		root.label = title
	}
	out := newOutline(root)

	// pending holds an empty anchor seen just before a heading, with no
	// text in between.
	var pending string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode && strings.TrimSpace(n.Data) != "" {
			pending = ""
		}
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				title := textContent(n)
				if title != "" {
					id := attr(n, "id")
					if id == "" {
						id = innerAnchor(n)
					}
					if id == "" {
						id = pending
					}
					out.heading(&draft{label: title, target: target(page, id)}, level)
				}
				pending = ""
				return // Heading text already extracted.
			}

			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "a":
				if n.FirstChild == nil {
					if id := anchorID(n); id != "" {
						pending = id
					}
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}

	return navtree.NewFromTree(root.build(), p.ChunkSize)
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// anchorID returns the id or, for old-style anchors, the name of an <a>.
func anchorID(n *html.Node) string {
	if id := attr(n, "id"); id != "" {
		return id
	}
	return attr(n, "name")
}

func innerAnchor(n *html.Node) string {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "a" {
			if id := anchorID(c); id != "" {
				return id
			}
		}
		if id := innerAnchor(c); id != "" {
			return id
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
