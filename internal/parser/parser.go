// Package parser imports navigation tables from documentation sources: the
// generator's own data file, or the heading outline of Markdown, HTML, PDF
// and DOCX documents.
package parser

import (
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docnav/internal/navtree"
)

// Parser converts a source document into a navigation table.
type Parser interface {
	Parse(r io.Reader, filename string) (*navtree.Table, error)
}

// SupportedExtensions lists file extensions that can be imported.
var SupportedExtensions = map[string]bool{
	".js":       true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename. chunkSize sets the
// page locator chunk size for outline imports.
func ForFile(filename string, chunkSize int) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".js":
		return &NavJSParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{ChunkSize: chunkSize}, nil
	case ".html", ".htm":
		return &HTMLParser{ChunkSize: chunkSize}, nil
	case ".pdf":
		return &PDFParser{ChunkSize: chunkSize}, nil
	case ".docx":
		return &DOCXParser{ChunkSize: chunkSize}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// pageName maps a source file to the page it documents, e.g. guide.md ->
// guide.html. The result is escaped for use as a target.
func pageName(filename, newExt string) string {
	return pageURL(docTitle(filename) + newExt)
}

// pageURL escapes the base name of filename as a relative link, so
// "User Guide.docx" becomes "User%20Guide.docx".
func pageURL(filename string) string {
	return (&url.URL{Path: filepath.Base(filename)}).String()
}

// docTitle strips directory and extension from filename.
func docTitle(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// draft is a mutable node used while an outline is being assembled.
type draft struct {
	label    string
	target   string
	children []*draft
}

func (d *draft) add(c *draft) {
	d.children = append(d.children, c)
}

func (d *draft) build() navtree.Node {
	n := navtree.Node{Label: d.label, Target: d.target}
	if len(d.children) > 0 {
		children := make([]navtree.Node, 0, len(d.children))
		for _, c := range d.children {
			children = append(children, c.build())
		}
		n.Children = navtree.Inline(children...)
	}
	return n
}

// outline nests headings by level under a root draft.
type outline struct {
	stack []outlineEntry
}

type outlineEntry struct {
	node  *draft
	level int
}

func newOutline(root *draft) *outline {
	return &outline{stack: []outlineEntry{{node: root, level: 0}}}
}

// heading pops entries at or below level and pushes d under the new top.
func (o *outline) heading(d *draft, level int) {
	for len(o.stack) > 1 && o.stack[len(o.stack)-1].level >= level {
		o.stack = o.stack[:len(o.stack)-1]
	}
	o.top().add(d)
	o.stack = append(o.stack, outlineEntry{node: d, level: level})
}

func (o *outline) top() *draft {
	return o.stack[len(o.stack)-1].node
}

// target joins page and an escaped fragment, dropping fragments that are
// empty.
func target(page, fragment string) string {
	if fragment == "" {
		return page
	}
	return page + "#" + (&url.URL{Fragment: fragment}).EscapedFragment()
}

// linkTarget returns dest when it is usable as a relative target.
func linkTarget(dest string) string {
	if navtree.ValidTarget(dest) != nil {
		return ""
	}
	return dest
}
