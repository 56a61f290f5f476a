package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/docnav/internal/navtree"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser turns a PDF document outline (bookmarks) into a navigation
// tree. The root links to the PDF itself; outline entries are grouping
// nodes because the outline carries no page destinations.
type PDFParser struct {
	ChunkSize int
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*navtree.Table, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "docnav-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	outline, err := readOutline(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("read pdf outline: %w", err)
	}

	root := &draft{label: docTitle(filename), target: pageURL(filename)}
	if title := strings.TrimSpace(outline.Title); title != "" {
		root.label = title
	}
	for _, child := range outline.Child {
		if d := outlineDraft(child); d != nil {
			root.add(d)
		}
	}
	return navtree.NewFromTree(root.build(), p.ChunkSize)
}

func readOutline(path string) (pdflib.Outline, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return pdflib.Outline{}, err
	}
	defer f.Close()
	return reader.Outline(), nil
}

func outlineDraft(o pdflib.Outline) *draft {
	label := strings.TrimSpace(o.Title)
	if label == "" {
		return nil
	}
	d := &draft{label: label}
	for _, child := range o.Child {
		if c := outlineDraft(child); c != nil {
			d.add(c)
		}
	}
	return d
}
