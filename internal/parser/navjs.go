package parser

import (
	"fmt"
	"io"

	"github.com/dgallion1/docnav/internal/navjs"
	"github.com/dgallion1/docnav/internal/navtree"
)

// NavJSParser reads a generator navtreedata.js file on its own. Deferred
// lists stay unresolved; use the loader to pull in companion files.
type NavJSParser struct{}

func (p *NavJSParser) Parse(r io.Reader, filename string) (*navtree.Table, error) {
	data, err := navjs.ReadData(r)
	if err != nil {
		return nil, fmt.Errorf("parse navigation data: %w", err)
	}
	return navtree.New(data.Tree, data.Index)
}
