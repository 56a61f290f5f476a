package parser

import (
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dgallion1/docnav/internal/navtree"
)

func TestHTMLParser_Anchors(t *testing.T) {
	input := `<!DOCTYPE html>
<html>
<head><title>CoreNEURON: Solver</title></head>
<body>
<div class="header"><h1>Solver &amp; Friends</h1></div>
<header><h1>Site banner</h1></header>
<a id="details"></a>
<h2 class="groupheader">Detailed Description</h2>
<p>Some text.</p>
<a name="stale"></a>
<p>Text in between clears the anchor.</p>
<h2>No Anchor</h2>
<h3 id="usage">Usage</h3>
<h2><a id="funcs" name="funcs"></a>Functions</h2>
<script>var h1 = "<h1>not a heading</h1>";</script>
</body>
</html>`

	p := &HTMLParser{}
	tbl, err := p.Parse(strings.NewReader(input), "out/solver_8cpp.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"CoreNEURON: Solver -> solver_8cpp.html",
		"  Solver & Friends -> solver_8cpp.html",
		"    Detailed Description -> solver_8cpp.html#details",
		"    No Anchor -> solver_8cpp.html",
		"      Usage -> solver_8cpp.html#usage",
		"    Functions -> solver_8cpp.html#funcs",
	}
	if diff := cmp.Diff(want, flatten(t, tbl)); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}

	if _, ok := tbl.Locate("solver_8cpp.html#usage"); !ok {
		t.Error("expected heading anchor to be indexed")
	}
}

func TestHTMLParser_NoTitle(t *testing.T) {
	p := &HTMLParser{}
	tbl, err := p.Parse(strings.NewReader("<p>hello</p>"), "index.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	root := tbl.Root()
	if len(root) != 1 {
		t.Fatalf("expected 1 root node, got %d", len(root))
	}
	if root[0].Label != "index" || root[0].Target != "index.html" {
		t.Errorf("expected root index -> index.html, got %q -> %q", root[0].Label, root[0].Target)
	}
	if root[0].Children.Kind() != navtree.ChildrenNone {
		t.Errorf("expected leaf root, got %s children", root[0].Children.Kind())
	}
}

func TestNavJSParser_GeneratedFile(t *testing.T) {
	f, err := os.Open("../navjs/testdata/navtreedata.js")
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer f.Close()

	p, err := ForFile("navtreedata.js", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tbl, err := p.Parse(f, "navtreedata.js")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := tbl.IndexAt(0); got != "abort_8cpp.html" {
		t.Errorf("expected index[0] %q, got %q", "abort_8cpp.html", got)
	}
	if len(tbl.Unresolved()) == 0 {
		t.Error("expected deferred lists to stay unresolved without the loader")
	}
}

func TestNavJSParser_Invalid(t *testing.T) {
	p := &NavJSParser{}
	if _, err := p.Parse(strings.NewReader("var OTHER = [];"), "x.js"); err == nil {
		t.Error("expected error for file without NAVTREE")
	}
}

func TestPDFParser_InvalidInput(t *testing.T) {
	p := &PDFParser{}
	if _, err := p.Parse(strings.NewReader("not a pdf"), "manual.pdf"); err == nil {
		t.Error("expected error for invalid pdf")
	}
}

func TestDOCXParser_InvalidInput(t *testing.T) {
	p := &DOCXParser{}
	if _, err := p.Parse(strings.NewReader("not a zip"), "report.docx"); err == nil {
		t.Error("expected error for invalid docx")
	}
}
