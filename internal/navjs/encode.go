package navjs

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/dgallion1/docnav/internal/navtree"
)

const (
	treeIndent = "  "
	listIndent = "    "
	indentStep = "  "
)

// WriteData writes d in the generator's navtreedata.js layout. Reading the
// output back with ReadData yields an identical Data.
func WriteData(w io.Writer, d *Data) error {
	bw := bufio.NewWriter(w)
	if d.Header != "" {
		bw.WriteString(d.Header)
		bw.WriteString("\n")
	}
	writeTree(bw, TreeVar, d.Tree, treeIndent)
	if d.Index != nil {
		bw.WriteString("\nvar " + IndexVar + " =\n[\n")
		for i, entry := range d.Index {
			if i > 0 {
				bw.WriteString(",\n")
			}
			bw.WriteString(quote(entry, '"'))
		}
		bw.WriteString("\n];\n")
	}
	if len(d.Extra) > 0 {
		bw.WriteString("\n")
		for i, v := range d.Extra {
			if i > 0 {
				bw.WriteString("\n")
			}
			lit, err := scalar(v.Value)
			if err != nil {
				return fmt.Errorf("var %s: %w", v.Name, err)
			}
			bw.WriteString("var " + v.Name + " = " + lit + ";")
		}
	}
	return bw.Flush()
}

// WriteList writes one deferred child list file.
func WriteList(w io.Writer, name string, nodes []navtree.Node) error {
	if !navtree.ValidRefName(name) {
		return fmt.Errorf("invalid list name %q", name)
	}
	bw := bufio.NewWriter(w)
	writeTree(bw, name, nodes, listIndent)
	return bw.Flush()
}

// WriteChunk writes one page locator chunk with keys in sorted order.
func WriteChunk(w io.Writer, name string, chunk map[string][]int) error {
	keys := make([]string, 0, len(chunk))
	for k := range chunk {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	bw := bufio.NewWriter(w)
	bw.WriteString("var " + name + " =\n{\n")
	for i, k := range keys {
		if i > 0 {
			bw.WriteString(",\n")
		}
		bw.WriteString(quote(k, '"'))
		bw.WriteString(":[")
		for j, pos := range chunk[k] {
			if j > 0 {
				bw.WriteByte(',')
			}
			bw.WriteString(strconv.Itoa(pos))
		}
		bw.WriteString("]")
	}
	if len(keys) > 0 {
		bw.WriteString("\n")
	}
	bw.WriteString("};\n")
	return bw.Flush()
}

func writeTree(bw *bufio.Writer, name string, nodes []navtree.Node, indent string) {
	bw.WriteString("var " + name + " =\n[\n")
	writeNodes(bw, nodes, indent)
	if len(nodes) > 0 {
		bw.WriteString("\n")
	}
	bw.WriteString("];\n")
}

func writeNodes(bw *bufio.Writer, nodes []navtree.Node, indent string) {
	for i, n := range nodes {
		if i > 0 {
			bw.WriteString(",\n")
		}
		bw.WriteString(indent + "[ " + quote(n.Label, '"') + ", ")
		if n.HasTarget() {
			bw.WriteString(quote(n.Target, '"'))
		} else {
			bw.WriteString("null")
		}
		bw.WriteString(", ")

		switch n.Children.Kind() {
		case navtree.ChildrenDeferred:
			bw.WriteString(quote(n.Children.Ref(), '"') + " ]")
		case navtree.ChildrenInline:
			children := n.Children.Nodes()
			if len(children) == 0 {
				bw.WriteString("[ ] ]")
				continue
			}
			bw.WriteString("[\n")
			writeNodes(bw, children, indent+indentStep)
			bw.WriteString("\n" + indent + "] ]")
		default:
			bw.WriteString("null ]")
		}
	}
}

func scalar(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "null", nil
	case string:
		return quote(x, '\''), nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported scalar %T", v)
	}
}

// quote produces a JavaScript string literal delimited by q.
func quote(s string, q byte) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(q)
	for _, r := range s {
		switch {
		case r == rune(q) || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x2028 || r == 0x2029:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(q)
	return b.String()
}
