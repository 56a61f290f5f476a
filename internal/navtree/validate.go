package navtree

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/multierr"
)

// ErrInvalidTable wraps every validation failure returned by New.
var ErrInvalidTable = errors.New("invalid navigation table")

// FieldError pinpoints one violation inside a table.
type FieldError struct {
	Path string
	Msg  string
}

func (e *FieldError) Error() string {
	return e.Path + ": " + e.Msg
}

var refName = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// ValidTarget reports whether s is usable as a link target: a non-empty
// relative URL without unescaped whitespace.
func ValidTarget(s string) error {
	if s == "" {
		return errors.New("empty url")
	}
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return errors.New("unescaped whitespace in url")
	}
	if strings.HasPrefix(s, "//") {
		return errors.New("url must be relative")
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "" || u.Host != "" {
		return errors.New("url must be relative")
	}
	return nil
}

// ValidRefName reports whether name can be used as a deferred list name.
func ValidRefName(name string) bool {
	return refName.MatchString(name)
}

// Validate checks every node, index entry and registry list. All
// violations are returned together.
func Validate(root []Node, index []string, reg *Registry, requireResolved bool) error {
	var errs error
	for i, n := range root {
		errs = multierr.Append(errs, validateNode(n, fmt.Sprintf("root[%d]", i), reg, requireResolved))
	}
	for _, name := range reg.Names() {
		if !ValidRefName(name) {
			errs = multierr.Append(errs, &FieldError{Path: "registry", Msg: fmt.Sprintf("invalid list name %q", name)})
		}
		nodes, _ := reg.Lookup(name)
		for i, n := range nodes {
			errs = multierr.Append(errs, validateNode(n, fmt.Sprintf("%s[%d]", name, i), reg, requireResolved))
		}
	}
	errs = multierr.Append(errs, validateCycles(reg))
	for i, entry := range index {
		if err := ValidTarget(entry); err != nil {
			errs = multierr.Append(errs, &FieldError{Path: fmt.Sprintf("index[%d]", i), Msg: err.Error()})
		}
	}
	return errs
}

func validateNode(n Node, path string, reg *Registry, requireResolved bool) error {
	var errs error
	if n.Label == "" {
		errs = multierr.Append(errs, &FieldError{Path: path, Msg: "empty label"})
	}
	if n.HasTarget() {
		if err := ValidTarget(n.Target); err != nil {
			errs = multierr.Append(errs, &FieldError{Path: path, Msg: "target " + err.Error()})
		}
	}
	switch n.Children.Kind() {
	case ChildrenInline:
		for i, c := range n.Children.nodes {
			errs = multierr.Append(errs, validateNode(c, fmt.Sprintf("%s[%d]", path, i), reg, requireResolved))
		}
	case ChildrenDeferred:
		ref := n.Children.Ref()
		if !ValidRefName(ref) {
			errs = multierr.Append(errs, &FieldError{Path: path, Msg: fmt.Sprintf("invalid reference %q", ref)})
		} else if requireResolved && !reg.Has(ref) {
			errs = multierr.Append(errs, &FieldError{Path: path, Msg: fmt.Sprintf("unresolved reference %q", ref)})
		}
	}
	return errs
}

// validateCycles rejects registries whose lists reach themselves through
// deferred references.
func validateCycles(reg *Registry) error {
	const (
		visiting = 1
		done     = 2
	)
	state := map[string]int{}
	var errs error
	var visit func(name string)
	visit = func(name string) {
		switch state[name] {
		case visiting:
			errs = multierr.Append(errs, &FieldError{Path: "registry", Msg: fmt.Sprintf("reference cycle through %q", name)})
			return
		case done:
			return
		}
		state[name] = visiting
		nodes, _ := reg.Lookup(name)
		for _, ref := range deferredRefs(nodes) {
			if reg.Has(ref) {
				visit(ref)
			}
		}
		state[name] = done
	}
	for _, name := range reg.Names() {
		visit(name)
	}
	return errs
}

// deferredRefs lists the references made by nodes and their inline
// descendants.
func deferredRefs(nodes []Node) []string {
	var refs []string
	for _, n := range nodes {
		switch n.Children.Kind() {
		case ChildrenInline:
			refs = append(refs, deferredRefs(n.Children.nodes)...)
		case ChildrenDeferred:
			refs = append(refs, n.Children.Ref())
		}
	}
	return refs
}
