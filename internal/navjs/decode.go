// Package navjs reads and writes the JavaScript data files a documentation
// generator emits for its navigation tree: navtreedata.js, one file per
// deferred child list, and the navtreeindex<N>.js page locator chunks.
//
// The files are plain `var NAME = <literal>;` statements. Only JSON-like
// literals are accepted; anything executable is rejected.
package navjs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"
)

// Object is an ordered JavaScript object literal.
type Object []Member

// Member is one key/value pair of an Object.
type Member struct {
	Key   string
	Value any
}

// Get returns the value stored under key.
func (o Object) Get(key string) (any, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Var is a top-level `var NAME = value` statement. Value is one of nil,
// bool, int, float64, string, []any or Object.
type Var struct {
	Name  string
	Value any
}

// File is a decoded data file.
type File struct {
	Header string // leading comment block, verbatim
	Vars   []Var
}

// Lookup returns the value of the named variable.
func (f *File) Lookup(name string) (any, bool) {
	for _, v := range f.Vars {
		if v.Name == name {
			return v.Value, true
		}
	}
	return nil, false
}

// SyntaxError reports malformed input.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("navjs: offset %d: %s", e.Offset, e.Msg)
}

type token struct {
	tt   js.TokenType
	data string
}

type decoder struct {
	lex    *js.Lexer
	offset int
	peeked *token
	header strings.Builder
	inBody bool
}

// Decode reads every var statement from r.
func Decode(r io.Reader) (*File, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}
	d := &decoder{lex: js.NewLexer(parse.NewInput(bytes.NewReader(src)))}

	f := &File{}
	for {
		tok, err := d.next()
		if err != nil {
			return nil, err
		}
		switch tok.tt {
		case js.ErrorToken:
			f.Header = d.header.String()
			return f, nil
		case js.SemicolonToken:
			continue
		case js.VarToken, js.LetToken, js.ConstToken:
		default:
			return nil, d.errorf("expected var statement, got %q", tok.data)
		}
		d.inBody = true

		name, err := d.next()
		if err != nil {
			return nil, err
		}
		if name.tt != js.IdentifierToken {
			return nil, d.errorf("expected identifier, got %q", name.data)
		}
		if _, err := d.expect(js.EqToken, "="); err != nil {
			return nil, err
		}
		value, err := d.value()
		if err != nil {
			return nil, fmt.Errorf("var %s: %w", name.data, err)
		}
		f.Vars = append(f.Vars, Var{Name: name.data, Value: value})
	}
}

// next returns the next significant token. Comments before the first
// statement are kept as the file header.
func (d *decoder) next() (token, error) {
	if d.peeked != nil {
		tok := *d.peeked
		d.peeked = nil
		return tok, nil
	}
	for {
		tt, data := d.lex.Next()
		d.offset += len(data)
		switch tt {
		case js.WhitespaceToken, js.LineTerminatorToken:
			continue
		case js.CommentToken, js.CommentLineTerminatorToken:
			if !d.inBody {
				d.header.Write(data)
			}
			continue
		case js.ErrorToken:
			if err := d.lex.Err(); err != nil && !errors.Is(err, io.EOF) {
				return token{}, &SyntaxError{Offset: d.offset, Msg: err.Error()}
			}
		}
		return token{tt: tt, data: string(data)}, nil
	}
}

func (d *decoder) peek() (token, error) {
	if d.peeked == nil {
		tok, err := d.next()
		if err != nil {
			return token{}, err
		}
		d.peeked = &tok
	}
	return *d.peeked, nil
}

func (d *decoder) expect(tt js.TokenType, want string) (token, error) {
	tok, err := d.next()
	if err != nil {
		return token{}, err
	}
	if tok.tt != tt {
		return token{}, d.errorf("expected %q, got %q", want, tok.data)
	}
	return tok, nil
}

func (d *decoder) errorf(format string, args ...any) error {
	return &SyntaxError{Offset: d.offset, Msg: fmt.Sprintf(format, args...)}
}

func (d *decoder) value() (any, error) {
	tok, err := d.next()
	if err != nil {
		return nil, err
	}
	switch tok.tt {
	case js.OpenBracketToken:
		return d.array()
	case js.OpenBraceToken:
		return d.object()
	case js.StringToken:
		return unquote(tok.data)
	case js.SubToken:
		num, err := d.next()
		if err != nil {
			return nil, err
		}
		if !isNumber(num.tt) {
			return nil, d.errorf("expected number after \"-\", got %q", num.data)
		}
		return number("-" + num.data)
	case js.NullToken:
		return nil, nil
	case js.TrueToken:
		return true, nil
	case js.FalseToken:
		return false, nil
	case js.ErrorToken:
		return nil, d.errorf("unexpected end of input")
	default:
		if isNumber(tok.tt) {
			return number(tok.data)
		}
		return nil, d.errorf("unexpected %q", tok.data)
	}
}

func (d *decoder) array() ([]any, error) {
	items := []any{}
	for {
		tok, err := d.peek()
		if err != nil {
			return nil, err
		}
		if tok.tt == js.CloseBracketToken {
			d.peeked = nil
			return items, nil
		}
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		items = append(items, v)

		sep, err := d.next()
		if err != nil {
			return nil, err
		}
		switch sep.tt {
		case js.CommaToken:
		case js.CloseBracketToken:
			return items, nil
		default:
			return nil, d.errorf("expected \",\" or \"]\", got %q", sep.data)
		}
	}
}

func (d *decoder) object() (Object, error) {
	obj := Object{}
	for {
		tok, err := d.next()
		if err != nil {
			return nil, err
		}
		var key string
		switch {
		case tok.tt == js.CloseBraceToken:
			return obj, nil
		case tok.tt == js.StringToken:
			if key, err = unquote(tok.data); err != nil {
				return nil, err
			}
		case tok.tt == js.IdentifierToken:
			key = tok.data
		default:
			return nil, d.errorf("expected object key, got %q", tok.data)
		}
		if _, err := d.expect(js.ColonToken, ":"); err != nil {
			return nil, err
		}
		v, err := d.value()
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		obj = append(obj, Member{Key: key, Value: v})

		sep, err := d.next()
		if err != nil {
			return nil, err
		}
		switch sep.tt {
		case js.CommaToken:
		case js.CloseBraceToken:
			return obj, nil
		default:
			return nil, d.errorf("expected \",\" or \"}\", got %q", sep.data)
		}
	}
}

func isNumber(tt js.TokenType) bool {
	return tt&js.NumericToken != 0
}

func number(s string) (any, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("navjs: bad number %q: %w", s, err)
	}
	return f, nil
}

// unquote decodes a single or double quoted JavaScript string literal.
func unquote(lit string) (string, error) {
	if len(lit) < 2 || lit[0] != lit[len(lit)-1] || (lit[0] != '"' && lit[0] != '\'') {
		return "", fmt.Errorf("navjs: bad string literal %s", lit)
	}
	body := lit[1 : len(lit)-1]
	if !strings.Contains(body, `\`) {
		return body, nil
	}

	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", fmt.Errorf("navjs: trailing backslash in %s", lit)
		}
		switch e := body[i]; e {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\n':
			// line continuation
		case 'x':
			if i+3 > len(body) {
				return "", fmt.Errorf("navjs: short \\x escape in %s", lit)
			}
			n, err := strconv.ParseUint(body[i+1:i+3], 16, 8)
			if err != nil {
				return "", fmt.Errorf("navjs: bad \\x escape in %s", lit)
			}
			b.WriteRune(rune(n))
			i += 2
		case 'u':
			r, width, err := unicodeEscape(body[i+1:])
			if err != nil {
				return "", fmt.Errorf("navjs: %w in %s", err, lit)
			}
			b.WriteRune(r)
			i += width
		default:
			b.WriteByte(e)
		}
	}
	return b.String(), nil
}

// unicodeEscape decodes the part after `\u`, returning the rune and the
// number of bytes consumed.
func unicodeEscape(s string) (rune, int, error) {
	if strings.HasPrefix(s, "{") {
		end := strings.IndexByte(s, '}')
		if end < 0 {
			return 0, 0, errors.New("unterminated \\u{} escape")
		}
		n, err := strconv.ParseUint(s[1:end], 16, 32)
		if err != nil {
			return 0, 0, errors.New("bad \\u{} escape")
		}
		return rune(n), end + 1, nil
	}
	if len(s) < 4 {
		return 0, 0, errors.New("short \\u escape")
	}
	n, err := strconv.ParseUint(s[:4], 16, 16)
	if err != nil {
		return 0, 0, errors.New("bad \\u escape")
	}
	return rune(n), 4, nil
}
