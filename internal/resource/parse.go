package resource

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/zclconf/go-cty/cty"
)

// ParseValue converts a decoded declaration value (the result of YAML
// unmarshalling) into an expression. Strings are scanned for `${...}`
// interpolation; lists and maps recurse; scalars become literals.
func ParseValue(raw any) (Expr, error) {
	switch v := raw.(type) {
	case nil:
		return Literal{Value: cty.NullVal(cty.DynamicPseudoType)}, nil
	case bool:
		return Literal{Value: cty.BoolVal(v)}, nil
	case int:
		return Literal{Value: cty.NumberIntVal(int64(v))}, nil
	case int64:
		return Literal{Value: cty.NumberIntVal(v)}, nil
	case float64:
		return Literal{Value: cty.NumberFloatVal(v)}, nil
	case string:
		return parseString(v)
	case []any:
		elems := make([]Expr, len(v))
		for i, e := range v {
			parsed, err := ParseValue(e)
			if err != nil {
				return nil, err
			}
			elems[i] = parsed
		}
		return List{Elems: elems}, nil
	case map[string]any:
		entries := make(map[string]Expr, len(v))
		for k, e := range v {
			parsed, err := ParseValue(e)
			if err != nil {
				return nil, err
			}
			entries[k] = parsed
		}
		return Map{Entries: entries}, nil
	default:
		return nil, fmt.Errorf("unsupported value of type %T", raw)
	}
}

// parseString splits a string into literal runs and `${...}` interpolation
// sequences. A string that is exactly one interpolation keeps the inner
// expression's type; anything else evaluates as a string template.
func parseString(s string) (Expr, error) {
	var parts []Expr
	rest := s
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			break
		}
		end := closingBrace(rest[start+2:])
		if end < 0 {
			return nil, fmt.Errorf("unterminated interpolation in %q", s)
		}
		end += start + 2
		if start > 0 {
			parts = append(parts, Literal{Value: cty.StringVal(rest[:start])})
		}
		inner, err := parseExpr(rest[start+2 : end])
		if err != nil {
			return nil, fmt.Errorf("in %q: %w", s, err)
		}
		parts = append(parts, inner)
		rest = rest[end+1:]
	}
	if len(parts) == 0 {
		return Literal{Value: cty.StringVal(s)}, nil
	}
	if rest != "" {
		parts = append(parts, Literal{Value: cty.StringVal(rest)})
	}
	if len(parts) == 1 {
		if _, ok := parts[0].(Literal); !ok {
			return parts[0], nil
		}
	}
	return Template{Parts: parts}, nil
}

// closingBrace returns the offset of the brace terminating an interpolation
// body, ignoring braces inside quoted call arguments, or -1 when the body
// never closes.
func closingBrace(s string) int {
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case '}':
			if !inQuote {
				return i
			}
		}
	}
	return -1
}

// parseExpr parses the body of an interpolation sequence:
//
//	expr     := call | traversal | number | quoted
//	call     := ident "(" [expr ("," expr)*] ")"
//	traversal:= ident ("." ident)*
//
// `var.<name>` traversals become variable references; any other traversal
// references a resource output.
func parseExpr(src string) (Expr, error) {
	p := &exprParser{src: src}
	expr, err := p.parse()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("unexpected %q", p.src[p.pos:])
	}
	return expr, nil
}

type exprParser struct {
	src string
	pos int
}

func (p *exprParser) parse() (Expr, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, fmt.Errorf("empty expression")
	}
	c := p.src[p.pos]
	switch {
	case c == '"':
		return p.parseQuoted()
	case c == '-' || unicode.IsDigit(rune(c)):
		return p.parseNumber()
	case isIdentStart(rune(c)):
		return p.parseIdentExpr()
	default:
		return nil, fmt.Errorf("unexpected character %q", string(c))
	}
}

func (p *exprParser) parseIdentExpr() (Expr, error) {
	first := p.parseIdent()

	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '(' {
		return p.parseCall(first)
	}

	path := []string{}
	for p.pos < len(p.src) && p.src[p.pos] == '.' {
		p.pos++
		if p.pos >= len(p.src) || !isIdentStart(rune(p.src[p.pos])) {
			return nil, fmt.Errorf("expected identifier after %q.", first)
		}
		path = append(path, p.parseIdent())
	}

	if first == "var" {
		if len(path) != 1 {
			return nil, fmt.Errorf("variable reference must be var.<name>")
		}
		return VarRef{Name: path[0]}, nil
	}
	if len(path) == 0 {
		return nil, fmt.Errorf("reference %q is missing an output path", first)
	}
	return Ref{Resource: first, Path: path}, nil
}

func (p *exprParser) parseCall(name string) (Expr, error) {
	if _, ok := functions[name]; !ok {
		return nil, fmt.Errorf("unknown function %q", name)
	}
	p.pos++ // consume '('
	var args []Expr
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == ')' {
		p.pos++
		return Call{Func: name, Args: args}, nil
	}
	for {
		arg, err := p.parse()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, fmt.Errorf("unterminated call to %q", name)
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return Call{Func: name, Args: args}, nil
		default:
			return nil, fmt.Errorf("unexpected %q in call to %q", string(p.src[p.pos]), name)
		}
	}
}

func (p *exprParser) parseQuoted() (Expr, error) {
	end := strings.IndexByte(p.src[p.pos+1:], '"')
	if end < 0 {
		return nil, fmt.Errorf("unterminated string")
	}
	s := p.src[p.pos+1 : p.pos+1+end]
	p.pos += end + 2
	return Literal{Value: cty.StringVal(s)}, nil
}

func (p *exprParser) parseNumber() (Expr, error) {
	start := p.pos
	if p.src[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.src) && (unicode.IsDigit(rune(p.src[p.pos])) || p.src[p.pos] == '.') {
		p.pos++
	}
	f, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return nil, fmt.Errorf("malformed number %q", p.src[start:p.pos])
	}
	return Literal{Value: cty.NumberFloatVal(f)}, nil
}

func (p *exprParser) parseIdent() string {
	start := p.pos
	for p.pos < len(p.src) && isIdentPart(rune(p.src[p.pos])) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-'
}
