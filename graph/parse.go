package graph

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTypeRef parses a Go type expression whose named types are qualified by
// full import path, the form produced by TypeRef.String:
//
//	int
//	[]example.com/shop.Widget
//	map[string]*example.com/shop.Widget
//	example.com/mvc.ActionResult[example.com/shop.Widget]
//	(example.com/mvc.Result, error)
func ParseTypeRef(s string) (*TypeRef, error) {
	p := &typeParser{src: s}
	t, err := p.parseType()
	if err != nil {
		return nil, fmt.Errorf("parse type %q: %w", s, err)
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("parse type %q: unexpected %q at offset %d", s, p.src[p.pos:], p.pos)
	}
	return t, nil
}

// MustParseTypeRef is like ParseTypeRef but panics on error.
func MustParseTypeRef(s string) *TypeRef {
	t, err := ParseTypeRef(s)
	if err != nil {
		panic(err)
	}
	return t
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) consume(tok string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *typeParser) expect(tok string) error {
	if !p.consume(tok) {
		return fmt.Errorf("expected %q at offset %d", tok, p.pos)
	}
	return nil
}

func (p *typeParser) parseType() (*TypeRef, error) {
	p.skipSpace()
	switch {
	case p.consume("*"):
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return Pointer(elem), nil
	case p.consume("[]"):
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return Slice(elem), nil
	case p.consume("["):
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
		n, err := strconv.ParseInt(p.src[start:p.pos], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad array length at offset %d", start)
		}
		if err := p.expect("]"); err != nil {
			return nil, err
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return Array(elem, n), nil
	case p.consume("map["):
		key, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect("]"); err != nil {
			return nil, err
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return Map(key, elem), nil
	case p.consume("("):
		elems, err := p.parseList(")")
		if err != nil {
			return nil, err
		}
		return Tuple(elems...), nil
	case p.consume("interface{}"):
		return Any(), nil
	}

	start := p.pos
	for p.pos < len(p.src) && !strings.ContainsRune("[](), ", rune(p.src[p.pos])) {
		p.pos++
	}
	ident := p.src[start:p.pos]
	if ident == "" {
		return nil, fmt.Errorf("expected type at offset %d", start)
	}

	switch ident {
	case "any":
		return Any(), nil
	case "error":
		return Error(), nil
	}
	if _, ok := LookupBasic(ident); ok {
		return Basic(ident), nil
	}

	name := ParseTypeName(ident)
	var args []*TypeRef
	if p.pos < len(p.src) && p.src[p.pos] == '[' {
		p.pos++
		var err error
		if args, err = p.parseList("]"); err != nil {
			return nil, err
		}
	}
	return Named(name.Pkg, name.Name, args...), nil
}

func (p *typeParser) parseList(closing string) ([]*TypeRef, error) {
	var list []*TypeRef
	if p.consume(closing) {
		return list, nil
	}
	for {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		list = append(list, t)
		if p.consume(closing) {
			return list, nil
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
	}
}
