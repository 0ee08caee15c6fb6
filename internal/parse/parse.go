// Copyright 2025 The OpenSDL Project Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package parse reads structure definition language statements and maps
// them one-to-one onto dispatcher entry points. Keywords are
// case-insensitive; recoverable parse faults resynchronize at the next
// semicolon and continue.
package parse

import (
	"errors"
	"strings"

	"github.com/aaam/opensdl/internal/compiler"
	"github.com/aaam/opensdl/internal/scan"
	"github.com/aaam/opensdl/sdl"
)

// Parser drives one source file through a dispatcher.
type Parser struct {
	s *scan.Scanner
	d *compiler.Dispatcher

	tok    scan.Token
	peeked bool
	next   scan.Token

	depth int // Open aggregate nesting, syntactic.

	// Display-radix hint of the last expression parsed.
	exprRadix sdl.Radix
	radixSeen bool
}

// Run parses src to completion. Recoverable faults are recorded on the
// module; the returned error is the first fatal failure, if any.
func Run(src string, d *compiler.Dispatcher) error {
	p := &Parser{s: scan.New(src), d: d}
	return p.run()
}

func (p *Parser) advance() scan.Token {
	if p.peeked {
		p.tok = p.next
		p.peeked = false
		return p.tok
	}
	p.tok = p.s.Next()
	return p.tok
}

func (p *Parser) peek() scan.Token {
	if !p.peeked {
		p.next = p.s.Next()
		p.peeked = true
	}
	return p.next
}

func upper(t scan.Token) string {
	if t.Kind != scan.Name {
		return ""
	}
	return strings.ToUpper(t.Text)
}

// sync skips tokens through the next semicolon.
func (p *Parser) sync() {
	for {
		t := p.tok
		if t.Kind == scan.EOF || (t.Kind == scan.Punct && t.Punct == ';') {
			return
		}
		p.advance()
	}
}

// fail records a recoverable parse fault and resynchronizes.
func (p *Parser) fail(t scan.Token) {
	text := t.Text
	if t.Kind == scan.Punct {
		text = string(t.Punct)
	}
	if mod := p.d.Module(); mod != nil {
		mod.Fault(sdl.Errorf(sdl.ErrParse, t.Loc, text, t.Loc.FirstLine))
	}
	p.sync()
}

// expectSemi consumes the statement terminator.
func (p *Parser) expectSemi() {
	t := p.advance()
	if t.Kind == scan.Punct && t.Punct == ';' {
		return
	}
	if t.Kind == scan.EOF {
		return
	}
	p.fail(t)
}

func (p *Parser) run() error {
	for {
		t := p.advance()
		switch t.Kind {
		case scan.EOF:
			if err := p.s.Err(); err != nil {
				if mod := p.d.Module(); mod != nil {
					mod.Fault(err)
				}
			}
			return nil

		case scan.Comment:
			c := &sdl.Comment{Text: t.Text, Line: t.OwnLine, End: !t.OwnLine}
			if err := p.d.Comment(t.Loc, c); err != nil {
				if fatalErr(err) {
					return err
				}
			}

		case scan.Name:
			if err := p.statement(t); err != nil {
				if fatalErr(err) {
					return err
				}
			}

		case scan.Punct:
			if t.Punct == ';' {
				continue // Empty statement.
			}
			p.fail(t)

		default:
			p.fail(t)
		}
	}
}

func fatalErr(err error) bool {
	var e *sdl.Error
	if errors.As(err, &e) {
		return e.Fatal()
	}
	// Anything else came out of a backend; treat it as an I/O failure.
	return err != nil
}

// statement dispatches on the leading keyword. Inside an aggregate an
// unrecognized leading name is a member declaration.
func (p *Parser) statement(t scan.Token) error {
	if strings.HasPrefix(t.Text, "#") {
		return p.local(t)
	}

	switch upper(t) {
	case "MODULE":
		return p.module(t)
	case "END_MODULE":
		return p.endModule(t)
	case "DECLARE":
		return p.declare(t)
	case "CONSTANT":
		return p.constant(t)
	case "ITEM":
		return p.item(t)
	case "AGGREGATE":
		return p.aggregate(t)
	case "END":
		return p.endAggregate(t)
	case "ENTRY":
		return p.entry(t)
	case "IFSYMBOL", "IF_SYMBOL":
		return p.condSymbol(t, p.d.IfSymbol)
	case "ELSE_IFSYMBOL", "ELSE_IF_SYMBOL":
		return p.condSymbol(t, p.d.ElseIfSymbol)
	case "ELSE":
		p.expectSemi()
		return p.d.Else(t.Loc)
	case "END_IFSYMBOL", "END_IF_SYMBOL":
		p.expectSemi()
		return p.d.EndIfSymbol(t.Loc)
	case "IFLANGUAGE", "IF_LANGUAGE":
		return p.ifLanguage(t)
	case "END_IFLANGUAGE", "END_IF_LANGUAGE":
		return p.endIfLanguage(t)
	case "LITERAL":
		return p.literal(t)
	}

	if p.depth > 0 {
		return p.member(t)
	}
	p.fail(t)
	return nil
}

func (p *Parser) local(t scan.Token) error {
	eq := p.advance()
	if eq.Kind != scan.Punct || eq.Punct != '=' {
		p.fail(eq)
		return nil
	}
	v, ok := p.expr()
	if !ok {
		return nil
	}
	p.expectSemi()
	return p.d.Local(t.Loc, t.Text, v)
}

func (p *Parser) module(t scan.Token) error {
	name := p.advance()
	if name.Kind != scan.Name {
		p.fail(name)
		return nil
	}
	ident := ""
	if upper(p.peek()) == "IDENT" {
		p.advance()
		s := p.advance()
		if s.Kind != scan.String {
			p.fail(s)
			return nil
		}
		ident = s.Text
	}
	p.expectSemi()
	return p.d.ModuleBegin(t.Loc, name.Text, ident)
}

func (p *Parser) endModule(t scan.Token) error {
	name := ""
	if p.peek().Kind == scan.Name {
		name = p.advance().Text
	}
	p.expectSemi()
	return p.d.ModuleEnd(t.Loc, name)
}

func (p *Parser) declare(t scan.Token) error {
	name := p.advance()
	if name.Kind != scan.Name {
		p.fail(name)
		return nil
	}
	var (
		ref  compiler.TypeRef
		size int64
	)
	switch upper(p.peek()) {
	case "SIZEOF":
		p.advance()
		paren := false
		if p.peek().Kind == scan.Punct && p.peek().Punct == '(' {
			p.advance()
			paren = true
		}
		r, ok := p.typeRef()
		if !ok {
			return nil
		}
		ref = r
		if paren {
			if c := p.advance(); c.Kind != scan.Punct || c.Punct != ')' {
				p.fail(c)
				return nil
			}
		}
	default:
		if v, ok := p.expr(); ok {
			size = v
			ref = compiler.KindRef(sdl.KindAny)
		} else {
			return nil
		}
	}
	p.attributes(nil)
	p.expectSemi()
	return p.d.Declare(t.Loc, name.Text, ref, int(size))
}

func (p *Parser) item(t scan.Token) error {
	name := p.advance()
	if name.Kind != scan.Name {
		p.fail(name)
		return nil
	}
	ref, ok := p.typeRef()
	if !ok {
		return nil
	}
	p.attributes(&ref)
	p.expectSemi()
	return p.d.Item(t.Loc, name.Text, ref)
}

// member parses an aggregate member declaration: `name type attrs;` or a
// nested `name STRUCTURE|UNION ...` subaggregate.
func (p *Parser) member(t scan.Token) error {
	kw := upper(p.peek())
	if kw == "STRUCTURE" || kw == "UNION" {
		return p.aggregateBody(t, t.Text)
	}
	ref, ok := p.typeRef()
	if !ok {
		return nil
	}
	p.attributes(&ref)
	p.expectSemi()
	return p.d.Item(t.Loc, t.Text, ref)
}

func (p *Parser) aggregate(t scan.Token) error {
	name := p.advance()
	if name.Kind != scan.Name {
		p.fail(name)
		return nil
	}
	return p.aggregateBody(t, name.Text)
}

// aggregateBody parses the aggregate header after its name: the
// struct/union keyword (or a coercing scalar type), then attributes.
func (p *Parser) aggregateBody(t scan.Token, name string) error {
	var ref compiler.TypeRef
	switch upper(p.peek()) {
	case "STRUCTURE":
		p.advance()
		ref = compiler.KindRef(sdl.KindStructure)
	case "UNION":
		p.advance()
		ref = compiler.KindRef(sdl.KindUnion)
	}

	// A scalar type following (or replacing) the keyword coerces the
	// aggregate into an implicit union with that scalar floor.
	if kw := upper(p.peek()); kw != "" {
		if _, ok := typeKinds[kw]; ok {
			r, rok := p.typeRef()
			if !rok {
				return nil
			}
			ref = r
		}
	}
	if ref.Kind == sdl.KindNone {
		p.fail(p.peek())
		return nil
	}

	p.attributes(nil)
	p.expectSemi()
	err := p.d.AggregateBegin(t.Loc, name, ref)
	p.depth++
	return err
}

func (p *Parser) endAggregate(t scan.Token) error {
	name := ""
	if p.peek().Kind == scan.Name {
		name = p.advance().Text
	}
	p.expectSemi()
	err := p.d.AggregateEnd(t.Loc, name)
	if p.depth > 0 {
		p.depth--
	}
	return err
}

func (p *Parser) condSymbol(t scan.Token, f func(sdl.Loc, string) error) error {
	sym := p.advance()
	if sym.Kind != scan.Name {
		p.fail(sym)
		return nil
	}
	p.expectSemi()
	return f(t.Loc, sym.Text)
}

func (p *Parser) ifLanguage(t scan.Token) error {
	var names []string
	for {
		n := p.advance()
		if n.Kind != scan.Name {
			p.fail(n)
			return nil
		}
		names = append(names, n.Text)
		sep := p.advance()
		if sep.Kind == scan.Punct && sep.Punct == ',' {
			continue
		}
		if sep.Kind == scan.Punct && sep.Punct == ';' {
			break
		}
		p.fail(sep)
		return nil
	}
	return p.d.IfLanguage(t.Loc, names)
}

func (p *Parser) endIfLanguage(t scan.Token) error {
	for p.peek().Kind == scan.Name {
		p.advance()
		if p.peek().Kind == scan.Punct && p.peek().Punct == ',' {
			p.advance()
		}
	}
	p.expectSemi()
	return p.d.EndIfLanguage(t.Loc)
}

// literal queues raw lines up to the END_LITERAL marker.
func (p *Parser) literal(t scan.Token) error {
	p.expectSemi()
	if err := p.d.LiteralBegin(t.Loc); err != nil {
		return err
	}
	// Text after the marker on its own line, if any, is the first literal line.
	if rest := p.s.RawLine(); strings.TrimSpace(rest) != "" {
		if err := p.d.LiteralLine(t.Loc, rest); err != nil {
			return err
		}
	}
	for {
		if p.s.AtEOF() {
			// Unterminated literal block.
			return p.d.LiteralEnd(t.Loc)
		}
		line := p.s.RawLine()
		trimmed := strings.ToUpper(strings.TrimRight(strings.TrimSpace(line), ";"))
		if trimmed == "END_LITERAL" {
			return p.d.LiteralEnd(t.Loc)
		}
		if err := p.d.LiteralLine(t.Loc, line); err != nil {
			return err
		}
	}
}
