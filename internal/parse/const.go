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

package parse

import (
	"github.com/aaam/opensdl/internal/compiler"
	"github.com/aaam/opensdl/internal/scan"
	"github.com/aaam/opensdl/sdl"
)

// constant parses a constant declaration:
//
//	CONSTANT name EQUALS value attrs ;
//	CONSTANT ( name [= expr] [comment] , ... ) EQUALS value attrs ;
func (p *Parser) constant(t scan.Token) error {
	var entries []compiler.ConstEntry

	n := p.advance()
	switch {
	case n.Kind == scan.Name:
		entries = append(entries, compiler.ConstEntry{Name: n.Text})

	case n.Kind == scan.Punct && n.Punct == '(':
		var ok bool
		entries, ok = p.constList()
		if !ok {
			return nil
		}

	default:
		p.fail(n)
		return nil
	}

	if eq := upper(p.peek()); eq == "EQUALS" {
		p.advance()
	} else if c := p.peek(); c.Kind == scan.Punct && c.Punct == '=' {
		p.advance()
	} else {
		p.fail(p.peek())
		return nil
	}

	var value sdl.Value
	if s := p.peek(); s.Kind == scan.String {
		p.advance()
		value = sdl.StringValue(s.Text)
	} else {
		v, ok := p.expr()
		if !ok {
			return nil
		}
		value = sdl.IntValue(v, p.exprRadix)
	}

	p.attributes(nil)
	p.expectSemi()
	return p.d.Constant(t.Loc, entries, value)
}

// constList parses the parenthesized name list of a multi-constant
// declaration, with optional per-name values and inline comments.
func (p *Parser) constList() ([]compiler.ConstEntry, bool) {
	var entries []compiler.ConstEntry
	for {
		n := p.advance()
		if n.Kind != scan.Name {
			p.fail(n)
			return nil, false
		}
		e := compiler.ConstEntry{Name: n.Text}

		if c := p.peek(); c.Kind == scan.Punct && c.Punct == '=' {
			p.advance()
			v, ok := p.expr()
			if !ok {
				return nil, false
			}
			e.HasValue = true
			e.Value = v
		}
		if c := p.peek(); c.Kind == scan.Comment {
			p.advance()
			e.Comment = c.Text
		}
		entries = append(entries, e)

		sep := p.advance()
		switch {
		case sep.Kind == scan.Punct && sep.Punct == ',':
			continue
		case sep.Kind == scan.Punct && sep.Punct == ')':
			return entries, true
		default:
			p.fail(sep)
			return nil, false
		}
	}
}

// entry parses an entry declaration; PARAMETER and RETURNS are handled in
// the shared attribute loop.
func (p *Parser) entry(t scan.Token) error {
	name := p.advance()
	if name.Kind != scan.Name {
		p.fail(name)
		return nil
	}
	p.attributes(nil)
	p.expectSemi()
	return p.d.Entry(t.Loc, name.Text)
}

// parameters parses the PARAMETER ( param {, param} ) attribute, feeding
// each parameter through the dispatcher.
func (p *Parser) parameters(t scan.Token) bool {
	open := p.advance()
	if open.Kind != scan.Punct || open.Punct != '(' {
		p.fail(open)
		return false
	}
	for {
		p.d.ParamBegin()
		ref, ok := p.typeRef()
		if !ok {
			return false
		}
		if !p.attributes(&ref) {
			return false
		}
		if err := p.d.Parameter(t.Loc, "", ref); err != nil && fatalErr(err) {
			return false
		}

		sep := p.advance()
		switch {
		case sep.Kind == scan.Punct && sep.Punct == ',':
			continue
		case sep.Kind == scan.Punct && sep.Punct == ')':
			return true
		default:
			p.fail(sep)
			return false
		}
	}
}
