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

// flagOpts are attributes that carry no payload.
var flagOpts = map[string]compiler.OptKey{
	"ALIGN":     compiler.OptAlign,
	"NOALIGN":   compiler.OptNoAlign,
	"MASK":      compiler.OptMask,
	"SIGNED":    compiler.OptSigned,
	"COMMON":    compiler.OptCommon,
	"GLOBAL":    compiler.OptGlobal,
	"TYPEDEF":   compiler.OptTypedef,
	"VARIABLE":  compiler.OptVariable,
	"IN":        compiler.OptIn,
	"OUT":       compiler.OptOut,
	"OPTIONAL":  compiler.OptOptional,
	"LIST":      compiler.OptList,
	"FILL":      compiler.OptFill,
	"VALUE":     compiler.OptValueMech,
	"REFERENCE": compiler.OptRefMech,
}

// strOpts are attributes taking a name or string payload.
var strOpts = map[string]compiler.OptKey{
	"PREFIX":    compiler.OptPrefix,
	"TAG":       compiler.OptTag,
	"BASED":     compiler.OptBased,
	"MARKER":    compiler.OptMarker,
	"ORIGIN":    compiler.OptOrigin,
	"COUNTER":   compiler.OptCounter,
	"ENUMERATE": compiler.OptEnumerate,
	"TYPENAME":  compiler.OptTypeName,
	"ALIAS":     compiler.OptAlias,
	"LINKAGE":   compiler.OptLinkage,
	"NAMED":     compiler.OptNamed,
}

// radixNames maps RADIX payloads.
var radixNames = map[string]sdl.Radix{
	"DECIMAL": sdl.RadixDec,
	"DEC":     sdl.RadixDec,
	"OCTAL":   sdl.RadixOct,
	"OCT":     sdl.RadixOct,
	"HEX":     sdl.RadixHex,
	"BINARY":  sdl.RadixBin,
}

// attributes consumes the attribute list of the current statement, feeding
// each recognized option to the dispatcher. It stops at the first token
// that is not an attribute keyword. ref, when non-nil, receives `LENGTH *`.
func (p *Parser) attributes(ref *compiler.TypeRef) bool {
	for {
		t := p.peek()
		if t.Kind != scan.Name {
			return true
		}
		kw := upper(t)

		if key, ok := flagOpts[kw]; ok {
			p.advance()
			p.d.Option(t.Loc, compiler.Option{Key: key})
			continue
		}
		if key, ok := strOpts[kw]; ok {
			p.advance()
			v := p.advance()
			if v.Kind != scan.Name && v.Kind != scan.String {
				p.fail(v)
				return false
			}
			p.d.Option(t.Loc, compiler.Option{Key: key, S: v.Text})
			continue
		}

		switch kw {
		case "BASEALIGN":
			p.advance()
			n, ok := p.parenExpr()
			if !ok {
				return false
			}
			p.d.Option(t.Loc, compiler.Option{Key: compiler.OptBaseAlign, N: n})

		case "DIMENSION":
			p.advance()
			lo, ok := p.expr()
			if !ok {
				return false
			}
			dim := &sdl.Dimension{Lo: 1, Hi: lo}
			if c := p.peek(); c.Kind == scan.Punct && c.Punct == ':' {
				p.advance()
				hi, ok := p.expr()
				if !ok {
					return false
				}
				dim.Lo, dim.Hi = lo, hi
			}
			p.d.Option(t.Loc, compiler.Option{Key: compiler.OptDimension, Dim: dim})

		case "LENGTH":
			p.advance()
			if c := p.peek(); c.Kind == scan.Punct && c.Punct == '*' {
				p.advance()
				if ref != nil {
					ref.StarLength = true
				}
				continue
			}
			n, ok := p.expr()
			if !ok {
				return false
			}
			p.d.Option(t.Loc, compiler.Option{Key: compiler.OptLength, N: n})

		case "INCREMENT":
			p.advance()
			n, ok := p.expr()
			if !ok {
				return false
			}
			p.d.Option(t.Loc, compiler.Option{Key: compiler.OptIncrement, N: n})

		case "RADIX":
			p.advance()
			v := p.advance()
			r, ok := radixNames[upper(v)]
			if !ok {
				p.fail(v)
				return false
			}
			p.d.Option(t.Loc, compiler.Option{Key: compiler.OptRadix, N: int64(r)})

		case "DEFAULT":
			p.advance()
			var val sdl.Value
			if s := p.peek(); s.Kind == scan.String {
				p.advance()
				val = sdl.StringValue(s.Text)
			} else {
				n, ok := p.expr()
				if !ok {
					return false
				}
				val = sdl.IntValue(n, p.exprRadix)
			}
			p.d.Option(t.Loc, compiler.Option{Key: compiler.OptDefault, Val: &val})

		case "RETURNS":
			p.advance()
			r, ok := p.typeRef()
			if !ok {
				return false
			}
			p.d.Option(t.Loc, compiler.Option{Key: compiler.OptReturnsType, Ref: &r})
			if upper(p.peek()) == "NAMED" {
				p.advance()
				n := p.advance()
				if n.Kind != scan.Name {
					p.fail(n)
					return false
				}
				p.d.Option(t.Loc, compiler.Option{Key: compiler.OptReturnsNamed, S: n.Text})
			}

		case "PARAMETER":
			p.advance()
			if !p.parameters(t) {
				return false
			}

		default:
			return true
		}
	}
}

// parenExpr parses an expression with optional surrounding parentheses.
func (p *Parser) parenExpr() (int64, bool) {
	if c := p.peek(); c.Kind == scan.Punct && c.Punct == '(' {
		p.advance()
		n, ok := p.expr()
		if !ok {
			return 0, false
		}
		if c := p.advance(); c.Kind != scan.Punct || c.Punct != ')' {
			p.fail(c)
			return 0, false
		}
		return n, true
	}
	return p.expr()
}

// expr evaluates a constant expression: +, -, *, / over integer literals,
// #locals, and parenthesized subexpressions. The radix of the first
// literal seen is kept as a display hint.
func (p *Parser) expr() (int64, bool) {
	p.exprRadix = sdl.RadixDec
	p.radixSeen = false
	return p.addExpr()
}

func (p *Parser) addExpr() (int64, bool) {
	v, ok := p.mulExpr()
	if !ok {
		return 0, false
	}
	for {
		t := p.peek()
		if t.Kind != scan.Punct || (t.Punct != '+' && t.Punct != '-') {
			return v, true
		}
		p.advance()
		rhs, ok := p.mulExpr()
		if !ok {
			return 0, false
		}
		if t.Punct == '+' {
			v += rhs
		} else {
			v -= rhs
		}
	}
}

func (p *Parser) mulExpr() (int64, bool) {
	v, ok := p.factor()
	if !ok {
		return 0, false
	}
	for {
		t := p.peek()
		if t.Kind != scan.Punct || (t.Punct != '*' && t.Punct != '/') {
			return v, true
		}
		p.advance()
		rhs, ok := p.factor()
		if !ok {
			return 0, false
		}
		if t.Punct == '*' {
			v *= rhs
		} else if rhs != 0 {
			v /= rhs
		} else {
			p.fail(t)
			return 0, false
		}
	}
}

func (p *Parser) factor() (int64, bool) {
	t := p.advance()
	switch {
	case t.Kind == scan.Int:
		if !p.radixSeen {
			p.exprRadix = t.Radix
			p.radixSeen = true
		}
		return t.Int, true

	case t.Kind == scan.Name && t.Text[0] == '#':
		v, ok := p.d.LocalValue(t.Text)
		if !ok {
			if mod := p.d.Module(); mod != nil {
				mod.Fault(sdl.Errorf(sdl.ErrSymbolNotDefined, t.Loc, t.Text))
			}
			return 0, true
		}
		return v, true

	case t.Kind == scan.Punct && t.Punct == '(':
		v, ok := p.addExpr()
		if !ok {
			return 0, false
		}
		if c := p.advance(); c.Kind != scan.Punct || c.Punct != ')' {
			p.fail(c)
			return 0, false
		}
		return v, true

	case t.Kind == scan.Punct && t.Punct == '-':
		v, ok := p.factor()
		return -v, ok

	default:
		p.fail(t)
		return 0, false
	}
}
