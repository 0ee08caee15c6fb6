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

// typeKinds maps type keywords to base kinds.
var typeKinds = map[string]sdl.Kind{
	"BYTE":     sdl.KindByte,
	"WORD":     sdl.KindWord,
	"LONGWORD": sdl.KindLong,
	"QUADWORD": sdl.KindQuad,
	"OCTAWORD": sdl.KindOcta,

	"S_FLOAT": sdl.KindSFloat,
	"T_FLOAT": sdl.KindTFloat,
	"D_FLOAT": sdl.KindDFloat,
	"G_FLOAT": sdl.KindGFloat,
	"H_FLOAT": sdl.KindHFloat,
	"X_FLOAT": sdl.KindXFloat,
	"F_FLOAT": sdl.KindFFloat,

	"DECIMAL":  sdl.KindDecimal,
	"BITFIELD": sdl.KindBitfield,

	"CHARACTER": sdl.KindChar,

	"ADDRESS":          sdl.KindAddr,
	"ADDRESS_LONG":     sdl.KindAddrL,
	"ADDRESS_QUADWORD": sdl.KindAddrQ,
	"ADDRESS_HARDWARE": sdl.KindAddrHW,
	"POINTER":          sdl.KindPtr,
	"POINTER_LONG":     sdl.KindPtrL,
	"POINTER_QUADWORD": sdl.KindPtrQ,
	"POINTER_HARDWARE": sdl.KindPtrHW,

	"ANY":     sdl.KindAny,
	"VOID":    sdl.KindVoid,
	"BOOLEAN": sdl.KindBoolean,

	"STRUCTURE": sdl.KindStructure,
	"UNION":     sdl.KindUnion,
}

// complexKinds maps a float kind to its complex variant.
var complexKinds = map[sdl.Kind]sdl.Kind{
	sdl.KindSFloat: sdl.KindSFloatComplex,
	sdl.KindTFloat: sdl.KindTFloatComplex,
	sdl.KindDFloat: sdl.KindDFloatComplex,
	sdl.KindGFloat: sdl.KindGFloatComplex,
	sdl.KindFFloat: sdl.KindFFloatComplex,
}

// bitfieldHosts maps the host keyword after BITFIELD to the sized kind.
var bitfieldHosts = map[string]sdl.Kind{
	"BYTE":     sdl.KindBitfieldB,
	"WORD":     sdl.KindBitfieldW,
	"LONGWORD": sdl.KindBitfieldL,
	"QUADWORD": sdl.KindBitfieldQ,
	"OCTAWORD": sdl.KindBitfieldO,
}

// typeRef parses a type reference: a base type keyword with its trailing
// modifiers, or a user type name.
func (p *Parser) typeRef() (compiler.TypeRef, bool) {
	t := p.advance()
	if t.Kind != scan.Name {
		p.fail(t)
		return compiler.TypeRef{}, false
	}

	k, ok := typeKinds[upper(t)]
	if !ok {
		return compiler.NameRef(t.Text), true
	}
	ref := compiler.KindRef(k)

	switch {
	case complexKinds[k] != sdl.KindNone:
		if upper(p.peek()) == "COMPLEX" {
			p.advance()
			ref.Kind = complexKinds[k]
		}

	case k == sdl.KindDecimal:
		if upper(p.peek()) == "PRECISION" {
			p.advance()
			n, ok := p.expr()
			if !ok {
				return ref, false
			}
			ref.Precision = int(n)
		}
		if upper(p.peek()) == "SCALE" {
			p.advance()
			n, ok := p.expr()
			if !ok {
				return ref, false
			}
			ref.Scale = int(n)
		}

	case k == sdl.KindBitfield:
		if host, ok := bitfieldHosts[upper(p.peek())]; ok {
			p.advance()
			ref.Kind = host
		}

	case k == sdl.KindChar:
		if upper(p.peek()) == "VARYING" {
			p.advance()
			ref.Kind = sdl.KindCharVary
		} else if nt := p.peek(); nt.Kind == scan.Punct && nt.Punct == '*' {
			p.advance()
			ref.StarLength = true
		}

	case k.IsAddress():
		if nt := p.peek(); nt.Kind == scan.Punct && nt.Punct == '(' {
			p.advance()
			sub, ok := p.typeRef()
			if !ok {
				return ref, false
			}
			if c := p.advance(); c.Kind != scan.Punct || c.Punct != ')' {
				p.fail(c)
				return ref, false
			}
			ref.SubType = &sub
		}
	}
	return ref, true
}
