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

// Package langc emits C declarations for a resolved module: #defines for
// constants, struct/union blocks with bitfield syntax, enums, typedefs,
// and function prototypes. The backend only prints what the core resolved;
// it never recomputes layout.
package langc

import (
	"fmt"
	"io"
	"strings"

	"github.com/aaam/opensdl/sdl"
)

// Options control the emitted surface.
type Options struct {
	Comments bool // Reproduce source comments.
	Header   bool // Emit the module guard and banner.
	Member   bool // Annotate members with their resolved offsets.

	SuppressPrefix bool // Drop prefixes from emitted names.
	SuppressTag    bool // Drop tags from emitted constant names.
}

// Backend writes C declarations to w.
type Backend struct {
	w    io.Writer
	opts Options

	depth int
	err   error
}

// New returns a C backend writing to w.
func New(w io.Writer, opts Options) *Backend {
	return &Backend{w: w, opts: opts}
}

func (b *Backend) printf(format string, args ...any) error {
	if b.err != nil {
		return b.err
	}
	_, b.err = fmt.Fprintf(b.w, format, args...)
	return b.err
}

func (b *Backend) indent() string {
	return strings.Repeat("    ", b.depth)
}

// name renders prefix + id, honoring suppression.
func (b *Backend) name(prefix, id string) string {
	if b.opts.SuppressPrefix {
		return id
	}
	return prefix + id
}

// constName renders a constant: prefix + id + "_" + tag.
func (b *Backend) constName(c *sdl.Constant) string {
	n := b.name(c.Prefix, c.Name)
	if c.Tag != "" && !b.opts.SuppressTag {
		n += "_" + c.Tag
	}
	return n
}

// guard derives the module include-guard macro.
func guard(m *sdl.Module) string {
	return "_" + strings.ToUpper(m.Name) + "_H_"
}

// ModuleBegin implements [sdl.Backend].
func (b *Backend) ModuleBegin(m *sdl.Module) error {
	if !b.opts.Header {
		return nil
	}
	b.printf("/* %s */\n", m.Name)
	if m.Ident != "" {
		b.printf("/* %s */\n", m.Ident)
	}
	b.printf("#ifndef %s\n#define %s 1\n\n", guard(m), guard(m))
	return b.err
}

// ModuleEnd implements [sdl.Backend].
func (b *Backend) ModuleEnd(m *sdl.Module) error {
	if b.opts.Header {
		b.printf("\n#endif /* %s */\n", guard(m))
	}
	return b.err
}

// ctype maps a resolved item to its C type spelling.
func (b *Backend) ctype(it *sdl.Item) string {
	u := ""
	if !it.Signed {
		u = "unsigned "
	}
	switch it.Kind {
	case sdl.KindByte:
		return u + "char"
	case sdl.KindWord:
		return u + "short"
	case sdl.KindLong, sdl.KindBoolean, sdl.KindEnum:
		return u + "int"
	case sdl.KindQuad:
		return u + "long long"
	case sdl.KindOcta:
		return u + "__int128"
	case sdl.KindSFloat, sdl.KindFFloat:
		return "float"
	case sdl.KindTFloat, sdl.KindDFloat, sdl.KindGFloat:
		return "double"
	case sdl.KindHFloat, sdl.KindXFloat:
		return "long double"
	case sdl.KindSFloatComplex, sdl.KindFFloatComplex:
		return "float _Complex"
	case sdl.KindTFloatComplex, sdl.KindDFloatComplex, sdl.KindGFloatComplex:
		return "double _Complex"
	case sdl.KindChar, sdl.KindCharVary, sdl.KindCharStar, sdl.KindDecimal:
		return "char"
	case sdl.KindAddr, sdl.KindAddrL, sdl.KindAddrQ, sdl.KindAddrHW,
		sdl.KindPtr, sdl.KindPtrL, sdl.KindPtrQ, sdl.KindPtrHW:
		return "void *"
	default:
		return "int"
	}
}

// bitfieldType picks the C host type of a bitfield run.
func bitfieldType(host int, signed bool) string {
	u := "unsigned "
	if signed {
		u = ""
	}
	switch {
	case host <= 4:
		return u + "int"
	case host <= 8:
		return u + "long long"
	default:
		return u + "__int128"
	}
}

// Item implements [sdl.Backend]. Top-level items become typedefs, externs
// for global or common items, and plain declarations otherwise.
func (b *Backend) Item(it *sdl.Item) error {
	decl := b.itemDecl(it)
	switch {
	case it.Typedef:
		b.printf("typedef %s;\n", decl)
	case it.Global, it.Common:
		b.printf("extern %s;\n", decl)
	default:
		b.printf("%s;\n", decl)
	}
	return b.err
}

// itemDecl renders `type name[dims]` without a trailing semicolon.
func (b *Backend) itemDecl(it *sdl.Item) string {
	var sb strings.Builder
	sb.WriteString(b.ctype(it))
	sb.WriteByte(' ')
	sb.WriteString(b.name(it.Prefix, it.Name))
	if it.Kind.IsChar() && (it.Length > 1 || it.Kind == sdl.KindCharVary) {
		n := it.Length
		if it.Kind == sdl.KindCharVary {
			n += 2
		}
		fmt.Fprintf(&sb, "[%d]", n)
	}
	if it.Kind == sdl.KindDecimal {
		fmt.Fprintf(&sb, "[%d]", max(it.Precision, 1)+1)
	}
	if it.Dim != nil {
		fmt.Fprintf(&sb, "[%d]", it.Dim.Count())
	}
	return sb.String()
}

// Constant implements [sdl.Backend].
func (b *Backend) Constant(c *sdl.Constant) error {
	b.printf("#define %s %s", b.constName(c), c.Value.Format())
	if c.Comment != "" && b.opts.Comments {
		b.printf(" /* %s */", c.Comment)
	}
	b.printf("\n")
	return b.err
}

// Enum implements [sdl.Backend].
func (b *Backend) Enum(e *sdl.Enum) error {
	if e.Typedef {
		b.printf("typedef enum {\n")
	} else {
		b.printf("enum %s {\n", b.name(e.Prefix, e.Name))
	}
	for i, m := range e.Members {
		sep := ","
		if i == len(e.Members)-1 {
			sep = ""
		}
		b.printf("    %s = %d%s", b.name(e.Prefix, m.Name), m.Value, sep)
		if m.Comment != "" && b.opts.Comments {
			b.printf(" /* %s */", m.Comment)
		}
		b.printf("\n")
	}
	if e.Typedef {
		b.printf("} %s;\n", b.name(e.Prefix, e.Name))
	} else {
		b.printf("};\n")
	}
	return b.err
}

// AggregateBegin implements [sdl.Backend].
func (b *Backend) AggregateBegin(a *sdl.Aggregate) error {
	kw := "struct"
	if a.IsUnion() {
		kw = "union"
	}
	if a.Parent == nil {
		if a.Typedef {
			b.printf("typedef %s {", kw)
		} else {
			b.printf("%s %s {", kw, b.name(a.Prefix, a.Name))
		}
	} else {
		b.printf("%s%s {", b.indent(), kw)
	}
	if a.Marker != "" {
		b.printf(" /* %s */", a.Marker)
	}
	b.printf("\n")
	b.depth++
	return b.err
}

// AggregateEnd implements [sdl.Backend].
func (b *Backend) AggregateEnd(a *sdl.Aggregate) error {
	b.depth--
	switch {
	case a.Parent != nil:
		b.printf("%s} %s", b.indent(), a.Name)
		if a.Dim != nil {
			b.printf("[%d]", a.Dim.Count())
		}
		b.printf(";")
		if b.opts.Member {
			b.printf(" /* offset: %d, size: %d */", a.Offset, a.Size)
		}
		b.printf("\n")
	case a.Typedef:
		b.printf("} %s;", b.name(a.Prefix, a.Name))
	default:
		b.printf("};")
	}
	if a.Parent == nil {
		if a.Origin != nil {
			b.printf(" /* origin: %s, offset %d */", a.Origin.Name, a.OriginOffset())
		}
		b.printf("\n")
	}
	return b.err
}

// Member implements [sdl.Backend]. Subaggregate members arrive through
// AggregateBegin/End instead.
func (b *Backend) Member(a *sdl.Aggregate, m sdl.Member) error {
	switch m := m.(type) {
	case *sdl.Comment:
		return b.Comment(m)
	case *sdl.Item:
		if m.IsBitfield() {
			b.printf("%s%s %s : %d;", b.indent(),
				bitfieldType(m.HostSize, m.Signed), b.name(m.Prefix, m.Name), m.Length)
		} else {
			b.printf("%s%s;", b.indent(), b.itemDecl(m))
		}
		if b.opts.Member {
			if m.IsBitfield() {
				b.printf(" /* offset: %d, bit %d */", m.Offset, m.BitOffset)
			} else {
				b.printf(" /* offset: %d */", m.Offset)
			}
		}
		b.printf("\n")
	}
	return b.err
}

// Comment implements [sdl.Backend].
func (b *Backend) Comment(c *sdl.Comment) error {
	if !b.opts.Comments {
		return nil
	}
	return b.printf("%s/* %s */\n", b.indent(), c.Text)
}

// LiteralLine implements [sdl.Backend].
func (b *Backend) LiteralLine(line string) error {
	return b.printf("%s\n", line)
}

// Entry implements [sdl.Backend].
func (b *Backend) Entry(e *sdl.Entry) error {
	ret := "void"
	if e.Returns != nil {
		ret = b.ctype(&sdl.Item{Kind: e.Returns.Kind, Signed: e.Returns.Signed})
	}
	name := e.Name
	if e.Alias != "" {
		name = e.Alias
	}

	var params []string
	for _, p := range e.Params {
		t := b.ctype(&sdl.Item{Kind: p.Kind, Signed: p.Kind.SignedByDefault()})
		if p.Mechanism == sdl.ByReference && !strings.HasSuffix(t, "*") {
			t += " *"
		}
		if p.Name != "" {
			if !strings.HasSuffix(t, "*") {
				t += " "
			}
			t += p.Name
		}
		params = append(params, t)
	}
	if e.Variable {
		params = append(params, "...")
	}
	if len(params) == 0 {
		params = []string{"void"}
	}
	b.printf("%s %s(%s);\n", ret, name, strings.Join(params, ", "))
	return b.err
}
