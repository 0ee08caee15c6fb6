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

// Package compiler implements the directive dispatcher: the semantic entry
// points invoked by the parser, one per source statement. The dispatcher
// gates every action on the conditional state machine, accumulates pending
// options, drives the layout engine, and hands fully resolved definitions
// to the enabled backends.
package compiler

import (
	"github.com/sirupsen/logrus"

	"github.com/aaam/opensdl/internal/cond"
	"github.com/aaam/opensdl/internal/dbg"
	"github.com/aaam/opensdl/internal/layout"
	"github.com/aaam/opensdl/sdl"
)

// Lang pairs a target language name with its backend.
type Lang struct {
	Name    string
	Backend sdl.Backend
}

// TypeRef is a type reference as the parser saw it: either a base scalar
// kind or a user type name, optionally with a subtype (pointer target or
// bitfield value type).
type TypeRef struct {
	Kind       sdl.Kind
	Name       string
	SubType    *TypeRef
	StarLength bool

	// Decimal attributes, part of the type syntax.
	Precision int
	Scale     int
}

// KindRef returns a TypeRef for a base scalar.
func KindRef(k sdl.Kind) TypeRef { return TypeRef{Kind: k} }

// NameRef returns a TypeRef for a user type name.
func NameRef(name string) TypeRef { return TypeRef{Name: name} }

// Dispatcher is the semantic analyser. All state that the original keeps in
// process-wide scratch buffers lives here: the options and parameter
// buffers, the conditional stacks, and the aggregate cursor. A Dispatcher
// serves exactly one module at a time and is not safe for concurrent use.
type Dispatcher struct {
	target sdl.Target
	langs  []Lang
	log    *logrus.Logger

	mod  *sdl.Module
	done *sdl.Module // Last closed module.
	cond *cond.Machine
	lay  *layout.Engine

	// Aggregate cursor.
	cur  *sdl.Aggregate
	prev sdl.Member // Previously completed member, for late-attaching options.

	opts      optBuf
	paramMark int
	params    []*sdl.Parameter

	literal bool
	litBuf  []string

	symbols map[string]int64 // Condition symbols, seeded by the driver.
	locals  map[string]int64 // #local variables.
}

// New returns a dispatcher emitting to the given backends.
func New(t sdl.Target, langs []Lang, log *logrus.Logger, symbols map[string]int64) *Dispatcher {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.PanicLevel)
	}
	syms := make(map[string]int64, len(symbols))
	for k, v := range symbols {
		syms[k] = v
	}
	return &Dispatcher{
		target:  t,
		langs:   langs,
		log:     log,
		symbols: syms,
		locals:  make(map[string]int64),
	}
}

// Module returns the module being built, or the last closed one.
func (d *Dispatcher) Module() *sdl.Module {
	if d.mod != nil {
		return d.mod
	}
	return d.done
}

// enabled reports whether directives are currently processed.
func (d *Dispatcher) enabled() bool { return d.mod != nil && d.cond.Enabled() }

// fault records a recoverable error and returns it.
func (d *Dispatcher) fault(e *sdl.Error) error {
	if d.cur != nil {
		e.Context = d.cur.Path()
	}
	if d.mod != nil {
		d.mod.Fault(e)
	}
	d.log.Debug(e.Error())
	return e
}

// emit invokes f for every language-enabled backend, returning the first
// backend error.
func (d *Dispatcher) emit(f func(sdl.Backend) error) error {
	var first error
	for i, l := range d.langs {
		if !d.cond.LangEnabled(i) {
			continue
		}
		if err := f(l.Backend); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// LangIndex returns the backend index for a language name, or -1.
func (d *Dispatcher) LangIndex(name string) int {
	for i, l := range d.langs {
		if l.Name == name {
			return i
		}
	}
	return -1
}

// LocalValue returns the value bound to a #local variable.
func (d *Dispatcher) LocalValue(name string) (int64, bool) {
	v, ok := d.locals[name]
	return v, ok
}

// ModuleBegin opens a module. Every other directive is invalid before it.
func (d *Dispatcher) ModuleBegin(loc sdl.Loc, name, ident string) error {
	if d.mod != nil {
		return d.fault(sdl.Errorf(sdl.ErrInvalidState, loc, "module"))
	}
	d.mod = sdl.NewModule(name, ident, d.target)
	d.cond = cond.New(len(d.langs))
	d.lay = layout.New(d.mod)
	d.log.WithField("module", name).Debug("module begin")
	return d.emit(func(b sdl.Backend) error { return b.ModuleBegin(d.mod) })
}

// ModuleEnd closes the module, releasing dispatcher-owned scratch state.
// The resolved module stays reachable through [Dispatcher.Module].
func (d *Dispatcher) ModuleEnd(loc sdl.Loc, name string) error {
	if d.mod == nil {
		return d.fault(sdl.Errorf(sdl.ErrInvalidState, loc, "end-module"))
	}
	var err error
	if name != "" && name != d.mod.Name {
		err = d.fault(sdl.Errorf(sdl.ErrMatchEndName, loc, name, d.mod.Name))
	}
	if e := d.emit(func(b sdl.Backend) error { return b.ModuleEnd(d.mod) }); e != nil && err == nil {
		err = e
	}

	// Scoped release: scratch buffers and module-scoped tables go away
	// even when the module ended on a fault.
	d.cur = nil
	d.prev = nil
	d.opts.reset()
	d.params = nil
	d.litBuf = nil
	d.literal = false
	d.locals = make(map[string]int64)
	d.done = d.mod
	d.mod = nil
	return err
}

// Local binds a #name local variable.
func (d *Dispatcher) Local(loc sdl.Loc, name string, value int64) error {
	if !d.enabled() {
		return nil
	}
	d.locals[name] = value
	return nil
}

// Comment records a comment. Inside an aggregate it becomes a positioned
// member; otherwise it flows straight to the backends.
func (d *Dispatcher) Comment(loc sdl.Loc, c *sdl.Comment) error {
	if !d.enabled() {
		return nil
	}
	c.Loc = loc
	if d.cur != nil {
		d.cur.Members = append(d.cur.Members, c)
		return nil
	}
	return d.emit(func(b sdl.Backend) error { return b.Comment(c) })
}

// LiteralBegin starts verbatim passthrough.
func (d *Dispatcher) LiteralBegin(loc sdl.Loc) error {
	if !d.enabled() {
		return nil
	}
	d.literal = true
	return nil
}

// LiteralLine queues one verbatim source line.
func (d *Dispatcher) LiteralLine(loc sdl.Loc, line string) error {
	if !d.enabled() {
		return nil
	}
	d.litBuf = append(d.litBuf, line)
	return nil
}

// LiteralEnd releases the queued lines, in order, to the backends.
func (d *Dispatcher) LiteralEnd(loc sdl.Loc) error {
	if !d.enabled() {
		d.litBuf = nil
		d.literal = false
		return nil
	}
	err := d.emit(func(b sdl.Backend) error {
		for _, line := range d.litBuf {
			if e := b.LiteralLine(line); e != nil {
				return e
			}
		}
		return nil
	})
	d.litBuf = nil
	d.literal = false
	return err
}

// InLiteral reports whether the dispatcher is between literal markers.
func (d *Dispatcher) InLiteral() bool { return d.literal }

// IfSymbol opens a symbol conditional on the named condition symbol.
func (d *Dispatcher) IfSymbol(loc sdl.Loc, sym string) error {
	if d.mod == nil {
		return d.fault(sdl.Errorf(sdl.ErrInvalidState, loc, "if-symbol"))
	}
	v, ok := d.symbols[sym]
	if err := d.cond.IfSymbol(loc, ok && v != 0); err != nil {
		return d.fault(err.(*sdl.Error))
	}
	if !ok {
		return d.fault(sdl.Errorf(sdl.ErrSymbolNotDefined, loc, sym))
	}
	return nil
}

// ElseIfSymbol advances a symbol conditional to its next tested branch.
func (d *Dispatcher) ElseIfSymbol(loc sdl.Loc, sym string) error {
	if d.mod == nil {
		return d.fault(sdl.Errorf(sdl.ErrInvalidState, loc, "else-if-symbol"))
	}
	v, ok := d.symbols[sym]
	if err := d.cond.ElseIfSymbol(loc, ok && v != 0); err != nil {
		return d.fault(err.(*sdl.Error))
	}
	if !ok {
		return d.fault(sdl.Errorf(sdl.ErrSymbolNotDefined, loc, sym))
	}
	return nil
}

// Else flips the innermost conditional.
func (d *Dispatcher) Else(loc sdl.Loc) error {
	if d.mod == nil {
		return d.fault(sdl.Errorf(sdl.ErrInvalidState, loc, "else"))
	}
	if err := d.cond.Else(loc); err != nil {
		return d.fault(err.(*sdl.Error))
	}
	return nil
}

// EndIfSymbol closes the innermost symbol conditional.
func (d *Dispatcher) EndIfSymbol(loc sdl.Loc) error {
	if d.mod == nil {
		return d.fault(sdl.Errorf(sdl.ErrInvalidState, loc, "end-if-symbol"))
	}
	if err := d.cond.EndIfSymbol(loc); err != nil {
		return d.fault(err.(*sdl.Error))
	}
	return nil
}

// IfLanguage restricts emission to the named languages. Names with no
// configured backend are ignored; a name listed twice is a recoverable
// fault, and the other names still take effect.
func (d *Dispatcher) IfLanguage(loc sdl.Loc, names []string) error {
	if d.mod == nil {
		return d.fault(sdl.Errorf(sdl.ErrInvalidState, loc, "if-language"))
	}
	var which []int
	var err error
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			err = d.fault(sdl.Errorf(sdl.ErrDuplicateLanguage, loc, n))
			continue
		}
		seen[n] = true
		if i := d.LangIndex(n); i >= 0 {
			which = append(which, i)
		}
	}
	if e := d.cond.IfLanguage(loc, which); e != nil {
		return d.fault(e.(*sdl.Error))
	}
	return err
}

// EndIfLanguage restores the language enable vector.
func (d *Dispatcher) EndIfLanguage(loc sdl.Loc) error {
	if d.mod == nil {
		return d.fault(sdl.Errorf(sdl.ErrInvalidState, loc, "end-if-language"))
	}
	if err := d.cond.EndIfLanguage(loc); err != nil {
		return d.fault(err.(*sdl.Error))
	}
	return nil
}

// resolve maps a TypeRef to its TypeID and base kind.
func (d *Dispatcher) resolve(loc sdl.Loc, ref TypeRef) (sdl.TypeID, sdl.Kind, error) {
	if ref.Kind != sdl.KindNone {
		return sdl.TypeID(ref.Kind), ref.Kind, nil
	}
	id, ok := d.mod.Lookup(ref.Name)
	if !ok {
		return 0, sdl.KindNone, d.fault(sdl.Errorf(sdl.ErrSymbolNotDefined, loc, ref.Name))
	}
	return id, d.baseKind(id), nil
}

// baseKind chases a TypeID down to the scalar kind it bottoms out at.
func (d *Dispatcher) baseKind(id sdl.TypeID) sdl.Kind {
	for {
		if k := id.Kind(); k != sdl.KindNone {
			return k
		}
		switch e := d.mod.Entity(id).(type) {
		case *sdl.Declare:
			id = e.Base
		case *sdl.Item:
			id = e.Type
		case *sdl.Aggregate:
			if e.IsUnion() {
				return sdl.KindUnion
			}
			return sdl.KindStructure
		case *sdl.Enum:
			return sdl.KindEnum
		default:
			return sdl.KindNone
		}
	}
}

func (d *Dispatcher) trace(op, format string, args ...any) {
	if d.log.IsLevelEnabled(logrus.TraceLevel) {
		d.log.WithField("op", op).Trace(dbg.Sprintf(format, args...))
	}
}
