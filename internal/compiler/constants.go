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

package compiler

import "github.com/aaam/opensdl/sdl"

// ConstEntry is one name of a constant list, with its optional inline
// comment and per-name explicit value.
type ConstEntry struct {
	Name    string
	Comment string

	HasValue bool
	Value    int64
}

// Constant processes a constant declaration: a single name or a list.
// Successive list values step by the Increment option (default 0). The
// Enumerate option re-interprets the list as an enumeration, which
// auto-increments by 1 when no explicit increment is given. The Counter
// option binds the last assigned value to a #local variable.
func (d *Dispatcher) Constant(loc sdl.Loc, entries []ConstEntry, value sdl.Value) error {
	if d.mod == nil {
		return d.fault(sdl.Errorf(sdl.ErrInvalidState, loc, "constant"))
	}
	if !d.enabled() {
		d.opts.reset()
		return nil
	}
	defer d.opts.reset()

	if d.opts.has(OptEnumerate) {
		return d.enumerate(loc, entries, value)
	}

	radix := value.Radix
	if n, ok := d.opts.num(OptRadix); ok {
		radix = sdl.Radix(n)
	}
	increment, _ := d.opts.num(OptIncrement)

	var err error
	next := value.Int
	for _, e := range entries {
		v := value
		v.Radix = radix
		if !v.String {
			if e.HasValue {
				next = e.Value
			}
			v.Int = next
			next += increment
		}

		c := &sdl.Constant{
			Name:     e.Name,
			Prefix:   d.opts.str(OptPrefix),
			Tag:      d.constantTag(e.Name),
			Comment:  e.Comment,
			TypeName: d.opts.str(OptTypeName),
			Value:    v,
			Loc:      loc,
		}
		d.mod.AddConstant(c)
		if counter := d.opts.str(OptCounter); counter != "" && !v.String {
			d.locals[counter] = v.Int
		}
		d.trace("constant", "%s = %s", e.Name, v.Format())
		if e := d.emit(func(b sdl.Backend) error { return b.Constant(c) }); e != nil && err == nil {
			err = e
		}
	}
	return err
}

// constantTag resolves the tag of a constant: explicit option, else the
// default "K", case-matched to the host id.
func (d *Dispatcher) constantTag(name string) string {
	if tag := d.opts.str(OptTag); tag != "" {
		return d.resolveTag(tag, 0, name)
	}
	return caseTag(constTag, name)
}

// enumerate turns a constant list into an enumeration type.
func (d *Dispatcher) enumerate(loc sdl.Loc, entries []ConstEntry, value sdl.Value) error {
	name := d.opts.str(OptEnumerate)
	increment := int64(1)
	if n, ok := d.opts.num(OptIncrement); ok {
		increment = n
	}

	e := &sdl.Enum{
		Name:    name,
		Prefix:  d.opts.str(OptPrefix),
		Tag:     d.resolveTag(d.opts.str(OptTag), sdl.TypeID(sdl.KindEnum), name),
		Typedef: d.opts.has(OptTypedef),
		Loc:     loc,
	}

	next := value.Int
	for _, en := range entries {
		if en.HasValue {
			next = en.Value
		}
		e.Members = append(e.Members, sdl.EnumMember{
			Name:     en.Name,
			Value:    next,
			Explicit: en.HasValue,
			Comment:  en.Comment,
		})
		next += increment
	}

	d.mod.AddEnum(e)
	d.trace("enum", "%s with %d members", name, len(e.Members))
	return d.emit(func(b sdl.Backend) error { return b.Enum(e) })
}
