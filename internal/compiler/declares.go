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

import (
	"github.com/aaam/opensdl/internal/layout"
	"github.com/aaam/opensdl/sdl"
)

// Declare registers a type alias. Declares are not emitted; they exist so
// later references resolve to the aliased type and size.
func (d *Dispatcher) Declare(loc sdl.Loc, name string, ref TypeRef, size int) error {
	if d.mod == nil {
		return d.fault(sdl.Errorf(sdl.ErrInvalidState, loc, "declare"))
	}
	if !d.enabled() {
		d.opts.reset()
		return nil
	}
	defer d.opts.reset()

	id, kind, err := d.resolve(loc, ref)
	if err != nil {
		return err
	}
	if size == 0 {
		size = d.mod.SizeOf(id)
	}
	dcl := &sdl.Declare{
		Name:   name,
		Prefix: d.opts.str(OptPrefix),
		Tag:    d.resolveTag(d.opts.str(OptTag), id, name),
		Base:   id,
		Kind:   kind,
		Signed: kind.SignedByDefault(),
		Size:   size,
		Loc:    loc,
	}
	d.mod.AddDeclare(dcl)
	d.trace("declare", "%s -> %v (%d bytes)", name, id, size)
	return nil
}

// Item declares a data slot: a top-level item outside an aggregate, a
// member inside one.
func (d *Dispatcher) Item(loc sdl.Loc, name string, ref TypeRef) error {
	if d.mod == nil {
		return d.fault(sdl.Errorf(sdl.ErrInvalidState, loc, "item"))
	}
	if !d.enabled() {
		d.opts.reset()
		return nil
	}
	defer d.opts.reset()

	it, err := d.makeItem(loc, name, ref, false)
	if it == nil {
		return err
	}

	if d.cur != nil {
		if it.IsBitfield() {
			d.lay.AppendBits(d.cur, it)
		} else {
			d.lay.Append(d.cur, it)
		}
		d.prev = it

		// First member matching a pending origin name becomes the
		// aggregate's logical zero.
		for p := d.cur; p != nil; p = p.Parent {
			if p.OriginName == name && p.Origin == nil {
				p.Origin = it
			}
		}
		d.trace("member", "%s.%s @%d.%d", d.cur.Name, name, it.Offset, it.BitOffset)
		return err
	}

	d.mod.AddItem(it)
	d.trace("item", "%s %v (%d bytes)", name, it.Type, it.Size)
	if e := d.emit(func(b sdl.Backend) error { return b.Item(it) }); e != nil {
		return e
	}
	return err
}

// makeItem builds an item from a type reference and the pending options.
// A nil item means the reference could not be resolved or a bitfield length
// is out of range; a non-nil item with a non-nil error is usable despite
// the recoverable fault.
func (d *Dispatcher) makeItem(loc sdl.Loc, name string, ref TypeRef, param bool) (*sdl.Item, error) {
	id, kind, err := d.resolve(loc, ref)
	if err != nil {
		return nil, err
	}

	it := &sdl.Item{
		Name:      name,
		Type:      id,
		Kind:      kind,
		Signed:    kind.SignedByDefault(),
		Size:      d.mod.SizeOf(id),
		Prefix:    d.opts.str(OptPrefix),
		Tag:       d.resolveTag(d.opts.str(OptTag), id, name),
		Dim:       d.dimension(),
		Common:    d.opts.has(OptCommon),
		Global:    d.opts.has(OptGlobal),
		Typedef:   d.opts.has(OptTypedef),
		Precision: ref.Precision,
		Scale:     ref.Scale,
		Fill:      d.opts.has(OptFill),
		Loc:       loc,
	}
	it.Align, _ = d.alignment(loc)

	if n, ok := d.opts.num(OptLength); ok {
		it.Length = int(n)
	}
	if ref.StarLength || kind == sdl.KindCharStar {
		it.StarLength = true
		if !param {
			err = d.fault(sdl.Errorf(sdl.ErrInvalidUnknownLength, loc, name))
		}
	}

	if it.IsBitfield() {
		if n, ok := d.opts.num(OptLength); ok && n <= 0 {
			return nil, d.fault(sdl.Errorf(sdl.ErrZeroLength, loc, name))
		}
		if it.Length == 0 {
			it.Length = 1
		}
		if it.Length > layout.MaxHostBits {
			return nil, d.fault(sdl.Errorf(sdl.ErrZeroLength, loc, name))
		}
		if it.Kind.IsSizedBitfield() && it.Length > it.Kind.Size(d.mod.Target)*8 {
			return nil, d.fault(sdl.Errorf(sdl.ErrZeroLength, loc, name))
		}
		it.Mask = d.opts.has(OptMask)
		it.Signed = d.opts.has(OptSigned)
	}

	if ref.SubType != nil {
		sub, _, serr := d.resolve(loc, *ref.SubType)
		if serr != nil && err == nil {
			err = serr
		}
		it.SubType = sub
		if kind.IsAddress() {
			if aerr := d.checkBased(loc, name, sub); aerr != nil && err == nil {
				err = aerr
			}
		}
	}
	return it, err
}

// checkBased enforces that an address-family item targeting an aggregate
// names one that carries a based pointer.
func (d *Dispatcher) checkBased(loc sdl.Loc, name string, id sdl.TypeID) error {
	for {
		switch e := d.mod.Entity(id).(type) {
		case *sdl.Declare:
			id = e.Base
		case *sdl.Aggregate:
			if e.Based == "" {
				return d.fault(sdl.Errorf(sdl.ErrAddressObjectNotBased, loc, name, e.Name))
			}
			return nil
		default:
			return nil
		}
	}
}
