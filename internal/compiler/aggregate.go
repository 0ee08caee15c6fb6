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

// AggregateBegin opens an aggregate or, inside one, a subaggregate member.
// A scalar type in place of the struct/union keyword coerces the aggregate
// into an implicit union floored at that scalar's size.
func (d *Dispatcher) AggregateBegin(loc sdl.Loc, name string, ref TypeRef) error {
	if d.mod == nil {
		return d.fault(sdl.Errorf(sdl.ErrInvalidState, loc, "aggregate"))
	}
	if !d.enabled() {
		d.opts.reset()
		return nil
	}
	defer d.opts.reset()

	a := &sdl.Aggregate{
		Name:       name,
		Prefix:     d.opts.str(OptPrefix),
		Marker:     d.opts.str(OptMarker),
		Based:      d.opts.str(OptBased),
		OriginName: d.opts.str(OptOrigin),
		Dim:        d.dimension(),
		Common:     d.opts.has(OptCommon),
		Global:     d.opts.has(OptGlobal),
		Typedef:    d.opts.has(OptTypedef),
		Loc:        loc,
	}
	a.Align, _ = d.alignment(loc)

	switch {
	case ref.Kind == sdl.KindStructure:
		a.Kind = sdl.AggStruct
	case ref.Kind == sdl.KindUnion:
		a.Kind = sdl.AggUnion
	default:
		// A scalar where struct/union was expected.
		a.Kind = sdl.AggImplicitUnion
		a.FloorKind = ref.Kind
	}

	var err error
	if d.cur != nil {
		a.Parent = d.cur
		a.Depth = d.cur.Depth + 1
		a.Tag = d.resolveTag(d.opts.str(OptTag), sdl.TypeID(sdl.KindStructure), name)
		d.lay.Append(d.cur, a)
	} else {
		d.mod.AddAggregate(a)
		a.Tag = d.resolveTag(d.opts.str(OptTag), a.ID, name)
	}
	d.cur = a
	d.prev = nil
	d.trace("aggregate", "%s %v begin", name, a.Kind)
	return err
}

// AggregateEnd closes the innermost aggregate: the layout engine seals and
// sizes it. When a top-level aggregate completes, the definition and its
// derived size and mask constants are released to the backends.
func (d *Dispatcher) AggregateEnd(loc sdl.Loc, name string) error {
	if d.mod == nil {
		return d.fault(sdl.Errorf(sdl.ErrInvalidState, loc, "end"))
	}
	if !d.enabled() {
		return nil
	}
	if d.cur == nil {
		return d.fault(sdl.Errorf(sdl.ErrMatchEndName, loc, name, "<none>"))
	}
	defer d.opts.reset()

	a := d.cur
	var err error
	if name != "" && name != a.Name {
		err = d.fault(sdl.Errorf(sdl.ErrMatchEndName, loc, name, a.Name))
	}

	if cerr := d.lay.Close(a); cerr != nil {
		if err == nil {
			err = cerr
		}
		d.fault(cerr.(*sdl.Error))
	}

	d.cur = a.Parent
	d.prev = a
	d.trace("aggregate", "%s end, size %d", a.Name, a.Size)
	if d.cur != nil {
		return err
	}

	// Definition complete: emit the aggregate tree, then its derived
	// constants.
	if e := d.emitAggregate(a); e != nil && err == nil {
		err = e
	}
	if e := d.emitDerived(a); e != nil && err == nil {
		err = e
	}
	return err
}

// emitAggregate walks a resolved aggregate, delivering it structurally to
// the backends.
func (d *Dispatcher) emitAggregate(a *sdl.Aggregate) error {
	if err := d.emit(func(b sdl.Backend) error { return b.AggregateBegin(a) }); err != nil {
		return err
	}
	for _, m := range a.Members {
		var err error
		switch m := m.(type) {
		case *sdl.Aggregate:
			err = d.emitAggregate(m)
		default:
			err = d.emit(func(b sdl.Backend) error { return b.Member(a, m) })
		}
		if err != nil {
			return err
		}
	}
	return d.emit(func(b sdl.Backend) error { return b.AggregateEnd(a) })
}

// emitDerived emits the aggregate's size constant and, for each bitfield
// member, its size constant and requested mask constant.
func (d *Dispatcher) emitDerived(a *sdl.Aggregate) error {
	size := &sdl.Constant{
		Name:   a.Name,
		Prefix: a.Prefix,
		Tag:    caseTag("S", a.Name),
		Value:  sdl.IntValue(int64(a.Size), sdl.RadixDec),
		Loc:    a.Loc,
	}
	if err := d.emit(func(b sdl.Backend) error { return b.Constant(size) }); err != nil {
		return err
	}
	d.mod.AddConstant(size)
	return d.emitBitConstants(a)
}

func (d *Dispatcher) emitBitConstants(a *sdl.Aggregate) error {
	for _, m := range a.Members {
		switch m := m.(type) {
		case *sdl.Aggregate:
			if err := d.emitBitConstants(m); err != nil {
				return err
			}
		case *sdl.Item:
			if !m.IsBitfield() || m.Fill {
				continue
			}
			size := &sdl.Constant{
				Name:   m.Name,
				Prefix: m.Prefix,
				Tag:    caseTag("S", m.Name),
				Value:  sdl.IntValue(int64(m.Length), sdl.RadixDec),
				Loc:    m.Loc,
			}
			d.mod.AddConstant(size)
			if err := d.emit(func(b sdl.Backend) error { return b.Constant(size) }); err != nil {
				return err
			}
			if !m.Mask {
				continue
			}
			mask := &sdl.Constant{
				Name:   m.Name,
				Prefix: m.Prefix,
				Tag:    caseTag("M", m.Name),
				Value:  sdl.Value{Int: maskValue(m.Length, m.BitOffset), Radix: sdl.RadixHex, Size: m.HostSize},
				Loc:    m.Loc,
			}
			d.mod.AddConstant(mask)
			if err := d.emit(func(b sdl.Backend) error { return b.Constant(mask) }); err != nil {
				return err
			}
		}
	}
	return nil
}

// maskValue computes ((2^length) - 1) << offset without overflowing on a
// full 64-bit field.
func maskValue(length, offset int) int64 {
	var m uint64
	if length >= 64 {
		m = ^uint64(0)
	} else {
		m = (uint64(1) << length) - 1
	}
	return int64(m << offset)
}
