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

// ParamBegin marks the start of one parameter's options, scoping them away
// from the enclosing entry's own options.
func (d *Dispatcher) ParamBegin() {
	d.paramMark = d.opts.len()
}

// Parameter accumulates one formal parameter of the entry being declared.
// Options added since ParamBegin describe the parameter and are consumed
// here; the parameter buffer drains when the entry completes. `character *`
// lengths are legal only in this position.
func (d *Dispatcher) Parameter(loc sdl.Loc, name string, ref TypeRef) error {
	if d.mod == nil {
		return d.fault(sdl.Errorf(sdl.ErrInvalidState, loc, "parameter"))
	}
	opts := d.opts.view(d.paramMark)
	defer d.opts.truncate(d.paramMark)
	if !d.enabled() {
		return nil
	}

	id, kind, err := d.resolve(loc, ref)
	if err != nil {
		return err
	}

	p := &sdl.Parameter{
		Name:       name,
		Type:       id,
		Kind:       kind,
		In:         opts.has(OptIn),
		Out:        opts.has(OptOut),
		TypeName:   opts.str(OptTypeName),
		Optional:   opts.has(OptOptional),
		List:       opts.has(OptList),
		StarLength: ref.StarLength || kind == sdl.KindCharStar,
	}
	if o, ok := opts.get(OptDimension); ok {
		p.Dim = o.Dim
	}
	if o, ok := opts.get(OptNamed); ok {
		p.Name = o.S
	}
	if n, ok := opts.num(OptLength); ok {
		p.Length = int(n)
	}
	if o, ok := opts.get(OptDefault); ok {
		p.Default = o.Val
	}
	// Every parameter passes by reference unless VALUE is given.
	if opts.has(OptValueMech) {
		p.Mechanism = sdl.ByValue
	} else {
		p.Mechanism = sdl.ByReference
	}

	d.params = append(d.params, p)
	return nil
}

// Entry completes a function or procedure signature from the pending
// options and the accumulated parameter buffer, and releases it to the
// backends.
func (d *Dispatcher) Entry(loc sdl.Loc, name string) error {
	if d.mod == nil {
		return d.fault(sdl.Errorf(sdl.ErrInvalidState, loc, "entry"))
	}
	if !d.enabled() {
		d.opts.reset()
		d.params = nil
		return nil
	}
	defer func() {
		d.opts.reset()
		d.params = nil
	}()

	e := &sdl.Entry{
		Name:     name,
		Alias:    d.opts.str(OptAlias),
		Linkage:  d.opts.str(OptLinkage),
		TypeName: d.opts.str(OptTypeName),
		Variable: d.opts.has(OptVariable),
		Params:   d.params,
		Loc:      loc,
	}

	var err error
	if o, ok := d.opts.get(OptReturnsType); ok && o.Ref != nil {
		id, kind, rerr := d.resolve(loc, *o.Ref)
		if rerr != nil {
			err = rerr
		}
		e.Returns = &sdl.Return{
			Type:   id,
			Kind:   kind,
			Signed: kind.SignedByDefault(),
			Named:  d.opts.str(OptReturnsNamed),
		}
	}

	d.mod.AddEntry(e)
	d.trace("entry", "%s/%d", name, len(e.Params))
	if emitErr := d.emit(func(b sdl.Backend) error { return b.Entry(e) }); emitErr != nil && err == nil {
		err = emitErr
	}
	return err
}
