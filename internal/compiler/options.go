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

// OptKey identifies one recognized option.
type OptKey int

const (
	OptPrefix OptKey = iota
	OptTag
	OptBaseAlign
	OptAlign
	OptNoAlign
	OptDimension
	OptLength
	OptMask
	OptSigned
	OptCommon
	OptGlobal
	OptTypedef
	OptBased
	OptMarker
	OptOrigin
	OptCounter
	OptIncrement
	OptRadix
	OptEnumerate
	OptTypeName
	OptFill

	// Entry-level options.
	OptAlias
	OptLinkage
	OptVariable
	OptReturnsType
	OptReturnsNamed

	// Parameter options.
	OptNamed
	OptIn
	OptOut
	OptDefault
	OptOptional
	OptList
	OptValueMech
	OptRefMech
)

// Option is one accumulated (key, value) pair. Which payload field is
// meaningful depends on the key.
type Option struct {
	Key OptKey
	N   int64
	S   string
	Dim *sdl.Dimension
	Ref *TypeRef
	Val *sdl.Value
	Loc sdl.Loc
}

// optBuf is the dispatcher's growable pending-options array. It is filled
// while a statement's attributes are parsed and consumed when the entity
// completes.
type optBuf struct {
	opts []Option
}

func (b *optBuf) add(o Option) { b.opts = append(b.opts, o) }
func (b *optBuf) reset()       { b.opts = b.opts[:0] }
func (b *optBuf) len() int     { return len(b.opts) }

// view returns the options accumulated at or after index from, as a
// standalone buffer. Used to scope parameter options away from the
// enclosing entry's options.
func (b *optBuf) view(from int) optBuf {
	if from > len(b.opts) {
		from = len(b.opts)
	}
	return optBuf{opts: b.opts[from:]}
}

func (b *optBuf) truncate(n int) {
	if n <= len(b.opts) {
		b.opts = b.opts[:n]
	}
}
func (b *optBuf) has(k OptKey) bool {
	_, ok := b.get(k)
	return ok
}

// get returns the last option with key k; later options win.
func (b *optBuf) get(k OptKey) (Option, bool) {
	for i := len(b.opts) - 1; i >= 0; i-- {
		if b.opts[i].Key == k {
			return b.opts[i], true
		}
	}
	return Option{}, false
}

func (b *optBuf) str(k OptKey) string {
	o, _ := b.get(k)
	return o.S
}

func (b *optBuf) num(k OptKey) (int64, bool) {
	o, ok := b.get(k)
	return o.N, ok
}

// Option accumulates one pending option. Options normally precede the
// entity they attach to; the dispatcher keeps them buffered until that
// entity's directive arrives.
func (d *Dispatcher) Option(loc sdl.Loc, o Option) error {
	if !d.enabled() {
		return nil
	}
	o.Loc = loc
	d.opts.add(o)
	return nil
}

// alignment consumes the alignment options into an Alignment rule,
// validating that an explicit BaseAlign is a power of two.
func (d *Dispatcher) alignment(loc sdl.Loc) (sdl.Alignment, error) {
	var a sdl.Alignment
	if o, ok := d.opts.get(OptBaseAlign); ok {
		n := int(o.N)
		if n <= 0 || n&(n-1) != 0 {
			return a, d.fault(sdl.Errorf(sdl.ErrInvalidAlignment, loc, n))
		}
		a.Bytes = n
		return a, nil
	}
	if d.opts.has(OptAlign) {
		a.Natural = true
	} else if d.opts.has(OptNoAlign) {
		a.Packed = true
	}
	return a, nil
}

// dimension resolves the pending dimension option.
func (d *Dispatcher) dimension() *sdl.Dimension {
	if o, ok := d.opts.get(OptDimension); ok {
		return o.Dim
	}
	return nil
}
