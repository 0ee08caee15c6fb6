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

// Package layout assigns byte and bit offsets to aggregate members: it is
// the binary layout engine and the bitfield packer of the compiler. Offsets
// are assigned as members are appended; aggregate sizes are computed at
// close.
package layout

import (
	"fmt"

	"github.com/aaam/opensdl/sdl"
)

// hostWidths is the monotone bitfield promotion table, in bytes.
var hostWidths = [...]int{1, 2, 4, 8, 16}

// MaxHostBits is the widest bitfield host the packer supports.
const MaxHostBits = 128

// Engine lays out one module's aggregates. It is stateless across
// aggregates; all cursor state lives in the aggregate being populated.
type Engine struct {
	mod *sdl.Module
}

// New returns a layout engine for m.
func New(m *sdl.Module) *Engine {
	return &Engine{mod: m}
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}

// ElemSize returns the per-element storage of an item: natural size scaled
// by character length or decimal precision, with the length-prefix and
// sign-nibble adjustments. Bitfield members report their host width.
func (e *Engine) ElemSize(it *sdl.Item) int {
	switch {
	case it.IsBitfield():
		return it.HostSize
	case it.Kind.IsChar():
		n := it.Size * max(it.Length, 1)
		if it.Kind == sdl.KindCharVary {
			n += 2
		}
		return n
	case it.Kind == sdl.KindDecimal:
		return it.Size*max(it.Precision, 1) + 1
	default:
		return it.Size
	}
}

// RealSize returns the full storage of a member including its dimension.
func (e *Engine) RealSize(m sdl.Member) int {
	switch m := m.(type) {
	case *sdl.Item:
		return e.ElemSize(m) * int(m.Dim.Count())
	case *sdl.Aggregate:
		return m.Size * int(m.Dim.Count())
	default:
		return 0
	}
}

// memberAlign returns the effective alignment a member was laid out with.
func (e *Engine) memberAlign(m sdl.Member) int {
	t := e.mod.Target
	switch m := m.(type) {
	case *sdl.Item:
		if m.IsBitfield() {
			return m.Align.Of(m.HostSize, t)
		}
		return m.Align.Of(m.Kind.Align(t), t)
	case *sdl.Aggregate:
		return m.Align.Of(e.naturalAlign(m), t)
	default:
		return 1
	}
}

// naturalAlign returns an aggregate's own natural alignment: that of its
// first non-comment member.
func (e *Engine) naturalAlign(a *sdl.Aggregate) int {
	for _, m := range a.Members {
		if _, ok := m.(*sdl.Comment); ok {
			continue
		}
		return e.memberAlign(m)
	}
	return 1
}

// nextOffset returns the first free byte after the current members of a,
// sealing any open bitfield run first.
func (e *Engine) nextOffset(a *sdl.Aggregate) int {
	prev := a.LastData()
	if prev == nil {
		return 0
	}
	if it, ok := prev.(*sdl.Item); ok && it.IsBitfield() {
		e.sealRun(a)
		return it.Offset + it.HostSize
	}
	switch m := prev.(type) {
	case *sdl.Item:
		return m.Offset + e.RealSize(m)
	case *sdl.Aggregate:
		return m.Offset + e.RealSize(m)
	}
	return 0
}

// Append assigns the byte offset of a non-bitfield member and adds it to
// the aggregate. For unions every member sits at offset zero.
func (e *Engine) Append(a *sdl.Aggregate, m sdl.Member) {
	var off int
	if !a.IsUnion() {
		off = roundUp(e.nextOffset(a), e.memberAlign(m))
	}
	switch m := m.(type) {
	case *sdl.Item:
		m.Offset = off
	case *sdl.Aggregate:
		m.Offset = off
	}
	a.Members = append(a.Members, m)
}

// run returns the open bitfield run ending the member list of a: the index
// of its first member and the run itself, or (0, nil) when the last data
// member is not an unsealed bitfield.
func (e *Engine) run(a *sdl.Aggregate) (int, []*sdl.Item) {
	last := a.LastData()
	it, ok := last.(*sdl.Item)
	if !ok || !it.IsBitfield() || it.Fill {
		return 0, nil
	}

	// Walk back over the contiguous members of the same host integer.
	start := len(a.Members)
	for i := len(a.Members) - 1; i >= 0; i-- {
		m, ok := a.Members[i].(*sdl.Item)
		if !ok || !m.IsBitfield() || m.Fill || m.Offset != it.Offset {
			break
		}
		start = i
	}

	run := make([]*sdl.Item, 0, len(a.Members)-start)
	for _, m := range a.Members[start:] {
		run = append(run, m.(*sdl.Item))
	}
	return start, run
}

// sealRun closes the open bitfield run of a, synthesizing a filler member
// for unused tail bits unless the aggregate is a union.
func (e *Engine) sealRun(a *sdl.Aggregate) {
	_, run := e.run(a)
	if run == nil || a.IsUnion() {
		return
	}
	last := run[len(run)-1]
	used := last.BitOffset + last.Length
	total := last.HostSize * 8
	if used >= total {
		return
	}
	a.Members = append(a.Members, e.filler(a, last.Offset, last.HostSize, used, total-used))
}

// filler builds a synthesized bitfield member covering bits bit..bit+n of
// the host integer at the given byte offset.
func (e *Engine) filler(a *sdl.Aggregate, off, host, bit, n int) *sdl.Item {
	f := &sdl.Item{
		Name:      fmt.Sprintf("filler_%03d", a.FillerSeq),
		Kind:      sdl.KindBitfield,
		Type:      sdl.TypeID(sdl.KindBitfield),
		Size:      1,
		Length:    n,
		BitOffset: bit,
		HostSize:  host,
		Offset:    off,
		Fill:      true,
	}
	a.FillerSeq++
	return f
}

// AppendBits places a bitfield member: it either extends the open run,
// promotes an unsized run to a wider host, or seals the run and starts a
// new host integer.
func (e *Engine) AppendBits(a *sdl.Aggregate, it *sdl.Item) {
	if it.Kind.IsSizedBitfield() {
		it.SizedExplicit = true
		it.HostSize = it.Kind.Size(e.mod.Target)
	} else if it.HostSize == 0 {
		it.HostSize = 1
	}

	// Union members each occupy their own host at offset zero.
	if a.IsUnion() {
		it.Offset = 0
		it.BitOffset = 0
		if !it.SizedExplicit {
			it.HostSize = widthFor(it.Length)
		}
		a.Members = append(a.Members, it)
		return
	}

	_, run := e.run(a)
	if run != nil {
		prev := run[len(run)-1]
		used := prev.BitOffset + prev.Length
		remaining := prev.HostSize*8 - used

		// Extend the run when the new member fits and its host width is
		// compatible: unsized members adopt the run width, sized members
		// must match it exactly.
		fits := it.Length <= remaining
		compatible := !it.SizedExplicit || it.HostSize == prev.HostSize
		if fits && compatible && remaining > 0 {
			it.HostSize = prev.HostSize
			it.BitOffset = used
			it.Offset = prev.Offset
			a.Members = append(a.Members, it)
			return
		}

		// Adaptive promotion: an unsized member overflowing the unused
		// tail of an unsized run widens the whole run to the smallest
		// sufficient host. Bit offsets of placed members are preserved;
		// tail filler is deferred to seal time. A run with no tail left is
		// complete and is never promoted.
		if remaining > 0 && !it.SizedExplicit && unsized(run) {
			sum := it.Length
			for _, m := range run {
				sum += m.Length
			}
			if w := widthFor(sum); w > 0 {
				for _, m := range run {
					m.HostSize = w
				}
				it.HostSize = w
				it.BitOffset = used
				it.Offset = prev.Offset
				a.Members = append(a.Members, it)
				return
			}
		}

		e.sealRun(a)
	}

	// Start a new host integer at the next aligned byte offset.
	if !it.SizedExplicit && widthFor(it.Length) > it.HostSize {
		it.HostSize = widthFor(it.Length)
	}
	it.Offset = roundUp(e.nextOffset(a), it.Align.Of(it.HostSize, e.mod.Target))
	it.BitOffset = 0
	a.Members = append(a.Members, it)
}

// unsized reports whether every member of a run leaves its host width to
// the packer.
func unsized(run []*sdl.Item) bool {
	for _, m := range run {
		if m.SizedExplicit {
			return false
		}
	}
	return true
}

// widthFor returns the smallest host width in bytes that holds n bits, or
// 0 when n exceeds the widest host.
func widthFor(n int) int {
	for _, w := range hostWidths {
		if n <= w*8 {
			return w
		}
	}
	return 0
}

// Close finalizes the layout of a: seals the last bitfield run, computes
// the aggregate's total size, applies the implicit-union scalar floor, and
// re-aligns a nested structure's own offset. Returns ErrNullStructure for
// an aggregate with no data members.
func (e *Engine) Close(a *sdl.Aggregate) error {
	if a.LastData() == nil {
		a.Size = 0
		return sdl.Errorf(sdl.ErrNullStructure, a.Loc, a.Name)
	}

	if !a.IsUnion() {
		e.sealRun(a)
	}

	if a.IsUnion() {
		e.closeUnion(a)
	} else {
		last := a.LastData()
		var end int
		switch m := last.(type) {
		case *sdl.Item:
			end = m.Offset + e.RealSize(m)
		case *sdl.Aggregate:
			end = m.Offset + e.RealSize(m)
		}
		a.Size = end
	}

	// Round the size up per the aggregate's alignment rule, so arrays of
	// the aggregate keep every element aligned.
	if align := a.Align.Of(e.maxMemberAlign(a), e.mod.Target); align > 1 {
		a.Size = roundUp(a.Size, align)
	}

	// A closing subaggregate re-aligns its own offset so its first member
	// sits at its natural alignment (or the declared one).
	if a.Parent != nil && !a.Parent.IsUnion() {
		a.Offset = roundUp(a.Offset, a.Align.Of(e.naturalAlign(a), e.mod.Target))
	}
	return nil
}

// closeUnion sizes a union: the maximum member storage, floored by the
// implicit-union scalar when present, with a trailing filler covering the
// difference in bits.
func (e *Engine) closeUnion(a *sdl.Aggregate) {
	var size, usedBits int
	for _, m := range a.Members {
		if _, ok := m.(*sdl.Comment); ok {
			continue
		}
		size = max(size, e.RealSize(m))
		if it, ok := m.(*sdl.Item); ok && it.IsBitfield() {
			usedBits = max(usedBits, it.BitOffset+it.Length)
		} else {
			usedBits = max(usedBits, e.RealSize(m)*8)
		}
	}

	if a.Kind == sdl.AggImplicitUnion {
		floor := a.FloorKind.Size(e.mod.Target)
		if floor > size || floor*8 > usedBits {
			if n := floor*8 - usedBits; n > 0 {
				a.Members = append(a.Members, e.filler(a, 0, floor, usedBits, n))
			}
			size = max(size, floor)
		}
	}
	a.Size = size
}

// maxMemberAlign returns the widest effective alignment among the data
// members of a.
func (e *Engine) maxMemberAlign(a *sdl.Aggregate) int {
	align := 1
	for _, m := range a.Members {
		if _, ok := m.(*sdl.Comment); ok {
			continue
		}
		align = max(align, e.memberAlign(m))
	}
	return align
}
