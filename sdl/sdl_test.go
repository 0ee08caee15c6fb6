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

package sdl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarSizes(t *testing.T) {
	t64 := Target{Addr64: true}
	t32 := Target{}

	assert.Equal(t, 1, KindByte.Size(t64))
	assert.Equal(t, 2, KindWord.Size(t64))
	assert.Equal(t, 4, KindLong.Size(t64))
	assert.Equal(t, 8, KindQuad.Size(t64))
	assert.Equal(t, 16, KindOcta.Size(t64))

	// Machine-word addresses track the target.
	assert.Equal(t, 8, KindAddr.Size(t64))
	assert.Equal(t, 4, KindAddr.Size(t32))
	assert.Equal(t, 4, KindAddrL.Size(t64))
	assert.Equal(t, 8, KindAddrQ.Size(t32))

	// Complex floats double their scalar storage.
	assert.Equal(t, 8, KindSFloatComplex.Size(t64))
	assert.Equal(t, 16, KindTFloatComplex.Size(t64))
}

func TestScalarClassification(t *testing.T) {
	assert.True(t, KindBitfield.IsBitfield())
	assert.True(t, KindBitfieldO.IsBitfield())
	assert.False(t, KindBitfield.IsSizedBitfield())
	assert.True(t, KindBitfieldW.IsSizedBitfield())

	assert.True(t, KindAddr.IsAddress())
	assert.True(t, KindPtrHW.IsAddress())
	assert.False(t, KindChar.IsAddress())

	assert.True(t, KindCharVary.IsChar())
	assert.False(t, KindByte.IsChar())
}

func TestTypeIDRanges(t *testing.T) {
	assert.True(t, TypeID(KindByte).IsKind())
	assert.Equal(t, KindByte, TypeID(KindByte).Kind())

	assert.True(t, DeclareMin.IsDeclare())
	assert.True(t, ItemMin.IsItem())
	assert.True(t, AggregateMin.IsAggregate())
	assert.True(t, EnumMin.IsEnum())

	// Namespaces never overlap.
	assert.False(t, DeclareMax.IsItem())
	assert.False(t, ItemMax.IsAggregate())
	assert.False(t, AggregateMax.IsEnum())
}

func TestModuleIssuesMonotoneIDs(t *testing.T) {
	m := NewModule("t", "", Target{})
	a := m.AddDeclare(&Declare{Name: "a"})
	b := m.AddDeclare(&Declare{Name: "b"})
	assert.Equal(t, a+1, b)

	i := m.AddItem(&Item{Name: "a"}) // Same name, different namespace.
	assert.True(t, i.IsItem())

	id, ok := m.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, a, id, "declares shadow items on lookup")
}

func TestAlignmentRules(t *testing.T) {
	clamped := Target{AlignClamp: 4}
	packed := Target{}

	assert.Equal(t, 1, Alignment{}.Of(8, packed))
	assert.Equal(t, 4, Alignment{}.Of(8, clamped))
	assert.Equal(t, 2, Alignment{}.Of(2, clamped))
	assert.Equal(t, 8, Alignment{Natural: true}.Of(8, clamped))
	assert.Equal(t, 16, Alignment{Bytes: 16}.Of(2, clamped))
	assert.Equal(t, 1, Alignment{Packed: true}.Of(8, clamped))
}

func TestValueFormat(t *testing.T) {
	assert.Equal(t, "42", IntValue(42, RadixDec).Format())
	assert.Equal(t, "-7", IntValue(-7, RadixDec).Format())
	assert.Equal(t, "0x2A", IntValue(42, RadixHex).Format())
	assert.Equal(t, "052", IntValue(42, RadixOct).Format())
	assert.Equal(t, "0b101010", IntValue(42, RadixBin).Format())
	assert.Equal(t, `"hi"`, StringValue("hi").Format())

	// The display size widens hex literals.
	wide := Value{Int: 0x38, Radix: RadixHex, Size: 2}
	assert.Equal(t, "0x0038", wide.Format())
}

func TestErrorRendering(t *testing.T) {
	e := Errorf(ErrMatchEndName, Loc{FirstLine: 12}, "wrong", "right")
	msg := e.Error()
	assert.Contains(t, msg, "%OPENSDL-E-MATCHEND")
	assert.Contains(t, msg, "wrong")
	assert.Contains(t, msg, "right")
	assert.Contains(t, msg, "line 12")

	e.Context = []string{"outer", "inner"}
	assert.Contains(t, e.Error(), "in aggregate outer.inner")
}

func TestErrorSeverity(t *testing.T) {
	assert.False(t, Errorf(ErrNullStructure, Loc{}, "s").Fatal())
	assert.True(t, Errorf(ErrAbort, Loc{}, "oom").Fatal())
	assert.Contains(t, Errorf(ErrAbort, Loc{}, "oom").Error(), "%OPENSDL-F-ABORT")
}

func TestDimensionCount(t *testing.T) {
	var d *Dimension
	assert.EqualValues(t, 1, d.Count())
	assert.EqualValues(t, 10, (&Dimension{Lo: 0, Hi: 9}).Count())
	assert.EqualValues(t, 4, (&Dimension{Lo: 1, Hi: 4}).Count())
}

func TestAggregatePath(t *testing.T) {
	outer := &Aggregate{Name: "outer"}
	inner := &Aggregate{Name: "inner", Parent: outer}
	assert.Equal(t, []string{"outer", "inner"}, inner.Path())
}
