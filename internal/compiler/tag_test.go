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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaam/opensdl/sdl"
)

func testDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	d := New(sdl.Target{Addr64: true}, nil, nil, nil)
	require.NoError(t, d.ModuleBegin(sdl.Loc{}, "T", ""))
	return d
}

func TestTagExplicitTrimsUnderscores(t *testing.T) {
	d := testDispatcher(t)
	assert.Equal(t, "XY", d.resolveTag("XY__", sdl.TypeID(sdl.KindByte), "NAME"))
}

func TestTagScalarDefaults(t *testing.T) {
	d := testDispatcher(t)
	assert.Equal(t, "B", d.resolveTag("", sdl.TypeID(sdl.KindByte), "N"))
	assert.Equal(t, "W", d.resolveTag("", sdl.TypeID(sdl.KindWord), "N"))
	assert.Equal(t, "PS", d.resolveTag("", sdl.TypeID(sdl.KindPtr), "N"))
	assert.Equal(t, "C", d.resolveTag("", sdl.TypeID(sdl.KindChar), "N"))
	assert.Equal(t, "V", d.resolveTag("", sdl.TypeID(sdl.KindBitfield), "N"))
	assert.Equal(t, "", d.resolveTag("", sdl.TypeID(sdl.KindAny), "N"))
}

func TestTagChainsThroughDeclares(t *testing.T) {
	d := testDispatcher(t)

	// untagged -> word: falls through to the scalar default.
	require.NoError(t, d.Declare(sdl.Loc{}, "PLAIN", KindRef(sdl.KindWord), 0))
	id, _ := d.Module().Lookup("PLAIN")
	got := d.resolveTag("", id, "N")
	assert.Equal(t, "W", got)

	// A tagged declare wins over its base.
	d.Option(sdl.Loc{}, Option{Key: OptTag, S: "ZZ"})
	require.NoError(t, d.Declare(sdl.Loc{}, "TAGGED", KindRef(sdl.KindWord), 0))
	id, _ = d.Module().Lookup("TAGGED")
	assert.Equal(t, "ZZ", d.resolveTag("", id, "N"))

	// A chain through an untagged declare reaches the tagged one.
	require.NoError(t, d.Declare(sdl.Loc{}, "CHAIN", NameRef("TAGGED"), 0))
	id, _ = d.Module().Lookup("CHAIN")
	assert.Equal(t, "ZZ", d.resolveTag("", id, "N"))
}

func TestTagLowercasedForLowercaseHost(t *testing.T) {
	d := testDispatcher(t)
	assert.Equal(t, "b", d.resolveTag("", sdl.TypeID(sdl.KindByte), "name"))
	assert.Equal(t, "B", d.resolveTag("", sdl.TypeID(sdl.KindByte), "Name"))
}

func TestBaseKindChasesUserTypes(t *testing.T) {
	d := testDispatcher(t)
	require.NoError(t, d.Declare(sdl.Loc{}, "A", KindRef(sdl.KindQuad), 0))
	require.NoError(t, d.Declare(sdl.Loc{}, "B", NameRef("A"), 0))
	require.NoError(t, d.Declare(sdl.Loc{}, "C", NameRef("B"), 0))

	id, ok := d.Module().Lookup("C")
	require.True(t, ok)
	assert.Equal(t, sdl.KindQuad, d.baseKind(id))
	assert.Equal(t, 8, d.Module().SizeOf(id))
}
