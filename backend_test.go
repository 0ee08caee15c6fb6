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

package opensdl_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaam/opensdl"
	"github.com/aaam/opensdl/sdl"
)

// record is a capturing backend: every callback appends one line.
type record struct {
	calls []string
	fail  error
}

func (r *record) add(format string, args ...any) error {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
	return r.fail
}

func (r *record) ModuleBegin(m *sdl.Module) error { return r.add("module %s", m.Name) }
func (r *record) ModuleEnd(m *sdl.Module) error   { return r.add("end module %s", m.Name) }
func (r *record) Item(it *sdl.Item) error         { return r.add("item %s", it.Name) }
func (r *record) Constant(c *sdl.Constant) error {
	return r.add("constant %s=%s", c.Name, c.Value.Format())
}
func (r *record) Enum(e *sdl.Enum) error               { return r.add("enum %s", e.Name) }
func (r *record) AggregateBegin(a *sdl.Aggregate) error { return r.add("aggregate %s", a.Name) }
func (r *record) AggregateEnd(a *sdl.Aggregate) error   { return r.add("end aggregate %s", a.Name) }
func (r *record) Member(a *sdl.Aggregate, m sdl.Member) error {
	switch m := m.(type) {
	case *sdl.Item:
		return r.add("member %s@%d", m.Name, m.Offset)
	case *sdl.Comment:
		return r.add("comment %s", m.Text)
	}
	return nil
}
func (r *record) Comment(c *sdl.Comment) error   { return r.add("comment %s", c.Text) }
func (r *record) LiteralLine(line string) error  { return r.add("literal %s", line) }
func (r *record) Entry(e *sdl.Entry) error       { return r.add("entry %s", e.Name) }

func TestBackendCallOrder(t *testing.T) {
	r := &record{}
	_, err := opensdl.Compile(`
		MODULE t;
		CONSTANT k EQUALS 3;
		AGGREGATE s STRUCTURE;
		  a BYTE;
		  /* between */
		  b WORD;
		END s;
		END_MODULE t;
	`, opensdl.WithLanguage("c", r))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"module t",
		"constant k=3",
		"aggregate s",
		"member a@0",
		"comment between",
		"member b@1",
		"end aggregate s",
		"constant s=3",
		"end module t",
	}, r.calls)
}

func TestSymbolConditionalsGateProcessing(t *testing.T) {
	src := `
		MODULE t;
		IFSYMBOL full;
		CONSTANT a EQUALS 1;
		ELSE;
		CONSTANT b EQUALS 2;
		END_IFSYMBOL;
		END_MODULE t;
	`

	mod, err := opensdl.Compile(src, opensdl.WithSymbol("full", 1))
	require.NoError(t, err)
	require.Len(t, mod.Constants, 1)
	assert.Equal(t, "a", mod.Constants[0].Name)

	mod, err = opensdl.Compile(src, opensdl.WithSymbol("full", 0))
	require.NoError(t, err)
	require.Len(t, mod.Constants, 1)
	assert.Equal(t, "b", mod.Constants[0].Name)
}

func TestUndefinedConditionSymbol(t *testing.T) {
	mod, err := opensdl.Compile(`
		MODULE t;
		IFSYMBOL missing;
		CONSTANT a EQUALS 1;
		END_IFSYMBOL;
		END_MODULE t;
	`)
	require.NoError(t, err)
	require.NotEmpty(t, mod.Faults)
	assert.Equal(t, "UNDEFSYM", mod.Faults[0].Kind.Ident())
	assert.Empty(t, mod.Constants, "undefined symbol disables the branch")
}

func TestLanguageConditionalsGateBackends(t *testing.T) {
	c, ada := &record{}, &record{}
	_, err := opensdl.Compile(`
		MODULE t;
		IFLANGUAGE c;
		CONSTANT conly EQUALS 1;
		ELSE;
		CONSTANT others EQUALS 2;
		END_IFLANGUAGE;
		CONSTANT both EQUALS 3;
		END_MODULE t;
	`,
		opensdl.WithLanguage("c", c),
		opensdl.WithLanguage("ada", ada),
	)
	require.NoError(t, err)

	assert.Contains(t, c.calls, "constant conly=1")
	assert.NotContains(t, c.calls, "constant others=2")
	assert.Contains(t, c.calls, "constant both=3")

	assert.NotContains(t, ada.calls, "constant conly=1")
	assert.Contains(t, ada.calls, "constant others=2")
	assert.Contains(t, ada.calls, "constant both=3")
}

func TestDuplicateLanguageInConditional(t *testing.T) {
	mod, err := opensdl.Compile(`
		MODULE t;
		IFLANGUAGE c, c;
		END_IFLANGUAGE;
		END_MODULE t;
	`, opensdl.WithLanguage("c", &record{}))
	require.NoError(t, err)
	require.NotEmpty(t, mod.Faults)
	assert.Equal(t, "DUPLANG", mod.Faults[0].Kind.Ident())
}

func TestLiteralPassthrough(t *testing.T) {
	r := &record{}
	_, err := opensdl.Compile(`
		MODULE t;
		LITERAL;
#include <stdio.h>
typedef int myint;
		END_LITERAL;
		END_MODULE t;
	`, opensdl.WithLanguage("c", r))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"module t",
		"literal #include <stdio.h>",
		"literal typedef int myint;",
		"end module t",
	}, r.calls)
}

func TestLiteralGatedBySymbolConditional(t *testing.T) {
	r := &record{}
	_, err := opensdl.Compile(`
		MODULE t;
		IFSYMBOL off;
		LITERAL;
never emitted
		END_LITERAL;
		END_IFSYMBOL;
		END_MODULE t;
	`, opensdl.WithLanguage("c", r), opensdl.WithSymbol("off", 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"module t", "end module t"}, r.calls)
}

func TestBackendErrorPropagates(t *testing.T) {
	r := &record{fail: errors.New("sink full")}
	_, err := opensdl.Compile(`
		MODULE t;
		CONSTANT k EQUALS 1;
		END_MODULE t;
	`, opensdl.WithLanguage("c", r))
	require.Error(t, err)
	assert.Equal(t, "sink full", err.Error())
}

func TestCommentsOutsideAggregateFlowThrough(t *testing.T) {
	r := &record{}
	_, err := opensdl.Compile(`
		MODULE t;
		/* top level note
		CONSTANT k EQUALS 1;
		END_MODULE t;
	`, opensdl.WithLanguage("c", r))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"module t",
		"comment top level note",
		"constant k=1",
		"end module t",
	}, r.calls)
}
