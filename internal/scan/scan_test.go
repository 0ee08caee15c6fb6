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

package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaam/opensdl/sdl"
)

func tokens(t *testing.T, src string) []Token {
	t.Helper()
	s := New(src)
	var toks []Token
	for {
		tok := s.Next()
		if tok.Kind == EOF {
			return toks
		}
		toks = append(toks, tok)
	}
}

func TestNamesAndPunctuation(t *testing.T) {
	toks := tokens(t, "MODULE my$mod_1 ; #cnt")
	require.Len(t, toks, 4)
	assert.Equal(t, Name, toks[0].Kind)
	assert.Equal(t, "MODULE", toks[0].Text)
	assert.Equal(t, "my$mod_1", toks[1].Text)
	assert.Equal(t, byte(';'), toks[2].Punct)
	assert.Equal(t, "#cnt", toks[3].Text)
}

func TestRadixedLiterals(t *testing.T) {
	cases := []struct {
		src   string
		val   int64
		radix sdl.Radix
	}{
		{"255", 255, sdl.RadixDec},
		{"%XFF", 255, sdl.RadixHex},
		{"%xff", 255, sdl.RadixHex},
		{"%O17", 15, sdl.RadixOct},
		{"%B1010", 10, sdl.RadixBin},
		{"%AA", 65, sdl.RadixDec},
	}
	for _, tc := range cases {
		toks := tokens(t, tc.src)
		require.Len(t, toks, 1, tc.src)
		assert.Equal(t, Int, toks[0].Kind, tc.src)
		assert.Equal(t, tc.val, toks[0].Int, tc.src)
		assert.Equal(t, tc.radix, toks[0].Radix, tc.src)
	}
}

func TestStrings(t *testing.T) {
	toks := tokens(t, `"hello world"`)
	require.Len(t, toks, 1)
	assert.Equal(t, String, toks[0].Kind)
	assert.Equal(t, "hello world", toks[0].Text)
}

func TestUnterminatedStringFails(t *testing.T) {
	s := New(`"oops`)
	tok := s.Next()
	assert.Equal(t, EOF, tok.Kind)
	require.NotNil(t, s.Err())
	assert.Equal(t, sdl.ErrSyntax, s.Err().Kind)
}

func TestComments(t *testing.T) {
	toks := tokens(t, "a /* trailing\n/* own line\nb { braced } c")
	require.Len(t, toks, 6)

	assert.Equal(t, "trailing", toks[1].Text)
	assert.False(t, toks[1].OwnLine)

	assert.Equal(t, "own line", toks[2].Text)
	assert.True(t, toks[2].OwnLine)

	assert.Equal(t, "b", toks[3].Text)
	assert.Equal(t, "braced", toks[4].Text)
	assert.Equal(t, "c", toks[5].Text)
}

func TestClosedSlashStarComment(t *testing.T) {
	toks := tokens(t, "a /* mid */ b")
	require.Len(t, toks, 3)
	assert.Equal(t, Comment, toks[1].Kind)
	assert.Equal(t, "mid", toks[1].Text)
	assert.Equal(t, "b", toks[2].Text)
}

func TestLocations(t *testing.T) {
	s := New("a\n  b")
	a := s.Next()
	assert.Equal(t, 1, a.Loc.FirstLine)
	assert.Equal(t, 1, a.Loc.FirstCol)
	b := s.Next()
	assert.Equal(t, 2, b.Loc.FirstLine)
	assert.Equal(t, 3, b.Loc.FirstCol)
}

func TestRawLine(t *testing.T) {
	s := New("first;\n  raw line  \nlast")
	s.Next() // first
	s.Next() // ;
	assert.Equal(t, "", s.RawLine())
	assert.Equal(t, "  raw line  ", s.RawLine())
	assert.False(t, s.AtEOF())
	assert.Equal(t, "last", s.RawLine())
	assert.True(t, s.AtEOF())
}
