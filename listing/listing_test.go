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

package listing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaam/opensdl/sdl"
)

func TestSourceEchoWithLineNumbers(t *testing.T) {
	var sb strings.Builder
	err := New("t", "t.sdl").Render(&sb, "MODULE t;\nCONSTANT k EQUALS 1;\n", nil)
	require.NoError(t, err)

	out := sb.String()
	assert.Contains(t, out, "     1  MODULE t;")
	assert.Contains(t, out, "     2  CONSTANT k EQUALS 1;")
	assert.Contains(t, out, "t  t.sdl")
	assert.Contains(t, out, "Page 1")
}

func TestErrorAttachedAfterLine(t *testing.T) {
	var sb strings.Builder
	faults := []*sdl.Error{
		sdl.Errorf(sdl.ErrNullStructure, sdl.Loc{FirstLine: 2}, "s"),
		sdl.Errorf(sdl.ErrMatchEndName, sdl.Loc{FirstLine: 2}, "a", "b"),
	}
	err := New("t", "t.sdl").Render(&sb, "line one\nline two\nline three\n", faults)
	require.NoError(t, err)

	lines := strings.Split(sb.String(), "\n")
	var idx int
	for i, l := range lines {
		if strings.Contains(l, "line two") {
			idx = i
			break
		}
	}
	require.NotZero(t, idx)

	// Exactly one message follows the erroneous line.
	assert.Contains(t, lines[idx+1], "NULLSTRUCT")
	assert.Contains(t, lines[idx+2], "line three")
}

func TestPageHeaderRepeats(t *testing.T) {
	var sb strings.Builder
	src := strings.Repeat("a statement;\n", 150)
	err := New("mod", "mod.sdl").Render(&sb, src, nil)
	require.NoError(t, err)

	out := sb.String()
	assert.Contains(t, out, "Page 1")
	assert.Contains(t, out, "Page 2")
	assert.Contains(t, out, "Page 3")

	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, len(line), 132)
	}
}
