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

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaam/opensdl/sdl"
)

const cleanSource = `
MODULE t;
CONSTANT k EQUALS 1;
END_MODULE t;
`

// faultySource records a recoverable NullStructure fault but still
// compiles to completion.
const faultySource = `
MODULE t;
AGGREGATE s STRUCTURE;
END s;
END_MODULE t;
`

func writeSource(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.sdl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newCommand()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func errKind(t *testing.T, err error) sdl.ErrKind {
	t.Helper()
	require.Error(t, err)
	e, ok := err.(*sdl.Error)
	require.True(t, ok, "expected *sdl.Error, got %T", err)
	return e.Kind
}

func TestCheckWithFaultsExitsNonzero(t *testing.T) {
	input := writeSource(t, faultySource)
	err := execute(t, "--check", "--lang=c", input)
	assert.Equal(t, sdl.ErrExit, errKind(t, err))

	// Check mode writes nothing.
	_, statErr := os.Stat(filepath.Join(filepath.Dir(input), "in.h"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCheckCleanSourceSucceeds(t *testing.T) {
	input := writeSource(t, cleanSource)
	require.NoError(t, execute(t, "--check", "--lang=c", input))

	_, statErr := os.Stat(filepath.Join(filepath.Dir(input), "in.h"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFaultsWithoutCheckStillWriteOutput(t *testing.T) {
	input := writeSource(t, faultySource)
	require.NoError(t, execute(t, "--lang=c", input))

	out, err := os.ReadFile(filepath.Join(filepath.Dir(input), "in.h"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "#define s_s 0")
}

func TestNoCheckOverridesCheck(t *testing.T) {
	input := writeSource(t, faultySource)
	require.NoError(t, execute(t, "--check", "--nocheck", "--lang=c", input))

	_, statErr := os.Stat(filepath.Join(filepath.Dir(input), "in.h"))
	assert.NoError(t, statErr)
}

func TestNegatedQualifiersAccepted(t *testing.T) {
	input := writeSource(t, cleanSource)
	require.NoError(t, execute(t,
		"--nocomments", "--nocopy", "--noheader", "--nomember", "--nosuppress",
		"--lang=c", input))

	out, err := os.ReadFile(filepath.Join(filepath.Dir(input), "in.h"))
	require.NoError(t, err)

	// Header guards default on; --noheader turns them off.
	assert.NotContains(t, string(out), "#ifndef")
	assert.Contains(t, string(out), "#define k_k 1")
}

func TestSuppressDefaultsToBoth(t *testing.T) {
	input := writeSource(t, cleanSource)
	require.NoError(t, execute(t, "--suppress", "--noheader", "--lang=c", input))

	out, err := os.ReadFile(filepath.Join(filepath.Dir(input), "in.h"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "#define k 1")
}
