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

// Package opensdl compiles structure definition language source into a
// fully resolved module (computed byte and bit offsets, alignment padding,
// resolved tags, generated fillers, derived size and mask constants) and
// streams each resolved definition through per-language emitter backends.
//
// The package is the public surface; parsing, semantic dispatch, and
// layout live in internal packages. [Compile] drives a whole source text;
// backends implement [sdl.Backend] and receive definitions as they
// complete.
package opensdl

import (
	"github.com/sirupsen/logrus"

	"github.com/aaam/opensdl/internal/compiler"
	"github.com/aaam/opensdl/internal/parse"
	"github.com/aaam/opensdl/sdl"
)

// Version is the compiler release string reported by the CLI.
const Version = "1.0.0"

// Option is a configuration setting for [Compile].
type Option func(*config)

type config struct {
	target  sdl.Target
	langs   []compiler.Lang
	symbols map[string]int64
	logger  *logrus.Logger
}

// WithLanguage adds a target language backend. At least one language is
// required to produce output, but none are required to analyze.
func WithLanguage(name string, b sdl.Backend) Option {
	return func(c *config) { c.langs = append(c.langs, compiler.Lang{Name: name, Backend: b}) }
}

// WithSymbol binds a condition symbol consulted by if-symbol directives.
func WithSymbol(name string, value int64) Option {
	return func(c *config) { c.symbols[name] = value }
}

// WithAlign caps natural member alignment at n bytes. Zero (the default)
// selects packed layout.
func WithAlign(n int) Option {
	return func(c *config) { c.target.AlignClamp = n }
}

// With32BitAddresses selects 4-byte machine addresses. The default is
// 8-byte addresses.
func With32BitAddresses() Option {
	return func(c *config) { c.target.Addr64 = false }
}

// WithLogger routes compiler logging through an existing logger.
func WithLogger(l *logrus.Logger) Option {
	return func(c *config) { c.logger = l }
}

// Compile parses and resolves one SDL source text, emitting through any
// configured backends as definitions complete.
//
// Recoverable faults are recorded on the returned module; the error is
// non-nil only for fatal failures. The module is nil when the source never
// opened one.
func Compile(src string, options ...Option) (*sdl.Module, error) {
	c := config{
		target:  sdl.Target{Addr64: true},
		symbols: make(map[string]int64),
	}
	for _, opt := range options {
		if opt != nil {
			opt(&c)
		}
	}

	d := compiler.New(c.target, c.langs, c.logger, c.symbols)
	if err := parse.Run(src, d); err != nil {
		return d.Module(), err
	}
	return d.Module(), nil
}
