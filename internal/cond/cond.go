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

// Package cond implements the conditional-compilation state machine that
// gates every dispatcher action: a stack of symbol conditionals deciding
// whether directives are processed at all, interleaved with language
// conditionals deciding which backends see them.
package cond

import "github.com/aaam/opensdl/sdl"

// state is the position within one conditional block.
type state int

const (
	stIf state = iota
	stElseIf
	stElse
	stIfLang
)

// frame is one open conditional. Symbol frames carry the processing gate;
// language frames carry the enable vector they will restore on end.
type frame struct {
	state state
	lang  bool

	// Symbol frames.
	live   bool // This branch is enabled.
	parent bool // Processing was enabled when the frame was pushed.
	taken  bool // Some branch of this block already ran.

	// Language frames.
	saved []bool // Enable vector to restore at end-language.
	named []int  // Languages the if-language listed.
}

// Machine tracks both conditional stacks. It is dispatcher-private state;
// the dispatcher consults Enabled before every action and LangEnabled
// before every backend call.
type Machine struct {
	stack []frame
	langs []bool // Current per-language enable vector.
}

// New returns a machine for n target languages, all enabled.
func New(n int) *Machine {
	m := &Machine{langs: make([]bool, n)}
	for i := range m.langs {
		m.langs[i] = true
	}
	return m
}

// Enabled reports whether directive processing is currently on: every open
// symbol conditional must be sitting in a live branch.
func (m *Machine) Enabled() bool {
	for _, f := range m.stack {
		if !f.lang && !f.live {
			return false
		}
	}
	return true
}

// LangEnabled reports whether backend i should be called.
func (m *Machine) LangEnabled(i int) bool {
	return i >= 0 && i < len(m.langs) && m.langs[i]
}

// Depth returns the number of open conditionals.
func (m *Machine) Depth() int { return len(m.stack) }

func (m *Machine) top() *frame {
	if len(m.stack) == 0 {
		return nil
	}
	return &m.stack[len(m.stack)-1]
}

func invalid(loc sdl.Loc, directive string) error {
	return sdl.Errorf(sdl.ErrInvalidConditionalState, loc, directive)
}

// IfSymbol opens a symbol conditional whose first branch is enabled when
// cond is true. Legal anywhere.
func (m *Machine) IfSymbol(loc sdl.Loc, cond bool) error {
	parent := m.Enabled()
	m.stack = append(m.stack, frame{
		state:  stIf,
		live:   parent && cond,
		parent: parent,
		taken:  cond,
	})
	return nil
}

// ElseIfSymbol moves the innermost symbol conditional to its next branch.
func (m *Machine) ElseIfSymbol(loc sdl.Loc, cond bool) error {
	f := m.top()
	if f == nil || f.lang || f.state != stIf {
		return invalid(loc, "else-if-symbol")
	}
	f.state = stElseIf
	f.live = f.parent && cond && !f.taken
	f.taken = f.taken || cond
	return nil
}

// Else moves the innermost conditional to its else branch. On a symbol
// frame the branch runs iff no earlier branch did; on a language frame the
// listed languages are complemented.
func (m *Machine) Else(loc sdl.Loc) error {
	f := m.top()
	if f == nil || f.state == stElse {
		return invalid(loc, "else")
	}
	if f.lang {
		if f.state != stIfLang {
			return invalid(loc, "else")
		}
		f.state = stElse
		for i := range m.langs {
			m.langs[i] = f.saved[i] && !m.langs[i]
		}
		return nil
	}
	f.state = stElse
	f.live = f.parent && !f.taken
	f.taken = true
	return nil
}

// EndIfSymbol closes the innermost symbol conditional.
func (m *Machine) EndIfSymbol(loc sdl.Loc) error {
	f := m.top()
	if f == nil || f.lang {
		return invalid(loc, "end-if-symbol")
	}
	m.stack = m.stack[:len(m.stack)-1]
	return nil
}

// IfLanguage opens a language conditional enabling only the listed backend
// indices. Legal anywhere, including inside symbol conditionals.
func (m *Machine) IfLanguage(loc sdl.Loc, which []int) error {
	saved := make([]bool, len(m.langs))
	copy(saved, m.langs)
	for i := range m.langs {
		m.langs[i] = false
	}
	for _, i := range which {
		if i >= 0 && i < len(m.langs) {
			m.langs[i] = saved[i]
		}
	}
	m.stack = append(m.stack, frame{state: stIfLang, lang: true, saved: saved, named: which})
	return nil
}

// EndIfLanguage closes the innermost language conditional, restoring the
// enable vector.
func (m *Machine) EndIfLanguage(loc sdl.Loc) error {
	f := m.top()
	if f == nil || !f.lang {
		return invalid(loc, "end-if-language")
	}
	copy(m.langs, f.saved)
	m.stack = m.stack[:len(m.stack)-1]
	return nil
}
