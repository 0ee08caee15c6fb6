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

// Package scan tokenizes structure definition language source: names,
// integers with %X/%O/%B/%A radix prefixes, quoted strings, punctuation,
// and comments, with source-location tracking. Keywords are a parser
// concern; the scanner only produces case-preserved names.
package scan

import (
	"strings"

	"github.com/aaam/opensdl/sdl"
)

// Kind classifies a token.
type Kind int

const (
	EOF Kind = iota
	Name
	Int
	String
	Punct
	Comment
)

// Token is one lexical element.
type Token struct {
	Kind  Kind
	Text  string // Name text, string payload, comment text, or local name.
	Int   int64
	Radix sdl.Radix
	Punct byte

	// Comment position: the comment began a line of its own.
	OwnLine bool

	Loc sdl.Loc
}

// Scanner walks SDL source a token at a time.
type Scanner struct {
	src  string
	pos  int
	line int
	col  int

	err *sdl.Error // First lexical fault, sticky.
}

// New returns a scanner over src.
func New(src string) *Scanner {
	return &Scanner{src: src, line: 1, col: 1}
}

// Err returns the first lexical fault, if any.
func (s *Scanner) Err() *sdl.Error { return s.err }

func (s *Scanner) peek() byte {
	if s.pos >= len(s.src) {
		return 0
	}
	return s.src[s.pos]
}

func (s *Scanner) advance() byte {
	c := s.src[s.pos]
	s.pos++
	if c == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return c
}

func (s *Scanner) here() sdl.Loc {
	return sdl.Loc{FirstLine: s.line, FirstCol: s.col, LastLine: s.line, LastCol: s.col}
}

func isNameStart(c byte) bool {
	return c == '_' || c == '$' || c == '#' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameByte(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// AtEOF reports whether the cursor is at end of input.
func (s *Scanner) AtEOF() bool { return s.pos >= len(s.src) }

// RawLine consumes and returns the rest of the current line verbatim,
// without the newline. Used for literal passthrough.
func (s *Scanner) RawLine() string {
	start := s.pos
	for s.pos < len(s.src) && s.peek() != '\n' {
		s.advance()
	}
	line := s.src[start:s.pos]
	if s.pos < len(s.src) {
		s.advance()
	}
	return line
}

// Next returns the next token, skipping whitespace. Comments are returned
// as tokens so the parser can preserve their position.
func (s *Scanner) Next() Token {
	for s.pos < len(s.src) {
		c := s.peek()
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			s.advance()
			continue
		}
		break
	}
	if s.pos >= len(s.src) {
		return Token{Kind: EOF, Loc: s.here()}
	}

	loc := s.here()
	ownLine := loc.FirstCol == 1 || s.blankBefore()
	c := s.peek()

	switch {
	case isNameStart(c):
		start := s.pos
		for s.pos < len(s.src) && isNameByte(s.peek()) {
			s.advance()
		}
		t := Token{Kind: Name, Text: s.src[start:s.pos], Loc: s.end(loc)}
		return t

	case isDigit(c):
		var n int64
		for s.pos < len(s.src) && isDigit(s.peek()) {
			n = n*10 + int64(s.advance()-'0')
		}
		return Token{Kind: Int, Int: n, Radix: sdl.RadixDec, Loc: s.end(loc)}

	case c == '%':
		return s.radixed(loc)

	case c == '"':
		s.advance()
		start := s.pos
		for s.pos < len(s.src) && s.peek() != '"' && s.peek() != '\n' {
			s.advance()
		}
		if s.peek() != '"' {
			s.fail(loc)
			return Token{Kind: EOF, Loc: s.end(loc)}
		}
		text := s.src[start:s.pos]
		s.advance()
		return Token{Kind: String, Text: text, Loc: s.end(loc)}

	case c == '/' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '*':
		// A /* comment runs to end of line, or to a closing */ on the
		// same line.
		s.advance()
		s.advance()
		start := s.pos
		for s.pos < len(s.src) && s.peek() != '\n' {
			if s.peek() == '*' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '/' {
				text := s.src[start:s.pos]
				s.advance()
				s.advance()
				return Token{Kind: Comment, Text: strings.TrimSpace(text), OwnLine: ownLine, Loc: s.end(loc)}
			}
			s.advance()
		}
		text := s.src[start:s.pos]
		return Token{Kind: Comment, Text: strings.TrimSpace(text), OwnLine: ownLine, Loc: s.end(loc)}

	case c == '{':
		s.advance()
		start := s.pos
		for s.pos < len(s.src) && s.peek() != '}' {
			s.advance()
		}
		if s.pos >= len(s.src) {
			s.fail(loc)
			return Token{Kind: EOF, Loc: s.end(loc)}
		}
		text := s.src[start:s.pos]
		s.advance()
		return Token{Kind: Comment, Text: strings.TrimSpace(text), OwnLine: ownLine, Loc: s.end(loc)}

	default:
		s.advance()
		return Token{Kind: Punct, Punct: c, Loc: s.end(loc)}
	}
}

// blankBefore reports whether only whitespace precedes the cursor on the
// current line.
func (s *Scanner) blankBefore() bool {
	for i := s.pos - 1; i >= 0; i-- {
		switch s.src[i] {
		case '\n':
			return true
		case ' ', '\t', '\r':
			continue
		default:
			return false
		}
	}
	return true
}

func (s *Scanner) end(loc sdl.Loc) sdl.Loc {
	loc.LastLine = s.line
	loc.LastCol = s.col
	return loc
}

// radixed scans %X, %O, %B, and %A literals.
func (s *Scanner) radixed(loc sdl.Loc) Token {
	s.advance() // %
	if s.pos >= len(s.src) {
		s.fail(loc)
		return Token{Kind: EOF, Loc: s.end(loc)}
	}
	var (
		n     int64
		radix sdl.Radix
		seen  bool
	)
	switch c := s.advance(); c {
	case 'x', 'X':
		radix = sdl.RadixHex
		for s.pos < len(s.src) {
			d := hexDigit(s.peek())
			if d < 0 {
				break
			}
			n = n*16 + int64(d)
			seen = true
			s.advance()
		}
	case 'o', 'O':
		radix = sdl.RadixOct
		for s.pos < len(s.src) && s.peek() >= '0' && s.peek() <= '7' {
			n = n*8 + int64(s.advance()-'0')
			seen = true
		}
	case 'b', 'B':
		radix = sdl.RadixBin
		for s.pos < len(s.src) && (s.peek() == '0' || s.peek() == '1') {
			n = n*2 + int64(s.advance()-'0')
			seen = true
		}
	case 'a', 'A':
		radix = sdl.RadixDec
		if s.pos < len(s.src) {
			n = int64(s.advance())
			seen = true
		}
	default:
		s.fail(loc)
		return Token{Kind: Punct, Punct: '%', Loc: s.end(loc)}
	}
	if !seen {
		s.fail(loc)
	}
	return Token{Kind: Int, Int: n, Radix: radix, Loc: s.end(loc)}
}

func hexDigit(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	default:
		return -1
	}
}

func (s *Scanner) fail(loc sdl.Loc) {
	if s.err == nil {
		s.err = sdl.Errorf(sdl.ErrSyntax, loc, loc.FirstLine)
	}
}
