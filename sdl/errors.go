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
	"fmt"
	"strings"
)

// ErrKind is a structured error code. The formatter renders the code plus a
// small fixed-arity vector of inserts.
type ErrKind int

const (
	ErrNone ErrKind = iota

	ErrSyntax
	ErrParse
	ErrMatchEndName
	ErrNullStructure
	ErrAddressObjectNotBased
	ErrZeroLength
	ErrInvalidUnknownLength
	ErrSymbolNotDefined
	ErrInvalidConditionalState
	ErrDuplicateLanguage
	ErrDuplicateListingQualifier
	ErrInvalidQualifier
	ErrInvalidAlignment
	ErrNoOutput
	ErrNoInputFile
	ErrInputFileOpen
	ErrOutputFileOpen
	ErrNoCopyFile
	ErrInvalidState

	// Fatal kinds.
	ErrAbort
	ErrExit
)

type errInfo struct {
	ident  string
	format string // Insert slots are %v.
	fatal  bool
}

var errInfos = map[ErrKind]errInfo{
	ErrSyntax:                    {ident: "SYNTAXERR", format: "syntax error at line %v"},
	ErrParse:                     {ident: "PARSEERR", format: "unable to parse %v at line %v"},
	ErrMatchEndName:              {ident: "MATCHEND", format: "end name %v does not match %v"},
	ErrNullStructure:             {ident: "NULLSTRUCT", format: "aggregate %v has no members"},
	ErrAddressObjectNotBased:     {ident: "NOTBASED", format: "address object %v refers to aggregate %v with no based pointer"},
	ErrZeroLength:                {ident: "ZEROLEN", format: "bitfield %v declared with non-positive length"},
	ErrInvalidUnknownLength:      {ident: "UNKLEN", format: "character * length is not permitted for %v"},
	ErrSymbolNotDefined:          {ident: "UNDEFSYM", format: "symbol %v is not defined"},
	ErrInvalidConditionalState:   {ident: "INVCOND", format: "conditional %v is invalid here"},
	ErrDuplicateLanguage:         {ident: "DUPLANG", format: "language %v specified more than once"},
	ErrDuplicateListingQualifier: {ident: "DUPLIST", format: "listing qualifier specified more than once"},
	ErrInvalidQualifier:          {ident: "INVQUAL", format: "unknown qualifier %v"},
	ErrInvalidAlignment:          {ident: "INVALIGN", format: "invalid alignment %v"},
	ErrNoOutput:                  {ident: "NOOUTPUT", format: "no output language specified"},
	ErrNoInputFile:               {ident: "NOINPUT", format: "no input file specified"},
	ErrInputFileOpen:             {ident: "INPUTOPEN", format: "unable to open input file %v"},
	ErrOutputFileOpen:            {ident: "OUTPUTOPEN", format: "unable to open output file %v"},
	ErrNoCopyFile:                {ident: "NOCOPY", format: "unable to locate copy file %v"},
	ErrInvalidState:              {ident: "INVSTATE", format: "directive %v is invalid in the current state"},
	ErrAbort:                     {ident: "ABORT", format: "internal error: %v", fatal: true},
	ErrExit:                      {ident: "ERREXIT", format: "terminating due to previous errors", fatal: true},
}

// Ident returns the stable message identifier for k.
func (k ErrKind) Ident() string { return errInfos[k].ident }

// Fatal reports whether errors of this kind unwind the module rather than
// letting the parser continue.
func (k ErrKind) Fatal() bool { return errInfos[k].fatal }

// Error is a structured compiler error: a kind, its message inserts, the
// source location, and the enclosing aggregate names when the error
// occurred inside one.
type Error struct {
	Kind    ErrKind
	Inserts []any
	Loc     Loc
	Context []string // Enclosing aggregate names, outermost first.
}

// Errorf builds an Error for kind k with the given inserts.
func Errorf(k ErrKind, loc Loc, inserts ...any) *Error {
	return &Error{Kind: k, Inserts: inserts, Loc: loc}
}

// Fatal reports whether the error is fatal.
func (e *Error) Fatal() bool { return e.Kind.Fatal() }

// Error implements [error] with the stable rendering
// %OPENSDL-<sev>-<IDENT>, <message>.
func (e *Error) Error() string {
	info := errInfos[e.Kind]
	sev := "E"
	if info.fatal {
		sev = "F"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%%OPENSDL-%s-%s, ", sev, info.ident)

	// Fill the insert slots in order; surplus inserts are appended.
	msg := info.format
	for _, ins := range e.Inserts {
		i := strings.Index(msg, "%v")
		if i < 0 {
			fmt.Fprintf(&sb, "%s %v", msg, ins)
			msg = ""
			continue
		}
		sb.WriteString(msg[:i])
		fmt.Fprintf(&sb, "%v", ins)
		msg = msg[i+2:]
	}
	sb.WriteString(strings.ReplaceAll(msg, "%v", "?"))

	if e.Loc.FirstLine > 0 && !strings.Contains(info.format, "line %v") {
		fmt.Fprintf(&sb, " (line %d)", e.Loc.FirstLine)
	}
	if len(e.Context) > 0 {
		fmt.Fprintf(&sb, "\n  in aggregate %s", strings.Join(e.Context, "."))
	}
	return sb.String()
}

// Is allows errors.Is comparisons against a bare kind wrapped in an Error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}
