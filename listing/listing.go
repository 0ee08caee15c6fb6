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

// Package listing renders the compiler listing file: the source echoed
// with line numbers on 132-column, 66-line pages, a header repeated on
// each page, and at most one error message appended after each erroneous
// source line.
package listing

import (
	"fmt"
	"io"
	"strings"

	"github.com/aaam/opensdl/sdl"
)

const (
	pageWidth  = 132
	pageLines  = 66
	headerSize = 3 // Header line, rule, blank.
)

// Renderer renders a source text and its faults as listing pages, tracking
// the page and line cursor.
type Renderer struct {
	module string
	source string

	page int
	line int
}

// New returns a renderer for the given module and source file names.
func New(module, source string) *Renderer {
	return &Renderer{module: module, source: source}
}

// Render writes the listing for src, attaching the first fault recorded
// for each source line.
func (r *Renderer) Render(w io.Writer, src string, faults []*sdl.Error) error {
	byLine := make(map[int]*sdl.Error, len(faults))
	for _, f := range faults {
		if f.Loc.FirstLine > 0 {
			if _, ok := byLine[f.Loc.FirstLine]; !ok {
				byLine[f.Loc.FirstLine] = f
			}
		}
	}

	r.page = 0
	r.line = pageLines // Force a header before the first line.

	lines := strings.Split(src, "\n")
	for i, text := range lines {
		if i == len(lines)-1 && text == "" {
			break
		}
		if err := r.emit(w, fmt.Sprintf("%6d  %s", i+1, clip(text, pageWidth-8))); err != nil {
			return err
		}
		if f, ok := byLine[i+1]; ok {
			if err := r.emit(w, clip(f.Error(), pageWidth)); err != nil {
				return err
			}
		}
	}
	return nil
}

// emit writes one listing line, starting a new page when the current one
// is full.
func (r *Renderer) emit(w io.Writer, text string) error {
	if r.line+1 > pageLines {
		r.page++
		r.line = headerSize
		header := fmt.Sprintf("%s  %s", r.module, r.source)
		pageno := fmt.Sprintf("Page %d", r.page)
		pad := pageWidth - len(header) - len(pageno)
		if pad < 1 {
			pad = 1
		}
		if _, err := fmt.Fprintf(w, "%s%s%s\n%s\n\n", header, strings.Repeat(" ", pad), pageno,
			strings.Repeat("-", pageWidth)); err != nil {
			return err
		}
	}
	r.line++
	_, err := fmt.Fprintln(w, text)
	return err
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
