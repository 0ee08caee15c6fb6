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

// Command opensdl compiles a structure definition language source file
// into declaration files for the enabled target languages.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aaam/opensdl"
	langc "github.com/aaam/opensdl/lang/c"
	"github.com/aaam/opensdl/listing"
	"github.com/aaam/opensdl/sdl"
)

var (
	align    int
	b32      bool
	b64      bool
	check    bool
	comments bool
	copyhdr  bool
	header   bool
	listFile string
	noList   bool
	member   bool
	suppress []string
	langs    []string
	symbols  []string
	trace    bool
	verbose  bool
	version  bool

	noCheck    bool
	noComments bool
	noCopy     bool
	noHeader   bool
	noMember   bool
	noSuppress bool
)

// newCommand builds the root command. Qualifiers come in DCL-style
// negatable pairs; the negated form wins when both are given.
func newCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "opensdl [flags] <input.sdl>",
		Short:         "Structure definition language compiler",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	f := cmd.Flags()
	f.IntVar(&align, "align", 0, "member alignment cap (0|1|2|4|8)")
	f.BoolVar(&b32, "b32", false, "32-bit machine addresses")
	f.BoolVar(&b64, "b64", true, "64-bit machine addresses")
	f.BoolVar(&check, "check", false, "analyze only, write no output")
	f.BoolVar(&noCheck, "nocheck", false, "write output even after faults")
	f.BoolVar(&comments, "comments", true, "reproduce source comments")
	f.BoolVar(&noComments, "nocomments", false, "drop source comments")
	f.BoolVar(&copyhdr, "copy", false, "prepend the copyright file to each output")
	f.BoolVar(&noCopy, "nocopy", false, "omit the copyright file")
	f.BoolVar(&header, "header", true, "emit module guards and banners")
	f.BoolVar(&noHeader, "noheader", false, "omit module guards and banners")
	f.StringVar(&listFile, "list", "", "write a listing file")
	f.Lookup("list").NoOptDefVal = "-"
	f.BoolVar(&noList, "nolist", false, "suppress the listing file")
	f.BoolVar(&member, "member", false, "annotate members with resolved offsets")
	f.BoolVar(&noMember, "nomember", false, "omit member offset annotations")
	f.StringSliceVar(&suppress, "suppress", nil, "suppress prefix and/or tag in names")
	f.Lookup("suppress").NoOptDefVal = "prefix,tag"
	f.BoolVar(&noSuppress, "nosuppress", false, "keep prefixes and tags in names")
	f.StringArrayVar(&langs, "lang", nil, "target language name[=file] (repeatable)")
	f.StringArrayVar(&symbols, "symbol", nil, "condition symbol name=value (repeatable)")
	f.BoolVar(&trace, "trace", false, "trace semantic actions")
	f.BoolVar(&verbose, "verbose", false, "verbose progress logging")
	f.BoolVar(&version, "version", false, "print the compiler version")
	return cmd
}

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// lang is one enabled output language.
type lang struct {
	name string
	file string
	out  *strings.Builder
}

// applyNegations resolves each qualifier pair; the negated form overrides.
func applyNegations() {
	if noCheck {
		check = false
	}
	if noComments {
		comments = false
	}
	if noCopy {
		copyhdr = false
	}
	if noHeader {
		header = false
	}
	if noMember {
		member = false
	}
	if noSuppress {
		suppress = nil
	}
}

func run(cmd *cobra.Command, args []string) error {
	if version {
		fmt.Println("opensdl " + opensdl.Version)
		return nil
	}
	applyNegations()

	log := logrus.New()
	log.SetOutput(os.Stderr)
	switch {
	case trace:
		log.SetLevel(logrus.TraceLevel)
	case verbose:
		log.SetLevel(logrus.DebugLevel)
	default:
		log.SetLevel(logrus.WarnLevel)
	}

	switch align {
	case 0, 1, 2, 4, 8:
	default:
		return sdl.Errorf(sdl.ErrInvalidAlignment, sdl.Loc{}, align)
	}

	if len(args) == 0 {
		return sdl.Errorf(sdl.ErrNoInputFile, sdl.Loc{})
	}
	input := args[0]
	src, err := os.ReadFile(input)
	if err != nil {
		return sdl.Errorf(sdl.ErrInputFileOpen, sdl.Loc{}, input)
	}

	enabled, err := parseLangs(input)
	if err != nil {
		return err
	}
	if len(enabled) == 0 {
		return sdl.Errorf(sdl.ErrNoOutput, sdl.Loc{})
	}

	var copyText string
	if copyhdr {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		text, err := os.ReadFile(base + ".copy")
		if err != nil {
			return sdl.Errorf(sdl.ErrNoCopyFile, sdl.Loc{}, base+".copy")
		}
		copyText = string(text)
	}

	opts := []opensdl.Option{
		opensdl.WithAlign(align),
		opensdl.WithLogger(log),
	}
	if b32 && !cmd.Flags().Changed("b64") {
		opts = append(opts, opensdl.With32BitAddresses())
	}
	for _, s := range symbols {
		name, val, _ := strings.Cut(s, "=")
		n, _ := strconv.ParseInt(val, 0, 64)
		opts = append(opts, opensdl.WithSymbol(name, n))
	}

	bopts := langc.Options{
		Comments:       comments,
		Header:         header,
		Member:         member,
		SuppressPrefix: hasSuppress("prefix"),
		SuppressTag:    hasSuppress("tag"),
	}
	for _, l := range enabled {
		opts = append(opts, opensdl.WithLanguage(l.name, langc.New(l.out, bopts)))
	}

	mod, cerr := opensdl.Compile(string(src), opts...)
	for _, f := range faults(mod) {
		fmt.Fprintln(os.Stderr, f.Error())
	}
	if cerr != nil {
		fmt.Fprintln(os.Stderr, cerr)
		return sdl.Errorf(sdl.ErrExit, sdl.Loc{})
	}
	if check && len(faults(mod)) > 0 {
		return sdl.Errorf(sdl.ErrExit, sdl.Loc{})
	}

	if !check {
		for _, l := range enabled {
			text := copyText + l.out.String()
			if err := os.WriteFile(l.file, []byte(text), 0o644); err != nil {
				return sdl.Errorf(sdl.ErrOutputFileOpen, sdl.Loc{}, l.file)
			}
			log.WithField("file", l.file).Debug("wrote output")
		}
	}

	if listFile != "" && !noList {
		name := listFile
		if name == "-" {
			name = strings.TrimSuffix(input, filepath.Ext(input)) + ".lis"
		}
		out, err := os.Create(name)
		if err != nil {
			return sdl.Errorf(sdl.ErrOutputFileOpen, sdl.Loc{}, name)
		}
		defer out.Close()
		modName := ""
		if mod != nil {
			modName = mod.Name
		}
		if err := listing.New(modName, input).Render(out, string(src), faults(mod)); err != nil {
			return sdl.Errorf(sdl.ErrOutputFileOpen, sdl.Loc{}, name)
		}
	}
	return nil
}

func faults(mod *sdl.Module) []*sdl.Error {
	if mod == nil {
		return nil
	}
	return mod.Faults
}

// parseLangs resolves the repeatable --lang name[=file] flags.
func parseLangs(input string) ([]*lang, error) {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	var enabled []*lang
	seen := make(map[string]bool)
	for _, spec := range langs {
		name, file, hasFile := strings.Cut(spec, "=")
		name = strings.ToLower(name)
		if seen[name] {
			return nil, sdl.Errorf(sdl.ErrDuplicateLanguage, sdl.Loc{}, name)
		}
		seen[name] = true
		switch name {
		case "c", "cc":
		default:
			return nil, sdl.Errorf(sdl.ErrInvalidQualifier, sdl.Loc{}, name)
		}
		if !hasFile {
			file = base + ".h"
		}
		enabled = append(enabled, &lang{name: name, file: file, out: &strings.Builder{}})
	}
	return enabled, nil
}

func hasSuppress(what string) bool {
	for _, s := range suppress {
		if strings.EqualFold(s, what) {
			return true
		}
	}
	return false
}
