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

package compiler

import (
	"strings"

	"github.com/aaam/opensdl/sdl"
)

// constTag is the default tag for constants.
const constTag = "K"

// resolveTag returns the effective output tag for an entity named hostID of
// the given type. An explicit tag wins with trailing underscores trimmed;
// otherwise the resolver walks user-type chains until it finds a non-empty
// tag or bottoms out at a base type's default letter. Recursion terminates
// because a user type's underlying TypeID was issued before it.
func (d *Dispatcher) resolveTag(explicit string, id sdl.TypeID, hostID string) string {
	tag := d.tagOf(explicit, id)
	if allLower(hostID) {
		tag = strings.ToLower(tag)
	}
	return tag
}

func (d *Dispatcher) tagOf(explicit string, id sdl.TypeID) string {
	if explicit != "" {
		return strings.TrimRight(explicit, "_")
	}
	if k := id.Kind(); k != sdl.KindNone {
		return k.DefaultTag()
	}
	switch e := d.mod.Entity(id).(type) {
	case *sdl.Declare:
		if e.Tag != "" {
			return e.Tag
		}
		return d.tagOf("", e.Base)
	case *sdl.Item:
		if e.Tag != "" {
			return e.Tag
		}
		return d.tagOf("", e.Type)
	case *sdl.Aggregate:
		if e.Tag != "" {
			return e.Tag
		}
		return sdl.KindStructure.DefaultTag()
	case *sdl.Enum:
		if e.Tag != "" {
			return e.Tag
		}
		return sdl.KindEnum.DefaultTag()
	default:
		// Unknown types default to Any's empty tag.
		return ""
	}
}

// allLower reports whether s contains no uppercase letters.
func allLower(s string) bool {
	return s == strings.ToLower(s)
}

// caseTag matches the case of a derived-constant tag letter to its host id:
// an all-lowercase id gets the lowercase tag.
func caseTag(tag, hostID string) string {
	if allLower(hostID) {
		return strings.ToLower(tag)
	}
	return tag
}
