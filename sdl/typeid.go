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

import "fmt"

// TypeID identifies a declare, item, aggregate, or enumeration within a
// module. IDs are drawn from disjoint contiguous ranges, one per namespace,
// and are issued monotonically; an ID is never reused within a module. The
// low range below DeclareMin is reserved for [Kind] values, so a TypeID can
// also carry a base type directly.
type TypeID int32

const (
	DeclareMin TypeID = 1 << 10
	DeclareMax TypeID = DeclareMin + rangeLen - 1

	ItemMin TypeID = DeclareMax + 1
	ItemMax TypeID = ItemMin + rangeLen - 1

	AggregateMin TypeID = ItemMax + 1
	AggregateMax TypeID = AggregateMin + rangeLen - 1

	EnumMin TypeID = AggregateMax + 1
	EnumMax TypeID = EnumMin + rangeLen - 1

	rangeLen TypeID = 1 << 20
)

// IsKind reports whether id sits in the reserved scalar range.
func (id TypeID) IsKind() bool { return id > 0 && id < DeclareMin }

// Kind returns the base type carried by id, or KindNone when id refers to a
// user-defined type.
func (id TypeID) Kind() Kind {
	if !id.IsKind() || !Kind(id).IsScalar() {
		return KindNone
	}
	return Kind(id)
}

// IsDeclare reports whether id names a declare.
func (id TypeID) IsDeclare() bool { return id >= DeclareMin && id <= DeclareMax }

// IsItem reports whether id names an item.
func (id TypeID) IsItem() bool { return id >= ItemMin && id <= ItemMax }

// IsAggregate reports whether id names an aggregate.
func (id TypeID) IsAggregate() bool { return id >= AggregateMin && id <= AggregateMax }

// IsEnum reports whether id names an enumeration.
func (id TypeID) IsEnum() bool { return id >= EnumMin && id <= EnumMax }

// String implements [fmt.Stringer].
func (id TypeID) String() string {
	switch {
	case id.IsKind():
		return Kind(id).String()
	case id.IsDeclare():
		return fmt.Sprintf("declare#%d", id-DeclareMin)
	case id.IsItem():
		return fmt.Sprintf("item#%d", id-ItemMin)
	case id.IsAggregate():
		return fmt.Sprintf("aggregate#%d", id-AggregateMin)
	case id.IsEnum():
		return fmt.Sprintf("enum#%d", id-EnumMin)
	default:
		return fmt.Sprintf("typeid(%d)", int32(id))
	}
}
