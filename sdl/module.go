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

// Module is the root of the resolved model. It owns every entity created
// between the module and end-module directives; nothing in the model points
// at caller-owned storage once the module is closed.
type Module struct {
	Name  string
	Ident string // Free-form identification string from the module header.

	Target Target

	Declares   []*Declare
	Items      []*Item
	Aggregates []*Aggregate
	Constants  []*Constant
	Enums      []*Enum
	Entries    []*Entry

	// Faults accumulates recoverable errors reported while the module was
	// being built.
	Faults []*Error

	byID   map[TypeID]any
	decls  map[string]TypeID
	items  map[string]TypeID
	aggs   map[string]TypeID
	enums  map[string]TypeID
	nextID [4]TypeID
}

// NewModule returns an empty module for the given target.
func NewModule(name, ident string, t Target) *Module {
	return &Module{
		Name:   name,
		Ident:  ident,
		Target: t,
		byID:   make(map[TypeID]any),
		decls:  make(map[string]TypeID),
		items:  make(map[string]TypeID),
		aggs:   make(map[string]TypeID),
		enums:  make(map[string]TypeID),
		nextID: [4]TypeID{DeclareMin, ItemMin, AggregateMin, EnumMin},
	}
}

func (m *Module) issue(ns int, max TypeID) TypeID {
	id := m.nextID[ns]
	if id > max {
		panic("sdl: type namespace exhausted")
	}
	m.nextID[ns]++
	return id
}

// AddDeclare registers d, issuing its TypeID.
func (m *Module) AddDeclare(d *Declare) TypeID {
	d.ID = m.issue(0, DeclareMax)
	m.Declares = append(m.Declares, d)
	m.byID[d.ID] = d
	m.decls[d.Name] = d.ID
	return d.ID
}

// AddItem registers a top-level item, issuing its TypeID.
func (m *Module) AddItem(it *Item) TypeID {
	it.ID = m.issue(1, ItemMax)
	m.Items = append(m.Items, it)
	m.byID[it.ID] = it
	m.items[it.Name] = it.ID
	return it.ID
}

// AddAggregate registers a top-level aggregate, issuing its TypeID.
func (m *Module) AddAggregate(a *Aggregate) TypeID {
	a.ID = m.issue(2, AggregateMax)
	m.Aggregates = append(m.Aggregates, a)
	m.byID[a.ID] = a
	m.aggs[a.Name] = a.ID
	return a.ID
}

// AddEnum registers an enumeration, issuing its TypeID.
func (m *Module) AddEnum(e *Enum) TypeID {
	e.ID = m.issue(3, EnumMax)
	m.Enums = append(m.Enums, e)
	m.byID[e.ID] = e
	m.enums[e.Name] = e.ID
	return e.ID
}

// AddConstant records a resolved constant.
func (m *Module) AddConstant(c *Constant) {
	m.Constants = append(m.Constants, c)
}

// AddEntry records a resolved entry.
func (m *Module) AddEntry(e *Entry) {
	m.Entries = append(m.Entries, e)
}

// Lookup resolves a user type name. Namespaces are searched in declare,
// aggregate, item, enum order; names are unique within a namespace but may
// collide across namespaces.
func (m *Module) Lookup(name string) (TypeID, bool) {
	if id, ok := m.decls[name]; ok {
		return id, true
	}
	if id, ok := m.aggs[name]; ok {
		return id, true
	}
	if id, ok := m.items[name]; ok {
		return id, true
	}
	if id, ok := m.enums[name]; ok {
		return id, true
	}
	return 0, false
}

// Entity returns the entity registered under id, or nil.
func (m *Module) Entity(id TypeID) any {
	return m.byID[id]
}

// SizeOf returns the natural size in bytes of the type id resolves to,
// chasing declare and item chains down to a scalar or aggregate.
func (m *Module) SizeOf(id TypeID) int {
	for {
		if k := id.Kind(); k != KindNone {
			return k.Size(m.Target)
		}
		switch e := m.byID[id].(type) {
		case *Declare:
			return e.Size
		case *Item:
			return e.Size
		case *Aggregate:
			return e.Size
		case *Enum:
			return KindEnum.Size(m.Target)
		default:
			return 0
		}
	}
}

// Fault records a recoverable error against the module.
func (m *Module) Fault(e *Error) {
	m.Faults = append(m.Faults, e)
}
