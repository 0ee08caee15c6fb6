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

// Backend is an emitter for one target language. The dispatcher invokes a
// callback once the corresponding definition is fully resolved; the backend
// never mutates the model, and the core never reads backend output. A
// nonzero error propagates as the dispatcher's return value.
//
// Aggregates are delivered structurally: AggregateBegin, then one Member
// call per item or comment member in source order (nested subaggregates
// produce their own Begin/End pair), then AggregateEnd. Comments outside
// aggregates arrive through Comment.
type Backend interface {
	ModuleBegin(m *Module) error
	ModuleEnd(m *Module) error

	Item(it *Item) error
	Constant(c *Constant) error
	Enum(e *Enum) error

	AggregateBegin(a *Aggregate) error
	AggregateEnd(a *Aggregate) error
	Member(a *Aggregate, m Member) error

	Comment(c *Comment) error
	LiteralLine(line string) error
	Entry(e *Entry) error
}
