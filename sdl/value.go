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
	"strconv"
)

// Radix selects the display base of a numeric value. It never changes the
// stored value, only how backends render it.
type Radix int

const (
	RadixDec Radix = iota
	RadixOct
	RadixHex
	RadixBin
)

// String implements [fmt.Stringer].
func (r Radix) String() string {
	switch r {
	case RadixOct:
		return "octal"
	case RadixHex:
		return "hex"
	case RadixBin:
		return "binary"
	default:
		return "decimal"
	}
}

// Value is a typed scalar: either a fixed-size integer with a display radix
// or a string. The zero value is integer zero, decimal, unsigned.
type Value struct {
	Int    int64
	Str    string
	String bool // Str is the payload, not Int.
	Radix  Radix
	Signed bool
	Size   int // Display size in bytes; widens rendered masks. 0 means natural.
}

// IntValue returns a numeric value with the given radix.
func IntValue(v int64, r Radix) Value {
	return Value{Int: v, Radix: r, Signed: v < 0}
}

// StringValue returns a string value.
func StringValue(s string) Value {
	return Value{Str: s, String: true}
}

// Format renders the value in its radix. Strings render quoted.
func (v Value) Format() string {
	if v.String {
		return strconv.Quote(v.Str)
	}
	switch v.Radix {
	case RadixOct:
		return fmt.Sprintf("0%o", uint64(v.Int))
	case RadixHex:
		if v.Size > 0 {
			return fmt.Sprintf("0x%0*X", v.Size*2, uint64(v.Int))
		}
		return fmt.Sprintf("0x%X", uint64(v.Int))
	case RadixBin:
		return "0b" + strconv.FormatUint(uint64(v.Int), 2)
	default:
		return strconv.FormatInt(v.Int, 10)
	}
}
