// Copyright vacomp contributors.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package intern provides the module-level string and literal interning
// tables shared by pkg/natdisc (attribute values) and pkg/osdi/descriptor
// (the raw-bits attribute-value union). Numeric literals are carried as
// gnark-crypto's fr.Element: not for field arithmetic (vacomp performs
// none), but because it is a fixed-width, comparable, hashable 253-bit
// integer type well suited to holding the raw IEEE-754 bit pattern of a
// double (or a sign-extended i32) that must round-trip bit-exactly through
// a descriptor's attribute-value union, per spec.md §4.H.
package intern

import (
	"math"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

// StringID indexes the interned string table.
type StringID uint32

// LiteralID indexes the interned literal table.
type LiteralID uint32

// Table is a module-level interner for strings and numeric literals. The
// zero value is ready to use.
type Table struct {
	strings    []string
	stringIdx  map[string]StringID
	literals   []fr.Element
	literalIdx map[string]LiteralID
}

// InternString returns the StringID for s, allocating a new entry if this
// is the first time s has been seen.
func (t *Table) InternString(s string) StringID {
	if t.stringIdx == nil {
		t.stringIdx = make(map[string]StringID)
	}
	if id, ok := t.stringIdx[s]; ok {
		return id
	}
	id := StringID(len(t.strings))
	t.strings = append(t.strings, s)
	t.stringIdx[s] = id
	return id
}

// String returns the interned string for id.
func (t *Table) String(id StringID) string {
	return t.strings[id]
}

// InternReal interns the raw bit pattern of a float64, returning a
// LiteralID that round-trips exactly via Real.
func (t *Table) InternReal(v float64) LiteralID {
	var e fr.Element
	e.SetUint64(math.Float64bits(v))
	return t.internElement(e)
}

// InternInt32 interns a sign-extended i32, mirroring the descriptor
// union's i32 encoding. The value is carried as the raw 64-bit two's
// complement pattern (via SetUint64) rather than through field-element
// arithmetic, so it round-trips exactly regardless of the field's modulus.
func (t *Table) InternInt32(v int32) LiteralID {
	var e fr.Element
	e.SetUint64(uint64(int64(v)))
	return t.internElement(e)
}

func (t *Table) internElement(e fr.Element) LiteralID {
	if t.literalIdx == nil {
		t.literalIdx = make(map[string]LiteralID)
	}
	key := e.String()
	if id, ok := t.literalIdx[key]; ok {
		return id
	}
	id := LiteralID(len(t.literals))
	t.literals = append(t.literals, e)
	t.literalIdx[key] = id
	return id
}

// Real returns the float64 whose bit pattern was interned as id.
func (t *Table) Real(id LiteralID) float64 {
	return math.Float64frombits(t.literals[id].Uint64())
}

// Int32 returns the int32 whose sign-extended pattern was interned as id.
func (t *Table) Int32(id LiteralID) int32 {
	return int32(int64(t.literals[id].Uint64()))
}

// RawBits returns the first 64 bits of the interned element's canonical
// (non-Montgomery) representation, exactly as the descriptor's
// attribute-value union stores it.
func (t *Table) RawBits(id LiteralID) uint64 {
	return t.literals[id].Uint64()
}
