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

// Package natdisc builds the per-file nature/discipline/attribute table:
// the sole resolver for nature references appearing in OSDI descriptors.
// An unresolved reference encountered downstream is a bug, never a
// fallback — this package never returns a "best guess".
package natdisc

import (
	"github.com/vacomp/vacomp/pkg/intern"
	"github.com/vacomp/vacomp/pkg/osdi/abi"
)

// NatureIdx indexes Table.Natures. InvalidNature marks "no such nature".
type NatureIdx uint32

const InvalidNature NatureIdx = ^NatureIdx(0)

// DisciplineIdx indexes Table.Disciplines.
type DisciplineIdx uint32

const InvalidDiscipline DisciplineIdx = ^DisciplineIdx(0)

// AttrRange is a contiguous span [Start, Start+Len) into Table.Attributes.
type AttrRange struct {
	Start uint32
	Len   uint32
}

// Attribute is one entry of the flat attribute arena. Exactly one of
// Value/Str is meaningful, selected by Kind: Real/Int values are carried
// as an interned literal (the raw-bits carrier described in package
// intern's doc comment), String values as an interned string.
type Attribute struct {
	Name  intern.StringID
	Kind  abi.AttributeType
	Value intern.LiteralID
	Str   intern.StringID
}

// NatureRef tags an attribute's (possibly absent) reference to a nature,
// carrying the referent kind alongside the index so "no reference" and
// "reference to index 0" are never confused.
type NatureRef struct {
	Kind NatureRefKind
	Idx  NatureIdx
}

// NatureRefKind mirrors abi.NatureRefKind with the Go-idiomatic name used
// internally; the two are kept numerically identical so descriptor
// emission can cast directly.
type NatureRefKind = abi.NatureRefKind

// NoRef is the canonical "no nature reference" value.
var NoRef = NatureRef{Kind: abi.NatRefNone, Idx: InvalidNature}

// Nature is one `nature` declaration.
type Nature struct {
	Name       intern.StringID
	Parent     NatureIdx // InvalidNature if none
	DdtNature  NatureIdx
	IdtNature  NatureIdx
	Attributes AttrRange
}

// Discipline is one `discipline` declaration.
type Discipline struct {
	Name               intern.StringID
	Flow               NatureRef
	Potential          NatureRef
	Domain             abi.Domain
	FlowOverrides      AttrRange
	PotentialOverrides AttrRange
	UserAttributes     AttrRange
}

// Table is the per-file registry built in item-tree order.
type Table struct {
	Natures     []Nature
	Disciplines []Discipline
	Attributes  []Attribute

	natureByName     map[string]NatureIdx
	disciplineByName map[string]DisciplineIdx
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		natureByName:     make(map[string]NatureIdx),
		disciplineByName: make(map[string]DisciplineIdx),
	}
}

// NatureByName resolves a nature name; ok is false if unknown.
func (t *Table) NatureByName(name string) (NatureIdx, bool) {
	idx, ok := t.natureByName[name]
	return idx, ok
}

// DisciplineByName resolves a discipline name; ok is false if unknown.
func (t *Table) DisciplineByName(name string) (DisciplineIdx, bool) {
	idx, ok := t.disciplineByName[name]
	return idx, ok
}
