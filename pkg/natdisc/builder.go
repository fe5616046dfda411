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
package natdisc

import (
	"github.com/vacomp/vacomp/pkg/intern"
	"github.com/vacomp/vacomp/pkg/osdi/abi"
)

// NatureDecl is the external-collaborator shape of one `nature` item, as
// handed to this package by the (out-of-scope) item-tree builder.
type NatureDecl struct {
	Name      string
	Parent    string // "" if none
	DdtNature string
	IdtNature string
	Attrs     []AttrDecl
}

// AttrDecl is one `name = value` attribute override.
type AttrDecl struct {
	Name string
	Kind abi.AttributeType
	Real float64
	Int  int32
	Str  string
}

// DisciplineRefDecl names a nature reference that may be absent.
type DisciplineRefDecl struct {
	Kind NatureRefKind // abi.NatRefNature or abi.NatRefNone
	Name string
}

// DisciplineDecl is the external-collaborator shape of one `discipline`
// item.
type DisciplineDecl struct {
	Name               string
	Flow               DisciplineRefDecl
	Potential          DisciplineRefDecl
	Domain             abi.Domain
	FlowOverrides      []AttrDecl
	PotentialOverrides []AttrDecl
	UserAttrs          []AttrDecl
}

// Builder constructs a Table from a sequence of nature/discipline
// declarations, in the order the item tree presents them.
type Builder struct {
	table   *Table
	strings *intern.Table
}

// NewBuilder creates a builder that interns attribute values through the
// given (shared, module-level) string/literal table.
func NewBuilder(strings *intern.Table) *Builder {
	return &Builder{table: NewTable(), strings: strings}
}

// AddNature appends one nature declaration, resolving Parent/DdtNature/
// IdtNature against natures already added (forward references are not
// supported, matching item-tree declaration order).
func (b *Builder) AddNature(d NatureDecl) NatureIdx {
	idx := NatureIdx(len(b.table.Natures))
	start := uint32(len(b.table.Attributes))
	for _, a := range d.Attrs {
		b.table.Attributes = append(b.table.Attributes, b.internAttr(a))
	}
	n := Nature{
		Name:       b.strings.InternString(d.Name),
		Parent:     b.resolveNature(d.Parent),
		DdtNature:  b.resolveNature(d.DdtNature),
		IdtNature:  b.resolveNature(d.IdtNature),
		Attributes: AttrRange{Start: start, Len: uint32(len(d.Attrs))},
	}
	b.table.Natures = append(b.table.Natures, n)
	b.table.natureByName[d.Name] = idx
	return idx
}

// AddDiscipline appends one discipline declaration. Flow/potential
// overrides and user attributes are appended to the shared attribute
// arena as three contiguous spans, in that order.
func (b *Builder) AddDiscipline(d DisciplineDecl) DisciplineIdx {
	idx := DisciplineIdx(len(b.table.Disciplines))

	flowStart := uint32(len(b.table.Attributes))
	for _, a := range d.FlowOverrides {
		b.table.Attributes = append(b.table.Attributes, b.internAttr(a))
	}
	potStart := uint32(len(b.table.Attributes))
	for _, a := range d.PotentialOverrides {
		b.table.Attributes = append(b.table.Attributes, b.internAttr(a))
	}
	userStart := uint32(len(b.table.Attributes))
	for _, a := range d.UserAttrs {
		b.table.Attributes = append(b.table.Attributes, b.internAttr(a))
	}

	disc := Discipline{
		Name:               b.strings.InternString(d.Name),
		Flow:               b.resolveDisciplineRef(d.Flow),
		Potential:          b.resolveDisciplineRef(d.Potential),
		Domain:             d.Domain,
		FlowOverrides:      AttrRange{Start: flowStart, Len: uint32(len(d.FlowOverrides))},
		PotentialOverrides: AttrRange{Start: potStart, Len: uint32(len(d.PotentialOverrides))},
		UserAttributes:     AttrRange{Start: userStart, Len: uint32(len(d.UserAttrs))},
	}
	b.table.Disciplines = append(b.table.Disciplines, disc)
	b.table.disciplineByName[d.Name] = idx
	return idx
}

// Table returns the table built so far.
func (b *Builder) Table() *Table { return b.table }

func (b *Builder) resolveNature(name string) NatureIdx {
	if name == "" {
		return InvalidNature
	}
	if idx, ok := b.table.natureByName[name]; ok {
		return idx
	}
	return InvalidNature
}

func (b *Builder) resolveDisciplineRef(r DisciplineRefDecl) NatureRef {
	if r.Kind == abi.NatRefNone || r.Name == "" {
		return NoRef
	}
	idx := b.resolveNature(r.Name)
	if idx == InvalidNature {
		return NoRef
	}
	return NatureRef{Kind: r.Kind, Idx: idx}
}

func (b *Builder) internAttr(a AttrDecl) Attribute {
	attr := Attribute{Name: b.strings.InternString(a.Name), Kind: a.Kind}
	switch a.Kind {
	case abi.AttrTypeReal:
		attr.Value = b.strings.InternReal(a.Real)
	case abi.AttrTypeInt:
		attr.Value = b.strings.InternInt32(a.Int)
	case abi.AttrTypeString:
		attr.Str = b.strings.InternString(a.Str)
	}
	return attr
}
