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

// Package layout computes the byte layout of the Instance and Model
// structs OSDI codegen and descriptor emission both depend on: component
// F of the pipeline. Every offset handed to pkg/osdi/codegen and
// pkg/osdi/descriptor is read back out of the same Field this package
// produced, so "declared offset equals the struct's real offset" (the
// descriptor-offset-correctness property) holds by construction rather
// than by cross-checking two independent computations.
package layout

// Sizes of the scalar building blocks every field is made of. They are
// fixed for little-endian hosts with 8-byte pointers rather than
// platform-queried; pkg/vacfg rejects big-endian targets at Validate time
// but does not check pointer width.
const (
	SizePtr   uint32 = 8
	SizeF64   uint32 = 8
	SizeU32   uint32 = 4
	WordBits         = 32
)

// Field is one named, possibly-repeated struct member: Count elements of
// ElemSize bytes each, starting at Offset.
type Field struct {
	Name     string
	Offset   uint32
	ElemSize uint32
	Count    uint32
}

// End returns the byte offset immediately past the field.
func (f Field) End() uint32 { return f.Offset + f.ElemSize*f.Count }

// Builder lays out fields one at a time in call order, inserting
// alignment padding before each so no field straddles a boundary looser
// than its own element size.
type Builder struct {
	cursor uint32
	fields []Field
}

// NewBuilder creates an empty layout builder.
func NewBuilder() *Builder { return &Builder{} }

func alignUp(v, align uint32) uint32 {
	if align == 0 {
		return v
	}
	rem := v % align
	if rem == 0 {
		return v
	}
	return v + (align - rem)
}

// Add appends a field of count elements of elemSize bytes, aligned to
// elemSize, and returns it.
func (b *Builder) Add(name string, elemSize, count uint32) Field {
	b.cursor = alignUp(b.cursor, elemSize)
	f := Field{Name: name, Offset: b.cursor, ElemSize: elemSize, Count: count}
	b.cursor += elemSize * count
	b.fields = append(b.fields, f)
	return f
}

// Fields returns every field added so far, in layout order.
func (b *Builder) Fields() []Field { return b.fields }

// Size returns the struct's total size, padded to an 8-byte (pointer/
// double) boundary.
func (b *Builder) Size() uint32 { return alignUp(b.cursor, SizePtr) }

// NumGivenWords returns how many 32-bit words are needed to hold a
// param_given bitfield over n parameters.
func NumGivenWords(n int) uint32 { return uint32((n + WordBits - 1) / WordBits) }

// InstanceLayout is the per-instance struct: a bitfield of given-flags,
// the host-owned Jacobian pointer tables, the node mapping, collapse-pair
// flags, temperature/ports, limit-state slot indices, and three
// variable-length trailing regions (user params, cache slots, eval output
// slots), per spec.md §4.F.
type InstanceLayout struct {
	ParamGivenBits     Field
	JacobianPtrResist  Field
	JacobianPtrReact   Field
	NodeMapping        Field
	CollapsedPairFlags Field
	Temperature        Field
	ConnectedPorts     Field
	LimStateIdx        Field
	UserParams         Field
	CacheSlots         Field
	EvalOutputSlots    Field
	Size               uint32
}

// InstanceCounts is the per-module sizing input to BuildInstanceLayout.
type InstanceCounts struct {
	NumParams         int
	NumJacobian       int
	NumUnknowns       int
	NumCollapsePairs  int
	NumLimStates      int
	NumUserParams     int
	NumCacheSlots     int
	NumEvalOutputSlots int
}

// BuildInstanceLayout computes the instance struct layout for one module.
func BuildInstanceLayout(c InstanceCounts) *InstanceLayout {
	b := NewBuilder()
	il := &InstanceLayout{
		ParamGivenBits:     b.Add("param_given_bits", SizeU32, NumGivenWords(c.NumParams)),
		JacobianPtrResist:  b.Add("jacobian_ptr_resist", SizePtr, uint32(c.NumJacobian)),
		JacobianPtrReact:   b.Add("jacobian_ptr_react", SizePtr, uint32(c.NumJacobian)),
		NodeMapping:        b.Add("node_mapping", SizeU32, uint32(c.NumUnknowns)),
		CollapsedPairFlags: b.Add("collapsed_pair_flags", SizeU32, uint32(c.NumCollapsePairs)),
		Temperature:        b.Add("temperature", SizeF64, 1),
		ConnectedPorts:     b.Add("connected_ports", SizeU32, 1),
		LimStateIdx:        b.Add("lim_state_idx", SizeU32, uint32(c.NumLimStates)),
		UserParams:         b.Add("user_params", SizeF64, uint32(c.NumUserParams)),
		CacheSlots:         b.Add("cache_slots", SizeF64, uint32(c.NumCacheSlots)),
		EvalOutputSlots:    b.Add("eval_output_slots", SizeF64, uint32(c.NumEvalOutputSlots)),
	}
	il.Size = b.Size()
	return il
}

// ModelLayout is the per-model struct: a given-bit vector covering model
// parameters *and* instance parameters (instance bits start at index
// NumModelParams), the model parameter values, and the instance parameter
// defaults copied into each instance at setup_instance time.
type ModelLayout struct {
	ParamGivenBits         Field
	ModelParams            Field
	InstanceParamDefaults  Field
	NumModelParams         int
	Size                   uint32
}

// BuildModelLayout computes the model struct layout for one module.
func BuildModelLayout(numModelParams, numInstanceParams int) *ModelLayout {
	b := NewBuilder()
	ml := &ModelLayout{
		ParamGivenBits:        b.Add("param_given_bits", SizeU32, NumGivenWords(numModelParams+numInstanceParams)),
		ModelParams:           b.Add("model_params", SizeF64, uint32(numModelParams)),
		InstanceParamDefaults: b.Add("instance_param_defaults", SizeF64, uint32(numInstanceParams)),
		NumModelParams:        numModelParams,
	}
	ml.Size = b.Size()
	return ml
}

// InstanceParamGivenIndex returns the bit index of instance parameter i
// within the Model struct's shared given-bit vector, per spec.md §4.F:
// "instance bits are indexed self.params.len() + i".
func (ml *ModelLayout) InstanceParamGivenIndex(i int) int { return ml.NumModelParams + i }
