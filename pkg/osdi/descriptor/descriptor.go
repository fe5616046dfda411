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

// Package descriptor emits OSDI 0.4's OSDI_DESCRIPTORS binary table:
// component H, the final link between a compiled module's data layout
// (pkg/layout) and DAE system (pkg/dae) and the ABI a host simulator
// reads. Every offset field is read directly out of the layout.Field the
// struct builder produced, so descriptor-offset correctness holds by
// construction rather than by an independent recomputation that could
// drift.
package descriptor

import (
	"bytes"
	"encoding/binary"

	"github.com/vacomp/vacomp/pkg/dae"
	"github.com/vacomp/vacomp/pkg/intern"
	"github.com/vacomp/vacomp/pkg/layout"
	"github.com/vacomp/vacomp/pkg/natdisc"
	"github.com/vacomp/vacomp/pkg/osdi/abi"
	"github.com/vacomp/vacomp/pkg/osdi/codegen"
	"github.com/vacomp/vacomp/pkg/vacfg"
)

// JacobianDescriptor is one Jacobian entry's descriptor row: its matrix
// position, the dense reactive-pointer-table offset assigned by pkg/dae
// (abi.AbsentOffset when the entry has no reactive half), and the
// RESIST|REACT|RESIST_CONST|REACT_CONST flag bits describing which halves
// are present and whether they are compile-time constants.
type JacobianDescriptor struct {
	Row, Col    uint32
	ReactPtrOff uint32
	Flags       abi.JacobianEntryFlag
}

// NodeDescriptor is one unknown's descriptor row: its descriptive name and
// units, whether it is a flow (current-like) or potential (voltage-like)
// quantity, and the eval_output_slots byte offsets of its resistive and
// reactive residual and limit-rhs values.
type NodeDescriptor struct {
	Name          intern.StringID
	Units         intern.StringID
	ResidualUnits intern.StringID
	IsFlow        bool

	ResistResidualOff uint32
	ReactResidualOff  uint32
	ResistLimRHSOff   uint32
	ReactLimRHSOff    uint32
}

// CollapsiblePairDescriptor is one pair of unknowns a $collapse call may
// merge at runtime, addressed by the same pair id InstanceLayout's
// collapsed_pair_flags and codegen.MarkCollapsed use.
type CollapsiblePairDescriptor struct {
	A, B uint32
}

// InputDescriptor is one (hi, lo) pair the generated eval function reads
// as a driving input, taken verbatim from dae.DaeSystem.ModelInputs.
type InputDescriptor struct {
	Hi, Lo uint32
}

// NoiseSourceDescriptor is one noise source's static metadata: its name,
// the kind of noise model it reports (mirroring dae.NoiseSourceKind), and
// the unknowns it spans. Lo is abi.AbsentOffset when the source is
// referenced to ground.
type NoiseSourceDescriptor struct {
	Name intern.StringID
	Kind uint32 // 0 = white, 1 = flicker, 2 = table
	Hi   uint32
	Lo   uint32
}

const (
	NoiseKindWhite uint32 = iota
	NoiseKindFlicker
	NoiseKindTable
)

// ModuleDescriptor is the emitted per-module descriptor: every offset and
// every piece of static metadata a host simulator needs to drive
// access/eval/load_* against one compiled module, per spec.md §4.H.
type ModuleDescriptor struct {
	Name         string
	VersionMajor uint32
	VersionMinor uint32

	// Sym is the module's symbol suffix: a base-36, case-insensitive
	// encoding of the 128-bit UUID derived from the module's name and
	// source text. Symbols lists every exported per-module C symbol
	// ("<base>_<Sym>") in contract order. Both describe the object
	// file's export surface rather than instance memory, so Encode's
	// binary blob does not carry them.
	Sym     string
	Symbols []string

	NumNodes             int
	NumTerminals         int
	NodeMappingOffset    uint32
	JacobianPtrResistOff uint32
	JacobianPtrReactOff  uint32
	CollapsedOffset      uint32
	BoundStepOffset      uint32
	StateIdxOffset       uint32
	InstanceSize         uint32
	ModelSize            uint32
	// DescriptorSize is the byte length Encode will produce for this
	// descriptor, computed the same way a host reads OSDI_DESCRIPTOR_SIZE
	// before ever calling access() — up front, from counts alone.
	DescriptorSize uint32

	Nodes            []NodeDescriptor
	Jacobian         []JacobianDescriptor
	CollapsiblePairs []CollapsiblePairDescriptor
	Inputs           []InputDescriptor
	NoiseSources     []NoiseSourceDescriptor

	ParamsInstance []codegen.ParamDescriptor
	ParamsModel    []codegen.ParamDescriptor
	Opvars         []codegen.ParamDescriptor

	// Natures/Disciplines/Attributes mirror OSDI_NATURES/OSDI_DISCIPLINES/
	// OSDI_ATTRIBUTES: the module-level nature/discipline/attribute table
	// (component B), passed through from pkg/natdisc unchanged.
	Natures     []natdisc.Nature
	Disciplines []natdisc.Discipline
	Attributes  []natdisc.Attribute

	// LimTable names OSDI_LIM_TABLE's entries: the limiting functions this
	// module's eval may call through mireval.Callbacks.Limit.
	LimTable []string

	// LogSlotPresent marks that the module declares a writable osdi_log
	// function-pointer slot a host simulator fills in before calling any
	// exported function.
	LogSlotPresent bool
}

// BuildInput bundles Build's growing parameter list the way
// compile.ModuleInput bundles CompileModule's: one struct per module
// instead of a positional-argument list that keeps growing.
type BuildInput struct {
	Name string

	// Source is the module's source text, folded with Name into the
	// 128-bit UUID the symbol suffix encodes. May be nil: the suffix is
	// then a function of the name alone.
	Source []byte

	InstanceLayout *layout.InstanceLayout
	ModelLayout    *layout.ModelLayout
	Sys            *dae.DaeSystem
	BoundStepSlot  int // -1 if the module has no $bound_step call

	// ResistLimRHSBase/ReactLimRHSBase select the base eval_output_slots
	// index the dense per-unknown limit-rhs slots start at; -1 if this
	// module declares no limiting (no slots were reserved for them).
	ResistLimRHSBase int
	ReactLimRHSBase  int

	// Params is the flattened instance/model/opvar parameter table (nil
	// for a module with no parameters at all, though every real module
	// declares at least its instance/model regions).
	Params *codegen.ParamTable

	// Natures is the module's nature/discipline/attribute table (nil if
	// the module declares none, which never happens for real Verilog-A
	// but is accepted so descriptor.Build never panics on a partial
	// fixture).
	Natures *natdisc.Table

	LimTable []string

	// NodeNames/NodeUnits/NodeResidualUnits/NodeIsFlow are parallel to
	// Sys.Unknowns; any of them may be nil, leaving that field zero-valued
	// for every node.
	NodeNames         []intern.StringID
	NodeUnits         []intern.StringID
	NodeResidualUnits []intern.StringID
	NodeIsFlow        []bool

	LogSlotPresent bool
}

// Build assembles a ModuleDescriptor from in. A big-endian target is an
// invariant violation (property 10): OSDI 0.4 descriptors are defined
// little-endian only, so Build panics rather than returning an error a
// caller might be tempted to swallow.
func Build(cfg vacfg.Config, in BuildInput) (*ModuleDescriptor, error) {
	if cfg.Endian == vacfg.BigEndian {
		panic("descriptor: target is big-endian; OSDI 0.4 descriptors are little-endian only")
	}

	il, ml, sys := in.InstanceLayout, in.ModelLayout, in.Sys

	sym := abi.SymbolSuffix(abi.ModuleUUID(in.Name, in.Source))

	d := &ModuleDescriptor{
		Name:                 in.Name,
		Sym:                  sym,
		Symbols:              abi.ExportedSymbols(sym),
		VersionMajor:         cfg.OSDIMajor,
		VersionMinor:         cfg.OSDIMinor,
		NumNodes:             len(sys.Unknowns),
		NumTerminals:         countTerminals(sys),
		NodeMappingOffset:    il.NodeMapping.Offset,
		JacobianPtrResistOff: il.JacobianPtrResist.Offset,
		JacobianPtrReactOff:  il.JacobianPtrReact.Offset,
		CollapsedOffset:      il.CollapsedPairFlags.Offset,
		InstanceSize:         il.Size,
		ModelSize:            ml.Size,
		LimTable:             in.LimTable,
		LogSlotPresent:       in.LogSlotPresent,
	}
	if in.BoundStepSlot >= 0 {
		d.BoundStepOffset = il.EvalOutputSlot(in.BoundStepSlot).ByteOffset()
	} else {
		d.BoundStepOffset = abi.AbsentOffset
	}
	if il.LimStateIdx.Count > 0 {
		d.StateIdxOffset = il.LimStateLoc(0).ByteOffset()
	} else {
		d.StateIdxOffset = abi.AbsentOffset
	}

	// Every unknown gets a resist and a react output slot. Unlike the
	// Jacobian's reactive half (property 3), residual slots are not
	// zero-skipped: eval always writes both halves for every unknown, so
	// the slot assignment is dense and positional rather than conditional.
	// The limit-rhs halves follow the same dense convention, in a second
	// region of eval_output_slots the caller reserves separately.
	d.Nodes = make([]NodeDescriptor, len(sys.Unknowns))
	for u := range sys.Unknowns {
		nd := NodeDescriptor{
			ResistResidualOff: il.EvalOutputSlot(2 * u).ByteOffset(),
			ReactResidualOff:  il.EvalOutputSlot(2*u + 1).ByteOffset(),
			ResistLimRHSOff:   abi.AbsentOffset,
			ReactLimRHSOff:    abi.AbsentOffset,
		}
		if in.ResistLimRHSBase >= 0 {
			nd.ResistLimRHSOff = il.EvalOutputSlot(in.ResistLimRHSBase + 2*u).ByteOffset()
		}
		if in.ReactLimRHSBase >= 0 {
			nd.ReactLimRHSOff = il.EvalOutputSlot(in.ReactLimRHSBase + 2*u + 1).ByteOffset()
		}
		if in.NodeNames != nil && u < len(in.NodeNames) {
			nd.Name = in.NodeNames[u]
		}
		if in.NodeUnits != nil && u < len(in.NodeUnits) {
			nd.Units = in.NodeUnits[u]
		}
		if in.NodeResidualUnits != nil && u < len(in.NodeResidualUnits) {
			nd.ResidualUnits = in.NodeResidualUnits[u]
		}
		nd.IsFlow = sys.Residual[u].NatureKind == dae.ResidualFlow
		if in.NodeIsFlow != nil && u < len(in.NodeIsFlow) {
			nd.IsFlow = in.NodeIsFlow[u]
		}
		d.Nodes[u] = nd
	}

	d.Jacobian = make([]JacobianDescriptor, len(sys.Jacobian))
	for i, e := range sys.Jacobian {
		jd := JacobianDescriptor{Row: uint32(e.Row), Col: uint32(e.Col), ReactPtrOff: abi.AbsentOffset}
		if e.HasResist {
			jd.Flags |= abi.JacobianEntryResist
			if sys.IsConstValue(e.Resist) {
				jd.Flags |= abi.JacobianEntryResistConst
			}
		}
		if e.HasReactOff {
			jd.ReactPtrOff = e.ReactOff
			jd.Flags |= abi.JacobianEntryReact
			if sys.IsConstValue(e.React) {
				jd.Flags |= abi.JacobianEntryReactConst
			}
		}
		d.Jacobian[i] = jd
	}

	d.CollapsiblePairs = make([]CollapsiblePairDescriptor, len(sys.CollapsiblePairs))
	for i, p := range sys.CollapsiblePairs {
		d.CollapsiblePairs[i] = CollapsiblePairDescriptor{A: uint32(p[0]), B: uint32(p[1])}
	}

	d.Inputs = make([]InputDescriptor, len(sys.ModelInputs))
	for i, in := range sys.ModelInputs {
		d.Inputs[i] = InputDescriptor{Hi: uint32(in[0]), Lo: uint32(in[1])}
	}

	d.NoiseSources = make([]NoiseSourceDescriptor, len(sys.NoiseSources))
	for i, ns := range sys.NoiseSources {
		nsd := NoiseSourceDescriptor{Name: ns.Name, Hi: uint32(ns.Hi), Lo: abi.AbsentOffset}
		if ns.Lo != nil {
			nsd.Lo = uint32(*ns.Lo)
		}
		switch ns.Kind.(type) {
		case dae.WhiteNoise:
			nsd.Kind = NoiseKindWhite
		case dae.FlickerNoise:
			nsd.Kind = NoiseKindFlicker
		case dae.NoiseTable:
			nsd.Kind = NoiseKindTable
		}
		d.NoiseSources[i] = nsd
	}

	if in.Params != nil {
		d.ParamsInstance = in.Params.Instance
		d.ParamsModel = in.Params.Model
		d.Opvars = in.Params.Opvar
	}

	if in.Natures != nil {
		d.Natures = in.Natures.Natures
		d.Disciplines = in.Natures.Disciplines
		d.Attributes = in.Natures.Attributes
	}

	d.DescriptorSize = computeDescriptorSize(d)

	return d, nil
}

// countTerminals counts the unknowns that are node-like (KirchoffLaw or
// CurrentPort), the OSDI sense of "terminal" as distinct from internal
// branch/implicit unknowns.
func countTerminals(sys *dae.DaeSystem) int {
	n := 0
	for _, u := range sys.Unknowns {
		switch u.Kind.(type) {
		case dae.KirchoffLaw, dae.CurrentPort:
			n++
		}
	}
	return n
}

// computeDescriptorSize predicts Encode's output length from d's counts
// alone, without actually encoding — mirroring how a host simulator reads
// OSDI_DESCRIPTOR_SIZE before ever calling access(). It must be kept in
// lockstep with Encode's field list.
func computeDescriptorSize(d *ModuleDescriptor) uint32 {
	const u32 = 4
	size := uint32(0)
	size += 14 * u32 // fixed header scalars, see Encode
	size += uint32(len(d.Nodes)) * (8 * u32) // name/units/residual_units/is_flow + 4 residual/lim-rhs offsets
	size += uint32(len(d.Jacobian)) * (4 * u32) // row/col/react_off/flags
	size += uint32(len(d.CollapsiblePairs)) * (2 * u32)
	size += uint32(len(d.Inputs)) * (2 * u32)
	size += uint32(len(d.NoiseSources)) * (4 * u32)
	return size
}

// Encode serializes d as a little-endian binary blob: a fixed header
// followed by the node, Jacobian, collapsible-pair, input and noise-source
// descriptor rows, mirroring OSDI's flat C struct-array layout. cfg is
// re-checked for endianness so a caller cannot bypass the guard by calling
// Encode directly; like Build, the big-endian case panics.
//
// Natures/Disciplines/Attributes/ParamsInstance/ParamsModel/Opvars/
// LimTable carry variable-width string and union payloads (interned
// strings, fr.Element literals) that this flat uint32 encoder does not
// serialize; they are available to a caller that wants to assemble the
// full OSDI_NATURES/OSDI_ATTRIBUTES/parameter tables by walking d directly
// instead of through Encode's byte blob.
func Encode(cfg vacfg.Config, d *ModuleDescriptor) ([]byte, error) {
	if cfg.Endian == vacfg.BigEndian {
		panic("descriptor: target is big-endian; OSDI 0.4 descriptors are little-endian only")
	}

	var buf bytes.Buffer
	fields := []uint32{
		uint32(d.NumNodes),
		d.NodeMappingOffset,
		d.JacobianPtrResistOff,
		d.JacobianPtrReactOff,
		d.CollapsedOffset,
		d.BoundStepOffset,
		d.InstanceSize,
		d.ModelSize,
		uint32(len(d.Nodes)),
		uint32(len(d.Jacobian)),
		uint32(len(d.CollapsiblePairs)),
		uint32(len(d.Inputs)),
		uint32(len(d.NoiseSources)),
		d.StateIdxOffset,
	}
	for _, v := range fields {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			return nil, err
		}
	}
	for _, n := range d.Nodes {
		binary.Write(&buf, binary.LittleEndian, uint32(n.Name))
		binary.Write(&buf, binary.LittleEndian, uint32(n.Units))
		binary.Write(&buf, binary.LittleEndian, uint32(n.ResidualUnits))
		binary.Write(&buf, binary.LittleEndian, boolToU32(n.IsFlow))
		binary.Write(&buf, binary.LittleEndian, n.ResistResidualOff)
		binary.Write(&buf, binary.LittleEndian, n.ReactResidualOff)
		binary.Write(&buf, binary.LittleEndian, n.ResistLimRHSOff)
		binary.Write(&buf, binary.LittleEndian, n.ReactLimRHSOff)
	}
	for _, j := range d.Jacobian {
		binary.Write(&buf, binary.LittleEndian, j.Row)
		binary.Write(&buf, binary.LittleEndian, j.Col)
		binary.Write(&buf, binary.LittleEndian, j.ReactPtrOff)
		binary.Write(&buf, binary.LittleEndian, uint32(j.Flags))
	}
	for _, p := range d.CollapsiblePairs {
		binary.Write(&buf, binary.LittleEndian, p.A)
		binary.Write(&buf, binary.LittleEndian, p.B)
	}
	for _, in := range d.Inputs {
		binary.Write(&buf, binary.LittleEndian, in.Hi)
		binary.Write(&buf, binary.LittleEndian, in.Lo)
	}
	for _, ns := range d.NoiseSources {
		binary.Write(&buf, binary.LittleEndian, uint32(ns.Name))
		binary.Write(&buf, binary.LittleEndian, ns.Kind)
		binary.Write(&buf, binary.LittleEndian, ns.Hi)
		binary.Write(&buf, binary.LittleEndian, ns.Lo)
	}
	return buf.Bytes(), nil
}

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
