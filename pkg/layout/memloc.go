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
package layout

// MemLoc is a relocatable accessor into a struct field: the IR builder
// defers the GEP-plus-load this implies until codegen actually needs the
// value, mirroring spec.md §4.F's `param_loc`. Index selects one element
// of a repeated field (e.g. the k-th user param); it is always 0 for a
// scalar field.
type MemLoc struct {
	Field Field
	Index uint32
}

// ByteOffset returns the absolute byte offset of this location within its
// struct.
func (l MemLoc) ByteOffset() uint32 {
	return l.Field.Offset + l.Index*l.Field.ElemSize
}

// NthParamPtr returns the MemLoc of instance parameter i: a pointer into
// InstanceLayout.UserParams, the parallel accessor to `nth_param_ptr` in
// spec.md §4.F.
func (il *InstanceLayout) NthParamPtr(i int) MemLoc {
	return MemLoc{Field: il.UserParams, Index: uint32(i)}
}

// NthModelParamPtr returns the MemLoc of model parameter i within the
// Model struct.
func (ml *ModelLayout) NthModelParamPtr(i int) MemLoc {
	return MemLoc{Field: ml.ModelParams, Index: uint32(i)}
}

// NthInstanceDefaultPtr returns the MemLoc of instance parameter i's
// default value, stored in the Model struct.
func (ml *ModelLayout) NthInstanceDefaultPtr(i int) MemLoc {
	return MemLoc{Field: ml.InstanceParamDefaults, Index: uint32(i)}
}

// CacheSlot returns the MemLoc of cache slot i.
func (il *InstanceLayout) CacheSlot(i int) MemLoc {
	return MemLoc{Field: il.CacheSlots, Index: uint32(i)}
}

// EvalOutputSlot returns the MemLoc of eval-output slot i.
func (il *InstanceLayout) EvalOutputSlot(i int) MemLoc {
	return MemLoc{Field: il.EvalOutputSlots, Index: uint32(i)}
}

// JacobianPtrResistLoc returns the MemLoc of the host-provided destination
// pointer for Jacobian entry i's resistive half.
func (il *InstanceLayout) JacobianPtrResistLoc(i int) MemLoc {
	return MemLoc{Field: il.JacobianPtrResist, Index: uint32(i)}
}

// JacobianPtrReactLoc returns the MemLoc of the host-provided destination
// pointer for Jacobian entry i's reactive half.
func (il *InstanceLayout) JacobianPtrReactLoc(i int) MemLoc {
	return MemLoc{Field: il.JacobianPtrReact, Index: uint32(i)}
}

// NodeMappingLoc returns the MemLoc of unknown k's solution-vector index.
func (il *InstanceLayout) NodeMappingLoc(k int) MemLoc {
	return MemLoc{Field: il.NodeMapping, Index: uint32(k)}
}

// CollapsedPairFlagLoc returns the MemLoc of collapse pair p's flag.
func (il *InstanceLayout) CollapsedPairFlagLoc(p int) MemLoc {
	return MemLoc{Field: il.CollapsedPairFlags, Index: uint32(p)}
}

// LimStateLoc returns the MemLoc of lim_state_idx[s]: the host-assigned
// index of limit state s in the simulator's prev_state/next_state vectors.
func (il *InstanceLayout) LimStateLoc(s int) MemLoc {
	return MemLoc{Field: il.LimStateIdx, Index: uint32(s)}
}
