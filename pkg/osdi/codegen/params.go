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

// Package codegen implements OSDI 0.4's per-module exported functions
// (access, given_flag_*, setup_model, setup_instance, eval, load_*,
// mark_collapsed) as described in spec.md §4.G. In place of LLVM object
// emission — explicitly out of scope, consumed only as "typed
// value/builder operations, module verification, optimization and object
// emission" — these functions are implemented directly in Go over
// pkg/layout struct descriptions and executed via pkg/mireval, so the
// whole pipeline is testable without a native toolchain.
package codegen

import (
	"github.com/vacomp/vacomp/pkg/intern"
	"github.com/vacomp/vacomp/pkg/layout"
	"github.com/vacomp/vacomp/pkg/osdi/abi"
)

// ParamDescriptor is one entry of a module's flattened parameter/opvar
// table: instance parameters first, then model parameters, then opvars,
// per spec.md §4.G's id-range convention.
type ParamDescriptor struct {
	Name intern.StringID
	Kind abi.ParamKind
	Type abi.AttributeType
}

// ParamTable is the ordered, flattened id space access() and
// given_flag_* dispatch over.
type ParamTable struct {
	Instance []ParamDescriptor
	Model    []ParamDescriptor
	Opvar    []ParamDescriptor
}

// NumInstance, NumModel, NumOpvar report each region's size.
func (t *ParamTable) NumInstance() int { return len(t.Instance) }
func (t *ParamTable) NumModel() int    { return len(t.Model) }
func (t *ParamTable) NumOpvar() int    { return len(t.Opvar) }

// regionOf classifies id into one of the three id ranges, per spec.md
// §4.G: "Instance IDs are 0..#inst, model IDs are #inst..#inst+#model,
// opvar IDs are #inst+#model..".
func (t *ParamTable) regionOf(id int) (kind abi.ParamKind, localIdx int, ok bool) {
	switch {
	case id < 0:
		return 0, 0, false
	case id < t.NumInstance():
		return abi.ParamKindInst, id, true
	case id < t.NumInstance()+t.NumModel():
		return abi.ParamKindModel, id - t.NumInstance(), true
	case id < t.NumInstance()+t.NumModel()+t.NumOpvar():
		return abi.ParamKindOpvar, id - t.NumInstance() - t.NumModel(), true
	default:
		return 0, 0, false
	}
}

// Access implements access(instance, model, param_id, flags): it
// resolves param_id to a MemLoc in the instance or model struct (opvars
// resolve into the instance's eval_output_slots, since they are
// materialized there by eval), and, if AccessFlagSet is set, marks the
// parameter given. An unknown id resolves to (zero MemLoc, false) with no
// struct mutation (scenario S4).
func Access(t *ParamTable, il *layout.InstanceLayout, ml *layout.ModelLayout,
	instanceGiven, modelGiven *layout.GivenMask, opvarSlot func(localIdx int) int,
	id int, flags uint32) (layout.MemLoc, bool) {

	kind, local, ok := t.regionOf(id)
	if !ok {
		return layout.MemLoc{}, false
	}

	set := flags&abi.AccessFlagSet != 0

	switch kind {
	case abi.ParamKindInst:
		if set {
			instanceGiven.SetGiven(local)
		}
		return il.NthParamPtr(local), true
	case abi.ParamKindModel:
		if set {
			modelGiven.SetGiven(local) // model params occupy bits [0, NumModel) of the shared mask
		}
		return ml.NthModelParamPtr(local), true
	case abi.ParamKindOpvar:
		slot := local
		if opvarSlot != nil {
			slot = opvarSlot(local)
		}
		return il.EvalOutputSlot(slot), true
	default:
		return layout.MemLoc{}, false
	}
}

// GivenFlagInstance implements given_flag_instance: returns 1 iff bit id
// of instanceGiven is set, 0 for any other id including out-of-range.
func GivenFlagInstance(instanceGiven *layout.GivenMask, numInstanceParams, id int) uint32 {
	if id < 0 || id >= numInstanceParams {
		return 0
	}
	if instanceGiven.IsGiven(id) {
		return 1
	}
	return 0
}

// GivenFlagModel implements given_flag_model: returns 1 iff bit id of
// modelGiven is set, 0 for any other id including out-of-range.
func GivenFlagModel(modelGiven *layout.GivenMask, numModelParams, id int) uint32 {
	if id < 0 || id >= numModelParams {
		return 0
	}
	if modelGiven.IsGiven(id) {
		return 1
	}
	return 0
}
