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

// Package hirintern is the bridge table between a module's HIR and its
// MIR functions: a map from ParamKind (every environmental input the
// generated function depends on — parameters, voltages, currents,
// temperature, abstime, port-connected tests, enable bits, limit state)
// to the MIR value binding it, an output table from PlaceKind (variables,
// function returns, bound-step, collapse hints) to the value the function
// materializes for it, the set of callback kinds the function's Call
// instructions reference, and the limit-state table.
//
// Interning a kind twice yields the same MIR parameter, so each
// environmental input occupies exactly one slot of the function's
// parameter vector; the slot order is the interning order and is what
// codegen's parameter binding iterates over.
package hirintern

import (
	"sort"

	"github.com/vacomp/vacomp/pkg/dae"
	"github.com/vacomp/vacomp/pkg/mir"
)

// ParamKind tags one environmental input of a generated function. Closed
// sum; every variant is a comparable struct so kinds serve directly as
// interning keys.
type ParamKind interface{ isParamKind() }

// PKParam is a user-declared parameter, routed instance-then-model at
// bind time.
type PKParam struct{ ID uint32 }

// PKVoltage is the branch voltage between two unknowns; HasLo is false
// for a ground-referenced probe.
type PKVoltage struct {
	Hi    dae.UnknownID
	Lo    dae.UnknownID
	HasLo bool
}

// PKCurrent is a port-branch current probe. It binds to zero at eval
// time: the host supplies no port-current column.
type PKCurrent struct{ Port dae.UnknownID }

// PKTemperature is the instance temperature installed by setup_instance.
type PKTemperature struct{}

// PKAbstime is the simulator's absolute time, read from sim_info.
type PKAbstime struct{}

// PKPortConnected tests whether terminal Node was connected by the
// netlist, read from the instance's connected_ports word.
type PKPortConnected struct{ Node dae.UnknownID }

// PKEnableIntegration is true when the call should honor ddt
// contributions: reactive-Jacobian requested and not an IC analysis.
type PKEnableIntegration struct{}

// PKEnableLim is true when the host enabled limiting for this call.
type PKEnableLim struct{}

// PKPrevState / PKNewState read limit state State from the previous /
// next state vector through the instance's lim_state_idx table.
type PKPrevState struct{ State uint32 }

// PKNewState is PKPrevState's counterpart for the next state vector.
type PKNewState struct{ State uint32 }

// PKImplicitUnknown is the previous-iteration value of implicit equation
// Equation's unknown.
type PKImplicitUnknown struct{ Equation uint32 }

// PKParamSysFun is a $simparam-style query, answered by the host's
// simparam table at bind time.
type PKParamSysFun struct{ Name string }

func (PKParam) isParamKind()             {}
func (PKVoltage) isParamKind()           {}
func (PKCurrent) isParamKind()           {}
func (PKTemperature) isParamKind()       {}
func (PKAbstime) isParamKind()           {}
func (PKPortConnected) isParamKind()     {}
func (PKEnableIntegration) isParamKind() {}
func (PKEnableLim) isParamKind()         {}
func (PKPrevState) isParamKind()         {}
func (PKNewState) isParamKind()          {}
func (PKImplicitUnknown) isParamKind()   {}
func (PKParamSysFun) isParamKind()       {}

// TypeOf returns the MIR type a kind binds as: Bool for the connectivity
// and enable tests, Real for everything else.
func TypeOf(kind ParamKind) mir.Type {
	switch kind.(type) {
	case PKPortConnected, PKEnableIntegration, PKEnableLim:
		return mir.TyBool
	default:
		return mir.TyReal
	}
}

// PlaceKind tags one output the generated function materializes.
type PlaceKind interface{ isPlaceKind() }

// PlaceVar is a module-level variable's final value.
type PlaceVar struct{ ID uint32 }

// PlaceFunctionReturn is an analog user function's return value.
type PlaceFunctionReturn struct{ ID uint32 }

// PlaceBoundStep is the $bound_step ceiling the module requested.
type PlaceBoundStep struct{}

// PlaceCollapseImplicitEquation is the runtime condition under which
// collapse pair Pair should be hinted collapsed.
type PlaceCollapseImplicitEquation struct{ Pair uint32 }

func (PlaceVar) isPlaceKind()                     {}
func (PlaceFunctionReturn) isPlaceKind()          {}
func (PlaceBoundStep) isPlaceKind()               {}
func (PlaceCollapseImplicitEquation) isPlaceKind() {}

// LimState is one entry of the limit-state table: the probed value a
// limiting call tracks across Newton iterations. Its index is the State
// field PKPrevState/PKNewState refer to, and the slot lim_state_idx maps
// into the host's state vectors.
type LimState struct {
	Probe mir.Value
}

// Interner owns one function's environmental-input and output tables.
type Interner struct {
	f *mir.Function

	params    []ParamKind
	paramVals []mir.Value
	paramIdx  map[ParamKind]mir.Param

	outputs     map[PlaceKind]mir.Value
	outputOrder []PlaceKind

	callbacks map[mir.CallBackKind]struct{}
	limStates []LimState
}

// New creates an interner over f. Kinds interned here append to
// f.ParamTypes, so f should not have parameters bound through any other
// channel.
func New(f *mir.Function) *Interner {
	return &Interner{
		f:         f,
		paramIdx:  make(map[ParamKind]mir.Param),
		outputs:   make(map[PlaceKind]mir.Value),
		callbacks: make(map[mir.CallBackKind]struct{}),
	}
}

// Param returns the MIR value bound to kind, allocating a fresh function
// parameter the first time kind is seen. Interning is idempotent: the
// same kind always yields the same value.
func (it *Interner) Param(kind ParamKind) mir.Value {
	if p, ok := it.paramIdx[kind]; ok {
		return it.paramVals[p]
	}
	p := mir.Param(len(it.params))
	it.f.ParamTypes = append(it.f.ParamTypes, TypeOf(kind))
	v := it.f.DFG.MakeParam(p, TypeOf(kind))
	it.params = append(it.params, kind)
	it.paramVals = append(it.paramVals, v)
	it.paramIdx[kind] = p
	return v
}

// ParamValue returns the value kind was interned as, if it was.
func (it *Interner) ParamValue(kind ParamKind) (mir.Value, bool) {
	p, ok := it.paramIdx[kind]
	if !ok {
		return mir.InvalidValue, false
	}
	return it.paramVals[p], true
}

// Params returns the interned kinds in slot order, index-aligned with
// the function's parameter vector.
func (it *Interner) Params() []ParamKind { return it.params }

// NumParams returns how many distinct kinds have been interned.
func (it *Interner) NumParams() int { return len(it.params) }

// DefineOutput records v as the value the function materializes for
// place, replacing any earlier definition (the last write of a variable
// wins, matching SSA's final-value semantics at the exit block).
func (it *Interner) DefineOutput(place PlaceKind, v mir.Value) {
	if _, seen := it.outputs[place]; !seen {
		it.outputOrder = append(it.outputOrder, place)
	}
	it.outputs[place] = v
}

// Output returns the value defined for place, if any.
func (it *Interner) Output(place PlaceKind) (mir.Value, bool) {
	v, ok := it.outputs[place]
	if !ok {
		return mir.InvalidValue, false
	}
	return v, true
}

// Outputs returns every defined place in first-definition order.
func (it *Interner) Outputs() []PlaceKind { return it.outputOrder }

// NoteCallback records that the function's body references a callback
// kind; codegen consults this set to decide which host hooks the
// emitted function must be linked against.
func (it *Interner) NoteCallback(kind mir.CallBackKind) {
	it.callbacks[kind] = struct{}{}
}

// HasCallback reports whether kind was noted.
func (it *Interner) HasCallback(kind mir.CallBackKind) bool {
	_, ok := it.callbacks[kind]
	return ok
}

// Callbacks returns the noted kinds in ascending order.
func (it *Interner) Callbacks() []mir.CallBackKind {
	out := make([]mir.CallBackKind, 0, len(it.callbacks))
	for k := range it.callbacks {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AddLimState appends one limit-state entry and returns its index — the
// State a PKPrevState/PKNewState interning should carry.
func (it *Interner) AddLimState(probe mir.Value) uint32 {
	it.limStates = append(it.limStates, LimState{Probe: probe})
	return uint32(len(it.limStates) - 1)
}

// LimStates returns the limit-state table in registration order.
func (it *Interner) LimStates() []LimState { return it.limStates }
