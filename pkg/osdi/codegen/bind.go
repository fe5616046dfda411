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
package codegen

import (
	"fmt"

	"github.com/vacomp/vacomp/pkg/dae"
	"github.com/vacomp/vacomp/pkg/hirintern"
	"github.com/vacomp/vacomp/pkg/mir"
	"github.com/vacomp/vacomp/pkg/osdi/abi"
)

// EvalBindings supplies the per-instance state BindEvalParams routes
// environmental inputs through: the instance-then-model parameter
// lookup, the node mapping, and the slots setup_instance installed.
type EvalBindings struct {
	// ParamValue resolves a user parameter id to its eval-time value
	// (the instance value when given, the model default otherwise —
	// setup_instance has already collapsed the two regions by the time
	// eval runs).
	ParamValue func(id uint32) (mir.Const, bool)

	NodeMapping    map[dae.UnknownID]int
	Temperature    float64
	ConnectedPorts uint32
	LimStateIdx    []uint32

	// ImplicitUnknownID maps an implicit equation id to the UnknownID the
	// DAE builder registered for it (registration order, not equation
	// order, so the two id spaces are distinct).
	ImplicitUnknownID func(eq uint32) (dae.UnknownID, bool)
}

// BindEvalParams computes eval's parameter vector from the interner's
// environmental-input table, one slot per interned kind, following
// spec.md §4.G's routing exactly: a Param goes instance-then-model; a
// Voltage reads prev_solution[node_off(hi)] - prev_solution[node_off(lo)]
// (lo omitted for a ground reference); a port Current binds zero;
// Abstime/Temperature come from sim_info and the instance;
// EnableIntegration is (flags has CALC_REACT_JACOBIAN) and not
// (flags has ANALYSIS_IC); EnableLim is (flags has ENABLE_LIM);
// Prev/NewState index into prev_state/next_state through lim_state_idx;
// PortConnected tests the instance's connected_ports bit; a ParamSysFun
// is answered from the host's simparam table (zero when absent, the
// host's own convention for an unset simparam).
func BindEvalParams(it *hirintern.Interner, sim SimInfo, b EvalBindings) ([]mir.Const, error) {
	kinds := it.Params()
	out := make([]mir.Const, len(kinds))
	for i, kind := range kinds {
		c, err := bindOne(kind, sim, b)
		if err != nil {
			return nil, fmt.Errorf("codegen: bind eval param %d: %w", i, err)
		}
		out[i] = c
	}
	return out, nil
}

func bindOne(kind hirintern.ParamKind, sim SimInfo, b EvalBindings) (mir.Const, error) {
	real1 := func(f float64) mir.Const { return mir.Const{Ty: mir.TyReal, F: f} }
	bool1 := func(v bool) mir.Const { return mir.Const{Ty: mir.TyBool, B: v} }

	switch k := kind.(type) {
	case hirintern.PKParam:
		if b.ParamValue == nil {
			return mir.Const{}, fmt.Errorf("parameter %d bound with no ParamValue lookup", k.ID)
		}
		c, ok := b.ParamValue(k.ID)
		if !ok {
			return mir.Const{}, fmt.Errorf("parameter %d has no value", k.ID)
		}
		return c, nil

	case hirintern.PKVoltage:
		hi, err := solutionAt(sim, b, k.Hi)
		if err != nil {
			return mir.Const{}, err
		}
		if !k.HasLo {
			return real1(hi), nil
		}
		lo, err := solutionAt(sim, b, k.Lo)
		if err != nil {
			return mir.Const{}, err
		}
		return real1(hi - lo), nil

	case hirintern.PKCurrent:
		return real1(0), nil

	case hirintern.PKTemperature:
		return real1(b.Temperature), nil

	case hirintern.PKAbstime:
		return real1(sim.Abstime), nil

	case hirintern.PKPortConnected:
		return bool1(b.ConnectedPorts&(1<<uint(k.Node)) != 0), nil

	case hirintern.PKEnableIntegration:
		enabled := sim.Flags&abi.FlagCalcReactJacobian != 0 && sim.Flags&abi.FlagAnalysisIC == 0
		return bool1(enabled), nil

	case hirintern.PKEnableLim:
		return bool1(sim.Flags&abi.FlagEnableLim != 0), nil

	case hirintern.PKPrevState:
		return stateAt(sim.PrevState, b.LimStateIdx, k.State, "prev_state")

	case hirintern.PKNewState:
		return stateAt(sim.NextState, b.LimStateIdx, k.State, "next_state")

	case hirintern.PKImplicitUnknown:
		if b.ImplicitUnknownID == nil {
			return mir.Const{}, fmt.Errorf("implicit equation %d bound with no ImplicitUnknownID lookup", k.Equation)
		}
		u, ok := b.ImplicitUnknownID(k.Equation)
		if !ok {
			return mir.Const{}, fmt.Errorf("implicit equation %d has no registered unknown", k.Equation)
		}
		return solutionConst(sim, b, u)

	case hirintern.PKParamSysFun:
		return real1(sim.Simparam[k.Name]), nil

	default:
		return mir.Const{}, fmt.Errorf("unhandled param kind %T", kind)
	}
}

func solutionAt(sim SimInfo, b EvalBindings, u dae.UnknownID) (float64, error) {
	off, ok := b.NodeMapping[u]
	if !ok {
		return 0, fmt.Errorf("unknown %d has no node mapping", u)
	}
	if off < 0 || off >= len(sim.PrevSolution) {
		return 0, fmt.Errorf("unknown %d maps to solution index %d, out of range", u, off)
	}
	return sim.PrevSolution[off], nil
}

func solutionConst(sim SimInfo, b EvalBindings, u dae.UnknownID) (mir.Const, error) {
	v, err := solutionAt(sim, b, u)
	if err != nil {
		return mir.Const{}, err
	}
	return mir.Const{Ty: mir.TyReal, F: v}, nil
}

func stateAt(vec []float64, idx []uint32, state uint32, name string) (mir.Const, error) {
	if int(state) >= len(idx) {
		return mir.Const{}, fmt.Errorf("limit state %d has no lim_state_idx slot", state)
	}
	slot := idx[state]
	if int(slot) >= len(vec) {
		return mir.Const{}, fmt.Errorf("limit state %d maps to %s[%d], out of range", state, name, slot)
	}
	return mir.Const{Ty: mir.TyReal, F: vec[slot]}, nil
}
