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
	"github.com/vacomp/vacomp/pkg/dae"
	"github.com/vacomp/vacomp/pkg/mir"
	"github.com/vacomp/vacomp/pkg/mireval"
	"github.com/vacomp/vacomp/pkg/osdi/abi"
)

// SimInfo mirrors OSDI's sim_info struct: the subset eval needs from the
// host simulator per spec.md §4.G.
type SimInfo struct {
	Abstime      float64
	PrevSolution []float64 // indexed by node_mapping[k]
	PrevState    []float64 // indexed by lim_state_idx[s]
	NextState    []float64 // indexed by lim_state_idx[s]
	Simparam     map[string]float64
	Flags        uint32
}

// EvalResult is eval's materialized output: the residual/Jacobian values
// for this call, gated exactly as spec.md §4.G describes, plus the
// accumulated return-flags word.
type EvalResult struct {
	ResistResidual map[dae.UnknownID]float64
	ReactResidual  map[dae.UnknownID]float64
	ResistLimRHS   map[dae.UnknownID]float64
	ReactLimRHS    map[dae.UnknownID]float64
	ResistJacobian map[int]float64 // indexed by position in sys.Jacobian
	ReactJacobian  map[int]float64

	// Opvars is parallel to the opvars slice EvalModule was called with,
	// gated on CALC_OP.
	Opvars []float64
	// Noise is parallel to sys.NoiseSources, gated on CALC_NOISE: each
	// entry is that source's instantaneous power for this call.
	Noise []float64

	BoundStep    float64
	HasBoundStep bool

	RetFlags uint32
}

// EvalModule runs f (the module's eval MIR function) through mireval, then
// appends the conditional stores spec.md §4.G describes: resist/react
// residual and Jacobian (gated on CALC_RESIST/REACT_RESIDUAL/JACOBIAN),
// resist/react limit-rhs (gated on CALC_RESIST/REACT_LIM_RHS), opvars
// (gated on CALC_OP) and noise (gated on CALC_NOISE). bound_step has no
// dedicated flag in spec.md §4.G's list — it is materialized whenever the
// module declares one ($bound_step was called), independent of sim.Flags.
// Each guard is `flags & MASK != 0`; no bit the spec doesn't name is
// inspected. cached (nil for a module with no cache slots) substitutes in
// the operating-point-independent instruction results a prior
// PopulateCacheSlots pass already settled, per spec.md §3/§9, instead of
// recomputing them on every call.
func EvalModule(f *mir.Function, sys *dae.DaeSystem, params []mir.Const, cb mireval.Callbacks, sim SimInfo, opvars []mir.Value, boundStep mir.Value, hasBoundStep bool, cached map[mir.Inst]mir.Const) (*EvalResult, error) {
	ip := mireval.NewCached(f, params, cb, cached)
	env, retFlags, err := ip.Run()
	if err != nil {
		return nil, err
	}

	res := &EvalResult{
		ResistResidual: make(map[dae.UnknownID]float64),
		ReactResidual:  make(map[dae.UnknownID]float64),
		ResistLimRHS:   make(map[dae.UnknownID]float64),
		ReactLimRHS:    make(map[dae.UnknownID]float64),
		ResistJacobian: make(map[int]float64),
		ReactJacobian:  make(map[int]float64),
	}

	if sim.Flags&abi.FlagCalcResistResidual != 0 {
		for u := range sys.Unknowns {
			uid := dae.UnknownID(u)
			res.ResistResidual[uid] = mireval.Value(env, sys.Residual[u].Resist).F
		}
	}
	if sim.Flags&abi.FlagCalcReactResidual != 0 {
		for u := range sys.Unknowns {
			uid := dae.UnknownID(u)
			res.ReactResidual[uid] = mireval.Value(env, sys.Residual[u].React).F
		}
	}
	if sim.Flags&abi.FlagCalcResistLimRHS != 0 {
		for u := range sys.Unknowns {
			uid := dae.UnknownID(u)
			res.ResistLimRHS[uid] = mireval.Value(env, sys.Residual[u].ResistLimRHS).F
		}
	}
	if sim.Flags&abi.FlagCalcReactLimRHS != 0 {
		for u := range sys.Unknowns {
			uid := dae.UnknownID(u)
			res.ReactLimRHS[uid] = mireval.Value(env, sys.Residual[u].ReactLimRHS).F
		}
	}
	if sim.Flags&abi.FlagCalcResistJacobian != 0 {
		for i, e := range sys.Jacobian {
			res.ResistJacobian[i] = mireval.Value(env, e.Resist).F
		}
	}
	if sim.Flags&abi.FlagCalcReactJacobian != 0 {
		for i, e := range sys.Jacobian {
			if e.HasReactOff {
				res.ReactJacobian[i] = mireval.Value(env, e.React).F
			}
		}
	}
	if sim.Flags&abi.FlagCalcOp != 0 {
		res.Opvars = make([]float64, len(opvars))
		for i, v := range opvars {
			res.Opvars[i] = mireval.Value(env, v).F
		}
	}
	if sim.Flags&abi.FlagCalcNoise != 0 {
		res.Noise = make([]float64, len(sys.NoiseSources))
		for i, ns := range sys.NoiseSources {
			res.Noise[i] = noisePower(env, ns)
		}
	}
	if hasBoundStep {
		res.BoundStep = mireval.Value(env, boundStep).F
		res.HasBoundStep = true
	}

	res.RetFlags = retFlags
	return res, nil
}

// noisePower evaluates one noise source's instantaneous power spectral
// density, dispatching on its kind the way load_noise's backing
// computation must: white noise is its power outright, flicker noise's
// reported power ignores its exponent (a static descriptor-level field,
// not part of eval's per-call output), and a noise table reports its
// sampled value column directly.
func noisePower(env map[mir.Value]mir.Const, ns dae.NoiseSource) float64 {
	switch k := ns.Kind.(type) {
	case dae.WhiteNoise:
		return mireval.Value(env, k.Pwr).F
	case dae.FlickerNoise:
		return mireval.Value(env, k.Pwr).F
	case dae.NoiseTable:
		return mireval.Value(env, k.Values).F
	default:
		return 0
	}
}

// LoadResidualResist adds every unknown's resistive residual into rhs,
// indexed by its node mapping, per spec.md §4.G's load_residual_resist.
func LoadResidualResist(res *EvalResult, nodeMapping map[dae.UnknownID]int, rhs []float64) {
	for u, v := range res.ResistResidual {
		rhs[nodeMapping[u]] += v
	}
}

// LoadResidualReact is the reactive counterpart of LoadResidualResist.
func LoadResidualReact(res *EvalResult, nodeMapping map[dae.UnknownID]int, rhs []float64) {
	for u, v := range res.ReactResidual {
		rhs[nodeMapping[u]] += v
	}
}

// LoadLimitRHSResist adds every unknown's resistive limit-rhs correction
// into rhs, per spec.md §4.G's load_limit_rhs_resist.
func LoadLimitRHSResist(res *EvalResult, nodeMapping map[dae.UnknownID]int, rhs []float64) {
	for u, v := range res.ResistLimRHS {
		rhs[nodeMapping[u]] += v
	}
}

// LoadLimitRHSReact is the reactive counterpart of LoadLimitRHSResist.
func LoadLimitRHSReact(res *EvalResult, nodeMapping map[dae.UnknownID]int, rhs []float64) {
	for u, v := range res.ReactLimRHS {
		rhs[nodeMapping[u]] += v
	}
}

// LoadSpiceRHSDC assembles the SPICE-style DC right-hand side: the
// resistive residual corrected by its limit-rhs term, per spec.md §4.G's
// load_spice_rhs_dc.
func LoadSpiceRHSDC(res *EvalResult, nodeMapping map[dae.UnknownID]int, rhs []float64) {
	for u, v := range res.ResistResidual {
		rhs[nodeMapping[u]] += v - res.ResistLimRHS[u]
	}
}

// LoadSpiceRHSTran is LoadSpiceRHSDC's transient counterpart: it further
// adds the reactive residual (corrected by its own limit-rhs term) scaled
// by the implicit integration coefficient alpha, per spec.md §4.G's
// load_spice_rhs_tran.
func LoadSpiceRHSTran(res *EvalResult, nodeMapping map[dae.UnknownID]int, rhs []float64, alpha float64) {
	LoadSpiceRHSDC(res, nodeMapping, rhs)
	for u, v := range res.ReactResidual {
		rhs[nodeMapping[u]] += alpha * (v - res.ReactLimRHS[u])
	}
}

// LoadNoise copies each noise source's power into dst, one slot per
// sys.NoiseSources entry, per spec.md §4.G's load_noise.
func LoadNoise(res *EvalResult, dst []float64) {
	copy(dst, res.Noise)
}

// LoadJacobianResist adds each Jacobian entry's resistive half into the
// host-provided destination pointer (represented here as a slot in dst,
// one per entry; a real backend resolves this through
// InstanceLayout.JacobianPtrResistLoc instead).
func LoadJacobianResist(res *EvalResult, dst []float64) {
	for i, v := range res.ResistJacobian {
		dst[i] += v
	}
}

// LoadJacobianReact is the reactive counterpart of LoadJacobianResist: an
// unscaled accumulate, distinct from the tran variant (LoadJacobianTran)
// which folds in the implicit integration coefficient.
func LoadJacobianReact(res *EvalResult, dst []float64) {
	for i, v := range res.ReactJacobian {
		dst[i] += v
	}
}

// LoadJacobianTran is the "tran" variant spec.md §4.G describes: it stamps
// both halves into one matrix entry, scaling the reactive half by the
// implicit integration coefficient alpha, matching how a transient solver
// folds G and alpha*C into a single system matrix.
func LoadJacobianTran(res *EvalResult, dst []float64, alpha float64) {
	for i, v := range res.ResistJacobian {
		dst[i] += v
	}
	for i, v := range res.ReactJacobian {
		dst[i] += v * alpha
	}
}

// LoadJacobianWithOffsetResist is the offset variant of LoadJacobianResist:
// it adds `offset` (in doubles) before the store, letting several devices'
// resistive entries share one physical pointer table, per spec.md §4.G's
// load_jacobian_with_offset_resist.
func LoadJacobianWithOffsetResist(res *EvalResult, dst []float64, offset int) {
	for i, v := range res.ResistJacobian {
		dst[i+offset] += v
	}
}

// LoadJacobianWithOffsetReact is LoadJacobianWithOffsetResist's reactive
// counterpart, per spec.md §4.G's load_jacobian_with_offset_react.
func LoadJacobianWithOffsetReact(res *EvalResult, dst []float64, offset int) {
	for i, v := range res.ReactJacobian {
		dst[i+offset] += v
	}
}

// WriteJacobianArrayResist writes (rather than accumulates) each Jacobian
// entry's resistive half into dst, per spec.md §4.G's
// write_jacobian_array_resist: a bulk dense-array export distinct from the
// accumulate-into-host-pointer load_jacobian_resist.
func WriteJacobianArrayResist(res *EvalResult, dst []float64) {
	for i, v := range res.ResistJacobian {
		dst[i] = v
	}
}

// WriteJacobianArrayReact is WriteJacobianArrayResist's reactive
// counterpart, per spec.md §4.G's write_jacobian_array_react.
func WriteJacobianArrayReact(res *EvalResult, dst []float64) {
	for i, v := range res.ReactJacobian {
		dst[i] = v
	}
}
