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
package compile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vacomp/vacomp/pkg/dae"
	"github.com/vacomp/vacomp/pkg/irbuilder"
	"github.com/vacomp/vacomp/pkg/irbuilder/refimpl"
	"github.com/vacomp/vacomp/pkg/layout"
	"github.com/vacomp/vacomp/pkg/mir"
	"github.com/vacomp/vacomp/pkg/vacfg"
)

func resistorModule(t *testing.T) *ModuleInput {
	t.Helper()
	f := mir.NewFunction("eval", nil)
	zero := f.DFG.MakeConst(mir.Const{Ty: mir.TyReal, F: 0})
	one := f.DFG.MakeConst(mir.Const{Ty: mir.TyReal, F: 1})
	va := f.DFG.MakeParam(0, mir.TyReal)
	vb := f.DFG.MakeParam(1, mir.TyReal)
	r := f.DFG.MakeParam(2, mir.TyReal)

	b := dae.NewBuilder(f, zero)
	dae.StampResistor(b, f, 0, 1, one, va, vb, r)
	sys := b.Build()
	f.Build(f.Entry, mir.Exit{}, mir.TyInvalid, 0)

	setupModel := mir.NewFunction("model_param_setup", nil)
	setupModel.Build(setupModel.Entry, mir.Exit{}, mir.TyInvalid, 0)
	setupInstance := mir.NewFunction("init", nil)
	setupInstance.Build(setupInstance.Entry, mir.Exit{}, mir.TyInvalid, 0)

	il := layout.BuildInstanceLayout(layout.InstanceCounts{
		NumJacobian:        len(sys.Jacobian),
		NumUnknowns:        len(sys.Unknowns),
		NumEvalOutputSlots: 2 * len(sys.Unknowns),
	})
	ml := layout.BuildModelLayout(0, 0)

	nodeMapping := make(map[dae.UnknownID]int, len(sys.Unknowns))
	for u := range sys.Unknowns {
		nodeMapping[dae.UnknownID(u)] = u
	}

	return &ModuleInput{
		Name:             "resistor",
		EvalFn:           f,
		SetupModelFn:     setupModel,
		SetupInstanceFn:  setupInstance,
		Sys:              sys,
		InstanceLayout:   il,
		ModelLayout:      ml,
		BoundStepSlot:    -1,
		ResistLimRHSBase: -1,
		ReactLimRHSBase:  -1,
		NodeMapping:      nodeMapping,
		EvalParamValues:  []mir.Const{{Ty: mir.TyReal, F: 1}, {Ty: mir.TyReal, F: 0}, {Ty: mir.TyReal, F: 100}},
		Sim:              SimInfo{Flags: 0xFFFFFFFF},
	}
}

func newRefimplModule() irbuilder.Module { return refimpl.New() }

// cachingResistorModule mirrors resistorModule but inserts one instruction
// that depends only on a constant (never on a seed parameter) before the
// entry block's terminator, and provisions a cache slot for the taint
// pass to place it in.
func cachingResistorModule(t *testing.T) *ModuleInput {
	t.Helper()
	f := mir.NewFunction("eval", nil)
	zero := f.DFG.MakeConst(mir.Const{Ty: mir.TyReal, F: 0})
	one := f.DFG.MakeConst(mir.Const{Ty: mir.TyReal, F: 1})
	va := f.DFG.MakeParam(0, mir.TyReal)
	vb := f.DFG.MakeParam(1, mir.TyReal)
	r := f.DFG.MakeParam(2, mir.TyReal)

	b := dae.NewBuilder(f, zero)
	dae.StampResistor(b, f, 0, 1, one, va, vb, r)
	sys := b.Build()

	f.Build(f.Entry, mir.Binary{Op: mir.OpFAdd, Lhs: one, Rhs: one}, mir.TyReal, 0)
	f.Build(f.Entry, mir.Exit{}, mir.TyInvalid, 0)

	setupModel := mir.NewFunction("model_param_setup", nil)
	setupModel.Build(setupModel.Entry, mir.Exit{}, mir.TyInvalid, 0)
	setupInstance := mir.NewFunction("init", nil)
	setupInstance.Build(setupInstance.Entry, mir.Exit{}, mir.TyInvalid, 0)

	il := layout.BuildInstanceLayout(layout.InstanceCounts{
		NumJacobian:        len(sys.Jacobian),
		NumUnknowns:        len(sys.Unknowns),
		NumEvalOutputSlots: 2 * len(sys.Unknowns),
		NumCacheSlots:      1,
	})
	ml := layout.BuildModelLayout(0, 0)

	nodeMapping := make(map[dae.UnknownID]int, len(sys.Unknowns))
	for u := range sys.Unknowns {
		nodeMapping[dae.UnknownID(u)] = u
	}

	return &ModuleInput{
		Name:             "resistor_cached",
		EvalFn:           f,
		SetupModelFn:     setupModel,
		SetupInstanceFn:  setupInstance,
		Sys:              sys,
		InstanceLayout:   il,
		ModelLayout:      ml,
		BoundStepSlot:    -1,
		ResistLimRHSBase: -1,
		ReactLimRHSBase:  -1,
		NodeMapping:      nodeMapping,
		EvalParamValues:  []mir.Const{{Ty: mir.TyReal, F: 1}, {Ty: mir.TyReal, F: 0}, {Ty: mir.TyReal, F: 100}},
		Sim:              SimInfo{Flags: 0xFFFFFFFF},
	}
}

func TestCompileModuleCachesUntaintedInstructions(t *testing.T) {
	in := cachingResistorModule(t)
	cfg := vacfg.Default()

	res, err := CompileModule(cfg, in, newRefimplModule)
	require.NoError(t, err)
	require.Contains(t, res.DebugDump, "cache")
	require.Contains(t, res.DebugDump["cache"], "cached 1/1 slots")

	// Caching must not perturb the actual result: the resistor law still
	// holds for the tainted (voltage-dependent) computations.
	require.InDelta(t, 1.0/100.0, res.ResidualResist[0], 1e-9)
}

func TestCompileModuleProducesDescriptorAndTaskObjects(t *testing.T) {
	in := resistorModule(t)
	cfg := vacfg.Default()

	res, err := CompileModule(cfg, in, newRefimplModule)
	require.NoError(t, err)
	require.NotNil(t, res.Descriptor)
	require.Equal(t, 2, res.Descriptor.NumNodes)
	require.Len(t, res.Descriptor.Jacobian, 4)

	require.Len(t, res.Tasks, 3)
	names := map[string]bool{}
	for _, task := range res.Tasks {
		names[task.Name] = true
		require.NoError(t, task.Err)
		require.NotEmpty(t, task.Object)
	}
	require.True(t, names["setup_model"])
	require.True(t, names["setup_instance"])
	require.True(t, names["eval"])

	require.Len(t, res.DebugDump, 3)
}

// TestCompileModuleRejectsBigEndianBeforeFanOut is property 10 exercised
// at the orchestration boundary: a big-endian target aborts fast, before
// any codegen task is even started — by panic, since no output this
// compiler could produce would be usable on such a target.
func TestCompileModuleRejectsBigEndianBeforeFanOut(t *testing.T) {
	in := resistorModule(t)
	cfg := vacfg.Config{TargetTriple: "sparc64-unknown-linux-gnu", OSDIMajor: 0, OSDIMinor: 4, Endian: vacfg.BigEndian}

	require.Panics(t, func() {
		CompileModule(cfg, in, newRefimplModule)
	})
}

// TestCompileModuleHonorsJobsBound checks CompileModule still completes
// correctly when the worker pool is bounded to a single slot.
func TestCompileModuleHonorsJobsBound(t *testing.T) {
	in := resistorModule(t)
	cfg := vacfg.Default()
	cfg.Jobs = 1

	res, err := CompileModule(cfg, in, newRefimplModule)
	require.NoError(t, err)
	require.Len(t, res.Tasks, 3)
}

// TestCompileModuleSkipsNilFunctions checks a module missing one of the
// three exported functions (e.g. no setup_instance because the module
// declares no instance parameters) compiles the rest without error.
func TestCompileModuleSkipsNilFunctions(t *testing.T) {
	in := resistorModule(t)
	in.SetupInstanceFn = nil

	res, err := CompileModule(vacfg.Default(), in, newRefimplModule)
	require.NoError(t, err)

	for _, task := range res.Tasks {
		if task.Name == "setup_instance" {
			require.Nil(t, task.Object)
		}
	}
}
