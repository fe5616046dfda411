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
	"github.com/vacomp/vacomp/pkg/hirintern"
	"github.com/vacomp/vacomp/pkg/layout"
	"github.com/vacomp/vacomp/pkg/mir"
	"github.com/vacomp/vacomp/pkg/osdi/codegen"
	"github.com/vacomp/vacomp/pkg/vacfg"
)

// internedResistorModule mirrors resistorModule, but binds eval's inputs
// through a hirintern.Interner instead of a hand-flattened value vector:
// two ground-referenced voltage probes plus the resistance parameter.
func internedResistorModule(t *testing.T) *ModuleInput {
	t.Helper()
	f := mir.NewFunction("eval", nil)
	zero := f.DFG.MakeConst(mir.Const{Ty: mir.TyReal, F: 0})
	one := f.DFG.MakeConst(mir.Const{Ty: mir.TyReal, F: 1})

	it := hirintern.New(f)
	va := it.Param(hirintern.PKVoltage{Hi: 0})
	vb := it.Param(hirintern.PKVoltage{Hi: 1})
	r := it.Param(hirintern.PKParam{ID: 0})

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
		EvalIntern:       it,
		Bind: codegen.EvalBindings{
			NodeMapping: nodeMapping,
			ParamValue: func(id uint32) (mir.Const, bool) {
				if id != 0 {
					return mir.Const{}, false
				}
				return mir.Const{Ty: mir.TyReal, F: 100}, true
			},
		},
		Sim: SimInfo{PrevSolution: []float64{1, 0}, Flags: 0xFFFFFFFF},
	}
}

// TestCompileModuleBindsEvalParamsFromInterner checks the interner-driven
// binding path produces the same materialized residual/Jacobian data as
// the equivalent hand-flattened parameter vector: V=1V over R=100 gives
// ±10mA residuals and ±1/R Jacobian stamps.
func TestCompileModuleBindsEvalParamsFromInterner(t *testing.T) {
	in := internedResistorModule(t)
	res, err := CompileModule(vacfg.Default(), in, newRefimplModule)
	require.NoError(t, err)
	require.NotNil(t, res.Eval)

	require.InDelta(t, 0.01, res.ResidualResist[0], 1e-15)
	require.InDelta(t, -0.01, res.ResidualResist[1], 1e-15)

	ref := resistorModule(t)
	refRes, err := CompileModule(vacfg.Default(), ref, newRefimplModule)
	require.NoError(t, err)
	require.Equal(t, refRes.ResidualResist, res.ResidualResist)
	require.Equal(t, refRes.JacobianResist, res.JacobianResist)
}
