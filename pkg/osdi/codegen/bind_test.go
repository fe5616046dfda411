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
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vacomp/vacomp/pkg/dae"
	"github.com/vacomp/vacomp/pkg/hirintern"
	"github.com/vacomp/vacomp/pkg/mir"
	"github.com/vacomp/vacomp/pkg/osdi/abi"
)

// TestBindVoltageDifference covers scenario S3's read: a V(p,n) probe
// binds to prev_solution[node_mapping[p]] - prev_solution[node_mapping[n]].
func TestBindVoltageDifference(t *testing.T) {
	f := mir.NewFunction("eval", nil)
	it := hirintern.New(f)
	it.Param(hirintern.PKVoltage{Hi: 0, Lo: 1, HasLo: true})
	it.Param(hirintern.PKVoltage{Hi: 1})

	sim := SimInfo{PrevSolution: []float64{2.5, 0.7}}
	b := EvalBindings{NodeMapping: map[dae.UnknownID]int{0: 0, 1: 1}}

	params, err := BindEvalParams(it, sim, b)
	require.NoError(t, err)
	require.Len(t, params, 2)
	require.InDelta(t, 2.5-0.7, params[0].F, 1e-15)
	require.InDelta(t, 0.7, params[1].F, 1e-15)
}

func TestBindParamRoutesThroughLookup(t *testing.T) {
	f := mir.NewFunction("eval", nil)
	it := hirintern.New(f)
	it.Param(hirintern.PKParam{ID: 4})

	b := EvalBindings{ParamValue: func(id uint32) (mir.Const, bool) {
		require.Equal(t, uint32(4), id)
		return mir.Const{Ty: mir.TyReal, F: 42}, true
	}}
	params, err := BindEvalParams(it, SimInfo{}, b)
	require.NoError(t, err)
	require.Equal(t, 42.0, params[0].F)

	// A parameter the lookup cannot resolve is a bind error, not a
	// silent zero.
	b.ParamValue = func(uint32) (mir.Const, bool) { return mir.Const{}, false }
	_, err = BindEvalParams(it, SimInfo{}, b)
	require.Error(t, err)
}

func TestBindEnableIntegrationTruthTable(t *testing.T) {
	f := mir.NewFunction("eval", nil)
	it := hirintern.New(f)
	it.Param(hirintern.PKEnableIntegration{})

	cases := []struct {
		flags uint32
		want  bool
	}{
		{0, false},
		{abi.FlagCalcReactJacobian, true},
		{abi.FlagCalcReactJacobian | abi.FlagAnalysisIC, false},
		{abi.FlagAnalysisIC, false},
	}
	for _, c := range cases {
		params, err := BindEvalParams(it, SimInfo{Flags: c.flags}, EvalBindings{})
		require.NoError(t, err)
		require.Equal(t, c.want, params[0].B, "flags %#x", c.flags)
	}
}

func TestBindEnableLimAndStates(t *testing.T) {
	f := mir.NewFunction("eval", nil)
	it := hirintern.New(f)
	it.Param(hirintern.PKEnableLim{})
	it.Param(hirintern.PKPrevState{State: 0})
	it.Param(hirintern.PKNewState{State: 0})

	sim := SimInfo{
		Flags:     abi.FlagEnableLim,
		PrevState: []float64{0, 0, 0.6},
		NextState: []float64{0, 0, 0.8},
	}
	// State 0 lives in the host's slot 2.
	b := EvalBindings{LimStateIdx: []uint32{2}}

	params, err := BindEvalParams(it, sim, b)
	require.NoError(t, err)
	require.True(t, params[0].B)
	require.Equal(t, 0.6, params[1].F)
	require.Equal(t, 0.8, params[2].F)
}

func TestBindMiscInputs(t *testing.T) {
	f := mir.NewFunction("eval", nil)
	it := hirintern.New(f)
	it.Param(hirintern.PKCurrent{Port: 0})
	it.Param(hirintern.PKTemperature{})
	it.Param(hirintern.PKAbstime{})
	it.Param(hirintern.PKPortConnected{Node: 1})
	it.Param(hirintern.PKPortConnected{Node: 2})
	it.Param(hirintern.PKParamSysFun{Name: "gmin"})

	sim := SimInfo{Abstime: 1e-9, Simparam: map[string]float64{"gmin": 1e-12}}
	b := EvalBindings{Temperature: 300.15, ConnectedPorts: 0b010}

	params, err := BindEvalParams(it, sim, b)
	require.NoError(t, err)
	require.Equal(t, 0.0, params[0].F) // port current binds zero
	require.Equal(t, 300.15, params[1].F)
	require.Equal(t, 1e-9, params[2].F)
	require.True(t, params[3].B)  // bit 1 set
	require.False(t, params[4].B) // bit 2 clear
	require.Equal(t, 1e-12, params[5].F)
}

func TestBindImplicitUnknownRoutesThroughLookup(t *testing.T) {
	f := mir.NewFunction("eval", nil)
	it := hirintern.New(f)
	it.Param(hirintern.PKImplicitUnknown{Equation: 0})

	sim := SimInfo{PrevSolution: []float64{0, 0, 3.3}}
	b := EvalBindings{
		NodeMapping: map[dae.UnknownID]int{7: 2},
		// Equation 0's unknown was registered seventh: the equation and
		// unknown id spaces are distinct.
		ImplicitUnknownID: func(eq uint32) (dae.UnknownID, bool) { return 7, eq == 0 },
	}
	params, err := BindEvalParams(it, sim, b)
	require.NoError(t, err)
	require.Equal(t, 3.3, params[0].F)

	b.ImplicitUnknownID = nil
	_, err = BindEvalParams(it, sim, b)
	require.Error(t, err)
}

func TestBindUnmappedUnknownFails(t *testing.T) {
	f := mir.NewFunction("eval", nil)
	it := hirintern.New(f)
	it.Param(hirintern.PKVoltage{Hi: 5})

	_, err := BindEvalParams(it, SimInfo{PrevSolution: []float64{0}}, EvalBindings{})
	require.Error(t, err)
}
