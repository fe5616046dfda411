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
package mireval

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vacomp/vacomp/pkg/mir"
	"github.com/vacomp/vacomp/pkg/osdi/abi"
)

// TestVoltageSubtraction is scenario S3: eval computes
// prev_solution[node_mapping[0]] - prev_solution[node_mapping[1]].
func TestVoltageSubtraction(t *testing.T) {
	f := mir.NewFunction("eval", []mir.Type{mir.TyReal, mir.TyReal})
	pHi := f.DFG.MakeParam(0, mir.TyReal)
	pLo := f.DFG.MakeParam(1, mir.TyReal)
	_, vpn := f.Build(f.Entry, mir.Binary{Op: mir.OpFSub, Lhs: pHi, Rhs: pLo}, mir.TyReal, 0)
	f.Build(f.Entry, mir.Exit{}, mir.TyInvalid, 0)

	ip := New(f, []mir.Const{
		{Ty: mir.TyReal, F: 3.3},
		{Ty: mir.TyReal, F: 1.1},
	}, Callbacks{})
	env, flags, err := ip.Run()
	require.NoError(t, err)
	require.Equal(t, uint32(0), flags)
	require.InDelta(t, 2.2, Value(env, vpn).F, 1e-12)
}

// TestLimitDispatchSetsRetFlag is scenario S6: a $limit call whose
// callback reports val_changed=true ORs EVAL_RET_FLAG_LIM into the
// return flags.
func TestLimitDispatchSetsRetFlag(t *testing.T) {
	f := mir.NewFunction("eval", nil)
	vab := f.DFG.MakeParam(0, mir.TyReal)
	vt := f.DFG.MakeParam(1, mir.TyReal)
	zero := f.DFG.MakeConst(mir.Const{Ty: mir.TyReal, F: 0})
	_, limited := f.Build(f.Entry, mir.Call{Func: mir.CallLimit, Name: "pnjlim", Args: []mir.Value{vab, vt, zero}}, mir.TyReal, 0)
	f.Build(f.Entry, mir.Exit{}, mir.TyInvalid, 0)

	cb := Callbacks{
		Limit: func(name string, args []mir.Const, initFlag bool) (mir.Const, bool) {
			require.Equal(t, "pnjlim", name)
			return mir.Const{Ty: mir.TyReal, F: args[0].F}, true
		},
	}
	ip := New(f, []mir.Const{{Ty: mir.TyReal, F: 0.9}, {Ty: mir.TyReal, F: 0.025}}, cb)
	env, flags, err := ip.Run()
	require.NoError(t, err)
	require.Equal(t, abi.EvalRetFlagLim, flags&abi.EvalRetFlagLim)
	require.InDelta(t, 0.9, Value(env, limited).F, 1e-12)
}

// TestRetFlagOrMonotonicity is property 9: two flag-setting callbacks on
// the same path both contribute their bits to the final word.
func TestRetFlagOrMonotonicity(t *testing.T) {
	f := mir.NewFunction("eval", nil)
	f.Build(f.Entry, mir.Call{Func: mir.CallSetRetFlagFinish}, mir.TyInvalid, 0)
	f.Build(f.Entry, mir.Call{Func: mir.CallSetRetFlagStop}, mir.TyInvalid, 0)
	f.Build(f.Entry, mir.Exit{}, mir.TyInvalid, 0)

	ip := New(f, nil, Callbacks{})
	_, flags, err := ip.Run()
	require.NoError(t, err)
	require.Equal(t, abi.EvalRetFlagFinish|abi.EvalRetFlagStop, flags)
}

// TestBranchSelectsCorrectArm exercises Branch/Jump/Phi control flow.
func TestBranchSelectsCorrectArm(t *testing.T) {
	f := mir.NewFunction("eval", nil)
	thenBB := f.Layout.AppendBlock()
	elseBB := f.Layout.AppendBlock()
	join := f.Layout.AppendBlock()

	cond := f.DFG.MakeParam(0, mir.TyBool)
	f.Build(f.Entry, mir.Branch{Cond: cond, Then: thenBB, Else: elseBB}, mir.TyInvalid, 0)
	f.Build(thenBB, mir.Jump{Dest: join}, mir.TyInvalid, 0)
	f.Build(elseBB, mir.Jump{Dest: join}, mir.TyInvalid, 0)

	pb := f.NewPhiBuilder()
	inst, result := pb.Reserve(join, mir.TyReal, 2)
	pb.Wire(inst, 0, thenBB, f.DFG.MakeConst(mir.Const{Ty: mir.TyReal, F: 1}))
	pb.Wire(inst, 1, elseBB, f.DFG.MakeConst(mir.Const{Ty: mir.TyReal, F: 2}))
	f.Build(join, mir.Exit{}, mir.TyInvalid, 0)
	require.NoError(t, pb.Finish(mir.BuildCFG(f)))

	ip := New(f, []mir.Const{{Ty: mir.TyBool, B: true}}, Callbacks{})
	env, _, err := ip.Run()
	require.NoError(t, err)
	require.Equal(t, 1.0, Value(env, result).F)

	ip2 := New(f, []mir.Const{{Ty: mir.TyBool, B: false}}, Callbacks{})
	env2, _, err := ip2.Run()
	require.NoError(t, err)
	require.Equal(t, 2.0, Value(env2, result).F)
}
