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
package taint

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vacomp/vacomp/pkg/mir"
)

// buildLoop builds a single self-loop: entry -> header -> (body | exit),
// body -> header (back edge).
//
//	entry -> header
//	header -[loop_entry branch]-> body | exit
//	body -> header
//	exit -> ret
func buildLoop(t *testing.T) (*mir.Function, *mir.ControlFlowGraph, mir.Value, mir.Value) {
	t.Helper()
	f := mir.NewFunction("eval", nil)
	header := f.Layout.AppendBlock()
	body := f.Layout.AppendBlock()
	exit := f.Layout.AppendBlock()

	f.Build(f.Entry, mir.Jump{Dest: header}, mir.TyInvalid, 0)

	seed := f.DFG.MakeParam(0, mir.TyReal)
	_, squared := f.Build(header, mir.Binary{Op: mir.OpFMul, Lhs: seed, Rhs: seed}, mir.TyReal, 0)
	cond := f.DFG.MakeConst(mir.Const{Ty: mir.TyBool, B: true})
	f.Build(header, mir.Branch{Cond: cond, Then: body, Else: exit, LoopEntry: true}, mir.TyInvalid, 0)

	_, bodyVal := f.Build(body, mir.Binary{Op: mir.OpFAdd, Lhs: squared, Rhs: squared}, mir.TyReal, 0)
	_ = bodyVal
	f.Build(body, mir.Jump{Dest: header}, mir.TyInvalid, 0)

	f.Build(exit, mir.Exit{}, mir.TyInvalid, 0)

	cfg := mir.BuildCFG(f)
	return f, cfg, seed, squared
}

func TestLoopBlockMapIdentifiesLoop(t *testing.T) {
	f, cfg, _, _ := buildLoop(t)
	loopBlocks, header := LoopBlockMap(f, cfg)

	headerBB := mir.Block(1)
	bodyBB := mir.Block(2)

	require.Contains(t, loopBlocks, headerBB)
	require.ElementsMatch(t, []mir.Block{headerBB, bodyBB}, loopBlocks[headerBB])
	require.Equal(t, headerBB, header[bodyBB])
}

// TestLoopTaintCompleteness is property 8: if any instruction inside a
// loop is tainted, every instruction in every block of that loop ends up
// tainted.
func TestLoopTaintCompleteness(t *testing.T) {
	f, cfg, seed, _ := buildLoop(t)
	dt := mir.BuildDominatorTree(f, cfg, f.Entry)
	dt.AddPostDominance(f, cfg)

	tainted := PropagateTaint(f, dt, cfg, []mir.Value{seed})

	headerBB := mir.Block(1)
	bodyBB := mir.Block(2)
	for _, bb := range []mir.Block{headerBB, bodyBB} {
		for _, inst := range f.Layout.BlockInsts(bb) {
			require.True(t, tainted.Contains(inst), "inst %d in block %d should be tainted", inst, bb)
		}
	}
}

// TestTaintMonotonicity is property 7: running the solver with an
// additional seed never removes any instruction tainted without it.
func TestTaintMonotonicity(t *testing.T) {
	f, cfg, seed, squared := buildLoop(t)
	dt := mir.BuildDominatorTree(f, cfg, f.Entry)
	dt.AddPostDominance(f, cfg)

	small := PropagateTaint(f, dt, cfg, []mir.Value{seed})
	large := PropagateTaint(f, dt, cfg, []mir.Value{seed, squared})

	for inst := range small.m {
		require.True(t, large.Contains(inst))
	}
}

func TestDirectTaintSolverBranchTaintsFrontierPhis(t *testing.T) {
	f := mir.NewFunction("eval", nil)
	thenBB := f.Layout.AppendBlock()
	elseBB := f.Layout.AppendBlock()
	join := f.Layout.AppendBlock()

	seed := f.DFG.MakeParam(0, mir.TyBool)
	f.Build(f.Entry, mir.Branch{Cond: seed, Then: thenBB, Else: elseBB}, mir.TyInvalid, 0)
	f.Build(thenBB, mir.Jump{Dest: join}, mir.TyInvalid, 0)
	f.Build(elseBB, mir.Jump{Dest: join}, mir.TyInvalid, 0)

	pb := f.NewPhiBuilder()
	phiInst, _ := pb.Reserve(join, mir.TyReal, 2)
	pb.Wire(phiInst, 0, thenBB, f.DFG.MakeConst(mir.Const{Ty: mir.TyReal, F: 1}))
	pb.Wire(phiInst, 1, elseBB, f.DFG.MakeConst(mir.Const{Ty: mir.TyReal, F: 2}))
	f.Build(join, mir.Exit{}, mir.TyInvalid, 0)

	cfg := mir.BuildCFG(f)
	require.NoError(t, pb.Finish(cfg))
	dt := mir.BuildDominatorTree(f, cfg, f.Entry)

	tainted := PropagateDirectTaint(f, dt, []mir.Value{seed})
	require.True(t, tainted.Contains(phiInst))
}
