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
package mir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// buildDiamond builds:
//
//	entry -> (then | else) -> join -> exit
func buildDiamond(t *testing.T) (*Function, *ControlFlowGraph) {
	t.Helper()
	f := NewFunction("eval", nil)
	thenBB := f.Layout.AppendBlock()
	elseBB := f.Layout.AppendBlock()
	join := f.Layout.AppendBlock()

	cond := f.DFG.MakeConst(Const{Ty: TyBool, B: true})
	f.Build(f.Entry, Branch{Cond: cond, Then: thenBB, Else: elseBB}, TyInvalid, 0)
	f.Build(thenBB, Jump{Dest: join}, TyInvalid, 0)
	f.Build(elseBB, Jump{Dest: join}, TyInvalid, 0)
	f.Build(join, Exit{}, TyInvalid, 0)

	cfg := BuildCFG(f)
	return f, cfg
}

func TestCFGSuccPred(t *testing.T) {
	f, cfg := buildDiamond(t)
	join := Block(3)
	require.ElementsMatch(t, []Block{1, 2}, cfg.Preds(join))
	require.Equal(t, []Block{1, 2}, cfg.Succs(f.Entry))
}

func TestDominatorTreeDiamond(t *testing.T) {
	f, cfg := buildDiamond(t)
	join := Block(3)
	dt := BuildDominatorTree(f, cfg, f.Entry)
	idom, ok := dt.IDom(join)
	require.True(t, ok)
	require.Equal(t, f.Entry, idom)

	// then does not dominate join (join has a second predecessor, else),
	// so join sits in then's dominance frontier; the walk from join's
	// predecessor then stops as soon as it reaches join's idom (entry),
	// recording join against then along the way.
	frontierThen := dt.Frontier(Block(1))
	require.Equal(t, []Block{join}, frontierThen)
}

func TestPhiBuilderFinishDetectsMissingEdge(t *testing.T) {
	f, cfg := buildDiamond(t)
	join := Block(3)
	pb := f.NewPhiBuilder()
	inst, _ := pb.Reserve(join, TyReal, 2)
	pb.Wire(inst, 0, Block(1), f.DFG.MakeConst(Const{Ty: TyReal, F: 1}))
	// Edge 1 left unwired.
	err := pb.Finish(cfg)
	require.Error(t, err)
}

func TestPhiBuilderFinishSucceedsWhenFullyWired(t *testing.T) {
	f, cfg := buildDiamond(t)
	join := Block(3)
	pb := f.NewPhiBuilder()
	inst, _ := pb.Reserve(join, TyReal, 2)
	pb.Wire(inst, 0, Block(1), f.DFG.MakeConst(Const{Ty: TyReal, F: 1}))
	pb.Wire(inst, 1, Block(2), f.DFG.MakeConst(Const{Ty: TyReal, F: 2}))
	require.NoError(t, pb.Finish(cfg))
}

func TestUsesTracksOperands(t *testing.T) {
	f := NewFunction("eval", nil)
	a := f.DFG.MakeConst(Const{Ty: TyReal, F: 2})
	b := f.DFG.MakeConst(Const{Ty: TyReal, F: 3})
	inst, _ := f.Build(f.Entry, Binary{Op: OpFAdd, Lhs: a, Rhs: b}, TyReal, 0)
	uses := f.DFG.Uses(a)
	require.Len(t, uses, 1)
	require.Equal(t, inst, uses[0].Inst)
	require.Equal(t, uint32(0), uses[0].Slot)
}

func TestReversePostorderVisitsEntryFirst(t *testing.T) {
	f, cfg := buildDiamond(t)
	rpo := cfg.ReversePostorder(f.Entry)
	require.Equal(t, f.Entry, rpo[0])
}

func TestInstFastMathLevels(t *testing.T) {
	f := NewFunction("eval", nil)
	a := f.DFG.MakeConst(Const{Ty: TyReal, F: 2})
	b := f.DFG.MakeConst(Const{Ty: TyReal, F: 3})
	strictInst, _ := f.Build(f.Entry, Binary{Op: OpFAdd, Lhs: a, Rhs: b}, TyReal, 0)
	partialInst, _ := f.Build(f.Entry, Binary{Op: OpFDiv, Lhs: a, Rhs: b}, TyReal, -1)

	require.Equal(t, FastMathStrict, f.DFG.InstFastMath(strictInst, false))
	require.Equal(t, FastMathPartial, f.DFG.InstFastMath(partialInst, false))
	require.Equal(t, FastMathFull, f.DFG.InstFastMath(strictInst, true))
	require.Equal(t, "full", f.DFG.InstFastMath(partialInst, true).String())
}
