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
package hir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vacomp/vacomp/pkg/vaast"
)

func resistorInstance(nodeA, nodeB, paramR vaast.Path) *vaast.Stmt {
	return &vaast.Stmt{
		Kind: vaast.StmtModuleInstance,
		Instance: &vaast.ModuleInstance{
			ModuleName: "resistor",
			Ports:      []vaast.Path{nodeA, nodeB},
			ParamNames: []string{"r"},
			ParamVals:  []*vaast.Expr{{Kind: vaast.ExprPathRef, Path: paramR}},
		},
	}
}

// S1: a resistor instance desugars to exactly one contribution statement
// I(a,b) <+ V(a,b) / R.
func TestDesugarResistor(t *testing.T) {
	a := vaast.Path{Kind: vaast.PathNode, Index: 0, Name: "a"}
	b := vaast.Path{Kind: vaast.PathNode, Index: 1, Name: "b"}
	r := vaast.Path{Kind: vaast.PathParameter, Index: 0, Name: "R"}

	block := &vaast.Stmt{Kind: vaast.StmtBlock, BlockID: 1, BlockBody: []*vaast.Stmt{resistorInstance(a, b, r)}}
	body, _ := NewLowerer(0).LowerBody([]*vaast.Stmt{block})

	blockStmt := body.Stmts[len(body.Stmts)-1]
	require.Equal(t, StmtBlock, blockStmt.Kind)
	require.Len(t, blockStmt.Block, 1)

	assign := body.Stmts[blockStmt.Block[0]]
	require.Equal(t, StmtAssignment, assign.Kind)
	require.Equal(t, vaast.AssignContribution, assign.AssignKind)

	dst := body.Exprs[assign.AssignDst]
	require.Equal(t, ExprCall, dst.Kind)
	require.Equal(t, "I", dst.CallName)
	require.Len(t, dst.Args, 2)

	val := body.Exprs[assign.AssignVal]
	require.Equal(t, ExprBinaryOp, val.Kind)
	require.Equal(t, vaast.BinaryDiv, val.BinaryOp)

	lhs := body.Exprs[val.Lhs]
	require.Equal(t, "V", lhs.CallName)
	rhs := body.Exprs[val.Rhs]
	require.Equal(t, ExprPath, rhs.Kind)
	require.Equal(t, r, rhs.Path)
}

// S2: a capacitor instance desugars to I(p,n) <+ ddt(C * V(p,n)).
func TestDesugarCapacitor(t *testing.T) {
	p := vaast.Path{Kind: vaast.PathNode, Index: 0, Name: "p"}
	n := vaast.Path{Kind: vaast.PathNode, Index: 1, Name: "n"}
	c := vaast.Path{Kind: vaast.PathParameter, Index: 0, Name: "C"}

	inst := &vaast.Stmt{
		Kind: vaast.StmtModuleInstance,
		Instance: &vaast.ModuleInstance{
			ModuleName: "capacitor",
			Ports:      []vaast.Path{p, n},
			ParamNames: []string{"c"},
			ParamVals:  []*vaast.Expr{{Kind: vaast.ExprPathRef, Path: c}},
		},
	}
	block := &vaast.Stmt{Kind: vaast.StmtBlock, BlockID: 1, BlockBody: []*vaast.Stmt{inst}}
	body, _ := NewLowerer(0).LowerBody([]*vaast.Stmt{block})

	blockStmt := body.Stmts[len(body.Stmts)-1]
	assign := body.Stmts[blockStmt.Block[0]]
	dst := body.Exprs[assign.AssignDst]
	require.Equal(t, "I", dst.CallName)

	val := body.Exprs[assign.AssignVal]
	require.Equal(t, "ddt", val.CallName)
	require.Len(t, val.Args, 1)

	mul := body.Exprs[val.Args[0]]
	require.Equal(t, ExprBinaryOp, mul.Kind)
	require.Equal(t, vaast.BinaryMul, mul.BinaryOp)
}

func TestPrimitiveInstanceWrongPortCountDropped(t *testing.T) {
	a := vaast.Path{Kind: vaast.PathNode, Index: 0, Name: "a"}
	r := vaast.Path{Kind: vaast.PathParameter, Index: 0, Name: "R"}
	inst := &vaast.Stmt{
		Kind: vaast.StmtModuleInstance,
		Instance: &vaast.ModuleInstance{
			ModuleName: "resistor",
			Ports:      []vaast.Path{a},
			ParamNames: []string{"r"},
			ParamVals:  []*vaast.Expr{{Kind: vaast.ExprPathRef, Path: r}},
		},
	}
	block := &vaast.Stmt{Kind: vaast.StmtBlock, BlockID: 1, BlockBody: []*vaast.Stmt{inst}}
	body, _ := NewLowerer(0).LowerBody([]*vaast.Stmt{block})
	blockStmt := body.Stmts[len(body.Stmts)-1]
	require.Empty(t, blockStmt.Block)
}
