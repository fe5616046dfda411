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

	"github.com/vacomp/vacomp/pkg/diag"
	"github.com/vacomp/vacomp/pkg/vaast"
)

func simpleAssignStmt() *vaast.Stmt {
	ptr := &vaast.AstPtr{Node: 7}
	return &vaast.Stmt{
		Kind: vaast.StmtAssignment,
		Ptr:  ptr,
		AssignDst: &vaast.Expr{
			Kind: vaast.ExprPathRef,
			Path: vaast.Path{Kind: vaast.PathVariable, Index: 0, Name: "x"},
		},
		AssignVal: &vaast.Expr{
			Kind:    vaast.ExprLiteral,
			Literal: vaast.Literal{Kind: vaast.LiteralReal, Real: 1.5},
		},
		AssignKind: vaast.AssignOrdinary,
	}
}

// Property 1: body-lowering idempotence.
func TestLoweringIdempotence(t *testing.T) {
	stmts := []*vaast.Stmt{simpleAssignStmt()}

	b1, m1 := NewLowerer(0).LowerBody(stmts)
	b2, m2 := NewLowerer(0).LowerBody(stmts)

	require.Equal(t, len(b1.Exprs), len(b2.Exprs))
	require.Equal(t, len(b1.Stmts), len(b2.Stmts))
	require.Equal(t, len(m1.ExprMap), len(m2.ExprMap))
	require.Equal(t, len(m1.StmtMap), len(m2.StmtMap))

	for node, id := range m1.StmtMapBack {
		ptr := m1.StmtMap[id]
		require.NotNil(t, ptr)
		require.Equal(t, node, ptr.Node)
	}
}

// Property 2: scope monotonicity.
func TestScopeMonotonicity(t *testing.T) {
	inner := simpleAssignStmt()
	block := &vaast.Stmt{
		Kind:      vaast.StmtBlock,
		BlockID:   1,
		BlockBody: []*vaast.Stmt{inner, simpleAssignStmt()},
	}
	body, _ := NewLowerer(0).LowerBody([]*vaast.Stmt{block})

	root := ScopeID{RootFile: 0, Local: 0, Source: ScopeRoot}
	// The outer block statement itself is lowered under the root scope.
	require.Equal(t, root, body.StmtScopes[len(body.Stmts)-1])

	blockScope := body.StmtScopes[0]
	require.NotEqual(t, root, blockScope)
	for _, s := range body.StmtScopes[:len(body.Stmts)-1] {
		require.Equal(t, blockScope, s)
	}
}

func TestAnonymousBlockDoesNotInflateScopeTree(t *testing.T) {
	empty := &vaast.Stmt{Kind: vaast.StmtBlock, BlockID: 2, BlockBody: nil}
	body, _ := NewLowerer(0).LowerBody([]*vaast.Stmt{empty})
	root := ScopeID{RootFile: 0, Local: 0, Source: ScopeRoot}
	require.Equal(t, root, body.StmtScopes[len(body.Stmts)-1])
}

func TestAssignmentWithoutOperatorLowersToMissing(t *testing.T) {
	s := &vaast.Stmt{Kind: vaast.StmtAssignment}
	body, m := NewLowerer(0).LowerBody([]*vaast.Stmt{s})
	require.Equal(t, StmtMissing, body.Stmts[0].Kind)
	require.True(t, m.Diagnostics.HasKind(diag.Lowering))
}
