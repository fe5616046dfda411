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
	"github.com/vacomp/vacomp/pkg/diag"
	"github.com/vacomp/vacomp/pkg/vaast"
)

// LintAttrs is an immutable stack of lint-level overrides in effect at a
// statement, innermost (most recently pushed) entry last.
type LintAttrs []vaast.LintOverride

// BodySourceMap round-trips IR ids to/from the external AST's source
// pointers, and carries the lint-attribute stack and diagnostics produced
// while lowering one Body.
type BodySourceMap struct {
	ExprMap     map[ExprID]*vaast.AstPtr
	ExprMapBack map[vaast.NodeID]ExprID
	StmtMap     map[StmtID]*vaast.AstPtr
	StmtMapBack map[vaast.NodeID]StmtID
	// LintMap is parallel to Body.Stmts: LintMap[i] is the lint stack in
	// effect for Body.Stmts[i].
	LintMap     []LintAttrs
	Diagnostics diag.Bag
}

func newBodySourceMap() *BodySourceMap {
	return &BodySourceMap{
		ExprMap:     make(map[ExprID]*vaast.AstPtr),
		ExprMapBack: make(map[vaast.NodeID]ExprID),
		StmtMap:     make(map[StmtID]*vaast.AstPtr),
		StmtMapBack: make(map[vaast.NodeID]StmtID),
	}
}

func (m *BodySourceMap) recordExpr(id ExprID, ptr *vaast.AstPtr) {
	if ptr == nil {
		return
	}
	m.ExprMap[id] = ptr
	m.ExprMapBack[ptr.Node] = id
}

func (m *BodySourceMap) recordStmt(id StmtID, ptr *vaast.AstPtr) {
	if ptr == nil {
		return
	}
	m.StmtMap[id] = ptr
	m.StmtMapBack[ptr.Node] = id
}
