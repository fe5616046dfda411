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

// Package hir lowers an external-AST module body (pkg/vaast) into a flat,
// typed intermediate representation: dense expression/statement arenas plus
// a parallel source map, and desugars primitive module instances
// (resistor/capacitor/inductor) into branch-contribution statements.
//
// Arenas are append-only: every ExprID referenced by a child field is
// strictly less than the parent's own id, so a single forward pass over
// the arena is always a valid bottom-up traversal.
package hir

import "github.com/vacomp/vacomp/pkg/vaast"

// ExprID indexes Body.Exprs.
type ExprID uint32

// InvalidExprID marks the absence of an expression reference in a field
// that is conceptually optional (e.g. an elided case default).
const InvalidExprID ExprID = ^ExprID(0)

// MissingExprID is the canonical "unresolved/absent" expression: every
// Body has exactly one, at index 0, and collect_opt_expr(nil) returns it
// without allocating.
const MissingExprID ExprID = 0

// ExprKind mirrors vaast.ExprKind plus the two IR-only variants Missing
// and Array, per spec.md §3.
type ExprKind uint8

const (
	ExprMissing ExprKind = iota
	ExprLiteral
	ExprPath
	ExprUnaryOp
	ExprBinaryOp
	ExprSelect
	ExprCall
	ExprArray
)

// Expr is one IR expression node.
type Expr struct {
	Kind ExprKind

	Literal vaast.Literal // ExprLiteral

	Path vaast.Path // ExprPath
	Port bool       // ExprPath: true for PortFlow accesses, e.g. I(<port>)

	UnaryOp vaast.UnaryOpKind // ExprUnaryOp
	Operand ExprID

	BinaryOp vaast.BinaryOpKind // ExprBinaryOp
	Lhs, Rhs ExprID

	Cond, Then, Else ExprID // ExprSelect

	CallFunc *vaast.Path // ExprCall; nil for a bare system-function identifier
	CallName string
	Args     []ExprID // ExprCall

	Elements []ExprID // ExprArray
}

// StmtID indexes Body.Stmts.
type StmtID uint32

// InvalidStmtID marks the absence of a statement reference.
const InvalidStmtID StmtID = ^StmtID(0)

// StmtKind mirrors vaast.StmtKind, per spec.md §3.
type StmtKind uint8

const (
	StmtEmpty StmtKind = iota
	StmtMissing
	StmtExpr
	StmtAssignment
	StmtIf
	StmtWhileLoop
	StmtForLoop
	StmtBlock
	StmtCase
	StmtEventControl
)

// CaseArm is one lowered arm of a case statement. Values is empty for the
// (unique, asserted) default arm.
type CaseArm struct {
	Values []ExprID
	Body   StmtID
}

// EventPhase distinguishes the two global analysis events that
// initial_step/final_step are lifted to.
type EventPhase uint8

const (
	EventGlobalInitial EventPhase = iota
	EventGlobalFinal
	EventGlobalOther
)

// Stmt is one IR statement node.
type Stmt struct {
	Kind StmtKind

	Expr ExprID // StmtExpr

	AssignDst, AssignVal ExprID // StmtAssignment
	AssignKind           vaast.AssignKind

	Cond       ExprID // StmtIf
	Then, Else StmtID

	ForInit, ForStep StmtID // StmtForLoop
	ForCond          ExprID

	Block []StmtID // StmtBlock

	CaseSel  ExprID // StmtCase
	CaseArms []CaseArm

	EventPhase EventPhase // StmtEventControl
	EventBody  StmtID
}

// Body is the flat, typed representation of one lowered block/function
// body: dense expression and statement arenas, plus the scope each
// statement was lowered under.
type Body struct {
	Exprs      []Expr
	Stmts      []Stmt
	StmtScopes []ScopeID
}

func newBody() *Body {
	return &Body{
		// index 0 is always the canonical Missing expr.
		Exprs: []Expr{{Kind: ExprMissing}},
	}
}

func (b *Body) allocExpr(e Expr) ExprID {
	id := ExprID(len(b.Exprs))
	b.Exprs = append(b.Exprs, e)
	return id
}

func (b *Body) allocStmt(s Stmt, scope ScopeID) StmtID {
	id := StmtID(len(b.Stmts))
	b.Stmts = append(b.Stmts, s)
	b.StmtScopes = append(b.StmtScopes, scope)
	return id
}
