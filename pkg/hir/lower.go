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

// Lowerer turns one module body's external-AST statements into a Body plus
// its BodySourceMap. A fresh Lowerer is used per module; it holds no state
// that survives across modules.
type Lowerer struct {
	body   *Body
	srcMap *BodySourceMap
	scopes *scopeTable
	lint   []vaast.LintOverride
}

// NewLowerer creates a lowerer for a module whose root file is rootFile.
func NewLowerer(rootFile uint32) *Lowerer {
	return &Lowerer{
		body:   newBody(),
		srcMap: newBodySourceMap(),
		scopes: newScopeTable(rootFile),
	}
}

// LowerBody lowers a full module body (its top-level statement list) and
// returns the resulting Body and BodySourceMap.
func (l *Lowerer) LowerBody(stmts []*vaast.Stmt) (*Body, *BodySourceMap) {
	root := l.scopes.Root()
	for _, s := range stmts {
		l.lowerStmt(s, root)
	}
	return l.body, l.srcMap
}

// collectExpr allocates one ExprID for e and records the AstPtr<->ExprID
// round-trip in both directions.
func (l *Lowerer) collectExpr(e *vaast.Expr, ir Expr) ExprID {
	id := l.body.allocExpr(ir)
	if e != nil {
		l.srcMap.recordExpr(id, e.Ptr)
	}
	return id
}

// collectOptExpr lowers an optional expression; a nil input lowers to the
// canonical MissingExprID without allocating a new arena slot.
func (l *Lowerer) collectOptExpr(e *vaast.Expr) ExprID {
	if e == nil {
		return MissingExprID
	}
	return l.lowerExpr(e)
}

func (l *Lowerer) lowerExpr(e *vaast.Expr) ExprID {
	switch e.Kind {
	case vaast.ExprMissing:
		return MissingExprID
	case vaast.ExprLiteral:
		return l.collectExpr(e, Expr{Kind: ExprLiteral, Literal: e.Literal})
	case vaast.ExprPathRef:
		if !e.Path.Resolved() {
			return MissingExprID
		}
		return l.collectExpr(e, Expr{Kind: ExprPath, Path: e.Path, Port: e.IsPort})
	case vaast.ExprUnary:
		operand := l.collectOptExpr(e.Operand)
		return l.collectExpr(e, Expr{Kind: ExprUnaryOp, UnaryOp: e.UnaryOp, Operand: operand})
	case vaast.ExprBinary:
		lhs := l.collectOptExpr(e.Lhs)
		rhs := l.collectOptExpr(e.Rhs)
		return l.collectExpr(e, Expr{Kind: ExprBinaryOp, BinaryOp: e.BinaryOp, Lhs: lhs, Rhs: rhs})
	case vaast.ExprSelect:
		cond := l.collectOptExpr(e.Cond)
		then := l.collectOptExpr(e.Then)
		els := l.collectOptExpr(e.Else)
		return l.collectExpr(e, Expr{Kind: ExprSelect, Cond: cond, Then: then, Else: els})
	case vaast.ExprCall:
		args := make([]ExprID, len(e.Args))
		for i, a := range e.Args {
			args[i] = l.collectOptExpr(a)
		}
		var fn *vaast.Path
		if e.CallFunc != nil {
			p := *e.CallFunc
			fn = &p
		}
		return l.collectExpr(e, Expr{Kind: ExprCall, CallFunc: fn, CallName: e.CallName, Args: args})
	case vaast.ExprArray:
		elems := make([]ExprID, len(e.Elements))
		for i, a := range e.Elements {
			elems[i] = l.collectOptExpr(a)
		}
		return l.collectExpr(e, Expr{Kind: ExprArray, Elements: elems})
	default:
		return MissingExprID
	}
}

// pushLint pushes a statement's own lint overrides onto the running stack
// and returns a snapshot to attach to that statement; callers must pop the
// same number of entries afterwards.
func (l *Lowerer) pushLint(overrides []vaast.LintOverride) LintAttrs {
	l.lint = append(l.lint, overrides...)
	snapshot := make(LintAttrs, len(l.lint))
	copy(snapshot, l.lint)
	return snapshot
}

func (l *Lowerer) popLint(n int) {
	l.lint = l.lint[:len(l.lint)-n]
}

func (l *Lowerer) allocStmt(kind StmtKind, fill func(*Stmt), s *vaast.Stmt, scope ScopeID) StmtID {
	var ir Stmt
	ir.Kind = kind
	if fill != nil {
		fill(&ir)
	}
	lint := l.pushLint(overridesOf(s))
	id := l.body.allocStmt(ir, scope)
	l.popLint(len(overridesOf(s)))
	for len(l.srcMap.LintMap) <= int(id) {
		l.srcMap.LintMap = append(l.srcMap.LintMap, nil)
	}
	l.srcMap.LintMap[id] = lint
	if s != nil {
		l.srcMap.recordStmt(id, s.Ptr)
	}
	return id
}

func overridesOf(s *vaast.Stmt) []vaast.LintOverride {
	if s == nil {
		return nil
	}
	return s.Attrs
}

// lowerStmt lowers one external-AST statement under the given scope,
// returning the new statement's id.
func (l *Lowerer) lowerStmt(s *vaast.Stmt, scope ScopeID) StmtID {
	if s == nil {
		return l.allocStmt(StmtMissing, nil, nil, scope)
	}
	switch s.Kind {
	case vaast.StmtEmpty:
		return l.allocStmt(StmtEmpty, nil, s, scope)
	case vaast.StmtMissing:
		return l.allocStmt(StmtMissing, nil, s, scope)
	case vaast.StmtExpr:
		expr := l.collectOptExpr(s.Expr)
		return l.allocStmt(StmtExpr, func(ir *Stmt) { ir.Expr = expr }, s, scope)
	case vaast.StmtAssignment:
		if s.AssignDst == nil || s.AssignVal == nil {
			// Assignment without a visible operator: diagnosed upstream,
			// lowers to Missing here.
			l.srcMap.Diagnostics.Push(diag.Lowering, s.Ptr, "assignment without operator")
			return l.allocStmt(StmtMissing, nil, s, scope)
		}
		dst := l.lowerExpr(s.AssignDst)
		val := l.lowerExpr(s.AssignVal)
		return l.allocStmt(StmtAssignment, func(ir *Stmt) {
			ir.AssignDst, ir.AssignVal, ir.AssignKind = dst, val, s.AssignKind
		}, s, scope)
	case vaast.StmtIf:
		cond := l.collectOptExpr(s.Cond)
		then := l.lowerStmt(s.Then, scope)
		var els StmtID = InvalidStmtID
		if s.Else != nil {
			els = l.lowerStmt(s.Else, scope)
		}
		return l.allocStmt(StmtIf, func(ir *Stmt) { ir.Cond, ir.Then, ir.Else = cond, then, els }, s, scope)
	case vaast.StmtWhileLoop:
		cond := l.collectOptExpr(s.Cond)
		then := l.lowerStmt(s.Then, scope)
		return l.allocStmt(StmtWhileLoop, func(ir *Stmt) { ir.Cond, ir.Then = cond, then }, s, scope)
	case vaast.StmtForLoop:
		init := l.lowerStmt(s.ForInit, scope)
		cond := l.collectOptExpr(s.ForCond)
		step := l.lowerStmt(s.ForStep, scope)
		body := l.lowerStmt(s.Then, scope)
		return l.allocStmt(StmtForLoop, func(ir *Stmt) {
			ir.ForInit, ir.ForCond, ir.ForStep, ir.Then = init, cond, step, body
		}, s, scope)
	case vaast.StmtBlock:
		blockScope := l.scopes.Block(s.BlockID, scope, len(s.BlockBody) > 0)
		ids := make([]StmtID, 0, len(s.BlockBody))
		for _, inner := range s.BlockBody {
			if desugared, ok := l.tryDesugarInstance(inner, blockScope); ok {
				ids = append(ids, desugared...)
				continue
			}
			ids = append(ids, l.lowerStmt(inner, blockScope))
		}
		return l.allocStmt(StmtBlock, func(ir *Stmt) { ir.Block = ids }, s, scope)
	case vaast.StmtCase:
		sel := l.collectOptExpr(s.CaseSel)
		arms := make([]CaseArm, len(s.CaseArms))
		for i, arm := range s.CaseArms {
			vals := make([]ExprID, len(arm.Values))
			for j, v := range arm.Values {
				vals[j] = l.collectOptExpr(v)
			}
			arms[i] = CaseArm{Values: vals, Body: l.lowerStmt(arm.Body, scope)}
		}
		return l.allocStmt(StmtCase, func(ir *Stmt) { ir.CaseSel, ir.CaseArms = sel, arms }, s, scope)
	case vaast.StmtEventControl:
		switch s.EventKind {
		case vaast.EventInitialStep:
			body := l.lowerStmt(s.EventBody, scope)
			return l.allocStmt(StmtEventControl, func(ir *Stmt) {
				ir.EventPhase, ir.EventBody = EventGlobalInitial, body
			}, s, scope)
		case vaast.EventFinalStep:
			body := l.lowerStmt(s.EventBody, scope)
			return l.allocStmt(StmtEventControl, func(ir *Stmt) {
				ir.EventPhase, ir.EventBody = EventGlobalFinal, body
			}, s, scope)
		default:
			// Other event statements collapse to their inner statement.
			return l.lowerStmt(s.EventBody, scope)
		}
	case vaast.StmtModuleInstance:
		// A bare (non-block-level) instance with no primitive desugaring
		// applicable is dropped; earlier passes diagnose it.
		return l.allocStmt(StmtEmpty, nil, s, scope)
	default:
		return l.allocStmt(StmtMissing, nil, s, scope)
	}
}
