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

import "github.com/vacomp/vacomp/pkg/vaast"

// recognizedPrimitives maps a primitive module name to the single
// parameter name it recognizes.
var recognizedPrimitives = map[string]string{
	"resistor":  "r",
	"capacitor": "c",
	"inductor":  "l",
}

// tryDesugarInstance desugars a two-terminal resistor/capacitor/inductor
// instantiation into a synthetic branch-contribution statement. It reports
// ok=false (and lowers nothing) for anything else, including a
// recognized-by-name instance with the wrong port count or a missing
// parameter — those are silently dropped, per spec.md §4.A, to be
// diagnosed by earlier passes.
func (l *Lowerer) tryDesugarInstance(s *vaast.Stmt, scope ScopeID) ([]StmtID, bool) {
	if s == nil || s.Kind != vaast.StmtModuleInstance || s.Instance == nil {
		return nil, false
	}
	inst := s.Instance
	paramName, known := recognizedPrimitives[inst.ModuleName]
	if !known {
		return nil, false
	}
	if len(inst.Ports) != 2 {
		return nil, true // recognized name, wrong shape: silently drop
	}
	paramExpr := findParam(inst, paramName)
	if paramExpr == nil {
		return nil, true
	}
	hi, lo := inst.Ports[0], inst.Ports[1]
	param := l.collectExpr(nil, Expr{Kind: ExprPath, Path: *paramExpr})

	switch inst.ModuleName {
	case "resistor":
		// I(hi,lo) <+ V(hi,lo) / R
		dst := l.branchCall("I", hi, lo)
		vExpr := l.branchCall("V", hi, lo)
		val := l.collectExpr(nil, Expr{Kind: ExprBinaryOp, BinaryOp: vaast.BinaryDiv, Lhs: vExpr, Rhs: param})
		id := l.allocStmt(StmtAssignment, func(ir *Stmt) {
			ir.AssignDst, ir.AssignVal, ir.AssignKind = dst, val, vaast.AssignContribution
		}, nil, scope)
		return []StmtID{id}, true
	case "capacitor":
		// I(hi,lo) <+ ddt(C * V(hi,lo))
		dst := l.branchCall("I", hi, lo)
		vExpr := l.branchCall("V", hi, lo)
		mul := l.collectExpr(nil, Expr{Kind: ExprBinaryOp, BinaryOp: vaast.BinaryMul, Lhs: param, Rhs: vExpr})
		val := l.systemCall("ddt", mul)
		id := l.allocStmt(StmtAssignment, func(ir *Stmt) {
			ir.AssignDst, ir.AssignVal, ir.AssignKind = dst, val, vaast.AssignContribution
		}, nil, scope)
		return []StmtID{id}, true
	case "inductor":
		// V(hi,lo) <+ ddt(L * I(hi,lo))
		dst := l.branchCall("V", hi, lo)
		iExpr := l.branchCall("I", hi, lo)
		mul := l.collectExpr(nil, Expr{Kind: ExprBinaryOp, BinaryOp: vaast.BinaryMul, Lhs: param, Rhs: iExpr})
		val := l.systemCall("ddt", mul)
		id := l.allocStmt(StmtAssignment, func(ir *Stmt) {
			ir.AssignDst, ir.AssignVal, ir.AssignKind = dst, val, vaast.AssignContribution
		}, nil, scope)
		return []StmtID{id}, true
	}
	return nil, true
}

func findParam(inst *vaast.ModuleInstance, name string) *vaast.Path {
	for i, n := range inst.ParamNames {
		if n != name {
			continue
		}
		v := inst.ParamVals[i]
		if v == nil || v.Kind != vaast.ExprPathRef || !v.Path.Resolved() {
			return nil
		}
		p := v.Path
		return &p
	}
	return nil
}

// branchCall builds a V(hi,lo) or I(hi,lo) branch-probe call expression.
// Desugared nodes have no AstPtr; they are synthetic.
func (l *Lowerer) branchCall(probe string, hi, lo vaast.Path) ExprID {
	hiExpr := l.collectExpr(nil, Expr{Kind: ExprPath, Path: hi})
	loExpr := l.collectExpr(nil, Expr{Kind: ExprPath, Path: lo})
	return l.collectExpr(nil, Expr{Kind: ExprCall, CallName: probe, Args: []ExprID{hiExpr, loExpr}})
}

func (l *Lowerer) systemCall(name string, args ...ExprID) ExprID {
	return l.collectExpr(nil, Expr{Kind: ExprCall, CallName: name, Args: args})
}
