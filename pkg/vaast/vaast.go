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

// Package vaast stands in for the external collaborators spec.md §1 calls
// out as out of scope: the Verilog-A lexer/parser and name resolution. It
// defines only the shape vacomp consumes — an untyped AST with attributes
// and source pointers, plus already-resolved path references — never a
// parser. Production vacomp would import the real parser/resolver crate's
// Go binding here; this package is the seam.
package vaast

// NodeID identifies a node in the external parser's syntax tree. vacomp
// treats it as opaque: it is never interpreted, only round-tripped through
// AstPtr for diagnostics rendering.
type NodeID uint32

// AstPtr is a source pointer handed back by the lowering pass so the
// (external) diagnostics renderer can point at original source text. A
// nil *AstPtr marks a synthetic node with no AST origin (e.g. a desugared
// primitive instance).
type AstPtr struct {
	Node NodeID
}

// PathKind tags what an already-resolved Path refers to. Name resolution
// itself is external; vacomp only ever sees the resolved kind+index pair.
type PathKind uint8

const (
	PathUnresolved PathKind = iota
	PathParameter
	PathVariable
	PathNode
	PathBranch
	PathFunction
	PathSystemFunction
	PathNature
	PathDiscipline
)

// Path is an eagerly-resolved reference. Index is meaningful only relative
// to Kind (e.g. a parameter index into the module's parameter table).
type Path struct {
	Kind  PathKind
	Index uint32
	Name  string
}

// Resolved reports whether name resolution actually found a referent.
func (p Path) Resolved() bool { return p.Kind != PathUnresolved }

// UnaryOpKind enumerates the unary operators the grammar supports.
type UnaryOpKind uint8

const (
	UnaryNeg UnaryOpKind = iota
	UnaryNot
	UnaryBitNot
)

// BinaryOpKind enumerates the binary operators the grammar supports.
type BinaryOpKind uint8

const (
	BinaryAdd BinaryOpKind = iota
	BinarySub
	BinaryMul
	BinaryDiv
	BinaryMod
	BinaryPow
	BinaryEq
	BinaryNeq
	BinaryLt
	BinaryLe
	BinaryGt
	BinaryGe
	BinaryLogAnd
	BinaryLogOr
	BinaryBitAnd
	BinaryBitOr
	BinaryBitXor
	BinaryShl
	BinaryShr
)

// ExprKind tags the variant of an external-AST expression node.
type ExprKind uint8

const (
	ExprMissing ExprKind = iota
	ExprLiteral
	ExprPathRef
	ExprUnary
	ExprBinary
	ExprSelect
	ExprCall
	ExprArray
)

// LiteralKind tags the payload carried by an ExprLiteral node.
type LiteralKind uint8

const (
	LiteralInt LiteralKind = iota
	LiteralReal
	LiteralString
)

// Literal is an immediate constant from source text.
type Literal struct {
	Kind LiteralKind
	Int  int64
	Real float64
	Str  string
}

// Expr is one external-AST expression node. Exactly the fields relevant to
// its Kind are meaningful; this mirrors the untyped, attribute-tagged
// external tree the real parser hands to lowering.
type Expr struct {
	Kind Kind_
	Ptr  *AstPtr

	Literal Literal
	Path    Path
	IsPort  bool // PortFlow: true when this path access is I(...)/V(...) of a port

	UnaryOp  UnaryOpKind
	Operand  *Expr
	BinaryOp BinaryOpKind
	Lhs, Rhs *Expr

	Cond, Then, Else *Expr

	CallFunc *Path // nil when Call targets a bare system-function name
	CallName string
	Args     []*Expr

	Elements []*Expr // ExprArray
}

// Kind_ avoids a name collision with the ExprKind constants' natural name.
type Kind_ = ExprKind

// StmtKind tags the variant of an external-AST statement node.
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
	StmtModuleInstance
)

// AssignKind distinguishes ordinary assignment from contribution (<+).
type AssignKind uint8

const (
	AssignOrdinary AssignKind = iota
	AssignContribution
)

// EventKind tags the event a StmtEventControl statement fires on.
type EventKind uint8

const (
	EventInitialStep EventKind = iota
	EventFinalStep
	EventOther
)

// CaseArm is one arm of a case statement; Values is empty for the default
// arm (asserted by the lowering pass).
type CaseArm struct {
	Values []*Expr
	Body   *Stmt
}

// ModuleInstance describes a module-instantiation statement as the parser
// hands it over, before any primitive desugaring.
type ModuleInstance struct {
	ModuleName string
	Ports      []Path // resolved node connections, in declaration order
	ParamNames []string
	ParamVals  []*Expr
}

// Stmt is one external-AST statement node.
type Stmt struct {
	Kind StmtKind
	Ptr  *AstPtr
	Attrs []LintOverride

	Expr *Expr // StmtExpr

	AssignDst  *Expr
	AssignVal  *Expr
	AssignKind AssignKind

	Cond       *Expr
	Then, Else *Stmt

	ForInit, ForStep *Stmt
	ForCond          *Expr

	BlockID    BlockID
	BlockBody  []*Stmt

	CaseSel *Expr
	CaseArms []CaseArm

	EventKind EventKind
	EventBody *Stmt

	Instance *ModuleInstance
}

// BlockID identifies a begin...end block in the external AST, used as half
// of a lowered ScopeID's key.
type BlockID uint32

// LintOverride is one entry of a lint-attribute stack attached (via
// (* ... *) attributes) to a statement.
type LintOverride struct {
	LintID string
	Level  LintLevel
}

// LintLevel mirrors common lint severities; vacomp only threads these
// through, it never interprets them.
type LintLevel uint8

const (
	LintAllow LintLevel = iota
	LintWarn
	LintDeny
	LintForbid
)
