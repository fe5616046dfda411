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

// Package mir is vacomp's SSA mid-level IR: the representation of the
// three per-module functions (eval, init, model_param_setup) on which the
// DAE builder, taint analysis, and OSDI codegen all operate.
//
// Functions are dense arenas (blocks, instructions, values) with an
// explicit doubly-ordered Layout, a ControlFlowGraph computed on demand,
// and a DominatorTree for both forward and post dominance. Every value has
// exactly one definition site; every block ends with exactly one
// terminator; phis appear only as a prefix of their block's instructions.
package mir

// Type is the scalar type of a MIR value. vacomp's MIR has no aggregate
// types: structs belong to pkg/layout, not here.
type Type uint8

const (
	TyInvalid Type = iota
	TyInt
	TyReal
	TyBool
	TyStr
)

func (t Type) String() string {
	switch t {
	case TyInt:
		return "int"
	case TyReal:
		return "real"
	case TyBool:
		return "bool"
	case TyStr:
		return "str"
	default:
		return "invalid"
	}
}

// Const is an immediate value. Exactly one of the fields is meaningful,
// selected by Ty.
type Const struct {
	Ty  Type
	I   int64
	F   float64
	B   bool
	Str string
}

// Block identifies a basic block within one Function.
type Block uint32

// Inst identifies an instruction within one Function's DFG.
type Inst uint32

// Value identifies an SSA value within one Function's DFG.
type Value uint32

// InvalidValue marks the absence of a value reference.
const InvalidValue Value = ^Value(0)

// Param identifies one of a Function's formal parameters.
type Param uint32

// ValueDef tags the definition site of a Value: exactly one of a result
// instruction, a function parameter, an immediate constant, or explicitly
// invalid (used as a placeholder before a phi's edges are wired).
type ValueDef interface{ isValueDef() }

// ResultDef is a value defined by an instruction's (sole) result.
type ResultDef struct{ Inst Inst }

// ParamDef is a value defined by a function parameter.
type ParamDef struct{ Param Param }

// ConstDef is a value defined by an immediate constant.
type ConstDef struct{ Const Const }

// InvalidDef marks a value with no definition yet (or a deliberately
// discarded one).
type InvalidDef struct{}

func (ResultDef) isValueDef()  {}
func (ParamDef) isValueDef()   {}
func (ConstDef) isValueDef()   {}
func (InvalidDef) isValueDef() {}
