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

// InstData tags the variant of one MIR instruction. Kept as a closed sum
// (interface + fixed concrete types), the same technique the corpus uses
// for its own closed term/instruction enums: open extensibility belongs
// to the host ABI, never to this arena.
type InstData interface{ isInstData() }

// UnaryOp enumerates vacomp's single-operand instructions: sign/logical
// negation, the semantics-preserving OptBarrier used to block folding
// during DAE extraction, every unary transcendental, Clog2, and the
// round-to-nearest float->int conversion.
type UnaryOp uint8

const (
	OpNeg UnaryOp = iota
	OpNot
	OpOptBarrier
	OpSqrt
	OpExpFn
	OpLn
	OpLog
	OpLog2
	OpSin
	OpCos
	OpTan
	OpAsin
	OpAcos
	OpAtan
	OpSinh
	OpCosh
	OpTanh
	OpAsinh
	OpAcosh
	OpAtanh
	OpFloor
	OpCeil
	// OpClog2 is 32 - ctlz(x, zero_is_poison=true).
	OpClog2
	// OpLround rounds a real to the nearest int.
	OpLround
)

// Unary is a one-operand instruction.
type Unary struct {
	Op  UnaryOp
	Arg Value
}

func (Unary) isInstData() {}

// BinaryOp enumerates vacomp's two-operand instructions: arithmetic,
// bitwise/logical, the two-argument transcendentals, and the string
// equality/inequality tests that lower to strcmp plus a predicate.
type BinaryOp uint8

const (
	OpIAdd BinaryOp = iota
	OpISub
	OpIMul
	OpIDiv
	OpIMod
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpLogAnd
	OpLogOr
	OpPow
	OpAtan2
	OpHypot
	// OpSeq/OpSne lower to strcmp(...) plus an equality/inequality test.
	OpSeq
	OpSne
)

// Binary is a two-operand instruction.
type Binary struct {
	Op       BinaryOp
	Lhs, Rhs Value
}

func (Binary) isInstData() {}

// Cast converts Arg from From to To. Casts are generic over (Int|Real|
// Bool) -> (Int|Real|Bool); From/To fully determine the conversion.
type Cast struct {
	From, To Type
	Arg      Value
}

func (Cast) isInstData() {}

// Predicate enumerates comparison predicates: the six IEEE ordered
// float predicates plus the integer/bool equivalents.
type Predicate uint8

const (
	PredOEQ Predicate = iota
	PredONE
	PredOLT
	PredOGT
	PredOLE
	PredOGE
	PredIEq
	PredINe
	PredILt
	PredILe
	PredIGt
	PredIGe
)

// Cmp is a comparison instruction, producing a Bool result.
type Cmp struct {
	Pred     Predicate
	Lhs, Rhs Value
}

func (Cmp) isInstData() {}

// CallBackKind enumerates the runtime/host callbacks a Call instruction
// may invoke: limiting functions, $fatal/$finish/$stop signaling, the
// collapse hint, and parameter-invalid reporting.
type CallBackKind uint16

const (
	CallLimit CallBackKind = iota
	CallSetRetFlagAbort
	CallSetRetFlagFinish
	CallSetRetFlagStop
	CallParamInfoInvalid
	CallCollapse
	CallStrCmp
)

// Call invokes a named callback with the given SSA-value arguments.
type Call struct {
	Func CallBackKind
	Name string // limiting-function name, meaningful only when Func == CallLimit
	Args []Value
}

func (Call) isInstData() {}

// Branch is a two-way conditional terminator. LoopEntry marks this branch
// as a loop header's back-edge test: Then is the loop body, Else is the
// loop's exit sentinel block, consumed by pkg/taint's loop_block_map.
type Branch struct {
	Cond       Value
	Then, Else Block
	LoopEntry  bool
}

func (Branch) isInstData() {}

// Jump is an unconditional terminator.
type Jump struct {
	Dest Block
}

func (Jump) isInstData() {}

// PhiEdge is one incoming (predecessor block, value) pair of a Phi.
type PhiEdge struct {
	Block Block
	Value Value
}

// Phi selects among its incoming edges based on which predecessor control
// flowed from. Phis are required to appear only as a prefix of their
// owning block's instruction list.
type Phi struct {
	Edges []PhiEdge
}

func (Phi) isInstData() {}

// Exit is the function's sole normal-return terminator.
type Exit struct{}

func (Exit) isInstData() {}

// IsPhi reports whether data is a Phi instruction.
func IsPhi(data InstData) bool {
	_, ok := data.(Phi)
	return ok
}

// IsTerminator reports whether data ends a basic block.
func IsTerminator(data InstData) bool {
	switch data.(type) {
	case Branch, Jump, Exit:
		return true
	default:
		return false
	}
}

// Operands returns the Values read by data, in a stable order. Phi edge
// values are included; Phi/Branch/Jump/Exit block targets are not values
// and are therefore never returned.
func Operands(data InstData) []Value {
	switch d := data.(type) {
	case Unary:
		return []Value{d.Arg}
	case Binary:
		return []Value{d.Lhs, d.Rhs}
	case Cast:
		return []Value{d.Arg}
	case Cmp:
		return []Value{d.Lhs, d.Rhs}
	case Call:
		return append([]Value(nil), d.Args...)
	case Branch:
		return []Value{d.Cond}
	case Phi:
		vs := make([]Value, len(d.Edges))
		for i, e := range d.Edges {
			vs[i] = e.Value
		}
		return vs
	default:
		return nil
	}
}
