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

// Package irbuilder models the native (LLVM-class) object emitter as a
// Go interface: "typed value/builder operations, module verification,
// optimization and object emission" (spec.md §6's framing of the real
// backend as an external collaborator). vacomp's codegen packages never
// touch an LLVM type directly; they only call Module/Builder/Value, so a
// real backend can be swapped in without codegen caring, and the
// in-memory pkg/irbuilder/refimpl implementation lets the call sequence
// be exercised without one.
package irbuilder

// Value is an opaque handle to one value produced by a Builder. Its
// concrete representation is implementation-defined; callers only ever
// pass Values back into the Builder that produced them.
type Value interface{ IsIRValue() }

// Sig is a function signature: the ABI-facing parameter/return shape the
// backend needs to emit a callable symbol.
type Sig struct {
	Name       string
	NumParams  int
	ReturnVoid bool
}

// Builder emits one function's body as a sequence of typed operations,
// mirroring the instruction set pkg/mir already models (so codegen's MIR
// walker translates one-for-one rather than re-deriving a new op set).
type Builder interface {
	ConstF64(v float64) Value
	Param(idx int) Value
	Load(ptr Value) Value
	Store(ptr, val Value)
	// fastmath is the backend-agnostic rendering of mir.FastMathLevel
	// ("strict", "partial", "full"): the relaxation codegen's loop-aware
	// fast-math pass (spec.md §4.D/§9) determined for this instruction.
	BinOp(op string, lhs, rhs Value, fastmath string) Value
	UnOp(op string, arg Value, fastmath string) Value
	Cmp(pred string, lhs, rhs Value) Value
	Call(callback string, args ...Value) Value
	Br(cond Value, thenLabel, elseLabel string)
	Jump(label string)
	Label(name string)
	Ret(v Value)
}

// Module is one compilation unit: a set of named functions, verified and
// emitted as a single object artifact.
type Module interface {
	// DefineFunction opens a new function body and returns its Builder.
	DefineFunction(sig Sig) Builder
	// Verify checks every defined function for structural well-formedness
	// (the analogue of LLVM's module verifier). A verifier failure is a
	// compiler invariant violation, never a recoverable error — callers
	// are expected to panic on a non-nil return, per spec.md §7.
	Verify() error
	// Optimize runs backend optimization passes at the given level; 0
	// disables optimization.
	Optimize(level int) error
	// EmitObject serializes the module to its final object-artifact
	// bytes (a real backend would emit machine code here).
	EmitObject() ([]byte, error)
}
