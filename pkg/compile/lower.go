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
package compile

import (
	"fmt"

	"github.com/vacomp/vacomp/pkg/irbuilder"
	"github.com/vacomp/vacomp/pkg/mir"
	"github.com/vacomp/vacomp/pkg/taint"
)

// EmitFunction lowers one compiled MIR function (eval/init/
// model_param_setup) into a sequence of irbuilder.Builder calls, then
// verifies, optimizes, and emits the module, per spec.md §4.G's
// "generic-register compiler emitting linear instruction streams"
// framing. It is the one point where vacomp's own IR touches the
// external object-emission collaborator.
//
// Phi resolution is approximate: refimpl has no block-predecessor
// tracking of its own, so a phi lowers to whichever edge was materialized
// last rather than a real conditional select. This is adequate for
// exercising the call sequence in tests; a real backend would resolve
// phis against its own predecessor-aware value numbering.
func EmitFunction(mod irbuilder.Module, name string, fn *mir.Function) ([]byte, error) {
	b := mod.DefineFunction(irbuilder.Sig{Name: name, NumParams: len(fn.ParamTypes)})
	vals := make(map[mir.Value]irbuilder.Value)

	// blockHeader maps every loop-body block to its outermost loop
	// header; any instruction in such a block earns FastMathFull instead
	// of whatever its own sourceLoc hint would otherwise grant, per
	// spec.md §9.
	_, blockHeader := taint.LoopBlockMap(fn, mir.BuildCFG(fn))

	var materialize func(v mir.Value) irbuilder.Value
	materialize = func(v mir.Value) irbuilder.Value {
		if iv, ok := vals[v]; ok {
			return iv
		}
		var iv irbuilder.Value
		switch d := fn.DFG.Values[v].(type) {
		case mir.ParamDef:
			iv = b.Param(int(d.Param))
		case mir.ConstDef:
			iv = b.ConstF64(d.Const.F)
		default:
			// A result value from an instruction not yet visited (a
			// loop-carried phi edge) or an invalid placeholder: refimpl
			// has no machine state to read, so stand in with zero.
			iv = b.ConstF64(0)
		}
		vals[v] = iv
		return iv
	}

	for _, bb := range fn.Layout.Blocks() {
		b.Label(blockLabel(bb))
		_, inLoop := blockHeader[bb]
		for _, inst := range fn.Layout.BlockInsts(bb) {
			result, hasResult := fn.DFG.ResultValue(inst)
			fastmath := fn.DFG.InstFastMath(inst, inLoop).String()
			switch d := fn.DFG.Insts[inst].(type) {
			case mir.Unary:
				v := b.UnOp(unaryOpName(d.Op), materialize(d.Arg), fastmath)
				if hasResult {
					vals[result] = v
				}
			case mir.Binary:
				v := b.BinOp(binaryOpName(d.Op), materialize(d.Lhs), materialize(d.Rhs), fastmath)
				if hasResult {
					vals[result] = v
				}
			case mir.Cast:
				v := b.UnOp("cast", materialize(d.Arg), fastmath)
				if hasResult {
					vals[result] = v
				}
			case mir.Cmp:
				v := b.Cmp(predName(d.Pred), materialize(d.Lhs), materialize(d.Rhs))
				if hasResult {
					vals[result] = v
				}
			case mir.Call:
				args := make([]irbuilder.Value, len(d.Args))
				for i, a := range d.Args {
					args[i] = materialize(a)
				}
				v := b.Call(callName(d), args...)
				if hasResult {
					vals[result] = v
				}
			case mir.Phi:
				var v irbuilder.Value
				for _, e := range d.Edges {
					v = materialize(e.Value)
				}
				if hasResult {
					vals[result] = v
				}
			case mir.Branch:
				b.Br(materialize(d.Cond), blockLabel(d.Then), blockLabel(d.Else))
			case mir.Jump:
				b.Jump(blockLabel(d.Dest))
			case mir.Exit:
				b.Ret(nil)
			}
		}
	}

	// Verifier failure is an invariant violation in the MIR this package
	// itself lowered, never a recoverable condition, per the Verify
	// contract.
	if err := mod.Verify(); err != nil {
		panic(fmt.Sprintf("compile: verify %s: %v", name, err))
	}
	if err := mod.Optimize(2); err != nil {
		return nil, fmt.Errorf("compile: optimize %s: %w", name, err)
	}
	obj, err := mod.EmitObject()
	if err != nil {
		return nil, fmt.Errorf("compile: emit %s: %w", name, err)
	}
	return obj, nil
}

func blockLabel(bb mir.Block) string { return fmt.Sprintf("bb%d", bb) }

func unaryOpName(op mir.UnaryOp) string {
	switch op {
	case mir.OpNeg:
		return "neg"
	case mir.OpNot:
		return "not"
	case mir.OpOptBarrier:
		return "optbarrier"
	case mir.OpSqrt:
		return "sqrt"
	case mir.OpExpFn:
		return "exp"
	case mir.OpLn:
		return "ln"
	case mir.OpLog:
		return "log10"
	case mir.OpLog2:
		return "log2"
	case mir.OpSin:
		return "sin"
	case mir.OpCos:
		return "cos"
	case mir.OpTan:
		return "tan"
	case mir.OpAsin:
		return "asin"
	case mir.OpAcos:
		return "acos"
	case mir.OpAtan:
		return "atan"
	case mir.OpSinh:
		return "sinh"
	case mir.OpCosh:
		return "cosh"
	case mir.OpTanh:
		return "tanh"
	case mir.OpAsinh:
		return "asinh"
	case mir.OpAcosh:
		return "acosh"
	case mir.OpAtanh:
		return "atanh"
	case mir.OpFloor:
		return "floor"
	case mir.OpCeil:
		return "ceil"
	case mir.OpClog2:
		return "clog2"
	case mir.OpLround:
		return "lround"
	default:
		return "unknown_unop"
	}
}

func binaryOpName(op mir.BinaryOp) string {
	switch op {
	case mir.OpIAdd:
		return "iadd"
	case mir.OpISub:
		return "isub"
	case mir.OpIMul:
		return "imul"
	case mir.OpIDiv:
		return "idiv"
	case mir.OpIMod:
		return "imod"
	case mir.OpFAdd:
		return "fadd"
	case mir.OpFSub:
		return "fsub"
	case mir.OpFMul:
		return "fmul"
	case mir.OpFDiv:
		return "fdiv"
	case mir.OpBitAnd:
		return "and"
	case mir.OpBitOr:
		return "or"
	case mir.OpBitXor:
		return "xor"
	case mir.OpShl:
		return "shl"
	case mir.OpShr:
		return "shr"
	case mir.OpLogAnd:
		return "land"
	case mir.OpLogOr:
		return "lor"
	case mir.OpPow:
		return "pow"
	case mir.OpAtan2:
		return "atan2"
	case mir.OpHypot:
		return "hypot"
	case mir.OpSeq:
		return "seq"
	case mir.OpSne:
		return "sne"
	default:
		return "unknown_binop"
	}
}

func predName(p mir.Predicate) string {
	switch p {
	case mir.PredOEQ:
		return "oeq"
	case mir.PredONE:
		return "one"
	case mir.PredOLT:
		return "olt"
	case mir.PredOGT:
		return "ogt"
	case mir.PredOLE:
		return "ole"
	case mir.PredOGE:
		return "oge"
	case mir.PredIEq:
		return "ieq"
	case mir.PredINe:
		return "ine"
	case mir.PredILt:
		return "ilt"
	case mir.PredILe:
		return "ile"
	case mir.PredIGt:
		return "igt"
	case mir.PredIGe:
		return "ige"
	default:
		return "unknown_pred"
	}
}

func callName(c mir.Call) string {
	switch c.Func {
	case mir.CallLimit:
		return "limit." + c.Name
	case mir.CallSetRetFlagAbort:
		return "set_ret_flag_abort"
	case mir.CallSetRetFlagFinish:
		return "set_ret_flag_finish"
	case mir.CallSetRetFlagStop:
		return "set_ret_flag_stop"
	case mir.CallParamInfoInvalid:
		return "param_info_invalid"
	case mir.CallCollapse:
		return "collapse"
	case mir.CallStrCmp:
		return "strcmp"
	default:
		return "unknown_call"
	}
}
