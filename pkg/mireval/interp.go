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

// Package mireval is the Go-native stand-in for the LLVM IR builder
// façade spec.md explicitly places out of scope ("consumed: typed
// value/builder operations, module verification, optimization and object
// emission"). Rather than bind to LLVM, vacomp's OSDI codegen package
// (pkg/osdi/codegen) executes a module's MIR functions directly through
// this tree-walking interpreter, which is enough to exercise eval/init
// end to end in tests without an object-file backend.
package mireval

import (
	"fmt"
	"math"

	"github.com/vacomp/vacomp/pkg/mir"
	"github.com/vacomp/vacomp/pkg/osdi/abi"
)

// LimitCallback models one entry of OSDI_LIM_TABLE: given the limiting
// function's name, its arguments, and whether this is the first
// (init_flag) call, it returns the limited result and whether the value
// changed from the caller's last iteration.
type LimitCallback func(name string, args []mir.Const, initFlag bool) (result mir.Const, valChanged bool)

// Callbacks bundles every host hook eval's Call instructions may invoke.
type Callbacks struct {
	Limit           LimitCallback
	Collapse        func(pairID int64)
	ParamInfoInvalid func(name string, value mir.Const)
}

// Interp executes one MIR function against a fixed parameter vector.
type Interp struct {
	f  *mir.Function
	cb Callbacks

	env        map[mir.Value]mir.Const
	instResult map[mir.Inst]mir.Value
	retFlags   uint32

	// cached holds operating-point-independent instruction results
	// computed once by a prior interpretation pass (component E's taint
	// analysis determines which instructions qualify, per spec.md §3's
	// cache_slots/cached_vals). A non-nil entry for inst short-circuits
	// exec entirely: Run substitutes the cached value instead of
	// re-evaluating the instruction every call.
	cached map[mir.Inst]mir.Const
}

// New creates an interpreter for f with the given parameter bindings
// (index-aligned with f.ParamTypes) and host callbacks.
func New(f *mir.Function, params []mir.Const, cb Callbacks) *Interp {
	return NewCached(f, params, cb, nil)
}

// NewCached is New plus a set of precomputed instruction results to reuse
// instead of recomputing: the cache-slot mechanism of spec.md §3/§9, fed
// by pkg/compile's taint pass. A nil or empty cached map makes NewCached
// behave exactly like New.
func NewCached(f *mir.Function, params []mir.Const, cb Callbacks, cached map[mir.Inst]mir.Const) *Interp {
	ip := &Interp{
		f:          f,
		cb:         cb,
		env:        make(map[mir.Value]mir.Const),
		instResult: make(map[mir.Inst]mir.Value),
		cached:     cached,
	}
	for v, def := range f.DFG.Values {
		switch d := def.(type) {
		case mir.ParamDef:
			ip.env[mir.Value(v)] = params[d.Param]
		case mir.ConstDef:
			ip.env[mir.Value(v)] = d.Const
		case mir.ResultDef:
			ip.instResult[d.Inst] = mir.Value(v)
		}
	}
	return ip
}

func (ip *Interp) get(v mir.Value) mir.Const { return ip.env[v] }

func (ip *Interp) set(inst mir.Inst, c mir.Const) {
	if v, ok := ip.instResult[inst]; ok {
		ip.env[v] = c
	}
}

// Run executes the function from its entry block to an Exit terminator
// and returns the final value environment and the accumulated
// return-flags word (property 9: the OR of every flag-setting callback
// encountered on the taken path).
func (ip *Interp) Run() (map[mir.Value]mir.Const, uint32, error) {
	bb := ip.f.Entry
	var prev mir.Block
	hasPrev := false

	for {
		insts := ip.f.Layout.BlockInsts(bb)
		var term mir.InstData
		var termInst mir.Inst
		for _, inst := range insts {
			data := ip.f.DFG.Insts[inst]
			if phi, ok := data.(mir.Phi); ok {
				if !hasPrev {
					return nil, 0, fmt.Errorf("mireval: phi reached with no predecessor recorded")
				}
				for _, e := range phi.Edges {
					if e.Block == prev {
						ip.set(inst, ip.get(e.Value))
						break
					}
				}
				continue
			}
			if mir.IsTerminator(data) {
				term, termInst = data, inst
				break
			}
			if c, ok := ip.cached[inst]; ok {
				ip.set(inst, c)
				continue
			}
			if err := ip.exec(inst, data); err != nil {
				return nil, 0, err
			}
		}
		switch t := term.(type) {
		case mir.Exit:
			return ip.env, ip.retFlags, nil
		case mir.Jump:
			prev, hasPrev = bb, true
			bb = t.Dest
		case mir.Branch:
			cond := ip.get(t.Cond).B
			prev, hasPrev = bb, true
			if cond {
				bb = t.Then
			} else {
				bb = t.Else
			}
		default:
			return nil, 0, fmt.Errorf("mireval: block %d has no terminator (inst %d)", bb, termInst)
		}
	}
}

func (ip *Interp) exec(inst mir.Inst, data mir.InstData) error {
	switch d := data.(type) {
	case mir.Unary:
		ip.set(inst, evalUnary(d, ip.get(d.Arg)))
	case mir.Binary:
		ip.set(inst, evalBinary(d, ip.get(d.Lhs), ip.get(d.Rhs)))
	case mir.Cast:
		ip.set(inst, evalCast(d, ip.get(d.Arg)))
	case mir.Cmp:
		ip.set(inst, evalCmp(d, ip.get(d.Lhs), ip.get(d.Rhs)))
	case mir.Call:
		return ip.execCall(inst, d)
	default:
		return fmt.Errorf("mireval: unhandled instruction kind %T", data)
	}
	return nil
}

func (ip *Interp) execCall(inst mir.Inst, c mir.Call) error {
	args := make([]mir.Const, len(c.Args))
	for i, a := range c.Args {
		args[i] = ip.get(a)
	}
	switch c.Func {
	case mir.CallLimit:
		if ip.cb.Limit == nil {
			return fmt.Errorf("mireval: no Limit callback installed for %q", c.Name)
		}
		initFlag := len(args) > 0 && args[0].B
		result, changed := ip.cb.Limit(c.Name, args, initFlag)
		if changed {
			ip.retFlags |= abi.EvalRetFlagLim
		}
		ip.set(inst, result)
	case mir.CallSetRetFlagAbort:
		ip.retFlags |= abi.EvalRetFlagFatal
	case mir.CallSetRetFlagFinish:
		ip.retFlags |= abi.EvalRetFlagFinish
	case mir.CallSetRetFlagStop:
		ip.retFlags |= abi.EvalRetFlagStop
	case mir.CallParamInfoInvalid:
		if ip.cb.ParamInfoInvalid != nil && len(args) > 0 {
			ip.cb.ParamInfoInvalid(c.Name, args[0])
		}
	case mir.CallCollapse:
		if ip.cb.Collapse != nil && len(args) > 0 {
			ip.cb.Collapse(args[0].I)
		}
	case mir.CallStrCmp:
		ip.set(inst, mir.Const{Ty: mir.TyBool, B: args[0].Str == args[1].Str})
	default:
		return fmt.Errorf("mireval: unhandled callback kind %v", c.Func)
	}
	return nil
}

func evalUnary(u mir.Unary, a mir.Const) mir.Const {
	switch u.Op {
	case mir.OpNeg:
		if a.Ty == mir.TyInt {
			return mir.Const{Ty: mir.TyInt, I: -a.I}
		}
		return mir.Const{Ty: mir.TyReal, F: -a.F}
	case mir.OpNot:
		return mir.Const{Ty: mir.TyBool, B: !a.B}
	case mir.OpOptBarrier:
		return a
	case mir.OpSqrt:
		return real1(math.Sqrt(a.F))
	case mir.OpExpFn:
		return real1(math.Exp(a.F))
	case mir.OpLn:
		return real1(math.Log(a.F))
	case mir.OpLog:
		return real1(math.Log10(a.F))
	case mir.OpLog2:
		return real1(math.Log2(a.F))
	case mir.OpSin:
		return real1(math.Sin(a.F))
	case mir.OpCos:
		return real1(math.Cos(a.F))
	case mir.OpTan:
		return real1(math.Tan(a.F))
	case mir.OpAsin:
		return real1(math.Asin(a.F))
	case mir.OpAcos:
		return real1(math.Acos(a.F))
	case mir.OpAtan:
		return real1(math.Atan(a.F))
	case mir.OpSinh:
		return real1(math.Sinh(a.F))
	case mir.OpCosh:
		return real1(math.Cosh(a.F))
	case mir.OpTanh:
		return real1(math.Tanh(a.F))
	case mir.OpAsinh:
		return real1(math.Asinh(a.F))
	case mir.OpAcosh:
		return real1(math.Acosh(a.F))
	case mir.OpAtanh:
		return real1(math.Atanh(a.F))
	case mir.OpFloor:
		return real1(math.Floor(a.F))
	case mir.OpCeil:
		return real1(math.Ceil(a.F))
	case mir.OpClog2:
		return mir.Const{Ty: mir.TyInt, I: int64(32 - bitsLeadingZeros32(uint32(a.I)))}
	case mir.OpLround:
		return mir.Const{Ty: mir.TyInt, I: int64(math.Round(a.F))}
	default:
		return a
	}
}

func bitsLeadingZeros32(x uint32) int {
	n := 0
	for i := 31; i >= 0; i-- {
		if x&(1<<uint(i)) != 0 {
			break
		}
		n++
	}
	return n
}

func real1(f float64) mir.Const { return mir.Const{Ty: mir.TyReal, F: f} }

func evalBinary(b mir.Binary, l, r mir.Const) mir.Const {
	switch b.Op {
	case mir.OpIAdd:
		return mir.Const{Ty: mir.TyInt, I: l.I + r.I}
	case mir.OpISub:
		return mir.Const{Ty: mir.TyInt, I: l.I - r.I}
	case mir.OpIMul:
		return mir.Const{Ty: mir.TyInt, I: l.I * r.I}
	case mir.OpIDiv:
		return mir.Const{Ty: mir.TyInt, I: l.I / r.I}
	case mir.OpIMod:
		return mir.Const{Ty: mir.TyInt, I: l.I % r.I}
	case mir.OpFAdd:
		return real1(l.F + r.F)
	case mir.OpFSub:
		return real1(l.F - r.F)
	case mir.OpFMul:
		return real1(l.F * r.F)
	case mir.OpFDiv:
		return real1(l.F / r.F)
	case mir.OpBitAnd:
		return mir.Const{Ty: mir.TyInt, I: l.I & r.I}
	case mir.OpBitOr:
		return mir.Const{Ty: mir.TyInt, I: l.I | r.I}
	case mir.OpBitXor:
		return mir.Const{Ty: mir.TyInt, I: l.I ^ r.I}
	case mir.OpShl:
		return mir.Const{Ty: mir.TyInt, I: l.I << uint(r.I)}
	case mir.OpShr:
		return mir.Const{Ty: mir.TyInt, I: l.I >> uint(r.I)}
	case mir.OpLogAnd:
		return mir.Const{Ty: mir.TyBool, B: l.B && r.B}
	case mir.OpLogOr:
		return mir.Const{Ty: mir.TyBool, B: l.B || r.B}
	case mir.OpPow:
		return real1(math.Pow(l.F, r.F))
	case mir.OpAtan2:
		return real1(math.Atan2(l.F, r.F))
	case mir.OpHypot:
		return real1(math.Hypot(l.F, r.F))
	case mir.OpSeq:
		return mir.Const{Ty: mir.TyBool, B: l.Str == r.Str}
	case mir.OpSne:
		return mir.Const{Ty: mir.TyBool, B: l.Str != r.Str}
	default:
		return l
	}
}

func evalCast(c mir.Cast, a mir.Const) mir.Const {
	switch {
	case c.From == mir.TyInt && c.To == mir.TyReal:
		return real1(float64(a.I))
	case c.From == mir.TyReal && c.To == mir.TyInt:
		return mir.Const{Ty: mir.TyInt, I: int64(a.F)}
	case c.From == mir.TyBool && c.To == mir.TyInt:
		if a.B {
			return mir.Const{Ty: mir.TyInt, I: 1}
		}
		return mir.Const{Ty: mir.TyInt, I: 0}
	case c.From == mir.TyInt && c.To == mir.TyBool:
		return mir.Const{Ty: mir.TyBool, B: a.I != 0}
	case c.From == mir.TyBool && c.To == mir.TyReal:
		if a.B {
			return real1(1)
		}
		return real1(0)
	case c.From == mir.TyReal && c.To == mir.TyBool:
		return mir.Const{Ty: mir.TyBool, B: a.F != 0}
	default:
		return a
	}
}

func evalCmp(c mir.Cmp, l, r mir.Const) mir.Const {
	switch c.Pred {
	case mir.PredOEQ:
		return mir.Const{Ty: mir.TyBool, B: l.F == r.F}
	case mir.PredONE:
		return mir.Const{Ty: mir.TyBool, B: l.F != r.F}
	case mir.PredOLT:
		return mir.Const{Ty: mir.TyBool, B: l.F < r.F}
	case mir.PredOGT:
		return mir.Const{Ty: mir.TyBool, B: l.F > r.F}
	case mir.PredOLE:
		return mir.Const{Ty: mir.TyBool, B: l.F <= r.F}
	case mir.PredOGE:
		return mir.Const{Ty: mir.TyBool, B: l.F >= r.F}
	case mir.PredIEq:
		return mir.Const{Ty: mir.TyBool, B: l.I == r.I}
	case mir.PredINe:
		return mir.Const{Ty: mir.TyBool, B: l.I != r.I}
	case mir.PredILt:
		return mir.Const{Ty: mir.TyBool, B: l.I < r.I}
	case mir.PredILe:
		return mir.Const{Ty: mir.TyBool, B: l.I <= r.I}
	case mir.PredIGt:
		return mir.Const{Ty: mir.TyBool, B: l.I > r.I}
	case mir.PredIGe:
		return mir.Const{Ty: mir.TyBool, B: l.I >= r.I}
	default:
		return mir.Const{Ty: mir.TyBool, B: false}
	}
}

// Value looks up v's final interpreted value after Run completes.
func Value(env map[mir.Value]mir.Const, v mir.Value) mir.Const { return env[v] }
