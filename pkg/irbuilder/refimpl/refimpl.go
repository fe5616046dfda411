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

// Package refimpl is an in-memory reference implementation of
// pkg/irbuilder: it records every builder call instead of emitting real
// machine code, so the call sequence codegen produces can be asserted on
// in tests without a native toolchain, matching spec.md §6's framing of
// the real backend as swappable behind the irbuilder interfaces.
package refimpl

import (
	"fmt"

	"github.com/vacomp/vacomp/pkg/irbuilder"
)

// value is refimpl's Value: a monotonically numbered SSA-ish register,
// good enough for equality and for rendering a trace.
type value struct{ id int }

func (value) IsIRValue() {}

// Op is one recorded builder call, in call order.
type Op struct {
	Kind string // "const", "param", "load", "store", "binop", "unop", "cmp", "call", "br", "jump", "label", "ret"
	Text string // a human-readable rendering, e.g. "v3 = fadd v1, v2"
}

// FuncTrace is the recorded call sequence for one defined function.
type FuncTrace struct {
	Sig irbuilder.Sig
	Ops []Op
}

// Module is refimpl's Module: it accumulates a FuncTrace per defined
// function and never fails verification or optimization, since it has no
// real machine-code backend to check against.
type Module struct {
	Funcs []*FuncTrace
}

// New creates an empty recording module.
func New() *Module { return &Module{} }

func (m *Module) DefineFunction(sig irbuilder.Sig) irbuilder.Builder {
	trace := &FuncTrace{Sig: sig}
	m.Funcs = append(m.Funcs, trace)
	return &builder{trace: trace}
}

func (m *Module) Verify() error { return nil }

func (m *Module) Optimize(level int) error { return nil }

// EmitObject renders every recorded function trace as a flat text
// listing — refimpl's stand-in "object artifact".
func (m *Module) EmitObject() ([]byte, error) {
	var out []byte
	for _, fn := range m.Funcs {
		out = append(out, fmt.Sprintf("function %s\n", fn.Sig.Name)...)
		for _, op := range fn.Ops {
			out = append(out, "  "+op.Text+"\n"...)
		}
	}
	return out, nil
}

type builder struct {
	trace *FuncTrace
	next  int
}

func (b *builder) alloc() value {
	v := value{id: b.next}
	b.next++
	return v
}

func (b *builder) emit(kind, text string) {
	b.trace.Ops = append(b.trace.Ops, Op{Kind: kind, Text: text})
}

func (b *builder) ConstF64(v float64) irbuilder.Value {
	r := b.alloc()
	b.emit("const", fmt.Sprintf("v%d = const.f64 %g", r.id, v))
	return r
}

func (b *builder) Param(idx int) irbuilder.Value {
	r := b.alloc()
	b.emit("param", fmt.Sprintf("v%d = param %d", r.id, idx))
	return r
}

func (b *builder) Load(ptr irbuilder.Value) irbuilder.Value {
	r := b.alloc()
	b.emit("load", fmt.Sprintf("v%d = load %s", r.id, render(ptr)))
	return r
}

func (b *builder) Store(ptr, val irbuilder.Value) {
	b.emit("store", fmt.Sprintf("store %s, %s", render(ptr), render(val)))
}

func (b *builder) BinOp(op string, lhs, rhs irbuilder.Value, fastmath string) irbuilder.Value {
	r := b.alloc()
	b.emit("binop", fmt.Sprintf("v%d = %s.%s %s, %s", r.id, op, fastmath, render(lhs), render(rhs)))
	return r
}

func (b *builder) UnOp(op string, arg irbuilder.Value, fastmath string) irbuilder.Value {
	r := b.alloc()
	b.emit("unop", fmt.Sprintf("v%d = %s.%s %s", r.id, op, fastmath, render(arg)))
	return r
}

func (b *builder) Cmp(pred string, lhs, rhs irbuilder.Value) irbuilder.Value {
	r := b.alloc()
	b.emit("cmp", fmt.Sprintf("v%d = cmp.%s %s, %s", r.id, pred, render(lhs), render(rhs)))
	return r
}

func (b *builder) Call(callback string, args ...irbuilder.Value) irbuilder.Value {
	r := b.alloc()
	b.emit("call", fmt.Sprintf("v%d = call %s(%s)", r.id, callback, renderAll(args)))
	return r
}

func (b *builder) Br(cond irbuilder.Value, thenLabel, elseLabel string) {
	b.emit("br", fmt.Sprintf("br %s, %s, %s", render(cond), thenLabel, elseLabel))
}

func (b *builder) Jump(label string) {
	b.emit("jump", fmt.Sprintf("jump %s", label))
}

func (b *builder) Label(name string) {
	b.emit("label", fmt.Sprintf("%s:", name))
}

func (b *builder) Ret(v irbuilder.Value) {
	b.emit("ret", fmt.Sprintf("ret %s", render(v)))
}

func render(v irbuilder.Value) string {
	if rv, ok := v.(value); ok {
		return fmt.Sprintf("v%d", rv.id)
	}
	return "?"
}

func renderAll(vs []irbuilder.Value) string {
	s := ""
	for i, v := range vs {
		if i > 0 {
			s += ", "
		}
		s += render(v)
	}
	return s
}
