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
package dae

import "github.com/vacomp/vacomp/pkg/mir"

// This file stamps the DAE contribution of the three primitive devices
// pkg/hir/primitives.go desugars instances of (resistor/capacitor/
// inductor) into exact branch-contribution statements. Each Stamp*
// function both emits the MIR instructions computing the contribution
// (grounded on the literal `I(a,b) <+ ...`/`V(a,b) <+ ...` statements
// produced there) and records the resulting residual/Jacobian entries,
// exercising the S1/S2 scenarios of spec.md §8 bit-for-bit.
//
// ddt(x) has no MIR instruction of its own: the builder routes whatever
// MIR value the argument evaluates to directly into the React residual
// slot, since integration over time is the host simulator's job, not
// this compiler's.

// StampResistor records `I(a,b) <+ V(a,b) / r` between the KirchoffLaw
// unknowns of nodeA and nodeB. va, vb are the already-lowered
// node-potential values in f; one is f's real-1.0 constant.
func StampResistor(b *Builder, f *mir.Function, nodeA, nodeB uint32, one, va, vb, r mir.Value) {
	ua := b.Unknown(KirchoffLaw{Node: nodeA})
	ub := b.Unknown(KirchoffLaw{Node: nodeB})

	_, vab := f.Build(f.Entry, mir.Binary{Op: mir.OpFSub, Lhs: va, Rhs: vb}, mir.TyReal, 0)
	// The two divisions below compute reciprocal-related quantities
	// (current = vab/r, invR = 1/r); marked fast-math partial (negative
	// sourceLoc) so a backend may reassociate the division into a
	// multiply by a cached reciprocal, per spec.md §4.D's recip hint.
	_, current := f.Build(f.Entry, mir.Binary{Op: mir.OpFDiv, Lhs: vab, Rhs: r}, mir.TyReal, -1)
	_, negCurrent := f.Build(f.Entry, mir.Unary{Op: mir.OpNeg, Arg: current}, mir.TyReal, 0)

	b.SetResidual(ua, Residual{Resist: current, React: b.zero, ResistLimRHS: b.zero, ReactLimRHS: b.zero, NatureKind: ResidualFlow})
	b.SetResidual(ub, Residual{Resist: negCurrent, React: b.zero, ResistLimRHS: b.zero, ReactLimRHS: b.zero, NatureKind: ResidualFlow})

	_, invR := f.Build(f.Entry, mir.Binary{Op: mir.OpFDiv, Lhs: one, Rhs: r}, mir.TyReal, -1)
	_, negInvR := f.Build(f.Entry, mir.Unary{Op: mir.OpNeg, Arg: invR}, mir.TyReal, 0)

	b.AddJacobian(ua, ua, invR, b.zero)
	b.AddJacobian(ua, ub, negInvR, b.zero)
	b.AddJacobian(ub, ua, negInvR, b.zero)
	b.AddJacobian(ub, ub, invR, b.zero)
}

// StampCapacitor records `react[p] = -react[n] = ddt(c * V(p,n))`
// between the KirchoffLaw unknowns of nodeP and nodeN.
func StampCapacitor(b *Builder, f *mir.Function, nodeP, nodeN uint32, vp, vn, c mir.Value) {
	up := b.Unknown(KirchoffLaw{Node: nodeP})
	un := b.Unknown(KirchoffLaw{Node: nodeN})

	_, vpn := f.Build(f.Entry, mir.Binary{Op: mir.OpFSub, Lhs: vp, Rhs: vn}, mir.TyReal, 0)
	_, charge := f.Build(f.Entry, mir.Binary{Op: mir.OpFMul, Lhs: c, Rhs: vpn}, mir.TyReal, 0)
	_, negCharge := f.Build(f.Entry, mir.Unary{Op: mir.OpNeg, Arg: charge}, mir.TyReal, 0)

	b.SetResidual(up, Residual{Resist: b.zero, React: charge, ResistLimRHS: b.zero, ReactLimRHS: b.zero, NatureKind: ResidualFlow})
	b.SetResidual(un, Residual{Resist: b.zero, React: negCharge, ResistLimRHS: b.zero, ReactLimRHS: b.zero, NatureKind: ResidualFlow})

	_, negC := f.Build(f.Entry, mir.Unary{Op: mir.OpNeg, Arg: c}, mir.TyReal, 0)

	b.AddJacobian(up, up, b.zero, c)
	b.AddJacobian(up, un, b.zero, negC)
	b.AddJacobian(un, up, b.zero, negC)
	b.AddJacobian(un, un, b.zero, c)
}

// StampInductor records the implicit-equation form of `V(a,b) <+
// l * ddt(I(a,b))`: a branch-current unknown whose own residual equation
// is `V(a,b) - l*ddt(I(a,b)) = 0`, plus the KCL contribution of that
// current into a and b.
func StampInductor(b *Builder, f *mir.Function, branch, nodeA, nodeB uint32, va, vb, l mir.Value) {
	ua := b.Unknown(KirchoffLaw{Node: nodeA})
	ub := b.Unknown(KirchoffLaw{Node: nodeB})
	ibr := b.Unknown(CurrentBranch{Branch: branch})

	_, ibrVal := f.Build(f.Entry, mir.Unary{Op: mir.OpOptBarrier, Arg: b.zero}, mir.TyReal, 0) // placeholder read of the branch-current state value
	_, negIbr := f.Build(f.Entry, mir.Unary{Op: mir.OpNeg, Arg: ibrVal}, mir.TyReal, 0)

	_, vab := f.Build(f.Entry, mir.Binary{Op: mir.OpFSub, Lhs: va, Rhs: vb}, mir.TyReal, 0)
	_, lIbr := f.Build(f.Entry, mir.Binary{Op: mir.OpFMul, Lhs: l, Rhs: ibrVal}, mir.TyReal, 0)

	b.SetResidual(ua, Residual{Resist: ibrVal, React: b.zero, ResistLimRHS: b.zero, ReactLimRHS: b.zero, NatureKind: ResidualFlow})
	b.SetResidual(ub, Residual{Resist: negIbr, React: b.zero, ResistLimRHS: b.zero, ReactLimRHS: b.zero, NatureKind: ResidualFlow})
	b.SetResidual(ibr, Residual{Resist: vab, React: lIbr, ResistLimRHS: b.zero, ReactLimRHS: b.zero, NatureKind: ResidualPotential})

	one := f.DFG.MakeConst(mir.Const{Ty: mir.TyReal, F: 1})
	_, negOne := f.Build(f.Entry, mir.Unary{Op: mir.OpNeg, Arg: one}, mir.TyReal, 0)

	b.AddJacobian(ua, ibr, one, b.zero)
	b.AddJacobian(ub, ibr, negOne, b.zero)
	b.AddJacobian(ibr, ua, one, b.zero)
	b.AddJacobian(ibr, ub, negOne, b.zero)
	b.AddJacobian(ibr, ibr, b.zero, l)
}
