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

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vacomp/vacomp/pkg/mir"
)

func newEvalWithVoltages(t *testing.T) (*mir.Function, mir.Value, mir.Value, mir.Value, mir.Value) {
	t.Helper()
	f := mir.NewFunction("eval", nil)
	zero := f.DFG.MakeConst(mir.Const{Ty: mir.TyReal, F: 0})
	one := f.DFG.MakeConst(mir.Const{Ty: mir.TyReal, F: 1})
	va := f.DFG.MakeParam(0, mir.TyReal)
	vb := f.DFG.MakeParam(1, mir.TyReal)
	return f, zero, one, va, vb
}

// TestStampResistorS1 exercises scenario S1: two KirchoffLaw unknowns,
// four resistive Jacobian entries {+1/R,-1/R,-1/R,+1/R}, zero reactive
// entries.
func TestStampResistorS1(t *testing.T) {
	f, zero, one, va, vb := newEvalWithVoltages(t)
	r := f.DFG.MakeParam(2, mir.TyReal)

	b := NewBuilder(f, zero)
	StampResistor(b, f, 0, 1, one, va, vb, r)
	sys := b.Build()

	require.Len(t, sys.Unknowns, 2)
	require.Equal(t, KirchoffLaw{Node: 0}, sys.Unknowns[0].Kind)
	require.Equal(t, KirchoffLaw{Node: 1}, sys.Unknowns[1].Kind)

	require.Len(t, sys.Jacobian, 4)
	require.Equal(t, 4, sys.NumResistive)
	require.Equal(t, 0, sys.NumReactive)

	for _, e := range sys.Jacobian {
		require.Equal(t, zero, e.React)
		require.False(t, e.HasReactOff)
		require.NotEqual(t, zero, e.Resist)
	}

	// (a,a) and (b,b) share the same +1/R value; (a,b) and (b,a) share
	// the same -1/R value; the two magnitudes differ (one is Neg of the
	// other), matching S1's {+1/R,-1/R,-1/R,+1/R} pattern.
	require.Equal(t, sys.Jacobian[0].Resist, sys.Jacobian[3].Resist)
	require.Equal(t, sys.Jacobian[1].Resist, sys.Jacobian[2].Resist)
	require.NotEqual(t, sys.Jacobian[0].Resist, sys.Jacobian[1].Resist)
}

// TestStampCapacitorS2 exercises scenario S2: num_reactive = 4, all four
// Jacobian entries have a distinct react_off, and no resistive entries
// are counted.
func TestStampCapacitorS2(t *testing.T) {
	f, zero, _, vp, vn := newEvalWithVoltages(t)
	c := f.DFG.MakeParam(2, mir.TyReal)

	b := NewBuilder(f, zero)
	StampCapacitor(b, f, 0, 1, vp, vn, c)
	sys := b.Build()

	require.Equal(t, 0, sys.NumResistive)
	require.Equal(t, 4, sys.NumReactive)
	require.Len(t, sys.Jacobian, 4)

	seen := make(map[uint32]bool)
	for _, e := range sys.Jacobian {
		require.True(t, e.HasReactOff)
		require.Equal(t, zero, e.Resist)
		require.False(t, seen[e.ReactOff])
		seen[e.ReactOff] = true
	}
	require.Len(t, seen, 4)
}

// TestJacobianZeroSkipping is property 3: a zero react half never
// consumes a react_off, and distinct nonzero halves never collide.
func TestJacobianZeroSkipping(t *testing.T) {
	f, zero, _, va, vb := newEvalWithVoltages(t)
	nonzero := f.DFG.MakeParam(2, mir.TyReal)

	b := NewBuilder(f, zero)
	u0 := b.Unknown(KirchoffLaw{Node: 0})
	u1 := b.Unknown(KirchoffLaw{Node: 1})
	_ = va
	_ = vb

	before := b.Build().NumReactive
	e1 := b.AddJacobian(u0, u0, zero, zero)
	require.False(t, e1.HasReactOff)
	require.Equal(t, before, b.Build().NumReactive)

	e2 := b.AddJacobian(u0, u1, zero, nonzero)
	require.True(t, e2.HasReactOff)
	require.Equal(t, before+1, b.Build().NumReactive)

	e3 := b.AddJacobian(u1, u0, zero, nonzero)
	require.True(t, e3.HasReactOff)
	require.NotEqual(t, e2.ReactOff, e3.ReactOff)
}

// TestUnknownOrderingStable checks that repeated registration of the same
// UnknownKind returns the same UnknownID, and registration order defines
// the index.
func TestUnknownOrderingStable(t *testing.T) {
	f, zero, _, _, _ := newEvalWithVoltages(t)
	b := NewBuilder(f, zero)
	a := b.Unknown(KirchoffLaw{Node: 5})
	c := b.Unknown(CurrentBranch{Branch: 1})
	aAgain := b.Unknown(KirchoffLaw{Node: 5})

	require.Equal(t, a, aAgain)
	require.NotEqual(t, a, c)
	require.Equal(t, UnknownID(0), a)
	require.Equal(t, UnknownID(1), c)
}

// TestSetResidualStripsOptBarrier verifies that an OptBarrier wrapping a
// residual expression is removed before the value is recorded.
func TestSetResidualStripsOptBarrier(t *testing.T) {
	f, zero, _, _, _ := newEvalWithVoltages(t)
	b := NewBuilder(f, zero)
	u := b.Unknown(KirchoffLaw{Node: 0})

	raw := f.DFG.MakeParam(0, mir.TyReal)
	_, wrapped := f.Build(f.Entry, mir.Unary{Op: mir.OpOptBarrier, Arg: raw}, mir.TyReal, 0)

	b.SetResidual(u, Residual{Resist: wrapped, React: zero, ResistLimRHS: zero, ReactLimRHS: zero})
	require.Equal(t, raw, b.Build().Residual[u].Resist)
}
