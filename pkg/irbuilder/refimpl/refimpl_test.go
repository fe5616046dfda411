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
package refimpl

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vacomp/vacomp/pkg/irbuilder"
)

func TestBuilderRecordsCallSequence(t *testing.T) {
	m := New()
	b := m.DefineFunction(irbuilder.Sig{Name: "eval", NumParams: 2})

	a := b.Param(0)
	c := b.ConstF64(2.5)
	sum := b.BinOp("fadd", a, c, "strict")
	b.Ret(sum)

	require.NoError(t, m.Verify())
	require.NoError(t, m.Optimize(2))

	require.Len(t, m.Funcs, 1)
	ops := m.Funcs[0].Ops
	require.Len(t, ops, 4)
	require.Equal(t, "param", ops[0].Kind)
	require.Equal(t, "const", ops[1].Kind)
	require.Equal(t, "binop", ops[2].Kind)
	require.Equal(t, "ret", ops[3].Kind)

	obj, err := m.EmitObject()
	require.NoError(t, err)
	require.Contains(t, string(obj), "function eval")
	require.Contains(t, string(obj), "fadd")
}

func TestMultipleFunctionsAreIndependent(t *testing.T) {
	m := New()
	b1 := m.DefineFunction(irbuilder.Sig{Name: "f1"})
	b1.ConstF64(1)
	b2 := m.DefineFunction(irbuilder.Sig{Name: "f2"})
	b2.ConstF64(2)

	require.Len(t, m.Funcs, 2)
	require.Equal(t, "f1", m.Funcs[0].Sig.Name)
	require.Equal(t, "f2", m.Funcs[1].Sig.Name)
	// each function's register numbering restarts at 0
	require.Contains(t, m.Funcs[0].Ops[0].Text, "v0")
	require.Contains(t, m.Funcs[1].Ops[0].Text, "v0")
}
