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
package natdisc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vacomp/vacomp/pkg/intern"
	"github.com/vacomp/vacomp/pkg/osdi/abi"
)

func TestBuilderOrdersAttributeSpans(t *testing.T) {
	strs := &intern.Table{}
	b := NewBuilder(strs)

	voltage := b.AddNature(NatureDecl{
		Name:  "Voltage",
		Attrs: []AttrDecl{{Name: "abstol", Kind: abi.AttrTypeReal, Real: 1e-6}},
	})
	require.Equal(t, NatureIdx(0), voltage)

	current := b.AddNature(NatureDecl{Name: "Current"})

	disc := b.AddDiscipline(DisciplineDecl{
		Name:               "electrical",
		Flow:               DisciplineRefDecl{Kind: abi.NatRefNature, Name: "Current"},
		Potential:          DisciplineRefDecl{Kind: abi.NatRefNature, Name: "Voltage"},
		Domain:             abi.DomainContinuous,
		FlowOverrides:      []AttrDecl{{Name: "ddt_nature", Kind: abi.AttrTypeString, Str: "foo"}},
		PotentialOverrides: []AttrDecl{{Name: "abstol", Kind: abi.AttrTypeReal, Real: 1e-9}},
		UserAttrs:          []AttrDecl{{Name: "desc", Kind: abi.AttrTypeString, Str: "bar"}},
	})

	table := b.Table()
	d := table.Disciplines[disc]
	require.Equal(t, NatureRef{Kind: abi.NatRefNature, Idx: current}, d.Flow)
	require.Equal(t, NatureRef{Kind: abi.NatRefNature, Idx: voltage}, d.Potential)

	// Three spans appended in order: flow, potential, user.
	require.Equal(t, d.FlowOverrides.Start, uint32(1)) // after the 1 nature attr
	require.Equal(t, d.PotentialOverrides.Start, d.FlowOverrides.Start+d.FlowOverrides.Len)
	require.Equal(t, d.UserAttributes.Start, d.PotentialOverrides.Start+d.PotentialOverrides.Len)

	idx, ok := table.NatureByName("Voltage")
	require.True(t, ok)
	require.Equal(t, voltage, idx)
}

func TestUnresolvedNatureRefBecomesNoRef(t *testing.T) {
	strs := &intern.Table{}
	b := NewBuilder(strs)
	disc := b.AddDiscipline(DisciplineDecl{
		Name: "bogus",
		Flow: DisciplineRefDecl{Kind: abi.NatRefNature, Name: "DoesNotExist"},
	})
	require.Equal(t, NoRef, b.Table().Disciplines[disc].Flow)
}
