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

// Package dae assembles the DAE system for one module: the ordered set of
// simulator unknowns, the per-unknown residual, the Jacobian matrix, noise
// sources, and model inputs, over values already materialized in the
// module's MIR eval function.
package dae

// UnknownKind is a closed sum identifying what one simulator unknown
// represents. Each variant is a small comparable struct so UnknownKind
// itself can be used directly as a map key.
type UnknownKind interface{ isUnknownKind() }

// KirchoffLaw is the potential (voltage) unknown of a node.
type KirchoffLaw struct{ Node uint32 }

// CurrentBranch is the current unknown of a named branch.
type CurrentBranch struct{ Branch uint32 }

// CurrentUnnamed is the current unknown of an unnamed hi/lo branch.
type CurrentUnnamed struct{ Hi, Lo uint32 }

// CurrentPort is the current unknown flowing into a port.
type CurrentPort struct{ Node uint32 }

// Implicit is the output unknown of an implicit equation (e.g. from a
// collapsible branch or an analog behavioral equation with no direct
// node).
type Implicit struct{ EquationID uint32 }

func (KirchoffLaw) isUnknownKind()    {}
func (CurrentBranch) isUnknownKind()  {}
func (CurrentUnnamed) isUnknownKind() {}
func (CurrentPort) isUnknownKind()    {}
func (Implicit) isUnknownKind()       {}

// UnknownID indexes DaeSystem.Unknowns. Ordering is stable: the index
// assigned the first time a given UnknownKind is registered is that
// unknown's index for the lifetime of the DaeSystem, and every downstream
// reference (Jacobian rows/cols, noise endpoints, model inputs) uses it.
type UnknownID uint32

// Unknown is one entry of the ordered unknown set.
type Unknown struct {
	Kind UnknownKind
}
