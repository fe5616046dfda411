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

// ResidualNatureKind reports the physical unit of a residual, used purely
// for ABI unit reporting (OSDI_RESIDUAL_REACT/RESIST_UNIT tables); it has
// no effect on solving.
type ResidualNatureKind uint8

const (
	ResidualNone ResidualNatureKind = iota
	ResidualFlow
	ResidualPotential
)

// Residual is the four expression slots contributed by one unknown: the
// instantaneous ("resist") and integrated ("react") halves, each with its
// own limiting right-hand side. Any slot may hold the canonical zero
// value, meaning "this unknown contributes nothing here".
type Residual struct {
	Resist       mir.Value
	React        mir.Value
	ResistLimRHS mir.Value
	ReactLimRHS  mir.Value
	NatureKind   ResidualNatureKind
}

// stripOptBarrier unwraps a chain of OptBarrier unary instructions feeding
// v, returning the underlying value. Opt-barriers exist only to block
// constant folding during DAE extraction; once the residual is captured
// they serve no further purpose and spec.md §4.C requires they be
// stripped before the value is recorded.
func stripOptBarrier(f *mir.Function, v mir.Value) mir.Value {
	for {
		def, ok := f.DFG.Values[v].(mir.ResultDef)
		if !ok {
			return v
		}
		u, ok := f.DFG.Insts[def.Inst].(mir.Unary)
		if !ok || u.Op != mir.OpOptBarrier {
			return v
		}
		v = u.Arg
	}
}
