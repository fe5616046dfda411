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

// JacobianEntry is one partial derivative of residual[Row] w.r.t.
// unknown Col. Per spec.md §4.C invariant (b), an entry is recorded even
// when one half is the zero constant; ReactOff is only meaningful when
// HasReactOff is true.
type JacobianEntry struct {
	Row, Col    UnknownID
	Resist      mir.Value
	React       mir.Value
	HasResist   bool
	ReactOff    uint32
	HasReactOff bool
}
