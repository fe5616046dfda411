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
	"github.com/vacomp/vacomp/pkg/intern"
	"github.com/vacomp/vacomp/pkg/mir"
)

// NoiseSourceKind is a closed sum over the three noise models OSDI
// reports: flat white noise, 1/f^exp flicker noise, and a sampled
// log/linear noise table.
type NoiseSourceKind interface{ isNoiseSourceKind() }

// WhiteNoise is a flat power spectral density.
type WhiteNoise struct{ Pwr mir.Value }

// FlickerNoise is a 1/f^Exp power spectral density.
type FlickerNoise struct{ Pwr, Exp mir.Value }

// NoiseTable is a host-sampled noise table, linear or log-spaced.
type NoiseTable struct {
	Log    bool
	Values mir.Value
}

func (WhiteNoise) isNoiseSourceKind()   {}
func (FlickerNoise) isNoiseSourceKind() {}
func (NoiseTable) isNoiseSourceKind()   {}

// NoiseSource is one named noise contributor between two unknowns (Lo may
// be absent, for a noise source referenced to ground).
type NoiseSource struct {
	Name   intern.StringID
	Kind   NoiseSourceKind
	Hi     UnknownID
	Lo     *UnknownID
	Factor mir.Value
}
