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

// DaeSystem is the assembled per-module differential-algebraic equation
// system: an ordered set of unknowns, their residuals, the Jacobian, noise
// sources, and model inputs. Every cross-reference (Jacobian rows/cols,
// noise endpoints, model inputs) uses the stable UnknownID assigned at
// registration, per spec.md §4.C.
type DaeSystem struct {
	Unknowns     []Unknown
	Residual     []Residual // parallel to Unknowns
	Jacobian     []JacobianEntry
	NoiseSources []NoiseSource
	ModelInputs  [][2]UnknownID

	// CollapsiblePairs lists the node pairs a $collapse call may merge at
	// runtime, in registration order; its index is the pair id MarkCollapsed
	// and InstanceLayout.CollapsedPairFlagLoc both address.
	CollapsiblePairs [][2]UnknownID

	NumResistive int
	NumReactive  int

	// F is the MIR function every Residual/JacobianEntry expression slot
	// is a Value in. Descriptor emission reads f.DFG.Values[v] through it
	// to tell a compile-time-constant Jacobian half (mir.ConstDef) from a
	// computed one (mir.ResultDef), per spec.md §4.H's RESIST_CONST/
	// REACT_CONST descriptor flags.
	F *mir.Function
}

// IsConstValue reports whether v is backed by a mir.ConstDef in sys.F's
// data-flow graph, i.e. whether it never varies across Newton iterations.
// The builder's zero value, when made with MakeConst, is itself a
// mir.ConstDef and so reports true; descriptor emission only asks about
// halves an entry actually has (HasResist/HasReactOff).
func (sys *DaeSystem) IsConstValue(v mir.Value) bool {
	if sys.F == nil {
		return false
	}
	_, ok := sys.F.DFG.Values[v].(mir.ConstDef)
	return ok
}

// Builder assembles a DaeSystem incrementally as contributions are
// collected from a module's eval function. zero is the canonical MIR
// value standing for "no contribution here"; callers compare against it
// (by value identity, since MIR values are dense arena indices and a
// constant is only ever allocated once per builder) to decide whether a
// slot counts as absent.
type Builder struct {
	f    *mir.Function
	zero mir.Value

	unknownIdx map[UnknownKind]UnknownID
	sys        *DaeSystem
}

// NewBuilder creates a Builder over f, whose residual and Jacobian
// expressions are MIR values already materialized in f. zero must be the
// function's canonical real-zero constant.
func NewBuilder(f *mir.Function, zero mir.Value) *Builder {
	return &Builder{
		f:          f,
		zero:       zero,
		unknownIdx: make(map[UnknownKind]UnknownID),
		sys:        &DaeSystem{F: f},
	}
}

// Unknown returns kind's UnknownID, registering it (at the next free
// index) the first time it is seen. Ordering is therefore stable: the
// first registration order is permanent for the lifetime of the system.
func (b *Builder) Unknown(kind UnknownKind) UnknownID {
	if id, ok := b.unknownIdx[kind]; ok {
		return id
	}
	id := UnknownID(len(b.sys.Unknowns))
	b.unknownIdx[kind] = id
	b.sys.Unknowns = append(b.sys.Unknowns, Unknown{Kind: kind})
	b.sys.Residual = append(b.sys.Residual, Residual{
		Resist: b.zero, React: b.zero, ResistLimRHS: b.zero, ReactLimRHS: b.zero,
	})
	return id
}

// SetResidual strips opt-barriers from every slot of r and installs it as
// u's residual, replacing whatever was previously there.
func (b *Builder) SetResidual(u UnknownID, r Residual) {
	r.Resist = stripOptBarrier(b.f, r.Resist)
	r.React = stripOptBarrier(b.f, r.React)
	r.ResistLimRHS = stripOptBarrier(b.f, r.ResistLimRHS)
	r.ReactLimRHS = stripOptBarrier(b.f, r.ReactLimRHS)
	b.sys.Residual[u] = r
}

// AddJacobian strips opt-barriers from resist/react, records one entry,
// and — per spec.md §4.C — counts it into NumResistive/NumReactive and
// assigns a dense, contiguous ReactOff iff react is not the zero
// constant. Two entries never share a ReactOff: offsets are handed out in
// registration order, one per nonzero reactive half.
func (b *Builder) AddJacobian(row, col UnknownID, resist, react mir.Value) JacobianEntry {
	resist = stripOptBarrier(b.f, resist)
	react = stripOptBarrier(b.f, react)

	e := JacobianEntry{Row: row, Col: col, Resist: resist, React: react}
	if resist != b.zero {
		e.HasResist = true
		b.sys.NumResistive++
	}
	if react != b.zero {
		e.HasReactOff = true
		e.ReactOff = uint32(b.sys.NumReactive)
		b.sys.NumReactive++
	}
	b.sys.Jacobian = append(b.sys.Jacobian, e)
	return e
}

// AddNoiseSource appends ns to the system's noise source list.
func (b *Builder) AddNoiseSource(ns NoiseSource) {
	b.sys.NoiseSources = append(b.sys.NoiseSources, ns)
}

// AddModelInput records (hi, lo) as one of the driving inputs the
// generated eval function observes.
func (b *Builder) AddModelInput(hi, lo UnknownID) {
	b.sys.ModelInputs = append(b.sys.ModelInputs, [2]UnknownID{hi, lo})
}

// AddCollapsiblePair records (a, b) as a node pair a $collapse call may
// merge at runtime, returning its pair id.
func (b *Builder) AddCollapsiblePair(a, bb UnknownID) int {
	id := len(b.sys.CollapsiblePairs)
	b.sys.CollapsiblePairs = append(b.sys.CollapsiblePairs, [2]UnknownID{a, bb})
	return id
}

// Build returns the assembled system. The Builder may keep being used
// afterward; Build takes no snapshot and the returned pointer aliases
// live Builder state.
func (b *Builder) Build() *DaeSystem {
	return b.sys
}
