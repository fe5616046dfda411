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
package mir

import "fmt"

// PhiBuilder implements the two-phase phi fix-up described in spec.md
// §4.D: a phi's incoming value/block pairs are not all materialized at
// the point it is emitted (its predecessors may not have been visited
// yet), so edges are reserved empty and wired in later, then verified.
//
// This also resolves the open question noted in spec.md §9: after wiring,
// Finish asserts that every phi's incoming-edge count equals its block's
// predecessor count, rather than silently trusting the caller wired every
// edge.
type PhiBuilder struct {
	f         *Function
	unfinished []Inst
}

// NewPhiBuilder creates a phi builder for f.
func (f *Function) NewPhiBuilder() *PhiBuilder {
	return &PhiBuilder{f: f}
}

// Reserve allocates a phi in bb with numEdges unwired edges and enqueues
// it in unfinished_phis for later wiring. Edges start at InvalidValue so
// Finish can tell a never-wired edge from one legitimately wired to
// value 0.
func (pb *PhiBuilder) Reserve(bb Block, resultType Type, numEdges int) (Inst, Value) {
	edges := make([]PhiEdge, numEdges)
	for i := range edges {
		edges[i].Value = InvalidValue
	}
	inst, val := pb.f.BuildPhi(bb, edges, resultType)
	pb.unfinished = append(pb.unfinished, inst)
	return inst, val
}

// Wire fills in edge i of a reserved phi with (pred, val) and registers
// the corresponding def-use entry.
func (pb *PhiBuilder) Wire(inst Inst, i int, pred Block, val Value) {
	phi := pb.f.DFG.Insts[inst].(Phi)
	phi.Edges[i] = PhiEdge{Block: pred, Value: val}
	pb.f.DFG.Insts[inst] = phi
	pb.f.DFG.addUse(val, Use{Inst: inst, Slot: uint32(i)})
}

// Finish clears the unfinished-phi queue and verifies, for every phi that
// was reserved through this builder, that its incoming-edge count equals
// its block's predecessor count in cfg.
func (pb *PhiBuilder) Finish(cfg *ControlFlowGraph) error {
	defer func() { pb.unfinished = nil }()
	for _, inst := range pb.unfinished {
		phi := pb.f.DFG.Insts[inst].(Phi)
		bb, ok := pb.f.Layout.InstBlock(inst)
		if !ok {
			return fmt.Errorf("mir: phi %d was never placed in a block", inst)
		}
		preds := cfg.Preds(bb)
		if len(phi.Edges) != len(preds) {
			return fmt.Errorf("mir: phi %d in block %d has %d edges, want %d (one per predecessor)",
				inst, bb, len(phi.Edges), len(preds))
		}
		for _, e := range phi.Edges {
			if e.Value == InvalidValue {
				return fmt.Errorf("mir: phi %d in block %d has an unwired edge from block %d", inst, bb, e.Block)
			}
		}
	}
	return nil
}
