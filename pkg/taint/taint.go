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

// Package taint propagates "operating-point-dependent" taint through a
// MIR function: starting from a seed set of values (e.g. everything
// reachable from $temperature or a limited quantity), it marks every
// instruction whose result can vary across Newton iterations, so
// pkg/compile can cache the results of the untainted ones
// (codegen.PopulateCacheSlots) instead of recomputing them every call.
//
// Two solvers are provided, both grounded on the same upstream
// loop/branch-aware propagation: the full TaintSolver additionally widens
// taint across an entire outermost loop once any instruction inside it is
// tainted (property 8, loop-taint completeness); DirectTaintSolver skips
// loop widening and only taints dominance-frontier phis downstream of a
// tainted branch, a cheaper approximation used where loop widening is not
// required.
package taint

import "github.com/vacomp/vacomp/pkg/mir"

// InstSet is a monotonically growing set of tainted instructions. It is
// never shrunk once built: property 7 (taint monotonicity) requires that
// adding a seed never removes an instruction already in the set.
type InstSet struct {
	m map[mir.Inst]bool
}

// NewInstSet creates an empty set.
func NewInstSet() *InstSet { return &InstSet{m: make(map[mir.Inst]bool)} }

// Insert adds inst, returning true iff it was not already present.
func (s *InstSet) Insert(inst mir.Inst) bool {
	if s.m[inst] {
		return false
	}
	s.m[inst] = true
	return true
}

// Contains reports whether inst is tainted.
func (s *InstSet) Contains(inst mir.Inst) bool { return s.m[inst] }

// Len returns the number of tainted instructions.
func (s *InstSet) Len() int { return len(s.m) }

// LoopBlockMap walks f in reverse postorder and builds:
//   - loopBlocks: outermost-loop-header block -> every block in that loop
//     (including the header), in visitation order;
//   - header: block -> the outermost loop header it is nested in.
//
// A loop is identified by a Branch instruction with LoopEntry set; its
// Else destination is the loop's exit sentinel, so the loop body runs
// from the header up to (but not including) that sentinel.
func LoopBlockMap(f *mir.Function, cfg *mir.ControlFlowGraph) (map[mir.Block][]mir.Block, map[mir.Block]mir.Block) {
	loopBlocks := make(map[mir.Block][]mir.Block)
	header := make(map[mir.Block]mir.Block)

	rpo := cfg.ReversePostorder(f.Entry)

	var head *mir.Block
	var tail *mir.Block
	for _, bb := range rpo {
		cursor := f.Layout.BlockInstCursor(bb)
		for {
			inst, ok := cursor.Next(f.Layout)
			if !ok {
				break
			}
			if br, ok := f.DFG.Insts[inst].(mir.Branch); ok && br.LoopEntry {
				h := bb
				head = &h
				tl := br.Else
				tail = &tl
				loopBlocks[bb] = nil
			}
			if tail != nil && bb == *tail {
				head = nil
				tail = nil
			}
			if head != nil {
				header[bb] = *head
				loopBlocks[*head] = append(loopBlocks[*head], bb)
			}
		}
	}
	return loopBlocks, header
}

// TaintSolver implements propagate_taint: branch-aware and loop-aware
// taint propagation over a single MIR function.
type TaintSolver struct {
	f       *mir.Function
	dt      *mir.DominatorTree
	cfg     *mir.ControlFlowGraph
	tainted *InstSet

	instQueue     []mir.Inst
	bbQueue       []mir.Block
	taintedBlocks map[mir.Block]bool
}

// PropagateTaint seeds a TaintSolver from every use of every value in
// seeds and runs it to fixpoint, returning the tainted instruction set.
func PropagateTaint(f *mir.Function, dt *mir.DominatorTree, cfg *mir.ControlFlowGraph, seeds []mir.Value) *InstSet {
	s := &TaintSolver{
		f:             f,
		dt:            dt,
		cfg:           cfg,
		tainted:       NewInstSet(),
		taintedBlocks: make(map[mir.Block]bool),
	}
	for _, v := range seeds {
		for _, use := range f.DFG.Uses(v) {
			s.taintInst(use.Inst)
		}
	}
	s.solve()
	return s.tainted
}

func (s *TaintSolver) taintInst(inst mir.Inst) {
	if s.tainted.Insert(inst) {
		s.instQueue = append(s.instQueue, inst)
	}
}

// taintBlock taints every instruction in bb and every block reachable
// from it, stopping at end (bb's immediate post-dominator, the natural
// rejoin point of a branch) without crossing it.
func (s *TaintSolver) taintBlock(bb mir.Block, end mir.Block, hasEnd bool) {
	visited := make(map[mir.Block]bool)
	for {
		for {
			if hasEnd && bb == end {
				break
			}
			if !s.taintedBlocks[bb] {
				s.taintedBlocks[bb] = true
				for _, inst := range s.f.Layout.BlockInsts(bb) {
					s.taintInst(inst)
				}
			}
			succs := s.cfg.Succs(bb)
			next, found := mir.Block(0), false
			for _, succ := range succs {
				if !visited[succ] {
					visited[succ] = true
					next, found = succ, true
					break
				}
			}
			if !found {
				break
			}
			for _, succ := range succs {
				if !visited[succ] {
					visited[succ] = true
					s.bbQueue = append(s.bbQueue, succ)
				}
			}
			bb = next
		}
		if len(s.bbQueue) == 0 {
			return
		}
		bb = s.bbQueue[len(s.bbQueue)-1]
		s.bbQueue = s.bbQueue[:len(s.bbQueue)-1]
	}
}

func (s *TaintSolver) solve() {
	loopBlocks, header := LoopBlockMap(s.f, s.cfg)
	taintedLoops := make(map[mir.Block]bool)

	for len(s.instQueue) > 0 {
		for len(s.instQueue) > 0 {
			inst := s.instQueue[len(s.instQueue)-1]
			s.instQueue = s.instQueue[:len(s.instQueue)-1]

			switch data := s.f.DFG.Insts[inst].(type) {
			case mir.Branch:
				bb, _ := s.f.Layout.InstBlock(inst)
				end, hasEnd := s.dt.IPDom(bb)
				s.taintBlock(data.Then, end, hasEnd)
				s.taintBlock(data.Else, end, hasEnd)
				continue
			case mir.Jump:
				for _, next := range s.f.Layout.BlockInsts(data.Dest) {
					if !mir.IsPhi(s.f.DFG.Insts[next]) {
						break
					}
					s.taintInst(next)
				}
				continue
			}

			for _, use := range s.f.DFG.Uses(mustResult(s.f, inst)) {
				s.taintInst(use.Inst)
			}
		}

		hdrs := make(map[mir.Block]bool)
		for inst := range s.tainted.m {
			bb, ok := s.f.Layout.InstBlock(inst)
			if !ok {
				continue
			}
			if hdr, ok := header[bb]; ok {
				hdrs[hdr] = true
			}
		}
		for hdr := range hdrs {
			if taintedLoops[hdr] {
				continue
			}
			for _, bb := range loopBlocks[hdr] {
				for _, inst := range s.f.Layout.BlockInsts(bb) {
					s.taintInst(inst)
				}
			}
			taintedLoops[hdr] = true
		}
	}
}

// mustResult returns the value defined by inst, or mir.InvalidValue for an
// instruction that defines none (a terminator, or a call with no result).
func mustResult(f *mir.Function, inst mir.Inst) mir.Value {
	v, _ := f.DFG.ResultValue(inst)
	return v
}

// DirectTaintSolver implements propagate_direct_taint: a cheaper
// approximation of TaintSolver that, instead of widening across entire
// branch arms and loops, only taints the phis standing at a tainted
// branch's dominance-frontier blocks.
type DirectTaintSolver struct {
	f         *mir.Function
	dt        *mir.DominatorTree
	tainted   *InstSet
	instQueue []mir.Inst
}

// PropagateDirectTaint seeds a DirectTaintSolver from every use of every
// value in seeds and runs it to fixpoint.
func PropagateDirectTaint(f *mir.Function, dt *mir.DominatorTree, seeds []mir.Value) *InstSet {
	s := &DirectTaintSolver{f: f, dt: dt, tainted: NewInstSet()}
	for _, v := range seeds {
		for _, use := range f.DFG.Uses(v) {
			s.taintInst(use.Inst)
		}
	}
	s.solve()
	return s.tainted
}

func (s *DirectTaintSolver) taintInst(inst mir.Inst) {
	if s.tainted.Insert(inst) {
		s.instQueue = append(s.instQueue, inst)
	}
}

func (s *DirectTaintSolver) taintFrontierPhis(blocks []mir.Block) {
	for _, bb := range blocks {
		for _, inst := range s.f.Layout.BlockInsts(bb) {
			if !mir.IsPhi(s.f.DFG.Insts[inst]) {
				break
			}
			s.taintInst(inst)
		}
	}
}

func (s *DirectTaintSolver) solve() {
	for len(s.instQueue) > 0 {
		inst := s.instQueue[len(s.instQueue)-1]
		s.instQueue = s.instQueue[:len(s.instQueue)-1]

		if br, ok := s.f.DFG.Insts[inst].(mir.Branch); ok {
			s.taintFrontierPhis(s.dt.Frontier(br.Then))
			s.taintFrontierPhis(s.dt.Frontier(br.Else))
			continue
		}
		for _, use := range s.f.DFG.Uses(mustResult(s.f, inst)) {
			s.taintInst(use.Inst)
		}
	}
}
