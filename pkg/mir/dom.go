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

import "github.com/vacomp/vacomp/internal/bitmatrix"

// DominatorTree holds both the forward immediate-dominator relation and
// the immediate post-dominator relation for one function. Dominance
// frontiers (forward) back pkg/taint's dominance-frontier-aware variant.
type DominatorTree struct {
	idom      map[Block]Block
	ipdom     map[Block]Block
	frontiers bitmatrix.Matrix // row = block, cols = its dominance frontier
}

// IDom returns bb's immediate dominator, or (0, false) for the entry
// block (which has none) or an unreachable block.
func (d *DominatorTree) IDom(bb Block) (Block, bool) {
	b, ok := d.idom[bb]
	return b, ok
}

// IPDom returns bb's immediate post-dominator, or (0, false) if bb cannot
// reach any exit (unreachable in the reversed graph).
func (d *DominatorTree) IPDom(bb Block) (Block, bool) {
	b, ok := d.ipdom[bb]
	return b, ok
}

// Dominates reports whether a dominates b (reflexively).
func (d *DominatorTree) Dominates(a, b Block) bool {
	for cur := b; ; {
		if cur == a {
			return true
		}
		p, ok := d.idom[cur]
		if !ok || p == cur {
			return cur == a
		}
		cur = p
	}
}

// Frontier returns bb's dominance frontier: the blocks at which bb's
// dominance "stops", used to decide where phis (or, in pkg/taint, tainted
// phi prefixes) must be inserted.
func (d *DominatorTree) Frontier(bb Block) []Block {
	cols, _ := d.frontiers.Row(uint(bb))
	blocks := make([]Block, len(cols))
	for i, c := range cols {
		blocks[i] = Block(c)
	}
	return blocks
}

// BuildDominatorTree computes the forward dominator tree and dominance
// frontiers of f, reachable from entry, using the Cooper/Harvey/Kennedy
// iterative algorithm (simple, and more than fast enough for the small
// per-module CFGs this compiler ever sees).
func BuildDominatorTree(f *Function, cfg *ControlFlowGraph, entry Block) *DominatorTree {
	rpo := cfg.ReversePostorder(entry)
	idom := computeIdom(rpo, cfg.Preds, entry)

	d := &DominatorTree{idom: idom}
	d.computeFrontiers(cfg, rpo)
	return d
}

// AddPostDominance computes the immediate post-dominator relation over
// the reversed graph rooted at a synthetic super-exit connected to every
// block with no successors (every Exit terminator), and attaches it to d.
func (d *DominatorTree) AddPostDominance(f *Function, cfg *ControlFlowGraph) {
	exits := make([]Block, 0, 1)
	for _, bb := range f.Layout.Blocks() {
		if len(cfg.Succs(bb)) == 0 {
			exits = append(exits, bb)
		}
	}
	superExit := Block(f.Layout.NumBlocks())
	predsRev := func(bb Block) []Block { return cfg.Succs(bb) } // reversed: preds-in-reverse-graph = succs-in-forward-graph
	// Build reverse-postorder over the reversed graph starting from the
	// synthetic exit, whose successors (in the reversed graph) are the
	// forward graph's real exit blocks.
	reverseSuccs := func(bb Block) []Block {
		if bb == superExit {
			return exits
		}
		return cfg.Preds(bb)
	}
	order := reversePostorderGeneric(superExit, reverseSuccs)
	d.ipdom = computeIdom(order, predsRev, superExit)
	delete(d.ipdom, superExit)
}

// computeIdom is the generic Cooper/Harvey/Kennedy fixpoint, parameterized
// over a predecessor function so the same code computes both idom and
// ipdom.
func computeIdom(rpo []Block, preds func(Block) []Block, entry Block) map[Block]Block {
	rpoIndex := make(map[Block]int, len(rpo))
	for i, bb := range rpo {
		rpoIndex[bb] = i
	}
	idom := map[Block]Block{entry: entry}

	intersect := func(a, b Block) Block {
		for a != b {
			for rpoIndex[a] > rpoIndex[b] {
				p, ok := idom[a]
				if !ok {
					return b
				}
				a = p
			}
			for rpoIndex[b] > rpoIndex[a] {
				p, ok := idom[b]
				if !ok {
					return a
				}
				b = p
			}
		}
		return a
	}

	changed := true
	for changed {
		changed = false
		for _, bb := range rpo {
			if bb == entry {
				continue
			}
			var newIdom Block
			found := false
			for _, p := range preds(bb) {
				if _, ok := idom[p]; !ok {
					continue
				}
				if !found {
					newIdom = p
					found = true
					continue
				}
				newIdom = intersect(newIdom, p)
			}
			if !found {
				continue
			}
			if cur, ok := idom[bb]; !ok || cur != newIdom {
				idom[bb] = newIdom
				changed = true
			}
		}
	}
	return idom
}

// computeFrontiers fills d.frontiers using the Cytron et al. algorithm:
// for each join point bb, walk each predecessor up its idom chain until
// reaching bb's own immediate dominator, adding bb to every block visited
// along the way.
func (d *DominatorTree) computeFrontiers(cfg *ControlFlowGraph, rpo []Block) {
	for _, bb := range rpo {
		preds := cfg.Preds(bb)
		if len(preds) < 2 {
			continue
		}
		idomBB, hasIdom := d.idom[bb]
		for _, p := range preds {
			runner := p
			for hasIdom && runner != idomBB {
				d.frontiers.Insert(uint(runner), uint(bb))
				next, ok := d.idom[runner]
				if !ok {
					break
				}
				runner = next
			}
		}
	}
}

func reversePostorderGeneric(entry Block, succs func(Block) []Block) []Block {
	visited := make(map[Block]bool)
	var order []Block
	var visit func(Block)
	visit = func(bb Block) {
		if visited[bb] {
			return
		}
		visited[bb] = true
		for _, s := range succs(bb) {
			visit(s)
		}
		order = append(order, bb)
	}
	visit(entry)
	reverse(order)
	return order
}
