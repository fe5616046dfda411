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

// ControlFlowGraph is the predecessor/successor relation derived from a
// Function's terminators, plus reverse-postorder and postorder block
// traversals over it.
type ControlFlowGraph struct {
	succs map[Block][]Block
	preds map[Block][]Block
	order []Block // layout order, kept so traversals are deterministic
}

// BuildCFG derives a ControlFlowGraph from f's current terminators.
func BuildCFG(f *Function) *ControlFlowGraph {
	cfg := &ControlFlowGraph{
		succs: make(map[Block][]Block),
		preds: make(map[Block][]Block),
		order: f.Layout.Blocks(),
	}
	for _, bb := range cfg.order {
		cfg.succs[bb] = nil
	}
	for _, bb := range cfg.order {
		_, data, ok := f.Terminator(bb)
		if !ok {
			continue
		}
		switch t := data.(type) {
		case Jump:
			cfg.addEdge(bb, t.Dest)
		case Branch:
			cfg.addEdge(bb, t.Then)
			cfg.addEdge(bb, t.Else)
		case Exit:
			// no successors
		}
	}
	return cfg
}

func (c *ControlFlowGraph) addEdge(from, to Block) {
	c.succs[from] = append(c.succs[from], to)
	c.preds[to] = append(c.preds[to], from)
}

// Succs returns bb's successors, in terminator order (then-before-else
// for a Branch).
func (c *ControlFlowGraph) Succs(bb Block) []Block { return c.succs[bb] }

// Preds returns bb's predecessors, in the order their edges were added.
func (c *ControlFlowGraph) Preds(bb Block) []Block { return c.preds[bb] }

// ReversePostorder returns every block reachable from entry, in reverse
// postorder: used for loop-structure detection (pkg/taint's
// loop_block_map) and for dominator-tree construction.
func (c *ControlFlowGraph) ReversePostorder(entry Block) []Block {
	po := c.postorderFrom(entry)
	reverse(po)
	return po
}

// Postorder returns every block reachable from entry, in postorder: used
// to emit code so each block is finalized exactly once.
func (c *ControlFlowGraph) Postorder(entry Block) []Block {
	return c.postorderFrom(entry)
}

func (c *ControlFlowGraph) postorderFrom(entry Block) []Block {
	visited := make(map[Block]bool)
	var order []Block
	var visit func(Block)
	visit = func(bb Block) {
		if visited[bb] {
			return
		}
		visited[bb] = true
		for _, s := range c.succs[bb] {
			visit(s)
		}
		order = append(order, bb)
	}
	visit(entry)
	return order
}

func reverse(bs []Block) {
	for i, j := 0, len(bs)-1; i < j; i, j = i+1, j-1 {
		bs[i], bs[j] = bs[j], bs[i]
	}
}
