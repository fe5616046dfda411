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

// Layout gives the doubly-ordered placement of instructions into blocks
// and of blocks into the function: which block owns an instruction, and
// in what order instructions/blocks appear. It is built incrementally as
// a function is constructed and then frozen.
type Layout struct {
	blockOrder []Block
	blockInsts map[Block][]Inst
	instBlock  map[Inst]Block
}

// NewLayout creates an empty layout.
func NewLayout() *Layout {
	return &Layout{
		blockInsts: make(map[Block][]Inst),
		instBlock:  make(map[Inst]Block),
	}
}

// AppendBlock adds a new block at the end of the function's layout order
// and returns its id.
func (l *Layout) AppendBlock() Block {
	bb := Block(len(l.blockOrder))
	l.blockOrder = append(l.blockOrder, bb)
	l.blockInsts[bb] = nil
	return bb
}

// AppendInst appends inst to the end of bb's instruction list. Phi
// instructions must be appended before any non-phi instruction in the
// same block; callers are responsible for this ordering (MakeInst itself
// does not know about Phi).
func (l *Layout) AppendInst(bb Block, inst Inst) {
	l.blockInsts[bb] = append(l.blockInsts[bb], inst)
	l.instBlock[inst] = bb
}

// NumBlocks returns the number of blocks appended so far.
func (l *Layout) NumBlocks() int { return len(l.blockOrder) }

// Blocks returns every block, in layout (creation) order.
func (l *Layout) Blocks() []Block { return l.blockOrder }

// BlockInsts returns bb's instructions, in layout order.
func (l *Layout) BlockInsts(bb Block) []Inst { return l.blockInsts[bb] }

// InstBlock returns the block that owns inst.
func (l *Layout) InstBlock(inst Inst) (Block, bool) {
	bb, ok := l.instBlock[inst]
	return bb, ok
}

// InstCursor walks one block's instructions in layout order, mirroring
// the teacher corpus's cursor-based in-place traversal idiom.
type InstCursor struct {
	insts []Inst
	pos   int
}

// BlockInstCursor returns a cursor positioned before bb's first instruction.
func (l *Layout) BlockInstCursor(bb Block) *InstCursor {
	return &InstCursor{insts: l.blockInsts[bb]}
}

// Next advances the cursor and returns the next instruction, or
// (0, false) once the block is exhausted.
func (c *InstCursor) Next(_ *Layout) (Inst, bool) {
	if c.pos >= len(c.insts) {
		return 0, false
	}
	inst := c.insts[c.pos]
	c.pos++
	return inst, true
}
