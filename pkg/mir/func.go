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

// Function is one compiled SSA function: eval, init, or
// model_param_setup, per spec.md §3.
type Function struct {
	Name       string
	ParamTypes []Type
	DFG        *DataFlowGraph
	Layout     *Layout
	Entry      Block
}

// NewFunction creates an empty function with the given parameter types
// and a single entry block.
func NewFunction(name string, paramTypes []Type) *Function {
	f := &Function{
		Name:       name,
		ParamTypes: paramTypes,
		DFG:        NewDataFlowGraph(),
		Layout:     NewLayout(),
	}
	f.Entry = f.Layout.AppendBlock()
	return f
}

// Terminator returns the terminator instruction of bb, if one has been
// placed yet.
func (f *Function) Terminator(bb Block) (Inst, InstData, bool) {
	insts := f.Layout.BlockInsts(bb)
	if len(insts) == 0 {
		return 0, nil, false
	}
	last := insts[len(insts)-1]
	data := f.DFG.Insts[last]
	if !IsTerminator(data) {
		return 0, nil, false
	}
	return last, data, true
}

// Build allocates an instruction, places it at the end of bb, and returns
// its id and result value. This is the one entry point both the DAE
// builder and OSDI codegen use to emit MIR.
func (f *Function) Build(bb Block, data InstData, resultType Type, sourceLoc int32) (Inst, Value) {
	inst, val := f.DFG.MakeInst(data, resultType, sourceLoc)
	f.Layout.AppendInst(bb, inst)
	return inst, val
}

// BuildPhi allocates a Phi with len(edges) incoming edges (which may be
// filled in later via FixupPhi) and places it at the current front of bb,
// ahead of any already-placed non-phi instruction, to preserve the
// invariant that phis are a prefix of their block.
func (f *Function) BuildPhi(bb Block, edges []PhiEdge, resultType Type) (Inst, Value) {
	inst, val := f.DFG.MakeInst(Phi{Edges: edges}, resultType, 0)
	insts := f.Layout.blockInsts[bb]
	i := 0
	for i < len(insts) && IsPhi(f.DFG.Insts[insts[i]]) {
		i++
	}
	insts = append(insts, 0)
	copy(insts[i+1:], insts[i:])
	insts[i] = inst
	f.Layout.blockInsts[bb] = insts
	f.Layout.instBlock[inst] = bb
	return inst, val
}
