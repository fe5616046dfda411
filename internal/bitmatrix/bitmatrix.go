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

// Package bitmatrix provides a sparse row-indexed bit matrix, used to store
// dominance frontiers (Block -> set of Block) and other block/block or
// block/inst relations that are dense along one axis and sparse along the
// other. Rows are allocated lazily; an absent row behaves as an empty set.
//
// This generalizes the teacher's own single-axis bit.Set (one *bitset.BitSet
// per row here) to two axes, matching the "SparseBitMatrix<Row,Col>" shape
// the analyses in pkg/taint and pkg/mir are specified against.
package bitmatrix

import "github.com/bits-and-blooms/bitset"

// Matrix is a sparse bit matrix indexed by small unsigned integers on both
// axes. The zero value is an empty matrix ready to use.
type Matrix struct {
	rows map[uint][]uint
	sets map[uint]*bitset.BitSet
}

// Insert adds (row, col) to the matrix and reports whether it was newly
// inserted (false if already present).
func (m *Matrix) Insert(row, col uint) bool {
	if m.sets == nil {
		m.sets = make(map[uint]*bitset.BitSet)
		m.rows = make(map[uint][]uint)
	}
	bs, ok := m.sets[row]
	if !ok {
		bs = bitset.New(col + 1)
		m.sets[row] = bs
	}
	if bs.Test(col) {
		return false
	}
	bs.Set(col)
	m.rows[row] = append(m.rows[row], col)
	return true
}

// Row returns the columns set for a given row, in insertion order, and
// whether the row exists at all. A missing row is simply empty.
func (m *Matrix) Row(row uint) ([]uint, bool) {
	if m.rows == nil {
		return nil, false
	}
	cols, ok := m.rows[row]
	return cols, ok
}

// Contains reports whether (row, col) is present.
func (m *Matrix) Contains(row, col uint) bool {
	if m.sets == nil {
		return false
	}
	bs, ok := m.sets[row]
	if !ok {
		return false
	}
	return bs.Test(col)
}

// NumRows returns the number of rows that have at least one entry.
func (m *Matrix) NumRows() int {
	return len(m.rows)
}
