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
package layout

// IsBitSet reports whether bit i of a param_given-style bitfield is set.
func IsBitSet(words []uint32, i int) bool {
	return words[i/WordBits]&(1<<uint(i%WordBits)) != 0
}

// SetBit sets bit i of a param_given-style bitfield.
func SetBit(words []uint32, i int) {
	words[i/WordBits] |= 1 << uint(i%WordBits)
}

// GivenMask is an in-memory param_given bitfield used by tests, by
// pkg/osdi/codegen's access/given_flag helpers and by pkg/compile to model
// access/SET without a real native struct behind it.
type GivenMask struct {
	words []uint32
}

// NewGivenMask creates a mask with enough words for n parameter bits.
func NewGivenMask(n int) *GivenMask {
	return &GivenMask{words: make([]uint32, NumGivenWords(n))}
}

// IsGiven reports whether bit i has been set.
func (m *GivenMask) IsGiven(i int) bool { return IsBitSet(m.words, i) }

// SetGiven sets bit i. Setting bit i never affects any other bit: this is
// property 5, param-given mask independence.
func (m *GivenMask) SetGiven(i int) { SetBit(m.words, i) }
