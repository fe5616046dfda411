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
package abi

import (
	"crypto/sha256"
	"math/big"
	"strings"
)

// SymSuffixLen is the fixed digit count of a symbol suffix: the smallest
// base-36 width that can hold any 128-bit value (36^25 > 2^128).
const SymSuffixLen = 25

// ModuleUUID derives the 128-bit identity of one compiled module from
// its name and source text. Two modules with the same name but different
// bodies get distinct UUIDs, so their exported symbols never collide in
// a host that links several revisions of one model.
func ModuleUUID(name string, source []byte) [16]byte {
	h := sha256.New()
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write(source)
	var uuid [16]byte
	copy(uuid[:], h.Sum(nil))
	return uuid
}

// SymbolSuffix encodes uuid in base 36 using lowercase digits, padded to
// SymSuffixLen characters. The encoding is case-insensitive by
// construction: it only ever emits [0-9a-z], so no two suffixes differ
// by case alone and a case-folding linker cannot alias them.
func SymbolSuffix(uuid [16]byte) string {
	text := new(big.Int).SetBytes(uuid[:]).Text(36)
	if pad := SymSuffixLen - len(text); pad > 0 {
		text = strings.Repeat("0", pad) + text
	}
	return text
}

// SymbolName joins one exported entry point's base name with a module's
// symbol suffix, e.g. SymbolName("eval", sym) == "eval_<sym>".
func SymbolName(base, suffix string) string {
	return base + "_" + suffix
}

// exportedBases lists every per-module exported C symbol's base name, in
// the order the OSDI 0.4 contract enumerates them.
var exportedBases = []string{
	"access",
	"setup_model",
	"setup_instance",
	"eval",
	"load_residual_resist",
	"load_residual_react",
	"load_jacobian_resist",
	"load_jacobian_react",
	"load_jacobian_tran",
	"load_jacobian_with_offset_resist",
	"load_jacobian_with_offset_react",
	"load_limit_rhs_resist",
	"load_limit_rhs_react",
	"load_spice_rhs_dc",
	"load_spice_rhs_tran",
	"load_noise",
	"write_jacobian_array_resist",
	"write_jacobian_array_react",
	"given_flag_model",
	"given_flag_instance",
}

// ExportedSymbols returns the full per-module exported symbol list for
// one suffix, in contract order.
func ExportedSymbols(suffix string) []string {
	out := make([]string, len(exportedBases))
	for i, base := range exportedBases {
		out[i] = SymbolName(base, suffix)
	}
	return out
}
