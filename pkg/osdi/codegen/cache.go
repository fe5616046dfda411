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
package codegen

import (
	"github.com/vacomp/vacomp/pkg/layout"
	"github.com/vacomp/vacomp/pkg/mir"
	"github.com/vacomp/vacomp/pkg/mireval"
	"github.com/vacomp/vacomp/pkg/taint"
)

// StoreCacheSlot writes v into instance-owned cache slot i of dst, the
// per-instance cache_slots region InstanceLayout lays out, per spec.md
// §3's Initialization{cache_slots, cached_vals}. Out-of-range i is a
// silent no-op: a module built with NumCacheSlots=0 never provisioned
// any slot for PopulateCacheSlots to write into.
func StoreCacheSlot(il *layout.InstanceLayout, dst []float64, i int, v float64) {
	if i < 0 || uint32(i) >= il.CacheSlots.Count || i >= len(dst) {
		return
	}
	dst[i] = v
}

// LoadCacheSlot reads cache slot i back out of src, the counterpart
// read eval's load_cache_slot equivalent performs once a cache region
// has been populated.
func LoadCacheSlot(il *layout.InstanceLayout, src []float64, i int) float64 {
	if i < 0 || uint32(i) >= il.CacheSlots.Count || i >= len(src) {
		return 0
	}
	return src[i]
}

// PopulateCacheSlots runs f (the eval function) once to materialize every
// instruction's result, then keeps only the operating-point-independent
// ones absent from tainted — the ones propagate_taint/
// propagate_direct_taint did NOT mark as depending on a seed — in
// instruction order, up to il.CacheSlots.Count. It returns the
// host-owned slot array (what a real OSDI instance struct's cache_slots
// field would hold after setup) and a map keyed by instruction suitable
// for mireval.NewCached, so a later real eval call can skip recomputing
// exactly the instructions this pass already settled.
//
// A module compiled with NumCacheSlots=0 gets an empty slots array and a
// nil cached map: the mechanism degrades to "always recompute", which is
// what every codegen task did before this pass existed.
func PopulateCacheSlots(f *mir.Function, params []mir.Const, cb mireval.Callbacks, il *layout.InstanceLayout, tainted *taint.InstSet) ([]float64, map[mir.Inst]mir.Const, error) {
	if il.CacheSlots.Count == 0 {
		return nil, nil, nil
	}

	ip := mireval.New(f, params, cb)
	env, _, err := ip.Run()
	if err != nil {
		return nil, nil, err
	}

	slots := make([]float64, il.CacheSlots.Count)
	cached := make(map[mir.Inst]mir.Const, il.CacheSlots.Count)

	next := 0
	for i := 0; i < f.DFG.NumInsts(); i++ {
		if uint32(next) >= il.CacheSlots.Count {
			break
		}
		inst := mir.Inst(i)
		data := f.DFG.Insts[inst]
		if mir.IsTerminator(data) {
			continue
		}
		if _, isPhi := data.(mir.Phi); isPhi {
			continue
		}
		if tainted != nil && tainted.Contains(inst) {
			continue
		}
		result, ok := f.DFG.ResultValue(inst)
		if !ok {
			continue
		}
		v := mireval.Value(env, result)
		StoreCacheSlot(il, slots, next, v.F)
		cached[inst] = v
		next++
	}
	return slots, cached, nil
}
