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
)

// SetupResult accumulates the {name, value} invalid-parameter reports
// setup_model/setup_instance push through a callback, per spec.md §4.G.
type SetupResult struct {
	Flags  uint32
	Errors []InvalidParam
}

// InvalidParam is one reported invalid-parameter diagnostic.
type InvalidParam struct {
	Name  string
	Value mir.Const
}

// SetupModel runs f (model_param_setup) and reports every invalid
// parameter the MIR flags via CallParamInfoInvalid.
func SetupModel(f *mir.Function, params []mir.Const) (*SetupResult, map[mir.Value]mir.Const, error) {
	res := &SetupResult{}
	cb := mireval.Callbacks{
		ParamInfoInvalid: func(name string, value mir.Const) {
			res.Errors = append(res.Errors, InvalidParam{Name: name, Value: value})
		},
	}
	ip := mireval.New(f, params, cb)
	env, _, err := ip.Run()
	if err != nil {
		return nil, nil, err
	}
	if len(res.Errors) > 0 {
		res.Flags = 1
	}
	return res, env, nil
}

// SetupInstance runs f (init), resolving each instance parameter as
// `given ? given_value : default` before the MIR executes, and reports
// mark_collapsed calls through onCollapse.
func SetupInstance(f *mir.Function, instanceParams, defaults []mir.Const, instanceGiven *layout.GivenMask,
	onCollapse func(pairID int64)) (*SetupResult, map[mir.Value]mir.Const, error) {

	resolved := make([]mir.Const, len(defaults))
	for i := range defaults {
		if instanceGiven.IsGiven(i) && i < len(instanceParams) {
			resolved[i] = instanceParams[i]
		} else {
			resolved[i] = defaults[i]
		}
	}

	res := &SetupResult{}
	cb := mireval.Callbacks{
		ParamInfoInvalid: func(name string, value mir.Const) {
			res.Errors = append(res.Errors, InvalidParam{Name: name, Value: value})
		},
		Collapse: onCollapse,
	}
	ip := mireval.New(f, resolved, cb)
	env, _, err := ip.Run()
	if err != nil {
		return nil, nil, err
	}
	if len(res.Errors) > 0 {
		res.Flags = 1
	}
	return res, env, nil
}

// MarkCollapsed implements mark_collapsed(instance, pair_id): sets
// collapsed_pair_flags[pair_id].
func MarkCollapsed(collapsedFlags []uint32, pairID int) {
	collapsedFlags[pairID] = 1
}
