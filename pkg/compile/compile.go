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

// Package compile orchestrates components A through H into one
// operation: CompileModule. It owns the §5/§9 concurrency model — a
// bounded worker pool fanning the independent setup_model/setup_instance/
// eval codegen tasks across goroutines, each given its own private
// irbuilder.Module so no task shares mutable backend state with another.
// access is not one of the pooled tasks: its dispatch is resolved on the
// calling goroutine after the fan-out completes (collectAccessChecks).
package compile

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/vacomp/vacomp/pkg/dae"
	"github.com/vacomp/vacomp/pkg/hirintern"
	"github.com/vacomp/vacomp/pkg/intern"
	"github.com/vacomp/vacomp/pkg/irbuilder"
	"github.com/vacomp/vacomp/pkg/layout"
	"github.com/vacomp/vacomp/pkg/mir"
	"github.com/vacomp/vacomp/pkg/mireval"
	"github.com/vacomp/vacomp/pkg/natdisc"
	"github.com/vacomp/vacomp/pkg/osdi/codegen"
	"github.com/vacomp/vacomp/pkg/osdi/descriptor"
	"github.com/vacomp/vacomp/pkg/taint"
	"github.com/vacomp/vacomp/pkg/vacfg"
)

var log = logrus.WithField("pkg", "compile")

// ModuleInput bundles everything CompileModule needs for one already-
// lowered Verilog-A module: the three exported MIR functions, the DAE
// system C built from their contributions, the instance/model layouts F
// computed from it, and the concrete values/tables component G's codegen
// functions run against. Parsing and name resolution (the lexer/parser/
// HIR-source-AST pipeline) are external collaborators that have already
// run by the time a ModuleInput exists.
type ModuleInput struct {
	Name            string
	Source          []byte // module source text, folded into the symbol-suffix UUID
	EvalFn          *mir.Function
	SetupModelFn    *mir.Function
	SetupInstanceFn *mir.Function
	Sys             *dae.DaeSystem
	InstanceLayout  *layout.InstanceLayout
	ModelLayout     *layout.ModelLayout
	BoundStepSlot   int // -1 if the module has no $bound_step call

	// ResistLimRHSBase/ReactLimRHSBase locate the dense per-unknown
	// limit-rhs region of EvalOutputSlots; -1 if the module reserved none.
	ResistLimRHSBase int
	ReactLimRHSBase  int

	// Params is the flattened instance/model/opvar parameter id space
	// access()/given_flag_* dispatch over (component G). Nil skips
	// parameter access orchestration entirely.
	Params *codegen.ParamTable

	ModelParamValues      []mir.Const // values model_param_setup runs with
	InstanceParamValues   []mir.Const // host-given instance parameter values
	InstanceParamDefaults []mir.Const // defaults copied from the model region
	EvalParamValues       []mir.Const // values eval runs with; nil defers to EvalIntern

	// EvalIntern is EvalFn's environmental-input table. When set and
	// EvalParamValues is nil, CompileModule derives eval's parameter
	// vector from it via codegen.BindEvalParams — Sim's flags/solution/
	// state buffers plus Bind's per-instance state routed kind by kind —
	// instead of requiring the caller to pre-flatten the vector by hand.
	EvalIntern *hirintern.Interner
	Bind       codegen.EvalBindings

	InstanceGiven *layout.GivenMask // per-instance given-bit state
	ModelGiven    *layout.GivenMask // shared model/instance-default given-bit state

	// TaintSeeds overrides which EvalFn values seed the cache-slot taint
	// pass (component E). When nil, the seeds are EvalIntern's
	// operating-point kinds (operatingPointSeeds) if EvalIntern is set,
	// and otherwise every one of EvalFn's own parameters
	// (defaultTaintSeeds), fixed parameters included.
	TaintSeeds []mir.Value

	OpvarValues  []mir.Value // eval's opvar probe values, parallel to Params.Opvar
	OpvarSlots   func(localIdx int) int
	BoundStepVal mir.Value

	NodeMapping map[dae.UnknownID]int

	Sim SimInfo

	Natures *natdisc.Table

	// LimTable names the limiting functions this module's eval may call
	// through Callbacks.Limit (OSDI_LIM_TABLE). LogSlotPresent marks that
	// the module declares a writable osdi_log function-pointer slot.
	LimTable       []string
	LogSlotPresent bool

	// NodeNames/NodeUnits/NodeResidualUnits/NodeIsFlow are parallel to
	// Sys.Unknowns; any may be nil.
	NodeNames         []intern.StringID
	NodeUnits         []intern.StringID
	NodeResidualUnits []intern.StringID
	NodeIsFlow        []bool

	Callbacks mireval.Callbacks
}

// SimInfo is a thin alias of codegen.SimInfo, kept local so ModuleInput
// doesn't force every caller to import pkg/osdi/codegen just to build a
// sim_info value.
type SimInfo = codegen.SimInfo

// TaskResult is one codegen task's outcome: the object bytes emitted
// through a private irbuilder.Module, or the error that aborted it.
type TaskResult struct {
	Name   string
	Object []byte
	Err    error
}

// AccessCheck is one parameter id's orchestration-time access(...) plus
// given_flag_*(...) round trip: CompileModule resolves every id in
// ModuleInput.Params, exercising component G's access-dispatch and
// given-flag paths from real compilation rather than only from codegen's
// own tests.
type AccessCheck struct {
	ID    int
	Loc   layout.MemLoc
	Valid bool
	Given bool
}

// CompileResult is CompileModule's output: the module's descriptor, every
// codegen task's lowered object, a debug trace keyed by task name, and the
// materialized results of running setup_model/setup_instance/eval and the
// load_*/access dispatch over them.
type CompileResult struct {
	Descriptor *descriptor.ModuleDescriptor
	Tasks      []TaskResult
	DebugDump  map[string]string

	SetupModel    *codegen.SetupResult
	SetupInstance *codegen.SetupResult
	Eval          *codegen.EvalResult

	CollapsedFlags []uint32
	AccessChecks   []AccessCheck

	ResidualResist []float64 // indexed by NodeMapping
	ResidualReact  []float64
	JacobianResist []float64 // indexed by position in Sys.Jacobian
	JacobianReact  []float64
}

// NewModuleFunc constructs a fresh, private irbuilder.Module for one
// codegen task. Passing pkg/irbuilder/refimpl.New wires the in-memory
// reference backend; a real build wires the native emitter instead.
type NewModuleFunc func() irbuilder.Module

// CompileModule runs descriptor emission (component H) and fans the
// module's codegen tasks (setup_model, setup_instance, eval — component
// G) across a worker pool bounded by cfg.Jobs (defaulting to
// runtime.GOMAXPROCS(0)), each task getting its own irbuilder.Module so
// no goroutine shares builder state with another, and, for every function
// present, also runs the matching pkg/osdi/codegen entry point
// (SetupModel/SetupInstance/EvalModule) over the interpreted MIR so the
// compiled descriptor's offsets are actually exercised against live
// parameter/residual/Jacobian data rather than only emitted as object
// bytes. The only data shared across goroutines is the debug-dump map,
// guarded by a mutex.
func CompileModule(cfg vacfg.Config, in *ModuleInput, newModule NewModuleFunc) (*CompileResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	desc, err := descriptor.Build(cfg, descriptor.BuildInput{
		Name:              in.Name,
		Source:            in.Source,
		InstanceLayout:    in.InstanceLayout,
		ModelLayout:       in.ModelLayout,
		Sys:               in.Sys,
		BoundStepSlot:     in.BoundStepSlot,
		ResistLimRHSBase:  in.ResistLimRHSBase,
		ReactLimRHSBase:   in.ReactLimRHSBase,
		Params:            in.Params,
		Natures:           in.Natures,
		LimTable:          in.LimTable,
		LogSlotPresent:    in.LogSlotPresent,
		NodeNames:         in.NodeNames,
		NodeUnits:         in.NodeUnits,
		NodeResidualUnits: in.NodeResidualUnits,
		NodeIsFlow:        in.NodeIsFlow,
	})
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	// Resolve eval's parameter vector: the caller's pre-flattened values
	// when supplied, otherwise the §4.G routing over EvalIntern's
	// environmental-input table.
	evalParams := in.EvalParamValues
	if evalParams == nil && in.EvalIntern != nil {
		evalParams, err = codegen.BindEvalParams(in.EvalIntern, in.Sim, in.Bind)
		if err != nil {
			return nil, fmt.Errorf("compile: %w", err)
		}
	}

	type task struct {
		name string
		fn   *mir.Function
	}
	tasks := []task{
		{"setup_model", in.SetupModelFn},
		{"setup_instance", in.SetupInstanceFn},
		{"eval", in.EvalFn},
	}

	jobs := cfg.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]TaskResult, len(tasks))
	dump := make(map[string]string)
	var dumpMu sync.Mutex
	sem := make(chan struct{}, jobs)
	var wg sync.WaitGroup

	var setupModelRes, setupInstanceRes *codegen.SetupResult
	var evalRes *codegen.EvalResult
	var collapsedFlags []uint32
	if len(in.Sys.CollapsiblePairs) > 0 {
		collapsedFlags = make([]uint32, len(in.Sys.CollapsiblePairs))
	}

	// Before fanning codegen tasks out, run component E's taint pass over
	// eval and populate whatever cache slots the module's instance layout
	// provisions: a module built with NumCacheSlots=0 skips this
	// entirely, so PopulateCacheSlots is a no-op and cachedVals stays
	// nil, matching the pre-cache-slot behavior exactly.
	var cachedVals map[mir.Inst]mir.Const
	if in.EvalFn != nil && in.InstanceLayout != nil && in.InstanceLayout.CacheSlots.Count > 0 {
		seeds := in.TaintSeeds
		if seeds == nil && in.EvalIntern != nil {
			seeds = operatingPointSeeds(in.EvalIntern)
		}
		if seeds == nil {
			seeds = defaultTaintSeeds(in.EvalFn)
		}
		cfg := mir.BuildCFG(in.EvalFn)
		dt := mir.BuildDominatorTree(in.EvalFn, cfg, in.EvalFn.Entry)
		tainted := taint.PropagateTaint(in.EvalFn, dt, cfg, seeds)
		_, c, err := codegen.PopulateCacheSlots(in.EvalFn, evalParams, in.Callbacks, in.InstanceLayout, tainted)
		if err != nil {
			return nil, fmt.Errorf("compile: cache slot population: %w", err)
		}
		cachedVals = c
		log.Debugf("compiling %s: tainted %d/%d eval instructions, cached %d", in.Name, tainted.Len(), in.EvalFn.DFG.NumInsts(), len(cachedVals))
		dump["cache"] = fmt.Sprintf("tainted %d/%d insts, cached %d/%d slots", tainted.Len(), in.EvalFn.DFG.NumInsts(), len(cachedVals), in.InstanceLayout.CacheSlots.Count)
	}

	for i, t := range tasks {
		if t.fn == nil {
			results[i] = TaskResult{Name: t.name}
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, t task) {
			defer wg.Done()
			defer func() { <-sem }()

			log.Debugf("compiling %s/%s: %d instructions", in.Name, t.name, t.fn.DFG.NumInsts())
			mod := newModule()
			obj, err := EmitFunction(mod, t.name, t.fn)
			if err == nil {
				err = runCodegenTask(in, t.name, t.fn, evalParams, collapsedFlags, cachedVals,
					&setupModelRes, &setupInstanceRes, &evalRes)
			}
			results[i] = TaskResult{Name: t.name, Object: obj, Err: err}

			dumpMu.Lock()
			dump[t.name] = fmt.Sprintf("%d insts, %d bytes emitted", t.fn.DFG.NumInsts(), len(obj))
			dumpMu.Unlock()
		}(i, t)
	}
	wg.Wait()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Name, r.Err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	res := &CompileResult{
		Descriptor:     desc,
		Tasks:          results,
		DebugDump:      dump,
		SetupModel:     setupModelRes,
		SetupInstance:  setupInstanceRes,
		Eval:           evalRes,
		CollapsedFlags: collapsedFlags,
		AccessChecks:   collectAccessChecks(in),
	}
	if evalRes != nil && in.NodeMapping != nil {
		res.ResidualResist = make([]float64, len(in.NodeMapping))
		res.ResidualReact = make([]float64, len(in.NodeMapping))
		codegen.LoadResidualResist(evalRes, in.NodeMapping, res.ResidualResist)
		codegen.LoadResidualReact(evalRes, in.NodeMapping, res.ResidualReact)

		res.JacobianResist = make([]float64, len(in.Sys.Jacobian))
		res.JacobianReact = make([]float64, len(in.Sys.Jacobian))
		codegen.LoadJacobianResist(evalRes, res.JacobianResist)
		codegen.LoadJacobianReact(evalRes, res.JacobianReact)
	}
	return res, nil
}

// runCodegenTask runs the pkg/osdi/codegen entry point matching t.name,
// storing its result in the matching out pointer (guarded implicitly: each
// task name is only ever handled by the one goroutine compiling it, so no
// two goroutines ever write the same out pointer).
func runCodegenTask(in *ModuleInput, name string, fn *mir.Function, evalParams []mir.Const, collapsedFlags []uint32, cachedVals map[mir.Inst]mir.Const,
	setupModelRes, setupInstanceRes **codegen.SetupResult, evalRes **codegen.EvalResult) error {

	switch name {
	case "setup_model":
		res, _, err := codegen.SetupModel(fn, in.ModelParamValues)
		if err != nil {
			return err
		}
		*setupModelRes = res
	case "setup_instance":
		numCollapse := len(in.Sys.CollapsiblePairs)
		onCollapse := func(pairID int64) {
			if pairID >= 0 && int(pairID) < numCollapse {
				codegen.MarkCollapsed(collapsedFlags, int(pairID))
			}
		}
		instanceGiven := in.InstanceGiven
		if instanceGiven == nil {
			instanceGiven = layout.NewGivenMask(len(in.InstanceParamDefaults))
		}
		res, _, err := codegen.SetupInstance(fn, in.InstanceParamValues, in.InstanceParamDefaults, instanceGiven, onCollapse)
		if err != nil {
			return err
		}
		*setupInstanceRes = res
	case "eval":
		res, err := codegen.EvalModule(fn, in.Sys, evalParams, in.Callbacks, in.Sim, in.OpvarValues, in.BoundStepVal, in.BoundStepSlot >= 0, cachedVals)
		if err != nil {
			return err
		}
		*evalRes = res
	}
	return nil
}

// operatingPointSeeds selects the operating-point-dependent subset of
// it's environmental inputs: voltages, currents, temperature, abstime,
// implicit unknowns and limit state — everything that changes between
// Newton iterations. Fixed parameters, connectivity tests and enable
// bits are deliberately excluded, which is what lets the taint pass
// prove parameter-only subexpressions cacheable.
func operatingPointSeeds(it *hirintern.Interner) []mir.Value {
	var seeds []mir.Value
	for _, kind := range it.Params() {
		switch kind.(type) {
		case hirintern.PKVoltage, hirintern.PKCurrent, hirintern.PKTemperature,
			hirintern.PKAbstime, hirintern.PKImplicitUnknown,
			hirintern.PKPrevState, hirintern.PKNewState:
			if v, ok := it.ParamValue(kind); ok {
				seeds = append(seeds, v)
			}
		}
	}
	return seeds
}

// defaultTaintSeeds returns every value f binds as one of its own
// parameters — voltages, branch currents and temperature, but also fixed
// parameters such as a resistance — the conservative root set component
// E's taint pass spreads from when neither ModuleInput.TaintSeeds nor
// ModuleInput.EvalIntern is supplied.
func defaultTaintSeeds(f *mir.Function) []mir.Value {
	var seeds []mir.Value
	for v, def := range f.DFG.Values {
		if _, ok := def.(mir.ParamDef); ok {
			seeds = append(seeds, mir.Value(v))
		}
	}
	return seeds
}

// collectAccessChecks walks every id in in.Params (if supplied), resolving
// it through codegen.Access and reading back its given-flag state. This is
// how CompileModule exercises access()/given_flag_instance/
// given_flag_model from orchestration, not only from codegen's own tests.
func collectAccessChecks(in *ModuleInput) []AccessCheck {
	if in.Params == nil {
		return nil
	}
	total := in.Params.NumInstance() + in.Params.NumModel() + in.Params.NumOpvar()
	out := make([]AccessCheck, total)
	for id := 0; id < total; id++ {
		loc, ok := codegen.Access(in.Params, in.InstanceLayout, in.ModelLayout, in.InstanceGiven, in.ModelGiven, in.OpvarSlots, id, 0)
		ac := AccessCheck{ID: id, Loc: loc, Valid: ok}
		switch {
		case id < in.Params.NumInstance() && in.InstanceGiven != nil:
			ac.Given = codegen.GivenFlagInstance(in.InstanceGiven, in.Params.NumInstance(), id) == 1
		case id >= in.Params.NumInstance() && id < in.Params.NumInstance()+in.Params.NumModel() && in.ModelGiven != nil:
			ac.Given = codegen.GivenFlagModel(in.ModelGiven, in.Params.NumModel(), id-in.Params.NumInstance()) == 1
		}
		out[id] = ac
	}
	return out
}
