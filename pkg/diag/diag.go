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

// Package diag collects the non-fatal diagnostics produced while lowering
// and compiling a module. Lowering errors are never returned as Go errors;
// they are appended here and a Missing IR node is substituted at the call
// site, so a single bad statement never aborts the whole pipeline.
package diag

import "fmt"

// Kind classifies a Diagnostic by where in the pipeline it originated.
type Kind uint8

const (
	// Lowering covers unresolved paths, malformed assignments, ambiguous
	// case defaults: detected while building the HIR body.
	Lowering Kind = iota
	// Semantic covers invalid parameter values, detected by generated
	// setup_* code at run time (reported through the OSDI result struct,
	// not through this package, but classified the same way).
	Semantic
	// RuntimeSignal covers $fatal/$finish/$stop.
	RuntimeSignal
	// CodeGen covers verifier failure, target-machine/object-emission
	// errors from the native IR builder façade.
	CodeGen
	// ABIMismatch covers unknown parameter ids presented to access() or
	// given_flag_*(), which return null/zero rather than erroring.
	ABIMismatch
)

func (k Kind) String() string {
	switch k {
	case Lowering:
		return "lowering"
	case Semantic:
		return "semantic"
	case RuntimeSignal:
		return "runtime-signal"
	case CodeGen:
		return "codegen"
	case ABIMismatch:
		return "abi-mismatch"
	default:
		return "unknown"
	}
}

// SourcePtr is an opaque pointer back into the original AST, used only for
// rendering; vacomp never dereferences it. A nil SourcePtr indicates a
// synthetic node (e.g. a desugared primitive instance) with no AST origin.
type SourcePtr struct {
	File   string
	Offset uint32
	Length uint32
}

// Diagnostic is one recorded problem.
type Diagnostic struct {
	Kind    Kind
	Message string
	Source  *SourcePtr
}

func (d Diagnostic) String() string {
	if d.Source == nil {
		return fmt.Sprintf("[%s] %s (synthetic)", d.Kind, d.Message)
	}
	return fmt.Sprintf("[%s] %s (%s:%d)", d.Kind, d.Message, d.Source.File, d.Source.Offset)
}

// Bag accumulates diagnostics across a lowering or compilation pass.
type Bag struct {
	entries []Diagnostic
}

// Push records a new diagnostic.
func (b *Bag) Push(kind Kind, source *SourcePtr, format string, args ...any) {
	b.entries = append(b.entries, Diagnostic{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Source:  source,
	})
}

// Entries returns all recorded diagnostics, in insertion order.
func (b *Bag) Entries() []Diagnostic {
	return b.entries
}

// Empty reports whether no diagnostics have been recorded.
func (b *Bag) Empty() bool {
	return len(b.entries) == 0
}

// HasKind reports whether any diagnostic of the given kind was recorded.
func (b *Bag) HasKind(kind Kind) bool {
	for _, e := range b.entries {
		if e.Kind == kind {
			return true
		}
	}
	return false
}
