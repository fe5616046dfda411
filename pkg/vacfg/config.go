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

// Package vacfg holds compiler-wide configuration: the native target, the
// OSDI ABI version to emit against, the fast-math policy, and the worker
// pool size used by pkg/compile. It plays the role the teacher's
// field.Config/field.GetConfig pair plays for field selection: a small,
// validated, immutable value threaded from the CLI into the core pipeline.
package vacfg

import (
	"fmt"
	"runtime"
)

// Endianness of the compilation target. Descriptor emission refuses
// anything but little-endian, per the ABI's binary layout.
type Endianness uint8

const (
	LittleEndian Endianness = iota
	BigEndian
)

// FastMathPolicy controls which floating-point relaxations codegen is
// permitted to request from the native IR builder for a given instruction.
type FastMathPolicy uint8

const (
	// FastMathStrict is the default: no relaxation.
	FastMathStrict FastMathPolicy = iota
	// FastMathPartial allows reassoc|recip|contract, requested per
	// instruction via a negative source-location marker.
	FastMathPartial
	// FastMathFull additionally allows nnan|ninf|arcp-equivalent flags.
	FastMathFull
)

// Config is the immutable configuration for one compilation run.
type Config struct {
	// TargetTriple names the native target the object file is emitted
	// for, e.g. "x86_64-unknown-linux-gnu". vacomp never inspects this
	// (Endian is set separately); the native IR builder façade resolves
	// everything else.
	TargetTriple string
	// OSDIMajor/OSDIMinor select the ABI version to emit descriptors
	// and exported symbols for.
	OSDIMajor uint32
	OSDIMinor uint32
	// Endian is supplied by the caller, not derived from TargetTriple;
	// Validate and descriptor emission both panic on BigEndian outright.
	Endian Endianness
	// Jobs bounds the worker pool pkg/compile fans codegen tasks across.
	// Zero means "use runtime.GOMAXPROCS(0)".
	Jobs int
}

// Default returns the configuration used when the CLI is given no flags.
func Default() Config {
	return Config{
		TargetTriple: "x86_64-unknown-linux-gnu",
		OSDIMajor:    0,
		OSDIMinor:    4,
		Endian:       LittleEndian,
		Jobs:         0,
	}
}

// Validate checks the configuration for internal consistency and resolves
// Jobs to a concrete value; Endian is checked as given. It is the first
// point where a big-endian target is rejected (descriptor.Build and
// descriptor.Encode repeat the check), matching the ABI's little-endian-only
// constraint (property 10 of the testable-properties list). A big-endian
// target is an invariant violation, not a recoverable condition: no
// descriptor this compiler could emit would be readable on one, so it
// panics rather than returning.
func (c *Config) Validate() error {
	if c.Endian == BigEndian {
		panic(fmt.Sprintf("vacfg: target %q is big-endian; OSDI 0.4 descriptors are little-endian only", c.TargetTriple))
	}
	if c.OSDIMajor != 0 || c.OSDIMinor != 4 {
		return fmt.Errorf("vacfg: unsupported OSDI version %d.%d", c.OSDIMajor, c.OSDIMinor)
	}
	if c.Jobs <= 0 {
		c.Jobs = runtime.GOMAXPROCS(0)
	}
	return nil
}

// Build-glue environment variables consumed by the (external, out-of-scope)
// native emitter's build step. vacomp documents them here for completeness
// but never reads them itself; see SPEC_FULL.md §4.0.
const (
	EnvLLVMPrefix181 = "LLVM_SYS_181_PREFIX"
	EnvLLVMPrefix191 = "LLVM_SYS_191_PREFIX"
	EnvLLVMPrefix201 = "LLVM_SYS_201_PREFIX"
	EnvLLVMPrefix211 = "LLVM_SYS_211_PREFIX"
	EnvHomebrewPrefix = "HOMEBREW_PREFIX"
	EnvRustCheck      = "RUST_CHECK"
)
