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

// Package abi defines the OSDI 0.4 binary interface constants that a
// compiled module's exported symbols and descriptor tables must agree on
// with the host simulator. Nothing in this package depends on the rest of
// vacomp; it exists so codegen and descriptor emission share one source of
// truth for bit layouts that must never drift.
package abi

// Version is the OSDI ABI version this compiler targets.
const (
	VersionMajor = 0
	VersionMinor = 4
)

// Eval/setup flag bits. Values are part of the wire contract with host
// simulators; never renumber them.
const (
	FlagAnalysisIC uint32 = 1 << iota
	FlagEnableLim
	FlagInitLim
	FlagCalcOp
	FlagCalcNoise
	FlagCalcResistResidual
	FlagCalcReactResidual
	FlagCalcResistJacobian
	FlagCalcReactJacobian
	FlagCalcResistLimRHS
	FlagCalcReactLimRHS
)

// EvalRetFlagLim is OR'd into eval's return word when a limiting function
// reports that its argument was changed.
const EvalRetFlagLim uint32 = 1 << 16

// EvalRetFlagFatal / Finish / Stop mirror the three Verilog-A system tasks
// that can terminate (or flag) an analysis from within eval.
const (
	EvalRetFlagFatal  uint32 = 1 << 17
	EvalRetFlagFinish uint32 = 1 << 18
	EvalRetFlagStop   uint32 = 1 << 19
)

// access() flag bits.
const (
	AccessFlagInstance uint32 = 1 << 0
	AccessFlagSet      uint32 = 1 << 1
)

// Log levels, as written through the osdi_log function pointer.
const (
	LogLevelDebug uint32 = iota
	LogLevelDisplay
	LogLevelInfo
	LogLevelWarn
	LogLevelErr
	LogLevelFatal
)

// LogFmtErr is OR'd into a log level when the message is a formatted
// diagnostic rather than a plain string.
const LogFmtErr uint32 = 1 << 31

// NatureRefKind tags what an attribute's nature reference points at.
type NatureRefKind uint32

const (
	NatRefNone                NatureRefKind = 0
	NatRefNature              NatureRefKind = 1
	NatRefDisciplineFlow      NatureRefKind = 2
	NatRefDisciplinePotential NatureRefKind = 3
)

// AttributeType tags the union encoding of an attribute value.
type AttributeType uint32

const (
	AttrTypeReal   AttributeType = 1
	AttrTypeInt    AttributeType = 2
	AttrTypeString AttributeType = 3
)

// ParamKind flag bits, combined with AttributeType to describe a parameter
// or opvar descriptor entry. Matches OSDI's PARA_KIND/PARA_TY split.
type ParamKind uint32

const (
	ParamKindModel ParamKind = 1 << 0
	ParamKindInst  ParamKind = 1 << 1
	ParamKindOpvar ParamKind = 1 << 2
)

// Domain describes a discipline's continuity domain.
type Domain uint32

const (
	DomainNotGiven  Domain = 0
	DomainContinuous Domain = 1
	DomainDiscrete   Domain = 2
)

// AbsentOffset is the sentinel written for a descriptor offset field that
// has no backing storage in a particular module (e.g. a module with no
// noise sources has no bound_step-adjacent slot of that kind).
const AbsentOffset uint32 = 0xFFFFFFFF

// JacobianEntryFlag bits tag one descriptor Jacobian row: whether it
// carries a resistive/reactive half at all, and whether that half is a
// compile-time constant (never needs recomputing across Newton
// iterations) rather than a value eval must recompute every call.
type JacobianEntryFlag uint32

const (
	JacobianEntryResist      JacobianEntryFlag = 1 << 0
	JacobianEntryReact       JacobianEntryFlag = 1 << 1
	JacobianEntryResistConst JacobianEntryFlag = 1 << 2
	JacobianEntryReactConst  JacobianEntryFlag = 1 << 3
)

// NatRefNoneIdx is the sentinel nature index meaning "no nature".
const NatRefNoneIdx uint32 = 0xFFFFFFFF
