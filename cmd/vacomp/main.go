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

// Command vacomp is the thin CLI driver over pkg/compile. The real
// Verilog-A front end (lexer/parser, name resolution) and the native
// object emitter are external collaborators vacomp never implements;
// this command only wires cobra flags into a vacfg.Config and reports
// what pkg/compile did.
package main

func main() {
	Execute()
}
