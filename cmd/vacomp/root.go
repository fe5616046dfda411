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
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version is filled in by the release build's -ldflags; "go install"
// falls back to the module version recorded in the binary's build info.
var Version string

var rootCmd = &cobra.Command{
	Use:   "vacomp",
	Short: "Middle/back-end compiler from lowered Verilog-A modules to OSDI 0.4.",
	Long: "vacomp lowers an already-parsed Verilog-A module's HIR into a DAE system, " +
		"SSA MIR, an instance/model data layout, and an OSDI 0.4 descriptor. " +
		"It does not parse Verilog-A itself and does not simulate anything.",
	Run: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "version") {
			fmt.Print("vacomp ")
			switch {
			case Version != "":
				fmt.Print(Version)
			default:
				if info, ok := debug.ReadBuildInfo(); ok {
					fmt.Print(info.Main.Version)
				} else {
					fmt.Print("(unknown version)")
				}
			}
			fmt.Println()
			return
		}
		_ = cmd.Help()
	},
}

// Execute runs the root command; called once from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
	rootCmd.Flags().Bool("version", false, "print version information and exit")
	rootCmd.AddCommand(compileCmd)
}
