//
// Copyright 2019 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS-IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
//
// schedsim simulates a single-CPU scheduler over a workload file and
// reports summary counters and a per-process execution profile.
package main

import (
	goflag "flag"
	"fmt"
	"os"

	log "github.com/golang/glog"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/google/schedsim/kernel"
	"github.com/google/schedsim/server"
	"github.com/google/schedsim/trace"
	"github.com/google/schedsim/workload"
)

var (
	policyName     string
	slice          int64
	syscallCost    int64
	ctxSwitchCost  int64
	traceLevel     int
	profileCSVPath string
	serveAddr      string
)

var schedsimCmd = &cobra.Command{
	Use:   "schedsim",
	Short: "A discrete-event simulator of a single-CPU operating-system scheduler.",
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var runCmd = &cobra.Command{
	Use:   "run <config-file>",
	Short: "Run a workload to completion and print its summary.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		result, err := simulate(args[0])
		if err != nil {
			outputErrorAndFail(err)
		}
		printSummary(result.Summary)
		if profileCSVPath != "" {
			if err := writeProfileCSV(result); err != nil {
				outputErrorAndFail(err)
			}
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve <config-file>",
	Short: "Run a workload, then serve its results over HTTP.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		result, err := simulate(args[0])
		if err != nil {
			outputErrorAndFail(err)
		}
		printSummary(result.Summary)
		if err := server.New(result).Serve(serveAddr); err != nil {
			outputErrorAndFail(err)
		}
	},
}

// SetupCommands constructs the cobra hierarchy for the schedsim CLI.
func SetupCommands() *cobra.Command {
	for _, cmd := range []*cobra.Command{runCmd, serveCmd} {
		cmd.Flags().StringVar(&policyName, "policy", "FCFS", "scheduling policy: FCFS, RR, or SJF")
		cmd.Flags().Int64Var(&slice, "slice", 0, "RR timeslice in virtual time units (RR only, positive)")
		cmd.Flags().Int64Var(&syscallCost, "syscall-cost", 1, "system time charged per syscall and interrupt")
		cmd.Flags().Int64Var(&ctxSwitchCost, "context-switch-cost", 3, "system time charged per context switch")
		cmd.Flags().IntVar(&traceLevel, "trace-level", 0, "trace output bitmask in [0, 31]; 0 is silent")
		schedsimCmd.AddCommand(cmd)
	}
	runCmd.Flags().StringVar(&profileCSVPath, "profile-csv", "", "write the per-process profile CSV to this path")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "localhost:7402", "address to serve results on")
	return schedsimCmd
}

// simulate parses the workload, assembles the simulation, and runs it.
func simulate(configPath string) (*server.Result, error) {
	w, err := workload.ParseConfig(configPath)
	if err != nil {
		return nil, err
	}
	policy, err := kernel.NewPolicy(policyName, trace.Duration(slice))
	if err != nil {
		return nil, err
	}
	loader, err := workload.NewLoader(0)
	if err != nil {
		return nil, err
	}
	sim, err := kernel.New(policy, loader,
		kernel.SyscallCost(trace.Duration(syscallCost)),
		kernel.ContextSwitchCost(trace.Duration(ctxSwitchCost)),
		kernel.TraceLevel(traceLevel),
	)
	if err != nil {
		return nil, err
	}
	if err := sim.Stage(w); err != nil {
		return nil, err
	}
	log.V(1).Infof("run %s: %d devices, %d admissions", sim.Name(), len(w.Devices), len(w.Admissions))
	summary, err := sim.Run()
	if err != nil {
		return nil, err
	}
	return &server.Result{Summary: summary, Profile: sim.Profile()}, nil
}

func printSummary(s *kernel.Summary) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Policy", s.Policy})
	table.Append([]string{"Total system time", fmt.Sprintf("%d", s.SystemTime)})
	table.Append([]string{"Total user time", fmt.Sprintf("%d", s.UserTime)})
	table.Append([]string{"Context switches", fmt.Sprintf("%d", s.ContextSwitches)})
	table.Append([]string{"Syscalls", fmt.Sprintf("%d", s.Syscalls)})
	table.Append([]string{"Interrupts", fmt.Sprintf("%d", s.Interrupts)})
	table.Append([]string{"CPU utilisation", fmt.Sprintf("%.2f%%", s.Utilisation*100)})
	table.Render()
}

func writeProfileCSV(result *server.Result) error {
	f, err := os.Create(profileCSVPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return result.Profile.WriteCSV(f)
}

func outputErrorAndFail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func main() {
	// glog registers its flags on the standard flag set.
	pflag.CommandLine.AddGoFlagSet(goflag.CommandLine)
	if err := SetupCommands().Execute(); err != nil {
		outputErrorAndFail(err)
	}
}
