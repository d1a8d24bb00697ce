// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"runtime"

	"github.com/ajroetker/go-matbench/bench"
	"github.com/ajroetker/go-matbench/bench/oracle"
	"github.com/ajroetker/go-matbench/hwy/contrib/matmul"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"
)

// runFlags holds the flags of "matbench run" that don't map directly to a
// bench.Config field.
type runFlags struct {
	dtype, verify, plot string
	all                 bool
}

func newRunCmd() *cobra.Command {
	cfg := bench.DefaultConfig()
	var rf runFlags
	cmd := &cobra.Command{
		Use:   "run [kernel...]",
		Short: "Run kernels by index or name (default: 0)",
		Long: "Run times each kernel over --iters calls on N x N matrices and verifies every result.\n" +
			"Kernels: " + kernelList() + ".",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmarks(cmd, cfg, rf, args)
		},
	}
	registerRunFlags(cmd.Flags(), &cfg, &rf)
	return cmd
}

func registerRunFlags(fs *pflag.FlagSet, cfg *bench.Config, rf *runFlags) {
	fs.IntVarP(&cfg.Size, "size", "n", cfg.Size, "Matrix side N")
	fs.IntVarP(&cfg.Iterations, "iters", "i", cfg.Iterations, "Number of timed calls per kernel")
	fs.IntVar(&cfg.Warmup, "warmup", cfg.Warmup, "Untimed calls before the timed ones")
	fs.StringVar(&rf.dtype, "dtype", cfg.DType.String(), "Element type: float32 or float64")
	fs.IntVar(&cfg.Tile, "tile", cfg.Tile, "Tile side of the tiled kernel")
	fs.IntVar(&cfg.Threshold, "threshold", cfg.Threshold, "Leaf block size of the divide-and-conquer kernels")
	fs.IntVar(&cfg.Grain, "grain", cfg.Grain, "Rows per task of the parallel kernel")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Number of workers, 0 for GOMAXPROCS")
	fs.StringVar(&rf.verify, "verify", string(cfg.Verify), "Verification: checksum, reference or none")
	fs.Float64Var(&cfg.FillA, "fill-a", cfg.FillA, "Constant filling A in checksum mode")
	fs.Float64Var(&cfg.FillB, "fill-b", cfg.FillB, "Constant filling B in checksum mode")
	fs.BoolVar(&rf.all, "all", false, "Run every kernel")
	fs.BoolVar(&cfg.Progress, "progress", false, "Show a progress bar")
	fs.StringVar(&rf.plot, "plot", "", "Save a bar chart of the results to this file (.png, .svg, ...)")
}

// parseKernels converts kernel arguments to kernels, removing duplicates and
// keeping the order of first appearance.
func parseKernels(args []string, all bool) ([]matmul.Kernel, error) {
	if all {
		return matmul.Kernels(), nil
	}
	if len(args) == 0 {
		return []matmul.Kernel{matmul.Naive}, nil
	}
	kernels := make([]matmul.Kernel, 0, len(args))
	for _, arg := range args {
		k, err := matmul.ParseKernel(arg)
		if err != nil {
			return nil, err
		}
		kernels = append(kernels, k)
	}
	return lo.Uniq(kernels), nil
}

func runBenchmarks(cmd *cobra.Command, cfg bench.Config, rf runFlags, args []string) error {
	kernels, err := parseKernels(args, rf.all)
	if err != nil {
		return err
	}
	if cfg.DType, err = bench.ParseDType(rf.dtype); err != nil {
		return err
	}
	if cfg.Verify, err = bench.ParseVerifyMode(rf.verify); err != nil {
		return err
	}

	runner := bench.NewRunner(cfg.Workers)
	defer runner.Close()
	klog.V(1).Infof("%d workers, GOMAXPROCS=%d", runner.NumWorkers(), runtime.GOMAXPROCS(0))

	var results []bench.Result
	if len(kernels) == 1 {
		// An explicitly selected kernel must satisfy its preconditions.
		cfg.Kernel = kernels[0]
		res, err := runner.Run(cmd.Context(), cfg)
		if err != nil {
			return reportError(err)
		}
		results = append(results, res)
	} else {
		results, err = runner.RunAll(cmd.Context(), cfg, kernels)
		if err != nil {
			return reportError(err)
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), bench.RenderTable(results))
	if rf.plot != "" && len(results) > 0 {
		if err := bench.PlotResults(results, rf.plot); err != nil {
			return err
		}
		klog.Infof("Plot saved to %s", rf.plot)
	}
	return nil
}

// reportError logs the result line of a failed verification.
func reportError(err error) error {
	if errors.Is(err, oracle.ErrIncorrectResult) {
		klog.Errorf("INCORRECT RESULT")
	}
	return err
}
