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

// Command matbench times dense square matrix multiplication kernels and
// verifies their results.
//
// Usage:
//
//	matbench run                     # kernel 0 (naive), N=1024
//	matbench run 3 divide -n 2048    # kernels by index or name
//	matbench run --all -i 5 --plot kernels.png
//	matbench list                    # kernels and detected SIMD level
//
// The process exits with status 1 on any error, including an incorrect
// kernel result.
package main

import (
	"context"
	goflag "flag"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "matbench",
		Short:         "Benchmark dense square matrix multiplication kernels",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	klogFlags := goflag.NewFlagSet("klog", goflag.ContinueOnError)
	klog.InitFlags(klogFlags)
	root.PersistentFlags().AddGoFlagSet(klogFlags)

	root.AddCommand(newRunCmd(), newListCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	klog.Flush()
	if err != nil {
		klog.Errorf("%v", err)
		klog.Flush()
		os.Exit(1)
	}
}
