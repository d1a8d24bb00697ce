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
	"strings"

	"github.com/ajroetker/go-matbench/hwy"
	"github.com/ajroetker/go-matbench/hwy/contrib/matmul"
	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var kernelDescriptions = map[matmul.Kernel]string{
	matmul.Naive:                "row, column, reduction loops",
	matmul.Reordered:            "row, reduction, column loops",
	matmul.ParallelRows:         "reordered loops, rows split across workers (--grain)",
	matmul.Tiled:                "blocked loops, one task per output tile (--tile)",
	matmul.DivideAndConquer:     "recursive 2x2 blocks, two fork-join phases (--threshold)",
	matmul.DivideAndConquerSIMD: "divide with a vectorized leaf (--threshold multiple of 16)",
}

const portableLeafNote = "Note: hwy-* leaves are portable per-lane loops, not native vector code; " +
	"divide-simd is not expected to beat divide. Build with GOEXPERIMENT=simd on an AVX2 CPU for the native float32 leaf."

// kernelList returns "0 naive, 1 reordered, ...".
func kernelList() string {
	return strings.Join(lo.Map(matmul.Kernels(), func(k matmul.Kernel, _ int) string {
		return fmt.Sprintf("%d %s", int(k), k)
	}), ", ")
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List kernels and the detected SIMD level",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			headerStyle := lipgloss.NewStyle().Padding(0, 1).Bold(true).Reverse(true)
			cellStyle := lipgloss.NewStyle().Padding(0, 1)
			table := lgtable.New().
				Border(lipgloss.RoundedBorder()).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == lgtable.HeaderRow {
						return headerStyle
					}
					return cellStyle
				}).
				Headers("#", "Kernel", "Description")
			for _, k := range matmul.Kernels() {
				table.Row(fmt.Sprint(int(k)), k.String(), kernelDescriptions[k])
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, table.String())
			fmt.Fprintf(out, "SIMD: %s (%d-byte vectors, FMA=%v)\n", hwy.CurrentName(), hwy.CurrentWidth(), hwy.HasFMA())
			fmt.Fprintf(out, "SIMD leaf: float32 %s, float64 %s\n",
				matmul.LeafImplementation[float32](), matmul.LeafImplementation[float64]())
			if !matmul.IsNativeLeaf[float32]() {
				fmt.Fprintln(out, portableLeafNote)
			}
		},
	}
}
