// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package bench

import (
	"fmt"
	"time"

	"github.com/ajroetker/go-matbench/hwy/contrib/matmul"
	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
)

// Result holds the timings of one successful run.
type Result struct {
	Kernel     matmul.Kernel
	Size       int
	DType      DType
	Iterations int

	Mean, Min, Max time.Duration

	// GFLOPS is 2·N³ floating point operations over Mean.
	GFLOPS float64

	// Dispatch names the SIMD level, or the leaf implementation for the
	// SIMD kernel.
	Dispatch string
}

var (
	cellStyle        = lipgloss.NewStyle().Padding(0, 1)
	rightAlignedCell = cellStyle.Align(lipgloss.Right)
	headerStyle      = lipgloss.NewStyle().Padding(0, 1).Bold(true).Reverse(true)
)

// FormatDuration rounds d for display.
func FormatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return d.Round(time.Millisecond).String()
	case d >= time.Millisecond:
		return d.Round(time.Microsecond).String()
	}
	return d.String()
}

// RenderTable renders results as a table, with the speed-up of each result
// relative to the first.
func RenderTable(results []Result) string {
	table := lgtable.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == lgtable.HeaderRow:
				return headerStyle
			case col >= 4:
				return rightAlignedCell
			}
			return cellStyle
		})
	table.Headers("#", "Kernel", "DType", "Dispatch", "N", "Iters", "Mean", "Min", "Max", "GFLOPS", "Speed-up")
	for _, res := range results {
		speedUp := "-"
		if len(results) > 0 && res.Mean > 0 {
			speedUp = fmt.Sprintf("%.2fx", float64(results[0].Mean)/float64(res.Mean))
		}
		table.Row(
			fmt.Sprint(int(res.Kernel)),
			res.Kernel.String(),
			res.DType.String(),
			res.Dispatch,
			humanize.Comma(int64(res.Size)),
			humanize.Comma(int64(res.Iterations)),
			FormatDuration(res.Mean),
			FormatDuration(res.Min),
			FormatDuration(res.Max),
			humanize.FtoaWithDigits(res.GFLOPS, 2),
			speedUp,
		)
	}
	return table.String()
}
