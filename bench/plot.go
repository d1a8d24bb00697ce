// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package bench

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotResults saves a bar chart of the mean time of each result to path. The
// image format follows the extension of path (.png, .svg, .pdf, ...).
func PlotResults(results []Result, path string) error {
	if len(results) == 0 {
		return errors.New("no results to plot")
	}
	values := make(plotter.Values, len(results))
	names := make([]string, len(results))
	for i, res := range results {
		values[i] = res.Mean.Seconds()
		names[i] = res.Kernel.String()
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("matmul N=%d (%s)", results[0].Size, results[0].DType)
	p.Y.Label.Text = "mean seconds per call"

	bars, err := plotter.NewBarChart(values, vg.Points(24))
	if err != nil {
		return errors.Wrap(err, "failed to build bar chart")
	}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(names...)

	width := vg.Length(max(4, len(results))) * vg.Inch
	if err := p.Save(width, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "failed to save plot to %q", path)
	}
	return nil
}
