// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

// Package oracle checks the output of the matmul kernels.
//
// Two checks are offered: a checksum for uniformly filled inputs, where
// every element of A x B equals a·b·n, and a comparison against an
// independent product computed with gonum.
package oracle

import (
	"fmt"
	"math"

	"github.com/ajroetker/go-matbench/hwy"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrIncorrectResult is wrapped by every verification failure.
var ErrIncorrectResult = errors.New("INCORRECT RESULT")

// MismatchError reports the first element of C that failed verification.
type MismatchError struct {
	Row, Col  int
	Got, Want float64
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: C[%d,%d] = %g, want %g", ErrIncorrectResult, e.Row, e.Col, e.Got, e.Want)
}

// Unwrap makes errors.Is(err, ErrIncorrectResult) hold.
func (e *MismatchError) Unwrap() error {
	return ErrIncorrectResult
}

// Fill sets every element of buf to v.
func Fill[T hwy.Floats](buf []T, v T) {
	for i := range buf {
		buf[i] = v
	}
}

// Zero clears buf.
func Zero[T hwy.Floats](buf []T) {
	clear(buf)
}

// Expected is the value of every element of A x B when A is filled with a
// and B with b.
func Expected[T hwy.Floats](a, b T, n int) T {
	return a * b * T(n)
}

// CheckUniform verifies that the n x n matrix c holds want everywhere. The
// comparison is exact.
func CheckUniform[T hwy.Floats](c []T, n int, want T) error {
	if len(c) < n*n {
		return errors.Errorf("oracle: C has %d elements, want %d", len(c), n*n)
	}
	for i, got := range c[:n*n] {
		if got != want {
			return &MismatchError{Row: i / n, Col: i % n, Got: float64(got), Want: float64(want)}
		}
	}
	return nil
}

// Reference returns A x B computed by gonum in float64.
func Reference[T hwy.Floats](a, b []T, n int) *mat.Dense {
	var product mat.Dense
	product.Product(toDense(a, n), toDense(b, n))
	return &product
}

func toDense[T hwy.Floats](m []T, n int) *mat.Dense {
	data := make([]float64, n*n)
	for i, v := range m[:n*n] {
		data[i] = float64(v)
	}
	return mat.NewDense(n, n, data)
}

// CheckReference verifies c against Reference(a, b, n), allowing an absolute
// difference of tol per element.
func CheckReference[T hwy.Floats](a, b, c []T, n int, tol float64) error {
	if len(a) < n*n || len(b) < n*n {
		return errors.Errorf("oracle: A or B shorter than %dx%d", n, n)
	}
	return CheckDense(Reference(a, b, n), c, n, tol)
}

// CheckDense verifies c against a precomputed product, allowing an absolute
// difference of tol per element.
func CheckDense[T hwy.Floats](want *mat.Dense, c []T, n int, tol float64) error {
	if len(c) < n*n {
		return errors.Errorf("oracle: C has %d elements, want %d", len(c), n*n)
	}
	if r, cols := want.Dims(); r != n || cols != n {
		return errors.Errorf("oracle: reference is %dx%d, want %dx%d", r, cols, n, n)
	}
	for i := range n {
		for j := range n {
			got, w := float64(c[i*n+j]), want.At(i, j)
			if math.Abs(got-w) > tol || math.IsNaN(got) {
				return &MismatchError{Row: i, Col: j, Got: got, Want: w}
			}
		}
	}
	return nil
}

// FillPatternA sets a[r,c] = (r+c) mod 8.
func FillPatternA[T hwy.Floats](a []T, n int) {
	for r := range n {
		FillPatternARow(a[r*n:(r+1)*n], r)
	}
}

// FillPatternARow fills row r of the FillPatternA matrix.
func FillPatternARow[T hwy.Floats](row []T, r int) {
	for c := range row {
		row[c] = T((r + c) % 8)
	}
}

// FillPatternB sets b[r,c] = (r-c) mod 8, keeping the sign of r-c.
func FillPatternB[T hwy.Floats](b []T, n int) {
	for r := range n {
		FillPatternBRow(b[r*n:(r+1)*n], r)
	}
}

// FillPatternBRow fills row r of the FillPatternB matrix.
func FillPatternBRow[T hwy.Floats](row []T, r int) {
	for c := range row {
		row[c] = T((r - c) % 8)
	}
}

// FillPattern fills a and b with FillPatternA and FillPatternB. Every entry
// is a small integer, so each partial sum of A x B is exact in float32 for
// any n the benchmark can allocate.
func FillPattern[T hwy.Floats](a, b []T, n int) {
	FillPatternA(a, n)
	FillPatternB(b, n)
}
