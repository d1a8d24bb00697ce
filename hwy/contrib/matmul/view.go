// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package matmul

import "github.com/ajroetker/go-matbench/hwy"

// View is a square Size x Size window into a row-major buffer whose rows are
// Stride elements apart. Element (r, c) of the view lives at
// Data[(Row+r)*Stride + Col+c].
//
// Views never copy: the quadrants of a view share its Data and Stride, so the
// recursive kernels write straight into the caller's output matrix.
type View[T hwy.Floats] struct {
	Data   []T
	Stride int
	Row    int
	Col    int
	Size   int
}

// NewView returns the view of a whole n x n row-major matrix.
func NewView[T hwy.Floats](data []T, n int) View[T] {
	return View[T]{Data: data, Stride: n, Size: n}
}

// offset returns the index in Data of element (r, c).
func (v View[T]) offset(r, c int) int {
	return (v.Row+r)*v.Stride + v.Col + c
}

// At returns element (r, c).
func (v View[T]) At(r, c int) T {
	return v.Data[v.offset(r, c)]
}

// Set assigns element (r, c).
func (v View[T]) Set(r, c int, value T) {
	v.Data[v.offset(r, c)] = value
}

// RowSlice returns the Size elements of row r. Writes go to the underlying
// buffer.
func (v View[T]) RowSlice(r int) []T {
	start := v.offset(r, 0)
	return v.Data[start : start+v.Size : start+v.Size]
}

// Quadrant returns the (qr, qc) half-size block, with qr and qc in {0, 1}.
// The quadrant keeps the enclosing stride.
func (v View[T]) Quadrant(qr, qc int) View[T] {
	half := v.Size / 2
	return View[T]{
		Data:   v.Data,
		Stride: v.Stride,
		Row:    v.Row + qr*half,
		Col:    v.Col + qc*half,
		Size:   half,
	}
}

// Quadrants returns the four quadrants in row-major order:
// top-left, top-right, bottom-left, bottom-right.
func (v View[T]) Quadrants() (q00, q01, q10, q11 View[T]) {
	return v.Quadrant(0, 0), v.Quadrant(0, 1), v.Quadrant(1, 0), v.Quadrant(1, 1)
}
