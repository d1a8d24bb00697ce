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

package hwy

import "math"

// This file provides the pure Go implementations of the vector operations.
// Architecture-specific kernels (see hwy/contrib/matmul) bypass them when the
// CPU and toolchain allow it; these are the fallback.

// Load creates a vector from the first Lanes elements of src.
// It panics if src is shorter than Lanes.
func Load[T Floats](src []T) Vec[T] {
	_ = src[Lanes-1] // Bounds check elimination.
	var v Vec[T]
	copy(v.data[:], src[:Lanes])
	return v
}

// Store writes the vector's lanes to the first Lanes elements of dst.
// It panics if dst is shorter than Lanes.
func Store[T Floats](v Vec[T], dst []T) {
	_ = dst[Lanes-1]
	copy(dst[:Lanes], v.data[:])
}

// Set creates a vector with all lanes set to the same value.
func Set[T Floats](value T) Vec[T] {
	var v Vec[T]
	for i := range v.data {
		v.data[i] = value
	}
	return v
}

// Add performs element-wise addition.
func Add[T Floats](a, b Vec[T]) Vec[T] {
	var r Vec[T]
	for i := range r.data {
		r.data[i] = a.data[i] + b.data[i]
	}
	return r
}

// Mul performs element-wise multiplication.
func Mul[T Floats](a, b Vec[T]) Vec[T] {
	var r Vec[T]
	for i := range r.data {
		r.data[i] = a.data[i] * b.data[i]
	}
	return r
}

// MulAdd computes a*b + c per lane with a single rounding where the type
// allows it.
func MulAdd[T Floats](a, b, c Vec[T]) Vec[T] {
	var r Vec[T]
	for i := range r.data {
		r.data[i] = fma(a.data[i], b.data[i], c.data[i])
	}
	return r
}

// fma computes x*y + z through math.FMA. Widened float32 operands keep their
// product exact.
func fma[T Floats](x, y, z T) T {
	return T(math.FMA(float64(x), float64(y), float64(z)))
}
