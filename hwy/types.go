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

// Package hwy provides the portable vector type used by the matrix kernels
// and runtime detection of the SIMD instruction set of the host CPU.
//
// Vectors have a fixed width of Lanes elements, which matches one 256-bit
// float32 register (AVX2). They are plain values, so loading, broadcasting
// and storing never allocate:
//
//	vA := hwy.Set(a[i])
//	vB := hwy.Load(b[j:])
//	vC := hwy.Load(c[j:])
//	hwy.Store(hwy.MulAdd(vA, vB, vC), c[j:])
package hwy

// Floats is a constraint for floating-point types.
type Floats interface {
	~float32 | ~float64
}

// Lanes is the number of elements held by a Vec.
const Lanes = 8

// Vec is a portable vector of Lanes elements.
//
// Vec instances should not be created directly; use Load or Set instead.
type Vec[T Floats] struct {
	data [Lanes]T
}

// NumLanes returns the number of lanes (elements) in this vector.
func (v Vec[T]) NumLanes() int {
	return Lanes
}

// Data returns a copy of the vector elements.
// This is primarily for testing and should not be used in performance-critical code.
func (v Vec[T]) Data() []T {
	out := make([]T, Lanes)
	copy(out, v.data[:])
	return out
}

// Store writes the vector's data to a slice.
// This is the method form of the hwy.Store function.
func (v Vec[T]) Store(dst []T) {
	Store(v, dst)
}
