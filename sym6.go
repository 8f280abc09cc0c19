/*
 * sym6.go, part of emfit.
 *
 * Copyright 2023 The emfit developers
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package emfit

import "math"

// Vec is a point or displacement in 3D space, in nm.
type Vec [3]float64

func (v Vec) sub(w Vec) Vec {
	return Vec{v[0] - w[0], v[1] - w[1], v[2] - w[2]}
}

func (v Vec) dot(w Vec) float64 {
	return v[0]*w[0] + v[1]*w[1] + v[2]*w[2]
}

func (v Vec) scale(a float64) Vec {
	return Vec{a * v[0], a * v[1], a * v[2]}
}

func (v Vec) norm() float64 {
	return math.Sqrt(v.dot(v))
}

// Sym6 is a symmetric 3x3 matrix stored as its 6 independent entries,
// in the order 00, 01, 02, 11, 12, 22. It represents covariance matrices
// and their inverses, which are small enough that the closed-form cofactor
// expressions beat a general matrix package in the inner loops.
type Sym6 [6]float64

// Spherical returns the covariance of an isotropic Gaussian of variance s2.
func Spherical(s2 float64) Sym6 {
	return Sym6{s2, 0, 0, s2, 0, s2}
}

// Add returns the element-wise sum of s and t.
func (s Sym6) Add(t Sym6) Sym6 {
	var r Sym6
	for k := 0; k < 6; k++ {
		r[k] = s[k] + t[k]
	}
	return r
}

// Det returns the determinant, by cofactor expansion along the first row.
func (s Sym6) Det() float64 {
	d := s[0] * (s[3]*s[5] - s[4]*s[4])
	d -= s[1] * (s[1]*s[5] - s[4]*s[2])
	d += s[2] * (s[1]*s[4] - s[3]*s[2])
	return d
}

// Inverse returns the inverse of s and the determinant of s.
// It does not check for singularity: covariances are validated
// positive-definite on load, so det>0 here.
func (s Sym6) Inverse() (Sym6, float64) {
	det := s.Det()
	var inv Sym6
	inv[0] = (s[3]*s[5] - s[4]*s[4]) / det
	inv[1] = (s[2]*s[4] - s[1]*s[5]) / det
	inv[2] = (s[1]*s[4] - s[2]*s[3]) / det
	inv[3] = (s[0]*s[5] - s[2]*s[2]) / det
	inv[4] = (s[2]*s[1] - s[0]*s[4]) / det
	inv[5] = (s[0]*s[3] - s[1]*s[1]) / det
	return inv, det
}

// MulVec returns s*v.
func (s Sym6) MulVec(v Vec) Vec {
	return Vec{
		v[0]*s[0] + v[1]*s[1] + v[2]*s[2],
		v[0]*s[1] + v[1]*s[3] + v[2]*s[4],
		v[0]*s[2] + v[1]*s[4] + v[2]*s[5],
	}
}

// Quad returns the quadratic form v^T s v.
func (s Sym6) Quad(v Vec) float64 {
	return v.dot(s.MulVec(v))
}
