/*
 * sym6_test.go, part of emfit.
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

import (
	"math"
	"testing"
)

// a positive-definite, properly anisotropic test matrix
var testCov = Sym6{2.0, 0.3, 0.1, 1.5, 0.2, 1.0}

func TestSym6Inverse(Te *testing.T) {
	inv, det := testCov.Inverse()
	if det <= 0 {
		Te.Fatalf("determinant %v, want positive", det)
	}
	//inv*s must be the identity; check it column by column
	cols := [3]Vec{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for k, e := range cols {
		got := inv.MulVec(testCov.MulVec(e))
		for j := 0; j < 3; j++ {
			want := 0.0
			if j == k {
				want = 1.0
			}
			if math.Abs(got[j]-want) > 1e-12 {
				Te.Errorf("inv*s column %d row %d: got %v, want %v", k, j, got[j], want)
			}
		}
	}
}

func TestSym6Det(Te *testing.T) {
	s := Spherical(0.25)
	if d := s.Det(); math.Abs(d-0.25*0.25*0.25) > 1e-15 {
		Te.Errorf("det of spherical(0.25): got %v", d)
	}
}

func TestSym6Quad(Te *testing.T) {
	v := Vec{0.5, -1.0, 2.0}
	q := testCov.Quad(v)
	if q2 := v.dot(testCov.MulVec(v)); math.Abs(q-q2) > 1e-14 {
		Te.Errorf("Quad disagrees with explicit form: %v vs %v", q, q2)
	}
	if q <= 0 {
		Te.Errorf("quadratic form of a positive-definite matrix is %v", q)
	}
}
