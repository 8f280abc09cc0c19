/*
 * overlap_test.go, part of emfit.
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

//TestOverlapSpherical checks the overlap of two isotropic Gaussians against
//the closed form w0*w1*(2pi(a+b))^-1.5 * exp(-0.5 r^2/(a+b)).
func TestOverlapSpherical(Te *testing.T) {
	a, b := 0.008, 0.02
	w0, w1 := 1.2, 0.7
	pre, inv := prefactorInverse(Spherical(a), Spherical(b), w0, w1)
	d := Vec{0.05, -0.03, 0.02}
	ov, _ := overlap(d, pre, inv)
	want := w0 * w1 * math.Pow(2.0*math.Pi*(a+b), -1.5) *
		math.Exp(-0.5*d.dot(d)/(a+b))
	if math.Abs(ov-want) > 1e-12*want {
		Te.Errorf("spherical overlap: got %v, want %v", ov, want)
	}
}

//TestOverlapDerivative checks the analytic derivative against a central
//difference, with an anisotropic covariance on one side.
func TestOverlapDerivative(Te *testing.T) {
	pre, inv := prefactorInverse(testCov, Spherical(0.5), 1.0, 2.0)
	mean := Vec{0.2, -0.1, 0.4}
	atom := Vec{-0.3, 0.2, 0.1}
	_, der := overlap(mean.sub(atom), pre, inv)
	h := 1e-6
	for k := 0; k < 3; k++ {
		ap, am := atom, atom
		ap[k] += h
		am[k] -= h
		ovp, _ := overlap(mean.sub(ap), pre, inv)
		ovm, _ := overlap(mean.sub(am), pre, inv)
		num := (ovp - ovm) / (2 * h)
		if math.Abs(der[k]-num) > 1e-6*math.Abs(num)+1e-12 {
			Te.Errorf("derivative component %d: analytic %v, numeric %v", k, der[k], num)
		}
	}
}

func TestExpTable(Te *testing.T) {
	tab := newExpTable()
	for _, x := range []float64{0, 0.001, 0.5, 3.7, 14.9} {
		v, ok := tab.at(x)
		if !ok {
			Te.Fatalf("argument %v reported out of range", x)
		}
		if want := math.Exp(-x); math.Abs(v-want) > 2e-5 {
			Te.Errorf("exp(-%v): table %v, exact %v", x, v, want)
		}
	}
	if _, ok := tab.at(expCutoff + 1.0); ok {
		Te.Error("argument beyond the cutoff reported in range")
	}
	if _, ok := tab.at(-0.1); ok {
		Te.Error("negative argument reported in range")
	}
}
