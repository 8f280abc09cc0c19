/*
 * overlap.go, part of emfit.
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

//The overlap between two 3D Gaussians (m1,S1,w1) and (m2,S2,w2) is
//
//	ov = w1*w2/( (2pi)^1.5 * sqrt(det(S1+S2)) ) * exp( -0.5*d^T (S1+S2)^-1 d )
//
//with d=m1-m2. Everything except d is fixed for a given pair of Gaussian
//types, so the prefactor and the inverse sum of covariances are precomputed
//once and the per-step work reduces to one quadratic form and one exponential.

// cfact is (2*pi)^-1.5.
var cfact = math.Pow(2.0*math.Pi, -1.5)

// prefactorInverse returns the constant prefactor of the overlap between two
// Gaussians with covariances cov0, cov1 and weights w0, w1, together with the
// inverse of the summed covariance.
func prefactorInverse(cov0, cov1 Sym6, w0, w1 float64) (float64, Sym6) {
	sum := cov0.Add(cov1)
	inv, det := sum.Inverse()
	return cfact / math.Sqrt(det) * w0 * w1, inv
}

// overlap returns the overlap value for the displacement d between the two
// means. The engine always calls it with d pointing from the atom to the data
// component (d = mean-atom), in which case the returned vector is the
// derivative of the overlap with respect to the atom position.
func overlap(d Vec, prefact float64, inv Sym6) (float64, Vec) {
	p := inv.MulVec(d)
	ov := prefact * math.Exp(-0.5*d.dot(p))
	return ov, p.scale(ov)
}

// overlapArg returns only the argument d^T inv d of the overlap exponential.
// The neighbor-list build discretizes it through a lookup table instead of
// paying one Exp per pair.
func overlapArg(d Vec, inv Sym6) float64 {
	return inv.Quad(d)
}

//Tabulated exponential. A uniform grid of exp(-x) on [0,expCutoff); arguments
//past the end of the grid are reported as out of range and the pair counts as
//zero overlap for the current neighbor-list build.

const (
	expCutoff   = 15.0
	expTableLen = 1000000
)

type expTable struct {
	dexp float64
	tab  []float64
}

func newExpTable() *expTable {
	t := &expTable{dexp: expCutoff / float64(expTableLen-1)}
	t.tab = make([]float64, expTableLen)
	for i := range t.tab {
		t.tab[i] = math.Exp(-float64(i) * t.dexp)
	}
	return t
}

// at returns the tabulated value of exp(-x) and whether x was inside the
// tabulated domain.
func (t *expTable) at(x float64) (float64, bool) {
	i := int(math.Round(x / t.dexp))
	if i < 0 || i >= len(t.tab) {
		return 0, false
	}
	return t.tab[i], true
}
