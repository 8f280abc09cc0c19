/*
 * scatter_test.go, part of emfit.
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

func TestElementFromName(Te *testing.T) {
	cases := map[string]string{
		"CA":  "C",
		"N":   "N",
		"OD1": "O",
		"SG":  "S",
		"2HB": "H",
	}
	for name, want := range cases {
		el, err := elementFromName(name)
		if err != nil {
			Te.Fatal(err)
		}
		if el != want {
			Te.Errorf("element of %q: got %q, want %q", name, el, want)
		}
	}
	if _, err := elementFromName(""); err == nil {
		Te.Error("empty atom name accepted")
	}
}

func TestBuildModelGMM(Te *testing.T) {
	m, err := buildModelGMM(testMol{"CA", "OD1", "N", "SG"}, 0)
	if err != nil {
		Te.Fatal(err)
	}
	if len(m.typ) != 4 {
		Te.Fatalf("typ length %d", len(m.typ))
	}
	//the covariance is the real-space width of the scattering Gaussian
	wantS := math.Sqrt(0.5*scatterB["C"]) / math.Pi * 0.1
	if c := m.cov[m.typ[0]]; math.Abs(c[0]-wantS*wantS) > 1e-15 {
		Te.Errorf("C variance: got %v, want %v", c[0], wantS*wantS)
	}
	//a blur adds in quadrature
	mb, err := buildModelGMM(testMol{"CA"}, 0.2)
	if err != nil {
		Te.Fatal(err)
	}
	if c := mb.cov[mb.typ[0]]; math.Abs(c[0]-(wantS*wantS+0.01)) > 1e-15 {
		Te.Errorf("blurred C variance: got %v", c[0])
	}
	//hydrogens have no scattering entry
	if _, err := buildModelGMM(testMol{"2HB"}, 0); err == nil {
		Te.Error("hydrogen accepted")
	}
}

func TestModelNormalize(Te *testing.T) {
	m, err := buildModelGMM(testMol{"CA", "CA"}, 0)
	if err != nil {
		Te.Fatal(err)
	}
	m.normalize(10.0)
	var tot float64
	for _, w := range m.atomWeights() {
		tot += w
	}
	if math.Abs(tot-10.0) > 1e-12 {
		Te.Errorf("normalized total weight: %v", tot)
	}
}

func TestOrthoBoxDelta(Te *testing.T) {
	box := OrthoBox{1.0, 1.0, 1.0}
	d := box.Delta(Vec{0.9, 0.1, 0.5}, Vec{0.1, 0.9, 0.5})
	want := Vec{-0.2, 0.2, 0.0}
	for k := 0; k < 3; k++ {
		if math.Abs(d[k]-want[k]) > 1e-12 {
			Te.Errorf("minimum image component %d: got %v, want %v", k, d[k], want[k])
		}
	}
	//nil boundary is the plain difference
	d = delta(nil, Vec{0.9, 0.1, 0.5}, Vec{0.1, 0.9, 0.5})
	if d[0] != 0.8 || d[1] != -0.8 {
		Te.Errorf("plain difference: %v", d)
	}
}
