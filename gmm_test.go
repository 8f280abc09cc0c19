/*
 * gmm_test.go, part of emfit.
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
	"os"
	"path/filepath"
	"testing"
)

const gmmHeader = "#! FIELDS Id Weight Mean_0 Mean_1 Mean_2 Cov_00 Cov_01 Cov_02 Cov_11 Cov_12 Cov_22 Beta\n"

func writeTestGMM(Te *testing.T, body string) string {
	Te.Helper()
	name := filepath.Join(Te.TempDir(), "map.gmm")
	if err := os.WriteFile(name, []byte(gmmHeader+body), 0644); err != nil {
		Te.Fatal(err)
	}
	return name
}

func TestReadGMM(Te *testing.T) {
	name := writeTestGMM(Te,
		"0 1.5 1.0 2.0 3.0 0.01 0.0 0.0 0.01 0.0 0.01 0\n"+
			"1 2.0 1.2 2.1 3.3 0.02 0.001 0.0 0.02 0.0 0.02 1\n")
	g, err := ReadGMM(name)
	if err != nil {
		Te.Fatal(err)
	}
	if g.Len() != 2 {
		Te.Fatalf("got %d components, want 2", g.Len())
	}
	c := g.Component(1)
	if c.ID != 1 || c.Beta != 1 || c.Weight != 2.0 {
		Te.Errorf("component 1 mis-parsed: %+v", c)
	}
	if c.Mean != (Vec{1.2, 2.1, 3.3}) {
		Te.Errorf("component 1 mean: %v", c.Mean)
	}
	if tw := g.TotalWeight(); math.Abs(tw-3.5) > 1e-12 {
		Te.Errorf("total weight: %v", tw)
	}
}

func TestReadGMMInvalid(Te *testing.T) {
	//not positive-definite
	name := writeTestGMM(Te, "0 1.0 0.0 0.0 0.0 -0.01 0.0 0.0 0.01 0.0 0.01 0\n")
	if _, err := ReadGMM(name); err == nil {
		Te.Error("negative covariance accepted")
	}
	//bad Beta
	name = writeTestGMM(Te, "0 1.0 0.0 0.0 0.0 0.01 0.0 0.0 0.01 0.0 0.01 2\n")
	if _, err := ReadGMM(name); err == nil {
		Te.Error("Beta=2 accepted")
	}
	//missing column
	name = filepath.Join(Te.TempDir(), "short.gmm")
	os.WriteFile(name, []byte("#! FIELDS Id Weight\n0 1.0\n"), 0644)
	if _, err := ReadGMM(name); err == nil {
		Te.Error("missing columns accepted")
	}
}

//TestSelfOverlaps checks the target of a single isotropic component against
//the closed form w^2*(4pi s2)^-1.5.
func TestSelfOverlaps(Te *testing.T) {
	w, s2 := 2.0, 0.01
	g, err := NewGMM([]Component{{ID: 0, Weight: w, Cov: Spherical(s2)}})
	if err != nil {
		Te.Fatal(err)
	}
	ovdd := g.SelfOverlaps()
	want := w * w * math.Pow(4.0*math.Pi*s2, -1.5)
	if math.Abs(ovdd[0]-want) > 1e-12*want {
		Te.Errorf("self-overlap: got %v, want %v", ovdd[0], want)
	}
}

func TestReadExpErrors(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "err.dat")
	body := "#! SET Nexp 2\n#! FIELDS Id Err0 Err1\n0 3.0 4.0\n1 1.0 1.0\n"
	if err := os.WriteFile(name, []byte(body), 0644); err != nil {
		Te.Fatal(err)
	}
	errs, err := ReadExpErrors(name, 2)
	if err != nil {
		Te.Fatal(err)
	}
	if want := math.Sqrt((9.0 + 16.0) / 2.0); math.Abs(errs[0]-want) > 1e-12 {
		Te.Errorf("RMS of component 0: got %v, want %v", errs[0], want)
	}
	if math.Abs(errs[1]-1.0) > 1e-12 {
		Te.Errorf("RMS of component 1: got %v", errs[1])
	}
	//one record too few
	if _, err := ReadExpErrors(name, 3); err == nil {
		Te.Error("record count mismatch accepted")
	}
}
