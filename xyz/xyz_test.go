/*
 * xyz_test.go, part of emfit.
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

package xyz

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"
)

const twoFrames = `3
first frame
C 1.0 2.0 3.0
N 0.0 0.0 0.0
O -1.0 0.5 2.5
3
second frame
C 1.1 2.0 3.0
N 0.0 0.1 0.0
O -1.0 0.5 2.6
`

func writeTraj(Te *testing.T, body string) string {
	Te.Helper()
	name := filepath.Join(Te.TempDir(), "traj.xyz")
	if err := os.WriteFile(name, []byte(body), 0644); err != nil {
		Te.Fatal(err)
	}
	return name
}

func TestTrajRead(Te *testing.T) {
	t, err := New(writeTraj(Te, twoFrames))
	if err != nil {
		Te.Fatal(err)
	}
	defer t.Close()
	if t.Len() != 3 {
		Te.Fatalf("atom count: %d", t.Len())
	}
	for i, want := range []string{"C", "N", "O"} {
		if t.AtomName(i) != want {
			Te.Errorf("atom %d name: %q", i, t.AtomName(i))
		}
	}
	c := mat.NewDense(3, 3, nil)
	if err := t.Next(c); err != nil {
		Te.Fatal(err)
	}
	//coordinates come back in nm
	if math.Abs(c.At(0, 0)-0.1) > 1e-12 {
		Te.Errorf("frame 0 atom 0 x: %v, want 0.1", c.At(0, 0))
	}
	if err := t.Next(c); err != nil {
		Te.Fatal(err)
	}
	if math.Abs(c.At(2, 2)-0.26) > 1e-12 {
		Te.Errorf("frame 1 atom 2 z: %v, want 0.26", c.At(2, 2))
	}
	if err := t.Next(c); err != io.EOF {
		Te.Errorf("past the last frame: %v, want EOF", err)
	}
	if t.Readable() {
		Te.Error("trajectory still readable after EOF")
	}
}

func TestTrajErrors(Te *testing.T) {
	if _, err := New(writeTraj(Te, "nonsense\n")); err == nil {
		Te.Error("garbage header accepted")
	}
	//frame two has the wrong atom count
	bad := "1\nc\nC 0.0 0.0 0.0\n2\nc\nC 0.0 0.0 0.0\nN 1.0 1.0 1.0\n"
	t, err := New(writeTraj(Te, bad))
	if err != nil {
		Te.Fatal(err)
	}
	defer t.Close()
	c := mat.NewDense(1, 3, nil)
	if err := t.Next(c); err != nil {
		Te.Fatal(err)
	}
	if err := t.Next(c); err == nil || err == io.EOF {
		Te.Errorf("atom count mismatch not reported: %v", err)
	}
}
