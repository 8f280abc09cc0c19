/*
 * pbc.go, part of emfit.
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

// PBC computes displacement vectors under the periodic-boundary convention of
// the host simulation. Delta returns the minimum-image a-b. Passing a nil PBC
// to the engine selects plain (non-periodic) differences.
type PBC interface {
	Delta(a, b Vec) Vec
}

// OrthoBox is an orthorhombic periodic box given by its three edge lengths,
// in nm. General triclinic cells are the host's business; this one covers
// tests and the bundled CLI.
type OrthoBox [3]float64

// Delta returns the minimum-image a-b.
func (b OrthoBox) Delta(a, c Vec) Vec {
	var d Vec
	for k := 0; k < 3; k++ {
		d[k] = a[k] - c[k]
		if b[k] > 0 {
			d[k] -= b[k] * math.Round(d[k]/b[k])
		}
	}
	return d
}

// delta applies p if non-nil, otherwise the plain difference a-b.
func delta(p PBC, a, b Vec) Vec {
	if p == nil {
		return a.sub(b)
	}
	return p.Delta(a, b)
}
