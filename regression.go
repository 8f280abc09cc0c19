/*
 * regression.go, part of emfit.
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

// doRegression refits the scale factor as the least-squares slope of the
// target overlaps on the model overlaps through the origin, optionally
// weighted by the inverse total variances. A non-positive numerator or
// denominator means the fit is degenerate, typically a model that drifted
// out of the map; the scale then falls back to 1.
func (R *Restraint) doRegression(w []float64) {
	var num, den float64
	for i, ov := range R.ovmd {
		wi := 1.0
		if w != nil {
			wi = w[i]
		}
		num += wi * ov * R.ovdd[i]
		den += wi * ov * ov
	}
	if num <= 0 || den <= 0 {
		R.scale = 1.0
		return
	}
	R.scale = num / den
}
