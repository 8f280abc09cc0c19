/*
 * analysis.go, part of emfit.
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
	"fmt"
	"math"
)

// analyze runs the analysis-mode step: no bias, just the relative deviation
// of the running-average model overlap from the target, per component,
// appended to the deviation file. Useful to judge a finished trajectory
// against a map before committing to a biased run.
func (R *Restraint) analyze() error {
	if R.local.Rank() != 0 {
		return nil
	}
	if R.dev == nil {
		names := make([]string, R.gmm.Len())
		for i := range names {
			names[i] = fmt.Sprintf("ovmd_%d", i)
		}
		var err error
		if R.dev, err = newFieldWriter(R.o.DevFile(), names); err != nil {
			return err
		}
		R.ovmdAve = make([]float64, R.gmm.Len())
	}
	R.nframe++
	devs := make([]float64, len(R.ovmd))
	for i, ov := range R.ovmd {
		R.ovmdAve[i] += ov
		ave := R.ovmdAve[i] / R.nframe
		d := ave - R.ovdd[i]
		devs[i] = math.Sqrt(d * d / (R.ovdd[i] * R.ovdd[i]))
	}
	return R.dev.writeRecord(devs)
}
