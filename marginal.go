/*
 * marginal.go, part of emfit.
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

	"gonum.org/v1/gonum/mat"
)

//Marginal scoring: the per-component uncertainty is integrated out under a
//Jeffreys-like prior, which leaves a closed form per component,
//
//	E_i = -kT * log( 0.5/dev_i * erf(dev_i/sqrt(2)) )
//
//with dev_i = (scale*ovmd_i - ovdd_i)/sigma0_i. No parameters to sample, at
//the price of a fixed total uncertainty sigma0 per component.

type marginalModel struct {
	r *Restraint
}

var sqrt2OverPi = math.Sqrt(2.0 / math.Pi)

func (m *marginalModel) score(step int64, exchange bool, pos *mat.Dense, res *Result) error {
	R := m.r
	escale := 1.0 / float64(R.nrep)
	if !R.o.NoAver() && R.nrep > 1 {
		//the master ranks average the overlaps across the replicas, then
		//redistribute them within each simulation
		if R.local.Rank() == 0 {
			R.ens.Sum(R.ovmd)
			for i := range R.ovmd {
				R.ovmd[i] *= escale
			}
		} else {
			for i := range R.ovmd {
				R.ovmd[i] = 0
			}
		}
		if R.local.Size() > 1 {
			R.local.Sum(R.ovmd)
		}
	}
	if n := R.o.Regression(); n > 0 && step%n == 0 && !exchange {
		R.doRegression(nil)
	}
	var ene float64
	for i, ov := range R.ovmd {
		dev := (R.scale*ov - R.ovdd[i]) / R.sigma0[i]
		R.errF[i] = math.Erf(dev / math.Sqrt2)
		R.expF[i] = math.Exp(-0.5 * dev * dev)
		ene += -math.Log(0.5 / dev * R.errF[i])
	}
	//the energy counts once per replica; its derivative through the averaged
	//overlaps cancels the 1/nrep, so the pair chain carries no ensemble factor
	ene *= R.kbt / escale
	for i := range R.derComp {
		R.derComp[i] = -R.kbt/R.errF[i]*sqrt2OverPi*R.expF[i]/R.sigma0[i] +
			R.kbt/(R.scale*R.ovmd[i]-R.ovdd[i])
	}
	R.reduceDerivatives(pos, R.derComp, R.scale, res)
	res.Energy = ene
	res.Scale = R.scale
	return nil
}
