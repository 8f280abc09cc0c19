/*
 * sampled.go, part of emfit.
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

	"gonum.org/v1/gonum/mat"
)

//Sampled scoring: each component carries an explicit uncertainty sigma_i,
//moved by a Monte Carlo chain alongside the simulation. The score is the
//Gaussian negative log-likelihood
//
//	E = 0.5*kT * sum_i (scale*ovmd_i - ovdd_i)^2 / (sigmaMean_i^2 + sigma_i^2)
//
//and the MC target adds the prior kT*prior*log(s2) per component. Only the
//master rank of the sampling replica holds the authoritative sigma vector;
//the other ranks keep a zeroed copy and receive the values through the
//inverse-variance reduction each step.

type sampledModel struct {
	r *Restraint
}

func (s *sampledModel) score(step int64, exchange bool, pos *mat.Dense, res *Result) error {
	R := s.r
	escale := 1.0 / float64(R.nrep)
	for i := range R.invS2 {
		R.invS2[i] = 0
	}
	if R.local.Rank() == 0 {
		for i := range R.invS2 {
			R.invS2[i] = 1.0 / (R.sigmaMean[i]*R.sigmaMean[i] + R.sigma[i]*R.sigma[i])
		}
		if !R.o.NoAver() && R.nrep > 1 {
			R.ens.Sum(R.ovmd)
			R.ens.Sum(R.invS2)
			for i := range R.ovmd {
				R.ovmd[i] *= escale
			}
		}
	} else {
		for i := range R.ovmd {
			R.ovmd[i] = 0
		}
	}
	if R.local.Size() > 1 {
		R.local.Sum(R.ovmd)
		R.local.Sum(R.invS2)
	}
	if n := R.o.Regression(); n > 0 && step%n == 0 && !exchange {
		if R.o.NoWeights() {
			R.doRegression(nil)
		} else {
			R.doRegression(R.invS2)
		}
	}
	var ene float64
	for i, ov := range R.ovmd {
		d := R.scale*ov - R.ovdd[i]
		ene += d * d * R.invS2[i]
	}
	ene *= 0.5 * R.kbt
	for i := range R.derComp {
		R.derComp[i] = R.kbt * (R.scale*R.ovmd[i] - R.ovdd[i]) * R.invS2[i]
	}
	R.reduceDerivatives(pos, R.derComp, escale*R.scale, res)
	res.Energy = ene
	res.Scale = R.scale

	if R.dsigma > 0 && step%R.o.MCStride() == 0 && !exchange {
		R.doMonteCarlo()
	}
	if step%R.o.WriteStride() == 0 {
		if err := R.printStatus(step); err != nil {
			return err
		}
	}
	if R.dsigma > 0 {
		//MCfirst anchors the trial count across restarts
		if R.mcFirst == -1 {
			R.mcFirst = step
		}
		trials := math.Floor(float64(step-R.mcFirst)/float64(R.o.MCStride())) + 1.0
		res.Acceptance = float64(R.mcAccept) / trials
	}
	return nil
}

// doMonteCarlo proposes one collective move: a common shift of the sigmas of
// a random component and its spatial neighbors, reflected at the bounds. Only
// the sampling rank evaluates it; with independent replicas the move is made
// once and broadcast, so all replicas share one uncertainty chain.
func (R *Restraint) doMonteCarlo() {
	nc := R.gmm.Len()
	ng := int(math.Floor(R.rng.Float64() * float64(nc)))
	if ng == nc {
		ng = nc - 1
	}
	shift := R.dsigma * (2.0*R.rng.Float64() - 1.0)

	sample := false
	if !R.o.NoAver() && R.local.Rank() == 0 {
		sample = true
	}
	if R.o.NoAver() && R.local.Rank() == 0 && R.replica == 0 {
		sample = true
	}

	if sample {
		neigh := R.mcNeigh[ng]
		newSigma := make([]float64, len(neigh))
		var oldEne, newEne float64
		for k, i := range neigh {
			d := R.scale*R.ovmd[i] - R.ovdd[i]
			pre := 0.5 * R.kbt * d * d
			oldS2 := R.sigmaMean[i]*R.sigmaMean[i] + R.sigma[i]*R.sigma[i]
			oldEne += pre/oldS2 + R.kbt*R.o.Prior()*math.Log(oldS2)
			ns := R.sigma[i] + shift
			if ns > R.sigmaMax[i] {
				ns = 2.0*R.sigmaMax[i] - ns
			}
			if ns < R.sigmaMin[i] {
				ns = 2.0*R.sigmaMin[i] - ns
			}
			//a shift wider than the window would reflect out the other side
			if ns > R.sigmaMax[i] {
				ns = R.sigmaMax[i]
			}
			if ns < R.sigmaMin[i] {
				ns = R.sigmaMin[i]
			}
			newS2 := R.sigmaMean[i]*R.sigmaMean[i] + ns*ns
			newEne += pre/newS2 + R.kbt*R.o.Prior()*math.Log(newS2)
			newSigma[k] = ns
		}
		if R.accept(oldEne, newEne) {
			for k, i := range neigh {
				R.sigma[i] = newSigma[k]
			}
			R.mcAccept++
		}
	} else {
		for i := range R.sigma {
			R.sigma[i] = 0
		}
		R.mcAccept = 0
	}
	//with independent replicas the chain lives on replica 0 and the others
	//receive it here; the intra-simulation ranks receive the sigmas through
	//the inverse-variance reduction of the next step
	if R.o.NoAver() && R.local.Rank() == 0 && R.ens.Size() > 1 {
		R.ens.Sum(R.sigma)
		acc := []int{R.mcAccept}
		R.ens.SumInt(acc)
		R.mcAccept = acc[0]
	}
}

// accept applies the Metropolis criterion to a proposed move.
func (R *Restraint) accept(oldEne, newEne float64) bool {
	delta := (newEne - oldEne) / R.kbt
	if delta < 0 {
		return true
	}
	return R.rng.Float64() < math.Exp(-delta)
}

// printStatus appends the current uncertainties to the status file, stamped
// with the simulation time. The file is created on first use; a restarted run
// appends to the existing one.
func (R *Restraint) printStatus(step int64) error {
	if R.local.Rank() != 0 {
		return nil
	}
	if R.status == nil {
		names := make([]string, 0, len(R.sigma)+1)
		names = append(names, "MD_time")
		for i := range R.sigma {
			names = append(names, fmt.Sprintf("s%d", i))
		}
		var err error
		if R.o.Restart() {
			R.status, err = appendFieldWriter(R.o.StatusFile(), names)
		} else {
			R.status, err = newFieldWriter(R.o.StatusFile(), names)
		}
		if err != nil {
			return err
		}
	}
	vals := make([]float64, 0, len(R.sigma)+1)
	vals = append(vals, float64(step)*R.o.TimeStep())
	vals = append(vals, R.sigma...)
	return R.status.writeRecord(vals)
}

// readStatus restores the sampled uncertainties from the status file. The
// last record wins, since a restarted run appends.
func (R *Restraint) readStatus() error {
	name := R.o.StatusFile()
	r, err := OpenInput(name)
	if err != nil {
		return fmt.Errorf("emfit: restart requested but no usable status file: %w", err)
	}
	defer r.Close()
	ff, err := readFields(r)
	if err != nil {
		return fmt.Errorf("emfit: reading status file %s: %w", name, err)
	}
	if len(ff.recs) == 0 {
		return fmt.Errorf("emfit: status file %s has no records", name)
	}
	rec := ff.recs[len(ff.recs)-1]
	for i := range R.sigma {
		col, err := ff.col(fmt.Sprintf("s%d", i))
		if err != nil {
			return fmt.Errorf("emfit: status file %s: %w", name, err)
		}
		if R.sigma[i], err = ff.float(rec, col); err != nil {
			return err
		}
	}
	return nil
}
