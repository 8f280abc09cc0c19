/*
 * options.go, part of emfit.
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
	"io"
	"log"

	"github.com/emfit/emfit/comm"
)

// Options configures a Restraint. Zero values are filled by DefaultOptions;
// each accessor returns the current value and sets a new one if given.
type Options struct {
	temp          float64 //K
	nlCutoff      float64 //relative overlap fraction dropped per component
	nlStride      int64   //steps between neighbor-list rebuilds
	sigmaMeanHot  float64 //relative uncertainty of the mean estimate, Beta=1
	sigmaMeanCold float64 //same, Beta=0
	blur          float64 //Gaussian blur on the forward model, sigmaB=blur/2
	sampling      bool    //sample the uncertainties instead of marginalizing
	sigma0        float64 //initial uncertainty (relative), sampling only
	dsigma        float64 //MC move size (relative), sampling only
	mcStride      int64   //steps between MC moves
	mcCut         float64 //distance cutoff for collective MC moves, nm
	errFile       string  //experimental per-component error file
	statusFile    string  //checkpoint file for the sampled uncertainties
	writeStride   int64   //steps between checkpoint writes
	prior         float64 //p(sigma) = 1/sigma^(2*prior-1)
	regression    int64   //steps between scale regressions, 0 disables
	scale         float64 //initial scale factor
	noWeights     bool    //unweighted regression even in sampling mode
	noAver        bool    //score each replica independently
	analysis      bool    //deviation reporting instead of biasing
	devFile       string  //deviation output file, analysis mode
	restart       bool    //restore the uncertainties from the status file
	seed          uint64  //MC seed; 0 means time+replica
	timeStep      float64 //ps, only used to stamp checkpoint records
	pbc           PBC
	local         comm.Communicator //ranks of this simulation
	ensemble      comm.Communicator //master ranks across replicas
	logger        *log.Logger
}

// DefaultOptions returns options for a single-rank, single-replica marginal
// run at 300 K with a 1% neighbor-list cutoff rebuilt every 100 steps.
// The uncertainty parameters have no sensible universal default and must be
// set explicitly.
func DefaultOptions() *Options {
	o := new(Options)
	o.temp = 300.0
	o.nlCutoff = 0.01
	o.nlStride = 100
	o.prior = 1.0
	o.scale = 1.0
	o.statusFile = "MISTATUS"
	o.devFile = "ovmd_deviations.dat"
	o.timeStep = 0.002
	o.logger = log.New(io.Discard, "", 0)
	return o
}

// Temp returns the temperature in K, and sets it if a value is given.
func (o *Options) Temp(v ...float64) float64 {
	if len(v) > 0 && v[0] > 0 {
		o.temp = v[0]
	}
	return o.temp
}

// NLCutoff returns the neighbor-list overlap cutoff, and sets it if given.
func (o *Options) NLCutoff(v ...float64) float64 {
	if len(v) > 0 {
		o.nlCutoff = v[0]
	}
	return o.nlCutoff
}

// NLStride returns the neighbor-list rebuild stride, and sets it if given.
func (o *Options) NLStride(v ...int64) int64 {
	if len(v) > 0 {
		o.nlStride = v[0]
	}
	return o.nlStride
}

// SigmaMeanHot returns the relative uncertainty in the mean estimate for
// hot (Beta=1) components, and sets it if given.
func (o *Options) SigmaMeanHot(v ...float64) float64 {
	if len(v) > 0 {
		o.sigmaMeanHot = v[0]
	}
	return o.sigmaMeanHot
}

// SigmaMeanCold returns the relative uncertainty in the mean estimate for
// cold (Beta=0) components, and sets it if given.
func (o *Options) SigmaMeanCold(v ...float64) float64 {
	if len(v) > 0 {
		o.sigmaMeanCold = v[0]
	}
	return o.sigmaMeanCold
}

// Blur returns the Gaussian blur applied to the forward model, and sets it
// if given.
func (o *Options) Blur(v ...float64) float64 {
	if len(v) > 0 && v[0] >= 0 {
		o.blur = v[0]
	}
	return o.blur
}

// Sampling returns whether the uncertainties are explicitly sampled, and
// sets it if given.
func (o *Options) Sampling(v ...bool) bool {
	if len(v) > 0 {
		o.sampling = v[0]
	}
	return o.sampling
}

// Sigma0 returns the initial relative uncertainty for sampling mode, and
// sets it if given.
func (o *Options) Sigma0(v ...float64) float64 {
	if len(v) > 0 {
		o.sigma0 = v[0]
	}
	return o.sigma0
}

// DSigma returns the relative Monte Carlo move size, and sets it if given.
func (o *Options) DSigma(v ...float64) float64 {
	if len(v) > 0 {
		o.dsigma = v[0]
	}
	return o.dsigma
}

// MCStride returns the Monte Carlo stride, and sets it if given.
func (o *Options) MCStride(v ...int64) int64 {
	if len(v) > 0 {
		o.mcStride = v[0]
	}
	return o.mcStride
}

// MCCut returns the distance cutoff for collective MC moves in nm, and sets
// it if given.
func (o *Options) MCCut(v ...float64) float64 {
	if len(v) > 0 {
		o.mcCut = v[0]
	}
	return o.mcCut
}

// ErrFile returns the experimental error file name, and sets it if given.
func (o *Options) ErrFile(v ...string) string {
	if len(v) > 0 {
		o.errFile = v[0]
	}
	return o.errFile
}

// StatusFile returns the checkpoint file name, and sets it if given.
func (o *Options) StatusFile(v ...string) string {
	if len(v) > 0 && v[0] != "" {
		o.statusFile = v[0]
	}
	return o.statusFile
}

// WriteStride returns the checkpoint stride, and sets it if given.
func (o *Options) WriteStride(v ...int64) int64 {
	if len(v) > 0 {
		o.writeStride = v[0]
	}
	return o.writeStride
}

// Prior returns the uncertainty prior exponent, and sets it if given.
func (o *Options) Prior(v ...float64) float64 {
	if len(v) > 0 {
		o.prior = v[0]
	}
	return o.prior
}

// Regression returns the scale-regression stride (0 disables), and sets it
// if given.
func (o *Options) Regression(v ...int64) int64 {
	if len(v) > 0 && v[0] >= 0 {
		o.regression = v[0]
	}
	return o.regression
}

// Scale returns the initial scale factor, and sets it if given.
func (o *Options) Scale(v ...float64) float64 {
	if len(v) > 0 && v[0] > 0 {
		o.scale = v[0]
	}
	return o.scale
}

// NoWeights returns whether regression ignores the per-component variances,
// and sets it if given.
func (o *Options) NoWeights(v ...bool) bool {
	if len(v) > 0 {
		o.noWeights = v[0]
	}
	return o.noWeights
}

// NoAver returns whether cross-replica averaging is disabled, and sets it
// if given.
func (o *Options) NoAver(v ...bool) bool {
	if len(v) > 0 {
		o.noAver = v[0]
	}
	return o.noAver
}

// Analysis returns whether the engine runs in analysis (deviation-reporting)
// mode, and sets it if given.
func (o *Options) Analysis(v ...bool) bool {
	if len(v) > 0 {
		o.analysis = v[0]
	}
	return o.analysis
}

// DevFile returns the analysis-mode deviation file name, and sets it if
// given.
func (o *Options) DevFile(v ...string) string {
	if len(v) > 0 && v[0] != "" {
		o.devFile = v[0]
	}
	return o.devFile
}

// Restart returns whether the sampled uncertainties are restored from the
// status file, and sets it if given.
func (o *Options) Restart(v ...bool) bool {
	if len(v) > 0 {
		o.restart = v[0]
	}
	return o.restart
}

// Seed returns the Monte Carlo seed (0 means time+replica), and sets it if
// given.
func (o *Options) Seed(v ...uint64) uint64 {
	if len(v) > 0 {
		o.seed = v[0]
	}
	return o.seed
}

// TimeStep returns the simulation time step in ps, and sets it if given.
func (o *Options) TimeStep(v ...float64) float64 {
	if len(v) > 0 && v[0] > 0 {
		o.timeStep = v[0]
	}
	return o.timeStep
}

// Boundary returns the periodic-boundary convention (nil means
// non-periodic), and sets it if given.
func (o *Options) Boundary(v ...PBC) PBC {
	if len(v) > 0 {
		o.pbc = v[0]
	}
	return o.pbc
}

// Comm returns the intra-simulation communicator, and sets it if given.
func (o *Options) Comm(v ...comm.Communicator) comm.Communicator {
	if len(v) > 0 && v[0] != nil {
		o.local = v[0]
	}
	return o.local
}

// Ensemble returns the cross-replica communicator used by the master rank,
// and sets it if given.
func (o *Options) Ensemble(v ...comm.Communicator) comm.Communicator {
	if len(v) > 0 && v[0] != nil {
		o.ensemble = v[0]
	}
	return o.ensemble
}

// Logger returns the load-time logger, and sets it if given.
func (o *Options) Logger(v ...*log.Logger) *log.Logger {
	if len(v) > 0 && v[0] != nil {
		o.logger = v[0]
	}
	return o.logger
}
