/*
 * restraint.go, part of emfit.
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
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/emfit/emfit/comm"
)

// kB is the Boltzmann constant in kJ/(mol*K).
const kB = 0.0083144621

// Result holds the output of one scoring step. Forces and Virial are nil in
// analysis mode. Acceptance is only meaningful when the uncertainties are
// sampled with a non-zero move size.
type Result struct {
	Energy     float64    //kJ/mol
	Forces     *mat.Dense //natoms x 3, kJ/(mol*nm)
	Virial     *mat.Dense //3 x 3
	Scale      float64    //current scale factor
	Acceptance float64    //running MC acceptance ratio
}

// uncertaintyModel is the treatment of the per-component uncertainties:
// marginalized analytically, or carried as explicit sampled parameters.
type uncertaintyModel interface {
	score(step int64, exchange bool, pos *mat.Dense, res *Result) error
}

// Restraint scores an atomistic model against the GMM fit of an experimental
// density map, via the overlaps between the model and data Gaussians. It is
// built once per simulation with NewRestraint and driven by Calculate every
// step. A Restraint is not safe for concurrent use by multiple goroutines;
// parallel runs give each rank its own Restraint over a shared comm group.
type Restraint struct {
	o      *Options
	kbt    float64
	gmm    *GMM
	model  *modelGMM
	natoms int

	ovdd      []float64 //target: data self-overlaps, per component
	sigmaMean []float64 //absolute uncertainty of the mean estimate

	//marginal mode
	sigma0 []float64 //total uncertainty per component
	errF   []float64
	expF   []float64

	//sampling mode
	sigma    []float64
	sigmaMin []float64
	sigmaMax []float64
	dsigma   float64 //absolute MC move size
	mcNeigh  [][]int //components moved together, per component
	mcAccept int
	mcFirst  int64
	rng      *rand.Rand
	status   *fieldWriter

	//precomputed pair constants, indexed typ*ncomp+id
	prefact []float64
	invcov  []Sym6
	tab     *expTable

	local   comm.Communicator
	ens     comm.Communicator
	nrep    int //replicas averaged over (1 with NoAver)
	replica int

	firstTime bool
	nl        []int     //pair list, encoded id*natoms+im
	ovmd      []float64 //model overlaps, per component
	ovmdDer   []float64 //overlap derivative wrt the atom, 3 per pair
	derComp   []float64 //score derivative wrt ovmd, scratch
	invS2     []float64 //inverse total variances, scratch
	scale     float64

	score uncertaintyModel

	//analysis mode
	nframe  float64
	ovmdAve []float64
	dev     *fieldWriter
}

// NewRestraint builds a density-fit restraint from a data GMM, the atom names
// of the reference structure and the options. Invalid option combinations and
// unusable inputs are fatal here, never at step time.
func NewRestraint(g *GMM, mol AtomNamer, o *Options) (*Restraint, error) {
	if g == nil {
		return nil, fmt.Errorf("emfit: nil GMM")
	}
	if o == nil {
		o = DefaultOptions()
	}
	if o.NLCutoff() <= 0 {
		return nil, fmt.Errorf("emfit: the neighbor-list cutoff must be positive")
	}
	if o.NLStride() <= 0 {
		return nil, fmt.Errorf("emfit: the neighbor-list stride must be positive")
	}
	if o.Sampling() && !o.Analysis() {
		if o.Sigma0() <= 0 {
			return nil, fmt.Errorf("emfit: sampling the uncertainties requires a positive Sigma0")
		}
		if o.DSigma() < 0 {
			return nil, fmt.Errorf("emfit: the MC move size can't be negative")
		}
		if o.DSigma() > 0 {
			if o.MCStride() <= 0 {
				return nil, fmt.Errorf("emfit: sampling the uncertainties requires a positive MCStride")
			}
			if o.MCCut() <= 0 {
				return nil, fmt.Errorf("emfit: sampling the uncertainties requires a positive MCCut")
			}
		}
		if o.WriteStride() <= 0 {
			return nil, fmt.Errorf("emfit: sampling the uncertainties requires a positive WriteStride")
		}
	}
	R := &Restraint{
		o:         o,
		kbt:       kB * o.Temp(),
		gmm:       g,
		firstTime: true,
		mcFirst:   -1,
		scale:     o.Scale(),
	}
	R.local = o.Comm()
	if R.local == nil {
		R.local = comm.Solo()
	}
	R.ens = o.Ensemble()
	if R.ens == nil {
		R.ens = comm.Solo()
	}
	//the master rank knows the ensemble layout; everybody else learns it
	//through the intra-simulation reduction
	nv := make([]int, 2)
	if R.local.Rank() == 0 {
		if o.NoAver() {
			nv[0] = 1
		} else {
			nv[0] = R.ens.Size()
		}
		nv[1] = R.ens.Rank()
	}
	R.local.SumInt(nv)
	R.nrep, R.replica = nv[0], nv[1]

	model, err := buildModelGMM(mol, o.Blur())
	if err != nil {
		return nil, err
	}
	model.normalize(g.TotalWeight())
	R.model = model
	R.natoms = len(model.typ)

	nc := g.Len()
	R.ovdd = g.SelfOverlaps()
	stats := newOvStats(R.ovdd)
	log := o.Logger()
	log.Printf("emfit: %d atoms, %d map components", R.natoms, nc)
	log.Printf("emfit: self-overlaps: median %.6e mean %.6e min %.6e max %.6e",
		stats.median, stats.mean, stats.min, stats.max)
	log.Printf("emfit: replica %d of %d averaged", R.replica, R.nrep)

	expErr := make([]float64, nc)
	if name := o.ErrFile(); name != "" {
		if expErr, err = ReadExpErrors(name, nc); err != nil {
			return nil, err
		}
		rel := make([]float64, nc)
		for i := range rel {
			rel[i] = expErr[i] / R.ovdd[i]
		}
		rs := newOvStats(rel)
		log.Printf("emfit: relative errors: median %.6e mean %.6e min %.6e max %.6e",
			rs.median, rs.mean, rs.min, rs.max)
	}

	//the relative uncertainty parameters become absolute per-component
	//values on the scale of the component's own self-overlap
	R.dsigma = o.DSigma() * stats.median
	R.sigmaMean = make([]float64, nc)
	for i := 0; i < nc; i++ {
		rel := o.SigmaMeanCold()
		if g.Component(i).Beta == 1 {
			rel = o.SigmaMeanHot()
		}
		R.sigmaMean[i] = rel * R.ovdd[i]
	}

	switch {
	case o.Analysis():
		//no score is computed, so no uncertainty setup either
	case o.Sampling():
		R.sigma = make([]float64, nc)
		R.sigmaMin = make([]float64, nc)
		R.sigmaMax = make([]float64, nc)
		for i := 0; i < nc; i++ {
			R.sigmaMin[i] = expErr[i]
			R.sigmaMax[i] = 2.0*stats.max + expErr[i] + R.dsigma
			s := o.Sigma0() * stats.median
			if s < R.sigmaMin[i] {
				s = R.sigmaMin[i]
			}
			if s > R.sigmaMax[i] {
				s = R.sigmaMax[i]
			}
			R.sigma[i] = s
		}
		if o.Restart() {
			if err := R.readStatus(); err != nil {
				return nil, err
			}
		}
		if R.dsigma > 0 {
			R.buildMCNeighbors()
		}
		R.score = &sampledModel{R}
	default:
		R.sigma0 = make([]float64, nc)
		for i := 0; i < nc; i++ {
			R.sigma0[i] = math.Sqrt(expErr[i]*expErr[i] + R.sigmaMean[i]*R.sigmaMean[i])
			if R.sigma0[i] <= 0 {
				return nil, fmt.Errorf("emfit: component %d has zero total uncertainty; set the mean uncertainties or provide an error file", i)
			}
		}
		R.errF = make([]float64, nc)
		R.expF = make([]float64, nc)
		R.score = &marginalModel{R}
	}

	ntyp := len(model.weight)
	R.prefact = make([]float64, ntyp*nc)
	R.invcov = make([]Sym6, ntyp*nc)
	for t := 0; t < ntyp; t++ {
		for id := 0; id < nc; id++ {
			c := g.Component(id)
			k := t*nc + id
			R.prefact[k], R.invcov[k] = prefactorInverse(model.cov[t], c.Cov, model.weight[t], c.Weight)
		}
	}
	R.tab = newExpTable()
	R.ovmd = make([]float64, nc)
	R.derComp = make([]float64, nc)
	R.invS2 = make([]float64, nc)

	//one seed per replica, agreed on by all ranks of the simulation
	sv := make([]int, 1)
	if R.local.Rank() == 0 {
		s := o.Seed()
		if s == 0 {
			s = uint64(time.Now().Unix())
		}
		sv[0] = int(s) + R.replica
	}
	R.local.SumInt(sv)
	R.rng = rand.New(rand.NewSource(uint64(sv[0])))

	return R, nil
}

// buildMCNeighbors groups the map components moved together by one MC move:
// all components whose means lie within MCCut of the chosen one, itself
// included.
func (R *Restraint) buildMCNeighbors() {
	nc := R.gmm.Len()
	cut := R.o.MCCut()
	R.mcNeigh = make([][]int, nc)
	for i := 0; i < nc; i++ {
		mi := R.gmm.Component(i).Mean
		for j := 0; j < nc; j++ {
			if mi.sub(R.gmm.Component(j).Mean).norm() < cut {
				R.mcNeigh[i] = append(R.mcNeigh[i], j)
			}
		}
	}
}

// atomPos reads atom i out of the natoms x 3 position matrix.
func atomPos(pos *mat.Dense, i int) Vec {
	r := pos.RawRowView(i)
	return Vec{r[0], r[1], r[2]}
}

// Calculate scores the model positions at the given step and returns the
// energy, the per-atom forces and the virial contribution. The positions are
// a natoms x 3 matrix in nm. exchange must be true on replica-exchange steps,
// where the neighbor list is rebuilt and the MC and regression moves are
// suppressed. All ranks of the communicator group must call Calculate with
// the same step and exchange flag.
func (R *Restraint) Calculate(step int64, exchange bool, pos *mat.Dense) (*Result, error) {
	if pos == nil {
		return nil, fmt.Errorf("emfit: nil position matrix")
	}
	r, c := pos.Dims()
	if r != R.natoms || c != 3 {
		return nil, fmt.Errorf("emfit: position matrix is %dx%d, want %dx3", r, c, R.natoms)
	}
	R.calculateOverlap(step, exchange, pos)
	res := &Result{Scale: R.scale}
	if R.o.Analysis() {
		return res, R.analyze()
	}
	if err := R.score.score(step, exchange, pos, res); err != nil {
		return nil, err
	}
	return res, nil
}

// calculateOverlap rebuilds the neighbor list when due and accumulates the
// model overlap of every map component, striding the pair list over the
// ranks. The per-pair derivatives stay rank-local; only the overlaps are
// reduced here.
func (R *Restraint) calculateOverlap(step int64, exchange bool, pos *mat.Dense) {
	if R.firstTime || exchange || step%R.o.NLStride() == 0 {
		R.updateNeighborList(pos)
		R.firstTime = false
	}
	for i := range R.ovmd {
		R.ovmd[i] = 0
	}
	na := R.natoms
	nc := R.gmm.Len()
	pbc := R.o.Boundary()
	size, rank := R.local.Size(), R.local.Rank()
	for i := rank; i < len(R.nl); i += size {
		id := R.nl[i] / na
		im := R.nl[i] % na
		k := R.model.typ[im]*nc + id
		d := delta(pbc, R.gmm.Component(id).Mean, atomPos(pos, im))
		ov, der := overlap(d, R.prefact[k], R.invcov[k])
		R.ovmd[id] += ov
		R.ovmdDer[3*i] = der[0]
		R.ovmdDer[3*i+1] = der[1]
		R.ovmdDer[3*i+2] = der[2]
	}
	if size > 1 {
		R.local.Sum(R.ovmd)
	}
}

// reduceDerivatives turns the per-component score derivatives dE/d(ovmd) into
// per-atom forces and the virial. chain multiplies every pair derivative (the
// scale factor, and the ensemble factor in sampling mode). For the virial
// each atom is folded into the cell of its map component.
func (R *Restraint) reduceDerivatives(pos *mat.Dense, derComp []float64, chain float64, res *Result) {
	na := R.natoms
	pbc := R.o.Boundary()
	force := make([]float64, 3*na)
	vir := make([]float64, 9)
	size, rank := R.local.Size(), R.local.Rank()
	for i := rank; i < len(R.nl); i += size {
		id := R.nl[i] / na
		im := R.nl[i] % na
		f := derComp[id] * chain
		tot := Vec{R.ovmdDer[3*i] * f, R.ovmdDer[3*i+1] * f, R.ovmdDer[3*i+2] * f}
		mean := R.gmm.Component(id).Mean
		p := delta(pbc, atomPos(pos, im), mean)
		for k := 0; k < 3; k++ {
			p[k] += mean[k]
			force[3*im+k] -= tot[k]
		}
		for a := 0; a < 3; a++ {
			for b := 0; b < 3; b++ {
				vir[3*a+b] -= p[a] * tot[b]
			}
		}
	}
	if size > 1 {
		R.local.Sum(force)
		R.local.Sum(vir)
	}
	res.Forces = mat.NewDense(na, 3, force)
	res.Virial = mat.NewDense(3, 3, vir)
}

// Overlaps returns a copy of the model overlaps of the last Calculate call.
func (R *Restraint) Overlaps() []float64 {
	out := make([]float64, len(R.ovmd))
	copy(out, R.ovmd)
	return out
}

// Targets returns a copy of the per-component target overlaps (the data
// self-overlaps).
func (R *Restraint) Targets() []float64 {
	out := make([]float64, len(R.ovdd))
	copy(out, R.ovdd)
	return out
}

// Sigma returns a copy of the current sampled uncertainties, or nil in
// marginal mode.
func (R *Restraint) Sigma() []float64 {
	if R.sigma == nil {
		return nil
	}
	out := make([]float64, len(R.sigma))
	copy(out, R.sigma)
	return out
}

// Close flushes and closes the status and deviation files, if open.
func (R *Restraint) Close() error {
	err := R.status.Close()
	if err2 := R.dev.Close(); err == nil {
		err = err2
	}
	return err
}
