/*
 * gmm.go, part of emfit.
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
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Component is one Gaussian of the experimental (data) GMM. Beta is the
// uncertainty class of the component: 1 ("hot") for regions where the map is
// less reliable, 0 ("cold") otherwise.
type Component struct {
	ID     int
	Weight float64
	Mean   Vec
	Cov    Sym6
	Beta   int
}

// check validates a component: the covariance must be positive-definite
// (Sylvester's criterion on the three leading principal minors) and the
// weight non-negative.
func (c *Component) check() error {
	pm1 := c.Cov[0]
	pm2 := c.Cov[0]*c.Cov[3] - c.Cov[1]*c.Cov[1]
	pm3 := c.Cov.Det()
	if pm1 <= 0 || pm2 <= 0 || pm3 <= 0 {
		return fmt.Errorf("emfit: component %d: covariance matrix is not positive-definite", c.ID)
	}
	if c.Weight < 0 {
		return fmt.Errorf("emfit: component %d: weight must be non-negative", c.ID)
	}
	if c.Beta != 0 && c.Beta != 1 {
		return fmt.Errorf("emfit: component %d: Beta must be either 0 or 1", c.ID)
	}
	return nil
}

// GMM is the Gaussian mixture fit of an experimental density map.
type GMM struct {
	comp []Component
}

// NewGMM builds a GMM from components, validating each of them.
func NewGMM(comp []Component) (*GMM, error) {
	if len(comp) == 0 {
		return nil, fmt.Errorf("emfit: empty GMM")
	}
	for i := range comp {
		if err := comp[i].check(); err != nil {
			return nil, err
		}
	}
	return &GMM{comp: comp}, nil
}

// Len returns the number of components.
func (g *GMM) Len() int {
	return len(g.comp)
}

// Component returns the i-th component. Panics if out of range.
func (g *GMM) Component(i int) *Component {
	return &g.comp[i]
}

// TotalWeight returns the summed weight of all components.
func (g *GMM) TotalWeight() float64 {
	var t float64
	for i := range g.comp {
		t += g.comp[i].Weight
	}
	return t
}

// ReadGMM reads a data GMM from a field file with the columns Id, Weight,
// Mean_0..Mean_2, Cov_00, Cov_01, Cov_02, Cov_11, Cov_12, Cov_22 and Beta.
// Any malformed or invalid record is a fatal error.
func ReadGMM(name string) (*GMM, error) {
	r, err := OpenInput(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	ff, err := readFields(r)
	if err != nil {
		return nil, fmt.Errorf("emfit: reading GMM file %s: %w", name, err)
	}
	var cols [12]int
	for i, n := range []string{"Id", "Weight", "Mean_0", "Mean_1", "Mean_2",
		"Cov_00", "Cov_01", "Cov_02", "Cov_11", "Cov_12", "Cov_22", "Beta"} {
		if cols[i], err = ff.col(n); err != nil {
			return nil, fmt.Errorf("emfit: GMM file %s: %w", name, err)
		}
	}
	comp := make([]Component, 0, len(ff.recs))
	for _, rec := range ff.recs {
		var c Component
		if c.ID, err = ff.int(rec, cols[0]); err != nil {
			return nil, err
		}
		if c.Weight, err = ff.float(rec, cols[1]); err != nil {
			return nil, err
		}
		for k := 0; k < 3; k++ {
			if c.Mean[k], err = ff.float(rec, cols[2+k]); err != nil {
				return nil, err
			}
		}
		for k := 0; k < 6; k++ {
			if c.Cov[k], err = ff.float(rec, cols[5+k]); err != nil {
				return nil, err
			}
		}
		if c.Beta, err = ff.int(rec, cols[11]); err != nil {
			return nil, err
		}
		if err = c.check(); err != nil {
			return nil, fmt.Errorf("emfit: GMM file %s: %w", name, err)
		}
		comp = append(comp, c)
	}
	return NewGMM(comp)
}

// SelfOverlaps returns, for each component, its summed overlap with every
// component of the GMM (itself included). These are the target values the
// model overlaps are scored against, and the natural per-component scale of
// the uncertainty parameters.
func (g *GMM) SelfOverlaps() []float64 {
	ovdd := make([]float64, g.Len())
	for id := range g.comp {
		var tot float64
		ci := &g.comp[id]
		for j := range g.comp {
			cj := &g.comp[j]
			pre, inv := prefactorInverse(ci.Cov, cj.Cov, ci.Weight, cj.Weight)
			ov, _ := overlap(ci.Mean.sub(cj.Mean), pre, inv)
			tot += ov
		}
		ovdd[id] = tot
	}
	return ovdd
}

// ReadExpErrors reads the optional experimental error file: a "#! SET Nexp n"
// header declaring the number of error estimates, then one record per
// component with fields Id, Err0..Err{n-1}. The estimates are combined by
// root-mean-square into one scalar per component. The file must hold exactly
// ncomp records, in component order.
func ReadExpErrors(name string, ncomp int) ([]float64, error) {
	r, err := OpenInput(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	ff, err := readFields(r)
	if err != nil {
		return nil, fmt.Errorf("emfit: reading error file %s: %w", name, err)
	}
	nexpStr, ok := ff.sets["Nexp"]
	if !ok {
		return nil, fmt.Errorf("emfit: error file %s: missing '#! SET Nexp' header", name)
	}
	var nexp int
	if _, err := fmt.Sscan(nexpStr, &nexp); err != nil || nexp <= 0 {
		return nil, fmt.Errorf("emfit: error file %s: bad Nexp value %q", name, nexpStr)
	}
	if len(ff.recs) != ncomp {
		return nil, fmt.Errorf("emfit: error file %s has %d records, GMM has %d components", name, len(ff.recs), ncomp)
	}
	errs := make([]float64, 0, ncomp)
	for _, rec := range ff.recs {
		var tot float64
		for i := 0; i < nexp; i++ {
			col, err := ff.col(fmt.Sprintf("Err%d", i))
			if err != nil {
				return nil, fmt.Errorf("emfit: error file %s: %w", name, err)
			}
			v, err := ff.float(rec, col)
			if err != nil {
				return nil, err
			}
			tot += v * v
		}
		errs = append(errs, math.Sqrt(tot/float64(nexp)))
	}
	return errs, nil
}

// ovStats carries the load-time statistics of the self-overlap distribution.
// The median sets the scale of the Monte Carlo moves, the max bounds the
// sampled uncertainties.
type ovStats struct {
	median, mean, min, max float64
}

func newOvStats(x []float64) ovStats {
	s := make([]float64, len(x))
	copy(s, x)
	sort.Float64s(s)
	return ovStats{
		median: s[len(s)/2],
		mean:   stat.Mean(s, nil),
		min:    floats.Min(s),
		max:    floats.Max(s),
	}
}
