/*
 * scatter.go, part of emfit.
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

// AtomNamer supplies the atom names of the reference structure. It is the
// boundary to whatever topology machinery the host simulation uses; emfit
// only ever asks for names and derives chemical elements from them.
type AtomNamer interface {
	//Len returns the number of atoms.
	Len() int
	//AtomName returns the name of atom i (e.g. "CA", "2HB").
	AtomName(i int) string
}

//Single-Gaussian electron scattering factors f(s) = A*exp(-B*s^2), B in
//Angstrom squared. One entry per supported element; heavy atoms of proteins
//and nucleic acids are covered by these four.
var scatterElements = []string{"C", "O", "N", "S"}

var scatterA = map[string]float64{
	"C": 2.49982,
	"O": 1.97692,
	"N": 2.20402,
	"S": 5.14099,
}

var scatterB = map[string]float64{
	"C": 15.146,
	"O": 8.59722,
	"N": 11.1116,
	"S": 15.8952,
}

// elementFromName derives an element symbol from an atom name: the first
// character if it is not a digit, otherwise the second. This is the usual
// rule for PDB/force-field heavy-atom names.
func elementFromName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("emfit: empty atom name")
	}
	c := name[0]
	if c >= '0' && c <= '9' {
		if len(name) < 2 {
			return "", fmt.Errorf("emfit: can't derive an element from atom name %q", name)
		}
		c = name[1]
	}
	return string(c), nil
}

// modelGMM is the Gaussian rendition of the atomistic model: a type index per
// atom, plus a weight and a (spherical) covariance per type. The per-type
// weights are later normalized against the data GMM.
type modelGMM struct {
	typ    []int     //per atom
	weight []float64 //per type
	cov    []Sym6    //per type
}

// buildModelGMM assigns each atom its scattering Gaussian. The Gaussian in
// real (density) space is the Fourier transform of the scattering factor,
// f(r) = A*(pi/B)^1.5 * exp(-pi^2/B * r^2), so the width in nm is
// sqrt(B/2)/pi * 0.1; an optional Gaussian blur of sigma=blur/2 is added in
// quadrature. An atom whose element is not in the table is a fatal
// configuration error.
func buildModelGMM(mol AtomNamer, blur float64) (*modelGMM, error) {
	if mol == nil {
		return nil, fmt.Errorf("emfit: no atom-name source: a reference structure is required")
	}
	m := new(modelGMM)
	m.weight = make([]float64, len(scatterElements))
	m.cov = make([]Sym6, len(scatterElements))
	index := make(map[string]int, len(scatterElements))
	for i, el := range scatterElements {
		index[el] = i
		m.weight[i] = scatterA[el]
		s := math.Sqrt(0.5*scatterB[el]) / math.Pi * 0.1
		m.cov[i] = Spherical(s*s + blur*blur/4.0)
	}
	m.typ = make([]int, mol.Len())
	for i := 0; i < mol.Len(); i++ {
		name := mol.AtomName(i)
		el, err := elementFromName(name)
		if err != nil {
			return nil, err
		}
		t, ok := index[el]
		if !ok {
			return nil, fmt.Errorf("emfit: unsupported atom element %q from atom name %q", el, name)
		}
		m.typ[i] = t
	}
	return m, nil
}

// atomWeights returns the per-atom scattering weights, one entry per atom.
func (m *modelGMM) atomWeights() []float64 {
	w := make([]float64, len(m.typ))
	for i, t := range m.typ {
		w[i] = m.weight[t]
	}
	return w
}

// normalize rescales the per-type weights so the total model weight matches
// the total data weight. Not strictly needed when the scale factor is
// regressed, but it keeps the score well-conditioned without regression.
func (m *modelGMM) normalize(dataTotal float64) {
	var modelTotal float64
	for _, w := range m.atomWeights() {
		modelTotal += w
	}
	if modelTotal == 0 {
		return
	}
	f := dataTotal / modelTotal
	for t := range m.weight {
		m.weight[t] *= f
	}
}
