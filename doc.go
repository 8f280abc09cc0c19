/*
 * doc.go, part of emfit.
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

/*Package emfit scores the agreement between an atomistic model and a cryo-EM
density map represented as a Gaussian Mixture Model, and turns that score into
a differentiable restraint (energy, per-atom forces and a virial) that can bias
a running simulation.

The method is the multi-scale Bayesian approach of Hanot et al.
(doi:10.1101/113951), with the ensemble treatment of Bonomi et al.,
Sci. Adv. 2, e1501177 (2016). The experimental map is fit beforehand by a GMM,
one record per component; each atom of the model contributes a single Gaussian
whose width and weight come from its electron scattering factor. The score is
built from the closed-form overlap integrals between model and data Gaussians.

Two statistical treatments of the data uncertainty are available: a marginal
likelihood where the unknown noise level is integrated out analytically, and an
explicitly sampled version where per-component noise parameters evolve by
Metropolis Monte Carlo alongside the simulation and are checkpointed to disk.

The all-pairs overlap sum is approximated through per-component neighbor
lists with a bounded relative error, and the work of building lists and
accumulating overlaps is distributed over an opaque rank communicator (package
comm), with cross-replica averaging when several replicas model one ensemble.

Coordinates are given as a gonum *mat.Dense with one row per atom, in nm.
Energies are in kJ/mol.*/
package emfit
