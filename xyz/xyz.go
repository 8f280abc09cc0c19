/*
 * xyz.go, part of emfit.
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

/*Package xyz reads multi-frame XYZ trajectories for the bundled tools. The
coordinates are taken in Angstrom, as the format convention has it, and
converted to nm on the way in. Compressed files (.gz, .zst) are handled
transparently. A Traj doubles as the atom-name source for the scoring engine,
since XYZ atom labels are element symbols.*/
package xyz

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/emfit/emfit"
)

// Traj is a handle to an open XYZ trajectory. The atom names and count come
// from the first frame; every later frame must match the count.
type Traj struct {
	r        io.ReadCloser
	buf      *bufio.Reader
	natoms   int
	names    []string
	first    *mat.Dense //buffered while the names are read from frame one
	readable bool
}

// New opens an XYZ trajectory for reading. The first frame is parsed
// immediately, so the atom names are available before any call to Next.
func New(name string) (*Traj, error) {
	r, err := emfit.OpenInput(name)
	if err != nil {
		return nil, err
	}
	t := &Traj{r: r, buf: bufio.NewReader(r)}
	t.first, t.names, err = t.readFrame(true)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("xyz: reading the first frame of %s: %w", name, err)
	}
	t.natoms = len(t.names)
	t.readable = true
	return t, nil
}

// Len returns the number of atoms per frame.
func (T *Traj) Len() int { return T.natoms }

// AtomName returns the label of atom i in the first frame.
func (T *Traj) AtomName(i int) string { return T.names[i] }

// Readable returns whether Next can still be called on the handle.
func (T *Traj) Readable() bool { return T.readable }

// Next fills c, a natoms x 3 matrix, with the coordinates of the next frame,
// in nm. At the end of the trajectory it returns io.EOF, which is not an
// actual error.
func (T *Traj) Next(c *mat.Dense) error {
	if !T.readable {
		return fmt.Errorf("xyz: trajectory is not readable")
	}
	if r, cc := c.Dims(); r != T.natoms || cc != 3 {
		return fmt.Errorf("xyz: destination matrix is %dx%d, want %dx3", r, cc, T.natoms)
	}
	if T.first != nil {
		c.Copy(T.first)
		T.first = nil
		return nil
	}
	fr, _, err := T.readFrame(false)
	if err == io.EOF {
		T.readable = false
		return io.EOF
	}
	if err != nil {
		T.readable = false
		return err
	}
	c.Copy(fr)
	return nil
}

// Close closes the underlying file.
func (T *Traj) Close() error {
	T.readable = false
	return T.r.Close()
}

func (T *Traj) readFrame(first bool) (*mat.Dense, []string, error) {
	line, err := T.buf.ReadString('\n')
	if err != nil {
		if err == io.EOF && strings.TrimSpace(line) == "" {
			return nil, nil, io.EOF
		}
		return nil, nil, fmt.Errorf("xyz: truncated frame: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n <= 0 {
		return nil, nil, fmt.Errorf("xyz: bad atom count %q", strings.TrimSpace(line))
	}
	if !first && n != T.natoms {
		return nil, nil, fmt.Errorf("xyz: frame has %d atoms, trajectory started with %d", n, T.natoms)
	}
	//the comment line carries nothing we use
	if _, err := T.buf.ReadString('\n'); err != nil {
		return nil, nil, fmt.Errorf("xyz: truncated frame: %w", err)
	}
	coords := make([]float64, 3*n)
	var names []string
	if first {
		names = make([]string, n)
	}
	for i := 0; i < n; i++ {
		line, err := T.buf.ReadString('\n')
		if err != nil && !(err == io.EOF && line != "") {
			return nil, nil, fmt.Errorf("xyz: truncated frame at atom %d: %w", i, err)
		}
		f := strings.Fields(line)
		if len(f) < 4 {
			return nil, nil, fmt.Errorf("xyz: atom line %d ill formed: %q", i, strings.TrimSpace(line))
		}
		if first {
			names[i] = f[0]
		}
		for k := 0; k < 3; k++ {
			v, err := strconv.ParseFloat(f[1+k], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("xyz: bad coordinate %q at atom line %d", f[1+k], i)
			}
			coords[3*i+k] = v * 0.1 //Angstrom to nm
		}
	}
	return mat.NewDense(n, 3, coords), names, nil
}
