/*
 * files.go, part of emfit.
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
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

//The numeric inputs (data GMM, experimental errors) and the status/deviation
//outputs use a self-describing whitespace-separated format: a header line
//
//	#! FIELDS name1 name2 ...
//
//optionally preceded by "#! SET key value" lines, followed by one record per
//line. This matches what the common biasing engines write, so their files can
//be used directly.

// OpenInput opens name for reading, transparently decompressing it if the
// file name ends in .zst or .gz. The caller must Close the returned reader.
func OpenInput(name string) (io.ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("emfit: can't open %s: %w", name, err)
	}
	switch {
	case strings.HasSuffix(name, ".zst"):
		z, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("emfit: can't open %s: %w", name, err)
		}
		return &wrappedReader{z.IOReadCloser(), f}, nil
	case strings.HasSuffix(name, ".gz"):
		g, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("emfit: can't open %s: %w", name, err)
		}
		return &wrappedReader{g, f}, nil
	}
	return f, nil
}

// wrappedReader closes both the decompressor and the underlying file.
type wrappedReader struct {
	io.ReadCloser
	f *os.File
}

func (w *wrappedReader) Close() error {
	err := w.ReadCloser.Close()
	if err2 := w.f.Close(); err == nil {
		err = err2
	}
	return err
}

// fieldFile holds the parsed contents of a field file: column names, SET
// key/value pairs, and the records as strings (converted on demand).
type fieldFile struct {
	names []string
	sets  map[string]string
	recs  [][]string
}

func readFields(r io.Reader) (*fieldFile, error) {
	ff := &fieldFile{sets: make(map[string]string)}
	scan := bufio.NewScanner(r)
	scan.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			tok := strings.Fields(line)
			if len(tok) >= 2 && tok[0] == "#!" {
				switch tok[1] {
				case "FIELDS":
					ff.names = tok[2:]
				case "SET":
					if len(tok) >= 4 {
						ff.sets[tok[2]] = tok[3]
					}
				}
			}
			continue
		}
		tok := strings.Fields(line)
		if ff.names != nil && len(tok) != len(ff.names) {
			return nil, fmt.Errorf("emfit: record has %d fields, header declares %d", len(tok), len(ff.names))
		}
		ff.recs = append(ff.recs, tok)
	}
	if err := scan.Err(); err != nil {
		return nil, err
	}
	if ff.names == nil {
		return nil, fmt.Errorf("emfit: no '#! FIELDS' header found")
	}
	return ff, nil
}

// col returns the index of the named column, or an error.
func (ff *fieldFile) col(name string) (int, error) {
	for i, n := range ff.names {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("emfit: missing field %q", name)
}

func (ff *fieldFile) float(rec []string, i int) (float64, error) {
	v, err := strconv.ParseFloat(rec[i], 64)
	if err != nil {
		return 0, fmt.Errorf("emfit: bad value %q for field %s: %w", rec[i], ff.names[i], err)
	}
	return v, nil
}

func (ff *fieldFile) int(rec []string, i int) (int, error) {
	v, err := strconv.Atoi(rec[i])
	if err != nil {
		return 0, fmt.Errorf("emfit: bad value %q for field %s: %w", rec[i], ff.names[i], err)
	}
	return v, nil
}

// fieldWriter appends field-file records to a file. Each record is assembled
// in memory and written with a single Write followed by a Flush, so a write
// event either lands whole or not at all.
type fieldWriter struct {
	f     *os.File
	w     *bufio.Writer
	names []string
	first bool
}

func newFieldWriter(name string, names []string) (*fieldWriter, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("emfit: can't create %s: %w", name, err)
	}
	return &fieldWriter{f: f, w: bufio.NewWriter(f), names: names, first: true}, nil
}

// appendFieldWriter opens name for appending, creating it if needed. The
// header is only written when the file starts out empty.
func appendFieldWriter(name string, names []string) (*fieldWriter, error) {
	f, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("emfit: can't open %s for appending: %w", name, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("emfit: can't stat %s: %w", name, err)
	}
	return &fieldWriter{f: f, w: bufio.NewWriter(f), names: names, first: st.Size() == 0}, nil
}

func (fw *fieldWriter) writeRecord(vals []float64) error {
	var b strings.Builder
	if fw.first {
		b.WriteString("#! FIELDS " + strings.Join(fw.names, " ") + "\n")
		fw.first = false
	}
	for i, v := range vals {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%13.6e", v)
	}
	b.WriteByte('\n')
	if _, err := fw.w.WriteString(b.String()); err != nil {
		return err
	}
	return fw.w.Flush()
}

func (fw *fieldWriter) Close() error {
	if fw == nil || fw.f == nil {
		return nil
	}
	err := fw.w.Flush()
	if err2 := fw.f.Close(); err == nil {
		err = err2
	}
	fw.f = nil
	return err
}
