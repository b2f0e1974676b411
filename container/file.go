/*
 * file.go, part of gobasis.
 *
 * Copyright 2026 The gobasis Authors
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

package container

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// CompressionFromName guesses the compression from a file name:
// ".lz4" gives LZ4, ".gz" gzip, ".raw" no compression, anything else zstd.
func CompressionFromName(name string) Compression {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".lz4":
		return LZ4
	case ".gz":
		return Gzip
	case ".raw":
		return None
	}
	return Zstd
}

// Create writes the tree under root to the file at path, replacing it
// if it exists. If no compression is given, it is guessed from the name.
func Create(path string, root *Group, compression ...Compression) error {
	c := CompressionFromName(path)
	if len(compression) > 0 {
		c = compression[0]
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := Encode(w, root, c); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if st, err := os.Stat(path); err == nil {
		lg().Info("container written", "path", path, "compression", c.String(), "size", humanize.Bytes(uint64(st.Size())))
	}
	return nil
}

// Open reads the container file at path.
func Open(path string) (*Group, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	root, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, err
	}
	if st, err := f.Stat(); err == nil {
		lg().Debug("container read", "path", path, "size", humanize.Bytes(uint64(st.Size())))
	}
	return root, nil
}
