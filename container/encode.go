/*
 * encode.go, part of gobasis.
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
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

//The encoded form is:
//  magic (4 bytes) | compression (1 byte) | compressed body
//The body is the root group, each group being
//  name | nattrs | attrs... | ndatasets | datasets... | ngroups | groups...
//All integers are little endian, strings are a uint32 length followed by the bytes.

const magic = "GBC\x01"

const (
	maxStringLen = 1 << 30
	maxElements  = 1 << 28
	maxCount     = 1 << 24
)

// attribute type tags
const (
	tagString byte = iota + 1
	tagInt
	tagFloat
	tagBool
	tagStrings
	tagInts
	tagFloats
)

// Compression is the compression applied to the encoded body.
type Compression uint8

const (
	None Compression = iota
	Zstd
	LZ4
	Gzip
)

func (C Compression) String() string {
	switch C {
	case None:
		return "none"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	case Gzip:
		return "gzip"
	}
	return fmt.Sprintf("Compression(%d)", uint8(C))
}

// ErrFormat is returned (wrapped) when the data being decoded is not a valid container.
var ErrFormat = errors.New("container: invalid format")

func newCompressor(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case None:
		return nopWriteCloser{w}, nil
	case Zstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	case LZ4:
		return lz4.NewWriter(w), nil
	case Gzip:
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	}
	return nil, fmt.Errorf("container: unknown compression %d", c)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

//zstd.Decoder's Close does not return an error, so it is not an io.ReadCloser.
type zstdCloser struct {
	*zstd.Decoder
}

func (z zstdCloser) Close() error {
	z.Decoder.Close()
	return nil
}

func newDecompressor(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case None:
		return io.NopCloser(r), nil
	case Zstd:
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zstdCloser{d}, nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case Gzip:
		return gzip.NewReader(r)
	}
	return nil, fmt.Errorf("%w: unknown compression %d", ErrFormat, c)
}

// Encode writes the tree under root to w.
func Encode(w io.Writer, root *Group, c Compression) error {
	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}
	if _, err := w.Write([]byte{byte(c)}); err != nil {
		return err
	}
	cw, err := newCompressor(w, c)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(cw)
	e := &encoder{w: bw}
	e.group(root)
	if e.err != nil {
		cw.Close()
		return e.err
	}
	if err := bw.Flush(); err != nil {
		cw.Close()
		return err
	}
	return cw.Close()
}

type encoder struct {
	w   *bufio.Writer
	buf [8]byte
	err error
}

func (E *encoder) bytes(b []byte) {
	if E.err != nil {
		return
	}
	_, E.err = E.w.Write(b)
}

func (E *encoder) u8(v byte) {
	E.buf[0] = v
	E.bytes(E.buf[:1])
}

func (E *encoder) u32(v int) {
	binary.LittleEndian.PutUint32(E.buf[:4], uint32(v))
	E.bytes(E.buf[:4])
}

func (E *encoder) u64(v uint64) {
	binary.LittleEndian.PutUint64(E.buf[:], v)
	E.bytes(E.buf[:])
}

func (E *encoder) str(s string) {
	E.u32(len(s))
	if E.err == nil {
		_, E.err = E.w.WriteString(s)
	}
}

func (E *encoder) group(G *Group) {
	E.str(G.name)
	names := G.Attrs()
	E.u32(len(names))
	for _, n := range names {
		E.str(n)
		E.attr(G.attrs[n])
	}
	names = G.Datasets()
	E.u32(len(names))
	for _, n := range names {
		E.dataset(G.datasets[n])
	}
	names = G.Groups()
	E.u32(len(names))
	for _, n := range names {
		E.group(G.groups[n])
	}
}

func (E *encoder) attr(v interface{}) {
	switch t := v.(type) {
	case string:
		E.u8(tagString)
		E.str(t)
	case int64:
		E.u8(tagInt)
		E.u64(uint64(t))
	case float64:
		E.u8(tagFloat)
		E.u64(math.Float64bits(t))
	case bool:
		E.u8(tagBool)
		if t {
			E.u8(1)
		} else {
			E.u8(0)
		}
	case []string:
		E.u8(tagStrings)
		E.u32(len(t))
		for _, s := range t {
			E.str(s)
		}
	case []int64:
		E.u8(tagInts)
		E.u32(len(t))
		for _, i := range t {
			E.u64(uint64(i))
		}
	case []float64:
		E.u8(tagFloats)
		E.u32(len(t))
		for _, f := range t {
			E.u64(math.Float64bits(f))
		}
	default:
		if E.err == nil {
			E.err = fmt.Errorf("container: cannot encode attribute of type %T", v)
		}
	}
}

func (E *encoder) dataset(D *Dataset) {
	E.str(D.name)
	E.u8(byte(D.dtype))
	E.u32(len(D.shape))
	for _, d := range D.shape {
		E.u64(uint64(d))
	}
	switch D.dtype {
	case Float64:
		for _, f := range D.floats {
			E.u64(math.Float64bits(f))
		}
	case Int64:
		for _, i := range D.ints {
			E.u64(uint64(i))
		}
	case String:
		for _, s := range D.strs {
			E.str(s)
		}
	}
}

// Decode reads a tree written by Encode. The compression is read from the header.
func Decode(r io.Reader) (*Group, error) {
	head := make([]byte, len(magic)+1)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, fmt.Errorf("%w: cannot read header: %v", ErrFormat, err)
	}
	if string(head[:len(magic)]) != magic {
		return nil, fmt.Errorf("%w: bad magic number", ErrFormat)
	}
	rc, err := newDecompressor(r, Compression(head[len(magic)]))
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	d := &decoder{r: bufio.NewReader(rc)}
	root := NewRoot()
	if name := d.str(); d.err == nil && name != "" {
		return nil, fmt.Errorf("%w: root group has name %q", ErrFormat, name)
	}
	d.groupContent(root)
	if d.err != nil {
		return nil, d.err
	}
	return root, nil
}

type decoder struct {
	r   *bufio.Reader
	buf [8]byte
	err error
}

func (D *decoder) fail(format string, args ...interface{}) {
	if D.err == nil {
		D.err = fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
	}
}

func (D *decoder) read(n int) []byte {
	if D.err != nil {
		return D.buf[:n]
	}
	if _, err := io.ReadFull(D.r, D.buf[:n]); err != nil {
		D.fail("truncated data: %v", err)
	}
	return D.buf[:n]
}

func (D *decoder) u8() byte {
	return D.read(1)[0]
}

func (D *decoder) u32() int {
	return int(binary.LittleEndian.Uint32(D.read(4)))
}

func (D *decoder) u64() uint64 {
	return binary.LittleEndian.Uint64(D.read(8))
}

func (D *decoder) count() int {
	n := D.u32()
	if n > maxCount {
		D.fail("count %d too large", n)
		return 0
	}
	return n
}

func (D *decoder) str() string {
	n := D.u32()
	if D.err != nil {
		return ""
	}
	if n > maxStringLen {
		D.fail("string of length %d too large", n)
		return ""
	}
	b, err := io.ReadAll(io.LimitReader(D.r, int64(n)))
	if err != nil || len(b) < n {
		D.fail("truncated string: %d of %d bytes read", len(b), n)
		return ""
	}
	return string(b)
}

func (D *decoder) groupContent(G *Group) {
	nattrs := D.count()
	for i := 0; i < nattrs && D.err == nil; i++ {
		name := D.str()
		v := D.attr()
		if D.err == nil {
			G.attrs[name] = v
		}
	}
	ndatasets := D.count()
	for i := 0; i < ndatasets && D.err == nil; i++ {
		D.dataset(G)
	}
	ngroups := D.count()
	for i := 0; i < ngroups && D.err == nil; i++ {
		name := D.str()
		if D.err != nil {
			return
		}
		g, err := G.CreateGroup(name)
		if err != nil {
			D.fail("%v", err)
			return
		}
		D.groupContent(g)
	}
}

func (D *decoder) attr() interface{} {
	switch tag := D.u8(); tag {
	case tagString:
		return D.str()
	case tagInt:
		return int64(D.u64())
	case tagFloat:
		return math.Float64frombits(D.u64())
	case tagBool:
		return D.u8() != 0
	case tagStrings:
		n := D.count()
		ret := []string{}
		for i := 0; i < n && D.err == nil; i++ {
			ret = append(ret, D.str())
		}
		return ret
	case tagInts:
		n := D.count()
		ret := []int64{}
		for i := 0; i < n && D.err == nil; i++ {
			ret = append(ret, int64(D.u64()))
		}
		return ret
	case tagFloats:
		n := D.count()
		ret := []float64{}
		for i := 0; i < n && D.err == nil; i++ {
			ret = append(ret, math.Float64frombits(D.u64()))
		}
		return ret
	default:
		D.fail("unknown attribute tag %d", tag)
	}
	return nil
}

func (D *decoder) dataset(G *Group) {
	name := D.str()
	dtype := DType(D.u8())
	ndim := D.count()
	shape := []int{}
	n := 1
	for i := 0; i < ndim && D.err == nil; i++ {
		d := D.u64()
		if d > maxElements {
			D.fail("dimension %d of dataset %q too large", d, name)
			return
		}
		shape = append(shape, int(d))
		n *= int(d)
		if n > maxElements {
			D.fail("dataset %q too large", name)
			return
		}
	}
	if D.err != nil {
		return
	}
	var err error
	switch dtype {
	case Float64:
		data := []float64{}
		for i := 0; i < n && D.err == nil; i++ {
			data = append(data, math.Float64frombits(D.u64()))
		}
		if D.err != nil {
			return
		}
		_, err = G.CreateFloat64s(name, shape, data)
	case Int64:
		data := []int64{}
		for i := 0; i < n && D.err == nil; i++ {
			data = append(data, int64(D.u64()))
		}
		if D.err != nil {
			return
		}
		_, err = G.CreateInt64s(name, shape, data)
	case String:
		if ndim != 1 {
			D.fail("string dataset %q must be one-dimensional", name)
			return
		}
		data := []string{}
		for i := 0; i < n && D.err == nil; i++ {
			data = append(data, D.str())
		}
		if D.err != nil {
			return
		}
		_, err = G.CreateStrings(name, data)
	default:
		D.fail("unknown type %d for dataset %q", dtype, name)
		return
	}
	if D.err == nil && err != nil {
		D.fail("%v", err)
	}
}
