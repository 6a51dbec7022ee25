package csvio

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// IsGzip reports whether name carries a gzip extension.
func IsGzip(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".gz")
}

// closers closes in order and reports the first error.
type closers []io.Closer

func (cs closers) Close() error {
	var first error
	for _, c := range cs {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type readCloser struct {
	io.Reader
	closers
}

// WrapReader decompresses r when name ends in .gz. Closing the result closes r
// when it is an io.Closer.
func WrapReader(name string, r io.Reader) (io.ReadCloser, error) {
	var cs closers
	if !IsGzip(name) {
		if c, ok := r.(io.Closer); ok {
			cs = append(cs, c)
		}
		return &readCloser{Reader: r, closers: cs}, nil
	}
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip stream %s: %w", name, err)
	}
	cs = append(cs, zr)
	if c, ok := r.(io.Closer); ok {
		cs = append(cs, c)
	}
	return &readCloser{Reader: zr, closers: cs}, nil
}

type writeCloser struct {
	io.Writer
	closers
}

// WrapWriter compresses into w when name ends in .gz. Close flushes the
// gzip stream and then closes w when it is an io.Closer.
func WrapWriter(name string, w io.Writer) io.WriteCloser {
	var cs closers
	out := w
	if IsGzip(name) {
		zw := gzip.NewWriter(w)
		cs = append(cs, zw)
		out = zw
	}
	if c, ok := w.(io.Closer); ok {
		cs = append(cs, c)
	}
	return &writeCloser{Writer: out, closers: cs}
}

// OpenFile opens a local input file, decompressing by extension.
func OpenFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	rc, err := WrapReader(path, f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return rc, nil
}

// CreateFile creates a local output file, compressing by extension.
func CreateFile(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return WrapWriter(path, f), nil
}
