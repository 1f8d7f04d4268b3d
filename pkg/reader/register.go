package reader

import (
	"io"

	"github.com/klauspost/compress/flate"
)

// A Decompressor returns a new decompressing reader, reading from r. The
// ReadCloser's Close method must be used to release associated resources.
type Decompressor func(r io.Reader) io.ReadCloser

var builtinDecompressors = map[uint16]Decompressor{
	uint16(Store):   func(r io.Reader) io.ReadCloser { return io.NopCloser(r) },
	uint16(Deflate): flate.NewReader,
}

// RegisterDecompressor registers or overrides a custom decompressor for a
// specific method ID, for this Reader only. If a decompressor for a given
// method is not found, ErrAlgorithm is returned at extraction time.
func (z *Reader) RegisterDecompressor(method uint16, dcomp Decompressor) {
	if z.decompressors == nil {
		z.decompressors = make(map[uint16]Decompressor)
	}
	z.decompressors[method] = dcomp
}

func (z *Reader) decompressor(method uint16) Decompressor {
	dcomp := z.decompressors[method]
	if dcomp == nil {
		dcomp = builtinDecompressors[method]
	}
	return dcomp
}
