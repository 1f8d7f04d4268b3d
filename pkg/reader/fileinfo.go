package reader

import (
	"github.com/pkg/errors"

	"github.com/slackito/zip/pkg/format"
	"github.com/slackito/zip/pkg/maybeutf8"
)

var (
	// ErrNotAZipFile indicates that no end of central directory record was
	// found, or that the one found does not describe the stream it sits in.
	ErrNotAZipFile = errors.New("zip: unable to locate end of central directory")

	// ErrAlgorithm indicates an entry stored with a compression method that
	// has no registered decompressor.
	ErrAlgorithm = errors.New("zip: unsupported compression algorithm")

	// ErrChecksum indicates fully extracted contents that do not match the
	// CRC-32 recorded in the entry's local header.
	ErrChecksum = errors.New("zip: checksum mismatch")

	// ErrDecompression indicates compressed data that its decompressor
	// could not make sense of.
	ErrDecompression = errors.New("zip: invalid compressed data")

	// ErrFileNotFound indicates a name lookup that matched no entry.
	ErrFileNotFound = errors.New("zip: file not found in archive")
)

// CompressionMethod identifies how an entry's data region is transformed.
type CompressionMethod uint16

const (
	Store   CompressionMethod = 0
	Deflate CompressionMethod = 8

	// Unknown stands in for every method code this package does not
	// recognize. Listings still work for such entries; extraction fails
	// with ErrAlgorithm unless a decompressor is registered for the code.
	Unknown CompressionMethod = 0xffff
)

func (m CompressionMethod) String() string {
	switch m {
	case Store:
		return "store"
	case Deflate:
		return "deflate"
	}
	return "unknown"
}

func methodFromCode(code uint16) CompressionMethod {
	switch code {
	case 0:
		return Store
	case 8:
		return Deflate
	}
	return Unknown
}

// FileInfo describes one archive entry as recorded in the central
// directory. It is a plain value with no reference to the archive stream,
// so it stays meaningful after the Reader is gone; extraction, of course,
// needs the Reader that produced it.
type FileInfo struct {
	Name              maybeutf8.Value
	Method            CompressionMethod
	Modified          format.DOSDateTime
	CRC32             uint32
	CompressedSize    uint32
	UncompressedSize  uint32
	Encrypted         bool
	LocalHeaderOffset uint32
}

func fileInfoFromHeader(h *format.CentralDirectoryHeader) FileInfo {
	return FileInfo{
		Name:              h.Name,
		Method:            methodFromCode(h.Method),
		Modified:          h.Modified,
		CRC32:             h.CRC32,
		CompressedSize:    h.CompressedSize,
		UncompressedSize:  h.UncompressedSize,
		Encrypted:         h.Flags.IsEncrypted(),
		LocalHeaderOffset: h.LocalHeaderOffset,
	}
}
