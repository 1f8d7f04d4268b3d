// Package reader provides read-only access to ZIP archives over any
// seekable byte source: local files, in-memory buffers, or remote objects
// wrapped in an io.ReadSeeker.
//
// A Reader never touches entry data until asked. Construction locates and
// parses only the end of central directory record; directory entries are
// decoded one at a time during iteration, and extraction re-reads the
// entry's local header before trusting any size or checksum.
package reader

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/slackito/zip/pkg/format"
)

// scanChunkSize is how much of the stream tail is buffered per step while
// searching backward for the end of central directory signature.
const scanChunkSize = 4096

// Reader reads entries out of a ZIP archive.
//
// A Reader owns a single cursor into its source: iteration and extraction
// both reposition it with explicit seeks, so the two may be freely
// interleaved from one goroutine, but a Reader must not be shared between
// goroutines without external locking.
type Reader struct {
	src           io.ReadSeeker
	end           format.EndOfCentralDirectory
	decompressors map[uint16]Decompressor
}

// NewReader reads the archive structure from src, which must contain the
// complete archive. The source is retained; it must stay open and untouched
// for the Reader's lifetime.
func NewReader(src io.ReadSeeker) (*Reader, error) {
	z := &Reader{src: src}
	if err := z.readDirectoryEnd(); err != nil {
		return nil, err
	}
	return z, nil
}

// A ReadCloser is a Reader that owns the file it reads from.
type ReadCloser struct {
	f *os.File
	*Reader
}

// OpenReader opens the archive at path and returns a ReadCloser.
func OpenReader(path string) (*ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "zip: open archive")
	}
	z, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &ReadCloser{f: f, Reader: z}, nil
}

// Close closes the archive file, making further reads invalid.
func (rc *ReadCloser) Close() error {
	return rc.f.Close()
}

// Comment returns the archive-level comment. The format defines no encoding
// for it, so it stays bytes.
func (z *Reader) Comment() []byte { return z.end.Comment }

// Count returns the number of entries the central directory declares.
func (z *Reader) Count() int { return int(z.end.CDCount) }

// readDirectoryEnd locates, parses and validates the end of central
// directory record that every archive must carry.
func (z *Reader) readDirectoryEnd() error {
	size, err := z.src.Seek(0, io.SeekEnd)
	if err != nil {
		return errors.Wrap(err, "zip: seek to end of stream")
	}

	offset, err := z.findSignature(size)
	if err != nil {
		return err
	}
	if offset < 0 {
		return ErrNotAZipFile
	}

	if _, err := z.src.Seek(offset, io.SeekStart); err != nil {
		return errors.Wrap(err, "zip: seek to end of central directory")
	}
	end, err := format.ReadEndOfCentralDirectory(z.src)
	if err != nil {
		return err
	}

	if end.CDCount == 0xffff || end.CDCountOnDisk == 0xffff ||
		end.CDSize == 0xffffffff || end.CDOffset == 0xffffffff {
		return errors.Wrap(format.ErrUnsupported, "zip64 archive")
	}
	if end.DiskNumber != 0 || end.CDStartDisk != 0 || end.CDCountOnDisk != end.CDCount {
		return errors.Wrap(format.ErrUnsupported, "multi-disk archive")
	}
	// A signature match inside entry data or a comment usually points its
	// directory somewhere impossible. Make sure the directory fits between
	// the start of the stream and the record itself.
	if int64(end.CDOffset)+int64(end.CDSize) > offset {
		return errors.Wrap(ErrNotAZipFile, "central directory out of bounds")
	}

	z.end = end
	return nil
}

// findSignature scans the stream backward in chunks for the end of central
// directory magic and returns the offset of the match closest to the end,
// or -1 when the stream has none. Chunks overlap by 3 bytes so a signature
// straddling two chunks is still seen.
func (z *Reader) findSignature(size int64) (int64, error) {
	buf := make([]byte, scanChunkSize)
	for hi := size; hi >= 4; {
		lo := hi - scanChunkSize
		if lo < 0 {
			lo = 0
		}
		chunk := buf[:hi-lo]
		if _, err := z.src.Seek(lo, io.SeekStart); err != nil {
			return 0, errors.Wrap(err, "zip: seek while scanning for end of central directory")
		}
		if _, err := io.ReadFull(z.src, chunk); err != nil {
			return 0, errors.Wrap(err, "zip: read while scanning for end of central directory")
		}
		for i := len(chunk) - 4; i >= 0; i-- {
			if binary.LittleEndian.Uint32(chunk[i:i+4]) == format.EndOfCentralDirSignature {
				return lo + int64(i), nil
			}
		}
		if lo == 0 {
			break
		}
		hi = lo + 3
	}
	return -1, nil
}

// Extract writes the entry's complete decompressed contents to w in a
// single write, after verifying them against the CRC-32 recorded in the
// entry's local header. The whole entry is buffered in memory first.
func (z *Reader) Extract(f FileInfo, w io.Writer) error {
	data, err := z.readEntry(f, -1, true)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return errors.Wrap(err, "zip: write entry contents")
}

// ExtractFirst writes at most the first n decompressed bytes of the entry
// to w in a single write. Entries shorter than n are written whole. The
// output is never CRC-checked: the recorded checksum covers the complete
// contents and nothing else.
func (z *Reader) ExtractFirst(f FileInfo, n int64, w io.Writer) error {
	if n < 0 {
		n = 0
	}
	data, err := z.readEntry(f, n, false)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return errors.Wrap(err, "zip: write entry contents")
}

// readEntry returns the entry's decompressed contents, truncated to limit
// bytes when limit >= 0. The local file header is authoritative for the
// data region's size, method and checksum; the directory values in f serve
// only to find it.
func (z *Reader) readEntry(f FileInfo, limit int64, verify bool) ([]byte, error) {
	if _, err := z.src.Seek(int64(f.LocalHeaderOffset), io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "zip: seek to local file header")
	}
	h, err := format.ReadLocalFileHeader(z.src)
	if err != nil {
		return nil, err
	}

	raw := make([]byte, h.CompressedSize)
	if _, err := io.ReadFull(z.src, raw); err != nil {
		return nil, errors.Wrap(err, "zip: read entry data")
	}

	dcomp := z.decompressor(h.Method)
	if dcomp == nil {
		return nil, errors.Wrapf(ErrAlgorithm, "method %d", h.Method)
	}
	rc := dcomp(bytes.NewReader(raw))
	data, err := io.ReadAll(rc)
	if err != nil {
		rc.Close()
		return nil, errors.Wrapf(ErrDecompression, "entry %s: %v", h.Name, err)
	}
	if err := rc.Close(); err != nil {
		return nil, errors.Wrapf(ErrDecompression, "entry %s: %v", h.Name, err)
	}

	if verify {
		if sum := crc32.ChecksumIEEE(data); sum != h.CRC32 {
			return nil, errors.Wrapf(ErrChecksum, "entry %s: crc32 0x%08x, want 0x%08x", h.Name, sum, h.CRC32)
		}
	}
	if limit >= 0 && int64(len(data)) > limit {
		data = data[:limit]
	}
	return data, nil
}
