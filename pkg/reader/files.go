package reader

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/slackito/zip/pkg/format"
	"github.com/slackito/zip/pkg/maybeutf8"
)

// Files returns a fresh cursor over the archive's entries in central
// directory order. Each call restarts at the first entry.
//
// The cursor seeks before every header read, so extraction may happen
// between Next calls without disturbing it.
func (z *Reader) Files() *Files {
	return &Files{z: z, offset: int64(z.end.CDOffset)}
}

// Files iterates over an archive's entry descriptors in the manner of
// bufio.Scanner:
//
//	it := z.Files()
//	for it.Next() {
//		fi := it.Info()
//		...
//	}
//	if err := it.Err(); err != nil {
//		...
//	}
//
// A header that fails to parse stops the iteration and surfaces in Err; it
// is never folded into a clean end of the sequence.
type Files struct {
	z      *Reader
	read   uint16
	offset int64
	info   FileInfo
	err    error
}

// Next advances the cursor to the next entry. It returns false when the
// declared entry count is exhausted or a header fails to parse.
func (it *Files) Next() bool {
	if it.err != nil || it.read >= it.z.end.CDCount {
		return false
	}
	if _, err := it.z.src.Seek(it.offset, io.SeekStart); err != nil {
		it.err = errors.Wrap(err, "zip: seek to central directory header")
		return false
	}
	h, err := format.ReadCentralDirectoryHeader(it.z.src)
	if err != nil {
		it.err = err
		return false
	}
	it.info = fileInfoFromHeader(&h)
	it.read++
	it.offset += int64(h.TotalSize())
	return true
}

// Info returns the descriptor produced by the last successful Next.
func (it *Files) Info() FileInfo { return it.info }

// Err returns the error that stopped the iteration, if any.
func (it *Files) Err() error { return it.err }

// List materializes the descriptors of all entries, failing on the first
// unreadable header.
func (z *Reader) List() ([]FileInfo, error) {
	infos := make([]FileInfo, 0, z.Count())
	it := z.Files()
	for it.Next() {
		infos = append(infos, it.Info())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return infos, nil
}

// Names returns the names of all entries in central directory order.
func (z *Reader) Names() ([]maybeutf8.Value, error) {
	names := make([]maybeutf8.Value, 0, z.Count())
	it := z.Files()
	for it.Next() {
		names = append(names, it.Info().Name)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

// Info returns the descriptor of the first entry whose name matches the
// given one byte for byte, or ErrFileNotFound when no entry does.
func (z *Reader) Info(name string) (FileInfo, error) {
	it := z.Files()
	for it.Next() {
		if bytes.Equal(it.Info().Name.Bytes(), []byte(name)) {
			return it.Info(), nil
		}
	}
	if err := it.Err(); err != nil {
		return FileInfo{}, err
	}
	return FileInfo{}, errors.Wrapf(ErrFileNotFound, "entry %q", name)
}
