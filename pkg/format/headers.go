package format

import (
	"io"

	"github.com/pkg/errors"

	"github.com/slackito/zip/pkg/maybeutf8"
)

// LocalFileHeader is the per-entry record stored immediately before the
// entry's raw data bytes. Its sizes and CRC are authoritative for reading
// the data region that follows it.
type LocalFileHeader struct {
	VersionNeededToExtract uint16
	Flags                  Flags
	Method                 uint16
	Modified               DOSDateTime
	CRC32                  uint32
	CompressedSize         uint32
	UncompressedSize       uint32
	Name                   maybeutf8.Value
	Extra                  []byte
}

// TotalSize returns the record's exact on-disk size: the 30-byte fixed part
// plus the variable name and extra fields.
func (h *LocalFileHeader) TotalSize() int {
	return localFileHeaderLen + h.Name.Len() + len(h.Extra)
}

// ReadLocalFileHeader reads one local file header from the current position
// of r, leaving r at the first byte of the entry's data. Entries that use
// encryption, data descriptors, patched data or header masking are rejected
// with ErrUnsupported.
func ReadLocalFileHeader(r io.Reader) (LocalFileHeader, error) {
	var h LocalFileHeader
	if err := readSignature(r, LocalFileHeaderSignature); err != nil {
		return h, err
	}

	var fixed [localFileHeaderLen - 4]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return h, errors.Wrap(err, "zip: read local file header")
	}
	b := readBuf(fixed[:])
	h.VersionNeededToExtract = b.uint16()
	h.Flags = Flags(b.uint16())
	h.Method = b.uint16()
	h.Modified = DOSDateTime{time: b.uint16(), date: b.uint16()}
	h.CRC32 = b.uint32()
	h.CompressedSize = b.uint32()
	h.UncompressedSize = b.uint32()
	nameLen := int(b.uint16())
	extraLen := int(b.uint16())

	var err error
	if h.Name, err = readMaybeUTF8(r, h.Flags.HasUTF8Fields(), nameLen); err != nil {
		return h, err
	}
	if h.Extra, err = readBytes(r, extraLen); err != nil {
		return h, err
	}
	if feature := h.Flags.unsupported(); feature != "" {
		return h, errors.Wrapf(ErrUnsupported, "entry %s uses %s", h.Name, feature)
	}
	return h, nil
}

// WriteTo emits the record in a single write. Nothing is written when a
// variable-length field overflows its length prefix or a field flagged as
// UTF-8 does not decode.
func (h *LocalFileHeader) WriteTo(w io.Writer) (int64, error) {
	nameLen, err := fieldLength(h.Name.Len())
	if err != nil {
		return 0, err
	}
	extraLen, err := fieldLength(len(h.Extra))
	if err != nil {
		return 0, err
	}
	name, err := encodeMaybeUTF8(h.Name, h.Flags.HasUTF8Fields())
	if err != nil {
		return 0, err
	}

	buf := make([]byte, h.TotalSize())
	b := writeBuf(buf)
	b.uint32(LocalFileHeaderSignature)
	b.uint16(h.VersionNeededToExtract)
	b.uint16(uint16(h.Flags))
	b.uint16(h.Method)
	b.uint16(h.Modified.time)
	b.uint16(h.Modified.date)
	b.uint32(h.CRC32)
	b.uint32(h.CompressedSize)
	b.uint32(h.UncompressedSize)
	b.uint16(nameLen)
	b.uint16(extraLen)
	b.bytes(name)
	b.bytes(h.Extra)

	n, err := w.Write(buf)
	return int64(n), errors.Wrap(err, "zip: write local file header")
}

// CentralDirectoryHeader is the per-entry record stored in the archive's
// central directory. It repeats the local header's fields and adds the
// offset where that local header lives.
type CentralDirectoryHeader struct {
	VersionMadeBy          uint16
	VersionNeededToExtract uint16
	Flags                  Flags
	Method                 uint16
	Modified               DOSDateTime
	CRC32                  uint32
	CompressedSize         uint32
	UncompressedSize       uint32
	DiskNumberStart        uint16
	InternalAttributes     uint16
	ExternalAttributes     uint32
	LocalHeaderOffset      uint32
	Name                   maybeutf8.Value
	Extra                  []byte
	Comment                maybeutf8.Value
}

// TotalSize returns the record's exact on-disk size: the 46-byte fixed part
// plus the variable name, extra and comment fields.
func (h *CentralDirectoryHeader) TotalSize() int {
	return directoryHeaderLen + h.Name.Len() + len(h.Extra) + h.Comment.Len()
}

// ReadCentralDirectoryHeader reads one central directory header from the
// current position of r, leaving r at the next directory record. The UTF-8
// flag governs both the name and the comment.
func ReadCentralDirectoryHeader(r io.Reader) (CentralDirectoryHeader, error) {
	var h CentralDirectoryHeader
	if err := readSignature(r, CentralDirectorySignature); err != nil {
		return h, err
	}

	var fixed [directoryHeaderLen - 4]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return h, errors.Wrap(err, "zip: read central directory header")
	}
	b := readBuf(fixed[:])
	h.VersionMadeBy = b.uint16()
	h.VersionNeededToExtract = b.uint16()
	h.Flags = Flags(b.uint16())
	h.Method = b.uint16()
	h.Modified = DOSDateTime{time: b.uint16(), date: b.uint16()}
	h.CRC32 = b.uint32()
	h.CompressedSize = b.uint32()
	h.UncompressedSize = b.uint32()
	nameLen := int(b.uint16())
	extraLen := int(b.uint16())
	commentLen := int(b.uint16())
	h.DiskNumberStart = b.uint16()
	h.InternalAttributes = b.uint16()
	h.ExternalAttributes = b.uint32()
	h.LocalHeaderOffset = b.uint32()

	var err error
	if h.Name, err = readMaybeUTF8(r, h.Flags.HasUTF8Fields(), nameLen); err != nil {
		return h, err
	}
	if h.Extra, err = readBytes(r, extraLen); err != nil {
		return h, err
	}
	if h.Comment, err = readMaybeUTF8(r, h.Flags.HasUTF8Fields(), commentLen); err != nil {
		return h, err
	}
	return h, nil
}

// WriteTo emits the record in a single write, validating lengths and
// flagged UTF-8 fields up front like LocalFileHeader.WriteTo.
func (h *CentralDirectoryHeader) WriteTo(w io.Writer) (int64, error) {
	nameLen, err := fieldLength(h.Name.Len())
	if err != nil {
		return 0, err
	}
	extraLen, err := fieldLength(len(h.Extra))
	if err != nil {
		return 0, err
	}
	commentLen, err := fieldLength(h.Comment.Len())
	if err != nil {
		return 0, err
	}
	name, err := encodeMaybeUTF8(h.Name, h.Flags.HasUTF8Fields())
	if err != nil {
		return 0, err
	}
	comment, err := encodeMaybeUTF8(h.Comment, h.Flags.HasUTF8Fields())
	if err != nil {
		return 0, err
	}

	buf := make([]byte, h.TotalSize())
	b := writeBuf(buf)
	b.uint32(CentralDirectorySignature)
	b.uint16(h.VersionMadeBy)
	b.uint16(h.VersionNeededToExtract)
	b.uint16(uint16(h.Flags))
	b.uint16(h.Method)
	b.uint16(h.Modified.time)
	b.uint16(h.Modified.date)
	b.uint32(h.CRC32)
	b.uint32(h.CompressedSize)
	b.uint32(h.UncompressedSize)
	b.uint16(nameLen)
	b.uint16(extraLen)
	b.uint16(commentLen)
	b.uint16(h.DiskNumberStart)
	b.uint16(h.InternalAttributes)
	b.uint32(h.ExternalAttributes)
	b.uint32(h.LocalHeaderOffset)
	b.bytes(name)
	b.bytes(h.Extra)
	b.bytes(comment)

	n, err := w.Write(buf)
	return int64(n), errors.Wrap(err, "zip: write central directory header")
}

// EndOfCentralDirectory is the record that terminates every ZIP archive and
// locates its central directory.
type EndOfCentralDirectory struct {
	DiskNumber    uint16 // disk holding this record
	CDStartDisk   uint16 // disk where the central directory starts
	CDCountOnDisk uint16 // directory entries on this disk
	CDCount       uint16 // directory entries total
	CDSize        uint32 // central directory size in bytes
	CDOffset      uint32 // central directory offset from the start of its disk
	Comment       []byte // archive comment, no defined encoding
}

// TotalSize returns the record's exact on-disk size: the 22-byte fixed part
// plus the comment.
func (e *EndOfCentralDirectory) TotalSize() int {
	return directoryEndLen + len(e.Comment)
}

// ReadEndOfCentralDirectory reads the record from the current position of r.
func ReadEndOfCentralDirectory(r io.Reader) (EndOfCentralDirectory, error) {
	var e EndOfCentralDirectory
	if err := readSignature(r, EndOfCentralDirSignature); err != nil {
		return e, err
	}

	var fixed [directoryEndLen - 4]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return e, errors.Wrap(err, "zip: read end of central directory")
	}
	b := readBuf(fixed[:])
	e.DiskNumber = b.uint16()
	e.CDStartDisk = b.uint16()
	e.CDCountOnDisk = b.uint16()
	e.CDCount = b.uint16()
	e.CDSize = b.uint32()
	e.CDOffset = b.uint32()
	commentLen := int(b.uint16())

	var err error
	if e.Comment, err = readBytes(r, commentLen); err != nil {
		return e, err
	}
	return e, nil
}

// WriteTo emits the record in a single write. Nothing is written when the
// comment overflows its length prefix.
func (e *EndOfCentralDirectory) WriteTo(w io.Writer) (int64, error) {
	commentLen, err := fieldLength(len(e.Comment))
	if err != nil {
		return 0, err
	}

	buf := make([]byte, e.TotalSize())
	b := writeBuf(buf)
	b.uint32(EndOfCentralDirSignature)
	b.uint16(e.DiskNumber)
	b.uint16(e.CDStartDisk)
	b.uint16(e.CDCountOnDisk)
	b.uint16(e.CDCount)
	b.uint32(e.CDSize)
	b.uint32(e.CDOffset)
	b.uint16(commentLen)
	b.bytes(e.Comment)

	n, err := w.Write(buf)
	return int64(n), errors.Wrap(err, "zip: write end of central directory")
}
