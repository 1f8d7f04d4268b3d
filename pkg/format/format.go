// Package format implements the on-disk ZIP record layouts: the local file
// header, the central directory header and the end of central directory
// record, plus the MS-DOS timestamps they embed.
//
// All multi-byte fields are little-endian. Readers consume a record's exact
// byte size from the stream's current position and never seek; writers
// validate every variable-length field against its 16-bit length prefix
// before emitting a single byte.
package format

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/slackito/zip/pkg/maybeutf8"
)

const (
	LocalFileHeaderSignature  uint32 = 0x04034b50
	CentralDirectorySignature uint32 = 0x02014b50
	EndOfCentralDirSignature  uint32 = 0x06054b50

	localFileHeaderLen = 30
	directoryHeaderLen = 46
	directoryEndLen    = 22
)

var (
	// ErrNonUTF8Field indicates a name or comment whose entry flags promise
	// UTF-8 but whose bytes are not valid UTF-8.
	ErrNonUTF8Field = errors.New("zip: field flagged as UTF-8 is not valid UTF-8")

	// ErrTooLongField indicates a name, extra or comment field that does not
	// fit its 16-bit length prefix.
	ErrTooLongField = errors.New("zip: field too long for 16-bit length prefix")

	// ErrUnsupported indicates an archive feature this package refuses to
	// process, such as encryption or multi-disk layouts.
	ErrUnsupported = errors.New("zip: unsupported archive feature")
)

// InvalidSignatureError reports a record whose leading 4-byte magic did not
// match the expected signature.
type InvalidSignatureError struct {
	Magic uint32 // the value actually read
}

func (e *InvalidSignatureError) Error() string {
	return fmt.Sprintf("zip: invalid record signature 0x%08x", e.Magic)
}

// Flags is the general-purpose bit flag field carried by both file headers.
type Flags uint16

const (
	FlagEncrypted             Flags = 0x0001
	FlagDataDescriptor        Flags = 0x0008
	FlagCompressedPatchedData Flags = 0x0020
	FlagStrongEncryption      Flags = 0x0040
	FlagUTF8                  Flags = 0x0800
	FlagMasking               Flags = 0x2000
)

func (f Flags) IsEncrypted() bool             { return f&FlagEncrypted != 0 }
func (f Flags) HasDataDescriptor() bool       { return f&FlagDataDescriptor != 0 }
func (f Flags) IsCompressedPatchedData() bool { return f&FlagCompressedPatchedData != 0 }
func (f Flags) UsesStrongEncryption() bool    { return f&FlagStrongEncryption != 0 }
func (f Flags) UsesMasking() bool             { return f&FlagMasking != 0 }

// HasUTF8Fields reports whether the entry declares its name and comment to
// be UTF-8 encoded.
func (f Flags) HasUTF8Fields() bool { return f&FlagUTF8 != 0 }

// unsupported names the first feature flag this package refuses to handle,
// or returns the empty string.
func (f Flags) unsupported() string {
	switch {
	case f.IsEncrypted():
		return "encryption"
	case f.IsCompressedPatchedData():
		return "compressed patched data"
	case f.HasDataDescriptor():
		return "a trailing data descriptor"
	case f.UsesStrongEncryption():
		return "strong encryption"
	case f.UsesMasking():
		return "local header masking"
	}
	return ""
}

type readBuf []byte

func (b *readBuf) uint16() uint16 {
	v := binary.LittleEndian.Uint16(*b)
	*b = (*b)[2:]
	return v
}

func (b *readBuf) uint32() uint32 {
	v := binary.LittleEndian.Uint32(*b)
	*b = (*b)[4:]
	return v
}

type writeBuf []byte

func (b *writeBuf) uint16(v uint16) {
	binary.LittleEndian.PutUint16(*b, v)
	*b = (*b)[2:]
}

func (b *writeBuf) uint32(v uint32) {
	binary.LittleEndian.PutUint32(*b, v)
	*b = (*b)[4:]
}

func (b *writeBuf) bytes(p []byte) {
	copy(*b, p)
	*b = (*b)[len(p):]
}

// readSignature consumes 4 bytes and checks them against the expected magic.
func readSignature(r io.Reader, want uint32) error {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return errors.Wrap(err, "zip: read record signature")
	}
	if got := binary.LittleEndian.Uint32(buf[:]); got != want {
		return &InvalidSignatureError{Magic: got}
	}
	return nil
}

func readBytes(r io.Reader, n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, errors.Wrap(err, "zip: read variable-length field")
	}
	return b, nil
}

// readMaybeUTF8 reads an n-byte name or comment field. When the entry flags
// declare UTF-8 the bytes must decode, otherwise they are kept raw.
func readMaybeUTF8(r io.Reader, flagged bool, n int) (maybeutf8.Value, error) {
	b, err := readBytes(r, n)
	if err != nil {
		return maybeutf8.Value{}, err
	}
	if flagged {
		if !utf8.Valid(b) {
			return maybeutf8.Value{}, ErrNonUTF8Field
		}
		return maybeutf8.FromString(string(b)), nil
	}
	return maybeutf8.FromBytes(b), nil
}

// encodeMaybeUTF8 validates a name or comment field against the entry flags
// before it is written.
func encodeMaybeUTF8(v maybeutf8.Value, flagged bool) ([]byte, error) {
	if flagged {
		if _, ok := v.AsString(); !ok {
			return nil, ErrNonUTF8Field
		}
	}
	return v.Bytes(), nil
}

// fieldLength validates a variable-length field size against the 16-bit
// length prefix used throughout the format.
func fieldLength(n int) (uint16, error) {
	if n > math.MaxUint16 {
		return 0, ErrTooLongField
	}
	return uint16(n), nil
}
