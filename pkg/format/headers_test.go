package format_test

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slackito/zip/pkg/format"
	"github.com/slackito/zip/pkg/maybeutf8"
)

func TestLocalFileHeaderWireLayout(t *testing.T) {
	h := format.LocalFileHeader{
		VersionNeededToExtract: 20,
		Flags:                  format.FlagUTF8,
		Method:                 8,
		Modified:               format.NewDOSDateTime(2024, 5, 4, 12, 30, 8),
		CRC32:                  0xCBF43926,
		CompressedSize:         3,
		UncompressedSize:       5,
		Name:                   maybeutf8.FromString("ab"),
	}

	var buf bytes.Buffer
	n, err := h.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(h.TotalSize()), n)

	want := []byte{
		0x50, 0x4b, 0x03, 0x04, // signature
		0x14, 0x00, // version needed
		0x00, 0x08, // flags: UTF-8 names
		0x08, 0x00, // method: deflate
		0xc4, 0x63, // mod time
		0xa4, 0x58, // mod date
		0x26, 0x39, 0xf4, 0xcb, // crc-32
		0x03, 0x00, 0x00, 0x00, // compressed size
		0x05, 0x00, 0x00, 0x00, // uncompressed size
		0x02, 0x00, // name length
		0x00, 0x00, // extra length
		'a', 'b',
	}
	assert.Equal(t, want, buf.Bytes())

	got, err := format.ReadLocalFileHeader(bytes.NewReader(want))
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(h, got))
	assert.True(t, got.Name.IsUTF8())
}

func TestLocalFileHeaderRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		header format.LocalFileHeader
	}{
		{
			name: "store entry with extra field",
			header: format.LocalFileHeader{
				VersionNeededToExtract: 10,
				Method:                 0,
				Modified:               format.NewDOSDateTime(1989, 7, 23, 6, 0, 0),
				CRC32:                  0xDEADBEEF,
				CompressedSize:         11,
				UncompressedSize:       11,
				Name:                   maybeutf8.FromBytes([]byte("notes.txt")),
				Extra:                  []byte{0x01, 0x02, 0x03, 0x04},
			},
		},
		{
			name: "raw name with bytes that are not UTF-8",
			header: format.LocalFileHeader{
				Modified: format.NewDOSDateTime(2001, 1, 1, 1, 1, 1),
				Name:     maybeutf8.FromBytes([]byte{'l', 0x82, 's', 't', 'a'}),
			},
		},
		{
			name:   "empty name and zero sizes",
			header: format.LocalFileHeader{Method: 8},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			n, err := tc.header.WriteTo(&buf)
			require.NoError(t, err)
			require.Equal(t, int64(buf.Len()), n)

			got, err := format.ReadLocalFileHeader(&buf)
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tc.header, got))
			assert.False(t, got.Name.IsUTF8(), "unflagged names come back raw")
		})
	}
}

func TestLocalFileHeaderRejectsUnsupportedFlags(t *testing.T) {
	tests := []struct {
		name string
		flag format.Flags
	}{
		{"encrypted", format.FlagEncrypted},
		{"data descriptor", format.FlagDataDescriptor},
		{"compressed patched data", format.FlagCompressedPatchedData},
		{"strong encryption", format.FlagStrongEncryption},
		{"masking", format.FlagMasking},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := format.LocalFileHeader{
				Flags: tc.flag,
				Name:  maybeutf8.FromString("secret.bin"),
			}
			var buf bytes.Buffer
			_, err := h.WriteTo(&buf)
			require.NoError(t, err, "writing is not restricted, only parsing is")

			_, err = format.ReadLocalFileHeader(&buf)
			assert.ErrorIs(t, err, format.ErrUnsupported)
		})
	}
}

func TestFlaggedFieldMustBeUTF8(t *testing.T) {
	h := format.LocalFileHeader{
		Flags: format.FlagUTF8,
		Name:  maybeutf8.FromBytes([]byte{0xff, 0xfe}),
	}

	var buf bytes.Buffer
	_, err := h.WriteTo(&buf)
	assert.ErrorIs(t, err, format.ErrNonUTF8Field)
	assert.Zero(t, buf.Len(), "nothing may be written on a failed validation")

	// The same bytes on the wire must fail parsing too. Craft them by
	// writing without the flag, then flipping it in place.
	h.Flags = 0
	_, err = h.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.Bytes()
	raw[7] |= 0x08 // set bit 11 in the high byte of the flags word

	_, err = format.ReadLocalFileHeader(bytes.NewReader(raw))
	assert.ErrorIs(t, err, format.ErrNonUTF8Field)
}

func TestFieldLengthOverflow(t *testing.T) {
	long := strings.Repeat("a", 1<<16)

	lfh := format.LocalFileHeader{Name: maybeutf8.FromString(long)}
	var buf bytes.Buffer
	_, err := lfh.WriteTo(&buf)
	assert.ErrorIs(t, err, format.ErrTooLongField)
	assert.Zero(t, buf.Len())

	cdh := format.CentralDirectoryHeader{Comment: maybeutf8.FromString(long)}
	_, err = cdh.WriteTo(&buf)
	assert.ErrorIs(t, err, format.ErrTooLongField)

	end := format.EndOfCentralDirectory{Comment: []byte(long)}
	_, err = end.WriteTo(&buf)
	assert.ErrorIs(t, err, format.ErrTooLongField)
	assert.Zero(t, buf.Len())
}

func TestCentralDirectoryHeaderRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		header format.CentralDirectoryHeader
	}{
		{
			name: "flagged UTF-8 name and comment",
			header: format.CentralDirectoryHeader{
				VersionMadeBy:          0x031e,
				VersionNeededToExtract: 20,
				Flags:                  format.FlagUTF8,
				Method:                 8,
				Modified:               format.NewDOSDateTime(2024, 5, 4, 12, 30, 8),
				CRC32:                  0xCBF43926,
				CompressedSize:         7,
				UncompressedSize:       5,
				InternalAttributes:     1,
				ExternalAttributes:     0x81a40000,
				LocalHeaderOffset:      64,
				Name:                   maybeutf8.FromString("día/niño.txt"),
				Extra:                  []byte{0xca, 0xfe},
				Comment:                maybeutf8.FromString("first entry"),
			},
		},
		{
			name: "raw fields without the flag",
			header: format.CentralDirectoryHeader{
				Modified: format.NewDOSDateTime(1995, 3, 14, 9, 26, 53),
				Name:     maybeutf8.FromBytes([]byte{'l', 0x82, 's', 't', 'a'}),
				Comment:  maybeutf8.FromBytes([]byte{0xff}),
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			n, err := tc.header.WriteTo(&buf)
			require.NoError(t, err)
			require.Equal(t, int64(tc.header.TotalSize()), n)

			got, err := format.ReadCentralDirectoryHeader(&buf)
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tc.header, got))
			assert.Equal(t, tc.header.Flags.HasUTF8Fields(), got.Name.IsUTF8())
			assert.Equal(t, tc.header.Flags.HasUTF8Fields(), got.Comment.IsUTF8())
		})
	}
}

func TestEndOfCentralDirectoryWireLayout(t *testing.T) {
	e := format.EndOfCentralDirectory{
		CDCountOnDisk: 2,
		CDCount:       2,
		CDSize:        92,
		CDOffset:      256,
		Comment:       []byte("hi"),
	}

	var buf bytes.Buffer
	n, err := e.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(24), n)

	want := []byte{
		0x50, 0x4b, 0x05, 0x06, // signature
		0x00, 0x00, // disk number
		0x00, 0x00, // central directory start disk
		0x02, 0x00, // entries on this disk
		0x02, 0x00, // entries total
		0x5c, 0x00, 0x00, 0x00, // central directory size
		0x00, 0x01, 0x00, 0x00, // central directory offset
		0x02, 0x00, // comment length
		'h', 'i',
	}
	assert.Equal(t, want, buf.Bytes())

	got, err := format.ReadEndOfCentralDirectory(bytes.NewReader(want))
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(e, got))
}

func TestInvalidSignature(t *testing.T) {
	// A central directory header where a local file header is expected.
	cdh := format.CentralDirectoryHeader{Name: maybeutf8.FromString("x")}
	var buf bytes.Buffer
	_, err := cdh.WriteTo(&buf)
	require.NoError(t, err)

	_, err = format.ReadLocalFileHeader(&buf)
	var sigErr *format.InvalidSignatureError
	require.ErrorAs(t, err, &sigErr)
	assert.Equal(t, format.CentralDirectorySignature, sigErr.Magic)

	_, err = format.ReadEndOfCentralDirectory(bytes.NewReader([]byte("NOTAZIP!")))
	require.ErrorAs(t, err, &sigErr)
	assert.Equal(t, uint32(0x41544f4e), sigErr.Magic)
}

func TestTruncatedRecord(t *testing.T) {
	h := format.LocalFileHeader{Name: maybeutf8.FromString("cut.txt")}
	var buf bytes.Buffer
	_, err := h.WriteTo(&buf)
	require.NoError(t, err)

	for _, n := range []int{2, 10, 31} {
		_, err := format.ReadLocalFileHeader(bytes.NewReader(buf.Bytes()[:n]))
		assert.Error(t, err, "truncated at %d bytes", n)
		assert.True(t, errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF))
	}
}

func TestTotalSize(t *testing.T) {
	lfh := format.LocalFileHeader{
		Name:  maybeutf8.FromString("abc"),
		Extra: []byte{1, 2},
	}
	assert.Equal(t, 35, lfh.TotalSize())

	cdh := format.CentralDirectoryHeader{
		Name:    maybeutf8.FromString("abc"),
		Extra:   []byte{1, 2},
		Comment: maybeutf8.FromString("c"),
	}
	assert.Equal(t, 52, cdh.TotalSize())

	end := format.EndOfCentralDirectory{Comment: []byte("zip!")}
	assert.Equal(t, 26, end.TotalSize())
}

func TestFlagAccessors(t *testing.T) {
	var none format.Flags
	assert.False(t, none.IsEncrypted())
	assert.False(t, none.HasDataDescriptor())
	assert.False(t, none.IsCompressedPatchedData())
	assert.False(t, none.UsesStrongEncryption())
	assert.False(t, none.HasUTF8Fields())
	assert.False(t, none.UsesMasking())

	all := format.FlagEncrypted | format.FlagDataDescriptor | format.FlagCompressedPatchedData |
		format.FlagStrongEncryption | format.FlagUTF8 | format.FlagMasking
	assert.True(t, all.IsEncrypted())
	assert.True(t, all.HasDataDescriptor())
	assert.True(t, all.IsCompressedPatchedData())
	assert.True(t, all.UsesStrongEncryption())
	assert.True(t, all.HasUTF8Fields())
	assert.True(t, all.UsesMasking())
}
