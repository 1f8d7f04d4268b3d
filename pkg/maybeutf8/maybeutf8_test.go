package maybeutf8

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromString(t *testing.T) {
	v := FromString("héllo")

	assert.True(t, v.IsUTF8())
	assert.Equal(t, []byte("héllo"), v.Bytes())
	assert.Equal(t, len("héllo"), v.Len())

	s, ok := v.AsString()
	require.True(t, ok)
	assert.Equal(t, "héllo", s)
}

func TestFromBytesStaysRaw(t *testing.T) {
	// Valid UTF-8 content is still tagged raw until explicitly decoded.
	v := FromBytes([]byte("plain"))
	assert.False(t, v.IsUTF8())

	s, ok := v.AsString()
	require.True(t, ok)
	assert.Equal(t, "plain", s)
	assert.False(t, v.IsUTF8(), "AsString must not change the variant")

	d, ok := v.Decode()
	require.True(t, ok)
	assert.True(t, d.IsUTF8())
	assert.Equal(t, []byte("plain"), d.Bytes())
}

func TestInvalidBytes(t *testing.T) {
	// CP437-ish garbage: 0xFF never starts a valid UTF-8 sequence.
	raw := []byte{'a', 0xFF, 'b'}
	v := FromBytes(raw)

	_, ok := v.AsString()
	assert.False(t, ok)

	d, ok := v.Decode()
	assert.False(t, ok)
	assert.False(t, d.IsUTF8())
	assert.Equal(t, raw, d.Bytes(), "failed Decode returns the value unchanged")
}

func TestStringIsLossy(t *testing.T) {
	assert.Equal(t, "a�b", FromBytes([]byte{'a', 0xFF, 'b'}).String())
	assert.Equal(t, "héllo", FromString("héllo").String())
	assert.Equal(t, "", Value{}.String())
}

func TestEqualityIgnoresVariant(t *testing.T) {
	text := FromString("same")
	raw := FromBytes([]byte("same"))

	assert.True(t, text.Equal(raw))
	assert.True(t, raw.Equal(text))
	assert.Zero(t, text.Compare(raw))

	assert.False(t, text.Equal(FromString("other")))
	assert.Negative(t, FromString("a").Compare(FromString("b")))
	assert.Positive(t, FromString("b").Compare(FromString("a")))
}

func TestZeroValue(t *testing.T) {
	var v Value

	assert.False(t, v.IsUTF8())
	assert.Zero(t, v.Len())
	assert.True(t, v.Equal(FromString("")))
}
