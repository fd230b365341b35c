package eth

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidAddress(t *testing.T) {
	assert.True(t, ValidAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"))
	assert.True(t, ValidAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"))

	assert.False(t, ValidAddress(""))
	assert.False(t, ValidAddress("0x123"))
	assert.False(t, ValidAddress("not-an-address"))
	assert.False(t, ValidAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaedff"))
}

func TestChecksum(t *testing.T) {
	got, err := Checksum("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	require.NoError(t, err)
	assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", got)

	_, err = Checksum("0xnope")
	assert.Error(t, err)
}

func TestParseWeiHex(t *testing.T) {
	// 1 ETH
	got, err := ParseWeiHex("0xde0b6b3a7640000")
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(1)))

	// 1 gwei
	got, err = ParseWeiHex("0x3b9aca00")
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("0.000000001")))

	_, err = ParseWeiHex("12345")
	assert.Error(t, err)

	_, err = ParseWeiHex("")
	assert.Error(t, err)
}
