package crypto

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCryptRoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair(1024)
	require.NoError(t, err)
	require.Equal(t, 128, kp.Public.Size())

	msg := bytes.Repeat([]byte{0x5a}, 64)

	sig, err := Crypt(msg, kp.Private)
	require.NoError(t, err)
	require.Len(t, sig, 128)

	plain, err := Crypt(sig, kp.Public)
	require.NoError(t, err)
	require.Len(t, plain, 128)
	require.Equal(t, msg, plain[len(plain)-len(msg):])
	require.Equal(t, make([]byte, 128-len(msg)), plain[:len(plain)-len(msg)])
}

func TestCryptSmallKey(t *testing.T) {
	// textbook example: n = 61*53, e = 17, d = 2753
	pub := Key{Modulus: big.NewInt(3233), Exponent: big.NewInt(17)}
	priv := Key{Modulus: big.NewInt(3233), Exponent: big.NewInt(2753)}

	c, err := Crypt([]byte{65}, pub)
	require.NoError(t, err)
	require.Equal(t, []byte{0x0a, 0xe6}, c) // 2790

	m, err := Crypt(c, priv)
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 65}, m)

	_, err = Crypt([]byte{0x0c, 0xa1}, pub) // 3233
	require.Error(t, err)
}

func TestParseKey(t *testing.T) {
	k, err := ParseKey("3233", "0x11")
	require.NoError(t, err)
	require.Equal(t, int64(3233), k.Modulus.Int64())
	require.Equal(t, int64(17), k.Exponent.Int64())

	_, err = ParseKey("zz", "17")
	require.Error(t, err)
	_, err = ParseKey("3233", "")
	require.Error(t, err)
	_, err = ParseKey("1", "17")
	require.Error(t, err)

	require.False(t, Key{}.Valid())
}
