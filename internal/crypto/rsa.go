package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"math/big"

	"github.com/skyline93/js5/internal/errors"
)

// Key is one half of an RSA key pair: a modulus and either the public or the
// private exponent.
type Key struct {
	Modulus  *big.Int
	Exponent *big.Int
}

// KeyPair holds matching public and private keys. Checksum tables are signed
// with the private key and verified with the public key.
type KeyPair struct {
	Public  Key
	Private Key
}

var one = big.NewInt(1)

// Valid tests whether the key k is usable, i.e. has a modulus greater than one
// and a positive exponent.
func (k Key) Valid() bool {
	return k.Modulus != nil && k.Exponent != nil &&
		k.Modulus.Cmp(one) > 0 && k.Exponent.Sign() > 0
}

// Size returns the length of the modulus in bytes, which is also the length
// of every output of Crypt.
func (k Key) Size() int {
	return (k.Modulus.BitLen() + 7) / 8
}

// Crypt raises the big-endian integer in msg to the key's exponent modulo its
// modulus. The result is left padded to Size bytes. Crypt with the private key
// and then with the public key (or the other way around) restores msg.
func Crypt(msg []byte, k Key) ([]byte, error) {
	if !k.Valid() {
		return nil, errors.New("invalid rsa key")
	}

	m := new(big.Int).SetBytes(msg)
	if m.Cmp(k.Modulus) >= 0 {
		return nil, errors.Errorf("message of %d bytes is too large for a %d bit modulus", len(msg), k.Modulus.BitLen())
	}

	c := new(big.Int).Exp(m, k.Exponent, k.Modulus)
	return c.FillBytes(make([]byte, k.Size())), nil
}

// GenerateKeyPair returns a new key pair with a modulus of the given size.
func GenerateKeyPair(bits int) (*KeyPair, error) {
	pk, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, errors.Wrap(err, "rsa.GenerateKey")
	}

	return &KeyPair{
		Public:  Key{Modulus: pk.N, Exponent: big.NewInt(int64(pk.E))},
		Private: Key{Modulus: pk.N, Exponent: pk.D},
	}, nil
}

// ParseKey parses a key from its modulus and exponent. Both numbers are
// decimal unless prefixed with 0x.
func ParseKey(modulus, exponent string) (Key, error) {
	mod, ok := new(big.Int).SetString(modulus, 0)
	if !ok {
		return Key{}, errors.Errorf("invalid modulus %q", modulus)
	}
	exp, ok := new(big.Int).SetString(exponent, 0)
	if !ok {
		return Key{}, errors.Errorf("invalid exponent %q", exponent)
	}

	k := Key{Modulus: mod, Exponent: exp}
	if !k.Valid() {
		return Key{}, errors.New("invalid rsa key")
	}
	return k, nil
}
