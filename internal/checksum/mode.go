package checksum

import (
	"github.com/skyline93/js5/internal/crypto"
)

// Mode selects the encoding of a checksum table. It is one of Plain,
// Whirlpool or Signed.
type Mode interface {
	// seal turns the digest of the table entries into the trailer.
	seal(digest []byte) ([]byte, error)
	// open turns a trailer back into a digest.
	open(trailer []byte) ([]byte, error)
	extended() bool
}

// Plain is the compact encoding: CRC and version only, no trailer.
type Plain struct{}

// Whirlpool is the extended encoding with the raw table digest as trailer.
type Whirlpool struct{}

// Signed is the extended encoding with the table digest transformed by Key.
// Tables are encoded with the private key and decoded with the public key.
type Signed struct {
	Key crypto.Key
}

func (Plain) extended() bool                          { return false }
func (Plain) seal(digest []byte) ([]byte, error)      { return nil, nil }
func (Plain) open(trailer []byte) ([]byte, error)     { return nil, nil }
func (Whirlpool) extended() bool                      { return true }
func (Whirlpool) seal(digest []byte) ([]byte, error)  { return digest, nil }
func (Whirlpool) open(trailer []byte) ([]byte, error) { return trailer, nil }

func (Signed) extended() bool { return true }

func (m Signed) seal(digest []byte) ([]byte, error) {
	return crypto.Crypt(digest, m.Key)
}

// open reverses seal. The transform yields a modulus sized number; a genuine
// digest fills only its last DigestSize bytes.
func (m Signed) open(trailer []byte) ([]byte, error) {
	plain, err := crypto.Crypt(trailer, m.Key)
	if err != nil {
		return nil, err
	}
	if len(plain) < DigestSize {
		padded := make([]byte, DigestSize)
		copy(padded[DigestSize-len(plain):], plain)
		return padded, nil
	}
	for _, b := range plain[:len(plain)-DigestSize] {
		if b != 0 {
			return plain, nil
		}
	}
	return plain[len(plain)-DigestSize:], nil
}
