////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package circuit

// cipher.go contains the field cipher shared by clients and the computation
// boundary. A party and the boundary agree on a key through x25519; each field
// is a 32 byte little endian slot masked with an XChaCha20 keystream.

import (
	"crypto/sha256"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

const cipherInfo = "xxmpc record field cipher v1"

// GenerateKey creates an x25519 key pair from the given randomness.
func GenerateKey(rng io.Reader) (secret [32]byte, public PublicKey, err error) {
	if _, err = io.ReadFull(rng, secret[:]); err != nil {
		return secret, public, errors.WithMessage(err, "Failed to read "+
			"x25519 secret")
	}
	pub, err := curve25519.X25519(secret[:], curve25519.Basepoint)
	if err != nil {
		return secret, public, err
	}
	copy(public[:], pub)
	return secret, public, nil
}

// SharedSecret computes the x25519 shared secret between secret and peer.
func SharedSecret(secret [32]byte, peer PublicKey) ([]byte, error) {
	return curve25519.X25519(secret[:], peer[:])
}

// Cipher masks and unmasks record fields under one shared secret.
type Cipher struct {
	key [chacha20.KeySize]byte
}

// NewCipher derives the field key from an x25519 shared secret.
func NewCipher(sharedSecret []byte) (*Cipher, error) {
	c := &Cipher{}
	kdf := hkdf.New(sha256.New, sharedSecret, nil, []byte(cipherInfo))
	if _, err := io.ReadFull(kdf, c.key[:]); err != nil {
		return nil, errors.WithMessage(err, "Failed to derive field key")
	}
	return c, nil
}

// Encrypt masks the record under nonce.
func (c *Cipher) Encrypt(r StructuredRecord, nonce Nonce) (EncryptedRecord, error) {
	return c.encryptFields(r.fields(), nonce)
}

// Decrypt unmasks the record under nonce. A slot whose value does not fit its
// field is reported as a decryption failure.
func (c *Cipher) Decrypt(er EncryptedRecord, nonce Nonce) (StructuredRecord, error) {
	v, err := c.decryptFields(er, nonce)
	if err != nil {
		return StructuredRecord{}, err
	}
	return recordFromFields(v)
}

func (c *Cipher) encryptFields(v [NumFields]uint64, nonce Nonce) (EncryptedRecord, error) {
	var er EncryptedRecord
	plain := make([]byte, RecordSize)
	for i := range v {
		binary.LittleEndian.PutUint64(plain[i*CiphertextSize:], v[i])
	}
	if err := c.xor(plain, nonce); err != nil {
		return er, err
	}
	return UnmarshalEncryptedRecord(plain)
}

func (c *Cipher) decryptFields(er EncryptedRecord, nonce Nonce) ([NumFields]uint64, error) {
	var v [NumFields]uint64
	plain := er.Bytes()
	if err := c.xor(plain, nonce); err != nil {
		return v, err
	}
	for i := range v {
		slot := plain[i*CiphertextSize : (i+1)*CiphertextSize]
		for _, b := range slot[8:] {
			if b != 0 {
				return v, errors.Errorf("Slot for field %s did not "+
					"decrypt to a field value", Field(i))
			}
		}
		v[i] = binary.LittleEndian.Uint64(slot[:8])
	}
	return v, nil
}

// xor applies the keystream for nonce to b in place.
func (c *Cipher) xor(b []byte, nonce Nonce) error {
	var xnonce [chacha20.NonceSizeX]byte
	copy(xnonce[:], nonce[:])
	stream, err := chacha20.NewUnauthenticatedCipher(c.key[:], xnonce[:])
	if err != nil {
		return errors.WithMessage(err, "Failed to create field keystream")
	}
	stream.XORKeyStream(b, b)
	return nil
}
