////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package circuit defines the confidential record lookup circuit: the record
// layout it reads and writes, the argument list it is invoked with and a
// reference executor for the function run inside the computation boundary.
package circuit

import (
	"io"

	"github.com/pkg/errors"
)

// Shared identifies a party that shares a key with the computation boundary.
type Shared struct {
	PublicKey PublicKey
	Nonce     Nonce
}

// Enc is a record encrypted by a party for the computation boundary.
type Enc struct {
	Owner       Shared
	Ciphertexts EncryptedRecord
}

// Output is a record encrypted by the computation boundary for a party.
type Output struct {
	Nonce       Nonce
	Ciphertexts EncryptedRecord
}

// Boundary holds the execution environment's x25519 key. On a real cluster
// the secret is shared between the nodes and never assembled; the reference
// executor holds it whole.
type Boundary struct {
	secret [32]byte
	public PublicKey
}

// NewBoundary creates a boundary with a fresh key.
func NewBoundary(rng io.Reader) (*Boundary, error) {
	secret, public, err := GenerateKey(rng)
	if err != nil {
		return nil, err
	}
	return &Boundary{secret: secret, public: public}, nil
}

// LoadBoundary creates a boundary from an existing secret.
func LoadBoundary(secret [32]byte) (*Boundary, error) {
	pub, err := SharedSecret(secret, basepoint())
	if err != nil {
		return nil, err
	}
	b := &Boundary{secret: secret}
	copy(b.public[:], pub)
	return b, nil
}

// PublicKey is the key parties encrypt to.
func (b *Boundary) PublicKey() PublicKey {
	return b.public
}

// PrivateRecordLookup re-encrypts the input record for receiver. Every field
// is carried over unchanged and in order; the output nonce is the receiver's
// nonce. Input that does not decrypt to a record aborts the computation.
func (b *Boundary) PrivateRecordLookup(receiver Shared, input Enc) (Output, error) {
	in, err := b.cipherFor(input.Owner.PublicKey)
	if err != nil {
		return Output{}, err
	}
	fields, err := in.decryptFields(input.Ciphertexts, input.Owner.Nonce)
	if err != nil {
		return Output{}, errors.WithMessage(err, "Failed to decrypt input")
	}
	if _, err = recordFromFields(fields); err != nil {
		return Output{}, errors.WithMessage(err, "Failed to decrypt input")
	}

	out, err := b.cipherFor(receiver.PublicKey)
	if err != nil {
		return Output{}, err
	}
	ct, err := out.encryptFields(fields, receiver.Nonce)
	if err != nil {
		return Output{}, err
	}
	return Output{Nonce: receiver.Nonce, Ciphertexts: ct}, nil
}

func (b *Boundary) cipherFor(peer PublicKey) (*Cipher, error) {
	shared, err := SharedSecret(b.secret, peer)
	if err != nil {
		return nil, errors.WithMessage(err, "Failed to agree on a key")
	}
	return NewCipher(shared)
}

// Seal encrypts a record from the party holding secret for the boundary
// whose key is boundaryKey.
func Seal(r StructuredRecord, secret [32]byte, boundaryKey PublicKey,
	nonce Nonce) (EncryptedRecord, error) {
	c, err := partyCipher(secret, boundaryKey)
	if err != nil {
		return EncryptedRecord{}, err
	}
	return c.Encrypt(r, nonce)
}

// Open decrypts a boundary output for the party holding secret.
func Open(o Output, secret [32]byte, boundaryKey PublicKey) (StructuredRecord, error) {
	c, err := partyCipher(secret, boundaryKey)
	if err != nil {
		return StructuredRecord{}, err
	}
	return c.Decrypt(o.Ciphertexts, o.Nonce)
}

func partyCipher(secret [32]byte, boundaryKey PublicKey) (*Cipher, error) {
	shared, err := SharedSecret(secret, boundaryKey)
	if err != nil {
		return nil, errors.WithMessage(err, "Failed to agree on a key")
	}
	return NewCipher(shared)
}

func basepoint() PublicKey {
	var bp PublicKey
	bp[0] = 9
	return bp
}
