///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package provider

// output.go contains the signed output a cluster returns for a computation

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"gitlab.com/elixxir/crypto/hash"
	"gitlab.com/elixxir/privaterecord/circuit"
	"gitlab.com/elixxir/privaterecord/messages"
	"gitlab.com/xx_network/crypto/signature/rsa"
	"gitlab.com/xx_network/primitives/id"
)

// Status is the provider's verdict on a computation
type Status uint8

const (
	Success Status = iota + 1
	Aborted
)

// String returns the name of the status
func (s Status) String() string {
	switch s {
	case Success:
		return "SUCCESS"
	case Aborted:
		return "ABORTED"
	default:
		return fmt.Sprintf("UNKNOWN STATUS: %d", uint8(s))
	}
}

// SignedOutput is a computation result signed by the cluster that ran it
type SignedOutput struct {
	Cluster           *id.ID
	ComputationOffset uint64
	Computation       *id.ID
	Status            Status
	Payload           []byte
	Signature         []byte
}

// Digest is the CMix hash of every field but the signature
func (so *SignedOutput) Digest() ([]byte, error) {
	h, err := hash.NewCMixHash()
	if err != nil {
		return nil, errors.WithMessage(err, "Could not get hash")
	}
	var offset [8]byte
	binary.BigEndian.PutUint64(offset[:], so.ComputationOffset)

	h.Write(marshalID(so.Cluster))
	h.Write(offset[:])
	h.Write(marshalID(so.Computation))
	h.Write([]byte{byte(so.Status)})
	h.Write(so.Payload)
	return h.Sum(nil), nil
}

// Sign signs the output with the cluster's key
func (so *SignedOutput) Sign(rng io.Reader, key *rsa.PrivateKey) error {
	digest, err := so.Digest()
	if err != nil {
		return err
	}
	so.Signature, err = rsa.Sign(rng, key, hash.CMixHash, digest, nil)
	if err != nil {
		return errors.WithMessage(err, "Failed to sign output")
	}
	return nil
}

// Verify checks the signature against the cluster's public key
func (so *SignedOutput) Verify(key *rsa.PublicKey) error {
	digest, err := so.Digest()
	if err != nil {
		return err
	}
	return rsa.Verify(key, hash.CMixHash, digest, so.Signature, nil)
}

func (so *SignedOutput) Marshal() []byte {
	var w messages.Writer
	w.ID(1, so.Cluster)
	w.Uint64(2, so.ComputationOffset)
	w.ID(3, so.Computation)
	w.Uint64(4, uint64(so.Status))
	w.Bytes(5, so.Payload)
	w.Bytes(6, so.Signature)
	return w
}

func (so *SignedOutput) Unmarshal(b []byte) error {
	f, err := messages.Parse(b)
	if err != nil {
		return err
	}
	if so.Cluster, err = f.ID(1); err != nil {
		return err
	}
	so.ComputationOffset = f.Uint64(2)
	if so.Computation, err = f.ID(3); err != nil {
		return err
	}
	so.Status = Status(f.Uint64(4))
	so.Payload = append([]byte(nil), f.Bytes(5)...)
	so.Signature = append([]byte(nil), f.Bytes(6)...)
	return nil
}

// EncodePayload encodes a lookup output: the nonce then each ciphertext
func EncodePayload(o circuit.Output) []byte {
	var w messages.Writer
	w.Bytes(1, o.Nonce[:])
	for i := range o.Ciphertexts {
		w.Bytes(2, o.Ciphertexts[i][:])
	}
	return w
}

// DecodePayload splits a payload into its nonce and ciphertexts without
// checking their sizes
func DecodePayload(b []byte) (nonce []byte, fields [][]byte, err error) {
	f, err := messages.Parse(b)
	if err != nil {
		return nil, nil, err
	}
	return f.Bytes(1), f.Repeated(2), nil
}

func marshalID(i *id.ID) []byte {
	if i == nil {
		return make([]byte, id.ArrIDLen)
	}
	return i.Marshal()
}
