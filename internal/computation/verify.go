///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package computation

// verify.go checks a cluster's output before its contents are trusted

import (
	"github.com/pkg/errors"
	"gitlab.com/elixxir/privaterecord/circuit"
	"gitlab.com/elixxir/privaterecord/provider"
	"gitlab.com/xx_network/crypto/signature/rsa"
	"gitlab.com/xx_network/primitives/id"
)

// Cluster is the provider cluster outputs are expected from
type Cluster struct {
	ID        *id.ID
	Offset    uint32
	PublicKey *rsa.PublicKey
}

// VerifiedOutput is an authenticated output with its fields in record order
type VerifiedOutput struct {
	ComputationOffset uint64
	Nonce             circuit.Nonce
	Fields            circuit.EncryptedRecord
}

// Verify authenticates raw as the expected computation's output from the
// cluster and unpacks it. Any authentication failure, including a provider
// reported abort, is ErrAbortedComputation. An authentic output that is not
// one nonce and NumFields ciphertexts is ErrMalformedOutputShape.
func Verify(raw []byte, cluster Cluster, expected *Computation) (*VerifiedOutput, error) {
	so, err := Authenticate(raw, cluster, expected)
	if err != nil {
		return nil, err
	}
	if so.Status != provider.Success {
		return nil, errors.WithMessagef(ErrAbortedComputation,
			"provider reported %s", so.Status)
	}
	return Unpack(so)
}

// Authenticate checks that raw was signed by the cluster for the expected
// computation. It does not look at the payload.
func Authenticate(raw []byte, cluster Cluster,
	expected *Computation) (*provider.SignedOutput, error) {
	so := &provider.SignedOutput{}
	if err := so.Unmarshal(raw); err != nil {
		return nil, errors.WithMessagef(ErrAbortedComputation,
			"output could not be read: %v", err)
	}

	if so.Cluster == nil || !so.Cluster.Cmp(cluster.ID) {
		return nil, errors.WithMessagef(ErrAbortedComputation,
			"output from %s, expected cluster %s", so.Cluster, cluster.ID)
	}
	if so.ComputationOffset != expected.GetOffset() {
		return nil, errors.WithMessagef(ErrAbortedComputation,
			"output for computation %d, expected %d", so.ComputationOffset,
			expected.GetOffset())
	}
	if so.Computation == nil || !so.Computation.Cmp(expected.GetAddress()) {
		return nil, errors.WithMessagef(ErrAbortedComputation,
			"output for computation account %s, expected %s",
			so.Computation, expected.GetAddress())
	}
	if err := so.Verify(cluster.PublicKey); err != nil {
		return nil, errors.WithMessagef(ErrAbortedComputation,
			"cluster signature invalid: %v", err)
	}
	return so, nil
}

// Unpack splits an authenticated output's payload into the nonce and fields
func Unpack(so *provider.SignedOutput) (*VerifiedOutput, error) {
	nonce, fields, err := provider.DecodePayload(so.Payload)
	if err != nil {
		return nil, errors.WithMessage(ErrMalformedOutputShape, err.Error())
	}
	if len(nonce) != circuit.NonceSize {
		return nil, errors.WithMessagef(ErrMalformedOutputShape,
			"nonce is %d bytes, expected %d", len(nonce), circuit.NonceSize)
	}
	if len(fields) != circuit.NumFields {
		return nil, errors.WithMessagef(ErrMalformedOutputShape,
			"%d fields, expected %d", len(fields), circuit.NumFields)
	}

	vo := &VerifiedOutput{ComputationOffset: so.ComputationOffset}
	copy(vo.Nonce[:], nonce)
	for i, f := range fields {
		if len(f) != circuit.CiphertextSize {
			return nil, errors.WithMessagef(ErrMalformedOutputShape,
				"field %s is %d bytes, expected %d", circuit.Field(i),
				len(f), circuit.CiphertextSize)
		}
		copy(vo.Fields[i][:], f)
	}
	return vo, nil
}
