///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package computation

import (
	"testing"

	"github.com/pkg/errors"
	"gitlab.com/elixxir/privaterecord/circuit"
	"gitlab.com/elixxir/privaterecord/messages"
	"gitlab.com/elixxir/privaterecord/provider"
	"gitlab.com/xx_network/crypto/csprng"
	"gitlab.com/xx_network/crypto/signature/rsa"
	"gitlab.com/xx_network/primitives/id"
)

type verifyEnv struct {
	key      *rsa.PrivateKey
	cluster  Cluster
	expected *Computation
}

func newVerifyEnv(t *testing.T) *verifyEnv {
	key, err := rsa.GenerateKey(csprng.NewSystemRNG(), 1024)
	if err != nil {
		t.Fatalf("Failed to generate key: %+v", err)
	}
	cluster := Cluster{
		ID:        id.NewIdFromString("cluster", id.Node, t),
		Offset:    3,
		PublicKey: key.GetPublic(),
	}
	return &verifyEnv{
		key:     key,
		cluster: cluster,
		expected: New(7, cluster.Offset,
			id.NewIdFromString("requester", id.User, t),
			id.NewIdFromString("record", id.Generic, t)),
	}
}

// Returns an output for the expected computation, signed after mutate runs
func (env *verifyEnv) output(t *testing.T, payload []byte,
	mutate func(so *provider.SignedOutput)) []byte {
	so := &provider.SignedOutput{
		Cluster:           env.cluster.ID,
		ComputationOffset: env.expected.GetOffset(),
		Computation:       env.expected.GetAddress(),
		Status:            provider.Success,
		Payload:           payload,
	}
	if mutate != nil {
		mutate(so)
	}
	if err := so.Sign(csprng.NewSystemRNG(), env.key); err != nil {
		t.Fatalf("Failed to sign: %+v", err)
	}
	return so.Marshal()
}

func testLookupOutput() circuit.Output {
	var o circuit.Output
	o.Nonce = circuit.NonceFromUint128(0xAA, 0x55)
	for i := range o.Ciphertexts {
		o.Ciphertexts[i][0] = byte(i)
		o.Ciphertexts[i][31] = 0xC0 | byte(i)
	}
	return o
}

// Tests the lookup scenario: the output for offset 7 with nonce N carries
// the re-encrypted age in field 1 and every field in order.
func TestVerify(t *testing.T) {
	env := newVerifyEnv(t)
	o := testLookupOutput()

	vo, err := Verify(env.output(t, provider.EncodePayload(o), nil),
		env.cluster, env.expected)
	if err != nil {
		t.Fatalf("Valid output was rejected: %+v", err)
	}
	if vo.ComputationOffset != 7 {
		t.Errorf("Unexpected offset %d", vo.ComputationOffset)
	}
	if vo.Nonce != o.Nonce {
		t.Errorf("Nonce was not carried over")
	}
	if vo.Fields[circuit.Age] != o.Ciphertexts[1] {
		t.Errorf("Age is not field 1")
	}
	if vo.Fields != o.Ciphertexts {
		t.Errorf("Fields were reordered")
	}
}

// Error path: every authentication failure aborts.
func TestVerify_Aborted(t *testing.T) {
	env := newVerifyEnv(t)
	payload := provider.EncodePayload(testLookupOutput())
	other, _ := rsa.GenerateKey(csprng.NewSystemRNG(), 1024)

	tests := map[string][]byte{
		"unreadable": {0xFF, 0xFF},
		"wrong cluster": env.output(t, payload, func(so *provider.SignedOutput) {
			so.Cluster = id.NewIdFromString("other", id.Node, t)
		}),
		"wrong offset": env.output(t, payload, func(so *provider.SignedOutput) {
			so.ComputationOffset = 8
		}),
		"wrong computation account": env.output(t, payload,
			func(so *provider.SignedOutput) {
				so.Computation = id.NewIdFromString("other", id.Generic, t)
			}),
		"provider abort": env.output(t, nil, func(so *provider.SignedOutput) {
			so.Status = provider.Aborted
		}),
	}

	// Signed by the wrong key
	forged := &provider.SignedOutput{
		Cluster:           env.cluster.ID,
		ComputationOffset: 7,
		Computation:       env.expected.GetAddress(),
		Status:            provider.Success,
		Payload:           payload,
	}
	_ = forged.Sign(csprng.NewSystemRNG(), other)
	tests["forged signature"] = forged.Marshal()

	for name, raw := range tests {
		_, err := Verify(raw, env.cluster, env.expected)
		if !errors.Is(err, ErrAbortedComputation) {
			t.Errorf("%s: expected ErrAbortedComputation, received %+v",
				name, err)
		}
		if errors.Is(err, ErrMalformedOutputShape) {
			t.Errorf("%s: abort reported as malformed", name)
		}
	}
}

// Error path: authentic outputs of the wrong shape are malformed, not
// aborted.
func TestVerify_Malformed(t *testing.T) {
	env := newVerifyEnv(t)
	o := testLookupOutput()

	short := func(n int) []byte {
		var w messages.Writer
		w.Bytes(1, o.Nonce[:])
		for i := 0; i < n; i++ {
			w.Bytes(2, o.Ciphertexts[i][:])
		}
		return w
	}

	var wideField messages.Writer
	wideField.Bytes(1, o.Nonce[:])
	for i := range o.Ciphertexts {
		f := o.Ciphertexts[i][:]
		if i == 4 {
			f = append(append([]byte{}, f...), 0)
		}
		wideField.Bytes(2, f)
	}

	var shortNonce messages.Writer
	shortNonce.Bytes(1, o.Nonce[:8])
	for i := range o.Ciphertexts {
		shortNonce.Bytes(2, o.Ciphertexts[i][:])
	}

	tests := map[string][]byte{
		"ten fields":    short(circuit.NumFields - 1),
		"twelve fields": append(short(circuit.NumFields), short(1)[18:]...),
		"wide field":    wideField,
		"short nonce":   shortNonce,
		"empty":         nil,
	}
	for name, payload := range tests {
		_, err := Verify(env.output(t, payload, nil), env.cluster,
			env.expected)
		if !errors.Is(err, ErrMalformedOutputShape) {
			t.Errorf("%s: expected ErrMalformedOutputShape, received %+v",
				name, err)
		}
		if errors.Is(err, ErrAbortedComputation) {
			t.Errorf("%s: malformed output reported as aborted", name)
		}
	}
}
