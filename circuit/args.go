////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package circuit

// args.go contains the argument list handed to the provider for one
// invocation. The order of arguments is the wire contract with the circuit:
// the circuit binds its parameters positionally.

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
	"gitlab.com/xx_network/primitives/id"
)

// ArgKind is the type tag of one circuit argument.
type ArgKind uint8

const (
	ArgX25519Pubkey ArgKind = iota + 1
	ArgPlaintextU128
	ArgAccount
)

// String returns the name of the argument kind
func (k ArgKind) String() string {
	switch k {
	case ArgX25519Pubkey:
		return "x25519_pubkey"
	case ArgPlaintextU128:
		return "plaintext_u128"
	case ArgAccount:
		return "account"
	default:
		return fmt.Sprintf("UNKNOWN ARG KIND: %d", uint8(k))
	}
}

// Argument is one positional circuit argument. Value is set for key and
// nonce arguments; Account, Offset and Length for account references.
type Argument struct {
	Kind    ArgKind
	Value   []byte
	Account *id.ID
	Offset  uint32
	Length  uint32
}

// ArgBuilder appends arguments in call order.
type ArgBuilder struct {
	args []Argument
}

// NewArgBuilder returns an empty builder.
func NewArgBuilder() *ArgBuilder {
	return &ArgBuilder{}
}

// X25519Pubkey appends a public key argument.
func (ab *ArgBuilder) X25519Pubkey(k PublicKey) *ArgBuilder {
	v := make([]byte, PublicKeySize)
	copy(v, k[:])
	ab.args = append(ab.args, Argument{Kind: ArgX25519Pubkey, Value: v})
	return ab
}

// PlaintextU128 appends a 128 bit plaintext argument.
func (ab *ArgBuilder) PlaintextU128(n Nonce) *ArgBuilder {
	v := make([]byte, NonceSize)
	copy(v, n[:])
	ab.args = append(ab.args, Argument{Kind: ArgPlaintextU128, Value: v})
	return ab
}

// Account appends a reference to length bytes of an account's data,
// starting at offset.
func (ab *ArgBuilder) Account(addr *id.ID, offset, length uint32) *ArgBuilder {
	ab.args = append(ab.args, Argument{
		Kind:    ArgAccount,
		Account: addr.DeepCopy(),
		Offset:  offset,
		Length:  length,
	})
	return ab
}

// Build returns the argument list.
func (ab *ArgBuilder) Build() []Argument {
	out := make([]Argument, len(ab.args))
	copy(out, ab.args)
	return out
}

// LookupSignature is the parameter list the lookup circuit is compiled with:
// receiver key, receiver nonce, sender key, sender nonce, record account.
var LookupSignature = []ArgKind{ArgX25519Pubkey, ArgPlaintextU128,
	ArgX25519Pubkey, ArgPlaintextU128, ArgAccount}

// LookupArgs are the lookup circuit's parameters bound from an argument list.
type LookupArgs struct {
	Receiver Shared
	Sender   Shared
	Record   Argument
}

// BindLookupArgs binds an argument list to the lookup circuit's parameters.
// It fails if the list does not match LookupSignature kind for kind or if the
// account reference does not span exactly one encrypted record.
func BindLookupArgs(args []Argument) (*LookupArgs, error) {
	if len(args) != len(LookupSignature) {
		return nil, errors.Errorf("Lookup takes %d arguments, received %d",
			len(LookupSignature), len(args))
	}
	for i, kind := range LookupSignature {
		if args[i].Kind != kind {
			return nil, errors.Errorf("Argument %d must be %s, received %s",
				i, kind, args[i].Kind)
		}
		if kind != ArgAccount && len(args[i].Value) != argSize(kind) {
			return nil, errors.Errorf("Argument %d (%s) must be %d bytes, "+
				"received %d", i, kind, argSize(kind), len(args[i].Value))
		}
	}

	record := args[4]
	if record.Account == nil || record.Length != RecordSize {
		return nil, errors.Errorf("Record account reference must span %d "+
			"bytes", RecordSize)
	}

	la := &LookupArgs{Record: record}
	copy(la.Receiver.PublicKey[:], args[0].Value)
	copy(la.Receiver.Nonce[:], args[1].Value)
	copy(la.Sender.PublicKey[:], args[2].Value)
	copy(la.Sender.Nonce[:], args[3].Value)
	return la, nil
}

func argSize(kind ArgKind) int {
	if kind == ArgX25519Pubkey {
		return PublicKeySize
	}
	return NonceSize
}

// U128 returns the nonce as its high and low 64 bit halves.
func (n Nonce) U128() (hi, lo uint64) {
	return binary.LittleEndian.Uint64(n[8:]), binary.LittleEndian.Uint64(n[:8])
}
