///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package messages

// messages.go contains the node service's requests and responses

import (
	"github.com/pkg/errors"
	"gitlab.com/elixxir/privaterecord/circuit"
	"gitlab.com/xx_network/primitives/id"
)

// Signed wraps a request body with the sender's key and signature. The
// sender's ID is derived from its key and salt.
type Signed struct {
	Body      []byte
	Salt      []byte
	PublicKey []byte // PEM
	Signature []byte
}

func (m *Signed) Marshal() []byte {
	var w Writer
	w.Bytes(1, m.Body)
	w.Bytes(2, m.Salt)
	w.Bytes(3, m.PublicKey)
	w.Bytes(4, m.Signature)
	return w
}

func (m *Signed) Unmarshal(b []byte) error {
	f, err := Parse(b)
	if err != nil {
		return err
	}
	m.Body = copyBytes(f.Bytes(1))
	m.Salt = copyBytes(f.Bytes(2))
	m.PublicKey = copyBytes(f.Bytes(3))
	m.Signature = copyBytes(f.Bytes(4))
	return nil
}

// Ack is the empty response
type Ack struct{}

func (m *Ack) Marshal() []byte          { return nil }
func (m *Ack) Unmarshal(b []byte) error { _, err := Parse(b); return err }

// StoreRecordRequest carries the sender's encrypted record
type StoreRecordRequest struct {
	Ciphertexts circuit.EncryptedRecord
}

func (m *StoreRecordRequest) Marshal() []byte {
	var w Writer
	for i := range m.Ciphertexts {
		w.Bytes(1, m.Ciphertexts[i][:])
	}
	return w
}

func (m *StoreRecordRequest) Unmarshal(b []byte) error {
	f, err := Parse(b)
	if err != nil {
		return err
	}
	return unmarshalCiphertexts(f.Repeated(1), &m.Ciphertexts)
}

// RecordRef locates a stored record
type RecordRef struct {
	Address *id.ID
	Owner   *id.ID
	Offset  uint32
	Length  uint32
}

func (m *RecordRef) Marshal() []byte {
	var w Writer
	w.ID(1, m.Address)
	w.ID(2, m.Owner)
	w.Uint64(3, uint64(m.Offset))
	w.Uint64(4, uint64(m.Length))
	return w
}

func (m *RecordRef) Unmarshal(b []byte) error {
	f, err := Parse(b)
	if err != nil {
		return err
	}
	if m.Address, err = f.ID(1); err != nil {
		return err
	}
	if m.Owner, err = f.ID(2); err != nil {
		return err
	}
	m.Offset = uint32(f.Uint64(3))
	m.Length = uint32(f.Uint64(4))
	return nil
}

// InitComputationDefinitionRequest names the circuit to initialize
type InitComputationDefinitionRequest struct {
	Name string
}

func (m *InitComputationDefinitionRequest) Marshal() []byte {
	var w Writer
	w.Bytes(1, []byte(m.Name))
	return w
}

func (m *InitComputationDefinitionRequest) Unmarshal(b []byte) error {
	f, err := Parse(b)
	if err != nil {
		return err
	}
	m.Name = string(f.Bytes(1))
	return nil
}

// InitComputationDefinitionResponse returns the definition's offset
type InitComputationDefinitionResponse struct {
	CompDefOffset uint32
}

func (m *InitComputationDefinitionResponse) Marshal() []byte {
	var w Writer
	w.Uint64(1, uint64(m.CompDefOffset))
	return w
}

func (m *InitComputationDefinitionResponse) Unmarshal(b []byte) error {
	f, err := Parse(b)
	if err != nil {
		return err
	}
	m.CompDefOffset = uint32(f.Uint64(1))
	return nil
}

// DispatchComputationRequest asks for the owner's record to be re-encrypted
// for the receiver. A nil Owner means the sender's own record.
type DispatchComputationRequest struct {
	ComputationOffset uint64
	Receiver          circuit.PublicKey
	ReceiverNonce     circuit.Nonce
	Sender            circuit.PublicKey
	SenderNonce       circuit.Nonce
	Owner             *id.ID
}

func (m *DispatchComputationRequest) Marshal() []byte {
	var w Writer
	w.Uint64(1, m.ComputationOffset)
	w.Bytes(2, m.Receiver[:])
	w.Bytes(3, m.ReceiverNonce[:])
	w.Bytes(4, m.Sender[:])
	w.Bytes(5, m.SenderNonce[:])
	w.ID(6, m.Owner)
	return w
}

func (m *DispatchComputationRequest) Unmarshal(b []byte) error {
	f, err := Parse(b)
	if err != nil {
		return err
	}
	m.ComputationOffset = f.Uint64(1)
	if err = fixed(m.Receiver[:], f.Bytes(2), "receiver"); err != nil {
		return err
	}
	if err = fixed(m.ReceiverNonce[:], f.Bytes(3), "receiver nonce"); err != nil {
		return err
	}
	if err = fixed(m.Sender[:], f.Bytes(4), "sender"); err != nil {
		return err
	}
	if err = fixed(m.SenderNonce[:], f.Bytes(5), "sender nonce"); err != nil {
		return err
	}
	m.Owner, err = f.ID(6)
	return err
}

// ComputationCallback delivers a cluster's signed output for an offset
type ComputationCallback struct {
	ComputationOffset uint64
	Output            []byte
}

func (m *ComputationCallback) Marshal() []byte {
	var w Writer
	w.Uint64(1, m.ComputationOffset)
	w.Bytes(2, m.Output)
	return w
}

func (m *ComputationCallback) Unmarshal(b []byte) error {
	f, err := Parse(b)
	if err != nil {
		return err
	}
	m.ComputationOffset = f.Uint64(1)
	m.Output = copyBytes(f.Bytes(2))
	return nil
}

// GetComputationEventRequest asks for the event emitted for an offset
type GetComputationEventRequest struct {
	ComputationOffset uint64
}

func (m *GetComputationEventRequest) Marshal() []byte {
	var w Writer
	w.Uint64(1, m.ComputationOffset)
	return w
}

func (m *GetComputationEventRequest) Unmarshal(b []byte) error {
	f, err := Parse(b)
	if err != nil {
		return err
	}
	m.ComputationOffset = f.Uint64(1)
	return nil
}

// ComputationEvent is a verified output event
type ComputationEvent struct {
	ComputationOffset uint64
	Nonce             circuit.Nonce
	Fields            circuit.EncryptedRecord
}

func (m *ComputationEvent) Marshal() []byte {
	var w Writer
	w.Uint64(1, m.ComputationOffset)
	w.Bytes(2, m.Nonce[:])
	for i := range m.Fields {
		w.Bytes(3, m.Fields[i][:])
	}
	return w
}

func (m *ComputationEvent) Unmarshal(b []byte) error {
	f, err := Parse(b)
	if err != nil {
		return err
	}
	m.ComputationOffset = f.Uint64(1)
	if err = fixed(m.Nonce[:], f.Bytes(2), "nonce"); err != nil {
		return err
	}
	return unmarshalCiphertexts(f.Repeated(3), &m.Fields)
}

func unmarshalCiphertexts(vals [][]byte, er *circuit.EncryptedRecord) error {
	if len(vals) != circuit.NumFields {
		return errors.Errorf("Record must have %d fields, received %d",
			circuit.NumFields, len(vals))
	}
	for i, v := range vals {
		if err := fixed(er[i][:], v, circuit.Field(i).String()); err != nil {
			return err
		}
	}
	return nil
}

// Copies v into dst, which must be exactly as long
func fixed(dst, v []byte, name string) error {
	if len(v) != len(dst) {
		return errors.Errorf("%s must be %d bytes, received %d",
			name, len(dst), len(v))
	}
	copy(dst, v)
	return nil
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// AccountRequest asks for the raw data of an account
type AccountRequest struct {
	Address *id.ID
}

func (m *AccountRequest) Marshal() []byte {
	var w Writer
	w.ID(1, m.Address)
	return w
}

func (m *AccountRequest) Unmarshal(b []byte) error {
	f, err := Parse(b)
	if err != nil {
		return err
	}
	m.Address, err = f.ID(1)
	return err
}

// AccountData is the raw data of an account
type AccountData struct {
	Data []byte
}

func (m *AccountData) Marshal() []byte {
	var w Writer
	w.Bytes(1, m.Data)
	return w
}

func (m *AccountData) Unmarshal(b []byte) error {
	f, err := Parse(b)
	if err != nil {
		return err
	}
	m.Data = copyBytes(f.Bytes(1))
	return nil
}

// DefinitionQuery asks whether a program's computation definition exists
type DefinitionQuery struct {
	Program       *id.ID
	CompDefOffset uint32
}

func (m *DefinitionQuery) Marshal() []byte {
	var w Writer
	w.ID(1, m.Program)
	w.Uint64(2, uint64(m.CompDefOffset))
	return w
}

func (m *DefinitionQuery) Unmarshal(b []byte) error {
	f, err := Parse(b)
	if err != nil {
		return err
	}
	if m.Program, err = f.ID(1); err != nil {
		return err
	}
	m.CompDefOffset = uint32(f.Uint64(2))
	return nil
}

// DefinitionStatus answers a DefinitionQuery
type DefinitionStatus struct {
	Initialized bool
}

func (m *DefinitionStatus) Marshal() []byte {
	var w Writer
	if m.Initialized {
		w.Uint64(1, 1)
	}
	return w
}

func (m *DefinitionStatus) Unmarshal(b []byte) error {
	f, err := Parse(b)
	if err != nil {
		return err
	}
	m.Initialized = f.Uint64(1) != 0
	return nil
}
