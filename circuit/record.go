////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package circuit

// record.go contains the patient record layout shared by the circuit's input
// and output encodings and by the record store.

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Sizes of the encrypted record layout
const (
	CiphertextSize = 32
	NonceSize      = 16
	PublicKeySize  = 32
	NumAllergies   = 5
	NumFields      = 6 + NumAllergies
	RecordSize     = NumFields * CiphertextSize
)

// LookupName is the circuit identity of the private record lookup.
const LookupName = "private_record_lookup"

// Field indexes a slot of the encrypted record. The order is fixed and shared
// between the store, the circuit and the emitted events.
type Field uint8

const (
	PatientID Field = iota
	Age
	Gender
	BloodType
	Weight
	Height
	Allergy0
	Allergy1
	Allergy2
	Allergy3
	Allergy4
)

// String returns the name of the field, primarily for error prints
func (f Field) String() string {
	switch f {
	case PatientID:
		return "patient_id"
	case Age:
		return "age"
	case Gender:
		return "gender"
	case BloodType:
		return "blood_type"
	case Weight:
		return "weight"
	case Height:
		return "height"
	default:
		if f >= Allergy0 && f <= Allergy4 {
			return fmt.Sprintf("allergy%d", f-Allergy0)
		}
		return fmt.Sprintf("UNKNOWN FIELD: %d", uint8(f))
	}
}

// widths of each field in bits, indexed by Field
var fieldWidths = [NumFields]uint{64, 8, 1, 8, 16, 16, 1, 1, 1, 1, 1}

// Ciphertext is one opaque encrypted field.
type Ciphertext [CiphertextSize]byte

// Nonce is a 128 bit nonce, stored little endian.
type Nonce [NonceSize]byte

// PublicKey is an x25519 public key.
type PublicKey [PublicKeySize]byte

// EncryptedRecord holds one ciphertext per record field, in Field order.
type EncryptedRecord [NumFields]Ciphertext

// Bytes serializes the record as its 11 consecutive slots.
func (er *EncryptedRecord) Bytes() []byte {
	b := make([]byte, 0, RecordSize)
	for i := range er {
		b = append(b, er[i][:]...)
	}
	return b
}

// UnmarshalEncryptedRecord reads a record from its 11 consecutive slots.
func UnmarshalEncryptedRecord(b []byte) (EncryptedRecord, error) {
	var er EncryptedRecord
	if len(b) != RecordSize {
		return er, errors.Errorf("Encrypted record must be %d bytes, "+
			"received %d", RecordSize, len(b))
	}
	for i := range er {
		copy(er[i][:], b[i*CiphertextSize:(i+1)*CiphertextSize])
	}
	return er, nil
}

// NonceFromUint128 builds a nonce from the high and low halves of a u128.
func NonceFromUint128(hi, lo uint64) Nonce {
	var n Nonce
	binary.LittleEndian.PutUint64(n[:8], lo)
	binary.LittleEndian.PutUint64(n[8:], hi)
	return n
}

// StructuredRecord is the plaintext patient record. It only ever exists
// inside the computation boundary and on the clients that own the keys.
type StructuredRecord struct {
	PatientID uint64
	Age       uint8
	Gender    bool
	BloodType uint8
	Weight    uint16
	Height    uint16
	Allergies [NumAllergies]bool
}

// fields flattens the record into its field values, in Field order.
func (r StructuredRecord) fields() [NumFields]uint64 {
	var v [NumFields]uint64
	v[PatientID] = r.PatientID
	v[Age] = uint64(r.Age)
	v[Gender] = boolToUint(r.Gender)
	v[BloodType] = uint64(r.BloodType)
	v[Weight] = uint64(r.Weight)
	v[Height] = uint64(r.Height)
	for i, a := range r.Allergies {
		v[int(Allergy0)+i] = boolToUint(a)
	}
	return v
}

// recordFromFields rebuilds a record from field values. A value that does not
// fit its field is a decryption failure.
func recordFromFields(v [NumFields]uint64) (StructuredRecord, error) {
	for i, width := range fieldWidths {
		if width < 64 && v[i] > uint64(math.MaxUint64)>>(64-width) {
			return StructuredRecord{}, errors.Errorf("Value of field %s "+
				"does not fit in %d bits", Field(i), width)
		}
	}

	r := StructuredRecord{
		PatientID: v[PatientID],
		Age:       uint8(v[Age]),
		Gender:    v[Gender] == 1,
		BloodType: uint8(v[BloodType]),
		Weight:    uint16(v[Weight]),
		Height:    uint16(v[Height]),
	}
	for i := range r.Allergies {
		r.Allergies[i] = v[int(Allergy0)+i] == 1
	}
	return r, nil
}

func boolToUint(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
