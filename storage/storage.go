///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

// Handles the high level storage API.
// This layer merges the business logic layer and the database layer

package storage

import (
	"crypto/sha256"
	"time"

	"github.com/pkg/errors"
	"gitlab.com/elixxir/privaterecord/address"
	"gitlab.com/elixxir/privaterecord/circuit"
	"gitlab.com/xx_network/primitives/id"
)

// HeaderSize is the length of the discriminator that precedes the record
// slots in a record account's data.
const HeaderSize = 8

// RecordDiscriminator tags account data holding an encrypted patient record
var RecordDiscriminator = discriminator("account:PatientData")

// Storage API for the storage layer
type Storage struct {
	// Stored database interface
	database
}

// RecordRef points at the slots of a stored record. It is what the
// dispatcher hands to the provider in place of the record itself.
type RecordRef struct {
	Address *id.ID
	Owner   *id.ID
	Offset  uint32
	Length  uint32
}

// NewStorage Create a new Storage object wrapping a database interface
// Returns a Storage object, close function, and error
func NewStorage(username, password, dbName, address, port string, devMode bool) (*Storage, error) {
	db, err := newDatabase(username, password, dbName, address, port, devMode)
	storage := &Storage{db}
	return storage, err
}

// StoreRecord creates the record account for owner under program. Records are
// written once; a second call for the same owner fails with
// ErrAlreadyInitialized. Ciphertexts are stored as given.
func (s *Storage) StoreRecord(program, owner *id.ID,
	ct circuit.EncryptedRecord) (*RecordRef, error) {
	addr := address.RecordAddress(program, owner)

	err := s.InsertRecord(&Record{
		Address:     addr.Marshal(),
		Owner:       owner.Marshal(),
		Ciphertexts: ct.Bytes(),
		CreatedAt:   time.Now(),
	})
	if err != nil {
		return nil, err
	}
	return newRecordRef(addr, owner), nil
}

// GetRecordRef returns the reference to owner's stored record, or
// ErrNotFound if owner has not stored one.
func (s *Storage) GetRecordRef(program, owner *id.ID) (*RecordRef, error) {
	addr := address.RecordAddress(program, owner)
	if _, err := s.GetRecord(addr); err != nil {
		return nil, err
	}
	return newRecordRef(addr, owner), nil
}

// ReadAccount returns the raw data of the record account at addr: the
// discriminator followed by the ciphertext slots.
func (s *Storage) ReadAccount(addr *id.ID) ([]byte, error) {
	r, err := s.GetRecord(addr)
	if err != nil {
		return nil, err
	}
	if len(r.Ciphertexts) != circuit.RecordSize {
		return nil, errors.Errorf("Record %s holds %d bytes, expected %d",
			addr, len(r.Ciphertexts), circuit.RecordSize)
	}

	data := make([]byte, 0, HeaderSize+circuit.RecordSize)
	data = append(data, RecordDiscriminator[:]...)
	return append(data, r.Ciphertexts...), nil
}

// InitComputationDefinition creates the computation definition for the named
// circuit under program. It may be called once per circuit; later calls fail
// with ErrAlreadyInitialized.
func (s *Storage) InitComputationDefinition(program *id.ID,
	name string) (uint32, error) {
	offset := address.CompDefOffset(name)
	err := s.InsertComputationDefinition(&ComputationDefinition{
		Address:       address.CompDefAddress(program, offset).Marshal(),
		Program:       program.Marshal(),
		CompDefOffset: offset,
		Name:          name,
		CreatedAt:     time.Now(),
	})
	return offset, err
}

// IsInitialized reports whether the program's computation definition at
// offset exists
func (s *Storage) IsInitialized(program *id.ID, offset uint32) bool {
	_, err := s.GetComputationDefinition(program, offset)
	return err == nil
}

func newRecordRef(addr, owner *id.ID) *RecordRef {
	return &RecordRef{
		Address: addr,
		Owner:   owner.DeepCopy(),
		Offset:  HeaderSize,
		Length:  circuit.RecordSize,
	}
}

func discriminator(name string) [HeaderSize]byte {
	var d [HeaderSize]byte
	digest := sha256.Sum256([]byte(name))
	copy(d[:], digest[:HeaderSize])
	return d
}
