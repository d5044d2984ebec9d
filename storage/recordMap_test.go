///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package storage

import (
	"testing"

	"github.com/pkg/errors"
	"gitlab.com/xx_network/primitives/id"
)

// Hidden function for one-time unit testing database implementation
func (m *MapImpl) getRecordCount() int {
	m.RLock()
	defer m.RUnlock()
	return len(m.records)
}

// Happy path
func TestMapImpl_InsertRecord(t *testing.T) {
	m := newMapImpl()
	addr := id.NewIdFromString("addr", id.Generic, t)

	err := m.InsertRecord(&Record{
		Address:     addr.Marshal(),
		Owner:       []byte("owner"),
		Ciphertexts: []byte("ct"),
	})
	if err != nil {
		t.Fatalf("Failed to insert record: %+v", err)
	}
	if m.getRecordCount() != 1 {
		t.Errorf("Record was not inserted")
	}
}

// Error path: an address holds one record, while an owner may hold records
// at other addresses.
func TestMapImpl_InsertRecord_SameAddress(t *testing.T) {
	m := newMapImpl()
	addr := id.NewIdFromString("a", id.Generic, t)
	_ = m.InsertRecord(&Record{Address: addr.Marshal(), Owner: []byte("owner")})

	err := m.InsertRecord(&Record{Address: addr.Marshal(), Owner: []byte("other")})
	if !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("Expected ErrAlreadyInitialized, received %+v", err)
	}

	err = m.InsertRecord(&Record{
		Address: id.NewIdFromString("b", id.Generic, t).Marshal(),
		Owner:   []byte("owner"),
	})
	if err != nil {
		t.Errorf("Owner could not store at a second address: %+v", err)
	}
	if m.getRecordCount() != 2 {
		t.Errorf("Unexpected record count %d", m.getRecordCount())
	}
}

// Error path: an invalid address is rejected.
func TestMapImpl_InsertRecord_BadAddress(t *testing.T) {
	m := newMapImpl()
	if err := m.InsertRecord(&Record{Address: []byte{1, 2}}); err == nil {
		t.Errorf("Record with an invalid address was inserted")
	}
}

// Tests that records returned by the map do not alias stored data.
func TestMapImpl_GetRecord_Copy(t *testing.T) {
	m := newMapImpl()
	addr := id.NewIdFromString("addr", id.Generic, t)
	_ = m.InsertRecord(&Record{
		Address:     addr.Marshal(),
		Owner:       []byte("owner"),
		Ciphertexts: []byte{1, 2, 3},
	})

	first, err := m.GetRecord(addr)
	if err != nil {
		t.Fatalf("Failed to get record: %+v", err)
	}
	first.Ciphertexts[0] = 9

	second, _ := m.GetRecord(addr)
	if second.Ciphertexts[0] != 1 {
		t.Errorf("Stored record was modified through a returned copy")
	}
}

// Happy path
func TestMapImpl_GetComputationDefinition(t *testing.T) {
	m := newMapImpl()
	program := id.NewIdFromString("program", id.Generic, t)
	err := m.InsertComputationDefinition(&ComputationDefinition{
		Address:       id.NewIdFromString("def", id.Generic, t).Marshal(),
		Program:       program.Marshal(),
		CompDefOffset: 42,
		Name:          "circuit",
	})
	if err != nil {
		t.Fatalf("Failed to insert definition: %+v", err)
	}

	def, err := m.GetComputationDefinition(program, 42)
	if err != nil {
		t.Fatalf("Failed to get definition: %+v", err)
	}
	if def.Name != "circuit" {
		t.Errorf("Unexpected definition %+v", def)
	}

	_, err = m.GetComputationDefinition(program, 43)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, received %+v", err)
	}
}
