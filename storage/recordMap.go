////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Handles the Map backend for record storage

package storage

import (
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"gitlab.com/xx_network/primitives/id"
)

// InsertRecord inserts the given Record into Map if its address does not
// already have one
func (m *MapImpl) InsertRecord(record *Record) error {
	m.Lock()
	defer m.Unlock()

	addr, err := id.Unmarshal(record.Address)
	if err != nil {
		return err
	}

	if _, ok := m.records[*addr]; ok {
		return errors.WithMessagef(ErrAlreadyInitialized, "record %s", addr)
	}

	stored := &Record{}
	if err = deepCopy(stored, record); err != nil {
		return err
	}
	m.records[*addr] = stored
	return nil
}

// GetRecord returns a copy of the Record from Map with the given address
// Or an error if a matching Record does not exist
func (m *MapImpl) GetRecord(address *id.ID) (*Record, error) {
	m.RLock()
	defer m.RUnlock()

	val, ok := m.records[*address]
	if !ok {
		return nil, errors.WithMessagef(ErrNotFound, "record %s", address)
	}

	result := &Record{}
	return result, deepCopy(result, val)
}

// InsertComputationDefinition inserts the given ComputationDefinition into
// Map if it does not already exist
func (m *MapImpl) InsertComputationDefinition(def *ComputationDefinition) error {
	m.Lock()
	defer m.Unlock()

	addr, err := id.Unmarshal(def.Address)
	if err != nil {
		return err
	}

	if _, ok := m.definitions[*addr]; ok {
		return errors.WithMessagef(ErrAlreadyInitialized,
			"computation definition %s", def.Name)
	}

	stored := &ComputationDefinition{}
	if err = deepCopy(stored, def); err != nil {
		return err
	}
	m.definitions[*addr] = stored
	return nil
}

// GetComputationDefinition returns the program's ComputationDefinition at
// offset from Map, or an error if it does not exist
func (m *MapImpl) GetComputationDefinition(program *id.ID,
	offset uint32) (*ComputationDefinition, error) {
	m.RLock()
	defer m.RUnlock()

	programBytes := string(program.Marshal())
	for _, def := range m.definitions {
		if def.CompDefOffset == offset && string(def.Program) == programBytes {
			result := &ComputationDefinition{}
			return result, deepCopy(result, def)
		}
	}
	return nil, errors.WithMessagef(ErrNotFound,
		"computation definition %d of %s", offset, program)
}

// Copies so that callers never share slices with the map
func deepCopy(to, from interface{}) error {
	return copier.CopyWithOption(to, from, copier.Option{DeepCopy: true})
}
