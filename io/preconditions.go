///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package io

// preconditions.go contains the account checks handlers make before acting

import (
	"fmt"

	"gitlab.com/elixxir/privaterecord/address"
	"gitlab.com/elixxir/privaterecord/circuit"
	"gitlab.com/elixxir/privaterecord/storage"
	"gitlab.com/xx_network/primitives/id"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ConstraintError reports an account that does not satisfy a handler's
// precondition
type ConstraintError struct {
	Constraint string
	Account    *id.ID
}

func (e *ConstraintError) Error() string {
	if e.Account == nil {
		return fmt.Sprintf("constraint violated: %s", e.Constraint)
	}
	return fmt.Sprintf("constraint violated by %s: %s", e.Account, e.Constraint)
}

// GRPCStatus lets the transport report the violation as a bad argument
func (e *ConstraintError) GRPCStatus() *status.Status {
	return status.New(codes.InvalidArgument, e.Error())
}

// requireRecordSpan checks that ref is the program's record account for its
// owner and spans exactly the record's ciphertexts
func requireRecordSpan(program *id.ID, ref *storage.RecordRef) error {
	expected := address.RecordAddress(program, ref.Owner)
	if !ref.Address.Cmp(expected) {
		return &ConstraintError{
			Constraint: fmt.Sprintf("record account must be %s", expected),
			Account:    ref.Address,
		}
	}
	if ref.Offset != storage.HeaderSize || ref.Length != circuit.RecordSize {
		return &ConstraintError{
			Constraint: fmt.Sprintf("record span must be [%d, %d), is [%d, %d)",
				storage.HeaderSize, storage.HeaderSize+circuit.RecordSize,
				ref.Offset, ref.Offset+ref.Length),
			Account: ref.Address,
		}
	}
	return nil
}

// requireLookupCircuit checks that name is the circuit this program defines
func requireLookupCircuit(name string) error {
	if name != circuit.LookupName {
		return &ConstraintError{
			Constraint: fmt.Sprintf("unknown circuit %q", name),
		}
	}
	return nil
}
