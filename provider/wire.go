///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package provider

// wire.go contains the encoding of a queued computation sent to a remote
// cluster

import (
	"github.com/pkg/errors"
	"gitlab.com/elixxir/privaterecord/circuit"
	"gitlab.com/elixxir/privaterecord/messages"
	"gitlab.com/xx_network/primitives/id"
)

func (qc *QueuedComputation) Marshal() []byte {
	var w messages.Writer
	w.Uint64(1, qc.ComputationOffset)
	w.ID(2, qc.Computation)
	w.Uint64(3, uint64(qc.CompDefOffset))
	w.ID(4, qc.Program)
	w.ID(5, qc.MXE)
	w.Uint64(6, uint64(qc.ClusterOffset))
	for _, arg := range qc.Args {
		w.Bytes(7, marshalArgument(arg))
	}
	for _, cb := range qc.Callbacks {
		w.Bytes(8, marshalCallback(cb))
	}
	w.ID(9, qc.Payer)
	w.ID(10, qc.Signer)
	w.ID(11, qc.Mempool)
	w.ID(12, qc.ExecutingPool)
	return w
}

func (qc *QueuedComputation) Unmarshal(b []byte) error {
	f, err := messages.Parse(b)
	if err != nil {
		return err
	}
	qc.ComputationOffset = f.Uint64(1)
	if qc.Computation, err = f.ID(2); err != nil {
		return err
	}
	qc.CompDefOffset = uint32(f.Uint64(3))
	if qc.Program, err = f.ID(4); err != nil {
		return err
	}
	if qc.MXE, err = f.ID(5); err != nil {
		return err
	}
	qc.ClusterOffset = uint32(f.Uint64(6))

	qc.Args = nil
	for i, raw := range f.Repeated(7) {
		arg, err := unmarshalArgument(raw)
		if err != nil {
			return errors.WithMessagef(err, "Argument %d", i)
		}
		qc.Args = append(qc.Args, arg)
	}
	qc.Callbacks = nil
	for i, raw := range f.Repeated(8) {
		cb, err := unmarshalCallback(raw)
		if err != nil {
			return errors.WithMessagef(err, "Callback %d", i)
		}
		qc.Callbacks = append(qc.Callbacks, cb)
	}
	if qc.Payer, err = f.ID(9); err != nil {
		return err
	}
	if qc.Signer, err = f.ID(10); err != nil {
		return err
	}
	if qc.Mempool, err = f.ID(11); err != nil {
		return err
	}
	qc.ExecutingPool, err = f.ID(12)
	return err
}

func marshalArgument(arg circuit.Argument) []byte {
	var w messages.Writer
	w.Uint64(1, uint64(arg.Kind))
	w.Bytes(2, arg.Value)
	w.ID(3, arg.Account)
	w.Uint64(4, uint64(arg.Offset))
	w.Uint64(5, uint64(arg.Length))
	return w
}

func unmarshalArgument(b []byte) (circuit.Argument, error) {
	f, err := messages.Parse(b)
	if err != nil {
		return circuit.Argument{}, err
	}
	arg := circuit.Argument{
		Kind:   circuit.ArgKind(f.Uint64(1)),
		Offset: uint32(f.Uint64(4)),
		Length: uint32(f.Uint64(5)),
	}
	if v := f.Bytes(2); v != nil {
		arg.Value = append([]byte(nil), v...)
	}
	arg.Account, err = f.ID(3)
	return arg, err
}

func marshalCallback(cb CallbackDescriptor) []byte {
	var w messages.Writer
	w.Bytes(1, []byte(cb.Instruction))
	w.Uint64(2, cb.ComputationOffset)
	w.ID(3, cb.MXE)
	for _, acct := range cb.Accounts {
		w.ID(4, acct)
	}
	return w
}

func unmarshalCallback(b []byte) (CallbackDescriptor, error) {
	f, err := messages.Parse(b)
	if err != nil {
		return CallbackDescriptor{}, err
	}
	cb := CallbackDescriptor{
		Instruction:       string(f.Bytes(1)),
		ComputationOffset: f.Uint64(2),
	}
	if cb.MXE, err = f.ID(3); err != nil {
		return cb, err
	}
	for _, raw := range f.Repeated(4) {
		acct, err := id.Unmarshal(raw)
		if err != nil {
			return cb, err
		}
		cb.Accounts = append(cb.Accounts, acct)
	}
	return cb, nil
}
