///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package io

// storeRecord.go contains the handler for StoreRecord

import (
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/privaterecord/comms"
	"gitlab.com/elixxir/privaterecord/internal"
	"gitlab.com/elixxir/privaterecord/messages"
)

// ReceiveStoreRecord creates the sender's record account holding the
// ciphertexts as given. A sender has at most one record.
func ReceiveStoreRecord(instance *internal.Instance,
	msg *messages.StoreRecordRequest, auth *comms.Auth) (*messages.RecordRef, error) {
	if !auth.IsAuthenticated {
		jww.WARN.Printf("[%v]: ReceiveStoreRecord failed auth (sender ID: %s)",
			instance, auth.Sender)
		return nil, comms.AuthError(auth.Sender)
	}
	jww.INFO.Printf("[%v]: StoreRecord for %s START", instance, auth.Sender)

	ref, err := instance.GetStorage().StoreRecord(instance.GetProgram(),
		auth.Sender, msg.Ciphertexts)
	if err != nil {
		jww.WARN.Printf("[%v]: StoreRecord for %s failed: %+v", instance,
			auth.Sender, err)
		return nil, err
	}

	jww.INFO.Printf("[%v]: StoreRecord for %s END, stored at %s", instance,
		auth.Sender, ref.Address)
	return &messages.RecordRef{
		Address: ref.Address,
		Owner:   ref.Owner,
		Offset:  ref.Offset,
		Length:  ref.Length,
	}, nil
}
