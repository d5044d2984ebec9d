///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package internal

import (
	"context"

	"gitlab.com/elixxir/privaterecord/comms"
	"gitlab.com/elixxir/privaterecord/messages"
)

// implSink hands an in process cluster's outputs straight to the node's
// callback handler, as an unauthenticated caller would over the network
type implSink struct {
	impl *comms.Implementation
}

func (s implSink) ComputationCallback(ctx context.Context,
	computationOffset uint64, output []byte) error {
	return s.impl.Functions.ComputationCallback(ctx,
		&messages.ComputationCallback{
			ComputationOffset: computationOffset,
			Output:            output,
		}, &comms.Auth{})
}
