///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package comms

// errors.go carries sentinel errors across the wire as status codes

import (
	"github.com/pkg/errors"
	"gitlab.com/elixxir/privaterecord/events"
	"gitlab.com/elixxir/privaterecord/internal/computation"
	"gitlab.com/elixxir/privaterecord/provider"
	"gitlab.com/elixxir/privaterecord/storage"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type errorCode struct {
	err  error
	code codes.Code
}

// Each code appears once per service so the client can recover the sentinel
var nodeErrors = []errorCode{
	{storage.ErrAlreadyInitialized, codes.AlreadyExists},
	{storage.ErrNotFound, codes.NotFound},
	{events.ErrNoEvent, codes.OutOfRange},
	{computation.ErrProviderRejected, codes.FailedPrecondition},
	{computation.ErrAbortedComputation, codes.Aborted},
	{computation.ErrMalformedOutputShape, codes.DataLoss},
}

var clusterErrors = []errorCode{
	{provider.ErrDuplicateOffset, codes.AlreadyExists},
	{provider.ErrUnknownDefinition, codes.NotFound},
	{provider.ErrMalformedArguments, codes.InvalidArgument},
	{provider.ErrQueueFull, codes.ResourceExhausted},
}

// toStatus converts err to a status error if it wraps a known sentinel.
// Errors that already are status errors pass through.
func toStatus(err error, table []errorCode) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	for _, ec := range table {
		if errors.Is(err, ec.err) {
			return status.Error(ec.code, err.Error())
		}
	}
	return status.Error(codes.Unknown, err.Error())
}

// fromStatus restores the sentinel behind a status error
func fromStatus(err error, table []errorCode) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	for _, ec := range table {
		if st.Code() == ec.code {
			return errors.WithMessage(ec.err, st.Message())
		}
	}
	return err
}
