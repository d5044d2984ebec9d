///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package computation

import (
	"fmt"

	"github.com/pkg/errors"
)

// Errors a computation ends with. None are retried.
var (
	// The output could not be attributed to this computation on the expected
	// cluster, or the provider reported an abort
	ErrAbortedComputation = errors.New("computation aborted")
	// The output is authentic but is not a nonce and eleven ciphertexts
	ErrMalformedOutputShape = errors.New("malformed computation output")
	// The provider refused to admit the computation
	ErrProviderRejected = errors.New("provider rejected computation")
)

// ProviderRejectedError carries the provider's reason for refusing a
// computation. It matches ErrProviderRejected and unwraps to the reason.
type ProviderRejectedError struct {
	Offset uint64
	Reason error
}

func (e *ProviderRejectedError) Error() string {
	return fmt.Sprintf("%s %d: %v", ErrProviderRejected, e.Offset, e.Reason)
}

func (e *ProviderRejectedError) Unwrap() error {
	return e.Reason
}

func (e *ProviderRejectedError) Is(target error) bool {
	return target == ErrProviderRejected
}
