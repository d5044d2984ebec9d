///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package computation

import (
	"fmt"
)

type Status uint32

const (
	DISPATCHED = Status(iota)
	COMPLETED
	ABORTED
	NUM_STATUS
)

// Stringer to get the name of the status, primarily for for error prints
func (s Status) String() string {
	switch s {
	case DISPATCHED:
		return "DISPATCHED"
	case COMPLETED:
		return "COMPLETED"
	case ABORTED:
		return "ABORTED"
	default:
		return fmt.Sprintf("UNKNOWN STATUS: %d", s)
	}
}
