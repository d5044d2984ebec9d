////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package measure

// measure_tags.go contains the string constants for our measure tags

// Constants for Tag strings used by Measure()
const (
	TagDispatched         = "Dispatched"
	TagQueuedWithProvider = "Queued With Provider"
	TagCallbackReceived   = "Callback Received"
	TagOutputVerified     = "Output Verified"
	TagEventEmitted       = "Event Emitted"
	TagAborted            = "Aborted"
)
