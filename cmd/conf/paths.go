///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package conf

// Paths contains the config params for
// required file paths used by the system
type Paths struct {
	Idf string
	Key string
	Log string
}

// ClusterPaths contains the paths of the cluster's keys. Cert holds the
// PEM public key outputs are verified with, Key the PEM private key they
// are signed with.
type ClusterPaths struct {
	Cert string
	Key  string
}
