////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package address derives the deterministic account addresses used by the
// record program and the confidential computation provider. Every function
// here is pure: the same seeds always produce the same address, so addresses
// can be recomputed by clients, the node and the cluster independently.
package address

import (
	"crypto/sha256"
	"encoding/binary"

	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/xx_network/primitives/id"
	"golang.org/x/crypto/blake2b"
)

// Seeds used for account derivation
const (
	RecordSeed          = "patient_data"
	SignerSeed          = "SignerAccount"
	MXESeed             = "MXEAccount"
	MempoolSeed         = "Mempool"
	ExecutingPoolSeed   = "Execpool"
	ComputationSeed     = "ComputationAccount"
	CompDefSeed         = "ComputationDefinitionAccount"
	ClusterSeed         = "Cluster"
	providerProgramSeed = "ConfidentialComputeProvider"
)

// Provider is the program ID of the confidential computation provider. All
// provider-owned accounts are derived under it.
var Provider = Derive(nil, []byte(providerProgramSeed))

// Derive hashes the seed components under the owning program into an address.
// Seeds are length prefixed so that ("ab", "c") and ("a", "bc") never collide.
func Derive(program *id.ID, seeds ...[]byte) *id.ID {
	h, err := blake2b.New256(nil)
	if err != nil {
		jww.FATAL.Panicf("Could not get blake2b hash: %s", err.Error())
	}

	var lenBuf [4]byte
	for _, seed := range seeds {
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(seed)))
		h.Write(lenBuf[:])
		h.Write(seed)
	}
	if program != nil {
		h.Write(program.Marshal())
	}

	addr := &id.ID{}
	copy(addr[:], h.Sum(nil))
	addr.SetType(id.Generic)
	return addr
}

// CompDefOffset returns the stable offset of the computation definition for
// the named circuit: the first four bytes of SHA-256(name), little endian.
func CompDefOffset(name string) uint32 {
	digest := sha256.Sum256([]byte(name))
	return binary.LittleEndian.Uint32(digest[:4])
}

// RecordAddress is the address of the encrypted record owned by owner.
func RecordAddress(program, owner *id.ID) *id.ID {
	return Derive(program, []byte(RecordSeed), owner.Marshal())
}

// SignerAddress is the program's signing account used when queueing.
func SignerAddress(program *id.ID) *id.ID {
	return Derive(program, []byte(SignerSeed))
}

// MXEAddress is the program's execution environment account at the provider.
func MXEAddress(program *id.ID) *id.ID {
	return Derive(Provider, []byte(MXESeed), program.Marshal())
}

// MempoolAddress is the admission queue account of a cluster.
func MempoolAddress(clusterOffset uint32) *id.ID {
	return Derive(Provider, []byte(MempoolSeed), u32(clusterOffset))
}

// ExecutingPoolAddress is the executing pool account of a cluster.
func ExecutingPoolAddress(clusterOffset uint32) *id.ID {
	return Derive(Provider, []byte(ExecutingPoolSeed), u32(clusterOffset))
}

// ComputationAddress identifies one computation instance on a cluster.
func ComputationAddress(clusterOffset uint32, computationOffset uint64) *id.ID {
	return Derive(Provider, []byte(ComputationSeed), u32(clusterOffset),
		u64(computationOffset))
}

// CompDefAddress is the computation definition account of the program's
// circuit at the given offset.
func CompDefAddress(program *id.ID, compDefOffset uint32) *id.ID {
	return Derive(Provider, []byte(CompDefSeed), program.Marshal(),
		u32(compDefOffset))
}

// ClusterAddress is the account of the cluster at the given offset.
func ClusterAddress(clusterOffset uint32) *id.ID {
	return Derive(Provider, []byte(ClusterSeed), u32(clusterOffset))
}

func u32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func u64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}
