///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

// Package local runs a confidential computation cluster in process. It admits
// computations into a bounded mempool, executes the lookup circuit on a pool
// of workers and delivers each signed output to the computation's callback.
package local

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/privaterecord/address"
	"gitlab.com/elixxir/privaterecord/circuit"
	"gitlab.com/elixxir/privaterecord/provider"
	"gitlab.com/xx_network/crypto/csprng"
	"gitlab.com/xx_network/crypto/signature/rsa"
	"gitlab.com/xx_network/primitives/id"
)

const (
	defaultWorkers         = 4
	defaultMempoolSize     = 1000
	defaultCallbackTimeout = 10 * time.Second
)

// Params configures a Cluster. Zero counts and timeouts take defaults.
type Params struct {
	ID              *id.ID
	Offset          uint32
	Key             *rsa.PrivateKey
	Boundary        *circuit.Boundary
	Registry        provider.Registry
	Accounts        provider.AccountReader
	Sink            provider.CallbackSink
	Workers         int
	MempoolSize     int
	CallbackTimeout time.Duration
	Rng             io.Reader
}

// Cluster is an in-process computation provider
type Cluster struct {
	p Params

	// offsets ever admitted
	seen map[uint64]struct{}
	mux  sync.Mutex

	mempool chan *job
	kill    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

type account struct {
	name          string
	got, expected *id.ID
}

type job struct {
	qc   *provider.QueuedComputation
	args *circuit.LookupArgs
}

// New creates a cluster. Call Start to begin executing admitted computations.
func New(p Params) *Cluster {
	if p.Workers <= 0 {
		p.Workers = defaultWorkers
	}
	if p.MempoolSize <= 0 {
		p.MempoolSize = defaultMempoolSize
	}
	if p.CallbackTimeout <= 0 {
		p.CallbackTimeout = defaultCallbackTimeout
	}
	if p.Rng == nil {
		p.Rng = csprng.NewSystemRNG()
	}
	return &Cluster{
		p:       p,
		seen:    make(map[uint64]struct{}),
		mempool: make(chan *job, p.MempoolSize),
		kill:    make(chan struct{}),
	}
}

// ID returns the cluster's ID
func (c *Cluster) ID() *id.ID {
	return c.p.ID
}

// PublicKey returns the key outputs are signed with
func (c *Cluster) PublicKey() *rsa.PublicKey {
	return c.p.Key.GetPublic()
}

// BoundaryKey returns the key parties encrypt records to
func (c *Cluster) BoundaryKey() circuit.PublicKey {
	return c.p.Boundary.PublicKey()
}

// QueueComputation admits a computation into the mempool. Offsets are unique
// for the life of the cluster, the definition must be initialized and the
// arguments must match the lookup circuit. A full mempool refuses the
// computation without consuming its offset.
func (c *Cluster) QueueComputation(ctx context.Context,
	qc *provider.QueuedComputation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	args, err := c.admissible(qc)
	if err != nil {
		return err
	}

	c.mux.Lock()
	defer c.mux.Unlock()

	if _, exists := c.seen[qc.ComputationOffset]; exists {
		return errors.WithMessagef(provider.ErrDuplicateOffset, "%d",
			qc.ComputationOffset)
	}

	select {
	case c.mempool <- &job{qc: qc, args: args}:
	default:
		return errors.WithMessagef(provider.ErrQueueFull, "len %d",
			len(c.mempool))
	}
	c.seen[qc.ComputationOffset] = struct{}{}

	jww.INFO.Printf("[%s]: Computation %d admitted", c.p.ID,
		qc.ComputationOffset)
	return nil
}

func (c *Cluster) admissible(qc *provider.QueuedComputation) (*circuit.LookupArgs, error) {
	if qc.ClusterOffset != c.p.Offset {
		return nil, errors.WithMessagef(provider.ErrMalformedArguments,
			"computation for cluster %d queued at cluster %d",
			qc.ClusterOffset, c.p.Offset)
	}
	if qc.Program == nil {
		return nil, errors.WithMessage(provider.ErrUnknownDefinition,
			"no program")
	}
	if qc.CompDefOffset != address.CompDefOffset(circuit.LookupName) ||
		!c.p.Registry.IsInitialized(qc.Program, qc.CompDefOffset) {
		return nil, errors.WithMessagef(provider.ErrUnknownDefinition,
			"%d", qc.CompDefOffset)
	}

	accounts := []account{
		{"computation", qc.Computation,
			address.ComputationAddress(c.p.Offset, qc.ComputationOffset)},
		{"mempool", qc.Mempool, address.MempoolAddress(c.p.Offset)},
		{"executing pool", qc.ExecutingPool,
			address.ExecutingPoolAddress(c.p.Offset)},
		{"signer", qc.Signer, address.SignerAddress(qc.Program)},
	}
	for _, a := range accounts {
		if a.got == nil || !a.got.Cmp(a.expected) {
			return nil, errors.WithMessagef(provider.ErrMalformedArguments,
				"%s account %s is not %s", a.name, a.got, a.expected)
		}
	}

	args, err := circuit.BindLookupArgs(qc.Args)
	if err != nil {
		return nil, errors.WithMessage(provider.ErrMalformedArguments,
			err.Error())
	}

	if len(qc.Callbacks) != 1 ||
		qc.Callbacks[0].Instruction != provider.CallbackInstruction ||
		qc.Callbacks[0].ComputationOffset != qc.ComputationOffset {
		return nil, errors.WithMessage(provider.ErrMalformedArguments,
			"exactly one lookup callback must be registered")
	}
	return args, nil
}

// Start launches the workers
func (c *Cluster) Start() {
	for i := 0; i < c.p.Workers; i++ {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			for {
				select {
				case j := <-c.mempool:
					c.execute(j)
				case <-c.kill:
					return
				}
			}
		}()
	}
	jww.INFO.Printf("[%s]: Cluster %d started with %d workers", c.p.ID,
		c.p.Offset, c.p.Workers)
}

// Stop halts the workers after their current computation. Computations left
// in the mempool are not executed.
func (c *Cluster) Stop() {
	c.once.Do(func() { close(c.kill) })
	c.wg.Wait()
}

func (c *Cluster) execute(j *job) {
	qc := j.qc
	so := &provider.SignedOutput{
		Cluster:           c.p.ID,
		ComputationOffset: qc.ComputationOffset,
		Computation:       qc.Computation,
		Status:            provider.Success,
	}

	out, err := c.run(j.args)
	if err != nil {
		jww.WARN.Printf("[%s]: Computation %d aborted: %+v", c.p.ID,
			qc.ComputationOffset, err)
		so.Status = provider.Aborted
	} else {
		so.Payload = provider.EncodePayload(out)
	}

	if err = so.Sign(c.p.Rng, c.p.Key); err != nil {
		jww.ERROR.Printf("[%s]: Computation %d output could not be "+
			"signed: %+v", c.p.ID, qc.ComputationOffset, err)
		return
	}
	c.deliver(qc, so.Marshal())
}

// Runs the lookup circuit on the record referenced by the arguments
func (c *Cluster) run(args *circuit.LookupArgs) (circuit.Output, error) {
	data, err := c.p.Accounts.ReadAccount(args.Record.Account)
	if err != nil {
		return circuit.Output{}, err
	}
	end := uint64(args.Record.Offset) + uint64(args.Record.Length)
	if end > uint64(len(data)) {
		return circuit.Output{}, errors.Errorf("Account %s holds %d "+
			"bytes, argument reads to %d", args.Record.Account, len(data), end)
	}

	ct, err := circuit.UnmarshalEncryptedRecord(data[args.Record.Offset:end])
	if err != nil {
		return circuit.Output{}, err
	}
	return c.p.Boundary.PrivateRecordLookup(args.Receiver,
		circuit.Enc{Owner: args.Sender, Ciphertexts: ct})
}

func (c *Cluster) deliver(qc *provider.QueuedComputation, output []byte) {
	sink := c.p.Sink
	if sink == nil {
		jww.ERROR.Printf("[%s]: No callback sink for computation %d",
			c.p.ID, qc.ComputationOffset)
		return
	}

	for _, cb := range qc.Callbacks {
		ctx, cancel := context.WithTimeout(context.Background(),
			c.p.CallbackTimeout)
		err := sink.ComputationCallback(ctx, cb.ComputationOffset, output)
		cancel()
		if err != nil {
			jww.WARN.Printf("[%s]: Callback %s for computation %d "+
				"failed: %+v", c.p.ID, cb.Instruction, cb.ComputationOffset,
				err)
		}
	}
}
