///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package comms

// client.go sends signed requests to a node

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/privaterecord/circuit"
	"gitlab.com/elixxir/privaterecord/events"
	"gitlab.com/elixxir/privaterecord/messages"
	"gitlab.com/xx_network/crypto/csprng"
	"gitlab.com/xx_network/crypto/signature/rsa"
	"gitlab.com/xx_network/crypto/xx"
	"gitlab.com/xx_network/primitives/id"
	"google.golang.org/grpc"
)

// Timeout for requests made without a caller context
const sendTimeout = 10 * time.Second

// Client talks to one node. Requests are signed when the client has a key.
type Client struct {
	conn *grpc.ClientConn
	key  *rsa.PrivateKey
	salt []byte
	id   *id.ID
	rng  io.Reader
}

// NewClient connects to the node at address. key may be nil for a client
// that only makes unauthenticated requests.
func NewClient(address string, key *rsa.PrivateKey, salt []byte,
	opts ...grpc.DialOption) (*Client, error) {
	c := &Client{
		key:  key,
		salt: salt,
		rng:  csprng.NewSystemRNG(),
	}
	if key != nil {
		var err error
		c.id, err = xx.NewID(key.GetPublic(), salt, id.User)
		if err != nil {
			return nil, errors.WithMessage(err, "Failed to derive client ID")
		}
	}

	conn, err := dial(address, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

// GetID returns the ID the node authenticates this client as
func (c *Client) GetID() *id.ID {
	return c.id
}

// Close drops the connection
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) invoke(ctx context.Context, method string,
	req, resp messages.Message) error {
	env := &messages.Signed{Body: req.Marshal()}
	if c.key != nil {
		var err error
		env, err = SignRequest(c.rng, c.key, c.salt, method, env.Body)
		if err != nil {
			return err
		}
	}
	err := c.conn.Invoke(ctx, "/"+nodeService+"/"+method, env, resp)
	return fromStatus(err, nodeErrors)
}

// StoreRecord stores the client's encrypted record
func (c *Client) StoreRecord(ctx context.Context,
	ct circuit.EncryptedRecord) (*messages.RecordRef, error) {
	resp := &messages.RecordRef{}
	err := c.invoke(ctx, StoreRecord,
		&messages.StoreRecordRequest{Ciphertexts: ct}, resp)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// InitComputationDefinition registers the named circuit with the node's
// program and returns its offset
func (c *Client) InitComputationDefinition(ctx context.Context,
	name string) (uint32, error) {
	resp := &messages.InitComputationDefinitionResponse{}
	err := c.invoke(ctx, InitComputationDefinition,
		&messages.InitComputationDefinitionRequest{Name: name}, resp)
	if err != nil {
		return 0, err
	}
	return resp.CompDefOffset, nil
}

// DispatchComputation asks the node to queue a lookup
func (c *Client) DispatchComputation(ctx context.Context,
	req *messages.DispatchComputationRequest) error {
	return c.invoke(ctx, DispatchComputation, req, &messages.Ack{})
}

// ComputationCallback delivers a signed output to the node
func (c *Client) ComputationCallback(ctx context.Context,
	computationOffset uint64, output []byte) error {
	return c.invoke(ctx, ComputationCallback, &messages.ComputationCallback{
		ComputationOffset: computationOffset,
		Output:            output,
	}, &messages.Ack{})
}

// GetComputationEvent returns the event emitted for the offset, or
// events.ErrNoEvent
func (c *Client) GetComputationEvent(ctx context.Context,
	computationOffset uint64) (*messages.ComputationEvent, error) {
	resp := &messages.ComputationEvent{}
	err := c.invoke(ctx, GetComputationEvent,
		&messages.GetComputationEventRequest{ComputationOffset: computationOffset},
		resp)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// AwaitComputationEvent polls until the event for the offset is emitted or
// ctx is done
func (c *Client) AwaitComputationEvent(ctx context.Context,
	computationOffset uint64, poll time.Duration) (*messages.ComputationEvent, error) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		ev, err := c.GetComputationEvent(ctx, computationOffset)
		if err == nil {
			return ev, nil
		}
		if !errors.Is(err, events.ErrNoEvent) {
			return nil, err
		}
		jww.TRACE.Printf("No event yet for computation %d", computationOffset)

		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ctx.Err(),
				"Gave up waiting for computation %d", computationOffset)
		case <-ticker.C:
		}
	}
}

// ReadAccount returns the raw data of the account at addr
func (c *Client) ReadAccount(addr *id.ID) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	resp := &messages.AccountData{}
	err := c.invoke(ctx, ReadAccount, &messages.AccountRequest{Address: addr}, resp)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// IsInitialized asks the node whether the program's computation definition
// exists. Failures to ask read as uninitialized.
func (c *Client) IsInitialized(program *id.ID, compDefOffset uint32) bool {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	resp := &messages.DefinitionStatus{}
	err := c.invoke(ctx, IsInitialized, &messages.DefinitionQuery{
		Program:       program,
		CompDefOffset: compDefOffset,
	}, resp)
	if err != nil {
		jww.WARN.Printf("Could not query definition %d of %s: %+v",
			compDefOffset, program, err)
		return false
	}
	return resp.Initialized
}
