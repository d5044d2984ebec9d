///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

// Package comms serves the node and cluster services over gRPC and provides
// their clients. Messages are the hand encoded types of package messages.
package comms

import (
	"net"

	"github.com/pkg/errors"
	"gitlab.com/elixxir/privaterecord/messages"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const codecName = "privaterecord"

// codec moves messages.Message values over gRPC
type codec struct{}

func (codec) Marshal(v interface{}) ([]byte, error) {
	m, ok := v.(messages.Message)
	if !ok {
		return nil, errors.Errorf("Cannot marshal %T", v)
	}
	return m.Marshal(), nil
}

func (codec) Unmarshal(data []byte, v interface{}) error {
	m, ok := v.(messages.Message)
	if !ok {
		return errors.Errorf("Cannot unmarshal into %T", v)
	}
	return m.Unmarshal(data)
}

func (codec) Name() string {
	return codecName
}

func newServer() *grpc.Server {
	return grpc.NewServer(grpc.ForceServerCodec(codec{}))
}

// serve blocks until the server stops. A Shutdown that lands before Serve
// starts is a clean stop, not a failure.
func serve(server *grpc.Server, lis net.Listener) error {
	err := server.Serve(lis)
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}

func dial(address string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(codec{})),
	}, opts...)
	conn, err := grpc.Dial(address, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to connect to %s", address)
	}
	return conn, nil
}
