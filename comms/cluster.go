///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package comms

// cluster.go serves a provider over gRPC and provides its client

import (
	"context"
	"net"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/privaterecord/messages"
	"gitlab.com/elixxir/privaterecord/provider"
	"google.golang.org/grpc"
)

const clusterService = "privaterecord.Cluster"

// QueueComputation is the cluster service's only method
const QueueComputation = "QueueComputation"

// ClusterComms serves a provider
type ClusterComms struct {
	server   *grpc.Server
	listener net.Listener
	provider provider.Provider
}

// StartCluster listens on address and admits computations into p
func StartCluster(address string, p provider.Provider) (*ClusterComms, error) {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to listen on %s", address)
	}
	return serveCluster(lis, p), nil
}

func serveCluster(lis net.Listener, p provider.Provider) *ClusterComms {
	cc := &ClusterComms{
		server:   newServer(),
		listener: lis,
		provider: p,
	}
	cc.server.RegisterService(&clusterServiceDesc, cc)

	go func() {
		jww.INFO.Printf("Cluster listening on %s", lis.Addr())
		if err := serve(cc.server, lis); err != nil {
			jww.ERROR.Printf("Cluster stopped serving: %+v", err)
			return
		}
		jww.INFO.Printf("Cluster stopped serving")
	}()
	return cc
}

// Shutdown stops serving, waiting for in flight requests
func (cc *ClusterComms) Shutdown() {
	cc.server.GracefulStop()
}

// String returns the address being served
func (cc *ClusterComms) String() string {
	return cc.listener.Addr().String()
}

var clusterServiceDesc = grpc.ServiceDesc{
	ServiceName: clusterService,
	HandlerType: (*interface{})(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: QueueComputation,
			Handler: func(srv interface{}, ctx context.Context,
				dec func(interface{}) error,
				_ grpc.UnaryServerInterceptor) (interface{}, error) {
				qc := &provider.QueuedComputation{}
				if err := dec(qc); err != nil {
					return nil, err
				}
				err := srv.(*ClusterComms).provider.QueueComputation(ctx, qc)
				if err != nil {
					return nil, toStatus(err, clusterErrors)
				}
				return &messages.Ack{}, nil
			},
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "privaterecord",
}

// ClusterClient is a provider reached over gRPC
type ClusterClient struct {
	conn *grpc.ClientConn
}

// NewClusterClient connects to the cluster at address
func NewClusterClient(address string, opts ...grpc.DialOption) (*ClusterClient, error) {
	conn, err := dial(address, opts...)
	if err != nil {
		return nil, err
	}
	return &ClusterClient{conn: conn}, nil
}

// QueueComputation hands qc to the cluster. Refusals come back as the
// provider's sentinel errors.
func (cc *ClusterClient) QueueComputation(ctx context.Context,
	qc *provider.QueuedComputation) error {
	err := cc.conn.Invoke(ctx, "/"+clusterService+"/"+QueueComputation,
		qc, &messages.Ack{})
	return fromStatus(err, clusterErrors)
}

// Close drops the connection
func (cc *ClusterClient) Close() error {
	return cc.conn.Close()
}
