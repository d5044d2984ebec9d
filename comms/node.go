///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package comms

// node.go serves the node service

import (
	"context"
	"net"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/privaterecord/messages"
	"gitlab.com/xx_network/primitives/id"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const nodeService = "privaterecord.Node"

// Node service method names
const (
	StoreRecord               = "StoreRecord"
	InitComputationDefinition = "InitComputationDefinition"
	DispatchComputation       = "DispatchComputation"
	ComputationCallback       = "ComputationCallback"
	GetComputationEvent       = "GetComputationEvent"
	ReadAccount               = "ReadAccount"
	IsInitialized             = "IsInitialized"
)

// Implementation holds the handlers the node service calls
type Implementation struct {
	Functions implementationFunctions
}

type implementationFunctions struct {
	StoreRecord func(req *messages.StoreRecordRequest,
		auth *Auth) (*messages.RecordRef, error)
	InitComputationDefinition func(req *messages.InitComputationDefinitionRequest,
		auth *Auth) (*messages.InitComputationDefinitionResponse, error)
	DispatchComputation func(ctx context.Context,
		req *messages.DispatchComputationRequest, auth *Auth) error
	ComputationCallback func(ctx context.Context,
		req *messages.ComputationCallback, auth *Auth) error
	GetComputationEvent func(req *messages.GetComputationEventRequest,
		auth *Auth) (*messages.ComputationEvent, error)
	ReadAccount func(req *messages.AccountRequest,
		auth *Auth) (*messages.AccountData, error)
	IsInitialized func(req *messages.DefinitionQuery,
		auth *Auth) (*messages.DefinitionStatus, error)
}

// NewImplementation returns an Implementation whose handlers all refuse
func NewImplementation() *Implementation {
	um := "UNIMPLEMENTED FUNCTION!"
	warn := func(method string) error {
		jww.WARN.Printf("%s: %s", method, um)
		return status.Error(codes.Unimplemented, um)
	}
	return &Implementation{
		Functions: implementationFunctions{
			StoreRecord: func(*messages.StoreRecordRequest,
				*Auth) (*messages.RecordRef, error) {
				return nil, warn(StoreRecord)
			},
			InitComputationDefinition: func(*messages.InitComputationDefinitionRequest,
				*Auth) (*messages.InitComputationDefinitionResponse, error) {
				return nil, warn(InitComputationDefinition)
			},
			DispatchComputation: func(context.Context,
				*messages.DispatchComputationRequest, *Auth) error {
				return warn(DispatchComputation)
			},
			ComputationCallback: func(context.Context,
				*messages.ComputationCallback, *Auth) error {
				return warn(ComputationCallback)
			},
			GetComputationEvent: func(*messages.GetComputationEventRequest,
				*Auth) (*messages.ComputationEvent, error) {
				return nil, warn(GetComputationEvent)
			},
			ReadAccount: func(*messages.AccountRequest,
				*Auth) (*messages.AccountData, error) {
				return nil, warn(ReadAccount)
			},
			IsInitialized: func(*messages.DefinitionQuery,
				*Auth) (*messages.DefinitionStatus, error) {
				return nil, warn(IsInitialized)
			},
		},
	}
}

// NodeComms serves the node service for one node
type NodeComms struct {
	id       *id.ID
	server   *grpc.Server
	listener net.Listener
	handler  *Implementation
}

// StartNode listens on address and serves impl until Shutdown
func StartNode(nid *id.ID, address string, impl *Implementation) (*NodeComms, error) {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to listen on %s", address)
	}
	return serveNode(nid, lis, impl), nil
}

func serveNode(nid *id.ID, lis net.Listener, impl *Implementation) *NodeComms {
	nc := &NodeComms{
		id:       nid,
		server:   newServer(),
		listener: lis,
		handler:  impl,
	}
	nc.server.RegisterService(&nodeServiceDesc, nc)

	go func() {
		jww.INFO.Printf("Node %s listening on %s", nid, lis.Addr())
		if err := serve(nc.server, lis); err != nil {
			jww.ERROR.Printf("Node %s stopped serving: %+v", nid, err)
			return
		}
		jww.INFO.Printf("Node %s stopped serving", nid)
	}()
	return nc
}

// Shutdown stops serving, waiting for in flight requests
func (nc *NodeComms) Shutdown() {
	nc.server.GracefulStop()
}

// String returns the address being served
func (nc *NodeComms) String() string {
	return nc.listener.Addr().String()
}

// unary decodes a signed request, authenticates it and hands the body to call
func unary(method string, call func(nc *NodeComms, ctx context.Context,
	body []byte, auth *Auth) (messages.Message, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context,
			dec func(interface{}) error,
			_ grpc.UnaryServerInterceptor) (interface{}, error) {
			env := &messages.Signed{}
			if err := dec(env); err != nil {
				return nil, err
			}
			resp, err := call(srv.(*NodeComms), ctx, env.Body,
				Authenticate(method, env))
			if err != nil {
				return nil, toStatus(err, nodeErrors)
			}
			return resp, nil
		},
	}
}

func invalid(err error) error {
	return status.Error(codes.InvalidArgument, err.Error())
}

var nodeServiceDesc = grpc.ServiceDesc{
	ServiceName: nodeService,
	HandlerType: (*interface{})(nil),
	Methods: []grpc.MethodDesc{
		unary(StoreRecord, func(nc *NodeComms, _ context.Context,
			body []byte, auth *Auth) (messages.Message, error) {
			req := &messages.StoreRecordRequest{}
			if err := req.Unmarshal(body); err != nil {
				return nil, invalid(err)
			}
			resp, err := nc.handler.Functions.StoreRecord(req, auth)
			if err != nil {
				return nil, err
			}
			return resp, nil
		}),
		unary(InitComputationDefinition, func(nc *NodeComms, _ context.Context,
			body []byte, auth *Auth) (messages.Message, error) {
			req := &messages.InitComputationDefinitionRequest{}
			if err := req.Unmarshal(body); err != nil {
				return nil, invalid(err)
			}
			resp, err := nc.handler.Functions.InitComputationDefinition(req, auth)
			if err != nil {
				return nil, err
			}
			return resp, nil
		}),
		unary(DispatchComputation, func(nc *NodeComms, ctx context.Context,
			body []byte, auth *Auth) (messages.Message, error) {
			req := &messages.DispatchComputationRequest{}
			if err := req.Unmarshal(body); err != nil {
				return nil, invalid(err)
			}
			if err := nc.handler.Functions.DispatchComputation(ctx, req, auth); err != nil {
				return nil, err
			}
			return &messages.Ack{}, nil
		}),
		unary(ComputationCallback, func(nc *NodeComms, ctx context.Context,
			body []byte, auth *Auth) (messages.Message, error) {
			req := &messages.ComputationCallback{}
			if err := req.Unmarshal(body); err != nil {
				return nil, invalid(err)
			}
			if err := nc.handler.Functions.ComputationCallback(ctx, req, auth); err != nil {
				return nil, err
			}
			return &messages.Ack{}, nil
		}),
		unary(GetComputationEvent, func(nc *NodeComms, _ context.Context,
			body []byte, auth *Auth) (messages.Message, error) {
			req := &messages.GetComputationEventRequest{}
			if err := req.Unmarshal(body); err != nil {
				return nil, invalid(err)
			}
			resp, err := nc.handler.Functions.GetComputationEvent(req, auth)
			if err != nil {
				return nil, err
			}
			return resp, nil
		}),
		unary(ReadAccount, func(nc *NodeComms, _ context.Context,
			body []byte, auth *Auth) (messages.Message, error) {
			req := &messages.AccountRequest{}
			if err := req.Unmarshal(body); err != nil {
				return nil, invalid(err)
			}
			resp, err := nc.handler.Functions.ReadAccount(req, auth)
			if err != nil {
				return nil, err
			}
			return resp, nil
		}),
		unary(IsInitialized, func(nc *NodeComms, _ context.Context,
			body []byte, auth *Auth) (messages.Message, error) {
			req := &messages.DefinitionQuery{}
			if err := req.Unmarshal(body); err != nil {
				return nil, invalid(err)
			}
			resp, err := nc.handler.Functions.IsInitialized(req, auth)
			if err != nil {
				return nil, err
			}
			return resp, nil
		}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "privaterecord",
}
