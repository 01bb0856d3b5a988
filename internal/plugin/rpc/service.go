package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the gRPC service name negotiated between the engine
// and a plugin subprocess.
const ServiceName = "negotiator.NegotiatorService"

// NegotiatorServiceServer is implemented by the subprocess side: the
// actor-style dispatcher holding a reader-writer-guarded id → component
// map.
type NegotiatorServiceServer interface {
	CreateNegotiator(context.Context, *CreateRequest) (*CreateResponse, error)
	CallNegotiator(context.Context, *CallRequest) (*CallResponse, error)
	ShutdownNegotiator(context.Context, *ShutdownRequest) (*ShutdownResponse, error)
}

func createHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(CreateRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NegotiatorServiceServer).CreateNegotiator(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/CreateNegotiator"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(NegotiatorServiceServer).CreateNegotiator(ctx, req.(*CreateRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func callHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(CallRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NegotiatorServiceServer).CallNegotiator(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/CallNegotiator"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(NegotiatorServiceServer).CallNegotiator(ctx, req.(*CallRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func shutdownHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(ShutdownRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NegotiatorServiceServer).ShutdownNegotiator(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/ShutdownNegotiator"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(NegotiatorServiceServer).ShutdownNegotiator(ctx, req.(*ShutdownRequest))
	}
	return interceptor(ctx, req, info, handler)
}

// ServiceDesc is the hand-written grpc.ServiceDesc standing in for
// generated protoc-gen-go-grpc output, paired with the JSON codec
// registered in codec.go.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*NegotiatorServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateNegotiator", Handler: createHandler},
		{MethodName: "CallNegotiator", Handler: callHandler},
		{MethodName: "ShutdownNegotiator", Handler: shutdownHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "negotiator.proto",
}

// RegisterNegotiatorServiceServer registers srv with a grpc server for
// the plugin-side subprocess binary.
func RegisterNegotiatorServiceServer(s grpc.ServiceRegistrar, srv NegotiatorServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls the three RPCs over an established connection using the
// JSON codec.
type Client struct {
	conn *grpc.ClientConn
}

// NewClient wraps an already-dialed connection.
func NewClient(conn *grpc.ClientConn) *Client {
	return &Client{conn: conn}
}

func (c *Client) CreateNegotiator(ctx context.Context, req *CreateRequest) (*CreateResponse, error) {
	resp := new(CreateResponse)
	if err := c.conn.Invoke(ctx, "/"+ServiceName+"/CreateNegotiator", req, resp, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) CallNegotiator(ctx context.Context, req *CallRequest) (*CallResponse, error) {
	resp := new(CallResponse)
	if err := c.conn.Invoke(ctx, "/"+ServiceName+"/CallNegotiator", req, resp, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) ShutdownNegotiator(ctx context.Context, req *ShutdownRequest) (*ShutdownResponse, error) {
	resp := new(ShutdownResponse)
	if err := c.conn.Invoke(ctx, "/"+ServiceName+"/ShutdownNegotiator", req, resp, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return resp, nil
}
