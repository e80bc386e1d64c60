package dancetransport

import (
	"context"

	"github.com/evomimic/holonengine/internal/wire"
	"google.golang.org/grpc"
)

// serviceName matches the teacher's fully-qualified gRPC service naming
// convention (api/proto package-qualified names), adapted to this module's
// path since there is no compiled .proto package here.
const serviceName = "holonengine.dancetransport.DanceTransport"

// danceHandler is implemented by Server; declared so the generated-style
// plumbing below (serviceDesc, danceMethodHandler) doesn't need to know the
// concrete Server type.
type danceHandler interface {
	handleDance(ctx context.Context, req *wire.DanceRequestWire) (*wire.DanceResponseWire, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*danceHandler)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Dance", Handler: danceMethodHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "holonengine/dancetransport.go",
}

// danceMethodHandler is the hand-written equivalent of what protoc-gen-go-grpc
// would emit for a unary RPC: decode the request with whatever codec the
// connection negotiated (jsonCodec here), run interceptors, invoke the
// handler.
func danceMethodHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wire.DanceRequestWire)
	if err := dec(in); err != nil {
		return nil, err
	}
	h := srv.(danceHandler)
	if interceptor == nil {
		return h.handleDance(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: serviceName + "/Dance"}
	handler := func(ctx context.Context, req any) (any, error) {
		return h.handleDance(ctx, req.(*wire.DanceRequestWire))
	}
	return interceptor(ctx, in, info, handler)
}

// danceMethodFullName is the path Invoke must be called with from the
// client side.
const danceMethodFullName = "/" + serviceName + "/Dance"
