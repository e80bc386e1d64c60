package dancetransport

import (
	"context"
	"fmt"
	"net"

	"github.com/evomimic/holonengine/internal/dance"
	"github.com/evomimic/holonengine/internal/holonlog"
	"github.com/evomimic/holonengine/internal/wire"
	"google.golang.org/grpc"
)

// Server wraps a *grpc.Server exposing a dance.Dispatcher over the network,
// grounded on the teacher's pkg/api/server.go Start/Stop lifecycle. Unlike
// the teacher, it takes no default TLS stance: pass grpc.Creds(...) via opts
// if the embedding application needs mTLS (the teacher's certificate
// machinery in pkg/security is orthogonal to the dance protocol itself).
type Server struct {
	grpcServer *grpc.Server
	dispatcher *dance.Dispatcher
}

// NewServer builds a Server over dispatcher.
func NewServer(dispatcher *dance.Dispatcher, opts ...grpc.ServerOption) *Server {
	s := &Server{dispatcher: dispatcher}
	s.grpcServer = grpc.NewServer(opts...)
	s.grpcServer.RegisterService(&serviceDesc, s)
	return s
}

func (s *Server) handleDance(ctx context.Context, req *wire.DanceRequestWire) (*wire.DanceResponseWire, error) {
	resp := s.dispatcher.Dispatch(*req)
	return &resp, nil
}

// Serve listens on addr and blocks serving dance requests until Stop is
// called or Serve itself fails.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("dancetransport: listen %s: %w", addr, err)
	}
	holonlog.WithComponent("dancetransport").Info().Str("addr", addr).Msg("dance transport listening")
	return s.grpcServer.Serve(lis)
}

// Stop gracefully stops the server, letting in-flight dance requests finish.
func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}
