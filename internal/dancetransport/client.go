package dancetransport

import (
	"context"
	"fmt"

	"github.com/evomimic/holonengine/internal/wire"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client wraps a *grpc.ClientConn talking to a dancetransport.Server,
// grounded on the teacher's pkg/client/client.go. Every call negotiates the
// "json" codec registered in codec.go rather than protobuf's default.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to addr. Pass grpc.WithTransportCredentials(...) via opts to
// use TLS; insecure.NewCredentials() is the default, matching a
// development/same-host deployment rather than the teacher's mTLS posture.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}, opts...)
	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("dancetransport: dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Dance invokes the single dance RPC against the connected server.
func (c *Client) Dance(ctx context.Context, req wire.DanceRequestWire) (*wire.DanceResponseWire, error) {
	out := new(wire.DanceResponseWire)
	if err := c.conn.Invoke(ctx, danceMethodFullName, &req, out); err != nil {
		return nil, fmt.Errorf("dancetransport: Dance RPC: %w", err)
	}
	return out, nil
}

// Close tears down the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
