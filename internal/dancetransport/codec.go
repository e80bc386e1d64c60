// Package dancetransport is the engine's IPC boundary (spec.md §6
// DanceInitiator): a gRPC service exposing the dance dispatcher
// (internal/dance) as a single RPC, wire-encoded as JSON rather than
// compiled protobuf stubs — the wire envelope types of internal/wire are
// plain Go structs, per SPEC_FULL.md §4.11. Grounded on the teacher's
// pkg/api/server.go (NewServer/Start/Stop lifecycle) and pkg/client/client.go
// (Client wrapping a *grpc.ClientConn).
package dancetransport

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

const codecName = "json"

// jsonCodec implements encoding.Codec so gRPC can carry the plain-struct
// wire.DanceRequestWire/DanceResponseWire types without a .proto file.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return codecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
