package rpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// codecName is the content-subtype negotiated for every RPC this server
// exposes. There is no protoc pipeline anywhere in this module, so there
// are no generated .pb.go message types to carry over protobuf's wire
// format; every request/response below is a plain Go struct tagged with
// `json`, transported by grpc-go's framing (length-prefixed, gzip-capable)
// with this codec standing in for protobuf's Marshal/Unmarshal.
const codecName = "json"

// jsonCodec implements grpc/encoding.Codec. Registering it globally makes
// it available to any client that dials with grpc.CallContentSubtype(codecName);
// the server's ServiceDesc entries below don't pick a codec themselves,
// grpc-go selects it per call from the negotiated content-subtype.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return codecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
