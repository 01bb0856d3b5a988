package rpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// JSONCodecName is registered with grpc-go in place of the default
// "proto" codec, so this package's plain Go structs can travel over
// grpc without generated protobuf bindings.
const JSONCodecName = "json"

const jsonCodecName = JSONCodecName

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
