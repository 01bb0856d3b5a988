package factory

import (
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"gopkg.in/yaml.v3"

	"github.com/negotiator/engine/internal/plugin/rpc"
)

// encodeParamsYAML re-serializes a negotiator's already-decoded params
// back to YAML, since both the shared-library ABI and the gRPC wire
// protocol pass configuration across their boundary as a YAML string
// rather than a decoded Go value.
func encodeParamsYAML(params map[string]any) (string, error) {
	if params == nil {
		return "", nil
	}
	data, err := yaml.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("encode negotiator params: %w", err)
	}
	return string(data), nil
}

// dialRemote connects to an already-running remote-grpc plugin at
// address, for negotiators the factory doesn't spawn itself.
func dialRemote(address string) (*rpc.Client, error) {
	conn, err := grpc.NewClient(address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(rpc.JSONCodecName)),
	)
	if err != nil {
		return nil, fmt.Errorf("dial remote negotiator at %s: %w", address, err)
	}
	return rpc.NewClient(conn), nil
}
