package queuesvc

import (
	"github.com/goccy/go-json"
	"google.golang.org/grpc/encoding"
)

// CodecName is the content subtype the queue service is spoken in.
const CodecName = "json"

//nolint:gochecknoinits // codecs must be registered before any server or client starts
func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec marshals gRPC messages as JSON so the service needs no generated
// protobuf types.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return CodecName
}
