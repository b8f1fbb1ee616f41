// Package chatv1 describes the chat.v1.ChatService gRPC service by hand.
// Its single bidirectional stream carries the same JSON frames as the
// websocket transport, through a codec registered under the "json" subtype.
package chatv1

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

const CodecName = "json"

func init() {
	encoding.RegisterCodec(codec{})
}

type codec struct{}

func (codec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (codec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (codec) Name() string { return CodecName }
