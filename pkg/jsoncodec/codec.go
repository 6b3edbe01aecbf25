// Package jsoncodec lets Connect handlers and clients exchange plain Go
// structs as JSON, without generated protobuf types.
package jsoncodec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// Codec marshals messages with encoding/json. Unknown fields are rejected.
type Codec struct{}

var _ connect.Codec = Codec{}

// Name is "json" so the codec serves application/json and application/connect+json.
func (Codec) Name() string { return "json" }

func (Codec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (Codec) Unmarshal(data []byte, msg any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(msg); err != nil {
		return fmt.Errorf("invalid json message: %w", err)
	}
	return nil
}

// Option installs the codec on a handler or client.
func Option() connect.Option { return connect.WithCodec(Codec{}) }
