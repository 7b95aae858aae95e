package codec

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/npc-companion/internal/llm"
)

// GenerateMethod is the full gRPC method name served by the inference sidecar.
const GenerateMethod = "/companion.CodecService/Generate"

// ErrNoResponse is returned when the sidecar answers without a response field.
var ErrNoResponse = errors.New("codec: response field missing")

// #region client-struct
// CodecClient talks to the local inference sidecar over gRPC. Requests and
// responses are google.protobuf.Struct so no generated stubs are needed.
type CodecClient struct {
	conn  *grpc.ClientConn
	cc    grpc.ClientConnInterface
	model string
}

// #endregion client-struct

// #region constructor
// NewCodecClient connects to the sidecar at addr.
func NewCodecClient(addr, model string) (*CodecClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &CodecClient{conn: conn, cc: conn, model: model}, nil
}

// NewCodecClientWithConn wraps an existing connection. Close is a no-op
// unless the connection is a *grpc.ClientConn.
func NewCodecClientWithConn(cc grpc.ClientConnInterface, model string) *CodecClient {
	c := &CodecClient{cc: cc, model: model}
	if conn, ok := cc.(*grpc.ClientConn); ok {
		c.conn = conn
	}
	return c
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection.
func (c *CodecClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// Name implements llm.Provider.
func (c *CodecClient) Name() string { return "codec" }

// #region generate
// Complete implements llm.Provider by calling Generate on the sidecar.
func (c *CodecClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	in, err := encodeRequest(model, req)
	if err != nil {
		return "", err
	}

	out := &structpb.Struct{}
	if err := c.cc.Invoke(ctx, GenerateMethod, in, out); err != nil {
		return "", fmt.Errorf("generate rpc: %w", err)
	}

	v, ok := out.GetFields()["response"]
	if !ok {
		return "", ErrNoResponse
	}
	text := strings.TrimSpace(v.GetStringValue())
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

func encodeRequest(model string, req llm.Request) (*structpb.Struct, error) {
	msgs := make([]interface{}, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, map[string]interface{}{"role": m.Role, "content": m.Content})
	}
	fields := map[string]interface{}{
		"model":    model,
		"messages": msgs,
	}
	if req.Temperature > 0 {
		fields["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		fields["max_tokens"] = req.MaxTokens
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode generate request: %w", err)
	}
	return s, nil
}

// #endregion generate
