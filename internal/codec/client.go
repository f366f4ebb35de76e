package codec

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/stress-dost/internal/apperr"
	"github.com/danielpatrickdp/stress-dost/internal/gate"
	"github.com/danielpatrickdp/stress-dost/internal/trigger"
)

// #region client-struct
// Client calls the external popup generation service over gRPC and gates
// whatever comes back.
type Client struct {
	conn   *grpc.ClientConn
	cc     grpc.ClientConnInterface
	gate   *gate.Gate
	config ClientConfig
	logger *zap.Logger
}

// #endregion client-struct

// #region constructor
// NewClient connects to the generation gRPC server.
func NewClient(config ClientConfig, g *gate.Gate, logger *zap.Logger) (*Client, error) {
	conn, err := grpc.NewClient(config.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", config.Addr, err)
	}
	c := NewClientWithConn(conn, config, g, logger)
	c.conn = conn
	return c, nil
}

// NewClientWithConn creates a Client over an existing connection. Used for
// testing with an in-memory listener or a stub connection.
func NewClientWithConn(cc grpc.ClientConnInterface, config ClientConfig, g *gate.Gate, logger *zap.Logger) *Client {
	if g == nil {
		g = gate.NewGate(gate.DefaultGateConfig())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{cc: cc, gate: g, config: config, logger: logger.Named("codec")}
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection if the client owns one.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region generate
// GeneratePopup asks the service for one popup, parses the reply and runs it
// through the gate. Every failure is an apperr generation error.
func (c *Client) GeneratePopup(ctx context.Context, req Request) (trigger.Popup, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	in, err := c.encodeRequest(req)
	if err != nil {
		return trigger.Popup{}, apperr.Generation("encode generate request", err)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, generatePopupMethod, in, out); err != nil {
		return trigger.Popup{}, apperr.Generation("generate rpc", err)
	}

	candidate, err := decodeReply(out)
	if err != nil {
		return trigger.Popup{}, apperr.Generation("decode generate reply", err)
	}

	decision := c.gate.Evaluate(candidate, req.Tags, req.Category)
	if decision.Action != "commit" {
		c.logger.Debug("generated popup rejected",
			zap.String("session_id", req.SessionID),
			zap.String("reason", decision.Reason),
			zap.Int("vetoes", len(decision.VetoSignals)),
		)
		return trigger.Popup{}, apperr.Generation(decision.Reason, nil)
	}
	return decision.Popup, nil
}

// #endregion generate

// #region encoding
func (c *Client) encodeRequest(req Request) (*structpb.Struct, error) {
	vector := make(map[string]any, len(req.Vector))
	for d, v := range req.Vector {
		vector[string(d)] = v
	}
	fields := map[string]any{
		"session_id":         req.SessionID,
		"prompt":             BuildPrompt(req),
		"profile":            BuildProfile(req.Vector, req.Traits),
		"tags":               stringList(req.Tags),
		"traits":             stringList(req.Traits),
		"category":           string(req.Category),
		"force_option_based": req.ForceOptionBased,
		"personality_vector": vector,
		"performance": map[string]any{
			"accuracy":   req.Performance.Accuracy,
			"trend":      req.Performance.Trend,
			"confidence": req.Performance.Confidence,
		},
		"model":       c.config.Model,
		"temperature": c.config.Temperature,
		"max_tokens":  float64(c.config.MaxTokens),
	}
	if req.MeterContext != nil {
		mc, err := toMap(req.MeterContext)
		if err != nil {
			return nil, fmt.Errorf("encode meter context: %w", err)
		}
		fields["meter_context"] = mc
	}
	return structpb.NewStruct(fields)
}

// decodeReply accepts either raw model text under "content" or an already
// structured object under "popup".
func decodeReply(out *structpb.Struct) (gate.Candidate, error) {
	f := out.GetFields()
	if p, ok := f["popup"]; ok && p.GetStructValue() != nil {
		return candidateFromMap(p.GetStructValue().AsMap()), nil
	}
	if content, ok := f["content"]; ok {
		return ParsePopup(content.GetStringValue())
	}
	return gate.Candidate{}, fmt.Errorf("reply has neither content nor popup")
}

func stringList(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func toMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// #endregion encoding
