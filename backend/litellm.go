package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/voocel/litellm"

	"github.com/Brano80/veridion-nexus/invoke"
	"github.com/Brano80/veridion-nexus/ledger"
	"github.com/Brano80/veridion-nexus/policy"
)

// Config holds adapter options. Region defaults to the vendor's reference
// region and must match the vendor's sovereignty allow-list.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Region      string
	AgentID     string
	MaxTokens   int
	Temperature float64
}

// vendorSpec fixes the per-vendor constants the original integrations
// carried.
type vendorSpec struct {
	systemID       string
	actionPrefix   string
	defaultModel   string
	defaultRegion  string
	regionPrefixes []string
	hardware       ledger.HardwareClass
	gpuWatts       *float64
	cpuWatts       *float64
	streaming      bool
	newClient      func(cfg Config) *litellm.Client
}

// LiteLLMAdapter implements Adapter (and Streamer when the vendor supports
// it) on top of the litellm unified client.
type LiteLLMAdapter struct {
	client *litellm.Client
	spec   vendorSpec
	config Config
	gate   policy.Gate
}

func newLiteLLMAdapter(spec vendorSpec, cfg Config) (*LiteLLMAdapter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: API key is required", spec.systemID)
	}
	if cfg.Model == "" {
		cfg.Model = spec.defaultModel
	}
	if cfg.Region == "" {
		cfg.Region = spec.defaultRegion
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2000
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}

	gate := policy.NewGate(spec.regionPrefixes...)
	if err := gate.Require(cfg.Region); err != nil {
		return nil, err
	}

	return &LiteLLMAdapter{
		client: spec.newClient(cfg),
		spec:   spec,
		config: cfg,
		gate:   gate,
	}, nil
}

// Gate returns the vendor's sovereignty gate, for wiring the invoker that
// re-validates the region on every call.
func (a *LiteLLMAdapter) Gate() policy.Gate {
	return a.gate
}

// Info returns the vendor metadata attached to audit events.
func (a *LiteLLMAdapter) Info() Info {
	return Info{
		SystemID:     a.spec.systemID,
		ModelName:    a.config.Model,
		Hardware:     a.spec.hardware,
		Region:       a.config.Region,
		ActionPrefix: a.spec.actionPrefix,
	}
}

// SupportsStreaming reports the declared streaming capability.
func (a *LiteLLMAdapter) SupportsStreaming() bool {
	return a.spec.streaming
}

// Invoke sends a single-shot chat completion.
func (a *LiteLLMAdapter) Invoke(ctx context.Context, req Request) (*Response, error) {
	resp, err := a.client.Chat(ctx, a.toLiteLLM(req))
	if err != nil {
		return nil, fmt.Errorf("%s chat completion failed: %w", a.spec.systemID, err)
	}
	return &Response{
		Content:      resp.Content,
		Model:        resp.Model,
		Provider:     resp.Provider,
		FinishReason: resp.FinishReason,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// Stream opens a streamed chat completion.
func (a *LiteLLMAdapter) Stream(ctx context.Context, req Request) (invoke.Stream[Chunk], error) {
	reader, err := a.client.Stream(ctx, a.toLiteLLM(req))
	if err != nil {
		return nil, fmt.Errorf("%s chat stream failed: %w", a.spec.systemID, err)
	}
	return &litellmStream{reader: reader}, nil
}

// InvokeMetadata builds the audit metadata for a single-shot call.
func (a *LiteLLMAdapter) InvokeMetadata(req Request) invoke.Metadata {
	return a.metadata(a.spec.actionPrefix+"_chat_completion", req)
}

// StreamMetadata builds the audit metadata for a streamed call.
func (a *LiteLLMAdapter) StreamMetadata(req Request) invoke.Metadata {
	return a.metadata(a.spec.actionPrefix+"_chat_stream", req)
}

func (a *LiteLLMAdapter) metadata(action string, req Request) invoke.Metadata {
	model := req.Model
	if model == "" {
		model = a.config.Model
	}
	return invoke.Metadata{
		AgentID:      a.config.AgentID,
		Action:       action,
		TargetRegion: a.config.Region,
		SystemID:     a.spec.systemID,
		ModelName:    model,
		Hardware:     a.spec.hardware,
		GPUWatts:     a.spec.gpuWatts,
		CPUWatts:     a.spec.cpuWatts,
		Payload:      payloadJSON(req.Messages),
	}
}

// Close releases the adapter. The litellm client holds no resources that
// outlive requests.
func (a *LiteLLMAdapter) Close() error {
	return nil
}

func (a *LiteLLMAdapter) toLiteLLM(req Request) *litellm.Request {
	model := req.Model
	if model == "" {
		model = a.config.Model
	}
	out := &litellm.Request{
		Model:    model,
		Messages: convertMessages(req.Messages),
	}
	if req.Temperature != 0 {
		out.Temperature = litellm.Float64Ptr(req.Temperature)
	}
	if req.MaxTokens != 0 {
		out.MaxTokens = litellm.IntPtr(req.MaxTokens)
	}
	return out
}

func convertMessages(messages []Message) []litellm.Message {
	result := make([]litellm.Message, len(messages))
	for i, msg := range messages {
		result[i] = litellm.Message{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}
	return result
}

// payloadJSON serializes the request messages for the audit trail. The
// ledger bounds payload size separately.
func payloadJSON(messages []Message) string {
	data, err := json.Marshal(messages)
	if err != nil {
		return fmt.Sprintf("unserializable payload: %v", err)
	}
	return string(data)
}

// litellmStream adapts litellm's reader to the invoke.Stream contract.
type litellmStream struct {
	reader litellm.StreamReader
}

func (s *litellmStream) Recv() (Chunk, error) {
	chunk, err := s.reader.Next()
	if err != nil {
		return Chunk{}, err
	}
	if chunk.Done {
		return Chunk{}, io.EOF
	}
	return Chunk{Type: string(chunk.Type), Content: chunk.Content}, nil
}

func (s *litellmStream) Close() error {
	return s.reader.Close()
}

var (
	_ Adapter  = (*LiteLLMAdapter)(nil)
	_ Streamer = (*LiteLLMAdapter)(nil)
)
