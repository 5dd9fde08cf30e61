// Package backend provides AI inference adapters with a normalized
// invoke/stream capability, audited through the invoke package.
package backend

import (
	"context"
	"errors"

	"github.com/Brano80/veridion-nexus/invoke"
	"github.com/Brano80/veridion-nexus/ledger"
)

// ErrStreamingNotSupported is returned when a stream is requested from an
// adapter that only declares the invoke capability.
var ErrStreamingNotSupported = errors.New("backend does not support streaming")

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a normalized chat request.
type Request struct {
	Model       string    `json:"model,omitempty"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Usage reports token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a normalized chat response.
type Response struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	Provider     string `json:"provider"`
	FinishReason string `json:"finish_reason"`
	Usage        Usage  `json:"usage"`
}

// Chunk is one element of a streamed response.
type Chunk struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Info is the vendor-specific metadata an adapter contributes to audit
// events.
type Info struct {
	SystemID     string
	ModelName    string
	ModelVersion string
	Hardware     ledger.HardwareClass
	Region       string
	ActionPrefix string
}

// Adapter is the invoke-only capability.
type Adapter interface {
	Invoke(ctx context.Context, req Request) (*Response, error)
	SupportsStreaming() bool
	Info() Info
	InvokeMetadata(req Request) invoke.Metadata
	Close() error
}

// Streamer is the declared streaming capability on top of Adapter.
type Streamer interface {
	Adapter
	Stream(ctx context.Context, req Request) (invoke.Stream[Chunk], error)
	StreamMetadata(req Request) invoke.Metadata
}

// Chat runs a single-shot chat completion through the instrumented invoker.
func Chat(ctx context.Context, inv *invoke.Invoker, a Adapter, req Request) (*Response, error) {
	return invoke.Do(ctx, inv, a.InvokeMetadata(req), func(ctx context.Context) (*Response, error) {
		return a.Invoke(ctx, req)
	})
}

// ChatStream runs a streamed chat completion through the instrumented
// invoker. Dispatch is on the adapter's declared capability, not call-time
// probing of the stream itself.
func ChatStream(ctx context.Context, inv *invoke.Invoker, a Adapter, req Request) (invoke.Stream[Chunk], error) {
	streamer, ok := a.(Streamer)
	if !ok || !a.SupportsStreaming() {
		return nil, ErrStreamingNotSupported
	}
	return invoke.OpenStream(ctx, inv, streamer.StreamMetadata(req), func(ctx context.Context) (invoke.Stream[Chunk], error) {
		return streamer.Stream(ctx, req)
	})
}
