package backend

import (
	"github.com/voocel/litellm"

	"github.com/Brano80/veridion-nexus/ledger"
)

// Reference power-draw estimates for locally hosted models.
const (
	localGPUWatts = 250.0
	localCPUWatts = 100.0
)

// NewOpenAI creates an OpenAI chat adapter. EU regions only (eu- prefix).
func NewOpenAI(cfg Config) (*LiteLLMAdapter, error) {
	return newLiteLLMAdapter(vendorSpec{
		systemID:       "openai",
		actionPrefix:   "openai",
		defaultModel:   "gpt-4.1-mini",
		defaultRegion:  "eu-west-1",
		regionPrefixes: []string{"eu-"},
		hardware:       ledger.HardwareCloud,
		streaming:      true,
		newClient: func(cfg Config) *litellm.Client {
			if cfg.BaseURL != "" {
				return litellm.New(
					litellm.WithOpenAI(cfg.APIKey, cfg.BaseURL),
					litellm.WithDefaults(cfg.MaxTokens, cfg.Temperature),
				)
			}
			return litellm.New(
				litellm.WithOpenAI(cfg.APIKey),
				litellm.WithDefaults(cfg.MaxTokens, cfg.Temperature),
			)
		},
	}, cfg)
}

// NewAnthropic creates an Anthropic chat adapter. EU regions only (eu-
// prefix).
func NewAnthropic(cfg Config) (*LiteLLMAdapter, error) {
	return newLiteLLMAdapter(vendorSpec{
		systemID:       "anthropic",
		actionPrefix:   "anthropic",
		defaultModel:   "claude-4-sonnet",
		defaultRegion:  "eu-west-1",
		regionPrefixes: []string{"eu-"},
		hardware:       ledger.HardwareCloud,
		streaming:      true,
		newClient: func(cfg Config) *litellm.Client {
			if cfg.BaseURL != "" {
				return litellm.New(
					litellm.WithAnthropic(cfg.APIKey, cfg.BaseURL),
					litellm.WithDefaults(cfg.MaxTokens, cfg.Temperature),
				)
			}
			return litellm.New(
				litellm.WithAnthropic(cfg.APIKey),
				litellm.WithDefaults(cfg.MaxTokens, cfg.Temperature),
			)
		},
	}, cfg)
}

// NewGemini creates a Gemini chat adapter. Vertex EU regions only (europe-
// prefix).
func NewGemini(cfg Config) (*LiteLLMAdapter, error) {
	return newLiteLLMAdapter(vendorSpec{
		systemID:       "gcp-vertex",
		actionPrefix:   "vertex_ai",
		defaultModel:   "gemini-2.5-flash",
		defaultRegion:  "europe-west1",
		regionPrefixes: []string{"europe-"},
		hardware:       ledger.HardwareCloud,
		streaming:      true,
		newClient: func(cfg Config) *litellm.Client {
			if cfg.BaseURL != "" {
				return litellm.New(
					litellm.WithGemini(cfg.APIKey, cfg.BaseURL),
					litellm.WithDefaults(cfg.MaxTokens, cfg.Temperature),
				)
			}
			return litellm.New(
				litellm.WithGemini(cfg.APIKey),
				litellm.WithDefaults(cfg.MaxTokens, cfg.Temperature),
			)
		},
	}, cfg)
}

// LocalConfig extends Config for self-hosted OpenAI-compatible endpoints
// (vLLM, Ollama and similar).
type LocalConfig struct {
	Config
	// GPU selects the GPU hardware class and power estimate; CPU otherwise.
	GPU bool
}

// NewLocal creates an adapter for a self-hosted OpenAI-compatible endpoint.
// Carries CPU/GPU hardware class and the reference power-draw estimates
// instead of CLOUD. Single-shot only; the local runtimes the original
// integration targeted expose no streaming surface through this path.
func NewLocal(cfg LocalConfig) (*LiteLLMAdapter, error) {
	hardware := ledger.HardwareCPU
	cpu := localCPUWatts
	gpu := localGPUWatts
	spec := vendorSpec{
		systemID:       "local",
		actionPrefix:   "local_pipeline",
		defaultModel:   "default",
		defaultRegion:  "eu-local",
		regionPrefixes: []string{"eu-"},
		hardware:       hardware,
		cpuWatts:       &cpu,
		streaming:      false,
		newClient: func(cfg Config) *litellm.Client {
			baseURL := cfg.BaseURL
			if baseURL == "" {
				baseURL = "http://localhost:11434/v1"
			}
			return litellm.New(
				litellm.WithOpenAI(cfg.APIKey, baseURL),
				litellm.WithDefaults(cfg.MaxTokens, cfg.Temperature),
			)
		},
	}
	if cfg.GPU {
		spec.hardware = ledger.HardwareGPU
		spec.cpuWatts = nil
		spec.gpuWatts = &gpu
	}
	if cfg.APIKey == "" {
		// Local endpoints usually run unauthenticated.
		cfg.APIKey = "local"
	}
	return newLiteLLMAdapter(spec, cfg.Config)
}
