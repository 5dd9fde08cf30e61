package ledger

import "fmt"

// HardwareClass identifies the hardware the inference ran on.
type HardwareClass string

const (
	HardwareCPU   HardwareClass = "CPU"
	HardwareGPU   HardwareClass = "GPU"
	HardwareCloud HardwareClass = "CLOUD"
)

// MaxPayloadLen bounds the payload placed in an event. Longer payloads are
// truncated with a visible marker; the backend response itself is never touched.
const MaxPayloadLen = 1000

// Event is one audit record per attempted invocation. Optional fields are
// pointers so that unset values are transmitted as JSON null.
type Event struct {
	AgentID                 string        `json:"agent_id"`
	Action                  string        `json:"action"`
	Payload                 string        `json:"payload"`
	TargetRegion            string        `json:"target_region"`
	UserID                  *string       `json:"user_id"`
	RequiresHumanOversight  bool          `json:"requires_human_oversight"`
	InferenceTimeMs         *int64        `json:"inference_time_ms"`
	GPUPowerRatingWatts     *float64      `json:"gpu_power_rating_watts"`
	CPUPowerRatingWatts     *float64      `json:"cpu_power_rating_watts"`
	SystemID                string        `json:"system_id"`
	ModelName               string        `json:"model_name"`
	ModelVersion            *string       `json:"model_version"`
	HardwareType            HardwareClass `json:"hardware_type"`
}

// ErrorActionSuffix marks the error variant of an action name.
const ErrorActionSuffix = "_error"

// ErrorEvent builds the error-variant event for a failed attempt. Timing and
// model fields are left unset since they were not known at failure time.
func ErrorEvent(action, targetRegion string, cause error) Event {
	return Event{
		Action:       action + ErrorActionSuffix,
		Payload:      TruncatePayload(fmt.Sprintf("Error: %v", cause)),
		TargetRegion: targetRegion,
	}
}

// TruncatePayload enforces the payload bound, appending "..." when content
// was cut.
func TruncatePayload(s string) string {
	if len(s) <= MaxPayloadLen {
		return s
	}
	return s[:MaxPayloadLen] + "..."
}
