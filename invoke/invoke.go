// Package invoke wraps backend calls with sovereignty checks and audit
// logging. Every attempted invocation is reported to the ledger; the
// backend's own response is never altered.
package invoke

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Brano80/veridion-nexus/ledger"
	"github.com/Brano80/veridion-nexus/observer"
	"github.com/Brano80/veridion-nexus/policy"
)

// Metadata describes the call about to be made. TargetRegion is the value
// checked by the policy gate, declared up front rather than inferred after
// the fact.
type Metadata struct {
	AgentID                string
	Action                 string
	TargetRegion           string
	SystemID               string
	ModelName              string
	ModelVersion           string
	Hardware               ledger.HardwareClass
	GPUWatts               *float64
	CPUWatts               *float64
	UserID                 string
	RequiresHumanOversight bool
	Payload                string
}

// Config assembles an Invoker. The delivery mode is decided by the wired
// submitter: a *ledger.Client awaits each round-trip, a
// *ledger.AsyncSubmitter detaches it.
type Config struct {
	Gate      policy.Gate
	Submitter ledger.Submitter
	Observer  observer.Observer

	// ErrorRegion, when set, is the region attributed to error-variant
	// events instead of the per-call target region.
	ErrorRegion string
}

// Invoker runs the policy gate, executes the backend call, measures elapsed
// time, and submits exactly one audit event per attempt. Safe for concurrent
// use.
type Invoker struct {
	gate        policy.Gate
	submitter   ledger.Submitter
	observer    observer.Observer
	errorRegion string
}

// New creates an Invoker. A nil observer is replaced with a no-op.
func New(cfg Config) *Invoker {
	obs := cfg.Observer
	if obs == nil {
		obs = observer.Noop{}
	}
	return &Invoker{
		gate:        cfg.Gate,
		submitter:   cfg.Submitter,
		observer:    obs,
		errorRegion: cfg.ErrorRegion,
	}
}

// Do executes a single-shot backend call under instrumentation.
//
// A gate denial fails immediately: the backend is not called and nothing is
// audited, since the call never happened. A backend failure is propagated
// verbatim after a best-effort error-variant event. After a backend success
// the response is always returned; a non-nil error alongside it can only be
// an awaited ledger submission failure, never a replacement for the
// response.
func Do[T any](ctx context.Context, inv *Invoker, meta Metadata, call func(context.Context) (T, error)) (T, error) {
	var zero T

	if err := inv.gate.Require(meta.TargetRegion); err != nil {
		return zero, err
	}

	info := newInvokeInfo(meta, false)
	inv.observer.OnInvokeStart(ctx, info)

	start := time.Now()
	resp, err := call(ctx)
	elapsed := time.Since(start)

	info.Duration = elapsed
	inv.observer.OnInvokeEnd(ctx, info, err)

	if err != nil {
		inv.submitError(ctx, meta, err)
		return zero, err
	}
	if subErr := inv.submitSuccess(ctx, meta, elapsed); subErr != nil {
		return resp, subErr
	}
	return resp, nil
}

// submitSuccess delivers the success event. The returned error is nil for
// detached submitters.
func (inv *Invoker) submitSuccess(ctx context.Context, meta Metadata, elapsed time.Duration) error {
	_, err := inv.submitter.Submit(ctx, successEvent(meta, elapsed))
	return err
}

// submitError delivers the error-variant event. Its own failure is
// discarded so it can never mask the backend error.
func (inv *Invoker) submitError(ctx context.Context, meta Metadata, cause error) {
	region := meta.TargetRegion
	if inv.errorRegion != "" {
		region = inv.errorRegion
	}
	event := ledger.ErrorEvent(meta.Action, region, cause)
	event.AgentID = meta.AgentID
	_, _ = inv.submitter.Submit(ctx, event)
}

func successEvent(meta Metadata, elapsed time.Duration) ledger.Event {
	ms := elapsed.Milliseconds()
	event := ledger.Event{
		AgentID:                meta.AgentID,
		Action:                 meta.Action,
		Payload:                ledger.TruncatePayload(meta.Payload),
		TargetRegion:           meta.TargetRegion,
		RequiresHumanOversight: meta.RequiresHumanOversight,
		InferenceTimeMs:        &ms,
		GPUPowerRatingWatts:    meta.GPUWatts,
		CPUPowerRatingWatts:    meta.CPUWatts,
		SystemID:               meta.SystemID,
		ModelName:              meta.ModelName,
		HardwareType:           meta.Hardware,
	}
	if meta.ModelVersion != "" {
		event.ModelVersion = &meta.ModelVersion
	}
	if meta.UserID != "" {
		event.UserID = &meta.UserID
	}
	return event
}

func newInvokeInfo(meta Metadata, streaming bool) observer.InvokeInfo {
	return observer.InvokeInfo{
		InvocationID: uuid.New().String(),
		Action:       meta.Action,
		SystemID:     meta.SystemID,
		ModelName:    meta.ModelName,
		TargetRegion: meta.TargetRegion,
		Streaming:    streaming,
	}
}
