package invoke

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/Brano80/veridion-nexus/ledger"
	"github.com/Brano80/veridion-nexus/policy"
)

type fakeSubmitter struct {
	mu     sync.Mutex
	events []ledger.Event
	err    error
}

func (s *fakeSubmitter) Submit(ctx context.Context, event ledger.Event) (*ledger.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	if s.err != nil {
		return nil, s.err
	}
	return &ledger.Receipt{SealID: "seal-1", TxID: "tx-1", Status: "sealed"}, nil
}

func (s *fakeSubmitter) recorded() []ledger.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ledger.Event(nil), s.events...)
}

func euMeta() Metadata {
	return Metadata{
		AgentID:      "agent-1",
		Action:       "openai_chat_completion",
		TargetRegion: "eu-west-1",
		SystemID:     "openai",
		ModelName:    "gpt-4.1-mini",
		Hardware:     ledger.HardwareCloud,
		Payload:      `[{"role":"user","content":"hello"}]`,
	}
}

func newTestInvoker(sub ledger.Submitter) *Invoker {
	return New(Config{Gate: policy.NewGate("eu-"), Submitter: sub})
}

func TestDoSuccessSubmitsOneEvent(t *testing.T) {
	sub := &fakeSubmitter{}
	inv := newTestInvoker(sub)

	resp, err := Do(context.Background(), inv, euMeta(), func(ctx context.Context) (string, error) {
		return "backend response", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "backend response" {
		t.Errorf("response altered: %q", resp)
	}

	events := sub.recorded()
	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(events))
	}
	event := events[0]
	if event.Action != "openai_chat_completion" {
		t.Errorf("action = %s", event.Action)
	}
	if event.TargetRegion != "eu-west-1" {
		t.Errorf("target_region = %s", event.TargetRegion)
	}
	if event.InferenceTimeMs == nil || *event.InferenceTimeMs < 0 {
		t.Error("expected non-negative inference time")
	}
	if event.SystemID != "openai" || event.ModelName != "gpt-4.1-mini" {
		t.Errorf("metadata not carried: %+v", event)
	}
}

func TestDoPolicyDenialSkipsBackendAndAudit(t *testing.T) {
	sub := &fakeSubmitter{}
	inv := newTestInvoker(sub)

	meta := euMeta()
	meta.TargetRegion = "us-east-1"

	called := false
	_, err := Do(context.Background(), inv, meta, func(ctx context.Context) (string, error) {
		called = true
		return "", nil
	})

	var violation *policy.ViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected *policy.ViolationError, got %v", err)
	}
	if called {
		t.Error("backend must not be called on denial")
	}
	if len(sub.recorded()) != 0 {
		t.Error("no event may be submitted for a call that never happened")
	}
}

func TestDoBackendErrorPropagatesVerbatim(t *testing.T) {
	sub := &fakeSubmitter{}
	inv := newTestInvoker(sub)

	backendErr := errors.New("connection reset by peer")
	_, err := Do(context.Background(), inv, euMeta(), func(ctx context.Context) (string, error) {
		return "", backendErr
	})

	if !errors.Is(err, backendErr) {
		t.Fatalf("caller must observe the backend error, got %v", err)
	}

	events := sub.recorded()
	if len(events) != 1 {
		t.Fatalf("expected exactly one error event, got %d", len(events))
	}
	if events[0].Action != "openai_chat_completion_error" {
		t.Errorf("action = %s", events[0].Action)
	}
	if !strings.Contains(events[0].Payload, "connection reset by peer") {
		t.Errorf("error description missing from payload: %s", events[0].Payload)
	}
	if events[0].InferenceTimeMs != nil {
		t.Error("error event must not carry timing")
	}
}

func TestDoBackendErrorNeverMaskedByLedgerFailure(t *testing.T) {
	sub := &fakeSubmitter{err: &ledger.LedgerError{StatusCode: 500}}
	inv := newTestInvoker(sub)

	backendErr := errors.New("model overloaded")
	_, err := Do(context.Background(), inv, euMeta(), func(ctx context.Context) (string, error) {
		return "", backendErr
	})
	if !errors.Is(err, backendErr) {
		t.Fatalf("ledger failure must not replace the backend error, got %v", err)
	}
}

func TestDoAwaitedLedgerRejectionKeepsResponse(t *testing.T) {
	sub := &fakeSubmitter{err: &ledger.SovereigntyRejectedError{Body: "denied"}}
	inv := newTestInvoker(sub)

	resp, err := Do(context.Background(), inv, euMeta(), func(ctx context.Context) (string, error) {
		return "backend response", nil
	})

	var rejected *ledger.SovereigntyRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected *SovereigntyRejectedError, got %v", err)
	}
	if resp != "backend response" {
		t.Errorf("successful backend response discarded: %q", resp)
	}
}

func TestDoDetachedDeliveryHidesLedgerFailure(t *testing.T) {
	// An async submitter never reports ledger outcomes to the caller path.
	failing := &fakeSubmitter{err: &ledger.SovereigntyRejectedError{Body: "denied"}}
	async := ledger.NewAsyncSubmitter(failing, ledger.AsyncConfig{QueueSize: 4, Workers: 1})
	defer async.Close()

	inv := New(Config{Gate: policy.NewGate("eu-"), Submitter: async})

	resp, err := Do(context.Background(), inv, euMeta(), func(ctx context.Context) (string, error) {
		return "backend response", nil
	})
	if err != nil {
		t.Fatalf("detached delivery must not surface ledger errors: %v", err)
	}
	if resp != "backend response" {
		t.Errorf("response altered: %q", resp)
	}
}

func TestDoTruncatesEventPayloadOnly(t *testing.T) {
	sub := &fakeSubmitter{}
	inv := newTestInvoker(sub)

	meta := euMeta()
	meta.Payload = strings.Repeat("p", 5000)

	longResponse := strings.Repeat("r", 5000)
	resp, err := Do(context.Background(), inv, meta, func(ctx context.Context) (string, error) {
		return longResponse, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp != longResponse {
		t.Error("backend response must never be truncated")
	}

	events := sub.recorded()
	if len(events[0].Payload) != ledger.MaxPayloadLen+3 {
		t.Errorf("payload length = %d", len(events[0].Payload))
	}
	if !strings.HasSuffix(events[0].Payload, "...") {
		t.Error("expected truncation marker")
	}
}

func TestDoErrorRegionOverride(t *testing.T) {
	sub := &fakeSubmitter{}
	inv := New(Config{
		Gate:        policy.NewGate("eu-"),
		Submitter:   sub,
		ErrorRegion: "EU",
	})

	_, err := Do(context.Background(), inv, euMeta(), func(ctx context.Context) (string, error) {
		return "", errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected backend error")
	}

	events := sub.recorded()
	if events[0].TargetRegion != "EU" {
		t.Errorf("error event region = %s, want override", events[0].TargetRegion)
	}

	// Success events keep the per-call region.
	if _, err := Do(context.Background(), inv, euMeta(), func(ctx context.Context) (string, error) {
		return "ok", nil
	}); err != nil {
		t.Fatal(err)
	}
	events = sub.recorded()
	if events[1].TargetRegion != "eu-west-1" {
		t.Errorf("success event region = %s", events[1].TargetRegion)
	}
}

func TestDoOptionalMetadataCarried(t *testing.T) {
	sub := &fakeSubmitter{}
	inv := newTestInvoker(sub)

	gpu := 250.0
	meta := euMeta()
	meta.ModelVersion = "2025-06"
	meta.UserID = "user-9"
	meta.GPUWatts = &gpu
	meta.RequiresHumanOversight = true

	if _, err := Do(context.Background(), inv, meta, func(ctx context.Context) (string, error) {
		return "ok", nil
	}); err != nil {
		t.Fatal(err)
	}

	event := sub.recorded()[0]
	if event.ModelVersion == nil || *event.ModelVersion != "2025-06" {
		t.Error("model version not carried")
	}
	if event.UserID == nil || *event.UserID != "user-9" {
		t.Error("user id not carried")
	}
	if event.GPUPowerRatingWatts == nil || *event.GPUPowerRatingWatts != 250.0 {
		t.Error("gpu watts not carried")
	}
	if !event.RequiresHumanOversight {
		t.Error("oversight flag not carried")
	}
}
