package observer

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"time"

	"github.com/Brano80/veridion-nexus/ledger"
)

// JSONObserver outputs structured JSON log lines.
type JSONObserver struct {
	logger *log.Logger
}

// NewJSONObserver creates a JSONObserver writing to out.
func NewJSONObserver(out io.Writer) *JSONObserver {
	if out == nil {
		out = io.Discard
	}
	return &JSONObserver{logger: log.New(out, "", 0)}
}

func (o *JSONObserver) OnInvokeStart(ctx context.Context, info InvokeInfo) {
	o.log("invoke_start", map[string]interface{}{
		"invocation_id": info.InvocationID,
		"action":        info.Action,
		"system_id":     info.SystemID,
		"model":         info.ModelName,
		"target_region": info.TargetRegion,
		"streaming":     info.Streaming,
	})
}

func (o *JSONObserver) OnInvokeEnd(ctx context.Context, info InvokeInfo, err error) {
	fields := map[string]interface{}{
		"invocation_id": info.InvocationID,
		"action":        info.Action,
		"system_id":     info.SystemID,
		"duration_ms":   info.Duration.Milliseconds(),
	}
	if err != nil {
		fields["error"] = err.Error()
		o.log("invoke_error", fields)
		return
	}
	o.log("invoke_end", fields)
}

func (o *JSONObserver) OnSubmit(ctx context.Context, event ledger.Event, receipt *ledger.Receipt, err error) {
	fields := map[string]interface{}{
		"action":        event.Action,
		"agent_id":      event.AgentID,
		"target_region": event.TargetRegion,
	}
	if err != nil {
		fields["error"] = err.Error()
		o.log("submit_error", fields)
		return
	}
	if receipt != nil {
		fields["seal_id"] = receipt.SealID
		fields["tx_id"] = receipt.TxID
	}
	o.log("submit", fields)
}

func (o *JSONObserver) OnDrop(ctx context.Context, event ledger.Event, reason string) {
	o.log("drop", map[string]interface{}{
		"action": event.Action,
		"reason": reason,
	})
}

func (o *JSONObserver) log(event string, fields map[string]interface{}) {
	payload := map[string]interface{}{
		"ts":    time.Now().Format(time.RFC3339Nano),
		"event": event,
	}
	for k, v := range fields {
		payload[k] = v
	}
	data, err := json.Marshal(payload)
	if err != nil {
		o.logger.Printf("{\"event\":\"error\",\"error\":\"%s\"}", err.Error())
		return
	}
	o.logger.Print(string(data))
}

var _ Observer = (*JSONObserver)(nil)
