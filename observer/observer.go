package observer

import (
	"context"
	"time"

	"github.com/Brano80/veridion-nexus/ledger"
)

// InvokeInfo describes one instrumented invocation.
type InvokeInfo struct {
	InvocationID string
	Action       string
	SystemID     string
	ModelName    string
	TargetRegion string
	Streaming    bool
	Duration     time.Duration
}

// Observer receives invocation and submission callbacks. Implementations
// must be safe for concurrent use.
type Observer interface {
	OnInvokeStart(ctx context.Context, info InvokeInfo)
	OnInvokeEnd(ctx context.Context, info InvokeInfo, err error)
	OnSubmit(ctx context.Context, event ledger.Event, receipt *ledger.Receipt, err error)
	OnDrop(ctx context.Context, event ledger.Event, reason string)
}

// Noop discards all callbacks.
type Noop struct{}

func (Noop) OnInvokeStart(context.Context, InvokeInfo)                          {}
func (Noop) OnInvokeEnd(context.Context, InvokeInfo, error)                     {}
func (Noop) OnSubmit(context.Context, ledger.Event, *ledger.Receipt, error)     {}
func (Noop) OnDrop(context.Context, ledger.Event, string)                       {}

// Composite fans callbacks out to multiple observers.
type Composite struct {
	items []Observer
}

// NewComposite creates a composite observer, dropping nil entries.
func NewComposite(items ...Observer) *Composite {
	return &Composite{items: filterObservers(items)}
}

// Add appends observers.
func (o *Composite) Add(items ...Observer) {
	o.items = append(o.items, filterObservers(items)...)
}

func (o *Composite) OnInvokeStart(ctx context.Context, info InvokeInfo) {
	for _, obs := range o.items {
		obs.OnInvokeStart(ctx, info)
	}
}

func (o *Composite) OnInvokeEnd(ctx context.Context, info InvokeInfo, err error) {
	for _, obs := range o.items {
		obs.OnInvokeEnd(ctx, info, err)
	}
}

func (o *Composite) OnSubmit(ctx context.Context, event ledger.Event, receipt *ledger.Receipt, err error) {
	for _, obs := range o.items {
		obs.OnSubmit(ctx, event, receipt, err)
	}
}

func (o *Composite) OnDrop(ctx context.Context, event ledger.Event, reason string) {
	for _, obs := range o.items {
		obs.OnDrop(ctx, event, reason)
	}
}

func filterObservers(items []Observer) []Observer {
	result := make([]Observer, 0, len(items))
	for _, item := range items {
		if item != nil {
			result = append(result, item)
		}
	}
	return result
}

var (
	_ Observer              = Noop{}
	_ Observer              = (*Composite)(nil)
	_ ledger.SubmitObserver = Noop{}
	_ ledger.SubmitObserver = (*Composite)(nil)
)
