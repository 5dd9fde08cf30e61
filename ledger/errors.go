package ledger

import "fmt"

// TransportError wraps a connection or timeout failure reaching the ledger.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ledger transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// SovereigntyRejectedError means the remote ledger authority denied the
// submission itself. The triggering backend call may already have executed;
// this is a post-hoc compliance failure, not a local gate denial.
type SovereigntyRejectedError struct {
	Body string
}

func (e *SovereigntyRejectedError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("ledger rejected submission: %s", e.Body)
	}
	return "ledger rejected submission"
}

// LedgerError reports any other non-2xx ledger response. The raw body is
// retained for diagnostics.
type LedgerError struct {
	StatusCode int
	Body       string
}

func (e *LedgerError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("ledger returned status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("ledger returned status %d", e.StatusCode)
}
