package policy

import (
	"fmt"
	"strings"
)

// Decision is the result of a sovereignty check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Gate restricts which target regions a backend call may use.
// The zero value denies every region.
type Gate struct {
	Prefixes []string
}

// NewGate creates a gate from region prefixes. Empty entries are ignored.
func NewGate(prefixes ...string) Gate {
	kept := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return Gate{Prefixes: kept}
}

// Check compares the target region against the allowed prefixes.
// Matching is case-sensitive, no normalization.
func (g Gate) Check(targetRegion string) Decision {
	for _, prefix := range g.Prefixes {
		if strings.HasPrefix(targetRegion, prefix) {
			return Decision{Allowed: true}
		}
	}
	return Decision{
		Allowed: false,
		Reason: fmt.Sprintf("SOVEREIGN_LOCK_VIOLATION: region %q is not allowed, permitted prefixes: %s",
			targetRegion, strings.Join(g.Prefixes, ", ")),
	}
}

// Require returns a *ViolationError when the region is denied.
func (g Gate) Require(targetRegion string) error {
	decision := g.Check(targetRegion)
	if decision.Allowed {
		return nil
	}
	return &ViolationError{Region: targetRegion, Reason: decision.Reason}
}

// ViolationError reports a locally denied target region. The backend call
// never happened.
type ViolationError struct {
	Region string
	Reason string
}

func (e *ViolationError) Error() string {
	return e.Reason
}
