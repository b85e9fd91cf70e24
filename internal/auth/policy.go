// Package auth decides whether a presented API key may perform a restricted operation.
package auth

import "strings"

// Mode is the security posture of a Policy.
type Mode int

// The zero Mode is restricted, so a zero Policy denies every request.
const (
	// ModeRestricted authorizes only requests presenting a configured key.
	ModeRestricted Mode = iota
	// ModeOpen authorizes every request. It is selected when no keys are configured.
	ModeOpen
)

func (m Mode) String() string {
	switch m {
	case ModeOpen:
		return "open"
	case ModeRestricted:
		return "restricted"
	default:
		return "unknown"
	}
}

// Denial reasons carried by an unauthorized Decision.
const (
	ReasonMissingCredential = "missing credential"
	ReasonInvalidCredential = "invalid credential"
)

// Decision is the outcome of Policy.Decide.
type Decision struct {
	Authorized bool
	// Reason is empty when Authorized is true.
	Reason string
}

// Policy holds the API-key allow-list. It is immutable once built and safe for
// concurrent use.
type Policy struct {
	mode Mode
	keys map[string]struct{}
}

// NewPolicy builds a Policy from keys. Blank keys are ignored; if none remain
// the policy is open.
func NewPolicy(keys []string) Policy {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			set[k] = struct{}{}
		}
	}
	if len(set) == 0 {
		return OpenPolicy()
	}
	return Policy{mode: ModeRestricted, keys: set}
}

// OpenPolicy returns a policy that authorizes everything.
func OpenPolicy() Policy {
	return Policy{mode: ModeOpen}
}

// Mode reports the policy's posture.
func (p Policy) Mode() Mode {
	return p.mode
}

// Decide checks credential against the allow-list. An empty credential means
// none was presented. Matching is exact and case-sensitive.
func (p Policy) Decide(credential string) Decision {
	if p.mode == ModeOpen {
		return Decision{Authorized: true}
	}
	if credential == "" {
		return Decision{Reason: ReasonMissingCredential}
	}
	if _, ok := p.keys[credential]; !ok {
		return Decision{Reason: ReasonInvalidCredential}
	}
	return Decision{Authorized: true}
}
