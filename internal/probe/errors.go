package probe

import "errors"

var (
	// ErrProbe is returned when the probe cannot run: bad config or an
	// unreachable gateway.
	ErrProbe = errors.New("probe failed")

	// ErrContractViolation is returned when at least one response did not
	// match the routing contract.
	ErrContractViolation = errors.New("contract violation")
)
