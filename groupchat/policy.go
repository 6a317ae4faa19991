package groupchat

import (
	"debate-lab/errors"
	"fmt"
)

// FailurePolicy decides what a participant does when its model call fails.
type FailurePolicy string

const (
	// PolicyQuorum reports the failure so the manager counts an abstention
	// and closes the round with whoever answered.
	PolicyQuorum FailurePolicy = "quorum"
	// PolicyStall only logs the failure. The round waits for the deadline, if any.
	PolicyStall FailurePolicy = "stall"
)

func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(s) {
	case PolicyQuorum, PolicyStall:
		return FailurePolicy(s), nil
	default:
		return "", fmt.Errorf("%w: unknown failure policy %q", errors.ErrInvalidConfig, s)
	}
}
