package convert

import (
	"fmt"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// Policy selects how unsigned destinations are bounded.
type Policy int

const (
	// SignedBound treats unsigned kinds as the non-negative half of the
	// signed kind of the same width.
	SignedBound Policy = iota

	// Strict uses the true unsigned range.
	Strict
)

func (p Policy) String() string {
	switch p {
	case SignedBound:
		return types.PolicySignedBound
	case Strict:
		return types.PolicyStrict
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// ParsePolicy maps a configuration value to a Policy. The empty string
// selects SignedBound.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", types.PolicySignedBound:
		return SignedBound, nil
	case types.PolicyStrict:
		return Strict, nil
	}
	return SignedBound, fmt.Errorf("%w: %q", types.ErrInvalidPolicy, s)
}
