package builder

import (
	"errors"
	"fmt"

	"github.com/puff/AsmResolver/metadata"
)

// ErrBuilderState indicates a build-phase method was called out of
// order. Builders are single use.
var ErrBuilderState = errors.New("builder used out of phase")

// ErrTokenCollision is the fatal condition of two live entities
// claiming the same original token under a preserving policy.
var ErrTokenCollision = errors.New("token collision")

// ErrPreservationImpossible is the fatal condition of a preservation
// request that no legal table layout can satisfy.
var ErrPreservationImpossible = errors.New("preservation impossible")

// TokenCollisionError identifies the colliding token and both
// claimants by display name.
type TokenCollisionError struct {
	Token  metadata.Token
	First  string
	Second string
}

func (e *TokenCollisionError) Error() string {
	return fmt.Sprintf("token collision: %s claimed by both %s and %s", e.Token, e.First, e.Second)
}

func (e *TokenCollisionError) Unwrap() error { return ErrTokenCollision }

// PreservationImpossibleError carries the table and reason.
type PreservationImpossibleError struct {
	Table  metadata.TableIndex
	Reason string
}

func (e *PreservationImpossibleError) Error() string {
	return fmt.Sprintf("preservation impossible for %s: %s", e.Table, e.Reason)
}

func (e *PreservationImpossibleError) Unwrap() error { return ErrPreservationImpossible }
