package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrPayloadSerialization = errors.New("payload serialization failed")
	ErrIndexMismatch        = errors.New("index mismatch")
	ErrIndexOutOfRange      = errors.New("index out of range")
	ErrEmptyChain           = errors.New("blockchain is empty")
	ErrInvalidChain         = errors.New("invalid chain")
)

// Reason classifies why a chain failed validation.
type Reason string

const (
	ReasonDigestMismatch Reason = "digest mismatch"
	ReasonBrokenLink     Reason = "broken link"
	ReasonIndexMismatch  Reason = "index mismatch"
	ReasonInvalidGenesis Reason = "invalid genesis"
)

// ValidationError reports the first block that failed validation.
type ValidationError struct {
	Position int // position of the block in the chain, not its Index field
	Reason   Reason
	Expected string
	Got      string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("block %d invalid: %s: expected %s, got %s", e.Position, e.Reason, e.Expected, e.Got)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidChain
}
