package preconfengine

import (
	"errors"
	"fmt"

	"github.com/taikoxyz/preconf-driver/packages/taiko-client/driver/whitelist"
)

// Kind tags the closed set of failure categories a façade caller needs to
// branch on, distinct from the finer-grained EngineSubmissionError variants
// the four-step submission protocol itself produces.
type Kind int

const (
	// KindUnavailable means the engine or its transport could not be
	// reached; retrying later may succeed.
	KindUnavailable Kind = iota
	// KindRejected means the engine understood the request but refused the
	// resulting block.
	KindRejected
	// KindOther covers everything else, including the driver's own
	// internal invariants being violated.
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindRejected:
		return "rejected"
	default:
		return "other"
	}
}

// Error is the façade-boundary error type ApplyCommitment and HandleReorg
// return.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Unavailable constructs a KindUnavailable Error.
func Unavailable(reason string, err error) *Error {
	return &Error{Kind: KindUnavailable, Reason: reason, Err: err}
}

// Rejected constructs a KindRejected Error.
func Rejected(reason string, err error) *Error {
	return &Error{Kind: KindRejected, Reason: reason, Err: err}
}

// Other constructs a KindOther Error.
func Other(reason string, err error) *Error {
	return &Error{Kind: KindOther, Reason: reason, Err: err}
}

// SubmissionErrorKind tags the finer-grained failures the four-step engine
// submission protocol can produce, before they are collapsed into a Kind at
// the façade boundary.
type SubmissionErrorKind int

const (
	SubmissionRpc SubmissionErrorKind = iota
	SubmissionProvider
	SubmissionEngineSyncing
	SubmissionInvalidBlock
	SubmissionMissingParent
	SubmissionMissingPayloadID
	SubmissionMissingInsertedBlock
)

// SubmissionError is returned internally by the four-step submission
// protocol; map it to a façade Error with MapSubmissionError.
type SubmissionError struct {
	Kind            SubmissionErrorKind
	BlockNumber     uint64
	ValidationError string
	Err             error
}

func (e *SubmissionError) Error() string {
	switch e.Kind {
	case SubmissionEngineSyncing:
		return fmt.Sprintf("engine syncing at block %d", e.BlockNumber)
	case SubmissionInvalidBlock:
		return fmt.Sprintf("engine rejected block %d: %s", e.BlockNumber, e.ValidationError)
	case SubmissionMissingParent:
		return "parent block not found"
	case SubmissionMissingPayloadID:
		return "engine did not return a payload id"
	case SubmissionMissingInsertedBlock:
		return fmt.Sprintf("inserted block %d not found after promotion", e.BlockNumber)
	case SubmissionProvider:
		return fmt.Sprintf("provider error: %v", e.Err)
	default:
		return fmt.Sprintf("rpc error: %v", e.Err)
	}
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// MapSubmissionError implements the exact mapping table the original
// driver's map_submission_error uses: Rpc and Provider failures are
// transient (Unavailable), syncing/invalid-block failures are terminal for
// that attempt (Rejected), and every missing-data case is an internal
// invariant violation (Other).
func MapSubmissionError(err *SubmissionError) *Error {
	switch err.Kind {
	case SubmissionRpc, SubmissionProvider:
		return Unavailable("engine submission transport failure", err)
	case SubmissionEngineSyncing:
		return Rejected("engine syncing", err)
	case SubmissionInvalidBlock:
		return Rejected("engine rejected block", err)
	default:
		return Other("engine submission invariant violated", err)
	}
}

// MapWhitelistError maps a whitelist admission failure to a façade Error: a
// signer that is not the whitelisted operator is a Rejected commitment, and
// a failure to fetch or parse the whitelist snapshot is Unavailable (the L1
// node, not the commitment, is at fault).
func MapWhitelistError(err error) *Error {
	var werr *whitelist.Error
	if !errors.As(err, &werr) {
		return Other("whitelist admission check failed", err)
	}

	switch werr.Kind {
	case whitelist.KindInvalidSignature:
		return Rejected("signer is not the whitelisted sequencer", werr)
	default:
		return Unavailable("failed to fetch whitelist snapshot", werr)
	}
}
