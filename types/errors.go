package types

import "github.com/pkg/errors"

// Kind classifies a failure the way spec §7 enumerates the error taxonomy.
// Every error surfaced across a package boundary in this module carries one.
type Kind uint8

const (
	// KindMalformedInput covers failed decodes, wrong sizes, bad hex/base58,
	// and signature parse failures.
	KindMalformedInput Kind = iota
	// KindInvariantViolation covers Merkle mismatches, number/hash
	// mismatches, and stale blocks.
	KindInvariantViolation
	// KindAuthorizationFailure covers insufficient signature weight, wrong
	// permission, and disabled operation bits.
	KindAuthorizationFailure
	// KindResourceExhaustion covers insufficient bandwidth, energy,
	// balance, or frozen amount.
	KindResourceExhaustion
	// KindPrecondition covers feature gates that are off, range violations,
	// duplicate names, and expired proposals.
	KindPrecondition
	// KindStateConsistency covers db read/write errors and missing
	// expected keys; these are treated as fatal.
	KindStateConsistency
	// KindTransient covers peer timeouts and connection resets; scoped to
	// a single connection.
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindMalformedInput:
		return "malformed-input"
	case KindInvariantViolation:
		return "invariant-violation"
	case KindAuthorizationFailure:
		return "authorization-failure"
	case KindResourceExhaustion:
		return "resource-exhaustion"
	case KindPrecondition:
		return "precondition-failure"
	case KindStateConsistency:
		return "state-consistency"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// KindedError wraps a cause with a taxonomy Kind so callers upstream (the
// channel protocol, the CLI, block-push error handling) can decide whether to
// disconnect a peer, abort the node, or simply reject a transaction.
type KindedError struct {
	kind  Kind
	cause error
}

func (e *KindedError) Error() string {
	return e.kind.String() + ": " + e.cause.Error()
}

// Unwrap exposes the underlying cause for errors.Is/errors.As.
func (e *KindedError) Unwrap() error {
	return e.cause
}

// Kind returns the error taxonomy classification.
func (e *KindedError) Kind() Kind {
	return e.kind
}

// Newf builds a KindedError from a formatted message, attaching a stack trace
// via github.com/pkg/errors the way the rest of this module reports failures.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &KindedError{kind: kind, cause: errors.Errorf(format, args...)}
}

// Wrap attaches a Kind to an existing error without discarding its stack.
func Wrap(kind Kind, err error, message string) error {
	if err == nil {
		return nil
	}
	return &KindedError{kind: kind, cause: errors.Wrap(err, message)}
}

// KindOf extracts the Kind from err, defaulting to KindStateConsistency if
// err was not produced by this package (treat unclassified errors as fatal,
// never as something safe to swallow).
func KindOf(err error) Kind {
	var ke *KindedError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return KindStateConsistency
}
