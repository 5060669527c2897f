package types

import "github.com/pkg/errors"

// Error kinds raised by the signing core. Callers match them with errors.Is; the
// wrapped chain carries the underlying cause.
var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidSignatureLength = errors.New("invalid signature length")
	ErrInvalidSignatureFormat = errors.New("invalid signature format")
	ErrEncoding               = errors.New("encoding error")
	ErrSigningFailed          = errors.New("signing failed")
	ErrRecoveryFailed         = errors.New("Failed to recover the public key")
	ErrSelfVerificationFailed = errors.New("self verification failed")
	ErrSaltReused             = errors.New("salt already used")
)

// kindError pairs an error kind with the cause that triggered it. Both are
// reachable through errors.Is and errors.As.
type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string {
	return e.kind.Error() + ": " + e.cause.Error()
}

func (e *kindError) Unwrap() []error {
	return []error{e.kind, e.cause}
}

// WithKind tags cause with kind, producing "<kind>: <cause>"
func WithKind(kind, cause error) error {
	if cause == nil {
		return nil
	}
	return &kindError{kind: kind, cause: cause}
}
