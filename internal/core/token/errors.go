package token

import "errors"

var (
	ErrMalformed        = errors.New("token malformed")
	ErrInvalidSignature = errors.New("token signature invalid")
	ErrExpired          = errors.New("token expired")
)

// VerificationError is returned by Codec.Verify. Kind is one of ErrMalformed,
// ErrInvalidSignature or ErrExpired; Err is the underlying parser error, if any.
type VerificationError struct {
	Kind error
	Err  error
}

func (e *VerificationError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error()
}

// Is makes errors.Is(err, ErrExpired) and friends work on a *VerificationError.
func (e *VerificationError) Is(target error) bool {
	return e.Kind == target
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}
