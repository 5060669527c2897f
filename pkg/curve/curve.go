// Package curve adapts third-party secp256k1 implementations to the small
// recoverable-signature contract the signing engine depends on.
package curve

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"
)

const (
	hashLength       = 32
	privateKeyLength = 32
	sigLength        = 64
)

var (
	// ErrInvalidSignatureScalar is returned by Recover when r or s is zero or not below the group order
	ErrInvalidSignatureScalar = errors.New("signature scalar out of range")

	// ErrInvalidPrivateKey is returned when a private key is not a valid non-zero scalar
	ErrInvalidPrivateKey = errors.New("invalid private key")

	// ErrInvalidHash is returned when a digest handed to a backend is not 32 bytes
	ErrInvalidHash = errors.New("hash must be 32 bytes")
)

// Curve is the recoverable ECDSA contract over secp256k1.
//
// Recover returns (nil, nil) when the signature scalars are well formed but no
// public key can be recovered from them.
type Curve interface {
	Name() string
	SignRecoverable(hash, privateKey []byte) ([]byte, byte, error)
	Verify(hash, publicKey, sig []byte) bool
	Recover(hash, sig []byte, recoveryID byte, compressed bool) ([]byte, error)
	PublicKey(privateKey []byte, compressed bool) ([]byte, error)
}

type Backend string

const (
	BackendGeth   Backend = "geth"
	BackendDecred Backend = "decred"
)

func (b Backend) String() string {
	return string(b)
}

// New returns the curve implementation for the named backend. An empty name selects geth.
func New(backend Backend) (Curve, error) {
	switch backend {
	case BackendGeth, "":
		return NewGethCurve(), nil
	case BackendDecred:
		return NewDecredCurve(), nil
	default:
		return nil, fmt.Errorf("unsupported curve backend: %s", backend)
	}
}

// SupportedBackends lists the accepted backend names
func SupportedBackends() []Backend {
	return []Backend{BackendGeth, BackendDecred}
}

func checkHash(hash []byte) error {
	if len(hash) != hashLength {
		return errors.Wrapf(ErrInvalidHash, "got %d bytes", len(hash))
	}
	return nil
}

func checkPrivateKey(privateKey []byte) error {
	if len(privateKey) != privateKeyLength {
		return errors.Wrapf(ErrInvalidPrivateKey, "expected %d bytes, got %d", privateKeyLength, len(privateKey))
	}
	var d secp256k1.ModNScalar
	if overflow := d.SetByteSlice(privateKey); overflow {
		return errors.Wrap(ErrInvalidPrivateKey, "scalar is not below the group order")
	}
	if d.IsZero() {
		return errors.Wrap(ErrInvalidPrivateKey, "scalar is zero")
	}
	return nil
}

// parseScalars decodes r and s from a 64 byte signature, rejecting zero and
// out-of-range values.
func parseScalars(sig []byte) (r, s secp256k1.ModNScalar, err error) {
	if len(sig) != sigLength {
		return r, s, errors.Wrapf(ErrInvalidSignatureScalar, "signature must be %d bytes, got %d", sigLength, len(sig))
	}
	if overflow := r.SetByteSlice(sig[:32]); overflow || r.IsZero() {
		return r, s, errors.Wrap(ErrInvalidSignatureScalar, "r")
	}
	if overflow := s.SetByteSlice(sig[32:]); overflow || s.IsZero() {
		return r, s, errors.Wrap(ErrInvalidSignatureScalar, "s")
	}
	return r, s, nil
}
