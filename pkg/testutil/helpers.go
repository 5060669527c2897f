package testutil

import (
	"encoding/hex"
	"testing"

	"github.com/Layr-Labs/inscription-signer-go/pkg/curve"
	"github.com/Layr-Labs/inscription-signer-go/pkg/types"
)

// Well known secp256k1 keys: the private scalars 1 and 2 and their compressed
// public keys G and 2G.
const (
	PrivateKeyHex      = "0000000000000000000000000000000000000000000000000000000000000001"
	PublicKeyHex       = "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
	OtherPrivateKeyHex = "0000000000000000000000000000000000000000000000000000000000000002"
	OtherPublicKeyHex  = "02c6047f9441ed7d6d3045406e95c07cd85c778e4b8cef3ca7abac09b95c709ee5"
)

// MustHex decodes s or fails the test
func MustHex(t testing.TB, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("Failed to decode hex %q: %v", s, err)
	}
	return b
}

// KeyPair returns the key pair of PrivateKeyHex
func KeyPair(t testing.TB) *types.KeyPair {
	t.Helper()
	return newKeyPair(t, PrivateKeyHex, PublicKeyHex)
}

// OtherKeyPair returns the key pair of OtherPrivateKeyHex
func OtherKeyPair(t testing.TB) *types.KeyPair {
	t.Helper()
	return newKeyPair(t, OtherPrivateKeyHex, OtherPublicKeyHex)
}

func newKeyPair(t testing.TB, priv, pub string) *types.KeyPair {
	t.Helper()
	kp, err := types.NewKeyPair(MustHex(t, priv), MustHex(t, pub))
	if err != nil {
		t.Fatalf("Failed to create key pair: %v", err)
	}
	return kp
}

// Curves returns one instance of every supported backend
func Curves(t testing.TB) []curve.Curve {
	t.Helper()
	var curves []curve.Curve
	for _, backend := range curve.SupportedBackends() {
		c, err := curve.New(backend)
		if err != nil {
			t.Fatalf("Failed to create curve %s: %v", backend, err)
		}
		curves = append(curves, c)
	}
	return curves
}
