package types

import (
	"encoding/hex"

	"github.com/pkg/errors"
)

const (
	// PrivateKeyLength is the size of a raw secp256k1 private scalar
	PrivateKeyLength = 32

	// PublicKeyLength is the size of a compressed secp256k1 public key
	PublicKeyLength = 33

	// HashLength is the size of a SHA-256 message digest
	HashLength = 32
)

// KeyPair holds a raw private key and its compressed public key.
// Both slices are copied on construction and on access.
type KeyPair struct {
	privateKey []byte
	publicKey  []byte
}

// NewKeyPair validates the key lengths and returns an immutable key pair
func NewKeyPair(privateKey, publicKey []byte) (*KeyPair, error) {
	if len(privateKey) != PrivateKeyLength {
		return nil, errors.Wrapf(ErrInvalidInput, "private key must be %d bytes, got %d", PrivateKeyLength, len(privateKey))
	}
	if len(publicKey) != PublicKeyLength {
		return nil, errors.Wrapf(ErrInvalidInput, "public key must be %d bytes, got %d", PublicKeyLength, len(publicKey))
	}

	return &KeyPair{
		privateKey: append([]byte{}, privateKey...),
		publicKey:  append([]byte{}, publicKey...),
	}, nil
}

// PrivateKey returns a copy of the raw private key
func (kp *KeyPair) PrivateKey() []byte {
	return append([]byte{}, kp.privateKey...)
}

// PublicKey returns a copy of the compressed public key
func (kp *KeyPair) PublicKey() []byte {
	return append([]byte{}, kp.publicKey...)
}

// PublicKeyHex returns the compressed public key as lowercase hex without a 0x prefix
func (kp *KeyPair) PublicKeyHex() string {
	return hex.EncodeToString(kp.publicKey)
}
