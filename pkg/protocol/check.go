package protocol

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/Layr-Labs/inscription-signer-go/pkg/hasher"
	"github.com/Layr-Labs/inscription-signer-go/pkg/signature"
	"github.com/Layr-Labs/inscription-signer-go/pkg/types"
	"github.com/pkg/errors"
)

// signedFields are the engine written fields of an inscription
type signedFields struct {
	Sig     *signature.Signature `json:"sig"`
	Hash    *string              `json:"hash"`
	Salt    string               `json:"salt"`
	Address string               `json:"address"`
}

// Check re-parses an inscription produced by one of the builders, rebuilds the
// text it was signed over and verifies the embedded signature against publicKey.
//
// The result is invalid, not an error, when the embedded hash does not match the
// rebuilt text or the signature belongs to another key.
func (a *Assembler) Check(inscription string, publicKey []byte) (*types.VerificationResult, error) {
	if len(publicKey) != types.PublicKeyLength {
		return nil, errors.Wrapf(types.ErrInvalidInput, "public key must be %d bytes, got %d", types.PublicKeyLength, len(publicKey))
	}

	var msg map[string]json.RawMessage
	if err := json.Unmarshal([]byte(inscription), &msg); err != nil {
		return nil, errors.Wrapf(types.ErrInvalidInput, "failed to parse inscription: %v", err)
	}

	signed, base, err := rebuild(msg)
	if err != nil {
		return nil, err
	}
	if signed.Sig == nil || signed.Hash == nil {
		return nil, errors.Wrap(types.ErrInvalidInput, "inscription is not signed")
	}

	digest := hasher.Hash(base, signed.Salt)
	embedded, err := hex.DecodeString(*signed.Hash)
	if err != nil {
		return nil, errors.Wrapf(types.ErrInvalidInput, "embedded hash is not hex: %v", err)
	}

	verified, err := a.engine.Verify(digest[:], publicKey, signed.Sig)
	if err != nil {
		return nil, err
	}

	test := types.TestResult{
		Valid:        verified.IsValid && bytes.Equal(embedded, digest[:]),
		Pub:          hex.EncodeToString(publicKey),
		PubRecovered: verified.PubRecovered,
	}
	if !test.Valid {
		a.logger.Sugar().Debugw("Inscription did not verify",
			"hashMatches", bytes.Equal(embedded, digest[:]),
			"signatureValid", verified.IsValid,
		)
	}
	return &types.VerificationResult{Test: test, Result: inscription}, nil
}

// rebuild extracts the signature fields and derives the signed text of a parsed
// inscription, choosing the variant from op and the fields present.
func rebuild(msg map[string]json.RawMessage) (*signedFields, string, error) {
	var p, op string
	if err := decodeField(msg, "p", &p); err != nil {
		return nil, "", err
	}
	if err := decodeField(msg, "op", &op); err != nil {
		return nil, "", err
	}

	signed := &signedFields{}

	// nested variants keep everything under a "prv" object; Verification uses
	// "prv" as a plain string
	if prv, ok := msg["prv"]; ok && isObject(prv) {
		if err := json.Unmarshal(prv, signed); err != nil {
			return nil, "", errors.Wrapf(types.ErrInvalidInput, "failed to parse prv: %v", err)
		}
		var tick string
		if err := decodeField(msg, "tick", &tick); err != nil {
			return nil, "", err
		}
		switch Op(op) {
		case OpTokenMint:
			var amt string
			if err := decodeField(msg, "amt", &amt); err != nil {
				return nil, "", err
			}
			base, err := NewTokenMint(p, signed.Salt, signed.Address, tick, amt).BaseMessage()
			return signed, base, err
		case OpDmtMint:
			var blk, dep string
			if err := decodeField(msg, "blk", &blk); err != nil {
				return nil, "", err
			}
			if err := decodeField(msg, "dep", &dep); err != nil {
				return nil, "", err
			}
			base, err := NewDmtMint(p, signed.Salt, signed.Address, tick, blk, dep).BaseMessage()
			return signed, base, err
		default:
			return nil, "", errors.Wrapf(types.ErrInvalidInput, "op %q has no nested form", op)
		}
	}

	if err := decodeTopLevelSigned(msg, signed); err != nil {
		return nil, "", err
	}

	// keyed variants sign the payload exactly as it was emitted
	for _, key := range []string{KeyRedeem, KeyAuth} {
		if raw, ok := msg[key]; ok {
			return signed, string(raw), nil
		}
	}

	if Op(op) != OpPrivilegeAuth {
		return nil, "", errors.Wrapf(types.ErrInvalidInput, "unsupported %q inscription", op)
	}
	if _, ok := msg["verify"]; !ok {
		// a custom payload key is the one field besides the reserved ones
		var payload []string
		for key := range msg {
			if !isReservedKey(key) {
				payload = append(payload, key)
			}
		}
		if len(payload) != 1 {
			return nil, "", errors.Wrap(types.ErrInvalidInput, "privilege-auth without payload has no derivable signed text")
		}
		return signed, string(msg[payload[0]]), nil
	}

	var address, prv, verify, col string
	for key, dst := range map[string]*string{"address": &address, "prv": &prv, "verify": &verify, "col": &col} {
		if err := decodeField(msg, key, dst); err != nil {
			return nil, "", err
		}
	}
	var seq json.Number
	if err := decodeField(msg, "seq", &seq); err != nil {
		return nil, "", err
	}
	seqValue, err := seq.Int64()
	if err != nil {
		return nil, "", errors.Wrapf(types.ErrInvalidInput, "seq is not an integer: %v", err)
	}
	base, err := NewVerification(p, signed.Salt, address, prv, verify, col, seqValue).BaseMessage()
	return signed, base, err
}

func decodeField(msg map[string]json.RawMessage, key string, dst any) error {
	raw, ok := msg[key]
	if !ok {
		return errors.Wrapf(types.ErrInvalidInput, "inscription has no %q field", key)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errors.Wrapf(types.ErrInvalidInput, "invalid %q field: %v", key, err)
	}
	return nil
}

func isObject(raw json.RawMessage) bool {
	return strings.HasPrefix(strings.TrimSpace(string(raw)), "{")
}

// reservedKeys are the header and signature fields of a flat inscription, plus
// the fields Check uses to pick the nested and verification variants
var reservedKeys = map[string]struct{}{
	"p": {}, "op": {}, "sig": {}, "hash": {}, "salt": {}, "prv": {}, "verify": {},
}

func isReservedKey(key string) bool {
	_, ok := reservedKeys[key]
	return ok
}

// decodeTopLevelSigned decodes the top level sig, hash and salt into signed.
// Address is left out since flat variants carry their own.
func decodeTopLevelSigned(msg map[string]json.RawMessage, signed *signedFields) error {
	for key, dst := range map[string]any{"sig": &signed.Sig, "hash": &signed.Hash, "salt": &signed.Salt} {
		raw, ok := msg[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return errors.Wrapf(types.ErrInvalidInput, "invalid %q field: %v", key, err)
		}
	}
	return nil
}
