// Package engine signs text with recoverable secp256k1 signatures and verifies them,
// delegating curve math to a curve.Curve backend.
package engine

import (
	"encoding/hex"
	"unicode/utf8"

	"github.com/Layr-Labs/inscription-signer-go/pkg/curve"
	"github.com/Layr-Labs/inscription-signer-go/pkg/hasher"
	"github.com/Layr-Labs/inscription-signer-go/pkg/logger"
	"github.com/Layr-Labs/inscription-signer-go/pkg/signature"
	"github.com/Layr-Labs/inscription-signer-go/pkg/types"
	"github.com/Layr-Labs/inscription-signer-go/pkg/util"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// degenerateKey is reported when a well formed signature recovers no point
var degenerateKey = make([]byte, types.PublicKeyLength)

// Draft is the part of a protocol message the engine needs in order to embed a
// signature. Implementations decide where the salt, sig and hash live.
type Draft interface {
	Salt() string
	SetSignature(sig *signature.Signature, hash string)
	Payload(key string) (any, bool)
}

// VerifyResult is the outcome of Verify. Recovered is nil when no public key could
// be recovered; PubRecovered then holds the hex of an all-zero 33 byte key.
type VerifyResult struct {
	IsValid      bool
	PubRecovered string
	Recovered    []byte
}

// Degenerate reports whether recovery produced no key
func (vr *VerifyResult) Degenerate() bool {
	return vr.Recovered == nil
}

type Engine struct {
	curve  curve.Curve
	logger *zap.Logger
}

// NewEngine returns an engine backed by c. A nil logger disables logging.
func NewEngine(c curve.Curve, l *zap.Logger) *Engine {
	return &Engine{
		curve:  c,
		logger: logger.OrNop(l),
	}
}

// Curve returns the backend the engine signs with
func (e *Engine) Curve() curve.Curve {
	return e.curve
}

// Sign hashes message||salt and signs the digest with privateKey
func (e *Engine) Sign(message string, privateKey []byte, salt string) (*signature.Signature, [32]byte, error) {
	var digest [32]byte
	if !utf8.ValidString(message) {
		return nil, digest, errors.Wrap(types.ErrInvalidInput, "message is not valid UTF-8 text")
	}
	if !utf8.ValidString(salt) {
		return nil, digest, errors.Wrap(types.ErrInvalidInput, "salt is not valid UTF-8 text")
	}
	if len(privateKey) != types.PrivateKeyLength {
		return nil, digest, errors.Wrapf(types.ErrInvalidInput, "private key must be %d bytes, got %d", types.PrivateKeyLength, len(privateKey))
	}

	digest = hasher.Hash(message, salt)

	raw, recoveryID, err := e.curve.SignRecoverable(digest[:], privateKey)
	if err != nil {
		return nil, digest, types.WithKind(types.ErrSigningFailed, err)
	}

	sig, err := signature.Split(raw, recoveryID, signature.FormatDecimal)
	if err != nil {
		return nil, digest, types.WithKind(types.ErrSigningFailed, err)
	}

	e.logger.Sugar().Debugw("Signed message",
		"curve", e.curve.Name(),
		"hash", hex.EncodeToString(digest[:]),
		"v", sig.V,
	)
	return sig, digest, nil
}

// Verify checks sig against hash and publicKey and recovers the signing key.
// A signature that does not verify is reported through IsValid; only malformed
// input is an error.
func (e *Engine) Verify(hash []byte, publicKey []byte, sig *signature.Signature) (*VerifyResult, error) {
	if len(hash) != types.HashLength {
		return nil, errors.Wrapf(types.ErrInvalidInput, "hash must be %d bytes, got %d", types.HashLength, len(hash))
	}
	if len(publicKey) != types.PublicKeyLength {
		return nil, errors.Wrapf(types.ErrInvalidInput, "public key must be %d bytes, got %d", types.PublicKeyLength, len(publicKey))
	}

	raw, err := signature.Join(sig)
	if err != nil {
		return nil, types.WithKind(types.ErrRecoveryFailed, err)
	}

	isValid := e.curve.Verify(hash, publicKey, raw.Bytes[:])

	recovered, err := e.curve.Recover(hash, raw.Bytes[:], raw.RecoveryID, true)
	if err != nil {
		return nil, types.WithKind(types.ErrRecoveryFailed, err)
	}

	result := &VerifyResult{IsValid: isValid, Recovered: recovered}
	if recovered == nil {
		e.logger.Sugar().Debugw("Signature recovered no public key", "curve", e.curve.Name())
		result.PubRecovered = hex.EncodeToString(degenerateKey)
	} else {
		result.PubRecovered = hex.EncodeToString(recovered)
	}
	return result, nil
}

// SignAndVerify signs baseMessage with the salt carried by draft, embeds the
// signature and hex hash into draft, then re-derives the signed text and verifies
// it before serializing the draft.
//
// When messageKey is set the re-derived text is the JSON encoding of the draft's
// payload under that key, so baseMessage must equal that encoding. A mismatch fails
// with ErrSelfVerificationFailed.
func (e *Engine) SignAndVerify(draft Draft, kp *types.KeyPair, baseMessage string, messageKey string) (*types.VerificationResult, error) {
	if draft == nil || kp == nil {
		return nil, errors.Wrap(types.ErrInvalidInput, "draft and key pair are required")
	}

	salt := draft.Salt()
	sig, digest, err := e.Sign(baseMessage, kp.PrivateKey(), salt)
	if err != nil {
		return nil, err
	}
	draft.SetSignature(sig, hex.EncodeToString(digest[:]))

	result, err := e.selfVerify(draft, kp, baseMessage, messageKey, salt, sig)
	if err != nil {
		// leave the draft unsigned
		draft.SetSignature(nil, "")
		return nil, err
	}
	return result, nil
}

func (e *Engine) selfVerify(
	draft Draft,
	kp *types.KeyPair,
	baseMessage string,
	messageKey string,
	salt string,
	sig *signature.Signature,
) (*types.VerificationResult, error) {
	signed := baseMessage
	if messageKey != "" {
		payload, ok := draft.Payload(messageKey)
		if !ok {
			return nil, errors.Wrapf(types.ErrInvalidInput, "draft has no payload under %q", messageKey)
		}
		encoded, err := util.EncodeJSONString(payload)
		if err != nil {
			return nil, errors.Wrapf(types.ErrInvalidInput, "failed to encode payload %q: %v", messageKey, err)
		}
		signed = encoded
	}

	digest := hasher.Hash(signed, salt)
	verified, err := e.Verify(digest[:], kp.PublicKey(), sig)
	if err != nil {
		return nil, err
	}

	test := types.TestResult{
		Valid:        verified.IsValid,
		Pub:          kp.PublicKeyHex(),
		PubRecovered: verified.PubRecovered,
	}
	if !test.Valid || test.Pub != test.PubRecovered {
		e.logger.Sugar().Warnw("Self verification failed",
			"valid", test.Valid,
			"pub", test.Pub,
			"pubRecovered", test.PubRecovered,
			"messageKey", messageKey,
		)
		return nil, errors.Wrapf(types.ErrSelfVerificationFailed,
			"valid=%t pub=%s pubRecovered=%s", test.Valid, test.Pub, test.PubRecovered)
	}

	encoded, err := util.EncodeJSONString(draft)
	if err != nil {
		return nil, errors.Wrap(types.ErrInvalidInput, err.Error())
	}

	return &types.VerificationResult{
		Test:   test,
		Result: encoded,
	}, nil
}
