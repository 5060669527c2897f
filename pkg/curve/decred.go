package curve

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/pkg/errors"
)

var _ Curve = (*DecredCurve)(nil)

const (
	// compact signature header: 27 + recovery code (+4 for compressed keys)
	compactMagicOffset = 27
	compactCompressed  = 4
)

// DecredCurve uses the pure Go secp256k1 implementation from dcrd
type DecredCurve struct{}

func NewDecredCurve() *DecredCurve {
	return &DecredCurve{}
}

func (d *DecredCurve) Name() string {
	return BackendDecred.String()
}

func (d *DecredCurve) SignRecoverable(hash, privateKey []byte) ([]byte, byte, error) {
	if err := checkHash(hash); err != nil {
		return nil, 0, err
	}
	if err := checkPrivateKey(privateKey); err != nil {
		return nil, 0, err
	}
	key := secp256k1.PrivKeyFromBytes(privateKey)
	defer key.Zero()

	compact := ecdsa.SignCompact(key, hash, true)
	code := compact[0] - compactMagicOffset - compactCompressed
	if code > 1 {
		return nil, 0, errors.Errorf("unsupported recovery code %d", code)
	}
	return append([]byte{}, compact[1:]...), code, nil
}

func (d *DecredCurve) Verify(hash, publicKey, sig []byte) bool {
	if len(hash) != hashLength {
		return false
	}
	r, s, err := parseScalars(sig)
	if err != nil || s.IsOverHalfOrder() {
		return false
	}
	pub, err := secp256k1.ParsePubKey(publicKey)
	if err != nil {
		return false
	}
	return ecdsa.NewSignature(&r, &s).Verify(hash, pub)
}

func (d *DecredCurve) Recover(hash, sig []byte, recoveryID byte, compressed bool) ([]byte, error) {
	if err := checkHash(hash); err != nil {
		return nil, err
	}
	if _, _, err := parseScalars(sig); err != nil {
		return nil, err
	}
	if recoveryID > 1 {
		return nil, errors.Wrapf(ErrInvalidSignatureScalar, "recovery id %d", recoveryID)
	}

	compact := make([]byte, 1+sigLength)
	compact[0] = compactMagicOffset + compactCompressed + recoveryID
	copy(compact[1:], sig)

	pub, _, err := ecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return nil, nil
	}
	if compressed {
		return pub.SerializeCompressed(), nil
	}
	return pub.SerializeUncompressed(), nil
}

func (d *DecredCurve) PublicKey(privateKey []byte, compressed bool) ([]byte, error) {
	if err := checkPrivateKey(privateKey); err != nil {
		return nil, err
	}
	key := secp256k1.PrivKeyFromBytes(privateKey)
	defer key.Zero()

	if compressed {
		return key.PubKey().SerializeCompressed(), nil
	}
	return key.PubKey().SerializeUncompressed(), nil
}
