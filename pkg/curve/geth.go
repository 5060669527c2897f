package curve

import (
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

var _ Curve = (*GethCurve)(nil)

// GethCurve uses go-ethereum's secp256k1 implementation (libsecp256k1 with cgo,
// decred otherwise).
type GethCurve struct{}

func NewGethCurve() *GethCurve {
	return &GethCurve{}
}

func (g *GethCurve) Name() string {
	return BackendGeth.String()
}

func (g *GethCurve) SignRecoverable(hash, privateKey []byte) ([]byte, byte, error) {
	if err := checkHash(hash); err != nil {
		return nil, 0, err
	}
	key, err := crypto.ToECDSA(privateKey)
	if err != nil {
		return nil, 0, errors.Wrap(ErrInvalidPrivateKey, err.Error())
	}

	sig, err := crypto.Sign(hash, key)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to sign hash")
	}
	// sig is r||s||v with v in {0, 1}
	return sig[:sigLength], sig[sigLength], nil
}

func (g *GethCurve) Verify(hash, publicKey, sig []byte) bool {
	if len(hash) != hashLength || len(sig) != sigLength {
		return false
	}
	return crypto.VerifySignature(publicKey, hash, sig)
}

func (g *GethCurve) Recover(hash, sig []byte, recoveryID byte, compressed bool) ([]byte, error) {
	if err := checkHash(hash); err != nil {
		return nil, err
	}
	if _, _, err := parseScalars(sig); err != nil {
		return nil, err
	}
	if recoveryID > 1 {
		return nil, errors.Wrapf(ErrInvalidSignatureScalar, "recovery id %d", recoveryID)
	}

	full := make([]byte, sigLength+1)
	copy(full, sig)
	full[sigLength] = recoveryID

	pub, err := crypto.SigToPub(hash, full)
	if err != nil {
		// well formed scalars without a matching curve point
		return nil, nil
	}
	if compressed {
		return crypto.CompressPubkey(pub), nil
	}
	return crypto.FromECDSAPub(pub), nil
}

func (g *GethCurve) PublicKey(privateKey []byte, compressed bool) ([]byte, error) {
	key, err := crypto.ToECDSA(privateKey)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidPrivateKey, err.Error())
	}
	if compressed {
		return crypto.CompressPubkey(&key.PublicKey), nil
	}
	return crypto.FromECDSAPub(&key.PublicKey), nil
}
