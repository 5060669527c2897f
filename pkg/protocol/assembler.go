// Package protocol builds TAP inscription messages, signs them through the
// engine and self-verifies the result before returning it.
package protocol

import (
	"time"

	"github.com/Layr-Labs/inscription-signer-go/pkg/engine"
	"github.com/Layr-Labs/inscription-signer-go/pkg/hasher"
	"github.com/Layr-Labs/inscription-signer-go/pkg/logger"
	"github.com/Layr-Labs/inscription-signer-go/pkg/persistence"
	"github.com/Layr-Labs/inscription-signer-go/pkg/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type AssemblerConfig struct {
	// Protocol is the "p" field, DefaultProtocol when empty
	Protocol string

	// Journal, when set, rejects reused salts and records every signed inscription
	Journal persistence.IInscriptionJournal

	// NewSalt generates a salt when a request has none. Defaults to a random UUID.
	NewSalt func() string
}

type Assembler struct {
	engine   *engine.Engine
	logger   *zap.Logger
	protocol string
	journal  persistence.IInscriptionJournal
	newSalt  func() string
}

func NewAssembler(e *engine.Engine, cfg *AssemblerConfig, l *zap.Logger) *Assembler {
	if cfg == nil {
		cfg = &AssemblerConfig{}
	}
	a := &Assembler{
		engine:   e,
		logger:   logger.OrNop(l),
		protocol: cfg.Protocol,
		journal:  cfg.Journal,
		newSalt:  cfg.NewSalt,
	}
	if a.protocol == "" {
		a.protocol = DefaultProtocol
	}
	if a.newSalt == nil {
		a.newSalt = uuid.NewString
	}
	return a
}

type PrivilegeAuthRequest struct {
	// Auth is the arbitrary JSON content stored under Key and signed
	Auth any
	// Key names the payload field, KeyAuth when empty
	Key  string
	Salt string
}

type VerificationRequest struct {
	Address string
	Prv     string
	Verify  string
	Col     string
	Seq     int64
	Salt    string
}

type TokenMintRequest struct {
	Tick    string
	Amt     string
	Address string
	Salt    string
}

type DmtMintRequest struct {
	Tick    string
	Blk     string
	Dep     string
	Address string
	Salt    string
}

type TokenAuthRequest struct {
	Ticks []string
	Salt  string
}

type TokenRedeemRequest struct {
	Items []RedeemItem
	Auth  string
	Data  string
	Salt  string
}

func (a *Assembler) PrivilegeAuth(kp *types.KeyPair, req *PrivilegeAuthRequest) (*types.VerificationResult, error) {
	if req == nil {
		return nil, errors.Wrap(types.ErrInvalidInput, "request is nil")
	}
	key := req.Key
	if key == "" {
		key = KeyAuth
	}
	if isReservedKey(key) {
		return nil, errors.Wrapf(types.ErrInvalidInput, "payload key %q collides with a signed field", key)
	}
	salt := a.salt(req.Salt)
	return a.assemble(NewPrivilegeAuth(a.protocol, salt, key, req.Auth), kp)
}

func (a *Assembler) Verification(kp *types.KeyPair, req *VerificationRequest) (*types.VerificationResult, error) {
	if req == nil {
		return nil, errors.Wrap(types.ErrInvalidInput, "request is nil")
	}
	salt := a.salt(req.Salt)
	return a.assemble(NewVerification(a.protocol, salt, req.Address, req.Prv, req.Verify, req.Col, req.Seq), kp)
}

func (a *Assembler) TokenMint(kp *types.KeyPair, req *TokenMintRequest) (*types.VerificationResult, error) {
	if req == nil {
		return nil, errors.Wrap(types.ErrInvalidInput, "request is nil")
	}
	salt := a.salt(req.Salt)
	return a.assemble(NewTokenMint(a.protocol, salt, req.Address, req.Tick, req.Amt), kp)
}

func (a *Assembler) DmtMint(kp *types.KeyPair, req *DmtMintRequest) (*types.VerificationResult, error) {
	if req == nil {
		return nil, errors.Wrap(types.ErrInvalidInput, "request is nil")
	}
	salt := a.salt(req.Salt)
	return a.assemble(NewDmtMint(a.protocol, salt, req.Address, req.Tick, req.Blk, req.Dep), kp)
}

func (a *Assembler) TokenAuth(kp *types.KeyPair, req *TokenAuthRequest) (*types.VerificationResult, error) {
	if req == nil {
		return nil, errors.Wrap(types.ErrInvalidInput, "request is nil")
	}
	salt := a.salt(req.Salt)
	return a.assemble(NewTokenAuth(a.protocol, salt, req.Ticks), kp)
}

func (a *Assembler) TokenRedeem(kp *types.KeyPair, req *TokenRedeemRequest) (*types.VerificationResult, error) {
	if req == nil {
		return nil, errors.Wrap(types.ErrInvalidInput, "request is nil")
	}
	salt := a.salt(req.Salt)
	return a.assemble(NewTokenRedeem(a.protocol, salt, req.Items, req.Auth, req.Data), kp)
}

// SignAndVerify signs an already built draft. Use it when the signed text is not
// derived from the draft itself, e.g. a privilege-auth without payload.
func (a *Assembler) SignAndVerify(draft Draft, kp *types.KeyPair, baseMessage string, messageKey string) (*types.VerificationResult, error) {
	if draft == nil {
		return nil, errors.Wrap(types.ErrInvalidInput, "draft is nil")
	}
	if err := a.checkSalt(draft.Salt(), hasher.HashHex(baseMessage, draft.Salt()), kp); err != nil {
		return nil, err
	}

	result, err := a.engine.SignAndVerify(draft, kp, baseMessage, messageKey)
	if err != nil {
		return nil, err
	}

	if err := a.record(draft, result); err != nil {
		return nil, err
	}

	a.logger.Sugar().Infow("Signed inscription",
		"op", draft.Op(),
		"placement", draft.Placement().String(),
		"hash", draft.SignedHash(),
	)
	return result, nil
}

func (a *Assembler) assemble(draft Draft, kp *types.KeyPair) (*types.VerificationResult, error) {
	base, err := draft.BaseMessage()
	if err != nil {
		return nil, err
	}
	return a.SignAndVerify(draft, kp, base, draft.MessageKey())
}

// salt returns the requested salt, or a fresh one when empty
func (a *Assembler) salt(requested string) string {
	if requested != "" {
		return requested
	}
	return a.newSalt()
}

// checkSalt rejects a recorded salt unless it was recorded for the same hash and
// key, in which case signing again reproduces the recorded inscription.
func (a *Assembler) checkSalt(salt string, hash string, kp *types.KeyPair) error {
	if a.journal == nil {
		return nil
	}
	used, err := a.journal.HasSalt(salt)
	if err != nil {
		return errors.Wrap(err, "failed to check salt history")
	}
	if !used {
		return nil
	}

	existing, err := a.journal.Load(hash)
	if err != nil {
		return errors.Wrap(err, "failed to check salt history")
	}
	if existing == nil || existing.Salt != salt || kp == nil || existing.PublicKey != kp.PublicKeyHex() {
		return errors.Wrapf(types.ErrSaltReused, "salt %q", salt)
	}
	return nil
}

func (a *Assembler) record(draft Draft, result *types.VerificationResult) error {
	if a.journal == nil {
		return nil
	}
	err := a.journal.Record(&persistence.JournalEntry{
		Hash:      draft.SignedHash(),
		Op:        draft.Op().String(),
		Salt:      draft.Salt(),
		PublicKey: result.Test.Pub,
		Result:    result.Result,
		CreatedAt: time.Now().Unix(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to record inscription")
	}
	return nil
}
