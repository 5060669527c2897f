package protocol

import (
	"strings"

	"github.com/Layr-Labs/inscription-signer-go/pkg/engine"
	"github.com/Layr-Labs/inscription-signer-go/pkg/signature"
	"github.com/Layr-Labs/inscription-signer-go/pkg/util"
)

// DefaultProtocol is the value of the "p" field
const DefaultProtocol = "tap"

type Op string

const (
	OpPrivilegeAuth Op = "privilege-auth"
	OpTokenMint     Op = "token-mint"
	OpDmtMint       Op = "dmt-mint"
	OpTokenAuth     Op = "token-auth"
)

func (o Op) String() string {
	return string(o)
}

// Placement says where a variant keeps its sig, hash and salt
type Placement int

const (
	// PlacementFlat stores them at the top level of the message
	PlacementFlat Placement = iota
	// PlacementNested stores them under "prv" next to "prv.address"
	PlacementNested
)

func (p Placement) String() string {
	switch p {
	case PlacementFlat:
		return "flat"
	case PlacementNested:
		return "nested"
	default:
		return "unknown"
	}
}

// Payload keys used by the keyed variants
const (
	KeyAuth   = "auth"
	KeyRedeem = "redeem"
)

// Draft is a protocol message before and after signing
type Draft interface {
	engine.Draft
	Op() Op
	Placement() Placement
	// MessageKey names the payload whose JSON encoding is signed, empty when the
	// signed text is built from the message fields
	MessageKey() string
	// BaseMessage derives the text that gets signed
	BaseMessage() (string, error)
	// SignedHash is the embedded hex hash, empty until signed
	SignedHash() string
	Signature() *signature.Signature
}

// signatureSlot holds the fields written by the engine
type signatureSlot struct {
	sig  *signature.Signature
	hash *string
	salt string
}

func (s *signatureSlot) Salt() string {
	return s.salt
}

func (s *signatureSlot) SetSignature(sig *signature.Signature, hash string) {
	s.sig = sig
	if sig == nil || hash == "" {
		s.sig = nil
		s.hash = nil
		return
	}
	s.hash = &hash
}

func (s *signatureSlot) SignedHash() string {
	if s.hash == nil {
		return ""
	}
	return *s.hash
}

func (s *signatureSlot) Signature() *signature.Signature {
	return s.sig
}

func (s *signatureSlot) fields() util.OrderedObject {
	return util.OrderedObject{
		{Key: "sig", Value: s.sig},
		{Key: "hash", Value: s.hash},
		{Key: "salt", Value: s.salt},
	}
}

// header is shared by every variant
type header struct {
	signatureSlot
	p         string
	op        Op
	placement Placement
	address   string // prv.address, nested variants only
}

func newHeader(p string, op Op, placement Placement, salt, address string) header {
	if p == "" {
		p = DefaultProtocol
	}
	return header{
		signatureSlot: signatureSlot{salt: salt},
		p:             p,
		op:            op,
		placement:     placement,
		address:       address,
	}
}

func (h *header) Op() Op {
	return h.op
}

func (h *header) Placement() Placement {
	return h.placement
}

// object lays out p, op, the variant fields and the signature fields according to
// the placement. Flat variants put the signature before their own fields.
func (h *header) object(fields util.OrderedObject) util.OrderedObject {
	out := util.OrderedObject{
		{Key: "p", Value: h.p},
		{Key: "op", Value: h.op},
	}
	switch h.placement {
	case PlacementNested:
		prv := util.OrderedObject{
			{Key: "sig", Value: h.sig},
			{Key: "hash", Value: h.hash},
			{Key: "address", Value: h.address},
			{Key: "salt", Value: h.salt},
		}
		out = append(out, fields...)
		out = append(out, util.Field{Key: "prv", Value: prv})
	default:
		out = append(out, h.signatureSlot.fields()...)
		out = append(out, fields...)
	}
	return out
}

func lowerTick(tick string) string {
	return strings.ToLower(tick)
}
