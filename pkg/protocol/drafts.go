package protocol

import (
	"fmt"
	"strconv"

	"github.com/Layr-Labs/inscription-signer-go/pkg/types"
	"github.com/Layr-Labs/inscription-signer-go/pkg/util"
	"github.com/pkg/errors"
)

var (
	_ Draft = (*PrivilegeAuth)(nil)
	_ Draft = (*Verification)(nil)
	_ Draft = (*TokenMint)(nil)
	_ Draft = (*DmtMint)(nil)
	_ Draft = (*TokenAuth)(nil)
	_ Draft = (*TokenRedeem)(nil)
)

// encodePayload is the text signed by keyed variants
func encodePayload(v any) (string, error) {
	s, err := util.EncodeJSONString(v)
	if err != nil {
		return "", errors.Wrapf(types.ErrInvalidInput, "failed to encode payload: %v", err)
	}
	return s, nil
}

// PrivilegeAuth authorizes a privilege. The caller's content is stored under Key
// and its JSON encoding is what gets signed. Without a key the message carries no
// content and the signed text must be supplied by the caller.
type PrivilegeAuth struct {
	header
	Key     string
	Content any
}

func NewPrivilegeAuth(p, salt, key string, content any) *PrivilegeAuth {
	return &PrivilegeAuth{
		header:  newHeader(p, OpPrivilegeAuth, PlacementFlat, salt, ""),
		Key:     key,
		Content: content,
	}
}

func (d *PrivilegeAuth) MessageKey() string {
	return d.Key
}

func (d *PrivilegeAuth) Payload(key string) (any, bool) {
	if d.Key == "" || key != d.Key {
		return nil, false
	}
	return d.Content, true
}

func (d *PrivilegeAuth) BaseMessage() (string, error) {
	if d.Key == "" {
		return "", errors.Wrap(types.ErrInvalidInput, "privilege-auth without a payload key has no derived base message")
	}
	return encodePayload(d.Content)
}

func (d *PrivilegeAuth) MarshalJSON() ([]byte, error) {
	var fields util.OrderedObject
	if d.Key != "" {
		fields = append(fields, util.Field{Key: d.Key, Value: d.Content})
	}
	return d.object(fields).MarshalJSON()
}

// Verification is a privilege-auth message that vouches for another inscription
// (verify) in a collection (col) under the privilege authority prv.
type Verification struct {
	header
	Address string
	Prv     string
	Verify  string
	Col     string
	Seq     int64
}

func NewVerification(p, salt, address, prv, verify, col string, seq int64) *Verification {
	return &Verification{
		header:  newHeader(p, OpPrivilegeAuth, PlacementFlat, salt, ""),
		Address: address,
		Prv:     prv,
		Verify:  verify,
		Col:     col,
		Seq:     seq,
	}
}

func (d *Verification) MessageKey() string {
	return ""
}

func (d *Verification) Payload(string) (any, bool) {
	return nil, false
}

func (d *Verification) BaseMessage() (string, error) {
	return fmt.Sprintf("%s-%s-%s-%s-%s-", d.Prv, d.Col, d.Verify, strconv.FormatInt(d.Seq, 10), d.Address), nil
}

func (d *Verification) MarshalJSON() ([]byte, error) {
	return d.object(util.OrderedObject{
		{Key: "address", Value: d.Address},
		{Key: "prv", Value: d.Prv},
		{Key: "verify", Value: d.Verify},
		{Key: "col", Value: d.Col},
		{Key: "seq", Value: d.Seq},
	}).MarshalJSON()
}

// TokenMint mints amt of tick, signed under prv
type TokenMint struct {
	header
	Tick string
	Amt  string
}

func NewTokenMint(p, salt, address, tick, amt string) *TokenMint {
	return &TokenMint{
		header: newHeader(p, OpTokenMint, PlacementNested, salt, address),
		Tick:   lowerTick(tick),
		Amt:    amt,
	}
}

func (d *TokenMint) Address() string {
	return d.address
}

func (d *TokenMint) MessageKey() string {
	return ""
}

func (d *TokenMint) Payload(string) (any, bool) {
	return nil, false
}

func (d *TokenMint) BaseMessage() (string, error) {
	return fmt.Sprintf("%s-%s-%s-%s-%s-", d.p, d.op, d.Tick, d.Amt, d.address), nil
}

func (d *TokenMint) MarshalJSON() ([]byte, error) {
	return d.object(util.OrderedObject{
		{Key: "tick", Value: d.Tick},
		{Key: "amt", Value: d.Amt},
	}).MarshalJSON()
}

// DmtMint mints a DMT token for block blk of the deployment dep
type DmtMint struct {
	header
	Tick string
	Blk  string
	Dep  string
}

func NewDmtMint(p, salt, address, tick, blk, dep string) *DmtMint {
	return &DmtMint{
		header: newHeader(p, OpDmtMint, PlacementNested, salt, address),
		Tick:   lowerTick(tick),
		Blk:    blk,
		Dep:    dep,
	}
}

func (d *DmtMint) Address() string {
	return d.address
}

func (d *DmtMint) MessageKey() string {
	return ""
}

func (d *DmtMint) Payload(string) (any, bool) {
	return nil, false
}

func (d *DmtMint) BaseMessage() (string, error) {
	return fmt.Sprintf("%s-%s-%s-%s-%s-%s-", d.p, d.op, d.Tick, d.Blk, d.Dep, d.address), nil
}

func (d *DmtMint) MarshalJSON() ([]byte, error) {
	return d.object(util.OrderedObject{
		{Key: "tick", Value: d.Tick},
		{Key: "blk", Value: d.Blk},
		{Key: "dep", Value: d.Dep},
	}).MarshalJSON()
}

// TokenAuth authorizes the listed ticks for signed token redemption
type TokenAuth struct {
	header
	Auth []string
}

func NewTokenAuth(p, salt string, ticks []string) *TokenAuth {
	auth := make([]string, len(ticks))
	for i, tick := range ticks {
		auth[i] = lowerTick(tick)
	}
	return &TokenAuth{
		header: newHeader(p, OpTokenAuth, PlacementFlat, salt, ""),
		Auth:   auth,
	}
}

func (d *TokenAuth) MessageKey() string {
	return KeyAuth
}

func (d *TokenAuth) Payload(key string) (any, bool) {
	if key != KeyAuth {
		return nil, false
	}
	return d.Auth, true
}

func (d *TokenAuth) BaseMessage() (string, error) {
	return encodePayload(d.Auth)
}

func (d *TokenAuth) MarshalJSON() ([]byte, error) {
	return d.object(util.OrderedObject{
		{Key: KeyAuth, Value: d.Auth},
	}).MarshalJSON()
}

// RedeemItem moves amt of tick to address
type RedeemItem struct {
	Tick    string `json:"tick"`
	Amt     string `json:"amt"`
	Address string `json:"address"`
	Dta     string `json:"dta,omitempty"`
}

// RedeemPayload is the signed body of a redeem message. Auth references the
// token-auth inscription that authorized the ticks.
type RedeemPayload struct {
	Items []RedeemItem `json:"items"`
	Auth  string       `json:"auth"`
	Data  string       `json:"data"`
}

// TokenRedeem is a token-auth message redeeming previously authorized ticks
type TokenRedeem struct {
	header
	Redeem RedeemPayload
}

func NewTokenRedeem(p, salt string, items []RedeemItem, auth, data string) *TokenRedeem {
	lowered := make([]RedeemItem, len(items))
	for i, item := range items {
		item.Tick = lowerTick(item.Tick)
		lowered[i] = item
	}
	return &TokenRedeem{
		header: newHeader(p, OpTokenAuth, PlacementFlat, salt, ""),
		Redeem: RedeemPayload{Items: lowered, Auth: auth, Data: data},
	}
}

func (d *TokenRedeem) MessageKey() string {
	return KeyRedeem
}

func (d *TokenRedeem) Payload(key string) (any, bool) {
	if key != KeyRedeem {
		return nil, false
	}
	return d.Redeem, true
}

func (d *TokenRedeem) BaseMessage() (string, error) {
	return encodePayload(d.Redeem)
}

func (d *TokenRedeem) MarshalJSON() ([]byte, error) {
	return d.object(util.OrderedObject{
		{Key: KeyRedeem, Value: d.Redeem},
	}).MarshalJSON()
}
