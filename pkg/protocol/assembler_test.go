package protocol

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Layr-Labs/inscription-signer-go/pkg/curve"
	"github.com/Layr-Labs/inscription-signer-go/pkg/engine"
	"github.com/Layr-Labs/inscription-signer-go/pkg/hasher"
	"github.com/Layr-Labs/inscription-signer-go/pkg/persistence/memory"
	"github.com/Layr-Labs/inscription-signer-go/pkg/testutil"
	"github.com/Layr-Labs/inscription-signer-go/pkg/types"
	"github.com/Layr-Labs/inscription-signer-go/pkg/util"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAssembler(t *testing.T, c curve.Curve, cfg *AssemblerConfig) *Assembler {
	t.Helper()
	return NewAssembler(engine.NewEngine(c, nil), cfg, nil)
}

func TestAssembler_SignAndVerify_NoMessageKey(t *testing.T) {
	kp := testutil.KeyPair(t)

	for _, c := range testutil.Curves(t) {
		t.Run(c.Name(), func(t *testing.T) {
			a := newTestAssembler(t, c, nil)
			draft := NewPrivilegeAuth("", "test_salt", "", nil)

			result, err := a.SignAndVerify(draft, kp, "test_baseMessage", "")
			require.NoError(t, err)

			assert.True(t, result.Test.Valid)
			assert.Equal(t, testutil.PublicKeyHex, result.Test.Pub)
			assert.Equal(t, result.Test.Pub, result.Test.PubRecovered)
			assert.True(t, result.Consistent())

			encoded, err := util.EncodeJSONString(draft)
			require.NoError(t, err)
			assert.Equal(t, encoded, result.Result)

			assert.Equal(t, hasher.HashHex("test_baseMessage", "test_salt"), draft.SignedHash())
			assert.True(t, strings.HasPrefix(result.Result, `{"p":"tap","op":"privilege-auth","sig":{"v":`))
		})
	}
}

func TestAssembler_SignAndVerify_MessageKey(t *testing.T) {
	kp := testutil.KeyPair(t)
	a := newTestAssembler(t, curve.NewGethCurve(), nil)

	draft := NewPrivilegeAuth("", "test_salt", KeyAuth, map[string]string{"message": "test_baseMessage"})
	result, err := a.SignAndVerify(draft, kp, `{"message":"test_baseMessage"}`, KeyAuth)
	require.NoError(t, err)
	assert.True(t, result.Test.Valid)

	var parsed struct {
		Auth map[string]any `json:"auth"`
		Salt string         `json:"salt"`
		Hash string         `json:"hash"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Result), &parsed))
	assert.Equal(t, map[string]any{"message": "test_baseMessage"}, parsed.Auth)
	assert.Equal(t, "test_salt", parsed.Salt)
	assert.Equal(t, hasher.HashHex(`{"message":"test_baseMessage"}`, "test_salt"), parsed.Hash)
}

func TestAssembler_SignAndVerify_MismatchedBaseMessage(t *testing.T) {
	kp := testutil.KeyPair(t)
	a := newTestAssembler(t, curve.NewGethCurve(), nil)

	draft := NewPrivilegeAuth("", "s", KeyAuth, map[string]string{"message": "m"})
	result, err := a.SignAndVerify(draft, kp, "something else", KeyAuth)
	require.ErrorIs(t, err, types.ErrSelfVerificationFailed)
	assert.Nil(t, result)

	// the draft is left unsigned
	assert.Empty(t, draft.SignedHash())
	assert.Nil(t, draft.Signature())
}

func TestAssembler_SignAndVerify_NilDraft(t *testing.T) {
	a := newTestAssembler(t, curve.NewGethCurve(), nil)
	_, err := a.SignAndVerify(nil, testutil.KeyPair(t), "m", "")
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestAssembler_Builders(t *testing.T) {
	kp := testutil.KeyPair(t)

	type builder func(a *Assembler) (*types.VerificationResult, error)
	tests := []struct {
		name   string
		build  builder
		prefix string
	}{
		{
			name: "privilege-auth",
			build: func(a *Assembler) (*types.VerificationResult, error) {
				return a.PrivilegeAuth(kp, &PrivilegeAuthRequest{Auth: map[string]any{"name": "col", "hash": "ab"}, Salt: "s-pa"})
			},
			prefix: `{"p":"tap","op":"privilege-auth","sig":`,
		},
		{
			name: "privilege-auth custom key",
			build: func(a *Assembler) (*types.VerificationResult, error) {
				return a.PrivilegeAuth(kp, &PrivilegeAuthRequest{Auth: map[string]any{"name": "col"}, Key: "msg", Salt: "s-pk"})
			},
			prefix: `{"p":"tap","op":"privilege-auth","sig":`,
		},
		{
			name: "verification",
			build: func(a *Assembler) (*types.VerificationResult, error) {
				return a.Verification(kp, &VerificationRequest{Address: "bc1q", Prv: "prvid", Verify: "insc", Col: "col", Seq: 7, Salt: "s-v"})
			},
			prefix: `{"p":"tap","op":"privilege-auth","sig":`,
		},
		{
			name: "token-mint",
			build: func(a *Assembler) (*types.VerificationResult, error) {
				return a.TokenMint(kp, &TokenMintRequest{Tick: "TAPS", Amt: "1000", Address: "bc1q", Salt: "s-tm"})
			},
			prefix: `{"p":"tap","op":"token-mint","tick":"taps","amt":"1000","prv":{"sig":`,
		},
		{
			name: "dmt-mint",
			build: func(a *Assembler) (*types.VerificationResult, error) {
				return a.DmtMint(kp, &DmtMintRequest{Tick: "NAT", Blk: "800000", Dep: "depi0", Address: "bc1q", Salt: "s-dm"})
			},
			prefix: `{"p":"tap","op":"dmt-mint","tick":"nat","blk":"800000","dep":"depi0","prv":{"sig":`,
		},
		{
			name: "token-auth",
			build: func(a *Assembler) (*types.VerificationResult, error) {
				return a.TokenAuth(kp, &TokenAuthRequest{Ticks: []string{"TAPS", "nat"}, Salt: "s-ta"})
			},
			prefix: `{"p":"tap","op":"token-auth","sig":`,
		},
		{
			name: "token-redeem",
			build: func(a *Assembler) (*types.VerificationResult, error) {
				return a.TokenRedeem(kp, &TokenRedeemRequest{
					Items: []RedeemItem{{Tick: "TAPS", Amt: "5", Address: "bc1r"}},
					Auth:  "authi0",
					Data:  "",
					Salt:  "s-tr",
				})
			},
			prefix: `{"p":"tap","op":"token-auth","sig":`,
		},
	}

	for _, c := range testutil.Curves(t) {
		for _, tt := range tests {
			t.Run(c.Name()+"/"+tt.name, func(t *testing.T) {
				a := newTestAssembler(t, c, nil)

				result, err := tt.build(a)
				require.NoError(t, err)
				assert.True(t, result.Test.Valid)
				assert.Equal(t, testutil.PublicKeyHex, result.Test.PubRecovered)
				assert.True(t, strings.HasPrefix(result.Result, tt.prefix), result.Result)

				checked, err := a.Check(result.Result, kp.PublicKey())
				require.NoError(t, err)
				assert.True(t, checked.Test.Valid)
				assert.Equal(t, testutil.PublicKeyHex, checked.Test.PubRecovered)
				assert.Equal(t, result.Result, checked.Result)

				other, err := a.Check(result.Result, testutil.MustHex(t, testutil.OtherPublicKeyHex))
				require.NoError(t, err)
				assert.False(t, other.Test.Valid)
				assert.False(t, other.Consistent())
			})
		}
	}
}

func TestAssembler_PrivilegeAuthKey(t *testing.T) {
	kp := testutil.KeyPair(t)
	a := newTestAssembler(t, curve.NewGethCurve(), nil)

	result, err := a.PrivilegeAuth(kp, &PrivilegeAuthRequest{Auth: "x", Key: "msg", Salt: "s"})
	require.NoError(t, err)
	assert.Contains(t, result.Result, `"msg":"x"`)
	assert.NotContains(t, result.Result, `"auth"`)

	defaulted, err := a.PrivilegeAuth(kp, &PrivilegeAuthRequest{Auth: "x", Salt: "s"})
	require.NoError(t, err)
	assert.Contains(t, defaulted.Result, `"auth":"x"`)

	for _, key := range []string{"sig", "salt", "prv", "verify"} {
		_, err = a.PrivilegeAuth(kp, &PrivilegeAuthRequest{Auth: "x", Key: key, Salt: "s"})
		assert.ErrorIs(t, err, types.ErrInvalidInput, key)
	}
}

func TestAssembler_NilRequests(t *testing.T) {
	kp := testutil.KeyPair(t)
	a := newTestAssembler(t, curve.NewGethCurve(), nil)

	_, err := a.PrivilegeAuth(kp, nil)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
	_, err = a.Verification(kp, nil)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
	_, err = a.TokenMint(kp, nil)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
	_, err = a.DmtMint(kp, nil)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
	_, err = a.TokenAuth(kp, nil)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
	_, err = a.TokenRedeem(kp, nil)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestAssembler_Salt(t *testing.T) {
	kp := testutil.KeyPair(t)

	t.Run("random by default", func(t *testing.T) {
		a := newTestAssembler(t, curve.NewGethCurve(), nil)

		first, err := a.TokenMint(kp, &TokenMintRequest{Tick: "t", Amt: "1", Address: "x"})
		require.NoError(t, err)
		second, err := a.TokenMint(kp, &TokenMintRequest{Tick: "t", Amt: "1", Address: "x"})
		require.NoError(t, err)
		assert.NotEqual(t, first.Result, second.Result)

		var parsed struct {
			Prv struct {
				Salt string `json:"salt"`
			} `json:"prv"`
		}
		require.NoError(t, json.Unmarshal([]byte(first.Result), &parsed))
		_, err = uuid.Parse(parsed.Prv.Salt)
		assert.NoError(t, err)
	})

	t.Run("custom source", func(t *testing.T) {
		a := newTestAssembler(t, curve.NewGethCurve(), &AssemblerConfig{
			Protocol: "brc",
			NewSalt:  func() string { return "fixed" },
		})

		result, err := a.TokenAuth(kp, &TokenAuthRequest{Ticks: []string{"x"}})
		require.NoError(t, err)
		assert.Contains(t, result.Result, `"p":"brc"`)
		assert.Contains(t, result.Result, `"salt":"fixed"`)
	})

	t.Run("same salt is deterministic", func(t *testing.T) {
		a := newTestAssembler(t, curve.NewGethCurve(), nil)

		first, err := a.TokenAuth(kp, &TokenAuthRequest{Ticks: []string{"x"}, Salt: "s"})
		require.NoError(t, err)
		second, err := a.TokenAuth(kp, &TokenAuthRequest{Ticks: []string{"x"}, Salt: "s"})
		require.NoError(t, err)
		assert.Equal(t, first.Result, second.Result)
	})
}

func TestAssembler_Journal(t *testing.T) {
	kp := testutil.KeyPair(t)
	journal := memory.NewMemoryJournal(nil)
	defer journal.Close()

	a := newTestAssembler(t, curve.NewGethCurve(), &AssemblerConfig{Journal: journal})

	result, err := a.TokenMint(kp, &TokenMintRequest{Tick: "t", Amt: "1", Address: "x", Salt: "once"})
	require.NoError(t, err)

	_, err = a.TokenMint(kp, &TokenMintRequest{Tick: "t", Amt: "2", Address: "x", Salt: "once"})
	assert.ErrorIs(t, err, types.ErrSaltReused)

	entries, err := journal.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "token-mint", entries[0].Op)
	assert.Equal(t, "once", entries[0].Salt)
	assert.Equal(t, testutil.PublicKeyHex, entries[0].PublicKey)
	assert.Equal(t, result.Result, entries[0].Result)
	assert.Equal(t, hasher.HashHex("tap-token-mint-t-1-x-", "once"), entries[0].Hash)
}

func TestAssembler_JournalRepeatedInscription(t *testing.T) {
	kp := testutil.KeyPair(t)
	journal := testutil.NewMockJournal(memory.NewMemoryJournal(nil))
	a := newTestAssembler(t, curve.NewGethCurve(), &AssemblerConfig{Journal: journal})

	req := &TokenMintRequest{Tick: "t", Amt: "1", Address: "x", Salt: "once"}
	first, err := a.TokenMint(kp, req)
	require.NoError(t, err)

	second, err := a.TokenMint(kp, req)
	require.NoError(t, err)
	assert.Equal(t, first.Result, second.Result)

	_, err = a.TokenMint(testutil.OtherKeyPair(t), req)
	assert.ErrorIs(t, err, types.ErrSaltReused)

	entries, err := journal.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, testutil.PublicKeyHex, entries[0].PublicKey)

	record, _ := journal.Calls()
	assert.Equal(t, 2, record)
}

func TestAssembler_Check(t *testing.T) {
	kp := testutil.KeyPair(t)
	a := newTestAssembler(t, curve.NewGethCurve(), nil)

	minted, err := a.TokenMint(kp, &TokenMintRequest{Tick: "t", Amt: "100", Address: "x", Salt: "s"})
	require.NoError(t, err)

	t.Run("tampered field", func(t *testing.T) {
		tampered := strings.Replace(minted.Result, `"amt":"100"`, `"amt":"101"`, 1)
		require.NotEqual(t, minted.Result, tampered)

		result, err := a.Check(tampered, kp.PublicKey())
		require.NoError(t, err)
		assert.False(t, result.Test.Valid)
	})

	t.Run("tampered payload", func(t *testing.T) {
		authed, err := a.TokenAuth(kp, &TokenAuthRequest{Ticks: []string{"a"}, Salt: "s2"})
		require.NoError(t, err)
		tampered := strings.Replace(authed.Result, `"auth":["a"]`, `"auth":["b"]`, 1)

		result, err := a.Check(tampered, kp.PublicKey())
		require.NoError(t, err)
		assert.False(t, result.Test.Valid)
	})

	t.Run("unsigned", func(t *testing.T) {
		encoded, err := util.EncodeJSONString(NewTokenMint("", "s", "x", "t", "1"))
		require.NoError(t, err)
		_, err = a.Check(encoded, kp.PublicKey())
		assert.ErrorIs(t, err, types.ErrInvalidInput)
	})

	t.Run("malformed", func(t *testing.T) {
		for _, input := range []string{
			"",
			"not json",
			`{"op":"token-mint"}`,
			`{"p":"tap","op":"privilege-auth","sig":null,"hash":null,"salt":"s"}`,
			`{"p":"tap","op":"dmt-mint","sig":null,"hash":null,"salt":"s"}`,
			`{"p":"tap","op":"token-auth","tick":"t","prv":{"salt":"s"}}`,
			`{"p":"tap","op":"token-auth","auth":["a"],"sig":null,"hash":null,"salt":7}`,
			`{"p":"tap","op":"token-auth","auth":["a"],"sig":"r,s","hash":null,"salt":"s"}`,
			`{"p":"tap","op":"privilege-auth","a":1,"b":2,"sig":null,"hash":null,"salt":"s"}`,
		} {
			_, err := a.Check(input, kp.PublicKey())
			assert.ErrorIs(t, err, types.ErrInvalidInput, input)
		}
	})

	t.Run("bad public key", func(t *testing.T) {
		_, err := a.Check(minted.Result, []byte{0x02})
		assert.ErrorIs(t, err, types.ErrInvalidInput)
	})
}

func TestAssembler_JournalFailures(t *testing.T) {
	kp := testutil.KeyPair(t)
	boom := errors.New("journal unavailable")

	t.Run("salt lookup", func(t *testing.T) {
		journal := testutil.NewMockJournal(memory.NewMemoryJournal(nil))
		journal.HasSaltErr = boom
		a := newTestAssembler(t, curve.NewGethCurve(), &AssemblerConfig{Journal: journal})

		_, err := a.TokenAuth(kp, &TokenAuthRequest{Ticks: []string{"a"}, Salt: "s"})
		assert.ErrorIs(t, err, boom)

		record, _ := journal.Calls()
		assert.Zero(t, record, "nothing is signed when the salt cannot be checked")
	})

	t.Run("record", func(t *testing.T) {
		journal := testutil.NewMockJournal(memory.NewMemoryJournal(nil))
		journal.RecordErr = boom
		a := newTestAssembler(t, curve.NewGethCurve(), &AssemblerConfig{Journal: journal})

		result, err := a.TokenAuth(kp, &TokenAuthRequest{Ticks: []string{"a"}, Salt: "s"})
		assert.ErrorIs(t, err, boom)
		assert.Nil(t, result)
	})

	t.Run("generated salts are checked too", func(t *testing.T) {
		journal := testutil.NewMockJournal(memory.NewMemoryJournal(nil))
		a := newTestAssembler(t, curve.NewGethCurve(), &AssemblerConfig{
			Journal: journal,
			NewSalt: func() string { return "constant" },
		})

		_, err := a.TokenAuth(kp, &TokenAuthRequest{Ticks: []string{"a"}})
		require.NoError(t, err)
		_, err = a.TokenAuth(kp, &TokenAuthRequest{Ticks: []string{"b"}})
		assert.ErrorIs(t, err, types.ErrSaltReused)

		record, hasSalt := journal.Calls()
		assert.Equal(t, 1, record)
		assert.Equal(t, 2, hasSalt)
	})
}
