package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Layr-Labs/inscription-signer-go/pkg/protocol"
	"github.com/Layr-Labs/inscription-signer-go/pkg/signature"
	"github.com/Layr-Labs/inscription-signer-go/pkg/types"
	"github.com/Layr-Labs/inscription-signer-go/pkg/util"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"
)

// printJSON writes v to the app's stdout as a single JSON line
func printJSON(c *cli.Context, v any) error {
	data, err := util.EncodeJSON(v)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(c.App.Writer, string(data))
	return err
}

// decodeHex accepts hex with or without 0x
func decodeHex(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	return hexutil.Decode(s)
}

func publicKeyCommand(c *cli.Context, rt *runtime) error {
	kp, err := rt.keyPair()
	if err != nil {
		return err
	}
	return printJSON(c, map[string]string{"publicKey": kp.PublicKeyHex()})
}

func signCommand(c *cli.Context, rt *runtime) error {
	kp, err := rt.keyPair()
	if err != nil {
		return err
	}

	sig, digest, err := rt.engine.Sign(c.String("message"), kp.PrivateKey(), c.String("salt"))
	if err != nil {
		return fmt.Errorf("failed to sign message: %w", err)
	}

	return printJSON(c, util.OrderedObject{
		{Key: "sig", Value: sig},
		{Key: "hash", Value: hex.EncodeToString(digest[:])},
		{Key: "pub", Value: kp.PublicKeyHex()},
	})
}

func verifyCommand(c *cli.Context, rt *runtime) error {
	hash, err := decodeHex(c.String("hash"))
	if err != nil {
		return fmt.Errorf("invalid hash: %w", err)
	}
	pub, err := decodeHex(c.String("public-key"))
	if err != nil {
		return fmt.Errorf("invalid public key: %w", err)
	}
	var sig signature.Signature
	if err := json.Unmarshal([]byte(c.String("sig")), &sig); err != nil {
		return fmt.Errorf("invalid signature JSON: %w", err)
	}

	verified, err := rt.engine.Verify(hash, pub, &sig)
	if err != nil {
		return err
	}

	return printJSON(c, types.TestResult{
		Valid:        verified.IsValid && verified.PubRecovered == hex.EncodeToString(pub),
		Pub:          hex.EncodeToString(pub),
		PubRecovered: verified.PubRecovered,
	})
}

// printResult prints the inscription and logs the self verification outcome
func printResult(c *cli.Context, rt *runtime, result *types.VerificationResult) error {
	rt.logger.Sugar().Debugw("Self verification",
		"valid", result.Test.Valid,
		"pub", result.Test.Pub,
		"pubRecovered", result.Test.PubRecovered,
	)
	return printJSON(c, result)
}

func privilegeAuthCommand(c *cli.Context, rt *runtime) error {
	kp, err := rt.keyPair()
	if err != nil {
		return err
	}

	raw := json.RawMessage(c.String("auth"))
	if !json.Valid(raw) {
		return fmt.Errorf("auth must be valid JSON")
	}

	// RawMessage keeps the caller's key order in the signed text
	result, err := rt.assembler.PrivilegeAuth(kp, &protocol.PrivilegeAuthRequest{
		Auth: raw,
		Key:  c.String("key"),
		Salt: c.String("salt"),
	})
	if err != nil {
		return err
	}
	return printResult(c, rt, result)
}

func verificationCommand(c *cli.Context, rt *runtime) error {
	kp, err := rt.keyPair()
	if err != nil {
		return err
	}

	result, err := rt.assembler.Verification(kp, &protocol.VerificationRequest{
		Address: c.String("address"),
		Prv:     c.String("prv"),
		Verify:  c.String("verify"),
		Col:     c.String("col"),
		Seq:     c.Int64("seq"),
		Salt:    c.String("salt"),
	})
	if err != nil {
		return err
	}
	return printResult(c, rt, result)
}

func tokenMintCommand(c *cli.Context, rt *runtime) error {
	kp, err := rt.keyPair()
	if err != nil {
		return err
	}

	result, err := rt.assembler.TokenMint(kp, &protocol.TokenMintRequest{
		Tick:    c.String("tick"),
		Amt:     c.String("amt"),
		Address: c.String("address"),
		Salt:    c.String("salt"),
	})
	if err != nil {
		return err
	}
	return printResult(c, rt, result)
}

func dmtMintCommand(c *cli.Context, rt *runtime) error {
	kp, err := rt.keyPair()
	if err != nil {
		return err
	}

	result, err := rt.assembler.DmtMint(kp, &protocol.DmtMintRequest{
		Tick:    c.String("tick"),
		Blk:     c.String("blk"),
		Dep:     c.String("dep"),
		Address: c.String("address"),
		Salt:    c.String("salt"),
	})
	if err != nil {
		return err
	}
	return printResult(c, rt, result)
}

func tokenAuthCommand(c *cli.Context, rt *runtime) error {
	kp, err := rt.keyPair()
	if err != nil {
		return err
	}

	result, err := rt.assembler.TokenAuth(kp, &protocol.TokenAuthRequest{
		Ticks: c.StringSlice("tick"),
		Salt:  c.String("salt"),
	})
	if err != nil {
		return err
	}
	return printResult(c, rt, result)
}

func tokenRedeemCommand(c *cli.Context, rt *runtime) error {
	kp, err := rt.keyPair()
	if err != nil {
		return err
	}

	var items []protocol.RedeemItem
	if err := json.Unmarshal([]byte(c.String("items")), &items); err != nil {
		return fmt.Errorf("invalid items JSON: %w", err)
	}

	result, err := rt.assembler.TokenRedeem(kp, &protocol.TokenRedeemRequest{
		Items: items,
		Auth:  c.String("auth"),
		Data:  c.String("data"),
		Salt:  c.String("salt"),
	})
	if err != nil {
		return err
	}
	return printResult(c, rt, result)
}

func checkCommand(c *cli.Context, rt *runtime) error {
	inscription := c.String("inscription")
	if inscription == "-" {
		data, err := io.ReadAll(c.App.Reader)
		if err != nil {
			return fmt.Errorf("failed to read inscription: %w", err)
		}
		inscription = strings.TrimSpace(string(data))
	}

	var pub []byte
	if s := c.String("public-key"); s != "" {
		decoded, err := decodeHex(s)
		if err != nil {
			return fmt.Errorf("invalid public key: %w", err)
		}
		pub = decoded
	} else {
		kp, err := rt.keyPair()
		if err != nil {
			return fmt.Errorf("no --public-key given and no private key to derive it from: %w", err)
		}
		pub = kp.PublicKey()
	}

	result, err := rt.assembler.Check(inscription, pub)
	if err != nil {
		return err
	}
	if err := printJSON(c, result.Test); err != nil {
		return err
	}
	if !result.Test.Valid {
		return fmt.Errorf("inscription did not verify")
	}
	return nil
}

func historyCommand(c *cli.Context, rt *runtime) error {
	if rt.journal == nil {
		return fmt.Errorf("history requires a journal, set --journal")
	}
	entries, err := rt.journal.List()
	if err != nil {
		return fmt.Errorf("failed to list journal: %w", err)
	}
	return printJSON(c, entries)
}
