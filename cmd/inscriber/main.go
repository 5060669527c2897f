package main

import (
	"fmt"
	"log"
	"os"

	"github.com/Layr-Labs/inscription-signer-go/pkg/config"
	"github.com/Layr-Labs/inscription-signer-go/pkg/curve"
	"github.com/Layr-Labs/inscription-signer-go/pkg/protocol"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func saltFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "salt",
		Usage: "Salt mixed into the message hash (default: random UUID)",
	}
}

func addressFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "address",
		Usage:    "Address that receives the minted tokens",
		Required: true,
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "inscriber",
		Usage: "Sign and verify TAP protocol inscriptions",
		Description: `Builds TAP inscription JSON, signs it with a secp256k1 key and verifies the
signature before printing the inscription.

Results are printed as JSON on stdout, logs go to stderr.`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "private-key",
				Usage:   "Hex secp256k1 private key used for signing",
				EnvVars: []string{config.EnvInscriberPrivateKey},
			},
			&cli.StringFlag{
				Name:    "curve",
				Usage:   fmt.Sprintf("secp256k1 backend: %s, %s", curve.BackendGeth, curve.BackendDecred),
				Value:   string(curve.BackendGeth),
				EnvVars: []string{config.EnvInscriberCurve},
			},
			&cli.StringFlag{
				Name:    "protocol",
				Usage:   "Value of the \"p\" field",
				Value:   config.DefaultProtocol,
				EnvVars: []string{config.EnvInscriberProtocol},
			},
			&cli.StringFlag{
				Name:    "journal",
				Usage:   fmt.Sprintf("Inscription journal: %s", config.GetSupportedJournalTypesString()),
				Value:   string(config.JournalTypeNone),
				EnvVars: []string{config.EnvInscriberJournal},
			},
			&cli.StringFlag{
				Name:    "journal-path",
				Usage:   "Data directory of the badger journal",
				EnvVars: []string{config.EnvInscriberJournalPath},
			},
			&cli.StringFlag{
				Name:    "redis-address",
				Usage:   "Redis address (host:port) of the redis journal",
				EnvVars: []string{config.EnvInscriberRedisAddress},
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password",
				EnvVars: []string{config.EnvInscriberRedisPassword},
			},
			&cli.IntFlag{
				Name:    "redis-db",
				Usage:   "Redis database number",
				EnvVars: []string{config.EnvInscriberRedisDB},
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Enable debug logging",
				EnvVars: []string{config.EnvInscriberDebug},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "public-key",
				Usage:  "Print the compressed public key of the configured private key",
				Action: withRuntime(publicKeyCommand),
			},
			{
				Name:  "sign",
				Usage: "Sign a message with a salt",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "message", Usage: "Message to sign", Required: true},
					saltFlag(),
				},
				Action: withRuntime(signCommand),
			},
			{
				Name:  "verify",
				Usage: "Verify a signature over a message hash",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "hash", Usage: "Hex message hash", Required: true},
					&cli.StringFlag{Name: "sig", Usage: `Signature JSON, e.g. {"v":"0","r":"..","s":".."}`, Required: true},
					&cli.StringFlag{Name: "public-key", Usage: "Hex compressed public key", Required: true},
				},
				Action: withRuntime(verifyCommand),
			},
			{
				Name:  "privilege-auth",
				Usage: "Sign a privilege authority",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "auth", Usage: "Authority content as JSON", Required: true},
					&cli.StringFlag{Name: "key", Usage: "Field the content is stored under", Value: protocol.KeyAuth},
					saltFlag(),
				},
				Action: withRuntime(privilegeAuthCommand),
			},
			{
				Name:  "verification",
				Usage: "Sign a privilege verification of an inscription",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "address", Usage: "Address of the verified inscription owner", Required: true},
					&cli.StringFlag{Name: "prv", Usage: "Privilege authority inscription id", Required: true},
					&cli.StringFlag{Name: "verify", Usage: "Inscription (hash) being verified", Required: true},
					&cli.StringFlag{Name: "col", Usage: "Collection name", Required: true},
					&cli.Int64Flag{Name: "seq", Usage: "Sequence number within the collection", Required: true},
					saltFlag(),
				},
				Action: withRuntime(verificationCommand),
			},
			{
				Name:  "token-mint",
				Usage: "Sign a privileged token mint",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "tick", Usage: "Token ticker", Required: true},
					&cli.StringFlag{Name: "amt", Usage: "Amount to mint", Required: true},
					addressFlag(),
					saltFlag(),
				},
				Action: withRuntime(tokenMintCommand),
			},
			{
				Name:  "dmt-mint",
				Usage: "Sign a privileged DMT mint",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "tick", Usage: "Token ticker", Required: true},
					&cli.StringFlag{Name: "blk", Usage: "Block number", Required: true},
					&cli.StringFlag{Name: "dep", Usage: "Deployment inscription id", Required: true},
					addressFlag(),
					saltFlag(),
				},
				Action: withRuntime(dmtMintCommand),
			},
			{
				Name:  "token-auth",
				Usage: "Sign a token authority for the given ticks",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "tick", Usage: "Authorized ticker, repeatable", Required: true},
					saltFlag(),
				},
				Action: withRuntime(tokenAuthCommand),
			},
			{
				Name:  "token-redeem",
				Usage: "Sign a token redeem against a token authority",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "items", Usage: `Items as JSON, e.g. [{"tick":"..","amt":"..","address":".."}]`, Required: true},
					&cli.StringFlag{Name: "auth", Usage: "Token authority inscription id", Required: true},
					&cli.StringFlag{Name: "data", Usage: "Arbitrary data"},
					saltFlag(),
				},
				Action: withRuntime(tokenRedeemCommand),
			},
			{
				Name:  "check",
				Usage: "Re-verify an inscription produced by this tool",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "inscription", Usage: "Inscription JSON, or - to read stdin", Required: true},
					&cli.StringFlag{Name: "public-key", Usage: "Hex compressed public key (default: derived from the private key)"},
				},
				Action: withRuntime(checkCommand),
			},
			{
				Name:   "history",
				Usage:  "List inscriptions recorded in the journal",
				Action: withRuntime(historyCommand),
			},
		},
	}
}
