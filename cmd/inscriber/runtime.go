package main

import (
	"fmt"

	"github.com/Layr-Labs/inscription-signer-go/pkg/config"
	"github.com/Layr-Labs/inscription-signer-go/pkg/curve"
	"github.com/Layr-Labs/inscription-signer-go/pkg/engine"
	"github.com/Layr-Labs/inscription-signer-go/pkg/logger"
	"github.com/Layr-Labs/inscription-signer-go/pkg/persistence"
	"github.com/Layr-Labs/inscription-signer-go/pkg/persistence/badger"
	"github.com/Layr-Labs/inscription-signer-go/pkg/persistence/memory"
	"github.com/Layr-Labs/inscription-signer-go/pkg/persistence/redis"
	"github.com/Layr-Labs/inscription-signer-go/pkg/protocol"
	"github.com/Layr-Labs/inscription-signer-go/pkg/types"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// runtime holds everything a command needs, built from the global flags
type runtime struct {
	cfg       *config.InscriberConfig
	logger    *zap.Logger
	engine    *engine.Engine
	journal   persistence.IInscriptionJournal
	assembler *protocol.Assembler
}

func withRuntime(action func(c *cli.Context, rt *runtime) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		rt, err := newRuntime(c)
		if err != nil {
			return err
		}
		defer rt.Close()
		return action(c, rt)
	}
}

func parseInscriberConfig(c *cli.Context) *config.InscriberConfig {
	cfg := &config.InscriberConfig{
		PrivateKey: c.String("private-key"),
		Curve:      curve.Backend(c.String("curve")),
		Protocol:   c.String("protocol"),
		Journal: config.JournalConfig{
			Type: config.JournalType(c.String("journal")),
			Path: c.String("journal-path"),
			Redis: config.RedisConfig{
				Address:  c.String("redis-address"),
				Password: c.String("redis-password"),
				DB:       c.Int("redis-db"),
			},
		},
		Debug: c.Bool("debug"),
	}
	cfg.ApplyDefaults()
	return cfg
}

func newRuntime(c *cli.Context) (*runtime, error) {
	cfg := parseInscriberConfig(c)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	backend, err := curve.New(cfg.Curve)
	if err != nil {
		return nil, err
	}

	journal, err := openJournal(&cfg.Journal, l)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	e := engine.NewEngine(backend, l)
	rt := &runtime{
		cfg:     cfg,
		logger:  l,
		engine:  e,
		journal: journal,
		assembler: protocol.NewAssembler(e, &protocol.AssemblerConfig{
			Protocol: cfg.Protocol,
			Journal:  journal,
		}, l),
	}

	l.Sugar().Debugw("Inscriber configured",
		"curve", cfg.Curve,
		"protocol", cfg.Protocol,
		"journal", cfg.Journal.Type,
	)
	return rt, nil
}

// openJournal returns nil for JournalTypeNone
func openJournal(cfg *config.JournalConfig, l *zap.Logger) (persistence.IInscriptionJournal, error) {
	switch cfg.Type {
	case config.JournalTypeNone:
		return nil, nil
	case config.JournalTypeMemory:
		return memory.NewMemoryJournal(l), nil
	case config.JournalTypeBadger:
		j, err := badger.NewBadgerJournal(cfg.Path, l)
		if err != nil {
			return nil, err
		}
		return j, nil
	case config.JournalTypeRedis:
		j, err := redis.NewRedisJournal(&redis.RedisConfig{
			Address:   cfg.Redis.Address,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		}, l)
		if err != nil {
			return nil, err
		}
		return j, nil
	default:
		return nil, fmt.Errorf("unsupported journal type: %s", cfg.Type)
	}
}

// keyPair derives the public key of the configured private key
func (rt *runtime) keyPair() (*types.KeyPair, error) {
	priv, err := rt.cfg.PrivateKeyBytes()
	if err != nil {
		return nil, err
	}
	pub, err := rt.engine.Curve().PublicKey(priv, true)
	if err != nil {
		return nil, fmt.Errorf("failed to derive public key: %w", err)
	}
	return types.NewKeyPair(priv, pub)
}

func (rt *runtime) Close() {
	if rt.journal != nil {
		if err := rt.journal.Close(); err != nil {
			rt.logger.Sugar().Warnw("Failed to close journal", "error", err)
		}
	}
	_ = rt.logger.Sync()
}
