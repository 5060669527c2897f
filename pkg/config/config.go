package config

import (
	"fmt"
	"strings"

	"github.com/Layr-Labs/inscription-signer-go/pkg/curve"
	"github.com/Layr-Labs/inscription-signer-go/pkg/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for the inscriber configuration
const (
	EnvInscriberPrivateKey    = "INSCRIBER_PRIVATE_KEY"
	EnvInscriberCurve         = "INSCRIBER_CURVE"
	EnvInscriberProtocol      = "INSCRIBER_PROTOCOL"
	EnvInscriberJournal       = "INSCRIBER_JOURNAL"
	EnvInscriberJournalPath   = "INSCRIBER_JOURNAL_PATH"
	EnvInscriberRedisAddress  = "INSCRIBER_REDIS_ADDRESS"
	EnvInscriberRedisPassword = "INSCRIBER_REDIS_PASSWORD"
	EnvInscriberRedisDB       = "INSCRIBER_REDIS_DB"
	EnvInscriberDebug         = "INSCRIBER_DEBUG"
)

const DefaultProtocol = "tap"

type JournalType string

func (j JournalType) String() string {
	return string(j)
}

const (
	JournalTypeNone   JournalType = "none"
	JournalTypeMemory JournalType = "memory"
	JournalTypeBadger JournalType = "badger"
	JournalTypeRedis  JournalType = "redis"
)

// GetSupportedJournalTypes returns all supported journal types
func GetSupportedJournalTypes() []JournalType {
	return []JournalType{JournalTypeNone, JournalTypeMemory, JournalTypeBadger, JournalTypeRedis}
}

// GetSupportedJournalTypesString returns supported journal types for CLI help
func GetSupportedJournalTypesString() string {
	names := make([]string, 0, 4)
	for _, j := range GetSupportedJournalTypes() {
		names = append(names, j.String())
	}
	return strings.Join(names, ", ")
}

type RedisConfig struct {
	Address   string `json:"address" yaml:"address"`
	Password  string `json:"password" yaml:"password"`
	DB        int    `json:"db" yaml:"db"`
	KeyPrefix string `json:"keyPrefix" yaml:"keyPrefix"`
}

type JournalConfig struct {
	Type JournalType `json:"type" yaml:"type"`

	// Path is the Badger data directory
	Path string `json:"path" yaml:"path"`

	Redis RedisConfig `json:"redis" yaml:"redis"`
}

type InscriberConfig struct {
	// PrivateKey is the hex secp256k1 signing key, with or without 0x
	PrivateKey string `json:"privateKey" yaml:"privateKey"`

	Curve    curve.Backend `json:"curve" yaml:"curve"`
	Protocol string        `json:"protocol" yaml:"protocol"`

	Journal JournalConfig `json:"journal" yaml:"journal"`

	Debug bool `json:"debug" yaml:"debug"`
}

// ApplyDefaults fills unset optional fields
func (c *InscriberConfig) ApplyDefaults() {
	if c.Curve == "" {
		c.Curve = curve.BackendGeth
	}
	if c.Protocol == "" {
		c.Protocol = DefaultProtocol
	}
	if c.Journal.Type == "" {
		c.Journal.Type = JournalTypeNone
	}
}

// Validate checks every field and reports all problems at once. The private key is
// optional since verifying commands run without one, but must be well formed when set.
func (c *InscriberConfig) Validate() error {
	var allErrors field.ErrorList

	if c.PrivateKey != "" {
		if _, err := decodePrivateKey(c.PrivateKey); err != nil {
			allErrors = append(allErrors, field.Invalid(field.NewPath("privateKey"), "<redacted>", err.Error()))
		}
	}

	if !isSupportedCurve(c.Curve) {
		allErrors = append(allErrors, field.NotSupported(field.NewPath("curve"), c.Curve, backendNames()))
	}

	if c.Protocol == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("protocol"), "protocol is required"))
	}

	journalPath := field.NewPath("journal")
	switch c.Journal.Type {
	case JournalTypeNone, JournalTypeMemory:
	case JournalTypeBadger:
		if c.Journal.Path == "" {
			allErrors = append(allErrors, field.Required(journalPath.Child("path"), "path is required for the badger journal"))
		}
	case JournalTypeRedis:
		if c.Journal.Redis.Address == "" {
			allErrors = append(allErrors, field.Required(journalPath.Child("redis", "address"), "address is required for the redis journal"))
		}
		if c.Journal.Redis.DB < 0 {
			allErrors = append(allErrors, field.Invalid(journalPath.Child("redis", "db"), c.Journal.Redis.DB, "must be non-negative"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(journalPath.Child("type"), c.Journal.Type, journalNames()))
	}

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

// PrivateKeyBytes decodes the configured signing key
func (c *InscriberConfig) PrivateKeyBytes() ([]byte, error) {
	if c.PrivateKey == "" {
		return nil, errors.Wrap(types.ErrInvalidInput, "private key is not configured")
	}
	key, err := decodePrivateKey(c.PrivateKey)
	if err != nil {
		return nil, errors.Wrap(types.ErrInvalidInput, err.Error())
	}
	return key, nil
}

func decodePrivateKey(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	key, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("private key is not valid hex: %w", err)
	}
	if len(key) != types.PrivateKeyLength {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", types.PrivateKeyLength, len(key))
	}
	return key, nil
}

func isSupportedCurve(b curve.Backend) bool {
	for _, supported := range curve.SupportedBackends() {
		if b == supported {
			return true
		}
	}
	return false
}

func backendNames() []string {
	var names []string
	for _, b := range curve.SupportedBackends() {
		names = append(names, string(b))
	}
	return names
}

func journalNames() []string {
	var names []string
	for _, j := range GetSupportedJournalTypes() {
		names = append(names, j.String())
	}
	return names
}
