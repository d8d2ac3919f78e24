// Package config - document store configuration
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/alwitt/notary/ledger"
	"github.com/alwitt/notary/storage"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// StorageBackendENUMType collection storage backend
type StorageBackendENUMType string

const (
	// StorageBackendMemory in-process storage
	StorageBackendMemory StorageBackendENUMType = "memory"
	// StorageBackendRedis one Redis key
	StorageBackendRedis StorageBackendENUMType = "redis"
	// StorageBackendSQLite sqlite database, encrypted at rest
	StorageBackendSQLite StorageBackendENUMType = "sqlite"
)

// RedisConfig Redis backend settings
type RedisConfig struct {
	// Addr server address
	Addr string `yaml:"addr" validate:"required,hostname_port"`
	// Password server password
	Password string `yaml:"password"`
	// DB database index
	DB int `yaml:"db" validate:"gte=0"`
}

// SQLiteConfig sealed sqlite backend settings
type SQLiteConfig struct {
	// DBFile database file
	DBFile string `yaml:"db_file" validate:"required"`
	// PrimaryRSACertFile file path to the primary RSA certificate PEM
	PrimaryRSACertFile string `yaml:"primary_rsa_cert_file" validate:"required,file"`
	// PrimaryRSAKeyFile file path to the primary RSA certificate private key PEM
	PrimaryRSAKeyFile string `yaml:"primary_rsa_key_file" validate:"required,file"`
	// AutoMigrate define the tables on start
	AutoMigrate bool `yaml:"auto_migrate"`
}

// StorageConfig collection storage settings
type StorageConfig struct {
	// Backend which backend holds the collection
	Backend StorageBackendENUMType `yaml:"backend" validate:"required,oneof=memory redis sqlite"`
	// EntryName name of the entry holding the collection
	EntryName string `yaml:"entry_name" validate:"required"`
	// Redis settings of the redis backend
	Redis RedisConfig `yaml:"redis" validate:"-"`
	// SQLite settings of the sqlite backend
	SQLite SQLiteConfig `yaml:"sqlite" validate:"-"`
}

// AMQPConfig ledger outcome publishing settings
type AMQPConfig struct {
	// URL broker URL; empty disables publishing
	URL string `yaml:"url" validate:"omitempty,url"`
	// Exchange target exchange
	Exchange string `yaml:"exchange" validate:"required_with=URL"`
	// RoutingKey message routing key
	RoutingKey string `yaml:"routing_key"`
}

// LedgerConfig ledger write settings
type LedgerConfig struct {
	// Enabled whether creates also write to the ledger
	Enabled bool `yaml:"enabled"`
	// RPCEndpoint Solana JSON RPC endpoint
	RPCEndpoint string `yaml:"rpc_endpoint" validate:"required,url"`
	// ProgramID program receiving the instructions
	ProgramID string `yaml:"program_id" validate:"required"`
	// Commitment commitment a write must reach
	Commitment string `yaml:"commitment" validate:"required,oneof=processed confirmed finalized"`
	// PollInterval interval between signature status checks
	PollInterval time.Duration `yaml:"poll_interval" validate:"gt=0"`
	// ConfirmTimeout how long to wait for the commitment
	ConfirmTimeout time.Duration `yaml:"confirm_timeout" validate:"gt=0"`
	// OutcomeBuffer buffer length of the outcome channel
	OutcomeBuffer int `yaml:"outcome_buffer" validate:"gte=0"`
	// AMQP outcome publishing
	AMQP AMQPConfig `yaml:"amqp"`
}

// PassphraseConfig passphrase storage settings
type PassphraseConfig struct {
	// Hash store bcrypt hashes instead of plain passphrases
	Hash bool `yaml:"hash"`
	// BcryptCost bcrypt work factor
	BcryptCost int `yaml:"bcrypt_cost" validate:"min=4,max=31"`
}

// Config document store configuration
type Config struct {
	// Storage collection storage
	Storage StorageConfig `yaml:"storage"`
	// Ledger ledger writes
	Ledger LedgerConfig `yaml:"ledger"`
	// Passphrases passphrase storage
	Passphrases PassphraseConfig `yaml:"passphrases"`
	// SeedSamples write the sample documents when the collection entry is absent
	SeedSamples bool `yaml:"seed_samples"`
}

// Default the default configuration: in-memory storage, ledger writes off
func Default() Config {
	return Config{
		Storage: StorageConfig{
			Backend:   StorageBackendMemory,
			EntryName: storage.DefaultEntryName,
			Redis:     RedisConfig{Addr: "localhost:6379"},
		},
		Ledger: LedgerConfig{
			Enabled:        false,
			RPCEndpoint:    ledger.DevnetRPCEndpoint,
			ProgramID:      ledger.DefaultProgramID,
			Commitment:     "confirmed",
			PollInterval:   time.Second,
			ConfirmTimeout: time.Minute,
			OutcomeBuffer:  64,
			AMQP:           AMQPConfig{Exchange: "notary.ledger", RoutingKey: "outcome"},
		},
		Passphrases: PassphraseConfig{Hash: true, BcryptCost: bcrypt.DefaultCost},
		SeedSamples: false,
	}
}

// Validate check the configuration
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(&c); err != nil {
		return fmt.Errorf("invalid config [%w]", err)
	}
	switch c.Storage.Backend {
	case StorageBackendRedis:
		if err := validate.Struct(&c.Storage.Redis); err != nil {
			return fmt.Errorf("invalid redis storage config [%w]", err)
		}
	case StorageBackendSQLite:
		if err := validate.Struct(&c.Storage.SQLite); err != nil {
			return fmt.Errorf("invalid sqlite storage config [%w]", err)
		}
	}
	return nil
}

/*
Parse decode a YAML configuration over the defaults, then validate it

	@param raw []byte - YAML content
	@returns the configuration
*/
func Parse(raw []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config [%w]", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

/*
Load read a YAML configuration file over the defaults, then validate it

	@param path string - file path
	@returns the configuration
*/
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file '%s' [%w]", path, err)
	}
	return Parse(raw)
}
