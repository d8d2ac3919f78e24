// Package notary - document fingerprint registry with best-effort ledger anchoring
package notary

import (
	"context"
	"errors"
	"fmt"

	"github.com/alwitt/goutils"
	"github.com/alwitt/notary/config"
	"github.com/alwitt/notary/db"
	"github.com/alwitt/notary/documents"
	"github.com/alwitt/notary/encryption"
	"github.com/alwitt/notary/ledger"
	"github.com/alwitt/notary/metrics"
	"github.com/alwitt/notary/storage"
	"github.com/alwitt/notary/store"
	"github.com/apex/log"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm/logger"
)

// DocumentStore a configured document store and the resources behind it
type DocumentStore struct {
	documents.Store

	// Ledger ledger writer; nil when ledger writes are disabled
	Ledger ledger.Writer
	// Outcomes channel of ledger write outcomes; nil when ledger writes are disabled
	Outcomes *ledger.ChannelSink
	// Slots sealed slot store; nil unless the sqlite backend is used
	Slots store.SealedSlotStore

	component goutils.Component
	closers   []func() error
}

// options optional construction overrides
type options struct {
	rpcClient ledger.RPCClient
}

// Option optional construction override
type Option func(*options)

// WithRPCClient use this Solana RPC client instead of one for the configured endpoint
func WithRPCClient(client ledger.RPCClient) Option {
	return func(o *options) {
		o.rpcClient = client
	}
}

/*
NewDocumentStore initialize a document store from configuration.

	@param ctx context.Context - execution context
	@param cfg config.Config - configuration
	@param wallet ledger.Wallet - signing wallet; required when ledger writes are enabled
	@param registerer prometheus.Registerer - metrics registerer; nil disables registration
	@param opts ...Option - construction overrides
	@returns new store instance
*/
func NewDocumentStore(
	ctx context.Context,
	cfg config.Config,
	wallet ledger.Wallet,
	registerer prometheus.Registerer,
	opts ...Option,
) (*DocumentStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	override := options{}
	for _, opt := range opts {
		opt(&override)
	}

	instance := &DocumentStore{
		component: goutils.Component{
			LogTags: log.Fields{"module": "notary", "component": "document-store"},
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
	}
	collector := metrics.NewCollector(registerer)

	backing, err := instance.defineStorage(ctx, cfg.Storage)
	if err != nil {
		_ = instance.Close()
		return nil, fmt.Errorf("failed to initialize collection storage [%w]", err)
	}

	if cfg.Ledger.Enabled {
		if err := instance.defineLedger(cfg.Ledger, wallet, collector, override); err != nil {
			_ = instance.Close()
			return nil, fmt.Errorf("failed to initialize ledger writer [%w]", err)
		}
	}

	instance.Store, err = documents.NewStore(documents.StoreParams{
		Storage:         backing,
		Ledger:          instance.Ledger,
		Metrics:         collector,
		HashPassphrases: cfg.Passphrases.Hash,
		BcryptCost:      cfg.Passphrases.BcryptCost,
	})
	if err != nil {
		_ = instance.Close()
		return nil, fmt.Errorf("failed to initialize document store [%w]", err)
	}

	if cfg.SeedSamples {
		seeded, err := instance.SeedIfEmpty(ctx, documents.SampleDocuments())
		if err != nil {
			_ = instance.Close()
			return nil, fmt.Errorf("failed to seed sample documents [%w]", err)
		}
		log.WithFields(instance.component.GetLogTagsForContext(ctx)).
			WithField("seeded", seeded).
			Debug("Sample document seeding")
	}

	return instance, nil
}

// defineStorage prepare the configured collection storage backend
func (d *DocumentStore) defineStorage(
	ctx context.Context, cfg config.StorageConfig,
) (storage.CollectionStorage, error) {
	switch cfg.Backend {
	case config.StorageBackendRedis:
		client := storage.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		d.closers = append(d.closers, client.Close)
		return storage.NewRedisStorage(client, cfg.EntryName)

	case config.StorageBackendSQLite:
		persistence, err := db.NewConnection(db.GetSqliteDialector(cfg.SQLite.DBFile), logger.Error)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize persistence client [%w]", err)
		}
		d.closers = append(d.closers, persistence.Close)

		if cfg.SQLite.AutoMigrate {
			if err := persistence.RunSQLInTransaction(ctx, db.DefineTables); err != nil {
				return nil, fmt.Errorf("failed to define tables [%w]", err)
			}
		}

		cryptoEngine, err := encryption.NewCryptographyEngine(ctx, encryption.CryptographyEngineParams{
			Persistence:        persistence,
			PrimaryRSACertFile: cfg.SQLite.PrimaryRSACertFile,
			PrimaryRSAKeyFile:  cfg.SQLite.PrimaryRSAKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize cryptography engine [%w]", err)
		}

		d.Slots, err = store.NewSealedSlotStore(ctx, persistence, cryptoEngine)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sealed slot store [%w]", err)
		}
		return storage.NewSealedStorage(d.Slots, cfg.EntryName)

	default:
		return storage.NewMemoryStorage(nil), nil
	}
}

// defineLedger prepare the ledger writer and its outcome sinks
func (d *DocumentStore) defineLedger(
	cfg config.LedgerConfig, wallet ledger.Wallet, collector *metrics.Collector, override options,
) error {
	if wallet == nil {
		return fmt.Errorf("ledger writes are enabled but no wallet was given")
	}

	client := override.rpcClient
	if client == nil {
		client = ledger.NewRPCClient(cfg.RPCEndpoint)
	}

	sinks := []ledger.OutcomeSink{ledger.NewLogSink(), collector.OutcomeSink()}
	if cfg.OutcomeBuffer > 0 {
		d.Outcomes = ledger.NewChannelSink(cfg.OutcomeBuffer)
		sinks = append(sinks, d.Outcomes)
	}
	if cfg.AMQP.URL != "" {
		broker, err := ledger.DialAMQPSink(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.RoutingKey)
		if err != nil {
			return err
		}
		d.closers = append(d.closers, broker.Close)
		sinks = append(sinks, broker)
	}

	writer, err := ledger.NewWriter(ledger.WriterParams{
		Client:         client,
		Wallet:         wallet,
		ProgramID:      cfg.ProgramID,
		Commitment:     rpcCommitment(cfg.Commitment),
		PollInterval:   cfg.PollInterval,
		ConfirmTimeout: cfg.ConfirmTimeout,
		Sinks:          sinks,
	})
	if err != nil {
		return err
	}
	d.Ledger = writer
	return nil
}

/*
Balance the SOL balance of an owner identity

	@param ctx context.Context - execution context
	@param owner string - base58 public key
	@returns balance in SOL
*/
func (d *DocumentStore) Balance(ctx context.Context, owner string) (float64, error) {
	if d.Ledger == nil {
		return 0, fmt.Errorf("ledger is not enabled")
	}
	return d.Ledger.Balance(ctx, owner)
}

// Close release the resources behind the store, newest first
func (d *DocumentStore) Close() error {
	var errs []error
	for idx := len(d.closers) - 1; idx >= 0; idx-- {
		if err := d.closers[idx](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

// rpcCommitment map a configured commitment name onto the RPC commitment level
func rpcCommitment(name string) rpc.CommitmentType {
	switch name {
	case "processed":
		return rpc.CommitmentProcessed
	case "finalized":
		return rpc.CommitmentFinalized
	}
	return rpc.CommitmentConfirmed
}
