package notary_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/alwitt/notary"
	"github.com/alwitt/notary/config"
	"github.com/alwitt/notary/documents"
	"github.com/alwitt/notary/fingerprint"
	"github.com/alwitt/notary/ledger"
	mockledger "github.com/alwitt/notary/mocks/ledger"
	"github.com/alwitt/notary/models"
	"github.com/alwitt/notary/query"
	"github.com/apex/log"
	"github.com/apex/log/handlers/memory"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMemoryDocumentStoreEndToEnd(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	cfg := config.Default()
	cfg.SeedSamples = true
	cfg.Passphrases.BcryptCost = 4

	uut, err := notary.NewDocumentStore(utCtx, cfg, nil, prometheus.NewRegistry())
	assert.Nil(err)
	defer func() { assert.Nil(uut.Close()) }()
	assert.Nil(uut.Ledger)
	assert.Nil(uut.Slots)

	// Samples are in place
	assert.Len(uut.ListPublic(utCtx), 3)

	owner := "sample_owner_9"
	hash := fingerprint.SHA256HexString("scanned license")
	id, submission, err := uut.CreateAndSubmit(utCtx, owner, models.NewDocumentParams{
		Name:       "Nevada Driver License",
		Hash:       hash,
		DateIssued: "2024-03-01",
		Type:       models.DocumentTypeDriverLicense,
		IsPublic:   true,
	})
	assert.Nil(err)
	assert.Nil(submission)

	gallery := query.Sort(
		query.FilterByType(uut.ListPublic(utCtx), query.ForType(models.DocumentTypeDriverLicense)),
		query.SortByDate,
	)
	assert.Len(gallery, 2)
	assert.Equal(id, gallery[0].ID)

	assert.True(uut.Verify(utCtx, hash).Exists)
	assert.Equal(4, uut.Stats(utCtx, time.Now()).Total)

	_, err = uut.Balance(utCtx, owner)
	assert.NotNil(err)
}

func TestLedgerRequiresWallet(t *testing.T) {
	assert := assert.New(t)

	cfg := config.Default()
	cfg.Ledger.Enabled = true

	_, err := notary.NewDocumentStore(context.Background(), cfg, nil, nil)
	assert.NotNil(err)

	cfg = config.Default()
	cfg.Storage.Backend = "floppy"
	_, err = notary.NewDocumentStore(context.Background(), cfg, nil, nil)
	assert.NotNil(err)
}

func TestLedgerEnabledDocumentStore(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	key, err := solana.NewRandomPrivateKey()
	assert.Nil(err)
	wallet, err := ledger.NewKeypairWallet(key)
	assert.Nil(err)

	client := mockledger.NewRPCClient(t)
	client.On("GetLatestBlockhash", mock.Anything, rpc.CommitmentFinalized).
		Return(&rpc.GetLatestBlockhashResult{
			Value: &rpc.LatestBlockhashResult{Blockhash: solana.Hash{7}},
		}, nil).Once()
	client.On("SendTransaction", mock.Anything, mock.Anything).
		Return(func(_ context.Context, tx *solana.Transaction) (solana.Signature, error) {
			return tx.Signatures[0], nil
		}).Once()
	client.On("GetSignatureStatuses", mock.Anything, false, mock.Anything).
		Return(&rpc.GetSignatureStatusesResult{
			Value: []*rpc.SignatureStatusesResult{
				{ConfirmationStatus: rpc.ConfirmationStatusFinalized},
			},
		}, nil).Once()
	client.On("GetBalance", mock.Anything, wallet.PublicKey(), rpc.CommitmentConfirmed).
		Return(&rpc.GetBalanceResult{Value: 2 * solana.LAMPORTS_PER_SOL}, nil).Once()

	cfg := config.Default()
	cfg.Ledger.Enabled = true
	cfg.Ledger.Commitment = "finalized"
	cfg.Ledger.PollInterval = time.Millisecond * 5
	cfg.Ledger.ConfirmTimeout = time.Second
	cfg.Passphrases.BcryptCost = 4

	registry := prometheus.NewRegistry()
	uut, err := notary.NewDocumentStore(
		utCtx, cfg, wallet, registry, notary.WithRPCClient(client),
	)
	assert.Nil(err)
	defer func() { assert.Nil(uut.Close()) }()
	assert.NotNil(uut.Outcomes)

	id, submission, err := uut.CreateAndSubmit(
		utCtx, wallet.PublicKey().String(), models.NewDocumentParams{
			Name:       "Lease",
			Hash:       fingerprint.SHA256HexString("lease"),
			DateIssued: "2024-04-01",
			Type:       models.DocumentTypeLegalContract,
			IsPublic:   false,
			Passphrase: "secret",
		},
	)
	assert.Nil(err)
	assert.NotNil(submission)

	waitCtx, cancel := context.WithTimeout(utCtx, time.Second*5)
	defer cancel()
	outcome, err := submission.Wait(waitCtx)
	assert.Nil(err)
	assert.Equal(ledger.OutcomeStatusConfirmed, outcome.Status)

	reported := <-uut.Outcomes.Outcomes()
	assert.Equal(id, reported.DocumentID)

	balance, err := uut.Balance(utCtx, wallet.PublicKey().String())
	assert.Nil(err)
	assert.InDelta(2.0, balance, 1e-9)

	families, err := registry.Gather()
	assert.Nil(err)
	names := map[string]bool{}
	for _, family := range families {
		names[family.GetName()] = true
	}
	assert.True(names["notary_documents_created_total"])
	assert.True(names["notary_ledger_outcomes_total"])
}

func TestSQLiteDocumentStoreEndToEnd(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	certFile, err := filepath.Abs("./test/ut_rsa.crt")
	assert.Nil(err)
	keyFile, err := filepath.Abs("./test/ut_rsa.key")
	assert.Nil(err)

	cfg := config.Default()
	cfg.Storage.Backend = config.StorageBackendSQLite
	cfg.Storage.SQLite = config.SQLiteConfig{
		DBFile:             fmt.Sprintf("/tmp/notary_ut_%s.db", ulid.Make().String()),
		PrimaryRSACertFile: certFile,
		PrimaryRSAKeyFile:  keyFile,
		AutoMigrate:        true,
	}
	cfg.Passphrases.BcryptCost = 4

	owner := "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
	hash := fingerprint.SHA256HexString("tax return")

	// First instance writes
	var id string
	{
		uut, err := notary.NewDocumentStore(utCtx, cfg, nil, nil)
		assert.Nil(err)
		assert.NotNil(uut.Slots)

		assert.Empty(uut.ListPublic(utCtx))

		id, err = uut.Create(utCtx, owner, models.NewDocumentParams{
			Name:       "2023 Return",
			Hash:       hash,
			DateIssued: "2024-04-15",
			Type:       models.DocumentTypeIRSTaxForm,
			IsPublic:   false,
			Passphrase: "secret",
		})
		assert.Nil(err)

		_, snapshots, err := uut.Slots.ListSnapshots(utCtx, cfg.Storage.EntryName, nil)
		assert.Nil(err)
		assert.Len(snapshots, 1)

		assert.Nil(uut.Close())
	}

	// Second instance over the same database reads it back
	{
		uut, err := notary.NewDocumentStore(utCtx, cfg, nil, nil)
		assert.Nil(err)
		defer func() { assert.Nil(uut.Close()) }()

		_, err = uut.FindByID(utCtx, id, "wrong")
		assert.ErrorIs(err, documents.ErrNotFound)

		found, err := uut.FindByID(utCtx, id, "secret")
		assert.Nil(err)
		assert.Equal(hash, found.Hash)
		assert.Equal(models.DocumentTypeIRSTaxForm, found.Type)
		assert.Empty(found.Passphrase)

		// Still readable after a key rotation
		_, err = uut.Slots.RotateWorkingKey(utCtx)
		assert.Nil(err)
		found, err = uut.FindByHash(utCtx, hash)
		assert.Nil(err)
		assert.Equal(id, found.ID)
	}
}

func TestSeedingLogCarriesComponentTags(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	logger, ok := log.Log.(*log.Logger)
	assert.True(ok)
	previous := logger.Handler
	captured := memory.New()
	log.SetHandler(captured)
	defer log.SetHandler(previous)

	cfg := config.Default()
	cfg.SeedSamples = true
	uut, err := notary.NewDocumentStore(context.Background(), cfg, nil, nil)
	assert.Nil(err)
	defer func() { assert.Nil(uut.Close()) }()

	found := false
	for _, entry := range captured.Entries {
		if entry.Message != "Sample document seeding" {
			continue
		}
		found = true
		assert.Equal("notary", entry.Fields["module"])
		assert.Equal("document-store", entry.Fields["component"])
		assert.Equal(true, entry.Fields["seeded"])
	}
	assert.True(found)
}
