package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alwitt/notary/db"
	"github.com/alwitt/notary/models"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestDBCollectionSlots(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()
	uut := prepareTestDB(t)

	slotName := uuid.NewString()

	// Unknown slot
	assert.Nil(uut.UseDatabase(utCtx, func(ctx context.Context, dbClient db.Database) error {
		_, err := dbClient.GetSlotByName(ctx, slotName)
		assert.True(errors.Is(err, gorm.ErrRecordNotFound))
		return nil
	}))

	// Define it
	var slot models.CollectionSlot
	assert.Nil(uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		var err error
		slot, err = dbClient.DefineNewSlot(ctx, slotName)
		return err
	}))
	assert.Equal(slotName, slot.Name)

	// Names are unique
	assert.Error(uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		_, err := dbClient.DefineNewSlot(ctx, slotName)
		return err
	}))

	assert.Nil(uut.UseDatabase(utCtx, func(ctx context.Context, dbClient db.Database) error {
		found, err := dbClient.GetSlotByName(ctx, slotName)
		assert.Nil(err)
		assert.Equal(slot.ID, found.ID)

		slots, err := dbClient.ListSlots(ctx)
		assert.Nil(err)
		assert.Len(slots, 1)
		assert.Equal(slot.ID, slots[0].ID)

		// No snapshot yet
		_, err = dbClient.GetLatestSnapshot(ctx, found)
		assert.True(errors.Is(err, gorm.ErrRecordNotFound))
		return nil
	}))
}

func TestDBCollectionSnapshots(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()
	uut := prepareTestDB(t)

	var slot models.CollectionSlot
	var key models.EncryptionKey
	assert.Nil(uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		var err error
		if slot, err = dbClient.DefineNewSlot(ctx, uuid.NewString()); err != nil {
			return err
		}
		key, err = dbClient.RecordEncryptionKey(ctx, []byte(uuid.NewString()))
		return err
	}))

	// Write three snapshots
	base := time.Now().UTC()
	written := []models.CollectionSnapshot{}
	for idx := 0; idx < 3; idx++ {
		assert.Nil(uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
			snapshot, err := dbClient.DefineNewSnapshot(
				ctx,
				slot,
				key,
				[]byte(uuid.NewString()),
				[]byte(uuid.NewString()),
				base.Add(time.Second*time.Duration(idx)),
			)
			written = append(written, snapshot)
			return err
		}))
	}

	// Missing data is refused
	assert.Error(uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		_, err := dbClient.DefineNewSnapshot(ctx, slot, key, nil, []byte("nonce"), base)
		return err
	}))

	assert.Nil(uut.UseDatabase(utCtx, func(ctx context.Context, dbClient db.Database) error {
		latest, err := dbClient.GetLatestSnapshot(ctx, slot)
		assert.Nil(err)
		assert.Equal(written[2].ID, latest.ID)
		assert.Equal(written[2].SealedValue, latest.SealedValue)
		assert.Equal(written[2].Nonce, latest.Nonce)

		all, err := dbClient.ListSnapshotsOfSlot(ctx, slot, db.SnapshotQueryFilter{})
		assert.Nil(err)
		assert.Len(all, 3)
		assert.Equal(written[2].ID, all[0].ID)
		assert.Equal(written[0].ID, all[2].ID)

		limit := 2
		paged, err := dbClient.ListSnapshotsOfSlot(ctx, slot, db.SnapshotQueryFilter{
			CommonListEntryQueryFilter: db.CommonListEntryQueryFilter{Limit: &limit},
		})
		assert.Nil(err)
		assert.Len(paged, 2)

		otherKey := uuid.NewString()
		none, err := dbClient.ListSnapshotsOfSlot(ctx, slot, db.SnapshotQueryFilter{
			TargetEncKeyID: &otherKey,
		})
		assert.Nil(err)
		assert.Len(none, 0)
		return nil
	}))

	// Audit trail: slot definition, key, three snapshot writes
	validate := validator.New()
	assert.Nil(models.RegisterWithValidator(validate))
	assert.Nil(uut.UseDatabase(utCtx, func(ctx context.Context, dbClient db.Database) error {
		events, err := dbClient.ListSystemEvents(ctx, db.SystemEventQueryFilter{
			EventTypes: []models.SystemEventTypeENUMType{models.SystemEventTypeWriteSnapshot},
		})
		assert.Nil(err)
		assert.Len(events, 3)
		for idx, event := range events {
			metadata, err := event.ParseMetadata(validate)
			assert.Nil(err)
			parsed, ok := metadata.(models.SystemEventSlotRelated)
			assert.True(ok)
			assert.Equal(slot.ID, parsed.SlotID)
			assert.Equal(written[idx].ID, parsed.SnapshotID)
		}
		return nil
	}))
}
