package db_test

import (
	"context"
	"testing"

	"github.com/alwitt/notary/db"
	"github.com/alwitt/notary/models"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDBEncryptionKeys(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()
	uut := prepareTestDB(t)

	// Record two keys
	var key1, key2 models.EncryptionKey
	assert.Nil(uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		var err error
		if key1, err = dbClient.RecordEncryptionKey(ctx, []byte(uuid.NewString())); err != nil {
			return err
		}
		key2, err = dbClient.RecordEncryptionKey(ctx, []byte(uuid.NewString()))
		return err
	}))
	assert.Equal(models.EncryptionKeyStateActive, key1.State)
	assert.NotEqual(key1.ID, key2.ID)

	// Empty material is refused
	assert.Error(uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		_, err := dbClient.RecordEncryptionKey(ctx, nil)
		return err
	}))

	// Fetch back
	assert.Nil(uut.UseDatabase(utCtx, func(ctx context.Context, dbClient db.Database) error {
		entry, err := dbClient.GetEncryptionKey(ctx, key1.ID)
		assert.Nil(err)
		assert.Equal(key1.WrappedMaterial, entry.WrappedMaterial)

		_, err = dbClient.GetEncryptionKey(ctx, uuid.NewString())
		assert.Error(err)
		return nil
	}))

	// Retire key 1
	assert.Nil(uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		return dbClient.MarkEncryptionKeyRetired(ctx, key1.ID)
	}))

	assert.Nil(uut.UseDatabase(utCtx, func(ctx context.Context, dbClient db.Database) error {
		active, err := dbClient.ListEncryptionKeys(ctx, db.EncryptionKeyQueryFilter{
			TargetState: []models.EncryptionKeyStateENUMType{models.EncryptionKeyStateActive},
		})
		assert.Nil(err)
		assert.Len(active, 1)
		assert.Equal(key2.ID, active[0].ID)

		all, err := dbClient.ListEncryptionKeys(ctx, db.EncryptionKeyQueryFilter{})
		assert.Nil(err)
		assert.Len(all, 2)
		return nil
	}))

	// Audit trail
	validate := validator.New()
	assert.Nil(models.RegisterWithValidator(validate))
	assert.Nil(uut.UseDatabase(utCtx, func(ctx context.Context, dbClient db.Database) error {
		events, err := dbClient.ListSystemEvents(ctx, db.SystemEventQueryFilter{})
		assert.Nil(err)
		assert.Len(events, 3)

		retired, err := dbClient.ListSystemEvents(ctx, db.SystemEventQueryFilter{
			EventTypes: []models.SystemEventTypeENUMType{models.SystemEventTypeRetireEncryptionKey},
		})
		assert.Nil(err)
		assert.Len(retired, 1)
		metadata, err := retired[0].ParseMetadata(validate)
		assert.Nil(err)
		parsed, ok := metadata.(models.SystemEventEncKeyRelated)
		assert.True(ok)
		assert.Equal(key1.ID, parsed.KeyID)
		return nil
	}))
}
