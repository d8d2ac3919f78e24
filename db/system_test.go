package db_test

import (
	"context"
	"testing"

	"github.com/alwitt/notary/db"
	"github.com/alwitt/notary/models"
	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
)

func TestDBSystemParams(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()
	uut := prepareTestDB(t)

	// First access creates the entry in PRE_INITIALIZATION
	assert.Nil(uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		params, err := dbClient.GetSystemParamEntry(ctx)
		assert.Nil(err)
		assert.Equal(db.GlobalSystemParamEntryID, params.ID)
		assert.Equal(models.SystemStatePreInit, params.State)
		return nil
	}))

	// Can't skip straight to RUNNING
	assert.Error(uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		return dbClient.MarkSystemInitialized(ctx)
	}))

	// Walk through the bootstrap
	assert.Nil(uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		if err := dbClient.MarkSystemInitializing(ctx); err != nil {
			return err
		}
		// repeat is a no-op
		if err := dbClient.MarkSystemInitializing(ctx); err != nil {
			return err
		}
		return dbClient.MarkSystemInitialized(ctx)
	}))

	assert.Nil(uut.UseDatabase(utCtx, func(ctx context.Context, dbClient db.Database) error {
		params, err := dbClient.GetSystemParamEntry(ctx)
		assert.Nil(err)
		assert.Equal(models.SystemStateRunning, params.State)

		events, err := dbClient.ListSystemEvents(ctx, db.SystemEventQueryFilter{})
		assert.Nil(err)
		assert.Len(events, 2)
		assert.Equal(models.SystemEventTypeInitializing, events[0].EventType)
		assert.Equal(models.SystemEventTypeInitialized, events[1].EventType)
		return nil
	}))

	// No way back
	assert.Error(uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		return dbClient.MarkSystemInitializing(ctx)
	}))
}
