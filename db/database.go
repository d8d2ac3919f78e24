// Package db - persistence layer of the sealed collection backend
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/alwitt/goutils"
	"github.com/alwitt/notary/models"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// CommonListEntryQueryFilter common query filter when listing data entries
type CommonListEntryQueryFilter struct {
	Limit  *int
	Offset *int
}

// apply add the paging conditions to a query
func (f CommonListEntryQueryFilter) apply(query *gorm.DB) *gorm.DB {
	if f.Limit != nil {
		query = query.Limit(*f.Limit)
	}
	if f.Offset != nil {
		query = query.Offset(*f.Offset)
	}
	return query
}

// SystemEventQueryFilter audit event query filter conditions
type SystemEventQueryFilter struct {
	CommonListEntryQueryFilter
	// EventTypes the specific event types to query for
	EventTypes []models.SystemEventTypeENUMType
	// EventsAfter filter for events after this timestamp
	EventsAfter *time.Time
	// EventsBefore filter for events before this timestamp
	EventsBefore *time.Time
}

// EncryptionKeyQueryFilter encryption key query filer conditions
type EncryptionKeyQueryFilter struct {
	CommonListEntryQueryFilter
	// TargetState the specific states to query for
	TargetState []models.EncryptionKeyStateENUMType
}

// SnapshotQueryFilter collection snapshot query filter conditions
type SnapshotQueryFilter struct {
	CommonListEntryQueryFilter
	// TargetEncKeyID fetch snapshots sealed with this data key
	TargetEncKeyID *string
}

// Database the database handle to interacting with the data base
type Database interface {
	// ------------------------------------------------------------------------------------
	// System audit events

	/*
		ListSystemEvents list captured system events, oldest first

			@param ctx context.Context - execution context
			@param filters SystemEventQueryFilter - entry listing filter
			@return list of system events
	*/
	ListSystemEvents(
		ctx context.Context, filters SystemEventQueryFilter,
	) ([]models.SystemEventAudit, error)

	// ------------------------------------------------------------------------------------
	// System parameters

	/*
		GetSystemParamEntry fetch the global singleton system parameter entry

			@param ctx context.Context - execution context
			@returns the entry
	*/
	GetSystemParamEntry(ctx context.Context) (models.SystemParams, error)

	/*
		MarkSystemInitializing mark bootstrap started

			@param ctx context.Context - execution context
	*/
	MarkSystemInitializing(ctx context.Context) error

	/*
		MarkSystemInitialized mark bootstrap finished

			@param ctx context.Context - execution context
	*/
	MarkSystemInitialized(ctx context.Context) error

	// ------------------------------------------------------------------------------------
	// Encryption keys

	/*
		RecordEncryptionKey record a wrapped symmetric data key

			@param ctx context.Context - execution context
			@param wrappedMaterial []byte - RSA wrapped key material
			@returns the key entry
	*/
	RecordEncryptionKey(ctx context.Context, wrappedMaterial []byte) (models.EncryptionKey, error)

	/*
		GetEncryptionKey fetch one data key

			@param ctx context.Context - execution context
			@param keyID string - the key ID
			@return key entry
	*/
	GetEncryptionKey(ctx context.Context, keyID string) (models.EncryptionKey, error)

	/*
		ListEncryptionKeys list data keys, newest first

			@param ctx context.Context - execution context
			@param filters EncryptionKeyQueryFilter - entry listing filter
			@return list of keys
	*/
	ListEncryptionKeys(
		ctx context.Context, filters EncryptionKeyQueryFilter,
	) ([]models.EncryptionKey, error)

	/*
		MarkEncryptionKeyRetired mark a data key as rotated out

			@param ctx context.Context - execution context
			@param keyID string - the key ID
	*/
	MarkEncryptionKeyRetired(ctx context.Context, keyID string) error

	// ------------------------------------------------------------------------------------
	// Collection slots

	/*
		DefineNewSlot define a new collection slot

			@param ctx context.Context - execution context
			@param name string - slot name
			@returns slot entry
	*/
	DefineNewSlot(ctx context.Context, name string) (models.CollectionSlot, error)

	/*
		GetSlotByName fetch a collection slot by name

			@param ctx context.Context - execution context
			@param name string - slot name
			@returns slot entry, gorm.ErrRecordNotFound wrapped when unknown
	*/
	GetSlotByName(ctx context.Context, name string) (models.CollectionSlot, error)

	/*
		ListSlots list every collection slot, oldest first

			@param ctx context.Context - execution context
			@return list of slots
	*/
	ListSlots(ctx context.Context) ([]models.CollectionSlot, error)

	// ------------------------------------------------------------------------------------
	// Collection snapshots

	/*
		DefineNewSnapshot record a new sealed snapshot of a slot

			@param ctx context.Context - execution context
			@param slot models.CollectionSlot - the parent slot
			@param encKey models.EncryptionKey - the data key which sealed the value
			@param sealed []byte - the sealed collection bytes
			@param nonce []byte - the AEAD nonce
			@param timestamp time.Time - the write timestamp
			@returns snapshot entry
	*/
	DefineNewSnapshot(
		ctx context.Context,
		slot models.CollectionSlot,
		encKey models.EncryptionKey,
		sealed []byte,
		nonce []byte,
		timestamp time.Time,
	) (models.CollectionSnapshot, error)

	/*
		GetLatestSnapshot fetch the newest snapshot of a slot

			@param ctx context.Context - execution context
			@param slot models.CollectionSlot - the parent slot
			@returns snapshot entry, gorm.ErrRecordNotFound wrapped when the slot is empty
	*/
	GetLatestSnapshot(
		ctx context.Context, slot models.CollectionSlot,
	) (models.CollectionSnapshot, error)

	/*
		ListSnapshotsOfSlot list the snapshots of a slot, newest first

			@param ctx context.Context - execution context
			@param slot models.CollectionSlot - the parent slot
			@param filters SnapshotQueryFilter - entry listing filter
			@return list of snapshots
	*/
	ListSnapshotsOfSlot(
		ctx context.Context, slot models.CollectionSlot, filters SnapshotQueryFilter,
	) ([]models.CollectionSnapshot, error)
}

// databaseImpl implements Database
type databaseImpl struct {
	goutils.Component
	db        *gorm.DB
	validator *validator.Validate
}

// newDatabase define a new database client
func newDatabase(_ context.Context, sqlClient *gorm.DB) (Database, error) {
	instance := &databaseImpl{
		Component: goutils.Component{
			LogTags: log.Fields{"package": "notary", "module": "db", "component": "db-client"},
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		db:        sqlClient,
		validator: validator.New(),
	}

	if err := models.RegisterWithValidator(instance.validator); err != nil {
		return nil, fmt.Errorf("failed to install custom validation macros [%w]", err)
	}

	return instance, nil
}
