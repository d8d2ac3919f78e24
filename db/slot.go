package db

import (
	"context"
	"fmt"
	"time"

	"github.com/alwitt/notary/models"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// ======================================================================================
// Collection slots

/*
DefineNewSlot define a new collection slot

	@param ctx context.Context - execution context
	@param name string - slot name
	@returns slot entry
*/
func (d *databaseImpl) DefineNewSlot(_ context.Context, name string) (models.CollectionSlot, error) {
	newEntry := CollectionSlotDBEntry{
		CollectionSlot: models.CollectionSlot{ID: uuid.NewString(), Name: name},
	}

	if err := d.validator.Struct(&newEntry); err != nil {
		return models.CollectionSlot{}, fmt.Errorf("new slot '%s' is not valid [%w]", name, err)
	}

	if tmp := d.db.Create(&newEntry); tmp.Error != nil {
		return models.CollectionSlot{}, fmt.Errorf("new slot '%s' failed insert [%w]", name, tmp.Error)
	}

	if _, err := d.recordSystemEvent(
		models.SystemEventTypeDefineSlot,
		models.SystemEventSlotRelated{SlotID: newEntry.ID, SlotName: name},
	); err != nil {
		return models.CollectionSlot{}, fmt.Errorf(
			"failed to log define slot '%s' audit event [%w]", name, err,
		)
	}

	return newEntry.CollectionSlot, nil
}

/*
GetSlotByName fetch a collection slot by name

	@param ctx context.Context - execution context
	@param name string - slot name
	@returns slot entry, gorm.ErrRecordNotFound wrapped when unknown
*/
func (d *databaseImpl) GetSlotByName(
	_ context.Context, name string,
) (models.CollectionSlot, error) {
	var entry CollectionSlotDBEntry
	if tmp := d.db.Where("name = ?", name).First(&entry); tmp.Error != nil {
		return models.CollectionSlot{}, fmt.Errorf("failed to fetch slot '%s' [%w]", name, tmp.Error)
	}
	return entry.CollectionSlot, nil
}

/*
ListSlots list every collection slot, oldest first

	@param ctx context.Context - execution context
	@return list of slots
*/
func (d *databaseImpl) ListSlots(_ context.Context) ([]models.CollectionSlot, error) {
	var entries []CollectionSlotDBEntry
	if tmp := d.db.Model(&CollectionSlotDBEntry{}).Order("created_at").Find(&entries); tmp.Error != nil {
		return nil, fmt.Errorf("failed to list collection slots [%w]", tmp.Error)
	}

	result := make([]models.CollectionSlot, 0, len(entries))
	for _, entry := range entries {
		result = append(result, entry.CollectionSlot)
	}
	return result, nil
}

// ======================================================================================
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
func (d *databaseImpl) DefineNewSnapshot(
	_ context.Context,
	slot models.CollectionSlot,
	encKey models.EncryptionKey,
	sealed []byte,
	nonce []byte,
	timestamp time.Time,
) (models.CollectionSnapshot, error) {
	newEntry := CollectionSnapshotDBEntry{
		CollectionSnapshot: models.CollectionSnapshot{
			ID:          ulid.Make().String(),
			SlotID:      slot.ID,
			EncKeyID:    encKey.ID,
			SealedValue: sealed,
			Nonce:       nonce,
			CreatedAt:   timestamp.UTC(),
			UpdatedAt:   timestamp.UTC(),
		},
	}

	if err := d.validator.Struct(&newEntry); err != nil {
		return models.CollectionSnapshot{}, fmt.Errorf(
			"new snapshot of slot %s is invalid [%w]", slot.ID, err,
		)
	}

	if tmp := d.db.Create(&newEntry); tmp.Error != nil {
		return models.CollectionSnapshot{}, fmt.Errorf(
			"new snapshot of slot %s insert failed [%w]", slot.ID, tmp.Error,
		)
	}

	if _, err := d.recordSystemEvent(
		models.SystemEventTypeWriteSnapshot,
		models.SystemEventSlotRelated{
			SlotID: slot.ID, SlotName: slot.Name, SnapshotID: newEntry.ID,
		},
	); err != nil {
		return models.CollectionSnapshot{}, fmt.Errorf(
			"failed to log write snapshot audit event for slot %s [%w]", slot.ID, err,
		)
	}

	return newEntry.CollectionSnapshot, nil
}

// snapshotsOfSlot common query for the snapshots of one slot, newest first
func (d *databaseImpl) snapshotsOfSlot(
	slot models.CollectionSlot, filters SnapshotQueryFilter,
) ([]CollectionSnapshotDBEntry, error) {
	query := d.db.Model(&CollectionSnapshotDBEntry{}).Where("slot_id = ?", slot.ID)

	if filters.TargetEncKeyID != nil {
		query = query.Where("enc_key_id = ?", *filters.TargetEncKeyID)
	}

	// Snapshot IDs are ULIDs, so ID order is write order within the same timestamp
	query = filters.apply(query).Order("created_at desc").Order("id desc")

	var entries []CollectionSnapshotDBEntry
	if tmp := query.Find(&entries); tmp.Error != nil {
		return nil, tmp.Error
	}
	return entries, nil
}

/*
GetLatestSnapshot fetch the newest snapshot of a slot

	@param ctx context.Context - execution context
	@param slot models.CollectionSlot - the parent slot
	@returns snapshot entry, gorm.ErrRecordNotFound wrapped when the slot is empty
*/
func (d *databaseImpl) GetLatestSnapshot(
	_ context.Context, slot models.CollectionSlot,
) (models.CollectionSnapshot, error) {
	one := 1
	entries, err := d.snapshotsOfSlot(
		slot, SnapshotQueryFilter{CommonListEntryQueryFilter: CommonListEntryQueryFilter{Limit: &one}},
	)
	if err != nil {
		return models.CollectionSnapshot{}, fmt.Errorf(
			"failed to query latest snapshot of slot %s [%w]", slot.ID, err,
		)
	}
	if len(entries) == 0 {
		return models.CollectionSnapshot{}, fmt.Errorf(
			"slot %s has no snapshot [%w]", slot.ID, gorm.ErrRecordNotFound,
		)
	}
	return entries[0].CollectionSnapshot, nil
}

/*
ListSnapshotsOfSlot list the snapshots of a slot, newest first

	@param ctx context.Context - execution context
	@param slot models.CollectionSlot - the parent slot
	@param filters SnapshotQueryFilter - entry listing filter
	@return list of snapshots
*/
func (d *databaseImpl) ListSnapshotsOfSlot(
	_ context.Context, slot models.CollectionSlot, filters SnapshotQueryFilter,
) ([]models.CollectionSnapshot, error) {
	entries, err := d.snapshotsOfSlot(slot, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots of slot %s [%w]", slot.ID, err)
	}

	result := make([]models.CollectionSnapshot, 0, len(entries))
	for _, entry := range entries {
		result = append(result, entry.CollectionSnapshot)
	}
	return result, nil
}
