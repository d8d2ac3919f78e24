package db

import (
	"context"
	"fmt"

	"github.com/alwitt/notary/models"
	"github.com/google/uuid"
)

/*
RecordEncryptionKey record a wrapped symmetric data key

	@param ctx context.Context - execution context
	@param wrappedMaterial []byte - RSA wrapped key material
	@returns the key entry
*/
func (d *databaseImpl) RecordEncryptionKey(
	_ context.Context, wrappedMaterial []byte,
) (models.EncryptionKey, error) {
	newEntry := EncryptionKeyDBEntry{
		EncryptionKey: models.EncryptionKey{
			ID:              uuid.NewString(),
			WrappedMaterial: wrappedMaterial,
			State:           models.EncryptionKeyStateActive,
		},
	}

	if err := d.validator.Struct(&newEntry); err != nil {
		return models.EncryptionKey{}, fmt.Errorf("new encryption key entry is invalid [%w]", err)
	}

	if tmp := d.db.Create(&newEntry); tmp.Error != nil {
		return models.EncryptionKey{}, fmt.Errorf(
			"new encryption key entry insert failed [%w]", tmp.Error,
		)
	}

	if _, err := d.recordSystemEvent(
		models.SystemEventTypeNewEncryptionKey, models.SystemEventEncKeyRelated{KeyID: newEntry.ID},
	); err != nil {
		return models.EncryptionKey{}, fmt.Errorf(
			"failed to log add new encryption key audit event [%w]", err,
		)
	}

	return newEntry.EncryptionKey, nil
}

// getEncryptionKeyEntry fetch one data key entry
func (d *databaseImpl) getEncryptionKeyEntry(keyID string) (EncryptionKeyDBEntry, error) {
	var entry EncryptionKeyDBEntry
	err := d.db.Where("id = ?", keyID).First(&entry).Error
	return entry, err
}

/*
GetEncryptionKey fetch one data key

	@param ctx context.Context - execution context
	@param keyID string - the key ID
	@return key entry
*/
func (d *databaseImpl) GetEncryptionKey(
	_ context.Context, keyID string,
) (models.EncryptionKey, error) {
	entry, err := d.getEncryptionKeyEntry(keyID)
	if err != nil {
		return models.EncryptionKey{}, fmt.Errorf("failed to fetch encryption key %s [%w]", keyID, err)
	}
	return entry.EncryptionKey, nil
}

/*
ListEncryptionKeys list data keys, newest first

	@param ctx context.Context - execution context
	@param filters EncryptionKeyQueryFilter - entry listing filter
	@return list of keys
*/
func (d *databaseImpl) ListEncryptionKeys(
	_ context.Context, filters EncryptionKeyQueryFilter,
) ([]models.EncryptionKey, error) {
	query := d.db.Model(&EncryptionKeyDBEntry{})

	if len(filters.TargetState) > 0 {
		query = query.Where("state in ?", filters.TargetState)
	}

	query = filters.apply(query).Order("created_at desc")

	var entries []EncryptionKeyDBEntry
	if tmp := query.Find(&entries); tmp.Error != nil {
		return nil, fmt.Errorf("failed to list encryption keys [%w]", tmp.Error)
	}

	result := make([]models.EncryptionKey, 0, len(entries))
	for _, entry := range entries {
		result = append(result, entry.EncryptionKey)
	}
	return result, nil
}

/*
MarkEncryptionKeyRetired mark a data key as rotated out

	@param ctx context.Context - execution context
	@param keyID string - the key ID
*/
func (d *databaseImpl) MarkEncryptionKeyRetired(_ context.Context, keyID string) error {
	entry, err := d.getEncryptionKeyEntry(keyID)
	if err != nil {
		return fmt.Errorf("failed to fetch encryption key %s [%w]", keyID, err)
	}

	if entry.State == models.EncryptionKeyStateRetired {
		return nil
	}

	if err := entry.ValidateNextState(models.EncryptionKeyStateRetired); err != nil {
		return fmt.Errorf("encryption key %s can't be retired [%w]", keyID, err)
	}

	if tmp := d.db.Model(&entry).Update(
		"state", models.EncryptionKeyStateRetired,
	); tmp.Error != nil {
		return fmt.Errorf("encryption key %s state update failed [%w]", keyID, tmp.Error)
	}

	if _, err := d.recordSystemEvent(
		models.SystemEventTypeRetireEncryptionKey, models.SystemEventEncKeyRelated{KeyID: keyID},
	); err != nil {
		return fmt.Errorf("failed to log retire encryption key audit event [%w]", err)
	}

	return nil
}
