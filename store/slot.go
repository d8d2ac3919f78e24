// Package store - sealed collection slot controller
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alwitt/goutils"
	"github.com/alwitt/notary/db"
	"github.com/alwitt/notary/encryption"
	"github.com/alwitt/notary/models"
	"github.com/apex/log"
	"gorm.io/gorm"
)

// ErrSlotEmpty the slot is not defined, or holds no snapshot yet
var ErrSlotEmpty = errors.New("collection slot is empty")

// SealedSlotStore store whole collection values as encrypted, append only snapshots
type SealedSlotStore interface {
	/*
		WriteSnapshot seal a value and record it as the newest snapshot of a slot

		The slot is defined on first write.

			@param ctx context.Context - execution context
			@param slotName string - slot name
			@param value []byte - value
			@param timestamp time.Time - write timestamp
			@param activeDBClient Database - existing database transaction
			@returns the slot and the new snapshot entry
	*/
	WriteSnapshot(
		ctx context.Context,
		slotName string,
		value []byte,
		timestamp time.Time,
		activeDBClient db.Database,
	) (models.CollectionSlot, models.CollectionSnapshot, error)

	/*
		ReadLatest read the value of the newest snapshot of a slot

			@param ctx context.Context - execution context
			@param slotName string - slot name
			@param activeDBClient Database - existing database transaction
			@returns decrypted value, ErrSlotEmpty wrapped when there is nothing to read
	*/
	ReadLatest(ctx context.Context, slotName string, activeDBClient db.Database) ([]byte, error)

	/*
		ListSnapshots list the snapshots of a slot, newest first

			@param ctx context.Context - execution context
			@param slotName string - slot name
			@param activeDBClient Database - existing database transaction
			@returns the slot and its snapshots
	*/
	ListSnapshots(
		ctx context.Context, slotName string, activeDBClient db.Database,
	) (models.CollectionSlot, []models.CollectionSnapshot, error)

	/*
		ReadSnapshot read the value of one snapshot

			@param ctx context.Context - execution context
			@param snapshot models.CollectionSnapshot - the snapshot
			@param activeDBClient Database - existing database transaction
			@returns decrypted value of that snapshot
	*/
	ReadSnapshot(
		ctx context.Context, snapshot models.CollectionSnapshot, activeDBClient db.Database,
	) ([]byte, error)

	/*
		RotateWorkingKey replace the working data key

		The latest snapshot of every slot is re-sealed with the new key, and the previous
		working key is retired.

			@param ctx context.Context - execution context
			@returns the new working key
	*/
	RotateWorkingKey(ctx context.Context) (models.EncryptionKey, error)
}

// sealedSlotStore implements SealedSlotStore
type sealedSlotStore struct {
	goutils.Component

	persistence db.Client

	cryptoEngine encryption.CryptographyEngine

	workingKeyLock sync.RWMutex
	workingKey     models.EncryptionKey
}

/*
NewSealedSlotStore define new sealed slot store

Moves the system through initialization on first start, and prepares the working data key.

	@param ctx context.Context - execution context
	@param persistence db.Client - persistence layer client
	@param cryptoEngine encryption.CryptographyEngine - cryptography engine
	@returns store instance
*/
func NewSealedSlotStore(
	ctx context.Context, persistence db.Client, cryptoEngine encryption.CryptographyEngine,
) (SealedSlotStore, error) {
	logTags := log.Fields{"module": "store", "component": "sealed-slot-store"}

	instance := &sealedSlotStore{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		persistence:  persistence,
		cryptoEngine: cryptoEngine,
	}

	if dbErr := persistence.UseDatabaseInTransaction(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			params, err := dbClient.GetSystemParamEntry(dbCtx)
			if err != nil {
				return err
			}

			if params.State == models.SystemStatePreInit {
				if err := dbClient.MarkSystemInitializing(dbCtx); err != nil {
					return fmt.Errorf("failed to mark system initializing [%w]", err)
				}
			}

			activeKeys, err := cryptoEngine.ListEncryptionKeys(
				dbCtx,
				db.EncryptionKeyQueryFilter{
					TargetState: []models.EncryptionKeyStateENUMType{models.EncryptionKeyStateActive},
				},
				dbClient,
			)
			if err != nil {
				return fmt.Errorf("failed to list active encryption keys [%w]", err)
			}

			if len(activeKeys) == 0 {
				instance.workingKey, err = cryptoEngine.NewEncryptionKey(dbCtx, dbClient)
				if err != nil {
					return fmt.Errorf("failed to define new encryption key [%w]", err)
				}
			} else {
				// Use the newest key
				instance.workingKey = activeKeys[0]
			}

			if params.State != models.SystemStateRunning {
				if err := dbClient.MarkSystemInitialized(dbCtx); err != nil {
					return fmt.Errorf("failed to mark system initialized [%w]", err)
				}
			}

			return nil
		},
	); dbErr != nil {
		return nil, fmt.Errorf("failed to prepare sealed slot store [%w]", dbErr)
	}

	log.WithFields(logTags).
		WithField("working-key", instance.workingKey.ID).
		Info("Sealed slot store ready")

	return instance, nil
}

// sealInto seal a value with a data key as the newest snapshot of a slot
func (s *sealedSlotStore) sealInto(
	ctx context.Context,
	slot models.CollectionSlot,
	keyID string,
	value []byte,
	timestamp time.Time,
	dbClient db.Database,
) (models.CollectionSnapshot, error) {
	theKey, sealed, err := s.cryptoEngine.SealData(ctx, keyID, value, dbClient)
	if err != nil {
		return models.CollectionSnapshot{}, fmt.Errorf("failed to seal slot value [%w]", err)
	}

	snapshot, err := dbClient.DefineNewSnapshot(
		ctx, slot, theKey, sealed.CipherText, sealed.Nonce, timestamp,
	)
	if err != nil {
		return models.CollectionSnapshot{}, fmt.Errorf("failed to insert new snapshot [%w]", err)
	}
	return snapshot, nil
}

/*
WriteSnapshot seal a value and record it as the newest snapshot of a slot

The slot is defined on first write.

	@param ctx context.Context - execution context
	@param slotName string - slot name
	@param value []byte - value
	@param timestamp time.Time - write timestamp
	@param activeDBClient Database - existing database transaction
	@returns the slot and the new snapshot entry
*/
func (s *sealedSlotStore) WriteSnapshot(
	ctx context.Context,
	slotName string,
	value []byte,
	timestamp time.Time,
	activeDBClient db.Database,
) (models.CollectionSlot, models.CollectionSnapshot, error) {
	var slot models.CollectionSlot
	var snapshot models.CollectionSnapshot

	// Key rotation waits for the write to commit
	s.workingKeyLock.RLock()
	defer s.workingKeyLock.RUnlock()

	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error

			slot, err = dbClient.GetSlotByName(dbCtx, slotName)
			if err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("failed to query slot '%s' [%w]", slotName, err)
				}
				slot, err = dbClient.DefineNewSlot(dbCtx, slotName)
				if err != nil {
					return fmt.Errorf("failed to define new slot [%w]", err)
				}
			}

			snapshot, err = s.sealInto(dbCtx, slot, s.workingKey.ID, value, timestamp, dbClient)
			return err
		},
	); dbErr != nil {
		return models.CollectionSlot{},
			models.CollectionSnapshot{},
			fmt.Errorf("failed to write slot '%s' [%w]", slotName, dbErr)
	}

	return slot, snapshot, nil
}

/*
ReadLatest read the value of the newest snapshot of a slot

	@param ctx context.Context - execution context
	@param slotName string - slot name
	@param activeDBClient Database - existing database transaction
	@returns decrypted value, ErrSlotEmpty wrapped when there is nothing to read
*/
func (s *sealedSlotStore) ReadLatest(
	ctx context.Context, slotName string, activeDBClient db.Database,
) ([]byte, error) {
	var value []byte

	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			slot, err := dbClient.GetSlotByName(dbCtx, slotName)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrSlotEmpty
				}
				return fmt.Errorf("failed to query slot '%s' [%w]", slotName, err)
			}

			latest, err := dbClient.GetLatestSnapshot(dbCtx, slot)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrSlotEmpty
				}
				return err
			}

			value, err = s.ReadSnapshot(dbCtx, latest, dbClient)
			return err
		},
	); dbErr != nil {
		return nil, fmt.Errorf("failed to read slot '%s' [%w]", slotName, dbErr)
	}

	return value, nil
}

/*
ListSnapshots list the snapshots of a slot, newest first

	@param ctx context.Context - execution context
	@param slotName string - slot name
	@param activeDBClient Database - existing database transaction
	@returns the slot and its snapshots
*/
func (s *sealedSlotStore) ListSnapshots(
	ctx context.Context, slotName string, activeDBClient db.Database,
) (models.CollectionSlot, []models.CollectionSnapshot, error) {
	var slot models.CollectionSlot
	var snapshots []models.CollectionSnapshot

	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error

			slot, err = dbClient.GetSlotByName(dbCtx, slotName)
			if err != nil {
				return fmt.Errorf("failed to find slot '%s' [%w]", slotName, err)
			}

			snapshots, err = dbClient.ListSnapshotsOfSlot(dbCtx, slot, db.SnapshotQueryFilter{})
			if err != nil {
				return fmt.Errorf("failed to list slot %s snapshots [%w]", slot.ID, err)
			}

			return nil
		},
	); dbErr != nil {
		return models.CollectionSlot{}, nil, fmt.Errorf(
			"failed to list slot '%s' snapshots [%w]", slotName, dbErr,
		)
	}

	return slot, snapshots, nil
}

/*
ReadSnapshot read the value of one snapshot

	@param ctx context.Context - execution context
	@param snapshot models.CollectionSnapshot - the snapshot
	@param activeDBClient Database - existing database transaction
	@returns decrypted value of that snapshot
*/
func (s *sealedSlotStore) ReadSnapshot(
	ctx context.Context, snapshot models.CollectionSnapshot, activeDBClient db.Database,
) ([]byte, error) {
	_, plainText, err := s.cryptoEngine.OpenData(
		ctx, snapshot.EncKeyID, encryption.SealedData{
			CipherText: snapshot.SealedValue, Nonce: snapshot.Nonce,
		}, activeDBClient,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot %s [%w]", snapshot.ID, err)
	}
	return plainText, nil
}

/*
RotateWorkingKey replace the working data key

The latest snapshot of every slot is re-sealed with the new key, and the previous
working key is retired.

	@param ctx context.Context - execution context
	@returns the new working key
*/
func (s *sealedSlotStore) RotateWorkingKey(ctx context.Context) (models.EncryptionKey, error) {
	logTags := s.GetLogTagsForContext(ctx)

	s.workingKeyLock.Lock()
	defer s.workingKeyLock.Unlock()

	oldKey := s.workingKey
	var newKey models.EncryptionKey
	resealed := 0

	if dbErr := s.persistence.UseDatabaseInTransaction(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			var err error

			newKey, err = s.cryptoEngine.NewEncryptionKey(dbCtx, dbClient)
			if err != nil {
				return fmt.Errorf("failed to define new encryption key [%w]", err)
			}

			slots, err := dbClient.ListSlots(dbCtx)
			if err != nil {
				return err
			}

			for _, slot := range slots {
				latest, err := dbClient.GetLatestSnapshot(dbCtx, slot)
				if err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						continue
					}
					return err
				}
				if latest.EncKeyID == newKey.ID {
					continue
				}

				value, err := s.ReadSnapshot(dbCtx, latest, dbClient)
				if err != nil {
					return err
				}
				// Keeps the original write time so later writes still rank newer
				if _, err := s.sealInto(
					dbCtx, slot, newKey.ID, value, latest.CreatedAt, dbClient,
				); err != nil {
					return fmt.Errorf("failed to re-seal slot %s [%w]", slot.ID, err)
				}
				resealed++
			}

			if err := s.cryptoEngine.RetireEncryptionKey(dbCtx, oldKey.ID, dbClient); err != nil {
				return fmt.Errorf("failed to retire encryption key %s [%w]", oldKey.ID, err)
			}

			return nil
		},
	); dbErr != nil {
		return models.EncryptionKey{}, fmt.Errorf("failed to rotate working key [%w]", dbErr)
	}

	s.workingKey = newKey

	log.WithFields(logTags).
		WithField("old-key", oldKey.ID).
		WithField("new-key", newKey.ID).
		WithField("resealed", resealed).
		Info("Rotated working data key")

	return newKey, nil
}
