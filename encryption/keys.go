package encryption

import (
	"context"
	"fmt"

	cgoCrypto "github.com/alwitt/cgoutils/crypto"
	"github.com/alwitt/notary/db"
	"github.com/alwitt/notary/models"
	"github.com/apex/log"
)

/*
NewEncryptionKey generate, wrap and record a new symmetric data key

	@param ctx context.Context - execution context
	@param activeDBClient Database - existing database transaction
	@returns the key entry
*/
func (e *cryptoEngine) NewEncryptionKey(
	ctx context.Context, activeDBClient db.Database,
) (models.EncryptionKey, error) {
	aead, err := e.crypto.GetAEAD(ctx, cgoCrypto.AEADTypeXChaCha20Poly1305)
	if err != nil {
		return models.EncryptionKey{}, fmt.Errorf("unable to define AEAD client [%w]", err)
	}

	keyLen := aead.ExpectedKeyLen()
	plainKey := make([]byte, keyLen)
	if n, err := e.crypto.GetRNGReader().Read(plainKey); err != nil {
		return models.EncryptionKey{}, fmt.Errorf("failed to read %d bytes from RNG [%w]", keyLen, err)
	} else if n != keyLen {
		return models.EncryptionKey{}, fmt.Errorf("RNG returned %d of %d bytes", n, keyLen)
	}

	wrapped, err := e.crypto.RSAEncrypt(ctx, plainKey, e.primaryPubKey, nil)
	if err != nil {
		return models.EncryptionKey{}, fmt.Errorf("failed to wrap new data key [%w]", err)
	}

	var keyEntry models.EncryptionKey
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, e.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			keyEntry, err = dbClient.RecordEncryptionKey(dbCtx, wrapped)
			return err
		},
	); dbErr != nil {
		return models.EncryptionKey{}, fmt.Errorf("failed to record new data key [%w]", dbErr)
	}

	e.cachePlainKey(keyEntry, plainKey)

	log.WithFields(e.GetLogTagsForContext(ctx)).
		WithField("key-id", keyEntry.ID).
		Info("Defined new data key")

	return keyEntry, nil
}

// cachePlainKey remember an unwrapped key
func (e *cryptoEngine) cachePlainKey(keyEntry models.EncryptionKey, plainKey []byte) {
	e.keyCacheLock.Lock()
	defer e.keyCacheLock.Unlock()
	e.dataKeys[keyEntry.ID] = dataKeyCacheEntry{EncryptionKey: keyEntry, plainKey: plainKey}
}

// cachedKey read an unwrapped key from cache
func (e *cryptoEngine) cachedKey(keyID string) (dataKeyCacheEntry, bool) {
	e.keyCacheLock.RLock()
	defer e.keyCacheLock.RUnlock()
	entry, ok := e.dataKeys[keyID]
	return entry, ok
}

// forgetKey drop a key from cache
func (e *cryptoEngine) forgetKey(keyID string) {
	e.keyCacheLock.Lock()
	defer e.keyCacheLock.Unlock()
	delete(e.dataKeys, keyID)
}

// unwrapKey unwrap an active key and cache it; retired keys are never unwrapped
func (e *cryptoEngine) unwrapKey(
	ctx context.Context, keyEntry models.EncryptionKey,
) (dataKeyCacheEntry, error) {
	if keyEntry.State != models.EncryptionKeyStateActive {
		e.forgetKey(keyEntry.ID)
		return dataKeyCacheEntry{EncryptionKey: keyEntry}, nil
	}

	if cached, ok := e.cachedKey(keyEntry.ID); ok {
		return cached, nil
	}

	plainKey, err := e.crypto.RSADecrypt(ctx, keyEntry.WrappedMaterial, e.primaryKey, nil)
	if err != nil {
		return dataKeyCacheEntry{EncryptionKey: keyEntry}, fmt.Errorf(
			"failed to unwrap data key %s [%w]", keyEntry.ID, err,
		)
	}

	e.cachePlainKey(keyEntry, plainKey)
	return dataKeyCacheEntry{EncryptionKey: keyEntry, plainKey: plainKey}, nil
}

// loadKey fetch a key entry from persistence and unwrap it when active
func (e *cryptoEngine) loadKey(
	ctx context.Context, keyID string, activeDBClient db.Database,
) (dataKeyCacheEntry, error) {
	var keyEntry models.EncryptionKey
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, e.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			keyEntry, err = dbClient.GetEncryptionKey(dbCtx, keyID)
			return err
		},
	); dbErr != nil {
		return dataKeyCacheEntry{}, fmt.Errorf("data key %s unknown [%w]", keyID, dbErr)
	}

	return e.unwrapKey(ctx, keyEntry)
}

/*
GetEncryptionKey fetch one data key

	@param ctx context.Context - execution context
	@param keyID string - the key ID
	@param activeDBClient Database - existing database transaction
	@return key entry
*/
func (e *cryptoEngine) GetEncryptionKey(
	ctx context.Context, keyID string, activeDBClient db.Database,
) (models.EncryptionKey, error) {
	entry, err := e.loadKey(ctx, keyID, activeDBClient)
	return entry.EncryptionKey, err
}

/*
ListEncryptionKeys list data keys, newest first

	@param ctx context.Context - execution context
	@param filters EncryptionKeyQueryFilter - entry listing filter
	@param activeDBClient Database - existing database transaction
	@return list of keys
*/
func (e *cryptoEngine) ListEncryptionKeys(
	ctx context.Context, filters db.EncryptionKeyQueryFilter, activeDBClient db.Database,
) ([]models.EncryptionKey, error) {
	var keyEntries []models.EncryptionKey
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, e.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			keyEntries, err = dbClient.ListEncryptionKeys(dbCtx, filters)
			return err
		},
	); dbErr != nil {
		return nil, fmt.Errorf("failed to list data keys [%w]", dbErr)
	}

	for _, entry := range keyEntries {
		if _, err := e.unwrapKey(ctx, entry); err != nil {
			return nil, fmt.Errorf("unable to cache data key %s [%w]", entry.ID, err)
		}
	}

	return keyEntries, nil
}

/*
RetireEncryptionKey rotate a data key out; it can no longer seal or open data

	@param ctx context.Context - execution context
	@param keyID string - the key ID
	@param activeDBClient Database - existing database transaction
*/
func (e *cryptoEngine) RetireEncryptionKey(
	ctx context.Context, keyID string, activeDBClient db.Database,
) error {
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, e.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			return dbClient.MarkEncryptionKeyRetired(dbCtx, keyID)
		},
	); dbErr != nil {
		return fmt.Errorf("failed to retire data key %s [%w]", keyID, dbErr)
	}

	e.forgetKey(keyID)

	log.WithFields(e.GetLogTagsForContext(ctx)).
		WithField("key-id", keyID).
		Info("Retired data key")

	return nil
}
