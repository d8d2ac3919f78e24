package encryption

import (
	"context"
	"fmt"

	cgoCrypto "github.com/alwitt/cgoutils/crypto"
	"github.com/alwitt/notary/db"
	"github.com/alwitt/notary/models"
)

// prepareAEAD prepare an XChaCha20-Poly1305 AEAD with the key, and the given nonce or a
// random one when none is provided
func (e *cryptoEngine) prepareAEAD(
	ctx context.Context, key []byte, nonce []byte,
) (cgoCrypto.AEAD, error) {
	aead, err := e.crypto.GetAEAD(ctx, cgoCrypto.AEADTypeXChaCha20Poly1305)
	if err != nil {
		return nil, fmt.Errorf("unable to define AEAD client [%w]", err)
	}

	// Key material is only ever handed to the AEAD through secure C memory
	keyBuffer, err := e.crypto.AllocateSecureCSlice(aead.ExpectedKeyLen())
	if err != nil {
		return nil, fmt.Errorf("failed to allocate AEAD key buffer [%w]", err)
	}
	keyCore, err := keyBuffer.GetSlice()
	if err != nil {
		return nil, fmt.Errorf("failed to access AEAD key buffer [%w]", err)
	}
	if copied := copy(keyCore, key); copied != aead.ExpectedKeyLen() {
		return nil, fmt.Errorf("AEAD key fill short %d =/= %d", copied, aead.ExpectedKeyLen())
	}
	if err := aead.SetKey(keyBuffer); err != nil {
		return nil, fmt.Errorf("failed to install AEAD key [%w]", err)
	}

	if len(nonce) == 0 {
		randomNonce, err := e.crypto.GetRandomBuf(ctx, aead.ExpectedNonceLen())
		if err != nil {
			return nil, fmt.Errorf("failed to generate AEAD nonce [%w]", err)
		}
		if err := aead.SetNonce(randomNonce); err != nil {
			return nil, fmt.Errorf("failed to install AEAD nonce [%w]", err)
		}
		return aead, nil
	}

	nonceBuffer, err := e.crypto.AllocateSecureCSlice(aead.ExpectedNonceLen())
	if err != nil {
		return nil, fmt.Errorf("failed to allocate AEAD nonce buffer [%w]", err)
	}
	nonceCore, err := nonceBuffer.GetSlice()
	if err != nil {
		return nil, fmt.Errorf("failed to access AEAD nonce buffer [%w]", err)
	}
	if copied := copy(nonceCore, nonce); copied != aead.ExpectedNonceLen() {
		return nil, fmt.Errorf("AEAD nonce fill short %d =/= %d", copied, aead.ExpectedNonceLen())
	}
	if err := aead.SetNonce(nonceBuffer); err != nil {
		return nil, fmt.Errorf("failed to install AEAD nonce [%w]", err)
	}

	return aead, nil
}

// usableKey load a data key and make sure it can be used for sealing or opening
func (e *cryptoEngine) usableKey(
	ctx context.Context, keyID string, activeDBClient db.Database,
) (dataKeyCacheEntry, error) {
	keyEntry, err := e.loadKey(ctx, keyID, activeDBClient)
	if err != nil {
		return dataKeyCacheEntry{}, err
	}
	if keyEntry.State != models.EncryptionKeyStateActive || len(keyEntry.plainKey) == 0 {
		return dataKeyCacheEntry{}, fmt.Errorf("data key %s is '%s'", keyID, keyEntry.State)
	}
	return keyEntry, nil
}

/*
SealData encrypt plain text with a data key

	@param ctx context.Context - execution context
	@param keyID string - the data key ID
	@param plainText []byte - the plain text
	@param activeDBClient Database - existing database transaction
	@return the key entry used, and the sealed data
*/
func (e *cryptoEngine) SealData(
	ctx context.Context, keyID string, plainText []byte, activeDBClient db.Database,
) (models.EncryptionKey, SealedData, error) {
	keyEntry, err := e.usableKey(ctx, keyID, activeDBClient)
	if err != nil {
		return models.EncryptionKey{}, SealedData{}, fmt.Errorf("unable to seal [%w]", err)
	}

	aead, err := e.prepareAEAD(ctx, keyEntry.plainKey, nil)
	if err != nil {
		return models.EncryptionKey{}, SealedData{}, fmt.Errorf("failed to setup AEAD client [%w]", err)
	}

	nonce, err := aead.Nonce().GetSlice()
	if err != nil {
		return models.EncryptionKey{}, SealedData{}, fmt.Errorf("failed to read nonce [%w]", err)
	}
	// The nonce lives in secure memory owned by the AEAD
	nonceCopy := append([]byte(nil), nonce...)

	cipherText := make([]byte, aead.ExpectedCipherLen(int64(len(plainText))))
	if err := aead.Seal(ctx, 0, plainText, nil, cipherText); err != nil {
		return models.EncryptionKey{}, SealedData{}, fmt.Errorf("failed to seal plain text [%w]", err)
	}

	return keyEntry.EncryptionKey, SealedData{CipherText: cipherText, Nonce: nonceCopy}, nil
}

/*
OpenData decrypt sealed data with a data key

	@param ctx context.Context - execution context
	@param keyID string - the data key ID
	@param sealed SealedData - the sealed data
	@param activeDBClient Database - existing database transaction
	@return the key entry used, and the plain text
*/
func (e *cryptoEngine) OpenData(
	ctx context.Context, keyID string, sealed SealedData, activeDBClient db.Database,
) (models.EncryptionKey, []byte, error) {
	keyEntry, err := e.usableKey(ctx, keyID, activeDBClient)
	if err != nil {
		return models.EncryptionKey{}, nil, fmt.Errorf("unable to open [%w]", err)
	}

	aead, err := e.prepareAEAD(ctx, keyEntry.plainKey, sealed.Nonce)
	if err != nil {
		return models.EncryptionKey{}, nil, fmt.Errorf("failed to setup AEAD client [%w]", err)
	}

	plainText := make([]byte, aead.ExpectedPlainTextLen(int64(len(sealed.CipherText))))
	if err := aead.Unseal(ctx, 0, sealed.CipherText, nil, plainText); err != nil {
		return models.EncryptionKey{}, nil, fmt.Errorf("failed to open sealed data [%w]", err)
	}

	return keyEntry.EncryptionKey, plainText, nil
}
