// Package encryption - sealing of collection snapshots at rest
package encryption

import (
	"context"
	"crypto/rsa"
	"fmt"
	"sync"

	cgoCrypto "github.com/alwitt/cgoutils/crypto"
	"github.com/alwitt/goutils"
	"github.com/alwitt/notary/db"
	"github.com/alwitt/notary/models"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
)

// SealedData AEAD output of one seal operation
type SealedData struct {
	// CipherText the sealed bytes
	CipherText []byte
	// Nonce the nonce used while sealing
	Nonce []byte
}

/*
CryptographyEngine owns every cryptographic operation over stored snapshots.

It also fronts the data key APIs of the persistence layer; nothing else in the system
should touch the `encryption_keys` table directly.
*/
type CryptographyEngine interface {
	/*
		NewEncryptionKey generate, wrap and record a new symmetric data key

			@param ctx context.Context - execution context
			@param activeDBClient Database - existing database transaction
			@returns the key entry
	*/
	NewEncryptionKey(ctx context.Context, activeDBClient db.Database) (models.EncryptionKey, error)

	/*
		GetEncryptionKey fetch one data key

			@param ctx context.Context - execution context
			@param keyID string - the key ID
			@param activeDBClient Database - existing database transaction
			@return key entry
	*/
	GetEncryptionKey(
		ctx context.Context, keyID string, activeDBClient db.Database,
	) (models.EncryptionKey, error)

	/*
		ListEncryptionKeys list data keys, newest first

			@param ctx context.Context - execution context
			@param filters EncryptionKeyQueryFilter - entry listing filter
			@param activeDBClient Database - existing database transaction
			@return list of keys
	*/
	ListEncryptionKeys(
		ctx context.Context, filters db.EncryptionKeyQueryFilter, activeDBClient db.Database,
	) ([]models.EncryptionKey, error)

	/*
		RetireEncryptionKey rotate a data key out; it can no longer seal or open data

			@param ctx context.Context - execution context
			@param keyID string - the key ID
			@param activeDBClient Database - existing database transaction
	*/
	RetireEncryptionKey(ctx context.Context, keyID string, activeDBClient db.Database) error

	/*
		SealData encrypt plain text with a data key

			@param ctx context.Context - execution context
			@param keyID string - the data key ID
			@param plainText []byte - the plain text
			@param activeDBClient Database - existing database transaction
			@return the key entry used, and the sealed data
	*/
	SealData(
		ctx context.Context, keyID string, plainText []byte, activeDBClient db.Database,
	) (models.EncryptionKey, SealedData, error)

	/*
		OpenData decrypt sealed data with a data key

			@param ctx context.Context - execution context
			@param keyID string - the data key ID
			@param sealed SealedData - the sealed data
			@param activeDBClient Database - existing database transaction
			@return the key entry used, and the plain text
	*/
	OpenData(
		ctx context.Context, keyID string, sealed SealedData, activeDBClient db.Database,
	) (models.EncryptionKey, []byte, error)
}

// cryptoEngine implements CryptographyEngine
type cryptoEngine struct {
	goutils.Component

	persistence db.Client
	crypto      cgoCrypto.Engine

	primaryKey    *rsa.PrivateKey
	primaryPubKey *rsa.PublicKey

	keyCacheLock sync.RWMutex
	dataKeys     map[string]dataKeyCacheEntry
}

// dataKeyCacheEntry unwrapped data key cache entry
type dataKeyCacheEntry struct {
	models.EncryptionKey
	// plainKey the unwrapped symmetric key
	plainKey []byte
}

// CryptographyEngineParams cryptography engine init parameters
//
// The primary RSA key pair wraps and unwraps the symmetric data keys.
type CryptographyEngineParams struct {
	// Persistence persistence layer client
	Persistence db.Client `validate:"-"`
	// PrimaryRSACertFile file path to the primary RSA certificate PEM
	PrimaryRSACertFile string `validate:"required,file"`
	// PrimaryRSAKeyFile file path to the primary RSA certificate private key PEM
	PrimaryRSAKeyFile string `validate:"required,file"`
}

/*
NewCryptographyEngine define new cryptography engine

	@param ctx context.Context - execution context
	@param params CryptographyEngineParams - engine parameters
	@returns engine instance
*/
func NewCryptographyEngine(
	ctx context.Context, params CryptographyEngineParams,
) (CryptographyEngine, error) {
	validate := validator.New()
	if err := validate.Struct(&params); err != nil {
		return nil, fmt.Errorf("invalid engine init parameters [%w]", err)
	}

	core, err := cgoCrypto.NewEngine(log.Fields{
		"package": "cgoutils", "module": "crypto", "component": "crypto-engine",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to prepare core cryptography [%w]", err)
	}

	instance := &cryptoEngine{
		Component: goutils.Component{
			LogTags: log.Fields{"module": "encryption", "component": "crypto-engine"},
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		persistence: params.Persistence,
		crypto:      core,
		dataKeys:    make(map[string]dataKeyCacheEntry),
	}

	if err := instance.loadPrimaryKeyPair(
		ctx, params.PrimaryRSACertFile, params.PrimaryRSAKeyFile,
	); err != nil {
		return nil, fmt.Errorf("failed to load primary RSA key pair [%w]", err)
	}

	return instance, nil
}
