package models_test

import (
	"testing"
	"time"

	"github.com/alwitt/notary/models"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestParseDocumentType(t *testing.T) {
	assert := assert.New(t)

	for _, known := range models.AllDocumentTypes {
		parsed, err := models.ParseDocumentType(string(known))
		assert.Nil(err)
		assert.Equal(known, parsed)
	}
	assert.Len(models.AllDocumentTypes, 6)

	for _, unknown := range []string{"", "diploma", "DriverLicense", "Passport"} {
		_, err := models.ParseDocumentType(unknown)
		assert.Error(err, unknown)
	}
}

func TestDocumentValidation(t *testing.T) {
	assert := assert.New(t)

	validate := validator.New()
	assert.Nil(models.RegisterWithValidator(validate))

	base := models.Document{
		ID:           "doc_1",
		Name:         "CS Degree",
		Type:         models.DocumentTypeDiploma,
		Hash:         "abc",
		DateIssued:   "2023-05-15",
		DateUploaded: time.Now(),
		IsPublic:     true,
		Owner:        uuid.NewString(),
	}
	assert.Nil(validate.Struct(&base))

	// Private without passphrase
	{
		doc := base
		doc.IsPublic = false
		assert.Error(validate.Struct(&doc))
		doc.Passphrase = "secret"
		assert.Nil(validate.Struct(&doc))
	}

	// Public with passphrase
	{
		doc := base
		doc.Passphrase = "secret"
		assert.Error(validate.Struct(&doc))
	}

	// Unknown type
	{
		doc := base
		doc.Type = "Passport"
		assert.Error(validate.Struct(&doc))
	}

	// Malformed issue date
	{
		doc := base
		doc.DateIssued = "15/05/2023"
		assert.Error(validate.Struct(&doc))
	}

	// Redaction keeps everything except the passphrase
	{
		doc := base
		doc.IsPublic = false
		doc.Passphrase = "secret"
		redacted := doc.Redacted()
		assert.Empty(redacted.Passphrase)
		doc.Passphrase = ""
		assert.Equal(doc, redacted)
	}
}

func TestEncryptionKeyStateTransition(t *testing.T) {
	assert := assert.New(t)

	key := models.EncryptionKey{ID: uuid.NewString(), State: models.EncryptionKeyStateActive}
	assert.Nil(key.ValidateNextState(models.EncryptionKeyStateActive))
	assert.Nil(key.ValidateNextState(models.EncryptionKeyStateRetired))

	key.State = models.EncryptionKeyStateRetired
	assert.Nil(key.ValidateNextState(models.EncryptionKeyStateRetired))
	assert.Error(key.ValidateNextState(models.EncryptionKeyStateActive))
}

func TestSystemStateTransition(t *testing.T) {
	assert := assert.New(t)

	params := models.SystemParams{State: models.SystemStatePreInit}
	assert.Nil(params.ValidateNextState(models.SystemStateInit))
	assert.Error(params.ValidateNextState(models.SystemStateRunning))

	params.State = models.SystemStateInit
	assert.Nil(params.ValidateNextState(models.SystemStateRunning))

	params.State = models.SystemStateRunning
	assert.Error(params.ValidateNextState(models.SystemStateInit))
}
