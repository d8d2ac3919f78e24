package models

import (
	"fmt"
	"time"
)

// EncryptionKeyStateENUMType encryption key state enum type
type EncryptionKeyStateENUMType string

const (
	// EncryptionKeyStateActive the key may seal and open snapshots
	EncryptionKeyStateActive EncryptionKeyStateENUMType = "ACTIVE"
	// EncryptionKeyStateRetired the key was rotated out and is no longer usable
	EncryptionKeyStateRetired EncryptionKeyStateENUMType = "RETIRED"
)

// EncryptionKey a symmetric data key used to seal collection snapshots
//
// The key material is stored wrapped by the primary RSA key pair.
type EncryptionKey struct {
	// ID key ID
	ID string `json:"id" gorm:"column:id;primaryKey;unique" validate:"required,uuid_rfc4122"`

	// WrappedMaterial the RSA wrapped key material
	WrappedMaterial []byte `json:"wrapped_material" gorm:"column:wrapped_material;not null" validate:"required"`

	// State the key state
	State EncryptionKeyStateENUMType `json:"state" gorm:"column:state;not null" validate:"required,enc_key_state"`

	// CreatedAt entry creation timestamp
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt entry update timestamp
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidateNextState verify the key can transition to new state
//
// Retirement is terminal.
func (e *EncryptionKey) ValidateNextState(newState EncryptionKeyStateENUMType) error {
	allowed := map[EncryptionKeyStateENUMType][]EncryptionKeyStateENUMType{
		EncryptionKeyStateActive:  {EncryptionKeyStateActive, EncryptionKeyStateRetired},
		EncryptionKeyStateRetired: {EncryptionKeyStateRetired},
	}

	nextStates, ok := allowed[e.State]
	if !ok {
		return fmt.Errorf("encryption key %s in unknown state '%s'", e.ID, e.State)
	}
	for _, candidate := range nextStates {
		if candidate == newState {
			return nil
		}
	}
	return fmt.Errorf("encryption key %s can't go from '%s' to '%s'", e.ID, e.State, newState)
}
