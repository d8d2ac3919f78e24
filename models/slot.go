package models

import "time"

// CollectionSlot a named storage slot holding one serialized collection
type CollectionSlot struct {
	// ID slot ID
	ID string `json:"id" gorm:"column:id;primaryKey;unique" validate:"required,uuid_rfc4122"`

	// Name slot name, i.e. the collection entry key
	Name string `json:"name" gorm:"column:name;not null;unique" validate:"required"`

	// CreatedAt entry creation timestamp
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt entry update timestamp
	UpdatedAt time.Time `json:"updated_at"`
}

// CollectionSnapshot one full write of a slot's collection, encrypted at rest
//
// Snapshots are append only; the newest snapshot is the current value of the slot.
type CollectionSnapshot struct {
	// ID snapshot ID, a ULID so IDs sort by write order
	ID string `json:"id" gorm:"column:id;primaryKey;unique" validate:"required"`

	// SlotID the parent slot
	SlotID string `json:"slot_id" gorm:"column:slot_id;not null;index" validate:"required,uuid_rfc4122"`

	// EncKeyID the data key which sealed this snapshot
	EncKeyID string `json:"enc_key_id" gorm:"column:enc_key_id;not null;" validate:"required,uuid_rfc4122"`

	// SealedValue the sealed collection bytes
	SealedValue []byte `json:"sealed_value" gorm:"column:sealed_value;not null;" validate:"required"`
	// Nonce the AEAD nonce used when sealing
	Nonce []byte `json:"nonce" gorm:"column:nonce;not null;" validate:"required"`

	// CreatedAt entry creation timestamp
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt entry update timestamp
	UpdatedAt time.Time `json:"updated_at"`
}
