package db

import (
	"context"

	"github.com/alwitt/notary/models"
	"gorm.io/gorm"
)

// --------------------------------------------------------------------------------------
// System audit events

// SystemEventAuditDBEntry system audit event DB entry
type SystemEventAuditDBEntry struct {
	models.SystemEventAudit
}

// TableName hard code table name
func (SystemEventAuditDBEntry) TableName() string {
	return "system_audit_events"
}

// --------------------------------------------------------------------------------------
// System parameters

// SystemParamsDBEntry system parameter DB entry
type SystemParamsDBEntry struct {
	models.SystemParams
}

// TableName hard code table name
func (SystemParamsDBEntry) TableName() string {
	return "system_params"
}

// --------------------------------------------------------------------------------------
// Encryption keys

// EncryptionKeyDBEntry data key DB entry
type EncryptionKeyDBEntry struct {
	models.EncryptionKey
}

// TableName hard code table name
func (EncryptionKeyDBEntry) TableName() string {
	return "encryption_keys"
}

// --------------------------------------------------------------------------------------
// Collection slots

// CollectionSlotDBEntry collection slot DB entry
type CollectionSlotDBEntry struct {
	models.CollectionSlot
}

// TableName hard code table name
func (CollectionSlotDBEntry) TableName() string {
	return "collection_slots"
}

// CollectionSnapshotDBEntry collection snapshot DB entry
type CollectionSnapshotDBEntry struct {
	models.CollectionSnapshot
	Slot   CollectionSlotDBEntry `gorm:"constraint:OnDelete:CASCADE;foreignKey:SlotID" validate:"-"`
	EncKey EncryptionKeyDBEntry  `gorm:"constraint:OnDelete:RESTRICT;foreignKey:EncKeyID" validate:"-"`
}

// TableName hard code table name
func (CollectionSnapshotDBEntry) TableName() string {
	return "collection_snapshots"
}

// AllTableEntries every DB entry type, in dependency order
func AllTableEntries() []interface{} {
	return []interface{}{
		&SystemEventAuditDBEntry{},
		&SystemParamsDBEntry{},
		&EncryptionKeyDBEntry{},
		&CollectionSlotDBEntry{},
		&CollectionSnapshotDBEntry{},
	}
}

// DefineTables create or migrate the tables in place
//
// Meant for unit tests and embedded sqlite use; managed deployments apply the schema
// printed by utils/atlas-migrate.
func DefineTables(_ context.Context, db *gorm.DB) error {
	return db.AutoMigrate(AllTableEntries()...)
}
