package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

// SystemEventTypeENUMType system event type ENUM value type
type SystemEventTypeENUMType string

const (
	// SystemEventTypeInitializing persistence bootstrap started
	SystemEventTypeInitializing SystemEventTypeENUMType = "SYSTEM_INITIALIZING"

	// SystemEventTypeInitialized persistence bootstrap finished
	SystemEventTypeInitialized SystemEventTypeENUMType = "SYSTEM_INITIALIZED"

	// SystemEventTypeNewEncryptionKey new data key was recorded
	SystemEventTypeNewEncryptionKey SystemEventTypeENUMType = "ADD_NEW_ENCRYPTION_KEY"

	// SystemEventTypeRetireEncryptionKey data key was rotated out
	SystemEventTypeRetireEncryptionKey SystemEventTypeENUMType = "RETIRE_ENCRYPTION_KEY"

	// SystemEventTypeDefineSlot new collection slot was defined
	SystemEventTypeDefineSlot SystemEventTypeENUMType = "DEFINE_COLLECTION_SLOT"

	// SystemEventTypeWriteSnapshot new collection snapshot was written
	SystemEventTypeWriteSnapshot SystemEventTypeENUMType = "WRITE_COLLECTION_SNAPSHOT"
)

// SystemEventAudit recording of events occurring at the persistence level
type SystemEventAudit struct {
	// ID audit entry ID
	ID string `json:"id" gorm:"column:id;primaryKey;unique" validate:"required"`
	// EventType system event type
	EventType SystemEventTypeENUMType `json:"type" gorm:"column:type;not null" validate:"required,system_event_type"`
	// Metadata a metadata relating to the event
	Metadata datatypes.JSON `json:"metadata,omitempty" gorm:"column:metadata;default:null"`
	// CreatedAt entry creation timestamp
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt entry update timestamp
	UpdatedAt time.Time `json:"updated_at"`
}

// ParseMetadata parse the metadata based on the event type
func (a SystemEventAudit) ParseMetadata(validator *validator.Validate) (interface{}, error) {
	var parsed interface{}
	switch a.EventType {
	case SystemEventTypeNewEncryptionKey, SystemEventTypeRetireEncryptionKey:
		parsed = &SystemEventEncKeyRelated{}
	case SystemEventTypeDefineSlot, SystemEventTypeWriteSnapshot:
		parsed = &SystemEventSlotRelated{}
	default:
		return nil, nil
	}

	if err := json.Unmarshal(a.Metadata, parsed); err != nil {
		return nil, fmt.Errorf("system event '%s' metadata parse failed [%w]", a.EventType, err)
	}
	if err := validator.Struct(parsed); err != nil {
		return nil, fmt.Errorf("system event '%s' metadata invalid [%w]", a.EventType, err)
	}

	switch typed := parsed.(type) {
	case *SystemEventEncKeyRelated:
		return *typed, nil
	case *SystemEventSlotRelated:
		return *typed, nil
	}
	return parsed, nil
}

// SystemEventEncKeyRelated system event metadata related to a data key
type SystemEventEncKeyRelated struct {
	// KeyID the data key
	KeyID string `json:"key_id" validate:"required,uuid_rfc4122"`
}

// SystemEventSlotRelated system event metadata related to a collection slot
type SystemEventSlotRelated struct {
	// SlotID the collection slot ID
	SlotID string `json:"slot_id" validate:"required,uuid_rfc4122"`
	// SlotName the collection slot name
	SlotName string `json:"slot_name" validate:"required"`
	// SnapshotID the snapshot written, if any
	SnapshotID string `json:"snapshot_id,omitempty"`
}
