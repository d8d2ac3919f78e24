package models

import (
	"fmt"
	"time"
)

// SystemStateENUMType system operating state ENUM
type SystemStateENUMType string

const (
	// SystemStatePreInit the persistence layer was never bootstrapped
	SystemStatePreInit SystemStateENUMType = "PRE_INITIALIZATION"
	// SystemStateInit the first data key is being prepared
	SystemStateInit SystemStateENUMType = "INITIALIZING"
	// SystemStateRunning bootstrap complete
	SystemStateRunning SystemStateENUMType = "RUNNING"
)

// SystemParams system operating parameters
type SystemParams struct {
	// ID param entry ID. It must always be system-parameters
	ID string `json:"id" gorm:"column:id;primaryKey;unique" validate:"required,oneof=system-parameters"`

	// State system operating state
	State SystemStateENUMType `json:"state" gorm:"column:state;not null" validate:"required,system_state"`

	// CreatedAt entry creation timestamp
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt entry update timestamp
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidateNextState verify can transition to new state
func (p *SystemParams) ValidateNextState(newState SystemStateENUMType) error {
	transitions := map[SystemStateENUMType]map[SystemStateENUMType]bool{
		SystemStatePreInit: {SystemStatePreInit: true, SystemStateInit: true},
		// An interrupted bootstrap is resumed from INITIALIZING
		SystemStateInit:    {SystemStateInit: true, SystemStateRunning: true},
		SystemStateRunning: {SystemStateRunning: true},
	}

	next, ok := transitions[p.State]
	if !ok {
		return fmt.Errorf("system can't transition out of state '%s'", p.State)
	}
	if !next[newState] {
		return fmt.Errorf("system can't transition from '%s' to '%s'", p.State, newState)
	}
	return nil
}
