package db

import (
	"context"
	"fmt"

	"github.com/alwitt/notary/models"
)

// GlobalSystemParamEntryID ID of the singleton system parameter entry
const GlobalSystemParamEntryID = "system-parameters"

// loadSystemParams fetch the system param entry, creating it on first access
func (d *databaseImpl) loadSystemParams() (SystemParamsDBEntry, error) {
	var entries []SystemParamsDBEntry
	if err := d.db.Where("id = ?", GlobalSystemParamEntryID).Find(&entries).Error; err != nil {
		return SystemParamsDBEntry{}, fmt.Errorf("failed to read system params table [%w]", err)
	}
	if len(entries) > 0 {
		return entries[0], nil
	}

	fresh := SystemParamsDBEntry{
		SystemParams: models.SystemParams{
			ID:    GlobalSystemParamEntryID,
			State: models.SystemStatePreInit,
		},
	}
	if err := d.db.Create(&fresh).Error; err != nil {
		return SystemParamsDBEntry{}, fmt.Errorf(
			"failed to setup singleton system params entry [%w]", err,
		)
	}
	return fresh, nil
}

/*
GetSystemParamEntry fetch the global singleton system parameter entry

	@param ctx context.Context - execution context
	@returns the entry
*/
func (d *databaseImpl) GetSystemParamEntry(_ context.Context) (models.SystemParams, error) {
	entry, err := d.loadSystemParams()
	if err != nil {
		return models.SystemParams{}, fmt.Errorf("unable to fetch system parameter entry [%w]", err)
	}
	return entry.SystemParams, nil
}

// moveSystemState update the system parameter entry with new state
func (d *databaseImpl) moveSystemState(newState models.SystemStateENUMType) error {
	entry, err := d.loadSystemParams()
	if err != nil {
		return fmt.Errorf("unable to fetch system parameter entry [%w]", err)
	}

	if entry.State == newState {
		return nil
	}

	if err := entry.ValidateNextState(newState); err != nil {
		return fmt.Errorf("system state change to %s not allowed [%w]", newState, err)
	}

	entry.State = newState
	if tmp := d.db.Model(&entry).Update("state", newState); tmp.Error != nil {
		return fmt.Errorf("system state change update failed [%w]", tmp.Error)
	}

	eventType := models.SystemEventTypeInitializing
	if newState == models.SystemStateRunning {
		eventType = models.SystemEventTypeInitialized
	}
	if _, err := d.recordSystemEvent(eventType, nil); err != nil {
		return fmt.Errorf("failed to log system state change audit event [%w]", err)
	}

	return nil
}

/*
MarkSystemInitializing mark bootstrap started

	@param ctx context.Context - execution context
*/
func (d *databaseImpl) MarkSystemInitializing(_ context.Context) error {
	return d.moveSystemState(models.SystemStateInit)
}

/*
MarkSystemInitialized mark bootstrap finished

	@param ctx context.Context - execution context
*/
func (d *databaseImpl) MarkSystemInitialized(_ context.Context) error {
	return d.moveSystemState(models.SystemStateRunning)
}
