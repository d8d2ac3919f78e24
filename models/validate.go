package models

import (
	"reflect"

	"github.com/go-playground/validator/v10"
)

/*
RegisterWithValidator register with the validator this custom validation support

	@param v *validator.Validate - the validator to register against
	@return whether successful
*/
func RegisterWithValidator(v *validator.Validate) error {
	customTags := map[string]validator.Func{
		"document_type":     validateDocumentType,
		"enc_key_state":     validateEncKeyStateType,
		"system_state":      validateSystemStateType,
		"system_event_type": validateSystemEventType,
	}
	for tag, check := range customTags {
		if err := v.RegisterValidation(tag, check); err != nil {
			return err
		}
	}
	return nil
}

func validateDocumentType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	return DocumentTypeENUMType(fl.Field().String()).IsKnown()
}

func validateEncKeyStateType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch EncryptionKeyStateENUMType(fl.Field().String()) {
	case EncryptionKeyStateActive, EncryptionKeyStateRetired:
		return true
	}
	return false
}

func validateSystemStateType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch SystemStateENUMType(fl.Field().String()) {
	case SystemStatePreInit:
		fallthrough
	case SystemStateInit:
		fallthrough
	case SystemStateRunning:
		return true
	}
	return false
}

func validateSystemEventType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch SystemEventTypeENUMType(fl.Field().String()) {
	case SystemEventTypeInitializing,
		SystemEventTypeInitialized,
		SystemEventTypeNewEncryptionKey,
		SystemEventTypeRetireEncryptionKey,
		SystemEventTypeDefineSlot,
		SystemEventTypeWriteSnapshot:
		return true
	}
	return false
}
