// Package models - system data models
package models

import (
	"fmt"
	"time"
)

// DocumentTypeENUMType document type ENUM value type
type DocumentTypeENUMType string

const (
	// DocumentTypeDiploma academic diploma or degree
	DocumentTypeDiploma DocumentTypeENUMType = "Diploma"
	// DocumentTypeDriverLicense driver license
	DocumentTypeDriverLicense DocumentTypeENUMType = "Driver License"
	// DocumentTypeIRSTaxForm IRS tax form
	DocumentTypeIRSTaxForm DocumentTypeENUMType = "IRS Tax Form"
	// DocumentTypeHealthRecord health or medical record
	DocumentTypeHealthRecord DocumentTypeENUMType = "Health Record"
	// DocumentTypeLegalContract legal contract
	DocumentTypeLegalContract DocumentTypeENUMType = "Legal Contract"
	// DocumentTypeOther anything else
	DocumentTypeOther DocumentTypeENUMType = "Other"
)

// AllDocumentTypes the closed set of document types, in display order
var AllDocumentTypes = []DocumentTypeENUMType{
	DocumentTypeDiploma,
	DocumentTypeDriverLicense,
	DocumentTypeIRSTaxForm,
	DocumentTypeHealthRecord,
	DocumentTypeLegalContract,
	DocumentTypeOther,
}

// IsKnown whether the value is one of the closed set of document types
func (t DocumentTypeENUMType) IsKnown() bool {
	switch t {
	case DocumentTypeDiploma:
		fallthrough
	case DocumentTypeDriverLicense:
		fallthrough
	case DocumentTypeIRSTaxForm:
		fallthrough
	case DocumentTypeHealthRecord:
		fallthrough
	case DocumentTypeLegalContract:
		fallthrough
	case DocumentTypeOther:
		return true
	}
	return false
}

/*
ParseDocumentType convert a raw string into a document type

	@param raw string - the raw value
	@returns the document type
*/
func ParseDocumentType(raw string) (DocumentTypeENUMType, error) {
	parsed := DocumentTypeENUMType(raw)
	if !parsed.IsKnown() {
		return "", fmt.Errorf("'%s' is not a known document type", raw)
	}
	return parsed, nil
}

// DocumentIssueDateLayout layout of the document issue date
const DocumentIssueDateLayout = "2006-01-02"

// Document a document fingerprint record
//
// Field names follow the persisted collection layout.
type Document struct {
	// ID document ID
	ID string `json:"id" validate:"required"`
	// Name user supplied label
	Name string `json:"name" validate:"required"`
	// Type document type
	Type DocumentTypeENUMType `json:"type" validate:"required,document_type"`
	// Hash content fingerprint
	Hash string `json:"hash" validate:"required"`
	// DateIssued issue date of the document, as YYYY-MM-DD
	DateIssued string `json:"dateIssued" validate:"required,datetime=2006-01-02"`
	// DateUploaded when the record was created
	DateUploaded time.Time `json:"dateUploaded" validate:"required"`
	// IsPublic whether the record is visible without a passphrase
	IsPublic bool `json:"isPublic"`
	// Passphrase the access passphrase of a private record
	Passphrase string `json:"passphrase,omitempty" validate:"required_if=IsPublic false,excluded_if=IsPublic true"`
	// Owner identity of the creating wallet
	Owner string `json:"owner" validate:"required"`
}

// Redacted copy of the document without the passphrase
func (d Document) Redacted() Document {
	d.Passphrase = ""
	return d
}

// NewDocumentParams caller supplied fields of a new document
//
// Field order is the order in which rules are checked.
type NewDocumentParams struct {
	// Name user supplied label
	Name string `json:"name" validate:"required"`
	// Hash content fingerprint
	Hash string `json:"hash" validate:"required"`
	// DateIssued issue date of the document, as YYYY-MM-DD
	DateIssued string `json:"dateIssued" validate:"required,datetime=2006-01-02"`
	// Type document type
	Type DocumentTypeENUMType `json:"type" validate:"required,document_type"`
	// IsPublic whether the record is visible without a passphrase
	IsPublic bool `json:"isPublic"`
	// Passphrase required when the record is private
	Passphrase string `json:"passphrase,omitempty" validate:"required_if=IsPublic false"`
}
