package documents

import (
	"time"

	"github.com/alwitt/notary/models"
)

// SampleDocuments demo documents for seeding an absent collection
func SampleDocuments() []models.Document {
	uploaded := func(raw string) time.Time {
		ts, _ := time.Parse(time.RFC3339, raw)
		return ts
	}
	return []models.Document{
		{
			ID:           "doc_1703123456_sample1",
			Name:         "Computer Science Degree",
			Type:         models.DocumentTypeDiploma,
			Hash:         "a1b2c3d4e5f6789012345678901234567890abcdef1234567890abcdef123456",
			DateIssued:   "2023-05-15",
			DateUploaded: uploaded("2024-01-15T10:30:00Z"),
			IsPublic:     true,
			Owner:        "sample_owner_1",
		},
		{
			ID:           "doc_1703123457_sample2",
			Name:         "California Driver License",
			Type:         models.DocumentTypeDriverLicense,
			Hash:         "b2c3d4e5f6789012345678901234567890abcdef1234567890abcdef1234567a",
			DateIssued:   "2023-08-22",
			DateUploaded: uploaded("2024-01-16T14:20:00Z"),
			IsPublic:     true,
			Owner:        "sample_owner_2",
		},
		{
			ID:           "doc_1703123458_sample3",
			Name:         "Medical Certificate",
			Type:         models.DocumentTypeHealthRecord,
			Hash:         "c3d4e5f6789012345678901234567890abcdef1234567890abcdef1234567ab2",
			DateIssued:   "2024-01-10",
			DateUploaded: uploaded("2024-01-17T09:15:00Z"),
			IsPublic:     true,
			Owner:        "sample_owner_3",
		},
	}
}
