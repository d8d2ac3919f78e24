// Package query - filter, sort and summary helpers over document lists
package query

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/alwitt/notary/models"
)

// TypeFilter document type filter; either TypeFilterAll or one document type
type TypeFilter string

// TypeFilterAll keep every document
const TypeFilterAll TypeFilter = "All"

// ForType filter selecting one document type
func ForType(docType models.DocumentTypeENUMType) TypeFilter {
	return TypeFilter(docType)
}

/*
ParseTypeFilter convert a raw string into a type filter

	@param raw string - "All" or a document type
	@returns the filter
*/
func ParseTypeFilter(raw string) (TypeFilter, error) {
	if raw == string(TypeFilterAll) {
		return TypeFilterAll, nil
	}
	docType, err := models.ParseDocumentType(raw)
	if err != nil {
		return "", fmt.Errorf("invalid type filter [%w]", err)
	}
	return ForType(docType), nil
}

/*
FilterByType select the documents matching a type filter

	@param docs []models.Document - the documents
	@param filter TypeFilter - the filter
	@returns new list of matching documents, in input order
*/
func FilterByType(docs []models.Document, filter TypeFilter) []models.Document {
	result := make([]models.Document, 0, len(docs))
	for _, doc := range docs {
		if filter == TypeFilterAll || models.DocumentTypeENUMType(filter) == doc.Type {
			result = append(result, doc)
		}
	}
	return result
}

// SortKey document ordering
type SortKey string

const (
	// SortByDate newest upload first
	SortByDate SortKey = "date"
	// SortByName name, lexicographic
	SortByName SortKey = "name"
	// SortByType document type, lexicographic
	SortByType SortKey = "type"
)

/*
ParseSortKey convert a raw string into a sort key; empty selects SortByDate

	@param raw string - the raw value
	@returns the sort key
*/
func ParseSortKey(raw string) (SortKey, error) {
	switch SortKey(raw) {
	case "":
		return SortByDate, nil
	case SortByDate, SortByName, SortByType:
		return SortKey(raw), nil
	}
	return "", fmt.Errorf("'%s' is not a known sort key", raw)
}

/*
Sort order documents by a sort key

Ties keep their input order. Unknown keys sort by date.

	@param docs []models.Document - the documents
	@param key SortKey - the ordering
	@returns new sorted list
*/
func Sort(docs []models.Document, key SortKey) []models.Document {
	result := slices.Clone(docs)
	if result == nil {
		result = []models.Document{}
	}

	var compare func(a, b models.Document) int
	switch key {
	case SortByName:
		compare = func(a, b models.Document) int { return strings.Compare(a.Name, b.Name) }
	case SortByType:
		compare = func(a, b models.Document) int {
			return strings.Compare(string(a.Type), string(b.Type))
		}
	default:
		compare = func(a, b models.Document) int { return b.DateUploaded.Compare(a.DateUploaded) }
	}

	slices.SortStableFunc(result, compare)
	return result
}

// RecentUploadWindow uploads within this window of now count as recent
const RecentUploadWindow = 7 * 24 * time.Hour

// Stats collection summary
type Stats struct {
	// Total number of documents
	Total int `json:"total"`
	// Public number of public documents
	Public int `json:"public"`
	// Private number of private documents
	Private int `json:"private"`
	// RecentUploads number of documents uploaded within RecentUploadWindow
	RecentUploads int `json:"recentUploads"`
}

/*
Summarize count documents by visibility and recency

	@param docs []models.Document - the documents
	@param now time.Time - reference time for recency
	@returns the summary
*/
func Summarize(docs []models.Document, now time.Time) Stats {
	stats := Stats{Total: len(docs)}
	cutoff := now.Add(-RecentUploadWindow)
	for _, doc := range docs {
		if doc.IsPublic {
			stats.Public++
		} else {
			stats.Private++
		}
		if doc.DateUploaded.After(cutoff) {
			stats.RecentUploads++
		}
	}
	return stats
}
