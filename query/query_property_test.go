//go:build property
// +build property

package query_test

import (
	"strings"
	"testing"
	"time"

	"github.com/alwitt/notary/models"
	"github.com/alwitt/notary/query"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// buildDocs one document per name; IDs record the input position
func buildDocs(names []string, offsets []int) []models.Document {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	docs := make([]models.Document, 0, len(names))
	for i, name := range names {
		offset := 0
		if i < len(offsets) {
			offset = offsets[i]
		}
		docs = append(docs, models.Document{
			ID:           string(rune('A' + i%26)) + strings.Repeat("_", i/26),
			Name:         name,
			Type:         models.AllDocumentTypes[len(name)%len(models.AllDocumentTypes)],
			DateUploaded: base.Add(time.Duration(offset) * time.Minute),
		})
	}
	return docs
}

// position index of each document ID in the input
func position(docs []models.Document) map[string]int {
	result := map[string]int{}
	for i, doc := range docs {
		result[doc.ID] = i
	}
	return result
}

func TestSortProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	nameGen := gen.SliceOf(gen.OneConstOf("alpha", "beta", "gamma", "alpha", "delta"))
	offsetGen := gen.SliceOf(gen.IntRange(0, 3))

	properties.Property("name sort is ordered and stable", prop.ForAll(
		func(names []string, offsets []int) bool {
			docs := buildDocs(names, offsets)
			order := position(docs)
			sorted := query.Sort(docs, query.SortByName)
			if len(sorted) != len(docs) {
				return false
			}
			for i := 1; i < len(sorted); i++ {
				a, b := sorted[i-1], sorted[i]
				if a.Name > b.Name {
					return false
				}
				if a.Name == b.Name && order[a.ID] > order[b.ID] {
					return false
				}
			}
			return true
		},
		nameGen, offsetGen,
	))

	properties.Property("date sort is newest first and stable", prop.ForAll(
		func(names []string, offsets []int) bool {
			docs := buildDocs(names, offsets)
			order := position(docs)
			sorted := query.Sort(docs, query.SortByDate)
			for i := 1; i < len(sorted); i++ {
				a, b := sorted[i-1], sorted[i]
				if a.DateUploaded.Before(b.DateUploaded) {
					return false
				}
				if a.DateUploaded.Equal(b.DateUploaded) && order[a.ID] > order[b.ID] {
					return false
				}
			}
			return true
		},
		nameGen, offsetGen,
	))

	properties.Property("filter keeps exactly the matching type", prop.ForAll(
		func(names []string, typeIdx int) bool {
			docs := buildDocs(names, nil)
			target := models.AllDocumentTypes[typeIdx]
			filtered := query.FilterByType(docs, query.ForType(target))
			expected := 0
			for _, doc := range docs {
				if doc.Type == target {
					expected++
				}
			}
			if len(filtered) != expected {
				return false
			}
			for _, doc := range filtered {
				if doc.Type != target {
					return false
				}
			}
			return true
		},
		nameGen, gen.IntRange(0, len(models.AllDocumentTypes)-1),
	))

	properties.TestingRun(t)
}
