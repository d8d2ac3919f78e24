package query_test

import (
	"testing"
	"time"

	"github.com/alwitt/notary/models"
	"github.com/alwitt/notary/query"
	"github.com/stretchr/testify/assert"
)

func testDocs(base time.Time) []models.Document {
	return []models.Document{
		{ID: "a", Name: "Tax 2023", Type: models.DocumentTypeIRSTaxForm, DateUploaded: base, IsPublic: true},
		{ID: "b", Name: "Degree", Type: models.DocumentTypeDiploma, DateUploaded: base.Add(2 * time.Hour)},
		{ID: "c", Name: "Degree", Type: models.DocumentTypeOther, DateUploaded: base.Add(time.Hour), IsPublic: true},
		{ID: "d", Name: "Checkup", Type: models.DocumentTypeDiploma, DateUploaded: base.Add(2 * time.Hour), IsPublic: true},
	}
}

func ids(docs []models.Document) []string {
	result := []string{}
	for _, doc := range docs {
		result = append(result, doc.ID)
	}
	return result
}

func TestParseHelpers(t *testing.T) {
	assert := assert.New(t)

	filter, err := query.ParseTypeFilter("All")
	assert.Nil(err)
	assert.Equal(query.TypeFilterAll, filter)

	filter, err = query.ParseTypeFilter("Driver License")
	assert.Nil(err)
	assert.Equal(query.ForType(models.DocumentTypeDriverLicense), filter)

	_, err = query.ParseTypeFilter("Passport")
	assert.NotNil(err)

	key, err := query.ParseSortKey("")
	assert.Nil(err)
	assert.Equal(query.SortByDate, key)
	key, err = query.ParseSortKey("name")
	assert.Nil(err)
	assert.Equal(query.SortByName, key)
	_, err = query.ParseSortKey("size")
	assert.NotNil(err)
}

func TestFilterByType(t *testing.T) {
	assert := assert.New(t)

	docs := testDocs(time.Now())

	assert.Equal([]string{"a", "b", "c", "d"}, ids(query.FilterByType(docs, query.TypeFilterAll)))
	assert.Equal(
		[]string{"b", "d"},
		ids(query.FilterByType(docs, query.ForType(models.DocumentTypeDiploma))),
	)
	assert.Empty(query.FilterByType(docs, query.ForType(models.DocumentTypeHealthRecord)))
	assert.Empty(query.FilterByType(nil, query.TypeFilterAll))
}

func TestSort(t *testing.T) {
	assert := assert.New(t)

	docs := testDocs(time.Now())

	// b and d tie on upload time
	assert.Equal([]string{"b", "d", "c", "a"}, ids(query.Sort(docs, query.SortByDate)))
	assert.Equal([]string{"b", "d", "c", "a"}, ids(query.Sort(docs, "")))
	// b and c tie on name
	assert.Equal([]string{"d", "b", "c", "a"}, ids(query.Sort(docs, query.SortByName)))
	// b and d tie on type
	assert.Equal([]string{"b", "d", "a", "c"}, ids(query.Sort(docs, query.SortByType)))

	// Input untouched
	assert.Equal([]string{"a", "b", "c", "d"}, ids(docs))

	assert.NotNil(query.Sort(nil, query.SortByName))
	assert.Empty(query.Sort(nil, query.SortByName))
}

func TestSummarize(t *testing.T) {
	assert := assert.New(t)

	now := time.Now()
	docs := testDocs(now.Add(-24 * time.Hour))
	docs = append(docs, models.Document{
		ID: "old", DateUploaded: now.Add(-8 * 24 * time.Hour), IsPublic: false,
	})

	assert.Equal(
		query.Stats{Total: 5, Public: 3, Private: 2, RecentUploads: 4},
		query.Summarize(docs, now),
	)
	assert.Equal(query.Stats{}, query.Summarize(nil, now))
}
