// Package documents - document fingerprint store
package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/alwitt/goutils"
	"github.com/alwitt/notary/ledger"
	"github.com/alwitt/notary/metrics"
	"github.com/alwitt/notary/models"
	"github.com/alwitt/notary/query"
	"github.com/alwitt/notary/storage"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"
)

// VerificationResult outcome of a fingerprint verification
type VerificationResult struct {
	// Exists whether a document carries the fingerprint
	Exists bool `json:"exists"`
	// Document the first such document
	Document *models.Document `json:"document,omitempty"`
}

// Store document fingerprint store over a single serialized collection
type Store interface {
	/*
		Create validate and record a new document

			@param ctx context.Context - execution context
			@param owner string - identity of the creating wallet
			@param params models.NewDocumentParams - caller supplied fields
			@returns the new document ID
	*/
	Create(ctx context.Context, owner string, params models.NewDocumentParams) (string, error)

	/*
		CreateAndSubmit record a new document, then start its ledger write

		The ledger write never changes the result of the create. With a ledger configured the
		owner must be the ledger signing wallet.

			@param ctx context.Context - execution context
			@param owner string - identity of the creating wallet
			@param params models.NewDocumentParams - caller supplied fields
			@returns the new document ID, and the ledger write handle (nil without a ledger)
	*/
	CreateAndSubmit(
		ctx context.Context, owner string, params models.NewDocumentParams,
	) (string, *ledger.Submission, error)

	/*
		ListPublic list the public documents in storage order

			@param ctx context.Context - execution context
			@returns the public documents
	*/
	ListPublic(ctx context.Context) []models.Document

	/*
		FindByHash find the first document carrying exactly this fingerprint

			@param ctx context.Context - execution context
			@param hash string - the fingerprint
			@returns the document, or ErrNotFound
	*/
	FindByHash(ctx context.Context, hash string) (models.Document, error)

	/*
		FindByID find a document by ID; a private document needs its passphrase

			@param ctx context.Context - execution context
			@param id string - document ID
			@param passphrase string - passphrase of a private document
			@returns the document, or ErrNotFound
	*/
	FindByID(ctx context.Context, id string, passphrase string) (models.Document, error)

	/*
		Verify whether any document carries a fingerprint

			@param ctx context.Context - execution context
			@param hash string - the fingerprint
			@returns verification result
	*/
	Verify(ctx context.Context, hash string) VerificationResult

	/*
		Stats summarize the collection

			@param ctx context.Context - execution context
			@param now time.Time - reference time for recent uploads
			@returns the summary
	*/
	Stats(ctx context.Context, now time.Time) query.Stats

	/*
		SeedIfEmpty write a set of documents when the collection entry was never written

			@param ctx context.Context - execution context
			@param docs []models.Document - the documents
			@returns whether the documents were written
	*/
	SeedIfEmpty(ctx context.Context, docs []models.Document) (bool, error)
}

// StoreParams document store parameters
type StoreParams struct {
	// Storage collection storage
	Storage storage.CollectionStorage `validate:"-"`
	// Ledger optional ledger writer
	Ledger ledger.Writer `validate:"-"`
	// Metrics optional metrics collector
	Metrics *metrics.Collector `validate:"-"`
	// HashPassphrases store bcrypt hashes of passphrases instead of the plain text
	HashPassphrases bool
	// BcryptCost bcrypt work factor; zero selects the bcrypt default
	BcryptCost int `validate:"omitempty,min=4,max=31"`
	// Now clock; nil selects time.Now
	Now func() time.Time `validate:"-"`
}

// documentStore implements Store
type documentStore struct {
	goutils.Component
	storage     storage.CollectionStorage
	ledger      ledger.Writer
	metrics     *metrics.Collector
	passphrases passphraseSealer
	now         func() time.Time
	validator   *validator.Validate

	// lock serializes the read-modify-write of the collection
	lock sync.RWMutex
}

/*
NewStore define new document store

	@param params StoreParams - store parameters
	@returns store instance
*/
func NewStore(params StoreParams) (Store, error) {
	validate := validator.New()
	if err := validate.Struct(&params); err != nil {
		return nil, fmt.Errorf("invalid document store parameters [%w]", err)
	}
	if params.Storage == nil {
		return nil, fmt.Errorf("collection storage is not set")
	}

	if err := models.RegisterWithValidator(validate); err != nil {
		return nil, fmt.Errorf("failed to install custom validation macros [%w]", err)
	}
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})

	cost := params.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}

	return &documentStore{
		Component: goutils.Component{
			LogTags: log.Fields{"module": "documents", "component": "document-store"},
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		storage:     params.Storage,
		ledger:      params.Ledger,
		metrics:     params.Metrics,
		passphrases: passphraseSealer{hash: params.HashPassphrases, cost: cost},
		now:         now,
		validator:   validate,
	}, nil
}

// ======================================================================================
// Collection access

// collection the decoded collection
//
// elements holds every stored element in storage order, including those that could not be
// decoded, so that a rewrite never drops them.
type collection struct {
	elements []json.RawMessage
	docs     []models.Document
	// ids every ID in use, including those of undecodable elements where readable
	ids map[string]bool
	// skipped number of elements that could not be decoded
	skipped int
}

// decodeCollection parse the serialized collection; absent or blank content is empty
//
// Each element is decoded on its own. Only content that is not a JSON array fails.
func decodeCollection(raw []byte) (collection, error) {
	result := collection{
		elements: []json.RawMessage{}, docs: []models.Document{}, ids: map[string]bool{},
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return result, nil
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return result, err
	}
	for _, element := range elements {
		result.elements = append(result.elements, element)
		var doc models.Document
		if err := json.Unmarshal(element, &doc); err != nil {
			result.skipped++
			var loose struct {
				ID interface{} `json:"id"`
			}
			if json.Unmarshal(element, &loose) == nil {
				if id, ok := loose.ID.(string); ok {
					result.ids[id] = true
				}
			}
			continue
		}
		result.docs = append(result.docs, doc)
		result.ids[doc.ID] = true
	}
	return result, nil
}

// reportSkipped log and count the elements that could not be decoded
func (s *documentStore) reportSkipped(ctx context.Context, decoded collection) {
	if decoded.skipped == 0 {
		return
	}
	s.metrics.StorageFailure(metrics.StorageOpParse)
	log.WithFields(s.GetLogTagsForContext(ctx)).
		WithField("skipped", decoded.skipped).
		Warn("Collection holds records that cannot be decoded, skipping them")
}

// readCollection read the collection; any failure degrades to an empty collection
func (s *documentStore) readCollection(ctx context.Context) []models.Document {
	logTags := s.GetLogTagsForContext(ctx)

	raw, err := s.storage.Load(ctx)
	if err != nil {
		s.metrics.StorageFailure(metrics.StorageOpLoad)
		log.WithError(err).WithFields(logTags).Error("Collection read failed, treating as empty")
		return []models.Document{}
	}
	decoded, err := decodeCollection(raw)
	if err != nil {
		s.metrics.StorageFailure(metrics.StorageOpParse)
		log.WithError(err).WithFields(logTags).Error("Collection parse failed, treating as empty")
		return []models.Document{}
	}
	s.reportSkipped(ctx, decoded)
	return decoded.docs
}

// readCollectionForWrite read the collection ahead of a write
//
// A transport failure aborts the write. Content that is not a JSON array is treated as
// empty; undecodable elements of an array are kept.
func (s *documentStore) readCollectionForWrite(ctx context.Context) (collection, error) {
	raw, err := s.storage.Load(ctx)
	if err != nil {
		s.metrics.StorageFailure(metrics.StorageOpLoad)
		return collection{}, fmt.Errorf("%w: collection read failed [%w]", ErrStorageUnavailable, err)
	}
	decoded, err := decodeCollection(raw)
	if err != nil {
		s.metrics.StorageFailure(metrics.StorageOpParse)
		log.WithError(err).
			WithFields(s.GetLogTagsForContext(ctx)).
			Warn("Collection parse failed, overwriting with a new collection")
		return decoded, nil
	}
	s.reportSkipped(ctx, decoded)
	return decoded, nil
}

// writeCollection replace the collection in one write
func (s *documentStore) writeCollection(ctx context.Context, elements []json.RawMessage) error {
	raw, err := json.Marshal(elements)
	if err != nil {
		return fmt.Errorf("failed to serialize collection [%w]", err)
	}
	if err := s.storage.Save(ctx, raw); err != nil {
		s.metrics.StorageFailure(metrics.StorageOpSave)
		return fmt.Errorf("%w: collection write failed [%w]", ErrStorageUnavailable, err)
	}
	return nil
}

// encodeDocuments serialize each document as one collection element
func encodeDocuments(docs []models.Document) ([]json.RawMessage, error) {
	elements := make([]json.RawMessage, 0, len(docs))
	for idx, doc := range docs {
		element, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize document %d [%w]", idx, err)
		}
		elements = append(elements, element)
	}
	return elements, nil
}

// ======================================================================================
// Create

// validationFailure convert the first validator failure into a ValidationError
func validationFailure(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Field: "document", Reason: err.Error()}
	}

	first := fieldErrs[0]
	reason := fmt.Sprintf("fails rule '%s'", first.Tag())
	switch first.Tag() {
	case "required":
		reason = "is required"
	case "required_if":
		reason = "is required for a private document"
	case "excluded_if":
		reason = "must be empty for a public document"
	case "datetime":
		reason = "must be a YYYY-MM-DD date"
	case "document_type":
		reason = fmt.Sprintf("must be one of %v", models.AllDocumentTypes)
	}
	return &ValidationError{Field: first.Field(), Reason: reason}
}

// newDocumentID ID unique within the collection: doc_<ULID>_<owner prefix>
func newDocumentID(owner string, taken map[string]bool) string {
	prefix := []rune(strings.TrimSpace(owner))
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	for {
		candidate := fmt.Sprintf("doc_%s_%s", ulid.Make().String(), string(prefix))
		if !taken[candidate] {
			return candidate
		}
	}
}

// blankToEmpty the value, or "" when it holds only whitespace
func blankToEmpty(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return value
}

// create record a new document and return it with the stored passphrase
//
// Caller supplied values are stored as given; whitespace-only values count as missing.
func (s *documentStore) create(
	ctx context.Context, owner string, params models.NewDocumentParams,
) (models.Document, error) {
	logTags := s.GetLogTagsForContext(ctx)

	if strings.TrimSpace(owner) == "" {
		return models.Document{}, &ValidationError{Field: "owner", Reason: "is required"}
	}

	if params.IsPublic {
		params.Passphrase = ""
	}
	checked := params
	checked.Name = blankToEmpty(params.Name)
	checked.Hash = blankToEmpty(params.Hash)
	checked.DateIssued = blankToEmpty(params.DateIssued)
	checked.Passphrase = blankToEmpty(params.Passphrase)
	if err := s.validator.Struct(&checked); err != nil {
		return models.Document{}, validationFailure(err)
	}
	if !params.IsPublic && s.passphrases.hash && len(params.Passphrase) > maxHashedPassphraseLen {
		return models.Document{}, &ValidationError{
			Field:  "passphrase",
			Reason: fmt.Sprintf("must be at most %d bytes", maxHashedPassphraseLen),
		}
	}

	storedPassphrase := ""
	if !params.IsPublic {
		var err error
		if storedPassphrase, err = s.passphrases.seal(params.Passphrase); err != nil {
			return models.Document{}, err
		}
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	current, err := s.readCollectionForWrite(ctx)
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to create document")
		return models.Document{}, err
	}

	doc := models.Document{
		ID:           newDocumentID(owner, current.ids),
		Name:         params.Name,
		Type:         params.Type,
		Hash:         params.Hash,
		DateIssued:   params.DateIssued,
		DateUploaded: s.now().UTC().Truncate(time.Millisecond),
		IsPublic:     params.IsPublic,
		Passphrase:   storedPassphrase,
		Owner:        owner,
	}
	if err := s.validator.Struct(&doc); err != nil {
		return models.Document{}, validationFailure(err)
	}

	element, err := json.Marshal(doc)
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to serialize document [%w]", err)
	}
	if err := s.writeCollection(ctx, append(current.elements, element)); err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to create document")
		return models.Document{}, err
	}

	s.metrics.DocumentCreated(doc.IsPublic)
	log.WithFields(logTags).
		WithField("document", doc.ID).
		WithField("type", doc.Type).
		WithField("public", doc.IsPublic).
		Info("Created document")

	return doc, nil
}

/*
Create validate and record a new document

	@param ctx context.Context - execution context
	@param owner string - identity of the creating wallet
	@param params models.NewDocumentParams - caller supplied fields
	@returns the new document ID
*/
func (s *documentStore) Create(
	ctx context.Context, owner string, params models.NewDocumentParams,
) (string, error) {
	doc, err := s.create(ctx, owner, params)
	if err != nil {
		return "", err
	}
	return doc.ID, nil
}

/*
CreateAndSubmit record a new document, then start its ledger write

	@param ctx context.Context - execution context
	@param owner string - identity of the creating wallet
	@param params models.NewDocumentParams - caller supplied fields
	@returns the new document ID, and the ledger write handle (nil without a ledger)
*/
func (s *documentStore) CreateAndSubmit(
	ctx context.Context, owner string, params models.NewDocumentParams,
) (string, *ledger.Submission, error) {
	if s.ledger == nil {
		doc, err := s.create(ctx, owner, params)
		if err != nil {
			return "", nil, err
		}
		return doc.ID, nil, nil
	}

	if signer := s.ledger.Signer().String(); owner != signer {
		return "", nil, &ValidationError{
			Field: "owner", Reason: fmt.Sprintf("must be the ledger signing wallet %s", signer),
		}
	}
	doc, err := s.create(ctx, owner, params)
	if err != nil {
		return "", nil, err
	}
	return doc.ID, s.ledger.Submit(ctx, doc), nil
}

// ======================================================================================
// Queries

/*
ListPublic list the public documents in storage order

	@param ctx context.Context - execution context
	@returns the public documents
*/
func (s *documentStore) ListPublic(ctx context.Context) []models.Document {
	s.lock.RLock()
	defer s.lock.RUnlock()

	result := []models.Document{}
	for _, doc := range s.readCollection(ctx) {
		if doc.IsPublic {
			result = append(result, doc.Redacted())
		}
	}
	return result
}

/*
FindByHash find the first document carrying a fingerprint

	@param ctx context.Context - execution context
	@param hash string - the fingerprint
	@returns the document, or ErrNotFound
*/
func (s *documentStore) FindByHash(ctx context.Context, hash string) (models.Document, error) {
	if hash == "" {
		return models.Document{}, ErrNotFound
	}

	s.lock.RLock()
	defer s.lock.RUnlock()

	for _, doc := range s.readCollection(ctx) {
		if doc.Hash == hash {
			return doc.Redacted(), nil
		}
	}
	return models.Document{}, ErrNotFound
}

/*
FindByID find a document by ID; a private document needs its passphrase

	@param ctx context.Context - execution context
	@param id string - document ID
	@param passphrase string - passphrase of a private document
	@returns the document, or ErrNotFound
*/
func (s *documentStore) FindByID(
	ctx context.Context, id string, passphrase string,
) (models.Document, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	for _, doc := range s.readCollection(ctx) {
		if doc.ID != id {
			continue
		}
		if !doc.IsPublic && !passphraseMatches(doc.Passphrase, passphrase) {
			log.WithFields(s.GetLogTagsForContext(ctx)).
				WithField("document", id).
				Debug("Passphrase mismatch")
			return models.Document{}, ErrNotFound
		}
		return doc.Redacted(), nil
	}
	return models.Document{}, ErrNotFound
}

/*
Verify whether any document carries a fingerprint

	@param ctx context.Context - execution context
	@param hash string - the fingerprint
	@returns verification result
*/
func (s *documentStore) Verify(ctx context.Context, hash string) VerificationResult {
	doc, err := s.FindByHash(ctx, hash)
	if err != nil {
		return VerificationResult{Exists: false}
	}
	return VerificationResult{Exists: true, Document: &doc}
}

/*
Stats summarize the collection

	@param ctx context.Context - execution context
	@param now time.Time - reference time for recent uploads
	@returns the summary
*/
func (s *documentStore) Stats(ctx context.Context, now time.Time) query.Stats {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return query.Summarize(s.readCollection(ctx), now)
}

/*
SeedIfEmpty write a set of documents when the collection entry was never written

	@param ctx context.Context - execution context
	@param docs []models.Document - the documents
	@returns whether the documents were written
*/
func (s *documentStore) SeedIfEmpty(ctx context.Context, docs []models.Document) (bool, error) {
	for idx, doc := range docs {
		if err := s.validator.Struct(&doc); err != nil {
			return false, fmt.Errorf("seed document %d is invalid [%w]", idx, validationFailure(err))
		}
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	raw, err := s.storage.Load(ctx)
	if err != nil {
		s.metrics.StorageFailure(metrics.StorageOpLoad)
		return false, fmt.Errorf("%w: collection read failed [%w]", ErrStorageUnavailable, err)
	}
	if raw != nil {
		return false, nil
	}

	elements, err := encodeDocuments(docs)
	if err != nil {
		return false, err
	}
	if err := s.writeCollection(ctx, elements); err != nil {
		return false, err
	}

	log.WithFields(s.GetLogTagsForContext(ctx)).
		WithField("count", len(docs)).
		Info("Seeded document collection")
	return true, nil
}
