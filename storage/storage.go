// Package storage - persistence ports of the serialized document collection
package storage

import "context"

// DefaultEntryName name of the entry holding the serialized collection
const DefaultEntryName = "solana_documents"

// CollectionStorage holds exactly one serialized collection
type CollectionStorage interface {
	/*
		Load read the serialized collection

			@param ctx context.Context - execution context
			@returns the stored bytes, or nil without error when nothing was ever saved
	*/
	Load(ctx context.Context) ([]byte, error)

	/*
		Save replace the serialized collection in one write

			@param ctx context.Context - execution context
			@param value []byte - the serialized collection
	*/
	Save(ctx context.Context, value []byte) error
}
