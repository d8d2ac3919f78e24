package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alwitt/notary/store"
)

// sealedStorage CollectionStorage over a sealed slot; every save is a new snapshot
type sealedStorage struct {
	slots    store.SealedSlotStore
	slotName string
}

/*
NewSealedStorage define new collection storage encrypted at rest

	@param slots store.SealedSlotStore - the sealed slot store
	@param slotName string - the slot holding the serialized collection
	@returns storage instance
*/
func NewSealedStorage(slots store.SealedSlotStore, slotName string) (CollectionStorage, error) {
	if slots == nil {
		return nil, fmt.Errorf("sealed slot store is not set")
	}
	if slotName == "" {
		return nil, fmt.Errorf("slot name is not set")
	}
	return &sealedStorage{slots: slots, slotName: slotName}, nil
}

/*
Load read the serialized collection

	@param ctx context.Context - execution context
	@returns the stored bytes, or nil without error when nothing was ever saved
*/
func (s *sealedStorage) Load(ctx context.Context) ([]byte, error) {
	value, err := s.slots.ReadLatest(ctx, s.slotName, nil)
	if err != nil {
		if errors.Is(err, store.ErrSlotEmpty) {
			return nil, nil
		}
		return nil, err
	}
	return value, nil
}

/*
Save replace the serialized collection in one write

	@param ctx context.Context - execution context
	@param value []byte - the serialized collection
*/
func (s *sealedStorage) Save(ctx context.Context, value []byte) error {
	_, _, err := s.slots.WriteSnapshot(ctx, s.slotName, value, time.Now(), nil)
	return err
}
