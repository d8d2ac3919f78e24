package storage

import (
	"context"
	"sync"
)

// MemoryStorage in-process CollectionStorage
type MemoryStorage struct {
	lock    sync.RWMutex
	present bool
	value   []byte
}

/*
NewMemoryStorage define new in-memory collection storage

	@param initial []byte - initial entry value; nil means the entry is absent
	@returns storage instance
*/
func NewMemoryStorage(initial []byte) *MemoryStorage {
	instance := &MemoryStorage{}
	if initial != nil {
		instance.present = true
		instance.value = append([]byte{}, initial...)
	}
	return instance
}

/*
Load read the serialized collection

	@param ctx context.Context - execution context
	@returns the stored bytes, or nil without error when nothing was ever saved
*/
func (s *MemoryStorage) Load(_ context.Context) ([]byte, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if !s.present {
		return nil, nil
	}
	return append([]byte{}, s.value...), nil
}

/*
Save replace the serialized collection in one write

	@param ctx context.Context - execution context
	@param value []byte - the serialized collection
*/
func (s *MemoryStorage) Save(_ context.Context, value []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.present = true
	s.value = append([]byte{}, value...)
	return nil
}
