package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/redis/go-redis/v9"
)

// redisStorage CollectionStorage holding the collection under one Redis key
type redisStorage struct {
	goutils.Component
	client redis.UniversalClient
	key    string
}

/*
NewRedisStorage define new Redis backed collection storage

	@param client redis.UniversalClient - Redis client
	@param key string - the key holding the serialized collection
	@returns storage instance
*/
func NewRedisStorage(client redis.UniversalClient, key string) (CollectionStorage, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is not set")
	}
	if key == "" {
		return nil, fmt.Errorf("redis key is not set")
	}
	return &redisStorage{
		Component: goutils.Component{
			LogTags: log.Fields{"module": "storage", "component": "redis-storage", "key": key},
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		client: client,
		key:    key,
	}, nil
}

/*
NewRedisClient define a Redis client

	@param addr string - server address
	@param password string - server password
	@param db int - database index
	@returns client instance
*/
func NewRedisClient(addr string, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

/*
Load read the serialized collection

	@param ctx context.Context - execution context
	@returns the stored bytes, or nil without error when nothing was ever saved
*/
func (s *redisStorage) Load(ctx context.Context) ([]byte, error) {
	value, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		log.WithError(err).WithFields(s.GetLogTagsForContext(ctx)).Error("Redis GET failed")
		return nil, fmt.Errorf("failed to read key '%s' [%w]", s.key, err)
	}
	return value, nil
}

/*
Save replace the serialized collection in one write

	@param ctx context.Context - execution context
	@param value []byte - the serialized collection
*/
func (s *redisStorage) Save(ctx context.Context, value []byte) error {
	if err := s.client.Set(ctx, s.key, value, 0).Err(); err != nil {
		log.WithError(err).WithFields(s.GetLogTagsForContext(ctx)).Error("Redis SET failed")
		return fmt.Errorf("failed to write key '%s' [%w]", s.key, err)
	}
	return nil
}
