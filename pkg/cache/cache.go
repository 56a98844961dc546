package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service defines cache operations interface.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
	Expire(ctx context.Context, key string, expiration time.Duration) (bool, error)
	Close() error
}

// Key joins parts with ':' the way Redis keys are usually namespaced.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// GetTyped reads key into a new T.
func GetTyped[T any](ctx context.Context, c Service, key string) (T, error) {
	var v T
	err := c.Get(ctx, key, &v)
	return v, err
}

// encode turns a value into the bytes stored by a backend. Strings and byte slices, or pointers
// to them, are stored raw.
func encode(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case *string:
		return []byte(*v), nil
	case *[]byte:
		return *v, nil
	default:
		return json.Marshal(value)
	}
}

// decode is the inverse of encode.
func decode(data []byte, dest interface{}) error {
	switch d := dest.(type) {
	case *string:
		*d = string(data)
		return nil
	case *[]byte:
		*d = append((*d)[:0], data...)
		return nil
	default:
		return json.Unmarshal(data, dest)
	}
}
