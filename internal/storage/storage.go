package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyKey indicates a storage call without a key.
var ErrEmptyKey = errors.New("storage key must not be empty")

// UpdateFunc transforms the current value of a key. exists is false when the
// key has never been written. Returning an error aborts the update.
type UpdateFunc func(current string, exists bool) (string, error)

// Store is a key/value persistence backend.
type Store interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	// UpdateData applies fn atomically with respect to other UpdateData calls
	// on the same key.
	UpdateData(ctx context.Context, key string, fn UpdateFunc) error
}

// GetJSON reads key and decodes it into a T.
func GetJSON[T any](ctx context.Context, s Store, key string) (T, bool, error) {
	var zero T
	raw, ok, err := s.GetItem(ctx, key)
	if err != nil || !ok {
		return zero, ok, err
	}

	var obj T
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return zero, true, fmt.Errorf("decode %s: %w", key, err)
	}
	return obj, true, nil
}

// UpdateJSON is UpdateData over JSON-encoded values. An unparsable current
// value aborts the update.
func UpdateJSON[T any](ctx context.Context, s Store, key string, fn func(current T, exists bool) (T, error)) error {
	return s.UpdateData(ctx, key, func(raw string, exists bool) (string, error) {
		var current T
		if exists {
			if err := json.Unmarshal([]byte(raw), &current); err != nil {
				return "", fmt.Errorf("decode %s: %w", key, err)
			}
		}

		next, err := fn(current, exists)
		if err != nil {
			return "", err
		}

		data, err := json.Marshal(next)
		if err != nil {
			return "", fmt.Errorf("encode %s: %w", key, err)
		}
		return string(data), nil
	})
}

func checkKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return nil
}
