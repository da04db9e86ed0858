// Package storage persists whole-object snapshots. Every backend replaces a snapshot
// atomically: a concurrent reader sees either the previous or the new payload, never a mix.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Load when no snapshot exists under the key.
var ErrNotFound = errors.New("snapshot not found")

// Backend provides atomic whole-object read/replace keyed by name.
type Backend interface {
	// Load returns the latest durable payload for key.
	Load(ctx context.Context, key string) ([]byte, error)
	// Replace durably swaps the payload for key. On error the previous payload is retained.
	Replace(ctx context.Context, key string, data []byte) error
}

func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return fmt.Errorf("invalid snapshot key %q", key)
	}
	return nil
}
