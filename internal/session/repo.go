package session

import (
	"context"
	"encoding/json"
	"fmt"

	"roomscan/pkg/kvstore"
)

// StorageKey is where the session state lives in the key-value store.
const StorageKey = "auth-storage"

// Repository loads and saves session state through the key-value store.
type Repository struct {
	kv  kvstore.KV
	key string
}

// NewRepository builds a repository over kv. An empty key uses StorageKey.
func NewRepository(kv kvstore.KV, key string) *Repository {
	if key == "" {
		key = StorageKey
	}
	return &Repository{kv: kv, key: key}
}

// Load returns persisted state. Missing or corrupt state reports
// ok=false so the caller starts anonymous/free/zero.
func (r *Repository) Load(ctx context.Context) (State, bool, error) {
	data, ok, err := r.kv.Get(ctx, r.key)
	if err != nil {
		return State{}, false, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return State{}, false, nil
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, false, nil
	}
	return st, true, nil
}

// Save writes the state.
func (r *Repository) Save(ctx context.Context, st State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.kv.Set(ctx, r.key, data); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Reset removes persisted session state (explicit data-reset).
func (r *Repository) Reset(ctx context.Context) error {
	return r.kv.Delete(ctx, r.key)
}
