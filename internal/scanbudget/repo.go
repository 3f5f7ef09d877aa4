package scanbudget

import (
	"context"
	"encoding/json"
	"fmt"

	"roomscan/pkg/kvstore"
)

// StorageKey is where the budget state lives in the key-value store.
const StorageKey = "user-storage"

// Repository loads and saves budget state through the key-value store.
// Saves are invoked by the host after each mutation; a failed save is
// logged and the in-memory state stays authoritative.
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
// ok=false so the caller falls back to defaults; corruption is a
// recovery case, not an error.
func (r *Repository) Load(ctx context.Context) (State, bool, error) {
	data, ok, err := r.kv.Get(ctx, r.key)
	if err != nil {
		return State{}, false, fmt.Errorf("load scan budget: %w", err)
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
		return fmt.Errorf("encode scan budget: %w", err)
	}
	if err := r.kv.Set(ctx, r.key, data); err != nil {
		return fmt.Errorf("save scan budget: %w", err)
	}
	return nil
}
