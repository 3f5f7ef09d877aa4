// Package rooms maintains the user's rooms and saved items and feeds
// the committed room count to the entitlement evaluator.
package rooms

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"roomscan/pkg/domain"
	"roomscan/pkg/store"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrItemNotFound = errors.New("saved item not found")
	ErrEmptyName    = errors.New("room name required")
)

// Ledger owns room and saved-item CRUD. It keeps the room count in
// memory so the evaluator reads committed state synchronously, with no
// store round-trip on the hot path.
type Ledger struct {
	store     store.Store
	roomCount int
}

// NewLedger seeds the ledger from the store.
func NewLedger(st store.Store) (*Ledger, error) {
	count, err := st.RoomCount()
	if err != nil {
		return nil, fmt.Errorf("seed room count: %w", err)
	}
	return &Ledger{store: st, roomCount: count}, nil
}

// RoomCount reports the number of rooms. Used by the evaluator.
func (l *Ledger) RoomCount() int {
	return l.roomCount
}

// AddRoom creates a room with a fresh ID.
func (l *Ledger) AddRoom(name string) (domain.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Room{}, ErrEmptyName
	}
	room := domain.Room{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.store.SaveRoom(room); err != nil {
		return domain.Room{}, fmt.Errorf("save room: %w", err)
	}
	l.roomCount++
	return room, nil
}

// RenameRoom updates a room's name.
func (l *Ledger) RenameRoom(id, name string) (domain.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Room{}, ErrEmptyName
	}
	room, ok, err := l.store.GetRoom(id)
	if err != nil {
		return domain.Room{}, fmt.Errorf("get room: %w", err)
	}
	if !ok {
		return domain.Room{}, ErrRoomNotFound
	}
	room.Name = name
	if err := l.store.SaveRoom(room); err != nil {
		return domain.Room{}, fmt.Errorf("save room: %w", err)
	}
	return room, nil
}

// RemoveRoom deletes a room and its saved items.
func (l *Ledger) RemoveRoom(id string) error {
	_, ok, err := l.store.GetRoom(id)
	if err != nil {
		return fmt.Errorf("get room: %w", err)
	}
	if !ok {
		return ErrRoomNotFound
	}
	if err := l.store.DeleteRoom(id); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	if l.roomCount > 0 {
		l.roomCount--
	}
	return nil
}

// Rooms lists rooms with their item counts populated.
func (l *Ledger) Rooms() ([]domain.Room, error) {
	listed, err := l.store.ListRooms()
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	for i := range listed {
		count, err := l.store.CountItemsByRoom(listed[i].ID)
		if err != nil {
			return nil, fmt.Errorf("count items: %w", err)
		}
		listed[i].ItemCount = count
	}
	return listed, nil
}

// SaveItem links a detection and product match to a room.
func (l *Ledger) SaveItem(roomID string, furniture domain.DetectedFurniture, product domain.ProductMatch, imageURL string) (domain.SavedItem, error) {
	_, ok, err := l.store.GetRoom(roomID)
	if err != nil {
		return domain.SavedItem{}, fmt.Errorf("get room: %w", err)
	}
	if !ok {
		return domain.SavedItem{}, ErrRoomNotFound
	}
	item := domain.SavedItem{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		Furniture: furniture,
		Product:   product,
		ImageURL:  imageURL,
		SavedAt:   time.Now().UTC(),
	}
	if err := l.store.SaveItem(item); err != nil {
		return domain.SavedItem{}, fmt.Errorf("save item: %w", err)
	}
	return item, nil
}

// RemoveItem deletes a saved item.
func (l *Ledger) RemoveItem(id string) error {
	_, ok, err := l.store.GetItem(id)
	if err != nil {
		return fmt.Errorf("get item: %w", err)
	}
	if !ok {
		return ErrItemNotFound
	}
	if err := l.store.DeleteItem(id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// ItemsByRoom lists the items saved to a room.
func (l *Ledger) ItemsByRoom(roomID string) ([]domain.SavedItem, error) {
	return l.store.ListItemsByRoom(roomID)
}
