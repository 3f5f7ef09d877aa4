package store

import (
	"sort"
	"sync"

	"roomscan/pkg/domain"
)

// MemoryStore keeps rooms and saved items in-process. It is the
// default backend and the one tests use.
type MemoryStore struct {
	mu     sync.RWMutex
	rooms  map[string]domain.Room
	items  map[string]domain.SavedItem
	orders []string // room insertion order
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms: make(map[string]domain.Room),
		items: make(map[string]domain.SavedItem),
	}
}

// SaveRoom stores or replaces a room and tracks insertion order.
func (m *MemoryStore) SaveRoom(r domain.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.rooms[r.ID]; !exists {
		m.orders = append(m.orders, r.ID)
	}
	m.rooms[r.ID] = r
	return nil
}

// GetRoom retrieves a room by ID.
func (m *MemoryStore) GetRoom(id string) (domain.Room, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok, nil
}

// ListRooms returns rooms in insertion order.
func (m *MemoryStore) ListRooms() ([]domain.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Room, 0, len(m.orders))
	for _, id := range m.orders {
		if r, ok := m.rooms[id]; ok {
			res = append(res, r)
		}
	}
	return res, nil
}

// DeleteRoom removes a room and its saved items.
func (m *MemoryStore) DeleteRoom(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, id)
	for itemID, item := range m.items {
		if item.RoomID == id {
			delete(m.items, itemID)
		}
	}
	filtered := m.orders[:0]
	for _, item := range m.orders {
		if item != id {
			filtered = append(filtered, item)
		}
	}
	m.orders = filtered
	return nil
}

// RoomCount returns the number of rooms.
func (m *MemoryStore) RoomCount() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms), nil
}

// SaveItem stores or replaces a saved item.
func (m *MemoryStore) SaveItem(item domain.SavedItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = item
	return nil
}

// GetItem retrieves a saved item by ID.
func (m *MemoryStore) GetItem(id string) (domain.SavedItem, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[id]
	return item, ok, nil
}

// ListItemsByRoom returns items for a room ordered by save time.
func (m *MemoryStore) ListItemsByRoom(roomID string) ([]domain.SavedItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.SavedItem, 0)
	for _, item := range m.items {
		if item.RoomID == roomID {
			res = append(res, item)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].SavedAt.Before(res[j].SavedAt) })
	return res, nil
}

// CountItemsByRoom returns the number of items in a room.
func (m *MemoryStore) CountItemsByRoom(roomID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, item := range m.items {
		if item.RoomID == roomID {
			count++
		}
	}
	return count, nil
}

// DeleteItem removes a saved item.
func (m *MemoryStore) DeleteItem(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}
