package store

import "roomscan/pkg/domain"

// Store defines persistence operations for rooms and saved items.
type Store interface {
	// rooms
	SaveRoom(domain.Room) error
	GetRoom(id string) (domain.Room, bool, error)
	ListRooms() ([]domain.Room, error)
	DeleteRoom(id string) error
	RoomCount() (int, error)

	// saved items
	SaveItem(domain.SavedItem) error
	GetItem(id string) (domain.SavedItem, bool, error)
	ListItemsByRoom(roomID string) ([]domain.SavedItem, error)
	CountItemsByRoom(roomID string) (int, error)
	DeleteItem(id string) error
}
