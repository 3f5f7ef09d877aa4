package store

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"roomscan/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&RoomModel{}, &SavedItemModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// SaveRoom stores or updates a room.
func (s *GormStore) SaveRoom(r domain.Room) error {
	model := RoomModel{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name"}),
	}).Create(&model).Error
}

// GetRoom returns a room by ID.
func (s *GormStore) GetRoom(id string) (domain.Room, bool, error) {
	var model RoomModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Room{}, false, nil
		}
		return domain.Room{}, false, err
	}
	return domain.Room{ID: model.ID, Name: model.Name, CreatedAt: model.CreatedAt}, true, nil
}

// ListRooms returns all rooms ordered by created_at.
func (s *GormStore) ListRooms() ([]domain.Room, error) {
	var models []RoomModel
	if err := s.db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Room, 0, len(models))
	for _, m := range models {
		res = append(res, domain.Room{ID: m.ID, Name: m.Name, CreatedAt: m.CreatedAt})
	}
	return res, nil
}

// DeleteRoom removes a room and its saved items.
func (s *GormStore) DeleteRoom(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&SavedItemModel{}, "room_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&RoomModel{}, "id = ?", id).Error
	})
}

// RoomCount returns the number of rooms.
func (s *GormStore) RoomCount() (int, error) {
	var count int64
	if err := s.db.Model(&RoomModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// SaveItem stores or updates a saved item.
func (s *GormStore) SaveItem(item domain.SavedItem) error {
	model, err := itemToModel(item)
	if err != nil {
		return err
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"room_id", "label", "confidence", "detection", "product", "image_url"}),
	}).Create(&model).Error
}

// GetItem returns a saved item by ID.
func (s *GormStore) GetItem(id string) (domain.SavedItem, bool, error) {
	var model SavedItemModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.SavedItem{}, false, nil
		}
		return domain.SavedItem{}, false, err
	}
	item, err := itemFromModel(model)
	if err != nil {
		return domain.SavedItem{}, false, err
	}
	return item, true, nil
}

// ListItemsByRoom returns items for a room ordered by save time.
func (s *GormStore) ListItemsByRoom(roomID string) ([]domain.SavedItem, error) {
	var models []SavedItemModel
	if err := s.db.Where("room_id = ?", roomID).Order("saved_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.SavedItem, 0, len(models))
	for _, m := range models {
		item, err := itemFromModel(m)
		if err != nil {
			return nil, err
		}
		res = append(res, item)
	}
	return res, nil
}

// CountItemsByRoom returns the number of items in a room.
func (s *GormStore) CountItemsByRoom(roomID string) (int, error) {
	var count int64
	if err := s.db.Model(&SavedItemModel{}).Where("room_id = ?", roomID).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// DeleteItem removes a saved item.
func (s *GormStore) DeleteItem(id string) error {
	return s.db.Delete(&SavedItemModel{}, "id = ?", id).Error
}

func itemToModel(item domain.SavedItem) (SavedItemModel, error) {
	detection, err := json.Marshal(item.Furniture)
	if err != nil {
		return SavedItemModel{}, fmt.Errorf("encode detection: %w", err)
	}
	product, err := json.Marshal(item.Product)
	if err != nil {
		return SavedItemModel{}, fmt.Errorf("encode product: %w", err)
	}
	return SavedItemModel{
		ID:         item.ID,
		RoomID:     item.RoomID,
		Label:      item.Furniture.Label,
		Confidence: item.Furniture.Confidence,
		Detection:  datatypes.JSON(detection),
		Product:    datatypes.JSON(product),
		ImageURL:   item.ImageURL,
		SavedAt:    item.SavedAt,
	}, nil
}

func itemFromModel(m SavedItemModel) (domain.SavedItem, error) {
	item := domain.SavedItem{
		ID:       m.ID,
		RoomID:   m.RoomID,
		ImageURL: m.ImageURL,
		SavedAt:  m.SavedAt,
	}
	if err := json.Unmarshal(m.Detection, &item.Furniture); err != nil {
		return domain.SavedItem{}, fmt.Errorf("decode detection: %w", err)
	}
	if err := json.Unmarshal(m.Product, &item.Product); err != nil {
		return domain.SavedItem{}, fmt.Errorf("decode product: %w", err)
	}
	return item, nil
}
