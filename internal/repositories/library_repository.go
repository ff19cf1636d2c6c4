package repositories

import (
	"errors"

	"gorm.io/gorm"

	"dthink_backend/internal/models"
)

var ErrItemNotFound = errors.New("library item not found")

type LibraryRepository interface {
	Create(item *models.LibraryItem) error
	FindByID(id string) (*models.LibraryItem, error)
	Update(item *models.LibraryItem) error
	Delete(id string) error

	// ListVisible returns global items plus the user's own, optionally
	// filtered by phase.
	ListVisible(userID string, phase models.JourneyPhase) ([]models.LibraryItem, error)
}

type libraryRepository struct {
	db *gorm.DB
}

func NewLibraryRepository(db *gorm.DB) LibraryRepository {
	return &libraryRepository{db: db}
}

func (r *libraryRepository) Create(item *models.LibraryItem) error {
	return r.db.Create(item).Error
}

func (r *libraryRepository) FindByID(id string) (*models.LibraryItem, error) {
	var item models.LibraryItem
	err := r.db.First(&item, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *libraryRepository) Update(item *models.LibraryItem) error {
	return r.db.Save(item).Error
}

func (r *libraryRepository) Delete(id string) error {
	return r.db.Delete(&models.LibraryItem{}, "id = ?", id).Error
}

func (r *libraryRepository) ListVisible(userID string, phase models.JourneyPhase) ([]models.LibraryItem, error) {
	q := r.db.Where("owner_id IS NULL OR owner_id = ?", userID)
	if phase != "" {
		q = q.Where("phase = ?", phase)
	}
	var items []models.LibraryItem
	err := q.Order("created_at DESC").Find(&items).Error
	return items, err
}
