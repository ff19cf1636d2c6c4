package repositories

import (
	"errors"

	"gorm.io/gorm"

	"dthink_backend/internal/models"
)

var ErrInviteNotFound = errors.New("invite not found")

type InviteRepository interface {
	WithTx(tx *gorm.DB) InviteRepository

	Create(invite *models.ProjectInvite) error
	FindByID(id string) (*models.ProjectInvite, error)
	ListByProject(projectID string) ([]models.ProjectInvite, error)
	Update(invite *models.ProjectInvite) error
}

type inviteRepository struct {
	db *gorm.DB
}

func NewInviteRepository(db *gorm.DB) InviteRepository {
	return &inviteRepository{db: db}
}

func (r *inviteRepository) WithTx(tx *gorm.DB) InviteRepository {
	return &inviteRepository{db: tx}
}

func (r *inviteRepository) Create(invite *models.ProjectInvite) error {
	return r.db.Create(invite).Error
}

func (r *inviteRepository) FindByID(id string) (*models.ProjectInvite, error) {
	var invite models.ProjectInvite
	err := r.db.First(&invite, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}
	return &invite, nil
}

func (r *inviteRepository) ListByProject(projectID string) ([]models.ProjectInvite, error) {
	var invites []models.ProjectInvite
	err := r.db.Where("project_id = ?", projectID).Order("created_at DESC").Find(&invites).Error
	return invites, err
}

func (r *inviteRepository) Update(invite *models.ProjectInvite) error {
	return r.db.Save(invite).Error
}
