package repositories

import (
	"errors"

	"gorm.io/gorm"

	"dthink_backend/internal/models"
)

var ErrProjectNotFound = errors.New("project not found")

type ProjectRepository interface {
	WithTx(tx *gorm.DB) ProjectRepository

	Create(project *models.Project) error
	FindByID(id string) (*models.Project, error)
	ListByUser(userID string) ([]models.Project, error)
	Update(project *models.Project) error
	Delete(id string) error

	// CountByOwnerAndKind is the live usage count the quota evaluator
	// consults. Never cached: two concurrent creations may still both pass
	// the check (documented best-effort cap).
	CountByOwnerAndKind(ownerID string, kind models.ProjectKind) (int64, error)

	AddMember(member *models.ProjectMember) error
	FindMember(projectID, userID string) (*models.ProjectMember, error)

	CreateEntry(entry *models.PhaseEntry) error
	FindEntry(id string) (*models.PhaseEntry, error)
	ListEntries(projectID string, phase models.JourneyPhase) ([]models.PhaseEntry, error)
	UpdateEntry(entry *models.PhaseEntry) error
}

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) WithTx(tx *gorm.DB) ProjectRepository {
	return &projectRepository{db: tx}
}

func (r *projectRepository) Create(project *models.Project) error {
	return r.db.Create(project).Error
}

func (r *projectRepository) FindByID(id string) (*models.Project, error) {
	var project models.Project
	err := r.db.Preload("Members").First(&project, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) ListByUser(userID string) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.
		Joins("LEFT JOIN project_members pm ON pm.project_id = projects.id").
		Where("projects.owner_id = ? OR pm.user_id = ?", userID, userID).
		Group("projects.id").
		Order("projects.created_at DESC").
		Find(&projects).Error
	return projects, err
}

func (r *projectRepository) Update(project *models.Project) error {
	return r.db.Save(project).Error
}

func (r *projectRepository) Delete(id string) error {
	return r.db.Delete(&models.Project{}, "id = ?", id).Error
}

func (r *projectRepository) CountByOwnerAndKind(ownerID string, kind models.ProjectKind) (int64, error) {
	var count int64
	err := r.db.Model(&models.Project{}).
		Where("owner_id = ? AND kind = ?", ownerID, kind).
		Count(&count).Error
	return count, err
}

func (r *projectRepository) AddMember(member *models.ProjectMember) error {
	return r.db.Create(member).Error
}

func (r *projectRepository) FindMember(projectID, userID string) (*models.ProjectMember, error) {
	var member models.ProjectMember
	err := r.db.First(&member, "project_id = ? AND user_id = ?", projectID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *projectRepository) CreateEntry(entry *models.PhaseEntry) error {
	return r.db.Create(entry).Error
}

func (r *projectRepository) FindEntry(id string) (*models.PhaseEntry, error) {
	var entry models.PhaseEntry
	err := r.db.First(&entry, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *projectRepository) ListEntries(projectID string, phase models.JourneyPhase) ([]models.PhaseEntry, error) {
	q := r.db.Where("project_id = ?", projectID)
	if phase != "" {
		q = q.Where("phase = ?", phase)
	}
	var entries []models.PhaseEntry
	err := q.Order("created_at ASC").Find(&entries).Error
	return entries, err
}

func (r *projectRepository) UpdateEntry(entry *models.PhaseEntry) error {
	return r.db.Save(entry).Error
}
