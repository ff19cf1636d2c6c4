package services

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"dthink_backend/internal/appErrors"
	"dthink_backend/internal/models"
	"dthink_backend/internal/repositories"
	"dthink_backend/internal/services/dto"
	"dthink_backend/internal/session"
)

type ProjectService interface {
	Create(snap *session.Snapshot, req *dto.CreateProjectRequest) (*models.Project, error)
	List(snap *session.Snapshot) ([]models.Project, error)
	Get(snap *session.Snapshot, id string) (*models.Project, error)
	Update(snap *session.Snapshot, id string, req *dto.UpdateProjectRequest) (*models.Project, error)
	Delete(snap *session.Snapshot, id string) error
	AdvancePhase(snap *session.Snapshot, id string) (*models.Project, error)

	CreateEntry(snap *session.Snapshot, projectID string, req *dto.CreateEntryRequest) (*models.PhaseEntry, error)
	ListEntries(snap *session.Snapshot, projectID string, phase models.JourneyPhase) ([]models.PhaseEntry, error)
	TranslateEntry(ctx context.Context, snap *session.Snapshot, projectID, entryID, language string) (*models.PhaseEntry, error)
}

type projectService struct {
	db          *gorm.DB
	projectRepo repositories.ProjectRepository
	translator  TranslationService
}

func NewProjectService(db *gorm.DB, projectRepo repositories.ProjectRepository, translator TranslationService) ProjectService {
	return &projectService{
		db:          db,
		projectRepo: projectRepo,
		translator:  translator,
	}
}

func (s *projectService) Create(snap *session.Snapshot, req *dto.CreateProjectRequest) (*models.Project, error) {
	kind := req.Kind
	if kind == "" {
		kind = models.ProjectKindDesignThinking
	}

	project := &models.Project{
		OwnerID:      snap.UserID,
		Name:         req.Name,
		Description:  req.Description,
		Kind:         kind,
		CurrentPhase: models.PhaseEmpathize,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.projectRepo.WithTx(tx)
		if err := repo.Create(project); err != nil {
			return err
		}
		return repo.AddMember(&models.ProjectMember{
			ProjectID: project.ID,
			UserID:    snap.UserID,
			Role:      models.MemberRoleOwner,
		})
	})
	if err != nil {
		return nil, appErrors.StoreUnavailable(err)
	}
	return project, nil
}

func (s *projectService) List(snap *session.Snapshot) ([]models.Project, error) {
	projects, err := s.projectRepo.ListByUser(snap.UserID)
	if err != nil {
		return nil, appErrors.StoreUnavailable(err)
	}
	return projects, nil
}

func (s *projectService) Get(snap *session.Snapshot, id string) (*models.Project, error) {
	return s.authorize(snap, id, models.MemberRoleViewer)
}

func (s *projectService) Update(snap *session.Snapshot, id string, req *dto.UpdateProjectRequest) (*models.Project, error) {
	project, err := s.authorize(snap, id, models.MemberRoleEditor)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}

	if err := s.projectRepo.Update(project); err != nil {
		return nil, appErrors.StoreUnavailable(err)
	}
	return project, nil
}

func (s *projectService) Delete(snap *session.Snapshot, id string) error {
	project, err := s.authorize(snap, id, models.MemberRoleOwner)
	if err != nil {
		return err
	}
	if err := s.projectRepo.Delete(project.ID); err != nil {
		return appErrors.StoreUnavailable(err)
	}
	return nil
}

func (s *projectService) AdvancePhase(snap *session.Snapshot, id string) (*models.Project, error) {
	project, err := s.authorize(snap, id, models.MemberRoleEditor)
	if err != nil {
		return nil, err
	}

	project.CurrentPhase = models.NextPhase(project.CurrentPhase)
	if err := s.projectRepo.Update(project); err != nil {
		return nil, appErrors.StoreUnavailable(err)
	}
	return project, nil
}

func (s *projectService) CreateEntry(snap *session.Snapshot, projectID string, req *dto.CreateEntryRequest) (*models.PhaseEntry, error) {
	if _, err := s.authorize(snap, projectID, models.MemberRoleEditor); err != nil {
		return nil, err
	}
	if !models.ValidPhase(req.Phase) {
		return nil, appErrors.NewBadRequestError("unknown journey phase")
	}

	entry := &models.PhaseEntry{
		ProjectID: projectID,
		AuthorID:  snap.UserID,
		Phase:     req.Phase,
		Title:     req.Title,
		Body:      req.Body,
	}
	if err := s.projectRepo.CreateEntry(entry); err != nil {
		return nil, appErrors.StoreUnavailable(err)
	}
	return entry, nil
}

func (s *projectService) ListEntries(snap *session.Snapshot, projectID string, phase models.JourneyPhase) ([]models.PhaseEntry, error) {
	if _, err := s.authorize(snap, projectID, models.MemberRoleViewer); err != nil {
		return nil, err
	}
	entries, err := s.projectRepo.ListEntries(projectID, phase)
	if err != nil {
		return nil, appErrors.StoreUnavailable(err)
	}
	return entries, nil
}

func (s *projectService) TranslateEntry(ctx context.Context, snap *session.Snapshot, projectID, entryID, language string) (*models.PhaseEntry, error) {
	if _, err := s.authorize(snap, projectID, models.MemberRoleEditor); err != nil {
		return nil, err
	}

	entry, err := s.projectRepo.FindEntry(entryID)
	if err != nil || entry.ProjectID != projectID {
		return nil, appErrors.ErrProjectNotFound
	}

	translated, err := s.translator.Translate(ctx, entry.Body, language)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeExternalService, "Translation failed", 502)
	}

	translations := map[string]string{}
	if len(entry.Translated) > 0 {
		_ = json.Unmarshal(entry.Translated, &translations)
	}
	translations[language] = translated

	raw, err := json.Marshal(translations)
	if err != nil {
		return nil, appErrors.InternalError(err)
	}
	entry.Translated = datatypes.JSON(raw)

	if err := s.projectRepo.UpdateEntry(entry); err != nil {
		return nil, appErrors.StoreUnavailable(err)
	}
	return entry, nil
}

// authorize loads the project and checks the caller holds at least the
// required member role. Admins pass unconditionally.
func (s *projectService) authorize(snap *session.Snapshot, projectID string, required models.MemberRole) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if appErrors.Is(err, repositories.ErrProjectNotFound) {
			return nil, appErrors.ErrProjectNotFound
		}
		return nil, appErrors.StoreUnavailable(err)
	}

	if snap.IsAdmin() || project.OwnerID == snap.UserID {
		return project, nil
	}

	member, err := s.projectRepo.FindMember(projectID, snap.UserID)
	if err != nil {
		return nil, appErrors.StoreUnavailable(err)
	}
	if member == nil {
		// Non-members get the same answer as a missing project.
		return nil, appErrors.ErrProjectNotFound
	}

	if !roleAtLeast(member.Role, required) {
		return nil, appErrors.ErrForbidden
	}
	return project, nil
}

func roleAtLeast(have, want models.MemberRole) bool {
	rank := map[models.MemberRole]int{
		models.MemberRoleViewer: 1,
		models.MemberRoleEditor: 2,
		models.MemberRoleOwner:  3,
	}
	return rank[have] >= rank[want]
}
