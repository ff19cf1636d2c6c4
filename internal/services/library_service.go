package services

import (
	"dthink_backend/internal/appErrors"
	"dthink_backend/internal/models"
	"dthink_backend/internal/repositories"
	"dthink_backend/internal/services/dto"
	"dthink_backend/internal/session"
)

type LibraryService interface {
	Create(snap *session.Snapshot, req *dto.CreateLibraryItemRequest) (*models.LibraryItem, error)
	List(snap *session.Snapshot, phase models.JourneyPhase) ([]models.LibraryItem, error)
	Get(snap *session.Snapshot, id string) (*models.LibraryItem, error)
	Update(snap *session.Snapshot, id string, req *dto.UpdateLibraryItemRequest) (*models.LibraryItem, error)
	Delete(snap *session.Snapshot, id string) error
}

type libraryService struct {
	libraryRepo repositories.LibraryRepository
}

func NewLibraryService(libraryRepo repositories.LibraryRepository) LibraryService {
	return &libraryService{libraryRepo: libraryRepo}
}

func (s *libraryService) Create(snap *session.Snapshot, req *dto.CreateLibraryItemRequest) (*models.LibraryItem, error) {
	item := &models.LibraryItem{
		Title: req.Title,
		Phase: req.Phase,
		Body:  req.Body,
		Tags:  req.Tags,
	}

	// Only admins publish global items; everyone else owns theirs.
	if req.Global && snap.IsAdmin() {
		item.OwnerID = nil
	} else {
		owner := snap.UserID
		item.OwnerID = &owner
	}

	if err := s.libraryRepo.Create(item); err != nil {
		return nil, appErrors.StoreUnavailable(err)
	}
	return item, nil
}

func (s *libraryService) List(snap *session.Snapshot, phase models.JourneyPhase) ([]models.LibraryItem, error) {
	items, err := s.libraryRepo.ListVisible(snap.UserID, phase)
	if err != nil {
		return nil, appErrors.StoreUnavailable(err)
	}
	return items, nil
}

func (s *libraryService) Get(snap *session.Snapshot, id string) (*models.LibraryItem, error) {
	item, err := s.find(snap, id)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *libraryService) Update(snap *session.Snapshot, id string, req *dto.UpdateLibraryItemRequest) (*models.LibraryItem, error) {
	item, err := s.find(snap, id)
	if err != nil {
		return nil, err
	}
	if !s.canModify(snap, item) {
		return nil, appErrors.ErrForbidden
	}

	if req.Title != nil {
		item.Title = *req.Title
	}
	if req.Body != nil {
		item.Body = *req.Body
	}
	if req.Tags != nil {
		item.Tags = *req.Tags
	}

	if err := s.libraryRepo.Update(item); err != nil {
		return nil, appErrors.StoreUnavailable(err)
	}
	return item, nil
}

func (s *libraryService) Delete(snap *session.Snapshot, id string) error {
	item, err := s.find(snap, id)
	if err != nil {
		return err
	}
	if !s.canModify(snap, item) {
		return appErrors.ErrForbidden
	}
	if err := s.libraryRepo.Delete(id); err != nil {
		return appErrors.StoreUnavailable(err)
	}
	return nil
}

func (s *libraryService) find(snap *session.Snapshot, id string) (*models.LibraryItem, error) {
	item, err := s.libraryRepo.FindByID(id)
	if err != nil {
		if appErrors.Is(err, repositories.ErrItemNotFound) {
			return nil, appErrors.ErrItemNotFound
		}
		return nil, appErrors.StoreUnavailable(err)
	}
	if !item.IsGlobal() && *item.OwnerID != snap.UserID && !snap.IsAdmin() {
		return nil, appErrors.ErrItemNotFound
	}
	return item, nil
}

func (s *libraryService) canModify(snap *session.Snapshot, item *models.LibraryItem) bool {
	if snap.IsAdmin() {
		return true
	}
	return !item.IsGlobal() && *item.OwnerID == snap.UserID
}
