package services

import (
	"encoding/json"

	"dthink_backend/internal/appErrors"
	"dthink_backend/internal/logger"
	"dthink_backend/internal/models"
	"dthink_backend/internal/repositories"
	"dthink_backend/internal/services/dto"
	"dthink_backend/internal/session"
)

type UserService interface {
	Get(userID string) (*dto.UserResponse, error)
	UpdateProfile(userID string, displayName, picture *string) (*dto.UserResponse, error)

	// Admin operations; each mutation refreshes the target user's live
	// sessions so stale snapshots never outlive an explicit change.
	AdminList(page, pageSize int) ([]models.User, int64, error)
	AdminUpdate(targetID string, req *dto.AdminUpdateUserRequest) (*dto.UserResponse, error)
}

type userService struct {
	userRepo repositories.UserRepository
	planRepo repositories.PlanRepository
	sessions session.Store
}

func NewUserService(userRepo repositories.UserRepository, planRepo repositories.PlanRepository, sessions session.Store) UserService {
	return &userService{
		userRepo: userRepo,
		planRepo: planRepo,
		sessions: sessions,
	}
}

func (s *userService) Get(userID string) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if appErrors.Is(err, repositories.ErrUserNotFound) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, appErrors.StoreUnavailable(err)
	}
	return dto.NewUserResponse(user), nil
}

func (s *userService) UpdateProfile(userID string, displayName, picture *string) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, appErrors.StoreUnavailable(err)
	}

	if displayName != nil {
		user.DisplayName = *displayName
	}
	if picture != nil {
		user.Picture = *picture
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, appErrors.StoreUnavailable(err)
	}
	return dto.NewUserResponse(user), nil
}

func (s *userService) AdminList(page, pageSize int) ([]models.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.userRepo.List(page, pageSize)
}

func (s *userService) AdminUpdate(targetID string, req *dto.AdminUpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByID(targetID)
	if err != nil {
		if appErrors.Is(err, repositories.ErrUserNotFound) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, appErrors.StoreUnavailable(err)
	}

	if req.Role != nil {
		user.Role = models.UserRole(*req.Role)
	}
	if req.PlanID != nil {
		if _, err := s.planRepo.FindByID(*req.PlanID); err != nil {
			return nil, appErrors.ErrPlanNotFound
		}
		user.SubscriptionPlanID = req.PlanID
	}
	if req.CustomLimits != nil {
		raw, err := json.Marshal(req.CustomLimits)
		if err != nil {
			return nil, appErrors.InternalError(err)
		}
		user.CustomLimits = raw
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, appErrors.StoreUnavailable(err)
	}

	// Propagate role/plan/limit changes into every live session of the
	// target user immediately after commit.
	if err := s.sessions.RefreshUser(user); err != nil {
		logger.Warn("session refresh after admin update failed", "user_id", user.ID, "error", err)
	}

	return dto.NewUserResponse(user), nil
}
