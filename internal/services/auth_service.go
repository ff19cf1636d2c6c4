package services

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"dthink_backend/internal/appErrors"
	"dthink_backend/internal/auth"
	"dthink_backend/internal/models"
	"dthink_backend/internal/repositories"
	"dthink_backend/internal/services/dto"
	"dthink_backend/internal/session"
)

type AuthService interface {
	Register(req *dto.RegisterRequest) (*models.User, error)
	Login(req *dto.LoginRequest) (string, *dto.UserResponse, error)

	// ResolveFederatedIdentity locates or creates the canonical user for a
	// federated profile assertion, linking by email when a local account
	// already exists.
	ResolveFederatedIdentity(assertion *auth.ProfileAssertion) (*models.User, error)
	LoginFederated(assertion *auth.ProfileAssertion) (string, *dto.UserResponse, error)

	Logout(token string) error
	ChangePassword(userID string, req *dto.ChangePasswordRequest) error
}

type authService struct {
	db       *gorm.DB
	userRepo repositories.UserRepository
	planRepo repositories.PlanRepository
	sessions session.Store
}

func NewAuthService(
	db *gorm.DB,
	userRepo repositories.UserRepository,
	planRepo repositories.PlanRepository,
	sessions session.Store,
) AuthService {
	return &authService{
		db:       db,
		userRepo: userRepo,
		planRepo: planRepo,
		sessions: sessions,
	}
}

func (s *authService) Register(req *dto.RegisterRequest) (*models.User, error) {
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, appErrors.ErrWeakPassword
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, appErrors.InternalError(err)
	}

	username := req.Username
	if username == "" {
		username, err = s.synthesizeUsername(req.Email)
		if err != nil {
			return nil, appErrors.InternalError(err)
		}
	} else {
		// Checked up front so a collision on the insert's unique index can
		// only mean the email.
		taken, err := s.userRepo.UsernameExists(username)
		if err != nil {
			return nil, appErrors.StoreUnavailable(err)
		}
		if taken {
			return nil, appErrors.ErrUsernameTaken
		}
	}

	user := &models.User{
		Email:        strings.ToLower(req.Email),
		Username:     username,
		PasswordHash: hash,
		Provider:     models.ProviderLocal,
		DisplayName:  req.DisplayName,
		Role:         models.UserRoleUser,
		Status:       models.UserStatusActive,
		// SubscriptionPlanID stays nil: the quota evaluator treats that
		// as the free tier without a plan lookup.
		SubscriptionStatus: models.SubscriptionStatusActive,
	}

	if err := s.userRepo.Create(user); err != nil {
		if appErrors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, appErrors.ErrEmailAlreadyExists
		}
		return nil, appErrors.InternalError(err)
	}

	return user, nil
}

// Login authenticates against the local password. Unknown email,
// federated-only account and wrong password all return the same
// INVALID_CREDENTIALS so callers cannot enumerate accounts.
func (s *authService) Login(req *dto.LoginRequest) (string, *dto.UserResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		if appErrors.Is(err, repositories.ErrUserNotFound) {
			return "", nil, appErrors.ErrInvalidCredentials
		}
		return "", nil, appErrors.StoreUnavailable(err)
	}

	if !user.HasPassword() {
		return "", nil, appErrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", nil, appErrors.ErrInvalidCredentials
	}

	if user.Status == models.UserStatusSuspended {
		return "", nil, appErrors.ErrUserSuspended
	}

	token, err := s.sessions.Create(user)
	if err != nil {
		return "", nil, appErrors.InternalError(err)
	}

	return token, dto.NewUserResponse(user), nil
}

func (s *authService) ResolveFederatedIdentity(assertion *auth.ProfileAssertion) (*models.User, error) {
	if assertion.Email == "" {
		return nil, appErrors.ErrMissingEmail
	}

	provider := models.AuthProvider(assertion.Provider)

	// Known federated identity: return the user unmodified.
	user, err := s.userRepo.FindByProviderIdentity(provider, assertion.ProviderID)
	if err == nil {
		return user, nil
	}
	if !appErrors.Is(err, repositories.ErrUserNotFound) {
		return nil, appErrors.StoreUnavailable(err)
	}

	var resolved *models.User

	// Linking and creation are single mutations; the transaction keeps a
	// partially linked or created state from ever being observable.
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.userRepo.WithTx(tx)

		existing, err := repo.FindByEmail(assertion.Email)
		if err == nil {
			// Link: merge the federated identity into the existing
			// account. Password hash and profile fields are preserved so
			// local login keeps working afterward.
			existing.Provider = provider
			existing.ProviderID = assertion.ProviderID
			if existing.DisplayName == "" {
				existing.DisplayName = assertion.DisplayName
			}
			if existing.Picture == "" {
				existing.Picture = assertion.Picture
			}
			if err := repo.Update(existing); err != nil {
				return err
			}
			resolved = existing
			return nil
		}
		if !appErrors.Is(err, repositories.ErrUserNotFound) {
			return err
		}

		freePlan, err := s.planRepo.FindFreeTier()
		if err != nil {
			// No unambiguous default plan is a deployment defect; the
			// request must fail rather than silently degrade.
			return appErrors.ErrPlanConfiguration
		}

		username, err := s.synthesizeUsernameTx(repo, assertion.Email)
		if err != nil {
			return err
		}

		created := &models.User{
			Email:              strings.ToLower(assertion.Email),
			Username:           username,
			Provider:           provider,
			ProviderID:         assertion.ProviderID,
			DisplayName:        assertion.DisplayName,
			Picture:            assertion.Picture,
			Role:               models.UserRoleUser,
			Status:             models.UserStatusActive,
			SubscriptionPlanID: &freePlan.ID,
			SubscriptionStatus: models.SubscriptionStatusActive,
		}
		if err := repo.Create(created); err != nil {
			return err
		}
		resolved = created
		return nil
	})
	if txErr != nil {
		var appErr *appErrors.AppError
		if appErrors.As(txErr, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.StoreUnavailable(txErr)
	}

	return resolved, nil
}

func (s *authService) LoginFederated(assertion *auth.ProfileAssertion) (string, *dto.UserResponse, error) {
	user, err := s.ResolveFederatedIdentity(assertion)
	if err != nil {
		return "", nil, err
	}

	if user.Status == models.UserStatusSuspended {
		return "", nil, appErrors.ErrUserSuspended
	}

	token, err := s.sessions.Create(user)
	if err != nil {
		return "", nil, appErrors.InternalError(err)
	}

	return token, dto.NewUserResponse(user), nil
}

func (s *authService) Logout(token string) error {
	return s.sessions.Destroy(token)
}

func (s *authService) ChangePassword(userID string, req *dto.ChangePasswordRequest) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return appErrors.StoreUnavailable(err)
	}

	if !user.HasPassword() {
		return appErrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return appErrors.ErrInvalidCredentials
	}
	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		return appErrors.ErrWeakPassword
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return appErrors.InternalError(err)
	}

	user.PasswordHash = hash
	if err := s.userRepo.Update(user); err != nil {
		return appErrors.StoreUnavailable(err)
	}
	return nil
}

func (s *authService) synthesizeUsername(email string) (string, error) {
	return s.synthesizeUsernameTx(s.userRepo, email)
}

// synthesizeUsernameTx derives a unique username from the email local part,
// suffixing a counter on collision.
func (s *authService) synthesizeUsernameTx(repo repositories.UserRepository, email string) (string, error) {
	base := strings.ToLower(strings.SplitN(email, "@", 2)[0])
	base = sanitizeUsername(base)
	if base == "" {
		base = "user"
	}

	candidate := base
	for i := 1; ; i++ {
		exists, err := repo.UsernameExists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
}

func sanitizeUsername(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '.' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
