package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"dthink_backend/internal/appErrors"
	"dthink_backend/internal/email"
	"dthink_backend/internal/logger"
	"dthink_backend/internal/models"
	"dthink_backend/internal/repositories"
	"dthink_backend/internal/services/dto"
	"dthink_backend/internal/session"
)

type InviteService interface {
	Create(snap *session.Snapshot, projectID string, req *dto.CreateInviteRequest) (*models.ProjectInvite, error)
	Accept(snap *session.Snapshot, tokenString string) (*models.ProjectInvite, error)
	ListByProject(snap *session.Snapshot, projectID string) ([]models.ProjectInvite, error)
}

type inviteService struct {
	db          *gorm.DB
	inviteRepo  repositories.InviteRepository
	projectRepo repositories.ProjectRepository
	sender      email.Sender
	secret      []byte
	ttl         time.Duration
	publicURL   string
}

func NewInviteService(
	db *gorm.DB,
	inviteRepo repositories.InviteRepository,
	projectRepo repositories.ProjectRepository,
	sender email.Sender,
	secret string,
	ttl time.Duration,
	publicURL string,
) InviteService {
	return &inviteService{
		db:          db,
		inviteRepo:  inviteRepo,
		projectRepo: projectRepo,
		sender:      sender,
		secret:      []byte(secret),
		ttl:         ttl,
		publicURL:   publicURL,
	}
}

type inviteClaims struct {
	InviteID  string `json:"invite_id"`
	ProjectID string `json:"project_id"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

func (s *inviteService) Create(snap *session.Snapshot, projectID string, req *dto.CreateInviteRequest) (*models.ProjectInvite, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		return nil, appErrors.ErrProjectNotFound
	}
	if project.OwnerID != snap.UserID && !snap.IsAdmin() {
		return nil, appErrors.ErrForbidden
	}

	role := req.Role
	if role == "" {
		role = models.MemberRoleViewer
	}

	invite := &models.ProjectInvite{
		ProjectID: projectID,
		InvitedBy: snap.UserID,
		Email:     strings.ToLower(req.Email),
		Role:      role,
		Status:    models.InviteStatusPending,
		ExpiresAt: time.Now().Add(s.ttl),
	}
	if err := s.inviteRepo.Create(invite); err != nil {
		return nil, appErrors.StoreUnavailable(err)
	}

	token, err := s.signToken(invite)
	if err != nil {
		return nil, appErrors.InternalError(err)
	}

	// Delivery is fire-and-forget; a failed send never fails the request.
	acceptURL := fmt.Sprintf("%s/invites/accept?token=%s", s.publicURL, token)
	go func() {
		body := email.InviteBody(project.Name, snap.Username, acceptURL)
		if err := s.sender.Send(invite.Email, "You have been invited to a project", body); err != nil {
			logger.Warn("invite email delivery failed", "invite_id", invite.ID, "error", err)
		}
	}()

	return invite, nil
}

// Accept is idempotent: accepting an already-accepted invite succeeds
// without creating a duplicate membership.
func (s *inviteService) Accept(snap *session.Snapshot, tokenString string) (*models.ProjectInvite, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, appErrors.ErrInvalidToken
	}

	invite, err := s.inviteRepo.FindByID(claims.InviteID)
	if err != nil {
		return nil, appErrors.ErrInviteNotFound
	}

	if !strings.EqualFold(invite.Email, snap.Email) {
		return nil, appErrors.ErrInviteEmailMismatch
	}
	if invite.Status == models.InviteStatusRevoked {
		return nil, appErrors.ErrInviteNotFound
	}
	if invite.Status == models.InviteStatusAccepted {
		return invite, nil
	}
	if time.Now().After(invite.ExpiresAt) {
		return nil, appErrors.ErrInviteExpired
	}

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		projects := s.projectRepo.WithTx(tx)

		existing, err := projects.FindMember(invite.ProjectID, snap.UserID)
		if err != nil {
			return err
		}
		if existing == nil {
			if err := projects.AddMember(&models.ProjectMember{
				ProjectID: invite.ProjectID,
				UserID:    snap.UserID,
				Role:      invite.Role,
			}); err != nil {
				return err
			}
		}

		invite.Status = models.InviteStatusAccepted
		return s.inviteRepo.WithTx(tx).Update(invite)
	})
	if txErr != nil {
		return nil, appErrors.StoreUnavailable(txErr)
	}

	return invite, nil
}

func (s *inviteService) ListByProject(snap *session.Snapshot, projectID string) ([]models.ProjectInvite, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		return nil, appErrors.ErrProjectNotFound
	}
	if project.OwnerID != snap.UserID && !snap.IsAdmin() {
		return nil, appErrors.ErrForbidden
	}

	invites, err := s.inviteRepo.ListByProject(projectID)
	if err != nil {
		return nil, appErrors.StoreUnavailable(err)
	}
	return invites, nil
}

func (s *inviteService) signToken(invite *models.ProjectInvite) (string, error) {
	claims := inviteClaims{
		InviteID:  invite.ID,
		ProjectID: invite.ProjectID,
		Email:     invite.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(invite.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *inviteService) parseToken(tokenString string) (*inviteClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &inviteClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*inviteClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid invite token")
	}
	return claims, nil
}
