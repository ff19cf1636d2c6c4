package services

import "dthink_backend/internal/email"

// ServiceContainer holds every service so the app can hand them to the
// handler layer as one unit.
type ServiceContainer struct {
	AuthService         AuthService
	UserService         UserService
	QuotaService        QuotaService
	ProjectService      ProjectService
	InviteService       InviteService
	LibraryService      LibraryService
	SubscriptionService SubscriptionService
	TranslationService  TranslationService
	EmailSender         email.Sender
}
