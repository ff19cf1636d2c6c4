package models

type UserRole string
type UserStatus string
type AuthProvider string
type SubscriptionStatus string
type ProjectKind string
type JourneyPhase string
type MemberRole string
type InviteStatus string
type PaymentStatus string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"

	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"

	ProviderLocal  AuthProvider = "local"
	ProviderGoogle AuthProvider = "google"

	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"

	ProjectKindDesignThinking ProjectKind = "design_thinking"
	ProjectKindDoubleDiamond  ProjectKind = "double_diamond"

	PhaseEmpathize JourneyPhase = "empathize"
	PhaseDefine    JourneyPhase = "define"
	PhaseIdeate    JourneyPhase = "ideate"
	PhasePrototype JourneyPhase = "prototype"
	PhaseTest      JourneyPhase = "test"

	MemberRoleOwner  MemberRole = "owner"
	MemberRoleEditor MemberRole = "editor"
	MemberRoleViewer MemberRole = "viewer"

	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusRevoked  InviteStatus = "revoked"
	InviteStatusExpired  InviteStatus = "expired"

	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// JourneyPhases is the canonical phase order a project moves through.
var JourneyPhases = []JourneyPhase{
	PhaseEmpathize,
	PhaseDefine,
	PhaseIdeate,
	PhasePrototype,
	PhaseTest,
}

// NextPhase returns the phase following p, or p itself when the journey
// is already at its final phase.
func NextPhase(p JourneyPhase) JourneyPhase {
	for i, phase := range JourneyPhases {
		if phase == p && i+1 < len(JourneyPhases) {
			return JourneyPhases[i+1]
		}
	}
	return p
}

func ValidPhase(p JourneyPhase) bool {
	for _, phase := range JourneyPhases {
		if phase == p {
			return true
		}
	}
	return false
}
