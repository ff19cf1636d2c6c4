package services

import (
	"encoding/json"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/webhook"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"dthink_backend/internal/appErrors"
	"dthink_backend/internal/logger"
	"dthink_backend/internal/models"
	"dthink_backend/internal/repositories"
	"dthink_backend/internal/services/dto"
	sess "dthink_backend/internal/session"
)

type SubscriptionService interface {
	// Plan operations
	ListPlans() ([]models.SubscriptionPlan, error)
	GetPlan(planID string) (*models.SubscriptionPlan, error)
	CreatePlan(req *dto.CreatePlanRequest) (*models.SubscriptionPlan, error)
	UpdatePlan(planID string, req *dto.UpdatePlanRequest) (*models.SubscriptionPlan, error)

	// Billing operations
	CreateCheckout(snap *sess.Snapshot, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
	CreatePortal(snap *sess.Snapshot) (*dto.CheckoutResponse, error)
	HandleWebhook(payload []byte, signature string) error
	PaymentHistory(snap *sess.Snapshot) ([]models.PaymentTransaction, error)
}

type subscriptionService struct {
	db            *gorm.DB
	planRepo      repositories.PlanRepository
	paymentRepo   repositories.PaymentRepository
	userRepo      repositories.UserRepository
	sessions      sess.Store
	webhookSecret string
	publicURL     string
}

func NewSubscriptionService(
	db *gorm.DB,
	planRepo repositories.PlanRepository,
	paymentRepo repositories.PaymentRepository,
	userRepo repositories.UserRepository,
	sessions sess.Store,
	stripeKey, webhookSecret, publicURL string,
) SubscriptionService {
	stripe.Key = stripeKey
	return &subscriptionService{
		db:            db,
		planRepo:      planRepo,
		paymentRepo:   paymentRepo,
		userRepo:      userRepo,
		sessions:      sessions,
		webhookSecret: webhookSecret,
		publicURL:     publicURL,
	}
}

func (s *subscriptionService) ListPlans() ([]models.SubscriptionPlan, error) {
	plans, err := s.planRepo.ListActive()
	if err != nil {
		return nil, appErrors.StoreUnavailable(err)
	}
	return plans, nil
}

func (s *subscriptionService) GetPlan(planID string) (*models.SubscriptionPlan, error) {
	plan, err := s.planRepo.FindByID(planID)
	if err != nil {
		return nil, appErrors.ErrPlanNotFound
	}
	return plan, nil
}

func (s *subscriptionService) CreatePlan(req *dto.CreatePlanRequest) (*models.SubscriptionPlan, error) {
	plan := &models.SubscriptionPlan{
		Name:          req.Name,
		DisplayName:   req.DisplayName,
		Price:         req.Price,
		Currency:      req.Currency,
		Duration:      req.Duration,
		StripePriceID: req.StripePriceID,
		IsActive:      req.IsActive,
	}
	if plan.Currency == "" {
		plan.Currency = "USD"
	}
	if plan.Duration == "" {
		plan.Duration = "monthly"
	}

	var err error
	if plan.Features, err = marshalJSON(req.Features); err != nil {
		return nil, appErrors.InternalError(err)
	}
	if plan.Limits, err = marshalJSON(req.Limits); err != nil {
		return nil, appErrors.InternalError(err)
	}

	// Keep the free-tier designation unambiguous at configuration time.
	if plan.IsFreeTier() {
		if existing, err := s.planRepo.FindFreeTier(); err == nil && existing != nil {
			return nil, appErrors.NewBadRequestError("a free tier plan already exists")
		}
	}

	if err := s.planRepo.Create(plan); err != nil {
		return nil, appErrors.StoreUnavailable(err)
	}
	return plan, nil
}

func (s *subscriptionService) UpdatePlan(planID string, req *dto.UpdatePlanRequest) (*models.SubscriptionPlan, error) {
	plan, err := s.planRepo.FindByID(planID)
	if err != nil {
		return nil, appErrors.ErrPlanNotFound
	}

	if req.DisplayName != nil {
		plan.DisplayName = *req.DisplayName
	}
	if req.Price != nil {
		plan.Price = *req.Price
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}
	if req.Features != nil {
		if plan.Features, err = marshalJSON(req.Features); err != nil {
			return nil, appErrors.InternalError(err)
		}
	}
	if req.Limits != nil {
		if plan.Limits, err = marshalJSON(req.Limits); err != nil {
			return nil, appErrors.InternalError(err)
		}
	}

	if err := s.planRepo.Update(plan); err != nil {
		return nil, appErrors.StoreUnavailable(err)
	}
	return plan, nil
}

func (s *subscriptionService) CreateCheckout(snap *sess.Snapshot, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	plan, err := s.planRepo.FindByID(req.PlanID)
	if err != nil {
		return nil, appErrors.ErrPlanNotFound
	}
	if plan.IsFreeTier() {
		return nil, appErrors.NewBadRequestError("the free tier needs no checkout")
	}

	customerID, err := s.ensureStripeCustomer(snap)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeExternalService, "Billing provider error", 502)
	}

	params := &stripe.CheckoutSessionParams{
		Customer:   stripe.String(customerID),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(s.publicURL + "/billing/success"),
		CancelURL:  stripe.String(s.publicURL + "/billing/cancel"),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(plan.StripePriceID),
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			"user_id": snap.UserID,
			"plan_id": plan.ID,
		},
	}

	checkout, err := checkoutsession.New(params)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeExternalService, "Billing provider error", 502)
	}

	payment := &models.PaymentTransaction{
		UserID:          snap.UserID,
		PlanID:          plan.ID,
		Amount:          plan.Price,
		Currency:        plan.Currency,
		Status:          models.PaymentStatusPending,
		StripeSessionID: checkout.ID,
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, appErrors.StoreUnavailable(err)
	}

	return &dto.CheckoutResponse{URL: checkout.URL}, nil
}

func (s *subscriptionService) CreatePortal(snap *sess.Snapshot) (*dto.CheckoutResponse, error) {
	user, err := s.userRepo.FindByID(snap.UserID)
	if err != nil {
		return nil, appErrors.StoreUnavailable(err)
	}
	if user.StripeCustomerID == "" {
		return nil, appErrors.NewBadRequestError("no billing account yet")
	}

	portal, err := session.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(user.StripeCustomerID),
		ReturnURL: stripe.String(s.publicURL + "/settings/billing"),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeExternalService, "Billing provider error", 502)
	}
	return &dto.CheckoutResponse{URL: portal.URL}, nil
}

// HandleWebhook processes billing events. Signature verification is
// delegated to the Stripe SDK.
func (s *subscriptionService) HandleWebhook(payload []byte, signature string) error {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return appErrors.NewBadRequestError("invalid webhook signature")
	}

	if event.Type != "checkout.session.completed" {
		// Other event types are acknowledged and ignored.
		return nil
	}

	var checkout stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &checkout); err != nil {
		return appErrors.NewBadRequestError("malformed webhook payload")
	}

	return s.activateFromCheckout(checkout.ID)
}

func (s *subscriptionService) activateFromCheckout(sessionID string) error {
	payment, err := s.paymentRepo.FindByStripeSession(sessionID)
	if err != nil {
		return appErrors.NewBadRequestError("unknown checkout session")
	}
	if payment.Status == models.PaymentStatusPaid {
		// Replayed webhook; already handled.
		return nil
	}

	user, err := s.userRepo.FindByID(payment.UserID)
	if err != nil {
		return appErrors.StoreUnavailable(err)
	}

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		payment.Status = models.PaymentStatusPaid
		payment.PaidAt = &now
		if err := s.paymentRepo.WithTx(tx).Update(payment); err != nil {
			return err
		}

		user.SubscriptionPlanID = &payment.PlanID
		user.SubscriptionStatus = models.SubscriptionStatusActive
		return s.userRepo.WithTx(tx).Update(user)
	})
	if txErr != nil {
		return appErrors.StoreUnavailable(txErr)
	}

	// Bound the staleness window: live sessions see the new plan now.
	if err := s.sessions.RefreshUser(user); err != nil {
		logger.Warn("session refresh after plan activation failed", "user_id", user.ID, "error", err)
	}

	logger.Info("subscription activated", "user_id", user.ID, "plan_id", payment.PlanID)
	return nil
}

func (s *subscriptionService) PaymentHistory(snap *sess.Snapshot) ([]models.PaymentTransaction, error) {
	payments, err := s.paymentRepo.ListByUser(snap.UserID)
	if err != nil {
		return nil, appErrors.StoreUnavailable(err)
	}
	return payments, nil
}

// ensureStripeCustomer finds or creates the Stripe customer for a user and
// persists its id.
func (s *subscriptionService) ensureStripeCustomer(snap *sess.Snapshot) (string, error) {
	user, err := s.userRepo.FindByID(snap.UserID)
	if err != nil {
		return "", err
	}
	if user.StripeCustomerID != "" {
		return user.StripeCustomerID, nil
	}

	cust, err := customer.New(&stripe.CustomerParams{
		Email: stripe.String(user.Email),
		Metadata: map[string]string{
			"user_id": user.ID,
		},
	})
	if err != nil {
		return "", err
	}

	user.StripeCustomerID = cust.ID
	if err := s.userRepo.Update(user); err != nil {
		return "", err
	}
	return cust.ID, nil
}

func marshalJSON(v interface{}) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
