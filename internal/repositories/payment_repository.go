package repositories

import (
	"errors"

	"gorm.io/gorm"

	"dthink_backend/internal/models"
)

var ErrPaymentNotFound = errors.New("payment not found")

type PaymentRepository interface {
	WithTx(tx *gorm.DB) PaymentRepository

	Create(payment *models.PaymentTransaction) error
	Update(payment *models.PaymentTransaction) error
	FindByStripeSession(sessionID string) (*models.PaymentTransaction, error)
	ListByUser(userID string) ([]models.PaymentTransaction, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) WithTx(tx *gorm.DB) PaymentRepository {
	return &paymentRepository{db: tx}
}

func (r *paymentRepository) Create(payment *models.PaymentTransaction) error {
	return r.db.Create(payment).Error
}

func (r *paymentRepository) Update(payment *models.PaymentTransaction) error {
	return r.db.Save(payment).Error
}

func (r *paymentRepository) FindByStripeSession(sessionID string) (*models.PaymentTransaction, error) {
	var payment models.PaymentTransaction
	err := r.db.First(&payment, "stripe_session_id = ?", sessionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) ListByUser(userID string) ([]models.PaymentTransaction, error) {
	var payments []models.PaymentTransaction
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&payments).Error
	return payments, err
}
