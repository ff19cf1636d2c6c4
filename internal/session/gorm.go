package session

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"dthink_backend/internal/appErrors"
	"dthink_backend/internal/models"
)

// Record is the persisted form of a session; it survives process restarts.
type Record struct {
	Token        string            `gorm:"primaryKey;size:64"`
	UserID       string            `gorm:"type:uuid;not null;index"`
	Username     string            `gorm:"not null"`
	Email        string            `gorm:"not null"`
	Role         models.UserRole   `gorm:"type:varchar(20);not null"`
	PlanID       *string           `gorm:"type:uuid"`
	Status       models.UserStatus `gorm:"type:varchar(20)"`
	CustomLimits datatypes.JSON    `gorm:"type:jsonb"`
	ExpiresAt    time.Time         `gorm:"not null;index"`
	CreatedAt    time.Time
}

func (Record) TableName() string {
	return "sessions"
}

// GormStore persists sessions in the relational store.
type GormStore struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

func NewGormStore(db *gorm.DB, ttl time.Duration) *GormStore {
	return &GormStore{db: db, ttl: ttl, now: time.Now}
}

func (s *GormStore) Create(user *models.User) (string, error) {
	token, err := NewToken()
	if err != nil {
		return "", err
	}

	rec := recordFromUser(token, user)
	rec.ExpiresAt = s.now().Add(s.ttl)

	if err := s.db.Create(rec).Error; err != nil {
		return "", appErrors.StoreUnavailable(err)
	}
	return token, nil
}

func (s *GormStore) Resolve(token string) (*Snapshot, error) {
	if token == "" {
		return nil, nil
	}

	var rec Record
	err := s.db.Where("token = ?", token).First(&rec).Error
	if err != nil {
		if appErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, appErrors.StoreUnavailable(err)
	}

	if s.now().After(rec.ExpiresAt) {
		s.db.Delete(&Record{}, "token = ?", token)
		return nil, nil
	}

	// Sliding inactivity window; last-write-wins is fine here.
	s.db.Model(&Record{}).Where("token = ?", token).
		Update("expires_at", s.now().Add(s.ttl))

	return rec.snapshot(), nil
}

func (s *GormStore) Refresh(token string, user *models.User) (*Snapshot, error) {
	rec := recordFromUser(token, user)
	rec.ExpiresAt = s.now().Add(s.ttl)

	res := s.db.Model(&Record{}).Where("token = ?", token).Updates(map[string]interface{}{
		"username":      rec.Username,
		"email":         rec.Email,
		"role":          rec.Role,
		"plan_id":       rec.PlanID,
		"status":        rec.Status,
		"custom_limits": rec.CustomLimits,
		"expires_at":    rec.ExpiresAt,
	})
	if res.Error != nil {
		return nil, appErrors.StoreUnavailable(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return rec.snapshot(), nil
}

func (s *GormStore) RefreshUser(user *models.User) error {
	rec := recordFromUser("", user)
	err := s.db.Model(&Record{}).Where("user_id = ?", user.ID).Updates(map[string]interface{}{
		"username":      rec.Username,
		"email":         rec.Email,
		"role":          rec.Role,
		"plan_id":       rec.PlanID,
		"status":        rec.Status,
		"custom_limits": rec.CustomLimits,
	}).Error
	if err != nil {
		return appErrors.StoreUnavailable(err)
	}
	return nil
}

func (s *GormStore) Destroy(token string) error {
	if err := s.db.Delete(&Record{}, "token = ?", token).Error; err != nil {
		return appErrors.StoreUnavailable(err)
	}
	return nil
}

func (s *GormStore) Prune() (int, error) {
	res := s.db.Delete(&Record{}, "expires_at < ?", s.now())
	if res.Error != nil {
		return 0, appErrors.StoreUnavailable(res.Error)
	}
	return int(res.RowsAffected), nil
}

func recordFromUser(token string, user *models.User) *Record {
	snap := NewSnapshot(user)
	rec := &Record{
		Token:    token,
		UserID:   snap.UserID,
		Username: snap.Username,
		Email:    snap.Email,
		Role:     snap.Role,
		PlanID:   snap.PlanID,
		Status:   snap.Status,
	}
	if snap.CustomLimits != nil {
		if raw, err := json.Marshal(snap.CustomLimits); err == nil {
			rec.CustomLimits = raw
		}
	}
	return rec
}

func (r *Record) snapshot() *Snapshot {
	snap := &Snapshot{
		UserID:   r.UserID,
		Username: r.Username,
		Email:    r.Email,
		Role:     r.Role,
		PlanID:   r.PlanID,
		Status:   r.Status,
	}
	if len(r.CustomLimits) > 0 {
		var limits map[string]int
		if err := json.Unmarshal(r.CustomLimits, &limits); err == nil {
			snap.CustomLimits = limits
		}
	}
	return snap
}
