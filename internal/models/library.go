package models

// LibraryItem is a reusable method card or template in the content library.
// Global items (nil OwnerID) are admin-curated and visible to everyone;
// user-owned items are private to their owner.
type LibraryItem struct {
	BaseModelWithDeleted
	OwnerID *string      `gorm:"type:uuid;index" json:"owner_id"`
	Title   string       `gorm:"not null" json:"title"`
	Phase   JourneyPhase `gorm:"type:varchar(20);index" json:"phase"`
	Body    string       `gorm:"type:text" json:"body"`
	Tags    string       `json:"tags"`
}

func (i *LibraryItem) IsGlobal() bool {
	return i.OwnerID == nil
}
