package domain

import (
	"time"

	"github.com/google/uuid"
)

// Customer mirrors the directory service record bound to a draft order.
type Customer struct {
	ID    string `json:"customerId"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// User is the console operator on whose behalf the wizard acts.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	DealerID string `json:"dealerId"`
}

// WizardSession is the thin persisted anchor for a wizard: identifiers only,
// never cart state. The order service stays the source of truth for the
// draft itself; this row lets a console find its draft again after a restart.
type WizardSession struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	DealerID  string    `gorm:"size:60;index"`
	OrderID   string    `gorm:"size:60;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
