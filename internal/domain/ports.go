package domain

import "context"

// CustomerDirectory is the remote customer-records service.
type CustomerDirectory interface {
	FindByPhone(ctx context.Context, phone string) (*Customer, error)
	Create(ctx context.Context, name, phone, email string) (string, error)
	Update(ctx context.Context, id, name, phone, email string) (*Customer, error)
}

// OrderService is the remote order store. Writes are not idempotent on
// retry; callers must not blindly re-issue them.
type OrderService interface {
	CreateDraft(ctx context.Context, customerID string) (string, error)
	AddLine(ctx context.Context, orderID, model, variant, color string, quantity int) (string, error)
	UpdateLineQuantity(ctx context.Context, orderDetailID string, quantity int) error
	RemoveLine(ctx context.Context, orderDetailID string) error
	SetPromotion(ctx context.Context, orderID string, promotionID *string) error
	SetPaymentMethod(ctx context.Context, orderID string, method PaymentMethod) error
	SetStatus(ctx context.Context, orderID string, status OrderStatus) error
	GetDetail(ctx context.Context, orderID string) (*OrderDetail, error)
	GetSummary(ctx context.Context, orderID string) (*OrderSummary, error)
}

// CatalogService lists variants with per-(variant,color) price and stock.
// Reported stock reflects reservations held by persisted order lines.
type CatalogService interface {
	List(ctx context.Context) (Catalog, error)
}

// PromotionService lists promotions scoped to a dealer.
type PromotionService interface {
	List(ctx context.Context, dealerID string) ([]Promotion, error)
}

// AuthContext supplies the upstream bearer token and the operator identity.
// It is injected so the controller never reads ambient auth state.
type AuthContext interface {
	Token(ctx context.Context) (string, error)
	CurrentUser() User
}

type NotifyLevel string

const (
	NotifyInfo    NotifyLevel = "info"
	NotifyWarning NotifyLevel = "warning"
	NotifyError   NotifyLevel = "error"
)

// Notifier is the injected toast side channel. Failures it carries never
// block the workflow.
type Notifier interface {
	Notify(message string, level NotifyLevel)
}

// SessionStore persists WizardSession anchors. Implementations may be
// absent entirely; the registry degrades to memory-only.
type SessionStore interface {
	Save(ctx context.Context, s *WizardSession) error
	Find(ctx context.Context, id string) (*WizardSession, error)
	Delete(ctx context.Context, id string) error
}
