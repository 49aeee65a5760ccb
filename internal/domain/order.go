package domain

import "time"

type OrderStatus string

const (
	OrderStatusDraft       OrderStatus = "pending_deposit"
	OrderStatusAwaitingPay OrderStatus = "awaiting_payment"
	OrderStatusPaid        OrderStatus = "paid"
	OrderStatusDelivering  OrderStatus = "delivering"
	OrderStatusDelivered   OrderStatus = "delivered"
	OrderStatusCancelled   OrderStatus = "cancelled"
)

type PaymentMethod string

// The network only supports full upfront payment today. The field stays an
// enum so installment plans can land without reshaping orders.
const PaymentFullUpfront PaymentMethod = "full_upfront"

// Step is the wizard position. Steps are linear; forward movement is gated,
// backward movement is always allowed.
type Step int

const (
	StepCustomer Step = iota + 1
	StepVehicles
	StepPromotion
	StepPayment
	StepConfirm
)

func (s Step) Valid() bool { return s >= StepCustomer && s <= StepConfirm }

func (s Step) String() string {
	switch s {
	case StepCustomer:
		return "customer"
	case StepVehicles:
		return "vehicles"
	case StepPromotion:
		return "promotion"
	case StepPayment:
		return "payment"
	case StepConfirm:
		return "confirm"
	}
	return "unknown"
}

// CartLine is one (variant,color) selection in the draft. Stock is the last
// server-reported figure for that (variant,color); the server has already
// subtracted this line's own persisted quantity from it.
type CartLine struct {
	OrderDetailID string  `json:"orderDetailId"`
	ModelName     string  `json:"modelName"`
	VariantName   string  `json:"variantName"`
	Color         string  `json:"color"`
	Quantity      int     `json:"quantity"`
	UnitPrice     float64 `json:"unitPrice"`
	Stock         int     `json:"stock"`
	ImageURL      string  `json:"imageUrl,omitempty"`
}

func (l CartLine) SameVehicle(model, variant, color string) bool {
	return l.ModelName == model && l.VariantName == variant && l.Color == color
}

type CustomerInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// OrderDraft is the in-progress order owned by one wizard session.
// CustomerID and OrderID stay empty until the customer step is confirmed;
// every transition past that point requires a non-empty OrderID.
type OrderDraft struct {
	CustomerID       string        `json:"customerId,omitempty"`
	OrderID          string        `json:"orderId,omitempty"`
	Customer         CustomerInfo  `json:"customer"`
	Lines            []CartLine    `json:"lineItems"`
	Promotion        *Promotion    `json:"promotion,omitempty"`
	PromotionDecided bool          `json:"promotionDecided"`
	PaymentMethod    PaymentMethod `json:"paymentMethod,omitempty"`
}

// OrderDetailLine is a persisted line item as the order service reports it.
type OrderDetailLine struct {
	OrderDetailID string  `json:"orderDetailId"`
	ModelName     string  `json:"modelName"`
	VariantName   string  `json:"variantName"`
	Color         string  `json:"color"`
	Quantity      int     `json:"quantity"`
	UnitPrice     float64 `json:"unitPrice"`
}

// OrderDetail is the full server-side state of a draft order, fetched when
// resuming an abandoned wizard.
type OrderDetail struct {
	OrderID       string            `json:"orderId"`
	Status        OrderStatus       `json:"status"`
	Customer      Customer          `json:"customer"`
	Lines         []OrderDetailLine `json:"lineItems"`
	Promotion     *Promotion        `json:"promotion,omitempty"`
	PaymentMethod PaymentMethod     `json:"paymentMethod,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
}

type SummaryLine struct {
	ModelName   string  `json:"modelName"`
	VariantName string  `json:"variantName"`
	Color       string  `json:"color"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	LineTotal   float64 `json:"lineTotal"`
}

// OrderSummary is the server-computed confirmation projection. Its figures
// are authoritative and are never reconciled against locally held snapshots.
type OrderSummary struct {
	OrderID       string        `json:"orderId"`
	Customer      Customer      `json:"customer"`
	Lines         []SummaryLine `json:"lineItems"`
	Subtotal      float64       `json:"subtotal"`
	Discount      float64       `json:"discount"`
	Total         float64       `json:"total"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Status        OrderStatus   `json:"status"`
	OrderDate     time.Time     `json:"orderDate"`
}
