package domain

type PromotionType string

const (
	PromotionFixed   PromotionType = "fixed"
	PromotionPercent PromotionType = "percent"
)

type PromotionStatus string

const (
	PromotionActive   PromotionStatus = "active"
	PromotionInactive PromotionStatus = "inactive"
)

// Promotion is a dealer-scoped discount rule.
type Promotion struct {
	ID     string          `json:"promotionId"`
	Name   string          `json:"name"`
	Type   PromotionType   `json:"type"`
	Value  float64         `json:"value"`
	Status PromotionStatus `json:"status"`
}

func (p *Promotion) Active() bool { return p != nil && p.Status == PromotionActive }

// Discount returns the amount subtracted from subtotal, clamped so the
// resulting total can never go negative.
func (p *Promotion) Discount(subtotal float64) float64 {
	if p == nil {
		return 0
	}
	var d float64
	switch p.Type {
	case PromotionPercent:
		d = subtotal * p.Value / 100
	case PromotionFixed:
		d = p.Value
	}
	if d < 0 {
		d = 0
	}
	if d > subtotal {
		d = subtotal
	}
	return d
}
