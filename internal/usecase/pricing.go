package usecase

import "github.com/evdms/dealer-console/internal/domain"

// Running totals shown on steps two through four. These come from the price
// snapshots held in the cart lines and are preview-only: the confirmation
// step always displays the server's OrderSummary figures instead.

func Subtotal(lines []domain.CartLine) float64 {
	var s float64
	for _, l := range lines {
		s += l.UnitPrice * float64(l.Quantity)
	}
	return s
}

// Totals returns subtotal, discount and total for a draft. Total never goes
// below zero regardless of promotion value.
func Totals(lines []domain.CartLine, p *domain.Promotion) (subtotal, discount, total float64) {
	subtotal = Subtotal(lines)
	discount = p.Discount(subtotal)
	total = subtotal - discount
	if total < 0 {
		total = 0
	}
	return subtotal, discount, total
}

func (w *Wizard) Totals() (subtotal, discount, total float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Totals(w.draft.Lines, w.draft.Promotion)
}
