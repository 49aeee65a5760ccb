package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/evdms/dealer-console/internal/domain"
)

// Resume rehydrates the wizard from a previously created, not-yet-submitted
// order. The order is the durable source of truth: customer, lines,
// promotion and payment method all come from the order service, with a
// fresh catalog joined in to recover stock figures and images the order
// does not store. The landing step is derived from what the order already
// has recorded, so an abandoned flow picks up where it left off.
func (w *Wizard) Resume(ctx context.Context, orderID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	detail, err := w.deps.Orders.GetDetail(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load order %s: %w", orderID, err)
	}
	if detail.Status != domain.OrderStatusDraft {
		return fmt.Errorf("order %s has status %s: %w", orderID, detail.Status, domain.ErrOrderNotDraft)
	}

	// catalog and promotions populate disjoint state and load in parallel
	var (
		wg       sync.WaitGroup
		cat      domain.Catalog
		catErr   error
		promos   []domain.Promotion
		promoErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		cat, catErr = w.deps.Catalog.List(ctx)
	}()
	go func() {
		defer wg.Done()
		promos, promoErr = w.deps.Promotions.List(ctx, w.deps.DealerID)
	}()
	wg.Wait()
	if catErr != nil {
		return fmt.Errorf("load catalog: %w", catErr)
	}

	w.reset()
	w.catalog = cat
	w.catalogLoaded = true
	if promoErr == nil {
		w.promos = promos
		w.promosLoaded = true
	} else {
		// degrades display only; the promotion step retries the load
		w.deps.Log.Warn().Err(promoErr).Msg("promotion list load failed on resume")
	}

	w.draft.OrderID = detail.OrderID
	w.draft.CustomerID = detail.Customer.ID
	w.draft.Customer = domain.CustomerInfo{
		Name:  detail.Customer.Name,
		Phone: detail.Customer.Phone,
		Email: detail.Customer.Email,
	}
	for _, dl := range detail.Lines {
		line := domain.CartLine{
			OrderDetailID: dl.OrderDetailID,
			ModelName:     dl.ModelName,
			VariantName:   dl.VariantName,
			Color:         dl.Color,
			Quantity:      dl.Quantity,
			UnitPrice:     dl.UnitPrice,
		}
		if opt, ok := cat.Find(dl.ModelName, dl.VariantName, dl.Color); ok {
			line.Stock = opt.Stock
			line.ImageURL = opt.ImageURL
		}
		w.draft.Lines = append(w.draft.Lines, line)
		// persisted rows are already reflected in the fresh snapshot
		w.accounted[dl.OrderDetailID] = dl.Quantity
	}
	if detail.Promotion != nil {
		p := *detail.Promotion
		w.draft.Promotion = &p
		w.draft.PromotionDecided = true
	}
	if detail.PaymentMethod != "" {
		w.draft.PaymentMethod = detail.PaymentMethod
	}

	w.step = landingStep(&w.draft)
	if w.step == domain.StepConfirm {
		sum, err := w.deps.Orders.GetSummary(ctx, w.draft.OrderID)
		if err != nil {
			// land one step earlier instead of confirming against nothing
			w.deps.Log.Warn().Err(err).Str("order_id", w.draft.OrderID).Msg("summary load failed on resume")
			w.step = domain.StepPayment
		} else {
			w.summary = sum
		}
	}
	w.deps.Log.Info().Str("order_id", orderID).Str("step", w.step.String()).Msg("wizard resumed")
	return nil
}

// landingStep derives where a resumed wizard opens. The order's recorded
// state decides, not whatever step the browser last showed.
func landingStep(d *domain.OrderDraft) domain.Step {
	switch {
	case len(d.Lines) > 0 && d.PaymentMethod != "":
		return domain.StepConfirm
	case len(d.Lines) > 0 && d.PromotionDecided:
		return domain.StepPayment
	case len(d.Lines) > 0:
		return domain.StepPromotion
	default:
		return domain.StepVehicles
	}
}
