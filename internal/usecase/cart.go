package usecase

import (
	"context"
	"fmt"

	"github.com/evdms/dealer-console/internal/domain"
)

// Cart mutations follow a strict mutate-then-reload protocol: the server
// call commits first, then the whole catalog is re-fetched and stock/price
// re-attached to every line, because one mutation changes the headroom of
// every other line sharing its (variant,color). The server never sees a
// locally decremented stock figure.

// AddToCart persists a new order line and appends it to the draft with a
// price snapshot taken from the catalog at this moment.
func (w *Wizard) AddToCart(ctx context.Context, model, variant, color string, qty int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.draft.OrderID == "" {
		return domain.ErrNoOrder
	}
	if qty <= 0 {
		return domain.Invalid("quantity", "must be positive")
	}
	if !w.catalogLoaded {
		if err := w.loadCatalog(ctx); err != nil {
			return err
		}
	}
	opt, ok := w.catalog.Find(model, variant, color)
	if !ok {
		return fmt.Errorf("catalog entry %s %s %s: %w", model, variant, color, domain.ErrNotFound)
	}
	if qty > w.headroom(model, variant, color, "") {
		return domain.ErrOutOfStock
	}

	detailID, err := w.deps.Orders.AddLine(ctx, w.draft.OrderID, model, variant, color, qty)
	if err != nil {
		return err
	}
	w.draft.Lines = append(w.draft.Lines, domain.CartLine{
		OrderDetailID: detailID,
		ModelName:     model,
		VariantName:   variant,
		Color:         color,
		Quantity:      qty,
		UnitPrice:     opt.DealerPrice,
		Stock:         opt.Stock,
		ImageURL:      opt.ImageURL,
	})
	w.reloadAndReattach(ctx)
	return nil
}

// UpdateQuantity resizes a persisted line. The bound accounts for the fact
// that reported stock already excludes this line's old quantity.
func (w *Wizard) UpdateQuantity(ctx context.Context, orderDetailID string, qty int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	idx := w.lineIndex(orderDetailID)
	if idx < 0 {
		return fmt.Errorf("cart line %s: %w", orderDetailID, domain.ErrNotFound)
	}
	if qty <= 0 {
		return domain.Invalid("quantity", "must be positive, remove the line instead")
	}
	line := w.draft.Lines[idx]
	if qty > w.headroom(line.ModelName, line.VariantName, line.Color, orderDetailID) {
		return domain.ErrOutOfStock
	}

	if err := w.deps.Orders.UpdateLineQuantity(ctx, orderDetailID, qty); err != nil {
		return err
	}
	w.draft.Lines[idx].Quantity = qty
	w.reloadAndReattach(ctx)
	return nil
}

// RemoveFromCart deletes a persisted line; the server restores its stock.
func (w *Wizard) RemoveFromCart(ctx context.Context, orderDetailID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	idx := w.lineIndex(orderDetailID)
	if idx < 0 {
		return fmt.Errorf("cart line %s: %w", orderDetailID, domain.ErrNotFound)
	}
	if err := w.deps.Orders.RemoveLine(ctx, orderDetailID); err != nil {
		return err
	}
	w.draft.Lines = append(w.draft.Lines[:idx], w.draft.Lines[idx+1:]...)
	delete(w.accounted, orderDetailID)
	w.reloadAndReattach(ctx)
	return nil
}

// AvailableToAdd is the quantity of a (variant,color) a new line may still
// take without exceeding true stock, given this cart's other lines.
func (w *Wizard) AvailableToAdd(model, variant, color string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.headroom(model, variant, color, "")
}

// MaxQuantity is the upper bound when resizing an existing line.
func (w *Wizard) MaxQuantity(orderDetailID string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	idx := w.lineIndex(orderDetailID)
	if idx < 0 {
		return 0
	}
	l := w.draft.Lines[idx]
	return w.headroom(l.ModelName, l.VariantName, l.Color, orderDetailID)
}

func (w *Wizard) lineIndex(orderDetailID string) int {
	for i := range w.draft.Lines {
		if w.draft.Lines[i].OrderDetailID == orderDetailID {
			return i
		}
	}
	return -1
}

// headroom computes the allowed quantity for a new line (exclude == "") or
// a resized line (exclude == its order-detail id) against the current
// catalog snapshot.
//
// The snapshot's reported stock already subtracts every quantity listed in
// w.accounted, so only the unaccounted remainder of other lines is deducted
// here, and the excluded line's accounted share is handed back. Right after
// a successful reload this degenerates to: new line → reported stock,
// resize → reported stock + current quantity. While the snapshot is stale
// (reload failed after a commit) the deltas keep the bound conservative
// until the next reload self-corrects it.
func (w *Wizard) headroom(model, variant, color, exclude string) int {
	opt, ok := w.catalog.Find(model, variant, color)
	if !ok {
		return 0
	}
	avail := opt.Stock
	for _, l := range w.draft.Lines {
		if !l.SameVehicle(model, variant, color) {
			continue
		}
		if l.OrderDetailID == exclude {
			avail += w.accounted[l.OrderDetailID]
			continue
		}
		avail -= l.Quantity - w.accounted[l.OrderDetailID]
	}
	if avail < 0 {
		avail = 0
	}
	return avail
}

// reloadAndReattach re-fetches the catalog after a committed mutation and
// refreshes stock and price on every line. The mutation is already durable;
// a failed reload keeps the previous snapshot for bound-checking and warns,
// the next successful reload corrects the figures.
func (w *Wizard) reloadAndReattach(ctx context.Context) {
	cat, err := w.deps.Catalog.List(ctx)
	if err != nil {
		w.deps.Log.Warn().Err(err).Msg("catalog reload after cart mutation failed")
		w.notify("stock figures may be briefly out of date", domain.NotifyWarning)
		return
	}
	w.catalog = cat
	w.catalogLoaded = true
	acc := make(map[string]int, len(w.draft.Lines))
	for i := range w.draft.Lines {
		l := &w.draft.Lines[i]
		if opt, ok := cat.Find(l.ModelName, l.VariantName, l.Color); ok {
			l.Stock = opt.Stock
			l.UnitPrice = opt.DealerPrice
			if opt.ImageURL != "" {
				l.ImageURL = opt.ImageURL
			}
		}
		acc[l.OrderDetailID] = l.Quantity
	}
	w.accounted = acc
}
