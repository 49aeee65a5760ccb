package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/evdms/dealer-console/internal/domain"
)

var (
	emailRe = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	phoneRe = regexp.MustCompile(`^\+?\d{8,15}$`)
)

// WizardDeps are the collaborators a wizard needs. All remote services are
// injected; the controller never reaches for ambient state.
type WizardDeps struct {
	Customers  domain.CustomerDirectory
	Orders     domain.OrderService
	Catalog    domain.CatalogService
	Promotions domain.PromotionService
	Auth       domain.AuthContext
	Notifier   domain.Notifier
	DealerID   string
	Log        zerolog.Logger
}

// Wizard drives the five-step order flow: customer, vehicle selection,
// promotion, payment method, confirmation. It owns the in-memory draft and
// keeps it reconciled against server-held inventory after every mutation.
//
// One mutex covers every operation end to end, network calls included, so a
// second cart mutation can never start before the previous one has finished
// its reload-and-reattach phase. The generation counter increments whenever
// the draft is replaced (reset, resume); collaborators that act on wizard
// state outside the lock use it to drop stale observations.
type Wizard struct {
	mu   sync.Mutex
	deps WizardDeps

	step  domain.Step
	draft domain.OrderDraft

	catalog       domain.Catalog
	catalogLoaded bool
	promos        []domain.Promotion
	promosLoaded  bool
	summary       *domain.OrderSummary

	// accounted maps order-detail id to the quantity the current catalog
	// snapshot has already subtracted from reported stock. It equals the
	// line quantity after every successful reload and lags behind it only
	// while the snapshot is stale.
	accounted map[string]int

	gen uint64
}

func NewWizard(deps WizardDeps) *Wizard {
	return &Wizard{
		deps:      deps,
		step:      domain.StepCustomer,
		accounted: map[string]int{},
	}
}

func (w *Wizard) Step() domain.Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

func (w *Wizard) Generation() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.gen
}

// Draft returns a copy of the current draft.
func (w *Wizard) Draft() domain.OrderDraft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draftCopy()
}

func (w *Wizard) draftCopy() domain.OrderDraft {
	d := w.draft
	d.Lines = append([]domain.CartLine(nil), w.draft.Lines...)
	if w.draft.Promotion != nil {
		p := *w.draft.Promotion
		d.Promotion = &p
	}
	return d
}

// SetCustomerInfo stages the customer fields locally. Validation happens on
// Advance so partially typed forms never trigger network calls.
func (w *Wizard) SetCustomerInfo(name, phone, email string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.Customer = domain.CustomerInfo{
		Name:  strings.TrimSpace(name),
		Phone: strings.TrimSpace(phone),
		Email: strings.ToLower(strings.TrimSpace(email)),
	}
}

// LookupCustomer binds an existing directory record by phone and fills the
// form from it, so confirming the step updates that record instead of
// creating a duplicate.
func (w *Wizard) LookupCustomer(ctx context.Context, phone string) (*domain.Customer, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := strings.TrimSpace(phone)
	if p == "" {
		return nil, domain.Invalid("phone", "required")
	}
	c, err := w.deps.Customers.FindByPhone(ctx, p)
	if err != nil {
		return nil, err
	}
	w.draft.CustomerID = c.ID
	w.draft.Customer = domain.CustomerInfo{Name: c.Name, Phone: c.Phone, Email: c.Email}
	return c, nil
}

func validateCustomer(c domain.CustomerInfo) error {
	if strings.TrimSpace(c.Name) == "" {
		return domain.Invalid("name", "required")
	}
	if strings.TrimSpace(c.Phone) == "" {
		return domain.Invalid("phone", "required")
	}
	if !phoneRe.MatchString(strings.ReplaceAll(c.Phone, " ", "")) {
		return domain.Invalid("phone", "malformed")
	}
	if strings.TrimSpace(c.Email) == "" {
		return domain.Invalid("email", "required")
	}
	if !emailRe.MatchString(c.Email) {
		return domain.Invalid("email", "malformed")
	}
	return nil
}

// CanAdvance reports whether the current step's guard passes. It issues no
// network calls.
func (w *Wizard) CanAdvance() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.guard() == nil
}

func (w *Wizard) guard() error {
	switch w.step {
	case domain.StepCustomer:
		return validateCustomer(w.draft.Customer)
	case domain.StepVehicles:
		if len(w.draft.Lines) == 0 {
			return domain.Invalid("cart", "add at least one vehicle")
		}
	case domain.StepPromotion, domain.StepPayment:
		// promotion is optional; only one payment method exists
	case domain.StepConfirm:
		return domain.Invalid("step", "already at confirmation")
	}
	return nil
}

// Advance moves one step forward. The guard runs first and fails without
// touching the network; exit and entry side effects follow, and the visible
// step changes only after the whole chain succeeds.
func (w *Wizard) Advance(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.guard(); err != nil {
		return err
	}

	switch w.step {
	case domain.StepCustomer:
		if err := w.bindCustomer(ctx); err != nil {
			return err
		}
		if err := w.ensureOrder(ctx); err != nil {
			return err
		}
	case domain.StepPromotion:
		// leaving without picking one is an explicit "no promotion"
		w.draft.PromotionDecided = true
	case domain.StepPayment:
		// re-assert before advancing; the confirmation screen must reflect
		// the method the server actually holds
		if w.draft.OrderID == "" {
			return domain.ErrNoOrder
		}
		if err := w.deps.Orders.SetPaymentMethod(ctx, w.draft.OrderID, domain.PaymentFullUpfront); err != nil {
			return err
		}
		w.draft.PaymentMethod = domain.PaymentFullUpfront
	}

	if err := w.enter(ctx, w.step+1); err != nil {
		return err
	}
	w.step++
	w.deps.Log.Debug().Str("step", w.step.String()).Str("order_id", w.draft.OrderID).Msg("wizard advanced")
	return nil
}

// Back moves to an earlier step. Server-side state committed so far is kept;
// a drafted order persists across navigation.
func (w *Wizard) Back(ctx context.Context, to domain.Step) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !to.Valid() {
		return domain.Invalid("step", "unknown step")
	}
	if to >= w.step {
		return domain.Invalid("step", "cannot skip forward")
	}
	w.step = to
	return nil
}

// enter runs the entry action for a step. Failures abort the transition,
// except the idempotent payment re-assert which only degrades to a warning
// since leaving the payment step re-asserts it again with a hard failure.
func (w *Wizard) enter(ctx context.Context, step domain.Step) error {
	switch step {
	case domain.StepVehicles:
		if !w.catalogLoaded {
			if err := w.loadCatalog(ctx); err != nil {
				return err
			}
		}
	case domain.StepPromotion:
		if !w.promosLoaded {
			if err := w.loadPromotions(ctx); err != nil {
				return err
			}
		}
	case domain.StepPayment:
		if w.draft.OrderID == "" {
			return domain.ErrNoOrder
		}
		if err := w.deps.Orders.SetPaymentMethod(ctx, w.draft.OrderID, domain.PaymentFullUpfront); err != nil {
			w.deps.Log.Warn().Err(err).Str("order_id", w.draft.OrderID).Msg("payment method pre-set failed")
			w.notify("could not record payment method yet, it will be retried on confirm", domain.NotifyWarning)
		} else {
			w.draft.PaymentMethod = domain.PaymentFullUpfront
		}
	case domain.StepConfirm:
		sum, err := w.deps.Orders.GetSummary(ctx, w.draft.OrderID)
		if err != nil {
			return fmt.Errorf("load order summary: %w", err)
		}
		w.summary = sum
	}
	return nil
}

func (w *Wizard) bindCustomer(ctx context.Context) error {
	c := w.draft.Customer
	if w.draft.CustomerID == "" {
		id, err := w.deps.Customers.Create(ctx, c.Name, c.Phone, c.Email)
		if err != nil {
			return err
		}
		w.draft.CustomerID = id
		return nil
	}
	_, err := w.deps.Customers.Update(ctx, w.draft.CustomerID, c.Name, c.Phone, c.Email)
	return err
}

func (w *Wizard) ensureOrder(ctx context.Context) error {
	if w.draft.OrderID != "" {
		return nil
	}
	id, err := w.deps.Orders.CreateDraft(ctx, w.draft.CustomerID)
	if err != nil {
		return err
	}
	w.draft.OrderID = id
	return nil
}

func (w *Wizard) loadCatalog(ctx context.Context) error {
	cat, err := w.deps.Catalog.List(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	w.catalog = cat
	w.catalogLoaded = true
	return nil
}

func (w *Wizard) loadPromotions(ctx context.Context) error {
	list, err := w.deps.Promotions.List(ctx, w.deps.DealerID)
	if err != nil {
		return fmt.Errorf("load promotions: %w", err)
	}
	w.promos = list
	w.promosLoaded = true
	return nil
}

// CatalogView returns the cached catalog, loading it on first use.
func (w *Wizard) CatalogView(ctx context.Context) (domain.Catalog, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.catalogLoaded {
		if err := w.loadCatalog(ctx); err != nil {
			return nil, err
		}
	}
	return append(domain.Catalog(nil), w.catalog...), nil
}

// PromotionList returns the dealer's promotions, cached after the first
// fetch unless a reload is forced.
func (w *Wizard) PromotionList(ctx context.Context, force bool) ([]domain.Promotion, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.promosLoaded || force {
		if err := w.loadPromotions(ctx); err != nil {
			return nil, err
		}
	}
	return append([]domain.Promotion(nil), w.promos...), nil
}

// SelectPromotion applies an active promotion to the order. Selecting an
// inactive one is rejected: the local selection reverts to "no promotion"
// and the server is told to clear any previously applied one.
func (w *Wizard) SelectPromotion(ctx context.Context, promotionID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.draft.OrderID == "" {
		return domain.ErrNoOrder
	}
	if !w.promosLoaded {
		if err := w.loadPromotions(ctx); err != nil {
			return err
		}
	}
	var found *domain.Promotion
	for i := range w.promos {
		if w.promos[i].ID == promotionID {
			found = &w.promos[i]
			break
		}
	}
	if found == nil {
		return fmt.Errorf("promotion %s: %w", promotionID, domain.ErrNotFound)
	}
	if !found.Active() {
		if err := w.deps.Orders.SetPromotion(ctx, w.draft.OrderID, nil); err != nil {
			return err
		}
		w.draft.Promotion = nil
		w.draft.PromotionDecided = true
		return domain.ErrInactivePromotion
	}
	if err := w.deps.Orders.SetPromotion(ctx, w.draft.OrderID, &found.ID); err != nil {
		return err
	}
	p := *found
	w.draft.Promotion = &p
	w.draft.PromotionDecided = true
	return nil
}

// ClearPromotion records an explicit "no discount" decision.
func (w *Wizard) ClearPromotion(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.draft.OrderID == "" {
		return domain.ErrNoOrder
	}
	if err := w.deps.Orders.SetPromotion(ctx, w.draft.OrderID, nil); err != nil {
		return err
	}
	w.draft.Promotion = nil
	w.draft.PromotionDecided = true
	return nil
}

// Summary returns the server's confirmation projection, fetching it if the
// confirmation step has not been entered yet.
func (w *Wizard) Summary(ctx context.Context) (*domain.OrderSummary, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.draft.OrderID == "" {
		return nil, domain.ErrNoOrder
	}
	if w.summary == nil {
		sum, err := w.deps.Orders.GetSummary(ctx, w.draft.OrderID)
		if err != nil {
			return nil, err
		}
		w.summary = sum
	}
	s := *w.summary
	return &s, nil
}

// Submit re-validates every precondition, moves the order out of its draft
// state, and resets the wizard to a fresh draft at step one. Edits after
// this point belong to the order-management surface, not the wizard.
func (w *Wizard) Submit(ctx context.Context) (*domain.OrderSummary, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := validateCustomer(w.draft.Customer); err != nil {
		return nil, err
	}
	if len(w.draft.Lines) == 0 {
		return nil, domain.Invalid("cart", "add at least one vehicle")
	}
	if w.draft.PaymentMethod == "" {
		return nil, domain.Invalid("payment", "payment method not set")
	}
	if w.draft.OrderID == "" {
		return nil, domain.ErrNoOrder
	}

	if err := w.deps.Orders.SetStatus(ctx, w.draft.OrderID, domain.OrderStatusAwaitingPay); err != nil {
		return nil, err
	}

	sum := w.summary
	if sum == nil {
		if s, err := w.deps.Orders.GetSummary(ctx, w.draft.OrderID); err == nil {
			sum = s
		}
	}
	w.deps.Log.Info().Str("order_id", w.draft.OrderID).Msg("order submitted")
	w.notify("order submitted, awaiting payment", domain.NotifyInfo)
	w.reset()
	return sum, nil
}

// Reset discards the draft and returns to step one. Catalog and promotion
// caches survive; they belong to the session, not the draft.
func (w *Wizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reset()
}

func (w *Wizard) reset() {
	w.gen++
	w.draft = domain.OrderDraft{}
	w.summary = nil
	w.accounted = map[string]int{}
	w.step = domain.StepCustomer
}

func (w *Wizard) notify(msg string, level domain.NotifyLevel) {
	if w.deps.Notifier != nil {
		w.deps.Notifier.Notify(msg, level)
	}
}

// Err helpers shared by the transport layer.

// UserMessage maps an error to the inline message shown next to the step.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case domain.IsValidation(err):
		return err.Error()
	case errors.Is(err, domain.ErrOutOfStock):
		return "not enough stock for the requested quantity"
	case errors.Is(err, domain.ErrDuplicateCustomer):
		return "a customer with this phone or email already exists"
	case errors.Is(err, domain.ErrInactivePromotion):
		return "this promotion is inactive and was not applied"
	case errors.Is(err, domain.ErrUnauthorized):
		return "your session expired, please sign in again"
	case errors.Is(err, domain.ErrNotFound):
		return "record not found"
	case errors.Is(err, domain.ErrUnavailable):
		return "temporary service problem, please retry"
	}
	return "unexpected error, please retry"
}
