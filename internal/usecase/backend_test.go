package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/evdms/dealer-console/internal/domain"
)

// fakeBackend implements every upstream port with real stock accounting,
// so tests exercise the wizard against server semantics: reported stock
// excludes committed lines, adds fail when stock runs out, removals
// restore it.

type vehicleKey struct{ model, variant, color string }

type fakeLine struct {
	id    string
	key   vehicleKey
	qty   int
	price float64
}

type fakeOrder struct {
	id         string
	customerID string
	status     domain.OrderStatus
	lines      []*fakeLine
	promotion  *domain.Promotion
	payment    domain.PaymentMethod
}

type fakeBackend struct {
	mu sync.Mutex

	customers map[string]domain.Customer
	orders    map[string]*fakeOrder
	stock     map[vehicleKey]int
	price     map[vehicleKey]float64
	promos    []domain.Promotion

	seq   int
	calls map[string]int
	// failOn forces the named operation to return an error
	failOn map[string]error

	// opDelay stretches AddLine and ListCatalog so overlap detection has
	// a window to observe interleaving; inFlight counts operations inside
	// that window
	opDelay  time.Duration
	inFlight int
	overlap  bool

	notices []string
}

func (f *fakeBackend) slowEnter() {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > 1 {
		f.overlap = true
	}
	f.mu.Unlock()
	time.Sleep(f.opDelay)
}

func (f *fakeBackend) slowExit() {
	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		customers: map[string]domain.Customer{},
		orders:    map[string]*fakeOrder{},
		stock:     map[vehicleKey]int{},
		price:     map[vehicleKey]float64{},
		calls:     map[string]int{},
		failOn:    map[string]error{},
	}
}

func (f *fakeBackend) addStock(model, variant, color string, qty int, price float64) {
	f.stock[vehicleKey{model, variant, color}] = qty
	f.price[vehicleKey{model, variant, color}] = price
}

func (f *fakeBackend) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeBackend) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeBackend) enter(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	if err := f.failOn[op]; err != nil {
		return err
	}
	return nil
}

func (f *fakeBackend) nextID(prefix string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

// --- CustomerDirectory ---

func (f *fakeBackend) FindByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	if err := f.enter("FindByPhone"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.customers {
		if c.Phone == phone {
			cc := c
			return &cc, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeBackend) Create(ctx context.Context, name, phone, email string) (string, error) {
	if err := f.enter("CreateCustomer"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.customers {
		if c.Phone == phone || c.Email == email {
			return "", domain.ErrDuplicateCustomer
		}
	}
	f.seq++
	id := fmt.Sprintf("cust-%d", f.seq)
	f.customers[id] = domain.Customer{ID: id, Name: name, Phone: phone, Email: email}
	return id, nil
}

func (f *fakeBackend) Update(ctx context.Context, id, name, phone, email string) (*domain.Customer, error) {
	if err := f.enter("UpdateCustomer"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.customers[id]; !ok {
		return nil, domain.ErrNotFound
	}
	c := domain.Customer{ID: id, Name: name, Phone: phone, Email: email}
	f.customers[id] = c
	return &c, nil
}

// --- OrderService ---

func (f *fakeBackend) CreateDraft(ctx context.Context, customerID string) (string, error) {
	if err := f.enter("CreateDraft"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	id := fmt.Sprintf("order-%d", f.seq)
	f.orders[id] = &fakeOrder{id: id, customerID: customerID, status: domain.OrderStatusDraft}
	return id, nil
}

func (f *fakeBackend) AddLine(ctx context.Context, orderID, model, variant, color string, quantity int) (string, error) {
	if err := f.enter("AddLine"); err != nil {
		return "", err
	}
	f.slowEnter()
	defer f.slowExit()
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return "", domain.ErrNotFound
	}
	k := vehicleKey{model, variant, color}
	if f.stock[k] < quantity {
		return "", domain.ErrOutOfStock
	}
	f.stock[k] -= quantity
	f.seq++
	id := fmt.Sprintf("detail-%d", f.seq)
	o.lines = append(o.lines, &fakeLine{id: id, key: k, qty: quantity, price: f.price[k]})
	return id, nil
}

func (f *fakeBackend) findLine(orderDetailID string) (*fakeOrder, *fakeLine, int) {
	for _, o := range f.orders {
		for i, l := range o.lines {
			if l.id == orderDetailID {
				return o, l, i
			}
		}
	}
	return nil, nil, -1
}

func (f *fakeBackend) UpdateLineQuantity(ctx context.Context, orderDetailID string, quantity int) error {
	if err := f.enter("UpdateLineQuantity"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, l, idx := f.findLine(orderDetailID)
	if idx < 0 {
		return domain.ErrNotFound
	}
	delta := quantity - l.qty
	if f.stock[l.key] < delta {
		return domain.ErrOutOfStock
	}
	f.stock[l.key] -= delta
	l.qty = quantity
	return nil
}

func (f *fakeBackend) RemoveLine(ctx context.Context, orderDetailID string) error {
	if err := f.enter("RemoveLine"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	o, l, idx := f.findLine(orderDetailID)
	if idx < 0 {
		return domain.ErrNotFound
	}
	f.stock[l.key] += l.qty
	o.lines = append(o.lines[:idx], o.lines[idx+1:]...)
	return nil
}

func (f *fakeBackend) SetPromotion(ctx context.Context, orderID string, promotionID *string) error {
	if err := f.enter("SetPromotion"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	if promotionID == nil {
		o.promotion = nil
		return nil
	}
	for i := range f.promos {
		if f.promos[i].ID == *promotionID {
			if f.promos[i].Status != domain.PromotionActive {
				return domain.ErrInactivePromotion
			}
			p := f.promos[i]
			o.promotion = &p
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeBackend) SetPaymentMethod(ctx context.Context, orderID string, method domain.PaymentMethod) error {
	if err := f.enter("SetPaymentMethod"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	o.payment = method
	return nil
}

func (f *fakeBackend) SetStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	if err := f.enter("SetStatus"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	o.status = status
	return nil
}

func (f *fakeBackend) GetDetail(ctx context.Context, orderID string) (*domain.OrderDetail, error) {
	if err := f.enter("GetDetail"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cust := f.customers[o.customerID]
	det := &domain.OrderDetail{
		OrderID:       o.id,
		Status:        o.status,
		Customer:      cust,
		PaymentMethod: o.payment,
		CreatedAt:     time.Now(),
	}
	if o.promotion != nil {
		p := *o.promotion
		det.Promotion = &p
	}
	for _, l := range o.lines {
		det.Lines = append(det.Lines, domain.OrderDetailLine{
			OrderDetailID: l.id,
			ModelName:     l.key.model,
			VariantName:   l.key.variant,
			Color:         l.key.color,
			Quantity:      l.qty,
			UnitPrice:     l.price,
		})
	}
	return det, nil
}

func (f *fakeBackend) GetSummary(ctx context.Context, orderID string) (*domain.OrderSummary, error) {
	if err := f.enter("GetSummary"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	sum := &domain.OrderSummary{
		OrderID:       o.id,
		Customer:      f.customers[o.customerID],
		PaymentMethod: o.payment,
		Status:        o.status,
		OrderDate:     time.Now(),
	}
	for _, l := range o.lines {
		sum.Lines = append(sum.Lines, domain.SummaryLine{
			ModelName:   l.key.model,
			VariantName: l.key.variant,
			Color:       l.key.color,
			Quantity:    l.qty,
			UnitPrice:   l.price,
			LineTotal:   l.price * float64(l.qty),
		})
		sum.Subtotal += l.price * float64(l.qty)
	}
	sum.Discount = o.promotion.Discount(sum.Subtotal)
	sum.Total = sum.Subtotal - sum.Discount
	if sum.Total < 0 {
		sum.Total = 0
	}
	return sum, nil
}

// --- CatalogService ---

func (f *fakeBackend) List(ctx context.Context) (domain.Catalog, error) {
	if err := f.enter("ListCatalog"); err != nil {
		return nil, err
	}
	f.slowEnter()
	defer f.slowExit()
	f.mu.Lock()
	defer f.mu.Unlock()
	byVariant := map[[2]string][]domain.ColorOption{}
	for k, stock := range f.stock {
		byVariant[[2]string{k.model, k.variant}] = append(byVariant[[2]string{k.model, k.variant}], domain.ColorOption{
			Name:        k.color,
			DealerPrice: f.price[k],
			Stock:       stock,
		})
	}
	var cat domain.Catalog
	for mv, colors := range byVariant {
		cat = append(cat, domain.CatalogEntry{ModelName: mv[0], VariantName: mv[1], Colors: colors})
	}
	return cat, nil
}

// --- PromotionService ---

func (f *fakeBackend) ListPromotions(ctx context.Context, dealerID string) ([]domain.Promotion, error) {
	if err := f.enter("ListPromotions"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Promotion(nil), f.promos...), nil
}

// promoService adapts the backend to the PromotionService port name.
type promoService struct{ b *fakeBackend }

func (p promoService) List(ctx context.Context, dealerID string) ([]domain.Promotion, error) {
	return p.b.ListPromotions(ctx, dealerID)
}

// --- Notifier / AuthContext ---

func (f *fakeBackend) Notify(message string, level domain.NotifyLevel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, string(level)+": "+message)
}

type staticAuth struct{}

func (staticAuth) Token(ctx context.Context) (string, error) { return "test-token", nil }
func (staticAuth) CurrentUser() domain.User {
	return domain.User{ID: "u1", Name: "staff", Role: "dealer_staff", DealerID: "dealer-1"}
}

func testDeps(b *fakeBackend) WizardDeps {
	return WizardDeps{
		Customers:  b,
		Orders:     b,
		Catalog:    b,
		Promotions: promoService{b},
		Auth:       staticAuth{},
		Notifier:   b,
		DealerID:   "dealer-1",
		Log:        zerolog.Nop(),
	}
}

// reachVehicles drives a fresh wizard through the customer step.
func reachVehicles(t interface {
	Helper()
	Fatalf(string, ...any)
}, w *Wizard) {
	t.Helper()
	w.SetCustomerInfo("Nguyen Van A", "0901234567", "a@example.com")
	if err := w.Advance(context.Background()); err != nil {
		t.Fatalf("advance past customer step: %v", err)
	}
}
