package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"po-manager/internal/models"
	"po-manager/internal/store"

	"github.com/shopspring/decimal"
)

type memoryState struct {
	nextID    int64
	suppliers map[int64]models.Supplier
	users     map[int64]models.User
	orders    map[int64]models.PurchaseOrder
	items     map[int64][]models.LineItem
	payments  map[int64]models.Payment
	audit     []models.AuditLog
}

func (s *memoryState) clone() *memoryState {
	c := &memoryState{
		nextID:    s.nextID,
		suppliers: make(map[int64]models.Supplier, len(s.suppliers)),
		users:     make(map[int64]models.User, len(s.users)),
		orders:    make(map[int64]models.PurchaseOrder, len(s.orders)),
		items:     make(map[int64][]models.LineItem, len(s.items)),
		payments:  make(map[int64]models.Payment, len(s.payments)),
		audit:     append([]models.AuditLog(nil), s.audit...),
	}
	for k, v := range s.suppliers {
		c.suppliers[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.items {
		c.items[k] = append([]models.LineItem(nil), v...)
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	return c
}

// memoryRepo is an in-memory Repository. Transactions are serialized and
// rolled back by restoring a snapshot.
type memoryRepo struct {
	txMu  sync.Mutex
	state *memoryState

	// failLineItemAt makes the nth CreateLineItem call (1-based) fail
	failLineItemAt int
	lineItemCalls  int
	// orderNumberConflicts makes the next n CreateOrder calls report a taken number
	orderNumberConflicts int
	createOrderCalls     int
	// lockedSuppliers records LockSupplier calls
	lockedSuppliers []int64
}

var _ Repository = (*memoryRepo)(nil)

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{state: (&memoryState{}).clone()}
}

func (r *memoryRepo) id() int64 {
	r.state.nextID++
	return r.state.nextID
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(ctx context.Context, q store.Querier) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	snapshot := r.state.clone()
	if err := fn(ctx, r); err != nil {
		r.state = snapshot
		return err
	}
	if err := ctx.Err(); err != nil {
		r.state = snapshot
		return err
	}
	return nil
}

func (r *memoryRepo) seedSupplier(name, email string) models.Supplier {
	s := models.Supplier{ID: r.id(), Name: name, Email: email, CreatedAt: time.Now()}
	r.state.suppliers[s.ID] = s
	return s
}

func (r *memoryRepo) seedUser(username, email string) models.User {
	u := models.User{ID: r.id(), Username: username, Email: email, CreatedAt: time.Now()}
	r.state.users[u.ID] = u
	return u
}

func (r *memoryRepo) seedOrder(supplierID, createdBy int64, number string, status models.OrderStatus, total string) models.PurchaseOrder {
	o := models.PurchaseOrder{
		ID:          r.id(),
		OrderNumber: number,
		SupplierID:  supplierID,
		CreatedBy:   createdBy,
		OrderDate:   time.Now(),
		Status:      status,
		TotalAmount: decimal.RequireFromString(total),
		Version:     1,
	}
	r.state.orders[o.ID] = o
	return o
}

func (r *memoryRepo) seedPayment(orderID int64, amount string, status models.PaymentStatus) models.Payment {
	p := models.Payment{
		ID:          r.id(),
		OrderID:     orderID,
		Amount:      decimal.RequireFromString(amount),
		Method:      models.PaymentMethodBankTransfer,
		Status:      status,
		PaymentDate: time.Now(),
	}
	r.state.payments[p.ID] = p
	return p
}

func (r *memoryRepo) CreateSupplier(_ context.Context, supplier *models.Supplier) error {
	for _, s := range r.state.suppliers {
		if s.Email == supplier.Email {
			return &models.DuplicateError{Field: "email"}
		}
	}
	supplier.ID = r.id()
	supplier.CreatedAt = time.Now()
	r.state.suppliers[supplier.ID] = *supplier
	return nil
}

func (r *memoryRepo) GetSupplier(_ context.Context, id int64) (*models.Supplier, error) {
	s, ok := r.state.suppliers[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "supplier", ID: id}
	}
	return &s, nil
}

func (r *memoryRepo) LockSupplier(ctx context.Context, id int64) (*models.Supplier, error) {
	r.lockedSuppliers = append(r.lockedSuppliers, id)
	return r.GetSupplier(ctx, id)
}

func (r *memoryRepo) ListSuppliers(_ context.Context) ([]models.Supplier, error) {
	out := []models.Supplier{}
	for _, s := range r.state.suppliers {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memoryRepo) UpdateSupplier(_ context.Context, supplier *models.Supplier) error {
	if _, ok := r.state.suppliers[supplier.ID]; !ok {
		return &models.NotFoundError{Entity: "supplier", ID: supplier.ID}
	}
	for _, s := range r.state.suppliers {
		if s.ID != supplier.ID && s.Email == supplier.Email {
			return &models.DuplicateError{Field: "email"}
		}
	}
	r.state.suppliers[supplier.ID] = *supplier
	return nil
}

func (r *memoryRepo) DeleteSupplier(_ context.Context, id int64) error {
	if _, ok := r.state.suppliers[id]; !ok {
		return &models.NotFoundError{Entity: "supplier", ID: id}
	}
	delete(r.state.suppliers, id)
	return nil
}

func (r *memoryRepo) CountOrdersBySupplier(_ context.Context, supplierID int64) (int, error) {
	n := 0
	for _, o := range r.state.orders {
		if o.SupplierID == supplierID {
			n++
		}
	}
	return n, nil
}

func (r *memoryRepo) CreateUser(_ context.Context, user *models.User) error {
	for _, u := range r.state.users {
		if u.Username == user.Username {
			return &models.DuplicateError{Field: "username"}
		}
		if u.Email == user.Email {
			return &models.DuplicateError{Field: "email"}
		}
	}
	user.ID = r.id()
	user.CreatedAt = time.Now()
	r.state.users[user.ID] = *user
	return nil
}

func (r *memoryRepo) GetUser(_ context.Context, id int64) (*models.User, error) {
	u, ok := r.state.users[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "user", ID: id}
	}
	return &u, nil
}

func (r *memoryRepo) LockUser(ctx context.Context, id int64) (*models.User, error) {
	return r.GetUser(ctx, id)
}

func (r *memoryRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.state.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *memoryRepo) ListUsers(_ context.Context) ([]models.User, error) {
	out := []models.User{}
	for _, u := range r.state.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryRepo) UpdateUser(_ context.Context, user *models.User) error {
	if _, ok := r.state.users[user.ID]; !ok {
		return &models.NotFoundError{Entity: "user", ID: user.ID}
	}
	for _, u := range r.state.users {
		if u.ID == user.ID {
			continue
		}
		if u.Username == user.Username {
			return &models.DuplicateError{Field: "username"}
		}
		if u.Email == user.Email {
			return &models.DuplicateError{Field: "email"}
		}
	}
	r.state.users[user.ID] = *user
	return nil
}

func (r *memoryRepo) DeleteUser(_ context.Context, id int64) error {
	if _, ok := r.state.users[id]; !ok {
		return &models.NotFoundError{Entity: "user", ID: id}
	}
	delete(r.state.users, id)
	return nil
}

func (r *memoryRepo) CountOrdersByUser(_ context.Context, userID int64) (int, error) {
	n := 0
	for _, o := range r.state.orders {
		if o.CreatedBy == userID {
			n++
		}
	}
	return n, nil
}

func (r *memoryRepo) LockOrderSequence(_ context.Context, _ string) error {
	return nil
}

func (r *memoryRepo) LastOrderNumber(_ context.Context, prefix string) (string, error) {
	last := ""
	for _, o := range r.state.orders {
		if strings.HasPrefix(o.OrderNumber, prefix) && o.OrderNumber > last {
			last = o.OrderNumber
		}
	}
	return last, nil
}

func (r *memoryRepo) CreateOrder(_ context.Context, order *models.PurchaseOrder) error {
	r.createOrderCalls++
	if r.orderNumberConflicts > 0 {
		r.orderNumberConflicts--
		return &models.DuplicateError{Field: "order_number"}
	}
	for _, o := range r.state.orders {
		if o.OrderNumber == order.OrderNumber {
			return &models.DuplicateError{Field: "order_number"}
		}
	}
	order.ID = r.id()
	order.OrderDate = time.Now()
	order.UpdatedAt = order.OrderDate
	order.Version = 1
	r.state.orders[order.ID] = *order
	return nil
}

func (r *memoryRepo) CreateLineItem(_ context.Context, item *models.LineItem) error {
	r.lineItemCalls++
	if r.failLineItemAt > 0 && r.lineItemCalls == r.failLineItemAt {
		return errors.New("line item insert failed")
	}
	if _, ok := r.state.orders[item.OrderID]; !ok {
		return &models.NotFoundError{Entity: "purchase order", ID: item.OrderID}
	}
	item.ID = r.id()
	r.state.items[item.OrderID] = append(r.state.items[item.OrderID], *item)
	return nil
}

func (r *memoryRepo) GetOrder(_ context.Context, id int64) (*models.PurchaseOrder, error) {
	o, ok := r.state.orders[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "purchase order", ID: id}
	}
	if s, ok := r.state.suppliers[o.SupplierID]; ok {
		o.SupplierName = s.Name
	}
	return &o, nil
}

func (r *memoryRepo) LockOrder(ctx context.Context, id int64) (*models.PurchaseOrder, error) {
	return r.GetOrder(ctx, id)
}

func (r *memoryRepo) ListOrders(ctx context.Context) ([]models.PurchaseOrder, error) {
	out := []models.PurchaseOrder{}
	for id := range r.state.orders {
		o, _ := r.GetOrder(ctx, id)
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memoryRepo) GetLineItems(_ context.Context, orderID int64) ([]models.LineItem, error) {
	return append([]models.LineItem{}, r.state.items[orderID]...), nil
}

func (r *memoryRepo) UpdateOrderStatus(_ context.Context, id int64, status models.OrderStatus) error {
	o, ok := r.state.orders[id]
	if !ok {
		return &models.NotFoundError{Entity: "purchase order", ID: id}
	}
	o.Status = status
	o.Version++
	o.UpdatedAt = time.Now()
	r.state.orders[id] = o
	return nil
}

func (r *memoryRepo) DeleteOrder(_ context.Context, id int64) error {
	if _, ok := r.state.orders[id]; !ok {
		return &models.NotFoundError{Entity: "purchase order", ID: id}
	}
	delete(r.state.items, id)
	delete(r.state.orders, id)
	return nil
}

func (r *memoryRepo) CreatePayment(_ context.Context, payment *models.Payment) error {
	if _, ok := r.state.orders[payment.OrderID]; !ok {
		return &models.NotFoundError{Entity: "purchase order", ID: payment.OrderID}
	}
	payment.ID = r.id()
	payment.PaymentDate = time.Now()
	payment.UpdatedAt = payment.PaymentDate
	r.state.payments[payment.ID] = *payment
	return nil
}

func (r *memoryRepo) GetPayment(_ context.Context, id int64) (*models.Payment, error) {
	p, ok := r.state.payments[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "payment", ID: id}
	}
	return &p, nil
}

func (r *memoryRepo) ListPayments(_ context.Context, orderID int64) ([]models.Payment, error) {
	out := []models.Payment{}
	for _, p := range r.state.payments {
		if orderID == 0 || p.OrderID == orderID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryRepo) CountPayments(_ context.Context, orderID int64) (int, error) {
	n := 0
	for _, p := range r.state.payments {
		if p.OrderID == orderID {
			n++
		}
	}
	return n, nil
}

func (r *memoryRepo) SumPaidPayments(_ context.Context, orderID, excludePaymentID int64) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range r.state.payments {
		if p.OrderID == orderID && p.ID != excludePaymentID && p.Status == models.PaymentStatusPaid {
			sum = sum.Add(p.Amount)
		}
	}
	return sum, nil
}

func (r *memoryRepo) UpdatePaymentStatus(_ context.Context, id int64, status models.PaymentStatus) error {
	p, ok := r.state.payments[id]
	if !ok {
		return &models.NotFoundError{Entity: "payment", ID: id}
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	r.state.payments[id] = p
	return nil
}

func (r *memoryRepo) CreateAuditLog(_ context.Context, entry *models.AuditLog) error {
	for _, a := range r.state.audit {
		if a.EventID == entry.EventID {
			return nil
		}
	}
	entry.ID = r.id()
	r.state.audit = append(r.state.audit, *entry)
	return nil
}

func (r *memoryRepo) ListAuditLogs(_ context.Context, limit int) ([]models.AuditLog, error) {
	out := []models.AuditLog{}
	for i := len(r.state.audit) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.state.audit[i])
	}
	return out, nil
}

func (r *memoryRepo) DashboardStats(_ context.Context, since time.Time) (*models.DashboardStats, decimal.Decimal, error) {
	stats := &models.DashboardStats{
		TotalSuppliers:  len(r.state.suppliers),
		TotalSpent:      decimal.Zero,
		MonthlySpending: []models.MonthlySpending{},
		TopSuppliers:    []models.TopSupplier{},
	}
	committed := decimal.Zero
	for _, o := range r.state.orders {
		stats.TotalPurchaseOrders++
		if o.Status == models.OrderStatusPending {
			stats.PendingPurchaseOrders++
		}
		if o.Status != models.OrderStatusCancelled {
			committed = committed.Add(o.TotalAmount)
		}
	}
	for _, p := range r.state.payments {
		if p.Status == models.PaymentStatusPaid {
			stats.TotalSpent = stats.TotalSpent.Add(p.Amount)
		}
	}
	return stats, committed, nil
}

// fakePublisher records published events
type fakePublisher struct {
	mu     sync.Mutex
	events []interface{}
	err    error
}

func (p *fakePublisher) record(event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *fakePublisher) PublishOrderEvent(_ context.Context, _ int64, event interface{}) error {
	return p.record(event)
}

func (p *fakePublisher) PublishSupplierEvent(_ context.Context, _ int64, event interface{}) error {
	return p.record(event)
}

func (p *fakePublisher) PublishUserEvent(_ context.Context, _ int64, event interface{}) error {
	return p.record(event)
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// memoryIdempotency is an IdempotencyStore backed by a map
type memoryIdempotency struct {
	mu      sync.Mutex
	results map[string]int64
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{results: make(map[string]int64)}
}

func (m *memoryIdempotency) GetIdempotentResult(_ context.Context, scope, key string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.results[scope+":"+key]
	return id, ok, nil
}

func (m *memoryIdempotency) SetIdempotentResult(_ context.Context, scope, key string, id int64, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.results[scope+":"+key]; !ok {
		m.results[scope+":"+key] = id
	}
	return nil
}
