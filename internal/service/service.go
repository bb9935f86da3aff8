package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"zirng/backend/internal/cache"
	"zirng/backend/internal/cart"
	"zirng/backend/internal/domain"
	"zirng/backend/internal/store"
	"zirng/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// UnassignedLoanError reports a settlement that would produce a loan with no
// customer bound to the cart. It is raised before any state mutation; the
// caller either binds a customer and retries, or settles again with the
// explicit walk-away override.
type UnassignedLoanError struct {
	Total int64
	Loan  int64
}

func (e *UnassignedLoanError) Error() string {
	return fmt.Sprintf("loan of %d requires an assigned customer (total %d)", e.Loan, e.Total)
}

const catalogCacheKey = "catalog:products"

// Service is the ledger engine: it settles carts into transactions, routes
// every customer-balance mutation, records cash transfers, and derives
// statistics from the logs. All state lives in the repository; the service
// itself holds only configuration.
type Service struct {
	repo                 store.Repository
	catalogCache         cache.CatalogCache
	catalogTTL           time.Duration
	online               func() bool
	cashOutFromTransfers bool
}

func New(repo store.Repository, catalogCache cache.CatalogCache, catalogTTL time.Duration) *Service {
	if catalogCache == nil {
		catalogCache = cache.NoopCatalogCache{}
	}
	if catalogTTL <= 0 {
		catalogTTL = 30 * time.Second
	}

	return &Service{
		repo:         repo,
		catalogCache: catalogCache,
		catalogTTL:   catalogTTL,
		online:       func() bool { return true },
	}
}

// SetConnectivityProbe injects the online/offline check used to stamp the
// informational synced flag. Connectivity never blocks or alters settlement.
func (s *Service) SetConnectivityProbe(probe func() bool) {
	if probe != nil {
		s.online = probe
	}
}

// AggregateCashOutFromTransfers switches daily/range cash-out from the
// historical constant zero to a sum over withdrawal transfers in the period.
func (s *Service) AggregateCashOutFromTransfers(enabled bool) {
	s.cashOutFromTransfers = enabled
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if cached, ok, err := s.catalogCache.Get(ctx, catalogCacheKey); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Printf("[service] WARN: catalog cache read failed: %v", err)
	}

	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.catalogCache.Set(ctx, catalogCacheKey, products, s.catalogTTL); err != nil {
		log.Printf("[service] WARN: catalog cache write failed: %v", err)
	}
	return products, nil
}

// BuildCart assembles a checkout cart from request lines, resolving each
// product against the catalog and optionally binding a customer. Unknown
// product or customer ids fail the whole build with store.ErrNotFound.
func (s *Service) BuildCart(ctx context.Context, lines []domain.CheckoutLine, customerID string) (*cart.Cart, error) {
	if len(lines) == 0 {
		return nil, store.ErrInvalidTransaction
	}

	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	products, err := s.repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	c := cart.New()
	for _, line := range lines {
		product, exists := products[line.ProductID]
		if !exists {
			return nil, fmt.Errorf("%w: product %s", store.ErrNotFound, line.ProductID)
		}
		if line.Quantity < 1 {
			return nil, store.ErrInvalidTransaction
		}
		if line.Discount < 0 {
			return nil, store.ErrInvalidTransaction
		}
		c.AddProduct(product)
		c.SetQuantity(product.ID, line.Quantity)
		if line.Discount > 0 {
			c.SetDiscount(product.ID, line.Discount)
		}
	}

	if customerID != "" {
		customer, err := s.repo.GetCustomerByID(ctx, customerID)
		if err != nil {
			return nil, err
		}
		c.BindCustomer(customer)
	}

	return c, nil
}

// Settle finalizes a cart into a transaction. The sequence — totals, change
// and loan derivation, unassigned-loan check, log append plus balance
// mutation — is atomic from the caller's view: it either fully completes or
// leaves no trace. The caller is responsible for clearing the cart afterwards.
func (s *Service) Settle(ctx context.Context, c *cart.Cart, paid int64, note string, allowUnassignedLoan bool) (domain.Transaction, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Transaction{}, fmt.Errorf("cashier identity required")
	}
	if c == nil || c.Empty() {
		return domain.Transaction{}, store.ErrInvalidTransaction
	}
	if paid < 0 {
		// A negative payment behaves like zero: the whole total becomes a loan.
		paid = 0
	}

	totals := c.Totals()
	change := paid - totals.Total
	if change < 0 {
		change = 0
	}
	loan := totals.Total - paid
	if loan < 0 {
		loan = 0
	}

	customer := c.Customer()
	if loan > 0 && customer == nil && !allowUnassignedLoan {
		return domain.Transaction{}, &UnassignedLoanError{Total: totals.Total, Loan: loan}
	}

	tx := domain.Transaction{
		ID:          xid.New("tx"),
		Items:       c.Lines(),
		Subtotal:    totals.Subtotal,
		Discount:    totals.Discount,
		Total:       totals.Total,
		Paid:        paid,
		Change:      change,
		Loan:        loan,
		CashierID:   actor.ID,
		CashierName: actor.Name,
		Note:        strings.TrimSpace(note),
		CreatedAt:   time.Now().UTC(),
		Synced:      s.online(),
	}
	if customer != nil {
		tx.CustomerID = customer.ID
		tx.CustomerName = customer.Name
	}

	created, err := s.repo.CreateSale(ctx, tx)
	if err != nil {
		return domain.Transaction{}, err
	}

	log.Printf("[service] settled tx=%s total=%d paid=%d change=%d loan=%d customer=%s", created.ID, created.Total, created.Paid, created.Change, created.Loan, created.CustomerID)
	return *created, nil
}

// RecordTransfer appends a cash movement between role holders. The engine
// records exactly the identities it is given; choosing the destination (for
// example "first active accountant") is the caller's policy.
func (s *Service) RecordTransfer(ctx context.Context, from domain.Actor, to domain.Actor, amount int64, kind string) (domain.CashTransfer, error) {
	if amount <= 0 {
		return domain.CashTransfer{}, store.ErrInvalidAmount
	}
	if kind != domain.TransferCashierToAccountant && kind != domain.TransferWithdrawal {
		return domain.CashTransfer{}, store.ErrInvalidTransaction
	}
	if from.ID == "" || to.ID == "" {
		return domain.CashTransfer{}, store.ErrInvalidTransaction
	}

	transfer := domain.CashTransfer{
		ID:           xid.New("transfer"),
		FromUserID:   from.ID,
		FromUserName: from.Name,
		ToUserID:     to.ID,
		ToUserName:   to.Name,
		Amount:       amount,
		Kind:         kind,
		CreatedAt:    time.Now().UTC(),
		Synced:       s.online(),
	}

	created, err := s.repo.CreateTransfer(ctx, transfer)
	if err != nil {
		return domain.CashTransfer{}, err
	}

	log.Printf("[service] transfer id=%s kind=%s amount=%d from=%s to=%s", created.ID, created.Kind, created.Amount, created.FromUserID, created.ToUserID)
	return *created, nil
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (domain.Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" {
		return domain.Customer{}, store.ErrInvalidTransaction
	}

	customer := domain.Customer{
		ID:        xid.New("cust"),
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		Balance:   req.Balance,
		CreatedAt: time.Now().UTC(),
	}

	created, err := s.repo.CreateCustomer(ctx, customer)
	if err != nil {
		return domain.Customer{}, err
	}
	return *created, nil
}

// UpdateCustomerContact edits a customer's contact details. Balance only moves
// through ApplyLoan during settlement, never through an edit.
func (s *Service) UpdateCustomerContact(ctx context.Context, id string, req domain.CustomerUpdateRequest) (domain.Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" {
		return domain.Customer{}, store.ErrInvalidTransaction
	}

	updated, err := s.repo.UpdateCustomerContact(ctx, id, req)
	if err != nil {
		return domain.Customer{}, err
	}
	return *updated, nil
}

func (s *Service) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	customer, err := s.repo.GetCustomerByID(ctx, id)
	if err != nil {
		return domain.Customer{}, err
	}
	return *customer, nil
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

// OutstandingLoans sums the debt side of every customer balance (the absolute
// value of negative balances), as shown on the financial dashboard.
func (s *Service) OutstandingLoans(ctx context.Context) (int64, error) {
	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return 0, err
	}
	total := int64(0)
	for _, c := range customers {
		if c.Balance < 0 {
			total += -c.Balance
		}
	}
	return total, nil
}

func (s *Service) ListTransactions(ctx context.Context, limit int) ([]domain.Transaction, error) {
	if limit < 1 {
		limit = 100
	}
	return s.repo.ListTransactions(ctx, limit)
}

func (s *Service) ListTransfers(ctx context.Context, limit int) ([]domain.CashTransfer, error) {
	if limit < 1 {
		limit = 100
	}
	return s.repo.ListTransfers(ctx, limit)
}
