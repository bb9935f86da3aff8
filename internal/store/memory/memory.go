package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"zirng/backend/internal/domain"
	"zirng/backend/internal/store"
	"zirng/backend/internal/xid"
)

// Store is the in-memory system of record. One RWMutex guards everything, so
// CreateSale's log append and balance mutation are a single atomic unit and
// settlements are globally serialized.
type Store struct {
	mu            sync.RWMutex
	products      map[string]domain.Product
	productOrder  []string
	customersByID map[string]domain.Customer
	transactions  []domain.Transaction
	transfers     []domain.CashTransfer
	usersByName   map[string]domain.UserAccount
}

// seedUsers builds the initial user directory for dev/demo mode. Credentials
// come from SEED_MANAGER_PASSWORD, SEED_ACCOUNTANT_PASSWORD and
// SEED_CASHIER_PASSWORD; hardcoded dev defaults are used with a warning when
// unset.
func seedUsers() map[string]domain.UserAccount {
	managerPwd := envOr("SEED_MANAGER_PASSWORD", "manager123")
	accountantPwd := envOr("SEED_ACCOUNTANT_PASSWORD", "accountant123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_MANAGER_PASSWORD") == "" || os.Getenv("SEED_ACCOUNTANT_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_*_PASSWORD variables to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		id       string
		username string
		name     string
		password string
		role     string
	}{
		{"user-1", "manager", "Ahmed Hassan", managerPwd, domain.RoleManager},
		{"user-2", "accountant", "Sara Ali", accountantPwd, domain.RoleAccountant},
		{"user-3", "cashier", "Omar Khalid", cashierPwd, domain.RoleCashier},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			ID:        u.id,
			Username:  u.username,
			Password:  string(hash),
			Name:      u.name,
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewSeeded returns a store preloaded with the demo catalog and customer book.
// Prices are in Iraqi dinars (no subunit).
func NewSeeded() *Store {
	products := []domain.Product{
		{ID: "prod-1", Name: "Coca Cola 330ml", NameKu: "کۆکا کۆلا ٣٣٠مل", NameAr: "كوكا كولا ٣٣٠مل", Price: 1500, Category: "Beverages", Stock: 100},
		{ID: "prod-2", Name: "Pepsi 330ml", NameKu: "پێپسی ٣٣٠مل", NameAr: "بيبسي ٣٣٠مل", Price: 1500, Category: "Beverages", Stock: 80},
		{ID: "prod-3", Name: "Water 500ml", NameKu: "ئاو ٥٠٠مل", NameAr: "ماء ٥٠٠مل", Price: 500, Category: "Beverages", Stock: 200},
		{ID: "prod-4", Name: "Chips Lays", NameKu: "چیپس لەیز", NameAr: "شيبس ليز", Price: 2000, Category: "Snacks", Stock: 50},
		{ID: "prod-5", Name: "Chocolate Bar", NameKu: "چۆکلێت", NameAr: "شوكولاتة", Price: 3000, Category: "Snacks", Stock: 40},
		{ID: "prod-6", Name: "Bread", NameKu: "نان", NameAr: "خبز", Price: 1000, Category: "Bakery", Stock: 30},
		{ID: "prod-7", Name: "Milk 1L", NameKu: "شیر ١ لیتر", NameAr: "حليب ١ لتر", Price: 2500, Category: "Dairy", Stock: 25},
		{ID: "prod-8", Name: "Eggs 12pc", NameKu: "هێلکە ١٢ دانە", NameAr: "بيض ١٢ حبة", Price: 5000, Category: "Dairy", Stock: 20},
		{ID: "prod-9", Name: "Rice 1kg", NameKu: "برنج ١ کیلۆ", NameAr: "أرز ١ كيلو", Price: 4000, Category: "Grocery", Stock: 60},
		{ID: "prod-10", Name: "Sugar 1kg", NameKu: "شەکر ١ کیلۆ", NameAr: "سكر ١ كيلو", Price: 2000, Category: "Grocery", Stock: 45},
		{ID: "prod-11", Name: "Oil 1L", NameKu: "زەیت ١ لیتر", NameAr: "زيت ١ لتر", Price: 6000, Category: "Grocery", Stock: 35},
		{ID: "prod-12", Name: "Tea Box", NameKu: "چا", NameAr: "شاي", Price: 3500, Category: "Beverages", Stock: 55},
	}

	customers := []domain.Customer{
		{ID: "cust-1", Name: "Mohammed Ali", Phone: "0750 123 4567", Email: "mohammed@email.com", Balance: -25000, TotalPurchases: 150000, CreatedAt: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{ID: "cust-2", Name: "Fatima Hassan", Phone: "0751 234 5678", Balance: 0, TotalPurchases: 85000, CreatedAt: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)},
		{ID: "cust-3", Name: "Karwan Rashid", Phone: "0770 345 6789", Balance: -10000, TotalPurchases: 220000, CreatedAt: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
		{ID: "cust-4", Name: "Layla Ahmed", Phone: "0780 456 7890", Email: "layla@email.com", Balance: 5000, TotalPurchases: 45000, CreatedAt: time.Date(2024, 4, 5, 0, 0, 0, 0, time.UTC)},
		{ID: "cust-5", Name: "Saman Omar", Phone: "0790 567 8901", Balance: -50000, TotalPurchases: 320000, CreatedAt: time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC)},
	}

	productMap := make(map[string]domain.Product, len(products))
	order := make([]string, 0, len(products))
	for _, p := range products {
		productMap[p.ID] = p
		order = append(order, p.ID)
	}
	customerMap := make(map[string]domain.Customer, len(customers))
	for _, c := range customers {
		customerMap[c.ID] = c
	}

	return &Store{
		products:      productMap,
		productOrder:  order,
		customersByID: customerMap,
		transactions:  make([]domain.Transaction, 0, 128),
		transfers:     make([]domain.CashTransfer, 0, 32),
		usersByName:   seedUsers(),
	}
}

// NewEmpty returns a store with no seed data. Tests use it when they need
// full control over the catalog and customer book.
func NewEmpty() *Store {
	return &Store{
		products:      make(map[string]domain.Product),
		productOrder:  make([]string, 0, 16),
		customersByID: make(map[string]domain.Customer),
		transactions:  make([]domain.Transaction, 0, 64),
		transfers:     make([]domain.CashTransfer, 0, 16),
		usersByName:   make(map[string]domain.UserAccount),
	}
}

// AddProduct registers a catalog entry. The catalog is owned externally; this
// exists for seeding and tests, not for the engine.
func (s *Store) AddProduct(product domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; !exists {
		s.productOrder = append(s.productOrder, product.ID)
	}
	s.products[product.ID] = product
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.productOrder))
	for _, id := range s.productOrder {
		products = append(products, s.products[id])
	}
	return products, nil
}

func (s *Store) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) GetProductsByIDs(_ context.Context, ids []string) (map[string]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}

func (s *Store) CreateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customer.Name = strings.TrimSpace(customer.Name)
	if customer.Name == "" {
		return nil, store.ErrInvalidTransaction
	}
	if customer.ID == "" {
		customer.ID = xid.New("cust")
	}
	if _, exists := s.customersByID[customer.ID]; exists {
		return nil, store.ErrInvalidTransaction
	}
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now().UTC()
	}
	// Starting balance may be non-zero (prior debt); lifetime purchases always
	// start from zero and only grow through loans.
	customer.TotalPurchases = 0

	s.customersByID[customer.ID] = customer
	created := customer
	return &created, nil
}

func (s *Store) UpdateCustomerContact(_ context.Context, id string, update domain.CustomerUpdateRequest) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	update.Name = strings.TrimSpace(update.Name)
	if update.Name == "" {
		return nil, store.ErrInvalidTransaction
	}
	customer, exists := s.customersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}

	customer.Name = update.Name
	customer.Phone = strings.TrimSpace(update.Phone)
	customer.Email = strings.TrimSpace(update.Email)

	s.customersByID[id] = customer
	updated := customer
	return &updated, nil
}

func (s *Store) GetCustomerByID(_ context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, exists := s.customersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyCustomer := customer
	return &copyCustomer, nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]domain.Customer, 0, len(s.customersByID))
	for _, c := range s.customersByID {
		customers = append(customers, c)
	}
	slices.SortFunc(customers, func(a, b domain.Customer) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return strings.Compare(a.ID, b.ID)
		}
		if a.CreatedAt.Before(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return customers, nil
}

func (s *Store) ApplyLoan(_ context.Context, customerID string, loanAmount int64, purchaseTotal int64) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.applyLoanLocked(customerID, loanAmount, purchaseTotal)
}

// applyLoanLocked is the single balance-mutation path; callers hold s.mu.
func (s *Store) applyLoanLocked(customerID string, loanAmount int64, purchaseTotal int64) (*domain.Customer, error) {
	if loanAmount <= 0 || purchaseTotal < 0 {
		return nil, store.ErrInvalidAmount
	}
	customer, exists := s.customersByID[customerID]
	if !exists {
		return nil, store.ErrNotFound
	}

	customer.Balance -= loanAmount
	customer.TotalPurchases += purchaseTotal
	s.customersByID[customerID] = customer

	updated := customer
	return &updated, nil
}

func (s *Store) CreateSale(_ context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(tx.Items) == 0 {
		return nil, store.ErrInvalidTransaction
	}
	if tx.ID == "" {
		tx.ID = xid.New("tx")
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}

	// Validate before mutating anything: a failed settlement must leave both
	// the log and the customer book untouched.
	if tx.Loan > 0 && tx.CustomerID != "" {
		if _, exists := s.customersByID[tx.CustomerID]; !exists {
			return nil, store.ErrNotFound
		}
	}

	stored := cloneTransaction(tx)
	s.transactions = append(s.transactions, stored)

	if tx.Loan > 0 && tx.CustomerID != "" {
		if _, err := s.applyLoanLocked(tx.CustomerID, tx.Loan, tx.Total); err != nil {
			// Unreachable after the existence check above; undo the append so
			// the ledger can never hold a sale whose balance update was lost.
			s.transactions = s.transactions[:len(s.transactions)-1]
			return nil, err
		}
	}

	created := cloneTransaction(stored)
	return &created, nil
}

func (s *Store) ListTransactions(_ context.Context, limit int) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Transaction, 0, len(s.transactions))
	// Most recent first for display; insertion order is preserved internally.
	for i := len(s.transactions) - 1; i >= 0; i-- {
		result = append(result, cloneTransaction(s.transactions[i]))
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (s *Store) ListTransactionsInRange(_ context.Context, from time.Time, to time.Time) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		if tx.CreatedAt.Before(from) || !tx.CreatedAt.Before(to) {
			continue
		}
		result = append(result, cloneTransaction(tx))
	}
	return result, nil
}

func (s *Store) CreateTransfer(_ context.Context, transfer domain.CashTransfer) (*domain.CashTransfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if transfer.Amount <= 0 {
		return nil, store.ErrInvalidAmount
	}
	if transfer.Kind != domain.TransferCashierToAccountant && transfer.Kind != domain.TransferWithdrawal {
		return nil, store.ErrInvalidTransaction
	}
	if transfer.ID == "" {
		transfer.ID = xid.New("transfer")
	}
	if transfer.CreatedAt.IsZero() {
		transfer.CreatedAt = time.Now().UTC()
	}

	s.transfers = append(s.transfers, transfer)
	created := transfer
	return &created, nil
}

func (s *Store) ListTransfers(_ context.Context, limit int) ([]domain.CashTransfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.CashTransfer, 0, len(s.transfers))
	for i := len(s.transfers) - 1; i >= 0; i-- {
		result = append(result, s.transfers[i])
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (s *Store) ListTransfersInRange(_ context.Context, from time.Time, to time.Time) ([]domain.CashTransfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.CashTransfer, 0, len(s.transfers))
	for _, transfer := range s.transfers {
		if transfer.CreatedAt.Before(from) || !transfer.CreatedAt.Before(to) {
			continue
		}
		result = append(result, transfer)
	}
	return result, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidTransaction
	}
	if _, exists := s.usersByName[username]; exists {
		return store.ErrInvalidTransaction
	}
	user.Username = username
	if user.ID == "" {
		user.ID = xid.New("user")
	}
	if user.Role == "" {
		user.Role = domain.RoleCashier
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.usersByName[user.Username] = user
	return nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.usersByName[strings.ToLower(strings.TrimSpace(username))]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyUser := user
	return &copyUser, nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByName))
	for _, user := range s.usersByName {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidTransaction
	}
	user, exists := s.usersByName[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByName[username] = user
	return nil
}

func cloneTransaction(src domain.Transaction) domain.Transaction {
	dup := src
	items := make([]domain.CartLine, len(src.Items))
	copy(items, src.Items)
	dup.Items = items
	return dup
}
