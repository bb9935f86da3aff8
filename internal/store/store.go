package store

import (
	"context"
	"errors"
	"time"

	"zirng/backend/internal/domain"
)

var (
	// ErrNotFound reports a customer/product/user id that no store knows about.
	ErrNotFound = errors.New("not found")
	// ErrInvalidAmount reports a non-positive amount where positivity is required.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidTransaction reports a sale or request that fails validation.
	ErrInvalidTransaction = errors.New("invalid transaction")
)

// Repository is the system of record for the ledger: the product catalog,
// customer balances, and the append-only transaction and cash-transfer logs.
// Transactions and transfers are never edited or removed once recorded.
type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)

	CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error)
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	// UpdateCustomerContact replaces name, phone and email. Balance and total
	// purchases are left as they are.
	UpdateCustomerContact(ctx context.Context, id string, update domain.CustomerUpdateRequest) (*domain.Customer, error)
	// ApplyLoan is the only balance mutation path: it decreases the customer's
	// balance by loanAmount and increases total purchases by purchaseTotal.
	// Total purchases is monotonic; purchaseTotal must not be negative.
	ApplyLoan(ctx context.Context, customerID string, loanAmount int64, purchaseTotal int64) (*domain.Customer, error)

	// CreateSale appends the transaction and, when it carries a loan against a
	// bound customer, applies the balance delta — both under one lock, so a
	// logged transaction can never be missing its balance update. If the
	// referenced customer is unknown, nothing is recorded.
	CreateSale(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, limit int) ([]domain.Transaction, error)
	ListTransactionsInRange(ctx context.Context, from time.Time, to time.Time) ([]domain.Transaction, error)

	CreateTransfer(ctx context.Context, transfer domain.CashTransfer) (*domain.CashTransfer, error)
	ListTransfers(ctx context.Context, limit int) ([]domain.CashTransfer, error)
	ListTransfersInRange(ctx context.Context, from time.Time, to time.Time) ([]domain.CashTransfer, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error)
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
