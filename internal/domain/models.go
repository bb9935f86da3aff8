package domain

import "time"

// Product is a catalog entry. The catalog is read-only to the ledger engine:
// prices are snapshotted into transactions at settlement time and stock is
// advisory only (it is never decremented here).
type Product struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	NameKu   string `json:"name_ku"`
	NameAr   string `json:"name_ar"`
	Price    int64  `json:"price"`
	Category string `json:"category"`
	Stock    int    `json:"stock"`
	Barcode  string `json:"barcode,omitempty"`
}

// Customer carries a signed running balance: negative means the customer owes
// the store, positive means the customer holds credit. TotalPurchases only
// ever grows, and only through loan-carrying settlements.
type Customer struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email,omitempty"`
	Balance        int64     `json:"balance"`
	TotalPurchases int64     `json:"total_purchases"`
	CreatedAt      time.Time `json:"created_at"`
}

type CustomerCreateRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Balance int64  `json:"balance"`
}

// CustomerUpdateRequest edits contact details only. Balance and lifetime
// purchases never change through this path.
type CustomerUpdateRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// CartLine is one distinct product in a cart. Product is a snapshot taken when
// the line was added, so a settled transaction keeps the price it sold at.
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
	Discount int64   `json:"discount"`
}

type CartTotals struct {
	Subtotal int64 `json:"subtotal"`
	Discount int64 `json:"discount"`
	Total    int64 `json:"total"`
}

// Transaction is an immutable settlement record. Exactly one of Change/Loan is
// non-zero unless Paid == Total, and Paid+Change == Total+Loan always holds.
type Transaction struct {
	ID           string     `json:"id"`
	Items        []CartLine `json:"items"`
	CustomerID   string     `json:"customer_id,omitempty"`
	CustomerName string     `json:"customer_name,omitempty"`
	Subtotal     int64      `json:"subtotal"`
	Discount     int64      `json:"discount"`
	Total        int64      `json:"total"`
	Paid         int64      `json:"paid"`
	Change       int64      `json:"change"`
	Loan         int64      `json:"loan"`
	CashierID    string     `json:"cashier_id"`
	CashierName  string     `json:"cashier_name"`
	Note         string     `json:"note,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	Synced       bool       `json:"synced"`
}

// CashTransfer records cash moving between role holders. Amounts are always
// positive; the direction is carried by the from/to identities and the kind.
type CashTransfer struct {
	ID           string    `json:"id"`
	FromUserID   string    `json:"from_user_id"`
	FromUserName string    `json:"from_user_name"`
	ToUserID     string    `json:"to_user_id"`
	ToUserName   string    `json:"to_user_name"`
	Amount       int64     `json:"amount"`
	Kind         string    `json:"kind"`
	CreatedAt    time.Time `json:"created_at"`
	Synced       bool      `json:"synced"`
}

const (
	TransferCashierToAccountant = "cashier_to_accountant"
	TransferWithdrawal          = "withdrawal"
)

const (
	RoleManager    = "manager"
	RoleAccountant = "accountant"
	RoleCashier    = "cashier"
)

// Actor is the authenticated identity attached to every engine operation.
type Actor struct {
	ID       string
	Username string
	Name     string
	Role     string
}

type CheckoutLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Discount  int64  `json:"discount"`
}

type CheckoutRequest struct {
	Lines               []CheckoutLine `json:"lines"`
	CustomerID          string         `json:"customer_id,omitempty"`
	Paid                int64          `json:"paid"`
	Note                string         `json:"note,omitempty"`
	AllowUnassignedLoan bool           `json:"allow_unassigned_loan,omitempty"`
}

type TransferRequest struct {
	Kind       string `json:"kind"`
	Amount     int64  `json:"amount"`
	ToUserID   string `json:"to_user_id,omitempty"`
	ManagerPIN string `json:"manager_pin,omitempty"`
}

// DailyStats aggregates the transaction log for one calendar day (UTC).
// CashOut stays zero unless withdrawal aggregation is enabled in config.
type DailyStats struct {
	Date             string `json:"date"`
	TotalSales       int64  `json:"total_sales"`
	CashIn           int64  `json:"cash_in"`
	CashOut          int64  `json:"cash_out"`
	Loans            int64  `json:"loans"`
	TransactionCount int    `json:"transaction_count"`
}

// RangeStats aggregates the transaction log over an inclusive day range (UTC).
type RangeStats struct {
	Start            string `json:"start"`
	End              string `json:"end"`
	TotalSales       int64  `json:"total_sales"`
	TotalCashIn      int64  `json:"total_cash_in"`
	TotalCashOut     int64  `json:"total_cash_out"`
	TotalLoans       int64  `json:"total_loans"`
	TransactionCount int    `json:"transaction_count"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	Name        string `json:"name"`
	ExpiresAt   string `json:"expires_at"`
}

type UserCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type UserView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	ID        string
	Username  string
	Password  string
	Name      string
	Role      string
	Active    bool
	CreatedAt time.Time
}
